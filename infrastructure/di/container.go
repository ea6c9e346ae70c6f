package di

import (
	"net/http"

	"famorg/application/ports"
	"famorg/application/services"
	domainconfig "famorg/domain/config"
	"famorg/infrastructure/config"
	"famorg/infrastructure/events"
	"famorg/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	DomainConfig *domainconfig.DomainConfig
	Logger       *zap.Logger

	Metrics *observability.Collector
	Tracing *observability.TracerProvider
	Events  *events.Dispatcher

	Documents ports.DocumentStore
	Tree      ports.TreeScanner
	Members   ports.MemberAttributeStore

	Structure  *services.StructureService
	Knowledge  *services.KnowledgeService
	Categories *services.CategoryService
	Imports    *services.ImportService
	Configs    *services.ConfigService
	Sessions   *services.SessionReviewer

	Handler http.Handler
}
