//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"famorg/application/services"
	"famorg/infrastructure/config"

	"github.com/google/wire"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideDomainConfig,
	ProvideMetrics,
	ProvideTracing,
	ProvideDispatcher,
	ProvideEventPublisher,
	ProvideKnowledgeStore,
	ProvideDocumentStore,
	ProvideScanner,
	ProvideTreeScanner,
	ProvideLeafRepository,
	ProvideCategoryRepository,
	ProvideMemberStore,
	ProvideMemberAttributeStore,
	services.NewStructureService,
	services.NewKnowledgeService,
	services.NewCategoryService,
	services.NewImportService,
	services.NewConfigService,
	ProvideSessionReviewer,
	ProvideReadinessCheck,
	ProvideWriteLimiter,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
