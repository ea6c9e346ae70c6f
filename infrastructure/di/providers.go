package di

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"famorg/application/ports"
	"famorg/application/services"
	domainconfig "famorg/domain/config"
	"famorg/infrastructure/config"
	"famorg/infrastructure/events"
	"famorg/infrastructure/members"
	"famorg/infrastructure/persistence/cache"
	"famorg/infrastructure/persistence/jsonfs"
	"famorg/infrastructure/persistence/sqlite"
	"famorg/interfaces/http/rest"
	"famorg/interfaces/http/rest/middleware"
	"famorg/pkg/observability"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// KnowledgeStore is the document store rooted at the knowledge directory.
// Its document ids are leaf paths.
type KnowledgeStore struct {
	*jsonfs.Store
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = logger.Sync() }, nil
}

// ProvideDomainConfig selects the domain rules for the environment
func ProvideDomainConfig(cfg *config.Config) *domainconfig.DomainConfig {
	return domainconfig.LoadDomainConfig(cfg.Environment)
}

// ProvideMetrics creates the Prometheus collector, or nil when disabled
func ProvideMetrics(cfg *config.Config) *observability.Collector {
	if !cfg.EnableMetrics {
		return nil
	}
	return observability.NewCollector("famorg")
}

// ProvideTracing installs the OTLP tracer provider when tracing is enabled
func ProvideTracing(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.TracerProvider, func(), error) {
	if !cfg.EnableTracing {
		return nil, func() {}, nil
	}

	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName: "famorg",
		Environment: cfg.Environment,
		Endpoint:    cfg.OTLPEndpoint,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	logger.Info("Tracing enabled", zap.String("endpoint", cfg.OTLPEndpoint))

	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Failed to flush traces", zap.Error(err))
		}
	}
	return tp, cleanup, nil
}

// ProvideDispatcher creates the in-process event dispatcher
func ProvideDispatcher(logger *zap.Logger, metrics *observability.Collector) *events.Dispatcher {
	dispatcher := events.NewDispatcher(logger)
	if metrics != nil {
		dispatcher.Subscribe(metrics.HandleEvent)
	}
	return dispatcher
}

// ProvideEventPublisher exposes the dispatcher as the publisher port
func ProvideEventPublisher(dispatcher *events.Dispatcher) ports.EventPublisher {
	return dispatcher
}

// ProvideKnowledgeStore opens the knowledge directory
func ProvideKnowledgeStore(cfg *config.Config, logger *zap.Logger, metrics *observability.Collector) (*KnowledgeStore, error) {
	fsys, err := jsonfs.NewOSFS(cfg.KnowledgeDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge directory: %w", err)
	}
	store := jsonfs.NewStore(fsys, jsonfs.NewLocker(), logger)
	if metrics != nil {
		store.WithObserver(metrics)
	}
	return &KnowledgeStore{Store: store}, nil
}

// ProvideDocumentStore opens the store for the flat documents (knowledge
// config, member attributes) on the configured backend
func ProvideDocumentStore(cfg *config.Config, logger *zap.Logger, metrics *observability.Collector) (ports.DocumentStore, func(), error) {
	switch cfg.StoreBackend {
	case config.StoreBackendSQLite:
		store, err := sqlite.Open(cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		if metrics != nil {
			store.WithObserver(metrics)
		}
		cleanup := func() {
			if err := store.Close(); err != nil {
				logger.Warn("Failed to close sqlite store", zap.Error(err))
			}
		}
		return store, cleanup, nil

	default:
		fsys, err := jsonfs.NewOSFS(cfg.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open data directory: %w", err)
		}
		store := jsonfs.NewStore(fsys, jsonfs.NewLocker(), logger)
		if metrics != nil {
			store.WithObserver(metrics)
		}
		return store, func() {}, nil
	}
}

// ProvideScanner creates the tree scanner over the knowledge directory
func ProvideScanner(store *KnowledgeStore, domainCfg *domainconfig.DomainConfig, logger *zap.Logger) *jsonfs.Scanner {
	return jsonfs.NewScanner(store.Store, domainCfg.ImagesDir, logger)
}

// ProvideTreeScanner puts the optional tree cache in front of the scanner.
// The cache is invalidated by domain events and by an fsnotify watcher on
// the knowledge directory.
func ProvideTreeScanner(
	cfg *config.Config,
	scanner *jsonfs.Scanner,
	dispatcher *events.Dispatcher,
	metrics *observability.Collector,
	logger *zap.Logger,
) (ports.TreeScanner, func(), error) {
	if !cfg.EnableTreeCache {
		return scanner, func() {}, nil
	}

	treeCache := cache.NewTreeCache(scanner, logger)
	if metrics != nil {
		treeCache.WithObserver(metrics)
	}
	dispatcher.Subscribe(treeCache.HandleEvent)

	if err := treeCache.Watch(cfg.KnowledgeDir); err != nil {
		// Without the watcher only external edits go unnoticed
		logger.Warn("Knowledge tree watcher unavailable", zap.Error(err))
	}

	cleanup := func() {
		if err := treeCache.Close(); err != nil {
			logger.Warn("Failed to stop tree watcher", zap.Error(err))
		}
	}
	return treeCache, cleanup, nil
}

// ProvideLeafRepository creates the leaf repository
func ProvideLeafRepository(store *KnowledgeStore) ports.LeafRepository {
	return jsonfs.NewLeafRepository(store.Store)
}

// ProvideCategoryRepository creates the category repository
func ProvideCategoryRepository(store *KnowledgeStore) ports.CategoryRepository {
	return jsonfs.NewCategoryRepository(store.Store)
}

// ProvideMemberStore creates the member attribute store behind a circuit breaker
func ProvideMemberStore(docs ports.DocumentStore, domainCfg *domainconfig.DomainConfig, logger *zap.Logger) *members.BreakerStore {
	store := members.NewStore(docs, domainCfg.MemberAttributesDoc, logger)
	return members.NewBreakerStore(store, members.DefaultBreakerConfig(), logger)
}

// ProvideMemberAttributeStore exposes the guarded store as the port
func ProvideMemberAttributeStore(store *members.BreakerStore) ports.MemberAttributeStore {
	return store
}

// ProvideSessionReviewer wires free-learning sessions to the services
func ProvideSessionReviewer(knowledge *services.KnowledgeService, configs *services.ConfigService) *services.SessionReviewer {
	return services.NewSessionReviewer(knowledge, configs)
}

// ProvideReadinessCheck reports not ready while the member store breaker is open
func ProvideReadinessCheck(memberStore *members.BreakerStore) rest.ReadinessCheck {
	return func() error {
		if memberStore.State() == gobreaker.StateOpen {
			return errors.New("member attribute store unavailable")
		}
		return nil
	}
}

// ProvideWriteLimiter creates the per-client limiter for mutating API calls.
// A non-positive WRITE_RATE_LIMIT disables it.
func ProvideWriteLimiter(cfg *config.Config) (*middleware.TokenBucketLimiter, func()) {
	if cfg.WriteRateLimit <= 0 {
		return nil, func() {}
	}
	limiter := middleware.PerMinute(cfg.WriteRateLimit)
	stop := make(chan struct{})
	go limiter.RunSweeper(10*time.Minute, stop)
	return limiter, func() { close(stop) }
}

// ProvideRouter builds the HTTP handler
func ProvideRouter(
	cfg *config.Config,
	limiter *middleware.TokenBucketLimiter,
	structure *services.StructureService,
	knowledge *services.KnowledgeService,
	categories *services.CategoryService,
	imports *services.ImportService,
	configs *services.ConfigService,
	memberStore ports.MemberAttributeStore,
	metrics *observability.Collector,
	ready rest.ReadinessCheck,
	logger *zap.Logger,
) http.Handler {
	router := rest.NewRouter(
		structure,
		knowledge,
		categories,
		imports,
		configs,
		memberStore,
		metrics,
		ready,
		rest.Options{
			EnableCORS:     cfg.EnableCORS,
			EnableTracing:  cfg.EnableTracing,
			MaxImportBytes: cfg.MaxImportBytes,
			Debug:          cfg.IsDevelopment(),
			WriteLimiter:   limiter,
		},
		logger,
	)
	return router.Setup()
}
