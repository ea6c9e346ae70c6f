package rest

import (
	"net/http"

	"famorg/application/ports"
	"famorg/application/services"
	"famorg/interfaces/http/rest/handlers"
	"famorg/interfaces/http/rest/middleware"
	pkgerrors "famorg/pkg/errors"
	"famorg/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Options toggles the optional parts of the HTTP surface
type Options struct {
	EnableCORS     bool
	EnableTracing  bool
	AllowedOrigins []string
	MaxImportBytes int64
	Debug          bool
	// WriteLimiter throttles mutating API calls per client; nil disables it
	WriteLimiter *middleware.TokenBucketLimiter
}

// ReadinessCheck reports whether the service can take traffic
type ReadinessCheck func() error

// Router creates and configures the HTTP router
type Router struct {
	structure  *services.StructureService
	knowledge  *services.KnowledgeService
	categories *services.CategoryService
	imports    *services.ImportService
	configs    *services.ConfigService
	members    ports.MemberAttributeStore
	metrics    *observability.Collector
	ready      ReadinessCheck
	opts       Options
	logger     *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	structure *services.StructureService,
	knowledge *services.KnowledgeService,
	categories *services.CategoryService,
	imports *services.ImportService,
	configs *services.ConfigService,
	members ports.MemberAttributeStore,
	metrics *observability.Collector,
	ready ReadinessCheck,
	opts Options,
	logger *zap.Logger,
) *Router {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	return &Router{
		structure:  structure,
		knowledge:  knowledge,
		categories: categories,
		imports:    imports,
		configs:    configs,
		members:    members,
		metrics:    metrics,
		ready:      ready,
		opts:       opts,
		logger:     logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()
	errorHandler := pkgerrors.NewErrorHandler(rt.logger, rt.opts.Debug)

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(errorHandler.Middleware)
	router.Use(middleware.Logger(rt.logger))
	if rt.opts.EnableTracing {
		router.Use(observability.TracingMiddleware("famorg"))
	}
	if rt.metrics != nil {
		router.Use(observability.MetricsMiddleware(rt.metrics))
	}

	// CORS configuration
	if rt.opts.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rt.opts.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", "X-Trace-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.metrics != nil {
		router.Handle("/metrics", rt.metrics.Handler())
	}

	knowledgeHandler := handlers.NewKnowledgeHandler(rt.structure, rt.knowledge, rt.configs, errorHandler, rt.logger)
	categoryHandler := handlers.NewCategoryHandler(rt.categories, errorHandler, rt.logger)
	importHandler := handlers.NewImportHandler(rt.imports, rt.opts.MaxImportBytes, errorHandler, rt.logger)
	configHandler := handlers.NewConfigHandler(rt.configs, errorHandler, rt.logger)
	memberHandler := handlers.NewMemberHandler(rt.members, errorHandler, rt.logger)

	router.Route("/api", func(r chi.Router) {
		if rt.opts.WriteLimiter != nil {
			r.Use(middleware.RateLimitWrites(rt.opts.WriteLimiter, errorHandler, rt.logger))
		}

		r.Route("/knowledge", func(r chi.Router) {
			r.Get("/structure", knowledgeHandler.GetStructure)

			r.Get("/config", configHandler.GetConfig)
			r.Put("/config", configHandler.UpdateConfig)

			r.Post("/category", categoryHandler.CreateCategory)
			r.Delete("/category", categoryHandler.DeleteCategory)
			r.Post("/subcategory", categoryHandler.CreateSubcategory)

			r.Get("/items", knowledgeHandler.ListItems)
			r.Post("/item", knowledgeHandler.UpsertItem)
			r.Delete("/item", knowledgeHandler.DeleteItem)
			r.Post("/item/learn", knowledgeHandler.LearnItem)
			r.Post("/item/forget", knowledgeHandler.ForgetItem)

			r.Post("/import", importHandler.Import)
		})

		r.Route("/member-attributes", func(r chi.Router) {
			r.Get("/", memberHandler.ListAttributes)
			r.Put("/{memberID}/{attrID}", memberHandler.SetAttribute)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if rt.ready != nil {
		if err := rt.ready(); err != nil {
			rt.logger.Warn("Readiness check failed", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"not ready"}`))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
