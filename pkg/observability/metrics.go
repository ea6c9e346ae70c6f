package observability

import (
	"context"
	"net/http"

	"famorg/application/ports"
	domainevents "famorg/domain/events"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application.
// Each collector owns its registry so tests can build as many as they like.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Business metrics
	ItemsSaved      prometheus.Counter
	ItemsDeleted    prometheus.Counter
	ItemsLearned    prometheus.Counter
	ItemsForgotten  prometheus.Counter
	ItemsImported   prometheus.Counter
	ImportSkipped   prometheus.Counter
	CategoryChanges *prometheus.CounterVec

	// Store metrics
	StoreOperations *prometheus.CounterVec
	StoreDuration   *prometheus.HistogramVec

	// Tree cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
}

var _ ports.StoreObserver = (*Collector)(nil)

// NewCollector creates a new metrics collector with the given namespace
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		ItemsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "knowledge_items_saved_total",
			Help:      "Total number of knowledge items created or replaced",
		}),
		ItemsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "knowledge_items_deleted_total",
			Help:      "Total number of knowledge items deleted",
		}),
		ItemsLearned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "knowledge_items_learned_total",
			Help:      "Total number of learn marks",
		}),
		ItemsForgotten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "knowledge_items_forgotten_total",
			Help:      "Total number of forget marks",
		}),
		ItemsImported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "knowledge_items_imported_total",
			Help:      "Total number of bulk-imported items",
		}),
		ImportSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "knowledge_import_skipped_total",
			Help:      "Total number of import records skipped for missing level names",
		}),
		CategoryChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "knowledge_category_changes_total",
				Help:      "Category and leaf creations and deletions",
			},
			[]string{"change"},
		),
		StoreOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_operations_total",
				Help:      "Total number of document store operations",
			},
			[]string{"backend", "operation", "status"},
		),
		StoreDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_operation_duration_seconds",
				Help:      "Document store operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"backend", "operation"},
		),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tree_cache_hits_total",
			Help:      "Total number of tree cache hits",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tree_cache_misses_total",
			Help:      "Total number of tree cache misses",
		}),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.ItemsSaved,
		c.ItemsDeleted,
		c.ItemsLearned,
		c.ItemsForgotten,
		c.ItemsImported,
		c.ImportSkipped,
		c.CategoryChanges,
		c.StoreOperations,
		c.StoreDuration,
		c.CacheHits,
		c.CacheMisses,
	)

	return c
}

// ObserveStoreOperation implements ports.StoreObserver
func (c *Collector) ObserveStoreOperation(backend, op string, seconds float64, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.StoreOperations.WithLabelValues(backend, op, status).Inc()
	c.StoreDuration.WithLabelValues(backend, op).Observe(seconds)
}

// CacheHit records a tree cache hit
func (c *Collector) CacheHit() { c.CacheHits.Inc() }

// CacheMiss records a tree cache miss
func (c *Collector) CacheMiss() { c.CacheMisses.Inc() }

// HandleEvent turns domain events into business counters
func (c *Collector) HandleEvent(_ context.Context, evt domainevents.DomainEvent) {
	switch e := evt.(type) {
	case domainevents.ItemSaved:
		c.ItemsSaved.Inc()
	case domainevents.ItemDeleted:
		c.ItemsDeleted.Inc()
	case domainevents.ItemLearned:
		c.ItemsLearned.Inc()
	case domainevents.ItemForgotten:
		c.ItemsForgotten.Inc()
	case domainevents.ItemsImported:
		c.ItemsImported.Add(float64(e.Imported))
		c.ImportSkipped.Add(float64(e.Skipped))
	case domainevents.CategoryCreated, domainevents.CategoryDeleted, domainevents.LeafCreated:
		c.CategoryChanges.WithLabelValues(evt.GetEventType()).Inc()
	}
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// GetRegistry returns the Prometheus registry for this collector
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}
