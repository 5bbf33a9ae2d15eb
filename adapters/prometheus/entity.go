package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tonyfromundefined/ventyd-sub000/core/entity"
	"github.com/tonyfromundefined/ventyd-sub000/core/metrics"
)

// entityMetrics implements entity.Metrics using Prometheus.
type entityMetrics struct {
	// Repository metrics
	findDuration         *prometheus.HistogramVec
	commitDuration       *prometheus.HistogramVec
	eventsCommitted      *prometheus.CounterVec
	concurrencyConflicts *prometheus.CounterVec

	// Plugin metrics
	pluginFailures *prometheus.CounterVec

	// Cache metrics
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
}

// NewEntityMetrics creates a new Prometheus implementation of entity.Metrics.
func NewEntityMetrics(reg prometheus.Registerer) entity.Metrics {
	m := &entityMetrics{
		findDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ventyd_entity_find_duration_seconds",
			Help:    "Repository find latency in seconds",
			Buckets: defaultBuckets,
		}, []string{"entity_name"}),

		commitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ventyd_entity_commit_duration_seconds",
			Help:    "Repository commit latency in seconds",
			Buckets: defaultBuckets,
		}, []string{"entity_name"}),

		eventsCommitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ventyd_entity_events_committed_total",
			Help: "Total number of events committed",
		}, []string{"entity_name"}),

		concurrencyConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ventyd_entity_concurrency_conflicts_total",
			Help: "Total number of optimistic lock failures",
		}, []string{"entity_name"}),

		pluginFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ventyd_entity_plugin_failures_total",
			Help: "Total number of isolated plugin failures",
		}, []string{"entity_name", "plugin"}),

		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ventyd_entity_cache_hits_total",
			Help: "Total number of state cache hits",
		}, []string{"entity_name"}),

		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ventyd_entity_cache_misses_total",
			Help: "Total number of state cache misses",
		}, []string{"entity_name"}),
	}

	reg.MustRegister(
		m.findDuration,
		m.commitDuration,
		m.eventsCommitted,
		m.concurrencyConflicts,
		m.pluginFailures,
		m.cacheHits,
		m.cacheMisses,
	)

	return m
}

func (m *entityMetrics) FindDuration(entityName string) metrics.Timer {
	return newTimer(m.findDuration.WithLabelValues(entityName))
}

func (m *entityMetrics) CommitDuration(entityName string) metrics.Timer {
	return newTimer(m.commitDuration.WithLabelValues(entityName))
}

func (m *entityMetrics) EventsCommitted(entityName string, count int) {
	m.eventsCommitted.WithLabelValues(entityName).Add(float64(count))
}

func (m *entityMetrics) CommitConflict(entityName string) {
	m.concurrencyConflicts.WithLabelValues(entityName).Inc()
}

func (m *entityMetrics) PluginFailure(entityName, plugin string) {
	m.pluginFailures.WithLabelValues(entityName, plugin).Inc()
}

func (m *entityMetrics) CacheHit(entityName string) {
	m.cacheHits.WithLabelValues(entityName).Inc()
}

func (m *entityMetrics) CacheMiss(entityName string) {
	m.cacheMisses.WithLabelValues(entityName).Inc()
}

var _ entity.Metrics = (*entityMetrics)(nil)
