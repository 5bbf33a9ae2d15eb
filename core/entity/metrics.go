package entity

import "github.com/tonyfromundefined/ventyd-sub000/core/metrics"

// Metrics defines the instrumentation points of the runtime. Implementations
// must be safe for concurrent use.
type Metrics interface {
	// Repository operations
	FindDuration(entityName string) metrics.Timer
	CommitDuration(entityName string) metrics.Timer
	EventsCommitted(entityName string, count int)
	CommitConflict(entityName string)

	// Plugins
	PluginFailure(entityName, plugin string)

	// State cache
	CacheHit(entityName string)
	CacheMiss(entityName string)
}

type nopMetrics struct{}

func (nopMetrics) FindDuration(string) metrics.Timer   { return metrics.NopTimer() }
func (nopMetrics) CommitDuration(string) metrics.Timer { return metrics.NopTimer() }
func (nopMetrics) EventsCommitted(string, int)         {}
func (nopMetrics) CommitConflict(string)               {}

func (nopMetrics) PluginFailure(string, string) {}

func (nopMetrics) CacheHit(string)  {}
func (nopMetrics) CacheMiss(string) {}

// NopMetrics returns a no-op Metrics implementation.
func NopMetrics() Metrics { return nopMetrics{} }
