package prometheus

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewEntityMetrics(reg)

	m.FindDuration("profile").ObserveDuration()
	m.CommitDuration("profile").ObserveDuration()
	m.EventsCommitted("profile", 3)
	m.CommitConflict("profile")
	m.PluginFailure("profile", "nats-publisher")
	m.CacheHit("profile")
	m.CacheHit("profile")
	m.CacheMiss("profile")

	impl := m.(*entityMetrics)
	assert.Equal(t, 3.0, testutil.ToFloat64(impl.eventsCommitted.WithLabelValues("profile")))
	assert.Equal(t, 1.0, testutil.ToFloat64(impl.concurrencyConflicts.WithLabelValues("profile")))
	assert.Equal(t, 1.0, testutil.ToFloat64(impl.pluginFailures.WithLabelValues("profile", "nats-publisher")))
	assert.Equal(t, 2.0, testutil.ToFloat64(impl.cacheHits.WithLabelValues("profile")))
	assert.Equal(t, 1.0, testutil.ToFloat64(impl.cacheMisses.WithLabelValues("profile")))

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"ventyd_entity_find_duration_seconds",
		"ventyd_entity_commit_duration_seconds",
		"ventyd_entity_events_committed_total",
		"ventyd_entity_concurrency_conflicts_total",
		"ventyd_entity_plugin_failures_total",
		"ventyd_entity_cache_hits_total",
		"ventyd_entity_cache_misses_total",
	} {
		assert.True(t, names[want], "missing metric %s", want)
	}
}

func TestEntityMetrics_registersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewEntityMetrics(reg)

	require.Panics(t, func() {
		NewEntityMetrics(reg)
	})
}
