package entity

import (
	"time"

	"github.com/tonyfromundefined/ventyd-sub000/core/cache"
)

type valueOption[T any] struct{ v T }

// === schema ===

type (
	schemaOptions struct {
		separator   string
		idGenerator IDGenerator
		now         NowFunc
		maxQueued   int
	}

	SchemaOption interface{ applyToSchema(*schemaOptions) }

	SeparatorOption   valueOption[string]
	IDGeneratorOption valueOption[IDGenerator]
	ClockOption       valueOption[NowFunc]
	MaxQueuedOption   valueOption[int]
)

// WithSeparator overrides the namespace separator (default ":").
func WithSeparator(sep string) SeparatorOption { return SeparatorOption{v: sep} }

// WithIDGenerator overrides the generator used for entity and event IDs.
func WithIDGenerator(gen IDGenerator) IDGeneratorOption { return IDGeneratorOption{v: gen} }

// WithClock overrides the event timestamp source.
func WithClock(now NowFunc) ClockOption { return ClockOption{v: now} }

// WithMaxQueuedEvents overrides the uncommitted queue ceiling.
func WithMaxQueuedEvents(n int) MaxQueuedOption { return MaxQueuedOption{v: n} }

func (o SeparatorOption) applyToSchema(s *schemaOptions)   { s.separator = o.v }
func (o IDGeneratorOption) applyToSchema(s *schemaOptions) { s.idGenerator = o.v }
func (o ClockOption) applyToSchema(s *schemaOptions)       { s.now = o.v }
func (o MaxQueuedOption) applyToSchema(s *schemaOptions)   { s.maxQueued = o.v }

func newSchemaOptions(opts ...SchemaOption) schemaOptions {
	options := schemaOptions{
		separator:   DefaultSeparator,
		idGenerator: DefaultIDGenerator(),
		now:         time.Now,
		maxQueued:   DefaultMaxQueuedEvents,
	}
	for _, opt := range opts {
		opt.applyToSchema(&options)
	}
	return options
}

// === dispatch ===

type (
	dispatchOptions struct {
		eventID   string
		createdAt time.Time
	}

	DispatchOption interface{ applyToDispatch(*dispatchOptions) }

	EventIDOption        valueOption[string]
	EventCreatedAtOption valueOption[time.Time]
)

// WithEventID supplies the event ID instead of generating one.
func WithEventID(id string) EventIDOption { return EventIDOption{v: id} }

// WithEventCreatedAt supplies the event timestamp instead of reading the
// schema clock.
func WithEventCreatedAt(t time.Time) EventCreatedAtOption { return EventCreatedAtOption{v: t} }

func (o EventIDOption) applyToDispatch(d *dispatchOptions)        { d.eventID = o.v }
func (o EventCreatedAtOption) applyToDispatch(d *dispatchOptions) { d.createdAt = o.v }

func newDispatchOptions(opts ...DispatchOption) dispatchOptions {
	options := dispatchOptions{}
	for _, opt := range opts {
		opt.applyToDispatch(&options)
	}
	return options
}

// === repository ===

type (
	repositoryOptions struct {
		plugins       []Plugin
		onPluginError PluginErrorHook
		metrics       Metrics
		cache         cache.Cache
	}

	RepositoryOption interface{ applyToRepository(*repositoryOptions) }

	PluginsOption         struct{ ps []Plugin }
	PluginErrorHookOption valueOption[PluginErrorHook]
	MetricsOption         valueOption[Metrics]
	StateCacheOption      valueOption[cache.Cache]
)

// WithPlugins registers post-commit plugins. May be given multiple times.
func WithPlugins(ps ...Plugin) PluginsOption { return PluginsOption{ps: ps} }

// WithPluginErrorHook routes isolated plugin failures to hook. Without a
// hook, failures are dropped.
func WithPluginErrorHook(hook PluginErrorHook) PluginErrorHookOption {
	return PluginErrorHookOption{v: hook}
}

// WithMetrics sets the metrics implementation.
func WithMetrics(m Metrics) MetricsOption { return MetricsOption{v: m} }

// WithStateCache caches committed state so FindOneCached can serve readonly
// snapshots without replay.
func WithStateCache(c cache.Cache) StateCacheOption { return StateCacheOption{v: c} }

// WithStateCacheLRU is WithStateCache with an LRU cache of the given size.
func WithStateCacheLRU(size int) StateCacheOption {
	return WithStateCache(cache.NewLRU(cache.LRUOpts{Size: size}))
}

func (o PluginsOption) applyToRepository(r *repositoryOptions) {
	r.plugins = append(r.plugins, o.ps...)
}
func (o PluginErrorHookOption) applyToRepository(r *repositoryOptions) { r.onPluginError = o.v }
func (o MetricsOption) applyToRepository(r *repositoryOptions)         { r.metrics = o.v }
func (o StateCacheOption) applyToRepository(r *repositoryOptions)      { r.cache = o.v }

func newRepositoryOptions(opts ...RepositoryOption) repositoryOptions {
	options := repositoryOptions{
		metrics: NopMetrics(),
	}
	for _, opt := range opts {
		opt.applyToRepository(&options)
	}
	return options
}
