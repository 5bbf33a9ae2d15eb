package entity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tonyfromundefined/ventyd-sub000/core/cache"
	"github.com/tonyfromundefined/ventyd-sub000/core/sf"
)

// Repository orchestrates load and commit for one entity type: FindOne
// fetches and replays an event stream into a fresh entity; Commit persists
// queued events through the Adapter, flushes the queue and fans out to
// plugins.
type Repository[S any] struct {
	log           *slog.Logger
	schema        *Schema[S]
	adapter       Adapter
	plugins       []Plugin
	onPluginError PluginErrorHook
	cache         cache.TypedCache[S]
	fetch         sf.Group[[]Event]
	metrics       Metrics
}

func NewRepository[S any](
	log *slog.Logger,
	schema *Schema[S],
	adapter Adapter,
	opts ...RepositoryOption,
) *Repository[S] {
	options := newRepositoryOptions(opts...)

	if log == nil {
		log = slog.Default()
	}

	r := &Repository[S]{
		log:           log.With(slog.String("entity", schema.EntityName())),
		schema:        schema,
		adapter:       adapter,
		plugins:       options.plugins,
		onPluginError: options.onPluginError,
		metrics:       options.metrics,
	}
	if options.cache != nil {
		r.cache = cache.NewTyped[S](options.cache)
	}
	return r
}

func (r *Repository[S]) Schema() *Schema[S] { return r.schema }

// FindOne fetches all events for entityID and hydrates a fresh mutable
// entity by replay. It returns (nil, nil) when no events are stored.
// Concurrent calls for the same entityID share a single adapter fetch.
func (r *Repository[S]) FindOne(ctx context.Context, entityID string) (*Entity[S], error) {
	if entityID == "" {
		return nil, errors.New("entity id is empty")
	}

	defer r.metrics.FindDuration(r.schema.entityName).ObserveDuration()

	raw, err := r.fetch.Do(entityID, func() ([]Event, error) {
		return r.adapter.GetEventsByEntityID(ctx, r.schema.entityName, entityID)
	})
	if err != nil {
		return nil, fmt.Errorf(
			"fetch events entity=%s id=%s: %w", r.schema.entityName, entityID, err,
		)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	parsed := make([]Event, 0, len(raw))
	for _, ev := range raw {
		p, err := r.schema.provider.ParseEvent(ev)
		if err != nil {
			return nil, fmt.Errorf("parse stored event %s: %w", ev.EventID, err)
		}
		parsed = append(parsed, p)
	}

	e := r.schema.New(entityID)
	if err := e.LoadFromEvents(parsed); err != nil {
		return nil, err
	}

	r.log.Debug(
		"loaded",
		slog.Group(
			"entity",
			slog.String("id", entityID),
			slog.Int("num_events", len(parsed)),
		),
	)
	return e, nil
}

// FindOneCached serves a readonly snapshot entity from the state cache,
// falling back to a full replay on miss. Only useful with WithStateCache;
// without a cache it behaves like FindOne.
func (r *Repository[S]) FindOneCached(ctx context.Context, entityID string) (ReadEntity[S], error) {
	if r.cache != nil {
		if state, ok := r.cache.Get(entityID); ok {
			r.metrics.CacheHit(r.schema.entityName)
			return r.schema.Load(LoadArgs[S]{EntityID: entityID, State: state})
		}
		r.metrics.CacheMiss(r.schema.entityName)
	}

	e, err := r.FindOne(ctx, entityID)
	if err != nil || e == nil {
		return nil, err
	}
	r.cacheState(e)
	return e, nil
}

// Commit persists the entity's queued events atomically, flushes the queue
// and notifies plugins. With an empty queue it is a no-op: no adapter call,
// no plugin invocation. On adapter failure the queue is left intact, so the
// same commit can be retried.
func (r *Repository[S]) Commit(ctx context.Context, e *Entity[S]) error {
	queued := e.QueuedEvents()
	if len(queued) == 0 {
		return nil
	}

	defer r.metrics.CommitDuration(r.schema.entityName).ObserveDuration()

	state, err := e.State()
	if err != nil {
		return err
	}

	req := CommitRequest{
		EntityName:     r.schema.entityName,
		EntityID:       e.EntityID(),
		ExpectedEvents: e.Committed(),
		Events:         queued,
		State:          state,
	}
	if err := r.adapter.CommitEvents(ctx, req); err != nil {
		if errors.Is(err, ErrConcurrencyConflict) {
			r.metrics.CommitConflict(r.schema.entityName)
		}
		return fmt.Errorf(
			"commit entity=%s id=%s: %w", r.schema.entityName, e.EntityID(), err,
		)
	}

	e.flush()
	r.metrics.EventsCommitted(r.schema.entityName, len(queued))
	r.cacheState(e)

	r.log.Debug(
		"committed",
		slog.Group(
			"entity",
			slog.String("id", e.EntityID()),
			slog.Int("num_events", len(queued)),
			slog.Int("total_events", e.Committed()),
		),
	)

	r.notifyPlugins(ctx, Committed{
		EntityName: r.schema.entityName,
		EntityID:   e.EntityID(),
		Events:     queued,
		State:      state,
	})
	return nil
}

func (r *Repository[S]) cacheState(e *Entity[S]) {
	if r.cache == nil {
		return
	}
	state, err := e.State()
	if err != nil {
		return
	}
	r.cache.Put(e.EntityID(), state)
}

// notifyPlugins runs every plugin concurrently and waits for all of them to
// settle. Failures (errors and panics) are isolated per plugin and reported
// through the error hook; they never propagate to the committer.
func (r *Repository[S]) notifyPlugins(ctx context.Context, c Committed) {
	if len(r.plugins) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, p := range r.plugins {
		wg.Add(1)
		go func(p Plugin) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					r.reportPluginError(fmt.Errorf("plugin panic: %v", rec), p)
				}
			}()
			if err := p.OnCommitted(ctx, c); err != nil {
				r.reportPluginError(err, p)
			}
		}(p)
	}
	wg.Wait()
}

func (r *Repository[S]) reportPluginError(err error, p Plugin) {
	r.metrics.PluginFailure(r.schema.entityName, p.Name())
	r.log.Debug(
		"plugin failed",
		slog.String("plugin", p.Name()),
		slog.Any("error", err),
	)
	if r.onPluginError != nil {
		r.onPluginError(err, p)
	}
}
