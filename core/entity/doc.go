// Package entity provides a runtime for event-sourced domain entities:
// objects whose only durable truth is an ordered, append-only log of domain
// events, with current state always derived by folding that log through a
// pure reducer.
//
// # Core Components
//
// Schema: the immutable per-entity-type configuration. It binds the entity
// name, the initial event name, ID/time generation and the two collaborators
// every entity needs: a [Provider] (validation/parsing capability) and a
// [Reducer] (pure fold function).
//
//	provider := entity.NewCodecProvider[Profile]()
//	entity.RegisterEvent[Profile, ProfileCreated](provider, "profile:created")
//	entity.RegisterEvent[Profile, NicknameUpdated](provider, "profile:nickname_updated")
//
//	schema, err := entity.NewSchema("profile", "created", provider, reduce)
//
// Entity: the aggregate instance. It is constructed fresh via
// [Schema.Create] (synthesizes and dispatches the initial event), from a
// trusted state snapshot via [Schema.Load] (readonly, cannot dispatch), or
// by replaying stored history via [Entity.LoadFromEvents]. All mutation goes
// through [Entity.Dispatch], which validates the body through the Provider,
// appends the event to the uncommitted queue and advances the state through
// the reducer. Queue and state always advance together, or neither does.
//
//	profile, err := schema.Create(entity.CreateArgs{Body: ProfileCreated{Nickname: "John"}})
//	_, err = profile.Dispatch(schema.EventName("nickname_updated"), NicknameUpdated{Nickname: "Jane"})
//
// Adapter: the durable log boundary, providing fetch and atomic batch
// append with an expected-event-count precondition for optimistic
// concurrency. Use [NewInMemoryAdapter] for tests or implement the
// interface for production storage (e.g. SQLite via adapters/sqlite).
//
// Repository: the application-level surface. [Repository.FindOne] fetches a
// stream and hydrates a fresh entity by replay; [Repository.Commit]
// persists queued events, flushes the queue and fans out to plugins.
//
//	repo := entity.NewRepository(log, schema, adapter,
//	    entity.WithPlugins(publisher),
//	    entity.WithPluginErrorHook(hook),
//	)
//	profile, err := repo.FindOne(ctx, "profile-123")
//	err = repo.Commit(ctx, profile)
//
// Plugin: a post-commit side-effect consumer. All plugins for one commit
// run concurrently; each failure is isolated and reported through the
// optional error hook without ever failing the commit.
//
// # Determinism
//
// For any event sequence, replay through the reducer reproduces the same
// state: hydration, incremental dispatch and [Fold] agree. Keep reducers
// pure and inject ID/time generation via [WithIDGenerator] and [WithClock]
// to keep tests deterministic.
//
// # Concurrency Control
//
// Entities track how many events are already persisted; Commit passes that
// count to the Adapter, which must reject mismatches with
// [ErrConcurrencyConflict]. Two writers racing on the same entity ID cannot
// silently interleave; the loser reloads and retries.
package entity
