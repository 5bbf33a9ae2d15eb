package entity

import (
	"errors"
	"fmt"
	"time"
)

// ReadEntity is the read-only view of an entity: accessors only, no
// dispatch. Entities constructed by [Schema.Load] are exposed through this
// interface because a snapshot carries no verified event history to append
// to.
type ReadEntity[S any] interface {
	EntityName() string
	EntityID() string
	// State returns the current derived state, or ErrStateUninitialized if
	// no event has ever been applied.
	State() (S, error)
	// QueuedEvents returns a copy of the not-yet-persisted events in
	// dispatch order.
	QueuedEvents() []Event
}

// Entity is an event-sourced aggregate instance. Its only durable truth is
// the ordered event log; state is always the fold of the reducer over that
// log. An Entity is owned by a single goroutine at a time; the runtime adds
// no internal locking.
type Entity[S any] struct {
	schema      *Schema[S]
	id          string
	state       S
	initialized bool
	mutable     bool
	committed   int // events already persisted for this stream
	queued      []Event
}

// New returns an uninitialized, mutable entity. Callers normally go through
// Create, Load or Repository.FindOne instead.
func (s *Schema[S]) New(entityID string) *Entity[S] {
	return &Entity[S]{
		schema:  s,
		id:      entityID,
		mutable: true,
	}
}

// CreateArgs configures Schema.Create. Absent EntityID, EventID and
// EventCreatedAt are generated from the schema.
type CreateArgs struct {
	EntityID       string
	Body           any
	EventID        string
	EventCreatedAt time.Time
}

// Create constructs a fresh mutable entity and dispatches its initial event
// with the given body. The body is validated through the schema's Provider.
func (s *Schema[S]) Create(args CreateArgs) (*Entity[S], error) {
	id := args.EntityID
	if id == "" {
		id = s.newID()
	}

	e := s.New(id)

	var opts []DispatchOption
	if args.EventID != "" {
		opts = append(opts, WithEventID(args.EventID))
	}
	if !args.EventCreatedAt.IsZero() {
		opts = append(opts, WithEventCreatedAt(args.EventCreatedAt))
	}

	if _, err := e.Dispatch(s.InitialEventName(), args.Body, opts...); err != nil {
		return nil, fmt.Errorf("create %s: %w", s.entityName, err)
	}
	return e, nil
}

// LoadArgs configures Schema.Load with a trusted precomputed state snapshot.
type LoadArgs[S any] struct {
	EntityID string
	State    S
}

// Load constructs a readonly entity directly from a precomputed state
// snapshot, skipping replay. The state must already be validated (by the
// caller or through Provider.ParseState). The result cannot dispatch: there
// is no verified event history behind the snapshot.
func (s *Schema[S]) Load(args LoadArgs[S]) (ReadEntity[S], error) {
	if args.EntityID == "" {
		return nil, errors.New("entity id is empty")
	}
	return &Entity[S]{
		schema:      s,
		id:          args.EntityID,
		state:       args.State,
		initialized: true,
		mutable:     false,
	}, nil
}

// LoadFromEvents hydrates the entity by replaying events, in the given
// order, through the reducer. It fails with ErrAlreadyInitialized on an
// entity that already has state. An empty list leaves the state
// uninitialized.
func (e *Entity[S]) LoadFromEvents(events []Event) error {
	if e.initialized {
		return ErrAlreadyInitialized
	}
	for i, ev := range events {
		if ev.EntityName != e.schema.entityName {
			return fmt.Errorf(
				"event %d (%s): entity name is %q, want %q",
				i, ev.EventID, ev.EntityName, e.schema.entityName,
			)
		}
		if ev.EntityID != e.id {
			return fmt.Errorf(
				"event %d (%s): entity id is %q, want %q",
				i, ev.EventID, ev.EntityID, e.id,
			)
		}
		e.state = e.schema.reduce(e.state, ev)
	}
	e.committed = len(events)
	if len(events) > 0 {
		e.initialized = true
	}
	return nil
}

// Dispatch validates body against the schema and applies the event: the
// envelope is appended to the queue and the reducer advances the state.
// Queue and state always advance together, or neither does; a failed
// dispatch leaves the entity exactly as it was.
func (e *Entity[S]) Dispatch(eventName string, body any, opts ...DispatchOption) (Event, error) {
	if !e.mutable {
		return Event{}, ErrReadonly
	}
	if len(e.queued) >= e.schema.maxQueued {
		return Event{}, fmt.Errorf(
			"%w: %d events queued for %s/%s",
			ErrQueueOverflow, len(e.queued), e.schema.entityName, e.id,
		)
	}

	options := newDispatchOptions(opts...)
	eventID := options.eventID
	if eventID == "" {
		eventID = e.schema.newID()
	}
	createdAt := options.createdAt
	if createdAt.IsZero() {
		createdAt = e.schema.now()
	}

	ev := Event{
		EventID:        eventID,
		EventName:      eventName,
		EventCreatedAt: createdAt,
		EntityName:     e.schema.entityName,
		EntityID:       e.id,
		Body:           body,
	}

	parsed, err := e.schema.provider.ParseEventByName(eventName, ev)
	if err != nil {
		return Event{}, err
	}

	e.queued = append(e.queued, parsed)
	e.state = e.schema.reduce(e.state, parsed)
	e.initialized = true
	return parsed, nil
}

func (e *Entity[S]) EntityName() string { return e.schema.entityName }
func (e *Entity[S]) EntityID() string   { return e.id }

// Mutable reports whether the entity may dispatch new events.
func (e *Entity[S]) Mutable() bool { return e.mutable }

// Committed returns the number of events already persisted for this stream.
// It is the expected-count precondition carried into CommitRequest.
func (e *Entity[S]) Committed() int { return e.committed }

func (e *Entity[S]) State() (S, error) {
	if !e.initialized {
		var zero S
		return zero, fmt.Errorf("%w: %s/%s", ErrStateUninitialized, e.schema.entityName, e.id)
	}
	return e.state, nil
}

func (e *Entity[S]) QueuedEvents() []Event {
	out := make([]Event, len(e.queued))
	copy(out, e.queued)
	return out
}

// flush clears the queue after a successful commit without touching state.
func (e *Entity[S]) flush() {
	e.committed += len(e.queued)
	e.queued = nil
}

var _ ReadEntity[any] = (*Entity[any])(nil)
