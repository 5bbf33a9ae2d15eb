package entity

import (
	"context"
)

// CommitRequest is the batch handed to an Adapter. Adapters must persist all
// events or none.
type CommitRequest struct {
	EntityName string
	EntityID   string
	// ExpectedEvents is the number of events already persisted for this
	// stream. Adapters must reject the batch with ErrConcurrencyConflict
	// when the stream length differs, so racing writers cannot silently
	// interleave.
	ExpectedEvents int
	// Events to append, in dispatch order.
	Events []Event
	// State is the derived state after the batch. Adapters may persist it
	// as a snapshot for read-optimized loads; they must not require it.
	State any
}

// Adapter is the durable append-only log boundary. Implementations own
// atomicity of CommitEvents and the expected-count precondition; the runtime
// does not re-implement either.
type Adapter interface {
	// GetEventsByEntityID returns all events for the stream in append
	// order, with bodies in wire form (raw JSON). Empty slice if none.
	GetEventsByEntityID(ctx context.Context, entityName, entityID string) ([]Event, error)
	// CommitEvents atomically appends req.Events to the stream.
	CommitEvents(ctx context.Context, req CommitRequest) error
}
