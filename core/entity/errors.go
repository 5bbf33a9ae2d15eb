package entity

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrReadonly is returned by Dispatch on entities constructed from a
	// state snapshot. Without a verified event history there is nothing to
	// append to.
	ErrReadonly = errors.New("entity is readonly")

	// ErrStateUninitialized is returned by State before any event has been
	// applied.
	ErrStateUninitialized = errors.New("entity state is not initialized")

	// ErrAlreadyInitialized is returned by LoadFromEvents on an entity that
	// already has state.
	ErrAlreadyInitialized = errors.New("entity is already initialized")

	// ErrQueueOverflow is returned by Dispatch when appending would exceed
	// the schema's queued-event ceiling.
	ErrQueueOverflow = errors.New("queued events limit exceeded")

	// ErrUnknownEventName is returned when an event name is not part of the
	// schema. Use errors.As with *UnknownEventNameError for the valid names.
	ErrUnknownEventName = errors.New("unknown event name")

	// ErrConcurrencyConflict is returned by adapters when the expected event
	// count does not match the stream, i.e. another writer appended first.
	ErrConcurrencyConflict = errors.New("concurrency conflict")
)

// UnknownEventNameError reports a dispatch or parse with an event name the
// schema does not recognize, enumerating the valid names.
type UnknownEventNameError struct {
	EntityName string
	EventName  string
	Known      []string
}

func (e *UnknownEventNameError) Error() string {
	return fmt.Sprintf(
		"unknown event name %q for entity %q (known: %s)",
		e.EventName, e.EntityName, strings.Join(e.Known, ", "),
	)
}

func (e *UnknownEventNameError) Unwrap() error { return ErrUnknownEventName }
