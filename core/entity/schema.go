package entity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// DefaultSeparator joins entity name and event suffix in event names.
	DefaultSeparator = ":"
	// DefaultMaxQueuedEvents bounds the uncommitted queue of an entity.
	DefaultMaxQueuedEvents = 10_000
)

// IDGenerator generates unique IDs for entities and events.
type IDGenerator func() string

// DefaultIDGenerator returns the default ID generator using nanoid.
func DefaultIDGenerator() IDGenerator {
	return func() string { return gonanoid.Must() }
}

// NowFunc supplies event timestamps. Injectable to keep replay and tests
// deterministic.
type NowFunc func() time.Time

// Schema is the immutable per-entity-type configuration: naming, ID and time
// generation, the parse capability and the reducer. One Schema is constructed
// per entity type and shared by all of its instances.
type Schema[S any] struct {
	entityName       string
	initialEventName string
	separator        string
	newID            IDGenerator
	now              NowFunc
	maxQueued        int
	provider         Provider[S]
	reduce           Reducer[S]
}

// NewSchema builds a schema for one entity type. initialEventName is the
// suffix of the event synthesized by Create; the full name is
// "<entityName><separator><initialEventName>".
func NewSchema[S any](
	entityName string,
	initialEventName string,
	provider Provider[S],
	reduce Reducer[S],
	opts ...SchemaOption,
) (*Schema[S], error) {
	if entityName == "" {
		return nil, errors.New("entity name is empty")
	}
	if initialEventName == "" {
		return nil, errors.New("initial event name is empty")
	}
	if provider == nil {
		return nil, errors.New("provider is required")
	}
	if reduce == nil {
		return nil, errors.New("reducer is required")
	}

	options := newSchemaOptions(opts...)
	if strings.Contains(entityName, options.separator) {
		return nil, fmt.Errorf(
			"entity name %q contains the separator %q", entityName, options.separator,
		)
	}

	return &Schema[S]{
		entityName:       entityName,
		initialEventName: initialEventName,
		separator:        options.separator,
		newID:            options.idGenerator,
		now:              options.now,
		maxQueued:        options.maxQueued,
		provider:         provider,
		reduce:           reduce,
	}, nil
}

func (s *Schema[S]) EntityName() string    { return s.entityName }
func (s *Schema[S]) Separator() string     { return s.separator }
func (s *Schema[S]) MaxQueuedEvents() int  { return s.maxQueued }
func (s *Schema[S]) Provider() Provider[S] { return s.provider }

// EventName composes the full namespaced event name from a suffix.
func (s *Schema[S]) EventName(suffix string) string {
	return s.entityName + s.separator + suffix
}

// InitialEventName returns the full name of the event synthesized by Create.
func (s *Schema[S]) InitialEventName() string {
	return s.EventName(s.initialEventName)
}
