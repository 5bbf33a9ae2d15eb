package entity

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event is the immutable envelope persisted in the event log. It is the unit
// of storage and of plugin fan-out. Body is opaque to the runtime: its shape
// is owned by the schema's Provider and consumed by the Reducer.
type Event struct {
	// EventID uniquely identifies the event.
	EventID string `json:"eventId"`
	// EventName is the namespaced event name, "<entityName><separator><suffix>".
	EventName string `json:"eventName"`
	// EventCreatedAt is when the event was created. It is informational:
	// ordering is defined by append order, not by timestamp.
	EventCreatedAt time.Time `json:"eventCreatedAt"`
	// EntityName identifies the entity type this event belongs to.
	EntityName string `json:"entityName"`
	// EntityID identifies the specific entity instance.
	EntityID string `json:"entityId"`
	// Body is the schema-specific payload. In-memory it holds the parsed
	// value; on the wire it is JSON.
	Body any `json:"body"`
}

func (e Event) Validate() error {
	if e.EventID == "" {
		return fmt.Errorf("event id is empty")
	}
	if e.EventName == "" {
		return fmt.Errorf("event name is empty")
	}
	if e.EventCreatedAt.IsZero() {
		return fmt.Errorf("event created at is zero")
	}
	if e.EntityName == "" {
		return fmt.Errorf("event entity name is empty")
	}
	if e.EntityID == "" {
		return fmt.Errorf("event entity id is empty")
	}
	return nil
}

// wireEvent is the persisted form: identical field layout, but the body is
// kept as raw JSON so adapters never depend on the schema's Go types.
type wireEvent struct {
	EventID        string          `json:"eventId"`
	EventName      string          `json:"eventName"`
	EventCreatedAt time.Time       `json:"eventCreatedAt"`
	EntityName     string          `json:"entityName"`
	EntityID       string          `json:"entityId"`
	Body           json.RawMessage `json:"body"`
}

// EncodeEvent serializes an event to its wire form. Adapters use this to
// persist or publish events.
func EncodeEvent(ev Event) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode event %s: %w", ev.EventID, err)
	}
	return data, nil
}

// DecodeEvent deserializes a wire-form event. The returned event's Body is a
// json.RawMessage; callers pass it through the schema's Provider to obtain
// the typed body.
func DecodeEvent(data []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	return Event{
		EventID:        w.EventID,
		EventName:      w.EventName,
		EventCreatedAt: w.EventCreatedAt,
		EntityName:     w.EntityName,
		EntityID:       w.EntityID,
		Body:           w.Body,
	}, nil
}
