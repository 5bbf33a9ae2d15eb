package entity

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Provider is the validation capability bound to an entity's event and state
// shapes. The runtime never assumes a specific validation technology; it only
// calls these three operations. Parsing is synchronous.
//
// ParseEventByName must return an error unwrapping to [ErrUnknownEventName]
// for names outside the schema. A successful parse returns the envelope with
// Body replaced by the typed, validated value.
type Provider[S any] interface {
	// ParseEvent validates raw using the event name carried in the envelope.
	ParseEvent(raw Event) (Event, error)
	// ParseEventByName validates raw against the body shape registered for
	// name.
	ParseEventByName(name string, raw Event) (Event, error)
	// ParseState validates a raw state value and returns the typed state.
	ParseState(raw any) (S, error)
}

// Validator is an optional hook on event bodies and states. When a parsed
// value implements it, codec providers call it after decoding.
type Validator interface {
	Validate() error
}

// CodecProvider is a Provider backed by hand-written Go types: each event
// name maps to a body type registered via [RegisterEvent], decoded from JSON
// and checked through the optional [Validator] hook. It is the default
// validation technology; adapters may supply others (e.g. CUE).
type CodecProvider[S any] struct {
	mu     sync.RWMutex
	decode map[string]func(raw any) (any, error)
}

func NewCodecProvider[S any]() *CodecProvider[S] {
	return &CodecProvider[S]{
		decode: map[string]func(raw any) (any, error){},
	}
}

// RegisterEvent binds the body type T to the full event name. Registering
// the same name twice replaces the previous binding.
func RegisterEvent[S, T any](p *CodecProvider[S], eventName string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.decode[eventName] = func(raw any) (any, error) {
		return coerce[T](raw)
	}
}

// Names returns the registered event names, sorted.
func (p *CodecProvider[S]) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, 0, len(p.decode))
	for name := range p.decode {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p *CodecProvider[S]) ParseEvent(raw Event) (Event, error) {
	return p.ParseEventByName(raw.EventName, raw)
}

func (p *CodecProvider[S]) ParseEventByName(name string, raw Event) (Event, error) {
	p.mu.RLock()
	decode, ok := p.decode[name]
	p.mu.RUnlock()
	if !ok {
		return Event{}, &UnknownEventNameError{
			EntityName: raw.EntityName,
			EventName:  name,
			Known:      p.Names(),
		}
	}
	if name != raw.EventName {
		return Event{}, fmt.Errorf(
			"event name mismatch: envelope carries %q, parsed as %q", raw.EventName, name,
		)
	}

	body, err := decode(raw.Body)
	if err != nil {
		return Event{}, fmt.Errorf("invalid body for event %q: %w", name, err)
	}

	parsed := raw
	parsed.Body = body
	return parsed, nil
}

func (p *CodecProvider[S]) ParseState(raw any) (S, error) {
	s, err := coerce[S](raw)
	if err != nil {
		var zero S
		return zero, fmt.Errorf("invalid state: %w", err)
	}
	return *s, nil
}

// coerce turns raw into a *T. Typed values pass through; raw JSON and
// loosely-typed values (maps from generic decoders) go through a JSON
// round-trip. The Validator hook runs on the result.
func coerce[T any](raw any) (*T, error) {
	out := new(T)
	switch v := raw.(type) {
	case *T:
		out = v
	case T:
		*out = v
	case json.RawMessage:
		if err := json.Unmarshal(v, out); err != nil {
			return nil, err
		}
	case []byte:
		if err := json.Unmarshal(v, out); err != nil {
			return nil, err
		}
	default:
		data, err := json.Marshal(raw)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, out); err != nil {
			return nil, err
		}
	}
	if v, ok := any(out).(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

var _ Provider[any] = (*CodecProvider[any])(nil)
