// Package cueschema provides an entity Provider backed by CUE schemas.
// Event bodies and state are validated against CUE definitions instead of
// hand-written Go types, so the schema can be authored and reviewed as data.
//
// The CUE source must declare two definitions:
//
//	#events: {
//		"profile:created": { nickname: string & !="" }
//		"profile:bio_updated": { bio?: string }
//	}
//	#state: {
//		nickname: string
//		...
//	}
//
// Validated event bodies decode to map[string]any; reducers used with this
// provider switch on the event name rather than the body type.
package cueschema

import (
	"encoding/json"
	"fmt"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/tonyfromundefined/ventyd-sub000/core/entity"
)

// Provider validates events and state against compiled CUE definitions.
// Compilation happens once in New; Parse calls only unify and validate.
type Provider[S any] struct {
	ctx    *cue.Context
	events map[string]cue.Value
	state  cue.Value
	names  []string
}

// New compiles source and binds the #events and #state definitions.
func New[S any](source string) (*Provider[S], error) {
	ctx := cuecontext.New()

	root := ctx.CompileString(source)
	if err := root.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", formatError(err))
	}

	eventsVal := root.LookupPath(cue.ParsePath("#events"))
	if !eventsVal.Exists() {
		return nil, fmt.Errorf("schema has no #events definition")
	}
	stateVal := root.LookupPath(cue.ParsePath("#state"))
	if !stateVal.Exists() {
		return nil, fmt.Errorf("schema has no #state definition")
	}

	p := &Provider[S]{
		ctx:    ctx,
		events: map[string]cue.Value{},
		state:  stateVal,
	}

	iter, err := eventsVal.Fields(cue.Optional(true))
	if err != nil {
		return nil, fmt.Errorf("iterate #events: %w", formatError(err))
	}
	for iter.Next() {
		name := iter.Selector().Unquoted()
		p.events[name] = iter.Value()
		p.names = append(p.names, name)
	}
	if len(p.names) == 0 {
		return nil, fmt.Errorf("#events declares no events")
	}
	sort.Strings(p.names)

	return p, nil
}

// Names returns the event names declared in #events, sorted.
func (p *Provider[S]) Names() []string {
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

func (p *Provider[S]) ParseEvent(raw entity.Event) (entity.Event, error) {
	return p.ParseEventByName(raw.EventName, raw)
}

func (p *Provider[S]) ParseEventByName(name string, raw entity.Event) (entity.Event, error) {
	schema, ok := p.events[name]
	if !ok {
		return entity.Event{}, &entity.UnknownEventNameError{
			EntityName: raw.EntityName,
			EventName:  name,
			Known:      p.Names(),
		}
	}
	if name != raw.EventName {
		return entity.Event{}, fmt.Errorf(
			"event name mismatch: envelope carries %q, parsed as %q", raw.EventName, name,
		)
	}

	var body map[string]any
	if err := p.validate(schema, raw.Body, &body); err != nil {
		return entity.Event{}, fmt.Errorf("invalid body for event %q: %w", name, err)
	}

	parsed := raw
	parsed.Body = body
	return parsed, nil
}

func (p *Provider[S]) ParseState(raw any) (S, error) {
	var state S
	if err := p.validate(p.state, raw, &state); err != nil {
		var zero S
		return zero, fmt.Errorf("invalid state: %w", err)
	}
	return state, nil
}

// validate unifies raw with schema, checks the result is concrete and
// decodes it into out.
func (p *Provider[S]) validate(schema cue.Value, raw, out any) error {
	data, err := toJSON(raw)
	if err != nil {
		return err
	}

	// JSON is a subset of CUE, so the payload compiles directly
	val := p.ctx.CompileBytes(data)
	if err := val.Err(); err != nil {
		return formatError(err)
	}

	unified := schema.Unify(val)
	if err := unified.Validate(cue.Concrete(true), cue.Final()); err != nil {
		return formatError(err)
	}
	if err := unified.Decode(out); err != nil {
		return formatError(err)
	}
	return nil
}

func toJSON(raw any) ([]byte, error) {
	switch v := raw.(type) {
	case json.RawMessage:
		return v, nil
	case []byte:
		return v, nil
	case nil:
		return []byte("{}"), nil
	default:
		return json.Marshal(raw)
	}
}

// formatError flattens a CUE error list into one error value.
func formatError(err error) error {
	if list := cueerrors.Errors(err); len(list) > 0 {
		return fmt.Errorf("%s", cueerrors.Details(err, nil))
	}
	return err
}

var _ entity.Provider[any] = (*Provider[any])(nil)
