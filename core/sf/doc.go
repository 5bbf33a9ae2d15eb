// Package sf provides a generic single-flight mechanism for deduplicating
// concurrent function calls with the same key.
//
// Single-flight ensures that only one execution of a function is in-flight
// for a given key at a time. If multiple goroutines call [Group.Do] with the
// same key concurrently, only the first call executes the function;
// subsequent callers block until the first call completes and then receive
// the same result.
//
// The repository uses this to collapse concurrent event-stream fetches for
// the same entity ID into a single storage round trip:
//
//	var g sf.Group[[]entity.Event]
//
//	events, err := g.Do(entityID, func() ([]entity.Event, error) {
//	    return adapter.GetEventsByEntityID(ctx, name, entityID)
//	})
//
// The generic type parameter T allows type-safe returns without casting.
package sf
