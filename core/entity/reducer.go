package entity

// Reducer computes the next state from the previous state and one event.
// Reducers must be pure: no I/O, no side effects, and deterministic, so that
// replay always reproduces the same state.
//
// A reducer must be total over every event name its schema can produce. For
// an event name it does not recognize it must return prev unchanged; this
// keeps older consumers working when newer writers introduce event types.
type Reducer[S any] func(prev S, ev Event) S

// Fold replays events in order through the reducer, starting from the zero
// state. It is the reference semantics for hydration: for any entity,
// state == Fold(reducer, history ++ queued).
func Fold[S any](reduce Reducer[S], events []Event) S {
	var state S
	for _, ev := range events {
		state = reduce(state, ev)
	}
	return state
}
