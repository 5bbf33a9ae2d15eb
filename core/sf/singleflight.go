package sf

import "golang.org/x/sync/singleflight"

// Group deduplicates concurrent function calls with the same key. Only the
// first caller executes the function; others wait and receive the same
// result. The zero value is ready to use.
type Group[T any] struct {
	group singleflight.Group
}

// Do executes fn for the given key, deduplicating concurrent calls.
// If a call is already in-flight for this key, Do blocks until it completes
// and returns the same result. The function fn is guaranteed to execute
// at most once per key at any given time.
func (g *Group[T]) Do(key string, fn func() (T, error)) (T, error) {
	v, err, _ := g.group.Do(key, func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
