// Package cache provides a simple key-value cache interface with LRU eviction
// and TTL support.
//
// The package defines two interfaces:
//
//   - [Cache]: Untyped cache storing values as any
//   - [TypedCache]: Generic type-safe wrapper via [NewTyped]
//
// # Implementations
//
// [LRU] provides an in-memory LRU cache that is safe for concurrent use.
//
//	cache := cache.NewLRU(cache.LRUOpts{Size: 1000})
//
//	cache.Put("key", value, cache.WithTTL(5*time.Minute))
//	if val, ok := cache.Get("key"); ok {
//	    // Use val
//	}
//
// The repository uses a [Cache] to keep the latest committed state of hot
// entities: a hit serves a readonly snapshot without replaying the stream.
//
// # Type-Safe Usage
//
// Use [NewTyped] for compile-time type safety:
//
//	states := cache.NewTyped[Profile](lruCache)
//	states.Put("profile:123", state)
//	if state, ok := states.Get("profile:123"); ok {
//	    // state is Profile, no type assertion needed
//	}
//
// # TTL Support
//
// Use [WithTTL] to set per-entry expiration:
//
//	cache.Put("session", data, cache.WithTTL(30*time.Minute))
//
// Expired entries are lazily evicted on access.
package cache
