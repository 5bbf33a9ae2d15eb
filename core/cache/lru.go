package cache

import (
	"container/list"
	"sync"
	"time"
)

type LRUOpts struct {
	Size int
}

type entry struct {
	key       string
	val       any
	expiresAt time.Time // zero means no expiry
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// LRU is an in-memory cache with least-recently-used eviction and optional
// per-entry TTL. Expired entries are lazily evicted on access. Safe for
// concurrent use.
type LRU struct {
	mu      sync.Mutex
	size    int
	order   *list.List
	entries map[string]*list.Element
}

func NewLRU(opts LRUOpts) *LRU {
	if opts.Size <= 0 {
		opts.Size = 128
	}
	return &LRU{
		size:    opts.Size,
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}
}

func (l *LRU) Get(key string) (any, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ele, ok := l.entries[key]
	if !ok {
		return nil, false
	}
	e := ele.Value.(*entry)
	if e.expired(time.Now()) {
		l.order.Remove(ele)
		delete(l.entries, key)
		return nil, false
	}
	l.order.MoveToFront(ele)
	return e.val, true
}

func (l *LRU) Put(key string, val any, opts ...PutOption) {
	options := PutOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	var expiresAt time.Time
	if options.TTL > 0 {
		expiresAt = time.Now().Add(options.TTL)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if ele, ok := l.entries[key]; ok {
		l.order.MoveToFront(ele)
		e := ele.Value.(*entry)
		e.val = val
		e.expiresAt = expiresAt
		return
	}

	ele := l.order.PushFront(&entry{key: key, val: val, expiresAt: expiresAt})
	l.entries[key] = ele
	if l.order.Len() > l.size {
		last := l.order.Back()
		if last != nil {
			l.order.Remove(last)
			delete(l.entries, last.Value.(*entry).key)
		}
	}
}

func (l *LRU) Delete(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if ele, ok := l.entries[key]; ok {
		l.order.Remove(ele)
		delete(l.entries, key)
	}
}

var _ Cache = (*LRU)(nil)
