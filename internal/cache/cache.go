// Package cache holds recently read or written values in memory for a bounded
// time. Expiry is checked lazily on read; there is no size bound and no sweep.
package cache

import (
	"sync"
	"time"
)

// DefaultTTL is applied by Set and SetList
const DefaultTTL = 5 * time.Minute

// ListAll is the list key used for unfiltered collection reads
const ListAll = "all"

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// live reports whether the entry is still valid at now
func (e entry[T]) live(now time.Time) bool {
	return !now.After(e.expiresAt)
}

// Cache keeps single values and collection reads in separate namespaces
type Cache[V any] struct {
	mu       sync.RWMutex
	ttl      time.Duration
	now      func() time.Time
	entities map[string]entry[V]
	lists    map[string]entry[[]V]
}

// Option configures a Cache
type Option func(*options)

type options struct {
	ttl time.Duration
	now func() time.Time
}

// WithTTL overrides DefaultTTL
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, mostly for tests
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// New creates an empty cache
func New[V any](opts ...Option) *Cache[V] {
	o := options{ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[V]{
		ttl:      o.ttl,
		now:      o.now,
		entities: make(map[string]entry[V]),
		lists:    make(map[string]entry[[]V]),
	}
}

// Get returns the value stored under key if it has not expired
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entities[key]
	c.mu.RUnlock()
	if !ok || !e.live(c.now()) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key with the default TTL, replacing any previous entry
func (c *Cache[V]) Set(key string, value V) {
	c.SetTTL(key, value, c.ttl)
}

// SetTTL stores value under key for ttl
func (c *Cache[V]) SetTTL(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	c.mu.Lock()
	c.entities[key] = entry[V]{value: value, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
}

// GetList returns the collection cached under filterKey if it has not expired
func (c *Cache[V]) GetList(filterKey string) ([]V, bool) {
	c.mu.RLock()
	e, ok := c.lists[filterKey]
	c.mu.RUnlock()
	if !ok || !e.live(c.now()) {
		return nil, false
	}
	return e.value, true
}

// SetList stores a collection under filterKey with the default TTL
func (c *Cache[V]) SetList(filterKey string, values []V) {
	c.mu.Lock()
	c.lists[filterKey] = entry[[]V]{value: values, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Invalidate drops the single-value entry for key
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entities, key)
	c.mu.Unlock()
}

// InvalidateLists drops every collection entry. Single-value entries are kept.
func (c *Cache[V]) InvalidateLists() {
	c.mu.Lock()
	c.lists = make(map[string]entry[[]V])
	c.mu.Unlock()
}

// Len reports the number of physically stored entries, expired ones included
func (c *Cache[V]) Len() (entities, lists int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entities), len(c.lists)
}
