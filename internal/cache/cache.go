// Package cache provides a small in-process key/value cache with an optional
// entry lifetime and an optional size bound.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time // zero means no expiry
}

// Cache is safe for concurrent use. Values are replaced, never mutated in place.
type Cache[K comparable, V any] struct {
	mu         sync.RWMutex
	items      map[K]entry[V]
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// New creates a cache. ttl <= 0 disables expiry and maxEntries <= 0 disables the size bound.
func New[K comparable, V any](ttl time.Duration, maxEntries int) *Cache[K, V] {
	return &Cache[K, V]{
		items:      make(map[K]entry[V]),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get returns the value for key if present and not expired.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]
	if !ok || c.expired(e, c.now()) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, evicting to make room when the cache is full.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.items[key]; !exists && c.maxEntries > 0 && len(c.items) >= c.maxEntries {
		c.pruneLocked(now)
		if len(c.items) >= c.maxEntries {
			c.evictOldestLocked()
		}
	}

	e := entry[V]{value: value}
	if c.ttl > 0 {
		e.expiresAt = now.Add(c.ttl)
	}
	c.items[key] = e
}

// Prune drops expired entries and returns how many were removed.
func (c *Cache[K, V]) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pruneLocked(c.now())
}

// Len returns the number of stored entries, including expired ones not yet pruned.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Cache[K, V]) expired(e entry[V], now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

func (c *Cache[K, V]) pruneLocked(now time.Time) int {
	removed := 0
	for k, e := range c.items {
		if c.expired(e, now) {
			delete(c.items, k)
			removed++
		}
	}
	return removed
}

// evictOldestLocked removes the entry closest to expiry. Without a TTL every
// expiry is zero and an arbitrary entry goes.
func (c *Cache[K, V]) evictOldestLocked() {
	var (
		victim K
		oldest time.Time
		found  bool
	)
	for k, e := range c.items {
		if !found || e.expiresAt.Before(oldest) {
			victim, oldest, found = k, e.expiresAt, true
		}
	}
	if found {
		delete(c.items, victim)
	}
}
