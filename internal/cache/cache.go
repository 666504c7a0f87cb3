package cache

import (
	"sync"
	"time"
)

// Cache is a process-local key/value store with per-entry TTL.
// Staleness within the TTL window is an accepted tradeoff; entries are
// evicted lazily on read.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V, ttl time.Duration)
	Delete(key K)
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

type ttlCache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]entry[V]
	now     func() time.Time
}

func NewTTLCache[K comparable, V any]() Cache[K, V] {
	return &ttlCache[K, V]{
		entries: make(map[K]entry[V]),
		now:     time.Now,
	}
}

// NewTTLCacheWithNow lets tests control expiry.
func NewTTLCacheWithNow[K comparable, V any](now func() time.Time) Cache[K, V] {
	return &ttlCache[K, V]{
		entries: make(map[K]entry[V]),
		now:     now,
	}
}

func (c *ttlCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().After(e.expiresAt) {
		c.mu.Lock()
		if cur, still := c.entries[key]; still && c.now().After(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *ttlCache[K, V]) Set(key K, value V, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
}

func (c *ttlCache[K, V]) Delete(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}
