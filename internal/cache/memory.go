package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry[V any] struct {
	value     V
	expiresAt time.Time // zero means no expiry
}

// MemoryCache is an in-process Cache. Expired entries are dropped lazily on
// read and by Purge.
type MemoryCache[V any] struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry[V]
	now     func() time.Time
}

// NewMemoryCache creates an empty in-process cache
func NewMemoryCache[V any]() *MemoryCache[V] {
	return &MemoryCache[V]{
		entries: make(map[string]memoryEntry[V]),
		now:     time.Now,
	}
}

// WithClock replaces the time source (tests)
func (c *MemoryCache[V]) WithClock(now func() time.Time) *MemoryCache[V] {
	c.now = now
	return c
}

// Get returns a live entry
func (c *MemoryCache[V]) Get(ctx context.Context, key string) (V, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false, nil
	}

	if c.expired(entry) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have refreshed it
		if current, still := c.entries[key]; still && c.expired(current) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return zero, false, nil
	}

	return entry.value, true, nil
}

// Set stores a value with the given TTL
func (c *MemoryCache[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	entry := memoryEntry[V]{value: value}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()

	return nil
}

// Clear drops all entries
func (c *MemoryCache[V]) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]memoryEntry[V])
	c.mu.Unlock()

	return nil
}

// Purge removes expired entries and returns how many were dropped
func (c *MemoryCache[V]) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.entries {
		if c.expired(entry) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, including expired ones not yet purged
func (c *MemoryCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *MemoryCache[V]) expired(entry memoryEntry[V]) bool {
	return !entry.expiresAt.IsZero() && !c.now().Before(entry.expiresAt)
}
