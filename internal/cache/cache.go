// Package cache provides the TTL cache injected into services that memoise
// computed reports. One instance is built per process in main and passed by
// reference; nothing in this package is global.
package cache

import (
	"context"
	"time"
)

// Cache stores values of type V under string keys for a bounded time
type Cache[V any] interface {
	// Get returns the value and true when the key is present and unexpired
	Get(ctx context.Context, key string) (V, bool, error)
	// Set stores value under key; ttl <= 0 stores without expiry
	Set(ctx context.Context, key string, value V, ttl time.Duration) error
	// Clear drops every entry owned by this cache
	Clear(ctx context.Context) error
}
