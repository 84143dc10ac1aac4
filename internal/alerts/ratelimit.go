package alerts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter caps the number of alerts sent per minute
type RateLimiter interface {
	Allow(ctx context.Context) (bool, error)
}

// RedisRateLimiter is a fixed one-minute window counter shared by all replicas
type RedisRateLimiter struct {
	client    *redis.Client
	prefix    string
	maxPerMin int
	now       func() time.Time
}

// NewRedisRateLimiter creates a Redis-backed limiter
func NewRedisRateLimiter(client *redis.Client, maxPerMinute int) *RedisRateLimiter {
	return &RedisRateLimiter{
		client:    client,
		prefix:    "stakecalc:alert:ratelimit:",
		maxPerMin: maxPerMinute,
		now:       time.Now,
	}
}

// Allow consumes one slot of the current window
func (r *RedisRateLimiter) Allow(ctx context.Context) (bool, error) {
	key := fmt.Sprintf("%s%d", r.prefix, r.now().Unix()/60)

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, 2*time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to increment rate limit window: %w", err)
	}

	return incr.Val() <= int64(r.maxPerMin), nil
}

// Count returns how many alerts the current window has used
func (r *RedisRateLimiter) Count(ctx context.Context) (int, error) {
	key := fmt.Sprintf("%s%d", r.prefix, r.now().Unix()/60)
	n, err := r.client.Get(ctx, key).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get rate limit window: %w", err)
	}
	return n, nil
}

// MemoryRateLimiter is the in-process fallback when Redis is not configured
type MemoryRateLimiter struct {
	mu        sync.Mutex
	window    int64
	count     int
	maxPerMin int
	now       func() time.Time
}

// NewMemoryRateLimiter creates an in-memory limiter
func NewMemoryRateLimiter(maxPerMinute int) *MemoryRateLimiter {
	return &MemoryRateLimiter{maxPerMin: maxPerMinute, now: time.Now}
}

// Allow consumes one slot of the current window
func (m *MemoryRateLimiter) Allow(ctx context.Context) (bool, error) {
	window := m.now().Unix() / 60

	m.mu.Lock()
	defer m.mu.Unlock()

	if window != m.window {
		m.window = window
		m.count = 0
	}
	if m.count >= m.maxPerMin {
		return false, nil
	}
	m.count++
	return true, nil
}
