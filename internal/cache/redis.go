package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores JSON-encoded values in Redis under a key prefix so that
// several caches can share one Redis database
type RedisCache[V any] struct {
	client *redis.Client
	prefix string
}

// NewRedisCache creates a Redis-backed cache. prefix namespaces keys, e.g.
// "stakecalc:analytics:".
func NewRedisCache[V any](client *redis.Client, prefix string) *RedisCache[V] {
	return &RedisCache[V]{
		client: client,
		prefix: prefix,
	}
}

// Get reads and decodes a value
func (c *RedisCache[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var value V

	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return value, false, nil
		}
		return value, false, fmt.Errorf("get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, &value); err != nil {
		return value, false, fmt.Errorf("unmarshaling %s: %w", key, err)
	}

	return value, true, nil
}

// Set encodes and stores a value
func (c *RedisCache[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", key, err)
	}

	if ttl < 0 {
		ttl = 0
	}

	if err := c.client.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}

	return nil
}

// Clear deletes every key under the prefix
func (c *RedisCache[V]) Clear(ctx context.Context) error {
	var cursor uint64

	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+"*", 500).Result()
		if err != nil {
			return fmt.Errorf("scan %s*: %w", c.prefix, err)
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("delete %d keys: %w", len(keys), err)
			}
		}

		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
