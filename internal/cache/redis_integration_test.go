//go:build integration

package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/fortuna/services/stake-calculator/internal/cache"
)

func getTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		url = "redis://localhost:6380/15"
	}

	opts, err := redis.ParseURL(url)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}

	t.Cleanup(func() {
		client.Close()
	})

	return client
}

type report struct {
	Count int     `json:"count"`
	ROI   float64 `json:"roi"`
}

func TestIntegration_RedisCache(t *testing.T) {
	ctx := context.Background()
	c := cache.NewRedisCache[report](getTestRedis(t), "stakecalc:test:")
	require.NoError(t, c.Clear(ctx))

	require.NoError(t, c.Set(ctx, "summary", report{Count: 3, ROI: 4.5}, time.Minute))

	got, ok, err := c.Get(ctx, "summary")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, report{Count: 3, ROI: 4.5}, got)

	require.NoError(t, c.Clear(ctx))
	_, ok, err = c.Get(ctx, "summary")
	require.NoError(t, err)
	assert.False(t, ok)
}
