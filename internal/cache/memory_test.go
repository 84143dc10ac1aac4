package cache_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/fortuna/services/stake-calculator/internal/cache"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func TestMemoryCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache[int]()

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "a", 42, time.Minute))

	v, ok, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := cache.NewMemoryCache[string]().WithClock(clock.Now)

	require.NoError(t, c.Set(ctx, "short", "x", 5*time.Second))
	require.NoError(t, c.Set(ctx, "forever", "y", 0))

	clock.Advance(4 * time.Second)
	_, ok, _ := c.Get(ctx, "short")
	assert.True(t, ok, "entry should live until its TTL")

	clock.Advance(time.Second)
	_, ok, _ = c.Get(ctx, "short")
	assert.False(t, ok, "entry should expire at its TTL")

	clock.Advance(24 * time.Hour)
	v, ok, _ := c.Get(ctx, "forever")
	assert.True(t, ok)
	assert.Equal(t, "y", v)
}

func TestMemoryCache_ClearAndPurge(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(0, 0)}
	c := cache.NewMemoryCache[int]().WithClock(clock.Now)

	require.NoError(t, c.Set(ctx, "a", 1, time.Second))
	require.NoError(t, c.Set(ctx, "b", 2, time.Hour))
	require.NoError(t, c.Set(ctx, "c", 3, time.Hour))

	clock.Advance(2 * time.Second)
	assert.Equal(t, 1, c.Purge())
	assert.Equal(t, 2, c.Len())

	require.NoError(t, c.Clear(ctx))
	assert.Equal(t, 0, c.Len())

	_, ok, _ := c.Get(ctx, "b")
	assert.False(t, ok)
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache[int]()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := string(rune('a' + i%5))
			_ = c.Set(ctx, key, i, time.Minute)
			_, _, _ = c.Get(ctx, key)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, c.Len())
}

func TestCacheInterface(t *testing.T) {
	var _ cache.Cache[int] = cache.NewMemoryCache[int]()
	var _ cache.Cache[int] = (*cache.RedisCache[int])(nil)
}
