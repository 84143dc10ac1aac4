package alerts

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/XavierBriggs/fortuna/services/stake-calculator/pkg/models"
)

// Deduplicator suppresses repeated alerts for the same opportunity
type Deduplicator interface {
	ShouldAlert(ctx context.Context, opp models.Opportunity) (bool, error)
}

// dedupKey is deterministic for the same event, kind and set of bookmakers
func dedupKey(opp models.Opportunity) string {
	books := make([]string, 0, len(opp.Legs))
	for _, leg := range opp.Legs {
		books = append(books, leg.BookmakerName)
	}
	sort.Strings(books)

	hash := sha256.Sum256([]byte(strings.Join(books, ",")))
	return fmt.Sprintf("stakecalc:alert:dedup:%s:%s:%x", opp.Kind, opp.EventName, hash[:8])
}

// RedisDeduplicator remembers alerted opportunities in Redis
type RedisDeduplicator struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDeduplicator creates a Redis-backed deduplicator
func NewRedisDeduplicator(client *redis.Client, ttl time.Duration) *RedisDeduplicator {
	return &RedisDeduplicator{client: client, ttl: ttl}
}

// ShouldAlert returns true if this opportunity hasn't been alerted within the TTL
func (d *RedisDeduplicator) ShouldAlert(ctx context.Context, opp models.Opportunity) (bool, error) {
	set, err := d.client.SetNX(ctx, dedupKey(opp), "1", d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set dedup key: %w", err)
	}
	return set, nil
}

// Clear removes a dedup entry
func (d *RedisDeduplicator) Clear(ctx context.Context, opp models.Opportunity) error {
	return d.client.Del(ctx, dedupKey(opp)).Err()
}

// MemoryDeduplicator is the in-process fallback when Redis is not configured
type MemoryDeduplicator struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
	now  func() time.Time
}

// NewMemoryDeduplicator creates an in-memory deduplicator
func NewMemoryDeduplicator(ttl time.Duration) *MemoryDeduplicator {
	return &MemoryDeduplicator{
		seen: make(map[string]time.Time),
		ttl:  ttl,
		now:  time.Now,
	}
}

// ShouldAlert returns true if this opportunity hasn't been alerted within the TTL
func (d *MemoryDeduplicator) ShouldAlert(ctx context.Context, opp models.Opportunity) (bool, error) {
	key := dedupKey(opp)
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if expires, ok := d.seen[key]; ok && now.Before(expires) {
		return false, nil
	}

	// Drop expired keys so the map stays bounded by the alert rate
	for k, expires := range d.seen {
		if !now.Before(expires) {
			delete(d.seen, k)
		}
	}

	d.seen[key] = now.Add(d.ttl)
	return true, nil
}
