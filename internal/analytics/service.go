package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/XavierBriggs/fortuna/services/stake-calculator/internal/cache"
	"github.com/XavierBriggs/fortuna/services/stake-calculator/pkg/models"
)

// DefaultCacheTTL bounds how stale a cached summary may be
const DefaultCacheTTL = 5 * time.Minute

// RecordSource loads bet records
type RecordSource interface {
	ListBets(ctx context.Context, filter models.RecordFilter) ([]models.BetRecord, error)
}

// Summary is the payload of GET /analytics/summary
type Summary struct {
	Overall     Report    `json:"overall"`
	GroupBy     GroupKey  `json:"groupBy,omitempty"`
	Groups      []Group   `json:"groups,omitempty"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// Service builds summaries from a record source and caches them
type Service struct {
	source RecordSource
	cache  cache.Cache[Summary]
	ttl    time.Duration
	logger *logrus.Logger
	now    func() time.Time
}

// NewService creates an analytics service. A nil cache disables caching.
func NewService(source RecordSource, c cache.Cache[Summary], ttl time.Duration, logger *logrus.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		source: source,
		cache:  c,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Summary returns the report for the filtered records, grouped by key.
// Cache failures are logged and fall through to the source.
func (s *Service) Summary(ctx context.Context, filter models.RecordFilter, key GroupKey) (Summary, error) {
	cacheKey := summaryKey(filter, key)

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, cacheKey)
		if err != nil {
			s.logger.WithError(err).WithField("key", cacheKey).Warn("analytics cache read failed")
		} else if ok {
			return cached, nil
		}
	}

	// Paging applies to listings, not aggregates
	sourceFilter := filter
	sourceFilter.Limit, sourceFilter.Offset = 0, 0

	records, err := s.source.ListBets(ctx, sourceFilter)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to load bets: %w", err)
	}
	records = Filter(records, sourceFilter)

	summary := Summary{
		Overall:     Summarize(records),
		GroupBy:     key,
		Groups:      GroupBy(records, key),
		GeneratedAt: s.now().UTC(),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, summary, s.ttl); err != nil {
			s.logger.WithError(err).WithField("key", cacheKey).Warn("analytics cache write failed")
		}
	}

	return summary, nil
}

// Invalidate drops every cached summary, e.g. after a bet is recorded
func (s *Service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Clear(ctx)
}

func summaryKey(f models.RecordFilter, key GroupKey) string {
	since, until := "", ""
	if f.Since != nil {
		since = f.Since.UTC().Format(time.RFC3339Nano)
	}
	if f.Until != nil {
		until = f.Until.UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprintf("summary:%s:%s:%s:%s:%s:%s:%s", since, until, f.Sport, f.Bookmaker, f.BetType, f.Status, key)
}
