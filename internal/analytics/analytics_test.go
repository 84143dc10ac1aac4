package analytics_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/fortuna/services/stake-calculator/internal/analytics"
	"github.com/XavierBriggs/fortuna/services/stake-calculator/internal/cache"
	"github.com/XavierBriggs/fortuna/services/stake-calculator/pkg/models"
)

var day1 = time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)

func sampleBets() []models.BetRecord {
	return []models.BetRecord{
		{ID: 1, PlacedAt: day1, Sport: "basketball_nba", Bookmaker: "fanduel", BetType: models.BetTypeValue, Stake: 100, Profit: 90, Status: models.BetStatusWon},
		{ID: 2, PlacedAt: day1.Add(time.Hour), Sport: "basketball_nba", Bookmaker: "draftkings", BetType: models.BetTypeValue, Stake: 50, Profit: -50, Status: models.BetStatusLost},
		{ID: 3, PlacedAt: day1.Add(24 * time.Hour), Sport: "americanfootball_nfl", Bookmaker: "fanduel", BetType: models.BetTypeArbitrage, Stake: 200, Profit: 6, Status: models.BetStatusWon},
		{ID: 4, PlacedAt: day1.Add(48 * time.Hour), Sport: "americanfootball_nfl", Bookmaker: "betmgm", BetType: models.BetTypeValue, Stake: 50, Profit: 0, Status: models.BetStatusPending},
		{ID: 5, PlacedAt: day1.Add(49 * time.Hour), Sport: "", Bookmaker: "betmgm", BetType: models.BetTypeValue, Stake: 25, Profit: 0, Status: models.BetStatusVoid},
	}
}

func TestSummarize(t *testing.T) {
	rep := analytics.Summarize(sampleBets())

	assert.Equal(t, 5, rep.Count)
	assert.Equal(t, 2, rep.Won)
	assert.Equal(t, 1, rep.Lost)
	assert.Equal(t, 3, rep.Settled)
	assert.Equal(t, 1, rep.Pending)
	assert.Equal(t, 425.0, rep.TotalStake)
	assert.Equal(t, 46.0, rep.TotalProfit)
	assert.InDelta(t, 10.82, rep.ROIPercent, 0.001)
	assert.InDelta(t, 66.67, rep.WinRatePercent, 0.001)
	assert.Equal(t, 85.0, rep.AverageStake)
}

func TestSummarize_Empty(t *testing.T) {
	rep := analytics.Summarize(nil)
	assert.Equal(t, analytics.Report{}, rep)
}

func TestFilter(t *testing.T) {
	since := day1.Add(12 * time.Hour)
	until := day1.Add(48 * time.Hour)

	tests := []struct {
		name   string
		filter models.RecordFilter
		want   []int64
	}{
		{"no filter", models.RecordFilter{}, []int64{1, 2, 3, 4, 5}},
		{"sport", models.RecordFilter{Sport: "basketball_nba"}, []int64{1, 2}},
		{"bookmaker", models.RecordFilter{Bookmaker: "betmgm"}, []int64{4, 5}},
		{"bet type", models.RecordFilter{BetType: models.BetTypeArbitrage}, []int64{3}},
		{"status", models.RecordFilter{Status: models.BetStatusWon}, []int64{1, 3}},
		{"since inclusive until exclusive", models.RecordFilter{Since: &since, Until: &until}, []int64{3}},
		{"limit", models.RecordFilter{Limit: 2}, []int64{1, 2}},
		{"offset", models.RecordFilter{Offset: 3}, []int64{4, 5}},
		{"offset past end", models.RecordFilter{Offset: 10}, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := analytics.Filter(sampleBets(), tt.filter)
			ids := make([]int64, 0, len(got))
			for _, r := range got {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestGroupBy(t *testing.T) {
	groups := analytics.GroupBy(sampleBets(), analytics.GroupSport)
	require.Len(t, groups, 3)

	assert.Equal(t, "americanfootball_nfl", groups[0].Key)
	assert.Equal(t, 2, groups[0].Report.Count)
	assert.Equal(t, "basketball_nba", groups[1].Key)
	assert.Equal(t, 40.0, groups[1].Report.TotalProfit)
	assert.Equal(t, "unknown", groups[2].Key)

	days := analytics.GroupBy(sampleBets(), analytics.GroupDay)
	require.Len(t, days, 3)
	assert.Equal(t, "2025-03-01", days[0].Key)
	assert.Equal(t, 2, days[0].Report.Count)

	assert.Nil(t, analytics.GroupBy(sampleBets(), analytics.GroupNone))
}

func TestParseGroupKey(t *testing.T) {
	for _, s := range []string{"", "sport", "bookmaker", "bet_type", "day"} {
		k, err := analytics.ParseGroupKey(s)
		require.NoError(t, err)
		assert.Equal(t, analytics.GroupKey(s), k)
	}

	_, err := analytics.ParseGroupKey("market")
	assert.Error(t, err)
}

type fakeSource struct {
	records []models.BetRecord
	calls   int
	err     error
}

func (f *fakeSource) ListBets(ctx context.Context, filter models.RecordFilter) ([]models.BetRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func TestService_SummaryIsCached(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{records: sampleBets()}
	svc := analytics.NewService(src, cache.NewMemoryCache[analytics.Summary](), 0, nil)

	first, err := svc.Summary(ctx, models.RecordFilter{Sport: "basketball_nba"}, analytics.GroupBookmaker)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Overall.Count)
	assert.Len(t, first.Groups, 2)

	second, err := svc.Summary(ctx, models.RecordFilter{Sport: "basketball_nba"}, analytics.GroupBookmaker)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, src.calls, "second call should be served from cache")

	_, err = svc.Summary(ctx, models.RecordFilter{Sport: "americanfootball_nfl"}, analytics.GroupBookmaker)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls, "different filter should miss the cache")

	require.NoError(t, svc.Invalidate(ctx))
	_, err = svc.Summary(ctx, models.RecordFilter{Sport: "basketball_nba"}, analytics.GroupBookmaker)
	require.NoError(t, err)
	assert.Equal(t, 3, src.calls)
}

func TestService_SubSecondFiltersAreCachedSeparately(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{records: sampleBets()}
	svc := analytics.NewService(src, cache.NewMemoryCache[analytics.Summary](), 0, nil)

	since := day1
	later := day1.Add(500 * time.Millisecond)

	_, err := svc.Summary(ctx, models.RecordFilter{Since: &since}, analytics.GroupNone)
	require.NoError(t, err)
	_, err = svc.Summary(ctx, models.RecordFilter{Since: &later}, analytics.GroupNone)
	require.NoError(t, err)

	assert.Equal(t, 2, src.calls, "filters half a second apart should not share a cache entry")
}

func TestService_SummaryIgnoresPaging(t *testing.T) {
	svc := analytics.NewService(&fakeSource{records: sampleBets()}, nil, 0, nil)

	s, err := svc.Summary(context.Background(), models.RecordFilter{Limit: 1, Offset: 1}, analytics.GroupNone)
	require.NoError(t, err)
	assert.Equal(t, 5, s.Overall.Count)
}

func TestService_SourceError(t *testing.T) {
	svc := analytics.NewService(&fakeSource{err: errors.New("connection refused")}, nil, 0, nil)

	_, err := svc.Summary(context.Background(), models.RecordFilter{}, analytics.GroupNone)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

type brokenCache struct{}

func (brokenCache) Get(ctx context.Context, key string) (analytics.Summary, bool, error) {
	return analytics.Summary{}, false, errors.New("cache down")
}

func (brokenCache) Set(ctx context.Context, key string, v analytics.Summary, ttl time.Duration) error {
	return errors.New("cache down")
}

func (brokenCache) Clear(ctx context.Context) error { return nil }

func TestService_CacheFailureFallsThrough(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	src := &fakeSource{records: sampleBets()}
	svc := analytics.NewService(src, brokenCache{}, time.Minute, logger)

	s, err := svc.Summary(context.Background(), models.RecordFilter{}, analytics.GroupNone)
	require.NoError(t, err)
	assert.Equal(t, 5, s.Overall.Count)
	assert.Len(t, hook.AllEntries(), 2)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}
