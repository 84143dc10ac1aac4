//go:build integration

package publisher_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/XavierBriggs/fortuna/services/stake-calculator/internal/calculator"
	"github.com/XavierBriggs/fortuna/services/stake-calculator/internal/publisher"
	"github.com/XavierBriggs/fortuna/services/stake-calculator/pkg/models"
)

func getTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		url = "redis://localhost:6380/15"
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("invalid REDIS_TEST_URL: %v", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})
	return client
}

func TestIntegration_PublishWritesBothStreams(t *testing.T) {
	ctx := context.Background()
	client := getTestRedis(t)

	base := "test.opportunities." + time.Now().Format("150405.000")
	sportStream := publisher.SportStream(base, "basketball_nba")
	t.Cleanup(func() {
		client.Del(context.Background(), base, sportStream)
	})

	p := publisher.NewStreamPublisher(client, base, 1000)
	opp := models.Opportunity{
		ID:            "abc",
		Kind:          models.OpportunityArbitrage,
		Sport:         "basketball_nba",
		MarginPercent: 3.73,
		RiskTier:      calculator.RiskHigh,
	}
	if err := p.Publish(ctx, opp); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	for _, stream := range []string{base, sportStream} {
		msgs, err := client.XRange(ctx, stream, "-", "+").Result()
		if err != nil {
			t.Fatalf("xrange %s failed: %v", stream, err)
		}
		if len(msgs) != 1 {
			t.Fatalf("expected 1 message on %s, got %d", stream, len(msgs))
		}

		var got models.Opportunity
		if err := json.Unmarshal([]byte(msgs[0].Values["opportunity"].(string)), &got); err != nil {
			t.Fatalf("bad payload: %v", err)
		}
		if got.ID != "abc" || got.RiskTier != calculator.RiskHigh {
			t.Errorf("unexpected opportunity: %+v", got)
		}
	}
}
