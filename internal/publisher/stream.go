package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/XavierBriggs/fortuna/services/stake-calculator/pkg/models"
)

// DefaultStream is the global stream every alerted opportunity is written to
const DefaultStream = "opportunities.detected"

// StreamPublisher publishes opportunities to Redis Streams
type StreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewStreamPublisher creates a publisher. maxLen > 0 trims the stream
// approximately to that many entries.
func NewStreamPublisher(client *redis.Client, stream string, maxLen int64) *StreamPublisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &StreamPublisher{
		client: client,
		stream: stream,
		maxLen: maxLen,
	}
}

// Publish writes the opportunity to the global stream and, when the sport is
// known, to the sport-specific stream
func (p *StreamPublisher) Publish(ctx context.Context, opp models.Opportunity) error {
	payload, err := json.Marshal(opp)
	if err != nil {
		return fmt.Errorf("failed to marshal opportunity: %w", err)
	}

	if err := p.add(ctx, p.stream, payload); err != nil {
		return err
	}

	if opp.Sport != "" {
		if err := p.add(ctx, SportStream(p.stream, opp.Sport), payload); err != nil {
			return err
		}
	}

	return nil
}

func (p *StreamPublisher) add(ctx context.Context, stream string, payload []byte) error {
	args := &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"opportunity": string(payload),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", stream, err)
	}
	return nil
}

// SportStream names the per-sport stream derived from a base stream
func SportStream(base, sport string) string {
	return fmt.Sprintf("%s.%s", base, sport)
}
