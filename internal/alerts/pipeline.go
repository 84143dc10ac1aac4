// Package alerts decides which calculator results are worth telling a user
// about and fans them out to notifiers, the opportunity stream and the
// websocket hub.
package alerts

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/XavierBriggs/fortuna/services/stake-calculator/internal/notifier"
	"github.com/XavierBriggs/fortuna/services/stake-calculator/pkg/models"
)

// Outcome statuses
const (
	StatusFiltered    = "filtered"
	StatusDuplicate   = "duplicate"
	StatusRateLimited = "rate_limited"
	StatusDelivered   = "delivered"
)

// Outcome describes what the pipeline did with an opportunity
type Outcome struct {
	Status   string
	Reason   string
	Channels []string
}

// SettingsSource loads a user's alert thresholds
type SettingsSource interface {
	GetNotificationSettings(ctx context.Context, userID string) (*models.NotificationSettings, error)
}

// Recorder persists delivered notifications
type Recorder interface {
	InsertNotification(ctx context.Context, n *models.Notification) (int64, error)
}

// Publisher writes opportunities to a downstream stream
type Publisher interface {
	Publish(ctx context.Context, opp models.Opportunity) error
}

// Broadcaster pushes an opportunity to connected websocket clients
type Broadcaster interface {
	Broadcast(opp models.Opportunity)
}

// Config wires the pipeline stages. Only Dedup and Limiter are required.
type Config struct {
	UserID          string
	DefaultSettings models.NotificationSettings
	Settings        SettingsSource
	Dedup           Deduplicator
	Limiter         RateLimiter
	Notifiers       []notifier.Notifier
	Recorder        Recorder
	Publisher       Publisher
	Broadcaster     Broadcaster
	Timeout         time.Duration
	Logger          *logrus.Logger
}

// Pipeline runs filter, dedup, rate limit and delivery for each opportunity
type Pipeline struct {
	cfg Config
	wg  sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewPipeline creates a pipeline
func NewPipeline(cfg Config) *Pipeline {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserID == "" {
		cfg.UserID = "default"
	}
	return &Pipeline{cfg: cfg}
}

// Submit evaluates the opportunity in the background so callers are not held
// up by notifier latency. Opportunities submitted after Wait has been called
// are dropped.
func (p *Pipeline) Submit(opp models.Opportunity) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.cfg.Logger.WithField("opportunity_id", opp.ID).Warn("alert pipeline closed, dropping opportunity")
		return
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), p.cfg.Timeout)
		defer cancel()

		if _, err := p.Evaluate(ctx, opp); err != nil {
			p.cfg.Logger.WithError(err).WithField("opportunity_id", opp.ID).Error("alert evaluation failed")
		}
	}()
}

// Wait stops accepting new submissions and blocks until all submitted
// evaluations finish
func (p *Pipeline) Wait() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.wg.Wait()
}

// Evaluate runs the opportunity through every stage. Errors are returned only
// for the gating stages; delivery failures are logged and skipped.
func (p *Pipeline) Evaluate(ctx context.Context, opp models.Opportunity) (Outcome, error) {
	log := p.cfg.Logger.WithFields(logrus.Fields{
		"opportunity_id": opp.ID,
		"kind":           opp.Kind,
		"margin_pct":     opp.MarginPercent,
	})

	settings := p.settings(ctx, log)

	if ok, reason := ShouldAlert(settings, opp); !ok {
		log.WithField("reason", reason).Debug("opportunity filtered")
		return Outcome{Status: StatusFiltered, Reason: reason}, nil
	}

	fresh, err := p.cfg.Dedup.ShouldAlert(ctx, opp)
	if err != nil {
		return Outcome{}, err
	}
	if !fresh {
		log.Debug("duplicate opportunity suppressed")
		return Outcome{Status: StatusDuplicate}, nil
	}

	allowed, err := p.cfg.Limiter.Allow(ctx)
	if err != nil {
		return Outcome{}, err
	}
	if !allowed {
		log.Warn("alert rate limit reached")
		return Outcome{Status: StatusRateLimited}, nil
	}

	outcome := Outcome{Status: StatusDelivered}

	for _, n := range p.cfg.Notifiers {
		if !settings.HasChannel(n.Name()) {
			continue
		}
		if err := n.Send(ctx, opp); err != nil {
			log.WithError(err).WithField("channel", n.Name()).Error("notifier failed")
			continue
		}
		outcome.Channels = append(outcome.Channels, n.Name())
		p.record(ctx, log, opp, n.Name())
	}

	if p.cfg.Broadcaster != nil && settings.HasChannel(models.ChannelWebSocket) {
		p.cfg.Broadcaster.Broadcast(opp)
		outcome.Channels = append(outcome.Channels, models.ChannelWebSocket)
		p.record(ctx, log, opp, models.ChannelWebSocket)
	}

	if p.cfg.Publisher != nil {
		if err := p.cfg.Publisher.Publish(ctx, opp); err != nil {
			log.WithError(err).Error("failed to publish opportunity")
		}
	}

	log.WithField("channels", outcome.Channels).Info("opportunity alerted")
	return outcome, nil
}

func (p *Pipeline) settings(ctx context.Context, log *logrus.Entry) models.NotificationSettings {
	if p.cfg.Settings == nil {
		return p.cfg.DefaultSettings
	}
	s, err := p.cfg.Settings.GetNotificationSettings(ctx, p.cfg.UserID)
	if err != nil || s == nil {
		log.WithError(err).Warn("falling back to default notification settings")
		return p.cfg.DefaultSettings
	}
	return *s
}

func (p *Pipeline) record(ctx context.Context, log *logrus.Entry, opp models.Opportunity, channel string) {
	if p.cfg.Recorder == nil {
		return
	}
	n := &models.Notification{
		UserID:   p.cfg.UserID,
		Channel:  channel,
		Title:    notifier.Title(opp),
		Body:     notifier.Body(opp),
		RiskTier: opp.RiskTier,
	}
	if _, err := p.cfg.Recorder.InsertNotification(ctx, n); err != nil {
		log.WithError(err).WithField("channel", channel).Error("failed to record notification")
	}
}
