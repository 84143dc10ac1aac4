package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/XavierBriggs/fortuna/services/stake-calculator/internal/retry"
	"github.com/XavierBriggs/fortuna/services/stake-calculator/pkg/models"
)

// SlackNotifier sends alerts to Slack via webhook
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	policy     *retry.Policy
	logger     *logrus.Logger
}

// NewSlackNotifier creates a new Slack notifier
func NewSlackNotifier(webhookURL string, policy *retry.Policy, logger *logrus.Logger) *SlackNotifier {
	if policy == nil {
		policy = retry.NewPolicy(3, time.Second)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		policy: policy,
		logger: logger,
	}
}

// Name implements Notifier
func (s *SlackNotifier) Name() string { return models.ChannelSlack }

// Send posts an opportunity alert to the webhook
func (s *SlackNotifier) Send(ctx context.Context, opp models.Opportunity) error {
	startTime := time.Now()

	payload, err := json.Marshal(map[string]interface{}{
		"text": s.formatMessage(opp),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal Slack payload: %w", err)
	}

	err = s.policy.Do(ctx, func(ctx context.Context) error {
		return s.post(ctx, payload)
	})
	if err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"opportunity_id": opp.ID,
		"latency_ms":     time.Since(startTime).Milliseconds(),
	}).Info("slack alert sent")
	return nil
}

func (s *SlackNotifier) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return retry.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send Slack alert: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("Slack webhook returned status %d", resp.StatusCode)
	default:
		return retry.Permanent(fmt.Errorf("Slack webhook returned status %d", resp.StatusCode))
	}
}

// formatMessage formats an opportunity using Slack mrkdwn
func (s *SlackNotifier) formatMessage(opp models.Opportunity) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s *%s* | %s\n\n", tierEmoji(opp.RiskTier), Title(opp), opp.RiskTier.Label()))
	if opp.Sport != "" {
		sb.WriteString(fmt.Sprintf("*Sport:* %s\n", opp.Sport))
	}

	for i, leg := range opp.Legs {
		sb.WriteString(fmt.Sprintf("*Leg %d:* %s @ %.2f", i+1, leg.BookmakerName, leg.DecimalOdds))
		if i < len(opp.Stakes) && opp.Stakes[i] > 0 {
			sb.WriteString(fmt.Sprintf(" | Stake: %.2f", opp.Stakes[i]))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("\n_Detected: %s | ID: %s_", opp.DetectedAt.Format("15:04:05"), opp.ID))
	return sb.String()
}
