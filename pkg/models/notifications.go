package models

import (
	"time"

	"github.com/XavierBriggs/fortuna/services/stake-calculator/internal/calculator"
)

// Notification channels
const (
	ChannelTelegram  = "telegram"
	ChannelSlack     = "slack"
	ChannelWebSocket = "websocket"
)

// NotificationSettings holds a user's alert thresholds
type NotificationSettings struct {
	UserID           string    `json:"userId"`
	Enabled          bool      `json:"enabled"`
	MinMarginPercent float64   `json:"minMarginPercent"`
	MinEVPercent     float64   `json:"minEvPercent"`
	Channels         []string  `json:"channels"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// HasChannel reports whether the channel is enabled for the user
func (s NotificationSettings) HasChannel(channel string) bool {
	for _, c := range s.Channels {
		if c == channel {
			return true
		}
	}
	return false
}

// NotificationSettingsUpdate is the body of PUT /notifications/settings
type NotificationSettingsUpdate struct {
	Enabled          bool     `json:"enabled"`
	MinMarginPercent float64  `json:"minMarginPercent"`
	MinEVPercent     float64  `json:"minEvPercent"`
	Channels         []string `json:"channels"`
}

// Notification is one delivered alert
type Notification struct {
	ID        int64               `json:"id"`
	UserID    string              `json:"userId"`
	Channel   string              `json:"channel"`
	Title     string              `json:"title"`
	Body      string              `json:"body"`
	RiskTier  calculator.RiskTier `json:"riskTier"`
	ReadAt    *time.Time          `json:"readAt"`
	CreatedAt time.Time           `json:"createdAt"`
}

// NotificationFilters defines filters for notification history queries
type NotificationFilters struct {
	UnreadOnly bool
	Limit      int
	Offset     int
}

// Opportunity kinds
const (
	OpportunityArbitrage = "arbitrage"
	OpportunityValue     = "value"
)

// Opportunity is a calculator result worth alerting on
type Opportunity struct {
	ID            string                 `json:"id"`
	Kind          string                 `json:"kind"`
	EventName     string                 `json:"eventName"`
	Sport         string                 `json:"sport"`
	MarginPercent float64                `json:"marginPercent"`
	RiskTier      calculator.RiskTier    `json:"riskTier"`
	Legs          []calculator.OddsQuote `json:"legs"`
	Stakes        []float64              `json:"stakes"`
	DetectedAt    time.Time              `json:"detectedAt"`
}
