package hub

import (
	"time"

	"github.com/XavierBriggs/fortuna/services/stake-calculator/pkg/models"
)

// Message types exchanged over the websocket
const (
	MessageTypeOpportunity = "opportunity"
	MessageTypeSubscribe   = "subscribe"
	MessageTypeUnsubscribe = "unsubscribe"
	MessageTypeHeartbeat   = "heartbeat"
	MessageTypeError       = "error"
)

// ServerMessage is sent from the server to clients
type ServerMessage struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// ClientMessage is received from clients
type ClientMessage struct {
	Type   string             `json:"type"`
	Filter SubscriptionFilter `json:"filter"`
}

// ErrorMessage is the payload of an error message
type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SubscriptionFilter narrows which opportunities a client receives.
// An empty filter accepts everything.
type SubscriptionFilter struct {
	Sports           []string `json:"sports,omitempty"`
	Kinds            []string `json:"kinds,omitempty"`
	MinMarginPercent float64  `json:"minMarginPercent,omitempty"`
}

// Matches reports whether an opportunity passes the filter
func (f SubscriptionFilter) Matches(opp models.Opportunity) bool {
	if len(f.Sports) > 0 && !contains(f.Sports, opp.Sport) {
		return false
	}
	if len(f.Kinds) > 0 && !contains(f.Kinds, opp.Kind) {
		return false
	}
	return opp.MarginPercent >= f.MinMarginPercent
}

// ConnectionStats is the payload of a heartbeat reply
type ConnectionStats struct {
	ClientID          string    `json:"clientId"`
	ConnectedAt       time.Time `json:"connectedAt"`
	MessagesSent      int64     `json:"messagesSent"`
	MessagesReceived  int64     `json:"messagesReceived"`
	LastMessageAt     time.Time `json:"lastMessageAt"`
	BufferSize        int       `json:"bufferSize"`
	BufferUtilization float64   `json:"bufferUtilization"`
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
