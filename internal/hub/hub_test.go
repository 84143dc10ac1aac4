package hub

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/XavierBriggs/fortuna/services/stake-calculator/pkg/models"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	logger, _ := test.NewNullLogger()
	h := NewHub(logger)

	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(cancel)
	return h
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func receive(t *testing.T, c *Client) ServerMessage {
	t.Helper()
	select {
	case msg := <-c.Messages():
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return ServerMessage{}
	}
}

func TestSubscriptionFilter_Matches(t *testing.T) {
	opp := models.Opportunity{Kind: models.OpportunityArbitrage, Sport: "basketball_nba", MarginPercent: 3.5}

	tests := []struct {
		name     string
		filter   SubscriptionFilter
		expected bool
	}{
		{"empty filter matches everything", SubscriptionFilter{}, true},
		{"sport matches", SubscriptionFilter{Sports: []string{"basketball_nba"}}, true},
		{"sport doesn't match", SubscriptionFilter{Sports: []string{"americanfootball_nfl"}}, false},
		{"kind matches", SubscriptionFilter{Kinds: []string{"arbitrage", "value"}}, true},
		{"kind doesn't match", SubscriptionFilter{Kinds: []string{"value"}}, false},
		{"margin at threshold", SubscriptionFilter{MinMarginPercent: 3.5}, true},
		{"margin below threshold", SubscriptionFilter{MinMarginPercent: 5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(opp); got != tt.expected {
				t.Errorf("Matches() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestHub_BroadcastRespectsFilters(t *testing.T) {
	h := startHub(t)

	all := NewClient("all", nil, h)
	nflOnly := NewClient("nfl", nil, h)
	nflOnly.SetFilter(SubscriptionFilter{Sports: []string{"americanfootball_nfl"}})

	h.Register(all)
	h.Register(nflOnly)
	waitFor(t, func() bool { return h.ClientCount() == 2 })

	h.Broadcast(models.Opportunity{ID: "nba-1", Sport: "basketball_nba", MarginPercent: 2})
	h.Broadcast(models.Opportunity{ID: "nfl-1", Sport: "americanfootball_nfl", MarginPercent: 2})

	first := receive(t, all)
	second := receive(t, all)
	if first.Type != MessageTypeOpportunity {
		t.Errorf("expected opportunity message, got %s", first.Type)
	}
	if first.Payload.(models.Opportunity).ID != "nba-1" || second.Payload.(models.Opportunity).ID != "nfl-1" {
		t.Errorf("unexpected order: %v, %v", first.Payload, second.Payload)
	}

	got := receive(t, nflOnly)
	if got.Payload.(models.Opportunity).ID != "nfl-1" {
		t.Errorf("filtered client got %v", got.Payload)
	}

	waitFor(t, func() bool { return h.Metrics().TotalMessages == 2 })
	m := h.Metrics()
	if m.ActiveClients != 2 || m.TotalConnections != 2 {
		t.Errorf("unexpected metrics: %+v", m)
	}
}

func TestHub_UnregisterClosesClient(t *testing.T) {
	h := startHub(t)
	c := NewClient("c1", nil, h)

	h.Register(c)
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	h.Unregister(c)
	waitFor(t, func() bool { return h.ClientCount() == 0 })

	if _, ok := <-c.Messages(); ok {
		t.Error("expected send channel to be closed")
	}
	if c.TrySend(ServerMessage{Type: MessageTypeHeartbeat}) {
		t.Error("TrySend on a closed client should fail")
	}

	// A second unregister must not panic on the closed channel
	h.Unregister(c)
}

func TestHub_SlowClientIsDropped(t *testing.T) {
	h := startHub(t)
	slow := NewClient("slow", nil, h)

	h.Register(slow)
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	for i := 0; i <= sendBufferSize; i++ {
		h.Broadcast(models.Opportunity{ID: "x"})
	}

	waitFor(t, func() bool { return h.ClientCount() == 0 })
	if h.Metrics().DroppedClients != 1 {
		t.Errorf("expected 1 dropped client, got %d", h.Metrics().DroppedClients)
	}
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	logger, _ := test.NewNullLogger()
	h := NewHub(logger)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	c := NewClient("c1", nil, h)
	h.Register(c)
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	cancel()
	waitFor(t, func() bool { return h.ClientCount() == 0 })

	// Registering after shutdown closes the client instead of blocking
	late := NewClient("late", nil, h)
	h.Register(late)
	if _, ok := <-late.Messages(); ok {
		t.Error("late client should be closed")
	}
}

func TestClient_HandleClientMessage(t *testing.T) {
	logger, _ := test.NewNullLogger()
	c := NewClient("c1", nil, NewHub(logger))

	c.handleClientMessage(ClientMessage{Type: MessageTypeSubscribe, Filter: SubscriptionFilter{Kinds: []string{"value"}}})
	if got := c.Filter().Kinds; len(got) != 1 || got[0] != "value" {
		t.Errorf("filter not applied: %v", got)
	}

	c.handleClientMessage(ClientMessage{Type: MessageTypeUnsubscribe})
	if len(c.Filter().Kinds) != 0 {
		t.Error("unsubscribe should clear the filter")
	}

	c.handleClientMessage(ClientMessage{Type: MessageTypeHeartbeat})
	msg := <-c.Messages()
	if msg.Type != MessageTypeHeartbeat {
		t.Errorf("expected heartbeat, got %s", msg.Type)
	}
	if stats := msg.Payload.(ConnectionStats); stats.ClientID != "c1" {
		t.Errorf("unexpected stats: %+v", stats)
	}

	c.handleClientMessage(ClientMessage{Type: "bogus"})
	msg = <-c.Messages()
	if msg.Type != MessageTypeError {
		t.Errorf("expected error, got %s", msg.Type)
	}
}
