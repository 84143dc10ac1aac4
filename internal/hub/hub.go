// Package hub fans alerted opportunities out to websocket subscribers.
package hub

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/XavierBriggs/fortuna/services/stake-calculator/pkg/models"
)

// Metrics is the payload of GET /metrics
type Metrics struct {
	ActiveClients     int   `json:"activeClients"`
	TotalConnections  int64 `json:"totalConnections"`
	TotalMessages     int64 `json:"totalMessages"`
	DroppedClients    int64 `json:"droppedClients"`
	BroadcastCapacity int   `json:"broadcastCapacity"`
	BroadcastUsage    int   `json:"broadcastUsage"`
}

// Hub maintains the set of active clients and broadcasts opportunities to them
type Hub struct {
	clients   map[*Client]bool
	clientsMu sync.RWMutex

	broadcast  chan models.Opportunity
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	logger *logrus.Logger

	metricsMu        sync.Mutex
	totalConnections int64
	totalMessages    int64
	droppedClients   int64
}

// NewHub creates a hub; call Run to start it
func NewHub(logger *logrus.Logger) *Hub {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan models.Opportunity, 1000),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run is the hub's event loop. It closes every client when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("hub started")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case c := <-h.register:
			h.registerClient(c)

		case c := <-h.unregister:
			h.unregisterClient(c)

		case opp := <-h.broadcast:
			h.broadcastOpportunity(opp)
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		c.close()
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast queues an opportunity for every matching client. Messages are
// dropped when the queue is full.
func (h *Hub) Broadcast(opp models.Opportunity) {
	select {
	case h.broadcast <- opp:
	default:
		h.logger.WithField("opportunity_id", opp.ID).Warn("broadcast buffer full, dropping message")
	}
}

func (h *Hub) registerClient(c *Client) {
	h.clientsMu.Lock()
	h.clients[c] = true
	total := len(h.clients)
	h.clientsMu.Unlock()

	h.metricsMu.Lock()
	h.totalConnections++
	h.metricsMu.Unlock()

	h.logger.WithFields(logrus.Fields{"client_id": c.ID, "total": total}).Info("client connected")
}

func (h *Hub) unregisterClient(c *Client) {
	h.clientsMu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	total := len(h.clients)
	h.clientsMu.Unlock()

	if ok {
		c.close()
		h.logger.WithFields(logrus.Fields{"client_id": c.ID, "total": total}).Info("client disconnected")
	}
}

// broadcastOpportunity runs on the hub loop so it may drop clients directly
func (h *Hub) broadcastOpportunity(opp models.Opportunity) {
	h.clientsMu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	message := ServerMessage{
		Type:      MessageTypeOpportunity,
		Payload:   opp,
		Timestamp: time.Now(),
	}

	sent := 0
	for _, c := range clients {
		if !c.Filter().Matches(opp) {
			continue
		}
		if c.TrySend(message) {
			sent++
			continue
		}

		h.logger.WithField("client_id", c.ID).Warn("client buffer full, disconnecting")
		h.metricsMu.Lock()
		h.droppedClients++
		h.metricsMu.Unlock()
		h.unregisterClient(c)
	}

	if sent > 0 {
		h.metricsMu.Lock()
		h.totalMessages++
		h.metricsMu.Unlock()
	}
}

// Metrics returns a snapshot of hub counters
func (h *Hub) Metrics() Metrics {
	h.metricsMu.Lock()
	m := Metrics{
		TotalConnections:  h.totalConnections,
		TotalMessages:     h.totalMessages,
		DroppedClients:    h.droppedClients,
		BroadcastCapacity: cap(h.broadcast),
		BroadcastUsage:    len(h.broadcast),
	}
	h.metricsMu.Unlock()

	m.ActiveClients = h.ClientCount()
	return m
}

// ClientCount returns the number of active clients
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

func (h *Hub) shutdown() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.logger.WithField("active_clients", len(h.clients)).Info("shutting down hub")
	for c := range h.clients {
		c.close()
		delete(h.clients, c)
	}
}
