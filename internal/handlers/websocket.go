package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/XavierBriggs/fortuna/services/stake-calculator/internal/hub"
)

// newUpgrader accepts any origin when none are configured
func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowed) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			return origin == "" || allowed[origin]
		},
	}
}

// HandleWebSocket upgrades HTTP connections to WebSocket and streams
// opportunities from the hub
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		h.respondError(w, r, http.StatusServiceUnavailable, "websocket hub not running", nil)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		h.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	clientID := uuid.New().String()
	c := hub.NewClient(clientID, conn, h.hub)
	h.hub.Register(c)

	// Pumps outlive the request, so they follow the server context
	go c.WritePump(h.baseCtx)
	go c.ReadPump(h.baseCtx)

	h.logger.WithField("client_id", clientID).Info("websocket connection established")
}
