package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/XavierBriggs/fortuna/services/stake-calculator/internal/analytics"
	"github.com/XavierBriggs/fortuna/services/stake-calculator/internal/calculator"
	"github.com/XavierBriggs/fortuna/services/stake-calculator/internal/hub"
	"github.com/XavierBriggs/fortuna/services/stake-calculator/internal/store"
	"github.com/XavierBriggs/fortuna/services/stake-calculator/pkg/models"
)

const (
	maxListLimit = 500
	maxBodyBytes = 1 << 20
)

var errTrailingData = errors.New("unexpected data after JSON body")

// SummaryService builds analytics summaries
type SummaryService interface {
	Summary(ctx context.Context, filter models.RecordFilter, key analytics.GroupKey) (analytics.Summary, error)
	Invalidate(ctx context.Context) error
}

// AlertSubmitter hands detected opportunities to the alert pipeline
type AlertSubmitter interface {
	Submit(opp models.Opportunity)
}

// Deps are the collaborators of the HTTP handlers. Every field is optional;
// routes that need a missing collaborator answer 503.
type Deps struct {
	Store              store.Store
	Analytics          SummaryService
	Alerts             AlertSubmitter
	Hub                *hub.Hub
	Logger             *logrus.Logger
	UserID             string
	DefaultMaxFraction float64
	RequestTimeout     time.Duration

	// AllowedOrigins restricts websocket upgrades; empty allows any origin
	AllowedOrigins []string

	// BaseContext outlives requests and stops websocket pumps on shutdown
	BaseContext context.Context
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	store              store.Store
	analytics          SummaryService
	alerts             AlertSubmitter
	hub                *hub.Hub
	logger             *logrus.Logger
	userID             string
	defaultMaxFraction float64
	timeout            time.Duration
	baseCtx            context.Context
	upgrader           websocket.Upgrader
	started            time.Time
}

// NewHandler creates a new handler with dependencies
func NewHandler(d Deps) *Handler {
	h := &Handler{
		store:              d.Store,
		analytics:          d.Analytics,
		alerts:             d.Alerts,
		hub:                d.Hub,
		logger:             d.Logger,
		userID:             d.UserID,
		defaultMaxFraction: d.DefaultMaxFraction,
		timeout:            d.RequestTimeout,
		baseCtx:            d.BaseContext,
		upgrader:           newUpgrader(d.AllowedOrigins),
		started:            time.Now(),
	}

	if h.logger == nil {
		h.logger = logrus.StandardLogger()
	}
	if h.userID == "" {
		h.userID = "default"
	}
	if h.defaultMaxFraction <= 0 || h.defaultMaxFraction > 1 {
		h.defaultMaxFraction = calculator.DefaultMaxBankrollFraction
	}
	if h.timeout <= 0 {
		h.timeout = 5 * time.Second
	}
	if h.baseCtx == nil {
		h.baseCtx = context.Background()
	}

	return h
}

// Routes mounts every endpoint on r
func (h *Handler) Routes(r chi.Router) {
	r.Get("/health", h.HealthCheck)
	r.Get("/metrics", h.Metrics)
	r.Get("/ws", h.HandleWebSocket)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/calculate/arbitrage", h.CalculateArbitrage)
		r.Post("/calculate/kelly", h.CalculateKelly)
		r.Post("/calculate/ev", h.CalculateEV)
		r.Get("/risk-tier", h.GetRiskTier)
		r.Get("/odds/convert", h.ConvertOdds)
		r.Post("/odds/market", h.AnalyzeMarket)

		r.Get("/calculations", h.ListCalculations)
		r.Get("/calculations/{id}", h.GetCalculation)

		r.Post("/bets", h.RecordBet)
		r.Get("/bets", h.ListBets)
		r.Get("/analytics/summary", h.GetAnalyticsSummary)

		r.Get("/notifications/settings", h.GetNotificationSettings)
		r.Put("/notifications/settings", h.UpdateNotificationSettings)
		r.Get("/notifications", h.ListNotifications)
		r.Post("/notifications/{id}/read", h.MarkNotificationRead)
	})
}

// HealthCheck returns the health status of the service. Persistence is
// optional, so a missing store is reported but still healthy.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	database := "disabled"
	if h.store != nil {
		if err := h.store.Ping(ctx); err != nil {
			h.respondError(w, r, http.StatusServiceUnavailable, "database unhealthy", err)
			return
		}
		database = "ok"
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "healthy",
		"timestamp":      time.Now().UTC(),
		"service":        "stake-calculator",
		"database":       database,
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
	})
}

// Metrics returns websocket hub metrics
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		h.respondError(w, r, http.StatusServiceUnavailable, "websocket hub not running", nil)
		return
	}
	respondJSON(w, http.StatusOK, h.hub.Metrics())
}

// requireStore writes a 503 and returns false when persistence is disabled
func (h *Handler) requireStore(w http.ResponseWriter, r *http.Request) bool {
	if h.store == nil {
		h.respondError(w, r, http.StatusServiceUnavailable, "persistence is not configured", nil)
		return false
	}
	return true
}

// respondJSON writes a JSON response. The body is encoded before the header
// is sent so an unencodable value becomes a 500 instead of an empty 200.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		buf.Reset()
		json.NewEncoder(&buf).Encode(models.ErrorResponse{
			Error:   http.StatusText(http.StatusInternalServerError),
			Message: "failed to encode response",
			Code:    http.StatusInternalServerError,
		})
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// respondError writes an error response and logs the cause
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	if err != nil {
		entry := h.logger.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"status":     status,
		}).WithError(err)
		if status >= 500 {
			entry.Error(message)
		} else {
			entry.Debug(message)
		}
	}

	respondJSON(w, status, models.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}

// parseIntParam parses an integer query parameter with a default value
func parseIntParam(r *http.Request, name string, defaultValue int) int {
	str := r.URL.Query().Get(name)
	if str == "" {
		return defaultValue
	}

	val, err := strconv.Atoi(str)
	if err != nil {
		return defaultValue
	}

	return val
}

// pageParams reads limit and offset, clamping both into a usable range
func pageParams(r *http.Request, defaultLimit int) (int, int) {
	limit := parseIntParam(r, "limit", defaultLimit)
	offset := parseIntParam(r, "offset", 0)

	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// decodeJSON reads a request body into v, rejecting trailing data
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errTrailingData
	}
	return nil
}
