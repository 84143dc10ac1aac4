package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/XavierBriggs/fortuna/services/stake-calculator/internal/analytics"
	"github.com/XavierBriggs/fortuna/services/stake-calculator/pkg/models"
)

var validBetStatuses = map[string]bool{
	models.BetStatusPending: true,
	models.BetStatusWon:     true,
	models.BetStatusLost:    true,
	models.BetStatusVoid:    true,
}

// RecordBet stores a placed bet for analytics
// POST /api/v1/bets
func (h *Handler) RecordBet(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w, r) {
		return
	}

	var bet models.BetRecord
	if err := decodeJSON(w, r, &bet); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if bet.Sport == "" || bet.Bookmaker == "" {
		h.respondError(w, r, http.StatusBadRequest, "sport and bookmaker are required", nil)
		return
	}
	if bet.BetType != models.BetTypeArbitrage && bet.BetType != models.BetTypeValue {
		h.respondError(w, r, http.StatusBadRequest, "betType must be one of: arbitrage, value", nil)
		return
	}
	if bet.Stake <= 0 {
		h.respondError(w, r, http.StatusBadRequest, "stake must be positive", nil)
		return
	}
	if bet.Status == "" {
		bet.Status = models.BetStatusPending
	}
	if !validBetStatuses[bet.Status] {
		h.respondError(w, r, http.StatusBadRequest, "status must be one of: pending, won, lost, void", nil)
		return
	}
	if bet.PlacedAt.IsZero() {
		bet.PlacedAt = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, err := h.store.RecordBet(ctx, &bet)
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "failed to record bet", err)
		return
	}
	bet.ID = id

	if h.analytics != nil {
		if err := h.analytics.Invalidate(ctx); err != nil {
			h.logger.WithError(err).Warn("failed to invalidate analytics cache")
		}
	}

	respondJSON(w, http.StatusCreated, bet)
}

// ListBets returns recorded bets
// Query params: from, to, sport, bookmaker, betType, status, limit, offset
func (h *Handler) ListBets(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w, r) {
		return
	}

	filter, err := parseRecordFilter(r)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, err.Error(), err)
		return
	}
	filter.Limit, filter.Offset = pageParams(r, 50)

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	bets, err := h.store.ListBets(ctx, filter)
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "failed to retrieve bets", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"bets":   bets,
		"count":  len(bets),
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// GetAnalyticsSummary returns ROI and win rate over recorded bets
// Query params: from, to, sport, bookmaker, betType, status, groupBy
func (h *Handler) GetAnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	if h.analytics == nil {
		h.respondError(w, r, http.StatusServiceUnavailable, "analytics requires persistence", nil)
		return
	}

	filter, err := parseRecordFilter(r)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, err.Error(), err)
		return
	}

	key, err := analytics.ParseGroupKey(r.URL.Query().Get("groupBy"))
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, err.Error(), err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	summary, err := h.analytics.Summary(ctx, filter, key)
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "failed to build analytics summary", err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// parseRecordFilter reads the shared bet filter query parameters. Dates are
// RFC3339 or YYYY-MM-DD; to is exclusive.
func parseRecordFilter(r *http.Request) (models.RecordFilter, error) {
	q := r.URL.Query()
	filter := models.RecordFilter{
		Sport:     q.Get("sport"),
		Bookmaker: q.Get("bookmaker"),
		BetType:   q.Get("betType"),
		Status:    q.Get("status"),
	}

	if filter.Status != "" && !validBetStatuses[filter.Status] {
		return filter, fmt.Errorf("status must be one of: pending, won, lost, void")
	}

	for _, p := range []struct {
		name string
		dst  **time.Time
	}{
		{"from", &filter.Since},
		{"to", &filter.Until},
	} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		t, err := parseTimeParam(raw)
		if err != nil {
			return filter, fmt.Errorf("%s must be RFC3339 or YYYY-MM-DD: %w", p.name, err)
		}
		*p.dst = &t
	}

	if filter.Since != nil && filter.Until != nil && !filter.Until.After(*filter.Since) {
		return filter, fmt.Errorf("to must be after from")
	}

	return filter, nil
}

func parseTimeParam(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
