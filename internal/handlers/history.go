package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/XavierBriggs/fortuna/services/stake-calculator/internal/store"
	"github.com/XavierBriggs/fortuna/services/stake-calculator/pkg/models"
)

// ListCalculations returns past calculator runs, newest first
// Query params: kind, limit, offset
func (h *Handler) ListCalculations(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w, r) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	kind := r.URL.Query().Get("kind")
	if kind != "" && kind != models.CalculationArbitrage && kind != models.CalculationKelly {
		h.respondError(w, r, http.StatusBadRequest, "kind must be one of: arbitrage, kelly", nil)
		return
	}

	limit, offset := pageParams(r, 50)
	calcs, err := h.store.ListCalculations(ctx, store.CalculationFilters{
		Kind:   kind,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "failed to retrieve calculations", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"calculations": calcs,
		"count":        len(calcs),
		"limit":        limit,
		"offset":       offset,
	})
}

// GetCalculation returns one calculator run
func (h *Handler) GetCalculation(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w, r) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := chi.URLParam(r, "id")
	calc, err := h.store.GetCalculation(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		h.respondError(w, r, http.StatusNotFound, "calculation not found", nil)
		return
	}
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "failed to retrieve calculation", err)
		return
	}

	respondJSON(w, http.StatusOK, calc)
}
