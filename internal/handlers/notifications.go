package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/XavierBriggs/fortuna/services/stake-calculator/internal/store"
	"github.com/XavierBriggs/fortuna/services/stake-calculator/pkg/models"
)

var validChannels = map[string]bool{
	models.ChannelTelegram:  true,
	models.ChannelSlack:     true,
	models.ChannelWebSocket: true,
}

// GetNotificationSettings returns the user's alert thresholds
func (h *Handler) GetNotificationSettings(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w, r) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	settings, err := h.store.GetNotificationSettings(ctx, h.userID)
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "failed to retrieve notification settings", err)
		return
	}

	respondJSON(w, http.StatusOK, settings)
}

// UpdateNotificationSettings replaces the user's alert thresholds
func (h *Handler) UpdateNotificationSettings(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w, r) {
		return
	}

	var update models.NotificationSettingsUpdate
	if err := decodeJSON(w, r, &update); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if update.MinMarginPercent < 0 || update.MinMarginPercent > 100 {
		h.respondError(w, r, http.StatusBadRequest, "minMarginPercent must be between 0 and 100", nil)
		return
	}
	if update.MinEVPercent < 0 || update.MinEVPercent > 100 {
		h.respondError(w, r, http.StatusBadRequest, "minEvPercent must be between 0 and 100", nil)
		return
	}
	for _, c := range update.Channels {
		if !validChannels[c] {
			h.respondError(w, r, http.StatusBadRequest, "channels must be any of: telegram, slack, websocket", nil)
			return
		}
	}
	if update.Channels == nil {
		update.Channels = []string{}
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.store.UpsertNotificationSettings(ctx, h.userID, &update); err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "failed to update notification settings", err)
		return
	}

	settings, err := h.store.GetNotificationSettings(ctx, h.userID)
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "failed to retrieve updated settings", err)
		return
	}

	respondJSON(w, http.StatusOK, settings)
}

// ListNotifications returns delivered alerts, newest first
// Query params: unread, limit, offset
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w, r) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	limit, offset := pageParams(r, 50)
	unreadOnly, _ := strconv.ParseBool(r.URL.Query().Get("unread"))

	notifications, err := h.store.ListNotifications(ctx, h.userID, models.NotificationFilters{
		UnreadOnly: unreadOnly,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "failed to retrieve notifications", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": notifications,
		"count":         len(notifications),
		"limit":         limit,
		"offset":        offset,
	})
}

// MarkNotificationRead flags one notification as read
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w, r) {
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, "invalid notification ID", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	err = h.store.MarkNotificationRead(ctx, h.userID, id)
	if errors.Is(err, store.ErrNotFound) {
		h.respondError(w, r, http.StatusNotFound, "notification not found", nil)
		return
	}
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "failed to mark notification read", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
