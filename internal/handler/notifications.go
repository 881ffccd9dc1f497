package handler

import (
	"net/http"
	"strconv"

	"github.com/Dan9191/bank-autopay/internal/models"
)

type notificationsResponse struct {
	Notifications []models.PaymentNotification `json:"notifications"`
	UnreadCount   int                          `json:"unread_count"`
}

// ListNotifications lists the caller's notifications; ?unread=true keeps only unread ones
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	unreadOnly := false
	if v := r.URL.Query().Get("unread"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid unread flag")
			return
		}
		unreadOnly = parsed
	}

	notifications, err := h.notifications.GetNotifications(r.Context(), userID, unreadOnly)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	unread, err := h.notifications.UnreadNotificationCount(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if notifications == nil {
		notifications = []models.PaymentNotification{}
	}
	respondJSON(w, http.StatusOK, notificationsResponse{Notifications: notifications, UnreadCount: unread})
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	notificationID, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusNotFound, "Notification not found")
		return
	}
	marked, err := h.notifications.MarkNotificationRead(r.Context(), userID, notificationID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !marked {
		respondError(w, http.StatusNotFound, "Notification not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	n, err := h.notifications.MarkAllNotificationsRead(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"marked": n})
}
