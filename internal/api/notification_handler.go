package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
)

const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 100
)

// NotificationHandler handles in-app notification endpoints. Notifications
// are created by the lifecycle services; this handler only reads and marks
// them.
type NotificationHandler struct {
	notifications store.NotificationStore
	logger        *slog.Logger
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(
	notifications store.NotificationStore,
	logger *slog.Logger,
) *NotificationHandler {
	if logger == nil {
		panic("logger cannot be nil for NotificationHandler") // ALLOW-PANIC
	}
	return &NotificationHandler{
		notifications: notifications,
		logger:        logger.With(slog.String("component", "notification_handler")),
	}
}

// ListNotifications handles GET /notifications with limit/offset paging.
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	limit, ok := getQueryInt(w, r, "limit", defaultNotificationLimit)
	if !ok {
		return
	}
	if limit < 1 || limit > maxNotificationLimit {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid limit parameter")
		return
	}

	offset, ok := getQueryInt(w, r, "offset", 0)
	if !ok {
		return
	}
	if offset < 0 {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid offset parameter")
		return
	}

	notifications, err := h.notifications.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, notifications)
}

// MarkViewed handles POST /notifications/{id}/viewed.
func (h *NotificationHandler) MarkViewed(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	notificationID, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "Invalid notification ID")
		return
	}

	if err := h.notifications.MarkViewed(r.Context(), notificationID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("notification viewed",
		slog.String("notification_id", notificationID.String()))
	w.WriteHeader(http.StatusNoContent)
}

// getQueryInt parses an optional integer query parameter. It writes the
// error response itself and reports whether the caller may proceed.
func getQueryInt(
	w http.ResponseWriter,
	r *http.Request,
	name string,
	fallback int,
) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid "+name+" parameter")
		return 0, false
	}
	return value, true
}
