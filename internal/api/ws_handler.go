package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/ws"
)

// commentFrame is an inbound comment message from a task channel client.
type commentFrame struct {
	AuthorID uuid.UUID `json:"author_id"`
	Text     string    `json:"text"`
}

// WSHandler upgrades HTTP requests into hub sessions: a per-user
// notification channel and a per-task comment channel.
type WSHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(hub *ws.Hub, logger *slog.Logger) *WSHandler {
	if logger == nil {
		panic("logger cannot be nil for WSHandler") // ALLOW-PANIC
	}
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger.With(slog.String("component", "ws_handler")),
	}
}

// Notifications handles GET /ws/notifications. The session is keyed by the
// authenticated user and receives notification pushes until the client
// disconnects.
func (h *WSHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		log.Debug("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	h.hub.RegisterUser(userID, conn)
	defer func() {
		h.hub.DeregisterUser(userID, conn)
		_ = conn.Close()
	}()

	// The notification channel is push-only. Reading detects disconnect
	// and drains client control frames.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// TaskComments handles GET /ws/tasks/{id}/comments. Every frame a client
// sends is fanned out to the task's other subscribers.
func (h *WSHandler) TaskComments(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	if _, ok := getUserIDFromContext(r); !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	taskID, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "Invalid task ID")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	h.hub.RegisterTask(taskID, conn)
	defer func() {
		h.hub.DeregisterTask(taskID, conn)
		_ = conn.Close()
	}()

	for {
		var frame commentFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("comment session read failed",
					slog.String("task_id", taskID.String()),
					slog.String("error", err.Error()))
			}
			return
		}
		if frame.Text == "" {
			continue
		}

		h.hub.PushToTask(r.Context(), taskID, map[string]any{
			"type":      "comment",
			"task_id":   taskID,
			"author_id": frame.AuthorID,
			"text":      frame.Text,
		})
	}
}
