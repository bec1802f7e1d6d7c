package ws

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/events"
)

// PushEventHandler implements the events.EventHandler interface to turn
// post-commit push events into websocket frames. Delivery is best-effort:
// a user with no live session simply misses the frame.
type PushEventHandler struct {
	hub    *Hub
	logger *slog.Logger
}

// NewPushEventHandler creates an event handler that pushes frames through
// the given hub.
func NewPushEventHandler(hub *Hub, logger *slog.Logger) *PushEventHandler {
	return &PushEventHandler{
		hub:    hub,
		logger: logger.With("component", "push_event_handler"),
	}
}

// Ensure PushEventHandler implements events.EventHandler
var _ events.EventHandler = (*PushEventHandler)(nil)

// NotifyPush is the payload shape of a ws.notify event. Frame carries the
// notification fields under a "notification" type discriminator.
type NotifyPush struct {
	UserID         uuid.UUID `json:"user_id"`
	NotificationID uuid.UUID `json:"notification_id"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
}

// CommentPush is the payload shape of a ws.comment event.
type CommentPush struct {
	TaskID   uuid.UUID `json:"task_id"`
	AuthorID uuid.UUID `json:"author_id"`
	Text     string    `json:"text"`
}

// HandleEvent processes ws.notify and ws.comment events. Other event
// types are ignored. Push failures are logged and never returned; a
// missed frame must not fail the emitting flow.
func (h *PushEventHandler) HandleEvent(ctx context.Context, event *events.SideEffectEvent) error {
	switch event.Type {
	case events.TypeWSNotify:
		var push NotifyPush
		if err := event.UnmarshalPayload(&push); err != nil {
			h.logger.Error("failed to unmarshal notify payload", "error", err, "event_id", event.ID)
			return fmt.Errorf("failed to unmarshal notify payload: %w", err)
		}

		frame := map[string]any{
			"type":            "notification",
			"notification_id": push.NotificationID,
			"title":           push.Title,
			"message":         push.Message,
		}
		sent := h.hub.PushToUser(ctx, push.UserID, frame)
		h.logger.Debug("notification frame pushed",
			"user_id", push.UserID,
			"sessions", sent,
			"event_id", event.ID)
		return nil

	case events.TypeWSComment:
		var push CommentPush
		if err := event.UnmarshalPayload(&push); err != nil {
			h.logger.Error("failed to unmarshal comment payload", "error", err, "event_id", event.ID)
			return fmt.Errorf("failed to unmarshal comment payload: %w", err)
		}

		frame := map[string]any{
			"type":      "comment",
			"task_id":   push.TaskID,
			"author_id": push.AuthorID,
			"text":      push.Text,
		}
		sent := h.hub.PushToTask(ctx, push.TaskID, frame)
		h.logger.Debug("comment frame pushed",
			"task_id", push.TaskID,
			"sessions", sent,
			"event_id", event.ID)
		return nil

	default:
		h.logger.Debug("ignoring event with unsupported type",
			"event_type", event.Type,
			"event_id", event.ID)
		return nil
	}
}
