package service

import (
	"context"
	"log/slog"

	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/events"
	"github.com/phrazzld/taskboard-api/internal/jobs"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
	"github.com/phrazzld/taskboard-api/internal/ws"
)

// Notifier dispatches the post-commit half of the notification fan-out:
// the queued email and the best-effort websocket push. The in-app
// Notification row is written by the calling service inside its own
// transaction; Dispatch must only be called after that transaction has
// committed.
//
// Every failure here is logged and swallowed. A committed state change is
// never reported as failed because an external system was unreachable.
type Notifier struct {
	users   store.UserStore
	emitter events.EventEmitter
	logger  *slog.Logger
}

// NewNotifier creates a Notifier.
func NewNotifier(users store.UserStore, emitter events.EventEmitter, logger *slog.Logger) *Notifier {
	if users == nil {
		panic("user store cannot be nil")
	}
	if emitter == nil {
		panic("event emitter cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Notifier{
		users:   users,
		emitter: emitter,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Dispatch emits the post-commit side effects for one committed
// notification: a templated email job (unless skipEmail, e.g. the actor
// notified themselves) and a websocket push to the receiver's sessions.
func (n *Notifier) Dispatch(
	ctx context.Context,
	notification *domain.Notification,
	emailKind string,
	emailParams map[string]string,
	skipEmail bool,
) {
	log := logger.FromContextOrDefault(ctx, n.logger)

	if !skipEmail {
		n.dispatchEmail(ctx, log, notification, emailKind, emailParams)
	}

	push := ws.NotifyPush{
		UserID:         notification.UserID,
		NotificationID: notification.ID,
		Title:          notification.Title,
		Message:        notification.Message,
	}
	event, err := events.NewSideEffectEvent(events.TypeWSNotify, push)
	if err != nil {
		log.Error("failed to build ws push event",
			slog.String("error", err.Error()),
			slog.String("notification_id", notification.ID.String()))
		return
	}
	if err := n.emitter.EmitEvent(ctx, event); err != nil {
		log.Error("ws push failed after commit",
			slog.String("error", err.Error()),
			slog.String("notification_id", notification.ID.String()),
			slog.String("user_id", notification.UserID.String()))
	}
}

func (n *Notifier) dispatchEmail(
	ctx context.Context,
	log *slog.Logger,
	notification *domain.Notification,
	emailKind string,
	emailParams map[string]string,
) {
	to, err := n.users.GetEmail(ctx, notification.UserID)
	if err != nil {
		log.Error("failed to resolve receiver email after commit",
			slog.String("error", err.Error()),
			slog.String("user_id", notification.UserID.String()),
			slog.String("email_kind", emailKind))
		return
	}

	req := jobs.EmailRequest{
		To:     to,
		Kind:   emailKind,
		Params: emailParams,
	}
	event, err := events.NewSideEffectEvent(events.TypeEmailSend, req)
	if err != nil {
		log.Error("failed to build email event",
			slog.String("error", err.Error()),
			slog.String("email_kind", emailKind))
		return
	}
	if err := n.emitter.EmitEvent(ctx, event); err != nil {
		log.Error("email enqueue failed after commit",
			slog.String("error", err.Error()),
			slog.String("user_id", notification.UserID.String()),
			slog.String("email_kind", emailKind))
	}
}

// QueueFileAction emits a post-commit file storage event. Failures are
// logged and swallowed; an orphaned object is accepted over a blocked
// commit.
func (n *Notifier) QueueFileAction(ctx context.Context, req jobs.FileRequest) {
	log := logger.FromContextOrDefault(ctx, n.logger)

	event, err := events.NewSideEffectEvent(events.TypeFileAction, req)
	if err != nil {
		log.Error("failed to build file event",
			slog.String("error", err.Error()),
			slog.String("key", req.Key),
			slog.String("action", req.Action))
		return
	}
	if err := n.emitter.EmitEvent(ctx, event); err != nil {
		log.Error("file enqueue failed after commit",
			slog.String("error", err.Error()),
			slog.String("key", req.Key),
			slog.String("action", req.Action))
	}
}
