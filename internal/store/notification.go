package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
)

// NotificationStore defines the persistence interface for in-app
// notifications. Creation happens inside lifecycle transactions; a failed
// insert rolls the whole state change back.
type NotificationStore interface {
	// Create saves a new notification.
	Create(ctx context.Context, n *domain.Notification) error

	// ListByUser retrieves a user's notifications, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Notification, error)

	// MarkViewed marks a notification as viewed.
	// Returns ErrNotificationNotFound if the notification does not exist.
	MarkViewed(ctx context.Context, id uuid.UUID) error

	// WithTx returns a NotificationStore bound to the given transaction.
	WithTx(tx *sql.Tx) NotificationStore
}
