package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
)

// HistoryStore defines the persistence interface for the task history
// ledger. The ledger is append-only: entries are only ever written inside
// the same transaction as the status change that produced them, and only
// ever removed by cascade when the owning task is destroyed.
type HistoryStore interface {
	// Append adds a history entry.
	Append(ctx context.Context, entry *domain.TaskHistory) error

	// ListByTask retrieves a task's full history, newest first.
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.TaskHistory, error)

	// Latest retrieves the most recent history entry for a task, which by
	// construction reflects the task's current status.
	// Returns ErrNotFound if the task has no history.
	Latest(ctx context.Context, taskID uuid.UUID) (*domain.TaskHistory, error)

	// WithTx returns a HistoryStore bound to the given transaction.
	WithTx(tx *sql.Tx) HistoryStore
}
