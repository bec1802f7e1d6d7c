package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
)

// TimeEntryStore defines the persistence interface for time entries.
type TimeEntryStore interface {
	// Create saves a new time entry.
	// Returns ErrRunningTimerExists if the user already has a running
	// entry (partial unique index on end_time IS NULL).
	Create(ctx context.Context, entry *domain.TimeEntry) error

	// GetRunning retrieves the user's currently running entry.
	// Returns ErrTimeEntryNotFound if no timer is running.
	GetRunning(ctx context.Context, userID uuid.UUID) (*domain.TimeEntry, error)

	// Update saves changes to an existing entry (stopping a timer).
	// Returns ErrTimeEntryNotFound if the entry does not exist.
	Update(ctx context.Context, entry *domain.TimeEntry) error

	// ListByTask retrieves all entries recorded against a task.
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.TimeEntry, error)

	// SumDurationByUser returns the total tracked seconds of a user across
	// stopped entries.
	SumDurationByUser(ctx context.Context, userID uuid.UUID) (int64, error)

	// WithTx returns a TimeEntryStore bound to the given transaction.
	WithTx(tx *sql.Tx) TimeEntryStore
}
