package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
)

// TaskFileStore defines the persistence interface for task file metadata.
// Only metadata participates in transactions; the bytes live in external
// object storage and are moved by queued jobs after commit.
type TaskFileStore interface {
	// Create saves new file metadata.
	Create(ctx context.Context, file *domain.TaskFile) error

	// Delete removes file metadata by ID.
	// Returns ErrNotFound if the metadata does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListByTask retrieves metadata of all files attached to a task.
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.TaskFile, error)

	// WithTx returns a TaskFileStore bound to the given transaction.
	WithTx(tx *sql.Tx) TaskFileStore
}
