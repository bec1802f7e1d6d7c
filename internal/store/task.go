package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
)

// TaskStore defines the persistence interface for tasks.
type TaskStore interface {
	// Create saves a new task to the store.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// GetForUpdate retrieves a task and locks its row for the duration of
	// the surrounding transaction (SELECT ... FOR UPDATE). Must only be
	// called on a store bound to a transaction via WithTx; this is what
	// serializes concurrent transitions on the same task.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Update saves changes to an existing task.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task by ID. History rows and file metadata cascade.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListByProject retrieves tasks of a project, optionally narrowed to a
	// sprint when sprintID is non-nil.
	ListByProject(ctx context.Context, projectID uuid.UUID, sprintID *uuid.UUID) ([]*domain.Task, error)

	// ListBySprint retrieves all tasks owned by a sprint.
	ListBySprint(ctx context.Context, sprintID uuid.UUID) ([]*domain.Task, error)

	// FindDueBefore retrieves tasks whose deadline lies before the given
	// instant and whose status is one of the sweepable states
	// (ongoing, under review, rejected).
	FindDueBefore(ctx context.Context, deadline time.Time) ([]*domain.Task, error)

	// WithTx returns a TaskStore bound to the given transaction.
	WithTx(tx *sql.Tx) TaskStore
}
