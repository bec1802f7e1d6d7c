package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
)

// SprintStore defines the persistence interface for sprints.
type SprintStore interface {
	// Create saves a new sprint to the store.
	// Returns ErrActiveSprintExists if creating it as active would violate
	// the single-active-sprint invariant.
	Create(ctx context.Context, sprint *domain.Sprint) error

	// GetByID retrieves a sprint by its unique ID.
	// Returns ErrSprintNotFound if the sprint does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Sprint, error)

	// Update saves changes to an existing sprint.
	// Returns ErrSprintNotFound if the sprint does not exist and
	// ErrActiveSprintExists on a single-active-sprint violation.
	Update(ctx context.Context, sprint *domain.Sprint) error

	// Delete removes a sprint by ID. Owned tasks cascade.
	// Returns ErrSprintNotFound if the sprint does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListByProject retrieves all sprints of a project, newest first.
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.Sprint, error)

	// FindActive retrieves the project's active sprint.
	// Returns ErrSprintNotFound if no sprint is active.
	FindActive(ctx context.Context, projectID uuid.UUID) (*domain.Sprint, error)

	// WithTx returns a SprintStore bound to the given transaction.
	WithTx(tx *sql.Tx) SprintStore
}
