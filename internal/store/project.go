package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
)

// ProjectStore defines the read interface for projects. Project CRUD is
// handled elsewhere; the lifecycle core only resolves titles for message
// composition and checks existence for aggregator scoping.
type ProjectStore interface {
	// GetByID retrieves a project by its unique ID.
	// Returns ErrProjectNotFound if the project does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error)

	// WithTx returns a ProjectStore bound to the given transaction.
	WithTx(tx *sql.Tx) ProjectStore
}
