package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
)

// MemberStore defines the persistence interface for project members.
type MemberStore interface {
	// GetByID retrieves a member by its unique ID.
	// Returns ErrMemberNotFound if the member does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ProjectMember, error)

	// GetByUserAndProject retrieves the membership of a user in a project.
	// Returns ErrMemberNotFound if the user is not a member of the project.
	GetByUserAndProject(ctx context.Context, userID, projectID uuid.UUID) (*domain.ProjectMember, error)

	// ListByProject retrieves all members of a project.
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.ProjectMember, error)

	// WithTx returns a MemberStore bound to the given transaction.
	WithTx(tx *sql.Tx) MemberStore
}
