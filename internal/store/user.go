package store

import (
	"context"

	"github.com/google/uuid"
)

// UserStore defines the read interface for user accounts. Account CRUD and
// authentication live outside the lifecycle core; it only resolves email
// addresses for the queued email fan-out.
type UserStore interface {
	// GetEmail retrieves the email address of a user.
	// Returns ErrUserNotFound if the user does not exist.
	GetEmail(ctx context.Context, userID uuid.UUID) (string, error)
}
