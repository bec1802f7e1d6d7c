package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrProjectTitleEmpty is returned when a project's title is empty.
var ErrProjectTitleEmpty = errors.New("project title cannot be empty")

// Project is the owning aggregate for sprints, tasks and memberships.
// Project CRUD itself lives outside the lifecycle core; this type carries
// what message composition and ownership checks need.
type Project struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks if the Project has valid data.
func (p *Project) Validate() error {
	if p.ID == uuid.Nil {
		return ErrInvalidID
	}
	if p.Title == "" {
		return ErrProjectTitleEmpty
	}
	return nil
}
