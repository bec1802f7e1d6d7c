package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// SprintStatus represents the lifecycle state of a sprint.
type SprintStatus string

// Possible sprint status values.
const (
	SprintStatusPlanned   SprintStatus = "planned"
	SprintStatusActive    SprintStatus = "active"
	SprintStatusCompleted SprintStatus = "completed"
	SprintStatusOverdue   SprintStatus = "overdue"
)

// IsValid reports whether the status is one of the defined sprint statuses.
func (s SprintStatus) IsValid() bool {
	switch s {
	case SprintStatusPlanned, SprintStatusActive, SprintStatusCompleted, SprintStatusOverdue:
		return true
	}
	return false
}

// MaxStartDateAge is how far in the past a sprint's start date may lie at
// creation or update time.
const MaxStartDateAge = 24 * time.Hour

// Sprint-specific validation errors.
var (
	// ErrSprintIDEmpty is returned when a sprint ID is empty or nil.
	ErrSprintIDEmpty = errors.New("sprint ID cannot be empty")

	// ErrSprintTitleEmpty is returned when a sprint's title is empty.
	ErrSprintTitleEmpty = errors.New("sprint title cannot be empty")

	// ErrSprintProjectIDEmpty is returned when a sprint's project ID is empty or nil.
	ErrSprintProjectIDEmpty = errors.New("sprint project ID cannot be empty")

	// ErrSprintCreatorEmpty is returned when a sprint's creator is empty or nil.
	ErrSprintCreatorEmpty = errors.New("sprint creator cannot be empty")
)

// Sprint represents a time-boxed iteration owned by a project. At most one
// sprint per project may be active at any time; the store enforces this
// with a partial unique index and the service layer checks it up front for
// a friendlier error.
type Sprint struct {
	ID          uuid.UUID    `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      SprintStatus `json:"status"`
	ProjectID   uuid.UUID    `json:"project_id"`
	CreatedBy   uuid.UUID    `json:"created_by"`
	StartDate   time.Time    `json:"start_date"`
	EndDate     time.Time    `json:"end_date"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// NewSprint creates a new Sprint in the initial "planned" status.
// Returns an error if validation fails, including the date-range rules.
func NewSprint(
	title, description string,
	projectID, createdBy uuid.UUID,
	startDate, endDate time.Time,
) (*Sprint, error) {
	now := time.Now().UTC()
	sprint := &Sprint{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Status:      SprintStatusPlanned,
		ProjectID:   projectID,
		CreatedBy:   createdBy,
		StartDate:   startDate,
		EndDate:     endDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := sprint.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateSprintDates(startDate, endDate, now); err != nil {
		return nil, err
	}

	return sprint, nil
}

// Validate checks if the Sprint has valid data.
func (s *Sprint) Validate() error {
	if s.ID == uuid.Nil {
		return ErrSprintIDEmpty
	}
	if s.Title == "" {
		return ErrSprintTitleEmpty
	}
	if !s.Status.IsValid() {
		return ErrInvalidStatus
	}
	if s.ProjectID == uuid.Nil {
		return ErrSprintProjectIDEmpty
	}
	if s.CreatedBy == uuid.Nil {
		return ErrSprintCreatorEmpty
	}
	return nil
}

// ValidateSprintDates checks the ordering rules for a sprint's date range
// at the given reference time: the end may not precede the start, and the
// start may not lie more than MaxStartDateAge before now. Both errors wrap
// ErrInvalidTimeRange so callers can match the whole family.
func ValidateSprintDates(startDate, endDate, now time.Time) error {
	if endDate.Before(startDate) {
		return NewValidationError("end_date", "cannot precede start date", ErrInvalidTimeRange)
	}
	if startDate.Before(now.Add(-MaxStartDateAge)) {
		return NewValidationError("start_date", "cannot be more than 24h in the past", ErrInvalidTimeRange)
	}
	return nil
}
