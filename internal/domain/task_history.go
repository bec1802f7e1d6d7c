package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TaskHistory-specific validation errors.
var (
	// ErrHistoryIDEmpty is returned when a history entry ID is empty or nil.
	ErrHistoryIDEmpty = errors.New("task history ID cannot be empty")

	// ErrHistoryTaskIDEmpty is returned when a history entry's task ID is empty or nil.
	ErrHistoryTaskIDEmpty = errors.New("task history task ID cannot be empty")
)

// TaskHistory is one entry of a task's immutable status ledger. A row is
// appended for every committed status transition, including the initial
// creation and sweeper-driven overdue transitions. Entries are never
// updated or deleted except by cascade when the task itself is destroyed.
type TaskHistory struct {
	ID        uuid.UUID  `json:"id"`
	TaskID    uuid.UUID  `json:"task_id"`
	Status    TaskStatus `json:"status"`
	Comment   string     `json:"comment,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewTaskHistory creates a history entry snapshotting the given status.
// Returns an error if validation fails.
func NewTaskHistory(taskID uuid.UUID, status TaskStatus, comment string) (*TaskHistory, error) {
	entry := &TaskHistory{
		ID:        uuid.New(),
		TaskID:    taskID,
		Status:    status,
		Comment:   comment,
		CreatedAt: time.Now().UTC(),
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	return entry, nil
}

// Validate checks if the TaskHistory has valid data.
func (h *TaskHistory) Validate() error {
	if h.ID == uuid.Nil {
		return ErrHistoryIDEmpty
	}
	if h.TaskID == uuid.Nil {
		return ErrHistoryTaskIDEmpty
	}
	if !h.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}
