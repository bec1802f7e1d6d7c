package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TimeEntry-specific validation errors.
var (
	// ErrTimeEntryIDEmpty is returned when a time entry ID is empty or nil.
	ErrTimeEntryIDEmpty = errors.New("time entry ID cannot be empty")

	// ErrTimeEntryUserIDEmpty is returned when a time entry's user ID is empty or nil.
	ErrTimeEntryUserIDEmpty = errors.New("time entry user ID cannot be empty")

	// ErrTimeEntryTaskIDEmpty is returned when a time entry's task ID is empty or nil.
	ErrTimeEntryTaskIDEmpty = errors.New("time entry task ID cannot be empty")

	// ErrTimeEntryAlreadyStopped is returned when stopping a time entry
	// that already has an end time.
	ErrTimeEntryAlreadyStopped = errors.New("time entry is already stopped")
)

// TimeEntry records time a user spent on a task. A nil EndTime means the
// timer is still running; at most one entry per user may be running at any
// time, independent of which task it tracks.
type TimeEntry struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	TaskID    uuid.UUID  `json:"task_id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	// Duration is the elapsed time in seconds, computed when the timer stops.
	Duration int64  `json:"duration"`
	Note     string `json:"note,omitempty"`
}

// NewTimeEntry creates a running time entry starting now.
// Returns an error if validation fails.
func NewTimeEntry(userID, taskID uuid.UUID, note string) (*TimeEntry, error) {
	entry := &TimeEntry{
		ID:        uuid.New(),
		UserID:    userID,
		TaskID:    taskID,
		StartTime: time.Now().UTC(),
		Note:      note,
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	return entry, nil
}

// Validate checks if the TimeEntry has valid data.
func (e *TimeEntry) Validate() error {
	if e.ID == uuid.Nil {
		return ErrTimeEntryIDEmpty
	}
	if e.UserID == uuid.Nil {
		return ErrTimeEntryUserIDEmpty
	}
	if e.TaskID == uuid.Nil {
		return ErrTimeEntryTaskIDEmpty
	}
	return nil
}

// IsRunning reports whether the timer has not been stopped yet.
func (e *TimeEntry) IsRunning() bool {
	return e.EndTime == nil
}

// Stop ends the timer at the given instant and computes the duration.
// Returns ErrTimeEntryAlreadyStopped if the entry is not running.
func (e *TimeEntry) Stop(at time.Time) error {
	if !e.IsRunning() {
		return ErrTimeEntryAlreadyStopped
	}
	stopped := at.UTC()
	e.EndTime = &stopped
	e.Duration = int64(stopped.Sub(e.StartTime).Seconds())
	return nil
}
