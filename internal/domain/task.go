package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

// Possible task status values. The string values are persisted and must
// match the existing store when interoperating with it.
const (
	TaskStatusOngoing     TaskStatus = "ongoing"
	TaskStatusUnderReview TaskStatus = "under review"
	TaskStatusRejected    TaskStatus = "rejected"
	TaskStatusClosed      TaskStatus = "closed"
	TaskStatusOverdue     TaskStatus = "overdue"
)

// IsValid reports whether the status is one of the defined task statuses.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusOngoing, TaskStatusUnderReview, TaskStatusRejected,
		TaskStatusClosed, TaskStatusOverdue:
		return true
	}
	return false
}

// IsCallerSettable reports whether the status may be requested through the
// lifecycle engine's ChangeStatus operation. "ongoing" is only ever the
// initial default and "overdue" is set exclusively by the overdue sweeper.
func (s TaskStatus) IsCallerSettable() bool {
	switch s {
	case TaskStatusUnderReview, TaskStatusRejected, TaskStatusClosed:
		return true
	}
	return false
}

// TaskPriority represents the urgency level of a task.
type TaskPriority string

// Possible task priority values.
const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMiddle TaskPriority = "middle"
	TaskPriorityHigh   TaskPriority = "high"
)

// IsValid reports whether the priority is one of the defined levels.
func (p TaskPriority) IsValid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMiddle, TaskPriorityHigh:
		return true
	}
	return false
}

// Task-specific validation errors.
var (
	// ErrTaskIDEmpty is returned when a task ID is empty or nil.
	ErrTaskIDEmpty = errors.New("task ID cannot be empty")

	// ErrTaskTitleEmpty is returned when a task's title is empty.
	ErrTaskTitleEmpty = errors.New("task title cannot be empty")

	// ErrTaskProjectIDEmpty is returned when a task's project ID is empty or nil.
	ErrTaskProjectIDEmpty = errors.New("task project ID cannot be empty")

	// ErrTaskSprintIDEmpty is returned when a task's sprint ID is empty or nil.
	ErrTaskSprintIDEmpty = errors.New("task sprint ID cannot be empty")

	// ErrTaskAssigneeEmpty is returned when a task's assignee is empty or nil.
	ErrTaskAssigneeEmpty = errors.New("task assignee cannot be empty")

	// ErrTaskAssignerEmpty is returned when a task's assigner is empty or nil.
	ErrTaskAssignerEmpty = errors.New("task assigner cannot be empty")

	// ErrTaskDeadlineZero is returned when a task has no deadline.
	ErrTaskDeadlineZero = errors.New("task deadline cannot be zero")

	// ErrDeadlineOutsideSprint is returned when a task's deadline does not
	// fall within its sprint's start/end window.
	ErrDeadlineOutsideSprint = errors.New("task deadline must fall within the sprint window")
)

// Task represents a unit of work assigned between two project members.
// AssignedBy and AssignedTo reference ProjectMember rows, not users
// directly, because assignment and permissions are project-scoped.
type Task struct {
	ID          uuid.UUID    `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Priority    TaskPriority `json:"priority"`
	Deadline    time.Time    `json:"deadline"`
	Status      TaskStatus   `json:"status"`
	AssignedBy  uuid.UUID    `json:"assigned_by"`
	AssignedTo  uuid.UUID    `json:"assigned_to"`
	ProjectID   uuid.UUID    `json:"project_id"`
	SprintID    uuid.UUID    `json:"sprint_id"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// NewTask creates a new Task in the initial "ongoing" status.
// It generates a new UUID and sets the creation/update timestamps.
// Returns an error if validation fails.
func NewTask(
	title, description string,
	priority TaskPriority,
	deadline time.Time,
	assignedBy, assignedTo, projectID, sprintID uuid.UUID,
) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Priority:    priority,
		Deadline:    deadline,
		Status:      TaskStatusOngoing,
		AssignedBy:  assignedBy,
		AssignedTo:  assignedTo,
		ProjectID:   projectID,
		SprintID:    sprintID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// An assignee is required at creation; AssignedTo only becomes nil
	// later, when the assigned member leaves the project.
	if assignedTo == uuid.Nil {
		return nil, ErrTaskAssigneeEmpty
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTaskIDEmpty
	}
	if t.Title == "" {
		return ErrTaskTitleEmpty
	}
	if !t.Priority.IsValid() {
		return ErrInvalidPriority
	}
	if !t.Status.IsValid() {
		return ErrInvalidStatus
	}
	if t.Deadline.IsZero() {
		return ErrTaskDeadlineZero
	}
	if t.AssignedBy == uuid.Nil {
		return ErrTaskAssignerEmpty
	}
	if t.ProjectID == uuid.Nil {
		return ErrTaskProjectIDEmpty
	}
	if t.SprintID == uuid.Nil {
		return ErrTaskSprintIDEmpty
	}
	return nil
}

// ValidateDeadlineWithin checks that the task's deadline falls inside the
// given sprint window (inclusive on both ends).
func (t *Task) ValidateDeadlineWithin(sprint *Sprint) error {
	if t.Deadline.Before(sprint.StartDate) || t.Deadline.After(sprint.EndDate) {
		return ErrDeadlineOutsideSprint
	}
	return nil
}

// IsOpen reports whether the task is in a state the overdue sweeper may
// transition to overdue: everything except closed and overdue itself.
func (t *Task) IsOpen() bool {
	return t.Status != TaskStatusClosed && t.Status != TaskStatusOverdue
}
