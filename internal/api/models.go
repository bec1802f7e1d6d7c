package api

import (
	"time"

	"github.com/google/uuid"
)

// AttachmentRequest carries one base64-encoded file attached to a task
// create or update request.
type AttachmentRequest struct {
	FileName      string `json:"file_name" validate:"required,max=255"`
	ContentType   string `json:"content_type" validate:"omitempty,max=255"`
	ContentBase64 string `json:"content_base64" validate:"required"`
}

// CreateTaskRequest is the request model for task creation. AssignedBy and
// AssignedTo are project member IDs.
type CreateTaskRequest struct {
	ProjectID   uuid.UUID           `json:"project_id" validate:"required"`
	SprintID    uuid.UUID           `json:"sprint_id" validate:"required"`
	Title       string              `json:"title" validate:"required,max=200"`
	Description string              `json:"description" validate:"max=2000"`
	Priority    string              `json:"priority" validate:"required,oneof=low middle high"`
	Deadline    time.Time           `json:"deadline" validate:"required"`
	AssignedBy  uuid.UUID           `json:"assigned_by" validate:"required"`
	AssignedTo  uuid.UUID           `json:"assigned_to" validate:"required"`
	Attachments []AttachmentRequest `json:"attachments" validate:"omitempty,dive"`
}

// UpdateTaskRequest is the request model for a partial task update. Absent
// fields are left unchanged. ActorID is the acting member.
type UpdateTaskRequest struct {
	ActorID     uuid.UUID           `json:"actor_id" validate:"required"`
	ActorName   string              `json:"actor_name" validate:"required,max=100"`
	Title       *string             `json:"title" validate:"omitempty,max=200"`
	Description *string             `json:"description" validate:"omitempty,max=2000"`
	Priority    *string             `json:"priority" validate:"omitempty,oneof=low middle high"`
	Deadline    *time.Time          `json:"deadline"`
	AssignedTo  *uuid.UUID          `json:"assigned_to"`
	Attach      []AttachmentRequest `json:"attach" validate:"omitempty,dive"`
	DetachIDs   []uuid.UUID         `json:"detach_ids"`
}

// ChangeStatusRequest is the request model for moving a task to one of the
// caller-settable statuses. ActorID is the acting member.
type ChangeStatusRequest struct {
	Status    string    `json:"status" validate:"required,oneof='under review' rejected closed"`
	Comment   string    `json:"comment" validate:"max=1000"`
	ActorID   uuid.UUID `json:"actor_id" validate:"required"`
	ActorName string    `json:"actor_name" validate:"required,max=100"`
}

// DeleteTaskRequest identifies the acting member for a task deletion. Only
// the task's assigner may delete it.
type DeleteTaskRequest struct {
	ActorID uuid.UUID `json:"actor_id" validate:"required"`
}

// CreateSprintRequest is the request model for sprint creation. CreatedBy
// is the acting member.
type CreateSprintRequest struct {
	ProjectID   uuid.UUID `json:"project_id" validate:"required"`
	CreatedBy   uuid.UUID `json:"created_by" validate:"required"`
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=2000"`
	StartDate   time.Time `json:"start_date" validate:"required"`
	EndDate     time.Time `json:"end_date" validate:"required"`
}

// UpdateSprintRequest is the request model for a partial sprint update.
type UpdateSprintRequest struct {
	ActorID     uuid.UUID  `json:"actor_id" validate:"required"`
	Title       *string    `json:"title" validate:"omitempty,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	Status      *string    `json:"status" validate:"omitempty,oneof=planned active completed overdue"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

// DeleteSprintRequest identifies the acting member for a sprint deletion.
type DeleteSprintRequest struct {
	ActorID uuid.UUID `json:"actor_id" validate:"required"`
}

// StartTimerRequest is the request model for starting a time entry.
type StartTimerRequest struct {
	TaskID uuid.UUID `json:"task_id" validate:"required"`
	Note   string    `json:"note" validate:"max=500"`
}

// SweptResponse reports how many tasks an on-demand overdue sweep marked.
type SweptResponse struct {
	Swept int `json:"swept"`
}

// TotalTimeResponse reports a user's accumulated tracked seconds.
type TotalTimeResponse struct {
	UserID       uuid.UUID `json:"user_id"`
	TotalSeconds int64     `json:"total_seconds"`
}
