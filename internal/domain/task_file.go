package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TaskFile-specific validation errors.
var (
	// ErrTaskFileIDEmpty is returned when a file ID is empty or nil.
	ErrTaskFileIDEmpty = errors.New("task file ID cannot be empty")

	// ErrTaskFileTaskIDEmpty is returned when a file's task ID is empty or nil.
	ErrTaskFileTaskIDEmpty = errors.New("task file task ID cannot be empty")

	// ErrTaskFileKeyEmpty is returned when a file's object key is empty.
	ErrTaskFileKeyEmpty = errors.New("task file object key cannot be empty")
)

// TaskFile is the metadata row for a file attached to a task. The bytes
// live in external object storage under ObjectKey; only the metadata
// participates in task transactions. Upload and removal of the bytes are
// queued to the storage worker after commit.
type TaskFile struct {
	ID          uuid.UUID `json:"id"`
	TaskID      uuid.UUID `json:"task_id"`
	ObjectKey   string    `json:"object_key"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewTaskFile creates file metadata with a generated object key derived
// from the task and file IDs.
func NewTaskFile(taskID uuid.UUID, fileName, contentType string) (*TaskFile, error) {
	id := uuid.New()
	f := &TaskFile{
		ID:          id,
		TaskID:      taskID,
		ObjectKey:   "tasks/" + taskID.String() + "/" + id.String(),
		FileName:    fileName,
		ContentType: contentType,
		CreatedAt:   time.Now().UTC(),
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}

	return f, nil
}

// Validate checks if the TaskFile has valid data.
func (f *TaskFile) Validate() error {
	if f.ID == uuid.Nil {
		return ErrTaskFileIDEmpty
	}
	if f.TaskID == uuid.Nil {
		return ErrTaskFileTaskIDEmpty
	}
	if f.ObjectKey == "" {
		return ErrTaskFileKeyEmpty
	}
	return nil
}
