package jobs

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// File actions accepted by the file queue contract.
const (
	FileActionUpload = "upload"
	FileActionEdit   = "edit"
	FileActionRemove = "remove"
)

// ObjectStorage stores and removes task attachments under opaque keys.
// Implementations wrap S3-compatible or local blob storage.
type ObjectStorage interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Remove(ctx context.Context, key string) error
}

// filePayload is the persisted form of a file job. Content travels
// base64-encoded; remove actions carry only the key.
type filePayload struct {
	Key         string `json:"key"`
	ContentType string `json:"content_type,omitempty"`
	Action      string `json:"action"`
	FileBase64  string `json:"file_base64,omitempty"`
}

// FileJob performs one storage operation through an ObjectStorage.
type FileJob struct {
	id      uuid.UUID
	payload filePayload
	raw     []byte
	status  JobStatus
	storage ObjectStorage
}

// NewFileUploadJob creates a pending job that stores content under key.
func NewFileUploadJob(storage ObjectStorage, key, contentType string, content []byte) (*FileJob, error) {
	return newFileJob(storage, filePayload{
		Key:         key,
		ContentType: contentType,
		Action:      FileActionUpload,
		FileBase64:  base64.StdEncoding.EncodeToString(content),
	})
}

// NewFileEditJob creates a pending job that replaces the content under key.
func NewFileEditJob(storage ObjectStorage, key, contentType string, content []byte) (*FileJob, error) {
	return newFileJob(storage, filePayload{
		Key:         key,
		ContentType: contentType,
		Action:      FileActionEdit,
		FileBase64:  base64.StdEncoding.EncodeToString(content),
	})
}

// NewFileRemoveJob creates a pending job that removes the object under key.
func NewFileRemoveJob(storage ObjectStorage, key string) (*FileJob, error) {
	return newFileJob(storage, filePayload{
		Key:    key,
		Action: FileActionRemove,
	})
}

func newFileJob(storage ObjectStorage, payload filePayload) (*FileJob, error) {
	if storage == nil {
		return nil, fmt.Errorf("object storage cannot be nil")
	}
	if payload.Key == "" {
		return nil, fmt.Errorf("object key cannot be empty")
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal file payload: %w", err)
	}

	return &FileJob{
		id:      uuid.New(),
		payload: payload,
		raw:     raw,
		status:  JobStatusPending,
		storage: storage,
	}, nil
}

// newFileJobFromRecord rehydrates a file job from its persisted payload.
func newFileJobFromRecord(storage ObjectStorage, id uuid.UUID, raw []byte) (*FileJob, error) {
	var payload filePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal file payload: %w", err)
	}

	return &FileJob{
		id:      id,
		payload: payload,
		raw:     raw,
		status:  JobStatusPending,
		storage: storage,
	}, nil
}

// ID implements Job.ID
func (j *FileJob) ID() uuid.UUID {
	return j.id
}

// Type implements Job.Type
func (j *FileJob) Type() string {
	return JobTypeFile
}

// Payload implements Job.Payload
func (j *FileJob) Payload() []byte {
	return j.raw
}

// Status implements Job.Status
func (j *FileJob) Status() JobStatus {
	return j.status
}

// Execute implements Job.Execute
func (j *FileJob) Execute(ctx context.Context) error {
	if j.storage == nil {
		return fmt.Errorf("file job has no storage configured")
	}

	switch j.payload.Action {
	case FileActionUpload, FileActionEdit:
		content, err := base64.StdEncoding.DecodeString(j.payload.FileBase64)
		if err != nil {
			return fmt.Errorf("failed to decode file content: %w", err)
		}
		if err := j.storage.Put(ctx, j.payload.Key, j.payload.ContentType, content); err != nil {
			return fmt.Errorf("failed to store object %q: %w", j.payload.Key, err)
		}
		return nil

	case FileActionRemove:
		if err := j.storage.Remove(ctx, j.payload.Key); err != nil {
			return fmt.Errorf("failed to remove object %q: %w", j.payload.Key, err)
		}
		return nil

	default:
		return fmt.Errorf("unknown file action %q", j.payload.Action)
	}
}
