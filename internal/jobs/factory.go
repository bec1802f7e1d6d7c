package jobs

import (
	"fmt"

	"github.com/google/uuid"
)

// Factory builds executable jobs, wiring in the collaborators their
// Execute methods need. It also rehydrates persisted jobs for the runner's
// recovery pass.
type Factory struct {
	sender  EmailSender
	storage ObjectStorage
}

// NewFactory creates a Factory backed by the given collaborators.
func NewFactory(sender EmailSender, storage ObjectStorage) *Factory {
	if sender == nil {
		panic("email sender cannot be nil")
	}
	if storage == nil {
		panic("object storage cannot be nil")
	}

	return &Factory{
		sender:  sender,
		storage: storage,
	}
}

// Ensure Factory implements JobFactory
var _ JobFactory = (*Factory)(nil)

// NewEmail creates a pending email job.
func (f *Factory) NewEmail(to, kind string, params map[string]string) (Job, error) {
	return NewEmailJob(f.sender, to, kind, params)
}

// NewFileUpload creates a pending upload job.
func (f *Factory) NewFileUpload(key, contentType string, content []byte) (Job, error) {
	return NewFileUploadJob(f.storage, key, contentType, content)
}

// NewFileEdit creates a pending content replacement job.
func (f *Factory) NewFileEdit(key, contentType string, content []byte) (Job, error) {
	return NewFileEditJob(f.storage, key, contentType, content)
}

// NewFileRemove creates a pending removal job.
func (f *Factory) NewFileRemove(key string) (Job, error) {
	return NewFileRemoveJob(f.storage, key)
}

// FromRecord implements JobFactory.FromRecord
func (f *Factory) FromRecord(id uuid.UUID, jobType string, payload []byte) (Job, error) {
	switch jobType {
	case JobTypeEmail:
		return newEmailJobFromRecord(f.sender, id, payload)
	case JobTypeFile:
		return newFileJobFromRecord(f.storage, id, payload)
	default:
		return nil, fmt.Errorf("unknown job type %q", jobType)
	}
}
