package jobs

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the current state of a queued job
type JobStatus string

// Possible job status values
const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Job type constants
const (
	// JobTypeEmail represents a queued email delivery
	JobTypeEmail = "email"

	// JobTypeFile represents a queued file storage operation
	JobTypeFile = "file"
)

// Job represents a unit of background work to be processed
type Job interface {
	// ID returns the job's unique identifier
	ID() uuid.UUID

	// Type returns the job type identifier
	Type() string

	// Payload returns the job data as a byte slice
	Payload() []byte

	// Status returns the current job status
	Status() JobStatus

	// Execute runs the job logic
	Execute(ctx context.Context) error
}

// JobFactory rehydrates a concrete, executable Job from a persisted row.
// The runner uses it during recovery so jobs queued before a restart get
// their execution logic back.
type JobFactory interface {
	// FromRecord builds a Job from its persisted type and payload.
	// Returns an error for unknown job types or undecodable payloads.
	FromRecord(id uuid.UUID, jobType string, payload []byte) (Job, error)
}

// JobStore defines the interface for persisting jobs
type JobStore interface {
	// SaveJob persists a job to the database
	SaveJob(ctx context.Context, job Job) error

	// UpdateJobStatus updates the status of a job
	UpdateJobStatus(ctx context.Context, jobID uuid.UUID, status JobStatus, errorMsg string) error

	// GetPendingJobs retrieves all jobs with "pending" status
	GetPendingJobs(ctx context.Context) ([]JobRecord, error)

	// GetProcessingJobs retrieves jobs with "processing" status.
	// If olderThan is non-zero, only returns jobs that have been in this
	// state longer than the specified duration.
	GetProcessingJobs(ctx context.Context, olderThan time.Duration) ([]JobRecord, error)

	// WithTx returns a JobStore bound to the given transaction so a job row
	// can be enqueued atomically with the state change that requested it.
	WithTx(tx *sql.Tx) JobStore
}

// JobRecord is the persisted form of a job as loaded from the database.
// It carries no execution logic; a JobFactory turns it back into a Job.
type JobRecord struct {
	ID        uuid.UUID
	Type      string
	Payload   []byte
	Status    JobStatus
	ErrorMsg  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
