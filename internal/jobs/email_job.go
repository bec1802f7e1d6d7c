package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Email template kinds. The consumer resolves each kind to a template; the
// params carry the values the template interpolates.
const (
	EmailKindTaskAssigned    = "task_assigned"
	EmailKindTaskUnassigned  = "task_unassigned"
	EmailKindTaskUnderReview = "task_under_review"
	EmailKindTaskRejected    = "task_rejected"
	EmailKindTaskClosed      = "task_closed"
	EmailKindTaskOverdue     = "task_overdue"
)

// EmailMessage is the wire contract handed to the email consumer:
// a template-kind discriminator plus template parameters.
type EmailMessage struct {
	Type   string            `json:"type"`
	Params map[string]string `json:"params"`
}

// EmailSender delivers a composed email message to a recipient address.
// Implementations wrap SMTP or an external mail provider.
type EmailSender interface {
	Send(ctx context.Context, to string, msg EmailMessage) error
}

// emailPayload is the persisted form of an email job.
type emailPayload struct {
	To      string       `json:"to"`
	Message EmailMessage `json:"message"`
}

// EmailJob delivers one templated email through an EmailSender.
type EmailJob struct {
	id      uuid.UUID
	payload emailPayload
	raw     []byte
	status  JobStatus
	sender  EmailSender
}

// NewEmailJob creates a pending email job for the given recipient, template
// kind and parameters.
func NewEmailJob(sender EmailSender, to, kind string, params map[string]string) (*EmailJob, error) {
	if sender == nil {
		return nil, fmt.Errorf("email sender cannot be nil")
	}
	if to == "" {
		return nil, fmt.Errorf("email recipient cannot be empty")
	}

	payload := emailPayload{
		To:      to,
		Message: EmailMessage{Type: kind, Params: params},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal email payload: %w", err)
	}

	return &EmailJob{
		id:      uuid.New(),
		payload: payload,
		raw:     raw,
		status:  JobStatusPending,
		sender:  sender,
	}, nil
}

// newEmailJobFromRecord rehydrates an email job from its persisted payload.
func newEmailJobFromRecord(sender EmailSender, id uuid.UUID, raw []byte) (*EmailJob, error) {
	var payload emailPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal email payload: %w", err)
	}

	return &EmailJob{
		id:      id,
		payload: payload,
		raw:     raw,
		status:  JobStatusPending,
		sender:  sender,
	}, nil
}

// ID implements Job.ID
func (j *EmailJob) ID() uuid.UUID {
	return j.id
}

// Type implements Job.Type
func (j *EmailJob) Type() string {
	return JobTypeEmail
}

// Payload implements Job.Payload
func (j *EmailJob) Payload() []byte {
	return j.raw
}

// Status implements Job.Status
func (j *EmailJob) Status() JobStatus {
	return j.status
}

// Execute implements Job.Execute
func (j *EmailJob) Execute(ctx context.Context) error {
	if j.sender == nil {
		return fmt.Errorf("email job has no sender configured")
	}
	if err := j.sender.Send(ctx, j.payload.To, j.payload.Message); err != nil {
		return fmt.Errorf("failed to send %q email: %w", j.payload.Message.Type, err)
	}
	return nil
}
