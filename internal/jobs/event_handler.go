package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskboard-api/internal/events"
)

// QueueEventHandler implements the events.EventHandler interface to turn
// post-commit side-effect events into persisted jobs on the runner's queue.
type QueueEventHandler struct {
	factory *Factory
	runner  *Runner
	logger  *slog.Logger
}

// NewQueueEventHandler creates an event handler that builds jobs with the
// given factory and submits them to the provided runner.
func NewQueueEventHandler(factory *Factory, runner *Runner, logger *slog.Logger) *QueueEventHandler {
	return &QueueEventHandler{
		factory: factory,
		runner:  runner,
		logger:  logger.With("component", "queue_event_handler"),
	}
}

// Ensure QueueEventHandler implements events.EventHandler
var _ events.EventHandler = (*QueueEventHandler)(nil)

// EmailRequest is the payload shape of an email.send event.
type EmailRequest struct {
	To     string            `json:"to"`
	Kind   string            `json:"kind"`
	Params map[string]string `json:"params"`
}

// FileRequest is the payload shape of a file.action event. Content is
// base64-encoded for upload and edit actions.
type FileRequest struct {
	Key         string `json:"key"`
	ContentType string `json:"content_type,omitempty"`
	Action      string `json:"action"`
	FileBase64  string `json:"file_base64,omitempty"`
}

// HandleEvent processes email.send and file.action events by creating and
// submitting the matching job. Other event types are ignored.
func (h *QueueEventHandler) HandleEvent(ctx context.Context, event *events.SideEffectEvent) error {
	switch event.Type {
	case events.TypeEmailSend:
		return h.handleEmail(ctx, event)
	case events.TypeFileAction:
		return h.handleFile(ctx, event)
	default:
		h.logger.Debug("ignoring event with unsupported type",
			"event_type", event.Type,
			"event_id", event.ID)
		return nil
	}
}

func (h *QueueEventHandler) handleEmail(ctx context.Context, event *events.SideEffectEvent) error {
	var req EmailRequest
	if err := event.UnmarshalPayload(&req); err != nil {
		h.logger.Error("failed to unmarshal email payload", "error", err, "event_id", event.ID)
		return fmt.Errorf("failed to unmarshal email payload: %w", err)
	}

	job, err := h.factory.NewEmail(req.To, req.Kind, req.Params)
	if err != nil {
		h.logger.Error("failed to create email job",
			"error", err,
			"kind", req.Kind,
			"event_id", event.ID)
		return fmt.Errorf("failed to create email job: %w", err)
	}

	if err := h.runner.Submit(ctx, job); err != nil {
		h.logger.Error("failed to submit email job",
			"error", err,
			"job_id", job.ID(),
			"event_id", event.ID)
		return fmt.Errorf("failed to submit email job: %w", err)
	}

	h.logger.Info("email job queued",
		"job_id", job.ID(),
		"kind", req.Kind,
		"event_id", event.ID)
	return nil
}

func (h *QueueEventHandler) handleFile(ctx context.Context, event *events.SideEffectEvent) error {
	var req FileRequest
	if err := event.UnmarshalPayload(&req); err != nil {
		h.logger.Error("failed to unmarshal file payload", "error", err, "event_id", event.ID)
		return fmt.Errorf("failed to unmarshal file payload: %w", err)
	}

	var job Job
	var err error
	switch req.Action {
	case FileActionRemove:
		job, err = h.factory.NewFileRemove(req.Key)
	case FileActionUpload, FileActionEdit:
		job, err = newFileJob(h.factory.storage, filePayload{
			Key:         req.Key,
			ContentType: req.ContentType,
			Action:      req.Action,
			FileBase64:  req.FileBase64,
		})
	default:
		err = fmt.Errorf("unknown file action %q", req.Action)
	}
	if err != nil {
		h.logger.Error("failed to create file job",
			"error", err,
			"action", req.Action,
			"key", req.Key,
			"event_id", event.ID)
		return fmt.Errorf("failed to create file job: %w", err)
	}

	if err := h.runner.Submit(ctx, job); err != nil {
		h.logger.Error("failed to submit file job",
			"error", err,
			"job_id", job.ID(),
			"event_id", event.ID)
		return fmt.Errorf("failed to submit file job: %w", err)
	}

	h.logger.Info("file job queued",
		"job_id", job.ID(),
		"action", req.Action,
		"key", req.Key,
		"event_id", event.ID)
	return nil
}
