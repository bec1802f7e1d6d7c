package api

import (
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/service"
)

// TaskHandler handles task lifecycle endpoints.
type TaskHandler struct {
	service *service.TaskService
	logger  *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *service.TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		panic("logger cannot be nil for TaskHandler") // ALLOW-PANIC
	}
	return &TaskHandler{
		service: taskService,
		logger:  logger.With(slog.String("component", "task_handler")),
	}
}

// CreateTask handles POST /tasks.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req CreateTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	attachments, ok := decodeAttachments(w, r, req.Attachments)
	if !ok {
		return
	}

	task, err := h.service.CreateTask(r.Context(), service.CreateTaskInput{
		ProjectID:   req.ProjectID,
		SprintID:    req.SprintID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    domain.TaskPriority(req.Priority),
		Deadline:    req.Deadline,
		AssignedBy:  req.AssignedBy,
		AssignedTo:  req.AssignedTo,
		Attachments: attachments,
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("project_id", task.ProjectID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, task)
}

// GetTask handles GET /tasks/{id}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "Invalid task ID")
		return
	}

	task, err := h.service.GetTask(r.Context(), taskID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// ListTasks handles GET /projects/{projectID}/tasks. An optional sprint_id
// query parameter narrows the listing to one sprint.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	projectID, err := getPathUUID(r, "projectID")
	if err != nil {
		HandleAPIError(w, r, err, "Invalid project ID")
		return
	}

	sprintID, ok := getOptionalQueryUUID(w, r, "sprint_id")
	if !ok {
		return
	}

	tasks, err := h.service.ListTasks(r.Context(), projectID, sprintID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, tasks)
}

// UpdateTask handles PUT /tasks/{id}.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	taskID, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "Invalid task ID")
		return
	}

	var req UpdateTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	attach, ok := decodeAttachments(w, r, req.Attach)
	if !ok {
		return
	}

	input := service.UpdateTaskInput{
		TaskID:      taskID,
		ActorID:     req.ActorID,
		ActorName:   req.ActorName,
		Title:       req.Title,
		Description: req.Description,
		Deadline:    req.Deadline,
		AssignedTo:  req.AssignedTo,
		Attach:      attach,
		DetachIDs:   req.DetachIDs,
	}
	if req.Priority != nil {
		priority := domain.TaskPriority(*req.Priority)
		input.Priority = &priority
	}

	task, err := h.service.UpdateTask(r.Context(), input)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Info("task updated", slog.String("task_id", task.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// ChangeStatus handles POST /tasks/{id}/status.
func (h *TaskHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	taskID, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "Invalid task ID")
		return
	}

	var req ChangeStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.service.ChangeStatus(
		r.Context(), taskID, domain.TaskStatus(req.Status), req.Comment, req.ActorID, req.ActorName)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Info("task status changed",
		slog.String("task_id", task.ID.String()),
		slog.String("status", string(task.Status)))
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// DeleteTask handles DELETE /tasks/{id}.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	taskID, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "Invalid task ID")
		return
	}

	var req DeleteTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.service.DeleteTask(r.Context(), taskID, req.ActorID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Info("task deleted", slog.String("task_id", taskID.String()))
	w.WriteHeader(http.StatusNoContent)
}

// GetHistory handles GET /tasks/{id}/history.
func (h *TaskHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	taskID, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "Invalid task ID")
		return
	}

	history, err := h.service.GetHistory(r.Context(), taskID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, history)
}

// ListFiles handles GET /tasks/{id}/files.
func (h *TaskHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	taskID, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "Invalid task ID")
		return
	}

	files, err := h.service.ListFiles(r.Context(), taskID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, files)
}

// decodeAttachments decodes the base64 content of each attachment. It
// writes the error response itself and reports whether the caller may
// proceed.
func decodeAttachments(
	w http.ResponseWriter,
	r *http.Request,
	requests []AttachmentRequest,
) ([]service.FileUpload, bool) {
	uploads := make([]service.FileUpload, 0, len(requests))
	for _, req := range requests {
		content, err := base64.StdEncoding.DecodeString(req.ContentBase64)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest,
				"Attachment content is not valid base64")
			return nil, false
		}
		uploads = append(uploads, service.FileUpload{
			FileName:    req.FileName,
			ContentType: req.ContentType,
			Content:     content,
		})
	}
	return uploads, true
}

// getOptionalQueryUUID parses an optional UUID query parameter. It writes
// the error response itself and reports whether the caller may proceed.
func getOptionalQueryUUID(
	w http.ResponseWriter,
	r *http.Request,
	name string,
) (*uuid.UUID, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid "+name+" parameter")
		return nil, false
	}
	return &id, true
}
