package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/service"
)

// SprintHandler handles sprint lifecycle endpoints.
type SprintHandler struct {
	service *service.SprintService
	logger  *slog.Logger
}

// NewSprintHandler creates a new SprintHandler.
func NewSprintHandler(sprintService *service.SprintService, logger *slog.Logger) *SprintHandler {
	if logger == nil {
		panic("logger cannot be nil for SprintHandler") // ALLOW-PANIC
	}
	return &SprintHandler{
		service: sprintService,
		logger:  logger.With(slog.String("component", "sprint_handler")),
	}
}

// CreateSprint handles POST /sprints.
func (h *SprintHandler) CreateSprint(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req CreateSprintRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	sprint, err := h.service.CreateSprint(r.Context(), service.CreateSprintInput{
		ProjectID:   req.ProjectID,
		CreatedBy:   req.CreatedBy,
		Title:       req.Title,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Info("sprint created",
		slog.String("sprint_id", sprint.ID.String()),
		slog.String("project_id", sprint.ProjectID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, sprint)
}

// GetSprint handles GET /sprints/{id}.
func (h *SprintHandler) GetSprint(w http.ResponseWriter, r *http.Request) {
	sprintID, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "Invalid sprint ID")
		return
	}

	sprint, err := h.service.GetSprint(r.Context(), sprintID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, sprint)
}

// ListSprints handles GET /projects/{projectID}/sprints.
func (h *SprintHandler) ListSprints(w http.ResponseWriter, r *http.Request) {
	projectID, err := getPathUUID(r, "projectID")
	if err != nil {
		HandleAPIError(w, r, err, "Invalid project ID")
		return
	}

	sprints, err := h.service.ListSprints(r.Context(), projectID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, sprints)
}

// DefaultSprint handles GET /projects/{projectID}/sprints/default. It
// returns the active sprint when one exists, otherwise the most recently
// ending sprint, otherwise 404.
func (h *SprintHandler) DefaultSprint(w http.ResponseWriter, r *http.Request) {
	projectID, err := getPathUUID(r, "projectID")
	if err != nil {
		HandleAPIError(w, r, err, "Invalid project ID")
		return
	}

	sprint, err := h.service.DefaultSprint(r.Context(), projectID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if sprint == nil {
		shared.RespondWithError(w, r, http.StatusNotFound, "Project has no sprints")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, sprint)
}

// UpdateSprint handles PUT /sprints/{id}.
func (h *SprintHandler) UpdateSprint(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	sprintID, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "Invalid sprint ID")
		return
	}

	var req UpdateSprintRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	input := service.UpdateSprintInput{
		SprintID:    sprintID,
		ActorID:     req.ActorID,
		Title:       req.Title,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}
	if req.Status != nil {
		status := domain.SprintStatus(*req.Status)
		input.Status = &status
	}

	sprint, err := h.service.UpdateSprint(r.Context(), input)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Info("sprint updated",
		slog.String("sprint_id", sprint.ID.String()),
		slog.String("status", string(sprint.Status)))
	shared.RespondWithJSON(w, r, http.StatusOK, sprint)
}

// DeleteSprint handles DELETE /sprints/{id}.
func (h *SprintHandler) DeleteSprint(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	sprintID, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "Invalid sprint ID")
		return
	}

	var req DeleteSprintRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.service.DeleteSprint(r.Context(), sprintID, req.ActorID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Info("sprint deleted", slog.String("sprint_id", sprintID.String()))
	w.WriteHeader(http.StatusNoContent)
}
