package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/service"
)

// StatsHandler handles statistics and productivity endpoints.
type StatsHandler struct {
	service *service.StatsService
	logger  *slog.Logger
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(statsService *service.StatsService, logger *slog.Logger) *StatsHandler {
	if logger == nil {
		panic("logger cannot be nil for StatsHandler") // ALLOW-PANIC
	}
	return &StatsHandler{
		service: statsService,
		logger:  logger.With(slog.String("component", "stats_handler")),
	}
}

// StatusOverview handles GET /projects/{projectID}/stats/status. An
// optional sprint_id query parameter narrows the counts to one sprint.
func (h *StatsHandler) StatusOverview(w http.ResponseWriter, r *http.Request) {
	projectID, err := getPathUUID(r, "projectID")
	if err != nil {
		HandleAPIError(w, r, err, "Invalid project ID")
		return
	}

	sprintID, ok := getOptionalQueryUUID(w, r, "sprint_id")
	if !ok {
		return
	}

	overview, err := h.service.StatusOverview(r.Context(), projectID, sprintID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, overview)
}

// TeamWorkload handles GET /projects/{projectID}/stats/workload.
func (h *StatsHandler) TeamWorkload(w http.ResponseWriter, r *http.Request) {
	projectID, err := getPathUUID(r, "projectID")
	if err != nil {
		HandleAPIError(w, r, err, "Invalid project ID")
		return
	}

	sprintID, ok := getOptionalQueryUUID(w, r, "sprint_id")
	if !ok {
		return
	}

	workload, err := h.service.TeamWorkload(r.Context(), projectID, sprintID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, workload)
}

// SprintProgress handles GET /sprints/{id}/progress.
func (h *StatsHandler) SprintProgress(w http.ResponseWriter, r *http.Request) {
	sprintID, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "Invalid sprint ID")
		return
	}

	progress, err := h.service.SprintProgress(r.Context(), sprintID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, progress)
}

// PriorityBreakdown handles GET /projects/{projectID}/stats/priorities.
func (h *StatsHandler) PriorityBreakdown(w http.ResponseWriter, r *http.Request) {
	projectID, err := getPathUUID(r, "projectID")
	if err != nil {
		HandleAPIError(w, r, err, "Invalid project ID")
		return
	}

	sprintID, ok := getOptionalQueryUUID(w, r, "sprint_id")
	if !ok {
		return
	}

	breakdown, err := h.service.PriorityBreakdown(r.Context(), projectID, sprintID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, breakdown)
}

// RecentActivity handles GET /projects/{projectID}/stats/activity.
func (h *StatsHandler) RecentActivity(w http.ResponseWriter, r *http.Request) {
	projectID, err := getPathUUID(r, "projectID")
	if err != nil {
		HandleAPIError(w, r, err, "Invalid project ID")
		return
	}

	activity, err := h.service.RecentActivity(r.Context(), projectID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, activity)
}

// MemberProductivity handles GET /members/{id}/productivity. A member with
// no tasks has no score; that case maps to 404 rather than a zero report.
func (h *StatsHandler) MemberProductivity(w http.ResponseWriter, r *http.Request) {
	memberID, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "Invalid member ID")
		return
	}

	report, err := h.service.MemberProductivity(r.Context(), memberID)
	if err != nil {
		if errors.Is(err, service.ErrNoProductivityData) {
			shared.RespondWithError(w, r, http.StatusNotFound,
				"Member has no tasks to score")
			return
		}
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, report)
}
