package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/service"
)

// TimerHandler handles time tracking endpoints. Timers are scoped to the
// authenticated user; a user runs at most one at a time.
type TimerHandler struct {
	service *service.TimerService
	logger  *slog.Logger
}

// NewTimerHandler creates a new TimerHandler.
func NewTimerHandler(timerService *service.TimerService, logger *slog.Logger) *TimerHandler {
	if logger == nil {
		panic("logger cannot be nil for TimerHandler") // ALLOW-PANIC
	}
	return &TimerHandler{
		service: timerService,
		logger:  logger.With(slog.String("component", "timer_handler")),
	}
}

// StartTimer handles POST /timers/start.
func (h *TimerHandler) StartTimer(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req StartTimerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	entry, err := h.service.Start(r.Context(), userID, req.TaskID, req.Note)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Info("timer started",
		slog.String("user_id", userID.String()),
		slog.String("task_id", req.TaskID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, entry)
}

// StopTimer handles POST /timers/stop.
func (h *TimerHandler) StopTimer(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	entry, err := h.service.Stop(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Info("timer stopped",
		slog.String("user_id", userID.String()),
		slog.Int64("duration_seconds", entry.Duration))
	shared.RespondWithJSON(w, r, http.StatusOK, entry)
}

// RunningTimer handles GET /timers/running. Returns the user's running
// entry, or null when nothing is running.
func (h *TimerHandler) RunningTimer(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	entry, err := h.service.Running(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrNoRunningTimer) {
			shared.RespondWithJSON(w, r, http.StatusOK, nil)
			return
		}
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, entry)
}

// ListTaskEntries handles GET /tasks/{id}/time-entries.
func (h *TimerHandler) ListTaskEntries(w http.ResponseWriter, r *http.Request) {
	taskID, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "Invalid task ID")
		return
	}

	entries, err := h.service.ListByTask(r.Context(), taskID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, entries)
}

// TotalTime handles GET /timers/total.
func (h *TimerHandler) TotalTime(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	total, err := h.service.TotalForUser(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TotalTimeResponse{
		UserID:       userID,
		TotalSeconds: total,
	})
}
