package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
)

// OverdueSweeper runs one overdue sweep and reports how many tasks it
// transitioned.
type OverdueSweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// SweepHandler exposes the overdue sweep on demand, in addition to its
// scheduled runs. Useful for operators after a schedule change or an
// incident backlog.
type SweepHandler struct {
	sweeper OverdueSweeper
	logger  *slog.Logger
}

// NewSweepHandler creates a new SweepHandler.
func NewSweepHandler(sweeper OverdueSweeper, logger *slog.Logger) *SweepHandler {
	if logger == nil {
		panic("logger cannot be nil for SweepHandler") // ALLOW-PANIC
	}
	return &SweepHandler{
		sweeper: sweeper,
		logger:  logger.With(slog.String("component", "sweep_handler")),
	}
}

// RunSweep handles POST /tasks/sweep.
func (h *SweepHandler) RunSweep(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	swept, err := h.sweeper.Sweep(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to run overdue sweep")
		return
	}

	log.Info("on-demand sweep completed", slog.Int("swept_count", swept))
	shared.RespondWithJSON(w, r, http.StatusOK, SweptResponse{Swept: swept})
}
