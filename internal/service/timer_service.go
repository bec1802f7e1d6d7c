package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// TimerService tracks time spent on tasks. The single-running-timer
// invariant is backed by a partial unique index, so concurrent starts
// cannot slip past the check.
type TimerService struct {
	entries store.TimeEntryStore
	tasks   store.TaskStore
	logger  *slog.Logger
}

// NewTimerService creates a new TimerService.
// It returns an error if any of the required dependencies are nil.
func NewTimerService(
	entries store.TimeEntryStore,
	tasks store.TaskStore,
	logger *slog.Logger,
) (*TimerService, error) {
	if entries == nil {
		return nil, domain.NewValidationError("entries", "cannot be nil", domain.ErrValidation)
	}
	if tasks == nil {
		return nil, domain.NewValidationError("tasks", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &TimerService{
		entries: entries,
		tasks:   tasks,
		logger:  logger.With(slog.String("component", "timer_service")),
	}, nil
}

// Start begins a running time entry for the user on the given task.
// Returns store.ErrRunningTimerExists if the user already has one.
func (s *TimerService) Start(
	ctx context.Context,
	userID, taskID uuid.UUID,
	note string,
) (*domain.TimeEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.tasks.GetByID(ctx, taskID); err != nil {
		return nil, err
	}

	entry, err := domain.NewTimeEntry(userID, taskID, note)
	if err != nil {
		return nil, err
	}

	if err := s.entries.Create(ctx, entry); err != nil {
		return nil, err
	}

	log.Info("timer started",
		slog.String("time_entry_id", entry.ID.String()),
		slog.String("user_id", userID.String()),
		slog.String("task_id", taskID.String()))
	return entry, nil
}

// Stop ends the user's running timer and computes its duration.
// Returns ErrNoRunningTimer if the user has no running entry.
func (s *TimerService) Stop(ctx context.Context, userID uuid.UUID) (*domain.TimeEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	entry, err := s.entries.GetRunning(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrTimeEntryNotFound) {
			return nil, ErrNoRunningTimer
		}
		return nil, err
	}

	if err := entry.Stop(time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to stop timer: %w", err)
	}

	if err := s.entries.Update(ctx, entry); err != nil {
		return nil, err
	}

	log.Info("timer stopped",
		slog.String("time_entry_id", entry.ID.String()),
		slog.String("user_id", userID.String()),
		slog.Int64("duration_seconds", entry.Duration))
	return entry, nil
}

// Running retrieves the user's running time entry, if any.
// Returns ErrNoRunningTimer when nothing is running.
func (s *TimerService) Running(ctx context.Context, userID uuid.UUID) (*domain.TimeEntry, error) {
	entry, err := s.entries.GetRunning(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrTimeEntryNotFound) {
			return nil, ErrNoRunningTimer
		}
		return nil, err
	}
	return entry, nil
}

// ListByTask retrieves the time entries recorded against a task.
func (s *TimerService) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.TimeEntry, error) {
	return s.entries.ListByTask(ctx, taskID)
}

// TotalForUser sums the completed durations of a user across all tasks.
func (s *TimerService) TotalForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.entries.SumDurationByUser(ctx, userID)
}
