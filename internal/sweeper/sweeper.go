// Package sweeper implements the scheduled overdue sweep: the only path
// that moves tasks into the "overdue" status.
package sweeper

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// Sweeper marks tasks overdue once their deadline has passed. It runs on a
// timezone-pinned daily schedule plus once eagerly at start. Each sweep is
// one transaction: every affected task gets its status update and ledger
// entry, or none do.
type Sweeper struct {
	txRunner store.TxRunner
	tasks    store.TaskStore
	history  store.HistoryStore
	schedule string
	location *time.Location
	cron     *cron.Cron
	logger   *slog.Logger
}

// New creates a Sweeper with the given cron schedule expression and
// timezone location.
func New(
	txRunner store.TxRunner,
	tasks store.TaskStore,
	history store.HistoryStore,
	schedule string,
	location *time.Location,
	logger *slog.Logger,
) (*Sweeper, error) {
	if txRunner == nil {
		return nil, domain.NewValidationError("txRunner", "cannot be nil", domain.ErrValidation)
	}
	if tasks == nil {
		return nil, domain.NewValidationError("tasks", "cannot be nil", domain.ErrValidation)
	}
	if history == nil {
		return nil, domain.NewValidationError("history", "cannot be nil", domain.ErrValidation)
	}
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Sweeper{
		txRunner: txRunner,
		tasks:    tasks,
		history:  history,
		schedule: schedule,
		location: location,
		logger:   logger.With(slog.String("component", "overdue_sweeper")),
	}, nil
}

// Start runs one eager sweep, then schedules the recurring sweep. An
// eager sweep failure is logged, not fatal; the next scheduled run
// retries.
func (s *Sweeper) Start(ctx context.Context) error {
	if swept, err := s.Sweep(ctx); err != nil {
		s.logger.Error("eager sweep failed", slog.String("error", err.Error()))
	} else {
		s.logger.Info("eager sweep completed", slog.Int("swept_count", swept))
	}

	s.cron = cron.New(cron.WithLocation(s.location))
	_, err := s.cron.AddFunc(s.schedule, func() {
		swept, err := s.Sweep(context.Background())
		if err != nil {
			s.logger.Error("scheduled sweep failed", slog.String("error", err.Error()))
			return
		}
		s.logger.Info("scheduled sweep completed", slog.Int("swept_count", swept))
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	s.cron.Start()
	s.logger.Info("sweeper scheduled",
		slog.String("schedule", s.schedule),
		slog.String("timezone", s.location.String()))
	return nil
}

// Stop cancels the recurring schedule and waits for a running sweep.
func (s *Sweeper) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// Sweep transitions every task whose deadline has passed and whose status
// is still sweepable (ongoing, under review, rejected) to overdue, and
// appends a ledger entry per task. Rerunning immediately affects zero
// rows: the selection excludes tasks already overdue or closed. Returns
// the number of tasks swept.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := time.Now().In(s.location)
	swept := 0

	err := s.txRunner.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txTasks := s.tasks.WithTx(tx)
		txHistory := s.history.WithTx(tx)

		due, err := txTasks.FindDueBefore(ctx, now)
		if err != nil {
			return fmt.Errorf("failed to select due tasks: %w", err)
		}

		for _, task := range due {
			task.Status = domain.TaskStatusOverdue
			task.UpdatedAt = time.Now().UTC()
			if err := txTasks.Update(ctx, task); err != nil {
				return fmt.Errorf("failed to mark task %s overdue: %w", task.ID, err)
			}

			entry, err := domain.NewTaskHistory(task.ID, domain.TaskStatusOverdue, "")
			if err != nil {
				return fmt.Errorf("failed to build history entry for task %s: %w", task.ID, err)
			}
			if err := txHistory.Append(ctx, entry); err != nil {
				return fmt.Errorf("failed to append history for task %s: %w", task.ID, err)
			}

			log.Debug("task swept overdue",
				slog.String("task_id", task.ID.String()),
				slog.Time("deadline", task.Deadline))
		}

		swept = len(due)
		return nil
	})
	if err != nil {
		return 0, err
	}

	return swept, nil
}
