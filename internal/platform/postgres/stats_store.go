package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// PostgresStatsStore implements the store.StatsStore interface using
// aggregate SQL over committed task, history and time entry rows. It is
// read-only and never participates in transactions.
type PostgresStatsStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresStatsStore creates a new PostgreSQL implementation of the StatsStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresStatsStore(db store.DBTX, logger *slog.Logger) *PostgresStatsStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresStatsStore{
		db:     db,
		logger: logger.With(slog.String("component", "stats_store")),
	}
}

// Ensure PostgresStatsStore implements store.StatsStore interface
var _ store.StatsStore = (*PostgresStatsStore)(nil)

// CountByStatus implements store.StatsStore.CountByStatus
func (s *PostgresStatsStore) CountByStatus(
	ctx context.Context,
	projectID uuid.UUID,
	sprintID *uuid.UUID,
) (map[domain.TaskStatus]int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT status, COUNT(*)
		FROM tasks
		WHERE project_id = $1 AND ($2::uuid IS NULL OR sprint_id = $2)
		GROUP BY status
	`
	rows, err := s.db.QueryContext(ctx, query, projectID, nullableUUIDPtr(sprintID))
	if err != nil {
		log.Error("failed to count tasks by status",
			slog.String("error", err.Error()),
			slog.String("project_id", projectID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	counts := map[domain.TaskStatus]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			log.Error("failed to scan status count row", slog.String("error", err.Error()))
			return nil, err
		}
		counts[domain.TaskStatus(status)] = count
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return counts, nil
}

// CountByAssignee implements store.StatsStore.CountByAssignee
// Unassigned tasks are counted under uuid.Nil.
func (s *PostgresStatsStore) CountByAssignee(
	ctx context.Context,
	projectID uuid.UUID,
	sprintID *uuid.UUID,
) (map[uuid.UUID]int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT COALESCE(assigned_to, '00000000-0000-0000-0000-000000000000'::uuid), COUNT(*)
		FROM tasks
		WHERE project_id = $1 AND ($2::uuid IS NULL OR sprint_id = $2)
		GROUP BY assigned_to
	`
	rows, err := s.db.QueryContext(ctx, query, projectID, nullableUUIDPtr(sprintID))
	if err != nil {
		log.Error("failed to count tasks by assignee",
			slog.String("error", err.Error()),
			slog.String("project_id", projectID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	counts := map[uuid.UUID]int{}
	for rows.Next() {
		var assignee uuid.UUID
		var count int
		if err := rows.Scan(&assignee, &count); err != nil {
			log.Error("failed to scan assignee count row", slog.String("error", err.Error()))
			return nil, err
		}
		counts[assignee] = count
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return counts, nil
}

// CountByPriority implements store.StatsStore.CountByPriority
func (s *PostgresStatsStore) CountByPriority(
	ctx context.Context,
	projectID uuid.UUID,
	sprintID *uuid.UUID,
) (map[domain.TaskPriority]int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT priority, COUNT(*)
		FROM tasks
		WHERE project_id = $1 AND ($2::uuid IS NULL OR sprint_id = $2)
		GROUP BY priority
	`
	rows, err := s.db.QueryContext(ctx, query, projectID, nullableUUIDPtr(sprintID))
	if err != nil {
		log.Error("failed to count tasks by priority",
			slog.String("error", err.Error()),
			slog.String("project_id", projectID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	counts := map[domain.TaskPriority]int{}
	for rows.Next() {
		var priority string
		var count int
		if err := rows.Scan(&priority, &count); err != nil {
			log.Error("failed to scan priority count row", slog.String("error", err.Error()))
			return nil, err
		}
		counts[domain.TaskPriority(priority)] = count
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return counts, nil
}

// Activity implements store.StatsStore.Activity
func (s *PostgresStatsStore) Activity(
	ctx context.Context,
	projectID uuid.UUID,
	now time.Time,
) (*store.ActivityCounts, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	weekAgo := now.Add(-7 * 24 * time.Hour)
	weekAhead := now.Add(7 * 24 * time.Hour)

	query := `
		SELECT
			COUNT(*) FILTER (WHERE created_at >= $2),
			COUNT(*) FILTER (WHERE updated_at >= $2),
			COUNT(*) FILTER (WHERE status = $4 AND updated_at >= $2),
			COUNT(*) FILTER (WHERE deadline >= $5 AND deadline <= $3
				AND status <> $4)
		FROM tasks
		WHERE project_id = $1
	`

	var counts store.ActivityCounts
	err := s.db.QueryRowContext(
		ctx,
		query,
		projectID,
		weekAgo,
		weekAhead,
		domain.TaskStatusClosed,
		now,
	).Scan(
		&counts.CreatedLast7Days,
		&counts.UpdatedLast7Days,
		&counts.CompletedLast7Days,
		&counts.DueNext7Days,
	)
	if err != nil {
		log.Error("failed to compute activity counts",
			slog.String("error", err.Error()),
			slog.String("project_id", projectID.String()))
		return nil, MapError(err)
	}

	return &counts, nil
}

// MemberFacts implements store.StatsStore.MemberFacts
// Average completion time is measured from task creation to the history
// ledger's "closed" entry so later edits to the task row do not shift it.
func (s *PostgresStatsStore) MemberFacts(
	ctx context.Context,
	memberID uuid.UUID,
) (*store.MemberTaskFacts, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = $2),
			COUNT(*) FILTER (WHERE status = $3),
			COUNT(*) FILTER (WHERE status = $4)
		FROM tasks
		WHERE assigned_to = $1
	`

	var facts store.MemberTaskFacts
	err := s.db.QueryRowContext(
		ctx,
		query,
		memberID,
		domain.TaskStatusClosed,
		domain.TaskStatusOverdue,
		domain.TaskStatusRejected,
	).Scan(&facts.Total, &facts.Closed, &facts.Overdue, &facts.Rejected)
	if err != nil {
		log.Error("failed to aggregate member task counts",
			slog.String("error", err.Error()),
			slog.String("member_id", memberID.String()))
		return nil, MapError(err)
	}

	avgQuery := `
		SELECT COALESCE(AVG(EXTRACT(EPOCH FROM (h.created_at - t.created_at)) / 3600.0), 0)
		FROM tasks t
		JOIN LATERAL (
			SELECT created_at
			FROM task_history
			WHERE task_id = t.id AND status = $2
			ORDER BY created_at DESC
			LIMIT 1
		) h ON TRUE
		WHERE t.assigned_to = $1 AND t.status = $2
	`
	err = s.db.QueryRowContext(ctx, avgQuery, memberID, domain.TaskStatusClosed).
		Scan(&facts.AvgCompletionHours)
	if err != nil {
		log.Error("failed to compute average completion time",
			slog.String("error", err.Error()),
			slog.String("member_id", memberID.String()))
		return nil, MapError(err)
	}

	return &facts, nil
}

func nullableUUIDPtr(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return *id
}
