package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// PostgresTimeEntryStore implements the store.TimeEntryStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTimeEntryStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTimeEntryStore creates a new PostgreSQL implementation of the TimeEntryStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresTimeEntryStore(db store.DBTX, logger *slog.Logger) *PostgresTimeEntryStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTimeEntryStore{
		db:     db,
		logger: logger.With(slog.String("component", "time_entry_store")),
	}
}

// Ensure PostgresTimeEntryStore implements store.TimeEntryStore interface
var _ store.TimeEntryStore = (*PostgresTimeEntryStore)(nil)

// WithTx returns a TimeEntryStore bound to the given transaction.
func (s *PostgresTimeEntryStore) WithTx(tx *sql.Tx) store.TimeEntryStore {
	return &PostgresTimeEntryStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.TimeEntryStore.Create
// Returns store.ErrRunningTimerExists if the user already has a running
// entry; the partial unique index raises this even under concurrent starts.
func (s *PostgresTimeEntryStore) Create(ctx context.Context, entry *domain.TimeEntry) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		log.Warn("time entry validation failed",
			slog.String("error", err.Error()),
			slog.String("user_id", entry.UserID.String()))
		return err
	}

	query := `
		INSERT INTO time_entries (id, user_id, task_id, start_time, end_time, duration, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.UserID,
		entry.TaskID,
		entry.StartTime,
		entry.EndTime,
		entry.Duration,
		entry.Note,
	)
	if err != nil {
		log.Error("failed to create time entry",
			slog.String("error", err.Error()),
			slog.String("user_id", entry.UserID.String()),
			slog.String("task_id", entry.TaskID.String()))
		return MapError(err)
	}

	log.Debug("time entry created",
		slog.String("time_entry_id", entry.ID.String()),
		slog.String("user_id", entry.UserID.String()))
	return nil
}

// GetRunning implements store.TimeEntryStore.GetRunning
// Returns store.ErrTimeEntryNotFound if no timer is running for the user.
func (s *PostgresTimeEntryStore) GetRunning(ctx context.Context, userID uuid.UUID) (*domain.TimeEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, task_id, start_time, end_time, duration, note
		FROM time_entries
		WHERE user_id = $1 AND end_time IS NULL
	`

	entry, err := scanTimeEntry(s.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTimeEntryNotFound
		}
		log.Error("failed to get running time entry",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}

	return entry, nil
}

// Update implements store.TimeEntryStore.Update
// Returns store.ErrTimeEntryNotFound if the entry does not exist.
func (s *PostgresTimeEntryStore) Update(ctx context.Context, entry *domain.TimeEntry) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		log.Warn("time entry validation failed during update",
			slog.String("error", err.Error()),
			slog.String("time_entry_id", entry.ID.String()))
		return err
	}

	query := `
		UPDATE time_entries
		SET end_time = $1, duration = $2, note = $3
		WHERE id = $4
	`
	result, err := s.db.ExecContext(ctx, query, entry.EndTime, entry.Duration, entry.Note, entry.ID)
	if err != nil {
		log.Error("failed to update time entry",
			slog.String("error", err.Error()),
			slog.String("time_entry_id", entry.ID.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, "time entry")
}

// ListByTask implements store.TimeEntryStore.ListByTask
func (s *PostgresTimeEntryStore) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.TimeEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, task_id, start_time, end_time, duration, note
		FROM time_entries
		WHERE task_id = $1
		ORDER BY start_time DESC
	`
	rows, err := s.db.QueryContext(ctx, query, taskID)
	if err != nil {
		log.Error("failed to query time entries",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	entries := []*domain.TimeEntry{}
	for rows.Next() {
		entry, err := scanTimeEntry(rows)
		if err != nil {
			log.Error("failed to scan time entry row", slog.String("error", err.Error()))
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return entries, nil
}

// SumDurationByUser implements store.TimeEntryStore.SumDurationByUser
func (s *PostgresTimeEntryStore) SumDurationByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT COALESCE(SUM(duration), 0)
		FROM time_entries
		WHERE user_id = $1 AND end_time IS NOT NULL
	`

	var total int64
	if err := s.db.QueryRowContext(ctx, query, userID).Scan(&total); err != nil {
		log.Error("failed to sum time entry durations",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return 0, MapError(err)
	}

	return total, nil
}

func scanTimeEntry(row rowScanner) (*domain.TimeEntry, error) {
	var entry domain.TimeEntry
	var endTime sql.NullTime

	err := row.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.TaskID,
		&entry.StartTime,
		&endTime,
		&entry.Duration,
		&entry.Note,
	)
	if err != nil {
		return nil, err
	}

	if endTime.Valid {
		t := endTime.Time.UTC()
		entry.EndTime = &t
	}
	return &entry, nil
}
