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

// PostgresHistoryStore implements the store.HistoryStore interface
// using a PostgreSQL database as the storage backend. There is
// deliberately no update or delete method: the ledger is append-only and
// rows disappear only via the cascade from task deletion.
type PostgresHistoryStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresHistoryStore creates a new PostgreSQL implementation of the HistoryStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresHistoryStore(db store.DBTX, logger *slog.Logger) *PostgresHistoryStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresHistoryStore{
		db:     db,
		logger: logger.With(slog.String("component", "history_store")),
	}
}

// Ensure PostgresHistoryStore implements store.HistoryStore interface
var _ store.HistoryStore = (*PostgresHistoryStore)(nil)

// WithTx returns a HistoryStore bound to the given transaction.
func (s *PostgresHistoryStore) WithTx(tx *sql.Tx) store.HistoryStore {
	return &PostgresHistoryStore{
		db:     tx,
		logger: s.logger,
	}
}

// Append implements store.HistoryStore.Append
func (s *PostgresHistoryStore) Append(ctx context.Context, entry *domain.TaskHistory) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		log.Warn("history entry validation failed",
			slog.String("error", err.Error()),
			slog.String("task_id", entry.TaskID.String()))
		return err
	}

	query := `
		INSERT INTO task_history (id, task_id, status, comment, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.TaskID,
		entry.Status,
		entry.Comment,
		entry.CreatedAt,
	)
	if err != nil {
		log.Error("failed to append history entry",
			slog.String("error", err.Error()),
			slog.String("task_id", entry.TaskID.String()),
			slog.String("status", string(entry.Status)))
		return MapError(err)
	}

	log.Debug("history entry appended",
		slog.String("task_id", entry.TaskID.String()),
		slog.String("status", string(entry.Status)))
	return nil
}

// ListByTask implements store.HistoryStore.ListByTask
// Entries are returned newest first.
func (s *PostgresHistoryStore) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.TaskHistory, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, task_id, status, comment, created_at
		FROM task_history
		WHERE task_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, taskID)
	if err != nil {
		log.Error("failed to query task history",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	entries := []*domain.TaskHistory{}
	for rows.Next() {
		var entry domain.TaskHistory
		var status string
		if err := rows.Scan(&entry.ID, &entry.TaskID, &status, &entry.Comment, &entry.CreatedAt); err != nil {
			log.Error("failed to scan history row", slog.String("error", err.Error()))
			return nil, err
		}
		entry.Status = domain.TaskStatus(status)
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return entries, nil
}

// Latest implements store.HistoryStore.Latest
// Returns store.ErrNotFound if the task has no history.
func (s *PostgresHistoryStore) Latest(ctx context.Context, taskID uuid.UUID) (*domain.TaskHistory, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, task_id, status, comment, created_at
		FROM task_history
		WHERE task_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var entry domain.TaskHistory
	var status string
	err := s.db.QueryRowContext(ctx, query, taskID).Scan(
		&entry.ID,
		&entry.TaskID,
		&status,
		&entry.Comment,
		&entry.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		log.Error("failed to get latest history entry",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return nil, MapError(err)
	}

	entry.Status = domain.TaskStatus(status)
	return &entry, nil
}
