package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// PostgresTaskFileStore implements the store.TaskFileStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskFileStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskFileStore creates a new PostgreSQL implementation of the TaskFileStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresTaskFileStore(db store.DBTX, logger *slog.Logger) *PostgresTaskFileStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskFileStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_file_store")),
	}
}

// Ensure PostgresTaskFileStore implements store.TaskFileStore interface
var _ store.TaskFileStore = (*PostgresTaskFileStore)(nil)

// WithTx returns a TaskFileStore bound to the given transaction.
func (s *PostgresTaskFileStore) WithTx(tx *sql.Tx) store.TaskFileStore {
	return &PostgresTaskFileStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.TaskFileStore.Create
func (s *PostgresTaskFileStore) Create(ctx context.Context, file *domain.TaskFile) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := file.Validate(); err != nil {
		log.Warn("task file validation failed",
			slog.String("error", err.Error()),
			slog.String("task_id", file.TaskID.String()))
		return err
	}

	query := `
		INSERT INTO task_files (id, task_id, object_key, file_name, content_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		file.ID,
		file.TaskID,
		file.ObjectKey,
		file.FileName,
		file.ContentType,
		file.CreatedAt,
	)
	if err != nil {
		log.Error("failed to create task file metadata",
			slog.String("error", err.Error()),
			slog.String("task_id", file.TaskID.String()),
			slog.String("object_key", file.ObjectKey))
		return MapError(err)
	}

	return nil
}

// Delete implements store.TaskFileStore.Delete
// Returns store.ErrNotFound if the metadata does not exist.
func (s *PostgresTaskFileStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM task_files WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete task file metadata",
			slog.String("error", err.Error()),
			slog.String("task_file_id", id.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, "task file")
}

// ListByTask implements store.TaskFileStore.ListByTask
func (s *PostgresTaskFileStore) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.TaskFile, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, task_id, object_key, file_name, content_type, created_at
		FROM task_files
		WHERE task_id = $1
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, taskID)
	if err != nil {
		log.Error("failed to query task files",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	files := []*domain.TaskFile{}
	for rows.Next() {
		var f domain.TaskFile
		if err := rows.Scan(&f.ID, &f.TaskID, &f.ObjectKey, &f.FileName, &f.ContentType, &f.CreatedAt); err != nil {
			log.Error("failed to scan task file row", slog.String("error", err.Error()))
			return nil, err
		}
		files = append(files, &f)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return files, nil
}
