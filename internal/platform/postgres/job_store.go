package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/jobs"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// PostgresJobStore implements the jobs.JobStore interface using PostgreSQL.
type PostgresJobStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresJobStore creates a new PostgreSQL implementation of the JobStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresJobStore(db store.DBTX, logger *slog.Logger) *PostgresJobStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresJobStore{
		db:     db,
		logger: logger.With(slog.String("component", "job_store")),
	}
}

// Ensure PostgresJobStore implements jobs.JobStore interface
var _ jobs.JobStore = (*PostgresJobStore)(nil)

// WithTx returns a JobStore bound to the given transaction.
func (s *PostgresJobStore) WithTx(tx *sql.Tx) jobs.JobStore {
	return &PostgresJobStore{
		db:     tx,
		logger: s.logger,
	}
}

// SaveJob implements jobs.JobStore.SaveJob
func (s *PostgresJobStore) SaveJob(ctx context.Context, job jobs.Job) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := time.Now().UTC()

	query := `
		INSERT INTO jobs (id, type, payload, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		job.ID(),
		job.Type(),
		job.Payload(),
		job.Status(),
		now,
		now,
	)
	if err != nil {
		log.Error("failed to save job",
			slog.String("error", err.Error()),
			slog.String("job_id", job.ID().String()),
			slog.String("job_type", job.Type()))
		return MapError(err)
	}

	return nil
}

// UpdateJobStatus implements jobs.JobStore.UpdateJobStatus
// A missing job is treated as a no-op so status updates never fail a
// worker after the row was cleaned up.
func (s *PostgresJobStore) UpdateJobStatus(
	ctx context.Context,
	jobID uuid.UUID,
	status jobs.JobStatus,
	errorMsg string,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE jobs
		SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := s.db.ExecContext(ctx, query, status, errorMsg, time.Now().UTC(), jobID)
	if err != nil {
		log.Error("failed to update job status",
			slog.String("error", err.Error()),
			slog.String("job_id", jobID.String()),
			slog.String("status", string(status)))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("job_id", jobID.String()))
		return err
	}
	if rowsAffected == 0 {
		log.Warn("no job found with ID to update status",
			slog.String("job_id", jobID.String()))
	}

	return nil
}

// GetPendingJobs implements jobs.JobStore.GetPendingJobs
func (s *PostgresJobStore) GetPendingJobs(ctx context.Context) ([]jobs.JobRecord, error) {
	return s.getJobsByStatus(ctx, jobs.JobStatusPending, 0)
}

// GetProcessingJobs implements jobs.JobStore.GetProcessingJobs
func (s *PostgresJobStore) GetProcessingJobs(
	ctx context.Context,
	olderThan time.Duration,
) ([]jobs.JobRecord, error) {
	return s.getJobsByStatus(ctx, jobs.JobStatusProcessing, olderThan)
}

func (s *PostgresJobStore) getJobsByStatus(
	ctx context.Context,
	status jobs.JobStatus,
	olderThan time.Duration,
) ([]jobs.JobRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, type, payload, status, error_message, created_at, updated_at
		FROM jobs
		WHERE status = $1
		ORDER BY created_at ASC
	`
	args := []any{status}

	if olderThan > 0 {
		query = `
			SELECT id, type, payload, status, error_message, created_at, updated_at
			FROM jobs
			WHERE status = $1 AND updated_at < $2
			ORDER BY created_at ASC
		`
		args = append(args, time.Now().UTC().Add(-olderThan))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query jobs by status",
			slog.String("error", err.Error()),
			slog.String("status", string(status)))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	records := []jobs.JobRecord{}
	for rows.Next() {
		var record jobs.JobRecord
		var errorMessage sql.NullString
		err := rows.Scan(
			&record.ID,
			&record.Type,
			&record.Payload,
			&record.Status,
			&errorMessage,
			&record.CreatedAt,
			&record.UpdatedAt,
		)
		if err != nil {
			log.Error("failed to scan job row", slog.String("error", err.Error()))
			return nil, err
		}
		record.ErrorMsg = errorMessage.String
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return records, nil
}
