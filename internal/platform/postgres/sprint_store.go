package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// PostgresSprintStore implements the store.SprintStore interface
// using a PostgreSQL database as the storage backend.
type PostgresSprintStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSprintStore creates a new PostgreSQL implementation of the SprintStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresSprintStore(db store.DBTX, logger *slog.Logger) *PostgresSprintStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSprintStore{
		db:     db,
		logger: logger.With(slog.String("component", "sprint_store")),
	}
}

// Ensure PostgresSprintStore implements store.SprintStore interface
var _ store.SprintStore = (*PostgresSprintStore)(nil)

// WithTx returns a SprintStore bound to the given transaction.
func (s *PostgresSprintStore) WithTx(tx *sql.Tx) store.SprintStore {
	return &PostgresSprintStore{
		db:     tx,
		logger: s.logger,
	}
}

const sprintColumns = `id, title, description, status, project_id, created_by,
		start_date, end_date, created_at, updated_at`

// Create implements store.SprintStore.Create
// Returns store.ErrActiveSprintExists if creating an active sprint would
// violate the partial unique index.
func (s *PostgresSprintStore) Create(ctx context.Context, sprint *domain.Sprint) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := sprint.Validate(); err != nil {
		log.Warn("sprint validation failed during create",
			slog.String("error", err.Error()),
			slog.String("sprint_id", sprint.ID.String()))
		return err
	}

	query := `
		INSERT INTO sprints (` + sprintColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		sprint.ID,
		sprint.Title,
		sprint.Description,
		sprint.Status,
		sprint.ProjectID,
		sprint.CreatedBy,
		sprint.StartDate,
		sprint.EndDate,
		sprint.CreatedAt,
		sprint.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create sprint",
			slog.String("error", err.Error()),
			slog.String("sprint_id", sprint.ID.String()),
			slog.String("project_id", sprint.ProjectID.String()))
		return MapError(err)
	}

	log.Info("sprint created successfully",
		slog.String("sprint_id", sprint.ID.String()),
		slog.String("project_id", sprint.ProjectID.String()))
	return nil
}

// GetByID implements store.SprintStore.GetByID
// Returns store.ErrSprintNotFound if the sprint does not exist.
func (s *PostgresSprintStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Sprint, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + sprintColumns + ` FROM sprints WHERE id = $1`

	sprint, err := scanSprint(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("sprint not found", slog.String("sprint_id", id.String()))
			return nil, store.ErrSprintNotFound
		}
		log.Error("failed to get sprint",
			slog.String("error", err.Error()),
			slog.String("sprint_id", id.String()))
		return nil, MapError(err)
	}

	return sprint, nil
}

// Update implements store.SprintStore.Update
// Returns store.ErrSprintNotFound if the sprint does not exist and
// store.ErrActiveSprintExists on a single-active-sprint violation.
func (s *PostgresSprintStore) Update(ctx context.Context, sprint *domain.Sprint) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := sprint.Validate(); err != nil {
		log.Warn("sprint validation failed during update",
			slog.String("error", err.Error()),
			slog.String("sprint_id", sprint.ID.String()))
		return err
	}

	sprint.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE sprints
		SET title = $1, description = $2, status = $3,
		    start_date = $4, end_date = $5, updated_at = $6
		WHERE id = $7
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		sprint.Title,
		sprint.Description,
		sprint.Status,
		sprint.StartDate,
		sprint.EndDate,
		sprint.UpdatedAt,
		sprint.ID,
	)
	if err != nil {
		log.Error("failed to update sprint",
			slog.String("error", err.Error()),
			slog.String("sprint_id", sprint.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "sprint"); err != nil {
		return err
	}

	log.Info("sprint updated successfully",
		slog.String("sprint_id", sprint.ID.String()),
		slog.String("status", string(sprint.Status)))
	return nil
}

// Delete implements store.SprintStore.Delete
// Owned tasks cascade at the schema level.
// Returns store.ErrSprintNotFound if the sprint does not exist.
func (s *PostgresSprintStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM sprints WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete sprint",
			slog.String("error", err.Error()),
			slog.String("sprint_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "sprint"); err != nil {
		return err
	}

	log.Info("sprint deleted successfully", slog.String("sprint_id", id.String()))
	return nil
}

// ListByProject implements store.SprintStore.ListByProject
// Sprints are returned newest first.
func (s *PostgresSprintStore) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.Sprint, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + sprintColumns + `
		FROM sprints
		WHERE project_id = $1
		ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		log.Error("failed to query sprints",
			slog.String("error", err.Error()),
			slog.String("project_id", projectID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	sprints := []*domain.Sprint{}
	for rows.Next() {
		sprint, err := scanSprint(rows)
		if err != nil {
			log.Error("failed to scan sprint row", slog.String("error", err.Error()))
			return nil, err
		}
		sprints = append(sprints, sprint)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return sprints, nil
}

// FindActive implements store.SprintStore.FindActive
// Returns store.ErrSprintNotFound if no sprint is active.
func (s *PostgresSprintStore) FindActive(ctx context.Context, projectID uuid.UUID) (*domain.Sprint, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + sprintColumns + `
		FROM sprints
		WHERE project_id = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT 1`

	sprint, err := scanSprint(s.db.QueryRowContext(ctx, query, projectID, domain.SprintStatusActive))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSprintNotFound
		}
		log.Error("failed to find active sprint",
			slog.String("error", err.Error()),
			slog.String("project_id", projectID.String()))
		return nil, MapError(err)
	}

	return sprint, nil
}

func scanSprint(row rowScanner) (*domain.Sprint, error) {
	var sprint domain.Sprint
	var status string

	err := row.Scan(
		&sprint.ID,
		&sprint.Title,
		&sprint.Description,
		&status,
		&sprint.ProjectID,
		&sprint.CreatedBy,
		&sprint.StartDate,
		&sprint.EndDate,
		&sprint.CreatedAt,
		&sprint.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	sprint.Status = domain.SprintStatus(status)
	return &sprint, nil
}
