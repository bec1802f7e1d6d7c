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

// PostgresMemberStore implements the store.MemberStore interface
// using a PostgreSQL database as the storage backend.
type PostgresMemberStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresMemberStore creates a new PostgreSQL implementation of the MemberStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresMemberStore(db store.DBTX, logger *slog.Logger) *PostgresMemberStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresMemberStore{
		db:     db,
		logger: logger.With(slog.String("component", "member_store")),
	}
}

// Ensure PostgresMemberStore implements store.MemberStore interface
var _ store.MemberStore = (*PostgresMemberStore)(nil)

// WithTx returns a MemberStore bound to the given transaction.
func (s *PostgresMemberStore) WithTx(tx *sql.Tx) store.MemberStore {
	return &PostgresMemberStore{
		db:     tx,
		logger: s.logger,
	}
}

const memberColumns = `id, user_id, project_id, role_id, position, busy_level`

// GetByID implements store.MemberStore.GetByID
// Returns store.ErrMemberNotFound if the member does not exist.
func (s *PostgresMemberStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.ProjectMember, error) {
	query := `SELECT ` + memberColumns + ` FROM project_members WHERE id = $1`
	return s.getMember(ctx, query, id)
}

// GetByUserAndProject implements store.MemberStore.GetByUserAndProject
// Returns store.ErrMemberNotFound if the user is not a member of the project.
func (s *PostgresMemberStore) GetByUserAndProject(
	ctx context.Context,
	userID, projectID uuid.UUID,
) (*domain.ProjectMember, error) {
	query := `SELECT ` + memberColumns + ` FROM project_members WHERE user_id = $1 AND project_id = $2`
	return s.getMember(ctx, query, userID, projectID)
}

func (s *PostgresMemberStore) getMember(
	ctx context.Context,
	query string,
	args ...any,
) (*domain.ProjectMember, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	member, err := scanMember(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrMemberNotFound
		}
		log.Error("failed to get project member", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return member, nil
}

// ListByProject implements store.MemberStore.ListByProject
func (s *PostgresMemberStore) ListByProject(
	ctx context.Context,
	projectID uuid.UUID,
) ([]*domain.ProjectMember, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + memberColumns + ` FROM project_members WHERE project_id = $1 ORDER BY role_id ASC`

	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		log.Error("failed to query project members",
			slog.String("error", err.Error()),
			slog.String("project_id", projectID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	members := []*domain.ProjectMember{}
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			log.Error("failed to scan member row", slog.String("error", err.Error()))
			return nil, err
		}
		members = append(members, member)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return members, nil
}

func scanMember(row rowScanner) (*domain.ProjectMember, error) {
	var member domain.ProjectMember
	var roleID int
	var busyLevel string

	err := row.Scan(
		&member.ID,
		&member.UserID,
		&member.ProjectID,
		&roleID,
		&member.Position,
		&busyLevel,
	)
	if err != nil {
		return nil, err
	}

	member.Role = domain.Role(roleID)
	member.BusyLevel = domain.BusyLevel(busyLevel)
	return &member, nil
}
