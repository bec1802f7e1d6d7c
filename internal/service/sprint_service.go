package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/jobs"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// SprintServiceError is a custom error type for sprint service errors.
type SprintServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for SprintServiceError.
func (e *SprintServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sprint service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("sprint service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *SprintServiceError) Unwrap() error {
	return e.Err
}

// NewSprintServiceError creates a new SprintServiceError.
func NewSprintServiceError(operation, message string, err error) *SprintServiceError {
	return &SprintServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// CreateSprintInput bundles the fields of a sprint creation request.
// CreatedBy is the acting member.
type CreateSprintInput struct {
	ProjectID   uuid.UUID
	CreatedBy   uuid.UUID
	Title       string
	Description string
	StartDate   time.Time
	EndDate     time.Time
}

// UpdateSprintInput bundles the mutable fields of a sprint update. Nil
// fields are left unchanged; a partial date update is validated against
// the unchanged bound.
type UpdateSprintInput struct {
	SprintID    uuid.UUID
	ActorID     uuid.UUID
	Title       *string
	Description *string
	Status      *domain.SprintStatus
	StartDate   *time.Time
	EndDate     *time.Time
}

// SprintService is the sprint lifecycle engine. It enforces the date
// rules, the single-active-sprint invariant and the manage-sprints
// capability.
type SprintService struct {
	txRunner store.TxRunner
	sprints  store.SprintStore
	tasks    store.TaskStore
	files    store.TaskFileStore
	members  store.MemberStore
	notifier *Notifier
	logger   *slog.Logger
}

// NewSprintService creates a new SprintService.
// It returns an error if any of the required dependencies are nil.
func NewSprintService(
	txRunner store.TxRunner,
	sprints store.SprintStore,
	tasks store.TaskStore,
	files store.TaskFileStore,
	members store.MemberStore,
	notifier *Notifier,
	logger *slog.Logger,
) (*SprintService, error) {
	if txRunner == nil {
		return nil, domain.NewValidationError("txRunner", "cannot be nil", domain.ErrValidation)
	}
	if sprints == nil {
		return nil, domain.NewValidationError("sprints", "cannot be nil", domain.ErrValidation)
	}
	if tasks == nil {
		return nil, domain.NewValidationError("tasks", "cannot be nil", domain.ErrValidation)
	}
	if files == nil {
		return nil, domain.NewValidationError("files", "cannot be nil", domain.ErrValidation)
	}
	if members == nil {
		return nil, domain.NewValidationError("members", "cannot be nil", domain.ErrValidation)
	}
	if notifier == nil {
		return nil, domain.NewValidationError("notifier", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &SprintService{
		txRunner: txRunner,
		sprints:  sprints,
		tasks:    tasks,
		files:    files,
		members:  members,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "sprint_service")),
	}, nil
}

// requireManageSprints checks that the acting member belongs to the
// project and holds the manage-sprints capability.
func (s *SprintService) requireManageSprints(
	ctx context.Context,
	members store.MemberStore,
	actorID, projectID uuid.UUID,
) error {
	actor, err := members.GetByID(ctx, actorID)
	if err != nil {
		return err
	}
	if actor.ProjectID != projectID {
		return fmt.Errorf("%w: actor %s", ErrNotProjectMember, actorID)
	}
	if !actor.Role.Has(domain.CapManageSprints) {
		return fmt.Errorf("%w: %s", ErrPermissionDenied, domain.CapManageSprints)
	}
	return nil
}

// CreateSprint creates a sprint in the initial "planned" status.
func (s *SprintService) CreateSprint(ctx context.Context, input CreateSprintInput) (*domain.Sprint, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.requireManageSprints(ctx, s.members, input.CreatedBy, input.ProjectID); err != nil {
		return nil, err
	}

	sprint, err := domain.NewSprint(
		input.Title,
		input.Description,
		input.ProjectID,
		input.CreatedBy,
		input.StartDate,
		input.EndDate,
	)
	if err != nil {
		return nil, err
	}

	if err := s.sprints.Create(ctx, sprint); err != nil {
		return nil, err
	}

	log.Info("sprint created",
		slog.String("sprint_id", sprint.ID.String()),
		slog.String("project_id", sprint.ProjectID.String()))
	return sprint, nil
}

// UpdateSprint applies field updates. Activating a sprint while another
// sprint in the project is active fails with store.ErrActiveSprintExists;
// the partial unique index backs the check under concurrency.
func (s *SprintService) UpdateSprint(ctx context.Context, input UpdateSprintInput) (*domain.Sprint, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var updated *domain.Sprint

	err := s.txRunner.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txSprints := s.sprints.WithTx(tx)

		sprint, err := txSprints.GetByID(ctx, input.SprintID)
		if err != nil {
			return err
		}

		if err := s.requireManageSprints(ctx, s.members.WithTx(tx), input.ActorID, sprint.ProjectID); err != nil {
			return err
		}

		if input.Title != nil {
			sprint.Title = *input.Title
		}
		if input.Description != nil {
			sprint.Description = *input.Description
		}

		if input.StartDate != nil || input.EndDate != nil {
			startDate := sprint.StartDate
			endDate := sprint.EndDate
			if input.StartDate != nil {
				startDate = *input.StartDate
			}
			if input.EndDate != nil {
				endDate = *input.EndDate
			}
			if err := domain.ValidateSprintDates(startDate, endDate, time.Now().UTC()); err != nil {
				return err
			}
			sprint.StartDate = startDate
			sprint.EndDate = endDate
		}

		if input.Status != nil && *input.Status != sprint.Status {
			if !input.Status.IsValid() {
				return domain.ErrInvalidStatus
			}
			if *input.Status == domain.SprintStatusActive {
				_, err := txSprints.FindActive(ctx, sprint.ProjectID)
				if err == nil {
					return store.ErrActiveSprintExists
				}
				if !errors.Is(err, store.ErrSprintNotFound) {
					return NewSprintServiceError("update_sprint", "failed to check for active sprint", err)
				}
			}
			sprint.Status = *input.Status
		}

		if err := txSprints.Update(ctx, sprint); err != nil {
			return err
		}

		updated = sprint
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("sprint updated",
		slog.String("sprint_id", updated.ID.String()),
		slog.String("status", string(updated.Status)))
	return updated, nil
}

// DeleteSprint removes a sprint and its owned tasks. Storage removal for
// every file attached to an owned task is queued after commit.
func (s *SprintService) DeleteSprint(ctx context.Context, sprintID, actorID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var objectKeys []string

	err := s.txRunner.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txSprints := s.sprints.WithTx(tx)
		txFiles := s.files.WithTx(tx)

		sprint, err := txSprints.GetByID(ctx, sprintID)
		if err != nil {
			return err
		}

		if err := s.requireManageSprints(ctx, s.members.WithTx(tx), actorID, sprint.ProjectID); err != nil {
			return err
		}

		tasks, err := s.tasks.WithTx(tx).ListBySprint(ctx, sprintID)
		if err != nil {
			return NewSprintServiceError("delete_sprint", "failed to list owned tasks", err)
		}
		for _, task := range tasks {
			files, err := txFiles.ListByTask(ctx, task.ID)
			if err != nil {
				return NewSprintServiceError("delete_sprint", "failed to list task files", err)
			}
			for _, f := range files {
				objectKeys = append(objectKeys, f.ObjectKey)
			}
		}

		return txSprints.Delete(ctx, sprintID)
	})
	if err != nil {
		return err
	}

	log.Info("sprint deleted",
		slog.String("sprint_id", sprintID.String()),
		slog.Int("queued_removals", len(objectKeys)))

	for _, key := range objectKeys {
		s.notifier.QueueFileAction(ctx, jobs.FileRequest{
			Key:    key,
			Action: jobs.FileActionRemove,
		})
	}
	return nil
}

// GetSprint retrieves a sprint by ID.
func (s *SprintService) GetSprint(ctx context.Context, sprintID uuid.UUID) (*domain.Sprint, error) {
	return s.sprints.GetByID(ctx, sprintID)
}

// ListSprints retrieves a project's sprints, newest first.
func (s *SprintService) ListSprints(ctx context.Context, projectID uuid.UUID) ([]*domain.Sprint, error) {
	return s.sprints.ListByProject(ctx, projectID)
}

// DefaultSprint resolves the sprint new work lands in: the active sprint
// if there is one, otherwise the sprint with the latest end date, and nil
// when the project has no sprints at all. A missing default is not an
// error.
func (s *SprintService) DefaultSprint(ctx context.Context, projectID uuid.UUID) (*domain.Sprint, error) {
	active, err := s.sprints.FindActive(ctx, projectID)
	if err == nil {
		return active, nil
	}
	if !errors.Is(err, store.ErrSprintNotFound) {
		return nil, err
	}

	sprints, err := s.sprints.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(sprints) == 0 {
		return nil, nil
	}

	latest := sprints[0]
	for _, sprint := range sprints[1:] {
		if sprint.EndDate.After(latest.EndDate) {
			latest = sprint
		}
	}
	return latest, nil
}
