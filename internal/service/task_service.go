package service

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/jobs"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// TaskServiceError is a custom error type for task service errors.
type TaskServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for TaskServiceError.
func (e *TaskServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("task service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *TaskServiceError) Unwrap() error {
	return e.Err
}

// NewTaskServiceError creates a new TaskServiceError.
func NewTaskServiceError(operation, message string, err error) *TaskServiceError {
	return &TaskServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// FileUpload carries the content of one attachment through task creation
// and update. The bytes are queued to object storage after commit; only
// the metadata row participates in the transaction.
type FileUpload struct {
	FileName    string
	ContentType string
	Content     []byte
}

// CreateTaskInput bundles the fields of a task creation request.
// AssignedBy is the acting member.
type CreateTaskInput struct {
	ProjectID   uuid.UUID
	SprintID    uuid.UUID
	Title       string
	Description string
	Priority    domain.TaskPriority
	Deadline    time.Time
	AssignedBy  uuid.UUID
	AssignedTo  uuid.UUID
	Attachments []FileUpload
}

// UpdateTaskInput bundles the mutable fields of a task update. Nil fields
// are left unchanged. Status, assigner and project are deliberately not
// part of this input: status moves through ChangeStatus, the others have
// no mutation path.
type UpdateTaskInput struct {
	TaskID      uuid.UUID
	ActorID     uuid.UUID
	ActorName   string
	Title       *string
	Description *string
	Priority    *domain.TaskPriority
	Deadline    *time.Time
	AssignedTo  *uuid.UUID
	Attach      []FileUpload
	DetachIDs   []uuid.UUID
}

// pendingDispatch is one composed fan-out waiting for the transaction to
// commit before its email and push halves may run.
type pendingDispatch struct {
	notification *domain.Notification
	emailKind    string
	emailParams  map[string]string
	skipEmail    bool
}

// pendingFile is one storage operation waiting for commit.
type pendingFile struct {
	key         string
	contentType string
	action      string
	content     []byte
}

// TaskService is the task lifecycle engine. Every state change runs in one
// transaction covering the task row, its history ledger entry and any
// in-app notification; external side effects are dispatched only after
// commit and never fail the operation.
type TaskService struct {
	txRunner      store.TxRunner
	tasks         store.TaskStore
	history       store.HistoryStore
	sprints       store.SprintStore
	members       store.MemberStore
	notifications store.NotificationStore
	files         store.TaskFileStore
	projects      store.ProjectStore
	notifier      *Notifier
	logger        *slog.Logger
}

// NewTaskService creates a new TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	txRunner store.TxRunner,
	tasks store.TaskStore,
	history store.HistoryStore,
	sprints store.SprintStore,
	members store.MemberStore,
	notifications store.NotificationStore,
	files store.TaskFileStore,
	projects store.ProjectStore,
	notifier *Notifier,
	logger *slog.Logger,
) (*TaskService, error) {
	if txRunner == nil {
		return nil, domain.NewValidationError("txRunner", "cannot be nil", domain.ErrValidation)
	}
	if tasks == nil {
		return nil, domain.NewValidationError("tasks", "cannot be nil", domain.ErrValidation)
	}
	if history == nil {
		return nil, domain.NewValidationError("history", "cannot be nil", domain.ErrValidation)
	}
	if sprints == nil {
		return nil, domain.NewValidationError("sprints", "cannot be nil", domain.ErrValidation)
	}
	if members == nil {
		return nil, domain.NewValidationError("members", "cannot be nil", domain.ErrValidation)
	}
	if notifications == nil {
		return nil, domain.NewValidationError("notifications", "cannot be nil", domain.ErrValidation)
	}
	if files == nil {
		return nil, domain.NewValidationError("files", "cannot be nil", domain.ErrValidation)
	}
	if projects == nil {
		return nil, domain.NewValidationError("projects", "cannot be nil", domain.ErrValidation)
	}
	if notifier == nil {
		return nil, domain.NewValidationError("notifier", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &TaskService{
		txRunner:      txRunner,
		tasks:         tasks,
		history:       history,
		sprints:       sprints,
		members:       members,
		notifications: notifications,
		files:         files,
		projects:      projects,
		notifier:      notifier,
		logger:        logger.With(slog.String("component", "task_service")),
	}, nil
}

// ChangeStatus moves a task to one of the caller-settable statuses and
// appends the transition to the history ledger. The affected counterparty
// (the assigner for "under review", the assignee for "rejected" and
// "closed") receives an in-app notification in the same transaction and a
// templated email after commit. When the acting member is the
// counterparty, as on a self-assigned task, the email is skipped.
func (s *TaskService) ChangeStatus(
	ctx context.Context,
	taskID uuid.UUID,
	newStatus domain.TaskStatus,
	comment string,
	actorID uuid.UUID,
	actorName string,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !newStatus.IsCallerSettable() {
		log.Warn("rejected status change to non-settable target",
			slog.String("task_id", taskID.String()),
			slog.String("status", string(newStatus)))
		return nil, fmt.Errorf("%w: %q", ErrInvalidTransition, newStatus)
	}

	var updated *domain.Task
	var pending *pendingDispatch

	err := s.txRunner.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txTasks := s.tasks.WithTx(tx)

		task, err := txTasks.GetForUpdate(ctx, taskID)
		if err != nil {
			return err
		}

		task.Status = newStatus
		task.UpdatedAt = time.Now().UTC()
		if err := txTasks.Update(ctx, task); err != nil {
			return NewTaskServiceError("change_status", "failed to update task", err)
		}

		entry, err := domain.NewTaskHistory(task.ID, newStatus, comment)
		if err != nil {
			return NewTaskServiceError("change_status", "failed to build history entry", err)
		}
		if err := s.history.WithTx(tx).Append(ctx, entry); err != nil {
			return NewTaskServiceError("change_status", "failed to append history", err)
		}

		pending, err = s.composeTransitionFanout(ctx, tx, task, newStatus, comment, actorID, actorName)
		if err != nil {
			return err
		}

		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("task status changed",
		slog.String("task_id", taskID.String()),
		slog.String("status", string(newStatus)))

	if pending != nil {
		s.notifier.Dispatch(ctx, pending.notification, pending.emailKind, pending.emailParams, pending.skipEmail)
	}

	return updated, nil
}

// composeTransitionFanout builds the notification row for a status change
// and writes it inside the transaction. The switch over the three
// caller-settable statuses is exhaustive; reaching the default arm means
// ChangeStatus admitted a status it should not have.
func (s *TaskService) composeTransitionFanout(
	ctx context.Context,
	tx *sql.Tx,
	task *domain.Task,
	newStatus domain.TaskStatus,
	comment string,
	actorID uuid.UUID,
	actorName string,
) (*pendingDispatch, error) {
	var receiverMemberID uuid.UUID
	var title, message, emailKind string

	project, err := s.projects.WithTx(tx).GetByID(ctx, task.ProjectID)
	if err != nil {
		return nil, NewTaskServiceError("change_status", "failed to load project", err)
	}

	switch newStatus {
	case domain.TaskStatusUnderReview:
		receiverMemberID = task.AssignedBy
		title = "Task submitted for review"
		message = fmt.Sprintf("%s submitted task %q in project %q for review", actorName, task.Title, project.Title)
		emailKind = jobs.EmailKindTaskUnderReview
	case domain.TaskStatusRejected:
		receiverMemberID = task.AssignedTo
		title = "Task rejected"
		message = fmt.Sprintf("%s rejected task %q in project %q", actorName, task.Title, project.Title)
		emailKind = jobs.EmailKindTaskRejected
	case domain.TaskStatusClosed:
		receiverMemberID = task.AssignedTo
		title = "Task closed"
		message = fmt.Sprintf("%s closed task %q in project %q", actorName, task.Title, project.Title)
		emailKind = jobs.EmailKindTaskClosed
	default:
		panic(fmt.Sprintf("unhandled caller-settable status %q", newStatus))
	}

	// An unassigned task has no counterparty for rejected/closed.
	if receiverMemberID == uuid.Nil {
		return nil, nil
	}

	receiver, err := s.members.WithTx(tx).GetByID(ctx, receiverMemberID)
	if err != nil {
		return nil, NewTaskServiceError("change_status", "failed to load receiver member", err)
	}

	notification, err := domain.NewNotification(receiver.UserID, title, message)
	if err != nil {
		return nil, NewTaskServiceError("change_status", "failed to build notification", err)
	}
	if err := s.notifications.WithTx(tx).Create(ctx, notification); err != nil {
		return nil, NewTaskServiceError("change_status", "failed to create notification", err)
	}

	return &pendingDispatch{
		notification: notification,
		emailKind:    emailKind,
		emailParams: map[string]string{
			"task_title":    task.Title,
			"project_title": project.Title,
			"actor":         actorName,
			"comment":       comment,
		},
		skipEmail: receiver.ID == actorID,
	}, nil
}

// CreateTask creates a task in the initial "ongoing" status together with
// its first history entry and a notification to the assignee, all in one
// transaction. Attachment bytes are queued to object storage after commit.
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var created *domain.Task
	var pending *pendingDispatch
	var pendingFiles []pendingFile

	err := s.txRunner.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txMembers := s.members.WithTx(tx)

		sprint, err := s.sprints.WithTx(tx).GetByID(ctx, input.SprintID)
		if err != nil {
			return err
		}

		assigner, err := txMembers.GetByID(ctx, input.AssignedBy)
		if err != nil {
			return err
		}
		if assigner.ProjectID != input.ProjectID {
			return fmt.Errorf("%w: assigner %s", ErrNotProjectMember, input.AssignedBy)
		}

		assignee, err := txMembers.GetByID(ctx, input.AssignedTo)
		if err != nil {
			return err
		}
		if assignee.ProjectID != input.ProjectID {
			return fmt.Errorf("%w: assignee %s", ErrNotProjectMember, input.AssignedTo)
		}

		task, err := domain.NewTask(
			input.Title,
			input.Description,
			input.Priority,
			input.Deadline,
			input.AssignedBy,
			input.AssignedTo,
			input.ProjectID,
			input.SprintID,
		)
		if err != nil {
			return err
		}
		if err := task.ValidateDeadlineWithin(sprint); err != nil {
			return err
		}

		if err := s.tasks.WithTx(tx).Create(ctx, task); err != nil {
			return NewTaskServiceError("create_task", "failed to save task", err)
		}

		entry, err := domain.NewTaskHistory(task.ID, domain.TaskStatusOngoing, "")
		if err != nil {
			return NewTaskServiceError("create_task", "failed to build history entry", err)
		}
		if err := s.history.WithTx(tx).Append(ctx, entry); err != nil {
			return NewTaskServiceError("create_task", "failed to append history", err)
		}

		project, err := s.projects.WithTx(tx).GetByID(ctx, task.ProjectID)
		if err != nil {
			return NewTaskServiceError("create_task", "failed to load project", err)
		}

		notification, err := domain.NewNotification(
			assignee.UserID,
			"New task assigned",
			fmt.Sprintf("You were assigned task %q in project %q", task.Title, project.Title),
		)
		if err != nil {
			return NewTaskServiceError("create_task", "failed to build notification", err)
		}
		if err := s.notifications.WithTx(tx).Create(ctx, notification); err != nil {
			return NewTaskServiceError("create_task", "failed to create notification", err)
		}

		pending = &pendingDispatch{
			notification: notification,
			emailKind:    jobs.EmailKindTaskAssigned,
			emailParams: map[string]string{
				"task_title":    task.Title,
				"project_title": project.Title,
			},
			skipEmail: assigner.UserID == assignee.UserID,
		}

		pendingFiles, err = s.attachFiles(ctx, tx, task.ID, input.Attachments)
		if err != nil {
			return err
		}

		created = task
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("task created",
		slog.String("task_id", created.ID.String()),
		slog.String("project_id", created.ProjectID.String()),
		slog.Int("attachment_count", len(pendingFiles)))

	s.notifier.Dispatch(ctx, pending.notification, pending.emailKind, pending.emailParams, pending.skipEmail)
	s.queueFiles(ctx, pendingFiles)

	return created, nil
}

// UpdateTask applies field updates and the reassignment sub-flow. A
// changed assignee produces two notification rows in the transaction (the
// removed assignee and the new one) and two emails after commit.
func (s *TaskService) UpdateTask(ctx context.Context, input UpdateTaskInput) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var updated *domain.Task
	var dispatches []*pendingDispatch
	var pendingFiles []pendingFile

	err := s.txRunner.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txTasks := s.tasks.WithTx(tx)

		task, err := txTasks.GetForUpdate(ctx, input.TaskID)
		if err != nil {
			return err
		}

		if input.Title != nil {
			task.Title = *input.Title
		}
		if input.Description != nil {
			task.Description = *input.Description
		}
		if input.Priority != nil {
			task.Priority = *input.Priority
		}
		if input.Deadline != nil {
			sprint, err := s.sprints.WithTx(tx).GetByID(ctx, task.SprintID)
			if err != nil {
				return NewTaskServiceError("update_task", "failed to load sprint", err)
			}
			task.Deadline = *input.Deadline
			if err := task.ValidateDeadlineWithin(sprint); err != nil {
				return err
			}
		}

		if input.AssignedTo != nil && *input.AssignedTo != task.AssignedTo {
			ds, err := s.reassign(ctx, tx, task, *input.AssignedTo, input.ActorID, input.ActorName)
			if err != nil {
				return err
			}
			dispatches = append(dispatches, ds...)
		}

		task.UpdatedAt = time.Now().UTC()
		if err := txTasks.Update(ctx, task); err != nil {
			return NewTaskServiceError("update_task", "failed to update task", err)
		}

		for _, fileID := range input.DetachIDs {
			if err := s.detachFile(ctx, tx, task.ID, fileID, &pendingFiles); err != nil {
				return err
			}
		}

		attached, err := s.attachFiles(ctx, tx, task.ID, input.Attach)
		if err != nil {
			return err
		}
		pendingFiles = append(pendingFiles, attached...)

		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("task updated", slog.String("task_id", input.TaskID.String()))

	for _, d := range dispatches {
		s.notifier.Dispatch(ctx, d.notification, d.emailKind, d.emailParams, d.skipEmail)
	}
	s.queueFiles(ctx, pendingFiles)

	return updated, nil
}

// reassign moves the task to a new assignee and composes both sides of
// the hand-off: a removal notification for the old assignee and an
// assignment notification for the new one.
func (s *TaskService) reassign(
	ctx context.Context,
	tx *sql.Tx,
	task *domain.Task,
	newAssigneeID uuid.UUID,
	actorID uuid.UUID,
	actorName string,
) ([]*pendingDispatch, error) {
	txMembers := s.members.WithTx(tx)
	txNotifs := s.notifications.WithTx(tx)

	newAssignee, err := txMembers.GetByID(ctx, newAssigneeID)
	if err != nil {
		return nil, err
	}
	if newAssignee.ProjectID != task.ProjectID {
		return nil, fmt.Errorf("%w: assignee %s", ErrNotProjectMember, newAssigneeID)
	}

	project, err := s.projects.WithTx(tx).GetByID(ctx, task.ProjectID)
	if err != nil {
		return nil, NewTaskServiceError("update_task", "failed to load project", err)
	}

	var dispatches []*pendingDispatch

	if task.AssignedTo != uuid.Nil {
		oldAssignee, err := txMembers.GetByID(ctx, task.AssignedTo)
		if err != nil {
			return nil, NewTaskServiceError("update_task", "failed to load previous assignee", err)
		}

		removal, err := domain.NewNotification(
			oldAssignee.UserID,
			"Task reassigned",
			fmt.Sprintf("%s reassigned task %q in project %q away from you", actorName, task.Title, project.Title),
		)
		if err != nil {
			return nil, NewTaskServiceError("update_task", "failed to build removal notification", err)
		}
		if err := txNotifs.Create(ctx, removal); err != nil {
			return nil, NewTaskServiceError("update_task", "failed to create removal notification", err)
		}

		dispatches = append(dispatches, &pendingDispatch{
			notification: removal,
			emailKind:    jobs.EmailKindTaskUnassigned,
			emailParams: map[string]string{
				"task_title":    task.Title,
				"project_title": project.Title,
				"actor":         actorName,
			},
			skipEmail: oldAssignee.ID == actorID,
		})
	}

	task.AssignedTo = newAssigneeID

	assignment, err := domain.NewNotification(
		newAssignee.UserID,
		"New task assigned",
		fmt.Sprintf("%s assigned you task %q in project %q", actorName, task.Title, project.Title),
	)
	if err != nil {
		return nil, NewTaskServiceError("update_task", "failed to build assignment notification", err)
	}
	if err := txNotifs.Create(ctx, assignment); err != nil {
		return nil, NewTaskServiceError("update_task", "failed to create assignment notification", err)
	}

	dispatches = append(dispatches, &pendingDispatch{
		notification: assignment,
		emailKind:    jobs.EmailKindTaskAssigned,
		emailParams: map[string]string{
			"task_title":    task.Title,
			"project_title": project.Title,
			"actor":         actorName,
		},
		skipEmail: newAssignee.ID == actorID,
	})

	return dispatches, nil
}

// DeleteTask removes a task. Only the original assigner may delete it.
// History rows and file metadata cascade; storage removal of attached
// objects is queued after commit.
func (s *TaskService) DeleteTask(ctx context.Context, taskID, actorID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var pendingFiles []pendingFile

	err := s.txRunner.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txTasks := s.tasks.WithTx(tx)

		task, err := txTasks.GetForUpdate(ctx, taskID)
		if err != nil {
			return err
		}
		if task.AssignedBy != actorID {
			return ErrNotAssigner
		}

		files, err := s.files.WithTx(tx).ListByTask(ctx, taskID)
		if err != nil {
			return NewTaskServiceError("delete_task", "failed to list attached files", err)
		}
		for _, f := range files {
			pendingFiles = append(pendingFiles, pendingFile{
				key:    f.ObjectKey,
				action: jobs.FileActionRemove,
			})
		}

		if err := txTasks.Delete(ctx, taskID); err != nil {
			return NewTaskServiceError("delete_task", "failed to delete task", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("task deleted",
		slog.String("task_id", taskID.String()),
		slog.Int("queued_removals", len(pendingFiles)))

	s.queueFiles(ctx, pendingFiles)
	return nil
}

// GetTask retrieves a task by ID.
func (s *TaskService) GetTask(ctx context.Context, taskID uuid.UUID) (*domain.Task, error) {
	return s.tasks.GetByID(ctx, taskID)
}

// ListTasks retrieves the tasks of a project, optionally narrowed to a sprint.
func (s *TaskService) ListTasks(
	ctx context.Context,
	projectID uuid.UUID,
	sprintID *uuid.UUID,
) ([]*domain.Task, error) {
	return s.tasks.ListByProject(ctx, projectID, sprintID)
}

// GetHistory retrieves a task's status ledger, newest entry first.
func (s *TaskService) GetHistory(ctx context.Context, taskID uuid.UUID) ([]*domain.TaskHistory, error) {
	if _, err := s.tasks.GetByID(ctx, taskID); err != nil {
		return nil, err
	}
	return s.history.ListByTask(ctx, taskID)
}

// ListFiles retrieves the attachment metadata of a task.
func (s *TaskService) ListFiles(ctx context.Context, taskID uuid.UUID) ([]*domain.TaskFile, error) {
	return s.files.ListByTask(ctx, taskID)
}

// attachFiles writes metadata rows for the given uploads and returns the
// storage operations to queue after commit.
func (s *TaskService) attachFiles(
	ctx context.Context,
	tx *sql.Tx,
	taskID uuid.UUID,
	uploads []FileUpload,
) ([]pendingFile, error) {
	if len(uploads) == 0 {
		return nil, nil
	}

	txFiles := s.files.WithTx(tx)
	pending := make([]pendingFile, 0, len(uploads))

	for _, upload := range uploads {
		meta, err := domain.NewTaskFile(taskID, upload.FileName, upload.ContentType)
		if err != nil {
			return nil, NewTaskServiceError("attach_files", "failed to build file metadata", err)
		}
		if err := txFiles.Create(ctx, meta); err != nil {
			return nil, NewTaskServiceError("attach_files", "failed to save file metadata", err)
		}
		pending = append(pending, pendingFile{
			key:         meta.ObjectKey,
			contentType: upload.ContentType,
			action:      jobs.FileActionUpload,
			content:     upload.Content,
		})
	}

	return pending, nil
}

// detachFile removes one metadata row and records the storage removal.
func (s *TaskService) detachFile(
	ctx context.Context,
	tx *sql.Tx,
	taskID, fileID uuid.UUID,
	pending *[]pendingFile,
) error {
	txFiles := s.files.WithTx(tx)

	files, err := txFiles.ListByTask(ctx, taskID)
	if err != nil {
		return NewTaskServiceError("detach_file", "failed to list attached files", err)
	}

	for _, f := range files {
		if f.ID == fileID {
			if err := txFiles.Delete(ctx, fileID); err != nil {
				return NewTaskServiceError("detach_file", "failed to delete file metadata", err)
			}
			*pending = append(*pending, pendingFile{
				key:    f.ObjectKey,
				action: jobs.FileActionRemove,
			})
			return nil
		}
	}

	return store.ErrNotFound
}

// queueFiles emits the queued storage operations after commit.
func (s *TaskService) queueFiles(ctx context.Context, pending []pendingFile) {
	for _, p := range pending {
		req := jobs.FileRequest{
			Key:         p.key,
			ContentType: p.contentType,
			Action:      p.action,
		}
		if len(p.content) > 0 {
			req.FileBase64 = base64.StdEncoding.EncodeToString(p.content)
		}
		s.notifier.QueueFileAction(ctx, req)
	}
}
