package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/events"
	"github.com/phrazzld/taskboard-api/internal/jobs"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// sprintWorld is a SprintService over in-memory fakes with a manager and
// a plain member in one project.
type sprintWorld struct {
	svc     *SprintService
	sprints *fakeSprintStore
	tasks   *fakeTaskStore
	files   *fakeTaskFileStore
	emitter *captureEmitter

	projectID uuid.UUID
	manager   *domain.ProjectMember
	member    *domain.ProjectMember
}

func newSprintWorld(t *testing.T) *sprintWorld {
	t.Helper()

	projectID := uuid.New()
	manager := &domain.ProjectMember{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		ProjectID: projectID,
		Role:      domain.RoleManager,
		BusyLevel: domain.BusyLevelFree,
	}
	member := &domain.ProjectMember{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		ProjectID: projectID,
		Role:      domain.RoleMember,
		BusyLevel: domain.BusyLevelFree,
	}

	w := &sprintWorld{
		sprints:   newFakeSprintStore(),
		tasks:     newFakeTaskStore(),
		files:     newFakeTaskFileStore(),
		emitter:   &captureEmitter{},
		projectID: projectID,
		manager:   manager,
		member:    member,
	}

	notifier := NewNotifier(&fakeUserStore{emails: map[uuid.UUID]string{}}, w.emitter, slog.Default())
	txRunner := &fakeTxRunner{stores: []snapshotter{w.sprints, w.tasks, w.files}}
	svc, err := NewSprintService(
		txRunner, w.sprints, w.tasks, w.files,
		newFakeMemberStore(manager, member), notifier, slog.Default())
	require.NoError(t, err)
	w.svc = svc

	return w
}

func (w *sprintWorld) createSprint(t *testing.T, title string) *domain.Sprint {
	t.Helper()
	sprint, err := w.svc.CreateSprint(context.Background(), CreateSprintInput{
		ProjectID: w.projectID,
		CreatedBy: w.manager.ID,
		Title:     title,
		StartDate: time.Now().UTC(),
		EndDate:   time.Now().UTC().Add(14 * 24 * time.Hour),
	})
	require.NoError(t, err)
	return sprint
}

func TestCreateSprint(t *testing.T) {
	w := newSprintWorld(t)

	sprint := w.createSprint(t, "Sprint 1")
	assert.Equal(t, domain.SprintStatusPlanned, sprint.Status)
	assert.Equal(t, w.projectID, sprint.ProjectID)
}

func TestCreateSprintRequiresCapability(t *testing.T) {
	w := newSprintWorld(t)

	_, err := w.svc.CreateSprint(context.Background(), CreateSprintInput{
		ProjectID: w.projectID,
		CreatedBy: w.member.ID,
		Title:     "Sprint 1",
		StartDate: time.Now().UTC(),
		EndDate:   time.Now().UTC().Add(14 * 24 * time.Hour),
	})
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestCreateSprintRejectsInvertedDates(t *testing.T) {
	w := newSprintWorld(t)

	_, err := w.svc.CreateSprint(context.Background(), CreateSprintInput{
		ProjectID: w.projectID,
		CreatedBy: w.manager.ID,
		Title:     "Backwards",
		StartDate: time.Now().UTC().Add(14 * 24 * time.Hour),
		EndDate:   time.Now().UTC(),
	})
	require.ErrorIs(t, err, domain.ErrInvalidTimeRange)
}

func TestUpdateSprintSecondActivationConflicts(t *testing.T) {
	w := newSprintWorld(t)
	ctx := context.Background()

	first := w.createSprint(t, "Sprint 1")
	second := w.createSprint(t, "Sprint 2")

	active := domain.SprintStatusActive
	_, err := w.svc.UpdateSprint(ctx, UpdateSprintInput{
		SprintID: first.ID,
		ActorID:  w.manager.ID,
		Status:   &active,
	})
	require.NoError(t, err)

	_, err = w.svc.UpdateSprint(ctx, UpdateSprintInput{
		SprintID: second.ID,
		ActorID:  w.manager.ID,
		Status:   &active,
	})
	require.ErrorIs(t, err, store.ErrActiveSprintExists)

	// The losing sprint keeps its previous status.
	current, err := w.sprints.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SprintStatusPlanned, current.Status)
}

func TestUpdateSprintPartialDateValidatedAgainstUnchangedBound(t *testing.T) {
	w := newSprintWorld(t)
	sprint := w.createSprint(t, "Sprint 1")

	// Moving only the end date before the unchanged start date must fail.
	before := sprint.StartDate.Add(-24 * time.Hour)
	_, err := w.svc.UpdateSprint(context.Background(), UpdateSprintInput{
		SprintID: sprint.ID,
		ActorID:  w.manager.ID,
		EndDate:  &before,
	})
	require.ErrorIs(t, err, domain.ErrInvalidTimeRange)
}

func TestDeleteSprintQueuesOwnedTaskFileRemovals(t *testing.T) {
	w := newSprintWorld(t)
	ctx := context.Background()
	sprint := w.createSprint(t, "Sprint 1")

	task, err := domain.NewTask(
		"Owned task", "", domain.TaskPriorityLow,
		sprint.EndDate.Add(-time.Hour),
		w.manager.ID, w.member.ID, w.projectID, sprint.ID)
	require.NoError(t, err)
	require.NoError(t, w.tasks.Create(ctx, task))

	file, err := domain.NewTaskFile(task.ID, "notes.txt", "text/plain")
	require.NoError(t, err)
	require.NoError(t, w.files.Create(ctx, file))

	require.NoError(t, w.svc.DeleteSprint(ctx, sprint.ID, w.manager.ID))

	_, err = w.sprints.GetByID(ctx, sprint.ID)
	require.ErrorIs(t, err, store.ErrSprintNotFound)

	removals := w.emitter.byType(events.TypeFileAction)
	require.Len(t, removals, 1)
	var req jobs.FileRequest
	require.NoError(t, removals[0].UnmarshalPayload(&req))
	assert.Equal(t, file.ObjectKey, req.Key)
	assert.Equal(t, jobs.FileActionRemove, req.Action)
}

func TestDeleteSprintRequiresCapability(t *testing.T) {
	w := newSprintWorld(t)
	sprint := w.createSprint(t, "Sprint 1")

	err := w.svc.DeleteSprint(context.Background(), sprint.ID, w.member.ID)
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestDefaultSprint(t *testing.T) {
	w := newSprintWorld(t)
	ctx := context.Background()

	// No sprints at all: no default, no error.
	sprint, err := w.svc.DefaultSprint(ctx, w.projectID)
	require.NoError(t, err)
	assert.Nil(t, sprint)

	first := w.createSprint(t, "Sprint 1")
	second := w.createSprint(t, "Sprint 2")

	// No active sprint: the one ending latest wins.
	later := second.EndDate.Add(7 * 24 * time.Hour)
	_, err = w.svc.UpdateSprint(ctx, UpdateSprintInput{
		SprintID: second.ID,
		ActorID:  w.manager.ID,
		EndDate:  &later,
	})
	require.NoError(t, err)

	sprint, err = w.svc.DefaultSprint(ctx, w.projectID)
	require.NoError(t, err)
	require.NotNil(t, sprint)
	assert.Equal(t, second.ID, sprint.ID)

	// An active sprint always wins.
	active := domain.SprintStatusActive
	_, err = w.svc.UpdateSprint(ctx, UpdateSprintInput{
		SprintID: first.ID,
		ActorID:  w.manager.ID,
		Status:   &active,
	})
	require.NoError(t, err)

	sprint, err = w.svc.DefaultSprint(ctx, w.projectID)
	require.NoError(t, err)
	require.NotNil(t, sprint)
	assert.Equal(t, first.ID, sprint.ID)
}
