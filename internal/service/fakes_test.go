package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/events"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// fakeTxRunner runs the transaction function directly with a nil *sql.Tx.
// Stores registered on it are snapshotted before the function runs and
// restored when it returns an error, so a mid-transaction failure leaves
// them exactly as a real rollback would.
type fakeTxRunner struct {
	beginErr error
	stores   []snapshotter
}

// snapshotter captures a store's current contents and hands back the
// closure that restores them.
type snapshotter interface {
	snapshot() (restore func())
}

func (r *fakeTxRunner) RunInTransaction(ctx context.Context, fn store.TxFn) error {
	if r.beginErr != nil {
		return r.beginErr
	}
	restores := make([]func(), 0, len(r.stores))
	for _, s := range r.stores {
		restores = append(restores, s.snapshot())
	}
	err := fn(ctx, nil)
	if err != nil {
		for i := len(restores) - 1; i >= 0; i-- {
			restores[i]()
		}
	}
	return err
}

// fakeTaskStore is an in-memory TaskStore.
type fakeTaskStore struct {
	mu        sync.Mutex
	tasks     map[uuid.UUID]*domain.Task
	updateErr error
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
}

func (s *fakeTaskStore) Create(_ context.Context, task *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *task
	s.tasks[task.ID] = &copied
	return nil
}

func (s *fakeTaskStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	copied := *task
	return &copied, nil
}

func (s *fakeTaskStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return s.GetByID(ctx, id)
}

func (s *fakeTaskStore) Update(_ context.Context, task *domain.Task) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.ID]; !ok {
		return store.ErrTaskNotFound
	}
	copied := *task
	s.tasks[task.ID] = &copied
	return nil
}

func (s *fakeTaskStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(s.tasks, id)
	return nil
}

func (s *fakeTaskStore) ListByProject(
	_ context.Context,
	projectID uuid.UUID,
	sprintID *uuid.UUID,
) ([]*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Task
	for _, task := range s.tasks {
		if task.ProjectID != projectID {
			continue
		}
		if sprintID != nil && task.SprintID != *sprintID {
			continue
		}
		copied := *task
		out = append(out, &copied)
	}
	return out, nil
}

func (s *fakeTaskStore) ListBySprint(_ context.Context, sprintID uuid.UUID) ([]*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Task
	for _, task := range s.tasks {
		if task.SprintID == sprintID {
			copied := *task
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *fakeTaskStore) FindDueBefore(_ context.Context, deadline time.Time) ([]*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Task
	for _, task := range s.tasks {
		switch task.Status {
		case domain.TaskStatusOngoing, domain.TaskStatusUnderReview, domain.TaskStatusRejected:
		default:
			continue
		}
		if task.Deadline.Before(deadline) {
			copied := *task
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *fakeTaskStore) WithTx(*sql.Tx) store.TaskStore { return s }

func (s *fakeTaskStore) snapshot() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := make(map[uuid.UUID]*domain.Task, len(s.tasks))
	for id, task := range s.tasks {
		copied := *task
		saved[id] = &copied
	}
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.tasks = saved
	}
}

// fakeHistoryStore is an in-memory append-only HistoryStore.
type fakeHistoryStore struct {
	mu      sync.Mutex
	entries []*domain.TaskHistory
}

func newFakeHistoryStore() *fakeHistoryStore { return &fakeHistoryStore{} }

func (s *fakeHistoryStore) Append(_ context.Context, entry *domain.TaskHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *entry
	s.entries = append(s.entries, &copied)
	return nil
}

func (s *fakeHistoryStore) ListByTask(_ context.Context, taskID uuid.UUID) ([]*domain.TaskHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.TaskHistory
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].TaskID == taskID {
			copied := *s.entries[i]
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *fakeHistoryStore) Latest(ctx context.Context, taskID uuid.UUID) (*domain.TaskHistory, error) {
	entries, _ := s.ListByTask(ctx, taskID)
	if len(entries) == 0 {
		return nil, store.ErrNotFound
	}
	return entries[0], nil
}

func (s *fakeHistoryStore) WithTx(*sql.Tx) store.HistoryStore { return s }

func (s *fakeHistoryStore) snapshot() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := make([]*domain.TaskHistory, len(s.entries))
	copy(saved, s.entries)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.entries = saved
	}
}

// fakeSprintStore is an in-memory SprintStore that enforces the
// single-active-sprint invariant the way the partial unique index does.
type fakeSprintStore struct {
	mu      sync.Mutex
	sprints map[uuid.UUID]*domain.Sprint
	order   []uuid.UUID
}

func newFakeSprintStore() *fakeSprintStore {
	return &fakeSprintStore{sprints: make(map[uuid.UUID]*domain.Sprint)}
}

func (s *fakeSprintStore) activeConflict(sprint *domain.Sprint) bool {
	if sprint.Status != domain.SprintStatusActive {
		return false
	}
	for _, other := range s.sprints {
		if other.ID != sprint.ID &&
			other.ProjectID == sprint.ProjectID &&
			other.Status == domain.SprintStatusActive {
			return true
		}
	}
	return false
}

func (s *fakeSprintStore) Create(_ context.Context, sprint *domain.Sprint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeConflict(sprint) {
		return store.ErrActiveSprintExists
	}
	copied := *sprint
	s.sprints[sprint.ID] = &copied
	s.order = append(s.order, sprint.ID)
	return nil
}

func (s *fakeSprintStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Sprint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sprint, ok := s.sprints[id]
	if !ok {
		return nil, store.ErrSprintNotFound
	}
	copied := *sprint
	return &copied, nil
}

func (s *fakeSprintStore) Update(_ context.Context, sprint *domain.Sprint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sprints[sprint.ID]; !ok {
		return store.ErrSprintNotFound
	}
	if s.activeConflict(sprint) {
		return store.ErrActiveSprintExists
	}
	copied := *sprint
	s.sprints[sprint.ID] = &copied
	return nil
}

func (s *fakeSprintStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sprints[id]; !ok {
		return store.ErrSprintNotFound
	}
	delete(s.sprints, id)
	return nil
}

func (s *fakeSprintStore) ListByProject(_ context.Context, projectID uuid.UUID) ([]*domain.Sprint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Sprint
	for i := len(s.order) - 1; i >= 0; i-- {
		sprint, ok := s.sprints[s.order[i]]
		if ok && sprint.ProjectID == projectID {
			copied := *sprint
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *fakeSprintStore) FindActive(_ context.Context, projectID uuid.UUID) (*domain.Sprint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sprint := range s.sprints {
		if sprint.ProjectID == projectID && sprint.Status == domain.SprintStatusActive {
			copied := *sprint
			return &copied, nil
		}
	}
	return nil, store.ErrSprintNotFound
}

func (s *fakeSprintStore) WithTx(*sql.Tx) store.SprintStore { return s }

func (s *fakeSprintStore) snapshot() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := make(map[uuid.UUID]*domain.Sprint, len(s.sprints))
	for id, sprint := range s.sprints {
		copied := *sprint
		saved[id] = &copied
	}
	savedOrder := make([]uuid.UUID, len(s.order))
	copy(savedOrder, s.order)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.sprints = saved
		s.order = savedOrder
	}
}

// fakeMemberStore is an in-memory MemberStore.
type fakeMemberStore struct {
	members map[uuid.UUID]*domain.ProjectMember
}

func newFakeMemberStore(members ...*domain.ProjectMember) *fakeMemberStore {
	s := &fakeMemberStore{members: make(map[uuid.UUID]*domain.ProjectMember)}
	for _, m := range members {
		s.members[m.ID] = m
	}
	return s
}

func (s *fakeMemberStore) GetByID(_ context.Context, id uuid.UUID) (*domain.ProjectMember, error) {
	member, ok := s.members[id]
	if !ok {
		return nil, store.ErrMemberNotFound
	}
	copied := *member
	return &copied, nil
}

func (s *fakeMemberStore) GetByUserAndProject(
	_ context.Context,
	userID, projectID uuid.UUID,
) (*domain.ProjectMember, error) {
	for _, member := range s.members {
		if member.UserID == userID && member.ProjectID == projectID {
			copied := *member
			return &copied, nil
		}
	}
	return nil, store.ErrMemberNotFound
}

func (s *fakeMemberStore) ListByProject(_ context.Context, projectID uuid.UUID) ([]*domain.ProjectMember, error) {
	var out []*domain.ProjectMember
	for _, member := range s.members {
		if member.ProjectID == projectID {
			copied := *member
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *fakeMemberStore) WithTx(*sql.Tx) store.MemberStore { return s }

// fakeNotificationStore is an in-memory NotificationStore.
type fakeNotificationStore struct {
	mu            sync.Mutex
	notifications []*domain.Notification
	createErr     error
}

func newFakeNotificationStore() *fakeNotificationStore { return &fakeNotificationStore{} }

func (s *fakeNotificationStore) Create(_ context.Context, n *domain.Notification) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *n
	s.notifications = append(s.notifications, &copied)
	return nil
}

func (s *fakeNotificationStore) ListByUser(
	_ context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]*domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []*domain.Notification
	for i := len(s.notifications) - 1; i >= 0; i-- {
		if s.notifications[i].UserID == userID {
			copied := *s.notifications[i]
			matched = append(matched, &copied)
		}
	}
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *fakeNotificationStore) MarkViewed(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications {
		if n.ID == id {
			n.IsViewed = true
			return nil
		}
	}
	return store.ErrNotificationNotFound
}

func (s *fakeNotificationStore) WithTx(*sql.Tx) store.NotificationStore { return s }

func (s *fakeNotificationStore) snapshot() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := make([]*domain.Notification, len(s.notifications))
	copy(saved, s.notifications)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.notifications = saved
	}
}

func (s *fakeNotificationStore) all() []*domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

// fakeTaskFileStore is an in-memory TaskFileStore.
type fakeTaskFileStore struct {
	mu    sync.Mutex
	files map[uuid.UUID]*domain.TaskFile
}

func newFakeTaskFileStore() *fakeTaskFileStore {
	return &fakeTaskFileStore{files: make(map[uuid.UUID]*domain.TaskFile)}
}

func (s *fakeTaskFileStore) Create(_ context.Context, file *domain.TaskFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *file
	s.files[file.ID] = &copied
	return nil
}

func (s *fakeTaskFileStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.files, id)
	return nil
}

func (s *fakeTaskFileStore) ListByTask(_ context.Context, taskID uuid.UUID) ([]*domain.TaskFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.TaskFile
	for _, file := range s.files {
		if file.TaskID == taskID {
			copied := *file
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *fakeTaskFileStore) WithTx(*sql.Tx) store.TaskFileStore { return s }

func (s *fakeTaskFileStore) snapshot() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := make(map[uuid.UUID]*domain.TaskFile, len(s.files))
	for id, file := range s.files {
		copied := *file
		saved[id] = &copied
	}
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.files = saved
	}
}

// fakeProjectStore is an in-memory ProjectStore.
type fakeProjectStore struct {
	projects map[uuid.UUID]*domain.Project
}

func newFakeProjectStore(projects ...*domain.Project) *fakeProjectStore {
	s := &fakeProjectStore{projects: make(map[uuid.UUID]*domain.Project)}
	for _, p := range projects {
		s.projects[p.ID] = p
	}
	return s
}

func (s *fakeProjectStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Project, error) {
	project, ok := s.projects[id]
	if !ok {
		return nil, store.ErrProjectNotFound
	}
	copied := *project
	return &copied, nil
}

func (s *fakeProjectStore) WithTx(*sql.Tx) store.ProjectStore { return s }

// fakeUserStore resolves emails from a fixed map.
type fakeUserStore struct {
	emails map[uuid.UUID]string
}

func (s *fakeUserStore) GetEmail(_ context.Context, userID uuid.UUID) (string, error) {
	email, ok := s.emails[userID]
	if !ok {
		return "", store.ErrUserNotFound
	}
	return email, nil
}

// captureEmitter records every emitted event.
type captureEmitter struct {
	mu      sync.Mutex
	emitted []*events.SideEffectEvent
	emitErr error
}

func (e *captureEmitter) EmitEvent(_ context.Context, event *events.SideEffectEvent) error {
	if e.emitErr != nil {
		return e.emitErr
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.emitted = append(e.emitted, event)
	return nil
}

func (e *captureEmitter) byType(eventType string) []*events.SideEffectEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []*events.SideEffectEvent
	for _, event := range e.emitted {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

// fakeTimeEntryStore is an in-memory TimeEntryStore enforcing the
// one-running-timer-per-user invariant.
type fakeTimeEntryStore struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*domain.TimeEntry
}

func newFakeTimeEntryStore() *fakeTimeEntryStore {
	return &fakeTimeEntryStore{entries: make(map[uuid.UUID]*domain.TimeEntry)}
}

func (s *fakeTimeEntryStore) Create(_ context.Context, entry *domain.TimeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.EndTime == nil {
		for _, other := range s.entries {
			if other.UserID == entry.UserID && other.EndTime == nil {
				return store.ErrRunningTimerExists
			}
		}
	}
	copied := *entry
	s.entries[entry.ID] = &copied
	return nil
}

func (s *fakeTimeEntryStore) GetRunning(_ context.Context, userID uuid.UUID) (*domain.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.entries {
		if entry.UserID == userID && entry.EndTime == nil {
			copied := *entry
			return &copied, nil
		}
	}
	return nil, store.ErrTimeEntryNotFound
}

func (s *fakeTimeEntryStore) Update(_ context.Context, entry *domain.TimeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[entry.ID]; !ok {
		return store.ErrTimeEntryNotFound
	}
	copied := *entry
	s.entries[entry.ID] = &copied
	return nil
}

func (s *fakeTimeEntryStore) ListByTask(_ context.Context, taskID uuid.UUID) ([]*domain.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.TimeEntry
	for _, entry := range s.entries {
		if entry.TaskID == taskID {
			copied := *entry
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *fakeTimeEntryStore) SumDurationByUser(_ context.Context, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, entry := range s.entries {
		if entry.UserID == userID && entry.EndTime != nil {
			total += entry.Duration
		}
	}
	return total, nil
}

func (s *fakeTimeEntryStore) WithTx(*sql.Tx) store.TimeEntryStore { return s }

// fakeStatsStore serves canned aggregates.
type fakeStatsStore struct {
	statusCounts   map[domain.TaskStatus]int
	assigneeCounts map[uuid.UUID]int
	priorityCounts map[domain.TaskPriority]int
	activity       *store.ActivityCounts
	memberFacts    map[uuid.UUID]*store.MemberTaskFacts
}

func (s *fakeStatsStore) CountByStatus(
	_ context.Context, _ uuid.UUID, _ *uuid.UUID,
) (map[domain.TaskStatus]int, error) {
	return s.statusCounts, nil
}

func (s *fakeStatsStore) CountByAssignee(
	_ context.Context, _ uuid.UUID, _ *uuid.UUID,
) (map[uuid.UUID]int, error) {
	return s.assigneeCounts, nil
}

func (s *fakeStatsStore) CountByPriority(
	_ context.Context, _ uuid.UUID, _ *uuid.UUID,
) (map[domain.TaskPriority]int, error) {
	return s.priorityCounts, nil
}

func (s *fakeStatsStore) Activity(
	_ context.Context, _ uuid.UUID, _ time.Time,
) (*store.ActivityCounts, error) {
	return s.activity, nil
}

func (s *fakeStatsStore) MemberFacts(
	_ context.Context, memberID uuid.UUID,
) (*store.MemberTaskFacts, error) {
	facts, ok := s.memberFacts[memberID]
	if !ok {
		return &store.MemberTaskFacts{}, nil
	}
	return facts, nil
}
