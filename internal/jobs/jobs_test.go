package jobs

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskboard-api/internal/events"
)

type sentEmail struct {
	to  string
	msg EmailMessage
}

type captureSender struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (s *captureSender) Send(_ context.Context, to string, msg EmailMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentEmail{to: to, msg: msg})
	return nil
}

func (s *captureSender) all() []sentEmail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentEmail(nil), s.sent...)
}

type memObjectStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	removed []string
	putErr  error
}

func newMemObjectStorage() *memObjectStorage {
	return &memObjectStorage{objects: make(map[string][]byte)}
}

func (s *memObjectStorage) Put(_ context.Context, key, _ string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.objects[key] = append([]byte(nil), data...)
	return nil
}

func (s *memObjectStorage) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	s.removed = append(s.removed, key)
	return nil
}

type memJobStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*JobRecord
	order   []uuid.UUID
}

func newMemJobStore() *memJobStore {
	return &memJobStore{records: make(map[uuid.UUID]*JobRecord)}
}

func (s *memJobStore) SaveJob(_ context.Context, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	s.records[job.ID()] = &JobRecord{
		ID:        job.ID(),
		Type:      job.Type(),
		Payload:   append([]byte(nil), job.Payload()...),
		Status:    JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.order = append(s.order, job.ID())
	return nil
}

func (s *memJobStore) UpdateJobStatus(_ context.Context, jobID uuid.UUID, status JobStatus, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[jobID]
	if !ok {
		return sql.ErrNoRows
	}
	record.Status = status
	record.ErrorMsg = errorMsg
	record.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *memJobStore) GetPendingJobs(context.Context) ([]JobRecord, error) {
	return s.byStatus(JobStatusPending), nil
}

func (s *memJobStore) GetProcessingJobs(_ context.Context, olderThan time.Duration) ([]JobRecord, error) {
	records := s.byStatus(JobStatusProcessing)
	if olderThan == 0 {
		return records, nil
	}
	cutoff := time.Now().UTC().Add(-olderThan)
	var stuck []JobRecord
	for _, record := range records {
		if record.UpdatedAt.Before(cutoff) {
			stuck = append(stuck, record)
		}
	}
	return stuck, nil
}

func (s *memJobStore) byStatus(status JobStatus) []JobRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var records []JobRecord
	for _, id := range s.order {
		if s.records[id].Status == status {
			records = append(records, *s.records[id])
		}
	}
	return records
}

func (s *memJobStore) status(jobID uuid.UUID) JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[jobID]
	if !ok {
		return ""
	}
	return record.Status
}

func (s *memJobStore) WithTx(*sql.Tx) JobStore { return s }

func TestEmailJobExecute(t *testing.T) {
	sender := &captureSender{}
	job, err := NewEmailJob(sender, "engineer@example.com", EmailKindTaskAssigned,
		map[string]string{"task_title": "Ship the sweeper"})
	require.NoError(t, err)
	assert.Equal(t, JobTypeEmail, job.Type())
	assert.Equal(t, JobStatusPending, job.Status())

	require.NoError(t, job.Execute(context.Background()))
	sent := sender.all()
	require.Len(t, sent, 1)
	assert.Equal(t, "engineer@example.com", sent[0].to)
	assert.Equal(t, EmailKindTaskAssigned, sent[0].msg.Type)
	assert.Equal(t, "Ship the sweeper", sent[0].msg.Params["task_title"])
}

func TestEmailJobRequiresRecipient(t *testing.T) {
	_, err := NewEmailJob(&captureSender{}, "", EmailKindTaskClosed, nil)
	require.Error(t, err)
}

func TestFileJobUploadAndRemove(t *testing.T) {
	storage := newMemObjectStorage()
	ctx := context.Background()

	upload, err := NewFileUploadJob(storage, "tasks/a/notes.txt", "text/plain", []byte("meeting notes"))
	require.NoError(t, err)
	require.NoError(t, upload.Execute(ctx))
	assert.Equal(t, []byte("meeting notes"), storage.objects["tasks/a/notes.txt"])

	edit, err := NewFileEditJob(storage, "tasks/a/notes.txt", "text/plain", []byte("revised notes"))
	require.NoError(t, err)
	require.NoError(t, edit.Execute(ctx))
	assert.Equal(t, []byte("revised notes"), storage.objects["tasks/a/notes.txt"])

	remove, err := NewFileRemoveJob(storage, "tasks/a/notes.txt")
	require.NoError(t, err)
	require.NoError(t, remove.Execute(ctx))
	assert.NotContains(t, storage.objects, "tasks/a/notes.txt")
	assert.Equal(t, []string{"tasks/a/notes.txt"}, storage.removed)
}

func TestFileJobRequiresKey(t *testing.T) {
	_, err := NewFileRemoveJob(newMemObjectStorage(), "")
	require.Error(t, err)
}

func TestFactoryFromRecordRehydratesEmail(t *testing.T) {
	sender := &captureSender{}
	factory := NewFactory(sender, newMemObjectStorage())

	original, err := factory.NewEmail("lead@example.com", EmailKindTaskUnderReview,
		map[string]string{"task_title": "Review me"})
	require.NoError(t, err)

	rehydrated, err := factory.FromRecord(original.ID(), original.Type(), original.Payload())
	require.NoError(t, err)
	assert.Equal(t, original.ID(), rehydrated.ID())

	require.NoError(t, rehydrated.Execute(context.Background()))
	sent := sender.all()
	require.Len(t, sent, 1)
	assert.Equal(t, "lead@example.com", sent[0].to)
	assert.Equal(t, EmailKindTaskUnderReview, sent[0].msg.Type)
}

func TestFactoryFromRecordRehydratesFile(t *testing.T) {
	storage := newMemObjectStorage()
	factory := NewFactory(&captureSender{}, storage)

	original, err := factory.NewFileUpload("tasks/b/spec.pdf", "application/pdf", []byte("%PDF"))
	require.NoError(t, err)

	rehydrated, err := factory.FromRecord(original.ID(), original.Type(), original.Payload())
	require.NoError(t, err)
	require.NoError(t, rehydrated.Execute(context.Background()))
	assert.Equal(t, []byte("%PDF"), storage.objects["tasks/b/spec.pdf"])
}

func TestFactoryFromRecordUnknownType(t *testing.T) {
	factory := NewFactory(&captureSender{}, newMemObjectStorage())

	_, err := factory.FromRecord(uuid.New(), "webhook", []byte(`{}`))
	require.Error(t, err)
}

func TestQueueEventHandlerQueuesEmailJob(t *testing.T) {
	store := newMemJobStore()
	factory := NewFactory(&captureSender{}, newMemObjectStorage())
	runner := NewRunner(store, factory, DefaultRunnerConfig(), slog.Default())
	handler := NewQueueEventHandler(factory, runner, slog.Default())

	event, err := events.NewSideEffectEvent(events.TypeEmailSend, EmailRequest{
		To:     "engineer@example.com",
		Kind:   EmailKindTaskClosed,
		Params: map[string]string{"task_title": "Done"},
	})
	require.NoError(t, err)

	require.NoError(t, handler.HandleEvent(context.Background(), event))

	pending, err := store.GetPendingJobs(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, JobTypeEmail, pending[0].Type)
}

func TestQueueEventHandlerQueuesFileRemoval(t *testing.T) {
	store := newMemJobStore()
	storage := newMemObjectStorage()
	factory := NewFactory(&captureSender{}, storage)
	runner := NewRunner(store, factory, DefaultRunnerConfig(), slog.Default())
	handler := NewQueueEventHandler(factory, runner, slog.Default())

	event, err := events.NewSideEffectEvent(events.TypeFileAction, FileRequest{
		Key:    "tasks/a/notes.txt",
		Action: FileActionRemove,
	})
	require.NoError(t, err)

	require.NoError(t, handler.HandleEvent(context.Background(), event))

	pending, err := store.GetPendingJobs(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, JobTypeFile, pending[0].Type)

	// The queued payload must round-trip into an executable removal.
	job, err := factory.FromRecord(pending[0].ID, pending[0].Type, pending[0].Payload)
	require.NoError(t, err)
	require.NoError(t, job.Execute(context.Background()))
	assert.Equal(t, []string{"tasks/a/notes.txt"}, storage.removed)
}

func TestQueueEventHandlerIgnoresSocketEvents(t *testing.T) {
	store := newMemJobStore()
	factory := NewFactory(&captureSender{}, newMemObjectStorage())
	runner := NewRunner(store, factory, DefaultRunnerConfig(), slog.Default())
	handler := NewQueueEventHandler(factory, runner, slog.Default())

	event, err := events.NewSideEffectEvent(events.TypeWSNotify, map[string]string{"title": "hi"})
	require.NoError(t, err)

	require.NoError(t, handler.HandleEvent(context.Background(), event))

	pending, err := store.GetPendingJobs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
}
