package jobs

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner(store JobStore, factory JobFactory) *Runner {
	config := RunnerConfig{
		WorkerCount:           1,
		QueueSize:             10,
		StuckJobAge:           time.Minute,
		StuckJobCheckInterval: time.Hour,
	}
	return NewRunner(store, factory, config, slog.Default())
}

func TestRunnerProcessesSubmittedJob(t *testing.T) {
	store := newMemJobStore()
	sender := &captureSender{}
	factory := NewFactory(sender, newMemObjectStorage())
	runner := newTestRunner(store, factory)

	require.NoError(t, runner.Start())
	defer runner.Stop()

	job, err := factory.NewEmail("engineer@example.com", EmailKindTaskAssigned, nil)
	require.NoError(t, err)
	require.NoError(t, runner.Submit(context.Background(), job))

	require.Eventually(t, func() bool {
		return store.status(job.ID()) == JobStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)
	assert.Len(t, sender.all(), 1)
}

func TestRunnerMarksFailedJob(t *testing.T) {
	store := newMemJobStore()
	sender := &captureSender{err: errors.New("smtp unavailable")}
	factory := NewFactory(sender, newMemObjectStorage())
	runner := newTestRunner(store, factory)

	var handled Job
	done := make(chan struct{})
	runner.SetErrorHandler(func(job Job, err error) {
		handled = job
		close(done)
	})

	require.NoError(t, runner.Start())
	defer runner.Stop()

	job, err := factory.NewEmail("engineer@example.com", EmailKindTaskOverdue, nil)
	require.NoError(t, err)
	require.NoError(t, runner.Submit(context.Background(), job))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("error handler was not invoked")
	}
	assert.Equal(t, job.ID(), handled.ID())

	require.Eventually(t, func() bool {
		return store.status(job.ID()) == JobStatusFailed
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRunnerRecoversPersistedJobs(t *testing.T) {
	store := newMemJobStore()
	sender := &captureSender{}
	factory := NewFactory(sender, newMemObjectStorage())

	// Persist a job without queueing it, as if the process crashed after
	// commit.
	job, err := factory.NewEmail("lead@example.com", EmailKindTaskUnderReview, nil)
	require.NoError(t, err)
	require.NoError(t, store.SaveJob(context.Background(), job))

	runner := newTestRunner(store, factory)
	require.NoError(t, runner.Start())
	defer runner.Stop()

	require.Eventually(t, func() bool {
		return store.status(job.ID()) == JobStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)
	require.Len(t, sender.all(), 1)
	assert.Equal(t, "lead@example.com", sender.all()[0].to)
}

func TestSubmitRejectsWhenQueueFull(t *testing.T) {
	store := newMemJobStore()
	factory := NewFactory(&captureSender{}, newMemObjectStorage())
	runner := NewRunner(store, factory, RunnerConfig{WorkerCount: 1, QueueSize: 1}, slog.Default())

	// Without workers running, the second submit finds the channel full.
	first, err := factory.NewEmail("a@example.com", EmailKindTaskAssigned, nil)
	require.NoError(t, err)
	require.NoError(t, runner.Submit(context.Background(), first))

	second, err := factory.NewEmail("b@example.com", EmailKindTaskAssigned, nil)
	require.NoError(t, err)
	err = runner.Submit(context.Background(), second)
	require.Error(t, err)

	// The row is still persisted for the recovery pass.
	assert.Equal(t, JobStatusPending, store.status(second.ID()))
}
