package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// RunnerConfig holds configuration for the job runner
type RunnerConfig struct {
	// WorkerCount determines how many concurrent workers process jobs
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory job queue
	QueueSize int

	// StuckJobAge defines how long a job can be in processing state
	// before it's considered stuck and reset
	StuckJobAge time.Duration

	// StuckJobCheckInterval defines how often to check for stuck jobs
	// If zero, defaults to 5 minutes
	StuckJobCheckInterval time.Duration
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		WorkerCount:           2,
		QueueSize:             100,
		StuckJobAge:           30 * time.Minute,
		StuckJobCheckInterval: 5 * time.Minute,
	}
}

// Runner manages background job processing. Jobs are persisted before they
// are queued, so delivery is at-least-once across restarts.
type Runner struct {
	store      JobStore
	factory    JobFactory
	jobChan    chan Job
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     RunnerConfig
	logger     *slog.Logger
	errHandler func(job Job, err error)
}

// NewRunner creates a new Runner
func NewRunner(store JobStore, factory JobFactory, config RunnerConfig, logger *slog.Logger) *Runner {
	if config.StuckJobCheckInterval == 0 {
		config.StuckJobCheckInterval = 5 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		store:      store,
		factory:    factory,
		jobChan:    make(chan Job, config.QueueSize),
		ctx:        ctx,
		cancelFunc: cancel,
		wg:         sync.WaitGroup{},
		config:     config,
		logger:     logger,
		errHandler: func(job Job, err error) {
			logger.Error("job execution failed",
				"job_id", job.ID(),
				"job_type", job.Type(),
				"error", err)
		},
	}
}

// SetErrorHandler allows setting a custom error handler function
func (r *Runner) SetErrorHandler(handler func(job Job, err error)) {
	r.errHandler = handler
}

// Submit persists a new job and adds it to the queue
func (r *Runner) Submit(ctx context.Context, job Job) error {
	// Save job to database first
	if err := r.store.SaveJob(ctx, job); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}

	// Then add to in-memory queue
	select {
	case r.jobChan <- job:
		return nil
	default:
		// Queue is full; the row stays pending and recovery picks it up
		return fmt.Errorf("job queue is full, try again later")
	}
}

// Start initializes the worker pool and begins processing jobs
func (r *Runner) Start() error {
	// Recover unfinished jobs from previous runs
	if err := r.Recover(); err != nil {
		return fmt.Errorf("failed to recover jobs: %w", err)
	}

	// Start worker goroutines
	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	// Start goroutine to check for stuck jobs periodically
	r.wg.Add(1)
	go r.stuckJobMonitor()

	return nil
}

// Stop gracefully shuts down the job runner
func (r *Runner) Stop() {
	r.cancelFunc()
	r.wg.Wait()
	close(r.jobChan)
}

// Recover loads any unfinished jobs from the database and requeues them
func (r *Runner) Recover() error {
	ctx := context.Background()

	pendingJobs, err := r.store.GetPendingJobs(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pending jobs: %w", err)
	}

	// Jobs in "processing" state were interrupted by a crash
	processingJobs, err := r.store.GetProcessingJobs(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to get processing jobs: %w", err)
	}

	r.logger.Info("recovering unfinished jobs",
		"pending_count", len(pendingJobs),
		"processing_count", len(processingJobs))

	for _, record := range pendingJobs {
		r.requeueRecord(record)
	}

	for _, record := range processingJobs {
		if err := r.store.UpdateJobStatus(ctx, record.ID, JobStatusPending, "Reset after recovery"); err != nil {
			r.logger.Error("failed to reset processing job status",
				"job_id", record.ID,
				"job_type", record.Type,
				"error", err)
			continue
		}
		r.requeueRecord(record)
	}

	return nil
}

// requeueRecord rehydrates a persisted job and pushes it onto the queue
func (r *Runner) requeueRecord(record JobRecord) {
	job, err := r.factory.FromRecord(record.ID, record.Type, record.Payload)
	if err != nil {
		r.logger.Error("failed to rehydrate job",
			"job_id", record.ID,
			"job_type", record.Type,
			"error", err)
		if updateErr := r.store.UpdateJobStatus(context.Background(), record.ID, JobStatusFailed, err.Error()); updateErr != nil {
			r.logger.Error("failed to mark unrecoverable job as failed",
				"job_id", record.ID,
				"error", updateErr)
		}
		return
	}

	select {
	case r.jobChan <- job:
		// Successfully requeued
	default:
		r.logger.Error("failed to requeue job, queue is full",
			"job_id", record.ID,
			"job_type", record.Type)
	}
}

// worker processes jobs from the queue
func (r *Runner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping worker", "worker_id", id)
			return

		case job, ok := <-r.jobChan:
			if !ok {
				r.logger.Debug("job channel closed, stopping worker", "worker_id", id)
				return
			}

			r.processJob(job, id)
		}
	}
}

// processJob handles execution of a single job
func (r *Runner) processJob(job Job, workerID int) {
	ctx := context.Background()
	logger := r.logger.With(
		"job_id", job.ID(),
		"job_type", job.Type(),
		"worker_id", workerID,
	)

	if err := r.store.UpdateJobStatus(ctx, job.ID(), JobStatusProcessing, ""); err != nil {
		logger.Error("failed to update job status to processing", "error", err)
		return
	}

	logger.Info("processing job")

	err := job.Execute(ctx)

	if err != nil {
		logger.Error("job execution failed", "error", err)
		if updateErr := r.store.UpdateJobStatus(ctx, job.ID(), JobStatusFailed, err.Error()); updateErr != nil {
			logger.Error("failed to update job status to failed", "error", updateErr)
		}

		r.errHandler(job, err)
	} else {
		logger.Info("job completed successfully")
		if updateErr := r.store.UpdateJobStatus(ctx, job.ID(), JobStatusCompleted, ""); updateErr != nil {
			logger.Error("failed to update job status to completed", "error", updateErr)
		}
	}
}

// stuckJobMonitor periodically checks for jobs that have been in
// "processing" state for too long and resets them
func (r *Runner) stuckJobMonitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.StuckJobCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return

		case <-ticker.C:
			ctx := context.Background()

			stuckJobs, err := r.store.GetProcessingJobs(ctx, r.config.StuckJobAge)
			if err != nil {
				r.logger.Error("failed to check for stuck jobs", "error", err)
				continue
			}

			if len(stuckJobs) == 0 {
				continue
			}

			r.logger.Info("found stuck jobs", "count", len(stuckJobs))

			for _, record := range stuckJobs {
				if err := r.store.UpdateJobStatus(ctx, record.ID, JobStatusPending,
					"Reset after being stuck in processing state"); err != nil {
					r.logger.Error("failed to reset stuck job status",
						"job_id", record.ID,
						"job_type", record.Type,
						"error", err)
					continue
				}

				r.requeueRecord(record)
			}
		}
	}
}
