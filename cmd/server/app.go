package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/phrazzld/taskboard-api/internal/api"
	"github.com/phrazzld/taskboard-api/internal/api/middleware"
	"github.com/phrazzld/taskboard-api/internal/config"
	"github.com/phrazzld/taskboard-api/internal/events"
	"github.com/phrazzld/taskboard-api/internal/jobs"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/platform/mail"
	"github.com/phrazzld/taskboard-api/internal/platform/postgres"
	"github.com/phrazzld/taskboard-api/internal/platform/storage"
	"github.com/phrazzld/taskboard-api/internal/service"
	"github.com/phrazzld/taskboard-api/internal/store"
	"github.com/phrazzld/taskboard-api/internal/sweeper"
	"github.com/phrazzld/taskboard-api/internal/ws"
	"github.com/phrazzld/taskboard-api/migrations"
)

const shutdownTimeout = 15 * time.Second

// application holds the wired components whose lifecycle the server
// manages.
type application struct {
	cfg     *config.Config
	logger  *slog.Logger
	db      *sql.DB
	runner  *jobs.Runner
	sweeper *sweeper.Sweeper
	server  *http.Server
}

// initializeApp loads configuration and wires every component together:
// database, stores, event handlers, services, background workers and the
// HTTP router.
func initializeApp() (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("sweeper_schedule", cfg.Sweeper.Schedule),
		slog.String("sweeper_timezone", cfg.Sweeper.Timezone))

	db, err := openDatabase(cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(db); err != nil {
		return nil, err
	}

	// Stores
	taskStore := postgres.NewPostgresTaskStore(db, appLogger)
	historyStore := postgres.NewPostgresHistoryStore(db, appLogger)
	sprintStore := postgres.NewPostgresSprintStore(db, appLogger)
	memberStore := postgres.NewPostgresMemberStore(db, appLogger)
	notificationStore := postgres.NewPostgresNotificationStore(db, appLogger)
	taskFileStore := postgres.NewPostgresTaskFileStore(db, appLogger)
	projectStore := postgres.NewPostgresProjectStore(db, appLogger)
	timeEntryStore := postgres.NewPostgresTimeEntryStore(db, appLogger)
	statsStore := postgres.NewPostgresStatsStore(db, appLogger)
	userStore := postgres.NewPostgresUserStore(db, appLogger)
	jobStore := postgres.NewPostgresJobStore(db, appLogger)

	txRunner := store.NewSQLRunner(db)

	// Post-commit side effect pipeline
	emailSender := mail.NewLogSender(appLogger)
	objectStorage, err := storage.NewFilesystemStorage(cfg.Storage.Root, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize object storage: %w", err)
	}

	jobFactory := jobs.NewFactory(emailSender, objectStorage)
	runnerConfig := jobs.DefaultRunnerConfig()
	runnerConfig.WorkerCount = cfg.Jobs.WorkerCount
	runnerConfig.QueueSize = cfg.Jobs.QueueSize
	runner := jobs.NewRunner(jobStore, jobFactory, runnerConfig, appLogger)

	hub := ws.NewHub(appLogger)

	emitter := events.NewInMemoryEventEmitter(appLogger)
	emitter.RegisterHandler(jobs.NewQueueEventHandler(jobFactory, runner, appLogger))
	emitter.RegisterHandler(ws.NewPushEventHandler(hub, appLogger))

	notifier := service.NewNotifier(userStore, emitter, appLogger)

	// Services
	taskService, err := service.NewTaskService(
		txRunner, taskStore, historyStore, sprintStore, memberStore,
		notificationStore, taskFileStore, projectStore, notifier, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	sprintService, err := service.NewSprintService(
		txRunner, sprintStore, taskStore, taskFileStore, memberStore, notifier, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create sprint service: %w", err)
	}

	timerService, err := service.NewTimerService(timeEntryStore, taskStore, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create timer service: %w", err)
	}

	statsService, err := service.NewStatsService(
		statsStore, projectStore, sprintStore, memberStore, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create stats service: %w", err)
	}

	// Overdue sweeper
	location, err := time.LoadLocation(cfg.Sweeper.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid sweeper timezone %q: %w", cfg.Sweeper.Timezone, err)
	}
	overdueSweeper, err := sweeper.New(
		txRunner, taskStore, historyStore, cfg.Sweeper.Schedule, location, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create sweeper: %w", err)
	}

	// HTTP layer
	authMiddleware := middleware.NewAuthMiddleware(
		middleware.NewJWTVerifier(cfg.Auth.JWTSecret))

	router := api.NewRouter(api.Handlers{
		Tasks:         api.NewTaskHandler(taskService, appLogger),
		Sprints:       api.NewSprintHandler(sprintService, appLogger),
		Stats:         api.NewStatsHandler(statsService, appLogger),
		Timers:        api.NewTimerHandler(timerService, appLogger),
		Notifications: api.NewNotificationHandler(notificationStore, appLogger),
		Sweep:         api.NewSweepHandler(overdueSweeper, appLogger),
		WS:            api.NewWSHandler(hub, appLogger),
	}, authMiddleware)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &application{
		cfg:     cfg,
		logger:  appLogger,
		db:      db,
		runner:  runner,
		sweeper: overdueSweeper,
		server:  server,
	}, nil
}

// Run starts the background workers and the HTTP server, then blocks
// until an interrupt arrives and everything has shut down.
func (a *application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.runner.Start(); err != nil {
		return fmt.Errorf("failed to start job runner: %w", err)
	}

	if err := a.sweeper.Start(ctx); err != nil {
		return fmt.Errorf("failed to start overdue sweeper: %w", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server listening", slog.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("HTTP server shutdown failed", slog.String("error", err.Error()))
	}

	a.sweeper.Stop()
	a.runner.Stop()

	if err := a.db.Close(); err != nil {
		a.logger.Error("database close failed", slog.String("error", err.Error()))
	}

	a.logger.Info("shutdown complete")
	return nil
}

// openDatabase opens and verifies the connection pool.
func openDatabase(url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// runMigrations applies the embedded SQL migrations.
func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}
