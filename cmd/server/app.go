package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmehra/quizforge/internal/clean"
	"github.com/dmehra/quizforge/internal/config"
	"github.com/dmehra/quizforge/internal/domain"
	"github.com/dmehra/quizforge/internal/events"
	"github.com/dmehra/quizforge/internal/export"
	"github.com/dmehra/quizforge/internal/generation"
	"github.com/dmehra/quizforge/internal/platform/gemini"
	"github.com/dmehra/quizforge/internal/platform/postgres"
	"github.com/dmehra/quizforge/internal/poll"
	"github.com/dmehra/quizforge/internal/rotator"
	"github.com/dmehra/quizforge/internal/service"
	"github.com/dmehra/quizforge/internal/store"
	"github.com/dmehra/quizforge/internal/task"
)

// noopMessageDeleter satisfies the poll manager's MessageDeleter boundary
// until a chat transport registers a real one. Forwarded source messages
// then stay in the chat, which is harmless.
type noopMessageDeleter struct {
	logger *slog.Logger
}

func (d *noopMessageDeleter) DeleteMessage(_ context.Context, chatID int64, messageID int) error {
	d.logger.Debug("no transport registered, skipping source message delete",
		"chat_id", chatID,
		"message_id", messageID)
	return nil
}

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	// Configuration
	config *config.Config

	// Core services
	logger *slog.Logger
	db     *sql.DB

	// Stores
	authStore store.AuthorizationStore

	// Processing pipeline
	cleaner     *clean.Cleaner
	rotator     *rotator.Rotator
	queue       *task.Queue
	statuses    task.StatusStore
	pool        *task.WorkerPool
	generator   generation.Generator
	pollManager *poll.Manager
	coordinator *export.Coordinator

	// Event system
	emitter *events.InMemoryNoticeEmitter

	// Service interfaces
	quizService service.QuizService
	pollService service.PollService

	// dispatcher is the entry point a chat transport registers its
	// inbound traffic with.
	dispatcher *service.Dispatcher
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration, logger,
// and database connection that must be established before application
// initialization.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	app.authStore = postgres.NewPostgresAuthStore(db, logger)
	app.cleaner = clean.New(cfg.Clean.Marker, cfg.Clean.LinkTag)

	var err error
	app.rotator, err = rotator.New(credentialsFromConfig(cfg.LLM), rotator.Config{
		CooldownBase: time.Duration(cfg.LLM.CooldownBaseSeconds) * time.Second,
		CooldownCap:  time.Duration(cfg.LLM.CooldownCapSeconds) * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize credential rotator: %w", err)
	}

	app.generator, err = gemini.NewGenerator(logger, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize generator: %w", err)
	}

	app.queue = task.NewQueue(cfg.Queue.Capacity, logger)
	app.statuses = task.NewMemoryStatusStore()
	app.pool = task.NewWorkerPool(app.queue, app.statuses, task.WorkerPoolConfig{
		WorkerCount: cfg.Queue.WorkerCount,
	}, logger)

	app.emitter = events.NewInMemoryNoticeEmitter(logger,
		time.Duration(cfg.Poll.SendDelayMS)*time.Millisecond)
	app.coordinator = export.NewCoordinator(nil, app.cleaner, logger)
	app.pollManager = poll.NewManager(
		app.cleaner,
		&noopMessageDeleter{logger: logger},
		logger,
	)

	resultHandler, err := service.NewExportingResultHandler(
		app.coordinator,
		app.emitter,
		export.FormatCSV,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create result handler: %w", err)
	}

	app.quizService, err = service.NewQuizService(
		app.authStore,
		app.queue,
		app.generator,
		app.rotator,
		app.cleaner,
		resultHandler,
		app.emitter,
		task.QuizGenerationConfig{
			BatchSize:         cfg.Task.BatchSize,
			QuotaAttempts:     cfg.Task.QuotaAttempts,
			TransientAttempts: cfg.Task.TransientAttempts,
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create quiz service: %w", err)
	}

	app.pollService, err = service.NewPollService(
		app.authStore,
		app.pollManager,
		app.coordinator,
		app.emitter,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create poll service: %w", err)
	}

	app.dispatcher, err = service.NewDispatcher(app.quizService, app.pollService, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}

	app.pool.Start()

	logger.Info("application initialized successfully")
	return app, nil
}

// credentialsFromConfig turns the configured API keys into rotator
// credentials with stable positional IDs.
func credentialsFromConfig(cfg config.LLMConfig) []domain.Credential {
	credentials := make([]domain.Credential, 0, len(cfg.GeminiAPIKeys))
	for i, key := range cfg.GeminiAPIKeys {
		credentials = append(credentials, domain.Credential{
			ID:     fmt.Sprintf("key-%d", i+1),
			Secret: key,
		})
	}
	return credentials
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	// Stop accepting work, then wait for running tasks.
	if app.queue != nil {
		app.queue.Close()
	}
	if app.pool != nil {
		app.pool.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
