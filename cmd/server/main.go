// Package main implements the entry point for the QuizForge server,
// which turns user-submitted documents and images into multiple-choice
// quizzes via an LLM, collects forwarded polls, and exports either
// source into formatted documents.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/dmehra/quizforge/internal/config"
	"github.com/dmehra/quizforge/internal/platform/logger"
)

// main initializes configuration, logging, the database, and the
// application dependency graph, then runs the server until shutdown.
func main() {
	ctx := context.Background()

	cfg, appLogger, err := initializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	db, err := setupAppDatabase(cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := runMigrations(db, appLogger); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	app, err := newApplication(ctx, cfg, appLogger, db)
	if err != nil {
		log.Fatalf("Failed to build application: %v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// initializeApp loads configuration and sets up structured logging.
func initializeApp() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"queue_capacity", cfg.Queue.Capacity,
		"worker_count", cfg.Queue.WorkerCount,
		"credential_count", len(cfg.LLM.GeminiAPIKeys),
		"model", cfg.LLM.ModelName,
		"poll_send_delay_ms", cfg.Poll.SendDelayMS)

	return cfg, appLogger, nil
}
