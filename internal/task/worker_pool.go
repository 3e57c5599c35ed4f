package task

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// WorkerPoolConfig holds configuration options for the worker pool
type WorkerPoolConfig struct {
	// WorkerCount determines how many concurrent worker goroutines to start
	// If zero or negative, defaults to 1
	WorkerCount int
}

// DefaultWorkerPoolConfig returns a WorkerPoolConfig with reasonable defaults
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		WorkerCount: 10,
	}
}

// WorkerPool manages a pool of worker goroutines that process tasks from
// the bounded queue. A single task's failure never stops the pool or
// affects other sessions.
type WorkerPool struct {
	queue    *Queue
	statuses StatusStore

	workerCount int

	// wg tracks active worker goroutines for clean shutdown
	wg sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	logger *slog.Logger

	// errorHandler is called when a task execution fails
	// If nil, errors are only logged
	errorHandler func(task Task, err error)
}

// NewWorkerPool creates a new worker pool reading from the given queue.
func NewWorkerPool(
	queue *Queue,
	statuses StatusStore,
	config WorkerPoolConfig,
	logger *slog.Logger,
) *WorkerPool {
	workerCount := config.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", 1)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		queue:       queue,
		statuses:    statuses,
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger,
	}
}

// SetErrorHandler allows setting a custom error handler for task execution failures
func (p *WorkerPool) SetErrorHandler(handler func(task Task, err error)) {
	p.errorHandler = handler
}

// Start launches the worker goroutines.
func (p *WorkerPool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.logger.Info("worker pool started", "worker_count", p.workerCount)
}

// Stop shuts the pool down and waits for in-flight tasks to finish their
// current batch and exit at the next cancellation checkpoint.
func (p *WorkerPool) Stop() {
	p.cancel()
	p.wg.Wait()
	p.logger.Info("worker pool stopped")
}

// worker processes tasks from the queue until shutdown.
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("starting worker", "worker_id", id)

	for {
		task, err := p.queue.Dequeue(p.ctx)
		if err != nil {
			p.logger.Debug("stopping worker", "worker_id", id, "reason", err)
			return
		}

		p.processTask(task, id)
	}
}

// processTask handles execution of a single task.
func (p *WorkerPool) processTask(task Task, workerID int) {
	defer p.queue.Release(task.SessionID())

	logger := p.logger.With(
		"task_id", task.ID(),
		"task_type", task.Type(),
		"session_id", task.SessionID(),
		"worker_id", workerID,
	)

	p.statuses.SetStatus(task.ID(), task.SessionID(), TaskStatusRunning, "")
	logger.Info("processing task")

	err := task.Execute(p.ctx)

	switch {
	case err == nil:
		logger.Info("task completed successfully")
		p.statuses.SetStatus(task.ID(), task.SessionID(), TaskStatusCompleted, "")

	case errors.Is(err, ErrCancelled):
		logger.Info("task cancelled")
		p.statuses.SetStatus(task.ID(), task.SessionID(), TaskStatusCancelled, err.Error())

	default:
		logger.Error("task execution failed", "error", err)
		p.statuses.SetStatus(task.ID(), task.SessionID(), TaskStatusFailed, err.Error())
		if p.errorHandler != nil {
			p.errorHandler(task, err)
		}
	}
}
