package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Common errors returned by the Queue
var (
	ErrQueueClosed      = errors.New("task queue is closed")
	ErrQueueFull        = errors.New("task queue is full")
	ErrDuplicateSession = errors.New("session already has a task in flight")
	ErrSessionNotQueued = errors.New("session has no task in flight")
)

// sessionState marks where a session's live task currently is.
type sessionState int

const (
	sessionQueued sessionState = iota
	sessionRunning
)

// Queue is a capacity-bounded FIFO task queue that admits at most one
// live (queued or running) task per session. Submission never blocks:
// a full queue or a duplicate session is rejected immediately.
type Queue struct {
	mu       sync.Mutex
	pending  []Task
	running  map[int64]Task
	sessions map[int64]sessionState
	capacity int
	closed   bool

	// notify wakes one parked worker after a submit.
	notify chan struct{}

	logger *slog.Logger
}

// NewQueue creates a queue with the given capacity bound on live
// (queued plus running) tasks.
func NewQueue(capacity int, logger *slog.Logger) *Queue {
	if capacity <= 0 {
		logger.Warn("invalid queue capacity specified, using minimum",
			"specified_capacity", capacity)
		capacity = 1
	}

	return &Queue{
		pending:  make([]Task, 0, capacity),
		running:  make(map[int64]Task),
		sessions: make(map[int64]sessionState),
		capacity: capacity,
		notify:   make(chan struct{}, capacity),
		logger:   logger.With("component", "task_queue"),
	}
}

// Submit adds a task for processing. Returns ErrQueueFull when the
// capacity bound is reached and ErrDuplicateSession when the session
// already has a queued or running task.
func (q *Queue) Submit(task Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	sid := task.SessionID()
	if _, exists := q.sessions[sid]; exists {
		return fmt.Errorf("%w: session %d", ErrDuplicateSession, sid)
	}

	if len(q.sessions) >= q.capacity {
		return fmt.Errorf("%w: capacity %d reached", ErrQueueFull, q.capacity)
	}

	q.pending = append(q.pending, task)
	q.sessions[sid] = sessionQueued

	q.logger.Debug("task enqueued",
		"task_id", task.ID(),
		"task_type", task.Type(),
		"session_id", sid,
		"queue_len", len(q.pending),
		"queue_cap", q.capacity)

	select {
	case q.notify <- struct{}{}:
	default:
	}

	return nil
}

// Dequeue blocks until a task is available or the context is cancelled.
// The returned task's session is marked running; the worker must call
// Release when done with it.
func (q *Queue) Dequeue(ctx context.Context) (Task, error) {
	for {
		q.mu.Lock()
		if len(q.pending) > 0 {
			task := q.pending[0]
			q.pending = q.pending[1:]
			q.sessions[task.SessionID()] = sessionRunning
			q.running[task.SessionID()] = task
			q.mu.Unlock()
			return task, nil
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return nil, ErrQueueClosed
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.notify:
		}
	}
}

// Release ends a session's claim on the queue, allowing the session to
// submit again. Called by workers once a task reaches a terminal state.
func (q *Queue) Release(sessionID int64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.sessions, sessionID)
	delete(q.running, sessionID)
}

// Cancel cancels the session's live task. A queued task is removed from
// the queue immediately; a running task is flagged for cooperative
// cancellation and keeps its queue slot until the worker observes the
// flag and releases it.
func (q *Queue) Cancel(sessionID int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	state, exists := q.sessions[sessionID]
	if !exists {
		return fmt.Errorf("%w: session %d", ErrSessionNotQueued, sessionID)
	}

	if state == sessionQueued {
		for i, t := range q.pending {
			if t.SessionID() == sessionID {
				q.pending = append(q.pending[:i], q.pending[i+1:]...)
				t.Cancel()
				break
			}
		}
		delete(q.sessions, sessionID)
		q.logger.Info("queued task removed", "session_id", sessionID)
		return nil
	}

	// Running: best-effort. The worker checks the flag between batches.
	if t, ok := q.running[sessionID]; ok {
		t.Cancel()
	}
	q.logger.Info("running task flagged for cancellation", "session_id", sessionID)
	return nil
}

// Position returns the 1-based queue position of the session's queued
// task, or 0 when the session has nothing queued.
func (q *Queue) Position(sessionID int64) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, t := range q.pending {
		if t.SessionID() == sessionID {
			return i + 1
		}
	}
	return 0
}

// Len returns the number of queued (not yet running) tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Live returns the number of live (queued plus running) tasks.
func (q *Queue) Live() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.sessions)
}

// Close prevents further submissions and unblocks parked workers.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	close(q.notify)
	q.logger.Info("task queue closed")
}
