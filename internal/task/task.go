package task

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the current state of a task
type TaskStatus string

// Possible task status values
const (
	TaskStatusQueued    TaskStatus = "queued"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusCancelled TaskStatus = "cancelled"
)

// Task type constants
const (
	// TaskTypeQuizGeneration represents the task type for producing quiz
	// records from submitted documents or images
	TaskTypeQuizGeneration = "quiz_generation"
)

// ErrCancelled is returned by Execute when a task aborts at a
// cancellation checkpoint.
var ErrCancelled = errors.New("task cancelled")

// Task represents a unit of background work to be processed.
// One live task exists per session at any time; the queue enforces this
// at submission.
type Task interface {
	// ID returns the task's unique identifier
	ID() uuid.UUID

	// SessionID returns the submitting session's identifier
	SessionID() int64

	// Type returns the task type identifier
	Type() string

	// Execute runs the task logic
	Execute(ctx context.Context) error

	// Cancel flags the task for cooperative cancellation. Execute
	// observes the flag at safe points and aborts with ErrCancelled.
	Cancel()
}

// StatusRecord is one task's lifecycle entry in the status store.
type StatusRecord struct {
	TaskID    uuid.UUID
	SessionID int64
	Status    TaskStatus
	Error     string
	UpdatedAt time.Time
}

// StatusStore tracks task lifecycle state. The in-memory implementation
// is the default; durability across restarts is deliberately not offered.
type StatusStore interface {
	// SetStatus records the task's current status. errMsg carries the
	// failure reason for failed tasks and is empty otherwise.
	SetStatus(taskID uuid.UUID, sessionID int64, status TaskStatus, errMsg string)

	// GetStatus returns the task's current status record.
	GetStatus(taskID uuid.UUID) (StatusRecord, bool)

	// CountByStatus returns how many tracked tasks are in the given status.
	CountByStatus(status TaskStatus) int
}

// MemoryStatusStore is a mutex-guarded in-memory StatusStore.
type MemoryStatusStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]StatusRecord
}

// NewMemoryStatusStore creates an empty MemoryStatusStore.
func NewMemoryStatusStore() *MemoryStatusStore {
	return &MemoryStatusStore{
		records: make(map[uuid.UUID]StatusRecord),
	}
}

// SetStatus records the task's current status.
func (s *MemoryStatusStore) SetStatus(
	taskID uuid.UUID,
	sessionID int64,
	status TaskStatus,
	errMsg string,
) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[taskID] = StatusRecord{
		TaskID:    taskID,
		SessionID: sessionID,
		Status:    status,
		Error:     errMsg,
		UpdatedAt: time.Now().UTC(),
	}
}

// GetStatus returns the task's current status record.
func (s *MemoryStatusStore) GetStatus(taskID uuid.UUID) (StatusRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[taskID]
	return rec, ok
}

// CountByStatus returns how many tracked tasks are in the given status.
func (s *MemoryStatusStore) CountByStatus(status TaskStatus) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, rec := range s.records {
		if rec.Status == status {
			n++
		}
	}
	return n
}
