package task

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
)

// mockTask implements the Task interface for tests in this package.
type mockTask struct {
	id        uuid.UUID
	sessionID int64
	taskType  string
	cancelled atomic.Bool
	execFn    func(ctx context.Context) error
}

func newMockTask(sessionID int64) *mockTask {
	return &mockTask{
		id:        uuid.New(),
		sessionID: sessionID,
		taskType:  "mock",
	}
}

func (m *mockTask) ID() uuid.UUID {
	return m.id
}

func (m *mockTask) SessionID() int64 {
	return m.sessionID
}

func (m *mockTask) Type() string {
	return m.taskType
}

func (m *mockTask) Cancel() {
	m.cancelled.Store(true)
}

func (m *mockTask) Execute(ctx context.Context) error {
	if m.cancelled.Load() {
		return ErrCancelled
	}
	if m.execFn != nil {
		return m.execFn(ctx)
	}
	return nil
}
