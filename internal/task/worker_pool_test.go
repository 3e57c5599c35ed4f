package task

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPoolProcessesTasks(t *testing.T) {
	logger := setupTestLogger()
	q := NewQueue(10, logger)
	statuses := NewMemoryStatusStore()

	var executed atomic.Int32
	pool := NewWorkerPool(q, statuses, WorkerPoolConfig{WorkerCount: 3}, logger)
	pool.Start()
	defer pool.Stop()

	tasks := make([]*mockTask, 0, 5)
	for i := 0; i < 5; i++ {
		mt := newMockTask(int64(i))
		mt.execFn = func(ctx context.Context) error {
			executed.Add(1)
			return nil
		}
		tasks = append(tasks, mt)
		require.NoError(t, q.Submit(mt))
	}

	for _, mt := range tasks {
		rec, ok := pollStatus(statuses, mt, TaskStatusCompleted, 2*time.Second)
		require.True(t, ok, "task %s did not complete", mt.ID())
		assert.Empty(t, rec.Error)
	}
	assert.Equal(t, int32(5), executed.Load())

	// All sessions released: every session can submit again.
	for i := 0; i < 5; i++ {
		assert.NoError(t, q.Submit(newMockTask(int64(i+100))))
	}
}

func TestWorkerPoolSurvivesTaskFailure(t *testing.T) {
	logger := setupTestLogger()
	q := NewQueue(10, logger)
	statuses := NewMemoryStatusStore()

	var handlerCalls atomic.Int32
	pool := NewWorkerPool(q, statuses, WorkerPoolConfig{WorkerCount: 2}, logger)
	pool.SetErrorHandler(func(task Task, err error) {
		handlerCalls.Add(1)
	})
	pool.Start()
	defer pool.Stop()

	boom := newMockTask(1)
	boom.execFn = func(ctx context.Context) error {
		return errors.New("provider exploded")
	}
	require.NoError(t, q.Submit(boom))

	ok1 := newMockTask(2)
	require.NoError(t, q.Submit(ok1))

	rec, found := pollStatus(statuses, boom, TaskStatusFailed, 2*time.Second)
	require.True(t, found)
	assert.Contains(t, rec.Error, "provider exploded")

	// The failure neither stopped the pool nor the other session's task.
	_, found = pollStatus(statuses, ok1, TaskStatusCompleted, 2*time.Second)
	assert.True(t, found)
	assert.Equal(t, int32(1), handlerCalls.Load())
}

func TestWorkerPoolRecordsCancellation(t *testing.T) {
	logger := setupTestLogger()
	q := NewQueue(10, logger)
	statuses := NewMemoryStatusStore()

	pool := NewWorkerPool(q, statuses, WorkerPoolConfig{WorkerCount: 1}, logger)
	pool.Start()
	defer pool.Stop()

	started := make(chan struct{})
	proceed := make(chan struct{})

	mt := newMockTask(1)
	mt.execFn = func(ctx context.Context) error {
		close(started)
		<-proceed
		if mt.cancelled.Load() {
			return ErrCancelled
		}
		return nil
	}
	require.NoError(t, q.Submit(mt))

	<-started
	require.NoError(t, q.Cancel(1))
	close(proceed)

	_, found := pollStatus(statuses, mt, TaskStatusCancelled, 2*time.Second)
	assert.True(t, found)
}

func TestWorkerPoolStopWaitsForWorkers(t *testing.T) {
	logger := setupTestLogger()
	q := NewQueue(10, logger)
	statuses := NewMemoryStatusStore()

	var mu sync.Mutex
	inFlight := 0

	pool := NewWorkerPool(q, statuses, WorkerPoolConfig{WorkerCount: 2}, logger)
	pool.Start()

	mt := newMockTask(1)
	mt.execFn = func(ctx context.Context) error {
		mu.Lock()
		inFlight++
		mu.Unlock()
		time.Sleep(50 * time.Millisecond)
		mu.Lock()
		inFlight--
		mu.Unlock()
		return nil
	}
	require.NoError(t, q.Submit(mt))

	time.Sleep(10 * time.Millisecond)
	pool.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, inFlight, "Stop returned while a task was executing")
}

func TestWorkerPoolDefaultsInvalidWorkerCount(t *testing.T) {
	logger := setupTestLogger()
	q := NewQueue(1, logger)
	pool := NewWorkerPool(q, NewMemoryStatusStore(), WorkerPoolConfig{WorkerCount: -3}, logger)
	assert.Equal(t, 1, pool.workerCount)
}

// pollStatus waits for the task to reach the wanted status.
func pollStatus(store StatusStore, task Task, want TaskStatus, timeout time.Duration) (StatusRecord, bool) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if rec, ok := store.GetStatus(task.ID()); ok && rec.Status == want {
			return rec, true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return StatusRecord{}, false
}
