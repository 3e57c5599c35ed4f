package service

import (
	"context"
	"sync"

	"github.com/dmehra/quizforge/internal/domain"
	"github.com/dmehra/quizforge/internal/events"
	"github.com/dmehra/quizforge/internal/generation"
	"github.com/dmehra/quizforge/internal/rotator"
	"github.com/dmehra/quizforge/internal/store"
	"github.com/dmehra/quizforge/internal/task"
)

// fakeAuthStore answers allowlist checks from in-memory sets.
type fakeAuthStore struct {
	allowed map[int64]bool
	sudo    map[int64]bool
	err     error
}

func (f *fakeAuthStore) IsAllowed(_ context.Context, userID int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.allowed[userID], nil
}

func (f *fakeAuthStore) IsSudo(_ context.Context, userID int64) (bool, error) {
	return f.sudo[userID], nil
}

func (f *fakeAuthStore) Allow(_ context.Context, userID int64, sudo bool) error {
	f.allowed[userID] = true
	if sudo {
		f.sudo[userID] = true
	}
	return nil
}

func (f *fakeAuthStore) Revoke(_ context.Context, userID int64) error {
	delete(f.allowed, userID)
	delete(f.sudo, userID)
	return nil
}

func (f *fakeAuthStore) List(_ context.Context) ([]store.AllowedUser, error) {
	return nil, nil
}

// fakeRunner records submissions and returns scripted errors.
type fakeRunner struct {
	submitErr error
	cancelErr error
	position  int

	submitted []task.Task
	cancelled []int64
}

func (f *fakeRunner) Submit(t task.Task) error {
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submitted = append(f.submitted, t)
	return nil
}

func (f *fakeRunner) Cancel(sessionID int64) error {
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.cancelled = append(f.cancelled, sessionID)
	return nil
}

func (f *fakeRunner) Position(int64) int { return f.position }

// recordingEmitter captures every emitted notice.
type recordingEmitter struct {
	mu      sync.Mutex
	notices []*events.Notice
	err     error
}

func (e *recordingEmitter) EmitNotice(_ context.Context, notice *events.Notice) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.notices = append(e.notices, notice)
	return nil
}

func (e *recordingEmitter) byType(t events.NoticeType) []*events.Notice {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []*events.Notice
	for _, n := range e.notices {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

// stubGenerator satisfies generation.Generator for wiring tests.
type stubGenerator struct{}

func (stubGenerator) GenerateRecords(
	_ context.Context,
	_ []generation.ItemRef,
	_ generation.Mode,
	_ domain.Credential,
) ([]domain.QuizRecord, error) {
	return nil, nil
}

// stubCredentials satisfies task.CredentialSource for wiring tests.
type stubCredentials struct{}

func (stubCredentials) Acquire() domain.Credential {
	return domain.Credential{ID: "k", Secret: "s"}
}

func (stubCredentials) ReportFailure(domain.Credential, rotator.FailureKind) error { return nil }

func (stubCredentials) ReportSuccess(domain.Credential) error { return nil }

// stubResults satisfies task.ResultHandler for wiring tests.
type stubResults struct{}

func (stubResults) HandleResult(context.Context, task.Result) error { return nil }
