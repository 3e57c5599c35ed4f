package task

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra/quizforge/internal/clean"
	"github.com/dmehra/quizforge/internal/domain"
	"github.com/dmehra/quizforge/internal/generation"
	"github.com/dmehra/quizforge/internal/rotator"
)

// failoverCreds is a CredentialSource that hands out the active
// credential and advances to the next one on a quota failure.
type failoverCreds struct {
	mu       sync.Mutex
	creds    []domain.Credential
	active   int
	failures []string
	acquired []string
}

func newFailoverCreds(ids ...string) *failoverCreds {
	creds := make([]domain.Credential, 0, len(ids))
	for _, id := range ids {
		creds = append(creds, domain.Credential{ID: id, Secret: "secret-" + id})
	}
	return &failoverCreds{creds: creds}
}

func (f *failoverCreds) Acquire() domain.Credential {
	f.mu.Lock()
	defer f.mu.Unlock()
	cred := f.creds[f.active]
	f.acquired = append(f.acquired, cred.ID)
	return cred
}

func (f *failoverCreds) ReportFailure(cred domain.Credential, kind rotator.FailureKind) error {
	if kind != rotator.FailureQuota {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = append(f.failures, cred.ID)
	if f.active < len(f.creds)-1 {
		f.active++
	}
	return nil
}

func (f *failoverCreds) ReportSuccess(cred domain.Credential) error {
	return nil
}

// recordingHandler captures delivered results.
type recordingHandler struct {
	mu      sync.Mutex
	results []Result
}

func (h *recordingHandler) HandleResult(ctx context.Context, result Result) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.results = append(h.results, result)
	return nil
}

func (h *recordingHandler) last() (Result, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.results) == 0 {
		return Result{}, false
	}
	return h.results[len(h.results)-1], true
}

// scriptedGenerator produces one record per item and fails according to
// the per-call script keyed by 1-based outbound call number.
type scriptedGenerator struct {
	mu    sync.Mutex
	calls int
	// failWhen returns the error for this call, or nil for success.
	failWhen func(call int, cred domain.Credential) error
	batches  [][]generation.ItemRef
}

func (g *scriptedGenerator) GenerateRecords(
	ctx context.Context,
	items []generation.ItemRef,
	mode generation.Mode,
	cred domain.Credential,
) ([]domain.QuizRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls++
	if g.failWhen != nil {
		if err := g.failWhen(g.calls, cred); err != nil {
			return nil, err
		}
	}

	g.batches = append(g.batches, items)

	records := make([]domain.QuizRecord, 0, len(items))
	for _, item := range items {
		records = append(records, domain.QuizRecord{
			Question:     "[TSS] Question for " + item.URI + " http://x.co",
			Options:      []string{"yes", "no"},
			CorrectIndex: 0,
		})
	}
	return records, nil
}

func makeItems(n int) []generation.ItemRef {
	items := make([]generation.ItemRef, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, generation.ItemRef{URI: fmt.Sprintf("page-%02d", i+1)})
	}
	return items
}

func newTestTask(
	t *testing.T,
	items []generation.ItemRef,
	gen generation.Generator,
	creds CredentialSource,
	handler ResultHandler,
	progress ProgressFunc,
) *QuizGenerationTask {
	t.Helper()
	task, err := NewQuizGenerationTask(
		1, items, generation.ModeGeneration,
		gen, creds, clean.New("", ""), handler, progress,
		DefaultQuizGenerationConfig(), setupTestLogger(),
	)
	require.NoError(t, err)
	return task
}

func TestQuizGenerationHappyPath(t *testing.T) {
	gen := &scriptedGenerator{}
	creds := newFailoverCreds("A")
	handler := &recordingHandler{}

	var progress [][2]int
	task := newTestTask(t, makeItems(45), gen, creds, handler, func(done, total int) {
		progress = append(progress, [2]int{done, total})
	})

	require.NoError(t, task.Execute(context.Background()))

	result, ok := handler.last()
	require.True(t, ok)
	assert.False(t, result.Partial)
	assert.Len(t, result.Records, 45)

	// Batches executed in order: 30 items, then 15.
	require.Len(t, gen.batches, 2)
	assert.Len(t, gen.batches[0], 30)
	assert.Len(t, gen.batches[1], 15)
	assert.Equal(t, "page-01", gen.batches[0][0].URI)
	assert.Equal(t, "page-31", gen.batches[1][0].URI)

	assert.Equal(t, [][2]int{{1, 2}, {2, 2}}, progress)

	// Records were cleaned before delivery.
	assert.Equal(t, "Question for page-01", result.Records[0].Question)
}

func TestQuizGenerationRotatesCredentialOnRateLimit(t *testing.T) {
	// Credential A fails rate-limited on outbound call 2; the retry of
	// that batch must run on credential B and the task still completes
	// with every record.
	gen := &scriptedGenerator{
		failWhen: func(call int, cred domain.Credential) error {
			if call == 2 && cred.ID == "A" {
				return generation.ErrRateLimited
			}
			return nil
		},
	}
	creds := newFailoverCreds("A", "B")
	handler := &recordingHandler{}

	task := newTestTask(t, makeItems(45), gen, creds, handler, nil)
	require.NoError(t, task.Execute(context.Background()))

	result, ok := handler.last()
	require.True(t, ok)
	assert.False(t, result.Partial)
	assert.Len(t, result.Records, 45)

	// Call 1: batch 1 on A. Call 2: batch 2 on A, rate limited.
	// Call 3: batch 2 retried on B.
	assert.Equal(t, []string{"A", "A", "B"}, creds.acquired)
	assert.Equal(t, []string{"A"}, creds.failures)

	// Batch order preserved across the retry.
	require.Len(t, gen.batches, 2)
	assert.Len(t, gen.batches[0], 30)
	assert.Len(t, gen.batches[1], 15)
}

func TestQuizGenerationSurfacesPartialResults(t *testing.T) {
	// Batch 1 (calls 1) succeeds; batch 2 keeps failing rate-limited
	// until every attempt is exhausted. Exactly one batch's worth of
	// records must surface, flagged partial.
	gen := &scriptedGenerator{
		failWhen: func(call int, cred domain.Credential) error {
			if call >= 2 {
				return generation.ErrRateLimited
			}
			return nil
		},
	}
	creds := newFailoverCreds("A", "B", "C")
	handler := &recordingHandler{}

	task := newTestTask(t, makeItems(45), gen, creds, handler, nil)
	err := task.Execute(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, generation.ErrRateLimited)

	result, ok := handler.last()
	require.True(t, ok)
	assert.True(t, result.Partial)
	assert.Len(t, result.Records, 30, "exactly the completed batch's records")
	assert.Equal(t, "Question for page-01", result.Records[0].Question)
}

func TestQuizGenerationTransientRetriedOnce(t *testing.T) {
	gen := &scriptedGenerator{
		failWhen: func(call int, cred domain.Credential) error {
			if call == 1 {
				return generation.ErrTransient
			}
			return nil
		},
	}
	creds := newFailoverCreds("A")
	handler := &recordingHandler{}

	task := newTestTask(t, makeItems(10), gen, creds, handler, nil)
	require.NoError(t, task.Execute(context.Background()))

	result, ok := handler.last()
	require.True(t, ok)
	assert.Len(t, result.Records, 10)
	// Transient failures do not burn the credential.
	assert.Empty(t, creds.failures)
}

func TestQuizGenerationTransientExhaustion(t *testing.T) {
	gen := &scriptedGenerator{
		failWhen: func(call int, cred domain.Credential) error {
			return generation.ErrTransient
		},
	}
	handler := &recordingHandler{}

	task := newTestTask(t, makeItems(10), gen, newFailoverCreds("A"), handler, nil)
	err := task.Execute(context.Background())
	assert.ErrorIs(t, err, generation.ErrTransient)

	result, ok := handler.last()
	require.True(t, ok)
	assert.True(t, result.Partial)
	assert.Empty(t, result.Records)
}

func TestQuizGenerationInvalidInputNeverRetried(t *testing.T) {
	gen := &scriptedGenerator{
		failWhen: func(call int, cred domain.Credential) error {
			return generation.ErrInvalidInput
		},
	}
	handler := &recordingHandler{}

	task := newTestTask(t, makeItems(10), gen, newFailoverCreds("A", "B"), handler, nil)
	err := task.Execute(context.Background())
	assert.ErrorIs(t, err, generation.ErrInvalidInput)
	assert.Equal(t, 1, gen.calls, "invalid input must not be retried")
}

func TestQuizGenerationCancelledBetweenBatches(t *testing.T) {
	handler := &recordingHandler{}
	var task *QuizGenerationTask

	gen := &scriptedGenerator{
		failWhen: func(call int, cred domain.Credential) error {
			if call == 1 {
				// Cancellation arriving mid-call is only observed at
				// the next between-batch checkpoint.
				task.Cancel()
			}
			return nil
		},
	}

	task = newTestTask(t, makeItems(45), gen, newFailoverCreds("A"), handler, nil)
	err := task.Execute(context.Background())
	assert.ErrorIs(t, err, ErrCancelled)

	// The first batch completed; its records survive as partial output.
	result, ok := handler.last()
	require.True(t, ok)
	assert.True(t, result.Partial)
	assert.Len(t, result.Records, 30)
	assert.Equal(t, 1, gen.calls)
}

func TestNewQuizGenerationTaskValidation(t *testing.T) {
	gen := &scriptedGenerator{}
	creds := newFailoverCreds("A")
	handler := &recordingHandler{}
	cleaner := clean.New("", "")
	logger := setupTestLogger()
	cfg := DefaultQuizGenerationConfig()

	_, err := NewQuizGenerationTask(1, makeItems(1), generation.ModeExtraction,
		nil, creds, cleaner, handler, nil, cfg, logger)
	assert.ErrorIs(t, err, ErrNilGenerator)

	_, err = NewQuizGenerationTask(1, makeItems(1), generation.ModeExtraction,
		gen, nil, cleaner, handler, nil, cfg, logger)
	assert.ErrorIs(t, err, ErrNilCredentials)

	_, err = NewQuizGenerationTask(1, nil, generation.ModeExtraction,
		gen, creds, cleaner, handler, nil, cfg, logger)
	assert.ErrorIs(t, err, ErrNoItems)
}
