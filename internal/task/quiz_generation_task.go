package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dmehra/quizforge/internal/clean"
	"github.com/dmehra/quizforge/internal/domain"
	"github.com/dmehra/quizforge/internal/generation"
	"github.com/dmehra/quizforge/internal/rotator"
)

// Common errors
var (
	ErrNilGenerator   = errors.New("generator cannot be nil")
	ErrNilCredentials = errors.New("credential source cannot be nil")
	ErrNilCleaner     = errors.New("cleaner cannot be nil")
	ErrNilResults     = errors.New("result handler cannot be nil")
	ErrNilLogger      = errors.New("logger cannot be nil")
	ErrNoItems        = errors.New("task has no items to process")
)

// CredentialSource is the slice of the rotator the task depends on.
type CredentialSource interface {
	Acquire() domain.Credential
	ReportFailure(cred domain.Credential, kind rotator.FailureKind) error
	ReportSuccess(cred domain.Credential) error
}

// Result carries a finished task's records back to the session.
// Partial is set when retry exhaustion or cancellation cut the task
// short: Records then holds everything the completed batches produced.
type Result struct {
	TaskID    uuid.UUID
	SessionID int64
	Mode      generation.Mode
	Records   []domain.QuizRecord
	Partial   bool
}

// ResultHandler receives task results. Implemented by the export side of
// the pipeline and by session notification.
type ResultHandler interface {
	HandleResult(ctx context.Context, result Result) error
}

// ProgressFunc reports batch progress: batches done out of total.
type ProgressFunc func(done, total int)

// QuizGenerationConfig bounds the task's batching and retry behavior.
type QuizGenerationConfig struct {
	// BatchSize is the number of items sent per outbound call.
	BatchSize int

	// QuotaAttempts is how many credentials a rate-limited batch tries
	// before the task fails.
	QuotaAttempts int

	// TransientAttempts is the total number of tries a batch gets when
	// the failure is a network or service hiccup.
	TransientAttempts int
}

// DefaultQuizGenerationConfig returns a QuizGenerationConfig with
// reasonable defaults.
func DefaultQuizGenerationConfig() QuizGenerationConfig {
	return QuizGenerationConfig{
		BatchSize:         30,
		QuotaAttempts:     3,
		TransientAttempts: 2,
	}
}

// QuizGenerationTask turns submitted document pages or images into quiz
// records. Items are processed in fixed-size batches, each batch through
// one outbound generation call authenticated with a credential acquired
// per call. Completed batches survive later failures: the task surfaces
// partial results rather than discarding work already paid for.
type QuizGenerationTask struct {
	id        uuid.UUID
	sessionID int64
	items     []generation.ItemRef
	mode      generation.Mode

	generator   generation.Generator
	credentials CredentialSource
	cleaner     *clean.Cleaner
	results     ResultHandler
	progress    ProgressFunc

	config    QuizGenerationConfig
	logger    *slog.Logger
	cancelled atomic.Bool
}

// NewQuizGenerationTask creates a quiz generation task for one session's
// submitted items.
func NewQuizGenerationTask(
	sessionID int64,
	items []generation.ItemRef,
	mode generation.Mode,
	generator generation.Generator,
	credentials CredentialSource,
	cleaner *clean.Cleaner,
	results ResultHandler,
	progress ProgressFunc,
	config QuizGenerationConfig,
	logger *slog.Logger,
) (*QuizGenerationTask, error) {
	if generator == nil {
		return nil, ErrNilGenerator
	}
	if credentials == nil {
		return nil, ErrNilCredentials
	}
	if cleaner == nil {
		return nil, ErrNilCleaner
	}
	if results == nil {
		return nil, ErrNilResults
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	if config.BatchSize <= 0 {
		config.BatchSize = DefaultQuizGenerationConfig().BatchSize
	}
	if config.QuotaAttempts <= 0 {
		config.QuotaAttempts = DefaultQuizGenerationConfig().QuotaAttempts
	}
	if config.TransientAttempts <= 0 {
		config.TransientAttempts = DefaultQuizGenerationConfig().TransientAttempts
	}

	id := uuid.New()
	return &QuizGenerationTask{
		id:          id,
		sessionID:   sessionID,
		items:       items,
		mode:        mode,
		generator:   generator,
		credentials: credentials,
		cleaner:     cleaner,
		results:     results,
		progress:    progress,
		config:      config,
		logger: logger.With(
			"task_type", TaskTypeQuizGeneration,
			"task_id", id,
			"session_id", sessionID,
		),
	}, nil
}

// ID returns the task's unique identifier
func (t *QuizGenerationTask) ID() uuid.UUID {
	return t.id
}

// SessionID returns the submitting session's identifier
func (t *QuizGenerationTask) SessionID() int64 {
	return t.sessionID
}

// Type returns the task type identifier
func (t *QuizGenerationTask) Type() string {
	return TaskTypeQuizGeneration
}

// Cancel flags the task for cooperative cancellation. The flag is
// checked between batches, never mid-outbound-call.
func (t *QuizGenerationTask) Cancel() {
	t.cancelled.Store(true)
}

// Execute processes the task's items batch by batch in submission order.
// On any terminal failure the records produced by completed batches are
// cleaned and delivered as a partial result before the error is returned.
func (t *QuizGenerationTask) Execute(ctx context.Context) error {
	batches := t.batches()
	collected := make([]domain.QuizRecord, 0, len(t.items))

	t.logger.Info("starting generation",
		"item_count", len(t.items),
		"batch_count", len(batches),
		"batch_size", t.config.BatchSize,
		"mode", t.mode)

	for i, batch := range batches {
		if t.cancelled.Load() {
			t.logger.Info("cancellation observed between batches",
				"completed_batches", i)
			t.deliver(ctx, collected, true)
			return fmt.Errorf("%w: after %d of %d batches", ErrCancelled, i, len(batches))
		}

		records, err := t.processBatch(ctx, batch)
		if err != nil {
			t.logger.Error("batch failed, surfacing partial results",
				"batch", i+1,
				"completed_batches", i,
				"error", err)
			t.deliver(ctx, collected, true)
			return fmt.Errorf("batch %d of %d: %w", i+1, len(batches), err)
		}

		collected = append(collected, records...)
		if t.progress != nil {
			t.progress(i+1, len(batches))
		}
	}

	t.deliver(ctx, collected, false)
	t.logger.Info("generation finished", "record_count", len(collected))
	return nil
}

// processBatch runs one outbound call for the batch, rotating credentials
// on quota failures and retrying transient ones within the configured
// bounds. Invalid-input and blocked-content failures are never retried.
func (t *QuizGenerationTask) processBatch(
	ctx context.Context,
	batch []generation.ItemRef,
) ([]domain.QuizRecord, error) {
	quotaAttempts := 0
	transientAttempts := 0

	for {
		cred := t.credentials.Acquire()

		records, err := t.generator.GenerateRecords(ctx, batch, t.mode, cred)
		if err == nil {
			if repErr := t.credentials.ReportSuccess(cred); repErr != nil {
				t.logger.Warn("failed to report credential success", "error", repErr)
			}
			return records, nil
		}

		switch {
		case errors.Is(err, generation.ErrRateLimited):
			if repErr := t.credentials.ReportFailure(cred, rotator.FailureQuota); repErr != nil {
				t.logger.Warn("failed to report credential failure", "error", repErr)
			}
			quotaAttempts++
			if quotaAttempts >= t.config.QuotaAttempts {
				return nil, fmt.Errorf("rate limited after %d credentials: %w",
					quotaAttempts, err)
			}
			t.logger.Warn("batch rate limited, rotating credential",
				"credential_id", cred.ID,
				"attempt", quotaAttempts)

		case errors.Is(err, generation.ErrTransient):
			if repErr := t.credentials.ReportFailure(cred, rotator.FailureTransient); repErr != nil {
				t.logger.Warn("failed to report credential failure", "error", repErr)
			}
			transientAttempts++
			if transientAttempts >= t.config.TransientAttempts {
				return nil, fmt.Errorf("transient failure after %d attempts: %w",
					transientAttempts, err)
			}
			t.logger.Warn("batch hit transient failure, retrying",
				"attempt", transientAttempts)

		default:
			// Invalid input, blocked content, malformed responses:
			// retrying cannot help.
			return nil, err
		}
	}
}

// deliver cleans the collected records and hands them to the result
// handler. Delivery failures are logged, never escalated: the records are
// the session's, and the task outcome is already decided.
func (t *QuizGenerationTask) deliver(ctx context.Context, records []domain.QuizRecord, partial bool) {
	cleaned := t.cleaner.CleanRecords(records)

	err := t.results.HandleResult(ctx, Result{
		TaskID:    t.id,
		SessionID: t.sessionID,
		Mode:      t.mode,
		Records:   cleaned,
		Partial:   partial,
	})
	if err != nil {
		t.logger.Error("failed to deliver task results",
			"record_count", len(cleaned),
			"partial", partial,
			"error", err)
	}
}

// batches splits the task's items into submission-order batches of the
// configured size.
func (t *QuizGenerationTask) batches() [][]generation.ItemRef {
	var out [][]generation.ItemRef
	for start := 0; start < len(t.items); start += t.config.BatchSize {
		end := start + t.config.BatchSize
		if end > len(t.items) {
			end = len(t.items)
		}
		out = append(out, t.items[start:end])
	}
	return out
}
