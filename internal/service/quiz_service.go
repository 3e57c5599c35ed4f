package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmehra/quizforge/internal/clean"
	"github.com/dmehra/quizforge/internal/events"
	"github.com/dmehra/quizforge/internal/generation"
	"github.com/dmehra/quizforge/internal/store"
	"github.com/dmehra/quizforge/internal/task"
)

// TaskRunner defines the interface for submitting background tasks.
type TaskRunner interface {
	// Submit adds a task to the processing queue
	Submit(t task.Task) error

	// Cancel removes or flags the chat's live task
	Cancel(sessionID int64) error

	// Position reports the 1-based queue position, 0 if not queued
	Position(sessionID int64) int
}

// GenerationRequest describes one chat's submission: the stored source
// items and the mode to process them under.
type GenerationRequest struct {
	ChatID int64
	UserID int64
	Items  []generation.ItemRef
	Mode   generation.Mode
}

// QuizService provides quiz generation operations.
type QuizService interface {
	// RequestGeneration authorizes the user, builds a generation task
	// for the chat, and submits it to the queue. Queue refusals are
	// reported to the chat as rejection notices and returned.
	RequestGeneration(ctx context.Context, req GenerationRequest) (uuid.UUID, error)

	// CancelGeneration stops the chat's live task. Queued tasks leave
	// the queue immediately; running ones stop at the next batch edge.
	CancelGeneration(ctx context.Context, chatID, userID int64) error

	// QueuePosition reports the chat's 1-based queue position, 0 when
	// the chat has no queued task.
	QueuePosition(chatID int64) int
}

// quizServiceImpl implements the QuizService interface.
type quizServiceImpl struct {
	authStore   store.AuthorizationStore
	runner      TaskRunner
	generator   generation.Generator
	credentials task.CredentialSource
	cleaner     *clean.Cleaner
	results     task.ResultHandler
	emitter     events.NoticeEmitter
	taskConfig  task.QuizGenerationConfig
	logger      *slog.Logger
}

// NewQuizService creates a new QuizService.
// It returns an error if any of the required dependencies are nil.
func NewQuizService(
	authStore store.AuthorizationStore,
	runner TaskRunner,
	generator generation.Generator,
	credentials task.CredentialSource,
	cleaner *clean.Cleaner,
	results task.ResultHandler,
	emitter events.NoticeEmitter,
	taskConfig task.QuizGenerationConfig,
	logger *slog.Logger,
) (QuizService, error) {
	switch {
	case authStore == nil:
		return nil, &ServiceError{Operation: "create_service", Message: "authStore cannot be nil"}
	case runner == nil:
		return nil, &ServiceError{Operation: "create_service", Message: "runner cannot be nil"}
	case generator == nil:
		return nil, &ServiceError{Operation: "create_service", Message: "generator cannot be nil"}
	case credentials == nil:
		return nil, &ServiceError{Operation: "create_service", Message: "credentials cannot be nil"}
	case cleaner == nil:
		return nil, &ServiceError{Operation: "create_service", Message: "cleaner cannot be nil"}
	case results == nil:
		return nil, &ServiceError{Operation: "create_service", Message: "results cannot be nil"}
	case emitter == nil:
		return nil, &ServiceError{Operation: "create_service", Message: "emitter cannot be nil"}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &quizServiceImpl{
		authStore:   authStore,
		runner:      runner,
		generator:   generator,
		credentials: credentials,
		cleaner:     cleaner,
		results:     results,
		emitter:     emitter,
		taskConfig:  taskConfig,
		logger:      logger.With("component", "quiz_service"),
	}, nil
}

// RequestGeneration implements QuizService.RequestGeneration.
func (s *quizServiceImpl) RequestGeneration(
	ctx context.Context,
	req GenerationRequest,
) (uuid.UUID, error) {
	if err := s.authorize(ctx, req.UserID); err != nil {
		return uuid.Nil, err
	}

	progress := func(done, total int) {
		s.notify(context.Background(), events.NoticeProgressUpdate, req.ChatID,
			events.ProgressPayload{Done: done, Total: total})
	}

	t, err := task.NewQuizGenerationTask(
		req.ChatID,
		req.Items,
		req.Mode,
		s.generator,
		s.credentials,
		s.cleaner,
		s.results,
		progress,
		s.taskConfig,
		s.logger,
	)
	if err != nil {
		s.logger.Error("failed to build generation task",
			"error", err,
			"chat_id", req.ChatID)
		return uuid.Nil, newServiceError("request_generation", "failed to build task", err)
	}

	if err := s.runner.Submit(t); err != nil {
		reason := rejectionReason(err)
		s.logger.Info("generation request rejected",
			"chat_id", req.ChatID,
			"reason", reason)
		s.notify(ctx, events.NoticeTaskRejected, req.ChatID,
			events.RejectionPayload{Reason: reason})
		return uuid.Nil, newServiceError("request_generation", "queue refused task", err)
	}

	s.logger.Info("generation task queued",
		"task_id", t.ID(),
		"chat_id", req.ChatID,
		"mode", string(req.Mode),
		"item_count", len(req.Items))
	s.notify(ctx, events.NoticeTaskAccepted, req.ChatID, events.AcceptedPayload{
		TaskID:   t.ID(),
		Position: s.runner.Position(req.ChatID),
	})

	return t.ID(), nil
}

// CancelGeneration implements QuizService.CancelGeneration.
func (s *quizServiceImpl) CancelGeneration(ctx context.Context, chatID, userID int64) error {
	if err := s.authorize(ctx, userID); err != nil {
		return err
	}

	if err := s.runner.Cancel(chatID); err != nil {
		if errors.Is(err, task.ErrSessionNotQueued) {
			return ErrNoActiveTask
		}
		return newServiceError("cancel_generation", "failed to cancel task", err)
	}

	s.logger.Info("generation task cancelled",
		"chat_id", chatID,
		"user_id", userID)
	return nil
}

// QueuePosition implements QuizService.QueuePosition.
func (s *quizServiceImpl) QueuePosition(chatID int64) int {
	return s.runner.Position(chatID)
}

// authorize checks the allowlist, mapping a missing user to
// ErrNotAuthorized.
func (s *quizServiceImpl) authorize(ctx context.Context, userID int64) error {
	allowed, err := s.authStore.IsAllowed(ctx, userID)
	if err != nil {
		return newServiceError("authorize", "allowlist lookup failed", err)
	}
	if !allowed {
		s.logger.Warn("request from unauthorized user", "user_id", userID)
		return ErrNotAuthorized
	}
	return nil
}

// notify emits a notice, logging delivery failures without surfacing
// them: a lost status message must not fail the operation it reports on.
func (s *quizServiceImpl) notify(
	ctx context.Context,
	noticeType events.NoticeType,
	chatID int64,
	payload interface{},
) {
	notice, err := events.NewNotice(noticeType, chatID, payload)
	if err != nil {
		s.logger.Error("failed to build notice",
			"error", err,
			"type", string(noticeType))
		return
	}
	if err := s.emitter.EmitNotice(ctx, notice); err != nil {
		s.logger.Warn("failed to emit notice",
			"error", err,
			"type", string(noticeType),
			"chat_id", chatID)
	}
}

// rejectionReason turns a queue refusal into user-facing wording.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, task.ErrQueueFull):
		return "the processing queue is full, try again in a few minutes"
	case errors.Is(err, task.ErrDuplicateSession):
		return "a task for this chat is already in progress"
	case errors.Is(err, task.ErrQueueClosed):
		return "the service is shutting down"
	default:
		return "the request could not be queued"
	}
}
