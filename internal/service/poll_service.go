package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmehra/quizforge/internal/events"
	"github.com/dmehra/quizforge/internal/export"
	"github.com/dmehra/quizforge/internal/poll"
	"github.com/dmehra/quizforge/internal/store"
)

// PollService provides poll-collection operations.
type PollService interface {
	// StartCollection opens a collection session for the chat.
	StartCollection(ctx context.Context, chatID, userID int64) error

	// AddForwardedPoll ingests one forwarded poll into the chat's
	// session and returns the updated count.
	AddForwardedPoll(ctx context.Context, chatID, userID int64, p poll.Poll) (int, error)

	// ClearCollection empties the session's records but keeps it active.
	ClearCollection(ctx context.Context, chatID, userID int64) error

	// FinishAndExport ends the session and renders its records in the
	// requested format, announcing the artifact to the chat.
	FinishAndExport(
		ctx context.Context,
		chatID, userID int64,
		format export.Format,
	) (*export.FileHandle, error)

	// CancelCollection discards the session, returning how many records
	// were dropped.
	CancelCollection(ctx context.Context, chatID, userID int64) (int, error)

	// Count reports the number of records collected so far, 0 when the
	// chat has no active session.
	Count(chatID int64) int
}

// pollServiceImpl implements the PollService interface.
type pollServiceImpl struct {
	authStore   store.AuthorizationStore
	manager     *poll.Manager
	coordinator *export.Coordinator
	emitter     events.NoticeEmitter
	logger      *slog.Logger
}

// NewPollService creates a new PollService.
// It returns an error if any of the required dependencies are nil.
func NewPollService(
	authStore store.AuthorizationStore,
	manager *poll.Manager,
	coordinator *export.Coordinator,
	emitter events.NoticeEmitter,
	logger *slog.Logger,
) (PollService, error) {
	switch {
	case authStore == nil:
		return nil, &ServiceError{Operation: "create_service", Message: "authStore cannot be nil"}
	case manager == nil:
		return nil, &ServiceError{Operation: "create_service", Message: "manager cannot be nil"}
	case coordinator == nil:
		return nil, &ServiceError{Operation: "create_service", Message: "coordinator cannot be nil"}
	case emitter == nil:
		return nil, &ServiceError{Operation: "create_service", Message: "emitter cannot be nil"}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &pollServiceImpl{
		authStore:   authStore,
		manager:     manager,
		coordinator: coordinator,
		emitter:     emitter,
		logger:      logger.With("component", "poll_service"),
	}, nil
}

// StartCollection implements PollService.StartCollection.
func (s *pollServiceImpl) StartCollection(ctx context.Context, chatID, userID int64) error {
	if err := s.authorize(ctx, userID); err != nil {
		return err
	}

	if _, err := s.manager.Start(chatID, userID); err != nil {
		return newServiceError("start_collection", "failed to start session", err)
	}

	s.logger.Info("poll collection started",
		"chat_id", chatID,
		"user_id", userID)
	return nil
}

// AddForwardedPoll implements PollService.AddForwardedPoll.
func (s *pollServiceImpl) AddForwardedPoll(
	ctx context.Context,
	chatID, userID int64,
	p poll.Poll,
) (int, error) {
	if err := s.authorize(ctx, userID); err != nil {
		return 0, err
	}

	count, err := s.manager.Forward(ctx, chatID, p)
	if err != nil {
		return 0, newServiceError("add_poll", "failed to ingest poll", err)
	}
	return count, nil
}

// ClearCollection implements PollService.ClearCollection.
func (s *pollServiceImpl) ClearCollection(ctx context.Context, chatID, userID int64) error {
	if err := s.authorize(ctx, userID); err != nil {
		return err
	}

	if err := s.manager.Clear(chatID); err != nil {
		return newServiceError("clear_collection", "failed to clear session", err)
	}

	s.logger.Info("poll collection cleared", "chat_id", chatID)
	return nil
}

// FinishAndExport implements PollService.FinishAndExport.
// The session is closed only after the export succeeds; a failed export
// keeps the collection alive so the records can be exported again.
func (s *pollServiceImpl) FinishAndExport(
	ctx context.Context,
	chatID, userID int64,
	format export.Format,
) (*export.FileHandle, error) {
	if err := s.authorize(ctx, userID); err != nil {
		return nil, err
	}

	session, ok := s.manager.Session(chatID)
	if !ok {
		return nil, newServiceError("finish_collection", "failed to finish session",
			fmt.Errorf("%w: chat %d", poll.ErrNoActiveSession, chatID))
	}
	records := session.Records()

	file, err := s.coordinator.Export(ctx, records, format, fmt.Sprintf("polls_%d", chatID))
	if err != nil {
		s.logger.Error("failed to export collected polls, keeping session",
			"error", err,
			"chat_id", chatID,
			"record_count", len(records))
		return nil, newServiceError("finish_collection", "export failed", err)
	}

	if _, err := s.manager.Finish(chatID); err != nil {
		return nil, newServiceError("finish_collection", "failed to finish session", err)
	}

	s.logger.Info("poll collection exported",
		"chat_id", chatID,
		"file", file.Name,
		"record_count", len(records))
	s.notify(ctx, events.NoticeExportReady, chatID, events.ExportReadyPayload{
		FileName:    file.Name,
		RecordCount: len(records),
	})
	return file, nil
}

// CancelCollection implements PollService.CancelCollection.
func (s *pollServiceImpl) CancelCollection(ctx context.Context, chatID, userID int64) (int, error) {
	if err := s.authorize(ctx, userID); err != nil {
		return 0, err
	}

	dropped, err := s.manager.Cancel(chatID)
	if err != nil {
		return 0, newServiceError("cancel_collection", "failed to cancel session", err)
	}

	s.logger.Info("poll collection cancelled",
		"chat_id", chatID,
		"dropped", dropped)
	return dropped, nil
}

// Count implements PollService.Count.
func (s *pollServiceImpl) Count(chatID int64) int {
	session, ok := s.manager.Session(chatID)
	if !ok {
		return 0
	}
	return session.Count()
}

func (s *pollServiceImpl) authorize(ctx context.Context, userID int64) error {
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

func (s *pollServiceImpl) notify(
	ctx context.Context,
	noticeType events.NoticeType,
	chatID int64,
	payload interface{},
) {
	notice, err := events.NewNotice(noticeType, chatID, payload)
	if err != nil {
		s.logger.Error("failed to build notice", "error", err)
		return
	}
	if err := s.emitter.EmitNotice(ctx, notice); err != nil {
		s.logger.Warn("failed to emit notice",
			"error", err,
			"type", string(noticeType),
			"chat_id", chatID)
	}
}
