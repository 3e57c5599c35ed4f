package events

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// InMemoryNoticeEmitter is a simple implementation of the NoticeEmitter
// interface that stores registered handlers in memory and dispatches
// notices to them. Deliveries to the same chat are paced sendDelay
// apart so the transport does not flood it.
type InMemoryNoticeEmitter struct {
	handlers []NoticeHandler
	mu       sync.RWMutex
	logger   *slog.Logger

	// sendDelay is the minimum interval between deliveries to the same
	// chat. Zero disables pacing.
	sendDelay time.Duration
	paceMu    sync.Mutex
	nextSend  map[int64]time.Time
	now       func() time.Time
}

// NewInMemoryNoticeEmitter creates a new instance of InMemoryNoticeEmitter.
func NewInMemoryNoticeEmitter(logger *slog.Logger, sendDelay time.Duration) *InMemoryNoticeEmitter {
	return &InMemoryNoticeEmitter{
		handlers:  make([]NoticeHandler, 0),
		logger:    logger.With("component", "in_memory_notice_emitter"),
		sendDelay: sendDelay,
		nextSend:  make(map[int64]time.Time),
		now:       time.Now,
	}
}

// RegisterHandler adds a new handler to receive notices.
func (e *InMemoryNoticeEmitter) RegisterHandler(handler NoticeHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, handler)
	e.logger.Debug("registered new notice handler", "handler_count", len(e.handlers))
}

// EmitNotice publishes the given notice to all registered handlers.
// If any handler returns an error, the notice is still sent to all other
// handlers, and the first error encountered is returned.
func (e *InMemoryNoticeEmitter) EmitNotice(ctx context.Context, notice *Notice) error {
	e.mu.RLock()
	handlers := make([]NoticeHandler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.RUnlock()

	e.logger.Debug("emitting notice",
		"notice_id", notice.ID,
		"notice_type", notice.Type,
		"chat_id", notice.ChatID,
		"handler_count", len(handlers))

	if len(handlers) == 0 {
		e.logger.Warn("no handlers registered for notice",
			"notice_id", notice.ID,
			"notice_type", notice.Type)
		return nil
	}

	if err := e.pace(ctx, notice.ChatID); err != nil {
		return err
	}

	var firstErr error
	for i, handler := range handlers {
		if err := handler.HandleNotice(ctx, notice); err != nil {
			e.logger.Error("handler failed to process notice",
				"error", err,
				"handler_index", i,
				"notice_id", notice.ID,
				"notice_type", notice.Type)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

// pace reserves the chat's next delivery slot and waits until it is
// reached. Concurrent emits to the same chat queue behind each other.
func (e *InMemoryNoticeEmitter) pace(ctx context.Context, chatID int64) error {
	if e.sendDelay <= 0 {
		return nil
	}

	e.paceMu.Lock()
	now := e.now()
	slot := e.nextSend[chatID]
	if slot.Before(now) {
		slot = now
	}
	e.nextSend[chatID] = slot.Add(e.sendDelay)
	e.paceMu.Unlock()

	wait := slot.Sub(now)
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
