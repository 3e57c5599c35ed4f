package poll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dmehra/quizforge/internal/clean"
	"github.com/dmehra/quizforge/internal/domain"
)

// Common errors returned by the Manager
var (
	ErrAlreadyActive   = errors.New("chat already has an active collection")
	ErrNoActiveSession = errors.New("chat has no active collection")
)

// MessageDeleter deletes a forwarded source message in a chat. It is the
// boundary to the chat-transport layer; deletion is best-effort.
type MessageDeleter interface {
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}

// Manager owns all active collection sessions, one per chat at most.
// The manager lock guards only the session map; each session has its own
// lock, so forwards in different chats proceed fully in parallel.
type Manager struct {
	mu       sync.Mutex
	sessions map[int64]*Session

	cleaner *clean.Cleaner
	deleter MessageDeleter
	logger  *slog.Logger
}

// NewManager creates a Manager with no active sessions.
func NewManager(cleaner *clean.Cleaner, deleter MessageDeleter, logger *slog.Logger) *Manager {
	return &Manager{
		sessions: make(map[int64]*Session),
		cleaner:  cleaner,
		deleter:  deleter,
		logger:   logger.With("component", "poll_manager"),
	}
}

// Start begins a collection session in the chat. Returns ErrAlreadyActive
// when the chat already has one.
func (m *Manager) Start(chatID, ownerUserID int64) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[chatID]; exists {
		return nil, fmt.Errorf("%w: chat %d", ErrAlreadyActive, chatID)
	}

	s := &Session{
		chatID:      chatID,
		ownerUserID: ownerUserID,
		startedAt:   time.Now().UTC(),
	}
	m.sessions[chatID] = s

	m.logger.Info("collection started",
		"chat_id", chatID,
		"owner_user_id", ownerUserID)

	return s, nil
}

// Session returns the chat's active session, if any.
func (m *Manager) Session(chatID int64) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[chatID]
	return s, ok
}

// Active returns the number of active sessions across all chats.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Forward ingests one forwarded poll: the record is cleaned and appended
// under the session lock, then the source message is deleted in the
// background. Returns the updated counter. Deletion failure is logged
// and never blocks or fails the ingestion.
func (m *Manager) Forward(ctx context.Context, chatID int64, p Poll) (int, error) {
	s, ok := m.Session(chatID)
	if !ok {
		return 0, fmt.Errorf("%w: chat %d", ErrNoActiveSession, chatID)
	}

	count := s.append(m.cleaner.CleanRecord(p.Record()))

	if m.deleter != nil && p.MessageID != 0 {
		go func() {
			if err := m.deleter.DeleteMessage(context.WithoutCancel(ctx), chatID, p.MessageID); err != nil {
				m.logger.Warn("failed to delete forwarded poll message",
					"chat_id", chatID,
					"message_id", p.MessageID,
					"error", err)
			}
		}()
	}

	return count, nil
}

// Clear drops the chat's collected records but keeps collecting.
func (m *Manager) Clear(chatID int64) error {
	s, ok := m.Session(chatID)
	if !ok {
		return fmt.Errorf("%w: chat %d", ErrNoActiveSession, chatID)
	}
	s.clear()
	return nil
}

// Finish ends the chat's session and returns the collected records in
// forward order, ready for export. Records already ingested survive the
// session teardown.
func (m *Manager) Finish(chatID int64) ([]domain.QuizRecord, error) {
	m.mu.Lock()
	s, ok := m.sessions[chatID]
	if ok {
		delete(m.sessions, chatID)
	}
	m.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: chat %d", ErrNoActiveSession, chatID)
	}

	records := s.Records()
	m.logger.Info("collection finished",
		"chat_id", chatID,
		"record_count", len(records))

	return records, nil
}

// Cancel ends the chat's session, discarding its records. Returns the
// final counter for the goodbye notice.
func (m *Manager) Cancel(chatID int64) (int, error) {
	m.mu.Lock()
	s, ok := m.sessions[chatID]
	if ok {
		delete(m.sessions, chatID)
	}
	m.mu.Unlock()

	if !ok {
		return 0, fmt.Errorf("%w: chat %d", ErrNoActiveSession, chatID)
	}

	count := s.Count()
	m.logger.Info("collection cancelled",
		"chat_id", chatID,
		"record_count", count)

	return count, nil
}
