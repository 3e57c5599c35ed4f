package poll

import (
	"sync"
	"time"

	"github.com/dmehra/quizforge/internal/domain"
)

// PollType distinguishes quiz polls, which carry a correct option, from
// regular opinion polls, which do not.
type PollType string

// Possible poll types
const (
	PollTypeQuiz    PollType = "quiz"
	PollTypeRegular PollType = "regular"
)

// Poll is one forwarded poll as delivered by the chat-transport layer.
type Poll struct {
	Question        string
	Options         []string
	Type            PollType
	CorrectOptionID int
	Explanation     string

	// MessageID identifies the forwarded source message so it can be
	// deleted after ingestion.
	MessageID int
}

// Record converts the poll into a quiz record. Regular polls have no
// correct answer; they carry NoCorrectOption and export with an empty
// answer column rather than an invented one.
func (p Poll) Record() domain.QuizRecord {
	correct := domain.NoCorrectOption
	if p.Type == PollTypeQuiz {
		correct = p.CorrectOptionID
	}

	return domain.QuizRecord{
		Question:     p.Question,
		Options:      p.Options,
		CorrectIndex: correct,
		Explanation:  p.Explanation,
	}
}

// Session tracks one chat's active collection run. All mutation goes
// through the session lock so counter increments and append ordering are
// deterministic under concurrent forwards.
type Session struct {
	mu sync.Mutex

	chatID      int64
	ownerUserID int64
	records     []domain.QuizRecord
	startedAt   time.Time

	// statusMessageID tracks the transport layer's live counter message.
	statusMessageID int
}

// ChatID returns the chat this session collects in.
func (s *Session) ChatID() int64 {
	return s.chatID
}

// OwnerUserID returns the user who started the collection.
func (s *Session) OwnerUserID() int64 {
	return s.ownerUserID
}

// StartedAt returns when the collection started.
func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

// Count returns the number of records collected so far.
func (s *Session) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Records returns a copy of the collected records in forward order.
func (s *Session) Records() []domain.QuizRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.QuizRecord, len(s.records))
	copy(out, s.records)
	return out
}

// append adds a cleaned record and returns the new count.
func (s *Session) append(rec domain.QuizRecord) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return len(s.records)
}

// clear drops all records but keeps the session active.
func (s *Session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
}

// SetStatusMessage records the transport's live counter message ID.
func (s *Session) SetStatusMessage(messageID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusMessageID = messageID
}

// StatusMessage returns the tracked counter message ID, zero when unset.
func (s *Session) StatusMessage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusMessageID
}
