package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// NoticeType identifies what a notice tells the user.
type NoticeType string

// Possible notice types
const (
	NoticeTaskAccepted   NoticeType = "task_accepted"
	NoticeTaskRejected   NoticeType = "task_rejected"
	NoticeProgressUpdate NoticeType = "progress_update"
	NoticeExportReady    NoticeType = "export_ready"
	NoticeError          NoticeType = "error"
)

// Notice is one user-visible message from the core to the chat-transport
// layer. The payload shape depends on the notice type.
type Notice struct {
	// ID is a unique identifier for this notice
	ID uuid.UUID `json:"id"`

	// Type indicates what the notice reports
	Type NoticeType `json:"type"`

	// ChatID addresses the chat the notice belongs in
	ChatID int64 `json:"chat_id"`

	// Payload contains the notice-specific data serialized as JSON
	Payload json.RawMessage `json:"payload,omitempty"`

	// CreatedAt is the timestamp when the notice was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the notice payload into the provided structure.
func (n *Notice) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(n.Payload, v)
}

// NewNotice creates a Notice of the given type for the chat.
func NewNotice(noticeType NoticeType, chatID int64, payload interface{}) (*Notice, error) {
	var payloadBytes json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		payloadBytes = b
	}

	return &Notice{
		ID:        uuid.New(),
		Type:      noticeType,
		ChatID:    chatID,
		Payload:   payloadBytes,
		CreatedAt: time.Now(),
	}, nil
}

// ProgressPayload reports batch progress for a running task.
type ProgressPayload struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

// AcceptedPayload confirms a queued submission.
type AcceptedPayload struct {
	TaskID uuid.UUID `json:"task_id"`

	// Position is the 1-based place in the queue, 0 when unknown.
	Position int `json:"position,omitempty"`
}

// ExportReadyPayload announces a finished artifact. Partial marks
// artifacts built from an interrupted task's completed batches.
type ExportReadyPayload struct {
	FileName    string `json:"file_name"`
	RecordCount int    `json:"record_count"`
	Partial     bool   `json:"partial,omitempty"`
}

// RejectionPayload explains why a submission was refused.
type RejectionPayload struct {
	Reason string `json:"reason"`
}

// NoticeHandler defines an interface for components that receive notices.
// The chat-transport layer registers one to deliver notices to users.
type NoticeHandler interface {
	// HandleNotice processes the given notice within the provided context.
	// Returns an error if the notice cannot be handled successfully.
	HandleNotice(ctx context.Context, notice *Notice) error
}

// NoticeEmitter defines an interface for components that emit notices.
// This allows services to publish notices without direct knowledge of
// the transport.
type NoticeEmitter interface {
	// EmitNotice publishes the given notice to all registered handlers.
	// Returns an error if the notice cannot be emitted.
	EmitNotice(ctx context.Context, notice *Notice) error
}
