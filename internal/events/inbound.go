package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType identifies what the transport observed in the chat.
type EventType string

// Possible inbound event types
const (
	EventDocumentReceived EventType = "document_received"
	EventPollForwarded    EventType = "poll_forwarded"
	EventCommandInvoked   EventType = "command_invoked"
)

// Event is one inbound occurrence from the chat-transport layer. It
// carries the chat and user it originated from without direct
// dependencies on the transport implementation.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type indicates what the transport observed
	Type EventType `json:"type"`

	// ChatID identifies the chat the event originated from
	ChatID int64 `json:"chat_id"`

	// UserID identifies the user who triggered the event
	UserID int64 `json:"user_id"`

	// Payload contains the event-specific data serialized as JSON
	Payload json.RawMessage `json:"payload,omitempty"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates an Event of the given type for the chat and user.
func NewEvent(eventType EventType, chatID, userID int64, payload interface{}) (*Event, error) {
	var payloadBytes json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		payloadBytes = b
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		ChatID:    chatID,
		UserID:    userID,
		Payload:   payloadBytes,
		CreatedAt: time.Now(),
	}, nil
}

// DocumentReceivedPayload describes stored source items ready for
// processing. URIs point at files the transport has already uploaded
// to the provider's file store.
type DocumentReceivedPayload struct {
	URIs []string `json:"uris"`

	// Mode selects extraction or generation.
	Mode string `json:"mode"`
}

// PollForwardedPayload carries one forwarded poll's content.
type PollForwardedPayload struct {
	Question        string   `json:"question"`
	Options         []string `json:"options"`
	IsQuiz          bool     `json:"is_quiz"`
	CorrectOptionID int      `json:"correct_option_id"`
	Explanation     string   `json:"explanation,omitempty"`
	MessageID       int      `json:"message_id"`
}

// CommandInvokedPayload carries a chat command and its arguments.
type CommandInvokedPayload struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// EventHandler defines an interface for components that handle inbound
// events. The core registers one to receive traffic from the transport.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *Event) error
}
