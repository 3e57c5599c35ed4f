package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmehra/quizforge/internal/events"
	"github.com/dmehra/quizforge/internal/export"
	"github.com/dmehra/quizforge/internal/generation"
	"github.com/dmehra/quizforge/internal/poll"
)

// Chat commands routed by the dispatcher.
const (
	CommandCollect = "collect"
	CommandStop    = "stop"
	CommandClear   = "clear"
	CommandCancel  = "cancel"
)

// Dispatcher routes inbound transport events to the quiz and poll
// services. It is the single entry point a chat transport wires its
// traffic into.
type Dispatcher struct {
	quiz   QuizService
	polls  PollService
	logger *slog.Logger
}

var _ events.EventHandler = (*Dispatcher)(nil)

// NewDispatcher creates a new Dispatcher.
// It returns an error if any of the required dependencies are nil.
func NewDispatcher(quiz QuizService, polls PollService, logger *slog.Logger) (*Dispatcher, error) {
	switch {
	case quiz == nil:
		return nil, &ServiceError{Operation: "create_dispatcher", Message: "quiz service cannot be nil"}
	case polls == nil:
		return nil, &ServiceError{Operation: "create_dispatcher", Message: "poll service cannot be nil"}
	case logger == nil:
		return nil, &ServiceError{Operation: "create_dispatcher", Message: "logger cannot be nil"}
	}

	return &Dispatcher{
		quiz:   quiz,
		polls:  polls,
		logger: logger.With(slog.String("component", "dispatcher")),
	}, nil
}

// HandleEvent processes one inbound event. Unknown event types and
// commands are errors so the transport can surface them.
func (d *Dispatcher) HandleEvent(ctx context.Context, event *events.Event) error {
	switch event.Type {
	case events.EventDocumentReceived:
		return d.handleDocument(ctx, event)
	case events.EventPollForwarded:
		return d.handlePoll(ctx, event)
	case events.EventCommandInvoked:
		return d.handleCommand(ctx, event)
	default:
		return fmt.Errorf("unknown event type %q", event.Type)
	}
}

func (d *Dispatcher) handleDocument(ctx context.Context, event *events.Event) error {
	var payload events.DocumentReceivedPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		return fmt.Errorf("failed to decode document payload: %w", err)
	}

	items := make([]generation.ItemRef, 0, len(payload.URIs))
	for _, uri := range payload.URIs {
		items = append(items, generation.ItemRef{URI: uri})
	}

	mode := generation.Mode(payload.Mode)
	if payload.Mode == "" {
		mode = generation.ModeExtraction
	}

	_, err := d.quiz.RequestGeneration(ctx, GenerationRequest{
		ChatID: event.ChatID,
		UserID: event.UserID,
		Items:  items,
		Mode:   mode,
	})
	return err
}

func (d *Dispatcher) handlePoll(ctx context.Context, event *events.Event) error {
	var payload events.PollForwardedPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		return fmt.Errorf("failed to decode poll payload: %w", err)
	}

	pollType := poll.PollTypeRegular
	if payload.IsQuiz {
		pollType = poll.PollTypeQuiz
	}

	count, err := d.polls.AddForwardedPoll(ctx, event.ChatID, event.UserID, poll.Poll{
		Question:        payload.Question,
		Options:         payload.Options,
		Type:            pollType,
		CorrectOptionID: payload.CorrectOptionID,
		Explanation:     payload.Explanation,
		MessageID:       payload.MessageID,
	})
	if err != nil {
		return err
	}

	d.logger.DebugContext(ctx, "poll ingested",
		slog.Int64("chat_id", event.ChatID),
		slog.Int("count", count))
	return nil
}

func (d *Dispatcher) handleCommand(ctx context.Context, event *events.Event) error {
	var payload events.CommandInvokedPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		return fmt.Errorf("failed to decode command payload: %w", err)
	}

	switch payload.Command {
	case CommandCollect:
		return d.polls.StartCollection(ctx, event.ChatID, event.UserID)
	case CommandStop:
		_, err := d.polls.FinishAndExport(ctx, event.ChatID, event.UserID, exportFormat(payload.Args))
		return err
	case CommandClear:
		return d.polls.ClearCollection(ctx, event.ChatID, event.UserID)
	case CommandCancel:
		return d.quiz.CancelGeneration(ctx, event.ChatID, event.UserID)
	default:
		return fmt.Errorf("unknown command %q", payload.Command)
	}
}

// exportFormat reads the requested format from command arguments,
// defaulting to CSV. Invalid formats pass through so the export
// coordinator rejects them with its own error.
func exportFormat(args []string) export.Format {
	if len(args) == 0 || args[0] == "" {
		return export.FormatCSV
	}
	return export.Format(args[0])
}
