package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmehra/quizforge/internal/events"
	"github.com/dmehra/quizforge/internal/export"
	"github.com/dmehra/quizforge/internal/task"
)

// ExportingResultHandler turns finished task results into export
// artifacts and announces them to the chat. Partial results from failed
// or cancelled tasks are exported the same way, flagged as partial.
type ExportingResultHandler struct {
	coordinator *export.Coordinator
	emitter     events.NoticeEmitter
	format      export.Format
	logger      *slog.Logger
}

// NewExportingResultHandler creates a result handler that renders
// results in the given format.
func NewExportingResultHandler(
	coordinator *export.Coordinator,
	emitter events.NoticeEmitter,
	format export.Format,
	logger *slog.Logger,
) (*ExportingResultHandler, error) {
	if coordinator == nil {
		return nil, &ServiceError{Operation: "create_result_handler", Message: "coordinator cannot be nil"}
	}
	if emitter == nil {
		return nil, &ServiceError{Operation: "create_result_handler", Message: "emitter cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ExportingResultHandler{
		coordinator: coordinator,
		emitter:     emitter,
		format:      format,
		logger:      logger.With("component", "result_handler"),
	}, nil
}

// Ensure ExportingResultHandler implements task.ResultHandler
var _ task.ResultHandler = (*ExportingResultHandler)(nil)

// HandleResult implements task.ResultHandler.HandleResult.
func (h *ExportingResultHandler) HandleResult(ctx context.Context, result task.Result) error {
	name := fmt.Sprintf("quiz_%d", result.SessionID)

	file, err := h.coordinator.Export(ctx, result.Records, h.format, name)
	if err != nil {
		h.logger.Error("failed to export task result",
			"error", err,
			"task_id", result.TaskID,
			"chat_id", result.SessionID,
			"record_count", len(result.Records))
		h.notify(ctx, events.NoticeError, result.SessionID,
			events.RejectionPayload{Reason: "could not prepare the quiz file"})
		return newServiceError("handle_result", "export failed", err)
	}

	h.logger.Info("task result exported",
		"task_id", result.TaskID,
		"chat_id", result.SessionID,
		"file", file.Name,
		"record_count", len(result.Records),
		"partial", result.Partial)

	h.notify(ctx, events.NoticeExportReady, result.SessionID, events.ExportReadyPayload{
		FileName:    file.Name,
		RecordCount: len(result.Records),
		Partial:     result.Partial,
	})
	return nil
}

func (h *ExportingResultHandler) notify(
	ctx context.Context,
	noticeType events.NoticeType,
	chatID int64,
	payload interface{},
) {
	notice, err := events.NewNotice(noticeType, chatID, payload)
	if err != nil {
		h.logger.Error("failed to build notice", "error", err)
		return
	}
	if err := h.emitter.EmitNotice(ctx, notice); err != nil {
		h.logger.Warn("failed to emit notice",
			"error", err,
			"type", string(noticeType),
			"chat_id", chatID)
	}
}
