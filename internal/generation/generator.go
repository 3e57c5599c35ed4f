package generation

import (
	"context"

	"github.com/dmehra/quizforge/internal/domain"
)

// Mode selects how source items are turned into quiz records.
type Mode string

// Possible generation modes
const (
	// ModeExtraction lifts questions that already exist in the source.
	ModeExtraction Mode = "extraction"

	// ModeGeneration writes new questions about the source content.
	ModeGeneration Mode = "generation"
)

// ItemRef identifies one source item to process: a rendered document page
// or a standalone image, addressed by the reference the transport layer
// stored it under.
type ItemRef struct {
	URI string `json:"uri"`
}

// Generator defines the interface for producing quiz records from source
// items. It is the boundary between the processing pipeline and the
// external AI provider; each call is authenticated with the credential
// chosen by the rotator for that call.
type Generator interface {
	// GenerateRecords processes one batch of items under the given mode
	// and returns the quiz records found or written for them. The
	// returned records are raw: cleanup is the caller's responsibility.
	GenerateRecords(
		ctx context.Context,
		items []ItemRef,
		mode Mode,
		credential domain.Credential,
	) ([]domain.QuizRecord, error)
}
