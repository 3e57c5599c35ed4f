package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmehra/quizforge/internal/clean"
	"github.com/dmehra/quizforge/internal/domain"
)

// Format selects the export artifact layout.
type Format string

// Possible export formats
const (
	FormatCSV         Format = "csv"
	FormatPDFCompact  Format = "pdf_compact"
	FormatPDFDetailed Format = "pdf_detailed"
	FormatPDFTable    Format = "pdf_table"
)

// Common errors returned by the Coordinator
var (
	ErrNoRecords     = errors.New("cannot export an empty record set")
	ErrInvalidRecord = errors.New("record failed export validation")
	ErrUnknownFormat = errors.New("unknown export format")
	ErrNilRenderer   = errors.New("format requires the rendering layer")
)

// FileHandle is a rendered artifact ready to hand to the chat layer.
type FileHandle struct {
	Name string
	Data []byte
}

// Renderer is the boundary to the document-rendering layer. It receives
// records that are guaranteed cleaned and validated; layout is its
// problem alone.
type Renderer interface {
	Render(ctx context.Context, records []domain.QuizRecord, format Format, name string) (*FileHandle, error)
}

// Coordinator guards the entrance to rendering: empty sets are rejected,
// every record is validated, and cleanup is re-applied so no raw text can
// reach an artifact regardless of which path produced the records.
type Coordinator struct {
	renderer Renderer
	cleaner  *clean.Cleaner
	logger   *slog.Logger
}

// NewCoordinator creates a Coordinator. renderer may be nil when only
// CSV export is needed.
func NewCoordinator(renderer Renderer, cleaner *clean.Cleaner, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		renderer: renderer,
		cleaner:  cleaner,
		logger:   logger.With("component", "export_coordinator"),
	}
}

// Export renders the records in the requested format. The display name
// is used for PDF title pages and for the artifact filename.
func (c *Coordinator) Export(
	ctx context.Context,
	records []domain.QuizRecord,
	format Format,
	name string,
) (*FileHandle, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	cleaned := c.cleaner.CleanRecords(records)
	for i, rec := range cleaned {
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrInvalidRecord, i+1, err)
		}
	}

	if name == "" {
		name = "quiz"
	}

	c.logger.Info("exporting records",
		"record_count", len(cleaned),
		"format", format,
		"name", name)

	switch format {
	case FormatCSV:
		return renderCSV(cleaned, name)

	case FormatPDFCompact, FormatPDFDetailed, FormatPDFTable:
		if c.renderer == nil {
			return nil, fmt.Errorf("%w: %s", ErrNilRenderer, format)
		}
		return c.renderer.Render(ctx, cleaned, format, name)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
