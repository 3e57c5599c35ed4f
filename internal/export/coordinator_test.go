package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra/quizforge/internal/clean"
	"github.com/dmehra/quizforge/internal/domain"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// stubRenderer returns a fixed handle and records what it was asked for.
type stubRenderer struct {
	lastFormat Format
	lastName   string
	lastCount  int
}

func (r *stubRenderer) Render(
	ctx context.Context,
	records []domain.QuizRecord,
	format Format,
	name string,
) (*FileHandle, error) {
	r.lastFormat = format
	r.lastName = name
	r.lastCount = len(records)
	return &FileHandle{Name: name + ".pdf", Data: []byte("%PDF-")}, nil
}

func testRecords(n int) []domain.QuizRecord {
	records := make([]domain.QuizRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, domain.QuizRecord{
			Question:     "[TSS] Question http://x.co",
			Options:      []string{"yes", "no"},
			CorrectIndex: 1,
			Explanation:  "Why not www.spam.io",
		})
	}
	return records
}

func newTestCoordinator(r Renderer) *Coordinator {
	return NewCoordinator(r, clean.New("", ""), setupTestLogger())
}

func TestExportRejectsEmptySet(t *testing.T) {
	c := newTestCoordinator(nil)

	_, err := c.Export(context.Background(), nil, FormatCSV, "quiz")
	assert.ErrorIs(t, err, ErrNoRecords)

	_, err = c.Export(context.Background(), []domain.QuizRecord{}, FormatCSV, "quiz")
	assert.ErrorIs(t, err, ErrNoRecords)
}

func TestExportRejectsInvalidRecords(t *testing.T) {
	c := newTestCoordinator(nil)

	// Single option.
	bad := []domain.QuizRecord{{
		Question:     "q",
		Options:      []string{"only"},
		CorrectIndex: 0,
	}}
	_, err := c.Export(context.Background(), bad, FormatCSV, "quiz")
	assert.ErrorIs(t, err, ErrInvalidRecord)

	// Correct index beyond the option range.
	bad = []domain.QuizRecord{{
		Question:     "q",
		Options:      []string{"a", "b"},
		CorrectIndex: 5,
	}}
	_, err = c.Export(context.Background(), bad, FormatCSV, "quiz")
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestExportCSVRegularPollRow(t *testing.T) {
	c := newTestCoordinator(nil)

	// A forwarded opinion poll exports with an empty answer column
	// instead of failing the whole set.
	records := []domain.QuizRecord{
		{Question: "quiz", Options: []string{"a", "b"}, CorrectIndex: 1},
		{Question: "opinion", Options: []string{"a", "b"}, CorrectIndex: domain.NoCorrectOption},
	}

	handle, err := c.Export(context.Background(), records, FormatCSV, "quiz")
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(handle.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "2", rows[1][6])
	assert.Equal(t, "", rows[2][6])
}

func TestExportCSV(t *testing.T) {
	c := newTestCoordinator(nil)

	handle, err := c.Export(context.Background(), testRecords(3), FormatCSV, "collected_polls")
	require.NoError(t, err)
	assert.Equal(t, "collected_polls.csv", handle.Name)

	rows, err := csv.NewReader(bytes.NewReader(handle.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4, "header plus three rows")

	assert.Equal(t, []string{
		"questions", "option1", "option2", "option3", "option4", "option5",
		"answer", "explanation", "type", "section",
	}, rows[0])

	for _, row := range rows[1:] {
		// Cleanup ran before rendering.
		assert.Equal(t, "Question", row[0])
		assert.Equal(t, "yes", row[1])
		assert.Equal(t, "no", row[2])
		assert.Equal(t, "", row[3])
		assert.Equal(t, "", row[4])
		assert.Equal(t, "", row[5])
		// Answer column is 1-based.
		assert.Equal(t, "2", row[6])
		assert.Equal(t, "Why not", row[7])
		assert.Equal(t, "1", row[8])
		assert.Equal(t, "1", row[9])
	}
}

func TestExportCSVPreservesOrder(t *testing.T) {
	c := newTestCoordinator(nil)

	records := []domain.QuizRecord{
		{Question: "first", Options: []string{"a", "b"}, CorrectIndex: 0},
		{Question: "second", Options: []string{"a", "b"}, CorrectIndex: 0},
		{Question: "third", Options: []string{"a", "b"}, CorrectIndex: 0},
	}

	handle, err := c.Export(context.Background(), records, FormatCSV, "quiz")
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(handle.Data)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "first", rows[1][0])
	assert.Equal(t, "second", rows[2][0])
	assert.Equal(t, "third", rows[3][0])
}

func TestExportPDFDelegatesToRenderer(t *testing.T) {
	renderer := &stubRenderer{}
	c := newTestCoordinator(renderer)

	handle, err := c.Export(context.Background(), testRecords(2), FormatPDFDetailed, "My Mock Test")
	require.NoError(t, err)
	assert.Equal(t, "My Mock Test.pdf", handle.Name)
	assert.Equal(t, FormatPDFDetailed, renderer.lastFormat)
	assert.Equal(t, "My Mock Test", renderer.lastName)
	assert.Equal(t, 2, renderer.lastCount)
}

func TestExportPDFWithoutRenderer(t *testing.T) {
	c := newTestCoordinator(nil)

	_, err := c.Export(context.Background(), testRecords(1), FormatPDFCompact, "quiz")
	assert.ErrorIs(t, err, ErrNilRenderer)
}

func TestExportUnknownFormat(t *testing.T) {
	c := newTestCoordinator(nil)

	_, err := c.Export(context.Background(), testRecords(1), Format("docx"), "quiz")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestExportDefaultsName(t *testing.T) {
	c := newTestCoordinator(nil)

	handle, err := c.Export(context.Background(), testRecords(1), FormatCSV, "")
	require.NoError(t, err)
	assert.Equal(t, "quiz.csv", handle.Name)
}
