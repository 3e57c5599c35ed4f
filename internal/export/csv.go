package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/dmehra/quizforge/internal/domain"
)

// csvHeader is the persisted CSV field order. Importers depend on it.
var csvHeader = []string{
	"questions",
	"option1", "option2", "option3", "option4", "option5",
	"answer",
	"explanation",
	"type",
	"section",
}

// renderCSV writes the records as CSV. The answer column is 1-based and
// empty for records without a correct option; records with fewer than
// five options pad the remaining columns empty.
func renderCSV(records []domain.QuizRecord, name string) (*FileHandle, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, rec := range records {
		row := make([]string, 0, len(csvHeader))
		row = append(row, rec.Question)

		for i := 0; i < domain.MaxOptions; i++ {
			if i < len(rec.Options) {
				row = append(row, rec.Options[i])
			} else {
				row = append(row, "")
			}
		}

		row = append(row, answerColumn(rec.CorrectIndex))
		row = append(row, rec.Explanation)
		row = append(row, orDefault(rec.Type, "1"))
		row = append(row, orDefault(rec.Section, "1"))

		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}

	return &FileHandle{
		Name: name + ".csv",
		Data: buf.Bytes(),
	}, nil
}

// answerColumn renders the 1-based answer value, empty when the record
// has no correct option.
func answerColumn(correctIndex int) string {
	if correctIndex == domain.NoCorrectOption {
		return ""
	}
	return strconv.Itoa(correctIndex + 1)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
