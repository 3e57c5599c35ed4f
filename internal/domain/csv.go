package domain

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrMissingHeader is returned when a CSV input has no usable header row.
var ErrMissingHeader = errors.New("csv input has no header row")

// optionColumns is the number of option columns in the quiz CSV layout
// (option1 through option5).
const optionColumns = 5

// ParseCSV reads quiz records from CSV data in the layout
// questions,option1..option5,answer,explanation,type,section.
//
// Rows are normalized rather than rejected: rows with an empty question
// or fewer than two non-empty options are skipped, the 1-based answer
// column is clamped into the option range (defaulting to the first
// option when absent or malformed), and question/explanation text is
// trimmed. Column order does not matter; unknown columns are ignored.
func ParseCSV(r io.Reader) ([]QuizRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrMissingHeader
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["questions"]; !ok {
		return nil, fmt.Errorf("%w: missing questions column", ErrMissingHeader)
	}

	var records []QuizRecord
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row: %w", err)
		}

		field := func(name string) string {
			i, ok := columns[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		question := field("questions")
		if question == "" {
			continue
		}

		var options []string
		for i := 1; i <= optionColumns; i++ {
			if opt := field("option" + strconv.Itoa(i)); opt != "" {
				options = append(options, opt)
			}
		}
		if len(options) < MinOptions {
			continue
		}

		records = append(records, QuizRecord{
			Question:     question,
			Options:      options,
			CorrectIndex: clampAnswer(field("answer"), len(options)),
			Explanation:  field("explanation"),
			Type:         field("type"),
			Section:      field("section"),
		})
	}

	return records, nil
}

// clampAnswer converts the 1-based answer column into a correct-option
// index, clamped into the option range. Absent or malformed answers
// resolve to the first option.
func clampAnswer(answer string, optionCount int) int {
	n, err := strconv.Atoi(answer)
	if err != nil {
		return 0
	}

	index := n - 1
	if index < 0 {
		return 0
	}
	if index >= optionCount {
		return optionCount - 1
	}
	return index
}
