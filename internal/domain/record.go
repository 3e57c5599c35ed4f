package domain

import (
	"errors"
	"fmt"
)

// Option count bounds for a quiz record. Chat polls carry between two and
// five answer options, and the CSV export format reserves five columns.
const (
	MinOptions = 2
	MaxOptions = 5
)

// NoCorrectOption marks a record without a correct answer, such as a
// forwarded opinion poll. The CSV answer column stays empty for it.
const NoCorrectOption = -1

// Common validation errors for QuizRecord
var (
	ErrEmptyQuestion       = errors.New("question cannot be empty")
	ErrTooFewOptions       = errors.New("record must have at least 2 options")
	ErrTooManyOptions      = errors.New("record cannot have more than 5 options")
	ErrCorrectIndexInvalid = errors.New("correct index out of option range")
)

// QuizRecord represents one multiple-choice question: the question text,
// its ordered options, the index of the correct option, an optional
// explanation, and type/section metadata carried through to export.
type QuizRecord struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Explanation  string   `json:"explanation,omitempty"`
	Type         string   `json:"type,omitempty"`
	Section      string   `json:"section,omitempty"`
}

// Validate checks if the QuizRecord has valid data.
// Returns an error if any field fails validation.
func (r *QuizRecord) Validate() error {
	if r.Question == "" {
		return ErrEmptyQuestion
	}

	if len(r.Options) < MinOptions {
		return fmt.Errorf("%w: got %d", ErrTooFewOptions, len(r.Options))
	}

	if len(r.Options) > MaxOptions {
		return fmt.Errorf("%w: got %d", ErrTooManyOptions, len(r.Options))
	}

	if r.CorrectIndex == NoCorrectOption {
		return nil
	}

	if r.CorrectIndex < 0 || r.CorrectIndex >= len(r.Options) {
		return fmt.Errorf("%w: index %d with %d options",
			ErrCorrectIndexInvalid, r.CorrectIndex, len(r.Options))
	}

	return nil
}

// CorrectOption returns the letter label (A-E) for the correct option.
func (r *QuizRecord) CorrectOption() string {
	if r.CorrectIndex < 0 || r.CorrectIndex >= len(r.Options) {
		return "A"
	}
	return string(rune('A' + r.CorrectIndex))
}
