package gemini

import "errors"

// Error definitions for the gemini package.
var (
	// ErrNoItems is returned when a generation call has no source items.
	ErrNoItems = errors.New("no source items to process")
)
