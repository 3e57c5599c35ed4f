package generation

import "errors"

// Common errors returned by the generation package
var (
	// ErrRateLimited is returned when the provider rejects a call because
	// the credential's quota or rate limit is exhausted. The caller
	// should rotate to a different credential and retry.
	ErrRateLimited = errors.New("generation call rate limited")

	// ErrTransient is returned for temporary failures that might resolve
	// on retry with the same credential.
	ErrTransient = errors.New("transient error during generation")

	// ErrInvalidInput is returned when the source items cannot be
	// processed at all. Never retried.
	ErrInvalidInput = errors.New("invalid generation input")

	// ErrInvalidResponse is returned when the provider response cannot be
	// parsed or is malformed.
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the provider blocks the content
	// due to safety filters.
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrInvalidConfig is returned when the generator configuration is invalid.
	ErrInvalidConfig = errors.New("invalid generator configuration")
)
