package domain

import "errors"

// Common validation errors for Credential
var (
	ErrEmptyCredentialID     = errors.New("credential ID cannot be empty")
	ErrEmptyCredentialSecret = errors.New("credential secret cannot be empty")
)

// Credential is one API key used to authenticate outbound generation
// calls. The set of credentials is fixed for the process lifetime;
// availability state lives in the rotator, not here.
type Credential struct {
	ID     string `json:"id"`
	Secret string `json:"-"`
}

// Validate checks if the Credential has valid data.
func (c *Credential) Validate() error {
	if c.ID == "" {
		return ErrEmptyCredentialID
	}

	if c.Secret == "" {
		return ErrEmptyCredentialSecret
	}

	return nil
}
