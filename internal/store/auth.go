package store

import (
	"context"
	"time"
)

// AllowedUser represents a chat user granted access to the service.
type AllowedUser struct {
	// UserID is the external chat platform identifier for the user.
	UserID int64

	// Sudo marks the user as an administrator with access to
	// management operations.
	Sudo bool

	// AddedAt records when the user was added to the allowlist.
	AddedAt time.Time
}

// AuthorizationStore defines the interface for the user allowlist.
// Implementations are responsible for persistence and for returning
// the sentinel errors defined in this package so callers can react to
// specific conditions without knowing storage details.
type AuthorizationStore interface {
	// IsAllowed reports whether the user is present in the allowlist.
	IsAllowed(ctx context.Context, userID int64) (bool, error)

	// IsSudo reports whether the user is an allowlisted administrator.
	// A user who is not allowlisted at all is not sudo.
	IsSudo(ctx context.Context, userID int64) (bool, error)

	// Allow adds a user to the allowlist.
	// Returns ErrUserAlreadyAllowed if the user is already present.
	Allow(ctx context.Context, userID int64, sudo bool) error

	// Revoke removes a user from the allowlist.
	// Returns ErrUserNotAllowed if the user is not present.
	Revoke(ctx context.Context, userID int64) error

	// List returns all allowlisted users ordered by the time they
	// were added.
	List(ctx context.Context) ([]AllowedUser, error)
}
