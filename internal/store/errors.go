package store

import "errors"

// Common store errors shared across store implementations.
var (
	// ErrNotFound indicates that a requested entity does not exist in the store.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate indicates that an entity with the same unique identity
	// already exists in the store.
	ErrDuplicate = errors.New("duplicate entity")

	// ErrInvalidEntity indicates that an entity failed a storage-level
	// constraint such as a foreign key or check constraint.
	ErrInvalidEntity = errors.New("invalid entity")
)

// Allowlist-specific errors.
var (
	// ErrUserNotAllowed indicates that a user is not present in the allowlist.
	ErrUserNotAllowed = errors.New("user not allowed")

	// ErrUserAlreadyAllowed indicates an attempt to add a user who is
	// already present in the allowlist.
	ErrUserAlreadyAllowed = errors.New("user already allowed")
)
