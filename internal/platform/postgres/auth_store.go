package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmehra/quizforge/internal/store"
)

// PostgresAuthStore implements the store.AuthorizationStore interface
// using a PostgreSQL database as the storage backend.
type PostgresAuthStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAuthStore creates a new PostgreSQL implementation of the
// AuthorizationStore interface. It accepts a database connection or
// transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresAuthStore(db store.DBTX, logger *slog.Logger) *PostgresAuthStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresAuthStore{
		db:     db,
		logger: logger.With(slog.String("component", "auth_store")),
	}
}

// Ensure PostgresAuthStore implements store.AuthorizationStore interface
var _ store.AuthorizationStore = (*PostgresAuthStore)(nil)

// IsAllowed implements store.AuthorizationStore.IsAllowed
// It reports whether the user ID is present in the allowlist.
func (s *PostgresAuthStore) IsAllowed(ctx context.Context, userID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM allowed_users WHERE user_id = $1
		)
	`

	var allowed bool
	if err := s.db.QueryRowContext(ctx, query, userID).Scan(&allowed); err != nil {
		s.logger.Error("failed to check allowlist membership",
			slog.String("error", err.Error()),
			slog.Int64("user_id", userID))
		return false, MapError(err)
	}
	return allowed, nil
}

// IsSudo implements store.AuthorizationStore.IsSudo
// It reports whether the user ID is an allowlisted administrator.
// A user who is not allowlisted at all is not sudo.
func (s *PostgresAuthStore) IsSudo(ctx context.Context, userID int64) (bool, error) {
	query := `
		SELECT sudo FROM allowed_users WHERE user_id = $1
	`

	var sudo bool
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&sudo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		s.logger.Error("failed to check sudo flag",
			slog.String("error", err.Error()),
			slog.Int64("user_id", userID))
		return false, MapError(err)
	}
	return sudo, nil
}

// Allow implements store.AuthorizationStore.Allow
// It adds the user to the allowlist.
// Returns store.ErrUserAlreadyAllowed if the user is already present.
func (s *PostgresAuthStore) Allow(ctx context.Context, userID int64, sudo bool) error {
	query := `
		INSERT INTO allowed_users (user_id, sudo, added_at)
		VALUES ($1, $2, $3)
	`

	_, err := s.db.ExecContext(ctx, query, userID, sudo, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			s.logger.Warn("user already in allowlist",
				slog.Int64("user_id", userID))
			return fmt.Errorf("%w: user ID %d", store.ErrUserAlreadyAllowed, userID)
		}
		s.logger.Error("failed to add user to allowlist",
			slog.String("error", err.Error()),
			slog.Int64("user_id", userID))
		return MapError(err)
	}

	s.logger.Info("user added to allowlist",
		slog.Int64("user_id", userID),
		slog.Bool("sudo", sudo))
	return nil
}

// Revoke implements store.AuthorizationStore.Revoke
// It removes the user from the allowlist.
// Returns store.ErrUserNotAllowed if the user is not present.
func (s *PostgresAuthStore) Revoke(ctx context.Context, userID int64) error {
	query := `
		DELETE FROM allowed_users WHERE user_id = $1
	`

	result, err := s.db.ExecContext(ctx, query, userID)
	if err != nil {
		s.logger.Error("failed to remove user from allowlist",
			slog.String("error", err.Error()),
			slog.Int64("user_id", userID))
		return MapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return MapError(err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: user ID %d", store.ErrUserNotAllowed, userID)
	}

	s.logger.Info("user removed from allowlist",
		slog.Int64("user_id", userID))
	return nil
}

// List implements store.AuthorizationStore.List
// It returns all allowlisted users ordered by the time they were added.
func (s *PostgresAuthStore) List(ctx context.Context) ([]store.AllowedUser, error) {
	query := `
		SELECT user_id, sudo, added_at
		FROM allowed_users
		ORDER BY added_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		s.logger.Error("failed to list allowlist",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var users []store.AllowedUser
	for rows.Next() {
		var u store.AllowedUser
		if err := rows.Scan(&u.UserID, &u.Sudo, &u.AddedAt); err != nil {
			return nil, MapError(err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return users, nil
}
