// Package testdb provides helpers for integration tests that need a
// real PostgreSQL database. Tests opt in through the
// QUIZFORGE_TEST_DB_URL environment variable and are skipped when it
// is not set, so the unit suite stays runnable without infrastructure.
package testdb

import (
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the pgx database/sql driver
	"github.com/pressly/goose/v3"

	"github.com/dmehra/quizforge/internal/platform/postgres"
)

// EnvDatabaseURL names the environment variable holding the test
// database connection string.
const EnvDatabaseURL = "QUIZFORGE_TEST_DB_URL"

var migrateOnce sync.Once

// URL returns the test database URL, skipping the test when none is
// configured.
func URL(t *testing.T) string {
	t.Helper()

	url := os.Getenv(EnvDatabaseURL)
	if url == "" {
		t.Skipf("skipping integration test: %s not set", EnvDatabaseURL)
	}
	return url
}

// Open connects to the test database, applies pending migrations, and
// registers a cleanup that closes the connection. Migrations run once
// per test binary.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", URL(t))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("failed to close test database: %v", err)
		}
	})

	if err := db.Ping(); err != nil {
		t.Fatalf("failed to ping test database: %v", err)
	}

	var migrateErr error
	migrateOnce.Do(func() {
		migrateErr = migrate(db)
	})
	if migrateErr != nil {
		t.Fatalf("failed to migrate test database: %v", migrateErr)
	}

	return db
}

// WithTx runs fn inside a transaction that is always rolled back, so
// tests leave no rows behind and can run against a shared database.
func WithTx(t *testing.T, db *sql.DB, fn func(tx *sql.Tx)) {
	t.Helper()

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			t.Logf("failed to roll back transaction: %v", err)
		}
	}()

	fn(tx)
}

func migrate(db *sql.DB) error {
	goose.SetBaseFS(postgres.MigrationsFS())
	goose.SetTableName("schema_migrations")
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}
