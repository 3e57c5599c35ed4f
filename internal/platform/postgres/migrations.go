package postgres

import "embed"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationsFS returns the embedded goose migration files. The migration
// runner applies them at startup so the allowlist schema is always
// present before the first authorization check.
func MigrationsFS() embed.FS {
	return migrationsFS
}
