// Package db owns the SQL schema: embedded migrations and the runner that
// applies them.
package db

import "embed"

// MigrationFS embeds the SQL migration files applied by Migrate.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
