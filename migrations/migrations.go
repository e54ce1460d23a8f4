// Package migrations embeds the SQL schema migrations applied by goose.
package migrations

import "embed"

// PostgresMigrations holds the PostgreSQL migrations under the "postgres" directory.
//
//go:embed postgres/*.sql
var PostgresMigrations embed.FS
