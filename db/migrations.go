// Package db embeds the SQL migrations applied by `payable migrate`.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory of Migrations that goose reads.
const MigrationsDir = "migrations"
