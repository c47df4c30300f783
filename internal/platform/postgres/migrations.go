package postgres

import "embed"

// MigrationsFS embeds the goose SQL migrations so the migrate binary does
// not depend on the source tree being present at run time.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS

// MigrationsDir is the path of the migrations inside MigrationsFS.
const MigrationsDir = "migrations"
