// Package migrations embeds SQL migration files into the binary.
//
// Doorsense runs its schema migrations at startup without needing the SQL
// files on disk.
package migrations

import (
	"embed"

	"github.com/nerrad567/doorsense/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
