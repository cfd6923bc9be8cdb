package migrations

import (
	"embed"
)

// migrationsFS embeds all SQL migration files.
// Structure:
//
//	.
//	|-- migrations
//	    |-- *.sql
//
//go:embed migrations/*.sql
var migrationsFS embed.FS

func GetFS() embed.FS {
	return migrationsFS
}
