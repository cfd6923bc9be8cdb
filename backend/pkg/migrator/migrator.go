// Package migrator runs embedded dbmate migrations against a SQLite database.
package migrator

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"strings"

	"relay-bridge/backend/pkg/utils"

	"github.com/amacneil/dbmate/v2/pkg/dbmate"
	_ "github.com/amacneil/dbmate/v2/pkg/driver/sqlite"
	_ "github.com/mattn/go-sqlite3"
)

// Migrator applies embedded SQL migrations to a SQLite database file.
type Migrator struct {
	db      *dbmate.DB
	l       *slog.Logger
	sqlPath string
}

// New creates a SQLite migrator. sqlPath must be a file path; in-memory
// databases are rejected since dbmate opens its own connection. migrationsFS
// must contain a top-level "migrations" directory.
func New(l *slog.Logger, migrationsFS fs.FS, sqlPath string) (*Migrator, error) {
	if sqlPath == "" {
		return nil, errors.New("sqlPath is required")
	}

	if strings.Contains(sqlPath, "memory") {
		return nil, errors.New("in-memory databases are not supported")
	}

	if _, err := fs.ReadDir(migrationsFS, "migrations"); err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	u, err := url.Parse("sqlite:" + sqlPath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}

	db := dbmate.New(u)
	db.Strict = true
	db.FS = migrationsFS
	db.MigrationsDir = []string{"migrations"}
	db.AutoDumpSchema = false

	l = l.With(slog.String("component", "db-migrator"), slog.String("dialect", "sqlite"))
	db.Log = utils.NewSlogWriter(l)

	return &Migrator{
		db:      db,
		l:       l,
		sqlPath: sqlPath,
	}, nil
}

// Migrate applies all pending migrations.
func (m *Migrator) Migrate() error {
	m.l.Info("Migrating database")

	if err := m.db.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}

// DumpSchema dumps the database schema to the specified file path.
func (m *Migrator) DumpSchema(filePath string) error {
	m.db.SchemaFile = filePath

	m.l.Info("Dumping schema", slog.String("file", filePath))

	if err := m.db.DumpSchema(); err != nil {
		return fmt.Errorf("failed to dump schema: %w", err)
	}

	return nil
}
