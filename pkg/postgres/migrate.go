package postgres

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

type migrateSettings struct {
	sourceURL string
	sourceFS  fs.FS
	table     string
}

// MigrateOption configures RunMigrations.
type MigrateOption func(*migrateSettings)

// WithSourceURL reads migrations from a golang-migrate source URL, e.g. "file://migrations".
// It takes precedence over WithSourceFS.
func WithSourceURL(sourceURL string) MigrateOption {
	return func(s *migrateSettings) {
		s.sourceURL = sourceURL
	}
}

// WithSourceFS reads migrations from the root of fsys.
func WithSourceFS(fsys fs.FS) MigrateOption {
	return func(s *migrateSettings) {
		s.sourceFS = fsys
	}
}

// WithMigrationsTable sets the table golang-migrate keeps its version in.
func WithMigrationsTable(table string) MigrateOption {
	return func(s *migrateSettings) {
		s.table = table
	}
}

func (s *migrateSettings) databaseURL(dsn string) string {
	if s.table == "" {
		return dsn
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}

	return dsn + sep + "x-migrations-table=" + url.QueryEscape(s.table)
}

func (s *migrateSettings) newMigrate(dsn string) (*migrate.Migrate, error) {
	dbURL := s.databaseURL(dsn)

	if s.sourceURL != "" {
		return migrate.New(s.sourceURL, dbURL)
	}

	if s.sourceFS == nil {
		return nil, errors.New("no migrations source")
	}

	src, err := iofs.New(s.sourceFS, ".")
	if err != nil {
		return nil, err
	}

	return migrate.NewWithSourceInstance("iofs", src, dbURL)
}

// RunMigrations applies every pending migration to the database at dsn.
// An up-to-date schema is not an error.
func RunMigrations(dsn string, opts ...MigrateOption) error {
	const op = "postgres.RunMigrations"

	var s migrateSettings
	for _, opt := range opts {
		opt(&s)
	}

	m, err := s.newMigrate(dsn)
	if err != nil {
		return fmt.Errorf("%s: failed to initialize migrations: %w", op, err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: failed to apply migrations: %w", op, err)
	}

	return nil
}
