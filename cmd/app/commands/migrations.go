package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// DefaultMigrationsDir is the migrations root relative to the working directory. It holds
// one subdirectory per driver.
const DefaultMigrationsDir = "migrations"

// MigrateOptions selects the migration source and direction. Steps == 0 applies every
// pending migration; a negative value rolls back that many.
type MigrateOptions struct {
	Dir   string
	Steps int
}

// MigrationsPath returns the migration source URL for a driver under dir.
func MigrationsPath(dir, driver string) string {
	if dir == "" {
		dir = DefaultMigrationsDir
	}
	sub := "postgresql"
	if driver == "mysql" {
		sub = "mysql"
	}
	return "file://" + filepath.ToSlash(filepath.Join(dir, sub))
}

// RunMigrations migrates the ledger schema. Applying with nothing pending is a no-op.
func RunMigrations(logger *slog.Logger, dbDriver, dbConnectionString string, opts MigrateOptions) error {
	source := MigrationsPath(opts.Dir, dbDriver)
	logger.Info("running database migrations",
		slog.String("driver", dbDriver),
		slog.String("source", source),
		slog.Int("steps", opts.Steps),
	)

	m, err := migrate.New(source, migrationDatabaseURL(dbDriver, dbConnectionString))
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer closeMigrate(m, logger)

	if opts.Steps == 0 {
		err = m.Up()
	} else {
		err = m.Steps(opts.Steps)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		logger.Info("migrations completed, schema is empty")
	case err != nil:
		return fmt.Errorf("failed to read schema version: %w", err)
	case dirty:
		return fmt.Errorf("schema version %d is dirty, fix it manually and force the version", version)
	default:
		logger.Info("migrations completed", slog.Uint64("version", uint64(version)))
	}
	return nil
}

// migrationDatabaseURL turns a go-sql-driver/mysql DSN into the mysql:// URL golang-migrate
// expects. PostgreSQL connection strings are already URLs.
func migrationDatabaseURL(driver, connectionString string) string {
	if driver == "mysql" {
		return "mysql://" + connectionString
	}
	return connectionString
}
