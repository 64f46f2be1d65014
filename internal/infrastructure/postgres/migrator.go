package postgres

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMigrations applies all pending migrations. Safe to call on every
// startup; an up-to-date schema is not an error.
func RunMigrations(databaseURL, migrationsPath string) error {
	m, err := newMigrator(databaseURL, migrationsPath)
	if err != nil {
		return err
	}

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		slog.Info("migrations already up to date")
		return nil
	case err != nil:
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("migrations applied")
	return nil
}

// RunMigrationsDown rolls back the most recent migration.
func RunMigrationsDown(databaseURL, migrationsPath string) error {
	m, err := newMigrator(databaseURL, migrationsPath)
	if err != nil {
		return err
	}

	if err := m.Steps(-1); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}

	slog.Info("migration rolled back")
	return nil
}

func newMigrator(databaseURL, migrationsPath string) (*migrate.Migrate, error) {
	m, err := migrate.New("file://"+migrationsPath, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}
