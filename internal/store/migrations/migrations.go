// Package migrations applies the embedded PostgreSQL schema.
package migrations

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // postgres:// driver
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed sql/*.sql
var migrationsFS embed.FS

// Migrator runs schema migrations against a database URL.
type Migrator struct {
	migrate *migrate.Migrate
	logger  *zap.Logger
}

// New creates a migrator for databaseURL (postgres:// scheme).
func New(databaseURL string, logger *zap.Logger) (*Migrator, error) {
	source, err := iofs.New(migrationsFS, "sql")
	if err != nil {
		return nil, fmt.Errorf("open migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}

	return &Migrator{migrate: m, logger: logger}, nil
}

// Up applies all pending migrations.
func (m *Migrator) Up() error {
	version, dirty, err := m.migrate.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read schema version: %w", err)
	}

	if dirty {
		m.logger.Warn("schema is dirty, forcing version", zap.Uint("version", version))

		if err := m.migrate.Force(int(version)); err != nil { //nolint:gosec // G115: migration versions fit in int
			return fmt.Errorf("force version %d: %w", version, err)
		}
	}

	if err := m.migrate.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.Info("schema is up to date", zap.Uint("version", version))

			return nil
		}

		return fmt.Errorf("apply migrations: %w", err)
	}

	newVersion, _, _ := m.migrate.Version()
	m.logger.Info("schema migrated", zap.Uint("version", newVersion))

	return nil
}

// Down rolls back one migration.
func (m *Migrator) Down() error {
	if err := m.migrate.Steps(-1); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}

		return fmt.Errorf("roll back migration: %w", err)
	}

	return nil
}

// Close releases the source and database handles.
func (m *Migrator) Close() error {
	sourceErr, dbErr := m.migrate.Close()

	return errors.Join(sourceErr, dbErr)
}

// Run opens a migrator, applies every pending migration and closes it.
func Run(databaseURL string, logger *zap.Logger) error {
	return RunContext(context.Background(), databaseURL, logger)
}

// RunContext is Run, asking migrate to stop after the current step once ctx is done.
func RunContext(ctx context.Context, databaseURL string, logger *zap.Logger) error {
	m, err := New(databaseURL, logger)
	if err != nil {
		return err
	}

	finished := make(chan struct{})
	defer close(finished)

	go func() {
		select {
		case <-ctx.Done():
			m.migrate.GracefulStop <- true
		case <-finished:
		}
	}()

	upErr := m.Up()

	return errors.Join(upErr, m.Close())
}
