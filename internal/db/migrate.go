package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/walkgoal/apiserver/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// NewMigrator builds a migrator for conn using the embedded migrations.
// Closing the returned migrator also closes conn.
func NewMigrator(conn *sql.DB, driver string) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}

	var target database.Driver
	switch driver {
	case config.StoreDriverPostgres:
		target, err = postgres.WithInstance(conn, &postgres.Config{})
	case config.StoreDriverSQLite:
		target, err = sqlite.WithInstance(conn, &sqlite.Config{})
	default:
		return nil, fmt.Errorf("store driver %q does not support migrations", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("init migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", src, driver, target)
	if err != nil {
		return nil, fmt.Errorf("init migrator failed: %w", err)
	}
	return migrator, nil
}

// MigrateUp applies all pending migrations and leaves conn open.
func MigrateUp(conn *sql.DB, driver string) error {
	migrator, err := NewMigrator(conn, driver)
	if err != nil {
		return err
	}
	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up failed: %w", err)
	}
	return nil
}
