/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"
	"github.com/walkgoal/apiserver/config"
	"github.com/walkgoal/apiserver/internal/db"
)

// migrateCmd represents the migrate command.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all up migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd, func(m *migrate.Migrate) error {
			return m.Up()
		})
	},
}

var migrateDownSteps int

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if migrateDownSteps < 1 {
			return errors.New("--steps must be at least 1")
		}
		return withMigrator(cmd, func(m *migrate.Migrate) error {
			return m.Steps(-migrateDownSteps)
		})
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)

	migrateDownCmd.Flags().IntVar(&migrateDownSteps, "steps", 1, "number of migrations to roll back")
}

func withMigrator(cmd *cobra.Command, fn func(m *migrate.Migrate) error) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Store.Driver == config.StoreDriverMemory {
		return errors.New("the memory store has no schema to migrate")
	}

	conn, err := db.Open(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	migrator, err := db.NewMigrator(conn, cfg.Store.Driver)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := fn(migrator); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("no migrations to apply")
			return nil
		}
		return fmt.Errorf("migrate %s failed: %w", cmd.Name(), err)
	}

	version, dirty, err := migrator.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		logger.Info("migrations complete", "version", "none")
	case err != nil:
		return err
	default:
		logger.Info("migrations complete", "version", version, "dirty", dirty)
	}
	return nil
}
