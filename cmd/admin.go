/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/walkgoal/apiserver/internal/server"
	"github.com/walkgoal/apiserver/internal/services"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage the admin account",
}

var adminPasswordCmd = &cobra.Command{
	Use:   "password NEW_PASSWORD",
	Short: "Replace the admin password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		stores, err := server.OpenStores(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer stores.Close()

		if err := services.NewSettingsService(stores.Settings).SetAdminPassword(cmd.Context(), args[0]); err != nil {
			return err
		}
		logger.Info("admin password updated")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminPasswordCmd)
}
