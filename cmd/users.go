/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/walkgoal/apiserver/internal/server"
	"github.com/walkgoal/apiserver/internal/services"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage the names allowed to log minutes",
}

var usersAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Register a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUsers(cmd, func(users *services.UserService) error {
			user, err := users.Add(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", user.ID, user.Name)
			return nil
		})
	},
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUsers(cmd, func(users *services.UserService) error {
			list, err := users.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, user := range list {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", user.ID, user.Name)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersAddCmd)
	usersCmd.AddCommand(usersListCmd)
}

func withUsers(cmd *cobra.Command, fn func(users *services.UserService) error) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	stores, err := server.OpenStores(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer stores.Close()

	return fn(services.NewUserService(stores.Users, nil))
}
