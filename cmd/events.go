/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/walkgoal/apiserver/internal/mq"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect activity events",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print activity events from the configured broker as they arrive",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		broker, err := mq.New(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		if broker == nil {
			return errors.New("MQ_BACKEND is not configured")
		}
		defer broker.Close()

		logger.Info("tailing events", "backend", cfg.MQ.Backend, "channel", cfg.MQ.Channel)
		out := cmd.OutOrStdout()
		err = broker.Subscribe(ctx, cfg.MQ.Channel, func(ctx context.Context, msg mq.Message) error {
			_, err := fmt.Fprintf(out, "%s\n", msg.Data)
			return err
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)
}
