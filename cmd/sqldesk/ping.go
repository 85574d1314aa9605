package main

import (
	"context"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/joacominatel/sqldesk/internal/database"
)

var pingCmd = &cobra.Command{
	Use:   "ping <connection-string>",
	Short: "Check that a connection string works",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spinner, _ := pterm.DefaultSpinner.Start("Connecting...")

		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()

		start := time.Now()
		conn, err := database.Open(ctx, args[0])
		if err != nil {
			spinner.Fail(err.Error())
			return err
		}
		defer conn.Close()

		if err := conn.Ping(ctx); err != nil {
			spinner.Fail(err.Error())
			return err
		}

		spinner.Success(pterm.Sprintf("%s: connected to %q in %s",
			conn.Descriptor().Name, conn.DatabaseName(), time.Since(start).Round(time.Millisecond)))
		return nil
	},
}
