package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var spyCmd = &cobra.Command{
	Use:   "spy",
	Short: "Capture UART bytes until interrupted",
	Long: `Starts the debugger, arms the UART breakpoints, runs the target and prints
every captured byte as two hex digits. A pause longer than the profile's
idle_gap starts a new line. Stops on Ctrl-C or when the debugger exits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rt, err := startSession(ctx, cmd)
		if err != nil {
			return err
		}
		defer rt.session.Stop()

		spy := rt.newSpy(cmd)
		err = spy.Run(ctx)
		fmt.Fprintln(cmd.OutOrStdout())

		rt.log.Info("spy finished", "captured", spy.Captured(), "error", err)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		if exitErr := rt.session.ExitErr(); err == nil && exitErr != nil {
			return fmt.Errorf("debugger exited: %w", exitErr)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(spyCmd)
}
