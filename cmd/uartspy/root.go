package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zhubert/uartspy/config"
	"github.com/zhubert/uartspy/logger"
)

var rootCmd = &cobra.Command{
	Use:   "uartspy",
	Short: "Capture UART output through a debugger session",
	Long: `uartspy drives an on-chip debugger to recover the bytes a microcontroller
writes to its UART. A breakpoint on the transmit register write halts the
target, the byte is read from a register and the target is resumed.

Without a subcommand the interactive console is started.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		debug, _ := cmd.Flags().GetBool("debug")
		logger.SetDebug(debug)

		path, err := logger.DefaultLogPath()
		if err != nil {
			return err
		}
		return logger.Init(path)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Close()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadProfile loads the profile named by --config, or the default one.
func loadProfile(cmd *cobra.Command) (*config.Profile, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Session profile (default <config dir>/profile.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9464")
}
