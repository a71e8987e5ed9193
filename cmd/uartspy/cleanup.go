package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zhubert/uartspy/logger"
	"github.com/zhubert/uartspy/process"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Kill debuggers left behind by earlier sessions",
	Long: `Finds debugger processes that still hold the profile's firmware image and
kills them, releasing the debug probe. With --all every process of the
debugger executable is killed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := loadProfile(cmd)
		if err != nil {
			return err
		}
		all, _ := cmd.Flags().GetBool("all")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		clearLogs, _ := cmd.Flags().GetBool("logs")
		out := cmd.OutOrStdout()
		ctx := cmd.Context()

		if dryRun {
			stale, err := process.FindStaleDebuggers(ctx, profile.Debugger.Path, profile.Firmware, all)
			if err != nil {
				return err
			}
			for _, p := range stale {
				fmt.Fprintf(out, "would kill %d: %s\n", p.PID, p.Command)
			}
			fmt.Fprintf(out, "%d stale debugger(s)\n", len(stale))
		} else {
			killed, err := process.CleanupStaleDebuggers(ctx, profile.Debugger.Path, profile.Firmware, all)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "killed %d stale debugger(s)\n", killed)
		}

		if clearLogs && !dryRun {
			// The log file is recreated by the next command.
			logger.Close()
			removed, err := logger.ClearLogs()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "removed %d log file(s)\n", removed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanupCmd)

	cleanupCmd.Flags().Bool("all", false, "Kill every process of the debugger executable")
	cleanupCmd.Flags().Bool("dry-run", false, "List stale debuggers without killing them")
	cleanupCmd.Flags().Bool("logs", false, "Also remove the log file and session transcripts")
}
