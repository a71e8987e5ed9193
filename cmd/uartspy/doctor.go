package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zhubert/uartspy/cli"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the debugger and firmware files are available",
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := loadProfile(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Profile: %s\n\n", profile.FilePath())

		prereqs := cli.DebuggerPrerequisites(profile.Debugger.Path)
		fmt.Fprint(out, cli.FormatCheckResults("Tools", cli.CheckAll(prereqs)))

		var files []cli.CheckResult
		for _, f := range []string{profile.Firmware, profile.InitScript} {
			if f == "" {
				continue
			}
			files = append(files, cli.CheckFile(cli.Prerequisite{Name: f, Required: true}, profile.Debugger.WorkDir))
		}
		fmt.Fprint(out, "\n"+cli.FormatCheckResults("Files", files))

		if err := cli.ValidateRequired(prereqs); err != nil {
			return err
		}
		for _, f := range files {
			if !f.Found {
				return f.Error
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
