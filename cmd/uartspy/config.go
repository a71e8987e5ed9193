package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zhubert/uartspy/config"
	"github.com/zhubert/uartspy/paths"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the session profile",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented default profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		if path == "" {
			var err error
			if path, err = paths.ProfilePath(); err != nil {
				return err
			}
		}
		force, _ := cmd.Flags().GetBool("force")

		if err := config.WriteTemplate(path, force); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := loadProfile(cmd)
		if err != nil {
			return err
		}
		out, err := profile.Marshal()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", profile.FilePath(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	configInitCmd.Flags().Bool("force", false, "Overwrite an existing profile")
}
