package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/zhubert/uartspy/console"
	"github.com/zhubert/uartspy/logger"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Start the debugger and an interactive console",
	Long: `Starts the debugger and forwards each typed line to it, printing what it
answered. Special words (configurable in the profile):

  q     stop the debugger and exit
  xxx   arm the UART breakpoints without running
  spy   arm, run and print captured bytes; Ctrl-C returns to the console`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Interrupts are left to the spy; at the prompt Ctrl-C ends the process.
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
		defer stop()

		rt, err := startSession(ctx, cmd)
		if err != nil {
			return err
		}
		defer rt.session.Stop()

		opts := rt.profile.Console
		interactive := term.IsTerminal(int(os.Stdin.Fd()))
		consoleOpts := console.Options{
			DrainDelay: opts.DrainDelay.Duration,
			QuitWord:   opts.QuitWord,
			SetupWord:  opts.SetupWord,
			SpyWord:    opts.SpyWord,
			Setup:      rt.profile.SpyConfig().Setup,
			Color:      term.IsTerminal(int(os.Stdout.Fd())),
		}
		if interactive {
			consoleOpts.Prompt = "(uartspy) "
		}

		c := console.New(rt.session, rt.session.Queue(), cmd.InOrStdin(), cmd.OutOrStdout(), consoleOpts,
			func(ctx context.Context) error { return rt.newSpy(cmd).Run(ctx) },
			logger.WithComponent("console"))

		rt.log.Info("console started", "interactive", interactive)
		if err := c.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)

	// The console is the default when no subcommand is given
	rootCmd.RunE = consoleCmd.RunE
}
