package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/zhubert/uartspy/config"
	"github.com/zhubert/uartspy/exec"
	"github.com/zhubert/uartspy/gdb"
	"github.com/zhubert/uartspy/logger"
	"github.com/zhubert/uartspy/metrics"
)

// app bundles what the console and spy commands share.
type app struct {
	profile *config.Profile
	session *gdb.Session
	metrics *metrics.Metrics
	log     *slog.Logger
}

// startSession loads the profile, starts the metrics endpoint if requested
// and launches the debugger. The metrics server stops with ctx.
func startSession(ctx context.Context, cmd *cobra.Command) (*app, error) {
	profile, err := loadProfile(cmd)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		mlog := logger.WithComponent("metrics")
		go func() {
			if err := m.Serve(ctx, addr, mlog); err != nil {
				mlog.Error("metrics server failed", "error", err)
			}
		}()
	}

	session := gdb.NewSession(profile.SessionConfig(), exec.GetDefaultExecutor(), m, logger.WithComponent("gdb"))
	log := logger.WithSession(session.ID())

	if profile.Transcript {
		path, err := logger.TranscriptLogPath(session.ID())
		if err != nil {
			return nil, err
		}
		session.SetTranscriptPath(path)
		log.Info("recording transcript", "path", path)
	}

	if err := session.Start(); err != nil {
		session.Stop()
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	return &app{profile: profile, session: session, metrics: m, log: log}, nil
}

// newSpy builds a spy bound to the session, writing the trace to out.
func (r *app) newSpy(cmd *cobra.Command) *gdb.Spy {
	return gdb.NewSpy(r.session, r.session.Queue(), cmd.OutOrStdout(), r.profile.SpyConfig(), r.metrics, logger.WithComponent("spy").With("sessionID", r.session.ID()))
}
