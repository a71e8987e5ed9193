// Package metrics exposes Prometheus counters for the capture pipeline.
//
// A nil *Metrics is valid and records nothing, so core packages can be used
// without a registry.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "uartspy"

// Metrics groups the collectors for one process.
type Metrics struct {
	registry *prometheus.Registry

	Lines           *prometheus.CounterVec
	Triggers        prometheus.Counter
	BytesCaptured   prometheus.Counter
	Frames          prometheus.Counter
	CommandsSent    prometheus.Counter
	MalformedValues prometheus.Counter
}

// New creates the collectors and registers them on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Lines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_total",
			Help:      "Lines read from the debugger, by output stream.",
		}, []string{"stream"}),
		Triggers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "triggers_total",
			Help:      "Breakpoint trigger notifications handled.",
		}),
		BytesCaptured: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_captured_total",
			Help:      "UART bytes recovered from register reads.",
		}),
		Frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Line breaks emitted after an idle gap.",
		}),
		CommandsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_sent_total",
			Help:      "Commands written to the debugger.",
		}),
		MalformedValues: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_values_total",
			Help:      "Register replies whose value was outside 0..255.",
		}),
	}
	m.registry.MustRegister(m.Lines, m.Triggers, m.BytesCaptured, m.Frames, m.CommandsSent, m.MalformedValues)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveLine counts one line read from stream.
func (m *Metrics) ObserveLine(stream string) {
	if m == nil {
		return
	}
	m.Lines.WithLabelValues(stream).Inc()
}

// ObserveTrigger counts one breakpoint trigger.
func (m *Metrics) ObserveTrigger() {
	if m == nil {
		return
	}
	m.Triggers.Inc()
}

// ObserveByte counts one captured byte.
func (m *Metrics) ObserveByte() {
	if m == nil {
		return
	}
	m.BytesCaptured.Inc()
}

// ObserveFrame counts one idle-gap line break.
func (m *Metrics) ObserveFrame() {
	if m == nil {
		return
	}
	m.Frames.Inc()
}

// ObserveCommand counts one command sent.
func (m *Metrics) ObserveCommand() {
	if m == nil {
		return
	}
	m.CommandsSent.Inc()
}

// ObserveMalformed counts one out-of-range register value.
func (m *Metrics) ObserveMalformed() {
	if m == nil {
		return
	}
	m.MalformedValues.Inc()
}

// Handler returns the HTTP handler serving this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, log *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("metrics server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
