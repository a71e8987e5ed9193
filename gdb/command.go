package gdb

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/zhubert/uartspy/metrics"
)

// ErrChannelClosed is wrapped by every error from a failed send. A session
// cannot continue once its command channel fails.
var ErrChannelClosed = errors.New("command channel closed")

// Sender delivers one command line to the debugger.
type Sender interface {
	Send(command string) error
}

// CommandChannel writes commands to the debugger's input stream. Each command
// is followed by exactly one newline and flushed before Send returns.
type CommandChannel struct {
	mu      sync.Mutex
	w       *bufio.Writer
	closer  io.Closer
	closed  bool
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewCommandChannel wraps w. If w is also an io.Closer, Close closes it.
func NewCommandChannel(w io.Writer, m *metrics.Metrics, log *slog.Logger) *CommandChannel {
	c := &CommandChannel{
		w:       bufio.NewWriter(w),
		log:     log,
		metrics: m,
	}
	if closer, ok := w.(io.Closer); ok {
		c.closer = closer
	}
	return c
}

// Send writes command plus "\n" and flushes.
func (c *CommandChannel) Send(command string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("send %q: %w", command, ErrChannelClosed)
	}

	c.w.WriteString(command)
	c.w.WriteByte('\n')
	if err := c.w.Flush(); err != nil {
		c.closed = true
		c.log.Error("command write failed", "command", command, "error", err)
		return fmt.Errorf("send %q: %w: %v", command, ErrChannelClosed, err)
	}

	c.log.Debug("command sent", "command", command)
	c.metrics.ObserveCommand()
	return nil
}

// Close marks the channel closed and closes the underlying writer.
func (c *CommandChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed && c.closer == nil {
		return nil
	}
	c.closed = true
	if c.closer == nil {
		return nil
	}
	closer := c.closer
	c.closer = nil
	return closer.Close()
}
