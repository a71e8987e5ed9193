package gdb

import (
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingSender records commands and optionally fails or reacts to them.
type recordingSender struct {
	mu       sync.Mutex
	commands []string
	failOn   string
	onSend   func(command string)
}

func (r *recordingSender) Send(command string) error {
	r.mu.Lock()
	if r.failOn != "" && command == r.failOn {
		r.mu.Unlock()
		return ErrChannelClosed
	}
	r.commands = append(r.commands, command)
	onSend := r.onSend
	r.mu.Unlock()

	if onSend != nil {
		onSend(command)
	}
	return nil
}

func (r *recordingSender) Commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.commands))
	copy(out, r.commands)
	return out
}

func (r *recordingSender) count(command string) int {
	n := 0
	for _, c := range r.Commands() {
		if c == command {
			n++
		}
	}
	return n
}

// syncBuffer is a strings.Builder safe for one writer and concurrent readers.
type syncBuffer struct {
	mu sync.Mutex
	sb strings.Builder
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sb.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sb.String()
}

// fakeClock is advanced by hand.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func primary(s string) TaggedLine    { return TaggedLine{Origin: Primary, Text: []byte(s)} }
func diagnostic(s string) TaggedLine { return TaggedLine{Origin: Diagnostic, Text: []byte(s)} }

// waitFor polls cond until it holds or the timeout expires.
func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
