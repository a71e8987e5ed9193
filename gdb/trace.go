package gdb

import (
	"fmt"
	"io"
	"time"
)

// DefaultIdleGap is how long the target may stay quiet before the trace
// starts a new line.
const DefaultIdleGap = 500 * time.Millisecond

// Trace renders captured bytes as "41 42 " and inserts a line break after an
// idle gap. The break fires at most once per gap: it is disarmed after firing
// and re-armed by the next captured byte. Before the first byte it is disarmed.
type Trace struct {
	w     io.Writer
	gap   time.Duration
	last  time.Time
	armed bool
}

// NewTrace writes to w, breaking lines after gap of silence.
func NewTrace(w io.Writer, gap time.Duration) *Trace {
	if gap <= 0 {
		gap = DefaultIdleGap
	}
	return &Trace{w: w, gap: gap}
}

// Capture appends b as two uppercase hex digits and a space.
func (t *Trace) Capture(b byte, now time.Time) error {
	t.last = now
	t.armed = true
	_, err := fmt.Fprintf(t.w, "%02X ", b)
	return err
}

// CheckIdle emits a line break if more than the idle gap has passed since the
// last capture. It reports whether a break was written.
func (t *Trace) CheckIdle(now time.Time) (bool, error) {
	if !t.armed || now.Sub(t.last) <= t.gap {
		return false, nil
	}
	t.armed = false
	_, err := io.WriteString(t.w, "\n")
	return true, err
}

// Deadline returns the instant after which CheckIdle would fire, and false
// if no break is pending.
func (t *Trace) Deadline() (time.Time, bool) {
	if !t.armed {
		return time.Time{}, false
	}
	return t.last.Add(t.gap), true
}
