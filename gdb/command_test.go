package gdb

import (
	"errors"
	"io"
	"testing"
)

// writeLog records each Write call separately so flushes are observable.
type writeLog struct {
	writes []string
	closed bool
	err    error
}

func (w *writeLog) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	w.writes = append(w.writes, string(p))
	return len(p), nil
}

func (w *writeLog) Close() error {
	w.closed = true
	return nil
}

func TestCommandChannel_SendAppendsNewlineAndFlushes(t *testing.T) {
	tests := []string{"run", "print $A", "continue", "", "gdi icdbreak -set BK1 0x00005231 0"}

	w := &writeLog{}
	ch := NewCommandChannel(w, nil, testLogger())

	for i, c := range tests {
		if err := ch.Send(c); err != nil {
			t.Fatalf("Send(%q): %v", c, err)
		}
		if len(w.writes) != i+1 {
			t.Fatalf("after Send(%q) saw %d writes, want %d (one flush per send)", c, len(w.writes), i+1)
		}
		if w.writes[i] != c+"\n" {
			t.Errorf("write %d = %q, want %q", i, w.writes[i], c+"\n")
		}
	}
}

func TestCommandChannel_WriteFailureIsFatal(t *testing.T) {
	w := &writeLog{err: io.ErrClosedPipe}
	ch := NewCommandChannel(w, nil, testLogger())

	err := ch.Send("run")
	if !errors.Is(err, ErrChannelClosed) {
		t.Fatalf("Send = %v, want ErrChannelClosed", err)
	}

	w.err = nil
	if err := ch.Send("continue"); !errors.Is(err, ErrChannelClosed) {
		t.Errorf("Send after failure = %v, want ErrChannelClosed", err)
	}
	if len(w.writes) != 0 {
		t.Errorf("no writes expected after failure, got %v", w.writes)
	}
}

func TestCommandChannel_Close(t *testing.T) {
	w := &writeLog{}
	ch := NewCommandChannel(w, nil, testLogger())

	if err := ch.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !w.closed {
		t.Error("Close should close the underlying writer")
	}
	if err := ch.Send("run"); !errors.Is(err, ErrChannelClosed) {
		t.Errorf("Send after Close = %v, want ErrChannelClosed", err)
	}
	if err := ch.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}
}
