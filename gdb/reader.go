package gdb

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// LineObserver sees every line a reader enqueues. It runs on the reader's
// goroutine and must not block.
type LineObserver func(TaggedLine)

// ReadStream reads r line by line and pushes each line onto q tagged with
// origin, until the stream ends. A final line without a newline is still
// delivered. End of stream is the normal way for the debugger to go away, so
// it returns nil; only unexpected read errors are returned.
//
// There is no way to interrupt a read in progress: ReadStream returns when
// the process closes its end of the pipe.
func ReadStream(r io.Reader, origin Origin, q *EventQueue, observe LineObserver) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			tagged := TaggedLine{Origin: origin, Text: line}
			if observe != nil {
				observe(tagged)
			}
			q.Push(tagged)
		}
		if err != nil {
			if isEndOfStream(err) {
				return nil
			}
			return fmt.Errorf("read %s stream: %w", origin, err)
		}
	}
}

// isEndOfStream reports whether err means the other side went away.
func isEndOfStream(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, os.ErrClosed)
}
