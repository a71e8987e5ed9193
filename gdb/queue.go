package gdb

import (
	"context"
	"errors"
	"sync"
)

// ErrQueueClosed is returned by Pop once the queue is closed and empty.
var ErrQueueClosed = errors.New("event queue closed")

// EventQueue is an unbounded FIFO of tagged lines shared by many producers
// and a single consumer. Push never blocks; Pop blocks until a line is
// available, the queue is closed, or the context ends.
type EventQueue struct {
	mu     sync.Mutex
	items  []TaggedLine
	closed bool

	// ready holds at most one wake-up for a waiting consumer.
	ready chan struct{}
	done  chan struct{}
}

// NewEventQueue creates an empty queue.
func NewEventQueue() *EventQueue {
	return &EventQueue{
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Push appends a line. It reports false if the queue is already closed.
func (q *EventQueue) Push(line TaggedLine) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, line)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
	return true
}

// Pop removes and returns the oldest line, blocking until one is available.
// Lines pushed before Close are still delivered; after that Pop returns
// ErrQueueClosed.
func (q *EventQueue) Pop(ctx context.Context) (TaggedLine, error) {
	for {
		if line, ok := q.TryPop(); ok {
			return line, nil
		}

		q.mu.Lock()
		closed := q.closed && len(q.items) == 0
		q.mu.Unlock()
		if closed {
			return TaggedLine{}, ErrQueueClosed
		}

		select {
		case <-q.ready:
		case <-q.done:
		case <-ctx.Done():
			return TaggedLine{}, ctx.Err()
		}
	}
}

// TryPop removes the oldest line without blocking.
func (q *EventQueue) TryPop() (TaggedLine, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return TaggedLine{}, false
	}
	line := q.items[0]
	q.items[0] = TaggedLine{}
	q.items = q.items[1:]
	return line, true
}

// Drain removes and returns every line queued right now. It never waits for
// lines that have not arrived yet.
func (q *EventQueue) Drain() []TaggedLine {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.items
	q.items = nil
	return out
}

// Len returns the number of queued lines.
func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops accepting lines and wakes any waiting consumer. Safe to call
// more than once.
func (q *EventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
}
