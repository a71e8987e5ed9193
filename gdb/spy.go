package gdb

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/zhubert/uartspy/metrics"
)

// State is the spy's position in the trigger → read → resume cycle.
type State int

const (
	StateIdle State = iota
	StateArmed
	StateWaitingTrigger
	StateReadingValue
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateWaitingTrigger:
		return "waiting-trigger"
	case StateReadingValue:
		return "reading-value"
	default:
		return "unknown"
	}
}

// errIdleWake means the queue stayed empty past the idle deadline.
var errIdleWake = errors.New("idle deadline reached")

// SpyConfig holds the commands and timing the spy uses.
type SpyConfig struct {
	Setup   SetupCommands
	Run     string
	Read    string
	Resume  string
	Trigger string
	IdleGap time.Duration
}

// DefaultSpyConfig returns the stock STM8 configuration.
func DefaultSpyConfig() SpyConfig {
	return SpyConfig{
		Setup:   DefaultSetupCommands(),
		Run:     DefaultRunCommand,
		Read:    DefaultReadCommand,
		Resume:  DefaultResumeCommand,
		Trigger: DefaultTrigger,
		IdleGap: DefaultIdleGap,
	}
}

// Spy turns breakpoint triggers into register reads and renders the values.
//
// Run and Handle must be called from one goroutine; State and Captured may be
// called from anywhere.
type Spy struct {
	sender  Sender
	queue   *EventQueue
	grammar *Grammar
	trace   *Trace
	cfg     SpyConfig
	metrics *metrics.Metrics
	log     *slog.Logger
	now     func() time.Time

	// reads issued whose reply has not been seen yet
	pending int

	mu       sync.Mutex
	state    State
	captured int
}

// NewSpy creates a spy that sends through sender, consumes queue and writes
// the trace to out.
func NewSpy(sender Sender, queue *EventQueue, out io.Writer, cfg SpyConfig, m *metrics.Metrics, log *slog.Logger) *Spy {
	return &Spy{
		sender:  sender,
		queue:   queue,
		grammar: NewGrammar(cfg.Trigger),
		trace:   NewTrace(out, cfg.IdleGap),
		cfg:     cfg,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

// State returns the current state.
func (s *Spy) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Captured returns the number of bytes rendered so far.
func (s *Spy) Captured() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.captured
}

func (s *Spy) setState(st State) {
	s.mu.Lock()
	prev := s.state
	s.state = st
	s.mu.Unlock()

	if prev != st {
		s.log.Debug("spy state", "from", prev, "to", st)
	}
}

// Run arms the breakpoints, starts the target and handles queued lines until
// the queue is closed (the debugger exited) or ctx ends. A closed queue is a
// normal end and returns nil. Send failures are fatal and returned.
func (s *Spy) Run(ctx context.Context) error {
	defer s.setState(StateIdle)

	if err := Setup(s.sender, s.cfg.Setup); err != nil {
		return err
	}
	s.setState(StateArmed)

	if err := s.sender.Send(s.cfg.Run); err != nil {
		return err
	}
	s.setState(StateWaitingTrigger)
	s.log.Info("spy running", "idleGap", s.trace.gap)

	for {
		line, err := s.next(ctx)
		switch {
		case errors.Is(err, errIdleWake):
			if err := s.checkIdle(s.now()); err != nil {
				return err
			}
			continue
		case errors.Is(err, ErrQueueClosed):
			s.log.Info("debugger output ended, spy stopping", "captured", s.Captured())
			return nil
		case err != nil:
			return err
		}

		if err := s.Handle(line); err != nil {
			return err
		}
	}
}

// next pops the next line. While a line break is pending it waits no longer
// than the idle deadline, so the break appears even if the debugger is silent.
func (s *Spy) next(ctx context.Context) (TaggedLine, error) {
	deadline, pending := s.trace.Deadline()
	if !pending {
		return s.queue.Pop(ctx)
	}

	waitCtx, cancel := context.WithDeadline(ctx, deadline.Add(time.Millisecond))
	defer cancel()

	line, err := s.queue.Pop(waitCtx)
	if err != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return TaggedLine{}, errIdleWake
	}
	return line, err
}

// Handle runs one loop iteration for line: the idle check, then the reaction
// to a trigger or register reply. Other lines are ignored.
func (s *Spy) Handle(line TaggedLine) error {
	now := s.now()
	if err := s.checkIdle(now); err != nil {
		return err
	}

	ev := s.grammar.Classify(line)
	switch ev.Kind {
	case EventTrigger:
		s.metrics.ObserveTrigger()
		s.pending++
		s.setState(StateReadingValue)
		if err := s.sender.Send(s.cfg.Read); err != nil {
			return err
		}
		return s.sender.Send(s.cfg.Resume)

	case EventValue:
		if s.pending > 0 {
			s.pending--
		} else {
			s.log.Debug("register value without trigger", "value", ev.Value)
		}
		if s.pending == 0 {
			s.setState(StateWaitingTrigger)
		}
		s.metrics.ObserveByte()
		s.mu.Lock()
		s.captured++
		s.mu.Unlock()
		return s.trace.Capture(ev.Value, now)

	case EventMalformedValue:
		s.metrics.ObserveMalformed()
		s.log.Debug("register value out of byte range", "line", string(line.Text))
	}
	return nil
}

func (s *Spy) checkIdle(now time.Time) error {
	fired, err := s.trace.CheckIdle(now)
	if fired {
		s.metrics.ObserveFrame()
	}
	return err
}
