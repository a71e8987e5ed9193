// Package console is the line-oriented operator console. It forwards typed
// commands to the debugger and prints whatever the debugger answered shortly
// after. The delay before printing is a display aid only: replies that arrive
// later are shown after the next command.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/muesli/termenv"

	"github.com/zhubert/uartspy/gdb"
)

// OutputPrefix starts every printed debugger line.
const OutputPrefix = "GDB> "

// Options configures a Console.
type Options struct {
	// DrainDelay is how long to wait after a command before printing the
	// queued output.
	DrainDelay time.Duration

	QuitWord  string
	SetupWord string
	SpyWord   string

	// Setup is sent when the operator types SetupWord.
	Setup gdb.SetupCommands

	// Prompt is written before each read. Leave empty when input is not a
	// terminal.
	Prompt string

	// Color highlights diagnostic lines.
	Color bool
}

// SpyFunc runs the spy until ctx ends or the debugger exits.
type SpyFunc func(ctx context.Context) error

// InterruptFunc derives the context a spy run is bound to. The default
// cancels it on SIGINT so Ctrl-C returns to the console.
type InterruptFunc func(parent context.Context) (context.Context, context.CancelFunc)

// Console reads operator lines and drives the debugger session.
type Console struct {
	sender    gdb.Sender
	queue     *gdb.EventQueue
	in        io.Reader
	out       io.Writer
	opts      Options
	spy       SpyFunc
	interrupt InterruptFunc
	profile   termenv.Profile
	log       *slog.Logger
}

// New creates a console that sends through sender and prints from queue.
func New(sender gdb.Sender, queue *gdb.EventQueue, in io.Reader, out io.Writer, opts Options, spy SpyFunc, log *slog.Logger) *Console {
	profile := termenv.Ascii
	if opts.Color {
		profile = termenv.ColorProfile()
	}
	return &Console{
		sender:  sender,
		queue:   queue,
		in:      in,
		out:     out,
		opts:    opts,
		spy:     spy,
		profile: profile,
		log:     log,
		interrupt: func(parent context.Context) (context.Context, context.CancelFunc) {
			return signal.NotifyContext(parent, os.Interrupt)
		},
	}
}

// SetInterrupt replaces how spy runs are made cancelable.
func (c *Console) SetInterrupt(fn InterruptFunc) {
	c.interrupt = fn
}

// Run processes input until the quit word, end of input, the end of ctx or a
// fatal send failure. Quit and end of input return nil.
func (c *Console) Run(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		if c.opts.Prompt != "" {
			io.WriteString(c.out, c.opts.Prompt)
		}

		var line string
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if err != nil {
						return fmt.Errorf("read console input: %w", err)
					}
				default:
				}
				c.log.Debug("console input ended")
				return nil
			}
			line = strings.TrimRight(l, "\r")
		}

		switch line {
		case c.opts.QuitWord:
			c.log.Debug("quit requested")
			return nil

		case c.opts.SetupWord:
			c.log.Info("arming breakpoints from console")
			if err := gdb.Setup(c.sender, c.opts.Setup); err != nil {
				return err
			}

		case c.opts.SpyWord:
			ended, err := c.runSpy(ctx)
			if err != nil {
				return err
			}
			if ended {
				fmt.Fprintln(c.out, "debugger exited")
				return nil
			}

		default:
			if err := c.sender.Send(line); err != nil {
				return err
			}
			if err := c.sleep(ctx); err != nil {
				return err
			}
			c.PrintQueued()
		}
	}
}

// runSpy runs the spy until it is interrupted. ended reports that the
// debugger went away while spying.
func (c *Console) runSpy(ctx context.Context) (ended bool, err error) {
	if c.spy == nil {
		fmt.Fprintln(c.out, "spy is not available")
		return false, nil
	}

	spyCtx, stop := c.interrupt(ctx)
	defer stop()

	fmt.Fprintln(c.out, "spying, press Ctrl-C to return to the console")
	c.log.Info("spy started from console")
	err = c.spy(spyCtx)
	fmt.Fprintln(c.out)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, context.Canceled) && ctx.Err() == nil:
		c.log.Info("spy interrupted, back to console")
		return false, nil
	default:
		return false, err
	}
}

func (c *Console) sleep(ctx context.Context) error {
	if c.opts.DrainDelay <= 0 {
		return nil
	}
	t := time.NewTimer(c.opts.DrainDelay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PrintQueued prints every line already queued, without waiting for more.
func (c *Console) PrintQueued() {
	for _, line := range Render(c.queue.Drain(), c.profile) {
		fmt.Fprintln(c.out, line)
	}
}

// Render formats each line as OutputPrefix followed by its text with
// surrounding whitespace trimmed. Blank lines are kept. Diagnostic lines are
// coloured when profile supports it.
func Render(lines []gdb.TaggedLine, profile termenv.Profile) []string {
	rendered := make([]string, 0, len(lines))
	for _, l := range lines {
		text := strings.TrimSpace(string(l.Text))
		if l.Origin == gdb.Diagnostic && text != "" {
			text = termenv.String(text).Foreground(profile.Color("1")).String()
		}
		rendered = append(rendered, OutputPrefix+text)
	}
	return rendered
}
