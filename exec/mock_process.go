package exec

import (
	"bufio"
	"errors"
	"io"
	"sync"
	"sync/atomic"
)

// ErrKilled is the exit error reported by a MockProcess after Kill.
var ErrKilled = errors.New("signal: killed")

var mockPid atomic.Int32

// Responder reacts to one command line read from a MockProcess's stdin.
// It runs on the process's stdin goroutine, so writes to stdout block until
// the consumer reads them, just like a real pipe.
type Responder func(p *MockProcess, command string)

// MockProcess is an in-memory interactive process backed by io.Pipe.
// Closing its stdin makes it exit cleanly, mirroring a REPL that sees EOF.
type MockProcess struct {
	pid     int
	respond Responder

	stdinR  *io.PipeReader
	stdinW  *io.PipeWriter
	stdoutR *io.PipeReader
	stdoutW *io.PipeWriter
	stderrR *io.PipeReader
	stderrW *io.PipeWriter

	mu       sync.Mutex
	commands []string

	exitOnce sync.Once
	exitErr  error
	done     chan struct{}
}

// NewMockProcess starts a mock process that feeds every stdin line to respond.
// A nil responder only records commands.
func NewMockProcess(respond Responder) *MockProcess {
	p := &MockProcess{
		pid:     int(mockPid.Add(1)) + 40000,
		respond: respond,
		done:    make(chan struct{}),
	}
	p.stdinR, p.stdinW = io.Pipe()
	p.stdoutR, p.stdoutW = io.Pipe()
	p.stderrR, p.stderrW = io.Pipe()

	go p.serve()
	return p
}

func (p *MockProcess) serve() {
	scanner := bufio.NewScanner(p.stdinR)
	for scanner.Scan() {
		command := scanner.Text()
		p.mu.Lock()
		p.commands = append(p.commands, command)
		p.mu.Unlock()

		if p.respond != nil {
			p.respond(p, command)
		}
	}
	p.Exit(nil)
}

// WriteStdout writes s to the process's primary output stream.
func (p *MockProcess) WriteStdout(s string) error {
	_, err := io.WriteString(p.stdoutW, s)
	return err
}

// WriteStderr writes s to the process's diagnostic output stream.
func (p *MockProcess) WriteStderr(s string) error {
	_, err := io.WriteString(p.stderrW, s)
	return err
}

// Commands returns every stdin line received so far, newline stripped.
func (p *MockProcess) Commands() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.commands))
	copy(out, p.commands)
	return out
}

// Exit ends the process with err. Output streams reach EOF and further
// writes to stdin fail with io.ErrClosedPipe.
func (p *MockProcess) Exit(err error) {
	p.exitOnce.Do(func() {
		p.exitErr = err
		p.stdoutW.Close()
		p.stderrW.Close()
		p.stdinR.CloseWithError(io.ErrClosedPipe)
		close(p.done)
	})
}

// Exited reports whether the process has exited.
func (p *MockProcess) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *MockProcess) Stdin() io.WriteCloser { return p.stdinW }
func (p *MockProcess) Stdout() io.Reader     { return p.stdoutR }
func (p *MockProcess) Stderr() io.Reader     { return p.stderrR }
func (p *MockProcess) Pid() int              { return p.pid }

func (p *MockProcess) Wait() error {
	<-p.done
	return p.exitErr
}

func (p *MockProcess) Kill() error {
	p.Exit(ErrKilled)
	return nil
}
