package gdb

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhubert/uartspy/exec"
	"github.com/zhubert/uartspy/metrics"
)

// ErrNotRunning is returned when a command is sent before Start.
var ErrNotRunning = errors.New("debugger not running")

// DefaultStopTimeout bounds how long Stop waits for the debugger to quit
// before killing it.
const DefaultStopTimeout = 2 * time.Second

// SessionConfig describes how to launch the debugger.
type SessionConfig struct {
	Debugger   string   // executable, e.g. "gdb7.exe"
	WorkDir    string   // working directory for the debugger
	Firmware   string   // ELF image passed as the first argument
	InitScript string   // passed as --command=<InitScript>
	Args       []string // extra arguments appended last

	// Connect is sent right after start to attach to and reset the target.
	Connect []string
	Quit    string

	StopTimeout time.Duration

	// TranscriptPath, when set, receives every output line with its O>/E> tag.
	TranscriptPath string
}

// BuildCommandArgs builds the debugger's argument list from cfg.
func BuildCommandArgs(cfg SessionConfig) []string {
	var args []string
	if cfg.Firmware != "" {
		args = append(args, cfg.Firmware)
	}
	if cfg.InitScript != "" {
		args = append(args, "--command="+cfg.InitScript)
	}
	return append(args, cfg.Args...)
}

// Session owns one debugger process, its command channel and the event
// queue both stream readers feed. A Session is started once.
type Session struct {
	id       string
	cfg      SessionConfig
	executor exec.CommandExecutor
	metrics  *metrics.Metrics
	log      *slog.Logger
	queue    *EventQueue

	mu         sync.Mutex
	proc       exec.Process
	channel    *CommandChannel
	running    bool
	stopping   bool
	exitErr    error
	waitDone   chan struct{}
	transcript *os.File
	tmu        sync.Mutex // serializes transcript writes from both readers

	readers sync.WaitGroup
}

// NewSession creates a session with a fresh ID. Nothing is spawned until Start.
func NewSession(cfg SessionConfig, executor exec.CommandExecutor, m *metrics.Metrics, log *slog.Logger) *Session {
	if cfg.Quit == "" {
		cfg.Quit = DefaultQuitCommand
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = DefaultStopTimeout
	}
	id := uuid.New().String()
	return &Session{
		id:       id,
		cfg:      cfg,
		executor: executor,
		metrics:  m,
		log:      log.With("sessionID", id),
		queue:    NewEventQueue(),
		waitDone: make(chan struct{}),
	}
}

// ID returns the session's unique ID.
func (s *Session) ID() string { return s.id }

// Queue returns the queue both stream readers feed.
func (s *Session) Queue() *EventQueue { return s.queue }

// Done is closed after the debugger has exited and both readers finished.
func (s *Session) Done() <-chan struct{} { return s.waitDone }

// IsRunning reports whether the debugger process is alive.
func (s *Session) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// ExitErr returns the debugger's exit error once Done is closed.
func (s *Session) ExitErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitErr
}

// SetTranscriptPath sets the file Start records output to. Paths usually
// embed the session ID, so this is set after NewSession and before Start.
func (s *Session) SetTranscriptPath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.TranscriptPath = path
}

// Start spawns the debugger, launches one reader per output stream and sends
// the connect-and-reset sequence.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.proc != nil {
		s.mu.Unlock()
		return fmt.Errorf("session %s already started", s.id)
	}

	args := BuildCommandArgs(s.cfg)
	s.log.Info("starting debugger", "command", s.cfg.Debugger+" "+strings.Join(args, " "), "dir", s.cfg.WorkDir)
	startTime := time.Now()

	if s.cfg.TranscriptPath != "" {
		if err := os.MkdirAll(filepath.Dir(s.cfg.TranscriptPath), 0755); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("failed to create transcript directory: %w", err)
		}
		f, err := os.OpenFile(s.cfg.TranscriptPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("failed to open transcript: %w", err)
		}
		s.transcript = f
	}

	proc, err := s.executor.Spawn(s.cfg.WorkDir, s.cfg.Debugger, args...)
	if err != nil {
		s.closeTranscriptLocked()
		s.mu.Unlock()
		s.log.Error("failed to start debugger", "error", err)
		return fmt.Errorf("failed to start debugger %s: %w", s.cfg.Debugger, err)
	}

	s.proc = proc
	s.channel = NewCommandChannel(proc.Stdin(), s.metrics, s.log)
	s.running = true
	s.log.Info("debugger started", "elapsed", time.Since(startTime), "pid", proc.Pid())

	s.readers.Add(2)
	go s.read(proc.Stdout(), Primary)
	go s.read(proc.Stderr(), Diagnostic)
	go s.monitorExit(proc)
	s.mu.Unlock()

	return ConnectAndReset(s, s.cfg.Connect)
}

func (s *Session) read(r io.Reader, origin Origin) {
	defer s.readers.Done()

	s.log.Debug("stream reader started", "stream", origin)
	if err := ReadStream(r, origin, s.queue, s.observe); err != nil {
		s.log.Warn("stream reader stopped", "stream", origin, "error", err)
		return
	}
	s.log.Debug("stream reader reached end of stream", "stream", origin)
}

// observe records a line in metrics and the transcript.
func (s *Session) observe(line TaggedLine) {
	s.metrics.ObserveLine(line.Origin.String())

	s.tmu.Lock()
	defer s.tmu.Unlock()
	if s.transcript != nil {
		s.transcript.WriteString(line.String())
	}
}

// monitorExit waits for both readers to drain their pipes, then reaps the
// process, closes the queue and signals Done. It is the only caller of Wait.
func (s *Session) monitorExit(proc exec.Process) {
	s.readers.Wait()
	err := proc.Wait()

	s.queue.Close()

	s.mu.Lock()
	s.running = false
	s.exitErr = err
	stopping := s.stopping
	s.closeTranscriptLocked()
	s.mu.Unlock()

	if err != nil && !stopping {
		s.log.Warn("debugger exited", "error", err)
	} else {
		s.log.Info("debugger exited", "error", err)
	}
	close(s.waitDone)
}

func (s *Session) closeTranscriptLocked() {
	s.tmu.Lock()
	defer s.tmu.Unlock()
	if s.transcript != nil {
		s.transcript.Close()
		s.transcript = nil
	}
}

// Send forwards command to the debugger. It fails with ErrNotRunning before
// Start and with ErrChannelClosed once the debugger's input is gone.
func (s *Session) Send(command string) error {
	s.mu.Lock()
	ch := s.channel
	s.mu.Unlock()

	if ch == nil {
		return ErrNotRunning
	}
	return ch.Send(command)
}

// Stop sends the quit command, closes the debugger's input and waits for it
// to exit, killing it after the stop timeout. Safe to call more than once.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.proc == nil {
		s.mu.Unlock()
		return
	}
	alreadyStopping := s.stopping
	s.stopping = true
	proc := s.proc
	ch := s.channel
	running := s.running
	s.mu.Unlock()

	if alreadyStopping {
		<-s.waitDone
		return
	}

	s.log.Debug("stopping debugger")
	if running {
		if err := ch.Send(s.cfg.Quit); err != nil {
			s.log.Debug("quit command not delivered", "error", err)
		}
	}
	ch.Close()

	select {
	case <-s.waitDone:
		s.log.Debug("debugger exited gracefully")
	case <-time.After(s.cfg.StopTimeout):
		s.log.Warn("debugger did not quit, killing", "pid", proc.Pid(), "timeout", s.cfg.StopTimeout)
		if err := proc.Kill(); err != nil {
			s.log.Error("failed to kill debugger", "error", err)
		}
		<-s.waitDone
	}
}
