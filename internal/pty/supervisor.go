// Package pty runs the wrapped interactive program under a pseudo-terminal.
//
// The supervisor is pure transport: it spawns the child attached to a fresh
// PTY, exposes byte-level read/write on the master side, and tracks whether
// the child is still alive. It never interprets the byte stream; state
// classification lives in internal/state.
package pty

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
)

// ErrNotStarted is returned when operating on a supervisor before Start.
var ErrNotStarted = errors.New("supervisor not started")

// ErrClosed is returned when operating on a closed supervisor.
var ErrClosed = errors.New("supervisor is closed")

// Options configures the supervised child process.
type Options struct {
	// Command is the executable to run (e.g., "claude").
	Command string
	// Args are passed to the command.
	Args []string
	// Dir is the working directory. Empty means the wrapper's own cwd,
	// so the child behaves as if launched interactively from there.
	Dir string
	// Env is appended to the wrapper's environment.
	Env []string
	// Rows and Cols set the initial PTY size.
	Rows, Cols uint16
	// PollInterval bounds how long ReadAvailable waits for output.
	PollInterval time.Duration
}

// DefaultOptions returns sensible defaults: an 80x24 terminal polled
// every 100ms.
func DefaultOptions() Options {
	return Options{
		Rows:         24,
		Cols:         80,
		PollInterval: 100 * time.Millisecond,
	}
}

// Supervisor owns one child process bound to a pseudo-terminal.
// It is the sole mutator of the child's liveness.
type Supervisor struct {
	opts Options

	mu         sync.Mutex
	cmd        *exec.Cmd
	ptmx       *os.File
	started    bool
	closed     bool
	alive      bool
	exitStatus int
	exited     chan struct{}
}

// NewSupervisor creates a supervisor for the given command. The child is
// not started until Start is called.
func NewSupervisor(opts Options) *Supervisor {
	if opts.Rows == 0 {
		opts.Rows = 24
	}
	if opts.Cols == 0 {
		opts.Cols = 80
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 100 * time.Millisecond
	}
	return &Supervisor{
		opts:   opts,
		exited: make(chan struct{}),
	}
}

// Start spawns the child attached to a freshly allocated PTY.
// The child inherits the wrapper's working directory and environment.
// Returns an error if the executable cannot be located or the PTY
// cannot be allocated.
func (s *Supervisor) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("supervisor already started")
	}
	if s.closed {
		return ErrClosed
	}

	// Resolve the executable up front so a missing binary surfaces as a
	// clean spawn error instead of a PTY failure.
	path, err := exec.LookPath(s.opts.Command)
	if err != nil {
		return fmt.Errorf("spawn %q: %w", s.opts.Command, err)
	}

	cmd := exec.Command(path, s.opts.Args...)
	if s.opts.Dir != "" {
		cmd.Dir = s.opts.Dir
	}
	if len(s.opts.Env) > 0 {
		cmd.Env = append(os.Environ(), s.opts.Env...)
	}

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: s.opts.Rows,
		Cols: s.opts.Cols,
	})
	if err != nil {
		return fmt.Errorf("allocate pty: %w", err)
	}

	s.cmd = cmd
	s.ptmx = ptmx
	s.started = true
	s.alive = true

	go s.wait()

	return nil
}

// wait records the child's exit status and flips liveness.
// The master fd stays open so the reader loop can drain any output the
// kernel still buffers; reads fail once the buffer is empty.
func (s *Supervisor) wait() {
	err := s.cmd.Wait()

	status := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			status = exitErr.ExitCode()
		} else {
			status = -1
		}
	}

	s.mu.Lock()
	s.alive = false
	s.exitStatus = status
	s.mu.Unlock()
	close(s.exited)
}

// Write sends bytes to the child's input side.
func (s *Supervisor) Write(p []byte) (int, error) {
	s.mu.Lock()
	ptmx, err := s.masterLocked()
	s.mu.Unlock()
	if err != nil {
		return 0, err
	}

	n, err := ptmx.Write(p)
	if err != nil {
		return n, fmt.Errorf("write to pty: %w", err)
	}
	return n, nil
}

// masterLocked returns the PTY master or the reason it is unavailable.
// Caller must hold s.mu.
func (s *Supervisor) masterLocked() (*os.File, error) {
	if !s.started {
		return nil, ErrNotStarted
	}
	if s.closed {
		return nil, ErrClosed
	}
	return s.ptmx, nil
}

// Alive reports whether the child process is still running.
func (s *Supervisor) Alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started && s.alive && !s.closed
}

// ExitStatus returns the child's exit code. The second return is false
// while the child is still running.
func (s *Supervisor) ExitStatus() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || s.alive {
		return 0, false
	}
	return s.exitStatus, true
}

// PID returns the child's process ID, or -1 if not started.
func (s *Supervisor) PID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil || s.cmd.Process == nil {
		return -1
	}
	return s.cmd.Process.Pid
}

// Exited is closed once the child process has exited.
func (s *Supervisor) Exited() <-chan struct{} {
	return s.exited
}

// Resize changes the PTY window size. Used to forward the controlling
// terminal's size when the wrapper runs attached.
func (s *Supervisor) Resize(rows, cols uint16) error {
	s.mu.Lock()
	ptmx, err := s.masterLocked()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if err := pty.Setsize(ptmx, &pty.Winsize{Rows: rows, Cols: cols}); err != nil {
		return fmt.Errorf("resize pty: %w", err)
	}
	return nil
}

// Signal sends a signal to the child process.
func (s *Supervisor) Signal(sig os.Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return ErrNotStarted
	}
	if s.cmd.Process == nil {
		return fmt.Errorf("process not running")
	}
	return s.cmd.Process.Signal(sig)
}

// Close releases the PTY and terminates the child if still running:
// SIGTERM first, SIGKILL after a short grace period.
func (s *Supervisor) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	ptmx := s.ptmx
	cmd := s.cmd
	wasAlive := s.alive
	s.mu.Unlock()

	var firstErr error

	// Closing the master sends SIGHUP to the child's session and unblocks
	// any reader stuck on the fd.
	if ptmx != nil {
		if err := ptmx.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close pty: %w", err)
		}
	}

	if wasAlive && cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Signal(syscall.SIGTERM)
		select {
		case <-s.exited:
		case <-time.After(500 * time.Millisecond):
			_ = cmd.Process.Kill()
		}
	}

	return firstErr
}
