// Package process supervises external subprocesses: it spawns them with
// captured line-oriented output, reports their exit, and terminates them
// with a graceful-then-forced protocol.
package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultKillTimeout is how long Terminate waits after the graceful signal
// before it force-kills the process tree.
const DefaultKillTimeout = 5 * time.Second

// Stream identifies which output stream a line came from.
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

func (s Stream) String() string {
	if s == Stderr {
		return "stderr"
	}
	return "stdout"
}

// State is the supervisor's view of a process.
type State int

const (
	StateRunning State = iota
	StateCancelling
	StateExited
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateCancelling:
		return "cancelling"
	case StateExited:
		return "exited"
	}
	return "unknown"
}

// Command describes a process to spawn. A nil Env inherits the parent's
// environment.
type Command struct {
	Path string
	Args []string
	Env  []string
	Dir  string
}

// Callbacks receive process output and exit. Calls for one process never
// overlap; OnExit is always the last call.
type Callbacks struct {
	OnLine func(stream Stream, line string)
	OnExit func(Exit)
}

// Supervisor starts and terminates processes.
type Supervisor struct {
	killTimeout time.Duration
	logger      *slog.Logger
}

// NewSupervisor creates a supervisor. A zero killTimeout uses DefaultKillTimeout.
func NewSupervisor(killTimeout time.Duration, logger *slog.Logger) *Supervisor {
	if killTimeout <= 0 {
		killTimeout = DefaultKillTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{
		killTimeout: killTimeout,
		logger:      logger,
	}
}

// Handle tracks one running process. It is only meaningful to the
// Supervisor that created it.
type Handle struct {
	cmd    *exec.Cmd
	stderr *tailBuffer
	exited chan struct{}

	mu              sync.Mutex
	state           State
	cancelRequested bool

	deliver sync.Mutex // serializes callbacks
}

// PID returns the operating system process id.
func (h *Handle) PID() int {
	return h.cmd.Process.Pid
}

// State returns the current process state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Exited is closed once the process has exited and its streams are drained.
func (h *Handle) Exited() <-chan struct{} {
	return h.exited
}

// Start spawns the command with stdin closed and stdout/stderr captured.
// ctx bounds only the spawn itself; the process outlives it and is stopped
// through Terminate.
func (s *Supervisor) Start(ctx context.Context, c Command, cb Callbacks) (*Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(c.Path, c.Args...)
	cmd.Dir = c.Dir
	if c.Env != nil {
		cmd.Env = c.Env
	}
	configureCommand(cmd)

	// Output goes through in-process pipes so exec copies it and Wait is
	// bounded by WaitDelay even if a descendant keeps the OS pipes open.
	outR, outW := io.Pipe()
	errR, errW := io.Pipe()
	cmd.Stdout = outW
	cmd.Stderr = errW
	cmd.WaitDelay = 2 * s.killTimeout

	if err := cmd.Start(); err != nil {
		_ = outW.Close()
		_ = errW.Close()
		return nil, err
	}

	h := &Handle{
		cmd:    cmd,
		stderr: newTailBuffer(maxStderrBytes),
		exited: make(chan struct{}),
	}

	s.logger.Debug("process started", "pid", cmd.Process.Pid, "path", c.Path)

	go s.supervise(h, outR, errR, outW, errW, cb)
	return h, nil
}

func (s *Supervisor) supervise(h *Handle, stdout, stderr io.Reader, outW, errW io.Closer, cb Callbacks) {
	var g errgroup.Group
	g.Go(func() error { return s.pump(h, stdout, Stdout, cb.OnLine) })
	g.Go(func() error { return s.pump(h, stderr, Stderr, cb.OnLine) })

	waitErr := h.cmd.Wait()
	_ = outW.Close()
	_ = errW.Close()
	if err := g.Wait(); err != nil {
		s.logger.Debug("output stream error", "pid", h.PID(), "error", err)
	}
	if errors.Is(waitErr, exec.ErrWaitDelay) {
		s.logger.Warn("descendant held output open after exit", "pid", h.PID())
	}

	h.mu.Lock()
	exit := buildExit(h.cmd, waitErr, h.cancelRequested, h.stderr.String())
	h.state = StateExited
	h.mu.Unlock()
	close(h.exited)

	s.logger.Debug("process exited",
		"pid", h.PID(),
		"code", exit.Code,
		"signal", exit.Signal,
		"cancelled", exit.Cancelled)

	if cb.OnExit != nil {
		h.deliver.Lock()
		cb.OnExit(exit)
		h.deliver.Unlock()
	}
}

func (s *Supervisor) pump(h *Handle, r io.Reader, stream Stream, onLine func(Stream, string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	scanner.Split(scanLines)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if stream == Stderr {
			h.stderr.WriteLine(line)
		}
		if onLine != nil {
			h.deliver.Lock()
			onLine(stream, line)
			h.deliver.Unlock()
		}
	}

	err := scanner.Err()
	if err != nil {
		// keep draining so the child never blocks on a full pipe
		_, _ = io.Copy(io.Discard, r)
	}
	return err
}

// Terminate starts the termination protocol: mark the process cancelling,
// send the platform's graceful interrupt to the process group, and
// force-kill the group and process tree if output has not closed within the
// kill timeout. It returns false without
// signalling if the process is already cancelling or has exited.
func (s *Supervisor) Terminate(h *Handle) bool {
	h.mu.Lock()
	if h.state != StateRunning {
		h.mu.Unlock()
		return false
	}
	h.state = StateCancelling
	h.cancelRequested = true
	h.mu.Unlock()

	pid := h.PID()
	s.logger.Info("terminating process", "pid", pid, "kill_timeout", s.killTimeout)

	if err := interrupt(h.cmd.Process); err != nil {
		s.logger.Warn("graceful interrupt failed", "pid", pid, "error", err)
	}

	go s.escalate(h)
	return true
}

func (s *Supervisor) escalate(h *Handle) {
	timer := time.NewTimer(s.killTimeout)
	defer timer.Stop()

	select {
	case <-h.exited:
		return
	case <-timer.C:
	}

	pid := h.PID()
	s.logger.Warn("process ignored interrupt, killing", "pid", pid)
	if err := forceKill(h.cmd.Process); err != nil {
		s.logger.Error("force kill failed", "pid", pid, "error", err)
	}
}

// Exit describes how a process ended.
type Exit struct {
	Code      int    // exit code, -1 if terminated by a signal
	Signal    string // terminating signal, empty otherwise
	Cancelled bool   // Terminate was called before exit
	Stderr    string // tail of captured stderr
	Err       error  // wait failure unrelated to the exit status
}

// Outcome classifies an exit.
type Outcome int

const (
	Succeeded Outcome = iota
	Cancelled
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case Cancelled:
		return "cancelled"
	}
	return "failed"
}

// Outcome reports the terminal classification. A pending cancellation or a
// signal-based termination always wins over the exit code.
func (e Exit) Outcome() Outcome {
	if e.Cancelled || e.Signal != "" {
		return Cancelled
	}
	if e.Code == 0 && e.Err == nil {
		return Succeeded
	}
	return Failed
}

// Message returns a human-readable failure description: the captured
// stderr if any, otherwise the exit code.
func (e Exit) Message() string {
	if e.Stderr != "" {
		return e.Stderr
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit code %d", e.Code)
}

func buildExit(cmd *exec.Cmd, waitErr error, cancelled bool, stderr string) Exit {
	exit := Exit{Cancelled: cancelled, Stderr: stderr}

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) && !errors.Is(waitErr, exec.ErrWaitDelay) {
		exit.Err = waitErr
	}

	ps := cmd.ProcessState
	if ps == nil {
		exit.Code = -1
		return exit
	}
	exit.Code = ps.ExitCode()
	if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		exit.Signal = ws.Signal().String()
	}
	return exit
}
