package supervisor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Stream tags for forwarded child output.
const (
	StreamStdout = "main.out"
	StreamStderr = "main.err"
)

// Defaults for the spawn and stop timings.
const (
	DefaultInitialDelay = 3 * time.Second
	DefaultRestartDelay = 3 * time.Second
	DefaultStopTimeout  = 10 * time.Second
	DefaultKillWait     = 5 * time.Second
)

// ErrStopTimeout is returned when the child outlives the kill wait.
var ErrStopTimeout = errors.New("agent process did not exit")

// State is the supervisor lifecycle state.
type State int

const (
	StateIdle State = iota
	StateStarting
	StateRunning
	StateCrashed
	StateStopped
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateCrashed:
		return "crashed"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Config describes the supervised command.
type Config struct {
	Command string
	Args    []string
	Dir     string
	Env     []string

	// RunDir is exported to the child as RunDirEnv.
	RunDir    string
	RunDirEnv string

	InitialDelay time.Duration
	RestartDelay time.Duration
	StopTimeout  time.Duration
	KillWait     time.Duration
}

func (c *Config) applyDefaults() {
	if c.InitialDelay < 0 {
		c.InitialDelay = 0
	}
	if c.RestartDelay <= 0 {
		c.RestartDelay = DefaultRestartDelay
	}
	if c.StopTimeout <= 0 {
		c.StopTimeout = DefaultStopTimeout
	}
	if c.KillWait <= 0 {
		c.KillWait = DefaultKillWait
	}
}

// Supervisor runs and restarts one child process.
type Supervisor struct {
	cfg    Config
	logger *zap.Logger

	mu       sync.Mutex
	state    State
	cmd      *exec.Cmd
	started  bool
	stopping bool
	starts   int
	restarts int

	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// New creates a supervisor. Nothing is spawned until Run.
func New(cfg Config, logger *zap.Logger) *Supervisor {
	cfg.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supervisor{
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Run spawns the child and keeps it alive until ctx ends or Stop is called.
// It must be called at most once.
func (s *Supervisor) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("supervisor already started")
	}
	s.started = true
	s.mu.Unlock()

	defer close(s.done)
	defer s.setState(StateStopped)

	go func() {
		select {
		case <-ctx.Done():
			s.Stop(context.Background())
		case <-s.done:
		}
	}()

	s.logger.Info("Waiting before launching agent", zap.Duration("delay", s.cfg.InitialDelay))
	if !s.sleep(ctx, s.cfg.InitialDelay) {
		return nil
	}

	for {
		exitCode, err := s.runOnce()
		if s.shuttingDown(ctx) {
			return nil
		}

		s.setState(StateCrashed)
		fields := []zap.Field{zap.Int("exit_code", exitCode), zap.Duration("restart_in", s.cfg.RestartDelay)}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}
		s.logger.Warn("Agent exited, restarting", fields...)

		if !s.sleep(ctx, s.cfg.RestartDelay) {
			return nil
		}

		s.mu.Lock()
		s.restarts++
		s.mu.Unlock()
	}
}

// runOnce spawns one child and blocks until it exits and its output is
// drained. It returns the exit code, -1 if the child never ran.
func (s *Supervisor) runOnce() (int, error) {
	s.setState(StateStarting)

	cmd := exec.Command(s.cfg.Command, s.cfg.Args...)
	cmd.Dir = s.cfg.Dir
	cmd.Env = s.environ()
	cmd.WaitDelay = s.cfg.KillWait

	outR, outW := io.Pipe()
	errR, errW := io.Pipe()
	cmd.Stdout = outW
	cmd.Stderr = errW

	var g errgroup.Group
	g.Go(func() error { return s.drain(outR, StreamStdout) })
	g.Go(func() error { return s.drain(errR, StreamStderr) })

	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		outW.Close()
		errW.Close()
		g.Wait()
		return -1, nil
	}
	err := cmd.Start()
	if err == nil {
		s.cmd = cmd
		s.state = StateRunning
		s.starts++
	}
	s.mu.Unlock()

	if err != nil {
		outW.Close()
		errW.Close()
		g.Wait()
		return -1, fmt.Errorf("start agent: %w", err)
	}
	s.logger.Info("Agent launched", zap.String("command", s.cfg.Command), zap.Int("pid", cmd.Process.Pid))

	waitErr := cmd.Wait()
	outW.Close()
	errW.Close()
	if err := g.Wait(); err != nil {
		s.logger.Warn("Agent output drain failed", zap.Error(err))
	}

	s.mu.Lock()
	s.cmd = nil
	s.mu.Unlock()

	code := cmd.ProcessState.ExitCode()
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		waitErr = nil
	}
	return code, waitErr
}

func (s *Supervisor) environ() []string {
	env := append(os.Environ(), s.cfg.Env...)
	if s.cfg.RunDirEnv != "" && s.cfg.RunDir != "" {
		env = append(env, s.cfg.RunDirEnv+"="+s.cfg.RunDir)
	}
	return env
}

// drain logs non-blank lines from r until EOF.
func (s *Supervisor) drain(r *io.PipeReader, stream string) error {
	defer r.Close()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		s.logger.Info(line, zap.String("stream", stream))
	}
	if err := scanner.Err(); err != nil {
		// Keep the child unblocked even if a line was too long to log.
		io.Copy(io.Discard, r)
		return fmt.Errorf("%s: %w", stream, err)
	}
	return nil
}

// sleep waits for d and reports false if shutdown was requested meanwhile.
func (s *Supervisor) sleep(ctx context.Context, d time.Duration) bool {
	if s.shuttingDown(ctx) {
		return false
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	case <-s.stopCh:
		return false
	}
}

func (s *Supervisor) shuttingDown(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-s.stopCh:
		return true
	default:
		return false
	}
}

// Stop requests shutdown, terminates the child, kills it after the stop
// timeout and waits for Run to return. Calling Stop before Run, or more
// than once, is safe.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopping = true
	started := s.started
	cmd := s.cmd
	s.mu.Unlock()

	s.stopOnce.Do(func() { close(s.stopCh) })
	if !started {
		return nil
	}

	if cmd != nil && cmd.Process != nil {
		s.logger.Info("Stopping agent", zap.Int("pid", cmd.Process.Pid))
		if err := terminate(cmd.Process); err != nil && !errors.Is(err, os.ErrProcessDone) {
			s.logger.Warn("Terminate failed", zap.Error(err))
		}
	}

	grace := time.NewTimer(s.cfg.StopTimeout)
	defer grace.Stop()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-grace.C:
	}

	if cmd != nil && cmd.Process != nil {
		s.logger.Warn("Agent ignored terminate, killing", zap.Int("pid", cmd.Process.Pid))
		if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			s.logger.Warn("Kill failed", zap.Error(err))
		}
	}

	killWait := time.NewTimer(s.cfg.KillWait)
	defer killWait.Stop()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-killWait.C:
		return ErrStopTimeout
	}
}

// Done is closed when Run returns.
func (s *Supervisor) Done() <-chan struct{} {
	return s.done
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Running reports whether a child is currently alive.
func (s *Supervisor) Running() bool {
	return s.State() == StateRunning
}

// Starts returns how many times a child was spawned.
func (s *Supervisor) Starts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts
}

// Restarts returns how many times the child was respawned after an exit.
func (s *Supervisor) Restarts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restarts
}

func (s *Supervisor) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}
