package helper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/infrastructure/resilience"
)

var (
	// ErrNotConfigured is returned when no command is set.
	ErrNotConfigured = errors.New("helper command not configured")
	// ErrTimeout is returned when the helper outlives its timeout.
	ErrTimeout = errors.New("helper timed out")
)

// Config describes one helper command.
type Config struct {
	Command string
	Args    []string
	Dir     string
	Env     []string
	Timeout time.Duration
}

// Output is what a helper produced. A non-zero exit code is not an error;
// the caller decides what the output means.
type Output struct {
	Stdout   []byte
	Stderr   []string
	ExitCode int
}

// Runner spawns a helper command per call.
type Runner struct {
	name    string
	cfg     Config
	breaker *resilience.Breaker
	logger  *zap.Logger
}

// NewRunner creates a runner. Start failures and timeouts count against the
// breaker, exit codes do not.
func NewRunner(name string, cfg Config, logger *zap.Logger) *Runner {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named(name)

	breaker := resilience.New(name, resilience.Settings{
		FailureThreshold: 3,
		Cooldown:         30 * time.Second,
		IsFailure: func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("Helper breaker changed state",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Runner{name: name, cfg: cfg, breaker: breaker, logger: logger}
}

// Configured reports whether a command is set.
func (r *Runner) Configured() bool {
	return r.cfg.Command != ""
}

// Breaker exposes the runner's circuit breaker.
func (r *Runner) Breaker() *resilience.Breaker {
	return r.breaker
}

// Run encodes input as JSON on stdin and waits for the helper to exit.
func (r *Runner) Run(ctx context.Context, input any) (Output, error) {
	if !r.Configured() {
		return Output{}, ErrNotConfigured
	}
	stdin, err := sonic.Marshal(input)
	if err != nil {
		return Output{}, fmt.Errorf("encode %s input: %w", r.name, err)
	}
	return resilience.Do(r.breaker, func() (Output, error) {
		return r.exec(ctx, stdin)
	})
}

func (r *Runner) exec(ctx context.Context, stdin []byte) (Output, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.cfg.Command, r.cfg.Args...)
	cmd.Dir = r.cfg.Dir
	cmd.Env = append(os.Environ(), r.cfg.Env...)
	cmd.Stdin = bytes.NewReader(stdin)
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	out := Output{
		Stdout:   stdout.Bytes(),
		Stderr:   splitLines(stderr.String()),
		ExitCode: cmd.ProcessState.ExitCode(),
	}
	for _, line := range out.Stderr {
		r.logger.Debug(line, zap.String("stream", "stderr"))
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return out, fmt.Errorf("%s after %s: %w", r.name, r.cfg.Timeout, ErrTimeout)
	}
	if ctx.Err() != nil {
		return out, ctx.Err()
	}

	var exitErr *exec.ExitError
	if runErr != nil && !errors.As(runErr, &exitErr) {
		return out, fmt.Errorf("run %s: %w", r.name, runErr)
	}
	return out, nil
}

func splitLines(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{}
	}
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, "\r")
	}
	return lines
}
