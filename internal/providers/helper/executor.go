package helper

import (
	"bytes"
	"context"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// Executor dry-runs raw model text through the execution engine.
type Executor struct {
	runner *Runner
}

// NewExecutor creates an executor backed by runner.
func NewExecutor(runner *Runner) *Executor {
	return &Executor{runner: runner}
}

type executeInput struct {
	Raw    string `json:"raw"`
	RunDir string `json:"run_dir"`
	Debug  bool   `json:"debug"`
}

// Execute returns the engine's JSON object with its stderr lines attached
// under "stderr". Failures are reported in an "error" field, never as a Go
// error, so the dashboard can always render the result.
func (e *Executor) Execute(ctx context.Context, raw, runDir string) map[string]any {
	out, err := e.runner.Run(ctx, executeInput{Raw: raw, RunDir: runDir, Debug: true})
	if err != nil {
		e.runner.logger.Warn("Debug execute failed", zap.Error(err))
		return map[string]any{"error": err.Error(), "stderr": nonNil(out.Stderr)}
	}

	stderr := nonNil(out.Stderr)
	if len(bytes.TrimSpace(out.Stdout)) == 0 {
		return map[string]any{"error": "No output from executor", "stderr": stderr}
	}

	var result map[string]any
	if err := sonic.Unmarshal(out.Stdout, &result); err != nil || result == nil {
		return map[string]any{
			"error":      "Bad JSON from executor",
			"raw_stdout": string(out.Stdout),
			"stderr":     stderr,
		}
	}
	result["stderr"] = stderr
	return result
}

func nonNil(lines []string) []string {
	if lines == nil {
		return []string{}
	}
	return lines
}
