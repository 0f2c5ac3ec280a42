package helper

import (
	"context"
	"strings"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// Previewer captures a downscaled screenshot of the agent's screen.
type Previewer struct {
	runner *Runner
	width  int
}

// NewPreviewer creates a previewer producing images width pixels wide.
func NewPreviewer(runner *Runner, width int) *Previewer {
	if width <= 0 {
		width = 960
	}
	return &Previewer{runner: runner, width: width}
}

// Preview returns the base64 PNG, or "" when capture failed. The helper may
// print either {"image_b64": "..."} or bare base64.
func (p *Previewer) Preview(ctx context.Context) string {
	out, err := p.runner.Run(ctx, map[string]int{"width": p.width})
	if err != nil {
		p.runner.logger.Warn("Preview capture failed", zap.Error(err))
		return ""
	}
	if out.ExitCode != 0 {
		p.runner.logger.Warn("Preview capture failed",
			zap.Int("exit_code", out.ExitCode),
			zap.Strings("stderr", out.Stderr),
		)
		return ""
	}

	var doc struct {
		ImageB64 string `json:"image_b64"`
	}
	if err := sonic.Unmarshal(out.Stdout, &doc); err == nil {
		return doc.ImageB64
	}
	return strings.TrimSpace(string(out.Stdout))
}
