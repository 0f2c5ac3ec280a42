package control

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/shared/paths"
)

// PauseController reads and writes the pause sentinel under a log base.
type PauseController struct {
	base   string
	now    func() time.Time
	logger *zap.Logger
}

// NewPauseController creates a controller for run directories under base.
func NewPauseController(base string, logger *zap.Logger) *PauseController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PauseController{
		base:   base,
		now:    time.Now,
		logger: logger,
	}
}

// RunDirs returns every run directory under the base, oldest first.
func (p *PauseController) RunDirs() ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(p.base), paths.RunPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("glob run dirs: %w", err)
	}

	dirs := make([]string, 0, len(matches))
	for _, m := range matches {
		full := filepath.Join(p.base, m)
		if info, err := os.Stat(full); err == nil && info.IsDir() {
			dirs = append(dirs, full)
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// LatestRunDir returns the most recent run directory, or "" if none exists.
func (p *PauseController) LatestRunDir() (string, error) {
	dirs, err := p.RunDirs()
	if err != nil || len(dirs) == 0 {
		return "", err
	}
	return dirs[len(dirs)-1], nil
}

// Pause writes the sentinel into the most recent run directory. It reports
// false when there is no run directory to pause.
func (p *PauseController) Pause() (bool, error) {
	dir, err := p.LatestRunDir()
	if err != nil {
		return false, err
	}
	if dir == "" {
		return false, nil
	}
	if err := p.MarkPaused(dir, "Paused via panel"); err != nil {
		return false, err
	}
	p.logger.Info("Agent paused", zap.String("run_dir", dir))
	return true, nil
}

// MarkPaused writes the sentinel into dir with a timestamped note.
func (p *PauseController) MarkPaused(dir, note string) error {
	content := fmt.Sprintf("%s: %s\n", note, p.now().Format(time.RFC3339Nano))
	return writeFileAtomic(paths.Sentinel(dir), []byte(content))
}

// Unpause removes the sentinel from every run directory. It reports true
// if at least one sentinel was removed.
func (p *PauseController) Unpause() (bool, error) {
	matches, err := doublestar.Glob(os.DirFS(p.base), "*/"+paths.SentinelFile)
	if err != nil {
		return false, fmt.Errorf("glob sentinels: %w", err)
	}

	removed := false
	var errs []error
	for _, m := range matches {
		err := os.Remove(filepath.Join(p.base, m))
		switch {
		case err == nil:
			removed = true
		case errors.Is(err, fs.ErrNotExist):
		default:
			errs = append(errs, err)
		}
	}
	if removed {
		p.logger.Info("Agent unpaused", zap.Int("sentinels", len(matches)))
	}
	return removed, errors.Join(errs...)
}

// IsPaused reports whether the most recent run directory holds the
// sentinel.
func (p *PauseController) IsPaused() bool {
	dir, err := p.LatestRunDir()
	if err != nil || dir == "" {
		return false
	}
	_, err = os.Stat(paths.Sentinel(dir))
	return err == nil
}
