package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Files inside a run directory.
const (
	SentinelFile     = "PAUSED"
	CropFile         = "crop.json"
	AllowedToolsFile = "allowed_tools.json"
	MemoryFile       = "memory.json"
	LogFile          = "panel.log"
)

// RunPrefix starts every run directory name. The rest is a timestamp, so
// names sort chronologically.
const RunPrefix = "run_"

const runLayout = "20060102_150405"

// RunDirName returns the directory name for a run started at t.
func RunDirName(t time.Time) string {
	return RunPrefix + t.Format(runLayout)
}

// NewRunDir creates the run directory for t under base.
func NewRunDir(base string, t time.Time) (string, error) {
	dir := filepath.Join(base, RunDirName(t))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create run dir: %w", err)
	}
	return dir, nil
}

// IsRunDirName reports whether name looks like a run directory.
func IsRunDirName(name string) bool {
	return strings.HasPrefix(name, RunPrefix)
}

// Sentinel returns the pause sentinel path for runDir.
func Sentinel(runDir string) string {
	return filepath.Join(runDir, SentinelFile)
}

// In returns the path of name inside runDir.
func In(runDir, name string) string {
	return filepath.Join(runDir, name)
}
