package control

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/shared/paths"
)

func setupBase(t *testing.T, runs ...string) string {
	t.Helper()
	base := t.TempDir()
	for _, r := range runs {
		require.NoError(t, os.MkdirAll(filepath.Join(base, r), 0o755))
	}
	return base
}

func TestPauseWithoutRunDir(t *testing.T) {
	p := NewPauseController(filepath.Join(t.TempDir(), "missing"), zap.NewNop())

	ok, err := p.Pause()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, p.IsPaused())

	ok, err = p.Unpause()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPauseTargetsLatestRun(t *testing.T) {
	base := setupBase(t, "run_20250101_000000", "run_20250102_000000", "notes")
	require.NoError(t, os.WriteFile(filepath.Join(base, "run_20250103_000000"), nil, 0o644))

	p := NewPauseController(base, nil)
	p.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

	latest, err := p.LatestRunDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "run_20250102_000000"), latest)

	ok, err := p.Pause()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, p.IsPaused())

	data, err := os.ReadFile(paths.Sentinel(latest))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Paused via panel: 2025-01-02T03:04:05"))
	assert.NoFileExists(t, paths.Sentinel(filepath.Join(base, "run_20250101_000000")))

	ok, err = p.Pause()
	require.NoError(t, err)
	assert.True(t, ok, "pause is idempotent")
	assert.True(t, p.IsPaused())
}

func TestUnpauseClearsEveryRun(t *testing.T) {
	base := setupBase(t, "run_20250101_000000", "run_20250102_000000")
	p := NewPauseController(base, nil)

	old := filepath.Join(base, "run_20250101_000000")
	require.NoError(t, p.MarkPaused(old, "Auto-paused at start"))
	assert.False(t, p.IsPaused(), "only the latest run counts")

	_, err := p.Pause()
	require.NoError(t, err)

	ok, err := p.Unpause()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, p.IsPaused())
	assert.NoFileExists(t, paths.Sentinel(old))

	ok, err = p.Unpause()
	require.NoError(t, err)
	assert.False(t, ok, "nothing left to remove")
}

func TestNoTempFilesLeft(t *testing.T) {
	base := setupBase(t, "run_20250101_000000")
	p := NewPauseController(base, nil)
	_, err := p.Pause()
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(base, "run_20250101_000000"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, paths.SentinelFile, entries[0].Name())
}
