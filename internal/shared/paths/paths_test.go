package paths

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunDirName(t *testing.T) {
	ts := time.Date(2025, 3, 4, 5, 6, 7, 0, time.Local)
	assert.Equal(t, "run_20250304_050607", RunDirName(ts))
	assert.True(t, IsRunDirName(RunDirName(ts)))
	assert.False(t, IsRunDirName("other"))
}

func TestNewRunDir(t *testing.T) {
	base := filepath.Join(t.TempDir(), "logs")
	ts := time.Date(2025, 3, 4, 5, 6, 7, 0, time.Local)

	dir, err := NewRunDir(base, ts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "run_20250304_050607"), dir)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	again, err := NewRunDir(base, ts)
	require.NoError(t, err)
	assert.Equal(t, dir, again)

	assert.Equal(t, filepath.Join(dir, "PAUSED"), Sentinel(dir))
	assert.Equal(t, filepath.Join(dir, "crop.json"), In(dir, CropFile))
}
