package control

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/domain/action"
	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/shared/paths"
)

func TestCrop(t *testing.T) {
	s := NewSettings(t.TempDir())
	assert.Equal(t, map[string]any{}, s.Crop())

	crop := map[string]any{"x1": 10.0, "y1": 20.0, "x2": 300.0, "y2": 400.0}
	require.NoError(t, s.SetCrop(crop))
	assert.Equal(t, crop, s.Crop())

	require.NoError(t, s.SetCrop(nil))
	assert.Equal(t, map[string]any{}, s.Crop())
}

func TestAllowedTools(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected []string
	}{
		{
			name:     "filters unknown names",
			input:    []any{"click", "shell", "drag", 5},
			expected: []string{"click", "drag"},
		},
		{
			name:     "non list resets",
			input:    map[string]any{"click": true},
			expected: action.AllTools(),
		},
		{
			name:     "empty list allowed",
			input:    []any{},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSettings(t.TempDir())
			tools, err := s.SetAllowedTools(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, tools)
			assert.Equal(t, tt.expected, s.AllowedTools())
		})
	}
}

func TestAllowedToolsFallback(t *testing.T) {
	dir := t.TempDir()
	s := NewSettings(dir)
	assert.Equal(t, action.AllTools(), s.AllowedTools())

	require.NoError(t, os.WriteFile(paths.In(dir, paths.AllowedToolsFile), []byte("{broken"), 0o644))
	assert.Equal(t, action.AllTools(), s.AllowedTools())

	require.NoError(t, os.WriteFile(paths.In(dir, paths.AllowedToolsFile), []byte(`{"a":1}`), 0o644))
	assert.Equal(t, action.AllTools(), s.AllowedTools())
}
