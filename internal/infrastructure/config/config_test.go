package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Server config
	assert.Equal(t, "127.0.0.1:1234", cfg.Server.Addr())
	assert.Equal(t, "/v1/chat/completions", cfg.Server.InferencePath)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)

	// Upstream config
	assert.Equal(t, "http://127.0.0.1:1235/v1/chat/completions", cfg.Upstream.URL)

	// Render config
	assert.Equal(t, 10*time.Second, cfg.Render.Timeout.D())
	assert.Equal(t, 512, cfg.Render.Width)
	assert.Equal(t, 288, cfg.Render.Height)

	// Agent config
	assert.Equal(t, []string{"main.py"}, cfg.Agent.Args)
	assert.Equal(t, "FRANZ_RUN_DIR", cfg.Agent.RunDirEnv)
	assert.Equal(t, 3*time.Second, cfg.Agent.InitialDelay.D())

	// Store config
	assert.Equal(t, 200, cfg.Store.TurnCapacity)
	assert.Equal(t, 2000, cfg.Store.SSEQueueSize)

	assert.True(t, cfg.Run.AutoPause)
	assert.Equal(t, 1920, cfg.Screen.Width)
}

func TestLoadMatchesDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOrDefault(t *testing.T) {
	cfg := LoadOrDefault()

	assert.NotNil(t, cfg)
	assert.Equal(t, "1234", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":               "9000",
		"UPSTREAM_URL":       "http://gpu:8080/v1/chat/completions",
		"RENDER_TIMEOUT":     "0s",
		"AGENT_ARGS":         "agent.py,--fast",
		"AGENT_ENABLED":      "false",
		"LOG_LEVEL":          "debug",
		"RATE_LIMIT_ENABLED": "false",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "http://gpu:8080/v1/chat/completions", cfg.Upstream.URL)
	assert.Equal(t, time.Duration(0), cfg.Render.Timeout.D())
	assert.Equal(t, []string{"agent.py", "--fast"}, cfg.Agent.Args)
	assert.False(t, cfg.Agent.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadInvalidEnvironment(t *testing.T) {
	t.Setenv("SSE_KEEPALIVE", "soon")

	_, err := Load("")
	assert.Error(t, err)

	cfg := LoadOrDefault()
	assert.Equal(t, 15*time.Second, cfg.Store.SSEKeepalive.D())
}

func TestLoadFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panel.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
port = "4321"

[render]
timeout = "30s"
attach_window = "0s"

[agent]
command = "python3"
args = ["main.py", "--verbose"]

[helpers]
execute_cmd = "python3"
execute_args = ["execute.py"]
`), 0o644))

	t.Setenv("PORT", "9000")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "4321", cfg.Server.Port, "file wins over env")
	assert.Equal(t, "warn", cfg.Logging.Level, "env kept where file is silent")
	assert.Equal(t, 30*time.Second, cfg.Render.Timeout.D())
	assert.Equal(t, time.Duration(0), cfg.Render.AttachWindow.D())
	assert.Equal(t, []string{"main.py", "--verbose"}, cfg.Agent.Args)
	assert.Equal(t, "python3", cfg.Helpers.ExecuteCmd)
	assert.Equal(t, 3*time.Second, cfg.Agent.RestartDelay.D())
}

func TestLoadFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[render]\ntimeout = \"later\"\n"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestDurationText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, 90*time.Second, d.D())

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(text))

	assert.Error(t, d.UnmarshalText([]byte("ninety")))
}
