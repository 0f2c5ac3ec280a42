package server

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/infrastructure/config"
	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/shared/paths"
)

const agentHelperEnv = "SERVER_AGENT_HELPER"

// TestAgentHelper stands in for the supervised agent when the test binary
// is spawned by the supervisor.
func TestAgentHelper(t *testing.T) {
	if os.Getenv(agentHelperEnv) != "1" {
		t.Skip("helper process only")
	}
	fmt.Println("agent up in", os.Getenv("FRANZ_RUN_DIR"))
	time.Sleep(time.Minute)
	os.Exit(0)
}

func testConfig(t *testing.T, upstreamURL string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "0"
	cfg.Upstream.URL = upstreamURL
	cfg.Run.LogBase = t.TempDir()
	cfg.Run.DashboardFile = filepath.Join(cfg.Run.LogBase, "panel.html")
	cfg.Agent.Enabled = false
	cfg.Logging.Level = "info"
	return cfg
}

func fakeUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"u","choices":[{"message":{"content":"click(1,2)"},"finish_reason":"stop"}]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func serve(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(method, path, r))
	return w
}

func TestNewServerPreparesRun(t *testing.T) {
	cfg := testConfig(t, fakeUpstream(t).URL)

	s, err := NewServer(cfg)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(filepath.Base(s.RunDir()), paths.RunPrefix))
	assert.FileExists(t, paths.Sentinel(s.RunDir()), "new runs start paused")

	var health map[string]any
	require.NoError(t, sonic.Unmarshal(serve(s, http.MethodGet, "/health", "").Body.Bytes(), &health))
	assert.Equal(t, true, health["paused"])
	assert.Equal(t, false, health["main_running"])

	require.NoError(t, s.Close())
	assert.FileExists(t, paths.In(s.RunDir(), paths.LogFile))
	assert.NoError(t, s.Close(), "close is idempotent")
}

func TestRoutes(t *testing.T) {
	cfg := testConfig(t, fakeUpstream(t).URL)
	cfg.Run.AutoPause = false
	cfg.Server.InferencePath = "/v1/chat/completions"
	s, err := NewServer(cfg)
	require.NoError(t, err)
	defer s.Close()

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/", "", http.StatusOK},
		{http.MethodGet, "/index.html", "", http.StatusOK},
		{http.MethodGet, "/canvas", "", http.StatusOK},
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/crop", "", http.StatusOK},
		{http.MethodGet, "/allowed_tools", "", http.StatusOK},
		{http.MethodGet, "/render_job", "", http.StatusOK},
		{http.MethodGet, "/stats", "", http.StatusOK},
		{http.MethodGet, "/turns/export", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
		{http.MethodGet, "/turn/1/screenshot", "", http.StatusNotFound},
		{http.MethodPost, "/v1/chat/completions", `{"model":"m","messages":[]}`, http.StatusOK},
		{http.MethodGet, "/v1/models", "", http.StatusNotFound},
		{http.MethodPost, "/elsewhere", `{}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, serve(s, tt.method, tt.path, tt.body).Code)
		})
	}

	metrics := serve(s, http.MethodGet, "/metrics", "").Body.String()
	assert.Contains(t, metrics, "panel_turns_total 1")
	assert.Contains(t, metrics, "panel_sse_clients 0")
}

func TestRateLimitAppliesToControlsOnly(t *testing.T) {
	cfg := testConfig(t, fakeUpstream(t).URL)
	cfg.RateLimit = config.RateLimitConfig{RequestsPerSecond: 1, Burst: 1, Enabled: true}
	s, err := NewServer(cfg)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, http.StatusOK, serve(s, http.MethodPost, "/pause", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(s, http.MethodPost, "/unpause", "").Code)

	for i := 0; i < 3; i++ {
		w := serve(s, http.MethodPost, cfg.Server.InferencePath, `{"messages":[]}`)
		assert.Equal(t, http.StatusOK, w.Code, "inference is never rate limited")
	}
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(s, http.MethodGet, "/render_job", "").Code)
	}
}

func TestRunSupervisesAgent(t *testing.T) {
	t.Setenv(agentHelperEnv, "1")

	cfg := testConfig(t, fakeUpstream(t).URL)
	cfg.Agent.Enabled = true
	cfg.Agent.Command = os.Args[0]
	cfg.Agent.Args = []string{"-test.run=^TestAgentHelper$"}
	cfg.Agent.InitialDelay = config.Duration(10 * time.Millisecond)
	cfg.Agent.StopTimeout = config.Duration(2 * time.Second)
	cfg.Agent.KillWait = config.Duration(2 * time.Second)

	s, err := NewServer(cfg)
	require.NoError(t, err)

	runErr := make(chan error, 1)
	go func() { runErr <- s.Run() }()

	require.Eventually(t, func() bool {
		var health map[string]any
		if err := sonic.Unmarshal(serve(s, http.MethodGet, "/health", "").Body.Bytes(), &health); err != nil {
			return false
		}
		return health["main_running"] == true
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, s.Close())
	assert.False(t, s.agent.Running())

	select {
	case err := <-runErr:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Close")
	}
}
