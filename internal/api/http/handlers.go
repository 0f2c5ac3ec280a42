package http

import (
	"math"
	"net/http"
	"os"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/domain/action"
	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/domain/control"
	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/domain/forward"
	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/domain/render"
	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/domain/sse"
	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/domain/turn"
	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/infrastructure/monitoring"
	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/providers/helper"
)

const notFoundPage = "<h1>Not found</h1>"

// AgentStatus reports whether the supervised agent is alive.
type AgentStatus interface {
	Running() bool
}

// Deps wires the handlers to their components. Agent may be nil when no
// agent is supervised.
type Deps struct {
	Logger    *zap.Logger
	Metrics   *monitoring.Metrics
	Counter   *turn.Counter
	Store     *turn.Store
	Journal   *turn.Journal
	Hub       *sse.Hub
	Render    *render.Rendezvous
	Memory    *action.Memory
	Forwarder *forward.Forwarder
	Pauser    *control.PauseController
	Settings  *control.Settings
	Previewer *helper.Previewer
	Executor  *helper.Executor
	Agent     AgentStatus

	RunDir        string
	DashboardFile string
	CanvasFile    string
	ScreenW       int
	ScreenH       int
	Keepalive     time.Duration
	StartTime     time.Time
}

// Handlers contains all HTTP handlers
type Handlers struct {
	Deps
}

// NewHandlers creates a new handler set
func NewHandlers(deps Deps) *Handlers {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.StartTime.IsZero() {
		deps.StartTime = time.Now()
	}
	if deps.Keepalive <= 0 {
		deps.Keepalive = sse.DefaultKeepalive
	}
	return &Handlers{Deps: deps}
}

// Dashboard serves the operator page.
func (h *Handlers) Dashboard(c *gin.Context) {
	h.page(c, h.DashboardFile)
}

// Canvas serves the renderer page.
func (h *Handlers) Canvas(c *gin.Context) {
	h.page(c, h.CanvasFile)
}

func (h *Handlers) page(c *gin.Context, path string) {
	body, err := os.ReadFile(path)
	if err != nil {
		body = []byte(notFoundPage)
	}
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "text/html; charset=utf-8", body)
}

// Events streams turn records to a dashboard.
func (h *Handlers) Events(c *gin.Context) {
	if err := h.Hub.Serve(c.Request.Context(), c.Writer, h.Keepalive); err != nil {
		h.Logger.Warn("Event stream unavailable", zap.Error(err))
		writeJSON(c, http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// Health reports liveness and a few counters for the dashboard header.
func (h *Handlers) Health(c *gin.Context) {
	uptime := time.Since(h.StartTime).Seconds()
	writeJSON(c, http.StatusOK, gin.H{
		"status":       "ok",
		"turn":         h.Counter.Current(),
		"uptime_s":     math.Round(uptime*10) / 10,
		"sse_clients":  h.Hub.Count(),
		"main_running": h.Agent != nil && h.Agent.Running(),
		"paused":       h.Pauser.IsPaused(),
		"screen_w":     h.ScreenW,
		"screen_h":     h.ScreenH,
	})
}

// NotFound is the fallback for unknown routes.
func (h *Handlers) NotFound(c *gin.Context) {
	writeJSON(c, http.StatusNotFound, gin.H{"error": "not found"})
}

// writeJSON encodes v with sonic and marks the response uncacheable.
func writeJSON(c *gin.Context, code int, v any) {
	body, err := sonic.Marshal(v)
	if err != nil {
		code = http.StatusInternalServerError
		body = []byte(`{"error":"encode failed"}`)
	}
	c.Header("Cache-Control", "no-cache")
	c.Data(code, "application/json", body)
}

// readJSON decodes the request body into an arbitrary JSON value.
func readJSON(c *gin.Context, v any) error {
	body, err := c.GetRawData()
	if err != nil {
		return err
	}
	return sonic.Unmarshal(body, v)
}
