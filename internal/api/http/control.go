package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/infrastructure/monitoring"
)

// Pause asks the agent to stop before its next turn.
func (h *Handlers) Pause(c *gin.Context) {
	ok, err := h.Pauser.Pause()
	if err != nil {
		h.Logger.Warn("Pause failed", zap.Error(err))
	} else if ok {
		h.Logger.Info("Agent paused")
	}
	writeJSON(c, http.StatusOK, gin.H{"paused": true, "ok": ok})
}

// Unpause lets the agent continue.
func (h *Handlers) Unpause(c *gin.Context) {
	ok, err := h.Pauser.Unpause()
	if err != nil {
		h.Logger.Warn("Unpause failed", zap.Error(err))
	} else if ok {
		h.Logger.Info("Agent resumed")
	}
	writeJSON(c, http.StatusOK, gin.H{"paused": false, "ok": ok})
}

// GetCrop returns the stored crop region.
func (h *Handlers) GetCrop(c *gin.Context) {
	writeJSON(c, http.StatusOK, h.Settings.Crop())
}

// SetCrop stores the posted crop region verbatim.
func (h *Handlers) SetCrop(c *gin.Context) {
	var v any
	if err := readJSON(c, &v); err != nil {
		writeJSON(c, http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ok := true
	if err := h.Settings.SetCrop(v); err != nil {
		h.Logger.Warn("Failed to store crop", zap.Error(err))
		ok = false
	}
	h.Logger.Info("Crop set", zap.Any("crop", v))
	writeJSON(c, http.StatusOK, gin.H{"ok": ok, "crop": v})
}

// GetAllowedTools returns the tools the agent may use.
func (h *Handlers) GetAllowedTools(c *gin.Context) {
	writeJSON(c, http.StatusOK, h.Settings.AllowedTools())
}

// SetAllowedTools stores the posted allow-list.
func (h *Handlers) SetAllowedTools(c *gin.Context) {
	var v any
	if err := readJSON(c, &v); err != nil {
		writeJSON(c, http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ok := true
	tools, err := h.Settings.SetAllowedTools(v)
	if err != nil {
		h.Logger.Warn("Failed to store allowed tools", zap.Error(err))
		ok = false
	}
	h.Logger.Info("Allowed tools", zap.Strings("tools", tools))
	writeJSON(c, http.StatusOK, gin.H{"ok": ok, "tools": tools})
}

// Preview returns a fresh capture of the agent's screen.
func (h *Handlers) Preview(c *gin.Context) {
	timer := monitoring.NewTimer(h.Metrics, "preview")
	img := h.Previewer.Preview(c.Request.Context())
	if img == "" {
		timer.Stop("error")
	} else {
		timer.Stop("success")
	}
	writeJSON(c, http.StatusOK, gin.H{"image_b64": img})
}

// DebugExecute dry-runs raw model text through the execution engine.
func (h *Handlers) DebugExecute(c *gin.Context) {
	var body any
	if err := readJSON(c, &body); err != nil {
		writeJSON(c, http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	obj, isObj := body.(map[string]any)
	if !isObj {
		writeJSON(c, http.StatusBadRequest, gin.H{"error": "expected a JSON object"})
		return
	}

	raw := ""
	if v, present := obj["raw"]; present && v != nil {
		if s, isStr := v.(string); isStr {
			raw = s
		} else {
			raw = fmt.Sprint(v)
		}
	}
	if strings.TrimSpace(raw) == "" {
		writeJSON(c, http.StatusBadRequest, gin.H{"error": "Empty raw text"})
		return
	}

	timer := monitoring.NewTimer(h.Metrics, "execute")
	result := h.Executor.Execute(c.Request.Context(), raw, h.RunDir)
	if _, failed := result["error"]; failed {
		timer.Stop("error")
	} else {
		timer.Stop("success")
	}
	writeJSON(c, http.StatusOK, result)
}
