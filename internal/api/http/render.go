package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/domain/render"
)

// RenderJob returns the outstanding render job, or {} when none is pending.
func (h *Handlers) RenderJob(c *gin.Context) {
	job, ok := h.Render.Current()
	if !ok {
		writeJSON(c, http.StatusOK, gin.H{})
		return
	}
	writeJSON(c, http.StatusOK, job)
}

// Annotated accepts a renderer's result.
func (h *Handlers) Annotated(c *gin.Context) {
	var res render.Result
	if err := readJSON(c, &res); err != nil {
		writeJSON(c, http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.Render.Submit(res)
	writeJSON(c, http.StatusOK, gin.H{"ok": true})
}
