package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/domain/turn"
)

// Screenshot returns the image sent upstream for a turn. Evicted turns are
// read back from the run directory.
func (h *Handlers) Screenshot(c *gin.Context) {
	n, err := strconv.ParseInt(c.Param("n"), 10, 64)
	if err != nil || n < 0 {
		h.NotFound(c)
		return
	}

	if rec, ok := h.Store.Get(n); ok && rec.ImageDataURI != "" {
		writeJSON(c, http.StatusOK, gin.H{"image_data_uri": rec.ImageDataURI})
		return
	}

	uri, err := h.Journal.LoadScreenshot(n)
	if err != nil {
		if !errors.Is(err, turn.ErrNoScreenshot) {
			h.Logger.Warn("Failed to read screenshot", zap.Int64("turn", n), zap.Error(err))
		}
		writeJSON(c, http.StatusNotFound, gin.H{"error": "no screenshot"})
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"image_data_uri": uri})
}

// Stats summarizes latency over the stored turns.
func (h *Handlers) Stats(c *gin.Context) {
	writeJSON(c, http.StatusOK, gin.H{
		"turn":        h.Counter.Current(),
		"stored":      h.Store.Len(),
		"latency":     turn.Summarize(h.Store.Latencies()),
		"sse_clients": h.Hub.Count(),
		"sse_dropped": h.Hub.Dropped(),
		"render_seq":  h.Render.Seq(),
		"http":        h.Metrics.Snapshot(),
	})
}

// Export streams the run's turn journal gzip-compressed.
func (h *Handlers) Export(c *gin.Context) {
	c.Header("Content-Type", "application/gzip")
	c.Header("Content-Disposition", `attachment; filename="turns.jsonl.gz"`)
	c.Status(http.StatusOK)
	if err := h.Journal.Export(c.Writer); err != nil {
		h.Logger.Warn("Journal export failed", zap.Error(err))
	}
}
