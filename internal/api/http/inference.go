package http

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/domain/action"
	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/domain/chat"
	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/domain/render"
	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/domain/turn"
)

// Inference proxies one agent turn. The screenshot is annotated with the
// previous turn's actions, the upstream reply is returned to the agent
// unchanged, and the turn is recorded, persisted and broadcast.
func (h *Handlers) Inference(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		writeJSON(c, http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	n := h.Counter.Next()
	start := time.Now()
	req := chat.ParseRequest(raw)

	h.Logger.Info("Forwarding turn",
		zap.Int64("turn", n),
		zap.Int("bytes", len(raw)),
		zap.Bool("image", req.HasImage),
	)

	sent := req.ImageB64
	body := raw
	if req.ImageB64 != "" {
		body, sent = h.annotate(c, n, raw, req.ImageB64)
	}

	resp := h.Forwarder.Forward(ctx, body, c.GetHeader("Content-Type"), c.Request.Header)
	latency := time.Since(start)

	reply := chat.ParseResponse(resp.Body)
	actions := action.Extract(reply.Text)
	h.Memory.Set(actions)
	if len(actions) > 0 {
		h.Logger.Debug("Parsed actions for next annotation", zap.Int64("turn", n), zap.Int("count", len(actions)))
	}

	contentType := resp.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	c.Data(resp.Status, contentType, resp.Body)

	rec := turn.Record{
		Turn:      n,
		Timestamp: turn.Timestamp(time.Now()),
		LatencyMs: turn.RoundLatency(latency),
		Request: turn.RequestSummary{
			Model:         req.Model,
			StoryText:     req.StoryText,
			SystemPrompt:  req.SystemPrompt,
			HasImage:      req.HasImage,
			Sampling:      req.Sampling,
			MessagesCount: req.MessagesCount,
			BodySize:      len(raw),
			ParseError:    turn.StringPtr(req.ParseError),
		},
		Response: turn.ResponseSummary{
			Status:        resp.Status,
			ResponseID:    reply.ID,
			VLMText:       reply.Text,
			VLMTextLength: len(reply.Text),
			FinishReason:  reply.FinishReason,
			Usage:         reply.Usage,
			BodySize:      len(resp.Body),
			ParseError:    turn.StringPtr(reply.ParseError),
			Error:         turn.StringPtr(resp.Err),
		},
		Actions: actions,
	}
	if sent != "" {
		rec.ImageDataURI = chat.ImagePrefix + sent
	}

	h.record(rec, sent)
	h.Metrics.RecordTurn(strconv.Itoa(resp.Status), latency, len(actions))

	h.Logger.Info("Turn complete",
		zap.Int64("turn", n),
		zap.Duration("latency", latency),
		zap.Int("status", resp.Status),
		zap.Int("vlm_chars", len(reply.Text)),
	)
}

// annotate runs the render rendezvous and swaps the result into the
// request. It returns the body to send and the image it carries.
func (h *Handlers) annotate(c *gin.Context, n int64, raw []byte, img string) ([]byte, string) {
	annotated, outcome := h.Render.Annotate(c.Request.Context(), img, h.Memory.Snapshot())
	h.Metrics.RecordRender(string(outcome))
	if outcome != render.OutcomeAnnotated {
		return raw, img
	}

	swapped, ok, err := chat.SwapImage(raw, annotated)
	if err != nil || !ok {
		h.Logger.Warn("Annotated image not swapped", zap.Int64("turn", n), zap.Error(err))
		return raw, img
	}
	h.Logger.Info("Canvas annotated turn", zap.Int64("turn", n), zap.Int64("seq", h.Render.Seq()))
	return swapped, annotated
}

// record stores the turn, persists it and notifies dashboards. Failures
// here never affect the agent, which already has its reply.
func (h *Handlers) record(rec turn.Record, img string) {
	h.Store.Put(rec)

	if err := h.Journal.SaveScreenshot(rec.Turn, img); err != nil {
		h.Logger.Warn("Failed to save screenshot", zap.Int64("turn", rec.Turn), zap.Error(err))
	}
	if err := h.Journal.Append(rec); err != nil {
		h.Logger.Warn("Failed to append turn journal", zap.Int64("turn", rec.Turn), zap.Error(err))
	}
	if err := h.Hub.Broadcast(rec.WithoutImage()); err != nil {
		h.Logger.Warn("Failed to broadcast turn", zap.Int64("turn", rec.Turn), zap.Error(err))
	}
}
