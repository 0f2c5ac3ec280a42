package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/domain/render"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	pongWait   = pingPeriod + writeWait
	maxMessage = 32 << 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  64 << 10,
	WriteBufferSize: 64 << 10,
	CheckOrigin: func(r *http.Request) bool {
		return true // the canvas page may be opened from any host
	},
}

// Handler manages renderer WebSocket connections
type Handler struct {
	render *render.Rendezvous
	logger *zap.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(r *render.Rendezvous, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{render: r, logger: logger}
}

// HandleConnection upgrades the request and serves one renderer until it
// disconnects.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	detach := h.render.Attach()
	defer detach()

	h.logger.Info("Renderer attached", zap.String("remote", c.ClientIP()))
	defer h.logger.Info("Renderer detached", zap.String("remote", c.ClientIP()))

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		defer cancel()
		h.readResults(conn)
	}()

	h.pushJobs(ctx, conn)

	conn.Close()
	<-readDone
}

// readResults submits every result the renderer sends.
func (h *Handler) readResults(conn *websocket.Conn) {
	conn.SetReadLimit(maxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("Renderer read error", zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		var res render.Result
		if err := sonic.Unmarshal(data, &res); err != nil {
			h.logger.Debug("Ignoring malformed render result", zap.Error(err))
			continue
		}
		if !h.render.Submit(res) {
			h.logger.Debug("Render result discarded", zap.Int64("seq", res.Seq))
		}
	}
}

// pushJobs is the connection's only writer.
func (h *Handler) pushJobs(ctx context.Context, conn *websocket.Conn) {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	var sent int64
	for {
		changed := h.render.Changed()
		if job, ok := h.render.Current(); ok && job.Seq != sent {
			if err := h.send(conn, job); err != nil {
				return
			}
			sent = job.Seq
		}

		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(writeWait))
			return
		case <-changed:
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (h *Handler) send(conn *websocket.Conn, job render.Job) error {
	data, err := sonic.Marshal(job)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}
