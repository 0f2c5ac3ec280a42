package sse

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// DefaultKeepalive is the idle window before a keepalive comment is sent.
const DefaultKeepalive = 15 * time.Second

var (
	connectedFrame = []byte("data: {\"type\":\"connected\"}\n\n")
	keepaliveFrame = []byte(": keepalive\n\n")
)

// ErrStreamingUnsupported is returned when the writer cannot flush.
var ErrStreamingUnsupported = errors.New("streaming unsupported")

// Frame wraps a serialized event as one SSE data frame.
func Frame(data []byte) []byte {
	msg := make([]byte, 0, len(data)+8)
	msg = append(msg, "data: "...)
	msg = append(msg, data...)
	msg = append(msg, '\n', '\n')
	return msg
}

// Serve streams events to w until ctx ends, the client is unregistered or
// a write fails. The client is always unregistered on return.
func (h *Hub) Serve(ctx context.Context, w http.ResponseWriter, keepalive time.Duration) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return ErrStreamingUnsupported
	}
	if keepalive <= 0 {
		keepalive = DefaultKeepalive
	}

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	c := h.Register()
	defer h.Unregister(c)

	if _, err := w.Write(connectedFrame); err != nil {
		return nil
	}
	flusher.Flush()

	idle := time.NewTimer(keepalive)
	defer idle.Stop()

	for {
		var frame []byte
		select {
		case <-ctx.Done():
			return nil
		case <-c.Done():
			return nil
		case frame = <-c.Messages():
		case <-idle.C:
			frame = keepaliveFrame
		}

		if _, err := w.Write(frame); err != nil {
			return nil
		}
		flusher.Flush()
		idle.Reset(keepalive)
	}
}
