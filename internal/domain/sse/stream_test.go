package sse

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pipeWriter struct {
	header http.Header
	status int
	pw     *io.PipeWriter
}

func (w *pipeWriter) Header() http.Header         { return w.header }
func (w *pipeWriter) WriteHeader(status int)      { w.status = status }
func (w *pipeWriter) Write(p []byte) (int, error) { return w.pw.Write(p) }
func (w *pipeWriter) Flush()                      {}

type plainWriter struct{ http.ResponseWriter }

func startStream(t *testing.T, hub *Hub, keepalive time.Duration) (*bufio.Reader, *pipeWriter, context.CancelFunc, chan error) {
	t.Helper()

	pr, pw := io.Pipe()
	w := &pipeWriter{header: make(http.Header), pw: pw}
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- hub.Serve(ctx, w, keepalive)
		pw.Close()
	}()

	t.Cleanup(func() {
		cancel()
		pr.Close()
	})
	return bufio.NewReader(pr), w, cancel, errCh
}

func readFrame(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	blank, err := r.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "\n", blank)
	return line
}

func TestServeStreamsEvents(t *testing.T) {
	hub := NewHub(10, nil)
	r, w, cancel, errCh := startStream(t, hub, time.Hour)

	assert.Equal(t, "data: {\"type\":\"connected\"}\n", readFrame(t, r))
	assert.Equal(t, http.StatusOK, w.status)
	assert.Equal(t, "text/event-stream", w.header.Get("Content-Type"))
	assert.Equal(t, "no-cache", w.header.Get("Cache-Control"))
	assert.Equal(t, 1, hub.Count())

	require.NoError(t, hub.Broadcast(map[string]any{"turn": 3}))
	assert.Equal(t, "data: {\"turn\":3}\n", readFrame(t, r))

	cancel()
	require.NoError(t, <-errCh)
	assert.Equal(t, 0, hub.Count())
}

func TestServeKeepalive(t *testing.T) {
	hub := NewHub(10, nil)
	r, _, _, _ := startStream(t, hub, 20*time.Millisecond)

	readFrame(t, r)
	assert.Equal(t, ": keepalive\n", readFrame(t, r))
}

func TestServeStopsOnUnregister(t *testing.T) {
	hub := NewHub(10, nil)
	r, _, _, errCh := startStream(t, hub, time.Hour)
	readFrame(t, r)

	hub.Close()
	require.NoError(t, <-errCh)
}

func TestServeWriteFailureUnregisters(t *testing.T) {
	hub := NewHub(10, nil)
	pr, pw := io.Pipe()
	pr.Close()
	w := &pipeWriter{header: make(http.Header), pw: pw}

	require.NoError(t, hub.Serve(context.Background(), w, time.Hour))
	assert.Equal(t, 0, hub.Count())
}

func TestServeRequiresFlusher(t *testing.T) {
	hub := NewHub(10, nil)
	err := hub.Serve(context.Background(), plainWriter{}, time.Second)
	assert.ErrorIs(t, err, ErrStreamingUnsupported)
	assert.Equal(t, 0, hub.Count())
}
