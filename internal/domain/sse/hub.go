package sse

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultQueueSize bounds each client's pending messages.
const DefaultQueueSize = 2000

// Client is one registered event stream consumer.
type Client struct {
	id   string
	ch   chan []byte
	done chan struct{}
	once sync.Once
}

// ID returns the client's correlation id.
func (c *Client) ID() string {
	return c.id
}

// Messages delivers framed messages in broadcast order.
func (c *Client) Messages() <-chan []byte {
	return c.ch
}

// Done is closed once the client is unregistered.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Pending returns the number of queued messages.
func (c *Client) Pending() int {
	return len(c.ch)
}

// Hub tracks clients and fans broadcasts out to them.
type Hub struct {
	mu        sync.Mutex
	clients   map[*Client]struct{}
	queueSize int
	dropped   atomic.Int64
	logger    *zap.Logger
}

// NewHub creates a hub whose clients queue up to queueSize messages.
func NewHub(queueSize int, logger *zap.Logger) *Hub {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:   make(map[*Client]struct{}),
		queueSize: queueSize,
		logger:    logger,
	}
}

// Register adds a client.
func (h *Hub) Register() *Client {
	c := &Client{
		id:   uuid.NewString(),
		ch:   make(chan []byte, h.queueSize),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug("SSE client registered", zap.String("client", c.id), zap.Int("clients", n))
	return c
}

// Unregister removes a client. Calling it more than once is harmless.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()

	c.once.Do(func() { close(c.done) })
	if ok {
		h.logger.Debug("SSE client unregistered", zap.String("client", c.id), zap.Int("clients", n))
	}
}

// Broadcast serializes v and publishes it to every client.
func (h *Hub) Broadcast(v any) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	h.Publish(data)
	return nil
}

// Publish frames an already serialized event and enqueues it everywhere.
func (h *Hub) Publish(data []byte) {
	msg := Frame(data)

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		if !h.enqueue(c, msg) {
			h.dropped.Add(1)
		}
	}
}

// enqueue never blocks. A full queue loses its oldest message. It reports
// whether no message was lost.
func (h *Hub) enqueue(c *Client, msg []byte) bool {
	select {
	case c.ch <- msg:
		return true
	default:
	}

	select {
	case <-c.ch:
	default:
	}

	select {
	case c.ch <- msg:
	default:
	}
	return false
}

// Count returns the number of registered clients.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Dropped returns how many messages were discarded to make room.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Close unregisters every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.Unregister(c)
	}
}
