// Package ws broadcasts completed scans to websocket subscribers.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/flashpoint/pkg/logger"
)

// Timing and size limits per connection.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// sendBuffer is the per-client queue depth; clients that fall this far
// behind are dropped.
const sendBuffer = 16

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API carries no auth; dashboards connect from any origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans completed scans out to connected clients. Run must be
// started before connections are accepted.
type Hub struct {
	logger *logger.Logger

	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}

	clients map[*client]bool
	count   atomic.Int64
}

// NewHub creates a hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		logger:     log.WithField("module", "ws"),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, sendBuffer),
		done:       make(chan struct{}),
		clients:    make(map[*client]bool),
	}
}

// Run owns the client registry until ctx is cancelled, then closes
// every connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return
		case c := <-h.register:
			h.clients[c] = true
			h.count.Store(int64(len(h.clients)))
			h.logger.WithField("clients", len(h.clients)).Debug("Client connected")
		case c := <-h.unregister:
			if h.clients[c] {
				h.drop(c)
				h.logger.WithField("clients", len(h.clients)).Debug("Client disconnected")
			}
		case message := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					// Slow consumer; drop it rather than stall the hub.
					h.drop(c)
				}
			}
		}
	}
}

func (h *Hub) drop(c *client) {
	delete(h.clients, c)
	close(c.send)
	h.count.Store(int64(len(h.clients)))
}

// Broadcast queues a payload for every connected client. Payloads are
// dropped when the queue is full.
func (h *Hub) Broadcast(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.WithError(err).Error("Failed to encode broadcast")
		return
	}

	select {
	case h.broadcast <- data:
	default:
		h.logger.Debug("Broadcast queue full, dropping message")
	}
}

// ClientCount reports connected clients.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// HandleConnection upgrades the request and starts the client pumps.
// GET /ws/scans
func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writeLoop()
	go c.readLoop()
}
