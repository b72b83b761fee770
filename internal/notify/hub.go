// Package notify is the live push channel: a broadcast-only websocket hub
// per client role. There is no per-client targeting and no delivery
// confirmation; a slow client just misses events.
package notify

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/plateful/plateful/internal/logger"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 16
)

// Envelope is the wire format of one pushed notification.
type Envelope struct {
	Event     string    `json:"event"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub broadcasts named events to every connected client of one role.
type Hub struct {
	role     string
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
}

func NewHub(role string) *Hub {
	return &Hub{
		role: role,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// ServeWS upgrades the request and keeps the connection registered until
// the peer goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.L().Warn("websocket upgrade failed", zap.String("role", h.role), zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBufferSize)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	logger.L().Info("client connected", zap.String("role", h.role), zap.Int("clients", count))

	go h.writePump(c)
	h.readPump(c)
}

// Broadcast pushes one event to every connected client. Clients whose send
// buffer is full are dropped rather than blocking the caller.
func (h *Hub) Broadcast(event string, data any) {
	body, err := json.Marshal(Envelope{Event: event, Data: data, Timestamp: time.Now().UTC()})
	if err != nil {
		logger.L().Error("marshal notification", zap.String("event", event), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- body:
		default:
			go h.drop(c)
		}
	}
}

// Close disconnects all clients.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		c.conn.Close()
		delete(h.clients, c)
	}
}

func (h *Hub) writePump(c *client) {
	for body := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, body); err != nil {
			h.drop(c)
			return
		}
	}
}

// readPump discards inbound frames; it exists to detect the close.
func (h *Hub) readPump(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.drop(c)
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	c.conn.Close()
	logger.L().Info("client disconnected", zap.String("role", h.role), zap.Int("clients", len(h.clients)))
}
