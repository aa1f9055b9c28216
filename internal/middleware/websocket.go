package middleware

import (
	"context"
	"encoding/json"
	"html/template"
	"log/slog"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"crawldash/internal/metrics"
	"crawldash/internal/render"
)

const writeWait = 10 * time.Second

// SlotMessage is what browsers receive: the new markup of one slot.
type SlotMessage struct {
	Slot render.SlotID `json:"slot"`
	HTML template.HTML `json:"html"`
}

// SnapshotFunc returns the current markup of every slot. A new client is
// sent the snapshot before any broadcast.
type SnapshotFunc func() map[string]template.HTML

// Hub fans slot updates out to connected browsers. Only Run writes to
// connections.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	mutex      sync.RWMutex
	upgrader   websocket.Upgrader
	snapshot   SnapshotFunc
	metrics    *metrics.Collectors
	logger     *slog.Logger
}

// HubOption configures a Hub.
type HubOption func(*Hub)

func WithSnapshot(fn SnapshotFunc) HubOption {
	return func(h *Hub) { h.snapshot = fn }
}

func WithHubMetrics(m *metrics.Collectors) HubOption {
	return func(h *Hub) { h.metrics = m }
}

func NewHub(logger *slog.Logger, opts ...HubOption) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		logger:     logger.With("component", "hub"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run serves registrations and broadcasts until ctx is cancelled, then
// closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for conn := range h.clients {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(time.Second))
				conn.Close()
				delete(h.clients, conn)
			}
			h.mutex.Unlock()
			h.setGauge()
			return

		case conn := <-h.register:
			h.mutex.Lock()
			h.clients[conn] = true
			h.mutex.Unlock()
			h.setGauge()
			h.logger.Debug("browser connected", "remote", conn.RemoteAddr().String())
			h.sendSnapshot(conn)

		case conn := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()
			h.setGauge()
			h.logger.Debug("browser disconnected", "remote", conn.RemoteAddr().String())

		case message := <-h.broadcast:
			h.mutex.Lock()
			for conn := range h.clients {
				if err := h.write(conn, message); err != nil {
					h.logger.Warn("browser write failed", "error", err)
					delete(h.clients, conn)
					conn.Close()
				}
			}
			h.mutex.Unlock()
			h.setGauge()
		}
	}
}

func (h *Hub) sendSnapshot(conn *websocket.Conn) {
	if h.snapshot == nil {
		return
	}
	for slot, html := range h.snapshot() {
		message, err := json.Marshal(SlotMessage{Slot: render.SlotID(slot), HTML: html})
		if err != nil {
			continue
		}
		if err := h.write(conn, message); err != nil {
			h.logger.Warn("browser write failed", "error", err)
			return
		}
	}
}

func (h *Hub) write(conn *websocket.Conn, message []byte) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, message)
}

// BroadcastSlot queues a slot update for every client. It matches the
// signature of htmldoc.WithChangeFunc.
func (h *Hub) BroadcastSlot(slot render.SlotID, html template.HTML) {
	message, err := json.Marshal(SlotMessage{Slot: slot, HTML: html})
	if err != nil {
		h.logger.Error("encode slot update", "slot", slot, "error", err)
		return
	}
	h.Broadcast(message)
}

// Broadcast queues a raw message. It is dropped once the hub has stopped.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	case <-h.done:
	}
}

func (h *Hub) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) setGauge() {
	if h.metrics != nil {
		h.metrics.BrowserClients.Set(float64(h.GetClientCount()))
	}
}

// HandleWebSocket upgrades the request and holds the connection until the
// browser goes away. Browsers never send anything meaningful.
func (h *Hub) HandleWebSocket() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			h.logger.Warn("websocket upgrade failed", "error", err)
			return
		}

		select {
		case h.register <- conn:
		case <-h.done:
			conn.Close()
			return
		}

		defer func() {
			select {
			case h.unregister <- conn:
			case <-h.done:
			}
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					h.logger.Warn("websocket error", "error", err)
				}
				break
			}
		}
	}
}
