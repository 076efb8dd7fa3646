// Package realtime pushes order events to websocket subscribers.
package realtime

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/cleservice/backend/internal/domain"
	"github.com/cleservice/backend/internal/infrastructure/metrics"
)

const (
	eventBufferSize = 256
	writeWait       = 5 * time.Second
)

// Hub fans order events out to every connected websocket client.
// Publish never blocks; events are dropped when the queue is full.
type Hub struct {
	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]*sync.Mutex

	events   chan domain.OrderEvent
	upgrader websocket.Upgrader
}

// NewHub creates a hub. originAllowed vets the Origin header of browser
// upgrades; a nil func accepts every origin.
func NewHub(originAllowed func(origin string) bool) *Hub {
	h := &Hub{
		clients: make(map[*websocket.Conn]*sync.Mutex),
		events:  make(chan domain.OrderEvent, eventBufferSize),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || originAllowed == nil || originAllowed(origin)
		},
	}
	return h
}

// Run delivers queued events until ctx is cancelled, then closes every client
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case event := <-h.events:
			h.sendToAll(event)
		}
	}
}

// Publish queues event for delivery
func (h *Hub) Publish(event domain.OrderEvent) {
	select {
	case h.events <- event:
	default:
		log.Printf("[WS] Event queue full, dropping %s for order %s", event.Type, event.Order.Number)
	}
}

// Count returns the number of connected clients
func (h *Hub) Count() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Handler upgrades the request and keeps the client registered until it disconnects
func (h *Hub) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[WS] Upgrade failed: %v", err)
			return
		}

		h.add(conn)
		log.Printf("[WS] Client connected from %s", conn.RemoteAddr())

		// Incoming messages are ignored; reading only detects the disconnect.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}

		h.remove(conn)
		log.Printf("[WS] Client disconnected from %s", conn.RemoteAddr())
	}
}

func (h *Hub) add(conn *websocket.Conn) {
	h.clientsMu.Lock()
	h.clients[conn] = &sync.Mutex{}
	n := len(h.clients)
	h.clientsMu.Unlock()
	metrics.RealtimeClients.Set(float64(n))
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.clientsMu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	n := len(h.clients)
	h.clientsMu.Unlock()

	if ok {
		_ = conn.Close()
	}
	metrics.RealtimeClients.Set(float64(n))
}

func (h *Hub) sendToAll(event domain.OrderEvent) {
	// Snapshot under read lock so slow writes do not block registration.
	h.clientsMu.RLock()
	snapshot := make(map[*websocket.Conn]*sync.Mutex, len(h.clients))
	for conn, mu := range h.clients {
		snapshot[conn] = mu
	}
	h.clientsMu.RUnlock()

	var failed []*websocket.Conn
	for conn, mu := range snapshot {
		mu.Lock()
		err := conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err == nil {
			err = conn.WriteJSON(event)
		}
		mu.Unlock()

		if err != nil {
			log.Printf("[WS] Write to %s failed: %v", conn.RemoteAddr(), err)
			failed = append(failed, conn)
		}
	}

	for _, conn := range failed {
		h.remove(conn)
	}
}

func (h *Hub) closeAll() {
	h.clientsMu.Lock()
	for conn := range h.clients {
		_ = conn.Close()
		delete(h.clients, conn)
	}
	h.clientsMu.Unlock()
	metrics.RealtimeClients.Set(0)
}
