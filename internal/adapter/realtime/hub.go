// Package realtime pushes domain events to a user's open websocket
// connections so every signed-in tab refreshes after a change.
package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"healthmonitor/internal/domain"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	sendBuffer   = 16
	pingInterval = 25 * time.Second
	writeTimeout = 10 * time.Second
)

type client struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte
	once   sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// Hub tracks websocket clients per user and fans events out to them.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]map[*client]struct{}
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

var _ domain.EventPublisher = (*Hub)(nil)

// NewHub creates an empty hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		log: log.With().Str("component", "realtime").Logger(),
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	if h.clients[c.userID] == nil {
		h.clients[c.userID] = make(map[*client]struct{})
	}
	h.clients[c.userID][c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if set := h.clients[c.userID]; set != nil {
		if _, ok := set[c]; ok {
			delete(set, c)
			c.close()
		}
		if len(set) == 0 {
			delete(h.clients, c.userID)
		}
	}
	h.mu.Unlock()
}

// Connections reports how many sockets a user currently has open.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Publish delivers the event to the owning user's sockets. A client whose
// buffer is full misses the event rather than stalling the caller.
func (h *Hub) Publish(ev domain.Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		h.log.Error().Err(err).Str("type", ev.Type).Msg("marshal event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[ev.UserID] {
		select {
		case c.send <- msg:
		default:
			h.log.Warn().Str("user", ev.UserID).Str("type", ev.Type).Msg("client buffer full, dropping event")
		}
	}
}

// Serve upgrades the request and streams userID's events until the peer
// disconnects.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &client{userID: userID, conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(c)
	h.log.Debug().Str("user", userID).Msg("client connected")

	go h.writeLoop(c)

	// Read loop ends on client close or error.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.unregister(c)
	h.log.Debug().Str("user", userID).Msg("client disconnected")
	return nil
}

func (h *Hub) writeLoop(c *client) {
	t := time.NewTicker(pingInterval)
	defer func() {
		t.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.unregister(c)
				return
			}
		case <-t.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.unregister(c)
				return
			}
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, set := range h.clients {
		for c := range set {
			c.close()
		}
		delete(h.clients, userID)
	}
}
