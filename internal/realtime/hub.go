// Package realtime streams session events to websocket subscribers.
package realtime

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Dev-Dami/Weather-App/internal/session"
)

const (
	sendBuffer   = 16
	readLimit    = 1024
	pongWait     = 60 * time.Second
	pingInterval = 25 * time.Second
	writeWait    = 5 * time.Second
)

// Hub fans session events out to the websocket clients subscribed to that session.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]map[*client]struct{}
}

type client struct {
	session string
	conn    *websocket.Conn
	send    chan []byte
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
		clients: map[string]map[*client]struct{}{},
	}
}

// Serve upgrades the request and subscribes it to events of session id. The
// client is registered before current is read, so every later event follows the
// initial view and none is lost in between.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, id string, current func() session.View) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "session", id, "error", err)
		return
	}

	c := &client{session: id, conn: conn, send: make(chan []byte, sendBuffer)}
	h.subscribe(c, current)

	go h.writePump(c)
	h.readPump(c)
}

// Publish implements session.Listener.
func (h *Hub) Publish(ev session.Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		slog.Error("failed to encode session event", "session", ev.Session, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients[ev.Session] {
		select {
		case c.send <- b:
		default:
			// Slow client; drop it.
			h.removeLocked(c)
			continue
		}
		if ev.Type == session.EventClosed {
			h.removeLocked(c)
		}
	}
}

// Subscribers reports how many clients follow a session.
func (h *Hub) Subscribers(id string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[id])
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.clients {
		for c := range set {
			h.removeLocked(c)
		}
	}
}

// subscribe registers c and queues the current view while holding the hub lock,
// which Publish also takes.
func (h *Hub) subscribe(c *client, current func() session.View) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.session]
	if !ok {
		set = map[*client]struct{}{}
		h.clients[c.session] = set
	}
	set[c] = struct{}{}

	b, err := json.Marshal(session.Event{Type: "view", Session: c.session, View: current(), At: time.Now().UTC()})
	if err != nil {
		slog.Error("failed to encode session view", "session", c.session, "error", err)
		return
	}
	c.send <- b
}

func (h *Hub) removeClient(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

// removeLocked closes the send channel; writePump then sends a close frame and
// closes the connection.
func (h *Hub) removeLocked(c *client) {
	set, ok := h.clients[c.session]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.session)
	}
	close(c.send)
}

func (h *Hub) readPump(c *client) {
	defer h.removeClient(c)
	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
