// Package live pushes lane, idle and reset notifications to the scorer
// screens of one event over websockets.
package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	LanesUpdated  = "LANES_UPDATED"
	IdleUpdated   = "IDLE_UPDATED"
	BracketReset  = "BRACKET_RESET"
	BracketChange = "BRACKET_UPDATED"
)

type Message struct {
	Type    string    `json:"type"`
	Payload any       `json:"payload"`
	EventID uuid.UUID `json:"event_id"`
}

type LanesPayload struct {
	Assigned int `json:"assigned"`
}

type IdlePayload struct {
	MatchIDs       []uuid.UUID `json:"match_ids"`
	RecheckAfterMS *int64      `json:"recheck_after_ms"`
}

type ResetPayload struct {
	Changed int `json:"changed"`
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

type client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	event uuid.UUID
}

// Hub keeps one room of clients per event.
type Hub struct {
	register   chan *client
	unregister chan *client
	done       chan struct{}

	mu    sync.RWMutex
	rooms map[uuid.UUID]map[*client]bool
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		rooms:      make(map[uuid.UUID]map[*client]bool),
	}
}

// Run serves registrations until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			if _, ok := h.rooms[c.event]; !ok {
				h.rooms[c.event] = make(map[*client]bool)
			}
			h.rooms[c.event][c] = true
			slog.Info("live client joined", "event_id", c.event, "clients", len(h.rooms[c.event]))
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			h.drop(c)
			h.mu.Unlock()

		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for _, room := range h.rooms {
				for c := range room {
					h.drop(c)
				}
			}
			h.mu.Unlock()
			return
		}
	}
}

// drop must be called with mu held.
func (h *Hub) drop(c *client) {
	room, ok := h.rooms[c.event]
	if !ok || !room[c] {
		return
	}
	close(c.send)
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, c.event)
	}
	slog.Info("live client left", "event_id", c.event, "clients", len(room))
}

func (h *Hub) Clients(eventID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[eventID])
}

// Publish sends a message to every client watching the event. Slow clients
// whose buffer is full miss the message.
func (h *Hub) Publish(eventID uuid.UUID, msgType string, payload any) {
	data, err := json.Marshal(Message{Type: msgType, Payload: payload, EventID: eventID})
	if err != nil {
		slog.Error("failed to encode live message", "type", msgType, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[eventID] {
		select {
		case c.send <- data:
		default:
			slog.Warn("live client buffer full, dropping message", "event_id", eventID, "type", msgType)
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Lane boards are opened from venue screens on other origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Serve upgrades the request and attaches the connection to the event room.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, eventID uuid.UUID) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "event_id", eventID, "error", err)
		return
	}
	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer), event: eventID}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// readPump only drains control frames; clients never send commands here.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("live client read failed", "event_id", c.event, "error", err)
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				slog.Warn("live client write failed", "event_id", c.event, "error", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
