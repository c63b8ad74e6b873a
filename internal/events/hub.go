package events

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"shift-backend/internal/metrics"

	"github.com/gorilla/websocket"
)

// SessionEvent is a session transition pushed to connected clients. The
// *_ended events double as the signal for the UI to leave the session
// screen; the server only emits the signal, navigation is the client's job.
type SessionEvent struct {
	Type      string    `json:"type"` // shift_started, shift_ended, cleaning_paused, ...
	UserID    int       `json:"user_id"`
	SessionID int       `json:"session_id"`
	Kind      string    `json:"kind"`
	Status    string    `json:"status"`
	At        time.Time `json:"at"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans session events out to websocket clients. Slow clients are
// dropped rather than allowed to block the command path.
type Hub struct {
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 64),
	}
}

// Run owns the client set; call it once in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
			metrics.WebsocketClients.Inc()
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				metrics.WebsocketClients.Dec()
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					delete(h.clients, c)
					close(c.send)
					metrics.WebsocketClients.Dec()
				}
			}
		}
	}
}

// PublishSessionEvent broadcasts a transition to all connected clients.
// Never blocks the caller: if the broadcast buffer is full the event is
// dropped (clients reconcile through the projection anyway).
func (h *Hub) PublishSessionEvent(evt SessionEvent) {
	data, err := json.Marshal(evt)
	if err != nil {
		log.Printf("[Events] marshal failed: %v", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		log.Printf("[Events] broadcast buffer full, dropping %s", evt.Type)
	}
}

// ServeWS upgrades an HTTP request to a websocket event feed connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Events] upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 16)}
	h.register <- c

	go c.writePump()
	go c.readPump(h)
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

// readPump discards inbound messages; the feed is one-way.
func (c *client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
