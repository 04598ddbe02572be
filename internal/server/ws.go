package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/whirling/internal/server/api"
	"github.com/ayusman/whirling/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

const (
	writeWait      = 2 * time.Second
	clientQueueLen = 64
)

// Message is one WebSocket message. The first message after connecting
// carries only the state.
type Message struct {
	Kind  session.EventKind `json:"kind,omitempty"`
	Event *session.Event    `json:"event,omitempty"`
	State any               `json:"state"`
}

type client struct {
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// EventsHandler pushes session events with a fresh state document to every
// connected WebSocket client.
type EventsHandler struct {
	state       func() api.StateResponse
	unsubscribe func()

	mu      sync.RWMutex
	clients map[*client]bool
	closed  bool
}

// NewEventsHandler subscribes to s. state builds the document sent with
// each message.
func NewEventsHandler(s *session.Session, state func() api.StateResponse) *EventsHandler {
	h := &EventsHandler{
		state:   state,
		clients: make(map[*client]bool),
	}
	h.unsubscribe = s.Subscribe(h.broadcast)
	return h
}

// Clients returns the number of connected clients.
func (h *EventsHandler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	c := &client{send: make(chan []byte, clientQueueLen)}
	first, err := json.Marshal(Message{State: h.state()})
	if err != nil {
		return
	}
	c.send <- first

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.clients[c] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		if h.clients[c] {
			delete(h.clients, c)
			c.close()
		}
		h.mu.Unlock()
	}()

	// Reads only detect the peer closing.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.mu.Lock()
				if h.clients[c] {
					delete(h.clients, c)
					c.close()
				}
				h.mu.Unlock()
				return
			}
		}
	}()

	for msg := range c.send {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

// broadcast queues e for every client. Slow clients drop messages.
func (h *EventsHandler) broadcast(e session.Event) {
	h.mu.RLock()
	n := len(h.clients)
	h.mu.RUnlock()
	if n == 0 {
		return
	}

	event := e
	msg, err := json.Marshal(Message{Kind: e.Kind, Event: &event, State: h.state()})
	if err != nil {
		log.Printf("websocket encode error: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// Close stops following the session and disconnects every client.
func (h *EventsHandler) Close() {
	h.unsubscribe()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
}
