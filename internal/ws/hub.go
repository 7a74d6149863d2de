package ws

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Subscriber is one live event consumer. It owns no session state; it only
// drains its buffered send channel. A subscriber that stops draining is
// dropped by the hub so it cannot stall delivery to anyone else.
type Subscriber struct {
	ID   string
	send chan WsEvent
}

// Events is the subscriber's receive side.
func (s *Subscriber) Events() <-chan WsEvent {
	return s.send
}

// SnapshotFunc produces the status snapshot delivered to a subscriber at
// registration time. There is no event backlog: a subscriber that connects
// between two events has missed them for good.
type SnapshotFunc func() []WsEvent

// Hub fans registry events out to all live subscribers. All subscriber-map
// access happens inside Run, so no lock is needed; producers only ever touch
// the channels.
type Hub struct {
	subscribers map[*Subscriber]bool

	register   chan *Subscriber
	unregister chan *Subscriber
	broadcast  chan WsEvent

	snapshot SnapshotFunc
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[*Subscriber]bool),
		register:    make(chan *Subscriber),
		unregister:  make(chan *Subscriber),
		broadcast:   make(chan WsEvent, 256),
	}
}

// SetSnapshot installs the snapshot provider. Must be called before Run.
func (h *Hub) SetSnapshot(fn SnapshotFunc) {
	h.snapshot = fn
}

// Run is the hub's event loop; run it in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case sub := <-h.register:
			// Snapshot goes into the buffer before the subscriber joins
			// the broadcast set, so it always precedes live events.
			if h.snapshot != nil {
				for _, evt := range h.snapshot() {
					select {
					case sub.send <- evt:
					default:
					}
				}
			}
			h.subscribers[sub] = true

		case sub := <-h.unregister:
			if _, ok := h.subscribers[sub]; ok {
				delete(h.subscribers, sub)
				close(sub.send)
			}

		case event := <-h.broadcast:
			for sub := range h.subscribers {
				select {
				case sub.send <- event:
				default:
					// Buffer full: the subscriber is stuck, cut it loose.
					delete(h.subscribers, sub)
					close(sub.send)
				}
			}
		}
	}
}

// Register creates a new subscriber and hands it to the event loop.
func (h *Hub) Register() *Subscriber {
	sub := &Subscriber{
		ID:   uuid.NewString(),
		send: make(chan WsEvent, 256),
	}
	h.register <- sub
	return sub
}

// Unregister removes a subscriber; safe to call after the hub already
// dropped it.
func (h *Hub) Unregister(sub *Subscriber) {
	h.unregister <- sub
}

// Publish queues one event for delivery to every subscriber.
func (h *Hub) Publish(event WsEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	h.broadcast <- event
}

// Emit publishes a registry-level event under all of its addresses: the bare
// kind, kind:tenant:label, and (when chatID is set) kind:tenant:label:chatId.
func (h *Hub) Emit(kind, tenantID, label, chatID string, data interface{}) {
	now := time.Now().UTC()
	h.Publish(WsEvent{Event: kind, Timestamp: now, Data: data})
	h.Publish(WsEvent{Event: ScopedEvent(kind, tenantID, label), Timestamp: now, Data: data})
	if chatID != "" {
		h.Publish(WsEvent{Event: ChatScopedEvent(kind, tenantID, label, chatID), Timestamp: now, Data: data})
	}
}

// Client bridges one Gorilla WebSocket connection to a hub subscriber.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	sub  *Subscriber
}

func NewClient(hub *Hub, conn *websocket.Conn, sub *Subscriber) *Client {
	return &Client{hub: hub, conn: conn, sub: sub}
}

// WritePump drains the subscriber channel into the websocket connection.
// Run as a goroutine from the /ws handler.
func (c *Client) WritePump() {
	defer func() {
		c.hub.Unregister(c.sub)
		_ = c.conn.Close()
	}()

	for event := range c.sub.send {
		payload, err := json.Marshal(event)
		if err != nil {
			log.Printf("ws: failed to marshal event: %v", err)
			continue
		}

		_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))

		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("ws: failed to write message: %v", err)
			return
		}
	}
}

// ReadPump consumes (and discards) client frames so pings and close frames
// are processed, and unregisters on disconnect.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c.sub)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)

	_ = c.conn.SetReadDeadline(time.Now().Add(15 * time.Minute))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(15 * time.Minute))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}
