package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// Event is a message broadcast to connected admin consoles.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub maintains the set of connected admin consoles and broadcasts
// order events to them. There is a single room: every authenticated
// console sees every order.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan Event

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, 256),
	}
}

// Run starts the hub's main loop. Call as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			message, err := json.Marshal(event)
			if err != nil {
				log.Printf("ERROR: marshal ws event: %v", err)
				continue
			}

			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client's send buffer is full, close and drop it.
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues an event for all connected consoles. Non-blocking
// for the caller unless the hub's queue itself is full.
func (h *Hub) Broadcast(event Event) {
	select {
	case h.broadcast <- event:
	default:
		log.Printf("WARN: ws broadcast queue full, dropping %s event", event.Type)
	}
}

// BroadcastOrderCreated marshals v and broadcasts it as an
// order_created event. Marshal failures are logged, never propagated:
// the order is already persisted by the time this runs.
func (h *Hub) BroadcastOrderCreated(v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("ERROR: marshal order event payload: %v", err)
		return
	}
	h.Broadcast(Event{Type: "order_created", Payload: payload})
}
