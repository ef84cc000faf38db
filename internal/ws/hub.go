// Package ws pushes feed events (new posts, likes, comments, profile
// changes) to connected clients. Traffic is one-way: clients only send
// pings.
package ws

import (
	"log/slog"
)

// Event types dispatched to clients.
const (
	EventPostCreated   = "POST_CREATED"
	EventPostUpdated   = "POST_UPDATED"
	EventPostDeleted   = "POST_DELETED"
	EventPostLiked     = "POST_LIKED"
	EventPostCommented = "POST_COMMENTED"
	EventUserUpdated   = "USER_UPDATED"
)

// Event is the wire format for a dispatched feed event.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

const broadcastBufferSize = 256

type Hub struct {
	clients    map[*Client]struct{}
	broadcast  chan *Event
	register   chan *Client
	unregister chan *Client
	shutdown   chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan *Event, broadcastBufferSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		shutdown:   make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.CloseSend()
			}

		case event := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- event:
				default:
					// Slow consumer: drop the connection rather
					// than block the hub.
					slog.Warn("dropping slow websocket client", "user_id", client.userID)
					delete(h.clients, client)
					client.CloseSend()
				}
			}

		case <-h.shutdown:
			for client := range h.clients {
				delete(h.clients, client)
				client.CloseSend()
			}
			return
		}
	}
}

// add hands a client to the run loop. Returns false when the hub has
// shut down, so a late connect never blocks its handler goroutine.
func (h *Hub) add(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.shutdown:
		return false
	}
}

// remove is the counterpart for disconnects; a no-op after shutdown.
func (h *Hub) remove(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.shutdown:
	}
}

// Broadcast dispatches an event to every connected client. Never
// blocks the caller.
func (h *Hub) Broadcast(eventType string, data any) {
	select {
	case h.broadcast <- &Event{Type: eventType, Data: data}:
	default:
		slog.Warn("websocket broadcast buffer full, dropping event", "type", eventType)
	}
}

func (h *Hub) Shutdown() {
	close(h.shutdown)
}
