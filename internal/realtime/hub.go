// Package realtime pushes mutation events to connected clients over
// WebSocket so every device in a house stays in sync. Events are scoped
// to a house: clients join the room for the house they authenticated
// against and never see other houses' traffic.
package realtime

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Event is a sync notification for one entity mutation in a house.
type Event struct {
	Type   string `json:"type"`
	Entity string `json:"entity"`
	Action string `json:"action"`
	ID     int64  `json:"id,omitempty"`
}

// NewEvent creates an Event with the Type field derived from entity and action.
func NewEvent(entity, action string, id int64) Event {
	return Event{
		Type:   fmt.Sprintf("%s_%s", entity, action),
		Entity: entity,
		Action: action,
		ID:     id,
	}
}

// Hub maintains per-house rooms of active WebSocket clients.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[int64]map[*Client]struct{}
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		rooms:  make(map[int64]map[*Client]struct{}),
		logger: logger,
	}
}

// Register adds a client to its house's room.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	room, ok := h.rooms[c.houseID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[c.houseID] = room
	}
	room[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from its room and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if room, ok := h.rooms[c.houseID]; ok {
		if _, ok := room[c]; ok {
			delete(room, c)
			close(c.send)
		}
		if len(room) == 0 {
			delete(h.rooms, c.houseID)
		}
	}
	h.mu.Unlock()
}

// Broadcast sends an event to every client in the house's room.
func (h *Hub) Broadcast(houseID int64, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[houseID] {
		select {
		case c.send <- data:
		default:
			// Client buffer full, drop the message rather than block
		}
	}
}

// ClientCount returns the number of connected clients for a house.
func (h *Hub) ClientCount(houseID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[houseID])
}
