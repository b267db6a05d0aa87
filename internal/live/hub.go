package live

import (
	"sync"
	"time"
)

// Event is one message on a room's live feed
type Event struct {
	Type      string      `json:"type"`
	RoomCode  string      `json:"roomCode"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Buffer per subscriber. A watcher that falls this far behind loses events
// rather than blocking the publisher.
const subscriberBuffer = 16

// Hub fans live events out to per-room subscribers. Publishing never blocks:
// a full subscriber channel drops the event for that subscriber only.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[chan Event]struct{}
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[chan Event]struct{})}
}

// Subscribe registers a watcher on a room's feed. The returned cancel
// function must be called when the watcher disconnects.
func (h *Hub) Subscribe(roomCode string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	subs, ok := h.rooms[roomCode]
	if !ok {
		subs = make(map[chan Event]struct{})
		h.rooms[roomCode] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if subs, ok := h.rooms[roomCode]; ok {
			delete(subs, ch)
			if len(subs) == 0 {
				delete(h.rooms, roomCode)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber of the room
func (h *Hub) Publish(roomCode, eventType string, data interface{}) {
	event := Event{
		Type:      eventType,
		RoomCode:  roomCode,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.rooms[roomCode] {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribers reports how many watchers a room currently has
func (h *Hub) Subscribers(roomCode string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomCode])
}
