package realtime

import "sync"

// subscriberBuffer is the per-subscriber channel depth. A subscriber that
// falls this far behind starts losing events rather than stalling emitters.
const subscriberBuffer = 64

// Hub routes events to room subscribers. Emit is fire-and-forget: it never
// blocks and never reports delivery. Two rooms never observe each other's
// events.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[chan Event]bool
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[chan Event]bool),
	}
}

// Subscribe registers a new subscriber for roomID. The returned cancel
// function removes the subscription and closes the channel; it is safe to
// call more than once.
func (h *Hub) Subscribe(roomID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	subs, ok := h.rooms[roomID]
	if !ok {
		subs = make(map[chan Event]bool)
		h.rooms[roomID] = subs
	}
	subs[ch] = true
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if subs, ok := h.rooms[roomID]; ok {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(h.rooms, roomID)
				}
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Emit delivers the event to every subscriber of roomID in a non-blocking
// fashion. Slow subscribers with full buffers are skipped.
func (h *Hub) Emit(roomID, name string, payload any) {
	ev := Event{Name: name, Payload: payload}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.rooms[roomID] {
		select {
		case ch <- ev:
		default:
			// Drop the event for this subscriber if its buffer is full.
		}
	}
}

// SubscriberCount returns the number of active subscribers in roomID.
func (h *Hub) SubscriberCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}
