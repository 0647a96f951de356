package board

import "sync"

// Registry tracks which clients are present in which rooms. It replaces
// ambient process-wide maps with an owned object created at process start and
// mutated only on connect/disconnect.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[string]bool // roomID -> set of client IDs
}

// NewRegistry returns an empty room registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]map[string]bool),
	}
}

// Join records clientID as present in roomID.
func (r *Registry) Join(roomID, clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[string]bool)
		r.rooms[roomID] = members
	}
	members[clientID] = true
}

// Leave removes clientID from roomID. Empty rooms are dropped.
func (r *Registry) Leave(roomID, clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[roomID]
	if !ok {
		return
	}
	delete(members, clientID)
	if len(members) == 0 {
		delete(r.rooms, roomID)
	}
}

// Members returns the client IDs currently present in roomID.
func (r *Registry) Members(roomID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.rooms[roomID]))
	for id := range r.rooms[roomID] {
		out = append(out, id)
	}
	return out
}

// Occupied reports whether any client is present in roomID.
func (r *Registry) Occupied(roomID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomID]) > 0
}
