package orchestrator

import "sync"

// SingleFlightGuard is a per-board latch: at most one iteration run may be in
// flight per board. A second start while the latch is held is rejected, not
// queued. Two boards never observe each other's latch.
type SingleFlightGuard struct {
	mu       sync.Mutex
	inFlight map[string]bool
}

// NewSingleFlightGuard returns an empty guard.
func NewSingleFlightGuard() *SingleFlightGuard {
	return &SingleFlightGuard{
		inFlight: make(map[string]bool),
	}
}

// TryAcquire attempts to latch boardID. It returns false if a run is already
// in flight for that board.
func (g *SingleFlightGuard) TryAcquire(boardID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.inFlight[boardID] {
		return false
	}
	g.inFlight[boardID] = true
	return true
}

// Release frees the latch for boardID. Releasing an unheld latch is a no-op.
func (g *SingleFlightGuard) Release(boardID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inFlight, boardID)
}

// InFlight reports whether a run currently holds the latch for boardID.
func (g *SingleFlightGuard) InFlight(boardID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inFlight[boardID]
}
