package orchestrator

import (
	"sync"

	"github.com/dusk-indust/easel/internal/realtime"
)

// ProgressPayload is the wire payload of an updateImgGenProgress event.
type ProgressPayload struct {
	BoardID  string `json:"boardId"`
	Progress int    `json:"progress"`
}

// ProgressTracker accumulates a cumulative progress total for one iteration
// run and broadcasts every increment to the board's room. The total is
// informational only: it is not clamped and completion is signaled by
// separate events, not by the counter reaching a ceiling.
//
// Add is safe to call from concurrent generation units; increments are
// serialized so none are lost.
type ProgressTracker struct {
	mu      sync.Mutex
	total   int
	hub     Broadcaster
	roomID  string
	boardID string
}

// NewProgressTracker creates a tracker bound to one run's board and room.
func NewProgressTracker(hub Broadcaster, roomID, boardID string) *ProgressTracker {
	return &ProgressTracker{
		hub:     hub,
		roomID:  roomID,
		boardID: boardID,
	}
}

// Add accumulates step into the running total and broadcasts the new total.
func (t *ProgressTracker) Add(step int) {
	t.mu.Lock()
	t.total += step
	total := t.total
	t.mu.Unlock()

	t.hub.Emit(t.roomID, realtime.EventProgressUpdate, ProgressPayload{
		BoardID:  t.boardID,
		Progress: total,
	})
}

// Total returns the current cumulative total.
func (t *ProgressTracker) Total() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}
