// Package recommend watches board activity and pushes keyword suggestions to
// the board's room. Suggestion work is expensive, so bursts of board edits are
// coalesced into a single suggester call per quiet window, and windows only
// open when the board's vote distribution meaningfully changed.
package recommend

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/dusk-indust/easel/internal/board"
	"github.com/dusk-indust/easel/internal/orchestrator"
	"github.com/dusk-indust/easel/internal/realtime"
)

// DefaultDelay is the quiet window between the first board change and the
// suggester call it schedules.
const DefaultDelay = 3 * time.Second

// keySuffix namespaces coalescer keys so the shared debounce map can carry
// other per-board work later without colliding.
const keySuffix = "/keyword-suggestions"

// Suggester produces keyword suggestions for a board's current state.
type Suggester interface {
	Suggest(ctx context.Context, b *board.Board) ([]board.Keyword, error)
}

// SuggestionsPayload is the wire payload of an updateKeywordSuggestions event.
type SuggestionsPayload struct {
	BoardID  string          `json:"boardId"`
	Keywords []board.Keyword `json:"keywords"`
}

// Recommender debounces board-change notifications and broadcasts fresh
// suggestions when a window closes. Suggestion failures are logged, never
// surfaced: the board works fine without recommendations.
type Recommender struct {
	store     board.Store
	hub       orchestrator.Broadcaster
	suggester Suggester
	coalescer *orchestrator.Coalescer
	delay     time.Duration

	mu            sync.Mutex
	lastSnapshots map[string]map[string]any
}

// New wires a Recommender. A non-positive delay selects DefaultDelay.
func New(store board.Store, hub orchestrator.Broadcaster, suggester Suggester, delay time.Duration) *Recommender {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Recommender{
		store:         store,
		hub:           hub,
		suggester:     suggester,
		coalescer:     orchestrator.NewCoalescer(),
		delay:         delay,
		lastSnapshots: make(map[string]map[string]any),
	}
}

// BoardChanged notifies the recommender that boardID's state is now described
// by snapshot. Cosmetic changes (same categories, same terms, same votes) are
// dropped; meaningful ones arm or feed the board's debounce window.
func (r *Recommender) BoardChanged(boardID string, snapshot map[string]any) {
	r.mu.Lock()
	prev, seen := r.lastSnapshots[boardID]
	if seen && !orchestrator.MeaningfullyChanged(prev, snapshot) {
		r.mu.Unlock()
		return
	}
	r.lastSnapshots[boardID] = snapshot
	r.mu.Unlock()

	r.coalescer.Schedule(boardID+keySuffix, snapshot, r.run, r.delay)
}

// run executes one suggestion pass for the board encoded in key. The board is
// re-read at execution time so the suggester sees the state at the end of the
// burst, not its beginning.
func (r *Recommender) run(key string) {
	boardID := strings.TrimSuffix(key, keySuffix)
	ctx := context.Background()

	b, err := r.store.GetBoard(ctx, boardID)
	if err != nil {
		log.Printf("WARNING: suggestion pass for board %s skipped: %v", boardID, err)
		return
	}

	keywords, err := r.suggester.Suggest(ctx, b)
	if err != nil {
		log.Printf("WARNING: suggester failed for board %s: %v", boardID, err)
		return
	}

	r.hub.Emit(b.RoomID, realtime.EventKeywordSuggestions, SuggestionsPayload{
		BoardID:  boardID,
		Keywords: keywords,
	})
}
