package recommend

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/easel/internal/board"
	"github.com/dusk-indust/easel/internal/realtime"
)

type stubSuggester struct {
	mu       sync.Mutex
	calls    int32
	err      error
	keywords []board.Keyword
}

func (s *stubSuggester) Suggest(_ context.Context, _ *board.Board) ([]board.Keyword, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return nil, s.err
	}
	return s.keywords, nil
}

type captureHub struct {
	mu     sync.Mutex
	events []capturedEvent
}

type capturedEvent struct {
	RoomID  string
	Name    string
	Payload any
}

func (h *captureHub) Emit(roomID, name string, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, capturedEvent{RoomID: roomID, Name: name, Payload: payload})
}

func (h *captureHub) snapshot() []capturedEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]capturedEvent(nil), h.events...)
}

func seedStore(t *testing.T) board.Store {
	t.Helper()
	store := board.NewMemStore()
	require.NoError(t, store.CreateBoard(context.Background(), board.Board{
		ID:     "b1",
		RoomID: "room-1",
		Prompt: "a fox in a meadow",
		Keywords: []board.Keyword{
			{Category: board.CategorySubjectMatter, Term: "fox", Votes: 2},
		},
		CreatedAt: time.Now(),
	}))
	return store
}

func TestRecommender_BurstCollapsesToOneSuggestion(t *testing.T) {
	store := seedStore(t)
	hub := &captureHub{}
	sug := &stubSuggester{keywords: []board.Keyword{
		{Category: board.CategoryThemeMood, Term: "autumnal"},
	}}
	r := New(store, hub, sug, 30*time.Millisecond)

	r.BoardChanged("b1", map[string]any{"subject-matter": map[string]any{"fox": 1}})
	r.BoardChanged("b1", map[string]any{"subject-matter": map[string]any{"fox": 2}})
	r.BoardChanged("b1", map[string]any{"subject-matter": map[string]any{"fox": 3}})

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&sug.calls) == 1
	}, time.Second, 10*time.Millisecond)

	events := hub.snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, "room-1", events[0].RoomID)
	assert.Equal(t, realtime.EventKeywordSuggestions, events[0].Name)

	payload := events[0].Payload.(SuggestionsPayload)
	assert.Equal(t, "b1", payload.BoardID)
	require.Len(t, payload.Keywords, 1)
	assert.Equal(t, "autumnal", payload.Keywords[0].Term)

	// No trailing second pass.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&sug.calls))
}

func TestRecommender_UnchangedSnapshotIsIgnored(t *testing.T) {
	store := seedStore(t)
	hub := &captureHub{}
	sug := &stubSuggester{}
	r := New(store, hub, sug, 20*time.Millisecond)

	same := map[string]any{"subject-matter": map[string]any{"fox": 2}}
	r.BoardChanged("b1", same)

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&sug.calls) == 1
	}, time.Second, 5*time.Millisecond)

	// Re-announcing the identical distribution must not open a new window.
	r.BoardChanged("b1", map[string]any{"subject-matter": map[string]any{"fox": 2}})
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&sug.calls))
}

func TestRecommender_MeaningfulChangeOpensNewWindow(t *testing.T) {
	store := seedStore(t)
	hub := &captureHub{}
	sug := &stubSuggester{}
	r := New(store, hub, sug, 15*time.Millisecond)

	r.BoardChanged("b1", map[string]any{"subject-matter": map[string]any{"fox": 2}})
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&sug.calls) == 1
	}, time.Second, 5*time.Millisecond)

	r.BoardChanged("b1", map[string]any{"subject-matter": map[string]any{"fox": 5}})
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&sug.calls) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestRecommender_SuggesterFailureIsSwallowed(t *testing.T) {
	store := seedStore(t)
	hub := &captureHub{}
	sug := &stubSuggester{err: errors.New("model unavailable")}
	r := New(store, hub, sug, 10*time.Millisecond)

	r.BoardChanged("b1", map[string]any{"prompt": "fox"})

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&sug.calls) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Empty(t, hub.snapshot())
}

func TestRecommender_UnknownBoardSkipsSilently(t *testing.T) {
	hub := &captureHub{}
	sug := &stubSuggester{}
	r := New(board.NewMemStore(), hub, sug, 10*time.Millisecond)

	r.BoardChanged("ghost", map[string]any{"prompt": "x"})

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&sug.calls))
	assert.Empty(t, hub.snapshot())
}

func TestRecommender_BoardsDebounceIndependently(t *testing.T) {
	store := seedStore(t)
	require.NoError(t, store.CreateBoard(context.Background(), board.Board{
		ID: "b2", RoomID: "room-2", Prompt: "an owl", CreatedAt: time.Now(),
	}))
	hub := &captureHub{}
	sug := &stubSuggester{}
	r := New(store, hub, sug, 15*time.Millisecond)

	r.BoardChanged("b1", map[string]any{"prompt": "fox"})
	r.BoardChanged("b2", map[string]any{"prompt": "owl"})

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&sug.calls) == 2
	}, time.Second, 5*time.Millisecond)

	rooms := map[string]bool{}
	for _, ev := range hub.snapshot() {
		rooms[ev.RoomID] = true
	}
	assert.True(t, rooms["room-1"])
	assert.True(t, rooms["room-2"])
}
