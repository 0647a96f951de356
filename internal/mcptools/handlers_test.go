package mcptools

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/easel/internal/board"
	"github.com/dusk-indust/easel/internal/fusion"
	"github.com/dusk-indust/easel/internal/orchestrator"
	"github.com/dusk-indust/easel/internal/retry"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type noopHub struct{}

func (noopHub) Emit(string, string, any) {}

type stubImages struct{}

func (stubImages) Generate(_ context.Context, _ orchestrator.GenerationInput) (orchestrator.GeneratedImage, error) {
	return orchestrator.GeneratedImage{URL: "https://img/1.png"}, nil
}

type stubLayouts struct{}

func (stubLayouts) Generate(_ context.Context, entry orchestrator.CaptionEntry) ([]orchestrator.PlacedObject, error) {
	out := make([]orchestrator.PlacedObject, len(entry.Objects))
	for i, label := range entry.Objects {
		out[i] = orchestrator.PlacedObject{Label: label, Box: fusion.Box{0, 0, 0.5, 0.5}}
	}
	return out, nil
}

type stubMatcher struct{}

func (stubMatcher) Match(_ context.Context, entry orchestrator.CaptionEntry, candidates []fusion.Box) ([]orchestrator.PlacedObject, error) {
	return nil, nil
}

type stubObjects struct{}

func (stubObjects) Put(context.Context, []byte, string) (string, error) {
	return "https://cdn/object", nil
}

func newTestService(t *testing.T) (*BoardService, board.Store) {
	t.Helper()
	store := board.NewMemStore()
	orch := orchestrator.New(orchestrator.Deps{
		Store:   store,
		Hub:     noopHub{},
		Images:  stubImages{},
		Layouts: stubLayouts{},
		Matcher: stubMatcher{},
		Objects: stubObjects{},
	}, orchestrator.Options{
		RetryPolicy:  retry.Policy{MaxAttempts: 2, Delay: time.Millisecond},
		ImagesPerRun: 2,
	})
	return NewBoardService(store, orch), store
}

func seedBoards(t *testing.T, store board.Store) {
	t.Helper()
	ctx := context.Background()
	boards := []board.Board{
		{
			ID: "b1", RoomID: "room-1", Prompt: "a fox in a meadow",
			Keywords: []board.Keyword{
				{Category: board.CategorySubjectMatter, Term: "fox", Votes: 3},
				{Category: board.CategoryThemeMood, Term: "serene", Votes: 1},
			},
			CreatedAt: time.Now(),
		},
		{ID: "b2", RoomID: "room-2", Prompt: "an owl", CreatedAt: time.Now()},
	}
	for _, b := range boards {
		require.NoError(t, store.CreateBoard(ctx, b))
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestListBoards(t *testing.T) {
	svc, store := newTestService(t)
	seedBoards(t, store)

	_, out, err := svc.ListBoards(context.Background(), nil, ListBoardsInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Total)
	assert.Equal(t, "b1", out.Boards[0].ID)
	assert.Equal(t, 2, out.Boards[0].Keywords)
}

func TestListBoards_RoomFilter(t *testing.T) {
	svc, store := newTestService(t)
	seedBoards(t, store)

	_, out, err := svc.ListBoards(context.Background(), nil, ListBoardsInput{Room: "room-2"})
	require.NoError(t, err)
	require.Equal(t, 1, out.Total)
	assert.Equal(t, "b2", out.Boards[0].ID)
}

func TestGetBoard(t *testing.T) {
	svc, store := newTestService(t)
	seedBoards(t, store)

	_, out, err := svc.GetBoard(context.Background(), nil, GetBoardInput{BoardID: "b1"})
	require.NoError(t, err)
	assert.Equal(t, "a fox in a meadow", out.Board.Prompt)
	assert.Len(t, out.Board.Keywords, 2)
}

func TestGetBoard_Missing(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.GetBoard(context.Background(), nil, GetBoardInput{BoardID: "ghost"})
	assert.ErrorIs(t, err, board.ErrNotFound)
}

func TestGetBoard_RequiresID(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.GetBoard(context.Background(), nil, GetBoardInput{})
	assert.Error(t, err)
}

func TestStartIteration(t *testing.T) {
	svc, store := newTestService(t)
	seedBoards(t, store)

	_, out, err := svc.StartIteration(context.Background(), nil, StartIterationInput{BoardID: "b1"})
	require.NoError(t, err)
	assert.True(t, out.Started)
	assert.NotEmpty(t, out.IterationID)
	assert.Equal(t, 2, out.Generated)
	assert.Equal(t, 0, out.Failed)

	got, err := store.GetBoard(context.Background(), "b1")
	require.NoError(t, err)
	require.Len(t, got.Iterations, 1)
	assert.Len(t, got.Iterations[0].GeneratedImages, 2)
}

func TestBoardStats(t *testing.T) {
	svc, store := newTestService(t)
	seedBoards(t, store)

	_, run, err := svc.StartIteration(context.Background(), nil, StartIterationInput{BoardID: "b1"})
	require.NoError(t, err)
	require.True(t, run.Started)

	_, out, err := svc.BoardStats(context.Background(), nil, BoardStatsInput{BoardID: "b1"})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Keywords)
	assert.Equal(t, 1, out.Iterations)
	assert.Equal(t, 2, out.Images)
	assert.Equal(t, "fox", out.TopKeyword)
	assert.Equal(t, 3, out.TopVotes)
}
