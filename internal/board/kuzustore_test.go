//go:build cgo

package board

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/easel/internal/fusion"
)

func newKuzuTestStore(t *testing.T) *KuzuStore {
	t.Helper()
	s, err := NewKuzuStore()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestKuzuStore_RoundTrip(t *testing.T) {
	s := newKuzuTestStore(t)
	ctx := context.Background()

	box := fusion.Box{0.2, 0.2, 0.6, 0.6}
	b := Board{
		ID:     "b1",
		RoomID: "room-1",
		Prompt: "a fox in a meadow",
		Keywords: []Keyword{
			{Category: CategorySubjectMatter, Term: "fox", Votes: 5},
			{Category: CategoryArrangement, Term: "fox", Votes: 2, Box: &box},
		},
		CreatedAt: time.Now(),
	}
	require.NoError(t, s.CreateBoard(ctx, b))

	got, err := s.GetBoard(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "room-1", got.RoomID)
	assert.Equal(t, "a fox in a meadow", got.Prompt)
	require.Len(t, got.Keywords, 2)

	var withBox *Keyword
	for i := range got.Keywords {
		if got.Keywords[i].Box != nil {
			withBox = &got.Keywords[i]
		}
	}
	require.NotNil(t, withBox)
	assert.InDelta(t, 0.2, (*withBox.Box)[0], 1e-9)
	assert.InDelta(t, 0.6, (*withBox.Box)[3], 1e-9)
}

func TestKuzuStore_NotFound(t *testing.T) {
	s := newKuzuTestStore(t)
	_, err := s.GetBoard(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKuzuStore_VoteAndUpsert(t *testing.T) {
	s := newKuzuTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateBoard(ctx, Board{ID: "b1", RoomID: "r", CreatedAt: time.Now()}))

	kw := Keyword{Category: CategoryThemeMood, Term: "serene", Votes: 1}
	require.NoError(t, s.UpsertKeyword(ctx, "b1", kw))
	require.NoError(t, s.VoteKeyword(ctx, "b1", CategoryThemeMood, "serene", 3))

	got, err := s.GetBoard(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, got.Keywords, 1)
	assert.Equal(t, 4, got.Keywords[0].Votes)

	// Upsert replaces in place rather than duplicating.
	kw.Votes = 9
	require.NoError(t, s.UpsertKeyword(ctx, "b1", kw))
	got, err = s.GetBoard(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, got.Keywords, 1)
	assert.Equal(t, 9, got.Keywords[0].Votes)
}

func TestKuzuStore_IterationAppend(t *testing.T) {
	s := newKuzuTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateBoard(ctx, Board{ID: "b1", RoomID: "r", CreatedAt: time.Now()}))

	it := Iteration{
		ID:        "it1",
		Keywords:  []Keyword{{Category: CategorySubjectMatter, Term: "fox", Votes: 2}},
		CreatedAt: time.Now(),
	}
	require.NoError(t, s.AddIteration(ctx, "b1", it))

	require.NoError(t, s.AppendIterationResult(ctx, "b1", "it1", "https://img/1.png", "p1"))
	require.NoError(t, s.AppendIterationResult(ctx, "b1", "it1", "https://img/2.png", "p2"))

	got, err := s.GetBoard(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, got.Iterations, 1)
	assert.Equal(t, []string{"https://img/1.png", "https://img/2.png"}, got.Iterations[0].GeneratedImages)
	assert.Equal(t, []string{"p1", "p2"}, got.Iterations[0].Prompts)
	require.Len(t, got.Iterations[0].Keywords, 1)
	assert.Equal(t, "fox", got.Iterations[0].Keywords[0].Term)

	err = s.AppendIterationResult(ctx, "b1", "nope", "u", "p")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKuzuStore_ListBoards(t *testing.T) {
	s := newKuzuTestStore(t)
	ctx := context.Background()

	base := time.Now()
	require.NoError(t, s.CreateBoard(ctx, Board{ID: "b1", RoomID: "r", CreatedAt: base}))
	require.NoError(t, s.CreateBoard(ctx, Board{ID: "b2", RoomID: "r", CreatedAt: base.Add(time.Second)}))

	boards, err := s.ListBoards(ctx)
	require.NoError(t, err)
	require.Len(t, boards, 2)
	assert.Equal(t, "b1", boards[0].ID)
	assert.Equal(t, "b2", boards[1].ID)
}
