package board

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/easel/internal/fusion"
)

func newTestBoard(id string) Board {
	box := fusion.Box{0.1, 0.1, 0.4, 0.4}
	return Board{
		ID:     id,
		RoomID: "room-1",
		Prompt: "a quiet harbor at dawn",
		Keywords: []Keyword{
			{Category: CategorySubjectMatter, Term: "lighthouse", Votes: 3},
			{Category: CategoryThemeMood, Term: "calm", Votes: 1},
			{Category: CategoryArrangement, Term: "lighthouse", Votes: 2, Box: &box},
		},
		CreatedAt: time.Now(),
	}
}

func TestMemStore_CreateAndGet(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	b := newTestBoard("b1")
	require.NoError(t, s.CreateBoard(ctx, b))

	got, err := s.GetBoard(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, b.Prompt, got.Prompt)
	assert.Len(t, got.Keywords, 3)

	// Duplicate IDs are rejected.
	assert.Error(t, s.CreateBoard(ctx, b))
}

func TestMemStore_GetBoard_NotFound(t *testing.T) {
	s := NewMemStore()
	_, err := s.GetBoard(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemStore_CopiesAreIsolated(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	require.NoError(t, s.CreateBoard(ctx, newTestBoard("b1")))

	got, err := s.GetBoard(ctx, "b1")
	require.NoError(t, err)
	got.Keywords[0].Votes = 999
	(*got.Keywords[2].Box)[0] = 0.9

	fresh, err := s.GetBoard(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, 3, fresh.Keywords[0].Votes)
	assert.Equal(t, 0.1, (*fresh.Keywords[2].Box)[0])
}

func TestMemStore_ListBoards_CreationOrder(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	require.NoError(t, s.CreateBoard(ctx, newTestBoard("b1")))
	require.NoError(t, s.CreateBoard(ctx, newTestBoard("b2")))

	boards, err := s.ListBoards(ctx)
	require.NoError(t, err)
	require.Len(t, boards, 2)
	assert.Equal(t, "b1", boards[0].ID)
	assert.Equal(t, "b2", boards[1].ID)
}

func TestMemStore_UpsertKeyword(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	require.NoError(t, s.CreateBoard(ctx, newTestBoard("b1")))

	// Replace an existing keyword.
	require.NoError(t, s.UpsertKeyword(ctx, "b1", Keyword{
		Category: CategorySubjectMatter, Term: "lighthouse", Votes: 10,
	}))
	// Add a new one.
	require.NoError(t, s.UpsertKeyword(ctx, "b1", Keyword{
		Category: CategoryActionPose, Term: "waving", Votes: 1,
	}))

	got, err := s.GetBoard(ctx, "b1")
	require.NoError(t, err)
	assert.Len(t, got.Keywords, 4)
	assert.Equal(t, 10, got.Keywords[0].Votes)
}

func TestMemStore_VoteKeyword(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	require.NoError(t, s.CreateBoard(ctx, newTestBoard("b1")))

	require.NoError(t, s.VoteKeyword(ctx, "b1", CategoryThemeMood, "calm", 2))
	require.NoError(t, s.VoteKeyword(ctx, "b1", CategoryThemeMood, "calm", -1))

	got, err := s.GetBoard(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Keywords[1].Votes)

	err = s.VoteKeyword(ctx, "b1", CategoryCustom, "nope", 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemStore_AppendIterationResult(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	require.NoError(t, s.CreateBoard(ctx, newTestBoard("b1")))
	require.NoError(t, s.AddIteration(ctx, "b1", Iteration{ID: "it1", CreatedAt: time.Now()}))

	require.NoError(t, s.AppendIterationResult(ctx, "b1", "it1", "https://img/1.png", "p1"))
	require.NoError(t, s.AppendIterationResult(ctx, "b1", "it1", "https://img/2.png", "p2"))

	got, err := s.GetBoard(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, got.Iterations, 1)
	assert.Equal(t, []string{"https://img/1.png", "https://img/2.png"}, got.Iterations[0].GeneratedImages)
	assert.Equal(t, []string{"p1", "p2"}, got.Iterations[0].Prompts)

	err = s.AppendIterationResult(ctx, "b1", "missing", "u", "p")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemStore_ConcurrentAppends(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	require.NoError(t, s.CreateBoard(ctx, newTestBoard("b1")))
	require.NoError(t, s.AddIteration(ctx, "b1", Iteration{ID: "it1", CreatedAt: time.Now()}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.AppendIterationResult(ctx, "b1", "it1", "url", "prompt")
		}()
	}
	wg.Wait()

	got, err := s.GetBoard(ctx, "b1")
	require.NoError(t, err)
	assert.Len(t, got.Iterations[0].GeneratedImages, 20)
	assert.Len(t, got.Iterations[0].Prompts, 20)
}

func TestVoteSnapshot_Shape(t *testing.T) {
	b := newTestBoard("b1")
	snap := VoteSnapshot(&b)

	subject, ok := snap[string(CategorySubjectMatter)].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 3, subject["lighthouse"])

	arrangement, ok := snap[string(CategoryArrangement)].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 2, arrangement["lighthouse"])
}

func TestCategory_Valid(t *testing.T) {
	assert.True(t, CategorySubjectMatter.Valid())
	assert.True(t, CategoryCustom.Valid())
	assert.False(t, Category("colour").Valid())
}

func TestRegistry_Lifecycle(t *testing.T) {
	r := NewRegistry()

	r.Join("room-1", "alice")
	r.Join("room-1", "bob")
	r.Join("room-2", "carol")

	assert.ElementsMatch(t, []string{"alice", "bob"}, r.Members("room-1"))
	assert.True(t, r.Occupied("room-2"))

	r.Leave("room-1", "alice")
	r.Leave("room-1", "bob")
	assert.False(t, r.Occupied("room-1"))
	assert.Empty(t, r.Members("room-1"))

	// Leaving a room never joined is a no-op.
	r.Leave("room-9", "nobody")
}
