package board

import (
	"context"
	"fmt"
	"sync"
)

// Compile-time assertion: *MemStore satisfies Store.
var _ Store = (*MemStore)(nil)

// MemStore implements Store using Go maps. Thread-safe via sync.RWMutex.
// Reads hand out deep copies so callers can never mutate stored state.
type MemStore struct {
	mu       sync.RWMutex
	boards   map[string]*Board
	orderIDs []string // insertion-order board IDs
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{
		boards: make(map[string]*Board),
	}
}

// CreateBoard stores a new board keyed by its ID.
func (m *MemStore) CreateBoard(_ context.Context, b Board) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.boards[b.ID]; exists {
		return fmt.Errorf("board %q already exists", b.ID)
	}
	m.boards[b.ID] = deepCopyBoard(&b)
	m.orderIDs = append(m.orderIDs, b.ID)
	return nil
}

// GetBoard returns a deep copy of the board with the given ID.
func (m *MemStore) GetBoard(_ context.Context, id string) (*Board, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.boards[id]
	if !ok {
		return nil, fmt.Errorf("board %q: %w", id, ErrNotFound)
	}
	return deepCopyBoard(b), nil
}

// ListBoards returns deep copies of all boards in creation order.
func (m *MemStore) ListBoards(_ context.Context) ([]Board, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Board, 0, len(m.orderIDs))
	for _, id := range m.orderIDs {
		out = append(out, *deepCopyBoard(m.boards[id]))
	}
	return out, nil
}

// UpsertKeyword adds or replaces the keyword matching (category, term).
func (m *MemStore) UpsertKeyword(_ context.Context, boardID string, kw Keyword) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.boards[boardID]
	if !ok {
		return fmt.Errorf("board %q: %w", boardID, ErrNotFound)
	}
	for i, existing := range b.Keywords {
		if existing.Category == kw.Category && existing.Term == kw.Term {
			b.Keywords[i] = kw
			return nil
		}
	}
	b.Keywords = append(b.Keywords, kw)
	return nil
}

// VoteKeyword adjusts an existing keyword's vote count by delta.
func (m *MemStore) VoteKeyword(_ context.Context, boardID string, category Category, term string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.boards[boardID]
	if !ok {
		return fmt.Errorf("board %q: %w", boardID, ErrNotFound)
	}
	for i := range b.Keywords {
		if b.Keywords[i].Category == category && b.Keywords[i].Term == term {
			b.Keywords[i].Votes += delta
			return nil
		}
	}
	return fmt.Errorf("keyword %s/%s on board %q: %w", category, term, boardID, ErrNotFound)
}

// AddIteration appends a new iteration record to the board.
func (m *MemStore) AddIteration(_ context.Context, boardID string, it Iteration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.boards[boardID]
	if !ok {
		return fmt.Errorf("board %q: %w", boardID, ErrNotFound)
	}
	b.Iterations = append(b.Iterations, *deepCopyIteration(&it))
	return nil
}

// AppendIterationResult atomically appends one image URL and its prompt to
// the identified iteration.
func (m *MemStore) AppendIterationResult(_ context.Context, boardID, iterationID, imageURL, prompt string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.boards[boardID]
	if !ok {
		return fmt.Errorf("board %q: %w", boardID, ErrNotFound)
	}
	for i := range b.Iterations {
		if b.Iterations[i].ID == iterationID {
			b.Iterations[i].GeneratedImages = append(b.Iterations[i].GeneratedImages, imageURL)
			b.Iterations[i].Prompts = append(b.Iterations[i].Prompts, prompt)
			return nil
		}
	}
	return fmt.Errorf("iteration %q on board %q: %w", iterationID, boardID, ErrNotFound)
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error {
	return nil
}

// deepCopyBoard returns a Board that shares no mutable state with src.
func deepCopyBoard(src *Board) *Board {
	dst := *src

	if src.Keywords != nil {
		dst.Keywords = make([]Keyword, len(src.Keywords))
		for i, kw := range src.Keywords {
			dst.Keywords[i] = deepCopyKeyword(kw)
		}
	}
	if src.Iterations != nil {
		dst.Iterations = make([]Iteration, len(src.Iterations))
		for i := range src.Iterations {
			dst.Iterations[i] = *deepCopyIteration(&src.Iterations[i])
		}
	}
	return &dst
}

// deepCopyIteration returns an Iteration that shares no mutable state with src.
func deepCopyIteration(src *Iteration) *Iteration {
	dst := *src

	if src.Prompts != nil {
		dst.Prompts = make([]string, len(src.Prompts))
		copy(dst.Prompts, src.Prompts)
	}
	if src.GeneratedImages != nil {
		dst.GeneratedImages = make([]string, len(src.GeneratedImages))
		copy(dst.GeneratedImages, src.GeneratedImages)
	}
	if src.Keywords != nil {
		dst.Keywords = make([]Keyword, len(src.Keywords))
		for i, kw := range src.Keywords {
			dst.Keywords[i] = deepCopyKeyword(kw)
		}
	}
	return &dst
}

// deepCopyKeyword copies a keyword, including its arrangement box if set.
func deepCopyKeyword(src Keyword) Keyword {
	dst := src
	if src.Box != nil {
		box := *src.Box
		dst.Box = &box
	}
	return dst
}
