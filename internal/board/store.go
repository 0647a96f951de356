package board

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a board or iteration does not exist.
var ErrNotFound = errors.New("not found")

// Store is the persistence surface the rest of the system depends on.
// Implementations must make AppendIterationResult an atomic append: two
// concurrent appends to the same iteration both survive, and a failed
// generation never writes anything.
type Store interface {
	// CreateBoard stores a new board. The board ID must be unique.
	CreateBoard(ctx context.Context, b Board) error

	// GetBoard returns a copy of the board, or ErrNotFound.
	GetBoard(ctx context.Context, id string) (*Board, error)

	// ListBoards returns all boards in creation order.
	ListBoards(ctx context.Context) ([]Board, error)

	// UpsertKeyword adds the keyword to the board or, if a keyword with the
	// same category and term exists, replaces it.
	UpsertKeyword(ctx context.Context, boardID string, kw Keyword) error

	// VoteKeyword adjusts the vote count of an existing keyword by delta.
	VoteKeyword(ctx context.Context, boardID string, category Category, term string, delta int) error

	// AddIteration appends a new iteration record to the board.
	AddIteration(ctx context.Context, boardID string, it Iteration) error

	// AppendIterationResult atomically appends one generated image URL and
	// its prompt to the iteration.
	AppendIterationResult(ctx context.Context, boardID, iterationID, imageURL, prompt string) error

	// Close releases any underlying resources.
	Close() error
}
