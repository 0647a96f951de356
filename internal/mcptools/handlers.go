package mcptools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/easel/internal/board"
	"github.com/dusk-indust/easel/internal/orchestrator"
)

// BoardService holds the store and orchestrator used by MCP tool handlers.
type BoardService struct {
	store board.Store
	orch  *orchestrator.Orchestrator
}

// NewBoardService creates a BoardService with the given store and orchestrator.
func NewBoardService(store board.Store, orch *orchestrator.Orchestrator) *BoardService {
	return &BoardService{store: store, orch: orch}
}

// ListBoards returns a summary row per board, optionally filtered by room.
func (s *BoardService) ListBoards(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListBoardsInput,
) (*mcp.CallToolResult, ListBoardsOutput, error) {
	boards, err := s.store.ListBoards(ctx)
	if err != nil {
		return nil, ListBoardsOutput{}, fmt.Errorf("list boards: %w", err)
	}

	out := ListBoardsOutput{Boards: []BoardSummary{}}
	for _, b := range boards {
		if input.Room != "" && b.RoomID != input.Room {
			continue
		}
		out.Boards = append(out.Boards, BoardSummary{
			ID:         b.ID,
			RoomID:     b.RoomID,
			Prompt:     b.Prompt,
			Keywords:   len(b.Keywords),
			Iterations: len(b.Iterations),
		})
	}
	out.Total = len(out.Boards)
	return nil, out, nil
}

// GetBoard returns the full board record.
func (s *BoardService) GetBoard(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetBoardInput,
) (*mcp.CallToolResult, GetBoardOutput, error) {
	if input.BoardID == "" {
		return nil, GetBoardOutput{}, fmt.Errorf("boardId is required")
	}

	b, err := s.store.GetBoard(ctx, input.BoardID)
	if err != nil {
		return nil, GetBoardOutput{}, fmt.Errorf("get board: %w", err)
	}
	return nil, GetBoardOutput{Board: *b}, nil
}

// StartIteration runs one generation round synchronously and reports how it
// went. A board with a run already in flight reports Started=false rather
// than an error.
func (s *BoardService) StartIteration(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input StartIterationInput,
) (*mcp.CallToolResult, StartIterationOutput, error) {
	if input.BoardID == "" {
		return nil, StartIterationOutput{}, fmt.Errorf("boardId is required")
	}

	summary, err := s.orch.Run(ctx, input.BoardID)
	if err != nil {
		return nil, StartIterationOutput{}, fmt.Errorf("run iteration: %w", err)
	}
	if summary == nil {
		return nil, StartIterationOutput{Started: false}, nil
	}

	return nil, StartIterationOutput{
		Started:     true,
		IterationID: summary.IterationID,
		Generated:   summary.Generated,
		Failed:      summary.Failed,
	}, nil
}

// BoardStats aggregates counts over a board's keywords and iterations.
func (s *BoardService) BoardStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input BoardStatsInput,
) (*mcp.CallToolResult, BoardStatsOutput, error) {
	if input.BoardID == "" {
		return nil, BoardStatsOutput{}, fmt.Errorf("boardId is required")
	}

	b, err := s.store.GetBoard(ctx, input.BoardID)
	if err != nil {
		return nil, BoardStatsOutput{}, fmt.Errorf("get board: %w", err)
	}

	out := BoardStatsOutput{
		BoardID:    b.ID,
		Keywords:   len(b.Keywords),
		Iterations: len(b.Iterations),
	}
	for _, it := range b.Iterations {
		out.Images += len(it.GeneratedImages)
	}
	for _, kw := range b.Keywords {
		if kw.Votes > out.TopVotes {
			out.TopVotes = kw.Votes
			out.TopKeyword = kw.Term
		}
	}
	return nil, out, nil
}
