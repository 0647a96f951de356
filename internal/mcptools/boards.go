package mcptools

import "github.com/dusk-indust/easel/internal/board"

// --- MCP Tool Input Types ---
// These structs define the JSON schema for each MCP tool's input.
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// ListBoardsInput is the input for the list_boards MCP tool.
type ListBoardsInput struct {
	Room string `json:"room,omitempty" jsonschema:"only return boards in this room"`
}

// BoardSummary is one row of a list_boards result.
type BoardSummary struct {
	ID         string `json:"id"`
	RoomID     string `json:"roomId"`
	Prompt     string `json:"prompt"`
	Keywords   int    `json:"keywords"`
	Iterations int    `json:"iterations"`
}

// ListBoardsOutput is the result of the list_boards MCP tool.
type ListBoardsOutput struct {
	Boards []BoardSummary `json:"boards"`
	Total  int            `json:"total"`
}

// GetBoardInput is the input for the get_board MCP tool.
type GetBoardInput struct {
	BoardID string `json:"boardId" jsonschema:"the board to fetch"`
}

// GetBoardOutput is the result of the get_board MCP tool.
type GetBoardOutput struct {
	Board board.Board `json:"board"`
}

// StartIterationInput is the input for the start_iteration MCP tool.
type StartIterationInput struct {
	BoardID string `json:"boardId" jsonschema:"the board to generate a new iteration for"`
}

// StartIterationOutput is the result of the start_iteration MCP tool.
// Started is false when a run for the board was already in flight.
type StartIterationOutput struct {
	Started     bool   `json:"started"`
	IterationID string `json:"iterationId,omitempty"`
	Generated   int    `json:"generated"`
	Failed      int    `json:"failed"`
}

// BoardStatsInput is the input for the board_stats MCP tool.
type BoardStatsInput struct {
	BoardID string `json:"boardId" jsonschema:"the board to summarize"`
}

// BoardStatsOutput is the result of the board_stats MCP tool.
type BoardStatsOutput struct {
	BoardID    string `json:"boardId"`
	Keywords   int    `json:"keywords"`
	Iterations int    `json:"iterations"`
	Images     int    `json:"images"`
	TopKeyword string `json:"topKeyword,omitempty"`
	TopVotes   int    `json:"topVotes,omitempty"`
}
