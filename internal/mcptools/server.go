// Package mcptools exposes the whiteboard to MCP clients: agents can inspect
// boards, kick off generation rounds, and pull aggregate stats over the same
// store and orchestrator the HTTP surface uses.
package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewBoardMCPServer creates an MCP server with all board tools registered.
func NewBoardMCPServer(svc *BoardService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "easel-boards",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_boards",
		Description: "List whiteboard boards with keyword and iteration counts. Optionally filter by room.",
	}, svc.ListBoards)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_board",
		Description: "Fetch a board's full record: prompt, keywords with votes and placements, and every generation iteration with its images.",
	}, svc.GetBoard)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "start_iteration",
		Description: "Run one image generation round for a board and wait for it to settle. Reports how many images were generated and how many units failed. If a round is already running for the board, the call is dropped and started=false is returned.",
	}, svc.StartIteration)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "board_stats",
		Description: "Aggregate counts for a board: keywords, iterations, total generated images, and the top-voted keyword.",
	}, svc.BoardStats)

	return server
}

// RunMCPServer starts an HTTP server exposing the board MCP tools.
func RunMCPServer(ctx context.Context, svc *BoardService, addr string) error {
	server := NewBoardMCPServer(svc)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
