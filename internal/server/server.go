// Package server exposes the whiteboard over HTTP: board CRUD, keyword
// editing and voting, iteration kick-off, room presence, and the SSE event
// stream clients subscribe to.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dusk-indust/easel/internal/board"
	"github.com/dusk-indust/easel/internal/orchestrator"
	"github.com/dusk-indust/easel/internal/realtime"
	"github.com/dusk-indust/easel/internal/recommend"
)

// Server ties the HTTP surface to the board store, the realtime hub, the
// iteration orchestrator, and the recommendation pipeline.
type Server struct {
	store    board.Store
	hub      *realtime.Hub
	orch     *orchestrator.Orchestrator
	rec      *recommend.Recommender
	registry *board.Registry
	http     *http.Server
}

// New wires a Server from its collaborators. rec may be nil when the
// recommendation pipeline is disabled.
func New(store board.Store, hub *realtime.Hub, orch *orchestrator.Orchestrator, rec *recommend.Recommender, registry *board.Registry) *Server {
	return &Server{
		store:    store,
		hub:      hub,
		orch:     orch,
		rec:      rec,
		registry: registry,
	}
}

// Handler builds the route table. Exposed separately from Start so tests can
// drive the server through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /boards", s.handleCreateBoard)
	mux.HandleFunc("GET /boards", s.handleListBoards)
	mux.HandleFunc("GET /boards/{id}", s.handleGetBoard)
	mux.HandleFunc("POST /boards/{id}/keywords", s.handleUpsertKeyword)
	mux.HandleFunc("POST /boards/{id}/keywords/vote", s.handleVoteKeyword)
	mux.HandleFunc("POST /boards/{id}/iterations", s.handleStartIteration)
	mux.HandleFunc("POST /rooms/{room}/join", s.handleJoinRoom)
	mux.HandleFunc("POST /rooms/{room}/leave", s.handleLeaveRoom)
	mux.HandleFunc("GET /rooms/{room}/members", s.handleRoomMembers)
	mux.Handle("GET /rooms/{room}/events", realtime.SSEHandler(s.hub))

	return mux
}

// Start begins serving on addr. It returns immediately after starting the
// server in a background goroutine.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.http = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	go s.http.ListenAndServe()

	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// ---------------------------------------------------------------------------
// Boards
// ---------------------------------------------------------------------------

type createBoardRequest struct {
	RoomID string `json:"roomId"`
	Prompt string `json:"prompt"`
}

func (s *Server) handleCreateBoard(w http.ResponseWriter, r *http.Request) {
	var req createBoardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.RoomID == "" {
		writeError(w, http.StatusBadRequest, "roomId is required")
		return
	}

	b := board.Board{
		ID:        uuid.NewString(),
		RoomID:    req.RoomID,
		Prompt:    req.Prompt,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateBoard(r.Context(), b); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) handleListBoards(w http.ResponseWriter, r *http.Request) {
	boards, err := s.store.ListBoards(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if boards == nil {
		boards = []board.Board{}
	}
	writeJSON(w, http.StatusOK, boards)
}

func (s *Server) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	b, err := s.store.GetBoard(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// ---------------------------------------------------------------------------
// Keywords
// ---------------------------------------------------------------------------

func (s *Server) handleUpsertKeyword(w http.ResponseWriter, r *http.Request) {
	boardID := r.PathValue("id")

	var kw board.Keyword
	if err := json.NewDecoder(r.Body).Decode(&kw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if !kw.Category.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown category %q", kw.Category))
		return
	}
	if kw.Term == "" {
		writeError(w, http.StatusBadRequest, "term is required")
		return
	}

	if err := s.store.UpsertKeyword(r.Context(), boardID, kw); err != nil {
		writeStoreError(w, err)
		return
	}

	s.notifyBoardChanged(r.Context(), boardID)
	writeJSON(w, http.StatusOK, kw)
}

type voteRequest struct {
	Category board.Category `json:"category"`
	Term     string         `json:"term"`
	Delta    int            `json:"delta"`
}

func (s *Server) handleVoteKeyword(w http.ResponseWriter, r *http.Request) {
	boardID := r.PathValue("id")

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Delta == 0 {
		writeError(w, http.StatusBadRequest, "delta must be non-zero")
		return
	}

	if err := s.store.VoteKeyword(r.Context(), boardID, req.Category, req.Term, req.Delta); err != nil {
		writeStoreError(w, err)
		return
	}

	s.notifyBoardChanged(r.Context(), boardID)
	w.WriteHeader(http.StatusNoContent)
}

// notifyBoardChanged feeds the recommendation pipeline the board's fresh vote
// snapshot. Best-effort: a board that cannot be re-read just skips the notify.
func (s *Server) notifyBoardChanged(ctx context.Context, boardID string) {
	if s.rec == nil {
		return
	}
	b, err := s.store.GetBoard(ctx, boardID)
	if err != nil {
		log.Printf("WARNING: board %s changed but could not be re-read: %v", boardID, err)
		return
	}
	s.rec.BoardChanged(boardID, board.VoteSnapshot(b))
}

// ---------------------------------------------------------------------------
// Iterations
// ---------------------------------------------------------------------------

type iterationAccepted struct {
	BoardID string `json:"boardId"`
	Status  string `json:"status"`
}

// handleStartIteration kicks off a generation run and returns immediately.
// The run's outcome reaches clients over the room's event stream, so the
// response is 202 whether the run proceeds or is dropped because one is
// already in flight.
func (s *Server) handleStartIteration(w http.ResponseWriter, r *http.Request) {
	boardID := r.PathValue("id")

	go func() {
		if _, err := s.orch.Run(context.Background(), boardID); err != nil {
			log.Printf("WARNING: iteration run for board %s failed: %v", boardID, err)
		}
	}()

	writeJSON(w, http.StatusAccepted, iterationAccepted{
		BoardID: boardID,
		Status:  "accepted",
	})
}

// ---------------------------------------------------------------------------
// Rooms
// ---------------------------------------------------------------------------

type presenceRequest struct {
	ClientID string `json:"clientId"`
}

func (s *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("room")

	var req presenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.ClientID == "" {
		writeError(w, http.StatusBadRequest, "clientId is required")
		return
	}

	s.registry.Join(roomID, req.ClientID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLeaveRoom(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("room")

	var req presenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	s.registry.Leave(roomID, req.ClientID)
	w.WriteHeader(http.StatusNoContent)
}

type roomMembers struct {
	RoomID  string   `json:"roomId"`
	Members []string `json:"members"`
}

func (s *Server) handleRoomMembers(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("room")
	members := s.registry.Members(roomID)
	if members == nil {
		members = []string{}
	}
	writeJSON(w, http.StatusOK, roomMembers{RoomID: roomID, Members: members})
}

// ---------------------------------------------------------------------------
// Response helpers
// ---------------------------------------------------------------------------

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("WARNING: failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeStoreError maps store errors onto HTTP statuses.
func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, board.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
