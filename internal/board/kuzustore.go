//go:build cgo

package board

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	kuzu "github.com/kuzudb/go-kuzu"

	"github.com/dusk-indust/easel/internal/fusion"
)

// KuzuStore implements the Store interface using KuzuDB as the backend.
// It requires CGO because the go-kuzu driver wraps KuzuDB's C library.
type KuzuStore struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time check that KuzuStore satisfies Store.
var _ Store = (*KuzuStore)(nil)

// NewKuzuStore creates a KuzuStore backed by an in-memory KuzuDB instance.
func NewKuzuStore() (*KuzuStore, error) {
	return openKuzu(":memory:")
}

// NewKuzuFileStore creates a KuzuStore backed by a file-based KuzuDB at the
// given directory path, so boards survive process restarts. KuzuDB creates
// the leaf directory itself for new databases.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	return openKuzu(dbPath)
}

func openKuzu(path string) (*KuzuStore, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	s := &KuzuStore{db: db, conn: conn}
	if err := s.initSchema(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// ---------- Schema setup ----------

// ddlStatements defines the Cypher DDL executed at open time.
// Order matters: node tables must precede relationship tables.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS Board(
		id STRING,
		room_id STRING,
		prompt STRING,
		created_at INT64,
		PRIMARY KEY(id)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Iteration(
		id STRING,
		created_at INT64,
		PRIMARY KEY(id)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Keyword(
		id STRING,
		category STRING,
		term STRING,
		votes INT64,
		has_box BOOLEAN,
		x1 DOUBLE, y1 DOUBLE, x2 DOUBLE, y2 DOUBLE,
		PRIMARY KEY(id)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Image(
		id STRING,
		url STRING,
		prompt STRING,
		created_at INT64,
		PRIMARY KEY(id)
	)`,
	`CREATE REL TABLE IF NOT EXISTS HAS_ITERATION(FROM Board TO Iteration)`,
	`CREATE REL TABLE IF NOT EXISTS HAS_KEYWORD(FROM Board TO Keyword)`,
	`CREATE REL TABLE IF NOT EXISTS ITER_KEYWORD(FROM Iteration TO Keyword)`,
	`CREATE REL TABLE IF NOT EXISTS HAS_IMAGE(FROM Iteration TO Image)`,
}

func (s *KuzuStore) initSchema() error {
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// keywordID produces a deterministic identifier: "boardID:category:term".
func keywordID(boardID string, category Category, term string) string {
	return boardID + ":" + string(category) + ":" + term
}

// ---------- Store implementation ----------

// CreateBoard inserts a Board node plus its keywords and iterations.
func (s *KuzuStore) CreateBoard(ctx context.Context, b Board) error {
	existing, err := s.boardExists(b.ID)
	if err != nil {
		return err
	}
	if existing {
		return fmt.Errorf("board %q already exists", b.ID)
	}

	err = s.exec(
		"CREATE (b:Board {id: $id, room_id: $room, prompt: $prompt, created_at: $at})",
		map[string]any{
			"id":     b.ID,
			"room":   b.RoomID,
			"prompt": b.Prompt,
			"at":     b.CreatedAt.UnixNano(),
		},
	)
	if err != nil {
		return err
	}

	for _, kw := range b.Keywords {
		if err := s.UpsertKeyword(ctx, b.ID, kw); err != nil {
			return err
		}
	}
	for _, it := range b.Iterations {
		if err := s.AddIteration(ctx, b.ID, it); err != nil {
			return err
		}
	}
	return nil
}

// GetBoard reconstructs a board from its node plus attached keywords,
// iterations, and images.
func (s *KuzuStore) GetBoard(_ context.Context, id string) (*Board, error) {
	rows, err := s.query(
		"MATCH (b:Board {id: $id}) RETURN b.id, b.room_id, b.prompt, b.created_at",
		map[string]any{"id": id},
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("board %q: %w", id, ErrNotFound)
	}

	r := rows[0]
	b := &Board{
		ID:        toString(r[0]),
		RoomID:    toString(r[1]),
		Prompt:    toString(r[2]),
		CreatedAt: time.Unix(0, toInt64(r[3])),
	}

	if b.Keywords, err = s.boardKeywords(id); err != nil {
		return nil, err
	}
	if b.Iterations, err = s.boardIterations(id); err != nil {
		return nil, err
	}
	return b, nil
}

// ListBoards returns all boards in creation order.
func (s *KuzuStore) ListBoards(ctx context.Context) ([]Board, error) {
	rows, err := s.query(
		"MATCH (b:Board) RETURN b.id ORDER BY b.created_at, b.id", nil,
	)
	if err != nil {
		return nil, err
	}
	out := make([]Board, 0, len(rows))
	for _, r := range rows {
		b, err := s.GetBoard(ctx, toString(r[0]))
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, nil
}

// UpsertKeyword creates or replaces the (category, term) keyword node.
func (s *KuzuStore) UpsertKeyword(_ context.Context, boardID string, kw Keyword) error {
	exists, err := s.boardExists(boardID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("board %q: %w", boardID, ErrNotFound)
	}

	kid := keywordID(boardID, kw.Category, kw.Term)
	params := keywordParams(kid, kw)

	rows, err := s.query(
		"MATCH (k:Keyword {id: $id}) RETURN k.id", map[string]any{"id": kid},
	)
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		return s.exec(
			`MATCH (k:Keyword {id: $id})
			 SET k.votes = $votes, k.has_box = $hasBox,
			     k.x1 = $x1, k.y1 = $y1, k.x2 = $x2, k.y2 = $y2`,
			params,
		)
	}

	if err := s.exec(
		`CREATE (k:Keyword {
			id: $id, category: $category, term: $term, votes: $votes,
			has_box: $hasBox, x1: $x1, y1: $y1, x2: $x2, y2: $y2
		})`,
		params,
	); err != nil {
		return err
	}
	return s.exec(
		`MATCH (b:Board {id: $bid}), (k:Keyword {id: $kid})
		 CREATE (b)-[:HAS_KEYWORD]->(k)`,
		map[string]any{"bid": boardID, "kid": kid},
	)
}

// VoteKeyword adjusts the vote count of an existing keyword by delta.
func (s *KuzuStore) VoteKeyword(_ context.Context, boardID string, category Category, term string, delta int) error {
	kid := keywordID(boardID, category, term)
	rows, err := s.query(
		"MATCH (k:Keyword {id: $id}) RETURN k.votes", map[string]any{"id": kid},
	)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("keyword %s/%s on board %q: %w", category, term, boardID, ErrNotFound)
	}
	return s.exec(
		"MATCH (k:Keyword {id: $id}) SET k.votes = $votes",
		map[string]any{"id": kid, "votes": toInt64(rows[0][0]) + int64(delta)},
	)
}

// AddIteration inserts an Iteration node linked to its board, snapshotting
// the keywords the round was generated from.
func (s *KuzuStore) AddIteration(ctx context.Context, boardID string, it Iteration) error {
	exists, err := s.boardExists(boardID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("board %q: %w", boardID, ErrNotFound)
	}

	if err := s.exec(
		"CREATE (i:Iteration {id: $id, created_at: $at})",
		map[string]any{"id": it.ID, "at": it.CreatedAt.UnixNano()},
	); err != nil {
		return err
	}
	if err := s.exec(
		`MATCH (b:Board {id: $bid}), (i:Iteration {id: $iid})
		 CREATE (b)-[:HAS_ITERATION]->(i)`,
		map[string]any{"bid": boardID, "iid": it.ID},
	); err != nil {
		return err
	}

	for _, kw := range it.Keywords {
		kid := keywordID(boardID, kw.Category, kw.Term)
		if err := s.UpsertKeyword(ctx, boardID, kw); err != nil {
			return err
		}
		if err := s.exec(
			`MATCH (i:Iteration {id: $iid}), (k:Keyword {id: $kid})
			 CREATE (i)-[:ITER_KEYWORD]->(k)`,
			map[string]any{"iid": it.ID, "kid": kid},
		); err != nil {
			return err
		}
	}

	for idx := range it.GeneratedImages {
		prompt := ""
		if idx < len(it.Prompts) {
			prompt = it.Prompts[idx]
		}
		if err := s.appendImage(it.ID, it.GeneratedImages[idx], prompt); err != nil {
			return err
		}
	}
	return nil
}

// AppendIterationResult atomically appends one image and its prompt.
func (s *KuzuStore) AppendIterationResult(_ context.Context, boardID, iterationID, imageURL, prompt string) error {
	rows, err := s.query(
		`MATCH (b:Board {id: $bid})-[:HAS_ITERATION]->(i:Iteration {id: $iid})
		 RETURN i.id`,
		map[string]any{"bid": boardID, "iid": iterationID},
	)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("iteration %q on board %q: %w", iterationID, boardID, ErrNotFound)
	}
	return s.appendImage(iterationID, imageURL, prompt)
}

func (s *KuzuStore) appendImage(iterationID, url, prompt string) error {
	imgID := uuid.NewString()
	if err := s.exec(
		"CREATE (m:Image {id: $id, url: $url, prompt: $prompt, created_at: $at})",
		map[string]any{
			"id":     imgID,
			"url":    url,
			"prompt": prompt,
			"at":     time.Now().UnixNano(),
		},
	); err != nil {
		return err
	}
	return s.exec(
		`MATCH (i:Iteration {id: $iid}), (m:Image {id: $mid})
		 CREATE (i)-[:HAS_IMAGE]->(m)`,
		map[string]any{"iid": iterationID, "mid": imgID},
	)
}

// ---------- Read helpers ----------

func (s *KuzuStore) boardExists(id string) (bool, error) {
	rows, err := s.query(
		"MATCH (b:Board {id: $id}) RETURN b.id", map[string]any{"id": id},
	)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

func (s *KuzuStore) boardKeywords(boardID string) ([]Keyword, error) {
	rows, err := s.query(
		`MATCH (b:Board {id: $id})-[:HAS_KEYWORD]->(k:Keyword)
		 RETURN k.category, k.term, k.votes, k.has_box, k.x1, k.y1, k.x2, k.y2
		 ORDER BY k.id`,
		map[string]any{"id": boardID},
	)
	if err != nil {
		return nil, err
	}
	out := make([]Keyword, 0, len(rows))
	for _, r := range rows {
		kw := Keyword{
			Category: Category(toString(r[0])),
			Term:     toString(r[1]),
			Votes:    int(toInt64(r[2])),
		}
		if toBool(r[3]) {
			kw.Box = &fusion.Box{toFloat64(r[4]), toFloat64(r[5]), toFloat64(r[6]), toFloat64(r[7])}
		}
		out = append(out, kw)
	}
	return out, nil
}

func (s *KuzuStore) boardIterations(boardID string) ([]Iteration, error) {
	rows, err := s.query(
		`MATCH (b:Board {id: $id})-[:HAS_ITERATION]->(i:Iteration)
		 RETURN i.id, i.created_at ORDER BY i.created_at, i.id`,
		map[string]any{"id": boardID},
	)
	if err != nil {
		return nil, err
	}

	out := make([]Iteration, 0, len(rows))
	for _, r := range rows {
		it := Iteration{
			ID:        toString(r[0]),
			CreatedAt: time.Unix(0, toInt64(r[1])),
		}

		imgRows, err := s.query(
			`MATCH (i:Iteration {id: $id})-[:HAS_IMAGE]->(m:Image)
			 RETURN m.url, m.prompt ORDER BY m.created_at, m.id`,
			map[string]any{"id": it.ID},
		)
		if err != nil {
			return nil, err
		}
		for _, ir := range imgRows {
			it.GeneratedImages = append(it.GeneratedImages, toString(ir[0]))
			it.Prompts = append(it.Prompts, toString(ir[1]))
		}

		kwRows, err := s.query(
			`MATCH (i:Iteration {id: $id})-[:ITER_KEYWORD]->(k:Keyword)
			 RETURN k.category, k.term, k.votes, k.has_box, k.x1, k.y1, k.x2, k.y2
			 ORDER BY k.id`,
			map[string]any{"id": it.ID},
		)
		if err != nil {
			return nil, err
		}
		for _, kr := range kwRows {
			kw := Keyword{
				Category: Category(toString(kr[0])),
				Term:     toString(kr[1]),
				Votes:    int(toInt64(kr[2])),
			}
			if toBool(kr[3]) {
				kw.Box = &fusion.Box{toFloat64(kr[4]), toFloat64(kr[5]), toFloat64(kr[6]), toFloat64(kr[7])}
			}
			it.Keywords = append(it.Keywords, kw)
		}

		out = append(out, it)
	}
	return out, nil
}

// keywordParams flattens a keyword into Cypher parameters. Boxless keywords
// store zeroed coordinates with has_box = false.
func keywordParams(id string, kw Keyword) map[string]any {
	params := map[string]any{
		"id":       id,
		"category": string(kw.Category),
		"term":     kw.Term,
		"votes":    int64(kw.Votes),
		"hasBox":   kw.Box != nil,
		"x1":       0.0, "y1": 0.0, "x2": 0.0, "y2": 0.0,
	}
	if kw.Box != nil {
		params["x1"] = kw.Box[0]
		params["y1"] = kw.Box[1]
		params["x2"] = kw.Box[2]
		params["y2"] = kw.Box[3]
	}
	return params
}

// ---------- Internal helpers ----------

// exec runs a parameterized Cypher statement that produces no result rows.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a parameterized Cypher statement and collects all result rows.
// Each row is a []any slice with values in column order.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

// ---------- Type coercion helpers ----------
// KuzuDB returns typed Go values (int64, float64, bool, string).
// These helpers safely coerce any -> concrete type.

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func toBool(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return false
}
