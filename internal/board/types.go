// Package board holds the whiteboard data model and its storage backends.
package board

import (
	"time"

	"github.com/dusk-indust/easel/internal/fusion"
)

// Category classifies a keyword on the board.
type Category string

const (
	CategorySubjectMatter Category = "subject-matter"
	CategoryActionPose    Category = "action-pose"
	CategoryThemeMood     Category = "theme-mood"
	CategoryArrangement   Category = "arrangement"
	CategoryCustom        Category = "custom"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategorySubjectMatter, CategoryActionPose, CategoryThemeMood,
		CategoryArrangement, CategoryCustom:
		return true
	}
	return false
}

// Keyword is a voted term on a board. Arrangement keywords carry the box the
// term was placed at; all other categories leave Box nil.
type Keyword struct {
	Category Category    `json:"category"`
	Term     string      `json:"term"`
	Votes    int         `json:"votes"`
	Box      *fusion.Box `json:"box,omitempty"`
}

// Iteration is one generation round for a board. Prompts and GeneratedImages
// grow by atomic appends, one pair per successfully generated image, so a
// partially completed round keeps what it produced.
type Iteration struct {
	ID              string    `json:"id"`
	Prompts         []string  `json:"prompts"`
	GeneratedImages []string  `json:"generatedImages"`
	Keywords        []Keyword `json:"keywords"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Board is a whiteboard canvas inside a room.
type Board struct {
	ID         string      `json:"id"`
	RoomID     string      `json:"roomId"`
	Prompt     string      `json:"prompt"`
	Keywords   []Keyword   `json:"keywords"`
	Iterations []Iteration `json:"iterations"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// VoteSnapshot flattens the board's keyword votes into a two-level map
// keyed by category then term. It is the payload shape the recommendation
// pipeline diffs to decide whether the board meaningfully changed.
func VoteSnapshot(b *Board) map[string]any {
	snap := make(map[string]any)
	for _, kw := range b.Keywords {
		byTerm, ok := snap[string(kw.Category)].(map[string]any)
		if !ok {
			byTerm = make(map[string]any)
			snap[string(kw.Category)] = byTerm
		}
		byTerm[kw.Term] = kw.Votes
	}
	return snap
}
