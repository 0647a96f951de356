package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/dusk-indust/easel/internal/board"
	"github.com/dusk-indust/easel/internal/fusion"
	"github.com/dusk-indust/easel/internal/orchestrator"
)

// Local collaborator implementations. These stand in for the external image
// and layout models so a bare binary is fully operational; deployments swap
// them for real backends at the orchestrator.Deps seam.

// placeholderGenerator returns deterministic placeholder image URLs derived
// from the prompt. No bytes are produced, so nothing hits the object store.
type placeholderGenerator struct{}

func (placeholderGenerator) Generate(_ context.Context, input orchestrator.GenerationInput) (orchestrator.GeneratedImage, error) {
	return orchestrator.GeneratedImage{
		URL: fmt.Sprintf("https://placehold.co/1024x1024?text=%s", uuid.NewString()[:8]),
	}, nil
}

// gridLayout places a caption's objects on a uniform grid across the canvas.
type gridLayout struct{}

func (gridLayout) Generate(_ context.Context, entry orchestrator.CaptionEntry) ([]orchestrator.PlacedObject, error) {
	n := len(entry.Objects)
	if n == 0 {
		return nil, nil
	}

	cols := 1
	for cols*cols < n {
		cols++
	}
	cell := 1.0 / float64(cols)

	out := make([]orchestrator.PlacedObject, n)
	for i, label := range entry.Objects {
		row := i / cols
		col := i % cols
		x := float64(col) * cell
		y := float64(row) * cell
		out[i] = orchestrator.PlacedObject{
			Label: label,
			Box:   fusion.Box{x, y, x + cell, y + cell},
		}
	}
	return out, nil
}

// orderedMatcher pairs objects with fused candidate boxes in rank order.
type orderedMatcher struct{}

func (orderedMatcher) Match(_ context.Context, entry orchestrator.CaptionEntry, candidates []fusion.Box) ([]orchestrator.PlacedObject, error) {
	out := make([]orchestrator.PlacedObject, 0, len(entry.Objects))
	for i, label := range entry.Objects {
		if i >= len(candidates) {
			break
		}
		out = append(out, orchestrator.PlacedObject{Label: label, Box: candidates[i]})
	}
	return out, nil
}

// fileObjectStore persists image bytes under a local directory and hands back
// file URLs.
type fileObjectStore struct {
	dir string
}

func newFileObjectStore(dir string) (*fileObjectStore, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "easel-objects")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create object dir: %w", err)
	}
	return &fileObjectStore{dir: dir}, nil
}

func (s *fileObjectStore) Put(_ context.Context, data []byte, contentType string) (string, error) {
	ext := ".bin"
	switch contentType {
	case "image/png":
		ext = ".png"
	case "image/jpeg":
		ext = ".jpg"
	case "image/webp":
		ext = ".webp"
	}

	path := filepath.Join(s.dir, uuid.NewString()+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write object: %w", err)
	}
	return "file://" + path, nil
}

// paletteSuggester recommends stock terms the board has not used yet, a few
// per category. It is deliberately dumb; a model-backed suggester plugs in at
// the recommend.Suggester seam.
type paletteSuggester struct{}

var palette = map[board.Category][]string{
	board.CategorySubjectMatter: {"forest", "river", "mountain"},
	board.CategoryActionPose:    {"running", "resting", "leaping"},
	board.CategoryThemeMood:     {"serene", "dramatic", "playful"},
}

func (paletteSuggester) Suggest(_ context.Context, b *board.Board) ([]board.Keyword, error) {
	used := make(map[string]bool, len(b.Keywords))
	for _, kw := range b.Keywords {
		used[string(kw.Category)+"/"+kw.Term] = true
	}

	var out []board.Keyword
	for _, cat := range []board.Category{board.CategorySubjectMatter, board.CategoryActionPose, board.CategoryThemeMood} {
		for _, term := range palette[cat] {
			if used[string(cat)+"/"+term] {
				continue
			}
			out = append(out, board.Keyword{Category: cat, Term: term})
			break
		}
	}
	return out, nil
}
