//go:build !cgo

package main

import (
	"log"

	"github.com/dusk-indust/easel/internal/board"
)

// openStore selects the board storage backend. Without cgo the Kuzu backend
// is unavailable, so a configured path falls back to in-memory storage.
func openStore(path string) (board.Store, error) {
	if path != "" {
		log.Printf("WARNING: built without cgo; ignoring store path %s and using in-memory storage", path)
	}
	return board.NewMemStore(), nil
}
