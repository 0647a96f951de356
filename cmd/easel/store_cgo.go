//go:build cgo

package main

import "github.com/dusk-indust/easel/internal/board"

// openStore selects the board storage backend. A path selects the embedded
// Kuzu graph database; an empty path keeps everything in memory.
func openStore(path string) (board.Store, error) {
	if path == "" {
		return board.NewMemStore(), nil
	}
	return board.NewKuzuFileStore(path)
}
