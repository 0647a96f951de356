// Package orchestrator turns a board's keyword and vote state into a new
// iteration of generated images.
//
// A run is a per-board state machine: acquire the single-flight guard, create
// the iteration record, compute layouts (fused arrangement boxes when the
// board has them, a layout collaborator otherwise), fan generation units out
// in parallel, persist each result with bounded retry, and report progress
// throughout. Generation units isolate their own failures: one bad image is
// logged and counted, never aborts siblings, and successfully persisted
// images survive later failures. The guard is released on every exit path.
//
// The package also houses the board-keyed concurrency primitives the cheaper
// recommendation pipeline shares: SingleFlightGuard and Coalescer.
package orchestrator
