// Package realtime fans broadcast events out to room subscribers over SSE.
package realtime

// Event names carried on the realtime channel. These are part of the client
// contract and must not change.
const (
	// EventProgressStart announces that an iteration run began for a board.
	EventProgressStart = "addImgGenProgress"

	// EventProgressUpdate carries the cumulative progress counter.
	EventProgressUpdate = "updateImgGenProgress"

	// EventBoardIterations announces a newly created iteration record.
	EventBoardIterations = "updateBoardIterations"

	// EventIterationImage announces one completed generated image.
	EventIterationImage = "iterationImageUpdate"

	// EventKeywordSuggestions carries coalesced keyword recommendations.
	EventKeywordSuggestions = "updateKeywordSuggestions"
)

// Event is one broadcast frame delivered to every subscriber of a room.
type Event struct {
	Name    string `json:"event"`
	Payload any    `json:"payload"`
}
