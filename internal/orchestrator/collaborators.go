package orchestrator

import (
	"context"

	"github.com/dusk-indust/easel/internal/fusion"
)

// The collaborators below are opaque external services (captioning, layout
// and image models, object storage). The orchestrator depends only on these
// narrow contracts; what they send over the wire is their business.

// CaptionEntry is one captioned object group prepared for layout and
// generation. Objects lists the labels the caption mentions, which sizes the
// fused-box request for that caption.
type CaptionEntry struct {
	Caption string
	Objects []string
}

// PlacedObject assigns one labeled object to a bounding box.
type PlacedObject struct {
	Label string     `json:"label"`
	Box   fusion.Box `json:"box"`
}

// GenerationInput is everything one generation unit needs to produce an image.
type GenerationInput struct {
	Prompt string
	Layout []PlacedObject
}

// GeneratedImage is the product of one generation call. When Data is
// non-empty the orchestrator uploads it to object storage and uses the
// resulting URL; otherwise URL is used directly.
type GeneratedImage struct {
	URL         string
	Data        []byte
	ContentType string
}

// ImageGenerator produces an image for a prompt and layout.
type ImageGenerator interface {
	Generate(ctx context.Context, input GenerationInput) (GeneratedImage, error)
}

// LayoutGenerator invents a layout for a caption from scratch. Used when the
// board has no arrangement data to reuse.
type LayoutGenerator interface {
	Generate(ctx context.Context, entry CaptionEntry) ([]PlacedObject, error)
}

// LayoutMatcher assigns a caption's objects to candidate boxes that came out
// of arrangement fusion.
type LayoutMatcher interface {
	Match(ctx context.Context, entry CaptionEntry, candidates []fusion.Box) ([]PlacedObject, error)
}

// ObjectStore uploads image bytes and returns a durable URL.
type ObjectStore interface {
	Put(ctx context.Context, data []byte, contentType string) (string, error)
}

// Broadcaster delivers fire-and-forget events to a room. Satisfied by
// *realtime.Hub.
type Broadcaster interface {
	Emit(roomID, event string, payload any)
}
