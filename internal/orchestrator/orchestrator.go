package orchestrator

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/easel/internal/board"
	"github.com/dusk-indust/easel/internal/fusion"
	"github.com/dusk-indust/easel/internal/realtime"
	"github.com/dusk-indust/easel/internal/retry"
)

// defaultImagesPerRun is how many images one iteration produces unless
// configured otherwise.
const defaultImagesPerRun = 4

// defaultProgressStep is the fixed progress increment per settled generation
// unit, success or failure.
const defaultProgressStep = 25

// defaultRetryAttempts bounds the persistence retry of each generated image.
const defaultRetryAttempts = 3

// StartPayload is the wire payload of an addImgGenProgress event.
type StartPayload struct {
	BoardID string `json:"boardId"`
}

// IterationUpdate pairs a board ID with its freshly created iteration.
type IterationUpdate struct {
	ID        string          `json:"id"`
	Iteration board.Iteration `json:"iteration"`
}

// IterationAddedPayload is the wire payload of an updateBoardIterations event.
type IterationAddedPayload struct {
	Update IterationUpdate `json:"update"`
}

// ImagePayload is the wire payload of an iterationImageUpdate event.
type ImagePayload struct {
	BoardID     string `json:"boardId"`
	IterationID string `json:"iterationId"`
	ImageURL    string `json:"imageUrl"`
	Prompt      string `json:"prompt"`
}

// RunSummary reports how a completed run went. Whether the run "failed" is
// observational: callers infer it from Failed > 0 and from which image
// broadcasts never arrived; no status field is persisted.
type RunSummary struct {
	BoardID     string
	IterationID string
	Generated   int
	Failed      int
}

// Deps are the collaborators an Orchestrator drives.
type Deps struct {
	Store   board.Store
	Hub     Broadcaster
	Images  ImageGenerator
	Layouts LayoutGenerator
	Matcher LayoutMatcher
	Objects ObjectStore
}

// Options tune a run. Zero values select the defaults above.
type Options struct {
	Fuser        *fusion.Fuser
	RetryPolicy  retry.Policy
	ImagesPerRun int
	ProgressStep int
}

// Orchestrator runs the iteration state machine for boards. One instance
// serves all boards; per-board exclusion comes from the embedded guard.
type Orchestrator struct {
	deps         Deps
	guard        *SingleFlightGuard
	fuser        *fusion.Fuser
	policy       retry.Policy
	imagesPerRun int
	progressStep int
}

// New wires an Orchestrator from its collaborators.
func New(deps Deps, opts Options) *Orchestrator {
	if opts.Fuser == nil {
		opts.Fuser = fusion.NewFuser(fusion.DefaultIoUThreshold)
	}
	if opts.RetryPolicy.MaxAttempts == 0 {
		opts.RetryPolicy = retry.NewPolicy(defaultRetryAttempts)
	}
	if opts.ImagesPerRun <= 0 {
		opts.ImagesPerRun = defaultImagesPerRun
	}
	if opts.ProgressStep <= 0 {
		opts.ProgressStep = defaultProgressStep
	}

	return &Orchestrator{
		deps:         deps,
		guard:        NewSingleFlightGuard(),
		fuser:        opts.Fuser,
		policy:       opts.RetryPolicy,
		imagesPerRun: opts.ImagesPerRun,
		progressStep: opts.ProgressStep,
	}
}

// Guard exposes the single-flight guard, mainly for observation in tests and
// tooling.
func (o *Orchestrator) Guard() *SingleFlightGuard {
	return o.guard
}

// Run executes one iteration for boardID. If a run is already in flight for
// the board, the request is dropped silently: logged, (nil, nil) returned,
// no error surfaced to the requester.
//
// Failures before the generation fan-out begins abort the run. Once fan-out
// starts, each generation unit isolates its own failure and the run always
// settles; images persisted before a later failure stay in the iteration.
// The guard is released on every exit path.
func (o *Orchestrator) Run(ctx context.Context, boardID string) (*RunSummary, error) {
	if !o.guard.TryAcquire(boardID) {
		log.Printf("iteration run for board %s already in flight, dropping request", boardID)
		return nil, nil
	}
	defer o.guard.Release(boardID)

	b, err := o.deps.Store.GetBoard(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("load board: %w", err)
	}

	selected := selectKeywords(b)
	if b.Prompt == "" && len(selected) == 0 {
		return nil, &ValidationError{Reason: "board has no prompt and no voted keywords"}
	}

	it := board.Iteration{
		ID:        uuid.NewString(),
		Keywords:  selected,
		CreatedAt: time.Now(),
	}
	if err := o.deps.Store.AddIteration(ctx, boardID, it); err != nil {
		return nil, fmt.Errorf("create iteration: %w", err)
	}

	// "iteration added" must precede every image event for this iteration.
	o.deps.Hub.Emit(b.RoomID, realtime.EventBoardIterations, IterationAddedPayload{
		Update: IterationUpdate{ID: boardID, Iteration: it},
	})
	o.deps.Hub.Emit(b.RoomID, realtime.EventProgressStart, StartPayload{BoardID: boardID})

	tracker := NewProgressTracker(o.deps.Hub, b.RoomID, boardID)

	captions := o.buildCaptions(b, selected)
	layouts := o.prepareLayouts(ctx, captions, arrangementBoxes(selected))

	var generated, failed atomic.Int32
	var g errgroup.Group
	for i := range captions {
		input := GenerationInput{
			Prompt: captions[i].Caption,
			Layout: layouts[i],
		}
		g.Go(func() error {
			// Progress advances once per settled unit, success or failure,
			// and only after the unit's work is done.
			defer tracker.Add(o.progressStep)

			if err := o.generateOne(ctx, b.RoomID, boardID, it.ID, input); err != nil {
				log.Printf("WARNING: generation unit for board %s failed: %v", boardID, err)
				failed.Add(1)
				return nil
			}
			generated.Add(1)
			return nil
		})
	}
	_ = g.Wait() // units never return errors; failures are counted above

	return &RunSummary{
		BoardID:     boardID,
		IterationID: it.ID,
		Generated:   int(generated.Load()),
		Failed:      int(failed.Load()),
	}, nil
}

// generateOne runs a single generation unit: produce the image, resolve its
// durable URL, persist with bounded retry, then broadcast completion. A
// failed unit emits no image event; the client sees progress advance without
// a matching image.
func (o *Orchestrator) generateOne(ctx context.Context, roomID, boardID, iterationID string, input GenerationInput) error {
	img, err := o.deps.Images.Generate(ctx, input)
	if err != nil {
		return fmt.Errorf("generate image: %w", err)
	}

	url := img.URL
	if len(img.Data) > 0 {
		url, err = o.deps.Objects.Put(ctx, img.Data, img.ContentType)
		if err != nil {
			return fmt.Errorf("store image: %w", err)
		}
	}

	err = o.policy.Do(ctx, "append iteration result", func(ctx context.Context) error {
		return o.deps.Store.AppendIterationResult(ctx, boardID, iterationID, url, input.Prompt)
	})
	if err != nil {
		return fmt.Errorf("persist result: %w", err)
	}

	o.deps.Hub.Emit(roomID, realtime.EventIterationImage, ImagePayload{
		BoardID:     boardID,
		IterationID: iterationID,
		ImageURL:    url,
		Prompt:      input.Prompt,
	})
	return nil
}

// prepareLayouts resolves a layout for every caption in parallel. A caption
// whose layout fails falls back to an empty layout; it never aborts the
// batch.
func (o *Orchestrator) prepareLayouts(ctx context.Context, captions []CaptionEntry, arrangement []fusion.WeightedBox) [][]PlacedObject {
	results := make([][]PlacedObject, len(captions))

	var g errgroup.Group
	for i := range captions {
		g.Go(func() error {
			placed, err := o.layoutFor(ctx, captions[i], arrangement)
			if err != nil {
				log.Printf("WARNING: layout for caption %q failed, using empty layout: %v", captions[i].Caption, err)
				return nil
			}
			results[i] = placed
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// layoutFor reuses fused arrangement boxes when the board has them,
// otherwise asks the layout collaborator to invent one.
func (o *Orchestrator) layoutFor(ctx context.Context, entry CaptionEntry, arrangement []fusion.WeightedBox) ([]PlacedObject, error) {
	if len(arrangement) > 0 {
		candidates := o.fuser.Fuse(arrangement, len(entry.Objects))
		return o.deps.Matcher.Match(ctx, entry, candidates)
	}
	return o.deps.Layouts.Generate(ctx, entry)
}

// buildCaptions derives one caption entry per image to generate. Every entry
// shares the prompt assembled from the board prompt and selected terms;
// variation across images comes from the generator, not the captions.
func (o *Orchestrator) buildCaptions(b *board.Board, selected []board.Keyword) []CaptionEntry {
	var objects, flavor []string
	for _, kw := range selected {
		switch kw.Category {
		case board.CategorySubjectMatter, board.CategoryActionPose:
			objects = append(objects, kw.Term)
		case board.CategoryThemeMood, board.CategoryCustom:
			flavor = append(flavor, kw.Term)
		}
	}

	parts := make([]string, 0, 3)
	if b.Prompt != "" {
		parts = append(parts, b.Prompt)
	}
	if len(objects) > 0 {
		parts = append(parts, strings.Join(objects, ", "))
	}
	if len(flavor) > 0 {
		parts = append(parts, strings.Join(flavor, ", "))
	}
	caption := strings.Join(parts, "; ")

	entries := make([]CaptionEntry, o.imagesPerRun)
	for i := range entries {
		entries[i] = CaptionEntry{Caption: caption, Objects: objects}
	}
	return entries
}

// selectKeywords picks the keywords a new iteration is generated from:
// positively voted terms plus every placed arrangement keyword, which keeps
// its box in play even at zero votes.
func selectKeywords(b *board.Board) []board.Keyword {
	var out []board.Keyword
	for _, kw := range b.Keywords {
		if kw.Votes > 0 || (kw.Category == board.CategoryArrangement && kw.Box != nil) {
			out = append(out, kw)
		}
	}
	return out
}

// arrangementBoxes converts placed keywords into weighted fusion input.
// Non-positive vote counts are floored so every placement still counts.
func arrangementBoxes(keywords []board.Keyword) []fusion.WeightedBox {
	var out []fusion.WeightedBox
	for _, kw := range keywords {
		if kw.Box == nil {
			continue
		}
		out = append(out, fusion.WeightedBox{
			Box:    *kw.Box,
			Weight: fusion.VoteWeight(kw.Votes),
		})
	}
	return out
}
