package fusion

import (
	"math/rand"
	"sort"
	"sync"
	"time"
)

// DefaultIoUThreshold is the overlap ratio at which two boxes are considered
// the same placement and merged into one cluster.
const DefaultIoUThreshold = 0.5

// jitterRange is the per-coordinate offset applied when padding a short
// result by duplicating an already-selected box.
const jitterRange = 0.01

// Fuser clusters weighted bounding boxes by IoU overlap and fuses each
// cluster into a single weight-averaged box.
//
// Padding (when fewer clusters exist than requested) duplicates the
// lowest-ranked selected box with random jitter, so Fuse is nondeterministic
// unless constructed with NewSeededFuser.
type Fuser struct {
	threshold float64

	mu  sync.Mutex // guards rng; Fuse may be called from concurrent goroutines
	rng *rand.Rand
}

// fusedBox is the weight-averaged result of one cluster. The score (total
// member weight) is used only to rank clusters against each other.
type fusedBox struct {
	box   Box
	score float64
}

// NewFuser creates a Fuser with the given IoU threshold and a time-seeded
// jitter source. A threshold <= 0 falls back to DefaultIoUThreshold.
func NewFuser(iouThreshold float64) *Fuser {
	return NewSeededFuser(iouThreshold, time.Now().UnixNano())
}

// NewSeededFuser creates a Fuser whose padding jitter is driven by a fixed
// seed, for deterministic tests.
func NewSeededFuser(iouThreshold float64, seed int64) *Fuser {
	if iouThreshold <= 0 {
		iouThreshold = DefaultIoUThreshold
	}
	return &Fuser{
		threshold: iouThreshold,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// Fuse clusters boxes by IoU against each cluster's seed, fuses each cluster
// into a weight-averaged box, and returns the top targetCount boxes ranked by
// total cluster weight. If fewer clusters exist than requested, the result is
// padded with jittered copies of the lowest-ranked selected box.
//
// An empty input or a non-positive targetCount yields an empty result; a
// non-empty input always yields exactly targetCount boxes.
func (f *Fuser) Fuse(boxes []WeightedBox, targetCount int) []Box {
	if len(boxes) == 0 || targetCount <= 0 {
		return nil
	}

	clusters := f.cluster(boxes)

	fused := make([]fusedBox, len(clusters))
	for i, members := range clusters {
		fused[i] = fuseCluster(members)
	}

	// Rank by descending total weight. Stable so equal-weight clusters keep
	// input order.
	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].score > fused[j].score
	})

	if len(fused) > targetCount {
		fused = fused[:targetCount]
	}

	out := make([]Box, 0, targetCount)
	for _, fb := range fused {
		out = append(out, fb.box)
	}

	// Pad by duplicating the lowest-ranked selected box with jitter.
	for len(out) < targetCount {
		out = append(out, f.jitter(out[len(fused)-1]))
	}

	return out
}

// cluster performs greedy single-link clustering: boxes are visited in input
// order, each unclustered box seeds a new cluster and absorbs every later
// unclustered box whose IoU with the seed meets the threshold.
func (f *Fuser) cluster(boxes []WeightedBox) [][]WeightedBox {
	clustered := make([]bool, len(boxes))
	var clusters [][]WeightedBox

	for i := range boxes {
		if clustered[i] {
			continue
		}
		seed := boxes[i].Box
		members := []WeightedBox{boxes[i]}
		clustered[i] = true

		for j := i + 1; j < len(boxes); j++ {
			if clustered[j] {
				continue
			}
			if IoU(seed, boxes[j].Box) >= f.threshold {
				members = append(members, boxes[j])
				clustered[j] = true
			}
		}
		clusters = append(clusters, members)
	}

	return clusters
}

// fuseCluster averages each of the four coordinates independently, weighted
// by member weight. The cluster is never empty and total weight is never
// zero because VoteWeight floors weights at MinWeight.
func fuseCluster(members []WeightedBox) fusedBox {
	var sum [4]float64
	var total float64
	for _, m := range members {
		for c := range 4 {
			sum[c] += m.Box[c] * m.Weight
		}
		total += m.Weight
	}

	var avg Box
	for c := range 4 {
		avg[c] = sum[c] / total
	}
	return fusedBox{box: avg, score: total}
}

// jitter offsets each coordinate by up to ±jitterRange, clamped to [0,1].
func (f *Fuser) jitter(b Box) Box {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out Box
	for c := range 4 {
		v := b[c] + (f.rng.Float64()*2-1)*jitterRange
		out[c] = min(max(v, 0), 1)
	}
	return out
}
