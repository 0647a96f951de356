package fusion

// Box is an axis-aligned bounding box in [x1, y1, x2, y2] order.
// Coordinates may be normalized ([0,1]) or pixel units, as long as every box
// passed to a single Fuse call uses the same units.
type Box [4]float64

// MinWeight is the floor applied to non-positive vote counts so that every
// box still participates in clustering.
const MinWeight = 0.001

// WeightedBox pairs a box with its vote-derived weight.
type WeightedBox struct {
	Box    Box
	Weight float64
}

// VoteWeight converts a net vote count into a clustering weight.
// Positive counts are used as-is; zero and negative counts are clamped to
// MinWeight so the box never drops out of the fusion entirely.
func VoteWeight(netVotes int) float64 {
	if netVotes > 0 {
		return float64(netVotes)
	}
	return MinWeight
}

// Area returns the box area, or 0 for degenerate boxes.
func (b Box) Area() float64 {
	w := b[2] - b[0]
	h := b[3] - b[1]
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// IoU computes the intersection-over-union of two axis-aligned boxes.
// Disjoint boxes yield 0; identical boxes with positive area yield 1.
// The result is symmetric in its arguments.
func IoU(a, b Box) float64 {
	iw := min(a[2], b[2]) - max(a[0], b[0])
	ih := min(a[3], b[3]) - max(a[1], b[1])
	if iw <= 0 || ih <= 0 {
		return 0
	}
	inter := iw * ih
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}
