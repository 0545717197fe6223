package tree

import (
	"slices"

	"github.com/aretw0/partree/pkg/domain"
)

// EffectiveCount clamps a requested cut count to the discrete width of the region.
// At least one piece is always produced, so a zero-width dimension degrades into a
// single-child split instead of an error.
func EffectiveCount(width, count int64) int64 {
	return max(1, min(count, width))
}

// Spans returns the child intervals of r cut into count pieces of equal width,
// except possibly the trailing ones. The spans tile r with no gap or overlap;
// when the rounded-up width overshoots, trailing spans collapse to [Right, Right).
func Spans(r domain.Range, count int64) []domain.Range {
	width := r.Width()
	n := EffectiveCount(width, count)
	per := (width + n - 1) / n

	spans := make([]domain.Range, n)
	// Trailing spans collapse to [Right, Right) when n*per overshoots the width.
	for i := range n {
		spans[i] = domain.Range{
			Left:  min(r.Right, r.Left+i*per),
			Right: min(r.Right, r.Left+(i+1)*per),
		}
	}
	return spans
}

// split builds the children of parent without touching any shared state.
func split(parent *domain.Region, firstID domain.RegionID, cut domain.Cut) []*domain.Region {
	dim := cut.Dimension
	spans := Spans(parent.Ranges[dim], cut.Count)

	children := make([]*domain.Region, len(spans))
	for i, span := range spans {
		id := firstID + domain.RegionID(i)

		if len(spans) == 1 {
			// No-op split: keep every rule, even on a zero-width dimension where the
			// empty span would not intersect anything.
			children[i] = domain.NewRegion(id, parent.Depth+1, parent.Ranges, slices.Clone(parent.Rules))
			continue
		}

		ranges := parent.Ranges
		ranges[dim] = span

		var rules []*domain.Rule
		for _, rule := range parent.Rules {
			if rule.Intersects(dim, span.Left, span.Right) {
				rules = append(rules, rule)
			}
		}
		children[i] = domain.NewRegion(id, parent.Depth+1, ranges, rules)
	}
	return children
}
