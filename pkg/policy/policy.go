package policy

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/aretw0/partree/pkg/domain"
	"github.com/aretw0/partree/pkg/ports"
)

// Fixed answers every region with the same action.
type Fixed struct {
	Action domain.Action
}

// Decide implements ports.Policy.
func (p Fixed) Decide(ctx context.Context, _ ports.RegionView, obs map[domain.RegionID]domain.Observation) (map[domain.RegionID]domain.Action, error) {
	out := make(map[domain.RegionID]domain.Action, len(obs))
	for id := range obs {
		out[id] = p.Action
	}
	return out, nil
}

// Random draws dimensions and magnitudes uniformly. Safe for concurrent use.
type Random struct {
	maxMagnitude int
	mu           sync.Mutex
	rng          *rand.Rand
}

// NewRandom creates a random policy over magnitudes [0, maxMagnitude).
// Equal seeds yield equal action sequences for equal observation batches.
func NewRandom(seed uint64, maxMagnitude int) *Random {
	return &Random{
		maxMagnitude: max(1, maxMagnitude),
		rng:          rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Decide implements ports.Policy. Regions are visited in frontier order so that a
// seeded run is reproducible despite map iteration order.
func (p *Random) Decide(ctx context.Context, view ports.RegionView, obs map[domain.RegionID]domain.Observation) (map[domain.RegionID]domain.Action, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make(map[domain.RegionID]domain.Action, len(obs))
	for _, id := range view.Frontier() {
		if _, ok := obs[id]; !ok {
			continue
		}
		out[id] = domain.Action{
			Dimension: p.rng.IntN(domain.NumDimensions),
			Magnitude: p.rng.IntN(p.maxMagnitude),
		}
	}
	if len(out) != len(obs) {
		return nil, fmt.Errorf("%w: observed regions outside the frontier", domain.ErrRegionNotActive)
	}
	return out, nil
}

// Widest cuts every region along the dimension it spans the largest share of,
// relative to the field size, with a constant magnitude.
type Widest struct {
	Magnitude int
}

// Decide implements ports.Policy.
func (p Widest) Decide(ctx context.Context, view ports.RegionView, obs map[domain.RegionID]domain.Observation) (map[domain.RegionID]domain.Action, error) {
	out := make(map[domain.RegionID]domain.Action, len(obs))
	for id := range obs {
		r, ok := view.Region(id)
		if !ok {
			return nil, fmt.Errorf("%w: region %d", domain.ErrRegionNotActive, id)
		}
		out[id] = domain.Action{Dimension: int(WidestDimension(r)), Magnitude: p.Magnitude}
	}
	return out, nil
}

// WidestDimension returns the dimension with the largest width relative to its field
// size, among the dimensions where at least one rule does not cover the whole region.
// Cutting any other dimension copies every rule into every child. When no dimension
// separates the rules, all dimensions are considered. Ties go to the lower dimension.
func WidestDimension(r *domain.Region) domain.Dimension {
	var separable [domain.NumDimensions]bool
	found := false
	for _, rule := range r.Rules {
		for d := range domain.NumDimensions {
			rr, span := rule.Range(domain.Dimension(d)), r.Ranges[d]
			if rr.Left > span.Left || rr.Right < span.Right {
				separable[d] = true
				found = true
			}
		}
	}

	best, bestShare := domain.SrcIP, -1.0
	for d := range domain.NumDimensions {
		if found && !separable[d] {
			continue
		}
		dim := domain.Dimension(d)
		share := float64(r.Width(dim)) / float64(int64(1)<<domain.FieldBits[d])
		if share > bestShare {
			best, bestShare = dim, share
		}
	}
	return best
}
