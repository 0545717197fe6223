package runtime

import (
	"math/rand/v2"
	"testing"

	"github.com/aretw0/partree/pkg/domain"
	"github.com/stretchr/testify/assert"
)

// relax is the repeated-pass longest-path computation the single pass must agree with.
func relax(regions []*domain.Region) map[domain.RegionID]int {
	depth := make(map[domain.RegionID]int, len(regions))
	for _, r := range regions {
		depth[r.ID] = 0
	}
	for updated := true; updated; {
		updated = false
		for _, r := range regions {
			if len(r.Children) == 0 {
				continue
			}
			best := 0
			for _, c := range r.Children {
				best = max(best, depth[c])
			}
			if best+1 > depth[r.ID] {
				depth[r.ID] = best + 1
				updated = true
			}
		}
	}
	return depth
}

// randomTree grows n regions, attaching each new batch of children to a random
// childless region.
func randomTree(rng *rand.Rand, n int) []*domain.Region {
	regions := []*domain.Region{{ID: 0}}
	for len(regions) < n {
		var open []*domain.Region
		for _, r := range regions {
			if len(r.Children) == 0 {
				open = append(open, r)
			}
		}
		parent := open[rng.IntN(len(open))]
		for range 1 + rng.IntN(4) {
			id := domain.RegionID(len(regions))
			parent.Children = append(parent.Children, id)
			regions = append(regions, &domain.Region{ID: id})
		}
	}
	return regions
}

func TestDepthToGo_MatchesRelaxation(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for range 50 {
		regions := randomTree(rng, 2+rng.IntN(200))
		want := relax(regions)
		got := DepthToGo(regions)
		for _, r := range regions {
			assert.Equal(t, want[r.ID], got[r.ID], "region %d", r.ID)
		}
	}
}

func TestRewards_Monotonicity(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	regions := randomTree(rng, 100)
	rewards := Rewards(regions)

	for _, r := range regions {
		if len(r.Children) == 0 {
			assert.Equal(t, 0.0, rewards[r.ID])
			continue
		}
		worst := 0.0
		for _, c := range r.Children {
			worst = max(worst, -rewards[c])
		}
		assert.Equal(t, -(1 + worst), rewards[r.ID])
	}
}

func TestRewards_Chain(t *testing.T) {
	regions := []*domain.Region{
		{ID: 0, Children: []domain.RegionID{1, 2}},
		{ID: 1, Children: []domain.RegionID{3}},
		{ID: 2},
		{ID: 3},
	}
	assert.Equal(t, map[domain.RegionID]float64{0: -2, 1: -1, 2: 0, 3: 0}, Rewards(regions))
}
