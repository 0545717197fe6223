package runtime

import "github.com/aretw0/partree/pkg/domain"

// DepthToGo returns, per region ID, the number of edges on the longest path from the
// region down to a leaf of its subtree. Regions without children count as 0, including
// active regions left uncut by truncation.
//
// Children always carry larger IDs than their parent, so one pass in reverse ID order
// reaches the fixed point.
func DepthToGo(regions []*domain.Region) []int {
	depth := make([]int, len(regions))
	for i := len(regions) - 1; i >= 0; i-- {
		r := regions[i]
		if len(r.Children) == 0 {
			continue
		}
		best := 0
		for _, c := range r.Children {
			best = max(best, depth[c])
		}
		depth[i] = best + 1
	}
	return depth
}

// Rewards negates DepthToGo for every region.
func Rewards(regions []*domain.Region) map[domain.RegionID]float64 {
	depth := DepthToGo(regions)
	out := make(map[domain.RegionID]float64, len(depth))
	for i, d := range depth {
		out[regions[i].ID] = -float64(d)
	}
	return out
}
