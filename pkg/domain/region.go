package domain

import (
	"fmt"
	"strings"
)

// RegionID identifies a region inside one tree. IDs are issued in creation order,
// so a child always has a larger ID than its parent.
type RegionID int

// Region is a hyper-rectangle of the field space and the rules that intersect it.
// Regions are owned by the tree that created them; children are referenced by ID.
type Region struct {
	ID    RegionID
	Depth int

	// Ranges may be tighter than the cut that produced the region: a region with
	// rules is compacted to their bounding box on creation.
	Ranges Ranges

	Rules    []*Rule
	Children []RegionID

	// Cut records the decoded action that produced Children, if any.
	Cut *Cut
}

// NewRegion creates a region and compacts its ranges when it holds any rule.
// A region without rules keeps the inherited ranges.
func NewRegion(id RegionID, depth int, ranges Ranges, rules []*Rule) *Region {
	r := &Region{
		ID:     id,
		Depth:  depth,
		Ranges: ranges,
		Rules:  rules,
	}
	if len(rules) > 0 {
		r.CompactRanges()
	}
	return r
}

// CompactRanges shrinks the ranges to the tightest box covering every rule.
func (r *Region) CompactRanges() {
	if len(r.Rules) == 0 {
		return
	}
	box := r.Rules[0].Ranges()
	for _, rule := range r.Rules[1:] {
		for d := range box {
			rr := rule.Range(Dimension(d))
			box[d].Left = min(box[d].Left, rr.Left)
			box[d].Right = max(box[d].Right, rr.Right)
		}
	}
	r.Ranges = box
}

// IsLeaf reports whether the region holds few enough rules to stop cutting.
func (r *Region) IsLeaf(threshold int) bool {
	return len(r.Rules) <= threshold
}

// Width returns the region's extent on one dimension.
func (r *Region) Width(d Dimension) int64 {
	return r.Ranges[d].Width()
}

// IsCut reports whether the region already produced children.
func (r *Region) IsCut() bool {
	return len(r.Children) > 0
}

func (r *Region) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Region %d (depth %d)\nRanges: %v\nRules:\n", r.ID, r.Depth, r.Ranges.Flat())
	for _, rule := range r.Rules {
		sb.WriteString(rule.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
