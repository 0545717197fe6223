// Package graph renders a region tree as a Mermaid flowchart.
package graph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/partree/pkg/domain"
)

// Overlay carries episode state to draw on top of the tree.
type Overlay struct {
	// Frontier marks regions still awaiting a cut.
	Frontier []domain.RegionID
	// Rewards, when set, are appended to node labels.
	Rewards map[domain.RegionID]float64
	// MaxDepth hides regions deeper than this; 0 draws everything.
	MaxDepth int
}

// GenerateMermaid produces a Mermaid flowchart of the regions, which must be in ID order.
// Shapes follow the region's role:
// - Leaf: ((Circle))
// - Active: [/Parallelogram/]
// - Cut: [Rectangle]
// Edges are labeled with the dimension and number of pieces of the cut.
func GenerateMermaid(regions []*domain.Region, overlay *Overlay) string {
	if overlay == nil {
		overlay = &Overlay{}
	}
	active := make(map[domain.RegionID]bool, len(overlay.Frontier))
	for _, id := range overlay.Frontier {
		active[id] = true
	}
	visible := func(r *domain.Region) bool {
		return overlay.MaxDepth <= 0 || r.Depth <= overlay.MaxDepth
	}

	var sb strings.Builder
	sb.WriteString("graph TD\n")

	var leaves, open []string
	for _, r := range regions {
		if !visible(r) {
			continue
		}
		id := nodeID(r.ID)
		label := fmt.Sprintf("%d: %d rules", r.ID, len(r.Rules))
		if reward, ok := overlay.Rewards[r.ID]; ok {
			label += "<br/>reward " + strconv.FormatFloat(reward, 'g', -1, 64)
		}

		opener, closer := "[", "]"
		switch {
		case r.IsCut():
		case active[r.ID]:
			opener, closer = "[/", "/]"
			open = append(open, id)
		default:
			opener, closer = "((", "))"
			leaves = append(leaves, id)
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, label, closer)
	}

	for _, r := range regions {
		if !visible(r) || !r.IsCut() || r.Cut == nil {
			continue
		}
		edge := fmt.Sprintf("%s/%d", r.Cut.Dimension, r.Cut.Count)
		for _, child := range r.Children {
			if overlay.MaxDepth > 0 && r.Depth+1 > overlay.MaxDepth {
				break
			}
			fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", nodeID(r.ID), edge, nodeID(child))
		}
	}

	if len(leaves) > 0 || len(open) > 0 {
		sb.WriteString("\n    %% Region roles\n")
		sb.WriteString("    classDef leaf fill:#e8f5e9,stroke:#2e7d32,color:#000;\n")
		sb.WriteString("    classDef active fill:#ffeb3b,stroke:#fbc02d,stroke-width:3px,color:#000;\n")
		if len(leaves) > 0 {
			fmt.Fprintf(&sb, "    class %s leaf;\n", strings.Join(leaves, ","))
		}
		if len(open) > 0 {
			fmt.Fprintf(&sb, "    class %s active;\n", strings.Join(open, ","))
		}
	}
	return sb.String()
}

func nodeID(id domain.RegionID) string {
	return "r" + strconv.Itoa(int(id))
}
