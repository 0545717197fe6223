package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/partree/pkg/domain"
)

// Report formats episode summaries as a markdown document.
func Report(title string, summaries []*domain.EpisodeSummary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", title)
	if len(summaries) == 0 {
		sb.WriteString("_No episodes recorded._\n")
		return sb.String()
	}

	sb.WriteString("| Episode | Status | Depth | Leaves | Regions | Cuts | Remaining | Max leaf rules | Replication |\n")
	sb.WriteString("|---|---|---:|---:|---:|---:|---:|---:|---:|\n")
	for _, s := range summaries {
		fmt.Fprintf(&sb, "| %s | %s | %d | %d | %d | %d | %d | %d | %.2f |\n",
			orDash(s.EpisodeID), s.Status, s.TreeDepth, s.NumLeaves, s.NumRegions,
			s.NumCuts, s.RegionsRemaining, s.MaxLeafRules, s.RuleReplication)
	}

	var valid, depth int
	best := summaries[0]
	for _, s := range summaries {
		if s.Valid {
			valid++
			if !best.Valid || s.TreeDepth < best.TreeDepth {
				best = s
			}
		}
		depth += s.TreeDepth
	}
	fmt.Fprintf(&sb, "\n**%d/%d** episodes built a complete tree. Mean depth %.2f.\n",
		valid, len(summaries), float64(depth)/float64(len(summaries)))
	if best.Valid {
		fmt.Fprintf(&sb, "Shallowest complete tree: `%s` at depth %d.\n", orDash(best.EpisodeID), best.TreeDepth)
	}
	return sb.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
