package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/partree/internal/presentation/graph"
	"github.com/aretw0/partree/internal/tree"
	"github.com/aretw0/partree/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quadrantTree(t *testing.T) *tree.Tree {
	t.Helper()
	rules := []*domain.Rule{
		domain.MustRule(0, 500, 0, 500, 0, 1000, 0, 1000, 0, 1000),
		domain.MustRule(500, 1000, 0, 500, 0, 1000, 0, 1000, 0, 1000),
		domain.MustRule(0, 500, 500, 1000, 0, 1000, 0, 1000, 0, 1000),
		domain.MustRule(500, 1000, 500, 1000, 0, 1000, 0, 1000, 0, 1000),
	}
	tr := tree.New(domain.FullSpace(), rules)
	_, err := tr.Cut(domain.RootRegionID, domain.SrcIP, 2)
	require.NoError(t, err)
	_, err = tr.Cut(1, domain.DstIP, 2)
	require.NoError(t, err)
	return tr
}

func TestGenerateMermaid(t *testing.T) {
	tr := quadrantTree(t)
	got := graph.GenerateMermaid(tr.Regions(), &graph.Overlay{
		Frontier: tr.Frontier(),
		Rewards:  map[domain.RegionID]float64{0: -2},
	})

	tests := []struct {
		name string
		want string
	}{
		{"Header", "graph TD\n"},
		{"Cut Shape", `r0["0: 4 rules<br/>reward -2"]`},
		{"Active Shape", `r2[/"2: 2 rules"/]`},
		{"Leaf Shape", `r3(("3: 1 rules"))`},
		{"Edge Label", `r0 -- "src_ip/2" --> r1`},
		{"Second Edge", `r1 -- "dst_ip/2" --> r4`},
		{"Leaf Class", "class r3,r4 leaf;"},
		{"Active Class", "class r2 active;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, got, tt.want)
		})
	}
}

func TestGenerateMermaid_MaxDepth(t *testing.T) {
	tr := quadrantTree(t)
	got := graph.GenerateMermaid(tr.Regions(), &graph.Overlay{MaxDepth: 2})

	assert.Contains(t, got, `r0 -- "src_ip/2" --> r2`)
	assert.NotContains(t, got, "r3")
	assert.NotContains(t, got, "dst_ip")
}

func TestGenerateMermaid_NilOverlay(t *testing.T) {
	root := domain.NewRegion(domain.RootRegionID, 1, domain.FullSpace(), nil)
	got := graph.GenerateMermaid([]*domain.Region{root}, nil)
	assert.True(t, strings.HasPrefix(got, "graph TD\n"))
	assert.Contains(t, got, `r0(("0: 0 rules"))`)
}
