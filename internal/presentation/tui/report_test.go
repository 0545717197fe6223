package tui_test

import (
	"bytes"
	"testing"

	"github.com/aretw0/partree/internal/presentation/tui"
	"github.com/aretw0/partree/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport(t *testing.T) {
	got := tui.Report("Run", []*domain.EpisodeSummary{
		{EpisodeID: "a", Status: domain.StatusComplete, TreeDepth: 5, NumLeaves: 4, Valid: true},
		{EpisodeID: "b", Status: domain.StatusComplete, TreeDepth: 3, NumLeaves: 4, Valid: true},
		{Status: domain.StatusTruncated, TreeDepth: 7, RegionsRemaining: 1},
	})

	assert.Contains(t, got, "# Run")
	assert.Contains(t, got, "| b | complete | 3 | 4 |")
	assert.Contains(t, got, "| - | truncated | 7 |")
	assert.Contains(t, got, "**2/3** episodes built a complete tree. Mean depth 5.00.")
	assert.Contains(t, got, "Shallowest complete tree: `b` at depth 3.")
}

func TestReport_Empty(t *testing.T) {
	assert.Contains(t, tui.Report("Run", nil), "_No episodes recorded._")
}

func TestPlainAndBanner(t *testing.T) {
	out, err := tui.Plain("# x")
	require.NoError(t, err)
	assert.Equal(t, "# x", out)

	// A bytes.Buffer is not a terminal, so no escape sequences are written.
	var buf bytes.Buffer
	tui.PrintBanner(&buf, "1.2.3\n")
	assert.Contains(t, buf.String(), "v1.2.3")
	assert.NotContains(t, buf.String(), "\x1b[")
	assert.Equal(t, "complete", tui.Status(&buf, domain.StatusComplete))
}

func TestNewRenderer(t *testing.T) {
	render, err := tui.NewRenderer(60)
	require.NoError(t, err)
	out, err := render("# Title\n\nbody")
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
}
