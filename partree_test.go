package partree_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/partree"
	"github.com/aretw0/partree/pkg/adapters/memory"
	"github.com/aretw0/partree/pkg/config"
	"github.com/aretw0/partree/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validates(t *testing.T) {
	_, err := partree.New(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidRule)

	cfg := config.Default()
	cfg.MaxCutsPerDimension = 0
	_, err = partree.New(domain.NewRuleSet(), partree.WithConfig(cfg))
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestNew_RejectsBoundsOutsideFieldSpace(t *testing.T) {
	set := domain.NewRuleSet()
	set.Bounds[domain.SrcIP] = domain.Range{Left: 0, Right: 1 << 40}
	_, err := partree.New(set)
	assert.ErrorIs(t, err, domain.ErrInvalidRule)
	assert.ErrorContains(t, err, "bounds")

	set.Bounds[domain.SrcIP] = domain.Range{Left: 10, Right: 0}
	_, err = partree.New(set)
	assert.ErrorIs(t, err, domain.ErrInvalidRule)
}

func TestNewFromLoader(t *testing.T) {
	loader, err := memory.NewFromFlat(
		[]int64{0, 500, 0, 1000, 0, 1000, 0, 1000, 0, 1000},
		[]int64{500, 1000, 0, 1000, 0, 1000, 0, 1000, 0, 1000},
	)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.LeafThreshold = 1
	eng, err := partree.NewFromLoader(context.Background(), loader, partree.WithConfig(cfg))
	require.NoError(t, err)
	assert.Len(t, eng.RuleSet().Rules, 2)
	assert.Equal(t, 1, eng.Config().LeafThreshold)

	ctx := context.Background()
	ep, err := eng.NewEpisode("ep")
	require.NoError(t, err)
	_, err = ep.Reset(ctx)
	require.NoError(t, err)

	res, err := ep.Step(ctx, map[domain.RegionID]domain.Action{0: {Dimension: 0, Magnitude: 0}})
	require.NoError(t, err)
	assert.True(t, res.Done)
	assert.Equal(t, map[domain.RegionID]float64{0: -1, 1: 0, 2: 0}, res.Rewards)
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  - [0, 1, 0, 1, 0, 1, 0, 1, 0, 1]\n"), 0o644))

	eng, err := partree.Open(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "acl.yaml", eng.Name)
	assert.Len(t, eng.RuleSet().Rules, 1)

	_, err = partree.Open(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEngine_EpisodesAreIndependent(t *testing.T) {
	ctx := context.Background()
	eng, err := partree.New(domain.NewRuleSet(
		domain.MustRule(0, 10, 0, 1, 0, 1, 0, 1, 0, 1),
		domain.MustRule(10, 20, 0, 1, 0, 1, 0, 1, 0, 1),
	))
	require.NoError(t, err)

	a, err := eng.NewEpisode("a")
	require.NoError(t, err)
	b, err := eng.NewEpisode("b")
	require.NoError(t, err)
	_, err = a.Reset(ctx)
	require.NoError(t, err)
	_, err = b.Reset(ctx)
	require.NoError(t, err)

	// Default leaf threshold is 16: the root of two rules is already a leaf.
	res, err := a.Step(ctx, map[domain.RegionID]domain.Action{})
	require.NoError(t, err)
	assert.True(t, res.Done)
	assert.Equal(t, domain.StatusActive, b.Status())
}

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, strings.TrimSpace(partree.Version))
}
