package runtime_test

import (
	"context"
	"testing"

	"github.com/aretw0/partree/internal/runtime"
	"github.com/aretw0/partree/pkg/config"
	"github.com/aretw0/partree/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quadrants holds four rules in disjoint quadrants of src_ip x dst_ip, inside [0,1000)^5.
func quadrants() *domain.RuleSet {
	return domain.NewRuleSet(
		domain.MustRule(0, 500, 0, 500, 0, 1000, 0, 1000, 0, 1000),
		domain.MustRule(500, 1000, 0, 500, 0, 1000, 0, 1000, 0, 1000),
		domain.MustRule(0, 500, 500, 1000, 0, 1000, 0, 1000, 0, 1000),
		domain.MustRule(500, 1000, 500, 1000, 0, 1000, 0, 1000, 0, 1000),
	)
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.LeafThreshold = 1
	cfg.Workers = 1
	return cfg
}

func newEpisode(t *testing.T, rules *domain.RuleSet, cfg config.Config, opts ...runtime.Option) *runtime.Episode {
	t.Helper()
	ep, err := runtime.NewEpisode("test", rules, cfg, opts...)
	require.NoError(t, err)
	return ep
}

func act(d, m int) domain.Action {
	return domain.Action{Dimension: d, Magnitude: m}
}

func TestEpisode_ScenarioQuadrants(t *testing.T) {
	ctx := context.Background()
	ep := newEpisode(t, quadrants(), testConfig())

	obs, err := ep.Reset(ctx)
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Contains(t, obs, domain.RootRegionID)

	res, err := ep.Step(ctx, map[domain.RegionID]domain.Action{0: act(0, 0)})
	require.NoError(t, err)
	assert.False(t, res.Done)
	assert.Len(t, res.Observations, 2)
	assert.Equal(t, map[domain.RegionID]float64{1: 0, 2: 0}, res.Rewards)
	assert.Empty(t, res.Infos)
	assert.Nil(t, res.Summary())

	res, err = ep.Step(ctx, map[domain.RegionID]domain.Action{1: act(1, 0), 2: act(1, 0)})
	require.NoError(t, err)
	require.True(t, res.Done)

	assert.Equal(t, map[domain.RegionID]float64{
		0: -2,
		1: -1, 2: -1,
		3: 0, 4: 0, 5: 0, 6: 0,
	}, res.Rewards)
	assert.Len(t, res.Observations, 7)
	for id, o := range res.Observations {
		assert.Equal(t, ep.ObservationSize(), len(o), "region %d", id)
		assert.Equal(t, domain.Observation(make([]float64, 26)), o)
	}

	summary := res.Summary()
	require.NotNil(t, summary)
	assert.Equal(t, 3, summary.TreeDepth)
	assert.Equal(t, 0, summary.RegionsRemaining)
	assert.Equal(t, 4, summary.NumLeaves)
	assert.Equal(t, 1, summary.MaxLeafRules)
	assert.Equal(t, 3, summary.NumCuts)
	assert.Equal(t, 7, summary.NumRegions)
	assert.InDelta(t, 1.0, summary.RuleReplication, 1e-9)
	assert.True(t, summary.Valid)
	assert.Equal(t, domain.StatusComplete, ep.Status())

	for _, leaf := range ep.Regions()[3:] {
		assert.Len(t, leaf.Rules, 1)
	}
}

func TestEpisode_StaleRegionFails(t *testing.T) {
	ctx := context.Background()
	ep := newEpisode(t, quadrants(), testConfig())
	_, err := ep.Reset(ctx)
	require.NoError(t, err)

	_, err = ep.Step(ctx, map[domain.RegionID]domain.Action{0: act(0, 0)})
	require.NoError(t, err)

	_, err = ep.Step(ctx, map[domain.RegionID]domain.Action{0: act(1, 0), 1: act(1, 0), 2: act(1, 0)})
	assert.ErrorIs(t, err, domain.ErrPreconditionViolation)
	assert.ErrorIs(t, err, domain.ErrRegionNotActive)
	assert.Equal(t, domain.StatusFailed, ep.Status())
	assert.Len(t, ep.Regions(), 3, "nothing is cut when the batch is rejected")

	_, err = ep.Step(ctx, map[domain.RegionID]domain.Action{1: act(1, 0), 2: act(1, 0)})
	assert.ErrorIs(t, err, domain.ErrEpisodeDone)
}

func TestEpisode_Truncation(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.MaxActionsPerEpisode = 1
	ep := newEpisode(t, quadrants(), cfg)
	_, err := ep.Reset(ctx)
	require.NoError(t, err)

	// Every rule spans proto in full, so both children inherit all four rules.
	res, err := ep.Step(ctx, map[domain.RegionID]domain.Action{0: act(4, 0)})
	require.NoError(t, err)
	require.False(t, res.Done)
	require.Len(t, res.Observations, 2)

	res, err = ep.Step(ctx, map[domain.RegionID]domain.Action{1: act(0, 0), 2: act(3, 4)})
	require.NoError(t, err)
	require.True(t, res.Done)

	summary := res.Summary()
	require.NotNil(t, summary)
	assert.Equal(t, domain.StatusTruncated, summary.Status)
	assert.Greater(t, summary.RegionsRemaining, 0)
	assert.False(t, summary.Valid)
	assert.Len(t, res.Rewards, ep.Summary().NumRegions)
}

func TestEpisode_TruncationSingleRemaining(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.MaxActionsPerEpisode = 1
	rules := domain.NewRuleSet(
		domain.MustRule(0, 10, 0, 10, 0, 10, 0, 10, 6, 7),
		domain.MustRule(5, 15, 0, 10, 0, 10, 0, 10, 6, 7),
	)
	ep := newEpisode(t, rules, cfg)
	_, err := ep.Reset(ctx)
	require.NoError(t, err)

	// proto has width 1: the decoded count clamps to one child holding both rules.
	res, err := ep.Step(ctx, map[domain.RegionID]domain.Action{0: act(4, 3)})
	require.NoError(t, err)
	require.False(t, res.Done)
	require.Equal(t, []domain.RegionID{1}, ep.Frontier())

	res, err = ep.Step(ctx, map[domain.RegionID]domain.Action{1: act(4, 0)})
	require.NoError(t, err)
	require.True(t, res.Done)

	summary := res.Summary()
	assert.Equal(t, 1, summary.RegionsRemaining)
	assert.Equal(t, 3, summary.TreeDepth)
	assert.Equal(t, map[domain.RegionID]float64{0: -2, 1: -1, 2: 0}, res.Rewards)
}

func TestEpisode_MissingAction(t *testing.T) {
	ctx := context.Background()
	ep := newEpisode(t, quadrants(), testConfig())
	_, err := ep.Reset(ctx)
	require.NoError(t, err)
	_, err = ep.Step(ctx, map[domain.RegionID]domain.Action{0: act(0, 0)})
	require.NoError(t, err)

	_, err = ep.Step(ctx, map[domain.RegionID]domain.Action{1: act(1, 0)})
	assert.ErrorIs(t, err, domain.ErrMissingAction)
	assert.Equal(t, domain.StatusFailed, ep.Status())
}

func TestEpisode_ActionOutOfBounds(t *testing.T) {
	tests := []struct {
		name   string
		action domain.Action
	}{
		{"dimension too large", act(5, 0)},
		{"negative dimension", act(-1, 0)},
		{"magnitude too large", act(0, 5)},
		{"negative magnitude", act(0, -1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			ep := newEpisode(t, quadrants(), testConfig())
			_, err := ep.Reset(ctx)
			require.NoError(t, err)

			_, err = ep.Step(ctx, map[domain.RegionID]domain.Action{0: tt.action})
			assert.ErrorIs(t, err, domain.ErrActionOutOfBounds)
			assert.ErrorIs(t, err, domain.ErrPreconditionViolation)
		})
	}
}

func TestEpisode_StepBeforeReset(t *testing.T) {
	ep := newEpisode(t, quadrants(), testConfig())
	_, err := ep.Step(context.Background(), map[domain.RegionID]domain.Action{0: act(0, 0)})
	assert.ErrorIs(t, err, runtime.ErrNotReset)
}

func TestEpisode_LeafRoot(t *testing.T) {
	ctx := context.Background()
	ep := newEpisode(t, domain.NewRuleSet(domain.MustRule(0, 1, 0, 1, 0, 1, 0, 1, 0, 1)), testConfig())

	obs, err := ep.Reset(ctx)
	require.NoError(t, err)
	assert.Empty(t, obs)

	res, err := ep.Step(ctx, map[domain.RegionID]domain.Action{})
	require.NoError(t, err)
	assert.True(t, res.Done)
	assert.Equal(t, map[domain.RegionID]float64{0: 0}, res.Rewards)
	assert.Equal(t, 1, res.Summary().TreeDepth)
	assert.True(t, res.Summary().Valid)
}

func TestEpisode_ResetStartsOver(t *testing.T) {
	ctx := context.Background()
	ep := newEpisode(t, quadrants(), testConfig())
	_, err := ep.Reset(ctx)
	require.NoError(t, err)
	_, err = ep.Step(ctx, map[domain.RegionID]domain.Action{0: act(9, 0)})
	require.Error(t, err)

	obs, err := ep.Reset(ctx)
	require.NoError(t, err)
	assert.Len(t, obs, 1)
	assert.Equal(t, domain.StatusActive, ep.Status())
	assert.Equal(t, 0, ep.NumActions())
	assert.Len(t, ep.Regions(), 1)
}

func TestEpisode_CanceledContextKeepsEpisodeActive(t *testing.T) {
	ep := newEpisode(t, quadrants(), testConfig())
	_, err := ep.Reset(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ep.Step(ctx, map[domain.RegionID]domain.Action{0: act(0, 0)})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, domain.StatusActive, ep.Status())

	res, err := ep.Step(context.Background(), map[domain.RegionID]domain.Action{0: act(0, 0)})
	require.NoError(t, err)
	assert.Len(t, res.Observations, 2)
}

func TestEpisode_Hooks(t *testing.T) {
	var (
		resets, steps int
		cuts          []*domain.CutEvent
		end           *domain.EpisodeEvent
	)
	hooks := domain.LifecycleHooks{
		OnReset: func(context.Context, *domain.EpisodeEvent) { resets++ },
		OnCut:   func(_ context.Context, e *domain.CutEvent) { cuts = append(cuts, e) },
		OnStep:  func(context.Context, *domain.StepEvent) { steps++ },
		OnEpisodeEnd: func(_ context.Context, e *domain.EpisodeEvent) {
			end = e
		},
	}

	ctx := context.Background()
	ep := newEpisode(t, quadrants(), testConfig(), runtime.WithLifecycleHooks(hooks))
	_, err := ep.Reset(ctx)
	require.NoError(t, err)
	_, err = ep.Step(ctx, map[domain.RegionID]domain.Action{0: act(0, 0)})
	require.NoError(t, err)
	_, err = ep.Step(ctx, map[domain.RegionID]domain.Action{1: act(1, 0), 2: act(1, 0)})
	require.NoError(t, err)

	assert.Equal(t, 1, resets)
	assert.Equal(t, 2, steps)
	require.Len(t, cuts, 3)
	assert.Equal(t, domain.RootRegionID, cuts[0].RegionID)
	assert.Equal(t, 0, cuts[0].Leaves)
	assert.Equal(t, 2, cuts[1].Leaves)
	assert.Equal(t, domain.EventRegionCut, cuts[1].Type)
	require.NotNil(t, end)
	assert.Equal(t, "test", end.EpisodeID)
	assert.Equal(t, domain.StatusComplete, end.Summary.Status)
}

func TestEpisode_ParallelMatchesSequential(t *testing.T) {
	ctx := context.Background()
	rules := make([]*domain.Rule, 0, 64)
	for i := range int64(64) {
		rules = append(rules, domain.MustRule(i*10, i*10+15, i%7, i%7+3, 0, 100, 80, 81, 6, 7))
	}

	run := func(workers int) []*domain.Region {
		cfg := testConfig()
		cfg.Workers = workers
		cfg.MaxActionsPerEpisode = 200
		ep := newEpisode(t, domain.NewRuleSet(rules...), cfg)
		_, err := ep.Reset(ctx)
		require.NoError(t, err)
		for range 20 {
			batch := make(map[domain.RegionID]domain.Action)
			for _, id := range ep.Frontier() {
				batch[id] = act(int(id)%2, 1)
			}
			res, err := ep.Step(ctx, batch)
			require.NoError(t, err)
			if res.Done {
				break
			}
		}
		return ep.Regions()
	}

	seq, par := run(1), run(8)
	require.Equal(t, len(seq), len(par))
	for i := range seq {
		assert.Equal(t, seq[i].Ranges, par[i].Ranges)
		assert.Equal(t, seq[i].Children, par[i].Children)
		assert.Len(t, par[i].Rules, len(seq[i].Rules))
	}
}

func TestNewEpisode_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.LeafThreshold = 0
	_, err := runtime.NewEpisode("x", quadrants(), cfg)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = runtime.NewEpisode("x", nil, testConfig())
	assert.ErrorIs(t, err, domain.ErrInvalidRule)
}
