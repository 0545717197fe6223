package policy_test

import (
	"context"
	"testing"

	"github.com/aretw0/partree/pkg/domain"
	"github.com/aretw0/partree/pkg/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type view struct {
	regions  map[domain.RegionID]*domain.Region
	frontier []domain.RegionID
}

func (v view) Region(id domain.RegionID) (*domain.Region, bool) {
	r, ok := v.regions[id]
	return r, ok
}

func (v view) Frontier() []domain.RegionID { return v.frontier }

func region(id domain.RegionID, flat ...int64) *domain.Region {
	ranges, err := domain.RangesFromFlat(flat...)
	if err != nil {
		panic(err)
	}
	return &domain.Region{ID: id, Ranges: ranges}
}

func newView(regions ...*domain.Region) (view, map[domain.RegionID]domain.Observation) {
	v := view{regions: make(map[domain.RegionID]*domain.Region)}
	obs := make(map[domain.RegionID]domain.Observation)
	for _, r := range regions {
		v.regions[r.ID] = r
		v.frontier = append(v.frontier, r.ID)
		obs[r.ID] = domain.Observation{0}
	}
	return v, obs
}

func TestFixed(t *testing.T) {
	v, obs := newView(region(1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1), region(2, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1))
	want := domain.Action{Dimension: 3, Magnitude: 1}

	out, err := policy.Fixed{Action: want}.Decide(context.Background(), v, obs)
	require.NoError(t, err)
	assert.Equal(t, map[domain.RegionID]domain.Action{1: want, 2: want}, out)
}

func TestRandom_SeededAndBounded(t *testing.T) {
	var regions []*domain.Region
	for i := range 20 {
		regions = append(regions, region(domain.RegionID(i), 0, 1, 0, 1, 0, 1, 0, 1, 0, 1))
	}
	v, obs := newView(regions...)
	ctx := context.Background()

	a, err := policy.NewRandom(7, 3).Decide(ctx, v, obs)
	require.NoError(t, err)
	b, err := policy.NewRandom(7, 3).Decide(ctx, v, obs)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	for _, act := range a {
		assert.True(t, domain.Dimension(act.Dimension).Valid())
		assert.GreaterOrEqual(t, act.Magnitude, 0)
		assert.Less(t, act.Magnitude, 3)
	}
}

func TestRandom_UnknownRegion(t *testing.T) {
	v, obs := newView(region(1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1))
	obs[9] = domain.Observation{0}
	_, err := policy.NewRandom(1, 5).Decide(context.Background(), v, obs)
	assert.ErrorIs(t, err, domain.ErrRegionNotActive)
}

func TestWidest(t *testing.T) {
	// dst_port spans half its field; src_ip only a sliver of 2^32.
	r := region(1, 0, 1<<20, 0, 1, 0, 1, 0, 1<<15, 0, 2)
	assert.Equal(t, domain.DstPort, policy.WidestDimension(r))

	v, obs := newView(r)
	out, err := policy.Widest{Magnitude: 2}.Decide(context.Background(), v, obs)
	require.NoError(t, err)
	assert.Equal(t, domain.Action{Dimension: int(domain.DstPort), Magnitude: 2}, out[1])
}

func TestWidest_PrefersSeparatingDimension(t *testing.T) {
	// proto spans its whole field, but every rule covers it: only src_ip separates them.
	r := region(1, 0, 1000, 0, 1000, 0, 1000, 0, 1000, 0, 256)
	r.Rules = []*domain.Rule{
		domain.MustRule(0, 500, 0, 1000, 0, 1000, 0, 1000, 0, 256),
		domain.MustRule(500, 1000, 0, 1000, 0, 1000, 0, 1000, 0, 256),
	}
	assert.Equal(t, domain.SrcIP, policy.WidestDimension(r))
}

func TestWidest_MissingRegion(t *testing.T) {
	v, _ := newView()
	_, err := policy.Widest{}.Decide(context.Background(), v, map[domain.RegionID]domain.Observation{4: nil})
	assert.ErrorIs(t, err, domain.ErrRegionNotActive)
}
