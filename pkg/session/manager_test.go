package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/partree/internal/runtime"
	"github.com/aretw0/partree/pkg/adapters/memory"
	"github.com/aretw0/partree/pkg/adapters/redis"
	"github.com/aretw0/partree/pkg/config"
	"github.com/aretw0/partree/pkg/domain"
	"github.com/aretw0/partree/pkg/ports"
	"github.com/aretw0/partree/pkg/session"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func factory(t *testing.T) session.Factory {
	t.Helper()
	rules := domain.NewRuleSet(
		domain.MustRule(0, 500, 0, 1000, 0, 1000, 0, 1000, 0, 1000),
		domain.MustRule(500, 1000, 0, 1000, 0, 1000, 0, 1000, 0, 1000),
	)
	cfg := config.Default()
	cfg.LeafThreshold = 1
	return func(id string) (session.Episode, error) {
		return runtime.NewEpisode(id, rules, cfg)
	}
}

func splitRoot() map[domain.RegionID]domain.Action {
	return map[domain.RegionID]domain.Action{0: {Dimension: 0, Magnitude: 0}}
}

func TestManager_Lifecycle(t *testing.T) {
	ctx := context.Background()
	sink := memory.NewStore()
	mgr := session.NewManager(factory(t), session.WithSummaryStore(sink))

	id, obs, err := mgr.Create(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Len(t, obs, 1)
	assert.Equal(t, []string{id}, mgr.List(ctx))

	res, err := mgr.Step(ctx, id, splitRoot())
	require.NoError(t, err)
	assert.True(t, res.Done)

	summaries, err := mgr.Summaries(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, id, summaries[0].EpisodeID)
	assert.Equal(t, 2, summaries[0].TreeDepth)

	err = mgr.View(ctx, id, func(ep session.Episode) error {
		assert.Equal(t, domain.StatusComplete, ep.Status())
		assert.Len(t, ep.Regions(), 3)
		return nil
	})
	require.NoError(t, err)

	obs, err = mgr.Reset(ctx, id)
	require.NoError(t, err)
	assert.Len(t, obs, 1)

	require.NoError(t, mgr.Delete(ctx, id))
	assert.Empty(t, mgr.List(ctx))
	_, err = mgr.Step(ctx, id, splitRoot())
	assert.ErrorIs(t, err, domain.ErrEpisodeNotFound)
	assert.ErrorIs(t, mgr.Delete(ctx, id), domain.ErrEpisodeNotFound)
}

func TestManager_PreconditionPassesThrough(t *testing.T) {
	ctx := context.Background()
	mgr := session.NewManager(factory(t))
	id, _, err := mgr.Create(ctx)
	require.NoError(t, err)

	_, err = mgr.Step(ctx, id, map[domain.RegionID]domain.Action{7: {}})
	assert.ErrorIs(t, err, domain.ErrPreconditionViolation)
}

func TestManager_FactoryError(t *testing.T) {
	boom := errors.New("boom")
	mgr := session.NewManager(func(string) (session.Episode, error) { return nil, boom })
	_, _, err := mgr.Create(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, mgr.List(context.Background()))
}

func TestManager_ConcurrentStepsAreSerialized(t *testing.T) {
	ctx := context.Background()
	mgr := session.NewManager(factory(t))
	id, _, err := mgr.Create(ctx)
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, fail int
	)
	for range 10 {
		wg.Go(func() {
			_, err := mgr.Step(ctx, id, splitRoot())
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else {
				fail++
			}
		})
	}
	wg.Wait()

	assert.Equal(t, 1, ok, "exactly one step may cut the root")
	assert.Equal(t, 9, fail)
}

type failingLocker struct{}

func (failingLocker) Lock(context.Context, string, time.Duration) (ports.UnlockFunc, error) {
	return nil, errors.New("unavailable")
}

func TestManager_LockerFailure(t *testing.T) {
	mgr := session.NewManager(factory(t), session.WithLocker(failingLocker{}))
	_, _, err := mgr.Create(context.Background())
	assert.ErrorContains(t, err, "failed to acquire distributed lock")
}

func TestManager_RedisLocker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	mgr := session.NewManager(factory(t),
		session.WithLocker(redis.NewLocker(client, "test:", redis.WithRetryInterval(5*time.Millisecond))),
		session.WithLockTTL(5*time.Second),
	)
	id, _, err := mgr.Create(ctx)
	require.NoError(t, err)

	_, err = mgr.Step(ctx, id, splitRoot())
	require.NoError(t, err)
	assert.False(t, mr.Exists("test:lock:"+id), "lock released after step")
}
