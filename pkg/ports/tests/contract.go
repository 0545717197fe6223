package tests

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/partree/pkg/domain"
	"github.com/aretw0/partree/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SummaryStoreContractTest verifies that an adapter complies with ports.SummaryStore.
// The store must start empty.
func SummaryStoreContractTest(t *testing.T, store ports.SummaryStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("List_Empty", func(t *testing.T) {
		list, err := store.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("Append_PreservesOrder", func(t *testing.T) {
		for i := range 3 {
			err := store.Append(ctx, &domain.EpisodeSummary{
				EpisodeID:       fmt.Sprintf("ep-%d", i),
				Status:          domain.StatusComplete,
				TreeDepth:       i + 1,
				NumRegions:      2*i + 1,
				RuleReplication: 1.5,
				Valid:           true,
			})
			require.NoError(t, err)
		}

		list, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 3)
		for i, s := range list {
			assert.Equal(t, fmt.Sprintf("ep-%d", i), s.EpisodeID)
			assert.Equal(t, i+1, s.TreeDepth)
			assert.Equal(t, domain.StatusComplete, s.Status)
			assert.InDelta(t, 1.5, s.RuleReplication, 1e-9)
			assert.True(t, s.Valid)
		}
	})

	t.Run("Append_Truncated", func(t *testing.T) {
		err := store.Append(ctx, &domain.EpisodeSummary{
			EpisodeID:        "truncated",
			Status:           domain.StatusTruncated,
			RegionsRemaining: 4,
		})
		require.NoError(t, err)

		list, err := store.List(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, list)
		last := list[len(list)-1]
		assert.Equal(t, "truncated", last.EpisodeID)
		assert.Equal(t, 4, last.RegionsRemaining)
		assert.False(t, last.Valid)
	})

	t.Run("Append_Nil", func(t *testing.T) {
		assert.Error(t, store.Append(ctx, nil))
	})
}
