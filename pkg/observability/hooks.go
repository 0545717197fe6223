package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/partree/pkg/domain"
)

// Combine returns hooks that call every non-nil callback of each set, in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnReset = chain(out.OnReset, h.OnReset)
		out.OnCut = chain(out.OnCut, h.OnCut)
		out.OnStep = chain(out.OnStep, h.OnStep)
		out.OnEpisodeEnd = chain(out.OnEpisodeEnd, h.OnEpisodeEnd)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}

// LogHooks writes every lifecycle event to logger. Cuts and steps are logged at debug.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnReset: func(ctx context.Context, e *domain.EpisodeEvent) {
			logger.InfoContext(ctx, "episode_reset", "episode_id", e.EpisodeID)
		},
		OnCut: func(ctx context.Context, e *domain.CutEvent) {
			logger.DebugContext(ctx, "region_cut",
				"episode_id", e.EpisodeID,
				"region_id", e.RegionID,
				"dimension", e.Dimension.String(),
				"children", e.Children,
				"leaves", e.Leaves,
			)
		},
		OnStep: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step",
				"episode_id", e.EpisodeID,
				"actions", e.Actions,
				"frontier", e.Frontier,
				"regions", e.Regions,
			)
		},
		OnEpisodeEnd: func(ctx context.Context, e *domain.EpisodeEvent) {
			attrs := []any{"episode_id", e.EpisodeID}
			if s := e.Summary; s != nil {
				attrs = append(attrs,
					"status", s.Status,
					"tree_depth", s.TreeDepth,
					"regions_remaining", s.RegionsRemaining,
				)
			}
			logger.InfoContext(ctx, "episode_end", attrs...)
		},
	}
}
