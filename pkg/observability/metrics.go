package observability

import (
	"context"

	"github.com/aretw0/partree/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records episode activity as Prometheus collectors.
type Metrics struct {
	Episodes         *prometheus.CounterVec
	Cuts             *prometheus.CounterVec
	ChildrenPerCut   prometheus.Histogram
	Steps            prometheus.Counter
	Frontier         prometheus.Histogram
	TreeDepth        prometheus.Histogram
	RegionsRemaining prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg.
// Pass prometheus.DefaultRegisterer to expose them through promhttp.Handler.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Episodes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "partree_episodes_total",
				Help: "Total number of finished episodes by final status",
			},
			[]string{"status"},
		),
		Cuts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "partree_cuts_total",
				Help: "Total number of region cuts by dimension",
			},
			[]string{"dimension"},
		),
		ChildrenPerCut: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "partree_children_per_cut",
			Help:    "Number of children produced by one cut",
			Buckets: prometheus.ExponentialBuckets(1, 2, 7),
		}),
		Steps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "partree_steps_total",
			Help: "Total number of processed action batches",
		}),
		Frontier: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "partree_frontier_size",
			Help:    "Number of active regions after a step",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		TreeDepth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "partree_tree_depth",
			Help:    "Depth of finished trees",
			Buckets: prometheus.LinearBuckets(1, 2, 12),
		}),
		RegionsRemaining: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "partree_regions_remaining",
			Help:    "Active regions left when an episode ended",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Episodes, m.Cuts, m.ChildrenPerCut, m.Steps, m.Frontier, m.TreeDepth, m.RegionsRemaining)
	}
	return m
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCut: func(_ context.Context, e *domain.CutEvent) {
			m.Cuts.WithLabelValues(e.Dimension.String()).Inc()
			m.ChildrenPerCut.Observe(float64(e.Children))
		},
		OnStep: func(_ context.Context, e *domain.StepEvent) {
			m.Steps.Inc()
			m.Frontier.Observe(float64(e.Frontier))
		},
		OnEpisodeEnd: func(_ context.Context, e *domain.EpisodeEvent) {
			if e.Summary == nil {
				return
			}
			m.Episodes.WithLabelValues(string(e.Summary.Status)).Inc()
			m.TreeDepth.Observe(float64(e.Summary.TreeDepth))
			m.RegionsRemaining.Observe(float64(e.Summary.RegionsRemaining))
		},
	}
}
