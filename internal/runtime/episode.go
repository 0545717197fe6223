package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/aretw0/partree/internal/logging"
	"github.com/aretw0/partree/internal/tree"
	"github.com/aretw0/partree/pkg/config"
	"github.com/aretw0/partree/pkg/domain"
)

// ErrNotReset is returned when Step is called before the first Reset.
var ErrNotReset = fmt.Errorf("%w: episode was not reset", domain.ErrPreconditionViolation)

// Episode drives one tree build in lock-step with an external policy.
// It is not safe for concurrent use; callers serialize Reset and Step.
type Episode struct {
	id      string
	rules   *domain.RuleSet
	cfg     config.Config
	decoder Decoder
	encoder Encoder

	tree       *tree.Tree
	numActions int
	status     domain.EpisodeStatus

	hooks  domain.LifecycleHooks
	logger *slog.Logger
}

// Option configures an Episode.
type Option func(*Episode)

// WithLogger sets the logger. The default discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Episode) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Episode) {
		e.hooks = hooks
	}
}

// NewEpisode creates an episode over rules. Reset must be called before Step.
func NewEpisode(id string, rules *domain.RuleSet, cfg config.Config, opts ...Option) (*Episode, error) {
	if rules == nil {
		return nil, fmt.Errorf("%w: nil rule set", domain.ErrInvalidRule)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Episode{
		id:      id,
		rules:   rules,
		cfg:     cfg,
		decoder: Decoder{MaxMagnitude: cfg.MaxCutsPerDimension},
		encoder: Encoder{OneHot: cfg.OneHot},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Reset discards any previous build, grows a fresh root and returns the observations
// of the active regions: the root, or nothing when the root is already a leaf.
func (e *Episode) Reset(ctx context.Context) (map[domain.RegionID]domain.Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.tree = tree.New(e.rules.Bounds, e.rules.Rules,
		tree.WithLeafThreshold(e.cfg.LeafThreshold),
		tree.WithWorkers(e.cfg.Workers),
	)
	e.numActions = 0
	e.status = domain.StatusActive

	e.logger.DebugContext(ctx, "episode reset", "episode_id", e.id, "rules", len(e.rules.Rules))
	if e.hooks.OnReset != nil {
		e.hooks.OnReset(ctx, &domain.EpisodeEvent{EventBase: e.event(domain.EventEpisodeReset)})
	}
	return e.observe(e.tree.Frontier()), nil
}

// Step applies one action per active region. The batch must cover the active set
// exactly. Any violation fails the episode; a canceled context leaves it untouched.
func (e *Episode) Step(ctx context.Context, actions map[domain.RegionID]domain.Action) (*domain.StepResult, error) {
	if e.tree == nil {
		return nil, ErrNotReset
	}
	if e.status.Terminal() {
		return nil, fmt.Errorf("%w: status %s", domain.ErrEpisodeDone, e.status)
	}

	reqs, err := e.decode(actions)
	if err != nil {
		return nil, e.fail(ctx, err)
	}

	results, err := e.tree.CutBatch(ctx, reqs)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, e.fail(ctx, err)
	}
	e.numActions += len(reqs)

	for i, req := range reqs {
		e.emitCut(ctx, req, results[i])
	}

	frontier := e.tree.Frontier()
	e.logger.DebugContext(ctx, "step applied",
		"episode_id", e.id,
		"actions", len(reqs),
		"frontier", len(frontier),
		"num_actions", e.numActions,
	)
	if e.hooks.OnStep != nil {
		e.hooks.OnStep(ctx, &domain.StepEvent{
			EventBase: e.event(domain.EventStep),
			Actions:   len(reqs),
			Frontier:  len(frontier),
			Regions:   e.tree.Len(),
		})
	}

	if len(frontier) == 0 || e.numActions > e.cfg.MaxActionsPerEpisode {
		return e.finish(ctx), nil
	}

	rewards := make(map[domain.RegionID]float64, len(frontier))
	for _, id := range frontier {
		rewards[id] = 0
	}
	return &domain.StepResult{
		Observations: e.observe(frontier),
		Rewards:      rewards,
		Done:         false,
		Infos:        make(map[domain.RegionID]domain.Info, len(frontier)),
	}, nil
}

// decode validates the whole batch before anything is cut.
func (e *Episode) decode(actions map[domain.RegionID]domain.Action) ([]tree.Request, error) {
	ids := slices.Sorted(maps.Keys(actions))
	reqs := make([]tree.Request, 0, len(ids))
	for _, id := range ids {
		if !e.tree.IsActive(id) {
			return nil, fmt.Errorf("%w: region %d", domain.ErrRegionNotActive, id)
		}
		r, _ := e.tree.Region(id)
		cut, err := e.decoder.Decode(r, actions[id])
		if err != nil {
			return nil, fmt.Errorf("region %d: %w", id, err)
		}
		reqs = append(reqs, tree.Request{Region: id, Cut: cut})
	}
	for _, id := range e.tree.Frontier() {
		if _, ok := actions[id]; !ok {
			return nil, fmt.Errorf("%w: region %d", domain.ErrMissingAction, id)
		}
	}
	return reqs, nil
}

func (e *Episode) fail(ctx context.Context, err error) error {
	e.status = domain.StatusFailed
	e.logger.WarnContext(ctx, "episode failed", "episode_id", e.id, "error", err)
	e.emitEnd(ctx)
	return err
}

func (e *Episode) finish(ctx context.Context) *domain.StepResult {
	if e.tree.Done() {
		e.status = domain.StatusComplete
	} else {
		e.status = domain.StatusTruncated
	}

	regions := e.tree.Regions()
	rewards := Rewards(regions)
	obs := make(map[domain.RegionID]domain.Observation, len(regions))
	infos := make(map[domain.RegionID]domain.Info, len(regions))
	for _, r := range regions {
		obs[r.ID] = e.encoder.Zero()
		infos[r.ID] = domain.Info{}
	}
	summary := e.Summary()
	infos[domain.AggregateKey] = domain.Info{Summary: summary}

	e.logger.InfoContext(ctx, "episode finished",
		"episode_id", e.id,
		"status", e.status,
		"tree_depth", summary.TreeDepth,
		"regions_remaining", summary.RegionsRemaining,
		"num_regions", summary.NumRegions,
	)
	e.emitEnd(ctx)

	return &domain.StepResult{
		Observations: obs,
		Rewards:      rewards,
		Done:         true,
		Infos:        infos,
	}
}

// Summary reports the aggregate figures of the current build.
func (e *Episode) Summary() *domain.EpisodeSummary {
	s := &domain.EpisodeSummary{EpisodeID: e.id, Status: e.status}
	if e.tree == nil {
		return s
	}
	s.TreeDepth = e.tree.Depth()
	s.RegionsRemaining = len(e.tree.Frontier())
	s.NumRegions = e.tree.Len()
	s.NumCuts = e.numActions

	leafRules := 0
	for _, leaf := range e.tree.Leaves() {
		s.NumLeaves++
		leafRules += len(leaf.Rules)
		s.MaxLeafRules = max(s.MaxLeafRules, len(leaf.Rules))
	}
	if n := len(e.rules.Rules); n > 0 {
		s.RuleReplication = float64(leafRules) / float64(n)
	}
	s.Valid = e.status == domain.StatusComplete
	return s
}

func (e *Episode) observe(ids []domain.RegionID) map[domain.RegionID]domain.Observation {
	obs := make(map[domain.RegionID]domain.Observation, len(ids))
	for _, id := range ids {
		r, _ := e.tree.Region(id)
		obs[id] = e.encoder.Encode(r)
	}
	return obs
}

func (e *Episode) event(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, EpisodeID: e.id}
}

func (e *Episode) emitCut(ctx context.Context, req tree.Request, children []*domain.Region) {
	if e.hooks.OnCut == nil {
		return
	}
	parent, _ := e.tree.Region(req.Region)
	leaves := 0
	for _, c := range children {
		if e.tree.IsLeaf(c) {
			leaves++
		}
	}
	e.hooks.OnCut(ctx, &domain.CutEvent{
		EventBase: e.event(domain.EventRegionCut),
		RegionID:  req.Region,
		Depth:     parent.Depth,
		Dimension: req.Cut.Dimension,
		Count:     int64(len(children)),
		Children:  len(children),
		Leaves:    leaves,
	})
}

func (e *Episode) emitEnd(ctx context.Context) {
	if e.hooks.OnEpisodeEnd == nil {
		return
	}
	e.hooks.OnEpisodeEnd(ctx, &domain.EpisodeEvent{
		EventBase: e.event(domain.EventEpisodeEnd),
		Summary:   e.Summary(),
	})
}

// ID returns the episode identifier.
func (e *Episode) ID() string { return e.id }

// Status returns the lifecycle stage.
func (e *Episode) Status() domain.EpisodeStatus { return e.status }

// NumActions returns the number of regions cut so far.
func (e *Episode) NumActions() int { return e.numActions }

// Config returns the configuration the episode runs with.
func (e *Episode) Config() config.Config { return e.cfg }

// ObservationSize returns the length of every observation vector.
func (e *Episode) ObservationSize() int { return e.encoder.Size() }

// Region looks up a region of the current build.
func (e *Episode) Region(id domain.RegionID) (*domain.Region, bool) {
	if e.tree == nil {
		return nil, false
	}
	return e.tree.Region(id)
}

// Regions returns every region of the current build in ID order.
func (e *Episode) Regions() []*domain.Region {
	if e.tree == nil {
		return nil
	}
	return e.tree.Regions()
}

// Frontier returns the IDs of the regions awaiting an action.
func (e *Episode) Frontier() []domain.RegionID {
	if e.tree == nil {
		return nil
	}
	return e.tree.Frontier()
}

// IsLeaf reports whether r is below the leaf threshold.
func (e *Episode) IsLeaf(r *domain.Region) bool {
	return len(r.Rules) <= e.cfg.LeafThreshold
}

// Layers groups the first n levels of the build by depth.
func (e *Episode) Layers(n int) [][]*domain.Region {
	if e.tree == nil {
		return nil
	}
	return e.tree.Layers(n)
}
