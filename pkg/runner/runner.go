package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/partree/internal/logging"
	"github.com/aretw0/partree/pkg/domain"
	"github.com/aretw0/partree/pkg/ports"
)

// ErrStepLimit is returned when an episode runs past the runner's MaxSteps.
var ErrStepLimit = errors.New("step limit reached")

// Runner handles the Reset/Decide/Step loop of one or more episodes.
type Runner struct {
	Policy   ports.Policy
	Store    ports.SummaryStore
	Observer ports.Observer
	Logger   *slog.Logger
	MaxSteps int
}

// NewRunner creates a runner for policy.
func NewRunner(policy ports.Policy, opts ...Option) *Runner {
	r := &Runner{
		Policy: policy,
		Logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run resets env and steps it until done. It returns the final step result.
func (r *Runner) Run(ctx context.Context, env ports.Environment) (*domain.StepResult, error) {
	obs, err := env.Reset(ctx)
	if err != nil {
		return nil, fmt.Errorf("reset error: %w", err)
	}

	for step := 1; ; step++ {
		if r.MaxSteps > 0 && step > r.MaxSteps {
			return nil, fmt.Errorf("%w: %d", ErrStepLimit, r.MaxSteps)
		}

		actions, err := r.Policy.Decide(ctx, env, obs)
		if err != nil {
			return nil, fmt.Errorf("policy error: %w", err)
		}

		res, err := env.Step(ctx, actions)
		if err != nil {
			return nil, fmt.Errorf("step error: %w", err)
		}
		if err := r.observe(ctx, res); err != nil {
			return nil, err
		}

		r.Logger.DebugContext(ctx, "step done", "step", step, "actions", len(actions), "next", len(res.Observations), "done", res.Done)
		if res.Done {
			if err := r.record(ctx, res.Summary()); err != nil {
				return res, err
			}
			return res, nil
		}
		obs = res.Observations
	}
}

// RunEpisodes runs n episodes created by newEnv, one after the other, and returns
// their summaries. It stops at the first error.
func (r *Runner) RunEpisodes(ctx context.Context, n int, newEnv func(i int) (ports.Environment, error)) ([]*domain.EpisodeSummary, error) {
	summaries := make([]*domain.EpisodeSummary, 0, n)
	for i := range n {
		if err := ctx.Err(); err != nil {
			return summaries, err
		}
		env, err := newEnv(i)
		if err != nil {
			return summaries, fmt.Errorf("episode %d: %w", i, err)
		}
		res, err := r.Run(ctx, env)
		if err != nil {
			return summaries, fmt.Errorf("episode %d: %w", i, err)
		}
		summaries = append(summaries, res.Summary())
	}
	return summaries, nil
}

func (r *Runner) observe(ctx context.Context, res *domain.StepResult) error {
	if o, ok := r.Policy.(ports.Observer); ok {
		if err := o.Observe(ctx, res); err != nil {
			return fmt.Errorf("policy observe error: %w", err)
		}
	}
	if r.Observer != nil {
		if err := r.Observer.Observe(ctx, res); err != nil {
			return fmt.Errorf("observer error: %w", err)
		}
	}
	return nil
}

func (r *Runner) record(ctx context.Context, summary *domain.EpisodeSummary) error {
	if r.Store == nil || summary == nil {
		return nil
	}
	if err := r.Store.Append(ctx, summary); err != nil {
		return fmt.Errorf("critical persistence error: %w", err)
	}
	r.Logger.DebugContext(ctx, "summary saved", "episode_id", summary.EpisodeID)
	return nil
}
