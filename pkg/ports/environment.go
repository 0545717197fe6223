package ports

import (
	"context"

	"github.com/aretw0/partree/pkg/domain"
)

// RegionView is the read-only slice of an episode a policy may inspect.
type RegionView interface {
	// Region looks up a region of the current build.
	Region(id domain.RegionID) (*domain.Region, bool)

	// Frontier returns the IDs of the regions awaiting an action, in creation order.
	Frontier() []domain.RegionID
}

// Environment is the lock-step contract between the engine and a policy.
// Implementations are not required to be safe for concurrent use.
type Environment interface {
	RegionView

	// Reset starts a fresh build and returns the observations of the active regions.
	Reset(ctx context.Context) (map[domain.RegionID]domain.Observation, error)

	// Step applies one action per active region.
	// Returns an error wrapping domain.ErrPreconditionViolation when the batch does not
	// match the active set; the episode is then unusable until the next Reset.
	Step(ctx context.Context, actions map[domain.RegionID]domain.Action) (*domain.StepResult, error)
}

// Policy decides one action for every observed region.
type Policy interface {
	Decide(ctx context.Context, view RegionView, obs map[domain.RegionID]domain.Observation) (map[domain.RegionID]domain.Action, error)
}

// PolicyFunc adapts a function to the Policy interface.
type PolicyFunc func(ctx context.Context, view RegionView, obs map[domain.RegionID]domain.Observation) (map[domain.RegionID]domain.Action, error)

// Decide calls f.
func (f PolicyFunc) Decide(ctx context.Context, view RegionView, obs map[domain.RegionID]domain.Observation) (map[domain.RegionID]domain.Action, error) {
	return f(ctx, view, obs)
}

// Observer receives every step result. Learning policies use it to collect rewards.
type Observer interface {
	Observe(ctx context.Context, result *domain.StepResult) error
}
