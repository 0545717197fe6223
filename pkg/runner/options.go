package runner

import (
	"log/slog"

	"github.com/aretw0/partree/pkg/ports"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithStore records the summary of every finished episode.
func WithStore(store ports.SummaryStore) Option {
	return func(r *Runner) {
		r.Store = store
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithObserver receives every step result, in addition to the policy when it observes.
func WithObserver(obs ports.Observer) Option {
	return func(r *Runner) {
		r.Observer = obs
	}
}

// WithMaxSteps aborts an episode after n steps. Zero leaves the bound to the
// episode's own action budget.
func WithMaxSteps(n int) Option {
	return func(r *Runner) {
		r.MaxSteps = n
	}
}
