package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/aretw0/partree/internal/runtime"
	"github.com/aretw0/partree/pkg/adapters/process"
	"github.com/aretw0/partree/pkg/config"
	"github.com/aretw0/partree/pkg/domain"
	"github.com/aretw0/partree/pkg/policy"
	"github.com/aretw0/partree/pkg/ports"
	"github.com/aretw0/partree/pkg/runner"
)

// Policy kinds accepted by --policy.
const (
	PolicyRandom  = "random"
	PolicyWidest  = "widest"
	PolicyFixed   = "fixed"
	PolicyStdio   = "stdio"
	PolicyProcess = "process"
)

// NewPolicy builds the policy named by opts. The returned close function releases
// any external process and is never nil.
func NewPolicy(ctx context.Context, opts PolicyOptions, cfg config.Config, streams Streams, logger *slog.Logger) (ports.Policy, func() error, error) {
	noop := func() error { return nil }
	if opts.Magnitude < 0 || opts.Magnitude >= cfg.MaxCutsPerDimension {
		return nil, noop, fmt.Errorf("magnitude %d not in [0, %d)", opts.Magnitude, cfg.MaxCutsPerDimension)
	}

	switch opts.Kind {
	case "", PolicyRandom:
		return policy.NewRandom(opts.Seed, cfg.MaxCutsPerDimension), noop, nil
	case PolicyWidest:
		return policy.Widest{Magnitude: opts.Magnitude}, noop, nil
	case PolicyFixed:
		if !domain.Dimension(opts.Dimension).Valid() {
			return nil, noop, fmt.Errorf("dimension %d not in [0, %d)", opts.Dimension, domain.NumDimensions)
		}
		return policy.Fixed{Action: domain.Action{Dimension: opts.Dimension, Magnitude: opts.Magnitude}}, noop, nil
	case PolicyStdio:
		return runner.NewJSONPolicy(streams.In, streams.Out), noop, nil
	case PolicyProcess:
		defs, err := process.LoadPolicies(opts.PoliciesPath)
		if err != nil {
			return nil, noop, err
		}
		reg := process.NewRegistry(process.WithPolicies(defs), process.WithLogger(logger))
		p, err := reg.Start(ctx, opts.Name, map[string]string{
			"max_cuts_per_dimension": strconv.Itoa(cfg.MaxCutsPerDimension),
			"observation_size":       strconv.Itoa(runtime.Encoder{OneHot: cfg.OneHot}.Size()),
			"one_hot":                strconv.FormatBool(cfg.OneHot),
		})
		if err != nil {
			return nil, noop, err
		}
		return p, p.Close, nil
	}
	return nil, noop, fmt.Errorf("unknown policy %q (want random, widest, fixed, stdio or process)", opts.Kind)
}
