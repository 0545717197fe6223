package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/partree/internal/presentation/graph"
	"github.com/aretw0/partree/internal/runtime"
	"github.com/aretw0/partree/pkg/runner"
)

// Graph builds one tree with the selected policy and prints it as a Mermaid flowchart.
// A truncated build is still drawn, with its remaining regions marked active.
func Graph(ctx context.Context, opts GraphOptions, streams Streams) error {
	logger, err := NewLogger(opts.Options, streams)
	if err != nil {
		return err
	}
	engine, err := CreateEngine(ctx, opts.Options, logger)
	if err != nil {
		return err
	}
	if opts.Policy.Kind == PolicyStdio {
		return fmt.Errorf("the stdio policy cannot be used with graph: stdout carries the chart")
	}
	pol, closePolicy, err := NewPolicy(ctx, opts.Policy, engine.Config(), streams, logger)
	if err != nil {
		return err
	}

	ep, err := engine.NewEpisode("graph")
	if err != nil {
		return err
	}
	_, runErr := runner.NewRunner(pol, runner.WithLogger(logger)).Run(ctx, ep)
	if err := errors.Join(runErr, closePolicy()); err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	regions := ep.Regions()
	_, err = fmt.Fprint(streams.Out, graph.GenerateMermaid(regions, &graph.Overlay{
		Frontier: ep.Frontier(),
		Rewards:  runtime.Rewards(regions),
		MaxDepth: opts.MaxDepth,
	}))
	return err
}
