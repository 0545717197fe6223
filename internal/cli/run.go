package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/partree"
	"github.com/aretw0/partree/internal/presentation/tui"
	"github.com/aretw0/partree/pkg/domain"
	"github.com/aretw0/partree/pkg/ports"
	"github.com/aretw0/partree/pkg/runner"
)

// Run builds opts.Episodes trees with the selected policy and prints a report.
// With the stdio policy stdout carries the NDJSON exchange, so the report goes to stderr.
func Run(ctx context.Context, opts RunOptions, streams Streams) ([]*domain.EpisodeSummary, error) {
	logger, err := NewLogger(opts.Options, streams)
	if err != nil {
		return nil, err
	}
	engine, err := CreateEngine(ctx, opts.Options, logger)
	if err != nil {
		return nil, err
	}

	report := streams.Out
	if opts.Policy.Kind == PolicyStdio {
		report = streams.Err
	}
	if !opts.Quiet {
		if tty, _ := isTerminal(report); tty {
			tui.PrintBanner(report, partree.Version)
		}
	}

	store, err := OpenStore(ctx, opts.Store)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	pol, closePolicy, err := NewPolicy(ctx, opts.Policy, engine.Config(), streams, logger)
	if err != nil {
		return nil, err
	}

	runOpts := []runner.Option{runner.WithLogger(logger), runner.WithMaxSteps(opts.MaxSteps)}
	if store.Store != nil {
		runOpts = append(runOpts, runner.WithStore(store.Store))
	}
	r := runner.NewRunner(pol, runOpts...)

	episodes := max(opts.Episodes, 1)
	summaries, runErr := r.RunEpisodes(ctx, episodes, func(i int) (ports.Environment, error) {
		return engine.NewEpisode(fmt.Sprintf("%s-%d", strings.TrimSuffix(engine.Name, filepath.Ext(engine.Name)), i+1))
	})
	if err := closePolicy(); err != nil {
		runErr = errors.Join(runErr, err)
	}

	for _, s := range summaries {
		logger.Info("episode finished", "episode_id", s.EpisodeID, "status", s.Status, "depth", s.TreeDepth)
	}
	if !opts.Quiet && len(summaries) > 0 {
		title := fmt.Sprintf("partree run: %s (%s policy)", engine.Name, policyLabel(opts.Policy))
		if err := WriteReport(report, title, summaries); err != nil {
			return summaries, err
		}
	}
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			logger.Warn("run interrupted", "completed", len(summaries))
			return summaries, nil
		}
		return summaries, runErr
	}
	return summaries, nil
}

func policyLabel(p PolicyOptions) string {
	switch p.Kind {
	case "":
		return PolicyRandom
	case PolicyProcess:
		return PolicyProcess + ":" + p.Name
	}
	return p.Kind
}
