package cli

import (
	"context"
	"fmt"
	"log/slog"
	"maps"

	"github.com/aretw0/partree"
	"github.com/aretw0/partree/internal/logging"
	"github.com/aretw0/partree/pkg/config"
	"github.com/aretw0/partree/pkg/domain"
	"github.com/aretw0/partree/pkg/observability"
)

// NewLogger configures the application logger on w.
// Debug forces the debug level.
func NewLogger(opts Options, streams Streams) (*slog.Logger, error) {
	level, err := logging.ParseLevel(opts.LogLevel)
	if err != nil {
		return nil, err
	}
	if opts.Debug {
		level = slog.LevelDebug
	}
	format := logging.FormatText
	switch opts.LogFormat {
	case "", string(logging.FormatText):
	case string(logging.FormatJSON):
		format = logging.FormatJSON
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.LogFormat)
	}
	return logging.NewWriter(streams.Err, level, format), nil
}

// LoadConfig reads the config file and applies the command-line overrides.
func LoadConfig(opts Options) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return cfg, err
	}
	if len(opts.Overrides) == 0 {
		return cfg, nil
	}
	return cfg.Merge(maps.Clone(opts.Overrides))
}

// CreateEngine loads the rules and configuration with standard CLI conventions.
// hooks are combined with debug logging hooks when Debug is set.
func CreateEngine(ctx context.Context, opts Options, logger *slog.Logger, hooks ...domain.LifecycleHooks) (*partree.Engine, error) {
	if opts.RulesPath == "" {
		return nil, fmt.Errorf("no rule file given (use --rules)")
	}
	cfg, err := LoadConfig(opts)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	if opts.Debug {
		hooks = append(hooks, observability.LogHooks(logger))
	}
	engine, err := partree.Open(ctx, opts.RulesPath,
		partree.WithConfig(cfg),
		partree.WithLogger(logger),
		partree.WithLifecycleHooks(observability.Combine(hooks...)),
	)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	logger.Debug("engine ready",
		"rules", len(engine.RuleSet().Rules),
		"leaf_threshold", cfg.LeafThreshold,
		"max_actions", cfg.MaxActionsPerEpisode,
		"max_cuts", cfg.MaxCutsPerDimension,
	)
	return engine, nil
}
