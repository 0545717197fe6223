package partree

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/partree/internal/logging"
	"github.com/aretw0/partree/internal/runtime"
	"github.com/aretw0/partree/pkg/adapters/file"
	"github.com/aretw0/partree/pkg/config"
	"github.com/aretw0/partree/pkg/domain"
	"github.com/aretw0/partree/pkg/ports"
	"github.com/aretw0/partree/pkg/session"
)

// Episode is one tree build driven by a policy. It implements ports.Environment.
type Episode = runtime.Episode

var _ ports.Environment = (*Episode)(nil)

// Engine is the high-level entry point of the library.
// It holds a rule set and a configuration and spawns independent episodes over them.
type Engine struct {
	rules  *domain.RuleSet
	cfg    config.Config
	hooks  domain.LifecycleHooks
	logger *slog.Logger
	Name   string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithConfig replaces the default configuration.
func WithConfig(cfg config.Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithLifecycleHooks registers observability hooks on every episode.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithName labels the engine, typically with the rule file name.
func WithName(name string) Option {
	return func(e *Engine) {
		e.Name = name
	}
}

// New creates an engine over an already parsed rule set.
func New(rules *domain.RuleSet, opts ...Option) (*Engine, error) {
	if rules == nil {
		return nil, fmt.Errorf("%w: nil rule set", domain.ErrInvalidRule)
	}
	if err := rules.Bounds.Validate(); err != nil {
		return nil, fmt.Errorf("bounds: %w", err)
	}
	eng := &Engine{
		rules: rules,
		cfg:   config.Default(),
	}
	for _, opt := range opts {
		opt(eng)
	}
	if err := eng.cfg.Validate(); err != nil {
		return nil, err
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("rules", eng.Name)
	}
	return eng, nil
}

// NewFromLoader loads the rule set through loader and creates an engine over it.
func NewFromLoader(ctx context.Context, loader ports.RuleLoader, opts ...Option) (*Engine, error) {
	rules, err := loader.LoadRuleSet(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	return New(rules, opts...)
}

// Open reads a rule file (YAML, JSON or ClassBench) and names the engine after it.
func Open(ctx context.Context, path string, opts ...Option) (*Engine, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	opts = append([]Option{WithName(filepath.Base(absPath))}, opts...)
	return NewFromLoader(ctx, file.NewLoader(absPath), opts...)
}

// NewEpisode creates an episode. Call Reset before the first Step.
func (e *Engine) NewEpisode(id string) (*Episode, error) {
	return runtime.NewEpisode(id, e.rules, e.cfg,
		runtime.WithLogger(e.logger),
		runtime.WithLifecycleHooks(e.hooks),
	)
}

// Factory adapts NewEpisode for a session.Manager.
func (e *Engine) Factory() session.Factory {
	return func(id string) (session.Episode, error) {
		return e.NewEpisode(id)
	}
}

// Config returns the configuration episodes run with.
func (e *Engine) Config() config.Config {
	return e.cfg
}

// RuleSet returns the rules episodes build over.
func (e *Engine) RuleSet() *domain.RuleSet {
	return e.rules
}

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger {
	return e.logger
}
