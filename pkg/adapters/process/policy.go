package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os/exec"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/partree/internal/logging"
	"github.com/aretw0/partree/pkg/domain"
	"github.com/aretw0/partree/pkg/ports"
	"github.com/aretw0/partree/pkg/runner"
)

// ErrNotRegistered is returned when a policy name is not on the allow-list.
var ErrNotRegistered = errors.New("policy not registered")

// EnvPrefix prefixes the variables describing the environment to the child process.
const EnvPrefix = "PARTREE_"

// Registry is the allow-list of policy commands. Only registered commands can be
// started; nothing coming from a trainer or an API request is executed directly.
type Registry struct {
	entries map[string]ProcessConfig
	baseDir string
	logger  *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithPolicies populates the allow-list from a loaded config.
func WithPolicies(policies map[string]ProcessConfig) Option {
	return func(r *Registry) {
		for name, p := range policies {
			p.Name = name
			r.entries[name] = p
		}
	}
}

// WithBaseDir sets the working directory of started processes.
func WithBaseDir(dir string) Option {
	return func(r *Registry) {
		r.baseDir = dir
	}
}

// WithLogger sets the logger used for process lifecycle messages.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates an allow-list.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]ProcessConfig),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted command to the allow-list.
func (r *Registry) Register(name, command string, args ...string) {
	r.entries[name] = ProcessConfig{Name: name, Command: command, Args: args}
}

// Names returns the registered policy names, sorted.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.entries))
}

// Start launches the named command and returns a policy speaking NDJSON over its
// stdin and stdout. vars are exported as PARTREE_<KEY>=<value>.
// The process is killed when ctx is canceled.
func (r *Registry) Start(ctx context.Context, name string, vars map[string]string) (*Policy, error) {
	entry, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}

	cmd := exec.CommandContext(ctx, entry.Command, entry.Args...)
	cmd.Dir = r.baseDir
	env := cmd.Environ()
	for k, v := range entry.Environment {
		env = append(env, k+"="+v)
	}
	for k, v := range vars {
		env = append(env, EnvPrefix+strings.ToUpper(k)+"="+v)
	}
	cmd.Env = env

	p := &Policy{name: name, cmd: cmd, logger: r.logger}
	cmd.Stderr = &p.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdin of %s: %w", name, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdout of %s: %w", name, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", name, err)
	}

	p.stdin = stdin
	p.json = runner.NewJSONPolicy(stdout, stdin)
	r.logger.Debug("policy process started", "policy", name, "pid", cmd.Process.Pid)
	return p, nil
}

// Policy is an external process acting as the policy. It implements
// ports.Policy and ports.Observer.
type Policy struct {
	name   string
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	json   *runner.JSONPolicy
	logger *slog.Logger

	stderr    bytes.Buffer
	closeOnce sync.Once
	closeErr  error
}

var (
	_ ports.Policy   = (*Policy)(nil)
	_ ports.Observer = (*Policy)(nil)
)

// Decide implements ports.Policy.
func (p *Policy) Decide(ctx context.Context, view ports.RegionView, obs map[domain.RegionID]domain.Observation) (map[domain.RegionID]domain.Action, error) {
	actions, err := p.json.Decide(ctx, view, obs)
	if err != nil {
		return nil, fmt.Errorf("policy %s: %w", p.name, err)
	}
	return actions, nil
}

// Observe implements ports.Observer.
func (p *Policy) Observe(ctx context.Context, res *domain.StepResult) error {
	if err := p.json.Observe(ctx, res); err != nil {
		return fmt.Errorf("policy %s: %w", p.name, err)
	}
	return nil
}

// Close closes the child's stdin and waits for it to exit. Stderr output is
// attached to the error when the process fails.
func (p *Policy) Close() error {
	p.closeOnce.Do(func() {
		_ = p.stdin.Close()
		err := p.cmd.Wait()
		if err != nil {
			p.closeErr = fmt.Errorf("policy %s exited: %w: %s", p.name, err, strings.TrimSpace(p.stderr.String()))
			return
		}
		p.logger.Debug("policy process exited", "policy", p.name)
	})
	return p.closeErr
}
