package cli

import (
	"io"
	"time"
)

// Options are the flags shared by every command.
type Options struct {
	ConfigPath string
	RulesPath  string
	LogLevel   string
	LogFormat  string
	Debug      bool

	// Overrides holds env_config keys set explicitly on the command line.
	// They win over the config file.
	Overrides map[string]any
}

// PolicyOptions select the policy driving a run.
//
// Kind is one of random, widest, fixed, stdio or process. The process kind starts
// the allow-listed command Name from PoliciesPath.
type PolicyOptions struct {
	Kind         string
	Name         string
	PoliciesPath string
	Seed         uint64
	Dimension    int
	Magnitude    int
}

// StoreOptions select where episode summaries are recorded.
//
// Kind is one of none, memory, file or redis.
type StoreOptions struct {
	Kind      string
	Path      string
	RedisAddr string
	RedisKey  string
	Limit     int64
}

// RunOptions configure the run command.
type RunOptions struct {
	Options
	Policy   PolicyOptions
	Store    StoreOptions
	Episodes int
	MaxSteps int
	Quiet    bool
}

// ServeOptions configure the serve command.
type ServeOptions struct {
	Options
	Store           StoreOptions
	Addr            string
	Metrics         bool
	LockTTL         time.Duration
	ShutdownTimeout time.Duration
}

// MCPOptions configure the mcp command.
type MCPOptions struct {
	Options
	Store     StoreOptions
	Transport string
	Port      int
}

// GraphOptions configure the graph command.
type GraphOptions struct {
	Options
	Policy   PolicyOptions
	MaxDepth int
}

// Streams are the standard streams of a command.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}
