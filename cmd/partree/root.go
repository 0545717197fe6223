package main

import (
	"fmt"
	"os"

	"github.com/aretw0/partree/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "partree",
	Short: "partree builds packet classification decision trees",
	Long: `partree grows a decision tree over a packet classification rule set, one cut per
active region per step, with an external policy choosing every cut.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "partree.yaml", "Environment config file (YAML or JSON)")
	flags.StringP("rules", "r", "", "Rule file (YAML, JSON or ClassBench)")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")
	flags.String("log-format", "text", "Log format: text or json")
	flags.Bool("debug", false, "Enable debug logs and per-cut tracing")

	flags.Int("leaf-threshold", 0, "Override leaf_threshold")
	flags.Int("max-actions", 0, "Override max_actions_per_episode")
	flags.Int("max-cuts", 0, "Override max_cuts_per_dimension")
	flags.Bool("one-hot", false, "Override one_hot")
	flags.Int("workers", 0, "Override workers")
}

// overrideFlags maps flag names to env_config keys.
var overrideFlags = map[string]string{
	"leaf-threshold": "leaf_threshold",
	"max-actions":    "max_actions_per_episode",
	"max-cuts":       "max_cuts_per_dimension",
	"one-hot":        "one_hot",
	"workers":        "workers",
}

// globalOptions reads the persistent flags. Only explicitly set overrides are kept.
func globalOptions(cmd *cobra.Command) cli.Options {
	flags := cmd.Flags()
	opts := cli.Options{Overrides: map[string]any{}}
	opts.ConfigPath, _ = flags.GetString("config")
	opts.RulesPath, _ = flags.GetString("rules")
	opts.LogLevel, _ = flags.GetString("log-level")
	opts.LogFormat, _ = flags.GetString("log-format")
	opts.Debug, _ = flags.GetBool("debug")

	for flag, key := range overrideFlags {
		if !flags.Changed(flag) {
			continue
		}
		if flag == "one-hot" {
			opts.Overrides[key], _ = flags.GetBool(flag)
		} else {
			opts.Overrides[key], _ = flags.GetInt(flag)
		}
	}
	return opts
}

func stdStreams() cli.Streams {
	return cli.Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// addPolicyFlags registers the flags selecting a policy.
func addPolicyFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("policy", "p", cli.PolicyRandom, "Policy: random, widest, fixed, stdio or process")
	cmd.Flags().String("policy-name", "", "Allow-listed command to start with --policy process")
	cmd.Flags().String("policies", "policies.yaml", "Allow-list of policy commands")
	cmd.Flags().Uint64("seed", 1, "Seed of the random policy")
	cmd.Flags().Int("dimension", 0, "Dimension of the fixed policy (0..4)")
	cmd.Flags().Int("magnitude", 0, "Magnitude of the fixed and widest policies")
}

func policyOptions(cmd *cobra.Command) cli.PolicyOptions {
	var p cli.PolicyOptions
	p.Kind, _ = cmd.Flags().GetString("policy")
	p.Name, _ = cmd.Flags().GetString("policy-name")
	p.PoliciesPath, _ = cmd.Flags().GetString("policies")
	p.Seed, _ = cmd.Flags().GetUint64("seed")
	p.Dimension, _ = cmd.Flags().GetInt("dimension")
	p.Magnitude, _ = cmd.Flags().GetInt("magnitude")
	return p
}

// addStoreFlags registers the flags selecting the summary store.
func addStoreFlags(cmd *cobra.Command, defaultKind string) {
	cmd.Flags().String("store", defaultKind, "Summary store: none, memory, file or redis")
	cmd.Flags().String("store-path", "", "JSON-lines file of the file store (default .partree/summaries.jsonl)")
	cmd.Flags().String("redis-addr", "localhost:6379", "Redis address for the redis store and distributed locks")
	cmd.Flags().String("redis-key", "", "Redis list holding summaries")
	cmd.Flags().Int64("redis-limit", 0, "Keep only the most recent N summaries in Redis (0 keeps all)")
}

func storeOptions(cmd *cobra.Command) cli.StoreOptions {
	var s cli.StoreOptions
	s.Kind, _ = cmd.Flags().GetString("store")
	s.Path, _ = cmd.Flags().GetString("store-path")
	s.RedisAddr, _ = cmd.Flags().GetString("redis-addr")
	s.RedisKey, _ = cmd.Flags().GetString("redis-key")
	s.Limit, _ = cmd.Flags().GetInt64("redis-limit")
	return s
}
