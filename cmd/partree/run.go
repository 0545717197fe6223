package main

import (
	"github.com/aretw0/partree/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build trees with a policy and report the results",
	Long: `Runs one or more episodes over the rule set. With --policy stdio the process
speaks NDJSON on stdin/stdout, so an external trainer can drive it:

  {"type":"observe","frontier":[0],"observations":{"0":[...]}}   (written)
  {"actions":{"0":[0,2]}}                                         (read)
  {"type":"result","rewards":{...},"done":false}                  (written)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.RunOptions{
			Options: globalOptions(cmd),
			Policy:  policyOptions(cmd),
			Store:   storeOptions(cmd),
		}
		opts.Episodes, _ = cmd.Flags().GetInt("episodes")
		opts.MaxSteps, _ = cmd.Flags().GetInt("max-steps")
		opts.Quiet, _ = cmd.Flags().GetBool("quiet")

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()
		_, err := cli.Run(sigCtx, opts, stdStreams())
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	addPolicyFlags(runCmd)
	addStoreFlags(runCmd, cli.StoreFile)
	runCmd.Flags().IntP("episodes", "n", 1, "Number of episodes to run")
	runCmd.Flags().Int("max-steps", 0, "Abort an episode after this many steps (0 means no limit)")
	runCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner and report")
}
