package main

import (
	"github.com/aretw0/partree/internal/cli"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Build one tree and print it as a Mermaid diagram",
	Long:  `Builds one tree with the selected policy and outputs a Mermaid diagram (graph TD) of its regions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.GraphOptions{
			Options: globalOptions(cmd),
			Policy:  policyOptions(cmd),
		}
		opts.MaxDepth, _ = cmd.Flags().GetInt("depth")
		return cli.Graph(cmd.Context(), opts, stdStreams())
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	addPolicyFlags(graphCmd)
	graphCmd.Flags().Int("depth", 0, "Maximum depth to draw (0 draws everything)")
}
