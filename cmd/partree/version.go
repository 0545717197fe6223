package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/partree"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of partree",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "partree version %s\n", strings.TrimSpace(partree.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
