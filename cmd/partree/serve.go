package main

import (
	"github.com/aretw0/partree/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP episode API",
	Long: `Starts an HTTP server exposing episodes as resources, so that a remote trainer
can create episodes and step them. With --store redis, summaries go to a Redis list and
every step takes a distributed lock, so several replicas can share episodes' bookkeeping.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.ServeOptions{
			Options: globalOptions(cmd),
			Store:   storeOptions(cmd),
		}
		opts.Addr, _ = cmd.Flags().GetString("addr")
		opts.Metrics, _ = cmd.Flags().GetBool("metrics")
		opts.LockTTL, _ = cmd.Flags().GetDuration("lock-ttl")
		opts.ShutdownTimeout, _ = cmd.Flags().GetDuration("shutdown-timeout")

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()
		return cli.Serve(sigCtx, opts, stdStreams())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addStoreFlags(serveCmd, cli.StoreMemory)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
	serveCmd.Flags().Bool("metrics", true, "Expose Prometheus metrics on /metrics")
	serveCmd.Flags().Duration("lock-ttl", cli.DefaultLockTTL, "TTL of the distributed step lock")
	serveCmd.Flags().Duration("shutdown-timeout", 0, "Grace period for in-flight requests (default 5s)")
}
