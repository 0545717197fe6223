package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aretw0/partree/pkg/adapters/mcp"
)

// ServeMCP exposes episodes as MCP tools over stdio or SSE.
// Logs always go to stderr so that stdio JSON-RPC stays clean.
func ServeMCP(ctx context.Context, opts MCPOptions, streams Streams) error {
	logger, err := NewLogger(opts.Options, streams)
	if err != nil {
		return err
	}
	engine, err := CreateEngine(ctx, opts.Options, logger)
	if err != nil {
		return err
	}
	store, err := OpenStore(ctx, opts.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	srv := mcp.NewServer(NewManager(engine, store, 0, logger), mcp.WithLogger(logger))

	switch opts.Transport {
	case "", "stdio":
		logger.Info("starting partree MCP server (stdio)")
		return srv.ServeStdio()
	case "sse":
		logger.Info("starting partree MCP server (SSE)", "port", opts.Port)
		if err := srv.ServeSSE(ctx, opts.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
	return fmt.Errorf("unknown transport %q (want stdio or sse)", opts.Transport)
}
