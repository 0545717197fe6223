package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/partree"
	httpAdapter "github.com/aretw0/partree/pkg/adapters/http"
	"github.com/aretw0/partree/pkg/adapters/redis"
	"github.com/aretw0/partree/pkg/domain"
	"github.com/aretw0/partree/pkg/observability"
	"github.com/aretw0/partree/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultLockTTL bounds how long one step may hold an episode's distributed lock.
const DefaultLockTTL = 30 * time.Second

// NewManager builds the session manager shared by serve and mcp. When the store is
// Redis, steps also take a distributed lock on the same server.
func NewManager(engine *partree.Engine, store *Backend, lockTTL time.Duration, logger *slog.Logger) *session.Manager {
	opts := []session.Option{session.WithLogger(logger)}
	if store.Store != nil {
		opts = append(opts, session.WithSummaryStore(store.Store))
	}
	if store.Client != nil {
		if lockTTL <= 0 {
			lockTTL = DefaultLockTTL
		}
		opts = append(opts,
			session.WithLocker(redis.NewLocker(store.Client, "partree:lock:")),
			session.WithLockTTL(lockTTL),
		)
	}
	return session.NewManager(engine.Factory(), opts...)
}

// NewServeHandler wires the engine, metrics and store into the HTTP API.
func NewServeHandler(ctx context.Context, opts ServeOptions, streams Streams) (http.Handler, func() error, error) {
	logger, err := NewLogger(opts.Options, streams)
	if err != nil {
		return nil, nil, err
	}

	var handlerOpts []httpAdapter.Option
	var hooks []domain.LifecycleHooks
	if opts.Metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		hooks = append(hooks, observability.NewMetrics(reg).Hooks())
		handlerOpts = append(handlerOpts, httpAdapter.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	engine, err := CreateEngine(ctx, opts.Options, logger, hooks...)
	if err != nil {
		return nil, nil, err
	}
	store, err := OpenStore(ctx, opts.Store)
	if err != nil {
		return nil, nil, err
	}

	mgr := NewManager(engine, store, opts.LockTTL, logger)
	handlerOpts = append(handlerOpts, httpAdapter.WithLogger(logger))
	return httpAdapter.NewHandler(mgr, handlerOpts...), store.Close, nil
}

// Serve runs the HTTP API until ctx is canceled, then shuts down gracefully.
func Serve(ctx context.Context, opts ServeOptions, streams Streams) error {
	handler, closeStore, err := NewServeHandler(ctx, opts, streams)
	if err != nil {
		return err
	}
	defer closeStore()

	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		fmt.Fprintf(streams.Err, "Starting partree server on %s (rules: %s)\n", srv.Addr, opts.RulesPath)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		timeout := opts.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown did not complete in %v: %w", timeout, err)
		}
		fmt.Fprintln(streams.Err, "partree server stopped gracefully")
		return nil
	}
}
