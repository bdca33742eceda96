// Package app wires configuration, the worker pool, the header provider,
// the HTTP server and the statistics scheduler into one service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/aatumaykin/anisette/internal/config"
	"github.com/aatumaykin/anisette/internal/cron"
	"github.com/aatumaykin/anisette/internal/headers"
	"github.com/aatumaykin/anisette/internal/logger"
	"github.com/aatumaykin/anisette/internal/server"
	"github.com/aatumaykin/anisette/internal/workers"
)

// App represents the running service.
type App struct {
	config *config.Config
	logger *logger.Logger

	registry  *prometheus.Registry
	pool      *workers.Pool
	provider  headers.Provider
	server    *server.Server
	scheduler *cron.Scheduler

	mu          sync.Mutex
	initialized bool
}

// New creates a new App. Components are built by Initialize.
func New(cfg *config.Config, log *logger.Logger) *App {
	return &App{
		config: cfg,
		logger: log,
	}
}

// Initialize builds every component. It is called by Run and Serve.
func (a *App) Initialize() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.initialized {
		return nil
	}

	var poolMetrics *workers.PrometheusMetrics
	var httpMetrics *server.HTTPMetrics
	if a.config.Metrics.Enabled {
		a.registry = prometheus.NewRegistry()
		a.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		poolMetrics = workers.InitPrometheusMetrics(a.config.Metrics.Namespace, a.config.Pool.Size, a.registry)
		httpMetrics = server.InitHTTPMetrics(a.config.Metrics.Namespace, a.registry)
	}

	pool, err := workers.NewPool(workers.Config{
		Name:      "server",
		Size:      a.config.Pool.Size,
		QueueSize: a.config.Pool.QueueSize,
		Overload:  workers.OverloadPolicy(a.config.Pool.Overload),
		Metrics:   poolMetrics,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create worker pool: %w", err)
	}
	a.pool = pool

	provider, err := BuildProvider(a.config.Provider, a.logger)
	if err != nil {
		_ = pool.Stop(context.Background())
		return fmt.Errorf("failed to build header provider: %w", err)
	}
	a.provider = provider

	opts := server.Options{
		RequestTimeout: a.config.Server.RequestTimeout(),
		Metrics:        httpMetrics,
	}
	if a.config.Server.RateLimit.Enabled {
		opts.RateLimit = rate.NewLimiter(rate.Limit(a.config.Server.RateLimit.RPS), a.config.Server.RateLimit.Burst)
	}
	if a.registry != nil {
		opts.MetricsPath = a.config.Metrics.Path
		opts.Gatherer = a.registry
	}
	a.server = server.New(a.pool, a.provider, a.logger, opts)

	if a.config.Logging.StatsSchedule != "" {
		a.scheduler = cron.NewScheduler(a.logger)
		reporter := cron.NewStatsReporter(a.pool, a.logger)
		if err := a.scheduler.AddJob(reporter.Job(a.config.Logging.StatsSchedule)); err != nil {
			_ = pool.Stop(context.Background())
			return fmt.Errorf("failed to schedule pool stats: %w", err)
		}
	}

	a.initialized = true
	a.logger.Info("application initialized",
		logger.Field{Key: "pool_size", Value: a.config.Pool.Size},
		logger.Field{Key: "queue_size", Value: a.config.Pool.QueueSize},
		logger.Field{Key: "provider", Value: a.config.Provider.Type},
		logger.Field{Key: "metrics", Value: a.config.Metrics.Enabled})
	return nil
}

// Run listens on the configured loopback address and serves until ctx ends.
func (a *App) Run(ctx context.Context) error {
	addr := a.config.Server.Addr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve runs the service on ln until ctx ends, then shuts everything down:
// the HTTP server first, then the scheduler and finally the worker pool.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	if err := a.Initialize(); err != nil {
		_ = ln.Close()
		return err
	}

	if a.scheduler != nil {
		if err := a.scheduler.Start(); err != nil {
			_ = ln.Close()
			return errors.Join(err, a.Shutdown(context.Background()))
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.server.Serve(gctx, ln, server.ListenConfig{
			ReadHeaderTimeout: a.config.Server.ReadHeaderTimeout(),
			ShutdownTimeout:   a.config.Server.ShutdownTimeout(),
		})
	})

	if a.scheduler != nil {
		g.Go(func() error {
			<-gctx.Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout())
			defer cancel()
			return a.scheduler.Stop(stopCtx)
		})
	}

	runErr := g.Wait()

	stopCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout())
	defer cancel()
	shutdownErr := a.Shutdown(stopCtx)

	return errors.Join(runErr, shutdownErr)
}

// Pool returns the shared worker pool, or nil before Initialize.
func (a *App) Pool() *workers.Pool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pool
}

// Registry returns the metrics registry, or nil when metrics are disabled.
func (a *App) Registry() *prometheus.Registry {
	return a.registry
}
