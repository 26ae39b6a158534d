// Package workpool assembles a concurrency.Pool from a config.Config,
// wiring logging, Prometheus metrics and OpenTelemetry tracing around it.
package workpool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fluxorio/workpool/pkg/config"
	"github.com/fluxorio/workpool/pkg/core"
	"github.com/fluxorio/workpool/pkg/core/concurrency"
	poolmetrics "github.com/fluxorio/workpool/pkg/observability/prometheus"
	"github.com/fluxorio/workpool/pkg/observability/tracing"
)

// Runtime owns a pool and the observability plumbing built for it
type Runtime struct {
	pool     *concurrency.Pool
	registry *prometheus.Registry
	metrics  *poolmetrics.PoolMetrics
	tracer   tracing.Provider
	logger   core.Logger
}

// Option adjusts how New builds the runtime
type Option func(*settings)

type settings struct {
	logOutput io.Writer
	registry  *prometheus.Registry
	tracing   []tracing.Option
	pool      []concurrency.Option
}

// WithLogOutput sends every log level to w instead of stdout/stderr
func WithLogOutput(w io.Writer) Option {
	return func(s *settings) {
		s.logOutput = w
	}
}

// WithRegistry registers pool metrics on reg instead of a fresh registry
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *settings) {
		s.registry = reg
	}
}

// WithTracingOptions forwards options to tracing.NewProvider
func WithTracingOptions(opts ...tracing.Option) Option {
	return func(s *settings) {
		s.tracing = append(s.tracing, opts...)
	}
}

// WithPoolOptions appends raw pool options, e.g. extra observers
func WithPoolOptions(opts ...concurrency.Option) Option {
	return func(s *settings) {
		s.pool = append(s.pool, opts...)
	}
}

// Load reads a config file with WORKPOOL_* overrides and builds a Runtime
func Load(path string, opts ...Option) (*Runtime, error) {
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return New(cfg, opts...)
}

// New validates cfg and starts a pool wired for it
func New(cfg config.Config, opts ...Option) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := settings{}
	for _, opt := range opts {
		opt(&s)
	}

	level, err := core.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	var logger core.Logger
	if s.logOutput != nil {
		logger = core.NewLogger(s.logOutput, level)
	} else {
		logger = core.NewLogger(os.Stderr, level)
	}

	provider, err := tracing.NewProvider(cfg.Tracing, s.tracing...)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{
		tracer: provider,
		logger: logger,
	}

	poolOpts := []concurrency.Option{
		concurrency.WithName(cfg.Pool.Name),
		concurrency.WithLogger(logger),
		concurrency.WithTracerProvider(provider),
	}
	if cfg.Metrics.Enabled {
		rt.registry = s.registry
		if rt.registry == nil {
			rt.registry = prometheus.NewRegistry()
		}
		rt.metrics, err = poolmetrics.NewPoolMetrics(rt.registry, cfg.Metrics.Namespace, cfg.Pool.Name)
		if err != nil {
			if shutdownErr := provider.Shutdown(context.Background()); shutdownErr != nil {
				err = errors.Join(err, fmt.Errorf("tracing: %w", shutdownErr))
			}
			return nil, err
		}
		poolOpts = append(poolOpts, concurrency.WithObserver(rt.metrics))
	}
	poolOpts = append(poolOpts, s.pool...)

	rt.pool = concurrency.NewWorkerPool(cfg.Pool.Workers, poolOpts...)
	return rt, nil
}

// Pool returns the running pool
func (rt *Runtime) Pool() *concurrency.Pool {
	return rt.pool
}

// Registry returns the metrics registry, or nil when metrics are disabled
func (rt *Runtime) Registry() *prometheus.Registry {
	return rt.registry
}

// Metrics returns the pool collectors, or nil when metrics are disabled
func (rt *Runtime) Metrics() *poolmetrics.PoolMetrics {
	return rt.metrics
}

// Close drains the pool within ctx and then flushes the tracer provider
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	if err := rt.pool.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("pool: %w", err))
	}
	if err := rt.tracer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("tracing: %w", err))
	}
	return errors.Join(errs...)
}
