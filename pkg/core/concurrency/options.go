package concurrency

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/fluxorio/workpool/pkg/core"
)

const (
	defaultPoolName     = "workpool"
	instrumentationName = "github.com/fluxorio/workpool/pkg/core/concurrency"
)

// Option configures a Pool.
type Option func(*options)

type options struct {
	name      string
	logger    core.Logger
	observers []Observer
	tracer    trace.Tracer
}

func defaultOptions() options {
	return options{
		name:   defaultPoolName,
		logger: core.NewDefaultLogger(),
	}
}

// WithName sets the pool name used in logs, spans and metrics.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger core.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithObserver adds an observer.
func WithObserver(observer Observer) Option {
	return func(o *options) {
		if observer != nil {
			o.observers = append(o.observers, observer)
		}
	}
}

// WithTracerProvider traces every task execution with a tracer from tp.
// Without it the global provider is used, which is a no-op unless the
// application installed one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		if tp != nil {
			o.tracer = tp.Tracer(instrumentationName)
		}
	}
}

func (o *options) resolveTracer() trace.Tracer {
	if o.tracer != nil {
		return o.tracer
	}
	return otel.Tracer(instrumentationName)
}
