package tracing

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/fluxorio/workpool/pkg/config"
)

// Provider is a trace.TracerProvider that must be shut down to flush spans
type Provider interface {
	trace.TracerProvider
	Shutdown(ctx context.Context) error
}

type noopProvider struct {
	noop.TracerProvider
}

func (noopProvider) Shutdown(context.Context) error { return nil }

// Option tweaks provider construction
type Option func(*settings)

type settings struct {
	stdout io.Writer
}

// WithStdoutWriter redirects the stdout exporter, mainly for tests
func WithStdoutWriter(w io.Writer) Option {
	return func(s *settings) {
		s.stdout = w
	}
}

// NewProvider builds a tracer provider for cfg.Exporter.
// "none" returns a no-op provider that records nothing.
func NewProvider(cfg config.TracingConfig, opts ...Option) (Provider, error) {
	s := settings{stdout: os.Stdout}
	for _, opt := range opts {
		opt(&s)
	}

	var (
		exporter sdktrace.SpanExporter
		err      error
	)
	switch cfg.Exporter {
	case "", config.ExporterNone:
		return noopProvider{}, nil
	case config.ExporterStdout:
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(s.stdout))
	case config.ExporterZipkin:
		exporter, err = zipkin.New(cfg.Endpoint)
	default:
		return nil, fmt.Errorf("unknown tracing exporter %q", cfg.Exporter)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s exporter: %w", cfg.Exporter, err)
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "workpool"
	}
	res := resource.NewSchemaless(attribute.String("service.name", serviceName))

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	), nil
}
