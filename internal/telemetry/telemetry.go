// Package telemetry installs the OpenTelemetry SDK providers for packeval.
//
// Metrics flow through a pull-based prometheus reader into the registry
// served by the HTTP /metrics endpoint; no collector is involved.
// Instrumented packages keep using the otel globals, which record into the
// no-op provider until New runs, so telemetry stays optional for tests and
// library use.
package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// Config describes the instrumented service.
type Config struct {
	ServiceName    string
	ServiceVersion string
}

// Option configures provider creation.
type Option func(*options)

type options struct {
	registerer prometheus.Registerer
}

// WithRegisterer directs exported metrics at a specific prometheus registry
// instead of the default one. Tests use this to gather in isolation.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = r
	}
}

// Telemetry owns the installed providers and their shutdown.
type Telemetry struct {
	meterProvider *sdkmetric.MeterProvider
}

// New builds a MeterProvider backed by a prometheus reader, installs it as
// the global provider, and returns a handle for shutdown.
//
// Traces are left on the global provider: spans are recorded only if the
// embedding process installs a TracerProvider of its own.
func New(cfg Config, opts ...Option) (*Telemetry, error) {
	o := options{registerer: prometheus.DefaultRegisterer}
	for _, opt := range opts {
		opt(&o)
	}

	// Standalone resource to avoid schema URL conflicts with
	// resource.Default(), which uses a different semconv version.
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	)

	exporter, err := otelprom.New(otelprom.WithRegisterer(o.registerer))
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(mp)

	return &Telemetry{meterProvider: mp}, nil
}

// Shutdown flushes and stops the installed providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil || t.meterProvider == nil {
		return nil
	}
	if err := t.meterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("meter provider shutdown: %w", err)
	}
	return nil
}
