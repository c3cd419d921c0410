// Package metrics provides OpenTelemetry metrics instrumentation with Prometheus export.
// Ledger operations and HTTP requests are recorded through meters obtained from Provider.
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// Provider owns the meter provider and the Prometheus registry it is exported through.
type Provider struct {
	meterProvider *metric.MeterProvider
	exporter      *promexporter.Exporter
	registry      *prometheus.Registry
}

// ProviderOption adds resource attributes to the exported target_info series.
type ProviderOption func(*providerOptions)

type providerOptions struct {
	serviceVersion string
}

// WithServiceVersion reports the running build as service.version.
func WithServiceVersion(version string) ProviderOption {
	return func(o *providerOptions) {
		o.serviceVersion = version
	}
}

// NewProvider creates a meter provider exporting to a private Prometheus registry.
// The namespace prefixes metric names (e.g. "tokenledger") and doubles as service.name.
func NewProvider(namespace string, opts ...ProviderOption) (*Provider, error) {
	options := &providerOptions{}
	for _, opt := range opts {
		opt(options)
	}

	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(
		promexporter.WithRegisterer(registry),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	meterProvider := metric.NewMeterProvider(
		metric.WithReader(exporter),
		metric.WithResource(newResource(namespace, options)),
	)

	return &Provider{
		meterProvider: meterProvider,
		exporter:      exporter,
		registry:      registry,
	}, nil
}

func newResource(namespace string, options *providerOptions) *resource.Resource {
	attrs := make([]attribute.KeyValue, 0, 2)
	if namespace != "" {
		attrs = append(attrs, attribute.String("service.name", namespace))
	}
	if options.serviceVersion != "" {
		attrs = append(attrs, attribute.String("service.version", options.serviceVersion))
	}
	return resource.NewSchemaless(attrs...)
}

// Handler serves the registry in Prometheus exposition format on the metrics port.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// MeterProvider returns the provider business and HTTP meters are created from.
func (p *Provider) MeterProvider() *metric.MeterProvider {
	return p.meterProvider
}

// Shutdown flushes and stops the meter provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.meterProvider == nil {
		return nil
	}
	return p.meterProvider.Shutdown(ctx)
}
