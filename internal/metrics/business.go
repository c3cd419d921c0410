package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// BusinessMetrics records ledger operation metrics.
type BusinessMetrics interface {
	// RecordOperation records a business operation with its status.
	// Domain examples: "ledger", "anchor"
	// Operation examples: "token_store", "token_verify", "ownership_transfer"
	// Status examples: "success", "error"
	RecordOperation(ctx context.Context, domain, operation, status string)

	// RecordDuration records the duration of a business operation in seconds.
	RecordDuration(ctx context.Context, domain, operation string, duration time.Duration, status string)

	// RecordVerification counts verification attempts by outcome ("hit" or "miss").
	RecordVerification(ctx context.Context, found bool)

	// RecordAnchorPublish counts anchor publish attempts per publisher.
	RecordAnchorPublish(ctx context.Context, publisher, status string)
}

// businessMetrics implements BusinessMetrics using OpenTelemetry metrics.
type businessMetrics struct {
	operationCounter    metric.Int64Counter
	durationHisto       metric.Float64Histogram
	verificationCounter metric.Int64Counter
	anchorCounter       metric.Int64Counter
}

// NewBusinessMetrics creates a BusinessMetrics backed by the given meter provider.
// The namespace is used as a prefix for all metric names (e.g., "tokenledger").
func NewBusinessMetrics(meterProvider metric.MeterProvider, namespace string) (BusinessMetrics, error) {
	meter := meterProvider.Meter(namespace)

	operationCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_operations_total", namespace),
		metric.WithDescription("Total number of business operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation counter: %w", err)
	}

	durationHisto, err := meter.Float64Histogram(
		fmt.Sprintf("%s_operation_duration_seconds", namespace),
		metric.WithDescription("Duration of business operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	verificationCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_verifications_total", namespace),
		metric.WithDescription("Total number of token verifications by outcome"),
		metric.WithUnit("{verification}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create verification counter: %w", err)
	}

	anchorCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_anchor_publish_total", namespace),
		metric.WithDescription("Total number of anchor publish attempts"),
		metric.WithUnit("{publish}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create anchor counter: %w", err)
	}

	return &businessMetrics{
		operationCounter:    operationCounter,
		durationHisto:       durationHisto,
		verificationCounter: verificationCounter,
		anchorCounter:       anchorCounter,
	}, nil
}

// RecordOperation increments the operation counter with domain, operation, and status labels.
func (b *businessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	b.operationCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("domain", domain),
			attribute.String("operation", operation),
			attribute.String("status", status),
		),
	)
}

// RecordDuration records the operation duration in seconds with domain, operation, and status labels.
func (b *businessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	b.durationHisto.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("domain", domain),
			attribute.String("operation", operation),
			attribute.String("status", status),
		),
	)
}

// RecordVerification increments the verification counter with an outcome label.
func (b *businessMetrics) RecordVerification(ctx context.Context, found bool) {
	outcome := "miss"
	if found {
		outcome = "hit"
	}
	b.verificationCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordAnchorPublish increments the anchor counter with publisher and status labels.
func (b *businessMetrics) RecordAnchorPublish(ctx context.Context, publisher, status string) {
	b.anchorCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("publisher", publisher),
			attribute.String("status", status),
		),
	)
}

// NoOpBusinessMetrics is a no-op implementation of BusinessMetrics for when metrics are disabled.
type NoOpBusinessMetrics struct{}

// NewNoOpBusinessMetrics creates a no-op BusinessMetrics implementation.
func NewNoOpBusinessMetrics() BusinessMetrics {
	return &NoOpBusinessMetrics{}
}

// RecordOperation does nothing.
func (n *NoOpBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {}

// RecordDuration does nothing.
func (n *NoOpBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
}

// RecordVerification does nothing.
func (n *NoOpBusinessMetrics) RecordVerification(ctx context.Context, found bool) {}

// RecordAnchorPublish does nothing.
func (n *NoOpBusinessMetrics) RecordAnchorPublish(ctx context.Context, publisher, status string) {}
