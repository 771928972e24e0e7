package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/rendergraph/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the process embedding the render graph.
	ServiceName string
	// ServiceVersion is the version of that process.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider and installs it
// globally. The returned provider should be shut down on exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments for graph validation and engine handoff.
type Metrics struct {
	validationTotal    metric.Int64Counter
	validationDuration metric.Float64Histogram
	diagnosticTotal    metric.Int64Counter
	submissionTotal    metric.Int64Counter
	submissionDuration metric.Float64Histogram
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	validationTotal, err := meter.Int64Counter("graph.validation.total",
		metric.WithDescription("Total number of graph validations by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating graph.validation.total counter: %w", err)
	}

	validationDuration, err := meter.Float64Histogram("graph.validation.duration",
		metric.WithDescription("Duration of graph validations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating graph.validation.duration histogram: %w", err)
	}

	diagnosticTotal, err := meter.Int64Counter("graph.diagnostic.total",
		metric.WithDescription("Total validator diagnostics by code and severity"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating graph.diagnostic.total counter: %w", err)
	}

	submissionTotal, err := meter.Int64Counter("graph.submission.total",
		metric.WithDescription("Total number of engine submissions by status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating graph.submission.total counter: %w", err)
	}

	submissionDuration, err := meter.Float64Histogram("graph.submission.duration",
		metric.WithDescription("Duration of engine submissions in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating graph.submission.duration histogram: %w", err)
	}

	return &Metrics{
		validationTotal:    validationTotal,
		validationDuration: validationDuration,
		diagnosticTotal:    diagnosticTotal,
		submissionTotal:    submissionTotal,
		submissionDuration: submissionDuration,
	}, nil
}

// RecordValidation records one validator run. The outcome attribute is
// "executable" when errs is zero and "rejected" otherwise.
func (m *Metrics) RecordValidation(ctx context.Context, graph string, errs, warnings int, duration time.Duration) {
	outcome := "executable"
	if errs > 0 {
		outcome = "rejected"
	}
	m.validationTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("graph", graph),
		attribute.String("outcome", outcome),
		attribute.Bool("warnings", warnings > 0),
	))
	m.validationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("graph", graph),
	))
}

// RecordDiagnostic counts one validator diagnostic.
func (m *Metrics) RecordDiagnostic(ctx context.Context, code, severity string) {
	m.diagnosticTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("code", code),
		attribute.String("severity", severity),
	))
}

// RecordSubmission records one engine handoff.
func (m *Metrics) RecordSubmission(ctx context.Context, graph, status string, duration time.Duration) {
	m.submissionTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("graph", graph),
		attribute.String("status", status),
	))
	m.submissionDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("graph", graph),
	))
}
