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

	"github.com/maltyxx/zenject/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
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

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
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

// Metrics holds OpenTelemetry instruments for runtime observability.
type Metrics struct {
	moduleLoadTotal    metric.Int64Counter
	moduleLoadDuration metric.Float64Histogram
	providerTotal      metric.Int64Counter
	teardownTotal      metric.Int64Counter
	errorTotal         metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	moduleLoadTotal, err := meter.Int64Counter("zenject.module.load.total",
		metric.WithDescription("Total number of module loads"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating module.load.total counter: %w", err)
	}

	moduleLoadDuration, err := meter.Float64Histogram("zenject.module.load.duration",
		metric.WithDescription("Duration of module loads in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating module.load.duration histogram: %w", err)
	}

	providerTotal, err := meter.Int64Counter("zenject.provider.registered.total",
		metric.WithDescription("Total number of provider registrations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating provider.registered.total counter: %w", err)
	}

	teardownTotal, err := meter.Int64Counter("zenject.teardown.total",
		metric.WithDescription("Total number of teardown hook invocations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating teardown.total counter: %w", err)
	}

	errorTotal, err := meter.Int64Counter("zenject.error.total",
		metric.WithDescription("Total errors by type and module"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating error.total counter: %w", err)
	}

	return &Metrics{
		moduleLoadTotal:    moduleLoadTotal,
		moduleLoadDuration: moduleLoadDuration,
		providerTotal:      providerTotal,
		teardownTotal:      teardownTotal,
		errorTotal:         errorTotal,
	}, nil
}

// RecordModuleLoad records a completed module load.
func (m *Metrics) RecordModuleLoad(ctx context.Context, module, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("module", module),
		attribute.String("status", status),
	)
	m.moduleLoadTotal.Add(ctx, 1, attrs)
	m.moduleLoadDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("module", module),
	))
}

// RecordProvider records a provider registration.
func (m *Metrics) RecordProvider(ctx context.Context, kind string) {
	m.providerTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
	))
}

// RecordTeardown records a teardown hook invocation.
func (m *Metrics) RecordTeardown(ctx context.Context, status string) {
	m.teardownTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", status),
	))
}

// RecordError records an error by type and module.
func (m *Metrics) RecordError(ctx context.Context, errType, module string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", errType),
		attribute.String("module", module),
	))
}
