package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"qpcrscore/internal/config"
	"qpcrscore/pkg/contracts"
	"qpcrscore/pkg/contracts/domain"
)

const (
	ServiceName = "qpcrscore"
	MeterName   = "qpcrscore"
)

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// InitializeOTel initializes tracing and metrics. Each call gets its own
// Prometheus registry so repeated initialisation (tests, multiple apps in
// one process) never collides.
func InitializeOTel(cfg config.TelemetryConfig, logger *slog.Logger) (*OTelProviders, error) {
	ctx := context.Background()
	if logger == nil {
		logger = GetLogger()
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(contracts.Version),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", generateInstanceID()),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	providers := &OTelProviders{Logger: logger}

	if err := initializeTracing(ctx, cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if err := initializeMetrics(ctx, cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.InfoContext(ctx, "OpenTelemetry initialized",
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.String("metric_exporter", cfg.MetricExporter))

	return providers, nil
}

func initializeTracing(ctx context.Context, cfg config.TelemetryConfig, res *resource.Resource, providers *OTelProviders) error {
	var opts []sdktrace.TracerProviderOption
	opts = append(opts,
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
	)

	switch cfg.TraceExporter {
	case "stdout":
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(os.Stderr))
		if err != nil {
			return fmt.Errorf("failed to create trace exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	case "none", "":
		// Spans are still created so trace IDs exist for log correlation.
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	tp := sdktrace.NewTracerProvider(opts...)
	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(contracts.Version))
	otel.SetTracerProvider(tp)

	providers.Logger.DebugContext(ctx, "Tracing initialized",
		slog.String("exporter", cfg.TraceExporter),
		slog.Float64("sample_ratio", cfg.SampleRatio))
	return nil
}

func initializeMetrics(ctx context.Context, cfg config.TelemetryConfig, res *resource.Resource, providers *OTelProviders) error {
	switch cfg.MetricExporter {
	case "prometheus":
		registry := prometheus.NewRegistry()
		exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
		if err != nil {
			return fmt.Errorf("failed to create prometheus exporter: %w", err)
		}

		providers.PrometheusHTTP = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)
		providers.MeterProvider = mp
		providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(contracts.Version))
		otel.SetMeterProvider(mp)
	case "none", "":
		providers.Meter = noop.NewMeterProvider().Meter(MeterName)
	default:
		return fmt.Errorf("unsupported metric exporter: %s", cfg.MetricExporter)
	}

	providers.Logger.DebugContext(ctx, "Metrics initialized",
		slog.String("exporter", cfg.MetricExporter))
	return nil
}

// ScoringMetrics holds the scoring instruments
type ScoringMetrics struct {
	BatchesTotal     metric.Int64Counter
	BatchDuration    metric.Float64Histogram
	ReadingsTotal    metric.Int64Counter
	ReadingsFiltered metric.Int64Counter
	WellsScored      metric.Int64Counter
	DegenerateWells  metric.Int64Counter
}

// NewScoringMetrics creates the scoring instruments on meter. A nil meter
// yields no-op instruments.
func NewScoringMetrics(meter metric.Meter) (*ScoringMetrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(MeterName)
	}

	batches, err := meter.Int64Counter("qpcr_batches_total",
		metric.WithDescription("Scoring batches by model and outcome"))
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram("qpcr_batch_duration_seconds",
		metric.WithDescription("Wall time to score one batch"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	readings, err := meter.Int64Counter("qpcr_readings_total",
		metric.WithDescription("Amplification readings loaded"))
	if err != nil {
		return nil, err
	}

	filtered, err := meter.Int64Counter("qpcr_readings_filtered_total",
		metric.WithDescription("Readings dropped for missing deltaRn or sample"))
	if err != nil {
		return nil, err
	}

	wells, err := meter.Int64Counter("qpcr_wells_scored_total",
		metric.WithDescription("Wells scored by classification"))
	if err != nil {
		return nil, err
	}

	degenerate, err := meter.Int64Counter("qpcr_wells_degenerate_total",
		metric.WithDescription("Wells with at least one non-numeric feature"))
	if err != nil {
		return nil, err
	}

	return &ScoringMetrics{
		BatchesTotal:     batches,
		BatchDuration:    duration,
		ReadingsTotal:    readings,
		ReadingsFiltered: filtered,
		WellsScored:      wells,
		DegenerateWells:  degenerate,
	}, nil
}

// RecordBatch records the outcome of one batch. result may be nil on error.
func (m *ScoringMetrics) RecordBatch(ctx context.Context, model domain.ScoringModel, result *domain.BatchResult, duration time.Duration, err error) {
	if m == nil {
		return
	}

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	modelAttr := attribute.String("model", string(model))

	m.BatchesTotal.Add(ctx, 1, metric.WithAttributes(modelAttr, attribute.String("outcome", outcome)))
	m.BatchDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(modelAttr))

	if result == nil {
		return
	}

	s := result.Summary
	m.ReadingsTotal.Add(ctx, int64(s.ReadingsIn))
	m.ReadingsFiltered.Add(ctx, int64(s.ReadingsIn-s.ReadingsKept))
	m.DegenerateWells.Add(ctx, int64(s.DegenerateWells), metric.WithAttributes(modelAttr))
	for label, n := range s.Classifications {
		m.WellsScored.Add(ctx, int64(n), metric.WithAttributes(modelAttr, attribute.String("classification", label)))
	}
}

// Shutdown gracefully shuts down OpenTelemetry providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %v", errs)
	}
	return nil
}

// generateInstanceID generates a unique instance identifier
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, os.Getpid())
}

// TraceIDFromContext extracts trace ID from context for logging correlation
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
