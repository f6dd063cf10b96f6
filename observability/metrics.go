package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records parse and sampling metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordParse records an expression parse with its duration and error
	// status.
	RecordParse(ctx context.Context, duration time.Duration, err error)

	// RecordSample records a sampling run with the number of points kept and
	// dropped.
	RecordSample(ctx context.Context, kept, dropped int, duration time.Duration, err error)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	parses        metric.Int64Counter
	parseErrors   metric.Int64Counter
	parseLatency  metric.Float64Histogram
	sampleRuns    metric.Int64Counter
	samplePoints  metric.Int64Counter
	sampleDropped metric.Int64Counter
	sampleLatency metric.Float64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("plotexpr")

	parses, err := meter.Int64Counter("plotexpr.parse.count",
		metric.WithDescription("Number of expressions parsed"),
	)
	if err != nil {
		return nil, err
	}

	parseErrors, err := meter.Int64Counter("plotexpr.parse.errors",
		metric.WithDescription("Number of expressions that failed to parse"),
	)
	if err != nil {
		return nil, err
	}

	parseLatency, err := meter.Float64Histogram("plotexpr.parse.latency_ms",
		metric.WithDescription("Expression parse latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	sampleRuns, err := meter.Int64Counter("plotexpr.sample.runs",
		metric.WithDescription("Number of sampling runs"),
	)
	if err != nil {
		return nil, err
	}

	samplePoints, err := meter.Int64Counter("plotexpr.sample.points",
		metric.WithDescription("Number of points produced by sampling"),
	)
	if err != nil {
		return nil, err
	}

	sampleDropped, err := meter.Int64Counter("plotexpr.sample.dropped",
		metric.WithDescription("Number of sample points dropped as undefined or out of bounds"),
	)
	if err != nil {
		return nil, err
	}

	sampleLatency, err := meter.Float64Histogram("plotexpr.sample.latency_ms",
		metric.WithDescription("Sampling run latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		parses:        parses,
		parseErrors:   parseErrors,
		parseLatency:  parseLatency,
		sampleRuns:    sampleRuns,
		samplePoints:  samplePoints,
		sampleDropped: sampleDropped,
		sampleLatency: sampleLatency,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordParse records an expression parse.
func (m *otelMetrics) RecordParse(ctx context.Context, duration time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.Bool("success", err == nil),
	)
	m.parses.Add(ctx, 1)
	if err != nil {
		m.parseErrors.Add(ctx, 1)
	}
	m.parseLatency.Record(ctx, Milliseconds(duration), attrs)
}

// RecordSample records a sampling run.
func (m *otelMetrics) RecordSample(ctx context.Context, kept, dropped int, duration time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.Bool("success", err == nil),
	)
	m.sampleRuns.Add(ctx, 1, attrs)
	m.samplePoints.Add(ctx, int64(kept), attrs)
	m.sampleDropped.Add(ctx, int64(dropped), attrs)
	m.sampleLatency.Record(ctx, Milliseconds(duration), attrs)
}
