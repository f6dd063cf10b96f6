// Package observability provides logging, metrics, and tracing for sampling
// runs: structured logging via slog, metrics and traces via OpenTelemetry.
//
// Everything is opt-in, with no-op implementations when disabled.
package observability

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// NewRunID returns an identifier for a sampling run.
func NewRunID() string {
	return fmt.Sprintf("sample-%s", uuid.New().String()[:8])
}

// LogParseError logs an expression that failed to parse.
func LogParseError(logger *slog.Logger, src string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("expression parse failed",
		slog.String("expr", src),
		slog.String("error", err.Error()),
	)
}

// LogSampleStart logs the start of a sampling run.
func LogSampleStart(logger *slog.Logger, runID string, start, end, step float64) {
	if logger == nil {
		return
	}
	logger.Debug("sampling starting",
		slog.String("run_id", runID),
		slog.Float64("start", start),
		slog.Float64("end", end),
		slog.Float64("step", step),
	)
}

// LogSampleComplete logs successful sampling run completion.
func LogSampleComplete(logger *slog.Logger, runID string, durationMs float64, kept, dropped int) {
	if logger == nil {
		return
	}
	logger.Debug("sampling completed",
		slog.String("run_id", runID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("points", kept),
		slog.Int("dropped", dropped),
	)
}

// LogPointDropped logs a sample point left out of the result.
func LogPointDropped(logger *slog.Logger, runID string, x float64, reason string) {
	if logger == nil {
		return
	}
	logger.Debug("point dropped",
		slog.String("run_id", runID),
		slog.Float64("x", x),
		slog.String("reason", reason),
	)
}

// LogSampleError logs sampling run failure.
func LogSampleError(logger *slog.Logger, runID string, err error, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Error("sampling failed",
		slog.String("run_id", runID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	elapsed := done()
func TimedOperation() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}

// Milliseconds converts a duration to fractional milliseconds for logging.
func Milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
