package plotexpr

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/zephyrtronium/plotexpr/observability"
)

const (
	// DefaultBound is the default magnitude at or above which sampled values
	// are dropped.
	DefaultBound = 1e10
	// DefaultLimit is the default maximum number of candidate points in one
	// sampling run.
	DefaultLimit = 1000000
)

// gridSlack absorbs rounding in (End-Start)/Step so that an end point lying
// on the grid is sampled.
const gridSlack = 1e-9

// Range is a closed interval of x sampled at a fixed step.
type Range struct {
	Start, End, Step float64
}

// Len returns the number of candidate points in the range, which is zero for
// a degenerate range. The result is a float64 because tiny steps can give
// counts that overflow int.
func (r Range) Len() float64 {
	if r.Step <= 0 || r.Start > r.End || !finite(r.Start) || !finite(r.End) || !finite(r.Step) {
		return 0
	}
	return math.Floor((r.End-r.Start)/r.Step+gridSlack) + 1
}

// Point is a sampled point of an expression.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// SampleStats counts the points considered by a sampling run.
type SampleStats struct {
	// Candidates is the number of grid points in the range.
	Candidates int
	// Kept is the number of points in the result.
	Kept int
	// Dropped is the number of points that were undefined, non-finite, or
	// too large.
	Dropped int
}

// SampleOption is an option for a Sampler.
type SampleOption interface {
	sampleOption(*Sampler)
}

type (
	boundopt   float64
	limitopt   int
	loggeropt  struct{ l *slog.Logger }
	metricsopt struct{ m observability.MetricsRecorder }
	tracingopt struct{ s observability.SpanManager }
)

// SampleBound sets the magnitude at or above which sampled values are
// dropped. Non-positive or NaN bounds are ignored.
func SampleBound(bound float64) SampleOption {
	return boundopt(bound)
}

func (o boundopt) sampleOption(s *Sampler) {
	if o > 0 {
		s.bound = float64(o)
	}
}

// SampleLimit sets the maximum number of candidate points in one run. Ranges
// with more points fail with a *RangeError before any evaluation.
// Non-positive limits are ignored.
func SampleLimit(n int) SampleOption {
	return limitopt(n)
}

func (o limitopt) sampleOption(s *Sampler) {
	if o > 0 {
		s.limit = int(o)
	}
}

// SampleLogger sets the logger for sampling runs. A nil logger disables
// logging.
func SampleLogger(l *slog.Logger) SampleOption {
	return loggeropt{l}
}

func (o loggeropt) sampleOption(s *Sampler) {
	s.logger = o.l
}

// SampleMetrics sets the recorder for sampling run metrics.
func SampleMetrics(m observability.MetricsRecorder) SampleOption {
	return metricsopt{m}
}

func (o metricsopt) sampleOption(s *Sampler) {
	if o.m == nil {
		o.m = observability.NoopMetrics{}
	}
	s.metrics = o.m
}

// SampleTracing sets the span manager for sampling runs.
func SampleTracing(sm observability.SpanManager) SampleOption {
	return tracingopt{sm}
}

func (o tracingopt) sampleOption(s *Sampler) {
	if o.s == nil {
		o.s = observability.NoopSpanManager{}
	}
	s.spans = o.s
}

// Sampler evaluates expressions over ranges. A Sampler holds only its
// options, so it is safe to use concurrently.
type Sampler struct {
	bound   float64
	limit   int
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
}

// NewSampler creates a sampler with the given options. By default, values
// with magnitude of at least DefaultBound are dropped, ranges are limited to
// DefaultLimit points, and there is no logging, metrics, or tracing.
func NewSampler(opts ...SampleOption) *Sampler {
	s := &Sampler{
		bound:   DefaultBound,
		limit:   DefaultLimit,
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
	for _, opt := range opts {
		opt.sampleOption(s)
	}
	return s
}

var defaultSampler = NewSampler()

// Sample evaluates n at each point of r with the default sampler.
func Sample(ctx context.Context, n *Node, r Range) ([]Point, error) {
	return defaultSampler.Sample(ctx, n, r)
}

// Sample evaluates the expression at each point of r.
func (e *Expr) Sample(ctx context.Context, r Range, opts ...SampleOption) ([]Point, error) {
	s := defaultSampler
	if len(opts) != 0 {
		s = NewSampler(opts...)
	}
	return s.Sample(ctx, e.n, r)
}

// Sample evaluates n at x = r.Start + i*r.Step for each i such that x does not
// pass r.End, in order. Points where the expression is undefined, non-finite,
// or too large are left out. A degenerate range gives no points and no error.
//
// Errors in the tree itself, such as calls of unknown functions, fail the run
// before any point is evaluated. Cancelling ctx also stops the run with ctx's error.
func (s *Sampler) Sample(ctx context.Context, n *Node, r Range) ([]Point, error) {
	pts, _, err := s.SampleStats(ctx, n, r)
	return pts, err
}

// SampleStats is like Sample but also counts kept and dropped points.
func (s *Sampler) SampleStats(ctx context.Context, n *Node, r Range) (pts []Point, stats SampleStats, err error) {
	count := r.Len()
	if count == 0 {
		return []Point{}, stats, nil
	}
	if count > float64(s.limit) {
		return nil, stats, &RangeError{Range: r, Len: count, Limit: s.limit}
	}
	stats.Candidates = int(count)

	runID := observability.NewRunID()
	ctx, span := s.spans.StartSampleSpan(ctx, n, runID)
	observability.LogSampleStart(s.logger, runID, r.Start, r.End, r.Step)
	done := observability.TimedOperation()
	defer func() {
		elapsed := done()
		s.metrics.RecordSample(ctx, stats.Kept, stats.Dropped, elapsed, err)
		s.spans.EndSpanWithError(span, err)
		if err != nil {
			observability.LogSampleError(s.logger, runID, err, observability.Milliseconds(elapsed))
			return
		}
		observability.LogSampleComplete(s.logger, runID, observability.Milliseconds(elapsed), stats.Kept, stats.Dropped)
	}()

	// Point errors can hide errors in the tree at every x, so find those
	// first.
	if err = Validate(n); err != nil {
		return nil, stats, err
	}

	pts = make([]Point, 0, stats.Candidates)
	for i := 0; i < stats.Candidates; i++ {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		x := r.Start + float64(i)*r.Step
		if x > r.End {
			// Only the last point can overshoot, by rounding.
			x = r.End
		}
		y, err := Evaluate(n, x)
		switch {
		case IsPointError(err):
			stats.Dropped++
			observability.LogPointDropped(s.logger, runID, x, err.Error())
			continue
		case err != nil:
			return nil, stats, fmt.Errorf("sampling at x=%g: %w", x, err)
		case !finite(y):
			stats.Dropped++
			observability.LogPointDropped(s.logger, runID, x, "non-finite value")
			continue
		case math.Abs(y) >= s.bound:
			stats.Dropped++
			observability.LogPointDropped(s.logger, runID, x, "value out of bounds")
			continue
		}
		pts = append(pts, Point{X: x, Y: y})
	}
	stats.Kept = len(pts)
	return pts, stats, nil
}

func finite(x float64) bool {
	return !math.IsInf(x, 0) && !math.IsNaN(x)
}

// RangeError is an error for a range with more points than a sampler allows.
type RangeError struct {
	// Range is the requested range.
	Range Range
	// Len is the number of points in the range.
	Len float64
	// Limit is the sampler's limit.
	Limit int
}

func (err *RangeError) Error() string {
	return "range has " + strconv.FormatFloat(err.Len, 'g', -1, 64) + " points, more than the limit of " + strconv.Itoa(err.Limit)
}
