package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math/big"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"

	"github.com/zephyrtronium/plotexpr"
	"github.com/zephyrtronium/plotexpr/cache"
	"github.com/zephyrtronium/plotexpr/config"
	"github.com/zephyrtronium/plotexpr/observability"
)

const usage = `usage: plotexpr [flags] expr...

Samples each expression of x over a range and prints the points, one
"x<TAB>y" line per point under a "# expr" header, or a JSON array with -fmt
json. Points where an expression is undefined or too large are left out.

Functions: sin cos tan sqrt abs exp log ln (log is the natural logarithm).
Constants: pi e. Products may be implicit, as in 2x or 3sin(x).

With -i, each line of standard input is "expr [; from to step]".

Flags:
`

func main() {
	log.SetFlags(0)
	var (
		cfgname, format, at string
		from, to, step      float64
		workers             int
		prec                uint
		interactive, echo   bool
		verbose             bool
	)
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.StringVar(&cfgname, "config", "", "YAML or JSON config file")
	flag.Float64Var(&from, "from", 0, "start of the sampling range (default from config)")
	flag.Float64Var(&to, "to", 0, "end of the sampling range (default from config)")
	flag.Float64Var(&step, "step", 0, "sampling step (default from config)")
	flag.IntVar(&workers, "workers", 0, "number of expressions sampled concurrently (default from config)")
	flag.StringVar(&format, "fmt", "", "output format, tsv or json (default from config)")
	flag.StringVar(&at, "at", "", "evaluate at this x instead of sampling")
	flag.UintVar(&prec, "p", 0, "precision of -at calculations in bits (default from config)")
	flag.BoolVar(&interactive, "i", false, "read expressions and ranges from standard input")
	flag.BoolVar(&echo, "echo", false, "print parse trees")
	flag.BoolVar(&verbose, "v", false, "log debug information to stderr")
	flag.Parse()

	cfg := config.Default()
	if cfgname != "" {
		var err error
		cfg, err = config.FromFile(cfgname)
		if err != nil {
			log.Fatal(err)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "from":
			cfg.Range.From = from
		case "to":
			cfg.Range.To = to
		case "step":
			cfg.Range.Step = step
		case "workers":
			cfg.Workers = workers
		case "fmt":
			cfg.Format = format
		case "p":
			cfg.Precision = prec
		case "v":
			if verbose {
				cfg.LogLevel = "debug"
			}
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: observability.NewMetricsRecorder(),
		echo:    echo,
		out:     bufio.NewWriter(os.Stdout),
	}
	app.sampler = plotexpr.NewSampler(append(cfg.SampleOptions(),
		plotexpr.SampleLogger(logger),
		plotexpr.SampleMetrics(app.metrics),
		plotexpr.SampleTracing(observability.NewSpanManager()),
	)...)
	defer app.out.Flush()

	var err error
	switch {
	case interactive:
		err = app.repl(ctx, os.Stdin)
	case flag.NArg() == 0:
		flag.Usage()
		os.Exit(2)
	case at != "":
		err = app.evalAt(ctx, at, flag.Args())
	default:
		err = app.sampleAll(ctx, flag.Args())
	}
	if err != nil {
		app.out.Flush()
		log.Fatal(err)
	}
}

type app struct {
	cfg     config.Config
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	sampler *plotexpr.Sampler
	echo    bool
	out     *bufio.Writer
}

// result is the outcome of sampling one expression.
type result struct {
	Expr   string           `json:"expr"`
	Tree   string           `json:"tree,omitempty"`
	Points []plotexpr.Point `json:"points"`
	Err    string           `json:"error,omitempty"`
}

// parse parses src, recording metrics and logging failures.
func (a *app) parse(ctx context.Context, src string, compile func(string) (*plotexpr.Expr, error)) (*plotexpr.Expr, error) {
	done := observability.TimedOperation()
	e, err := compile(src)
	a.metrics.RecordParse(ctx, done(), err)
	if err != nil {
		observability.LogParseError(a.logger, src, err)
		return nil, fmt.Errorf("%q: %w", src, err)
	}
	return e, nil
}

// sampleAll samples each expression concurrently and writes the results in
// argument order.
func (a *app) sampleAll(ctx context.Context, srcs []string) error {
	results := make([]result, len(srcs))
	sem := make(chan struct{}, a.cfg.Workers)
	var wg sync.WaitGroup
	for i, src := range srcs {
		wg.Add(1)
		go func(i int, src string) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				results[i] = result{Expr: src, Err: ctx.Err().Error()}
				return
			case sem <- struct{}{}:
			}
			defer func() { <-sem }()
			results[i] = a.sampleOne(ctx, src, a.cfg.SampleRange(), plotexpr.Parse)
		}(i, src)
	}
	wg.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != "" {
			failed++
		}
	}
	if err := a.write(results); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d expressions failed", failed, len(srcs))
	}
	return nil
}

func (a *app) sampleOne(ctx context.Context, src string, r plotexpr.Range, compile func(string) (*plotexpr.Expr, error)) result {
	res := result{Expr: src}
	e, err := a.parse(ctx, src, compile)
	if err != nil {
		res.Err = err.Error()
		return res
	}
	if a.echo {
		res.Tree = e.String()
	}
	pts, err := a.sampler.Sample(ctx, e.Root(), r)
	if err != nil {
		res.Err = err.Error()
		return res
	}
	res.Points = pts
	return res
}

// evalAt evaluates each expression at the single point x to the configured
// precision.
func (a *app) evalAt(ctx context.Context, at string, srcs []string) error {
	x, _, err := big.ParseFloat(at, 10, a.cfg.Precision, big.ToNearestEven)
	if err != nil {
		return fmt.Errorf("-at %q: %w", at, err)
	}
	pc := plotexpr.NewContext(a.cfg.Precision).Set(x)
	for _, src := range srcs {
		e, err := a.parse(ctx, src, plotexpr.Parse)
		if err != nil {
			return err
		}
		if a.echo {
			fmt.Fprintf(a.out, "%v : ", e)
		}
		r := pc.Eval(e)
		if r == nil {
			fmt.Fprintln(a.out, pc.Err())
			continue
		}
		fmt.Fprintln(a.out, formatBig(r))
	}
	return nil
}

// repl samples one expression per input line until EOF. Compiled
// expressions are cached, so changing only the range does not re-parse.
func (a *app) repl(ctx context.Context, in io.Reader) error {
	c := cache.New(a.cfg.CacheSize)
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		src, r := a.splitRange(line)
		res := a.sampleOne(ctx, src, r, c.Compile)
		if err := a.write([]result{res}); err != nil {
			return err
		}
		if err := a.out.Flush(); err != nil {
			return err
		}
	}
	s := c.Stats()
	a.logger.Debug("interactive session ended",
		slog.Int("cache_hits", s.Hits),
		slog.Int("cache_misses", s.Misses),
		slog.Int("cache_evictions", s.Evictions),
	)
	return sc.Err()
}

// splitRange separates a trailing "; from to step" from an input line. Lines
// without one use the configured range. A malformed range stays in the line,
// so the expression fails to parse at the semicolon.
func (a *app) splitRange(line string) (string, plotexpr.Range) {
	r := a.cfg.SampleRange()
	src, rng, ok := strings.Cut(line, ";")
	if !ok {
		return line, r
	}
	f := strings.Fields(rng)
	if len(f) != 3 {
		return line, r
	}
	var v [3]float64
	for i, s := range f {
		x, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return line, r
		}
		v[i] = x
	}
	return strings.TrimSpace(src), plotexpr.Range{Start: v[0], End: v[1], Step: v[2]}
}
