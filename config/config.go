// Package config loads sampler and command settings from YAML or JSON.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"

	"github.com/zephyrtronium/plotexpr"
)

// Config holds the settings for sampling expressions.
type Config struct {
	// Range is the default sampling range.
	Range Range `yaml:"range" json:"range"`
	// Bound is the magnitude at or above which sampled values are dropped.
	Bound float64 `yaml:"bound" json:"bound"`
	// Limit is the maximum number of points in one sampling run.
	Limit int `yaml:"limit" json:"limit"`
	// Workers is the number of expressions sampled concurrently.
	Workers int `yaml:"workers" json:"workers"`
	// Precision is the number of bits used for evaluation at a single point.
	Precision uint `yaml:"precision" json:"precision"`
	// CacheSize is the number of compiled expressions kept in interactive
	// mode.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
	// LogLevel is one of debug, info, warn, or error.
	LogLevel string `yaml:"log_level" json:"log_level"`
	// Format is the output format, tsv or json.
	Format string `yaml:"format" json:"format"`
}

// Range is a sampling range.
type Range struct {
	From float64 `yaml:"from" json:"from"`
	To   float64 `yaml:"to" json:"to"`
	Step float64 `yaml:"step" json:"step"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Range:     Range{From: -10, To: 10, Step: 0.1},
		Bound:     plotexpr.DefaultBound,
		Limit:     plotexpr.DefaultLimit,
		Workers:   runtime.GOMAXPROCS(0),
		Precision: 64,
		CacheSize: 256,
		LogLevel:  "warn",
		Format:    "tsv",
	}
}

var (
	// ErrInvalid is the error that validation errors wrap.
	ErrInvalid = errors.New("invalid config")
)

// Validate reports the first invalid setting, if any. Errors wrap ErrInvalid.
func (c Config) Validate() error {
	switch {
	case !finite(c.Range.From) || !finite(c.Range.To) || !finite(c.Range.Step):
		return fmt.Errorf("%w: range must be finite", ErrInvalid)
	case c.Range.Step <= 0:
		return fmt.Errorf("%w: range step must be positive, got %g", ErrInvalid, c.Range.Step)
	case c.Range.From > c.Range.To:
		return fmt.Errorf("%w: range from %g is after to %g", ErrInvalid, c.Range.From, c.Range.To)
	case !(c.Bound > 0):
		return fmt.Errorf("%w: bound must be positive, got %g", ErrInvalid, c.Bound)
	case c.Limit <= 0:
		return fmt.Errorf("%w: limit must be positive, got %d", ErrInvalid, c.Limit)
	case c.Workers <= 0:
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalid, c.Workers)
	case c.Precision == 0 || c.Precision > 1<<16:
		return fmt.Errorf("%w: precision must be between 1 and %d bits, got %d", ErrInvalid, 1<<16, c.Precision)
	case c.CacheSize < 0:
		return fmt.Errorf("%w: cache size must not be negative, got %d", ErrInvalid, c.CacheSize)
	case c.Format != "tsv" && c.Format != "json":
		return fmt.Errorf("%w: unknown format %q", ErrInvalid, c.Format)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level returns the slog level named by LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: log level: %v", ErrInvalid, err)
	}
	return l, nil
}

// SampleRange returns the configured range.
func (c Config) SampleRange() plotexpr.Range {
	return plotexpr.Range{Start: c.Range.From, End: c.Range.To, Step: c.Range.Step}
}

// SampleOptions returns sampler options for the configured bound and limit.
func (c Config) SampleOptions() []plotexpr.SampleOption {
	return []plotexpr.SampleOption{
		plotexpr.SampleBound(c.Bound),
		plotexpr.SampleLimit(c.Limit),
	}
}

func finite(x float64) bool {
	return !math.IsInf(x, 0) && !math.IsNaN(x)
}
