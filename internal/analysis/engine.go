// Package analysis turns a sales.Store into summary tables: overview totals,
// rankings, struggling entities, anomalies and calendar trends.
//
// Every operation is a pure function of the store it is given and returns a
// freshly allocated result; nothing is cached between calls.
package analysis

import (
	"math"

	"github.com/aevon-lab/salescope/internal/core/aggregation"
	"github.com/aevon-lab/salescope/internal/core/sales"
)

// ErrInvalidParameter is returned for out-of-range percentiles, non-positive
// ranking sizes, negative z thresholds and unknown fields or periods.
var ErrInvalidParameter = aggregation.ErrInvalidParameter

const (
	DefaultTopStores            = 10
	DefaultTopCategories        = 5
	DefaultStrugglingPercentile = 25.0
	DefaultAnomalyZ             = 3.0
	DefaultTrendGranularity     = aggregation.PeriodMonth
	DefaultParallelThreshold    = 100000
)

// Options are the caller-facing knobs of the engine.
type Options struct {
	TopStores            int
	TopCategories        int
	StrugglingPercentile float64
	AnomalyZ             float64
	TrendGranularity     aggregation.Period

	// WorkerCount > 1 enables sharded reductions for stores holding at least
	// ParallelThreshold records.
	WorkerCount       int
	ParallelThreshold int
}

// DefaultOptions returns the documented defaults, single-threaded.
func DefaultOptions() Options {
	return Options{
		TopStores:            DefaultTopStores,
		TopCategories:        DefaultTopCategories,
		StrugglingPercentile: DefaultStrugglingPercentile,
		AnomalyZ:             DefaultAnomalyZ,
		TrendGranularity:     DefaultTrendGranularity,
		WorkerCount:          1,
		ParallelThreshold:    DefaultParallelThreshold,
	}
}

// Validate rejects out-of-range options; nothing is clamped.
func (o Options) Validate() error {
	if err := validateN(o.TopStores); err != nil {
		return err
	}
	if err := validateN(o.TopCategories); err != nil {
		return err
	}
	if err := validatePercentile(o.StrugglingPercentile); err != nil {
		return err
	}
	if err := validateZ(o.AnomalyZ); err != nil {
		return err
	}
	if _, err := aggregation.ParsePeriod(string(o.TrendGranularity)); err != nil {
		return err
	}
	if o.WorkerCount < 0 {
		return aggregation.Invalidf("worker count must be >= 0, got %d", o.WorkerCount)
	}
	if o.ParallelThreshold < 0 {
		return aggregation.Invalidf("parallel threshold must be >= 0, got %d", o.ParallelThreshold)
	}
	return nil
}

// Engine runs analyses with a fixed set of options.
// It holds no per-dataset state and is safe for concurrent use.
type Engine struct {
	opts Options
}

// NewEngine validates opts and returns an engine.
func NewEngine(opts Options) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Engine{opts: opts}, nil
}

// Options returns the engine's configuration.
func (e *Engine) Options() Options {
	return e.opts
}

// reduce dispatches to the sharded reducer once the input is large enough to
// pay for the extra pass.
func (e *Engine) reduce(src sales.Source, dims []aggregation.Dimension, measures []aggregation.Measure) ([]aggregation.ReducedRow, error) {
	if e.opts.WorkerCount > 1 && src.Len() >= e.opts.ParallelThreshold {
		return aggregation.ReduceParallel(src, dims, measures, e.opts.WorkerCount)
	}
	return aggregation.Reduce(src, dims, measures)
}

func validateN(n int) error {
	if n <= 0 {
		return aggregation.Invalidf("ranking size must be > 0, got %d", n)
	}
	return nil
}

func validatePercentile(p float64) error {
	if math.IsNaN(p) || p < 0 || p > 100 {
		return aggregation.Invalidf("percentile must be within [0, 100], got %v", p)
	}
	return nil
}

func validateZ(z float64) error {
	if math.IsNaN(z) || math.IsInf(z, 0) || z < 0 {
		return aggregation.Invalidf("z threshold must be a finite value >= 0, got %v", z)
	}
	return nil
}

func categorical(f sales.Field) error {
	if !f.Categorical() {
		return aggregation.Invalidf("field %q cannot be used as a grouping key", f)
	}
	return nil
}
