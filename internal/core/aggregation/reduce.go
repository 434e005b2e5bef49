package aggregation

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/aevon-lab/salescope/internal/core/partition"
	"github.com/aevon-lab/salescope/internal/core/sales"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidParameter marks caller errors rejected at the call boundary.
var ErrInvalidParameter = errors.New("invalid parameter")

// Invalidf wraps ErrInvalidParameter with a formatted detail message.
func Invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameter, fmt.Sprintf(format, args...))
}

type compiledMeasure struct {
	Measure
	agg Aggregator
}

type groupState struct {
	count int64
	accs  []Accumulator
}

// Reduce groups src by dims and folds every group through measures.
// It returns one row per distinct key observed in src, ordered by key.
// An empty src yields an empty, non-nil result.
func Reduce(src sales.Source, dims []Dimension, measures []Measure) ([]ReducedRow, error) {
	compiled, err := compile(dims, measures)
	if err != nil {
		return nil, err
	}

	groups := make(map[GroupKey]*groupState)
	for i := 0; i < src.Len(); i++ {
		r := src.At(i)
		fold(groups, r, keyFor(r, dims), compiled)
	}
	return materialize(groups, compiled), nil
}

// ReduceParallel is Reduce sharded across workers.
// Records are routed to a shard by the partition of their group key, so every
// group is folded by exactly one worker and the per-worker maps are disjoint;
// merging is a plain union. The result is identical to Reduce.
func ReduceParallel(src sales.Source, dims []Dimension, measures []Measure, workers int) ([]ReducedRow, error) {
	if workers <= 1 || src.Len() == 0 {
		return Reduce(src, dims, measures)
	}
	compiled, err := compile(dims, measures)
	if err != nil {
		return nil, err
	}

	n := src.Len()
	keys := make([]GroupKey, n)
	shards := make([][]int, workers)
	for i := 0; i < n; i++ {
		key := keyFor(src.At(i), dims)
		keys[i] = key
		shard := partition.Shard(key.String(), workers)
		shards[shard] = append(shards[shard], i)
	}

	locals := make([]map[GroupKey]*groupState, workers)
	var g errgroup.Group
	for shard := range shards {
		shard := shard
		g.Go(func() error {
			local := make(map[GroupKey]*groupState)
			for _, idx := range shards[shard] {
				fold(local, src.At(idx), keys[idx], compiled)
			}
			locals[shard] = local
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[GroupKey]*groupState)
	for _, local := range locals {
		for key, state := range local {
			merged[key] = state
		}
	}

	slog.Debug("[Reduce] Sharded reduction complete",
		"records", n,
		"groups", len(merged),
		"workers", workers,
	)

	return materialize(merged, compiled), nil
}

// Summarize folds a plain sequence of numbers through the given operators.
// It is the second stage of two-stage reductions, where the inputs are
// aggregates rather than records.
func Summarize(values []decimal.Decimal, ops ...string) (map[string]decimal.NullDecimal, error) {
	accs := make(map[string]Accumulator, len(ops))
	for _, op := range ops {
		agg, ok := Operators[op]
		if !ok {
			return nil, Invalidf("unsupported operator %q", op)
		}
		accs[op] = agg.New()
	}

	for _, v := range values {
		in := Value{Number: v, Text: v.String()}
		for _, acc := range accs {
			acc.Add(in)
		}
	}

	out := make(map[string]decimal.NullDecimal, len(accs))
	for op, acc := range accs {
		out[op] = acc.Result()
	}
	return out, nil
}

func compile(dims []Dimension, measures []Measure) ([]compiledMeasure, error) {
	if len(dims) == 0 {
		return nil, Invalidf("at least one grouping dimension is required")
	}
	if len(dims) > MaxKeyParts {
		return nil, Invalidf("at most %d grouping dimensions are supported, got %d", MaxKeyParts, len(dims))
	}
	for _, d := range dims {
		if d.Value == nil {
			return nil, Invalidf("dimension %q has no value function", d.Name)
		}
	}

	compiled := make([]compiledMeasure, 0, len(measures))
	seen := make(map[string]struct{}, len(measures))
	for _, m := range measures {
		if m.Name == "" {
			return nil, Invalidf("measure name must not be empty")
		}
		if _, dup := seen[m.Name]; dup {
			return nil, Invalidf("duplicate measure %q", m.Name)
		}
		seen[m.Name] = struct{}{}

		if _, err := sales.ParseField(string(m.Field)); err != nil {
			return nil, Invalidf("measure %q: %v", m.Name, err)
		}
		if !ValidOperator(m.Operator) {
			return nil, Invalidf("measure %q: unsupported operator %q", m.Name, m.Operator)
		}
		agg := Operators[m.Operator]
		if agg.Numeric() && !m.Field.Numeric() {
			return nil, Invalidf("measure %q: operator %q needs a numeric field, got %q", m.Name, m.Operator, m.Field)
		}
		compiled = append(compiled, compiledMeasure{Measure: m, agg: agg})
	}
	return compiled, nil
}

func keyFor(r sales.Record, dims []Dimension) GroupKey {
	var k GroupKey
	for i, d := range dims {
		k.parts[i] = d.Value(r)
	}
	k.n = len(dims)
	return k
}

func fold(target map[GroupKey]*groupState, r sales.Record, key GroupKey, measures []compiledMeasure) {
	state, exists := target[key]
	if !exists {
		state = &groupState{accs: make([]Accumulator, len(measures))}
		for i, m := range measures {
			state.accs[i] = m.agg.New()
		}
		target[key] = state
	}

	state.count++
	for i, m := range measures {
		if m.agg.Numeric() {
			state.accs[i].Add(Value{Number: r.SalesAmount})
			continue
		}
		state.accs[i].Add(Value{Text: r.Text(m.Field)})
	}
}

func materialize(groups map[GroupKey]*groupState, measures []compiledMeasure) []ReducedRow {
	rows := make([]ReducedRow, 0, len(groups))
	for key, state := range groups {
		values := make(map[string]decimal.NullDecimal, len(measures))
		for i, m := range measures {
			values[m.Name] = state.accs[i].Result()
		}
		rows = append(rows, ReducedRow{Key: key, Count: state.count, Values: values})
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Key.Less(rows[j].Key)
	})
	return rows
}
