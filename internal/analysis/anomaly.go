package analysis

import (
	"github.com/aevon-lab/salescope/internal/core/aggregation"
	"github.com/aevon-lab/salescope/internal/core/sales"
	"github.com/shopspring/decimal"
)

const (
	colGroupMean = "group_mean"
	colGroupStd  = "group_std"
)

// ScoredRecord is a record together with its standardized score within its
// group. Score is invalid when the group has a single record or zero variance.
type ScoredRecord struct {
	sales.Record
	Score decimal.NullDecimal `json:"sales_zscore"`
}

// AnomalyResult lists the records scoring strictly above Threshold, in store order.
type AnomalyResult struct {
	GroupBy   []sales.Field  `json:"group_by"`
	Threshold float64        `json:"threshold"`
	Records   []ScoredRecord `json:"records"`
}

// Anomalies runs DetectAnomalies per (store, product type) with the configured threshold.
func (e *Engine) Anomalies(store sales.Source) (AnomalyResult, error) {
	return e.DetectAnomalies(store, sales.FieldStoreID, sales.FieldProductType, e.opts.AnomalyZ)
}

// DetectAnomalies returns every record whose score |v - mean| / std within its
// (a, b) group exceeds z. Records with an undefined score are never returned.
func (e *Engine) DetectAnomalies(store sales.Source, a, b sales.Field, z float64) (AnomalyResult, error) {
	if err := validateZ(z); err != nil {
		return AnomalyResult{}, err
	}
	scored, err := e.ScoreRecords(store, a, b)
	if err != nil {
		return AnomalyResult{}, err
	}

	threshold := decimal.NewFromFloat(z)
	flagged := make([]ScoredRecord, 0)
	for _, r := range scored {
		if r.Score.Valid && r.Score.Decimal.GreaterThan(threshold) {
			flagged = append(flagged, r)
		}
	}

	return AnomalyResult{
		GroupBy:   []sales.Field{a, b},
		Threshold: z,
		Records:   flagged,
	}, nil
}

// ScoreRecords returns a new sequence holding every record of store, in order,
// with its standardized score attached. The store itself is left untouched.
func (e *Engine) ScoreRecords(store sales.Source, a, b sales.Field) ([]ScoredRecord, error) {
	if err := categorical(a); err != nil {
		return nil, err
	}
	if err := categorical(b); err != nil {
		return nil, err
	}

	dims := []aggregation.Dimension{aggregation.FieldDimension(a), aggregation.FieldDimension(b)}
	groups, err := e.reduce(store, dims, []aggregation.Measure{
		{Name: colGroupMean, Field: sales.FieldSalesAmount, Operator: aggregation.OpMean},
		{Name: colGroupStd, Field: sales.FieldSalesAmount, Operator: aggregation.OpStd},
	})
	if err != nil {
		return nil, err
	}

	stats := make(map[aggregation.GroupKey]aggregation.ReducedRow, len(groups))
	for _, g := range groups {
		stats[g.Key] = g
	}

	n := store.Len()
	out := make([]ScoredRecord, n)
	for i := 0; i < n; i++ {
		r := store.At(i)
		g := stats[aggregation.NewGroupKey(r.Text(a), r.Text(b))]
		out[i] = ScoredRecord{Record: r, Score: zScore(r.SalesAmount, g.Values[colGroupMean], g.Values[colGroupStd])}
	}
	return out, nil
}

func zScore(v decimal.Decimal, mean, std decimal.NullDecimal) decimal.NullDecimal {
	if !mean.Valid || !std.Valid || !std.Decimal.IsPositive() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(v.Sub(mean.Decimal).Abs().Div(std.Decimal))
}
