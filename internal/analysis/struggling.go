package analysis

import (
	"sort"

	"github.com/aevon-lab/salescope/internal/core/aggregation"
	"github.com/aevon-lab/salescope/internal/core/sales"
	"github.com/shopspring/decimal"
)

const colMonthlySales = "monthly_sales"

// StrugglingRow is one entity at or below the percentile threshold.
// Volatility is the sample standard deviation of its monthly totals and is
// invalid for an entity seen in a single month.
type StrugglingRow struct {
	Entity          string              `json:"entity"`
	AvgMonthlySales decimal.Decimal     `json:"avg_monthly_sales"`
	Volatility      decimal.NullDecimal `json:"sales_volatility"`
	Months          int                 `json:"months"`
}

// StrugglingResult is the outcome of a struggling-entity scan.
// Threshold is the percentile value of all entity means, invalid when the
// store is empty.
type StrugglingResult struct {
	Field      sales.Field         `json:"field"`
	Percentile float64             `json:"percentile"`
	Threshold  decimal.NullDecimal `json:"threshold"`
	Entities   []StrugglingRow     `json:"entities"`
}

// StrugglingStores runs StrugglingEntities over stores with the configured percentile.
func (e *Engine) StrugglingStores(store sales.Source) (StrugglingResult, error) {
	return e.StrugglingEntities(store, sales.FieldStoreID, e.opts.StrugglingPercentile)
}

// StrugglingEntities flags entities whose mean monthly sales are at or below
// the p-th percentile of all entities' mean monthly sales.
//
// Stage one sums sales per (month-end, entity). Stage two folds each entity's
// monthly sums into a mean and a sample standard deviation. Only months in
// which the entity has records count towards its mean.
func (e *Engine) StrugglingEntities(store sales.Source, field sales.Field, p float64) (StrugglingResult, error) {
	if err := categorical(field); err != nil {
		return StrugglingResult{}, err
	}
	if err := validatePercentile(p); err != nil {
		return StrugglingResult{}, err
	}

	monthly, err := e.reduce(store,
		[]aggregation.Dimension{
			aggregation.FieldDimension(field),
			aggregation.PeriodDimension(aggregation.PeriodMonth),
		},
		[]aggregation.Measure{{Name: colMonthlySales, Field: sales.FieldSalesAmount, Operator: aggregation.OpSum}},
	)
	if err != nil {
		return StrugglingResult{}, err
	}

	// monthly is ordered by (entity, month), so each entity is one contiguous run.
	var (
		entities []StrugglingRow
		means    []decimal.Decimal
	)
	for start := 0; start < len(monthly); {
		entity := monthly[start].Key.Part(0)
		end := start
		var sums []decimal.Decimal
		for end < len(monthly) && monthly[end].Key.Part(0) == entity {
			sums = append(sums, monthly[end].Values[colMonthlySales].Decimal)
			end++
		}

		stats, err := aggregation.Summarize(sums, aggregation.OpMean, aggregation.OpStd)
		if err != nil {
			return StrugglingResult{}, err
		}
		entities = append(entities, StrugglingRow{
			Entity:          entity,
			AvgMonthlySales: stats[aggregation.OpMean].Decimal,
			Volatility:      stats[aggregation.OpStd],
			Months:          len(sums),
		})
		means = append(means, stats[aggregation.OpMean].Decimal)
		start = end
	}

	threshold, err := aggregation.Percentile(means, p)
	if err != nil {
		return StrugglingResult{}, err
	}

	selected := make([]StrugglingRow, 0)
	if threshold.Valid {
		for _, row := range entities {
			if row.AvgMonthlySales.LessThanOrEqual(threshold.Decimal) {
				selected = append(selected, row)
			}
		}
	}
	sort.SliceStable(selected, func(i, j int) bool {
		if c := selected[i].AvgMonthlySales.Cmp(selected[j].AvgMonthlySales); c != 0 {
			return c < 0
		}
		return selected[i].Entity < selected[j].Entity
	})

	return StrugglingResult{
		Field:      field,
		Percentile: p,
		Threshold:  threshold,
		Entities:   selected,
	}, nil
}
