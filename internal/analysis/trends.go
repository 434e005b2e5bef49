package analysis

import (
	"time"

	"github.com/aevon-lab/salescope/internal/core/aggregation"
	"github.com/aevon-lab/salescope/internal/core/sales"
	"github.com/shopspring/decimal"
)

const colPeriodSales = "period_sales"

// TrendPoint is one calendar bucket of a sales series.
// Index is the month (1-12) or quarter (1-4) of PeriodEnd.
type TrendPoint struct {
	PeriodEnd         time.Time       `json:"period_end"`
	Index             int             `json:"index"`
	TotalSales        decimal.Decimal `json:"total_sales"`
	TotalTransactions int64           `json:"total_transactions"`
}

// SeasonalResult holds the monthly and quarterly series.
type SeasonalResult struct {
	Monthly   []TrendPoint `json:"monthly_trend"`
	Quarterly []TrendPoint `json:"quarterly_trend"`
}

// SeasonalTrends returns both monthly and quarterly series.
func (e *Engine) SeasonalTrends(store sales.Source) (SeasonalResult, error) {
	monthly, err := e.Trend(store, aggregation.PeriodMonth)
	if err != nil {
		return SeasonalResult{}, err
	}
	quarterly, err := e.Trend(store, aggregation.PeriodQuarter)
	if err != nil {
		return SeasonalResult{}, err
	}
	return SeasonalResult{Monthly: monthly, Quarterly: quarterly}, nil
}

// Trend totals sales per calendar bucket from the first to the last bucket
// with data. Buckets in between without records are emitted with zero sales
// so the series is continuous.
func (e *Engine) Trend(store sales.Source, period aggregation.Period) ([]TrendPoint, error) {
	period, err := aggregation.ParsePeriod(string(period))
	if err != nil {
		return nil, err
	}

	rows, err := e.reduce(store,
		[]aggregation.Dimension{aggregation.PeriodDimension(period)},
		[]aggregation.Measure{{Name: colPeriodSales, Field: sales.FieldSalesAmount, Operator: aggregation.OpSum}},
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []TrendPoint{}, nil
	}

	byEnd := make(map[time.Time]aggregation.ReducedRow, len(rows))
	var first, last time.Time
	for i, row := range rows {
		end, err := aggregation.ParseBucket(row.Key.Part(0))
		if err != nil {
			return nil, err
		}
		byEnd[end] = row
		if i == 0 || end.Before(first) {
			first = end
		}
		if i == 0 || end.After(last) {
			last = end
		}
	}

	var points []TrendPoint
	for current := first; !current.After(last); current = aggregation.NextBucket(current, period) {
		point := TrendPoint{
			PeriodEnd:  current,
			Index:      aggregation.PeriodIndex(current, period),
			TotalSales: decimal.Zero,
		}
		if row, ok := byEnd[current]; ok {
			point.TotalSales = row.Values[colPeriodSales].Decimal
			point.TotalTransactions = row.Count
		}
		points = append(points, point)
	}
	return points, nil
}
