package analysis

import (
	"time"

	"github.com/aevon-lab/salescope/internal/core/sales"
	"github.com/shopspring/decimal"
)

// DateRange is an inclusive span of record dates.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// OverviewResult holds whole-dataset totals.
// AverageTransaction is invalid and DateRange is nil for an empty store.
type OverviewResult struct {
	TotalSales         decimal.Decimal     `json:"total_sales"`
	AverageTransaction decimal.NullDecimal `json:"average_transaction"`
	TotalTransactions  int                 `json:"total_transactions"`
	DateRange          *DateRange          `json:"date_range"`
}

// Overview computes totals, mean transaction value, count and date range in a
// single pass.
func (e *Engine) Overview(store sales.Source) OverviewResult {
	res := OverviewResult{TotalSales: decimal.Zero}

	n := store.Len()
	for i := 0; i < n; i++ {
		r := store.At(i)
		res.TotalSales = res.TotalSales.Add(r.SalesAmount)
		if res.DateRange == nil {
			res.DateRange = &DateRange{Start: r.Date, End: r.Date}
			continue
		}
		if r.Date.Before(res.DateRange.Start) {
			res.DateRange.Start = r.Date
		}
		if r.Date.After(res.DateRange.End) {
			res.DateRange.End = r.Date
		}
	}

	res.TotalTransactions = n
	if n > 0 {
		res.AverageTransaction = decimal.NewNullDecimal(res.TotalSales.Div(decimal.NewFromInt(int64(n))))
	}
	return res
}
