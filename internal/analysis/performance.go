package analysis

import (
	"github.com/aevon-lab/salescope/internal/core/aggregation"
	"github.com/aevon-lab/salescope/internal/core/sales"
	"github.com/shopspring/decimal"
)

// Column names of the performance reductions.
const (
	ColTotalSales        = "total_sales"
	ColAvgSale           = "avg_sale"
	ColTotalTransactions = "total_transactions"
	ColUniqueStores      = "unique_stores"
)

// PerformanceRow is one entity of a per-store or per-category table.
type PerformanceRow struct {
	Key               string              `json:"key"`
	TotalSales        decimal.Decimal     `json:"total_sales"`
	AvgSale           decimal.NullDecimal `json:"avg_sale"`
	TotalTransactions int64               `json:"total_transactions"`
}

// ProductPerformanceResult holds the best and worst product categories.
type ProductPerformanceResult struct {
	Top    []PerformanceRow `json:"top"`
	Bottom []PerformanceRow `json:"bottom"`
}

// LocationRow is one row of the location table.
type LocationRow struct {
	Location          string              `json:"location"`
	TotalSales        decimal.Decimal     `json:"total_sales"`
	AvgSale           decimal.NullDecimal `json:"avg_sale"`
	UniqueStores      int64               `json:"unique_stores"`
	TotalTransactions int64               `json:"total_transactions"`
}

func performanceMeasures() []aggregation.Measure {
	return []aggregation.Measure{
		{Name: ColTotalSales, Field: sales.FieldSalesAmount, Operator: aggregation.OpSum},
		{Name: ColAvgSale, Field: sales.FieldSalesAmount, Operator: aggregation.OpMean},
		{Name: ColTotalTransactions, Field: sales.FieldProductName, Operator: aggregation.OpCount},
	}
}

// Performance reduces the store by one categorical field into total sales,
// mean sale and transaction count, ordered by key.
func (e *Engine) Performance(store sales.Source, field sales.Field) ([]aggregation.ReducedRow, error) {
	if err := categorical(field); err != nil {
		return nil, err
	}
	return e.reduce(store, []aggregation.Dimension{aggregation.FieldDimension(field)}, performanceMeasures())
}

// StorePerformance is the per-store performance table.
func (e *Engine) StorePerformance(store sales.Source) ([]PerformanceRow, error) {
	rows, err := e.Performance(store, sales.FieldStoreID)
	if err != nil {
		return nil, err
	}
	return toPerformanceRows(rows), nil
}

// TopStores ranks stores by total sales.
func (e *Engine) TopStores(store sales.Source, n int) ([]PerformanceRow, error) {
	if err := validateN(n); err != nil {
		return nil, err
	}
	rows, err := e.Performance(store, sales.FieldStoreID)
	if err != nil {
		return nil, err
	}
	top, err := Top(rows, ColTotalSales, n)
	if err != nil {
		return nil, err
	}
	return toPerformanceRows(top), nil
}

// ProductPerformance ranks product categories by total sales from both ends.
func (e *Engine) ProductPerformance(store sales.Source, n int) (ProductPerformanceResult, error) {
	if err := validateN(n); err != nil {
		return ProductPerformanceResult{}, err
	}
	rows, err := e.Performance(store, sales.FieldProductType)
	if err != nil {
		return ProductPerformanceResult{}, err
	}

	top, err := Top(rows, ColTotalSales, n)
	if err != nil {
		return ProductPerformanceResult{}, err
	}
	bottom, err := Bottom(rows, ColTotalSales, n)
	if err != nil {
		return ProductPerformanceResult{}, err
	}
	return ProductPerformanceResult{
		Top:    toPerformanceRows(top),
		Bottom: toPerformanceRows(bottom),
	}, nil
}

// LocationInsights summarizes sales per location, including how many distinct
// stores trade there.
func (e *Engine) LocationInsights(store sales.Source) ([]LocationRow, error) {
	measures := append(performanceMeasures(), aggregation.Measure{
		Name:     ColUniqueStores,
		Field:    sales.FieldStoreID,
		Operator: aggregation.OpCountDistinct,
	})
	rows, err := e.reduce(store, []aggregation.Dimension{aggregation.FieldDimension(sales.FieldLocation)}, measures)
	if err != nil {
		return nil, err
	}

	out := make([]LocationRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, LocationRow{
			Location:          row.Key.String(),
			TotalSales:        row.Values[ColTotalSales].Decimal,
			AvgSale:           row.Values[ColAvgSale],
			UniqueStores:      row.Values[ColUniqueStores].Decimal.IntPart(),
			TotalTransactions: row.Values[ColTotalTransactions].Decimal.IntPart(),
		})
	}
	return out, nil
}

func toPerformanceRows(rows []aggregation.ReducedRow) []PerformanceRow {
	out := make([]PerformanceRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, PerformanceRow{
			Key:               row.Key.String(),
			TotalSales:        row.Values[ColTotalSales].Decimal,
			AvgSale:           row.Values[ColAvgSale],
			TotalTransactions: row.Values[ColTotalTransactions].Decimal.IntPart(),
		})
	}
	return out
}
