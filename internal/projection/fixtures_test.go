package projection

import (
	"testing"
	"time"

	"github.com/aevon-lab/salescope/internal/analysis"
	"github.com/aevon-lab/salescope/internal/core/sales"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func rec(date, store, productType, amount string) sales.Record {
	d, err := time.Parse(sales.DateLayout, date)
	if err != nil {
		panic(err)
	}
	return sales.Record{
		Date:        d,
		StoreID:     store,
		ProductType: productType,
		ProductName: productType + " item",
		Location:    "Pune",
		SalesAmount: decimal.RequireFromString(amount),
	}
}

func testRecords() []sales.Record {
	return []sales.Record{
		rec("2024-01-01", "S1", "Dairy", "10"),
		rec("2024-01-02", "S1", "Dairy", "10"),
		rec("2024-01-03", "S1", "Dairy", "10"),
		rec("2024-01-04", "S1", "Dairy", "100"),
		rec("2024-03-10", "S2", "Bakery", "40"),
	}
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	engine, err := analysis.NewEngine(analysis.DefaultOptions())
	require.NoError(t, err)
	return NewService(engine)
}
