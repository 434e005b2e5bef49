package analysis

import (
	"testing"
	"time"

	"github.com/aevon-lab/salescope/internal/core/sales"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func rec(date, store, productType, location, amount string) sales.Record {
	d, err := time.Parse(sales.DateLayout, date)
	if err != nil {
		panic(err)
	}
	return sales.Record{
		Date:        d,
		StoreID:     store,
		ProductType: productType,
		ProductName: productType + " item",
		Location:    location,
		SalesAmount: decimal.RequireFromString(amount),
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultOptions())
	require.NoError(t, err)
	return e
}

// retailStore is a small mixed dataset spanning Jan-Jun 2024 with a gap in April.
func retailStore() *sales.Store {
	return sales.NewStore([]sales.Record{
		rec("2024-01-05", "S1", "Dairy", "Pune", "120"),
		rec("2024-01-09", "S2", "Bakery", "Mumbai", "40"),
		rec("2024-01-21", "S3", "Produce", "Pune", "15"),
		rec("2024-02-02", "S1", "Bakery", "Pune", "80"),
		rec("2024-02-14", "S2", "Dairy", "Mumbai", "60"),
		rec("2024-02-28", "S4", "Snacks", "Delhi", "5"),
		rec("2024-03-03", "S1", "Dairy", "Pune", "140"),
		rec("2024-03-17", "S3", "Produce", "Pune", "25"),
		rec("2024-05-11", "S2", "Snacks", "Mumbai", "55"),
		rec("2024-05-30", "S4", "Snacks", "Delhi", "10"),
		rec("2024-06-12", "S1", "Produce", "Pune", "90"),
		rec("2024-06-30", "S5", "Beverages", "Delhi", "30"),
	})
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(want).Equal(got), "want=%s got=%s", want, got.String())
}
