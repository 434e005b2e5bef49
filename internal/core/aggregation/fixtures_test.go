package aggregation

import (
	"time"

	"github.com/aevon-lab/salescope/internal/core/sales"
	"github.com/shopspring/decimal"
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
		ProductName: productType + "-item",
		Location:    "loc-" + store,
		SalesAmount: decimal.RequireFromString(amount),
	}
}

func sampleRecords() sales.Records {
	return sales.Records{
		rec("2024-01-03", "S1", "Dairy", "10"),
		rec("2024-01-15", "S1", "Bakery", "20.5"),
		rec("2024-02-01", "S2", "Dairy", "7.25"),
		rec("2024-02-20", "S2", "Dairy", "12.75"),
		rec("2024-03-05", "S3", "Produce", "100"),
		rec("2024-04-11", "S1", "Dairy", "-4"),
		rec("2024-05-30", "S3", "Bakery", "33.33"),
		rec("2024-06-30", "S2", "Produce", "0"),
	}
}
