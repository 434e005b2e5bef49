package postgres

import (
	"fmt"
	"time"

	"github.com/aevon-lab/salescope/internal/core/sales"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanRecordRow scans a sales_records row into a Record.
// Compatible with both sql.Row (single) and sql.Rows (multiple).
func scanRecordRow(row scanner) (sales.Record, error) {
	var r sales.Record
	var saleDate time.Time

	err := row.Scan(
		&saleDate,
		&r.StoreID,
		&r.ProductType,
		&r.ProductName,
		&r.Location,
		&r.SalesAmount,
	)
	if err != nil {
		return sales.Record{}, fmt.Errorf("failed to scan sales record row: %w", err)
	}

	r.Date = sales.Day(saleDate.UTC())
	return r, nil
}

// recordArgs flattens a record into insert arguments following queryInsertRecord.
// The amount is sent as its exact decimal text so NUMERIC keeps every digit.
func recordArgs(batchID string, r sales.Record) []interface{} {
	return []interface{}{
		batchID,
		r.Date,
		r.StoreID,
		r.ProductType,
		r.ProductName,
		r.Location,
		r.SalesAmount.String(),
	}
}
