package sales

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical day-granularity rendering of a record date.
const DateLayout = "2006-01-02"

// Day truncates t to midnight of its calendar day, keeping t's location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Record is one sales transaction as handed over by ingestion.
// Records are immutable once loaded: analyses read them and derive new values,
// they never write back into a Record held by a Store.
type Record struct {
	Date        time.Time       `json:"date"`
	StoreID     string          `json:"store_id"`
	ProductType string          `json:"product_type"`
	ProductName string          `json:"product_name"`
	Location    string          `json:"location"`
	SalesAmount decimal.Decimal `json:"sales_amount"`
}

// Field names a canonical (normalized) column of a Record.
type Field string

const (
	FieldDate        Field = "date"
	FieldStoreID     Field = "store_id"
	FieldProductType Field = "product_type"
	FieldProductName Field = "product_name"
	FieldLocation    Field = "location"
	FieldSalesAmount Field = "sales_amount"
)

// Fields lists every canonical column in source order.
var Fields = []Field{
	FieldDate,
	FieldStoreID,
	FieldProductType,
	FieldProductName,
	FieldLocation,
	FieldSalesAmount,
}

// ParseField resolves a canonical column name.
func ParseField(name string) (Field, error) {
	for _, f := range Fields {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown field %q", name)
}

// Numeric reports whether the field carries a numeric value.
func (f Field) Numeric() bool {
	return f == FieldSalesAmount
}

// Categorical reports whether the field can be used as a grouping key as-is.
func (f Field) Categorical() bool {
	switch f {
	case FieldStoreID, FieldProductType, FieldProductName, FieldLocation:
		return true
	}
	return false
}

// Text returns the string form of a field. Dates render as DateLayout.
func (r Record) Text(f Field) string {
	switch f {
	case FieldDate:
		return r.Date.Format(DateLayout)
	case FieldStoreID:
		return r.StoreID
	case FieldProductType:
		return r.ProductType
	case FieldProductName:
		return r.ProductName
	case FieldLocation:
		return r.Location
	case FieldSalesAmount:
		return r.SalesAmount.String()
	default:
		return ""
	}
}

// Validate checks the attributes every analysis relies on.
// Amounts are not checked: negative sales (refunds) are valid input.
func (r Record) Validate() error {
	if r.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	if r.StoreID == "" {
		return fmt.Errorf("store_id is required")
	}
	return nil
}
