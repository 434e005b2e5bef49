package aggregation

import (
	"strings"

	"github.com/aevon-lab/salescope/internal/core/sales"
	"github.com/shopspring/decimal"
)

// Supported aggregation operators.
const (
	OpCount         = "count"
	OpSum           = "sum"
	OpMean          = "mean"
	OpStd           = "std"
	OpCountDistinct = "count_distinct"
	OpMin           = "min"
	OpMax           = "max"
)

// MaxKeyParts bounds the number of dimensions in a composite key.
const MaxKeyParts = 4

// keySeparator joins key parts for display and hashing only; equality never
// goes through the joined form.
const keySeparator = "|"

// GroupKey identifies one group of a reduction.
// It is a comparable value: two keys are equal when their parts are equal,
// so it is used directly as a map key.
type GroupKey struct {
	parts [MaxKeyParts]string
	n     int
}

// NewGroupKey builds a key from up to MaxKeyParts parts. Extra parts are dropped.
func NewGroupKey(parts ...string) GroupKey {
	var k GroupKey
	for i, p := range parts {
		if i == MaxKeyParts {
			break
		}
		k.parts[i] = p
		k.n++
	}
	return k
}

// Len returns the number of parts.
func (k GroupKey) Len() int { return k.n }

// Part returns the i-th part.
func (k GroupKey) Part(i int) string { return k.parts[i] }

// Parts returns a copy of the key parts.
func (k GroupKey) Parts() []string {
	out := make([]string, k.n)
	copy(out, k.parts[:k.n])
	return out
}

func (k GroupKey) String() string {
	return strings.Join(k.parts[:k.n], keySeparator)
}

// Less orders keys part by part, shorter keys first on a common prefix.
func (k GroupKey) Less(o GroupKey) bool {
	for i := 0; i < k.n && i < o.n; i++ {
		if k.parts[i] != o.parts[i] {
			return k.parts[i] < o.parts[i]
		}
	}
	return k.n < o.n
}

// Dimension derives one key part from a record.
type Dimension struct {
	Name  string
	Value func(sales.Record) string
}

// FieldDimension groups by a record column.
func FieldDimension(f sales.Field) Dimension {
	return Dimension{
		Name:  string(f),
		Value: func(r sales.Record) string { return r.Text(f) },
	}
}

// Measure asks for one aggregate column: Operator applied to Field, stored under Name.
type Measure struct {
	Name     string      `json:"name"`
	Field    sales.Field `json:"field"`
	Operator string      `json:"operator"`
}

// Value is what an accumulator sees for one record.
type Value struct {
	Number decimal.Decimal
	Text   string
}

// ReducedRow is one output row of a reduction.
// Count is the number of records folded into the row and is always >= 1.
type ReducedRow struct {
	Key    GroupKey
	Count  int64
	Values map[string]decimal.NullDecimal
}

// Value returns the named aggregate and whether the column exists.
func (r ReducedRow) Value(name string) (decimal.NullDecimal, bool) {
	v, ok := r.Values[name]
	return v, ok
}
