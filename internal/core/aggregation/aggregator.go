package aggregation

import (
	"math"

	"github.com/shopspring/decimal"
)

// Aggregator defines the reduce semantics of an aggregation operator.
// To add a new operator: implement this interface and register it in Operators.
type Aggregator interface {
	// New returns an empty accumulator for one group.
	New() Accumulator

	// Numeric reports whether the operator reads Value.Number (as opposed to
	// Value.Text or nothing at all).
	Numeric() bool
}

// Accumulator folds the values of one group.
type Accumulator interface {
	Add(v Value)

	// Result returns the aggregate, or an invalid NullDecimal when the
	// statistic is undefined for what has been added so far.
	Result() decimal.NullDecimal
}

// Operators is the registry of all supported aggregation operators.
var Operators = map[string]Aggregator{
	OpCount:         countAgg{},
	OpSum:           sumAgg{},
	OpMean:          meanAgg{},
	OpStd:           stdAgg{},
	OpCountDistinct: distinctAgg{},
	OpMin:           minAgg{},
	OpMax:           maxAgg{},
}

// ValidOperator reports whether op is a registered aggregation operator.
func ValidOperator(op string) bool {
	_, ok := Operators[op]
	return ok
}

var one = decimal.NewFromInt(1)

// countAgg counts records. The incoming value is ignored.
type countAgg struct{}

func (countAgg) New() Accumulator { return &countAcc{} }
func (countAgg) Numeric() bool    { return false }

type countAcc struct{ n int64 }

func (a *countAcc) Add(Value)                   { a.n++ }
func (a *countAcc) Result() decimal.NullDecimal { return valid(decimal.NewFromInt(a.n)) }

// sumAgg accumulates the sum of incoming values. The sum of nothing is zero.
type sumAgg struct{}

func (sumAgg) New() Accumulator { return &sumAcc{total: decimal.Zero} }
func (sumAgg) Numeric() bool    { return true }

type sumAcc struct{ total decimal.Decimal }

func (a *sumAcc) Add(v Value)                 { a.total = a.total.Add(v.Number) }
func (a *sumAcc) Result() decimal.NullDecimal { return valid(a.total) }

// meanAgg is the arithmetic mean; undefined for an empty group.
type meanAgg struct{}

func (meanAgg) New() Accumulator { return &meanAcc{total: decimal.Zero} }
func (meanAgg) Numeric() bool    { return true }

type meanAcc struct {
	total decimal.Decimal
	n     int64
}

func (a *meanAcc) Add(v Value) {
	a.total = a.total.Add(v.Number)
	a.n++
}

func (a *meanAcc) Result() decimal.NullDecimal {
	if a.n == 0 {
		return decimal.NullDecimal{}
	}
	return valid(a.total.Div(decimal.NewFromInt(a.n)))
}

// stdAgg is the sample standard deviation (N-1 denominator).
// Undefined below two values. The variance is kept as
// (n*sumSq - sum^2) / (n*(n-1)) so the only inexact step is the final sqrt,
// and a constant group yields exactly zero.
type stdAgg struct{}

func (stdAgg) New() Accumulator { return &stdAcc{sum: decimal.Zero, sumSq: decimal.Zero} }
func (stdAgg) Numeric() bool    { return true }

type stdAcc struct {
	sum   decimal.Decimal
	sumSq decimal.Decimal
	n     int64
}

func (a *stdAcc) Add(v Value) {
	a.sum = a.sum.Add(v.Number)
	a.sumSq = a.sumSq.Add(v.Number.Mul(v.Number))
	a.n++
}

func (a *stdAcc) Result() decimal.NullDecimal {
	if a.n < 2 {
		return decimal.NullDecimal{}
	}
	n := decimal.NewFromInt(a.n)
	numerator := n.Mul(a.sumSq).Sub(a.sum.Mul(a.sum))
	if !numerator.IsPositive() {
		return valid(decimal.Zero)
	}
	variance := numerator.Div(n.Mul(n.Sub(one)))
	return valid(decimal.NewFromFloat(math.Sqrt(variance.InexactFloat64())))
}

// distinctAgg counts distinct text values.
type distinctAgg struct{}

func (distinctAgg) New() Accumulator { return &distinctAcc{seen: make(map[string]struct{})} }
func (distinctAgg) Numeric() bool    { return false }

type distinctAcc struct{ seen map[string]struct{} }

func (a *distinctAcc) Add(v Value) { a.seen[v.Text] = struct{}{} }
func (a *distinctAcc) Result() decimal.NullDecimal {
	return valid(decimal.NewFromInt(int64(len(a.seen))))
}

// minAgg tracks the minimum value seen.
type minAgg struct{}

func (minAgg) New() Accumulator {
	return &extremeAcc{keep: func(cur, inc decimal.Decimal) bool { return inc.LessThan(cur) }}
}
func (minAgg) Numeric() bool { return true }

// maxAgg tracks the maximum value seen.
type maxAgg struct{}

func (maxAgg) New() Accumulator {
	return &extremeAcc{keep: func(cur, inc decimal.Decimal) bool { return inc.GreaterThan(cur) }}
}
func (maxAgg) Numeric() bool { return true }

type extremeAcc struct {
	cur  decimal.NullDecimal
	keep func(cur, inc decimal.Decimal) bool
}

func (a *extremeAcc) Add(v Value) {
	if !a.cur.Valid || a.keep(a.cur.Decimal, v.Number) {
		a.cur = valid(v.Number)
	}
}

func (a *extremeAcc) Result() decimal.NullDecimal { return a.cur }

func valid(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NewNullDecimal(d)
}
