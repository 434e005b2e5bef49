package aggregation

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Percentile returns the p-th percentile (0-100) of values using linear
// interpolation between order statistics: rank = p/100 * (n-1), the value is
// v[floor(rank)] + frac(rank) * (v[floor(rank)+1] - v[floor(rank)]).
// values need not be sorted and are not modified. Undefined for no values.
func Percentile(values []decimal.Decimal, p float64) (decimal.NullDecimal, error) {
	if math.IsNaN(p) || p < 0 || p > 100 {
		return decimal.NullDecimal{}, Invalidf("percentile must be within [0, 100], got %v", p)
	}
	n := len(values)
	if n == 0 {
		return decimal.NullDecimal{}, nil
	}

	sorted := make([]decimal.Decimal, n)
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].LessThan(sorted[j])
	})
	if n == 1 {
		return valid(sorted[0]), nil
	}

	rank := decimal.NewFromFloat(p).Div(hundred).Mul(decimal.NewFromInt(int64(n - 1)))
	lower := rank.Floor()
	idx := int(lower.IntPart())
	if idx >= n-1 {
		return valid(sorted[n-1]), nil
	}

	frac := rank.Sub(lower)
	return valid(sorted[idx].Add(frac.Mul(sorted[idx+1].Sub(sorted[idx])))), nil
}
