package analysis

import (
	"sort"

	"github.com/aevon-lab/salescope/internal/core/aggregation"
)

// Top returns the n rows with the largest metric, largest first.
// Ties, and rows whose metric is undefined (always ranked last), are ordered by
// ascending group key so the result never depends on input order. n larger than
// the table returns every row.
func Top(rows []aggregation.ReducedRow, metric string, n int) ([]aggregation.ReducedRow, error) {
	return rank(rows, metric, n, true)
}

// Bottom is Top with the smallest metric first.
func Bottom(rows []aggregation.ReducedRow, metric string, n int) ([]aggregation.ReducedRow, error) {
	return rank(rows, metric, n, false)
}

func rank(rows []aggregation.ReducedRow, metric string, n int, descending bool) ([]aggregation.ReducedRow, error) {
	if err := validateN(n); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if _, ok := row.Value(metric); !ok {
			return nil, aggregation.Invalidf("unknown metric %q", metric)
		}
	}

	ranked := make([]aggregation.ReducedRow, len(rows))
	copy(ranked, rows)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i].Values[metric], ranked[j].Values[metric]
		if a.Valid != b.Valid {
			return a.Valid
		}
		if a.Valid {
			if cmp := a.Decimal.Cmp(b.Decimal); cmp != 0 {
				if descending {
					return cmp > 0
				}
				return cmp < 0
			}
		}
		return ranked[i].Key.Less(ranked[j].Key)
	})

	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked, nil
}
