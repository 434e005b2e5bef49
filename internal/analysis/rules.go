package analysis

import (
	"github.com/aevon-lab/salescope/internal/core/aggregation"
	"github.com/aevon-lab/salescope/internal/core/sales"
	"github.com/shopspring/decimal"
)

// RuleRow is one group of a rule reduction. Key holds one part per GroupBy entry.
type RuleRow struct {
	Key    []string                       `json:"key"`
	Count  int64                          `json:"count"`
	Values map[string]decimal.NullDecimal `json:"values"`
}

// RuleResult is the table produced by running a named rule.
type RuleResult struct {
	Rule        string    `json:"rule"`
	Fingerprint string    `json:"fingerprint"`
	GroupBy     []string  `json:"group_by"`
	Measures    []string  `json:"measures"`
	Rows        []RuleRow `json:"rows"`
}

// RunRule reduces the store with a catalog rule, ordered by key.
func (e *Engine) RunRule(store sales.Source, rule aggregation.Rule) (RuleResult, error) {
	dims, err := rule.Dimensions()
	if err != nil {
		return RuleResult{}, err
	}
	rows, err := e.reduce(store, dims, rule.Measures)
	if err != nil {
		return RuleResult{}, err
	}

	res := RuleResult{
		Rule:        rule.Name,
		Fingerprint: rule.Fingerprint,
		GroupBy:     rule.GroupBy,
		Measures:    make([]string, 0, len(rule.Measures)),
		Rows:        make([]RuleRow, 0, len(rows)),
	}
	for _, m := range rule.Measures {
		res.Measures = append(res.Measures, m.Name)
	}
	for _, row := range rows {
		res.Rows = append(res.Rows, RuleRow{
			Key:    row.Key.Parts(),
			Count:  row.Count,
			Values: row.Values,
		})
	}
	return res, nil
}
