// Package report renders a full analysis run into human and machine readable
// artifacts: a markdown narrative, one CSV per table, a YAML summary and an
// XLSX workbook.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/aevon-lab/salescope/internal/analysis"
	"github.com/aevon-lab/salescope/internal/core/aggregation"
	"github.com/aevon-lab/salescope/internal/core/sales"
	"github.com/google/uuid"
)

// Format names an output artifact kind.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatYAML     Format = "yaml"
	FormatXLSX     Format = "xlsx"
)

// Formats lists every supported format.
var Formats = []Format{FormatMarkdown, FormatCSV, FormatYAML, FormatXLSX}

// ParseFormats validates and de-duplicates format names, keeping their order.
func ParseFormats(names []string) ([]Format, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("at least one report format is required")
	}
	seen := make(map[Format]bool, len(names))
	out := make([]Format, 0, len(names))
	for _, name := range names {
		f := Format(strings.ToLower(strings.TrimSpace(name)))
		if !f.valid() {
			return nil, fmt.Errorf("unknown report format %q", name)
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

func (f Format) valid() bool {
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}

// Report is the outcome of one analysis run over a dataset snapshot.
type Report struct {
	RunID       string           `json:"run_id"`
	GeneratedAt time.Time        `json:"generated_at"`
	Options     analysis.Options `json:"-"`

	Overview   analysis.OverviewResult           `json:"overview"`
	TopStores  []analysis.PerformanceRow         `json:"top_stores"`
	Struggling analysis.StrugglingResult         `json:"struggling_stores"`
	Products   analysis.ProductPerformanceResult `json:"products"`
	Locations  []analysis.LocationRow            `json:"locations"`
	Seasonal   analysis.SeasonalResult           `json:"seasonal_trends"`
	Anomalies  analysis.AnomalyResult            `json:"anomalies"`
	Reductions []analysis.RuleResult             `json:"reductions,omitempty"`
}

// Build runs every analysis over store with the engine's options, followed by
// the given catalog rules in order.
func Build(store sales.Source, engine *analysis.Engine, rules ...aggregation.Rule) (*Report, error) {
	opts := engine.Options()
	report := &Report{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Options:     opts,
	}

	var err error

	report.Overview = engine.Overview(store)

	report.TopStores, err = engine.TopStores(store, opts.TopStores)
	if err != nil {
		return nil, fmt.Errorf("failed to rank stores: %w", err)
	}

	report.Struggling, err = engine.StrugglingStores(store)
	if err != nil {
		return nil, fmt.Errorf("failed to find struggling stores: %w", err)
	}

	report.Products, err = engine.ProductPerformance(store, opts.TopCategories)
	if err != nil {
		return nil, fmt.Errorf("failed to rank product categories: %w", err)
	}

	report.Locations, err = engine.LocationInsights(store)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize locations: %w", err)
	}

	report.Seasonal, err = engine.SeasonalTrends(store)
	if err != nil {
		return nil, fmt.Errorf("failed to compute seasonal trends: %w", err)
	}

	report.Anomalies, err = engine.Anomalies(store)
	if err != nil {
		return nil, fmt.Errorf("failed to detect anomalies: %w", err)
	}

	for _, rule := range rules {
		res, err := engine.RunRule(store, rule)
		if err != nil {
			return nil, fmt.Errorf("failed to run rule %s: %w", rule.Name, err)
		}
		report.Reductions = append(report.Reductions, res)
	}

	return report, nil
}
