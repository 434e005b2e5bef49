package report

import (
	"fmt"
	"io"
	"time"

	"github.com/aevon-lab/salescope/internal/core/sales"
	"gopkg.in/yaml.v3"
)

// summary is the YAML document shape. Amounts are strings so no precision is
// lost to float formatting.
type summary struct {
	RunID       string            `yaml:"run_id"`
	GeneratedAt time.Time         `yaml:"generated_at"`
	Parameters  summaryParameters `yaml:"parameters"`
	Overview    summaryOverview   `yaml:"overview"`
	TopStores   []summaryEntity   `yaml:"top_stores"`
	Struggling  summaryStruggling `yaml:"struggling_stores"`
	TopProducts []summaryEntity   `yaml:"top_product_types"`
	LowProducts []summaryEntity   `yaml:"bottom_product_types"`
	Locations   []summaryEntity   `yaml:"locations"`
	Anomalies   summaryAnomalies  `yaml:"anomalies"`
	Reductions  []summaryRule     `yaml:"reductions,omitempty"`
}

type summaryParameters struct {
	TopStores            int     `yaml:"top_stores"`
	TopCategories        int     `yaml:"top_categories"`
	StrugglingPercentile float64 `yaml:"struggling_percentile"`
	AnomalyZ             float64 `yaml:"anomaly_z"`
	TrendGranularity     string  `yaml:"trend_granularity"`
}

type summaryOverview struct {
	TotalSales         string `yaml:"total_sales"`
	AverageTransaction string `yaml:"average_transaction,omitempty"`
	TotalTransactions  int    `yaml:"total_transactions"`
	StartDate          string `yaml:"start_date,omitempty"`
	EndDate            string `yaml:"end_date,omitempty"`
}

type summaryEntity struct {
	Name       string `yaml:"name"`
	TotalSales string `yaml:"total_sales"`
}

type summaryStruggling struct {
	Threshold string   `yaml:"threshold,omitempty"`
	Stores    []string `yaml:"stores"`
}

type summaryRule struct {
	Name        string `yaml:"name"`
	Fingerprint string `yaml:"fingerprint"`
	Groups      int    `yaml:"groups"`
}

type summaryAnomalies struct {
	Threshold float64 `yaml:"threshold"`
	Count     int     `yaml:"count"`
}

// RenderYAML writes a compact YAML summary of the report.
func RenderYAML(w io.Writer, r *Report) error {
	doc := summary{
		RunID:       r.RunID,
		GeneratedAt: r.GeneratedAt,
		Parameters: summaryParameters{
			TopStores:            r.Options.TopStores,
			TopCategories:        r.Options.TopCategories,
			StrugglingPercentile: r.Options.StrugglingPercentile,
			AnomalyZ:             r.Options.AnomalyZ,
			TrendGranularity:     string(r.Options.TrendGranularity),
		},
		Overview: summaryOverview{
			TotalSales:         money(r.Overview.TotalSales),
			AverageTransaction: nullMoney(r.Overview.AverageTransaction),
			TotalTransactions:  r.Overview.TotalTransactions,
		},
		Struggling: summaryStruggling{
			Threshold: nullMoney(r.Struggling.Threshold),
			Stores:    make([]string, 0, len(r.Struggling.Entities)),
		},
		Anomalies: summaryAnomalies{
			Threshold: r.Anomalies.Threshold,
			Count:     len(r.Anomalies.Records),
		},
	}
	if r.Overview.DateRange != nil {
		doc.Overview.StartDate = r.Overview.DateRange.Start.Format(sales.DateLayout)
		doc.Overview.EndDate = r.Overview.DateRange.End.Format(sales.DateLayout)
	}
	for _, row := range r.TopStores {
		doc.TopStores = append(doc.TopStores, summaryEntity{Name: row.Key, TotalSales: money(row.TotalSales)})
	}
	for _, row := range r.Struggling.Entities {
		doc.Struggling.Stores = append(doc.Struggling.Stores, row.Entity)
	}
	for _, row := range r.Products.Top {
		doc.TopProducts = append(doc.TopProducts, summaryEntity{Name: row.Key, TotalSales: money(row.TotalSales)})
	}
	for _, row := range r.Products.Bottom {
		doc.LowProducts = append(doc.LowProducts, summaryEntity{Name: row.Key, TotalSales: money(row.TotalSales)})
	}
	for _, row := range r.Locations {
		doc.Locations = append(doc.Locations, summaryEntity{Name: row.Location, TotalSales: money(row.TotalSales)})
	}
	for _, res := range r.Reductions {
		doc.Reductions = append(doc.Reductions, summaryRule{
			Name:        res.Rule,
			Fingerprint: res.Fingerprint,
			Groups:      len(res.Rows),
		})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode yaml summary: %w", err)
	}
	return enc.Close()
}
