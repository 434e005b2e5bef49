package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/aevon-lab/salescope/internal/core/sales"
)

// RenderMarkdown writes the report as a markdown document.
func RenderMarkdown(w io.Writer, r *Report) error {
	var b strings.Builder

	b.WriteString("# Retail Sales Analysis Report\n\n")
	fmt.Fprintf(&b, "Run `%s`, generated %s.\n\n", r.RunID, r.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

	b.WriteString("## Sales Overview\n\n")
	fmt.Fprintf(&b, "- Total Sales: $%s\n", money(r.Overview.TotalSales))
	fmt.Fprintf(&b, "- Average Transaction: %s\n", dollars(nullMoney(r.Overview.AverageTransaction)))
	fmt.Fprintf(&b, "- Total Transactions: %d\n", r.Overview.TotalTransactions)
	if r.Overview.DateRange != nil {
		fmt.Fprintf(&b, "- Date Range: %s to %s\n",
			r.Overview.DateRange.Start.Format(sales.DateLayout),
			r.Overview.DateRange.End.Format(sales.DateLayout))
	} else {
		b.WriteString("- Date Range: n/a\n")
	}
	b.WriteString("\n")

	tables := make(map[string]Table)
	for _, t := range r.Tables() {
		tables[t.Name] = t
	}

	fmt.Fprintf(&b, "## Top Performing Stores\n\nTop %d stores by total sales.\n\n", r.Options.TopStores)
	writeMarkdownTable(&b, tables[TableTopStores])

	b.WriteString("## Stores of Concern\n\n")
	fmt.Fprintf(&b, "Stores whose average monthly sales are at or below percentile %s (threshold %s).\n\n",
		trimFloat(r.Struggling.Percentile), dollars(nullMoney(r.Struggling.Threshold)))
	writeMarkdownTable(&b, tables[TableStrugglingStores])

	fmt.Fprintf(&b, "## Top Product Categories\n\nTop %d product types by total sales.\n\n", r.Options.TopCategories)
	writeMarkdownTable(&b, tables[TableTopCategories])

	fmt.Fprintf(&b, "## Bottom Product Categories\n\nBottom %d product types by total sales.\n\n", r.Options.TopCategories)
	writeMarkdownTable(&b, tables[TableBottomCategories])

	b.WriteString("## Location Performance\n\n")
	writeMarkdownTable(&b, tables[TableLocations])

	b.WriteString("## Seasonal Trends\n\n### Monthly\n\n")
	writeMarkdownTable(&b, tables[TableMonthlyTrend])
	b.WriteString("### Quarterly\n\n")
	writeMarkdownTable(&b, tables[TableQuarterlyTrend])

	b.WriteString("## Sales Anomalies\n\n")
	fmt.Fprintf(&b, "%d transactions deviate more than %s standard deviations from their store and product type mean.\n\n",
		len(r.Anomalies.Records), trimFloat(r.Anomalies.Threshold))
	writeMarkdownTable(&b, tables[TableAnomalies])

	if len(r.Reductions) > 0 {
		b.WriteString("## Custom Reductions\n\n")
		for _, res := range r.Reductions {
			fmt.Fprintf(&b, "### %s\n\n", res.Rule)
			writeMarkdownTable(&b, tables[RuleTableName(res.Rule)])
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeMarkdownTable(b *strings.Builder, t Table) {
	if len(t.Rows) == 0 {
		b.WriteString("_No data._\n\n")
		return
	}

	names := make([]string, len(t.Columns))
	align := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
		align[i] = "---"
		if c.Numeric {
			align[i] = "---:"
		}
	}
	b.WriteString("| " + strings.Join(names, " | ") + " |\n")
	b.WriteString("| " + strings.Join(align, " | ") + " |\n")

	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			if cell == "" {
				cell = "-"
			}
			cells[i] = strings.ReplaceAll(cell, "|", `\|`)
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	b.WriteString("\n")
}

func dollars(amount string) string {
	if amount == "" {
		return "n/a"
	}
	return "$" + amount
}

func trimFloat(f float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", f), "0"), ".")
}
