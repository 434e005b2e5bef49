package report

import (
	"strconv"

	"github.com/aevon-lab/salescope/internal/analysis"
	"github.com/aevon-lab/salescope/internal/core/sales"
	"github.com/shopspring/decimal"
)

// Table names, also used as CSV file and XLSX sheet names.
const (
	TableOverview         = "overview"
	TableTopStores        = "top_stores"
	TableStrugglingStores = "struggling_stores"
	TableTopCategories    = "top_categories"
	TableBottomCategories = "bottom_categories"
	TableLocations        = "locations"
	TableMonthlyTrend     = "monthly_trend"
	TableQuarterlyTrend   = "quarterly_trend"
	TableAnomalies        = "anomalies"

	// ruleTablePrefix precedes the rule name in catalog reduction tables.
	ruleTablePrefix = "rule_"
)

// Column is one table column. Numeric columns hold decimal text and are
// written as numbers where the format supports it.
type Column struct {
	Name    string
	Numeric bool
}

// Table is a rendered result table. Undefined values are empty cells.
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]string
}

// RuleTableName is the table name for a catalog reduction.
func RuleTableName(rule string) string {
	return ruleTablePrefix + rule
}

func text(name string) Column    { return Column{Name: name} }
func numeric(name string) Column { return Column{Name: name, Numeric: true} }

// Tables flattens the report into its tables, in report order.
func (r *Report) Tables() []Table {
	tables := []Table{
		r.overviewTable(),
		performanceTable(TableTopStores, "store_id", r.TopStores),
		r.strugglingTable(),
		performanceTable(TableTopCategories, "product_type", r.Products.Top),
		performanceTable(TableBottomCategories, "product_type", r.Products.Bottom),
		r.locationTable(),
		trendTable(TableMonthlyTrend, "month", r.Seasonal.Monthly),
		trendTable(TableQuarterlyTrend, "quarter", r.Seasonal.Quarterly),
		r.anomalyTable(),
	}
	for _, res := range r.Reductions {
		tables = append(tables, ruleTable(res))
	}
	return tables
}

func (r *Report) overviewTable() Table {
	start, end := "", ""
	if r.Overview.DateRange != nil {
		start = r.Overview.DateRange.Start.Format(sales.DateLayout)
		end = r.Overview.DateRange.End.Format(sales.DateLayout)
	}
	return Table{
		Name:    TableOverview,
		Columns: []Column{text("metric"), text("value")},
		Rows: [][]string{
			{"total_sales", money(r.Overview.TotalSales)},
			{"average_transaction", nullMoney(r.Overview.AverageTransaction)},
			{"total_transactions", strconv.Itoa(r.Overview.TotalTransactions)},
			{"start_date", start},
			{"end_date", end},
		},
	}
}

func performanceTable(name, key string, rows []analysis.PerformanceRow) Table {
	t := Table{
		Name:    name,
		Columns: []Column{text(key), numeric("total_sales"), numeric("avg_sale"), numeric("total_transactions")},
		Rows:    make([][]string, 0, len(rows)),
	}
	for _, row := range rows {
		t.Rows = append(t.Rows, []string{
			row.Key,
			money(row.TotalSales),
			nullMoney(row.AvgSale),
			strconv.FormatInt(row.TotalTransactions, 10),
		})
	}
	return t
}

func (r *Report) strugglingTable() Table {
	t := Table{
		Name:    TableStrugglingStores,
		Columns: []Column{text("store_id"), numeric("avg_monthly_sales"), numeric("sales_volatility"), numeric("months")},
		Rows:    make([][]string, 0, len(r.Struggling.Entities)),
	}
	for _, row := range r.Struggling.Entities {
		t.Rows = append(t.Rows, []string{
			row.Entity,
			money(row.AvgMonthlySales),
			nullMoney(row.Volatility),
			strconv.Itoa(row.Months),
		})
	}
	return t
}

func (r *Report) locationTable() Table {
	t := Table{
		Name: TableLocations,
		Columns: []Column{
			text("location"), numeric("total_sales"), numeric("avg_sale"),
			numeric("unique_stores"), numeric("total_transactions"),
		},
		Rows: make([][]string, 0, len(r.Locations)),
	}
	for _, row := range r.Locations {
		t.Rows = append(t.Rows, []string{
			row.Location,
			money(row.TotalSales),
			nullMoney(row.AvgSale),
			strconv.FormatInt(row.UniqueStores, 10),
			strconv.FormatInt(row.TotalTransactions, 10),
		})
	}
	return t
}

func trendTable(name, index string, points []analysis.TrendPoint) Table {
	t := Table{
		Name:    name,
		Columns: []Column{text("period_end"), numeric(index), numeric("total_sales"), numeric("total_transactions")},
		Rows:    make([][]string, 0, len(points)),
	}
	for _, p := range points {
		t.Rows = append(t.Rows, []string{
			p.PeriodEnd.Format(sales.DateLayout),
			strconv.Itoa(p.Index),
			money(p.TotalSales),
			strconv.FormatInt(p.TotalTransactions, 10),
		})
	}
	return t
}

func (r *Report) anomalyTable() Table {
	t := Table{
		Name: TableAnomalies,
		Columns: []Column{
			text("date"), text("store_id"), text("product_type"), text("product_name"),
			text("location"), numeric("sales_amount"), numeric("sales_zscore"),
		},
		Rows: make([][]string, 0, len(r.Anomalies.Records)),
	}
	for _, rec := range r.Anomalies.Records {
		t.Rows = append(t.Rows, []string{
			rec.Date.Format(sales.DateLayout),
			rec.StoreID,
			rec.ProductType,
			rec.ProductName,
			rec.Location,
			rec.SalesAmount.String(),
			nullFixed(rec.Score, 4),
		})
	}
	return t
}

// ruleTable has one text column per grouping key, a count and one column per
// measure. Measure values keep their full precision.
func ruleTable(res analysis.RuleResult) Table {
	t := Table{
		Name:    RuleTableName(res.Rule),
		Columns: make([]Column, 0, len(res.GroupBy)+1+len(res.Measures)),
		Rows:    make([][]string, 0, len(res.Rows)),
	}
	for _, g := range res.GroupBy {
		t.Columns = append(t.Columns, text(g))
	}
	t.Columns = append(t.Columns, numeric("records"))
	for _, m := range res.Measures {
		t.Columns = append(t.Columns, numeric(m))
	}
	for _, row := range res.Rows {
		cells := append([]string{}, row.Key...)
		cells = append(cells, strconv.FormatInt(row.Count, 10))
		for _, m := range res.Measures {
			v := row.Values[m]
			if !v.Valid {
				cells = append(cells, "")
				continue
			}
			cells = append(cells, v.Decimal.String())
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func nullMoney(d decimal.NullDecimal) string {
	return nullFixed(d, 2)
}

func nullFixed(d decimal.NullDecimal, places int32) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.StringFixed(places)
}
