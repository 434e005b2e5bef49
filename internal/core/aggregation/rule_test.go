package aggregation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeRule writes a single rule YAML file into dir.
func writeRule(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFileSystemRuleRepository_LoadAndList(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "store_monthly.yaml", `
name: store_monthly_sales
description: Monthly sales per store
group_by: [store_id, month]
measures:
  - {name: total_sales, field: sales_amount, operator: sum}
  - {name: transactions, field: product_name, operator: count}
`)
	writeRule(t, dir, "location_reach.yml", `
name: location_reach
group_by: [location]
measures:
  - {name: stores, field: store_id, operator: COUNT_DISTINCT}
`)
	writeRule(t, dir, "notes.txt", "not a rule")
	writeRule(t, dir, "empty.yaml", "# nothing here\n")

	repo, err := NewFileSystemRuleRepository(dir)
	if err != nil {
		t.Fatalf("NewFileSystemRuleRepository: %v", err)
	}

	all, err := repo.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("List: got %d rules, want 2", len(all))
	}
	if all[0].Name != "location_reach" || all[1].Name != "store_monthly_sales" {
		t.Fatalf("List not ordered by name: %s, %s", all[0].Name, all[1].Name)
	}
	if all[0].Measures[0].Operator != OpCountDistinct {
		t.Errorf("operator not normalized: %q", all[0].Measures[0].Operator)
	}

	rule, err := repo.Get(context.Background(), "store_monthly_sales")
	if err != nil {
		t.Fatal(err)
	}
	if rule.Description != "Monthly sales per store" {
		t.Errorf("unexpected description %q", rule.Description)
	}
	if len(rule.Fingerprint) != 64 {
		t.Errorf("fingerprint should be a SHA-256 hex digest, got %q", rule.Fingerprint)
	}
}

func TestFileSystemRuleRepository_GetMissing(t *testing.T) {
	repo, err := NewFileSystemRuleRepository(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Get(context.Background(), "nope"); !errors.Is(err, ErrRuleNotFound) {
		t.Fatalf("expected ErrRuleNotFound, got %v", err)
	}
}

func TestFileSystemRuleRepository_MissingDirIsEmpty(t *testing.T) {
	repo, err := NewFileSystemRuleRepository(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("missing dir should be valid, got %v", err)
	}
	all, _ := repo.List(context.Background())
	if len(all) != 0 {
		t.Fatalf("expected no rules, got %d", len(all))
	}
}

func TestFileSystemRuleRepository_PathIsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	writeRule(t, filepath.Dir(path), "rules.yaml", "name: x\n")

	if _, err := NewFileSystemRuleRepository(path); err == nil {
		t.Fatal("expected error for a file path")
	}
}

func TestFileSystemRuleRepository_InvalidRules(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "malformed yaml",
			content: "name: [unterminated\n",
		},
		{
			name: "unknown operator",
			content: `
name: bad_op
group_by: [store_id]
measures: [{name: x, field: sales_amount, operator: median}]
`,
		},
		{
			name: "numeric operator on text field",
			content: `
name: bad_field
group_by: [store_id]
measures: [{name: x, field: location, operator: sum}]
`,
		},
		{
			name: "amount as grouping key",
			content: `
name: bad_group
group_by: [sales_amount]
measures: [{name: x, field: sales_amount, operator: sum}]
`,
		},
		{
			name: "unknown grouping key",
			content: `
name: bad_group
group_by: [week]
measures: [{name: x, field: sales_amount, operator: sum}]
`,
		},
		{
			name: "no grouping",
			content: `
name: no_group
measures: [{name: x, field: sales_amount, operator: sum}]
`,
		},
		{
			name: "name with path separator",
			content: `
name: ../escape
group_by: [store_id]
measures: [{name: x, field: sales_amount, operator: sum}]
`,
		},
		{
			name: "no measures",
			content: `
name: no_measures
group_by: [store_id]
`,
		},
		{
			name: "duplicate measure names",
			content: `
name: dup
group_by: [store_id]
measures:
  - {name: x, field: sales_amount, operator: sum}
  - {name: x, field: sales_amount, operator: mean}
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeRule(t, dir, "rule.yaml", tt.content)
			if _, err := NewFileSystemRuleRepository(dir); err == nil {
				t.Fatal("expected load error")
			}
		})
	}
}

func TestFileSystemRuleRepository_DuplicateNames(t *testing.T) {
	dir := t.TempDir()
	body := `
name: same
group_by: [store_id]
measures: [{name: total, field: sales_amount, operator: sum}]
`
	writeRule(t, dir, "a.yaml", body)
	writeRule(t, dir, "b.yaml", body)

	if _, err := NewFileSystemRuleRepository(dir); err == nil {
		t.Fatal("expected duplicate name error")
	}
}

func TestRule_DimensionsRunThroughReduce(t *testing.T) {
	rule := Rule{
		Name:     "quarter_store",
		GroupBy:  []string{"quarter", "store_id"},
		Measures: []Measure{totalSales},
	}
	dims, err := rule.Dimensions()
	if err != nil {
		t.Fatal(err)
	}

	rows, err := Reduce(sampleRecords(), dims, rule.Measures)
	if err != nil {
		t.Fatal(err)
	}
	// Q1: S1, S2, S3; Q2: S1, S2, S3.
	if len(rows) != 6 {
		t.Fatalf("got %d rows, want 6", len(rows))
	}
	if got := rows[0].Key.String(); got != "2024-03-31|S1" {
		t.Errorf("first key = %q, want 2024-03-31|S1", got)
	}
	if got := rows[0].Values["total_sales"].Decimal.String(); got != "30.5" {
		t.Errorf("Q1 S1 total = %s, want 30.5", got)
	}
}

func TestFileSystemRuleRepository_BundledCatalog(t *testing.T) {
	repo, err := NewFileSystemRuleRepository(filepath.Join("..", "..", "..", "rules"))
	if err != nil {
		t.Fatalf("bundled rules must load: %v", err)
	}
	all, _ := repo.List(context.Background())
	if len(all) == 0 {
		t.Fatal("expected bundled rules")
	}
	for _, rule := range all {
		if _, err := Reduce(sampleRecords(), mustDimensions(t, rule), rule.Measures); err != nil {
			t.Errorf("rule %s: %v", rule.Name, err)
		}
	}
}

func mustDimensions(t *testing.T, rule Rule) []Dimension {
	t.Helper()
	dims, err := rule.Dimensions()
	if err != nil {
		t.Fatal(err)
	}
	return dims
}
