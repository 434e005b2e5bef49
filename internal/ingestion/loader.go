// Package ingestion turns delimited sales files into sales records.
//
// Column names are normalized before lookup (trimmed, lower-cased, spaces and
// dashes folded to underscores), so "Store ID", "store-id" and "store_id" all
// resolve to the same column. Categorical values are interned: every distinct
// string is stored once no matter how many records reference it.
package ingestion

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aevon-lab/salescope/internal/core/sales"
)

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// DefaultDateLayouts are tried in order for the date column.
var DefaultDateLayouts = []string{
	sales.DateLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
}

// cancelCheckInterval is how many rows are decoded between context checks.
const cancelCheckInterval = 4096

// RowError reports a malformed value. Line is 1-based and counts the header.
type RowError struct {
	Line   int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: column %s: %v", e.Line, e.Column, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Loader decodes delimited sales data.
type Loader struct {
	Delimiter   rune
	DateLayouts []string
}

// NewLoader returns a loader for the given delimiter; 0 means comma.
func NewLoader(delimiter rune) *Loader {
	if delimiter == 0 {
		delimiter = ','
	}
	return &Loader{
		Delimiter:   delimiter,
		DateLayouts: DefaultDateLayouts,
	}
}

// NormalizeColumn maps a raw header cell to its canonical column name.
func NormalizeColumn(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(name)
}

// Decode reads every record from r. The first row must be a header naming at
// least the canonical sales columns; unknown columns are ignored.
func (l *Loader) Decode(ctx context.Context, r io.Reader) ([]sales.Record, error) {
	cr := csv.NewReader(r)
	cr.Comma = l.Delimiter
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: input has no header row", ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	in := newInterner()
	var records []sales.Record
	for rows := 0; ; rows++ {
		if rows%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		line, _ := cr.FieldPos(0)

		rec, err := l.decodeRow(row, columns, in, line)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

// Load decodes r into a new Store.
func (l *Loader) Load(ctx context.Context, r io.Reader) (*sales.Store, error) {
	records, err := l.Decode(ctx, r)
	if err != nil {
		return nil, err
	}
	return sales.NewStore(records), nil
}

// LoadFile opens path and loads it into a new Store.
func (l *Loader) LoadFile(ctx context.Context, path string) (*sales.Store, error) {
	var store *sales.Store
	err := readFile(path, func(r io.Reader) error {
		var err error
		store, err = l.Load(ctx, r)
		return err
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// DecodeFile opens path and decodes every record.
func (l *Loader) DecodeFile(ctx context.Context, path string) ([]sales.Record, error) {
	var records []sales.Record
	err := readFile(path, func(r io.Reader) error {
		var err error
		records, err = l.Decode(ctx, r)
		return err
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// readFile opens path, hands it to read and logs how long decoding took.
func readFile(path string, read func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open sales file: %w", err)
	}
	defer f.Close()

	start := time.Now()
	if err := read(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	slog.Info("[Ingestion] Loaded sales file",
		"path", path,
		"duration", time.Since(start))
	return nil
}

func (l *Loader) decodeRow(row []string, columns map[sales.Field]int, in interner, line int) (sales.Record, error) {
	cell := func(f sales.Field) string {
		return strings.TrimSpace(row[columns[f]])
	}

	date, err := parseDate(cell(sales.FieldDate), l.DateLayouts)
	if err != nil {
		return sales.Record{}, &RowError{Line: line, Column: string(sales.FieldDate), Err: err}
	}
	amount, err := sales.ParseAmount(cell(sales.FieldSalesAmount))
	if err != nil {
		return sales.Record{}, &RowError{Line: line, Column: string(sales.FieldSalesAmount), Err: err}
	}

	rec := sales.Record{
		Date:        date,
		StoreID:     in.intern(cell(sales.FieldStoreID)),
		ProductType: in.intern(cell(sales.FieldProductType)),
		ProductName: in.intern(cell(sales.FieldProductName)),
		Location:    in.intern(cell(sales.FieldLocation)),
		SalesAmount: amount,
	}
	if err := rec.Validate(); err != nil {
		return sales.Record{}, &RowError{Line: line, Column: string(sales.FieldStoreID), Err: err}
	}
	return rec, nil
}

// resolveColumns maps every canonical field to its header index.
// The first occurrence wins when normalization makes two headers collide.
func resolveColumns(header []string) (map[sales.Field]int, error) {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		name := NormalizeColumn(h)
		if _, seen := byName[name]; !seen {
			byName[name] = i
		}
	}

	columns := make(map[sales.Field]int, len(sales.Fields))
	var missing []string
	for _, f := range sales.Fields {
		idx, ok := byName[string(f)]
		if !ok {
			missing = append(missing, string(f))
			continue
		}
		columns[f] = idx
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return columns, nil
}

// parseDate accepts any of layouts and keeps only the calendar day as written,
// as midnight UTC.
func parseDate(raw string, layouts []string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range layouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

type interner map[string]string

func newInterner() interner {
	return make(interner)
}

// intern clones s on first sight so the table never pins a whole csv line.
func (in interner) intern(s string) string {
	if v, ok := in[s]; ok {
		return v
	}
	s = strings.Clone(s)
	in[s] = s
	return s
}
