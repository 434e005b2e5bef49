package aggregation

import (
	"fmt"
	"strings"
	"time"

	"github.com/aevon-lab/salescope/internal/core/sales"
)

// Period is a calendar bucketing granularity.
type Period string

const (
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
)

// ParsePeriod validates a granularity name.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case PeriodMonth, PeriodQuarter:
		return p, nil
	default:
		return "", Invalidf("unsupported period %q (must be month or quarter)", s)
	}
}

// BucketFor maps a timestamp to the last calendar day of its period, at
// midnight in t's location.
// Example: BucketFor(2024-02-10, month) → 2024-02-29; BucketFor(2024-05-01, quarter) → 2024-06-30.
// Anything other than PeriodQuarter buckets by month.
func BucketFor(t time.Time, p Period) time.Time {
	year, month, _ := t.Date()
	endMonth := month
	if p == PeriodQuarter {
		endMonth = quarterEndMonth(month)
	}
	// Day 0 of the following month normalizes to the last day of endMonth.
	return time.Date(year, endMonth+1, 0, 0, 0, 0, 0, t.Location())
}

// NextBucket returns the bucket that follows the one ending at end.
func NextBucket(end time.Time, p Period) time.Time {
	year, month, _ := end.Date()
	step := time.Month(1)
	if p == PeriodQuarter {
		step = 3
	}
	return time.Date(year, month+step+1, 0, 0, 0, 0, 0, end.Location())
}

// PeriodIndex is the position of a bucket inside its year: month 1-12 or quarter 1-4.
func PeriodIndex(end time.Time, p Period) int {
	month := int(end.Month())
	if p == PeriodQuarter {
		return (month-1)/3 + 1
	}
	return month
}

// PeriodDimension exposes the bucket of a record's date as a grouping dimension.
// Key parts are rendered with sales.DateLayout.
func PeriodDimension(p Period) Dimension {
	return Dimension{
		Name: string(p),
		Value: func(r sales.Record) string {
			return BucketFor(r.Date, p).Format(sales.DateLayout)
		},
	}
}

// ParseBucket reads back a key part produced by PeriodDimension.
func ParseBucket(part string) (time.Time, error) {
	t, err := time.Parse(sales.DateLayout, part)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid bucket %q: %w", part, err)
	}
	return t, nil
}

func quarterEndMonth(m time.Month) time.Month {
	return ((m-1)/3 + 1) * 3
}
