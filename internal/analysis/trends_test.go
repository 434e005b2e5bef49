package analysis

import (
	"testing"

	"github.com/aevon-lab/salescope/internal/core/aggregation"
	"github.com/aevon-lab/salescope/internal/core/sales"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestTrend_MonthlyFillsGaps(t *testing.T) {
	points, err := newTestEngine(t).Trend(retailStore(), aggregation.PeriodMonth)
	require.NoError(t, err)
	require.Len(t, points, 6)

	wantEnds := []string{"2024-01-31", "2024-02-29", "2024-03-31", "2024-04-30", "2024-05-31", "2024-06-30"}
	wantSales := []string{"175", "145", "165", "0", "65", "120"}
	wantCounts := []int64{3, 3, 2, 0, 2, 2}
	for i, p := range points {
		require.Equal(t, wantEnds[i], p.PeriodEnd.Format(sales.DateLayout))
		require.Equal(t, i+1, p.Index)
		requireDecimal(t, wantSales[i], p.TotalSales)
		require.Equal(t, wantCounts[i], p.TotalTransactions)
	}
}

func TestTrend_SpanAcrossYearsFromUnorderedRecords(t *testing.T) {
	store := sales.NewStore([]sales.Record{
		rec("2024-02-10", "S1", "Dairy", "Pune", "30"),
		rec("2023-11-05", "S1", "Dairy", "Pune", "10"),
		rec("2024-01-20", "S2", "Bakery", "Pune", "20"),
	})

	points, err := newTestEngine(t).Trend(store, aggregation.PeriodMonth)
	require.NoError(t, err)

	wantEnds := []string{"2023-11-30", "2023-12-31", "2024-01-31", "2024-02-29"}
	wantSales := []string{"10", "0", "20", "30"}
	require.Len(t, points, len(wantEnds))
	for i, p := range points {
		require.Equal(t, wantEnds[i], p.PeriodEnd.Format(sales.DateLayout))
		requireDecimal(t, wantSales[i], p.TotalSales)
	}
	require.Equal(t, []int{11, 12, 1, 2}, []int{points[0].Index, points[1].Index, points[2].Index, points[3].Index})
}

func TestTrend_Quarterly(t *testing.T) {
	points, err := newTestEngine(t).Trend(retailStore(), aggregation.PeriodQuarter)
	require.NoError(t, err)
	require.Len(t, points, 2)

	require.Equal(t, "2024-03-31", points[0].PeriodEnd.Format(sales.DateLayout))
	require.Equal(t, 1, points[0].Index)
	requireDecimal(t, "485", points[0].TotalSales)
	require.Equal(t, int64(8), points[0].TotalTransactions)

	require.Equal(t, "2024-06-30", points[1].PeriodEnd.Format(sales.DateLayout))
	require.Equal(t, 2, points[1].Index)
	requireDecimal(t, "185", points[1].TotalSales)
}

func TestTrend_SumsMatchOverview(t *testing.T) {
	e := newTestEngine(t)
	store := retailStore()
	total := e.Overview(store).TotalSales

	for _, period := range []aggregation.Period{aggregation.PeriodMonth, aggregation.PeriodQuarter} {
		points, err := e.Trend(store, period)
		require.NoError(t, err)

		sum := decimal.Zero
		for _, p := range points {
			sum = sum.Add(p.TotalSales)
		}
		require.True(t, total.Equal(sum), "period=%s", period)
	}
}

func TestTrend_EmptyStore(t *testing.T) {
	points, err := newTestEngine(t).Trend(sales.NewStore(nil), aggregation.PeriodMonth)
	require.NoError(t, err)
	require.NotNil(t, points)
	require.Empty(t, points)
}

func TestTrend_UnknownPeriod(t *testing.T) {
	_, err := newTestEngine(t).Trend(retailStore(), aggregation.Period("week"))
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestSeasonalTrends(t *testing.T) {
	res, err := newTestEngine(t).SeasonalTrends(retailStore())
	require.NoError(t, err)
	require.Len(t, res.Monthly, 6)
	require.Len(t, res.Quarterly, 2)
}
