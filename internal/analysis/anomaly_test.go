package analysis

import (
	"testing"

	"github.com/aevon-lab/salescope/internal/core/sales"
	"github.com/stretchr/testify/require"
)

func anomalyStore() *sales.Store {
	return sales.NewStore([]sales.Record{
		rec("2024-01-01", "S1", "Dairy", "Pune", "10"),
		rec("2024-01-02", "S1", "Dairy", "Pune", "10"),
		rec("2024-01-03", "S1", "Dairy", "Pune", "10"),
		rec("2024-01-04", "S1", "Dairy", "Pune", "100"),
		// Single-record group.
		rec("2024-01-05", "S2", "Dairy", "Pune", "5000"),
		// Zero-variance group.
		rec("2024-01-06", "S3", "Bakery", "Pune", "7"),
		rec("2024-01-07", "S3", "Bakery", "Pune", "7"),
	})
}

func TestScoreRecords_Example(t *testing.T) {
	scored, err := newTestEngine(t).ScoreRecords(anomalyStore(), sales.FieldStoreID, sales.FieldProductType)
	require.NoError(t, err)
	require.Len(t, scored, 7)

	// Group mean 32.5, sample std 45.
	requireDecimal(t, "1.5", scored[3].Score.Decimal)
	requireDecimal(t, "0.5", scored[0].Score.Decimal)
	require.False(t, scored[4].Score.Valid)
	require.False(t, scored[5].Score.Valid)
	require.False(t, scored[6].Score.Valid)
}

func TestDetectAnomalies_Threshold(t *testing.T) {
	e := newTestEngine(t)
	tests := []struct {
		name    string
		z       float64
		flagged int
	}{
		{name: "below the outlier score", z: 1.4, flagged: 1},
		{name: "just below the outlier score", z: 1.49, flagged: 1},
		{name: "equal to the score is not flagged", z: 1.5, flagged: 0},
		{name: "above the outlier score", z: 2.0, flagged: 0},
		{name: "zero flags every deviating record", z: 0, flagged: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.DetectAnomalies(anomalyStore(), sales.FieldStoreID, sales.FieldProductType, tt.z)
			require.NoError(t, err)
			require.Len(t, res.Records, tt.flagged)
			for _, r := range res.Records {
				require.True(t, r.Score.Valid)
				require.Equal(t, "S1", r.StoreID)
			}
		})
	}
}

func TestDetectAnomalies_FlaggedRecordKeepsFields(t *testing.T) {
	res, err := newTestEngine(t).DetectAnomalies(anomalyStore(), sales.FieldStoreID, sales.FieldProductType, 1.4)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)

	got := res.Records[0]
	requireDecimal(t, "100", got.SalesAmount)
	require.Equal(t, "Dairy", got.ProductType)
	require.Equal(t, "2024-01-04", got.Date.Format(sales.DateLayout))
	require.Equal(t, []sales.Field{sales.FieldStoreID, sales.FieldProductType}, res.GroupBy)
}

func TestDetectAnomalies_MonotoneInThreshold(t *testing.T) {
	e := newTestEngine(t)
	store := retailStore()

	prev := -1
	for _, z := range []float64{5, 3, 2, 1.5, 1, 0.5, 0.1, 0} {
		res, err := e.DetectAnomalies(store, sales.FieldStoreID, sales.FieldProductType, z)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(res.Records), prev, "z=%v", z)
		prev = len(res.Records)
	}
}

func TestScoreRecords_StoreUntouched(t *testing.T) {
	store := anomalyStore()
	before := copyRecords(store)

	_, err := newTestEngine(t).ScoreRecords(store, sales.FieldStoreID, sales.FieldProductType)
	require.NoError(t, err)
	require.Equal(t, before, copyRecords(store))
}

func TestDetectAnomalies_InvalidParameters(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.DetectAnomalies(anomalyStore(), sales.FieldStoreID, sales.FieldProductType, -0.5)
	require.ErrorIs(t, err, ErrInvalidParameter)

	_, err = e.DetectAnomalies(anomalyStore(), sales.FieldSalesAmount, sales.FieldProductType, 2)
	require.ErrorIs(t, err, ErrInvalidParameter)

	_, err = e.ScoreRecords(anomalyStore(), sales.FieldStoreID, sales.FieldDate)
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestDetectAnomalies_EmptyStore(t *testing.T) {
	res, err := newTestEngine(t).DetectAnomalies(sales.NewStore(nil), sales.FieldStoreID, sales.FieldProductType, 3)
	require.NoError(t, err)
	require.NotNil(t, res.Records)
	require.Empty(t, res.Records)
}

func copyRecords(src sales.Source) []sales.Record {
	out := make([]sales.Record, src.Len())
	for i := range out {
		out[i] = src.At(i)
	}
	return out
}
