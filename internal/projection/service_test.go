package projection

import (
	"context"
	"sync"
	"testing"

	"github.com/aevon-lab/salescope/internal/analysis"
	"github.com/aevon-lab/salescope/internal/core/sales"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_NoDataset(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Overview(context.Background())
	require.ErrorIs(t, err, ErrNoDataset)
	require.ErrorIs(t, svc.Ping(context.Background()), ErrNoDataset)
}

func TestService_SwapIncrementsGeneration(t *testing.T) {
	svc := newTestService(t)

	first := svc.Swap(sales.NewStore(testRecords()))
	second := svc.Swap(sales.NewStore(testRecords()[:2]))
	require.Equal(t, uint64(1), first.Generation)
	require.Equal(t, uint64(2), second.Generation)

	resp, err := svc.Overview(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(2), resp.Dataset.Generation)
	require.Equal(t, 2, resp.Dataset.Records)

	overview, ok := resp.Result.(analysis.OverviewResult)
	require.True(t, ok)
	require.Equal(t, 2, overview.TotalTransactions)
	require.NoError(t, svc.Ping(context.Background()))
}

func TestService_Queries(t *testing.T) {
	svc := newTestService(t)
	svc.Swap(sales.NewStore(testRecords()))
	ctx := context.Background()

	resp, err := svc.Stores(ctx)
	require.NoError(t, err)
	stores := resp.Result.([]analysis.PerformanceRow)
	require.Len(t, stores, 2)
	require.Equal(t, "S1", stores[0].Key)
	require.Equal(t, int64(4), stores[0].TotalTransactions)
	require.Equal(t, "S2", stores[1].Key)

	resp, err = svc.TopStores(ctx, 1)
	require.NoError(t, err)
	top := resp.Result.([]analysis.PerformanceRow)
	require.Len(t, top, 1)
	require.Equal(t, "S1", top[0].Key)

	resp, err = svc.StrugglingStores(ctx, 0)
	require.NoError(t, err)
	struggling := resp.Result.(analysis.StrugglingResult)
	require.Len(t, struggling.Entities, 1)
	require.Equal(t, "S2", struggling.Entities[0].Entity)

	resp, err = svc.Products(ctx, 1)
	require.NoError(t, err)
	products := resp.Result.(analysis.ProductPerformanceResult)
	require.Equal(t, "Dairy", products.Top[0].Key)
	require.Equal(t, "Bakery", products.Bottom[0].Key)

	resp, err = svc.Locations(ctx)
	require.NoError(t, err)
	require.Len(t, resp.Result.([]analysis.LocationRow), 1)

	resp, err = svc.Trends(ctx, "Month")
	require.NoError(t, err)
	require.Len(t, resp.Result.([]analysis.TrendPoint), 3)

	resp, err = svc.Anomalies(ctx, 1.4)
	require.NoError(t, err)
	require.Len(t, resp.Result.(analysis.AnomalyResult).Records, 1)
}

func TestService_InvalidParameters(t *testing.T) {
	svc := newTestService(t)
	svc.Swap(sales.NewStore(testRecords()))
	ctx := context.Background()

	_, err := svc.TopStores(ctx, 0)
	require.ErrorIs(t, err, analysis.ErrInvalidParameter)
	_, err = svc.StrugglingStores(ctx, 101)
	require.ErrorIs(t, err, analysis.ErrInvalidParameter)
	_, err = svc.Trends(ctx, "weekly")
	require.ErrorIs(t, err, analysis.ErrInvalidParameter)
	_, err = svc.Anomalies(ctx, -1)
	require.ErrorIs(t, err, analysis.ErrInvalidParameter)
}

func TestService_ConcurrentQueriesDuringSwap(t *testing.T) {
	svc := newTestService(t)
	svc.Swap(sales.NewStore(testRecords()))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := svc.Overview(context.Background())
			if !assert.NoError(t, err) {
				return
			}
			overview := resp.Result.(analysis.OverviewResult)
			// Either snapshot is fine, never a mix.
			assert.Equal(t, resp.Dataset.Records, overview.TotalTransactions)
		}()
	}
	svc.Swap(sales.NewStore(testRecords()[:3]))
	wg.Wait()
}

func TestService_CancelledContext(t *testing.T) {
	svc := newTestService(t)
	svc.Swap(sales.NewStore(testRecords()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The result may already be available; a cancelled caller gets either.
	resp, err := svc.Overview(ctx)
	if err != nil {
		require.ErrorIs(t, err, context.Canceled)
	} else {
		require.NotNil(t, resp)
	}
}
