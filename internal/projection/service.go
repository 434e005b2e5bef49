package projection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aevon-lab/salescope/internal/analysis"
	"github.com/aevon-lab/salescope/internal/core/aggregation"
	"github.com/aevon-lab/salescope/internal/core/sales"
	"golang.org/x/sync/singleflight"
)

// ErrNoDataset is returned while no snapshot has been loaded yet.
var ErrNoDataset = errors.New("no dataset loaded")

// Service answers analysis queries against the current dataset snapshot.
// Snapshots are swapped atomically; a query always runs against the snapshot
// it started with. Identical concurrent queries on the same generation are
// computed once.
type Service struct {
	engine     *analysis.Engine
	current    atomic.Pointer[Snapshot]
	generation atomic.Uint64
	group      singleflight.Group
	rules      aggregation.RuleRepository
	nowFn      func() time.Time
}

// NewService creates a new projection service with no dataset loaded.
func NewService(engine *analysis.Engine) *Service {
	if engine == nil {
		panic("projection: engine must not be nil")
	}
	return &Service{
		engine: engine,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// UseRules serves the named reductions of repo under /v1/rules.
func (s *Service) UseRules(repo aggregation.RuleRepository) {
	s.rules = repo
}

// Swap installs store as the next generation and returns its snapshot.
func (s *Service) Swap(store *sales.Store) *Snapshot {
	snap := &Snapshot{
		Store:      store,
		Generation: s.generation.Add(1),
		LoadedAt:   s.nowFn(),
	}
	s.current.Store(snap)

	slog.Info("[Projection] Dataset swapped",
		"generation", snap.Generation,
		"records", store.Len())
	return snap
}

// Snapshot returns the current snapshot or ErrNoDataset.
func (s *Service) Snapshot() (*Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrNoDataset
	}
	return snap, nil
}

// Ping reports whether a dataset is being served; used by the health endpoint.
func (s *Service) Ping(_ context.Context) error {
	_, err := s.Snapshot()
	return err
}

// Options returns the engine defaults used when a query omits a parameter.
func (s *Service) Options() analysis.Options {
	return s.engine.Options()
}

// Overview returns the overview of the current snapshot.
func (s *Service) Overview(ctx context.Context) (*QueryResponse, error) {
	return s.query(ctx, "overview", func(store *sales.Store) (interface{}, error) {
		return s.engine.Overview(store), nil
	})
}

// Stores returns the full per-store performance table ordered by store id.
func (s *Service) Stores(ctx context.Context) (*QueryResponse, error) {
	return s.query(ctx, "stores", func(store *sales.Store) (interface{}, error) {
		return s.engine.StorePerformance(store)
	})
}

// TopStores ranks stores by total sales.
func (s *Service) TopStores(ctx context.Context, n int) (*QueryResponse, error) {
	return s.query(ctx, fmt.Sprintf("top_stores|%d", n), func(store *sales.Store) (interface{}, error) {
		return s.engine.TopStores(store, n)
	})
}

// StrugglingStores lists stores at or below the p-th percentile of mean monthly sales.
func (s *Service) StrugglingStores(ctx context.Context, p float64) (*QueryResponse, error) {
	return s.query(ctx, fmt.Sprintf("struggling|%v", p), func(store *sales.Store) (interface{}, error) {
		return s.engine.StrugglingEntities(store, sales.FieldStoreID, p)
	})
}

// Products ranks product categories from both ends.
func (s *Service) Products(ctx context.Context, n int) (*QueryResponse, error) {
	return s.query(ctx, fmt.Sprintf("products|%d", n), func(store *sales.Store) (interface{}, error) {
		return s.engine.ProductPerformance(store, n)
	})
}

// Locations summarizes sales per location.
func (s *Service) Locations(ctx context.Context) (*QueryResponse, error) {
	return s.query(ctx, "locations", func(store *sales.Store) (interface{}, error) {
		return s.engine.LocationInsights(store)
	})
}

// Trends returns the sales series at the given granularity.
func (s *Service) Trends(ctx context.Context, granularity string) (*QueryResponse, error) {
	period, err := aggregation.ParsePeriod(granularity)
	if err != nil {
		return nil, err
	}
	return s.query(ctx, "trends|"+string(period), func(store *sales.Store) (interface{}, error) {
		return s.engine.Trend(store, period)
	})
}

// Anomalies lists records scoring above z within their (store, product type) group.
func (s *Service) Anomalies(ctx context.Context, z float64) (*QueryResponse, error) {
	return s.query(ctx, fmt.Sprintf("anomalies|%v", z), func(store *sales.Store) (interface{}, error) {
		return s.engine.DetectAnomalies(store, sales.FieldStoreID, sales.FieldProductType, z)
	})
}

// Rules lists the reduction catalog. It does not need a dataset.
func (s *Service) Rules(ctx context.Context) ([]aggregation.Rule, error) {
	if s.rules == nil {
		return []aggregation.Rule{}, nil
	}
	return s.rules.List(ctx)
}

// RunRule runs the named catalog reduction on the current snapshot.
func (s *Service) RunRule(ctx context.Context, name string) (*QueryResponse, error) {
	if s.rules == nil {
		return nil, fmt.Errorf("%w: %q", aggregation.ErrRuleNotFound, name)
	}
	rule, err := s.rules.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.query(ctx, "rule|"+rule.Name+"|"+rule.Fingerprint, func(store *sales.Store) (interface{}, error) {
		return s.engine.RunRule(store, *rule)
	})
}

// query runs fn on the current snapshot, sharing the work between identical
// in-flight requests of the same generation.
func (s *Service) query(ctx context.Context, key string, fn func(*sales.Store) (interface{}, error)) (*QueryResponse, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}

	flightKey := fmt.Sprintf("%d|%s", snap.Generation, key)
	ch := s.group.DoChan(flightKey, func() (interface{}, error) {
		return fn(snap.Store)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			slog.Debug("[Projection] Shared in-flight query", "key", flightKey)
		}
		return &QueryResponse{Dataset: snap.info(), Result: res.Val}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
