package projection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aevon-lab/salescope/internal/core/sales"
	"github.com/aevon-lab/salescope/internal/core/storage"
)

// Reloader refreshes the served dataset from a record source on a periodic
// interval and on demand. Each reload builds a fresh store and swaps it in
// whole; readers never observe a partially loaded dataset.
type Reloader struct {
	interval time.Duration
	source   storage.RecordSource
	target   *Service
	trigger  chan struct{}
}

// NewReloader creates a reloader. An interval of zero disables the ticker;
// Trigger still works.
func NewReloader(interval time.Duration, source storage.RecordSource, target *Service) *Reloader {
	return &Reloader{
		interval: interval,
		source:   source,
		target:   target,
		trigger:  make(chan struct{}, 1),
	}
}

// Trigger requests a reload without blocking. Requests made while one is
// pending are coalesced.
func (r *Reloader) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Reload loads the source once and swaps the result in.
//
// A failed load keeps the current snapshot. An empty source is only installed
// when nothing is being served yet, and storage.ErrEmptyDataset is returned
// either way so the caller can report it.
func (r *Reloader) Reload(ctx context.Context) error {
	start := time.Now()

	records, err := r.source.LoadRecords(ctx)
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}

	if len(records) == 0 {
		if _, err := r.target.Snapshot(); err != nil {
			r.target.Swap(sales.NewStore(nil))
		}
		return storage.ErrEmptyDataset
	}

	snap := r.target.Swap(sales.NewStore(records))
	slog.Info("[Reloader] Dataset reloaded",
		"generation", snap.Generation,
		"records", len(records),
		"duration", time.Since(start))
	return nil
}

// Start loads the dataset once and then keeps reloading until ctx is cancelled.
func (r *Reloader) Start(ctx context.Context) error {
	slog.Info("[Reloader] Starting dataset reloader", "interval", r.interval)

	r.reloadAndLog(ctx)

	var tick <-chan time.Time
	if r.interval > 0 {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-tick:
			r.reloadAndLog(ctx)
		case <-r.trigger:
			r.reloadAndLog(ctx)
		case <-ctx.Done():
			slog.Info("[Reloader] Stopping (context cancelled)")
			return nil
		}
	}
}

func (r *Reloader) reloadAndLog(ctx context.Context) {
	if err := r.Reload(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, storage.ErrEmptyDataset) {
			slog.Warn("[Reloader] Source has no records", "error", err)
			return
		}
		slog.Error("[Reloader] Reload failed, keeping current dataset", "error", err)
	}
}
