package storage

import (
	"context"
	"errors"

	"github.com/aevon-lab/salescope/internal/core/sales"
)

// ErrEmptyDataset is returned when a source holds no sales records.
var ErrEmptyDataset = errors.New("dataset has no records")

// RecordSource yields a full snapshot of the sales dataset in its natural order.
type RecordSource interface {
	LoadRecords(ctx context.Context) ([]sales.Record, error)
}

// RecordStore is a RecordSource that can also persist new records.
type RecordStore interface {
	RecordSource

	// SaveRecords stores records as one import batch and returns the batch id.
	// Either every record is stored or none is.
	SaveRecords(ctx context.Context, records []sales.Record) (string, error)
}
