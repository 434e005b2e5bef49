package projection

import (
	"time"

	"github.com/aevon-lab/salescope/internal/core/sales"
)

// Snapshot is one immutable generation of the served dataset.
type Snapshot struct {
	Store      *sales.Store
	Generation uint64
	LoadedAt   time.Time
}

// DatasetInfo describes the snapshot a response was computed from.
type DatasetInfo struct {
	Generation uint64    `json:"generation"`
	LoadedAt   time.Time `json:"loaded_at"`
	Records    int       `json:"records"`
}

// QueryResponse is the envelope of every analysis endpoint.
type QueryResponse struct {
	Dataset DatasetInfo `json:"dataset"`
	Result  interface{} `json:"result"`
}

func (s *Snapshot) info() DatasetInfo {
	return DatasetInfo{
		Generation: s.Generation,
		LoadedAt:   s.LoadedAt,
		Records:    s.Store.Len(),
	}
}
