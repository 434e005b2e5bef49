package ingestion

import (
	"context"

	"github.com/aevon-lab/salescope/internal/core/sales"
)

// FileSource re-reads a sales file on every load, so edits to the file are
// picked up by the next reload.
type FileSource struct {
	Path   string
	Loader *Loader
}

// NewFileSource returns a source reading path with loader.
func NewFileSource(path string, loader *Loader) *FileSource {
	return &FileSource{Path: path, Loader: loader}
}

// LoadRecords implements storage.RecordSource.
func (s *FileSource) LoadRecords(ctx context.Context) ([]sales.Record, error) {
	return s.Loader.DecodeFile(ctx, s.Path)
}
