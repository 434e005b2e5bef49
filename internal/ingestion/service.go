package ingestion

import (
	"github.com/aevon-lab/salescope/internal/core/storage"
	"github.com/gin-gonic/gin"
)

// Service accepts sales file uploads and persists them as import batches.
type Service struct {
	loader           *Loader
	store            storage.RecordStore
	maxBodySizeBytes int
	onImport         func()
}

func NewService(loader *Loader, repo storage.RecordStore, maxBodySizeMB int) *Service {
	if loader == nil {
		panic("ingestion: loader must not be nil")
	}
	if repo == nil {
		panic("ingestion: store must not be nil")
	}
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 1 // default to 1MB
	}
	return &Service{
		loader:           loader,
		store:            repo,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
	}
}

// OnImport registers fn to run after every committed import.
func (s *Service) OnImport(fn func()) {
	s.onImport = fn
}

// RegisterRoutes registers the ingestion service routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/records", s.ImportHandler)
}
