package repository

import (
	"sync/atomic"

	"github.com/gameday-grid/gameday/internal/domain/catalog"
	"github.com/gameday-grid/gameday/pkg/metrics"
)

// CatalogStore publishes the current catalog. Readers always see a complete
// catalog, either the previous one or the new one.
type CatalogStore struct {
	current atomic.Pointer[catalog.Catalog]
}

// NewCatalogStore starts with c, or an empty catalog when c is nil.
func NewCatalogStore(c *catalog.Catalog) *CatalogStore {
	s := &CatalogStore{}
	s.Swap(c)
	return s
}

// Load returns the current catalog. Never nil.
func (s *CatalogStore) Load() *catalog.Catalog {
	return s.current.Load()
}

// Swap publishes c and returns the catalog it replaced.
func (s *CatalogStore) Swap(c *catalog.Catalog) *catalog.Catalog {
	if c == nil {
		c = catalog.Empty()
	}
	metrics.UpdateCatalogWebcasts(c.Len())
	return s.current.Swap(c)
}
