package views

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/algenord/portal/gateway"
	"github.com/algenord/portal/storage"
)

// FiltersKey is the durable key holding the visitor's project filters.
const FiltersKey = "algenord_project_filters"

// Sort orders.
const (
	SortNewest = "desc"
	SortOldest = "asc"
)

// Filters is the project listing selection remembered across visits.
type Filters struct {
	WorkType     string `json:"workType,omitempty"`
	CustomerType string `json:"customerType,omitempty"`
	SortOrder    string `json:"sortOrder,omitempty"`
}

// Sort returns the sort order, defaulting to newest first.
func (f Filters) Sort() string {
	if f.SortOrder == SortOldest {
		return SortOldest
	}
	return SortNewest
}

// Gateway converts f to the backend's query filters.
func (f Filters) Gateway() gateway.ProjectFilters {
	return gateway.ProjectFilters{
		WorkType:     f.WorkType,
		CustomerType: f.CustomerType,
		Sort:         f.Sort(),
	}
}

// FilterStore persists Filters. Storage failures are logged and otherwise
// ignored: a listing never fails because its filters could not be kept.
type FilterStore struct {
	store  storage.Store
	logger *zap.Logger
}

// NewFilterStore returns a FilterStore over store. A nil store remembers
// nothing.
func NewFilterStore(store storage.Store, logger *zap.Logger) *FilterStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FilterStore{store: store, logger: logger}
}

// Load returns the saved filters, or the zero Filters.
func (s *FilterStore) Load(ctx context.Context) Filters {
	var f Filters
	if s.store == nil {
		return f
	}
	raw, err := s.store.Get(ctx, FiltersKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("could not load filters", zap.Error(err))
		}
		return f
	}
	if err := json.Unmarshal(raw, &f); err != nil {
		s.logger.Warn("could not load filters", zap.Error(err))
		return Filters{}
	}
	return f
}

// Save stores f.
func (s *FilterStore) Save(ctx context.Context, f Filters) {
	if s.store == nil {
		return
	}
	b, err := json.Marshal(f)
	if err == nil {
		err = s.store.Put(ctx, FiltersKey, b)
	}
	if err != nil {
		s.logger.Warn("could not save filters", zap.Error(err))
	}
}

// Clear forgets the saved filters.
func (s *FilterStore) Clear(ctx context.Context) {
	if s.store == nil {
		return
	}
	if err := s.store.Delete(ctx, FiltersKey); err != nil {
		s.logger.Warn("could not clear filters", zap.Error(err))
	}
}
