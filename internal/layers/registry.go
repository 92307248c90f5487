// Package layers mirrors the backend's dataset list and tracks which layers
// are shown on the map.
package layers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mapdesk/geoquery/internal/core/model"
)

// fieldsCacheSize bounds the per-dataset field lists kept in memory.
const fieldsCacheSize = 128

// Catalog is the slice of the backend client the registry depends on.
type Catalog interface {
	ListDatasets(ctx context.Context) ([]model.Dataset, error)
	DatasetFields(ctx context.Context, datasetID string) ([]model.Field, error)
	UpdateDataset(ctx context.Context, datasetID string, patch map[string]any) error
	DeleteDataset(ctx context.Context, datasetID string) error
}

// Registry holds the local view of the dataset catalog. Refreshes replace
// the list wholesale but carry each surviving layer's visibility across, so
// a backend sync never flips what the user has toggled.
type Registry struct {
	logger  *slog.Logger
	catalog Catalog

	mu       sync.Mutex
	datasets []model.Dataset
	fields   *expirable.LRU[string, []model.Field]
}

// NewRegistry builds a registry whose field lists expire after ttl. A zero
// ttl keeps them until evicted or the dataset changes.
func NewRegistry(logger *slog.Logger, catalog Catalog, ttl time.Duration) *Registry {
	fields := expirable.NewLRU[string, []model.Field](fieldsCacheSize, nil, ttl)
	return &Registry{logger: logger, catalog: catalog, fields: fields}
}

// Refresh pulls the catalog from the backend. Known datasets keep their
// current visibility, new ones start visible.
func (r *Registry) Refresh(ctx context.Context) error {
	fresh, err := r.catalog.ListDatasets(ctx)
	if err != nil {
		return fmt.Errorf("list datasets: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	visible := make(map[string]bool, len(r.datasets))
	for _, d := range r.datasets {
		visible[d.ID] = d.Visible
	}
	for i := range fresh {
		if v, ok := visible[fresh[i].ID]; ok {
			fresh[i].Visible = v
		} else {
			fresh[i].Visible = true
		}
	}
	r.datasets = fresh
	r.logger.Debug("dataset catalog refreshed", slog.Int("count", len(fresh)))
	return nil
}

// Datasets returns a copy of the current catalog view.
func (r *Registry) Datasets() []model.Dataset {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Dataset, len(r.datasets))
	copy(out, r.datasets)
	return out
}

// Dataset looks one dataset up by id.
func (r *Registry) Dataset(id string) (model.Dataset, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.datasets {
		if d.ID == id {
			return d, true
		}
	}
	return model.Dataset{}, false
}

// SetVisible flips one layer's visibility in the local view only.
func (r *Registry) SetVisible(id string, visible bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.datasets {
		if r.datasets[i].ID == id {
			r.datasets[i].Visible = visible
			return true
		}
	}
	return false
}

// Fields returns the queryable fields of a dataset, serving repeats from
// the cache. Unknown field types come back as string so the criteria
// builder always has a usable operator set.
func (r *Registry) Fields(ctx context.Context, datasetID string) ([]model.Field, error) {
	if cached, ok := r.fields.Get(datasetID); ok {
		return cached, nil
	}
	fields, err := r.catalog.DatasetFields(ctx, datasetID)
	if err != nil {
		return nil, fmt.Errorf("dataset %s fields: %w", datasetID, err)
	}
	for i := range fields {
		switch fields[i].Type {
		case model.TypeString, model.TypeNumber, model.TypeDate:
		default:
			fields[i].Type = model.TypeString
		}
	}
	r.fields.Add(datasetID, fields)
	return fields, nil
}

// Update patches a dataset on the backend and re-syncs the catalog.
func (r *Registry) Update(ctx context.Context, datasetID string, patch map[string]any) error {
	if err := r.catalog.UpdateDataset(ctx, datasetID, patch); err != nil {
		return fmt.Errorf("update dataset %s: %w", datasetID, err)
	}
	r.fields.Remove(datasetID)
	return r.Refresh(ctx)
}

// Delete removes a dataset on the backend and re-syncs the catalog.
func (r *Registry) Delete(ctx context.Context, datasetID string) error {
	if err := r.catalog.DeleteDataset(ctx, datasetID); err != nil {
		return fmt.Errorf("delete dataset %s: %w", datasetID, err)
	}
	r.fields.Remove(datasetID)
	return r.Refresh(ctx)
}
