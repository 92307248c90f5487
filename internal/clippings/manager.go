package clippings

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/paulmach/orb/geojson"

	"github.com/mapdesk/geoquery/internal/backend"
	"github.com/mapdesk/geoquery/internal/core/model"
)

// Library is the slice of the backend client the manager depends on.
type Library interface {
	ListClippings(ctx context.Context) ([]model.Clipping, error)
	ClippingFeatures(ctx context.Context, clippingID string) (*backend.QueryResult, error)
	DeleteClipping(ctx context.Context, clippingID string) error
}

// Overlay receives loaded clippings as named analysis layers.
type Overlay interface {
	SetAnalysis(id string, features []*geojson.Feature)
	RemoveAnalysis(id string) bool
}

// Entry is one clipping annotated with its loaded state.
type Entry struct {
	model.Clipping
	Loaded bool `json:"loaded"`
}

// Manager loads clippings onto the map and keeps the loaded set durable.
// Every load and unload is broadcast on the bus so other workspace parts
// can react without the manager knowing about them.
type Manager struct {
	logger  *slog.Logger
	library Library
	store   *Store
	bus     *Bus
	overlay Overlay
}

func NewManager(logger *slog.Logger, library Library, store *Store, bus *Bus, overlay Overlay) *Manager {
	return &Manager{logger: logger, library: library, store: store, bus: bus, overlay: overlay}
}

// overlayID namespaces clipping layers away from operation results.
func overlayID(clippingID string) string {
	return "clipping_" + clippingID
}

// List returns the saved clippings with their loaded state.
func (m *Manager) List(ctx context.Context) ([]Entry, error) {
	clips, err := m.library.ListClippings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clippings: %w", err)
	}
	loaded, err := m.store.Loaded(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, len(clips))
	for i, c := range clips {
		_, isLoaded := loaded[c.ID]
		out[i] = Entry{Clipping: c, Loaded: isLoaded}
	}
	return out, nil
}

// Load fetches a clipping's features, shows them as an overlay, and marks
// the clipping loaded. Loading an already loaded clipping refreshes its
// overlay.
func (m *Manager) Load(ctx context.Context, clippingID string) (*Entry, error) {
	clips, err := m.library.ListClippings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clippings: %w", err)
	}
	var clip *model.Clipping
	for i := range clips {
		if clips[i].ID == clippingID {
			clip = &clips[i]
			break
		}
	}
	if clip == nil {
		return nil, fmt.Errorf("no clipping %q", clippingID)
	}

	res, err := m.library.ClippingFeatures(ctx, clippingID)
	if err != nil {
		return nil, fmt.Errorf("clipping %s features: %w", clippingID, err)
	}
	m.overlay.SetAnalysis(overlayID(clippingID), res.Features)
	if err := m.store.MarkLoaded(ctx, *clip); err != nil {
		return nil, err
	}

	m.bus.Publish(Event{Kind: EventLoaded, Clipping: *clip})
	m.logger.Info("clipping loaded",
		slog.String("clipping", clippingID),
		slog.Int("count", len(res.Features)),
	)
	return &Entry{Clipping: *clip, Loaded: true}, nil
}

// Unload removes a clipping's overlay and clears its loaded mark.
func (m *Manager) Unload(ctx context.Context, clippingID string) error {
	loaded, err := m.store.Loaded(ctx)
	if err != nil {
		return err
	}
	clip, ok := loaded[clippingID]
	if !ok {
		return fmt.Errorf("clipping %q is not loaded", clippingID)
	}

	m.overlay.RemoveAnalysis(overlayID(clippingID))
	if err := m.store.MarkUnloaded(ctx, clippingID); err != nil {
		return err
	}
	m.bus.Publish(Event{Kind: EventUnloaded, Clipping: clip})
	m.logger.Info("clipping unloaded", slog.String("clipping", clippingID))
	return nil
}

// Delete removes a clipping from the backend, unloading it first when
// needed.
func (m *Manager) Delete(ctx context.Context, clippingID string) error {
	isLoaded, err := m.store.IsLoaded(ctx, clippingID)
	if err != nil {
		return err
	}
	if isLoaded {
		if err := m.Unload(ctx, clippingID); err != nil {
			return err
		}
	}
	if err := m.library.DeleteClipping(ctx, clippingID); err != nil {
		return fmt.Errorf("delete clipping %s: %w", clippingID, err)
	}
	return nil
}

// Restore re-applies the loaded set after a restart, fetching fresh
// features for each remembered clipping. Clippings deleted on the backend
// in the meantime fall out of the set.
func (m *Manager) Restore(ctx context.Context) error {
	loaded, err := m.store.Loaded(ctx)
	if err != nil {
		return err
	}
	for id, clip := range loaded {
		res, err := m.library.ClippingFeatures(ctx, id)
		if err != nil {
			m.logger.Warn("dropping unrestorable clipping",
				slog.String("clipping", id), slog.Any("error", err))
			if err := m.store.MarkUnloaded(ctx, id); err != nil {
				return err
			}
			continue
		}
		m.overlay.SetAnalysis(overlayID(id), res.Features)
		m.bus.Publish(Event{Kind: EventLoaded, Clipping: clip})
	}
	return nil
}
