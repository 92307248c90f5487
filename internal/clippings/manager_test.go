package clippings

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/mapdesk/geoquery/internal/backend"
	"github.com/mapdesk/geoquery/internal/core/model"
)

type fakeLibrary struct {
	clippings []model.Clipping
	features  map[string][]*geojson.Feature
	deleted   []string
}

func (f *fakeLibrary) ListClippings(context.Context) ([]model.Clipping, error) {
	out := make([]model.Clipping, len(f.clippings))
	copy(out, f.clippings)
	return out, nil
}

func (f *fakeLibrary) ClippingFeatures(_ context.Context, id string) (*backend.QueryResult, error) {
	features, ok := f.features[id]
	if !ok {
		return nil, errors.New("no such clipping")
	}
	return &backend.QueryResult{Count: len(features), Features: features}, nil
}

func (f *fakeLibrary) DeleteClipping(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	for i, c := range f.clippings {
		if c.ID == id {
			f.clippings = append(f.clippings[:i], f.clippings[i+1:]...)
			break
		}
	}
	delete(f.features, id)
	return nil
}

type recordingOverlay struct {
	layers map[string]int
}

func (r *recordingOverlay) SetAnalysis(id string, features []*geojson.Feature) {
	r.layers[id] = len(features)
}

func (r *recordingOverlay) RemoveAnalysis(id string) bool {
	if _, ok := r.layers[id]; !ok {
		return false
	}
	delete(r.layers, id)
	return true
}

func testManager(t *testing.T) (*Manager, *fakeLibrary, *recordingOverlay, *Bus, *Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := NewStore(context.Background(), mr.Addr(),
		WithPoolSize(4),
		WithDialTimeout(time.Second),
		WithReadTimeout(time.Second),
		WithWriteTimeout(time.Second),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	library := &fakeLibrary{
		clippings: []model.Clipping{
			{ID: "c1", Name: "study area", DatasetID: "ds", Count: 2},
			{ID: "c2", Name: "flood zone", DatasetID: "ds", Count: 1},
		},
		features: map[string][]*geojson.Feature{
			"c1": {
				geojson.NewFeature(orb.Point{11.9, 57.7}),
				geojson.NewFeature(orb.Point{12.0, 57.7}),
			},
			"c2": {geojson.NewFeature(orb.Point{12.1, 57.8})},
		},
	}
	overlay := &recordingOverlay{layers: map[string]int{}}
	bus := NewBus()
	m := NewManager(slog.New(slog.DiscardHandler), library, store, bus, overlay)
	return m, library, overlay, bus, store
}

func TestLoadPublishesAndPersists(t *testing.T) {
	m, _, overlay, bus, store := testManager(t)
	ctx := context.Background()

	var events []Event
	bus.Subscribe(func(ev Event) { events = append(events, ev) })

	entry, err := m.Load(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if !entry.Loaded || entry.Name != "study area" {
		t.Errorf("entry = %+v", entry)
	}
	if overlay.layers["clipping_c1"] != 2 {
		t.Errorf("overlay layers = %v", overlay.layers)
	}
	if len(events) != 1 || events[0].Kind != EventLoaded || events[0].Clipping.ID != "c1" {
		t.Errorf("events = %+v", events)
	}
	loaded, err := store.Loaded(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := loaded["c1"]; !ok {
		t.Error("loaded mark not persisted")
	}
}

func TestLoadUnknownClipping(t *testing.T) {
	m, _, _, _, _ := testManager(t)
	if _, err := m.Load(context.Background(), "nope"); err == nil {
		t.Fatal("unknown clipping loaded")
	}
}

func TestUnloadClearsOverlayAndMark(t *testing.T) {
	m, _, overlay, bus, store := testManager(t)
	ctx := context.Background()

	if _, err := m.Load(ctx, "c1"); err != nil {
		t.Fatal(err)
	}
	var events []Event
	bus.Subscribe(func(ev Event) { events = append(events, ev) })

	if err := m.Unload(ctx, "c1"); err != nil {
		t.Fatal(err)
	}
	if len(overlay.layers) != 0 {
		t.Errorf("overlay layers after unload = %v", overlay.layers)
	}
	if len(events) != 1 || events[0].Kind != EventUnloaded {
		t.Errorf("events = %+v", events)
	}
	if ok, _ := store.IsLoaded(ctx, "c1"); ok {
		t.Error("loaded mark survived unload")
	}
	if err := m.Unload(ctx, "c1"); err == nil {
		t.Error("second unload reported success")
	}
}

func TestDeleteUnloadsFirst(t *testing.T) {
	m, library, overlay, _, _ := testManager(t)
	ctx := context.Background()

	if _, err := m.Load(ctx, "c2"); err != nil {
		t.Fatal(err)
	}
	if err := m.Delete(ctx, "c2"); err != nil {
		t.Fatal(err)
	}
	if len(library.deleted) != 1 || library.deleted[0] != "c2" {
		t.Errorf("deleted = %v", library.deleted)
	}
	if _, ok := overlay.layers["clipping_c2"]; ok {
		t.Error("overlay layer survived delete")
	}
	entries, err := m.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.ID == "c2" {
			t.Error("deleted clipping still listed")
		}
	}
}

func TestListAnnotatesLoadedState(t *testing.T) {
	m, _, _, _, _ := testManager(t)
	ctx := context.Background()
	if _, err := m.Load(ctx, "c1"); err != nil {
		t.Fatal(err)
	}
	entries, err := m.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]bool{"c1": true, "c2": false}
	for _, e := range entries {
		if e.Loaded != want[e.ID] {
			t.Errorf("clipping %s loaded = %v, want %v", e.ID, e.Loaded, want[e.ID])
		}
	}
}

func TestRestoreReappliesLoadedSet(t *testing.T) {
	m, library, _, _, store := testManager(t)
	ctx := context.Background()
	if _, err := m.Load(ctx, "c1"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Load(ctx, "c2"); err != nil {
		t.Fatal(err)
	}
	// c2 disappears on the backend while the gateway is down.
	delete(library.features, "c2")

	fresh := &recordingOverlay{layers: map[string]int{}}
	bus := NewBus()
	m2 := NewManager(slog.New(slog.DiscardHandler), library, store, bus, fresh)
	if err := m2.Restore(ctx); err != nil {
		t.Fatal(err)
	}
	if fresh.layers["clipping_c1"] != 2 {
		t.Errorf("restored layers = %v", fresh.layers)
	}
	if _, ok := fresh.layers["clipping_c2"]; ok {
		t.Error("unrestorable clipping restored anyway")
	}
	if ok, _ := store.IsLoaded(ctx, "c2"); ok {
		t.Error("unrestorable clipping still marked loaded")
	}
}
