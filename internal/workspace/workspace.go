// Package workspace assembles the per-user GIS session: the criteria
// builder, query runner, highlight overlay, dataset catalog, geometry
// operations, and clippings, all working against one backend.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/mapdesk/geoquery/internal/audit"
	"github.com/mapdesk/geoquery/internal/backend"
	"github.com/mapdesk/geoquery/internal/clippings"
	"github.com/mapdesk/geoquery/internal/core/model"
	"github.com/mapdesk/geoquery/internal/core/observability"
	"github.com/mapdesk/geoquery/internal/geomops"
	"github.com/mapdesk/geoquery/internal/highlight"
	"github.com/mapdesk/geoquery/internal/interaction"
	"github.com/mapdesk/geoquery/internal/layers"
	"github.com/mapdesk/geoquery/internal/query"
	"github.com/mapdesk/geoquery/internal/stats"
)

// ErrNoResult is returned when the current result is read before a query
// has run.
var ErrNoResult = errors.New("no query result to work with")

// Workspace is the root of the session state. All sub-components are safe
// for concurrent use on their own; the workspace only guards its own
// fields.
type Workspace struct {
	logger *slog.Logger

	Builder     *query.Builder
	Runner      *query.Runner
	Bridge      *highlight.Bridge
	Interaction *interaction.Dispatcher
	Layers      *layers.Registry
	Operations  *geomops.Panel
	Clippings   *clippings.Manager
	Terrain     geomops.Terrain
	BaseLayers  *layers.BaseLayers

	mu            sync.Mutex
	activeDataset string
	catalogReady  bool
}

// Deps carries everything a workspace is built from.
type Deps struct {
	Logger    *slog.Logger
	Backend   *backend.Client
	Store     *clippings.Store
	Bus       *clippings.Bus
	FieldsTTL time.Duration
}

func New(d Deps) *Workspace {
	bridge := highlight.NewBridge()
	registry := layers.NewRegistry(d.Logger, d.Backend, d.FieldsTTL)

	w := &Workspace{
		logger:      d.Logger,
		Builder:     query.NewBuilder(),
		Runner:      query.NewRunner(d.Logger, d.Backend),
		Bridge:      bridge,
		Interaction: interaction.NewDispatcher(d.Logger),
		Layers:      registry,
		Operations:  geomops.NewPanel(d.Logger, d.Backend, bridge),
		Clippings:   clippings.NewManager(d.Logger, d.Backend, d.Store, d.Bus, bridge),
		Terrain:     d.Backend,
		BaseLayers:  layers.DefaultBaseLayers(),
	}

	w.Runner.OnResult(func(res *backend.QueryResult) {
		if res == nil {
			bridge.Clear()
		} else {
			bridge.SetFeatures(res.Features)
		}
		observability.SetOverlaySize(len(bridge.Overlay()))
	})
	return w
}

// Start syncs the dataset catalog and restores loaded clippings. A backend
// that is down at boot leaves the workspace not ready, and the next
// successful sync flips it.
func (w *Workspace) Start(ctx context.Context) error {
	if err := w.Layers.Refresh(ctx); err != nil {
		return err
	}
	w.mu.Lock()
	w.catalogReady = true
	w.mu.Unlock()
	return w.Clippings.Restore(ctx)
}

// Readiness satisfies the readiness probe.
func (w *Workspace) Readiness() (bool, string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.catalogReady {
		return false, "dataset catalog not synced"
	}
	return true, ""
}

// SetActiveDataset picks the dataset queries and operations run against.
func (w *Workspace) SetActiveDataset(id string) error {
	if _, ok := w.Layers.Dataset(id); !ok {
		return fmt.Errorf("unknown dataset %q", id)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.activeDataset = id
	return nil
}

func (w *Workspace) ActiveDataset() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.activeDataset
}

// QueryOutcome is what one executed query hands back to the surface.
type QueryOutcome struct {
	Count    int                              `json:"count"`
	Features []*geojson.Feature               `json:"features"`
	Stats    map[string]stats.PropertySummary `json:"stats"`
}

// RunQuery executes the current criteria snapshot against the active
// dataset and publishes an audit event for the attempt.
func (w *Workspace) RunQuery(ctx context.Context) (*QueryOutcome, error) {
	dataset := w.ActiveDataset()
	snap := w.Builder.Snapshot()

	res, err := w.Runner.Execute(ctx, dataset, snap)

	ev := audit.Event{
		Dataset:     dataset,
		Mode:        string(snap.Mode),
		Fingerprint: query.Fingerprint(snap),
		TS:          time.Now().UTC(),
		Outcome:     "ok",
	}
	switch {
	case errors.Is(err, query.ErrSuperseded):
		ev.Outcome = "superseded"
	case err != nil:
		ev.Outcome = "error"
	default:
		ev.Count = res.Count
	}
	audit.Publish(ev)

	if err != nil {
		return nil, err
	}
	return &QueryOutcome{
		Count:    res.Count,
		Features: res.Features,
		Stats:    stats.Summarize(res.Features),
	}, nil
}

// ClearQuery drops the current result and its highlight.
func (w *Workspace) ClearQuery() {
	w.Runner.Clear()
}

// Result returns the last applied query outcome, nil when none.
func (w *Workspace) Result() *QueryOutcome {
	res := w.Runner.Result()
	if res == nil {
		return nil
	}
	return &QueryOutcome{
		Count:    res.Count,
		Features: res.Features,
		Stats:    stats.Summarize(res.Features),
	}
}

// SetHighlightEnabled toggles the query highlight without losing the
// current feature set.
func (w *Workspace) SetHighlightEnabled(enabled bool) {
	w.Bridge.SetEnabled(enabled)
	observability.SetOverlaySize(len(w.Bridge.Overlay()))
}

// Overlay returns everything currently drawn on the map.
func (w *Workspace) Overlay() []highlight.Primitive {
	return w.Bridge.Overlay()
}

// RunOperation feeds the current result's features through one geometry
// operation on the active dataset. With no query result the features are
// left empty and the backend resolves them to the dataset's own.
func (w *Workspace) RunOperation(ctx context.Context, op geomops.Op, params geomops.Params) (*geomops.Result, error) {
	dataset := w.ActiveDataset()
	if dataset == "" {
		return nil, query.ErrNoDataset
	}
	var features []*geojson.Feature
	if res := w.Runner.Result(); res != nil {
		features = res.Features
	}
	out, err := w.Operations.Run(ctx, dataset, op, params, features)
	if err != nil {
		return nil, err
	}
	observability.SetOverlaySize(len(w.Bridge.Overlay()))
	return out, nil
}

// RunTerrain runs one terrain operation on the active dataset.
func (w *Workspace) RunTerrain(ctx context.Context, op geomops.TerrainOp, params geomops.TerrainParams) (*backend.TerrainResult, error) {
	dataset := w.ActiveDataset()
	if dataset == "" {
		return nil, query.ErrNoDataset
	}
	return geomops.RunTerrain(ctx, w.Terrain, dataset, op, params)
}

// DatasetFields resolves the queryable fields of one dataset, defaulting
// to the active one.
func (w *Workspace) DatasetFields(ctx context.Context, datasetID string) ([]model.Field, error) {
	if datasetID == "" {
		datasetID = w.ActiveDataset()
	}
	if datasetID == "" {
		return nil, query.ErrNoDataset
	}
	return w.Layers.Fields(ctx, datasetID)
}
