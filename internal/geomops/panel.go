// Package geomops runs geometry operations against the backend's analysis
// endpoints and keeps their results as toggleable map overlays.
package geomops

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/mapdesk/geoquery/internal/backend"
	"github.com/mapdesk/geoquery/internal/core/model"
)

// Op names one vector geometry operation.
type Op string

const (
	OpBuffer    Op = "buffer"
	OpUnion     Op = "union"
	OpIntersect Op = "intersect"
	OpClip      Op = "clip"
	OpDissolve  Op = "dissolve"
)

func ParseOp(s string) (Op, error) {
	switch Op(s) {
	case OpBuffer, OpUnion, OpIntersect, OpClip, OpDissolve:
		return Op(s), nil
	}
	return "", fmt.Errorf("unknown geometry operation %q", s)
}

// Params carries the per-operation inputs. Each operation reads only the
// fields it needs and rejects the run when they are missing.
type Params struct {
	Distance        float64 `json:"distance,omitempty"`
	Unit            string  `json:"unit,omitempty"`
	OtherDataset    string  `json:"otherDataset,omitempty"`
	BoundaryDataset string  `json:"boundaryDataset,omitempty"`
	Attribute       string  `json:"attribute,omitempty"`
}

// Validate checks the params against one operation's requirements.
func (p Params) Validate(op Op) error {
	switch op {
	case OpBuffer:
		if p.Distance <= 0 {
			return errors.New("buffer distance must be greater than zero")
		}
		if !model.ValidBufferUnit(p.Unit) {
			return fmt.Errorf("buffer unit %q must be one of kilometers, meters, miles, feet", p.Unit)
		}
	case OpIntersect:
		if p.OtherDataset == "" {
			return errors.New("intersect requires a second dataset")
		}
	case OpClip:
		if p.BoundaryDataset == "" {
			return errors.New("clip requires a boundary dataset")
		}
	case OpDissolve:
		if p.Attribute == "" {
			return errors.New("dissolve requires an attribute")
		}
	case OpUnion:
	default:
		return fmt.Errorf("unknown geometry operation %q", op)
	}
	return nil
}

// Result is one finished operation kept on the panel.
type Result struct {
	ID        string             `json:"id"`
	Operation Op                 `json:"operation"`
	DatasetID string             `json:"datasetId"`
	Count     int                `json:"count"`
	Visible   bool               `json:"visible"`
	CreatedAt time.Time          `json:"createdAt"`
	Params    Params             `json:"params"`
	Features  []*geojson.Feature `json:"-"`
}

// Analyzer is the slice of the backend client the panel depends on.
type Analyzer interface {
	Buffer(ctx context.Context, datasetID string, features []*geojson.Feature, distance float64, unit string) (*backend.OperationResult, error)
	Union(ctx context.Context, datasetID string, features []*geojson.Feature) (*backend.OperationResult, error)
	Intersect(ctx context.Context, datasetID, otherID string, features []*geojson.Feature) (*backend.OperationResult, error)
	Clip(ctx context.Context, datasetID, boundaryID string, features []*geojson.Feature) (*backend.OperationResult, error)
	Dissolve(ctx context.Context, datasetID, attribute string, features []*geojson.Feature) (*backend.OperationResult, error)
	SaveClipping(ctx context.Context, datasetID, name, description string, features []*geojson.Feature) (*model.Clipping, error)
}

// Overlay receives operation results as named analysis layers.
type Overlay interface {
	SetAnalysis(id string, features []*geojson.Feature)
	SetAnalysisVisible(id string, visible bool) bool
	RemoveAnalysis(id string) bool
}

// Panel runs operations and owns their result list, newest first. Every
// result gets its own overlay layer so it can be shown, hidden, or removed
// independently of the query highlight.
type Panel struct {
	logger   *slog.Logger
	analyzer Analyzer
	overlay  Overlay

	mu      sync.Mutex
	nextID  int
	results []*Result
}

func NewPanel(logger *slog.Logger, analyzer Analyzer, overlay Overlay) *Panel {
	return &Panel{logger: logger, analyzer: analyzer, overlay: overlay}
}

// Run validates, executes one operation, and records its result. Empty
// features are passed through so the backend works on the whole dataset.
func (p *Panel) Run(ctx context.Context, datasetID string, op Op, params Params, features []*geojson.Feature) (*Result, error) {
	if err := params.Validate(op); err != nil {
		return nil, err
	}

	var (
		out *backend.OperationResult
		err error
	)
	switch op {
	case OpBuffer:
		out, err = p.analyzer.Buffer(ctx, datasetID, features, params.Distance, params.Unit)
	case OpUnion:
		out, err = p.analyzer.Union(ctx, datasetID, features)
	case OpIntersect:
		out, err = p.analyzer.Intersect(ctx, datasetID, params.OtherDataset, features)
	case OpClip:
		out, err = p.analyzer.Clip(ctx, datasetID, params.BoundaryDataset, features)
	case OpDissolve:
		out, err = p.analyzer.Dissolve(ctx, datasetID, params.Attribute, features)
	}
	if err != nil {
		return nil, fmt.Errorf("%s on %s: %w", op, datasetID, err)
	}

	p.mu.Lock()
	p.nextID++
	res := &Result{
		ID:        "result_" + strconv.Itoa(p.nextID),
		Operation: op,
		DatasetID: datasetID,
		Count:     out.Count,
		Visible:   true,
		CreatedAt: time.Now().UTC(),
		Params:    params,
		Features:  out.Features,
	}
	p.results = append([]*Result{res}, p.results...)
	p.mu.Unlock()

	p.overlay.SetAnalysis(res.ID, res.Features)
	p.logger.Info("geometry operation finished",
		slog.String("op", string(op)),
		slog.String("dataset", datasetID),
		slog.String("result", res.ID),
		slog.Int("count", res.Count),
	)
	return res, nil
}

// Results returns the list newest first.
func (p *Panel) Results() []*Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Result, len(p.results))
	copy(out, p.results)
	return out
}

// SetVisible toggles one result's overlay layer.
func (p *Panel) SetVisible(id string, visible bool) bool {
	p.mu.Lock()
	var found bool
	for _, r := range p.results {
		if r.ID == id {
			r.Visible = visible
			found = true
			break
		}
	}
	p.mu.Unlock()
	if !found {
		return false
	}
	p.overlay.SetAnalysisVisible(id, visible)
	return true
}

// Remove deletes one result and its overlay layer.
func (p *Panel) Remove(id string) bool {
	p.mu.Lock()
	var found bool
	for i, r := range p.results {
		if r.ID == id {
			p.results = append(p.results[:i], p.results[i+1:]...)
			found = true
			break
		}
	}
	p.mu.Unlock()
	if !found {
		return false
	}
	p.overlay.RemoveAnalysis(id)
	return true
}

// SaveAsClipping persists one result's features as a named clipping.
func (p *Panel) SaveAsClipping(ctx context.Context, id, name, description string) (*model.Clipping, error) {
	p.mu.Lock()
	var res *Result
	for _, r := range p.results {
		if r.ID == id {
			res = r
			break
		}
	}
	p.mu.Unlock()
	if res == nil {
		return nil, fmt.Errorf("no operation result %q", id)
	}
	clip, err := p.analyzer.SaveClipping(ctx, res.DatasetID, name, description, res.Features)
	if err != nil {
		return nil, fmt.Errorf("save clipping from %s: %w", id, err)
	}
	return clip, nil
}
