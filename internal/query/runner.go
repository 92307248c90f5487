package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/mapdesk/geoquery/internal/backend"
	"github.com/mapdesk/geoquery/internal/core/model"
	"github.com/mapdesk/geoquery/internal/core/observability"
)

var (
	// ErrNoDataset is returned when execution is requested without an
	// active dataset selection.
	ErrNoDataset = errors.New("no dataset selected")
	// ErrNoConditions is returned for an attribute query with zero
	// condition rows.
	ErrNoConditions = errors.New("attribute query has no conditions")
	// ErrSuperseded is returned when a newer execution was issued before
	// this one finished. The caller's state was not touched.
	ErrSuperseded = errors.New("query superseded by a newer execution")
)

// Executor is the slice of the backend client the runner depends on.
type Executor interface {
	AttributeQuery(ctx context.Context, datasetID string, criteria model.AttributeCriteria) (*backend.QueryResult, error)
	SpatialQuery(ctx context.Context, datasetID string, criteria model.SpatialCriteria) (*backend.QueryResult, error)
	CombinedQuery(ctx context.Context, datasetID string, criteria model.CombinedCriteria) (*backend.QueryResult, error)
}

// Runner executes criteria snapshots against the backend and keeps the last
// applied result. Responses are applied last-request-wins: each execution
// takes a monotonic sequence number, and a response whose number no longer
// matches the latest issued one is dropped without touching state.
type Runner struct {
	logger *slog.Logger
	exec   Executor

	mu        sync.Mutex
	seq       uint64
	result    *backend.QueryResult
	listeners []func(*backend.QueryResult)
}

func NewRunner(logger *slog.Logger, exec Executor) *Runner {
	return &Runner{logger: logger, exec: exec}
}

// OnResult registers a listener invoked with every applied result and with
// nil when results are cleared. Listeners run under the runner's lock and
// must not call back into it.
func (r *Runner) OnResult(fn func(*backend.QueryResult)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Result returns the last applied result, nil when none.
func (r *Runner) Result() *backend.QueryResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result
}

// Clear drops the held result and notifies listeners.
func (r *Runner) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.result = nil
	for _, fn := range r.listeners {
		fn(nil)
	}
}

// Execute dispatches one snapshot by its mode. A failed execution keeps the
// previous result in place.
func (r *Runner) Execute(ctx context.Context, datasetID string, snap Criteria) (*backend.QueryResult, error) {
	if datasetID == "" {
		return nil, ErrNoDataset
	}
	if snap.Mode == model.ModeAttribute && len(snap.Attribute.Conditions) == 0 {
		return nil, ErrNoConditions
	}

	r.mu.Lock()
	r.seq++
	seq := r.seq
	r.mu.Unlock()

	fp := Fingerprint(snap)
	r.logger.Debug("executing query",
		slog.String("dataset", datasetID),
		slog.String("mode", string(snap.Mode)),
		slog.String("fingerprint", fp),
		slog.Uint64("seq", seq),
	)

	res, err := r.dispatch(ctx, datasetID, snap)
	observability.ObserveQuery(string(snap.Mode), err)
	if err != nil {
		return nil, fmt.Errorf("%s query on %s: %w", snap.Mode, datasetID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if seq != r.seq {
		observability.IncStaleResponseDropped()
		r.logger.Debug("dropping stale query response",
			slog.Uint64("seq", seq), slog.Uint64("latest", r.seq))
		return nil, ErrSuperseded
	}
	r.result = res
	for _, fn := range r.listeners {
		fn(res)
	}
	r.logger.Info("query applied",
		slog.String("dataset", datasetID),
		slog.String("mode", string(snap.Mode)),
		slog.String("fingerprint", fp),
		slog.Int("count", res.Count),
	)
	return res, nil
}

func (r *Runner) dispatch(ctx context.Context, datasetID string, snap Criteria) (*backend.QueryResult, error) {
	switch snap.Mode {
	case model.ModeAttribute:
		return r.exec.AttributeQuery(ctx, datasetID, snap.Attribute)
	case model.ModeSpatial:
		return r.exec.SpatialQuery(ctx, datasetID, snap.Spatial)
	case model.ModeCombined:
		return r.exec.CombinedQuery(ctx, datasetID, model.CombinedCriteria{
			Spatial:   &snap.Spatial,
			Attribute: &snap.Attribute,
		})
	default:
		return nil, fmt.Errorf("unknown query mode %q", snap.Mode)
	}
}

// Fingerprint hashes a snapshot's canonical JSON form. Two identical
// criteria always produce the same value, which makes repeated executions
// traceable across logs and audit events.
func Fingerprint(snap Criteria) string {
	raw, err := json.Marshal(snap)
	if err != nil {
		return "invalid"
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(raw))
}
