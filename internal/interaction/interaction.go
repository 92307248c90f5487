// Package interaction routes map clicks according to the active tool mode
// and keeps the measurement state for the measure tool.
package interaction

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Mode is the active map tool. Exactly one mode is active at a time.
type Mode string

const (
	ModeSelect  Mode = "select"
	ModeMeasure Mode = "measure"
	ModeEdit    Mode = "edit"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeSelect, ModeMeasure, ModeEdit:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown interaction mode %q", s)
}

// Click is one map click in geographic coordinates.
type Click struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// ClickResult describes what a click did under the active mode.
type ClickResult struct {
	Mode Mode `json:"mode"`
	// Selected is set in select mode.
	Selected *Click `json:"selected,omitempty"`
	// Measurement is set in measure mode and reflects the accumulated path.
	Measurement *Measurement `json:"measurement,omitempty"`
	// Edited is set in edit mode.
	Edited *Click `json:"edited,omitempty"`
}

// Measurement is the running state of the measure tool.
type Measurement struct {
	Points []Click `json:"points"`
	// TotalMeters is the sum of great-circle segment lengths.
	TotalMeters float64 `json:"totalMeters"`
}

// Dispatcher owns the active mode and funnels every click to the behavior
// that mode defines.
type Dispatcher struct {
	logger *slog.Logger

	mu      sync.Mutex
	mode    Mode
	points  []Click
	total   float64
	selectF func(Click)
	editF   func(Click)
}

func NewDispatcher(logger *slog.Logger) *Dispatcher {
	return &Dispatcher{logger: logger, mode: ModeSelect}
}

// OnSelect registers the handler invoked for clicks in select mode.
func (d *Dispatcher) OnSelect(fn func(Click)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.selectF = fn
}

// OnEdit registers the handler invoked for clicks in edit mode.
func (d *Dispatcher) OnEdit(fn func(Click)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.editF = fn
}

func (d *Dispatcher) Mode() Mode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

// SetMode switches the active tool. Entering measure mode starts a fresh
// measurement, so markers from an earlier session never mix into a new one.
func (d *Dispatcher) SetMode(m Mode) error {
	switch m {
	case ModeSelect, ModeMeasure, ModeEdit:
	default:
		return fmt.Errorf("unknown interaction mode %q", m)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if m == ModeMeasure && d.mode != ModeMeasure {
		d.points = nil
		d.total = 0
	}
	d.mode = m
	d.logger.Debug("interaction mode changed", slog.String("mode", string(m)))
	return nil
}

// Click routes one map click through the active mode.
func (d *Dispatcher) Click(c Click) ClickResult {
	d.mu.Lock()
	mode := d.mode
	var res ClickResult
	res.Mode = mode
	switch mode {
	case ModeMeasure:
		if len(d.points) > 0 {
			prev := d.points[len(d.points)-1]
			d.total += geo.DistanceHaversine(
				orb.Point{prev.Lng, prev.Lat},
				orb.Point{c.Lng, c.Lat},
			)
		}
		d.points = append(d.points, c)
		res.Measurement = d.measurementLocked()
	case ModeEdit:
		res.Edited = &c
	default:
		res.Selected = &c
	}
	selectF, editF := d.selectF, d.editF
	d.mu.Unlock()

	switch mode {
	case ModeSelect:
		if selectF != nil {
			selectF(c)
		}
	case ModeEdit:
		if editF != nil {
			editF(c)
		}
	}
	return res
}

// Measurement returns a copy of the running measurement.
func (d *Dispatcher) Measurement() *Measurement {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.measurementLocked()
}

// ResetMeasurement drops the accumulated path without leaving measure mode.
func (d *Dispatcher) ResetMeasurement() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.points = nil
	d.total = 0
}

func (d *Dispatcher) measurementLocked() *Measurement {
	pts := make([]Click, len(d.points))
	copy(pts, d.points)
	return &Measurement{Points: pts, TotalMeters: d.total}
}
