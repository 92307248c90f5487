package highlight

import (
	"sync"

	"github.com/paulmach/orb/geojson"
)

// Bridge decouples "a query produced features" from "the map shows them".
// The query overlay is a single replaceable set gated by the enabled toggle;
// analysis results form independently keyed sets with their own visibility,
// untouched by the toggle and by query pushes.
type Bridge struct {
	mu sync.Mutex

	enabled bool
	current []*geojson.Feature

	analysis map[string]*analysisSet
	order    []string
}

type analysisSet struct {
	visible    bool
	primitives []Primitive
}

func NewBridge() *Bridge {
	return &Bridge{
		enabled:  true,
		analysis: make(map[string]*analysisSet),
	}
}

// SetFeatures replaces the query overlay wholesale. The feature set is
// retained even while the toggle is off so re-enabling restores it exactly.
func (b *Bridge) SetFeatures(features []*geojson.Feature) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = features
}

// Clear empties the query overlay. Analysis sets are unaffected.
func (b *Bridge) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = nil
}

// SetEnabled flips the highlight toggle. Off hides the query overlay
// immediately; on re-pushes the retained result.
func (b *Bridge) SetEnabled(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enabled = on
}

func (b *Bridge) Enabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enabled
}

// SetAnalysis installs (or replaces) the keyed overlay set for one analysis
// result, visible by default.
func (b *Bridge) SetAnalysis(resultID string, features []*geojson.Feature) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.analysis[resultID]; !ok {
		b.order = append(b.order, resultID)
	}
	b.analysis[resultID] = &analysisSet{visible: true, primitives: FlattenAll(features)}
}

// SetAnalysisVisible toggles one analysis set without touching the others.
func (b *Bridge) SetAnalysisVisible(resultID string, visible bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.analysis[resultID]
	if !ok {
		return false
	}
	s.visible = visible
	return true
}

// RemoveAnalysis deletes one analysis set.
func (b *Bridge) RemoveAnalysis(resultID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.analysis[resultID]; !ok {
		return false
	}
	delete(b.analysis, resultID)
	for i, id := range b.order {
		if id == resultID {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return true
}

// Overlay returns the drawable primitives: the query overlay when enabled,
// then every visible analysis set in insertion order.
func (b *Bridge) Overlay() []Primitive {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []Primitive
	if b.enabled {
		out = append(out, FlattenAll(b.current)...)
	}
	for _, id := range b.order {
		if s := b.analysis[id]; s != nil && s.visible {
			out = append(out, s.primitives...)
		}
	}
	return out
}
