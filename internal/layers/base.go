package layers

import (
	"sync"
)

// BaseLayer is one selectable background tile layer.
type BaseLayer struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	Attribution string `json:"attribution"`
	Active      bool   `json:"active"`
}

// BaseLayers is the background layer catalog. Exactly one layer is active
// at a time.
type BaseLayers struct {
	mu     sync.Mutex
	layers []BaseLayer
	active string
}

// DefaultBaseLayers returns the built-in catalog with the street layer
// active.
func DefaultBaseLayers() *BaseLayers {
	return &BaseLayers{
		layers: []BaseLayer{
			{
				ID:          "streets",
				Name:        "Streets",
				URL:         "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
				Attribution: "© OpenStreetMap contributors",
			},
			{
				ID:          "satellite",
				Name:        "Satellite",
				URL:         "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}",
				Attribution: "© Esri",
			},
			{
				ID:          "topo",
				Name:        "Topographic",
				URL:         "https://{s}.tile.opentopomap.org/{z}/{x}/{y}.png",
				Attribution: "© OpenTopoMap (CC-BY-SA)",
			},
		},
		active: "streets",
	}
}

// List returns the catalog with the active flag applied.
func (b *BaseLayers) List() []BaseLayer {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]BaseLayer, len(b.layers))
	copy(out, b.layers)
	for i := range out {
		out[i].Active = out[i].ID == b.active
	}
	return out
}

// SetActive switches the background layer, reporting false for unknown
// ids.
func (b *BaseLayers) SetActive(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, l := range b.layers {
		if l.ID == id {
			b.active = id
			return true
		}
	}
	return false
}

// Active returns the id of the current background layer.
func (b *BaseLayers) Active() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}
