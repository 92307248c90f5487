// Package clippings manages saved clippings: listing and deleting them on
// the backend, loading their features onto the map, and broadcasting
// load/unload events to interested parts of the workspace.
package clippings

import (
	"sync"

	"github.com/mapdesk/geoquery/internal/core/model"
)

// EventKind distinguishes the two things that can happen to a clipping.
type EventKind string

const (
	EventLoaded   EventKind = "loaded"
	EventUnloaded EventKind = "unloaded"
)

// Event is one clipping state change delivered to subscribers.
type Event struct {
	Kind     EventKind      `json:"kind"`
	Clipping model.Clipping `json:"clipping"`
}

// Bus fans clipping events out to subscribers. Delivery is synchronous and
// in subscription order; subscribers must not publish from their handler.
type Bus struct {
	mu   sync.Mutex
	subs []func(Event)
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for every subsequent event.
func (b *Bus) Subscribe(fn func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}

// Publish delivers one event to all subscribers.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	subs := make([]func(Event), len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}
