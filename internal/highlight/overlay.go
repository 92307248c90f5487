// Package highlight maintains the transient set of map overlay primitives
// representing the current query and analysis results.
package highlight

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

type Kind string

const (
	KindMarker   Kind = "marker"
	KindPolyline Kind = "polyline"
	KindPolygon  Kind = "polygon"
)

// Primitive is one drawable map element. Exactly one of Point, Line or Ring
// is populated, selected by Kind. Popup carries the feature properties shown
// when the primitive is clicked.
type Primitive struct {
	Kind  Kind               `json:"kind"`
	Point orb.Point          `json:"point,omitempty"`
	Line  orb.LineString     `json:"line,omitempty"`
	Ring  orb.Ring           `json:"ring,omitempty"`
	Popup geojson.Properties `json:"popup,omitempty"`
}

// Flatten maps one feature onto drawable primitives:
// Point becomes a marker, LineString/MultiLineString polylines,
// Polygon/MultiPolygon polygons drawn from the first ring only (holes are
// not rendered), and GeometryCollection recurses with the
// parent's properties on every child.
func Flatten(f *geojson.Feature) []Primitive {
	if f == nil || f.Geometry == nil {
		return nil
	}
	return flattenGeometry(f.Geometry, f.Properties)
}

func flattenGeometry(g orb.Geometry, props geojson.Properties) []Primitive {
	switch geom := g.(type) {
	case orb.Point:
		return []Primitive{{Kind: KindMarker, Point: geom, Popup: props}}
	case orb.LineString:
		return []Primitive{{Kind: KindPolyline, Line: geom, Popup: props}}
	case orb.MultiLineString:
		out := make([]Primitive, 0, len(geom))
		for _, ls := range geom {
			out = append(out, Primitive{Kind: KindPolyline, Line: ls, Popup: props})
		}
		return out
	case orb.Polygon:
		if len(geom) == 0 {
			return nil
		}
		return []Primitive{{Kind: KindPolygon, Ring: geom[0], Popup: props}}
	case orb.MultiPolygon:
		out := make([]Primitive, 0, len(geom))
		for _, p := range geom {
			if len(p) == 0 {
				continue
			}
			out = append(out, Primitive{Kind: KindPolygon, Ring: p[0], Popup: props})
		}
		return out
	case orb.Collection:
		var out []Primitive
		for _, sub := range geom {
			out = append(out, flattenGeometry(sub, props)...)
		}
		return out
	default:
		// MultiPoint and anything newer are not produced by the backend
		return nil
	}
}

// FlattenAll flattens a feature slice in order.
func FlattenAll(features []*geojson.Feature) []Primitive {
	var out []Primitive
	for _, f := range features {
		out = append(out, Flatten(f)...)
	}
	return out
}
