package highlight

import (
	"reflect"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func pointFeature(lng, lat float64, name string) *geojson.Feature {
	f := geojson.NewFeature(orb.Point{lng, lat})
	f.Properties = geojson.Properties{"name": name}
	return f
}

func TestFlatten_Point(t *testing.T) {
	prims := Flatten(pointFeature(77.2, 28.6, "delhi"))
	if len(prims) != 1 {
		t.Fatalf("primitives=%d want 1", len(prims))
	}
	p := prims[0]
	if p.Kind != KindMarker {
		t.Fatalf("kind=%s want marker", p.Kind)
	}
	if p.Point != (orb.Point{77.2, 28.6}) {
		t.Fatalf("point=%v", p.Point)
	}
	if p.Popup["name"] != "delhi" {
		t.Fatalf("popup=%v", p.Popup)
	}
}

func TestFlatten_MultiLineString(t *testing.T) {
	ml := orb.MultiLineString{
		{{0, 0}, {1, 1}},
		{{2, 2}, {3, 3}},
	}
	prims := Flatten(geojson.NewFeature(ml))
	if len(prims) != 2 {
		t.Fatalf("primitives=%d want 2", len(prims))
	}
	for _, p := range prims {
		if p.Kind != KindPolyline {
			t.Fatalf("kind=%s want polyline", p.Kind)
		}
	}
}

// A polygon with a hole renders as a single ring: the outer one.
func TestFlatten_PolygonHoleIgnored(t *testing.T) {
	poly := orb.Polygon{
		{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
		{{2, 2}, {4, 2}, {4, 4}, {2, 4}, {2, 2}}, // hole
	}
	prims := Flatten(geojson.NewFeature(poly))
	if len(prims) != 1 {
		t.Fatalf("primitives=%d want 1 (hole must not render)", len(prims))
	}
	if !reflect.DeepEqual(prims[0].Ring, poly[0]) {
		t.Fatalf("ring=%v want outer ring", prims[0].Ring)
	}
}

func TestFlatten_GeometryCollectionInheritsProperties(t *testing.T) {
	col := orb.Collection{
		orb.Point{1, 2},
		orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}},
	}
	f := geojson.NewFeature(col)
	f.Properties = geojson.Properties{"src": "parent"}
	prims := Flatten(f)
	if len(prims) != 2 {
		t.Fatalf("primitives=%d want 2", len(prims))
	}
	for i, p := range prims {
		if p.Popup["src"] != "parent" {
			t.Fatalf("primitive %d popup=%v want parent properties", i, p.Popup)
		}
	}
}

func TestBridge_SetFeaturesIdempotent(t *testing.T) {
	b := NewBridge()
	feats := []*geojson.Feature{pointFeature(1, 1, "a"), pointFeature(2, 2, "b")}

	b.SetFeatures(feats)
	once := b.Overlay()
	b.SetFeatures(feats)
	twice := b.Overlay()

	if !reflect.DeepEqual(once, twice) {
		t.Fatal("pushing the same feature set twice changed the overlay")
	}
	if len(once) != 2 {
		t.Fatalf("overlay=%d want 2", len(once))
	}
}

func TestBridge_ToggleRestoresExactSet(t *testing.T) {
	b := NewBridge()
	feats := []*geojson.Feature{pointFeature(1, 1, "a"), pointFeature(2, 2, "b")}
	b.SetFeatures(feats)
	before := b.Overlay()

	b.SetEnabled(false)
	if got := b.Overlay(); len(got) != 0 {
		t.Fatalf("overlay=%d want 0 while disabled", len(got))
	}

	b.SetEnabled(true)
	after := b.Overlay()
	if !reflect.DeepEqual(before, after) {
		t.Fatal("toggle off/on must restore the exact feature set")
	}
}

func TestBridge_ClearEmptiesQueryOverlayOnly(t *testing.T) {
	b := NewBridge()
	b.SetFeatures([]*geojson.Feature{pointFeature(1, 1, "q")})
	b.SetAnalysis("result_1", []*geojson.Feature{pointFeature(2, 2, "a")})

	b.Clear()
	got := b.Overlay()
	if len(got) != 1 {
		t.Fatalf("overlay=%d want 1 (analysis set must survive Clear)", len(got))
	}
	if got[0].Popup["name"] != "a" {
		t.Fatalf("surviving primitive=%v", got[0].Popup)
	}
}

func TestBridge_AnalysisSetsAreIndependent(t *testing.T) {
	b := NewBridge()
	b.SetEnabled(false)
	b.SetAnalysis("result_1", []*geojson.Feature{pointFeature(1, 1, "one")})
	b.SetAnalysis("result_2", []*geojson.Feature{pointFeature(2, 2, "two")})

	if got := b.Overlay(); len(got) != 2 {
		t.Fatalf("overlay=%d want 2", len(got))
	}

	if !b.SetAnalysisVisible("result_1", false) {
		t.Fatal("SetAnalysisVisible returned false for known id")
	}
	got := b.Overlay()
	if len(got) != 1 || got[0].Popup["name"] != "two" {
		t.Fatalf("overlay=%v want only result_2", got)
	}

	if !b.RemoveAnalysis("result_2") {
		t.Fatal("RemoveAnalysis returned false for known id")
	}
	if got := b.Overlay(); len(got) != 0 {
		t.Fatalf("overlay=%d want 0", len(got))
	}

	if b.RemoveAnalysis("result_2") {
		t.Fatal("RemoveAnalysis must report unknown id")
	}
	if b.SetAnalysisVisible("nope", true) {
		t.Fatal("SetAnalysisVisible must report unknown id")
	}
}
