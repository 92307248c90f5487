package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func sampleFeatures() []*geojson.Feature {
	a := geojson.NewFeature(orb.Point{11.97, 57.7})
	a.Properties = geojson.Properties{"name": "Gothenburg", "population": float64(580000)}
	b := geojson.NewFeature(orb.LineString{{0, 0}, {1, 1}})
	b.Properties = geojson.Properties{"name": "path"}
	return []*geojson.Feature{a, b}
}

func TestParseFormat(t *testing.T) {
	if _, err := ParseFormat("csv"); err != nil {
		t.Error(err)
	}
	if _, err := ParseFormat("shapefile"); err == nil {
		t.Error("unknown format accepted")
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, slog.New(slog.DiscardHandler), FormatCSV, sampleFeatures()); err != nil {
		t.Fatal(err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	// Sorted property keys, geometry type last.
	wantHeader := []string{"name", "population", "geometry_type"}
	for i, h := range wantHeader {
		if rows[0][i] != h {
			t.Fatalf("header = %v, want %v", rows[0], wantHeader)
		}
	}
	if rows[1][0] != "Gothenburg" || rows[1][1] != "580000" || rows[1][2] != "Point" {
		t.Errorf("row 1 = %v", rows[1])
	}
	// Missing property becomes an empty cell.
	if rows[2][1] != "" || rows[2][2] != "LineString" {
		t.Errorf("row 2 = %v", rows[2])
	}
}

func TestWriteCSVSkipsGeometrylessFeatures(t *testing.T) {
	features := append(sampleFeatures(), &geojson.Feature{})
	var buf bytes.Buffer
	if err := Write(&buf, slog.New(slog.DiscardHandler), FormatCSV, features); err != nil {
		t.Fatal(err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Errorf("rows = %d, want the broken feature skipped", len(rows))
	}
}

func TestWriteGeoJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, slog.New(slog.DiscardHandler), FormatGeoJSON, sampleFeatures()); err != nil {
		t.Fatal(err)
	}
	var fc struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	if err := json.Unmarshal(buf.Bytes(), &fc); err != nil {
		t.Fatal(err)
	}
	if fc.Type != "FeatureCollection" || len(fc.Features) != 2 {
		t.Errorf("collection = %s with %d features", fc.Type, len(fc.Features))
	}
	if !strings.Contains(string(fc.Features[0]), "Gothenburg") {
		t.Error("properties missing from exported feature")
	}
}
