package stats

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func featWith(props map[string]any) *geojson.Feature {
	f := geojson.NewFeature(orb.Point{0, 0})
	f.Properties = props
	return f
}

func numericFeatures(key string, vals ...float64) []*geojson.Feature {
	out := make([]*geojson.Feature, 0, len(vals))
	for _, v := range vals {
		out = append(out, featWith(map[string]any{key: v}))
	}
	return out
}

func TestSummarize_NumericBounds(t *testing.T) {
	s := Summarize(numericFeatures("pop", 5, 1, 9, 3, 7))["pop"]
	if s.Numeric == nil {
		t.Fatal("numeric summary missing")
	}
	n := s.Numeric
	if n.Count != 5 || n.Min != 1 || n.Max != 9 {
		t.Fatalf("count/min/max = %d/%v/%v want 5/1/9", n.Count, n.Min, n.Max)
	}
	if n.Mean != 5 {
		t.Fatalf("mean=%v want 5", n.Mean)
	}
	if n.Median != 5 {
		t.Fatalf("median=%v want 5", n.Median)
	}
	if !(n.Min <= n.Median && n.Median <= n.Max) {
		t.Fatal("median out of [min,max]")
	}
	if !(n.Min <= n.Mean && n.Mean <= n.Max) {
		t.Fatal("mean out of [min,max]")
	}
}

// Even-length sets take the lower-middle element at index n/2 of the
// ascending sort, never an average of the two middles.
func TestSummarize_EvenLengthMedian(t *testing.T) {
	s := Summarize(numericFeatures("v", 40, 10, 30, 20))["v"]
	if s.Numeric == nil {
		t.Fatal("numeric summary missing")
	}
	if s.Numeric.Median != 30 {
		t.Fatalf("median=%v want 30", s.Numeric.Median)
	}
}

func TestSummarize_SingleValue(t *testing.T) {
	s := Summarize(numericFeatures("v", 42))["v"]
	n := s.Numeric
	if n == nil || n.Min != 42 || n.Max != 42 || n.Mean != 42 || n.Median != 42 {
		t.Fatalf("single-value summary wrong: %+v", n)
	}
}

// Ties go to the value seen first in feature order.
func TestSummarize_MostCommonFirstSeenTieBreak(t *testing.T) {
	feats := []*geojson.Feature{
		featWith(map[string]any{"name": "b"}),
		featWith(map[string]any{"name": "a"}),
		featWith(map[string]any{"name": "a"}),
		featWith(map[string]any{"name": "b"}),
	}
	s := Summarize(feats)["name"]
	if s.Text == nil {
		t.Fatal("text summary missing")
	}
	if s.Text.MostCommon != "b" {
		t.Fatalf("mostCommon=%q want %q", s.Text.MostCommon, "b")
	}
	if s.Text.Count != 4 || s.Text.UniqueCount != 2 {
		t.Fatalf("count/unique = %d/%d want 4/2", s.Text.Count, s.Text.UniqueCount)
	}
}

func TestSummarize_StrictMajorityWins(t *testing.T) {
	feats := []*geojson.Feature{
		featWith(map[string]any{"name": "x"}),
		featWith(map[string]any{"name": "y"}),
		featWith(map[string]any{"name": "y"}),
	}
	s := Summarize(feats)["name"]
	if s.Text.MostCommon != "y" {
		t.Fatalf("mostCommon=%q want %q", s.Text.MostCommon, "y")
	}
}

// Numeric strings land in the numeric partition; everything else is text.
func TestSummarize_Partition(t *testing.T) {
	feats := []*geojson.Feature{
		featWith(map[string]any{"v": "12.5"}),
		featWith(map[string]any{"v": "n/a"}),
		featWith(map[string]any{"v": 7.5}),
		featWith(map[string]any{"v": true}),
		featWith(map[string]any{"v": nil}),
	}
	s := Summarize(feats)["v"]
	if s.Numeric == nil || s.Numeric.Count != 2 {
		t.Fatalf("numeric part wrong: %+v", s.Numeric)
	}
	if s.Numeric.Min != 7.5 || s.Numeric.Max != 12.5 {
		t.Fatalf("numeric min/max = %v/%v", s.Numeric.Min, s.Numeric.Max)
	}
	if s.Text == nil || s.Text.Count != 3 || s.Text.UniqueCount != 3 {
		t.Fatalf("text part wrong: %+v", s.Text)
	}
}

func TestSummarize_Empty(t *testing.T) {
	if got := Summarize(nil); len(got) != 0 {
		t.Fatalf("want empty map, got %v", got)
	}
	if got := Summarize([]*geojson.Feature{featWith(nil)}); len(got) != 0 {
		t.Fatalf("want empty map, got %v", got)
	}
}
