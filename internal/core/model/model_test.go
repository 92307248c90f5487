package model

import (
	"encoding/json"
	"testing"
)

func TestParseQueryMode(t *testing.T) {
	cases := []struct {
		in      string
		want    QueryMode
		wantErr bool
	}{
		{"attribute", ModeAttribute, false},
		{"SPATIAL", ModeSpatial, false},
		{" combined ", ModeCombined, false},
		{"both", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		got, err := ParseQueryMode(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseQueryMode(%q): want error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseQueryMode(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseQueryMode(%q)=%q want %q", tc.in, got, tc.want)
		}
	}
}

func TestOperatorsForDataType(t *testing.T) {
	if !ValidOperator(OpRegex, TypeString) {
		t.Error("regex must be valid for string fields")
	}
	if ValidOperator(OpRegex, TypeNumber) {
		t.Error("regex must not be valid for number fields")
	}
	if !ValidOperator(OpBetween, TypeDate) {
		t.Error("between must be valid for date fields")
	}
	if ValidOperator(OpContains, TypeNumber) {
		t.Error("contains must not be valid for number fields")
	}
	// unknown declared types behave like string fields
	if !ValidOperator(OpStartsWith, DataType("geometry")) {
		t.Error("unknown type must fall back to the string operator set")
	}
	for _, tp := range []DataType{TypeString, TypeNumber, TypeDate} {
		if !ValidOperator(DefaultOperator, tp) {
			t.Errorf("default operator must be valid for %s", tp)
		}
	}
}

func TestBetweenBounds(t *testing.T) {
	c := Condition{Operator: OpBetween, Value: "100, 1000"}
	lo, hi, err := c.BetweenBounds()
	if err != nil {
		t.Fatalf("BetweenBounds: %v", err)
	}
	if lo != 100 || hi != 1000 {
		t.Fatalf("bounds=(%v,%v) want (100,1000)", lo, hi)
	}

	for _, bad := range []string{"", "100", "a,b", "1;2"} {
		c := Condition{Operator: OpBetween, Value: bad}
		if _, _, err := c.BetweenBounds(); err == nil {
			t.Errorf("BetweenBounds(%q): want error", bad)
		}
	}
}

func TestBBoxValidate(t *testing.T) {
	good := BBox{MinX: 76.8, MinY: 28.4, MaxX: 77.4, MaxY: 28.9}
	if err := good.Validate(); err != nil {
		t.Fatalf("valid bbox rejected: %v", err)
	}
	bad := []BBox{
		{MinX: -200, MinY: 0, MaxX: 10, MaxY: 10},
		{MinX: 0, MinY: -95, MaxX: 10, MaxY: 10},
		{MinX: 10, MinY: 0, MaxX: 5, MaxY: 10},
		{MinX: 0, MinY: 10, MaxX: 10, MaxY: 10},
	}
	for i, b := range bad {
		if err := b.Validate(); err == nil {
			t.Errorf("bbox %d: want error", i)
		}
	}
}

// Criteria must survive a JSON round trip unchanged.
func TestAttributeCriteriaRoundTrip(t *testing.T) {
	in := AttributeCriteria{
		Logic: LogicAnd,
		Conditions: []Condition{
			{Field: "population", Operator: OpGreaterThan, Value: "1000000", DataType: TypeNumber},
			{Field: "name", Operator: OpContains, Value: "pur", DataType: TypeString},
		},
	}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out AttributeCriteria
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Logic != in.Logic || len(out.Conditions) != len(in.Conditions) {
		t.Fatalf("round trip mismatch: %+v", out)
	}
	for i := range in.Conditions {
		if out.Conditions[i] != in.Conditions[i] {
			t.Errorf("condition %d: got %+v want %+v", i, out.Conditions[i], in.Conditions[i])
		}
	}
}

func TestSpatialCriteriaNullVariants(t *testing.T) {
	b, err := json.Marshal(SpatialCriteria{Bounds: &BBox{MinX: 1, MinY: 2, MaxX: 3, MaxY: 4}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	// unpopulated variants go over the wire as explicit nulls
	want := `{"bounds":{"minX":1,"minY":2,"maxX":3,"maxY":4},"buffer":null,"polygon":null}`
	if string(b) != want {
		t.Fatalf("payload=%s want %s", b, want)
	}
}
