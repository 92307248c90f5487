// Package model defines the query criteria types shared across the gateway.
package model

import (
	"fmt"
	"strconv"
	"strings"
)

// QueryMode selects which backend query endpoint an execution hits.
type QueryMode string

const (
	ModeAttribute QueryMode = "attribute"
	ModeSpatial   QueryMode = "spatial"
	ModeCombined  QueryMode = "combined"
)

func ParseQueryMode(s string) (QueryMode, error) {
	switch QueryMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeAttribute:
		return ModeAttribute, nil
	case ModeSpatial:
		return ModeSpatial, nil
	case ModeCombined:
		return ModeCombined, nil
	default:
		return "", fmt.Errorf("invalid query mode %q (want attribute|spatial|combined)", s)
	}
}

// Logic is the rule combining attribute conditions.
type Logic string

const (
	LogicAnd Logic = "AND"
	LogicOr  Logic = "OR"
)

func ParseLogic(s string) (Logic, error) {
	switch Logic(strings.ToUpper(strings.TrimSpace(s))) {
	case LogicAnd:
		return LogicAnd, nil
	case LogicOr:
		return LogicOr, nil
	default:
		return "", fmt.Errorf("invalid logic %q (want AND|OR)", s)
	}
}

// DataType is the declared type of a dataset field.
type DataType string

const (
	TypeString DataType = "string"
	TypeNumber DataType = "number"
	TypeDate   DataType = "date"
)

// Operator is a per-condition comparison operator.
type Operator string

const (
	OpEquals             Operator = "equals"
	OpNotEquals          Operator = "not_equals"
	OpContains           Operator = "contains"
	OpNotContains        Operator = "not_contains"
	OpStartsWith         Operator = "starts_with"
	OpEndsWith           Operator = "ends_with"
	OpRegex              Operator = "regex"
	OpGreaterThan        Operator = "greater_than"
	OpGreaterThanOrEqual Operator = "greater_than_or_equal"
	OpLessThan           Operator = "less_than"
	OpLessThanOrEqual    Operator = "less_than_or_equal"
	OpBetween            Operator = "between"
)

var stringOperators = []Operator{
	OpEquals, OpNotEquals, OpContains, OpNotContains,
	OpStartsWith, OpEndsWith, OpRegex,
}

var orderedOperators = []Operator{
	OpEquals, OpNotEquals, OpGreaterThan, OpGreaterThanOrEqual,
	OpLessThan, OpLessThanOrEqual, OpBetween,
}

// OperatorsFor returns the operator set valid for the given data type.
// Unknown types fall back to the string set, matching field metadata that
// declares no recognized type.
func OperatorsFor(t DataType) []Operator {
	switch t {
	case TypeNumber, TypeDate:
		return orderedOperators
	default:
		return stringOperators
	}
}

// DefaultOperator is the operator a fresh condition starts with, and the one
// a condition falls back to when a field change invalidates its operator.
const DefaultOperator = OpEquals

func ValidOperator(op Operator, t DataType) bool {
	for _, o := range OperatorsFor(t) {
		if o == op {
			return true
		}
	}
	return false
}

// Condition is one attribute filter row.
type Condition struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    string   `json:"value"`
	DataType DataType `json:"dataType"`
}

// BetweenBounds parses a "min,max" value into its two bounds.
func (c Condition) BetweenBounds() (lo, hi float64, err error) {
	parts := strings.SplitN(c.Value, ",", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("between value %q: want two comma-separated bounds", c.Value)
	}
	lo, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("between lower bound: %w", err)
	}
	hi, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("between upper bound: %w", err)
	}
	return lo, hi, nil
}

// AttributeCriteria combines conditions under one logic rule.
type AttributeCriteria struct {
	Logic      Logic       `json:"logic"`
	Conditions []Condition `json:"conditions"`
}

// BBox is an axis-aligned bounding box in lng/lat.
type BBox struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

func (b BBox) Validate() error {
	if !(b.MinX >= -180 && b.MinX <= 180 && b.MaxX >= -180 && b.MaxX <= 180) {
		return fmt.Errorf("longitude must be in [-180,180]")
	}
	if !(b.MinY >= -90 && b.MinY <= 90 && b.MaxY >= -90 && b.MaxY <= 90) {
		return fmt.Errorf("latitude must be in [-90,90]")
	}
	if b.MaxX <= b.MinX || b.MaxY <= b.MinY {
		return fmt.Errorf("bounds must satisfy maxX>minX and maxY>minY")
	}
	return nil
}

// BufferCriteria is a point-plus-radius spatial filter.
type BufferCriteria struct {
	Lng      float64 `json:"lng"`
	Lat      float64 `json:"lat"`
	Distance float64 `json:"distance"`
	Unit     string  `json:"unit"`
}

var bufferUnits = map[string]bool{
	"kilometers": true,
	"meters":     true,
	"miles":      true,
	"feet":       true,
}

// ValidBufferUnit reports whether the backend accepts the distance unit.
func ValidBufferUnit(u string) bool { return bufferUnits[u] }

func (b BufferCriteria) Validate() error {
	if b.Lng < -180 || b.Lng > 180 || b.Lat < -90 || b.Lat > 90 {
		return fmt.Errorf("buffer center (%v, %v) out of range", b.Lng, b.Lat)
	}
	if b.Distance <= 0 {
		return fmt.Errorf("buffer distance must be greater than zero")
	}
	if !bufferUnits[b.Unit] {
		return fmt.Errorf("buffer unit %q must be one of kilometers, meters, miles, feet", b.Unit)
	}
	return nil
}

// PolygonGeoJSON carries a raw Polygon/MultiPolygon geometry object.
type PolygonGeoJSON struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

func (p PolygonGeoJSON) Validate() error {
	if p.Type != "Polygon" && p.Type != "MultiPolygon" {
		return fmt.Errorf("polygon type %q must be Polygon or MultiPolygon", p.Type)
	}
	if p.Coordinates == nil {
		return fmt.Errorf("polygon has no coordinates")
	}
	return nil
}

// SpatialCriteria holds the populated spatial variants. Unpopulated variants
// stay nil and serialize as JSON nulls; the backend rejects incomplete input.
type SpatialCriteria struct {
	Bounds  *BBox           `json:"bounds"`
	Buffer  *BufferCriteria `json:"buffer"`
	Polygon *PolygonGeoJSON `json:"polygon"`
}

// CombinedCriteria is the structural composition of the other two.
type CombinedCriteria struct {
	Spatial   *SpatialCriteria   `json:"spatial"`
	Attribute *AttributeCriteria `json:"attribute"`
}

// Field is one dataset attribute as declared by the backend.
type Field struct {
	Name string   `json:"name"`
	Type DataType `json:"type"`
}

// Dataset is the gateway's mirror of a server-owned dataset. Visible is
// client-only state the server does not persist.
type Dataset struct {
	ID             string         `json:"_id"`
	Name           string         `json:"name"`
	Type           string         `json:"type"`
	FeatureCount   int            `json:"featureCount"`
	Style          map[string]any `json:"style,omitempty"`
	RasterMetadata map[string]any `json:"rasterMetadata,omitempty"`
	Source         DatasetSource  `json:"source"`
	Visible        bool           `json:"visible"`
}

type DatasetSource struct {
	DatasetID string `json:"datasetId,omitempty"`
}

// Clipping is a saved, named subset of features produced by a clip operation.
type Clipping struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	DatasetID   string `json:"datasetId,omitempty"`
	Count       int    `json:"count"`
}
