// Package query holds the criteria model a user composes and the runner
// that turns one criteria snapshot into exactly one backend call.
package query

import (
	"fmt"
	"sync"

	"github.com/mapdesk/geoquery/internal/core/model"
)

// Criteria is one immutable snapshot of the builder, the unit of execution.
// Only the parts selected by Mode are ever sent; switching modes cannot leak
// unrelated criteria into a payload.
type Criteria struct {
	Mode      model.QueryMode         `json:"mode"`
	Attribute model.AttributeCriteria `json:"attribute"`
	Spatial   model.SpatialCriteria   `json:"spatial"`
}

// Builder lets a user compose a query without writing a query language.
// It validates only what must be well formed before execution and commits
// no side effects until the snapshot is executed.
type Builder struct {
	mu        sync.Mutex
	mode      model.QueryMode
	attribute model.AttributeCriteria
	spatial   model.SpatialCriteria
}

func NewBuilder() *Builder {
	return &Builder{
		mode:      model.ModeAttribute,
		attribute: model.AttributeCriteria{Logic: model.LogicAnd},
	}
}

func (b *Builder) Mode() model.QueryMode {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mode
}

func (b *Builder) SetMode(m model.QueryMode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mode = m
}

// SetLogic toggles the rule applied across all conditions.
func (b *Builder) SetLogic(l model.Logic) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attribute.Logic = l
}

// AddCondition appends a blank condition row and returns its index. There is
// no limit on the row count.
func (b *Builder) AddCondition() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attribute.Conditions = append(b.attribute.Conditions, model.Condition{
		Operator: model.DefaultOperator,
		DataType: model.TypeString,
	})
	return len(b.attribute.Conditions) - 1
}

// SetConditionField changes the field of one row and re-derives its data
// type from the field declaration. When the new type invalidates the chosen
// operator, the operator resets to the type's default instead of letting an
// invalid pair reach the backend.
func (b *Builder) SetConditionField(index int, field model.Field) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, err := b.condition(index)
	if err != nil {
		return err
	}
	c.Field = field.Name
	c.DataType = field.Type
	if c.DataType == "" {
		c.DataType = model.TypeString
	}
	if !model.ValidOperator(c.Operator, c.DataType) {
		c.Operator = model.DefaultOperator
	}
	return nil
}

func (b *Builder) SetConditionOperator(index int, op model.Operator) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, err := b.condition(index)
	if err != nil {
		return err
	}
	if !model.ValidOperator(op, c.DataType) {
		return fmt.Errorf("operator %q is not valid for %s fields", op, c.DataType)
	}
	c.Operator = op
	return nil
}

// SetConditionValue stores the row's value. Between values must already be
// two parseable comma-separated bounds; anything else is kept as-is for the
// backend to interpret.
func (b *Builder) SetConditionValue(index int, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, err := b.condition(index)
	if err != nil {
		return err
	}
	if c.Operator == model.OpBetween && value != "" {
		check := *c
		check.Value = value
		if _, _, err := check.BetweenBounds(); err != nil {
			return err
		}
	}
	c.Value = value
	return nil
}

// RemoveCondition deletes one row by position.
func (b *Builder) RemoveCondition(index int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if index < 0 || index >= len(b.attribute.Conditions) {
		return fmt.Errorf("condition index %d out of range", index)
	}
	b.attribute.Conditions = append(
		b.attribute.Conditions[:index],
		b.attribute.Conditions[index+1:]...,
	)
	return nil
}

func (b *Builder) ConditionCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.attribute.Conditions)
}

func (b *Builder) SetBounds(bounds *model.BBox) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if bounds != nil {
		if err := bounds.Validate(); err != nil {
			return fmt.Errorf("bounds: %w", err)
		}
	}
	b.spatial.Bounds = bounds
	return nil
}

func (b *Builder) SetBuffer(buf *model.BufferCriteria) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if buf != nil {
		if err := buf.Validate(); err != nil {
			return fmt.Errorf("buffer: %w", err)
		}
	}
	b.spatial.Buffer = buf
	return nil
}

func (b *Builder) SetPolygon(p *model.PolygonGeoJSON) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p != nil {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("polygon: %w", err)
		}
	}
	b.spatial.Polygon = p
	return nil
}

// Clear resets every part of the builder to its initial state.
func (b *Builder) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mode = model.ModeAttribute
	b.attribute = model.AttributeCriteria{Logic: model.LogicAnd}
	b.spatial = model.SpatialCriteria{}
}

// Snapshot copies the current state into an execution-ready Criteria.
func (b *Builder) Snapshot() Criteria {
	b.mu.Lock()
	defer b.mu.Unlock()
	snap := Criteria{
		Mode:      b.mode,
		Attribute: model.AttributeCriteria{Logic: b.attribute.Logic},
		Spatial:   b.spatial,
	}
	snap.Attribute.Conditions = make([]model.Condition, len(b.attribute.Conditions))
	copy(snap.Attribute.Conditions, b.attribute.Conditions)
	return snap
}

func (b *Builder) condition(index int) (*model.Condition, error) {
	if index < 0 || index >= len(b.attribute.Conditions) {
		return nil, fmt.Errorf("condition index %d out of range", index)
	}
	return &b.attribute.Conditions[index], nil
}
