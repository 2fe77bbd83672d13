// Package schema implements the declarative block-layout framework:
// Field, ArrayField, PackedField/SubField, FieldGroup, and the
// BlockSchema that ties them together (spec §3, §4.3).
package schema

import (
	"fmt"

	"github.com/stationkit/powersdk/datatype"
	"github.com/stationkit/powersdk/transform"
)

// Item is the closed set of things a BlockSchema can contain: Field,
// ArrayField, PackedField, or FieldGroup. All four are immutable once
// constructed.
type Item interface {
	// FieldName is the key this item's value is stored under in
	// ParsedRecord.Values.
	FieldName() string
	// Required reports whether a missing/out-of-bounds value aborts
	// the whole parse (true) or degrades to a null value (false).
	Required() bool
	// MinProtocolVersion is nil when the item has no version gate.
	MinProtocolVersion() *int
	// End returns offset+size: the first byte past this item's range.
	// Used for the min_length/strict-mode invariants.
	End() int
	// Parse extracts this item's value from payload. Callers have
	// already bounds-checked End() against len(payload).
	Parse(payload []byte) (interface{}, error)
}

// Field is a single named value at a fixed offset.
type Field struct {
	Name                string
	Offset              int
	Type                datatype.Type
	Unit                string
	IsRequired          bool
	Transform           []string
	MinProtoVersion     *int
	Description         string
	compiledTransform   transform.Pipeline
}

// NewField compiles the field's transform pipeline (if any) and
// returns the immutable Field.
func NewField(f Field) (*Field, error) {
	if f.Transform != nil {
		pipeline, err := transform.Compile(f.Transform)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		f.compiledTransform = pipeline
	}
	return &f, nil
}

func (f *Field) FieldName() string          { return f.Name }
func (f *Field) Required() bool             { return f.IsRequired }
func (f *Field) MinProtocolVersion() *int    { return f.MinProtoVersion }
func (f *Field) End() int                   { return f.Offset + f.Type.Size() }

// Parse extracts the raw primitive at Offset and applies the
// compiled transform pipeline, if any.
func (f *Field) Parse(payload []byte) (interface{}, error) {
	raw, err := f.Type.Parse(payload, f.Offset)
	if err != nil {
		return nil, err
	}
	if f.compiledTransform == nil {
		return raw, nil
	}
	return f.compiledTransform.Apply(raw)
}

// ArrayField is a run of Count values of the same ItemType spaced
// Stride bytes apart.
type ArrayField struct {
	Name              string
	Offset            int
	Count             int
	Stride            int
	ItemType          datatype.Type
	Unit              string
	IsRequired        bool
	Transform         []string
	MinProtoVersion   *int
	Description       string
	compiledTransform transform.Pipeline
}

// NewArrayField compiles the shared transform pipeline applied to
// every array element.
func NewArrayField(f ArrayField) (*ArrayField, error) {
	if f.Transform != nil {
		pipeline, err := transform.Compile(f.Transform)
		if err != nil {
			return nil, fmt.Errorf("array field %q: %w", f.Name, err)
		}
		f.compiledTransform = pipeline
	}
	return &f, nil
}

func (f *ArrayField) FieldName() string       { return f.Name }
func (f *ArrayField) Required() bool          { return f.IsRequired }
func (f *ArrayField) MinProtocolVersion() *int { return f.MinProtoVersion }
func (f *ArrayField) End() int                { return f.Offset + f.Count*f.Stride }

// Parse iterates i in [0, Count), reading ItemType at
// Offset+i*Stride and pushing each through the shared pipeline.
func (f *ArrayField) Parse(payload []byte) (interface{}, error) {
	values := make([]interface{}, 0, f.Count)
	for i := 0; i < f.Count; i++ {
		itemOffset := f.Offset + i*f.Stride
		raw, err := f.ItemType.Parse(payload, itemOffset)
		if err != nil {
			return nil, err
		}
		value := raw
		if f.compiledTransform != nil {
			value, err = f.compiledTransform.Apply(raw)
			if err != nil {
				return nil, err
			}
		}
		values = append(values, value)
	}
	return values, nil
}
