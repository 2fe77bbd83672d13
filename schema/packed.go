package schema

import (
	"fmt"

	"github.com/stationkit/powersdk/transform"
)

// SubField is a bit range [Start, End) within a PackedField's backing
// integer, little-endian bit numbering (bit 0 is the LSB). SubField
// is not itself a top-level Item — it only exists inside a
// PackedField.
type SubField struct {
	Name              string
	Start, End        int
	Transform         []string
	Unit              string
	Enum              map[int64]string
	Description       string
	compiledTransform transform.Pipeline
}

// NewSubField validates the bit range and compiles the transform
// pipeline.
func NewSubField(sf SubField, baseBits int) (*SubField, error) {
	if sf.Start < 0 || sf.Start >= sf.End || sf.End > baseBits {
		return nil, fmt.Errorf("sub-field %q: bits [%d:%d) invalid for %d-bit base", sf.Name, sf.Start, sf.End, baseBits)
	}
	if sf.Transform != nil {
		pipeline, err := transform.Compile(sf.Transform)
		if err != nil {
			return nil, fmt.Errorf("sub-field %q: %w", sf.Name, err)
		}
		sf.compiledTransform = pipeline
	}
	return &sf, nil
}

func (sf *SubField) extract(backing uint64) (interface{}, error) {
	width := sf.End - sf.Start
	mask := uint64(1)<<uint(width) - 1
	bits := (backing >> uint(sf.Start)) & mask

	var value interface{} = int64(bits)
	if sf.Enum != nil {
		if sym, ok := sf.Enum[int64(bits)]; ok {
			value = sym
		} else {
			value = fmt.Sprintf("UNKNOWN_%d", bits)
		}
	}
	if sf.compiledTransform != nil {
		var err error
		value, err = sf.compiledTransform.Apply(value)
		if err != nil {
			return nil, err
		}
	}
	return value, nil
}

// PackedField reads a Count-length run of backing integers (BaseBits
// wide, Stride bytes apart) and decomposes each into its SubFields,
// emitting a list of per-item maps.
type PackedField struct {
	Name            string
	Offset          int
	Count           int
	Stride          int
	BaseBits        int // 8, 16, 32, or 64 — width of the backing integer
	SubFields       []*SubField
	IsRequired      bool
	MinProtoVersion *int
	Description     string
}

// NewPackedField validates every sub-field against BaseBits.
func NewPackedField(baseBits int, count, stride, offset int, name string, required bool, minVersion *int, description string, subFieldSpecs []SubField) (*PackedField, error) {
	subs := make([]*SubField, 0, len(subFieldSpecs))
	for _, spec := range subFieldSpecs {
		sf, err := NewSubField(spec, baseBits)
		if err != nil {
			return nil, fmt.Errorf("packed field %q: %w", name, err)
		}
		subs = append(subs, sf)
	}
	return &PackedField{
		Name:            name,
		Offset:          offset,
		Count:           count,
		Stride:          stride,
		BaseBits:        baseBits,
		SubFields:       subs,
		IsRequired:      required,
		MinProtoVersion: minVersion,
		Description:     description,
	}, nil
}

func (f *PackedField) FieldName() string        { return f.Name }
func (f *PackedField) Required() bool            { return f.IsRequired }
func (f *PackedField) MinProtocolVersion() *int  { return f.MinProtoVersion }
func (f *PackedField) End() int                  { return f.Offset + f.Count*f.Stride }
func (f *PackedField) baseSize() int             { return f.BaseBits / 8 }

// Parse iterates i in [0, Count), reading the backing integer at
// Offset+i*Stride and evaluating every SubField against it.
func (f *PackedField) Parse(payload []byte) (interface{}, error) {
	items := make([]interface{}, 0, f.Count)
	size := f.baseSize()
	for i := 0; i < f.Count; i++ {
		itemOffset := f.Offset + i*f.Stride
		if itemOffset+size > len(payload) {
			return nil, fmt.Errorf("packed field %q item %d exceeds data length %d", f.Name, i, len(payload))
		}
		backing := readBigEndian(payload[itemOffset : itemOffset+size])
		item := make(map[string]interface{}, len(f.SubFields))
		for _, sf := range f.SubFields {
			value, err := sf.extract(backing)
			if err != nil {
				return nil, fmt.Errorf("packed field %q sub-field %q: %w", f.Name, sf.Name, err)
			}
			item[sf.Name] = value
		}
		items = append(items, item)
	}
	return items, nil
}

func readBigEndian(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}
