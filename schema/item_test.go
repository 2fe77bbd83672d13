package schema

import (
	"testing"

	"github.com/stationkit/powersdk/datatype"
)

func TestFieldParseNoTransform(t *testing.T) {
	f, err := NewField(Field{Name: "raw", Offset: 0, Type: datatype.UInt8{}})
	if err != nil {
		t.Fatal(err)
	}
	v, err := f.Parse([]byte{0x2A})
	if err != nil {
		t.Fatal(err)
	}
	if v.(uint64) != 0x2A {
		t.Fatalf("got %v, want 42", v)
	}
	if f.End() != 1 {
		t.Fatalf("End() = %d, want 1", f.End())
	}
}

func TestFieldCompileFailureOnUnknownTransform(t *testing.T) {
	if _, err := NewField(Field{Name: "x", Offset: 0, Type: datatype.UInt8{}, Transform: []string{"nope"}}); err == nil {
		t.Fatal("expected compile error")
	}
}

func TestArrayFieldEndAndParse(t *testing.T) {
	af, err := NewArrayField(ArrayField{
		Name: "cells", Offset: 0, Count: 3, Stride: 2, ItemType: datatype.UInt16{},
	})
	if err != nil {
		t.Fatal(err)
	}
	if af.End() != 6 {
		t.Fatalf("End() = %d, want 6", af.End())
	}
	v, err := af.Parse([]byte{0x00, 0x01, 0x00, 0x02, 0x00, 0x03})
	if err != nil {
		t.Fatal(err)
	}
	values := v.([]interface{})
	if len(values) != 3 || values[0].(uint64) != 1 || values[2].(uint64) != 3 {
		t.Fatalf("unexpected values: %+v", values)
	}
}

func TestArrayFieldSharedTransformAppliesToEachElement(t *testing.T) {
	af, _ := NewArrayField(ArrayField{
		Name: "cells", Offset: 0, Count: 2, Stride: 2, ItemType: datatype.UInt16{},
		Transform: []string{"scale:0.01"},
	})
	v, err := af.Parse([]byte{0x00, 0x64, 0x00, 0xC8})
	if err != nil {
		t.Fatal(err)
	}
	values := v.([]interface{})
	if values[0].(float64) != 1.0 || values[1].(float64) != 2.0 {
		t.Fatalf("unexpected scaled values: %+v", values)
	}
}
