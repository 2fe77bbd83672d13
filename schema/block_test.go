package schema

import (
	"testing"

	"github.com/stationkit/powersdk/datatype"
)

func TestBlockSchemaParseWithTransform(t *testing.T) {
	freq, err := NewField(Field{
		Name:      "freq",
		Offset:    0,
		Type:      datatype.UInt16{},
		Unit:      "Hz",
		Transform: []string{"scale:0.1"},
	})
	if err != nil {
		t.Fatal(err)
	}
	s, err := NewBlockSchema(1300, "grid_info", "", 2, []Item{freq}, 1, "1.0.0", false, "")
	if err != nil {
		t.Fatal(err)
	}

	record, err := s.Parse([]byte{0x01, 0xF4}, true, 1)
	if err != nil {
		t.Fatal(err)
	}
	if record.Values["freq"].(float64) != 50.0 {
		t.Fatalf("got %v, want 50.0", record.Values["freq"])
	}
	if !record.Validation.Valid || len(record.Validation.Errors) != 0 || len(record.Validation.Warnings) != 0 {
		t.Fatalf("unexpected validation: %+v", record.Validation)
	}
}

func TestBlockSchemaTooShortIsInvalid(t *testing.T) {
	freq, _ := NewField(Field{Name: "freq", Offset: 0, Type: datatype.UInt16{}, IsRequired: true})
	s, _ := NewBlockSchema(1300, "grid_info", "", 4, []Item{freq}, 1, "1.0.0", false, "")

	result := s.Validate([]byte{0x00, 0x01})
	if result.Valid {
		t.Fatal("expected invalid")
	}
	if len(result.Errors) == 0 {
		t.Fatal("expected a length error")
	}
}

func TestBlockSchemaOptionalFieldOutOfRangeIsMissing(t *testing.T) {
	required, _ := NewField(Field{Name: "a", Offset: 0, Type: datatype.UInt8{}, IsRequired: true})
	optional, _ := NewField(Field{Name: "b", Offset: 5, Type: datatype.UInt8{}, IsRequired: false})
	s, _ := NewBlockSchema(1, "x", "", 1, []Item{required, optional}, 1, "1.0.0", false, "")

	record, err := s.Parse([]byte{0x7B}, true, 1)
	if err != nil {
		t.Fatal(err)
	}
	if record.Values["b"] != nil {
		t.Fatalf("expected nil for out-of-range optional field, got %v", record.Values["b"])
	}
	found := false
	for _, m := range record.Validation.MissingFields {
		if m == "b" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %q in missing_fields: %+v", "b", record.Validation.MissingFields)
	}
}

func TestBlockSchemaRequiredFieldOutOfRangeAbortsParse(t *testing.T) {
	required, _ := NewField(Field{Name: "a", Offset: 5, Type: datatype.UInt8{}, IsRequired: true})
	s, _ := NewBlockSchema(1, "x", "", 1, []Item{required}, 1, "1.0.0", false, "")

	if _, err := s.Parse([]byte{0x00}, true, 1); err == nil {
		t.Fatal("expected parse to abort on missing required field")
	}
}

func TestBlockSchemaStrictModeWarnsOnTrailingBytes(t *testing.T) {
	f, _ := NewField(Field{Name: "a", Offset: 0, Type: datatype.UInt8{}})
	s, _ := NewBlockSchema(1, "x", "", 1, []Item{f}, 1, "1.0.0", true, "")

	result := s.Validate([]byte{0x00, 0x01, 0x02})
	if !result.Valid {
		t.Fatalf("trailing bytes must warn, not invalidate: %+v", result)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("expected one warning, got %+v", result.Warnings)
	}
}

func TestBlockSchemaMinProtocolVersionSkipsField(t *testing.T) {
	gated := 2
	f, _ := NewField(Field{Name: "new_field", Offset: 0, Type: datatype.UInt8{}, MinProtoVersion: &gated})
	s, _ := NewBlockSchema(1, "x", "", 0, []Item{f}, 1, "1.0.0", false, "")

	record, err := s.Parse([]byte{0x01}, true, 1)
	if err != nil {
		t.Fatal(err)
	}
	if record.Values["new_field"] != nil {
		t.Fatalf("expected field gated out by protocol version to be nil, got %v", record.Values["new_field"])
	}
}

func TestBlockSchemaValidateFieldGroupRequiredMemberOutOfRangeIsError(t *testing.T) {
	missing, _ := NewField(Field{Name: "v", Offset: 5, Type: datatype.UInt8{}, IsRequired: true})
	g, err := NewFieldGroup("phase", true, nil, "", []*Field{missing})
	if err != nil {
		t.Fatal(err)
	}
	s, _ := NewBlockSchema(1, "x", "", 1, []Item{g}, 1, "1.0.0", false, "")

	result := s.Validate([]byte{0x00})
	if result.Valid {
		t.Fatal("expected invalid: required group member out of range")
	}
	if len(result.Errors) == 0 {
		t.Fatal("expected an error for the required out-of-range member")
	}
}

func TestBlockSchemaValidateFieldGroupOptionalMemberOutOfRangeIsMissingNotError(t *testing.T) {
	inRange, _ := NewField(Field{Name: "a", Offset: 0, Type: datatype.UInt8{}, IsRequired: true})
	outOfRange, _ := NewField(Field{Name: "b", Offset: 5, Type: datatype.UInt8{}, IsRequired: false})
	g, err := NewFieldGroup("phase", true, nil, "", []*Field{inRange, outOfRange})
	if err != nil {
		t.Fatal(err)
	}
	s, _ := NewBlockSchema(1, "x", "", 1, []Item{g}, 1, "1.0.0", false, "")

	result := s.Validate([]byte{0x7B})
	if !result.Valid {
		t.Fatalf("expected valid: the one out-of-range member is optional, got %+v", result)
	}
	found := false
	for _, m := range result.MissingFields {
		if m == "b" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %q in missing_fields: %+v", "b", result.MissingFields)
	}
}

func TestBlockSchemaParseFieldGroupOptionalMemberOutOfRangeIsNullNotAbort(t *testing.T) {
	inRange, _ := NewField(Field{Name: "a", Offset: 0, Type: datatype.UInt8{}, IsRequired: true})
	outOfRange, _ := NewField(Field{Name: "b", Offset: 5, Type: datatype.UInt8{}, IsRequired: false})
	g, err := NewFieldGroup("phase", true, nil, "", []*Field{inRange, outOfRange})
	if err != nil {
		t.Fatal(err)
	}
	s, _ := NewBlockSchema(1, "x", "", 1, []Item{g}, 1, "1.0.0", false, "")

	record, err := s.Parse([]byte{0x7B}, true, 1)
	if err != nil {
		t.Fatalf("expected parse to succeed: the out-of-range member is optional: %v", err)
	}
	phase, ok := record.Values["phase"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected phase group values, got %v", record.Values["phase"])
	}
	if phase["a"] == nil {
		t.Fatal("expected member a to be parsed")
	}
	if phase["b"] != nil {
		t.Fatalf("expected member b to be nil (out of range), got %v", phase["b"])
	}
}

func TestBlockSchemaRejectsDuplicateItemNames(t *testing.T) {
	a, _ := NewField(Field{Name: "dup", Offset: 0, Type: datatype.UInt8{}})
	b, _ := NewField(Field{Name: "dup", Offset: 1, Type: datatype.UInt8{}})
	if _, err := NewBlockSchema(1, "x", "", 0, []Item{a, b}, 1, "1.0.0", false, ""); err == nil {
		t.Fatal("expected duplicate item name error")
	}
}
