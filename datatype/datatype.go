// Package datatype implements the closed set of primitive wire codecs
// used by block schemas: fixed-size, big-endian, immutable after
// construction. See spec §3, §4.1.
package datatype

import (
	"encoding/binary"
	"fmt"
)

// Type is the closed variant over primitive codecs. The set of
// implementations is fixed at compile time (UInt8/16/32, Int8/16/32,
// String, Bitmap, Enum) — there is no open registration mechanism, by
// design (spec §9: "avoid an open trait-object hierarchy").
type Type interface {
	// Size returns the codec's fixed size in bytes.
	Size() int
	// Parse reads a value out of data at offset. It fails with a
	// bounds error when offset+Size() exceeds len(data).
	Parse(data []byte, offset int) (interface{}, error)
	// Encode renders value back to its wire bytes.
	Encode(value interface{}) ([]byte, error)
	// String names the type, used for registry conflict fingerprints.
	String() string
}

func boundsCheck(typeName string, data []byte, offset, size int) error {
	if offset < 0 || offset+size > len(data) {
		return fmt.Errorf("%s at offset %d exceeds data length %d", typeName, offset, len(data))
	}
	return nil
}

// UInt8 is an 8-bit unsigned integer.
type UInt8 struct{}

func (UInt8) Size() int { return 1 }
func (UInt8) String() string { return "UInt8" }

func (t UInt8) Parse(data []byte, offset int) (interface{}, error) {
	if err := boundsCheck("UInt8", data, offset, 1); err != nil {
		return nil, err
	}
	return uint64(data[offset]), nil
}

func (UInt8) Encode(value interface{}) ([]byte, error) {
	v, err := asUint(value, 0, 0xFF, "UInt8")
	if err != nil {
		return nil, err
	}
	return []byte{byte(v)}, nil
}

// Int8 is an 8-bit signed integer (two's complement).
type Int8 struct{}

func (Int8) Size() int { return 1 }
func (Int8) String() string { return "Int8" }

func (t Int8) Parse(data []byte, offset int) (interface{}, error) {
	if err := boundsCheck("Int8", data, offset, 1); err != nil {
		return nil, err
	}
	return int64(int8(data[offset])), nil
}

func (Int8) Encode(value interface{}) ([]byte, error) {
	v, err := asInt(value, -128, 127, "Int8")
	if err != nil {
		return nil, err
	}
	return []byte{byte(int8(v))}, nil
}

// UInt16 is a 16-bit unsigned integer, big-endian.
type UInt16 struct{}

func (UInt16) Size() int { return 2 }
func (UInt16) String() string { return "UInt16" }

func (t UInt16) Parse(data []byte, offset int) (interface{}, error) {
	if err := boundsCheck("UInt16", data, offset, 2); err != nil {
		return nil, err
	}
	return uint64(binary.BigEndian.Uint16(data[offset : offset+2])), nil
}

func (UInt16) Encode(value interface{}) ([]byte, error) {
	v, err := asUint(value, 0, 0xFFFF, "UInt16")
	if err != nil {
		return nil, err
	}
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, uint16(v))
	return b, nil
}

// Int16 is a 16-bit signed integer, big-endian, two's complement.
type Int16 struct{}

func (Int16) Size() int { return 2 }
func (Int16) String() string { return "Int16" }

func (t Int16) Parse(data []byte, offset int) (interface{}, error) {
	if err := boundsCheck("Int16", data, offset, 2); err != nil {
		return nil, err
	}
	return int64(int16(binary.BigEndian.Uint16(data[offset : offset+2]))), nil
}

func (Int16) Encode(value interface{}) ([]byte, error) {
	v, err := asInt(value, -32768, 32767, "Int16")
	if err != nil {
		return nil, err
	}
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, uint16(int16(v)))
	return b, nil
}

// UInt32 is a 32-bit unsigned integer, big-endian.
type UInt32 struct{}

func (UInt32) Size() int { return 4 }
func (UInt32) String() string { return "UInt32" }

func (t UInt32) Parse(data []byte, offset int) (interface{}, error) {
	if err := boundsCheck("UInt32", data, offset, 4); err != nil {
		return nil, err
	}
	return uint64(binary.BigEndian.Uint32(data[offset : offset+4])), nil
}

func (UInt32) Encode(value interface{}) ([]byte, error) {
	v, err := asUint(value, 0, 0xFFFFFFFF, "UInt32")
	if err != nil {
		return nil, err
	}
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(v))
	return b, nil
}

// Int32 is a 32-bit signed integer, big-endian, two's complement.
type Int32 struct{}

func (Int32) Size() int { return 4 }
func (Int32) String() string { return "Int32" }

func (t Int32) Parse(data []byte, offset int) (interface{}, error) {
	if err := boundsCheck("Int32", data, offset, 4); err != nil {
		return nil, err
	}
	return int64(int32(binary.BigEndian.Uint32(data[offset : offset+4]))), nil
}

func (Int32) Encode(value interface{}) ([]byte, error) {
	v, err := asInt(value, -2147483648, 2147483647, "Int32")
	if err != nil {
		return nil, err
	}
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(int32(v)))
	return b, nil
}

// String is a fixed-length ASCII field, null-terminated: decoding
// stops at the first 0x00 byte, and encoding zero-pads to Length.
type String struct {
	Length int
}

func (s String) Size() int { return s.Length }
func (s String) String() string { return fmt.Sprintf("String(length=%d)", s.Length) }

func (s String) Parse(data []byte, offset int) (interface{}, error) {
	if err := boundsCheck("String", data, offset, s.Length); err != nil {
		return nil, err
	}
	raw := data[offset : offset+s.Length]
	n := 0
	for n < len(raw) && raw[n] != 0x00 {
		if raw[n] >= 0x80 {
			return nil, fmt.Errorf("String at offset %d contains non-ASCII byte 0x%02X", offset, raw[n])
		}
		n++
	}
	return string(raw[:n]), nil
}

func (s String) Encode(value interface{}) ([]byte, error) {
	str, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("String.Encode: expected string, got %T", value)
	}
	if len(str) > s.Length {
		return nil, fmt.Errorf("String.Encode: value length %d exceeds field length %d", len(str), s.Length)
	}
	b := make([]byte, s.Length)
	copy(b, str)
	return b, nil
}

// Bitmap is an unsigned integer of declared width in {8,16,32,64}.
type Bitmap struct {
	Bits int
}

func (b Bitmap) Size() int { return b.Bits / 8 }
func (b Bitmap) String() string { return fmt.Sprintf("Bitmap(bits=%d)", b.Bits) }

func (b Bitmap) Parse(data []byte, offset int) (interface{}, error) {
	size := b.Size()
	if err := boundsCheck("Bitmap", data, offset, size); err != nil {
		return nil, err
	}
	switch b.Bits {
	case 8:
		return uint64(data[offset]), nil
	case 16:
		return uint64(binary.BigEndian.Uint16(data[offset : offset+2])), nil
	case 32:
		return uint64(binary.BigEndian.Uint32(data[offset : offset+4])), nil
	case 64:
		return binary.BigEndian.Uint64(data[offset : offset+8]), nil
	default:
		return nil, fmt.Errorf("Bitmap: unsupported width %d", b.Bits)
	}
}

func (b Bitmap) Encode(value interface{}) ([]byte, error) {
	v, err := asUint(value, 0, ^uint64(0)>>(64-b.Bits), fmt.Sprintf("Bitmap(%d)", b.Bits))
	if err != nil {
		return nil, err
	}
	out := make([]byte, b.Size())
	switch b.Bits {
	case 8:
		out[0] = byte(v)
	case 16:
		binary.BigEndian.PutUint16(out, uint16(v))
	case 32:
		binary.BigEndian.PutUint32(out, uint32(v))
	case 64:
		binary.BigEndian.PutUint64(out, v)
	default:
		return nil, fmt.Errorf("Bitmap: unsupported width %d", b.Bits)
	}
	return out, nil
}

// Enum maps an integer (decoded via Base) to a symbolic string. The
// mapping must be injective in both directions to round-trip; unknown
// integer values decode to "UNKNOWN_<n>".
type Enum struct {
	Base    Type // must be an immutable primitive integer codec
	Mapping map[int64]string
}

// NewEnum constructs an Enum, validating that Base is one of the
// built-in integer codecs (never another Enum) and that mapping is
// bijective.
func NewEnum(base Type, mapping map[int64]string) (Enum, error) {
	switch base.(type) {
	case UInt8, Int8, UInt16, Int16, UInt32, Int32, Bitmap:
	default:
		return Enum{}, fmt.Errorf("Enum: base type %s is not an immutable primitive integer codec", base)
	}
	seen := make(map[string]int64, len(mapping))
	for k, v := range mapping {
		if prior, ok := seen[v]; ok {
			return Enum{}, fmt.Errorf("Enum: mapping not injective: %d and %d both map to %q", prior, k, v)
		}
		seen[v] = k
	}
	return Enum{Base: base, Mapping: mapping}, nil
}

func (e Enum) Size() int { return e.Base.Size() }

func (e Enum) String() string {
	return fmt.Sprintf("Enum(%s)", e.Base)
}

func (e Enum) Parse(data []byte, offset int) (interface{}, error) {
	raw, err := e.Base.Parse(data, offset)
	if err != nil {
		return nil, err
	}
	n := toInt64(raw)
	if sym, ok := e.Mapping[n]; ok {
		return sym, nil
	}
	return fmt.Sprintf("UNKNOWN_%d", n), nil
}

func (e Enum) Encode(value interface{}) ([]byte, error) {
	sym, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("Enum.Encode: expected string, got %T", value)
	}
	for k, v := range e.Mapping {
		if v == sym {
			return e.Base.Encode(uint64(k))
		}
	}
	return nil, fmt.Errorf("Enum.Encode: unmapped symbol %q", sym)
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case uint64:
		return int64(n)
	case int64:
		return n
	default:
		return 0
	}
}

func asUint(value interface{}, min, max uint64, typeName string) (uint64, error) {
	var v int64
	switch n := value.(type) {
	case uint64:
		if n > max {
			return 0, fmt.Errorf("%s value %d out of range [%d, %d]", typeName, n, min, max)
		}
		return n, nil
	case int64:
		v = n
	case int:
		v = int64(n)
	default:
		return 0, fmt.Errorf("%s.Encode: unsupported value type %T", typeName, value)
	}
	if v < 0 || uint64(v) > max {
		return 0, fmt.Errorf("%s value %d out of range [%d, %d]", typeName, v, min, max)
	}
	return uint64(v), nil
}

func asInt(value interface{}, min, max int64, typeName string) (int64, error) {
	var v int64
	switch n := value.(type) {
	case int64:
		v = n
	case int:
		v = int64(n)
	case uint64:
		v = int64(n)
	default:
		return 0, fmt.Errorf("%s.Encode: unsupported value type %T", typeName, value)
	}
	if v < min || v > max {
		return 0, fmt.Errorf("%s value %d out of range [%d, %d]", typeName, v, min, max)
	}
	return v, nil
}
