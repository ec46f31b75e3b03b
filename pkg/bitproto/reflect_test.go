package bitproto

import (
	"errors"
	"math"
	"testing"
)

type gpsFix struct {
	Valid    uint8   `bitproto:"bits=1"`
	SatCount uint8   `bitproto:"bits=5"`
	Altitude int32   `bitproto:"bits=13,signed"`
	Heading  float32 `bitproto:"bits=32,float"`
	internal int32   // unexported, must be skipped
	Ignored  int64   `bitproto:"-"`
}

func TestMarshalUnmarshalStructRoundTrip(t *testing.T) {
	in := gpsFix{Valid: 1, SatCount: 17, Altitude: -1234, Heading: 287.5}
	buf, err := MarshalStruct(&in)
	if err != nil {
		t.Fatalf("MarshalStruct: %v", err)
	}

	var out gpsFix
	if err := UnmarshalStruct(buf, &out); err != nil {
		t.Fatalf("UnmarshalStruct: %v", err)
	}

	if out.Valid != in.Valid || out.SatCount != in.SatCount || out.Altitude != in.Altitude || out.Heading != in.Heading {
		t.Errorf("round trip mismatch: got %+v, want %+v", out, in)
	}
	if out.Ignored != 0 {
		t.Errorf("skipped field should stay zero, got %d", out.Ignored)
	}
}

func TestMarshalStructRequiresPointer(t *testing.T) {
	if _, err := MarshalStruct(gpsFix{}); !errors.Is(err, ErrNotPointer) {
		t.Errorf("MarshalStruct(non-pointer) = %v, want ErrNotPointer", err)
	}

	var nilPtr *gpsFix
	if _, err := MarshalStruct(nilPtr); !errors.Is(err, ErrNilPointer) {
		t.Errorf("MarshalStruct(nil) = %v, want ErrNilPointer", err)
	}
}

func TestUnmarshalStructShortBuffer(t *testing.T) {
	var out gpsFix
	err := UnmarshalStruct([]byte{0x00}, &out)
	if !errors.Is(err, ErrShortBuffer) {
		t.Errorf("UnmarshalStruct(short) = %v, want ErrShortBuffer", err)
	}
}

type untagged struct {
	A uint16
	B int8
}

func TestMarshalStructNativeWidths(t *testing.T) {
	in := untagged{A: 0xBEEF, B: -12}
	buf, err := MarshalStruct(&in)
	if err != nil {
		t.Fatalf("MarshalStruct: %v", err)
	}
	if len(buf) != 3 {
		t.Fatalf("buffer length = %d, want 3 (16+8 bits)", len(buf))
	}

	var out untagged
	if err := UnmarshalStruct(buf, &out); err != nil {
		t.Fatalf("UnmarshalStruct: %v", err)
	}
	if out != in {
		t.Errorf("round trip mismatch: got %+v, want %+v", out, in)
	}
}

type missingTag struct {
	S string
}

func TestMarshalStructUnsupportedType(t *testing.T) {
	if _, err := MarshalStruct(&missingTag{S: "x"}); !errors.Is(err, ErrMissingTag) {
		t.Errorf("MarshalStruct(missingTag) = %v, want ErrMissingTag", err)
	}
}

func TestFieldInitsOf(t *testing.T) {
	fields, err := FieldInitsOf(gpsFix{})
	if err != nil {
		t.Fatalf("FieldInitsOf: %v", err)
	}
	if len(fields) != 4 {
		t.Fatalf("len(fields) = %d, want 4", len(fields))
	}
	if fields[2].Name != "Altitude" || fields[2].BitCount != 13 || fields[2].VisType != VisSignedInteger {
		t.Errorf("fields[2] = %+v, want Altitude/13/signed", fields[2])
	}
}

type doubleField struct {
	D float64 `bitproto:"bits=64,float"`
}

func TestMarshalStructFloat64NaNRoundTrip(t *testing.T) {
	in := doubleField{D: math.NaN()}
	buf, err := MarshalStruct(&in)
	if err != nil {
		t.Fatalf("MarshalStruct: %v", err)
	}
	var out doubleField
	if err := UnmarshalStruct(buf, &out); err != nil {
		t.Fatalf("UnmarshalStruct: %v", err)
	}
	if math.Float64bits(out.D) != math.Float64bits(in.D) {
		t.Errorf("NaN payload not preserved: got %x, want %x", math.Float64bits(out.D), math.Float64bits(in.D))
	}
}
