package bitproto

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// tagSpec is a parsed `bitproto:"..."` struct tag.
type tagSpec struct {
	name     string
	bits     uint32
	vis      VisType
	explicit bool // false for "-" or an absent tag
	skip     bool
}

// parseTag parses a struct tag value of the form
// "name,bits=13,signed", "bits=8,unsigned", "bits=32,float", or "-" to
// skip the field entirely. name defaults to the struct field's own name
// when omitted. When bits= is given, integer fields are unsigned unless
// "signed" is present; when it is omitted, both the width and the
// signedness come from the Go field type (see nativeBits).
func parseTag(fieldName, raw string) (tagSpec, error) {
	if raw == "-" {
		return tagSpec{skip: true}, nil
	}

	spec := tagSpec{name: fieldName, vis: VisUnsignedInteger}
	if raw == "" {
		return spec, nil
	}

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		switch {
		case part == "signed":
			spec.vis = VisSignedInteger
		case part == "unsigned":
			spec.vis = VisUnsignedInteger
		case part == "float":
			spec.vis = VisFloatingPoint
		case strings.HasPrefix(part, "bits="):
			n, err := strconv.ParseUint(part[len("bits="):], 10, 32)
			if err != nil {
				return tagSpec{}, fmt.Errorf("bitproto: field %s: invalid bits in tag %q: %w", fieldName, raw, err)
			}
			spec.bits = uint32(n)
			spec.explicit = true
		case strings.HasPrefix(part, "name="):
			spec.name = part[len("name="):]
		default:
			if spec.name == fieldName && !spec.explicit {
				// First bare token is a positional name, e.g. `bitproto:"altitude,bits=13"`.
				spec.name = part
				continue
			}
			return tagSpec{}, fmt.Errorf("bitproto: field %s: unrecognized tag option %q", fieldName, part)
		}
	}
	return spec, nil
}

// nativeBits returns the default bit width and VisType for a struct
// field's Go kind, used when a tag omits "bits=" entirely.
func nativeBits(k reflect.Kind) (uint32, VisType, bool) {
	switch k {
	case reflect.Int8:
		return 8, VisSignedInteger, true
	case reflect.Int16:
		return 16, VisSignedInteger, true
	case reflect.Int32:
		return 32, VisSignedInteger, true
	case reflect.Int64, reflect.Int:
		return 64, VisSignedInteger, true
	case reflect.Uint8:
		return 8, VisUnsignedInteger, true
	case reflect.Uint16:
		return 16, VisUnsignedInteger, true
	case reflect.Uint32:
		return 32, VisUnsignedInteger, true
	case reflect.Uint64, reflect.Uint:
		return 64, VisUnsignedInteger, true
	case reflect.Float32:
		return 32, VisFloatingPoint, true
	case reflect.Float64:
		return 64, VisFloatingPoint, true
	default:
		return 0, 0, false
	}
}

// structField ties one exported struct field to its derived FieldInit.
type structField struct {
	index int
	init  FieldInit
}

// structLayout is the cached, derived shape of a Go struct type: the
// FieldInit slice to hand to NewWithFields, and the struct field index
// each one came from, in declaration order.
type structLayout struct {
	fields []structField
}

var structLayoutCache sync.Map // reflect.Type -> *structLayout

// layoutOf derives (or retrieves from cache) the structLayout for t,
// walking its exported fields in declaration order and parsing each
// one's bitproto tag. Every included field becomes one flat FieldInit;
// nested structs, slices, maps, and interfaces are not supported — a
// Protocol's layout is a flat list of bit ranges, not a tree.
func layoutOf(t reflect.Type) (*structLayout, error) {
	if cached, ok := structLayoutCache.Load(t); ok {
		return cached.(*structLayout), nil
	}

	out := &structLayout{}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" {
			continue // unexported
		}

		raw, has := sf.Tag.Lookup("bitproto")
		spec, err := parseTag(sf.Name, raw)
		if err != nil {
			return nil, err
		}
		if spec.skip {
			continue
		}
		if !has && !spec.explicit {
			nbits, vis, ok := nativeBits(sf.Type.Kind())
			if !ok {
				return nil, NewFieldError(t.Name(), sf.Name, "no bitproto tag and no native width", ErrMissingTag)
			}
			spec.bits, spec.vis = nbits, vis
		} else if !spec.explicit {
			nbits, vis, ok := nativeBits(sf.Type.Kind())
			if !ok {
				return nil, NewFieldError(t.Name(), sf.Name, "tag omits bits= and field has no native width", ErrUnsupportedFieldType)
			}
			spec.bits, spec.vis = nbits, vis
		}
		if spec.vis == VisFloatingPoint && sf.Type.Kind() != reflect.Float32 && sf.Type.Kind() != reflect.Float64 {
			return nil, NewFieldError(t.Name(), sf.Name, "float vis requires a float32 or float64 field", ErrUnsupportedFieldType)
		}

		out.fields = append(out.fields, structField{
			index: i,
			init:  FieldInit{Name: spec.name, BitCount: spec.bits, VisType: spec.vis},
		})
	}

	actual, _ := structLayoutCache.LoadOrStore(t, out)
	return actual.(*structLayout), nil
}

// fieldInits returns the flat FieldInit slice for t, suitable for
// NewWithFields or Registry.Register. FieldInitsOf exposes it so schema
// tooling and code generators can derive a wire layout from a Go struct
// without duplicating the tag-parsing rules above.
func fieldInits(t reflect.Type) ([]FieldInit, error) {
	layout, err := layoutOf(t)
	if err != nil {
		return nil, err
	}
	out := make([]FieldInit, len(layout.fields))
	for i, f := range layout.fields {
		out[i] = f.init
	}
	return out, nil
}

// FieldInitsOf derives the FieldInit layout a struct value's type would
// produce under MarshalStruct/UnmarshalStruct, without encoding
// anything. v may be a struct or a pointer to one.
func FieldInitsOf(v any) ([]FieldInit, error) {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, ErrNotPointer
	}
	return fieldInits(t)
}

func structValue(v any) (reflect.Value, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr {
		return reflect.Value{}, ErrNotPointer
	}
	if rv.IsNil() {
		return reflect.Value{}, ErrNilPointer
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return reflect.Value{}, ErrNotPointer
	}
	return rv, nil
}

// MarshalStruct builds a fresh Protocol from v's bitproto-tagged fields
// and writes each field's current value into it, returning the packed
// buffer. v must be a pointer to a struct.
func MarshalStruct(v any) ([]byte, error) {
	rv, err := structValue(v)
	if err != nil {
		return nil, err
	}
	t := rv.Type()

	layout, err := layoutOf(t)
	if err != nil {
		return nil, err
	}
	inits := make([]FieldInit, len(layout.fields))
	for i, f := range layout.fields {
		inits[i] = f.init
	}

	p, rc := NewWithFields(inits)
	if !rc.Ok() {
		return nil, NewFieldError(t.Name(), "", "failed to build layout: "+rc.String(), nil)
	}

	for _, f := range layout.fields {
		fv := rv.Field(f.index)
		if err := writeReflectField(p, t.Name(), f, fv); err != nil {
			return nil, err
		}
	}

	buf := p.WorkingBuffer()
	out := make([]byte, len(buf))
	copy(out, buf)
	return out, nil
}

// UnmarshalStruct decodes buf into v according to v's bitproto-tagged
// fields, the inverse of MarshalStruct. v must be a pointer to a struct.
func UnmarshalStruct(buf []byte, v any) error {
	rv, err := structValue(v)
	if err != nil {
		return err
	}
	t := rv.Type()

	layout, err := layoutOf(t)
	if err != nil {
		return err
	}
	inits := make([]FieldInit, len(layout.fields))
	for i, f := range layout.fields {
		inits[i] = f.init
	}

	p, rc := NewWithFields(inits)
	if !rc.Ok() {
		return NewFieldError(t.Name(), "", "failed to build layout: "+rc.String(), nil)
	}
	if need := p.BufferLength(); len(buf) < need {
		return NewFieldError(t.Name(), "", fmt.Sprintf("buffer has %d bytes, need %d", len(buf), need), ErrShortBuffer)
	}
	p.SetInternalBufferValues(buf)

	for _, f := range layout.fields {
		fv := rv.Field(f.index)
		if err := readReflectField(p, t.Name(), f, fv); err != nil {
			return err
		}
	}
	return nil
}

func writeReflectField(p *Protocol, structName string, f structField, fv reflect.Value) error {
	name := f.init.Name
	var rc ResultCode
	switch f.init.VisType {
	case VisFloatingPoint:
		if f.init.BitCount == 32 {
			rc = Write(p, name, float32(fv.Float()))
		} else {
			rc = Write(p, name, fv.Float())
		}
	case VisSignedInteger:
		rc = Write(p, name, fv.Int())
	case VisUnsignedInteger:
		rc = Write(p, name, fv.Uint())
	default:
		return NewFieldError(structName, fv.Type().Name(), "unsupported vis type", ErrUnsupportedFieldType)
	}
	if !rc.Ok() {
		return NewFieldError(structName, name, "write failed: "+rc.String(), nil)
	}
	return nil
}

func readReflectField(p *Protocol, structName string, f structField, fv reflect.Value) error {
	name := f.init.Name
	switch f.init.VisType {
	case VisFloatingPoint:
		if f.init.BitCount == 32 {
			v, rc := Read[float32](p, name)
			if !rc.Ok() {
				return NewFieldError(structName, name, "read failed: "+rc.String(), nil)
			}
			fv.SetFloat(float64(v))
		} else {
			v, rc := Read[float64](p, name)
			if !rc.Ok() {
				return NewFieldError(structName, name, "read failed: "+rc.String(), nil)
			}
			fv.SetFloat(v)
		}
	case VisSignedInteger:
		v, rc := Read[int64](p, name)
		if !rc.Ok() {
			return NewFieldError(structName, name, "read failed: "+rc.String(), nil)
		}
		fv.SetInt(v)
	case VisUnsignedInteger:
		v, rc := Read[uint64](p, name)
		if !rc.Ok() {
			return NewFieldError(structName, name, "read failed: "+rc.String(), nil)
		}
		fv.SetUint(v)
	default:
		return NewFieldError(structName, fv.Type().Name(), "unsupported vis type", ErrUnsupportedFieldType)
	}
	return nil
}
