package bitproto

import "unsafe"

// Protocol describes a fixed layout of named, bit-granular fields and owns
// (or borrows) the buffer those fields are read from and written to. A
// Protocol is not safe for concurrent use: callers that share one across
// goroutines must provide their own synchronization, matching the single-
// threaded design of the reference implementation this package is modeled
// on.
type Protocol struct {
	isLittleEndian bool
	source         BufferSource

	internal []byte
	external []byte

	names []string
	meta  map[string]FieldMetadata
}

// New returns an empty Protocol with no fields, big-endian wire order, and
// an internal buffer source.
func New() *Protocol {
	return &Protocol{
		meta: make(map[string]FieldMetadata),
	}
}

// NewWithFields returns a Protocol whose layout is pre-populated by
// appending each FieldInit in order, as if AppendProtocol(fields) had been
// called against an empty Protocol. It panics only if fields itself is
// malformed in a way AppendProtocol cannot recover from (it cannot: errors
// are reported through the returned ResultCode instead).
func NewWithFields(fields []FieldInit) (*Protocol, ResultCode) {
	p := New()
	if rc := p.AppendProtocol(fields); !rc.Ok() {
		return p, rc
	}
	return p, ResultOk
}

// IsLittleEndian reports the wire endianness multi-byte scalar fields are
// currently written and read with.
func (p *Protocol) IsLittleEndian() bool {
	return p.isLittleEndian
}

// SetIsLittleEndian sets the wire endianness used for multi-byte scalar
// fields. It has no effect on single-byte fields or on how bits are packed
// within a byte.
func (p *Protocol) SetIsLittleEndian(v bool) {
	p.isLittleEndian = v
}

// HostLittleEndian reports whether the running process's native integer
// representation is little-endian. It is derived the same way the
// reference implementation derives it: by writing a known 16-bit pattern
// and inspecting which byte the low-order value landed in, rather than by
// consulting a build tag or platform macro.
func HostLittleEndian() bool {
	var probe uint16 = 0x0102
	b := (*[2]byte)(unsafe.Pointer(&probe))
	return b[0] == 0x02
}

// fieldsMeta returns the current layout's FieldMetadata values in
// insertion order.
func (p *Protocol) fieldsMeta() []FieldMetadata {
	out := make([]FieldMetadata, len(p.names))
	for i, name := range p.names {
		out[i] = p.meta[name]
	}
	return out
}

// FieldsList returns the names of every field currently in the layout, in
// insertion order.
func (p *Protocol) FieldsList() []string {
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// FieldMetadataOf returns the derived metadata for a named field.
func (p *Protocol) FieldMetadataOf(name string) (FieldMetadata, ResultCode) {
	m, ok := p.meta[name]
	if !ok {
		return FieldMetadata{}, ResultFieldNotFound
	}
	return m, ResultOk
}

// FieldCount returns the number of fields currently in the layout.
func (p *Protocol) FieldCount() int {
	return len(p.names)
}

// BufferLength returns the length in bytes of the currently active
// working buffer.
func (p *Protocol) BufferLength() int {
	return len(p.WorkingBuffer())
}
