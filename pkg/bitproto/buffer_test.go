package bitproto

import "testing"

// S4 — External buffer sharing.
func TestExternalBufferSharing(t *testing.T) {
	b := make([]byte, 32)
	for i := range b {
		b[i] = 0x01
	}

	p := New()
	mustAppend(t, p, FieldInit{Name: "f1", BitCount: 8, VisType: VisUnsignedInteger}, false)
	mustAppend(t, p, FieldInit{Name: "f2", BitCount: 8, VisType: VisUnsignedInteger}, false)
	mustAppend(t, p, FieldInit{Name: "f3", BitCount: 3, VisType: VisUnsignedInteger}, false)

	p.SetExternalBuffer(b)
	p.SetBufferSource(BufferExternal)

	v, rc := Read[uint8](p, "f1")
	if !rc.Ok() || v != 1 {
		t.Fatalf("f1 = %d,%v, want 1,ok", v, rc)
	}

	b[1] = 0xFF
	v2, rc := Read[uint8](p, "f2")
	if !rc.Ok() || v2 != 0xFF {
		t.Fatalf("f2 after external mutation = %#x,%v, want 0xff,ok", v2, rc)
	}

	if rc := p.AppendField(FieldInit{Name: "f4", BitCount: 5, VisType: VisUnsignedInteger}, true); !rc.Ok() {
		t.Fatalf("AppendField(f4, preserve) = %v", rc)
	}
	v3, rc := Read[uint8](p, "f2")
	if !rc.Ok() || v3 != 0xFF {
		t.Errorf("f2 after preserving append = %#x,%v, want 0xff,ok", v3, rc)
	}
}

func TestBufferSourceSwitch(t *testing.T) {
	p := New()
	mustAppend(t, p, FieldInit{Name: "a", BitCount: 8, VisType: VisUnsignedInteger}, false)

	_ = Write(p, "a", uint8(0x42))
	if p.BufferSource() != BufferInternal {
		t.Fatalf("default BufferSource() = %v, want Internal", p.BufferSource())
	}

	ext := []byte{0x99}
	p.SetExternalBuffer(ext)
	p.SetBufferSource(BufferExternal)

	v, rc := Read[uint8](p, "a")
	if !rc.Ok() || v != 0x99 {
		t.Errorf("a via external = %#x,%v, want 0x99,ok", v, rc)
	}

	p.SetBufferSource(BufferInternal)
	v, rc = Read[uint8](p, "a")
	if !rc.Ok() || v != 0x42 {
		t.Errorf("a via internal after switch back = %#x,%v, want 0x42,ok", v, rc)
	}
}

func TestClearWorkingBuffer(t *testing.T) {
	p := New()
	mustAppend(t, p, FieldInit{Name: "a", BitCount: 16, VisType: VisUnsignedInteger}, false)
	_ = Write(p, "a", uint16(0xBEEF))

	p.ClearWorkingBuffer()
	v, rc := Read[uint16](p, "a")
	if !rc.Ok() || v != 0 {
		t.Errorf("a after ClearWorkingBuffer = %#x,%v, want 0,ok", v, rc)
	}
}

// S4 — clearing a working buffer must not touch caller bytes beyond the
// layout's own bit range.
func TestClearWorkingBufferExternalLeavesTailUntouched(t *testing.T) {
	b := make([]byte, 32)
	for i := range b {
		b[i] = 0xFF
	}

	p := New()
	mustAppend(t, p, FieldInit{Name: "a", BitCount: 16, VisType: VisUnsignedInteger}, false)
	p.SetExternalBuffer(b)
	p.SetBufferSource(BufferExternal)

	p.ClearWorkingBuffer()

	if b[0] != 0 || b[1] != 0 {
		t.Errorf("layout bytes not cleared: b[0]=%#x b[1]=%#x, want 0,0", b[0], b[1])
	}
	for i := 2; i < len(b); i++ {
		if b[i] != 0xFF {
			t.Errorf("b[%d] = %#x, want untouched 0xff", i, b[i])
		}
	}
}

func TestHostLittleEndianIsConsistentWithRuntime(t *testing.T) {
	// Exercised against the runtime's actual layout via unsafe.Pointer;
	// this just confirms the probe is deterministic and returns a bool
	// without panicking, across repeated calls.
	first := HostLittleEndian()
	for i := 0; i < 8; i++ {
		if HostLittleEndian() != first {
			t.Fatal("HostLittleEndian() is not deterministic within one process")
		}
	}
}

func TestBufferLengthMatchesCeilDiv8(t *testing.T) {
	p := New()
	mustAppend(t, p, FieldInit{Name: "a", BitCount: 1, VisType: VisUnsignedInteger}, false)
	if got := p.BufferLength(); got != 1 {
		t.Errorf("BufferLength() with 1 bit = %d, want 1", got)
	}
	mustAppend(t, p, FieldInit{Name: "b", BitCount: 7, VisType: VisUnsignedInteger}, false)
	if got := p.BufferLength(); got != 1 {
		t.Errorf("BufferLength() with 8 bits = %d, want 1", got)
	}
	mustAppend(t, p, FieldInit{Name: "c", BitCount: 1, VisType: VisUnsignedInteger}, false)
	if got := p.BufferLength(); got != 2 {
		t.Errorf("BufferLength() with 9 bits = %d, want 2", got)
	}
}
