package bitproto

import "testing"

func TestNewIsEmpty(t *testing.T) {
	p := New()
	if p.FieldCount() != 0 {
		t.Errorf("FieldCount() = %d, want 0", p.FieldCount())
	}
	if p.BufferLength() != 0 {
		t.Errorf("BufferLength() = %d, want 0", p.BufferLength())
	}
	if p.IsLittleEndian() {
		t.Error("IsLittleEndian() should default to false")
	}
	if p.BufferSource() != BufferInternal {
		t.Errorf("BufferSource() = %v, want Internal", p.BufferSource())
	}
}

func TestNewWithFieldsSuccess(t *testing.T) {
	p, rc := NewWithFields([]FieldInit{
		{Name: "a", BitCount: 8, VisType: VisUnsignedInteger},
		{Name: "b", BitCount: 16, VisType: VisSignedInteger},
	})
	if !rc.Ok() {
		t.Fatalf("NewWithFields = %v", rc)
	}
	if p.FieldCount() != 2 {
		t.Errorf("FieldCount() = %d, want 2", p.FieldCount())
	}
	if p.BufferLength() != 3 {
		t.Errorf("BufferLength() = %d, want 3", p.BufferLength())
	}
}

func TestNewWithFieldsFailureLeavesEmptyLayout(t *testing.T) {
	p, rc := NewWithFields([]FieldInit{
		{Name: "a", BitCount: 8, VisType: VisUnsignedInteger},
		{Name: "a", BitCount: 8, VisType: VisUnsignedInteger}, // duplicate
	})
	if rc.Ok() {
		t.Fatal("NewWithFields with duplicate names should fail")
	}
	if p.FieldCount() != 0 {
		t.Errorf("FieldCount() after failure = %d, want 0", p.FieldCount())
	}
}

func TestFieldsListPreservesInsertionOrder(t *testing.T) {
	p := New()
	order := []string{"z", "a", "m"}
	for _, name := range order {
		mustAppend(t, p, FieldInit{Name: name, BitCount: 4, VisType: VisUnsignedInteger}, false)
	}
	got := p.FieldsList()
	if len(got) != len(order) {
		t.Fatalf("len = %d, want %d", len(got), len(order))
	}
	for i, name := range order {
		if got[i] != name {
			t.Errorf("FieldsList()[%d] = %q, want %q", i, got[i], name)
		}
	}
}

func TestSetIsLittleEndianToggles(t *testing.T) {
	p := New()
	p.SetIsLittleEndian(true)
	if !p.IsLittleEndian() {
		t.Error("IsLittleEndian() should be true after SetIsLittleEndian(true)")
	}
	p.SetIsLittleEndian(false)
	if p.IsLittleEndian() {
		t.Error("IsLittleEndian() should be false after SetIsLittleEndian(false)")
	}
}

func TestFieldCountMatchesFieldsList(t *testing.T) {
	p := New()
	mustAppend(t, p, FieldInit{Name: "a", BitCount: 1, VisType: VisUnsignedInteger}, false)
	mustAppend(t, p, FieldInit{Name: "b", BitCount: 1, VisType: VisUnsignedInteger}, false)
	if p.FieldCount() != len(p.FieldsList()) {
		t.Errorf("FieldCount()=%d != len(FieldsList())=%d", p.FieldCount(), len(p.FieldsList()))
	}
}
