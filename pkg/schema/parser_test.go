package schema

import (
	"testing"
)

func TestParsePackage(t *testing.T) {
	input := `package example;`

	schema, errors := ParseFile("test.bitproto", input)
	if len(errors) > 0 {
		t.Fatalf("unexpected errors: %v", errors)
	}

	if schema.Package == nil {
		t.Fatal("expected package declaration")
	}
	if schema.Package.Name != "example" {
		t.Errorf("expected package name 'example', got %q", schema.Package.Name)
	}
}

func TestParseImport(t *testing.T) {
	input := `
package test;
import "other.bitproto";
import "another.bitproto" as another;
`

	schema, errors := ParseFile("test.bitproto", input)
	if len(errors) > 0 {
		t.Fatalf("unexpected errors: %v", errors)
	}

	if len(schema.Imports) != 2 {
		t.Fatalf("expected 2 imports, got %d", len(schema.Imports))
	}

	if schema.Imports[0].Path != "other.bitproto" {
		t.Errorf("expected import path 'other.bitproto', got %q", schema.Imports[0].Path)
	}
	if schema.Imports[0].Alias != "" {
		t.Errorf("expected no alias, got %q", schema.Imports[0].Alias)
	}

	if schema.Imports[1].Path != "another.bitproto" {
		t.Errorf("expected import path 'another.bitproto', got %q", schema.Imports[1].Path)
	}
	if schema.Imports[1].Alias != "another" {
		t.Errorf("expected alias 'another', got %q", schema.Imports[1].Alias)
	}
}

func TestParseOption(t *testing.T) {
	input := `
package test;
option go_package = "github.com/example/test";
option optimize_for = true;
option max_size = 1024;
`

	schema, errors := ParseFile("test.bitproto", input)
	if len(errors) > 0 {
		t.Fatalf("unexpected errors: %v", errors)
	}

	if len(schema.Options) != 3 {
		t.Fatalf("expected 3 options, got %d", len(schema.Options))
	}

	if schema.Options[0].Name != "go_package" {
		t.Errorf("expected option name 'go_package', got %q", schema.Options[0].Name)
	}
	if sv, ok := schema.Options[0].Value.(*StringValue); !ok || sv.Value != "github.com/example/test" {
		t.Errorf("expected string value 'github.com/example/test', got %v", schema.Options[0].Value)
	}

	if schema.Options[1].Name != "optimize_for" {
		t.Errorf("expected option name 'optimize_for', got %q", schema.Options[1].Name)
	}
	if bv, ok := schema.Options[1].Value.(*BoolValue); !ok || !bv.Value {
		t.Errorf("expected bool value true, got %v", schema.Options[1].Value)
	}

	if schema.Options[2].Name != "max_size" {
		t.Errorf("expected option name 'max_size', got %q", schema.Options[2].Name)
	}
	if nv, ok := schema.Options[2].Value.(*NumberValue); !ok || nv.Value != "1024" {
		t.Errorf("expected number value '1024', got %v", schema.Options[2].Value)
	}
}

func TestParseSimpleProtocol(t *testing.T) {
	input := `
package test;

protocol GpsFix {
  valid: ubits(1);
  altitude: sbits(13);
  heading: fbits(32);
}
`

	schema, errors := ParseFile("test.bitproto", input)
	if len(errors) > 0 {
		t.Fatalf("unexpected errors: %v", errors)
	}

	if len(schema.Protocols) != 1 {
		t.Fatalf("expected 1 protocol, got %d", len(schema.Protocols))
	}

	proto := schema.Protocols[0]
	if proto.Name != "GpsFix" {
		t.Errorf("expected protocol name 'GpsFix', got %q", proto.Name)
	}

	if len(proto.Fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(proto.Fields))
	}

	f := proto.Fields[0]
	if f.Name != "valid" || f.BitCount != 1 || f.Kind != KindUnsigned {
		t.Errorf("unexpected field 0: %+v", f)
	}
	if proto.Fields[1].Kind != KindSigned || proto.Fields[1].BitCount != 13 {
		t.Errorf("unexpected field 1: %+v", proto.Fields[1])
	}
	if proto.Fields[2].Kind != KindFloat || proto.Fields[2].BitCount != 32 {
		t.Errorf("unexpected field 2: %+v", proto.Fields[2])
	}
}

func TestParseProtocolLittleEndianAttribute(t *testing.T) {
	input := `
protocol Frame [little_endian] {
  word: ubits(16);
}
`
	schema, errors := ParseFile("test.bitproto", input)
	if len(errors) > 0 {
		t.Fatalf("unexpected errors: %v", errors)
	}
	if !schema.Protocols[0].LittleEndian {
		t.Error("expected protocol-level little_endian to be set")
	}
}

func TestParseFieldModifiers(t *testing.T) {
	input := `
package test;

protocol Request {
  deprecated old_flag: ubits(1);
  repeated(4) samples: sbits(12);
  scale: sbits(8) [little_endian = true];
}
`

	schema, errors := ParseFile("test.bitproto", input)
	if len(errors) > 0 {
		t.Fatalf("unexpected errors: %v", errors)
	}

	proto := schema.Protocols[0]
	if len(proto.Fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(proto.Fields))
	}

	if !proto.Fields[0].Deprecated {
		t.Error("expected field 0 to be deprecated")
	}
	if proto.Fields[1].ArrayLen != 4 {
		t.Errorf("expected array length 4, got %d", proto.Fields[1].ArrayLen)
	}
	if !proto.Fields[2].LittleEndianSet || !proto.Fields[2].LittleEndian {
		t.Error("expected field 2 to override little_endian = true")
	}
}

func TestParseFieldWithOptions(t *testing.T) {
	input := `
package test;

protocol User {
  name_hash: ubits(32) [checksum = "crc32", scale = 1];
}
`

	schema, errors := ParseFile("test.bitproto", input)
	if len(errors) > 0 {
		t.Fatalf("unexpected errors: %v", errors)
	}

	field := schema.Protocols[0].Fields[0]
	if len(field.Options) != 2 {
		t.Fatalf("expected 2 field options, got %d", len(field.Options))
	}
	if field.Options[0].Name != "checksum" {
		t.Errorf("expected option 'checksum', got %q", field.Options[0].Name)
	}
	if field.Options[1].Name != "scale" {
		t.Errorf("expected option 'scale', got %q", field.Options[1].Name)
	}
}

func TestParseEnum(t *testing.T) {
	input := `
package test;

enum Status {
  UNKNOWN = 0;
  ACTIVE = 1;
  INACTIVE = 2;
  DELETED = 3;
}
`

	schema, errors := ParseFile("test.bitproto", input)
	if len(errors) > 0 {
		t.Fatalf("unexpected errors: %v", errors)
	}

	if len(schema.Enums) != 1 {
		t.Fatalf("expected 1 enum, got %d", len(schema.Enums))
	}

	enum := schema.Enums[0]
	if enum.Name != "Status" {
		t.Errorf("expected enum name 'Status', got %q", enum.Name)
	}

	if len(enum.Values) != 4 {
		t.Fatalf("expected 4 enum values, got %d", len(enum.Values))
	}

	expected := []struct {
		name   string
		number int
	}{
		{"UNKNOWN", 0},
		{"ACTIVE", 1},
		{"INACTIVE", 2},
		{"DELETED", 3},
	}

	for i, exp := range expected {
		if enum.Values[i].Name != exp.name {
			t.Errorf("value %d: expected name %q, got %q", i, exp.name, enum.Values[i].Name)
		}
		if enum.Values[i].Number != exp.number {
			t.Errorf("value %d: expected number %d, got %d", i, exp.number, enum.Values[i].Number)
		}
	}
}

func TestParseVariant(t *testing.T) {
	input := `
package test;

protocol Dog { tag: ubits(8); }
protocol Cat { tag: ubits(8); }

variant Animal {
  option bits = 4;
  1 = Dog;
  2 = Cat;
}
`

	schema, errors := ParseFile("test.bitproto", input)
	if len(errors) > 0 {
		t.Fatalf("unexpected errors: %v", errors)
	}

	if len(schema.Variants) != 1 {
		t.Fatalf("expected 1 variant, got %d", len(schema.Variants))
	}

	v := schema.Variants[0]
	if v.Name != "Animal" {
		t.Errorf("expected variant name 'Animal', got %q", v.Name)
	}
	if v.DiscriminatorBits != 4 {
		t.Errorf("expected discriminator bits 4, got %d", v.DiscriminatorBits)
	}

	if len(v.Cases) != 2 {
		t.Fatalf("expected 2 cases, got %d", len(v.Cases))
	}

	if v.Cases[0].ID != 1 || v.Cases[0].Protocol != "Dog" {
		t.Errorf("expected case 0 = 1 -> Dog, got %+v", v.Cases[0])
	}
}

func TestParseCompleteSchema(t *testing.T) {
	input := `
// Complete schema example
package example;

import "common.bitproto";
import "types.bitproto" as types;

option go_package = "github.com/example/test";

/// GpsFix reports a single positioning sample.
protocol GpsFix {
  valid: ubits(1);
  sat_count: ubits(5);
  altitude: sbits(13);
}

/// Header is a small framing preamble.
protocol Header {
  magic: ubits(8);
  version: ubits(8);
}

enum FixStatus {
  UNKNOWN = 0;
  ACTIVE = 1;
  SUSPENDED = 2;
}

variant Frame {
  option bits = 2;
  1 = GpsFix;
  2 = Header;
}
`

	schema, errors := ParseFile("test.bitproto", input)
	if len(errors) > 0 {
		t.Fatalf("unexpected errors: %v", errors)
	}

	if schema.Package == nil || schema.Package.Name != "example" {
		t.Error("expected package 'example'")
	}
	if len(schema.Imports) != 2 {
		t.Errorf("expected 2 imports, got %d", len(schema.Imports))
	}
	if len(schema.Options) != 1 {
		t.Errorf("expected 1 option, got %d", len(schema.Options))
	}
	if len(schema.Protocols) != 2 {
		t.Errorf("expected 2 protocols, got %d", len(schema.Protocols))
	}
	if len(schema.Enums) != 1 {
		t.Errorf("expected 1 enum, got %d", len(schema.Enums))
	}
	if len(schema.Variants) != 1 {
		t.Errorf("expected 1 variant, got %d", len(schema.Variants))
	}
}

func TestParseListOption(t *testing.T) {
	input := `
package test;
option allowed_values = [1, 2, 3];
option string_list = ["a", "b", "c"];
`

	schema, errors := ParseFile("test.bitproto", input)
	if len(errors) > 0 {
		t.Fatalf("unexpected errors: %v", errors)
	}

	if len(schema.Options) != 2 {
		t.Fatalf("expected 2 options, got %d", len(schema.Options))
	}

	lv, ok := schema.Options[0].Value.(*ListValue)
	if !ok {
		t.Fatalf("expected ListValue, got %T", schema.Options[0].Value)
	}
	if len(lv.Values) != 3 {
		t.Errorf("expected 3 values, got %d", len(lv.Values))
	}

	lv2, ok := schema.Options[1].Value.(*ListValue)
	if !ok {
		t.Fatalf("expected ListValue, got %T", schema.Options[1].Value)
	}
	if len(lv2.Values) != 3 {
		t.Errorf("expected 3 values, got %d", len(lv2.Values))
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "missing semicolon after package",
			input: `package test`,
		},
		{
			name:  "missing protocol name",
			input: `protocol { }`,
		},
		{
			name:  "missing bit count",
			input: `protocol Foo { x: ubits(); }`,
		},
		{
			name:  "invalid field kind",
			input: `protocol Foo { x: 123(1); }`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errors := ParseFile("test.bitproto", tt.input)
			if len(errors) == 0 {
				t.Error("expected parse errors, got none")
			}
		})
	}
}

func TestParseEmptyProtocol(t *testing.T) {
	input := `
package test;

protocol Empty {
}
`

	schema, errors := ParseFile("test.bitproto", input)
	if len(errors) > 0 {
		t.Fatalf("unexpected errors: %v", errors)
	}

	if len(schema.Protocols) != 1 {
		t.Fatalf("expected 1 protocol, got %d", len(schema.Protocols))
	}

	if len(schema.Protocols[0].Fields) != 0 {
		t.Errorf("expected 0 fields, got %d", len(schema.Protocols[0].Fields))
	}
}

func TestParseEmptyEnum(t *testing.T) {
	input := `
package test;

enum Empty {
}
`

	schema, errors := ParseFile("test.bitproto", input)
	if len(errors) > 0 {
		t.Fatalf("unexpected errors: %v", errors)
	}

	if len(schema.Enums) != 1 {
		t.Fatalf("expected 1 enum, got %d", len(schema.Enums))
	}

	if len(schema.Enums[0].Values) != 0 {
		t.Errorf("expected 0 values, got %d", len(schema.Enums[0].Values))
	}
}

func TestParseEmptyVariant(t *testing.T) {
	input := `
package test;

variant Empty {
  option bits = 1;
}
`

	schema, errors := ParseFile("test.bitproto", input)
	if len(errors) > 0 {
		t.Fatalf("unexpected errors: %v", errors)
	}

	if len(schema.Variants) != 1 {
		t.Fatalf("expected 1 variant, got %d", len(schema.Variants))
	}

	if len(schema.Variants[0].Cases) != 0 {
		t.Errorf("expected 0 cases, got %d", len(schema.Variants[0].Cases))
	}
}

func TestParseErrorRecovery(t *testing.T) {
	input := `
package test;

protocol Good1 {
  x: ubits(8);
}

protocol Bad {
  invalid syntax here
}

protocol Good2 {
  y: ubits(8);
}
`

	schema, errors := ParseFile("test.bitproto", input)

	if len(errors) == 0 {
		t.Error("expected parse errors")
	}

	if len(schema.Protocols) == 0 {
		t.Error("expected at least one protocol to be parsed")
	}
}

func TestParsePosition(t *testing.T) {
	input := `package test;

protocol GpsFix {
  valid: ubits(1);
}`

	schema, errors := ParseFile("test.bitproto", input)
	if len(errors) > 0 {
		t.Fatalf("unexpected errors: %v", errors)
	}

	proto := schema.Protocols[0]
	if proto.Position.Line != 3 {
		t.Errorf("expected protocol at line 3, got %d", proto.Position.Line)
	}

	field := proto.Fields[0]
	if field.Position.Line != 4 {
		t.Errorf("expected field at line 4, got %d", field.Position.Line)
	}
}

func TestParseDocComments(t *testing.T) {
	input := `
package test;

/// This is a doc comment for GpsFix.
/// It can span multiple lines.
protocol GpsFix {
  /// The fix's validity flag.
  valid: ubits(1);
}
`

	schema, errors := ParseFile("test.bitproto", input)
	if len(errors) > 0 {
		t.Fatalf("unexpected errors: %v", errors)
	}

	proto := schema.Protocols[0]
	if len(proto.Comments) == 0 {
		t.Error("expected doc comments on protocol")
	}
}

func TestParseMultipleCombinedModifiers(t *testing.T) {
	input := `
package test;

protocol Request {
  deprecated samples: ubits(8);
}
`

	schema, errors := ParseFile("test.bitproto", input)
	if len(errors) > 0 {
		t.Fatalf("unexpected errors: %v", errors)
	}

	field := schema.Protocols[0].Fields[0]
	if !field.Deprecated {
		t.Error("expected deprecated modifier")
	}
}

func TestFieldKindString(t *testing.T) {
	tests := []struct {
		kind FieldKind
		str  string
	}{
		{KindUnsigned, "ubits"},
		{KindSigned, "sbits"},
		{KindFloat, "fbits"},
	}

	for _, tt := range tests {
		if tt.kind.String() != tt.str {
			t.Errorf("expected %q, got %q", tt.str, tt.kind.String())
		}
	}
}

func TestFieldTotalBits(t *testing.T) {
	scalar := &Field{BitCount: 13}
	if scalar.TotalBits() != 13 {
		t.Errorf("scalar TotalBits() = %d, want 13", scalar.TotalBits())
	}

	array := &Field{BitCount: 13, ArrayLen: 10}
	if array.TotalBits() != 130 {
		t.Errorf("array TotalBits() = %d, want 130", array.TotalBits())
	}
}
