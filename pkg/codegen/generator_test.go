package codegen

import (
	"bytes"
	"strings"
	"testing"

	"github.com/blockberries/protobit/pkg/schema"
)

func TestGoGeneratorSimpleProtocol(t *testing.T) {
	s := &schema.Schema{
		Package: &schema.Package{Name: "test"},
		Protocols: []*schema.Protocol{
			{
				Name: "GpsFix",
				Fields: []*schema.Field{
					{Name: "valid", Kind: schema.KindUnsigned, BitCount: 1},
					{Name: "altitude", Kind: schema.KindSigned, BitCount: 13},
				},
			},
		},
	}

	gen := NewGoGenerator()
	var buf bytes.Buffer
	opts := DefaultOptions()

	err := gen.Generate(&buf, s, opts)
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "package test") {
		t.Error("expected package declaration")
	}
	if !strings.Contains(output, "type GpsFix struct") {
		t.Error("expected GpsFix struct")
	}
	if !strings.Contains(output, "Valid uint8") {
		t.Errorf("expected Valid field, got: %s", output)
	}
	if !strings.Contains(output, "Altitude int16") {
		t.Errorf("expected Altitude field, got: %s", output)
	}
}

func TestGoGeneratorEnum(t *testing.T) {
	s := &schema.Schema{
		Package: &schema.Package{Name: "test"},
		Enums: []*schema.Enum{
			{
				Name: "Status",
				Values: []*schema.EnumValue{
					{Name: "UNKNOWN", Number: 0},
					{Name: "ACTIVE", Number: 1},
					{Name: "INACTIVE", Number: 2},
				},
			},
		},
	}

	gen := NewGoGenerator()
	var buf bytes.Buffer
	opts := DefaultOptions()

	err := gen.Generate(&buf, s, opts)
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "type Status int32") {
		t.Error("expected Status type")
	}
	if !strings.Contains(output, "StatusUnknown Status = 0") {
		t.Errorf("expected StatusUnknown, got: %s", output)
	}
	if !strings.Contains(output, "StatusActive") {
		t.Error("expected StatusActive")
	}
	if !strings.Contains(output, "func (e Status) String() string") {
		t.Error("expected String method")
	}
}

func TestGoGeneratorVariant(t *testing.T) {
	s := &schema.Schema{
		Package: &schema.Package{Name: "test"},
		Protocols: []*schema.Protocol{
			{Name: "Dog", Fields: []*schema.Field{{Name: "tag", Kind: schema.KindUnsigned, BitCount: 8}}},
			{Name: "Cat", Fields: []*schema.Field{{Name: "tag", Kind: schema.KindUnsigned, BitCount: 8}}},
		},
		Variants: []*schema.Variant{
			{
				Name:              "Animal",
				DiscriminatorBits: 4,
				Cases: []*schema.VariantCase{
					{ID: 1, Protocol: "Dog"},
					{ID: 2, Protocol: "Cat"},
				},
			},
		},
	}

	gen := NewGoGenerator()
	var buf bytes.Buffer
	opts := DefaultOptions()

	err := gen.Generate(&buf, s, opts)
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "type Animal interface") {
		t.Error("expected Animal interface")
	}
	if !strings.Contains(output, "func (*Dog) isAnimal()") {
		t.Error("expected isAnimal marker for Dog")
	}
	if !strings.Contains(output, "func (*Cat) isAnimal()") {
		t.Error("expected isAnimal marker for Cat")
	}
	if !strings.Contains(output, "func AnimalTag(v Animal) uint64") {
		t.Error("expected AnimalTag function")
	}
}

func TestGoGeneratorArrayField(t *testing.T) {
	s := &schema.Schema{
		Package: &schema.Package{Name: "test"},
		Protocols: []*schema.Protocol{
			{
				Name: "Waveform",
				Fields: []*schema.Field{
					{Name: "samples", Kind: schema.KindSigned, BitCount: 12, ArrayLen: 8},
				},
			},
		},
	}

	gen := NewGoGenerator()
	var buf bytes.Buffer
	opts := DefaultOptions()

	err := gen.Generate(&buf, s, opts)
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "Samples []int16") {
		t.Errorf("expected slice field type, got: %s", output)
	}
	if !strings.Contains(output, "bitproto.WriteArray(p, \"Samples\", bitproto.VisSignedInteger,") {
		t.Errorf("expected WriteArray call, got: %s", output)
	}
	if !strings.Contains(output, "bitproto.ReadArray[int16](p, \"Samples\", bitproto.VisSignedInteger,") {
		t.Errorf("expected ReadArray call, got: %s", output)
	}
}

func TestGoGeneratorFloatField(t *testing.T) {
	s := &schema.Schema{
		Package: &schema.Package{Name: "test"},
		Protocols: []*schema.Protocol{
			{
				Name: "Sample",
				Fields: []*schema.Field{
					{Name: "value", Kind: schema.KindFloat, BitCount: 32},
				},
			},
		},
	}

	gen := NewGoGenerator()
	var buf bytes.Buffer
	opts := DefaultOptions()

	err := gen.Generate(&buf, s, opts)
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "Value float32") {
		t.Errorf("expected float32 field, got: %s", output)
	}
	if !strings.Contains(output, "bitproto.VisFloatingPoint") {
		t.Errorf("expected VisFloatingPoint usage, got: %s", output)
	}
}

func TestGoGeneratorEncodeDecodeMethods(t *testing.T) {
	s := &schema.Schema{
		Package: &schema.Package{Name: "test"},
		Protocols: []*schema.Protocol{
			{
				Name: "GpsFix",
				Fields: []*schema.Field{
					{Name: "valid", Kind: schema.KindUnsigned, BitCount: 1},
				},
			},
		},
	}

	gen := NewGoGenerator()
	var buf bytes.Buffer
	opts := DefaultOptions()

	err := gen.Generate(&buf, s, opts)
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "func (m *GpsFix) Encode() ([]byte, error)") {
		t.Error("expected Encode method")
	}
	if !strings.Contains(output, "func (m *GpsFix) Decode(buf []byte) error") {
		t.Error("expected Decode method")
	}
	if !strings.Contains(output, "bitproto.New()") {
		t.Error("expected bitproto.New() call")
	}
}

func TestGoGeneratorLittleEndianProtocol(t *testing.T) {
	s := &schema.Schema{
		Package: &schema.Package{Name: "test"},
		Protocols: []*schema.Protocol{
			{
				Name:         "Frame",
				LittleEndian: true,
				Fields: []*schema.Field{
					{Name: "word", Kind: schema.KindUnsigned, BitCount: 16},
				},
			},
		},
	}

	gen := NewGoGenerator()
	var buf bytes.Buffer
	opts := DefaultOptions()

	err := gen.Generate(&buf, s, opts)
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "p.SetIsLittleEndian(true)") {
		t.Errorf("expected SetIsLittleEndian(true), got: %s", output)
	}
}

func TestGoGeneratorOptions(t *testing.T) {
	s := &schema.Schema{
		Package: &schema.Package{Name: "test"},
		Protocols: []*schema.Protocol{
			{
				Name: "User",
				Fields: []*schema.Field{
					{Name: "id", Kind: schema.KindUnsigned, BitCount: 32},
				},
			},
		},
	}

	t.Run("custom package", func(t *testing.T) {
		gen := NewGoGenerator()
		var buf bytes.Buffer
		opts := DefaultOptions()
		opts.Package = "mypackage"

		err := gen.Generate(&buf, s, opts)
		if err != nil {
			t.Fatalf("generate error: %v", err)
		}

		if !strings.Contains(buf.String(), "package mypackage") {
			t.Error("expected custom package name")
		}
	})

	t.Run("type prefix", func(t *testing.T) {
		gen := NewGoGenerator()
		var buf bytes.Buffer
		opts := DefaultOptions()
		opts.TypePrefix = "PB"

		err := gen.Generate(&buf, s, opts)
		if err != nil {
			t.Fatalf("generate error: %v", err)
		}

		if !strings.Contains(buf.String(), "type PBUser struct") {
			t.Errorf("expected prefixed type name, got: %s", buf.String())
		}
	})
}

func TestCaseConversions(t *testing.T) {
	tests := []struct {
		input  string
		pascal string
		camel  string
		snake  string
		upper  string
		kebab  string
	}{
		{"foo", "Foo", "foo", "foo", "FOO", "foo"},
		{"fooBar", "FooBar", "fooBar", "foo_bar", "FOO_BAR", "foo-bar"},
		{"FooBar", "FooBar", "fooBar", "foo_bar", "FOO_BAR", "foo-bar"},
		{"foo_bar", "FooBar", "fooBar", "foo_bar", "FOO_BAR", "foo-bar"},
		{"FOO_BAR", "FooBar", "fooBar", "foo_bar", "FOO_BAR", "foo-bar"},
		{"foo-bar", "FooBar", "fooBar", "foo_bar", "FOO_BAR", "foo-bar"},
		{"ID", "Id", "id", "id", "ID", "id"},
		{"userID", "UserId", "userId", "user_id", "USER_ID", "user-id"},
		{"", "", "", "", "", ""},
		{"a", "A", "a", "a", "A", "a"},
		{"café", "Café", "café", "café", "CAFÉ", "café"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ToPascalCase(tt.input); got != tt.pascal {
				t.Errorf("ToPascalCase(%q) = %q, want %q", tt.input, got, tt.pascal)
			}
			if got := ToCamelCase(tt.input); got != tt.camel {
				t.Errorf("ToCamelCase(%q) = %q, want %q", tt.input, got, tt.camel)
			}
			if got := ToSnakeCase(tt.input); got != tt.snake {
				t.Errorf("ToSnakeCase(%q) = %q, want %q", tt.input, got, tt.snake)
			}
			if got := ToUpperSnakeCase(tt.input); got != tt.upper {
				t.Errorf("ToUpperSnakeCase(%q) = %q, want %q", tt.input, got, tt.upper)
			}
			if got := ToKebabCase(tt.input); got != tt.kebab {
				t.Errorf("ToKebabCase(%q) = %q, want %q", tt.input, got, tt.kebab)
			}
		})
	}
}

func TestGeneratorRegistry(t *testing.T) {
	gen, ok := Get(LanguageGo)
	if !ok {
		t.Fatal("Go generator not registered")
	}

	if gen.Language() != LanguageGo {
		t.Errorf("expected Go language, got %s", gen.Language())
	}

	if gen.FileExtension() != ".go" {
		t.Errorf("expected .go extension, got %s", gen.FileExtension())
	}

	langs := Languages()
	found := false
	for _, l := range langs {
		if l == LanguageGo {
			found = true
			break
		}
	}
	if !found {
		t.Error("Go not in languages list")
	}
}

func TestIndent(t *testing.T) {
	input := "line1\nline2\nline3"
	expected := "\t\tline1\n\t\tline2\n\t\tline3"
	got := Indent(input, 2)
	if got != expected {
		t.Errorf("Indent() = %q, want %q", got, expected)
	}
}

func TestGoComment(t *testing.T) {
	input := "This is a comment\nWith multiple lines"
	expected := "// This is a comment\n// With multiple lines"
	got := GoComment(input)
	if got != expected {
		t.Errorf("GoComment() = %q, want %q", got, expected)
	}
}

func TestGeneratorError(t *testing.T) {
	err := &GeneratorError{
		Message: "test error",
		Position: schema.Position{
			Filename: "test.go",
			Line:     10,
			Column:   5,
		},
	}

	expected := "test.go:10:5: test error"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}

	err2 := &GeneratorError{Message: "no position"}
	if err2.Error() != "no position" {
		t.Errorf("Error() = %q, want %q", err2.Error(), "no position")
	}
}

func TestGoGeneratorDocComments(t *testing.T) {
	s := &schema.Schema{
		Package: &schema.Package{Name: "test"},
		Protocols: []*schema.Protocol{
			{
				Name: "User",
				Comments: []*schema.Comment{
					{Text: "User represents a principal.", IsDoc: true},
				},
				Fields: []*schema.Field{
					{
						Name:     "id",
						Kind:     schema.KindUnsigned,
						BitCount: 32,
						Comments: []*schema.Comment{
							{Text: "Unique identifier.", IsDoc: true},
						},
					},
				},
			},
		},
	}

	gen := NewGoGenerator()
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.GenerateComments = true

	err := gen.Generate(&buf, s, opts)
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "// User represents a principal.") {
		t.Error("expected protocol doc comment")
	}
	if !strings.Contains(output, "// Unique identifier.") {
		t.Error("expected field doc comment")
	}
}
