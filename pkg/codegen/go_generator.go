package codegen

import (
	"fmt"
	"io"
	"text/template"

	"github.com/blockberries/protobit/pkg/schema"
)

// GoGenerator generates Go code from schemas, targeting pkg/bitproto as the
// runtime codec.
type GoGenerator struct{}

// NewGoGenerator creates a new Go code generator.
func NewGoGenerator() *GoGenerator {
	return &GoGenerator{}
}

// Language returns the target language.
func (g *GoGenerator) Language() Language {
	return LanguageGo
}

// FileExtension returns the file extension for generated files.
func (g *GoGenerator) FileExtension() string {
	return ".go"
}

// Generate produces Go code from a schema.
func (g *GoGenerator) Generate(w io.Writer, s *schema.Schema, opts Options) error {
	ctx := &goContext{
		Schema:  s,
		Options: opts,
	}

	tmpl, err := template.New("go").Funcs(ctx.funcMap()).Parse(goTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return tmpl.Execute(w, ctx)
}

// goContext holds context for Go code generation.
type goContext struct {
	Schema  *schema.Schema
	Options Options
}

func (c *goContext) funcMap() template.FuncMap {
	return template.FuncMap{
		"goFieldType":       c.goFieldType,
		"goElemType":        c.goElemType,
		"goEnumType":        c.goEnumType,
		"goProtocolType":    c.goProtocolType,
		"goVariantType":     c.goVariantType,
		"goPackage":         c.goPackage,
		"goFieldName":       c.goFieldName,
		"goEnumValueName":   c.goEnumValueName,
		"visType":           c.visType,
		"totalBits":         func(f *schema.Field) int { return f.TotalBits() },
		"isArray":           func(f *schema.Field) bool { return f.ArrayLen > 0 },
		"comment":           GoComment,
		"indent":            Indent,
		"toCamel":           ToCamelCase,
		"toPascal":          ToPascalCase,
		"toSnake":           ToSnakeCase,
		"toUpperSnake":      ToUpperSnakeCase,
		"generateComments":  func() bool { return c.Options.GenerateComments },
		"generateValidator": func() bool { return c.Options.GenerateValidation },
	}
}

func (c *goContext) goPackage() string {
	if c.Options.Package != "" {
		return c.Options.Package
	}
	if c.Schema.Package != nil {
		return c.Schema.Package.Name
	}
	return "generated"
}

// goElemType returns the Go scalar type for a single element of a field
// (ignoring ArrayLen), based on its FieldKind and BitCount.
func (c *goContext) goElemType(f *schema.Field) string {
	switch f.Kind {
	case schema.KindFloat:
		if f.BitCount == 32 {
			return "float32"
		}
		return "float64"
	case schema.KindSigned:
		return goIntWidth("int", f.BitCount)
	default:
		return goIntWidth("uint", f.BitCount)
	}
}

// goFieldType returns the Go type for a struct field: a slice of the
// element type when the field is repeated, otherwise the element type
// directly.
func (c *goContext) goFieldType(f *schema.Field) string {
	elem := c.goElemType(f)
	if f.ArrayLen > 0 {
		return "[]" + elem
	}
	return elem
}

func goIntWidth(prefix string, bits int) string {
	switch {
	case bits <= 8:
		return prefix + "8"
	case bits <= 16:
		return prefix + "16"
	case bits <= 32:
		return prefix + "32"
	default:
		return prefix + "64"
	}
}

func (c *goContext) visType(f *schema.Field) string {
	switch f.Kind {
	case schema.KindFloat:
		return "bitproto.VisFloatingPoint"
	case schema.KindSigned:
		return "bitproto.VisSignedInteger"
	default:
		return "bitproto.VisUnsignedInteger"
	}
}

func (c *goContext) goEnumType(e *schema.Enum) string {
	return c.Options.TypePrefix + ToPascalCase(e.Name) + c.Options.TypeSuffix
}

func (c *goContext) goProtocolType(p *schema.Protocol) string {
	return c.Options.TypePrefix + ToPascalCase(p.Name) + c.Options.TypeSuffix
}

func (c *goContext) goVariantType(v *schema.Variant) string {
	return c.Options.TypePrefix + ToPascalCase(v.Name) + c.Options.TypeSuffix
}

func (c *goContext) goFieldName(f *schema.Field) string {
	return ToPascalCase(f.Name)
}

func (c *goContext) goEnumValueName(e *schema.Enum, v *schema.EnumValue) string {
	enumName := c.goEnumType(e)
	valueName := ToPascalCase(v.Name)
	return enumName + valueName
}

func init() {
	Register(NewGoGenerator())
}

const goTemplate = `// Code generated by protobit. DO NOT EDIT.
// Source: {{.Schema.Position.Filename}}

package {{goPackage}}

import (
	"fmt"

	"github.com/blockberries/protobit/pkg/bitproto"
)
{{$ctx := .}}
{{range $enum := .Schema.Enums}}
{{if generateComments}}{{range $enum.Comments}}{{if .IsDoc}}{{comment .Text}}
{{end}}{{end}}{{end -}}
type {{goEnumType $enum}} int32

const (
{{- range $i, $v := $enum.Values}}
	{{goEnumValueName $enum $v}} {{if eq $i 0}}{{goEnumType $enum}} = {{end}}{{$v.Number}}
{{- end}}
)

// String returns the string representation of the enum value.
func (e {{goEnumType $enum}}) String() string {
	switch e {
{{- range $enum.Values}}
	case {{goEnumValueName $enum .}}:
		return "{{.Name}}"
{{- end}}
	default:
		return "UNKNOWN"
	}
}
{{end}}
{{range $proto := .Schema.Protocols}}
{{if generateComments}}{{range $proto.Comments}}{{if .IsDoc}}{{comment .Text}}
{{end}}{{end}}{{end -}}
type {{goProtocolType $proto}} struct {
{{- range $proto.Fields}}
{{if generateComments}}{{range .Comments}}{{if .IsDoc}}	{{comment .Text}}
{{end}}{{end}}{{end -}}
	{{goFieldName .}} {{goFieldType .}}
{{- end}}
}

// layout returns the field layout for {{goProtocolType $proto}}, matching
// declaration order in the schema.
func (m *{{goProtocolType $proto}}) layout() []bitproto.FieldInit {
	return []bitproto.FieldInit{
{{- range $proto.Fields}}
		{Name: "{{goFieldName .}}", BitCount: {{totalBits .}}, VisType: {{visType .}}},
{{- end}}
	}
}

// Encode packs m's fields into a newly-allocated bitproto.Protocol buffer.
func (m *{{goProtocolType $proto}}) Encode() ([]byte, error) {
	p := bitproto.New()
	p.SetIsLittleEndian({{$proto.LittleEndian}})
	if rc := p.AppendProtocol(m.layout()); !rc.Ok() {
		return nil, fmt.Errorf("bitproto: %s", rc)
	}
{{range $proto.Fields}}
{{- if isArray .}}
	if rc := bitproto.WriteArray(p, "{{goFieldName .}}", {{visType .}}, m.{{goFieldName .}}); !rc.Ok() {
		return nil, fmt.Errorf("bitproto: %s", rc)
	}
{{- else}}
	if rc := bitproto.Write(p, "{{goFieldName .}}", m.{{goFieldName .}}); !rc.Ok() {
		return nil, fmt.Errorf("bitproto: %s", rc)
	}
{{- end}}
{{- end}}
	out := make([]byte, p.BufferLength())
	copy(out, p.WorkingBuffer())
	return out, nil
}

// Decode unpacks buf into m, overwriting every field.
func (m *{{goProtocolType $proto}}) Decode(buf []byte) error {
	p := bitproto.New()
	p.SetIsLittleEndian({{$proto.LittleEndian}})
	if rc := p.AppendProtocol(m.layout()); !rc.Ok() {
		return fmt.Errorf("bitproto: %s", rc)
	}
	p.SetExternalBuffer(buf)
{{range $proto.Fields}}
{{- if isArray .}}
	{{goFieldName .}}, rc := bitproto.ReadArray[{{goElemType .}}](p, "{{goFieldName .}}", {{visType .}}, {{.ArrayLen}})
	if !rc.Ok() {
		return fmt.Errorf("bitproto: %s", rc)
	}
	m.{{goFieldName .}} = {{goFieldName .}}
{{- else}}
	{{goFieldName .}}, rc := bitproto.Read[{{goElemType .}}](p, "{{goFieldName .}}")
	if !rc.Ok() {
		return fmt.Errorf("bitproto: %s", rc)
	}
	m.{{goFieldName .}} = {{goFieldName .}}
{{- end}}
{{- end}}
	return nil
}
{{end}}
{{range $variant := .Schema.Variants}}
{{if generateComments}}{{range $variant.Comments}}{{if .IsDoc}}{{comment .Text}}
{{end}}{{end}}{{end -}}
// {{goVariantType $variant}} is a discriminated union selected by a
// {{$variant.DiscriminatorBits}}-bit leading tag.
type {{goVariantType $variant}} interface {
	is{{goVariantType $variant}}()
}

{{range $variant.Cases}}
func (*{{toPascal .Protocol}}) is{{goVariantType $variant}}() {}
{{end}}

// {{goVariantType $variant}}Tag returns the discriminator value for a case.
func {{goVariantType $variant}}Tag(v {{goVariantType $variant}}) uint64 {
	switch v.(type) {
{{- range $variant.Cases}}
	case *{{toPascal .Protocol}}:
		return {{.ID}}
{{- end}}
	default:
		return 0
	}
}
{{end}}
`
