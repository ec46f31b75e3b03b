package codegen

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/blockberries/protobit/pkg/schema"
)

// RustGenerator generates Rust code from schemas. Generated structs pack and
// unpack themselves against a small bit-cursor helper emitted into the same
// file, since Rust code cannot reach pkg/bitproto.
type RustGenerator struct{}

// NewRustGenerator creates a new Rust code generator.
func NewRustGenerator() *RustGenerator {
	return &RustGenerator{}
}

// Language returns the target language.
func (g *RustGenerator) Language() Language {
	return LanguageRust
}

// FileExtension returns the file extension for generated files.
func (g *RustGenerator) FileExtension() string {
	return ".rs"
}

// Generate produces Rust code from a schema.
func (g *RustGenerator) Generate(w io.Writer, s *schema.Schema, opts Options) error {
	ctx := &rustContext{
		Schema:  s,
		Options: opts,
	}

	tmpl, err := template.New("rust").Funcs(ctx.funcMap()).Parse(rustTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return tmpl.Execute(w, ctx)
}

// rustContext holds context for Rust code generation.
type rustContext struct {
	Schema  *schema.Schema
	Options Options
}

func (c *rustContext) funcMap() template.FuncMap {
	return template.FuncMap{
		"rustElemType":     c.rustElemType,
		"rustFieldType":    c.rustFieldType,
		"rustEnumType":     c.rustEnumType,
		"rustProtocolType": c.rustProtocolType,
		"rustVariantType":  c.rustVariantType,
		"rustFieldName":    c.rustFieldName,
		"rustEnumValueName": c.rustEnumValueName,
		"isArray":          func(f *schema.Field) bool { return f.ArrayLen > 0 },
		"isSigned":         func(f *schema.Field) bool { return f.Kind == schema.KindSigned },
		"isFloat":          func(f *schema.Field) bool { return f.Kind == schema.KindFloat },
		"comment":          c.rustComment,
		"toSnake":          ToSnakeCase,
		"toPascal":         ToPascalCase,
		"generateComments": func() bool { return c.Options.GenerateComments },
		"hasSerde":         func() bool { return c.Options.GenerateJSON },
	}
}

// rustElemType returns the narrowest native Rust integer or float type that
// holds a single element of f.
func (c *rustContext) rustElemType(f *schema.Field) string {
	if f.Kind == schema.KindFloat {
		if f.BitCount == 32 {
			return "f32"
		}
		return "f64"
	}
	prefix := "u"
	if f.Kind == schema.KindSigned {
		prefix = "i"
	}
	switch {
	case f.BitCount <= 8:
		return prefix + "8"
	case f.BitCount <= 16:
		return prefix + "16"
	case f.BitCount <= 32:
		return prefix + "32"
	default:
		return prefix + "64"
	}
}

func (c *rustContext) rustFieldType(f *schema.Field) string {
	elem := c.rustElemType(f)
	if f.ArrayLen > 0 {
		return fmt.Sprintf("[%s; %d]", elem, f.ArrayLen)
	}
	return elem
}

func (c *rustContext) rustEnumType(e *schema.Enum) string {
	return c.Options.TypePrefix + ToPascalCase(e.Name) + c.Options.TypeSuffix
}

func (c *rustContext) rustProtocolType(p *schema.Protocol) string {
	return c.Options.TypePrefix + ToPascalCase(p.Name) + c.Options.TypeSuffix
}

func (c *rustContext) rustVariantType(v *schema.Variant) string {
	return c.Options.TypePrefix + ToPascalCase(v.Name) + c.Options.TypeSuffix
}

func (c *rustContext) rustFieldName(f *schema.Field) string {
	name := ToSnakeCase(f.Name)
	switch name {
	case "type", "self", "super", "crate", "mod", "fn", "let", "mut", "ref",
		"const", "static", "move", "return", "if", "else", "match", "loop",
		"while", "for", "in", "break", "continue", "impl", "trait", "struct",
		"enum", "union", "pub", "use", "as", "where", "unsafe", "async", "await":
		return "r#" + name
	}
	return name
}

func (c *rustContext) rustEnumValueName(e *schema.Enum, v *schema.EnumValue) string {
	return ToPascalCase(v.Name)
}

func (c *rustContext) rustComment(text string) string {
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	var result []string
	for _, line := range lines {
		result = append(result, "/// "+line)
	}
	return strings.Join(result, "\n")
}

func init() {
	Register(NewRustGenerator())
}

const rustTemplate = `// Code generated by protobit. DO NOT EDIT.
// Source: {{.Schema.Position.Filename}}

{{if hasSerde}}use serde::{Deserialize, Serialize};
{{end}}
/// BitCursor packs and unpacks fields of arbitrary bit width (1-64) to and
/// from a byte buffer, matching the bit-granular layout rules of the
/// protobit wire format.
pub struct BitCursor {
    bytes: Vec<u8>,
    bit_pos: usize,
    little_endian: bool,
}

impl BitCursor {
    pub fn new(little_endian: bool) -> Self {
        BitCursor { bytes: Vec::new(), bit_pos: 0, little_endian }
    }

    pub fn from_bytes(bytes: Vec<u8>, little_endian: bool) -> Self {
        BitCursor { bytes, bit_pos: 0, little_endian }
    }

    pub fn into_bytes(self) -> Vec<u8> {
        self.bytes
    }

    fn ensure(&mut self, bit: usize) {
        let byte_idx = bit / 8;
        while self.bytes.len() <= byte_idx {
            self.bytes.push(0);
        }
    }

    pub fn write_unsigned(&mut self, value: u64, bits: u32) {
        for i in 0..bits {
            let src_bit = if self.little_endian { i } else { bits - 1 - i };
            let bit = (value >> src_bit) & 1;
            let pos = self.bit_pos + i as usize;
            self.ensure(pos);
            if bit == 1 {
                self.bytes[pos / 8] |= 1 << (7 - (pos % 8));
            }
        }
        self.bit_pos += bits as usize;
    }

    pub fn write_signed(&mut self, value: i64, bits: u32) {
        let mask = if bits == 64 { u64::MAX } else { (1u64 << bits) - 1 };
        self.write_unsigned((value as u64) & mask, bits);
    }

    pub fn write_f32(&mut self, value: f32, bits: u32) {
        self.write_unsigned(value.to_bits() as u64, bits);
    }

    pub fn write_f64(&mut self, value: f64, bits: u32) {
        self.write_unsigned(value.to_bits(), bits);
    }

    pub fn read_unsigned(&mut self, bits: u32) -> u64 {
        let mut v: u64 = 0;
        for i in 0..bits {
            let pos = self.bit_pos + i as usize;
            let byte = *self.bytes.get(pos / 8).unwrap_or(&0);
            let bit = (byte >> (7 - (pos % 8))) & 1;
            let dst_bit = if self.little_endian { i } else { bits - 1 - i };
            v |= (bit as u64) << dst_bit;
        }
        self.bit_pos += bits as usize;
        v
    }

    pub fn read_signed(&mut self, bits: u32) -> i64 {
        let v = self.read_unsigned(bits);
        let sign_bit = 1u64 << (bits - 1);
        if v & sign_bit != 0 {
            (v as i64) - (1i64 << bits)
        } else {
            v as i64
        }
    }

    pub fn read_f32(&mut self, bits: u32) -> f32 {
        f32::from_bits(self.read_unsigned(bits) as u32)
    }

    pub fn read_f64(&mut self, bits: u32) -> f64 {
        f64::from_bits(self.read_unsigned(bits))
    }
}

{{$ctx := .}}
{{range $enum := .Schema.Enums}}
{{if generateComments}}{{range $enum.Comments}}{{if .IsDoc}}{{comment .Text}}
{{end}}{{end}}{{end -}}
#[derive(Debug, Clone, Copy, PartialEq, Eq, Hash)]
{{if hasSerde}}#[derive(Serialize, Deserialize)]
{{end}}#[repr(i32)]
pub enum {{rustEnumType $enum}} {
{{- range $enum.Values}}
{{if generateComments}}{{range .Comments}}{{if .IsDoc}}    {{comment .Text}}
{{end}}{{end}}{{end -}}
    {{rustEnumValueName $enum .}} = {{.Number}},
{{- end}}
}

impl {{rustEnumType $enum}} {
    pub fn from_i32(value: i32) -> Option<Self> {
        match value {
{{- range $enum.Values}}
            {{.Number}} => Some(Self::{{rustEnumValueName $enum .}}),
{{- end}}
            _ => None,
        }
    }
}

{{end}}
{{range $proto := .Schema.Protocols}}
{{if generateComments}}{{range $proto.Comments}}{{if .IsDoc}}{{comment .Text}}
{{end}}{{end}}{{end -}}
#[derive(Debug, Clone, PartialEq)]
{{if hasSerde}}#[derive(Serialize, Deserialize)]
{{end}}pub struct {{rustProtocolType $proto}} {
{{- range $proto.Fields}}
{{if generateComments}}{{range .Comments}}{{if .IsDoc}}    {{comment .Text}}
{{end}}{{end}}{{end -}}
    pub {{rustFieldName .}}: {{rustFieldType .}},
{{- end}}
}

impl {{rustProtocolType $proto}} {
    pub fn encode(&self) -> Vec<u8> {
        let mut w = BitCursor::new({{$proto.LittleEndian}});
{{range $proto.Fields}}
{{- if isArray .}}
        for v in self.{{rustFieldName .}}.iter() {
{{- if isFloat .}}
            w.{{if eq .BitCount 32}}write_f32{{else}}write_f64{{end}}(*v, {{.BitCount}});
{{- else if isSigned .}}
            w.write_signed(*v as i64, {{.BitCount}});
{{- else}}
            w.write_unsigned(*v as u64, {{.BitCount}});
{{- end}}
        }
{{- else if isFloat .}}
        w.{{if eq .BitCount 32}}write_f32{{else}}write_f64{{end}}(self.{{rustFieldName .}}, {{.BitCount}});
{{- else if isSigned .}}
        w.write_signed(self.{{rustFieldName .}} as i64, {{.BitCount}});
{{- else}}
        w.write_unsigned(self.{{rustFieldName .}} as u64, {{.BitCount}});
{{- end}}
{{- end}}
        w.into_bytes()
    }

    pub fn decode(bytes: Vec<u8>) -> Self {
        let mut r = BitCursor::from_bytes(bytes, {{$proto.LittleEndian}});
        Self {
{{- range $proto.Fields}}
{{- if isArray .}}
            {{rustFieldName .}}: {
                let mut arr = [{{if isFloat .}}0.0{{else}}0{{end}} as {{rustElemType .}}; {{.ArrayLen}}];
                for i in 0..{{.ArrayLen}} {
{{- if isFloat .}}
                    arr[i] = r.{{if eq .BitCount 32}}read_f32{{else}}read_f64{{end}}({{.BitCount}});
{{- else}}
                    arr[i] = r.{{if isSigned .}}read_signed{{else}}read_unsigned{{end}}({{.BitCount}}) as {{rustElemType .}};
{{- end}}
                }
                arr
            },
{{- else if isFloat .}}
            {{rustFieldName .}}: r.{{if eq .BitCount 32}}read_f32{{else}}read_f64{{end}}({{.BitCount}}),
{{- else}}
            {{rustFieldName .}}: r.{{if isSigned .}}read_signed{{else}}read_unsigned{{end}}({{.BitCount}}) as {{rustElemType .}},
{{- end}}
{{- end}}
        }
    }
}

{{end}}
{{range $variant := .Schema.Variants}}
{{if generateComments}}{{range $variant.Comments}}{{if .IsDoc}}{{comment .Text}}
{{end}}{{end}}{{end -}}
#[derive(Debug, Clone, PartialEq)]
{{if hasSerde}}#[derive(Serialize, Deserialize)]
#[serde(tag = "_type")]
{{end}}pub enum {{rustVariantType $variant}} {
{{- range $variant.Cases}}
    {{toPascal .Protocol}}({{toPascal .Protocol}}),
{{- end}}
}

impl {{rustVariantType $variant}} {
    pub fn tag(&self) -> u64 {
        match self {
{{- range $variant.Cases}}
            Self::{{toPascal .Protocol}}(_) => {{.ID}},
{{- end}}
        }
    }
}

{{end}}
`
