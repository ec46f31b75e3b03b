package codegen

import (
	"fmt"
	"io"
	"text/template"

	"github.com/blockberries/protobit/pkg/schema"
)

// TypeScriptGenerator generates TypeScript code from schemas. Since the
// generated code has no access to pkg/bitproto, each output file carries a
// small self-contained bit-packing runtime alongside the generated types.
type TypeScriptGenerator struct{}

// NewTypeScriptGenerator creates a new TypeScript code generator.
func NewTypeScriptGenerator() *TypeScriptGenerator {
	return &TypeScriptGenerator{}
}

// Language returns the target language.
func (g *TypeScriptGenerator) Language() Language {
	return LanguageTypeScript
}

// FileExtension returns the file extension for generated files.
func (g *TypeScriptGenerator) FileExtension() string {
	return ".ts"
}

// Generate produces TypeScript code from a schema.
func (g *TypeScriptGenerator) Generate(w io.Writer, s *schema.Schema, opts Options) error {
	ctx := &tsContext{
		Schema:  s,
		Options: opts,
	}

	tmpl, err := template.New("typescript").Funcs(ctx.funcMap()).Parse(tsTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return tmpl.Execute(w, ctx)
}

// tsContext holds context for TypeScript code generation.
type tsContext struct {
	Schema  *schema.Schema
	Options Options
}

func (c *tsContext) funcMap() template.FuncMap {
	return template.FuncMap{
		"tsElemType":       c.tsElemType,
		"tsFieldType":      c.tsFieldType,
		"tsEnumType":       c.tsEnumType,
		"tsProtocolType":   c.tsProtocolType,
		"tsVariantType":    c.tsVariantType,
		"tsFieldName":      c.tsFieldName,
		"tsEnumValueName":  c.tsEnumValueName,
		"tsReadExpr":       c.tsReadExpr,
		"isArray":          func(f *schema.Field) bool { return f.ArrayLen > 0 },
		"isSigned":         func(f *schema.Field) bool { return f.Kind == schema.KindSigned },
		"isFloat":          func(f *schema.Field) bool { return f.Kind == schema.KindFloat },
		"totalBits":        func(f *schema.Field) int { return f.TotalBits() },
		"comment":          c.tsComment,
		"toCamel":          ToCamelCase,
		"toPascal":         ToPascalCase,
		"generateComments": func() bool { return c.Options.GenerateComments },
	}
}

// tsElemType returns the TypeScript type for a single element of a field.
func (c *tsContext) tsElemType(f *schema.Field) string {
	if f.Kind == schema.KindFloat {
		return "number"
	}
	if f.BitCount > 32 {
		return "bigint"
	}
	return "number"
}

// tsFieldType wraps the element type in an array when the field is repeated.
func (c *tsContext) tsFieldType(f *schema.Field) string {
	elem := c.tsElemType(f)
	if f.ArrayLen > 0 {
		return elem + "[]"
	}
	return elem
}

func (c *tsContext) tsEnumType(e *schema.Enum) string {
	return c.Options.TypePrefix + ToPascalCase(e.Name) + c.Options.TypeSuffix
}

func (c *tsContext) tsProtocolType(p *schema.Protocol) string {
	return c.Options.TypePrefix + ToPascalCase(p.Name) + c.Options.TypeSuffix
}

func (c *tsContext) tsVariantType(v *schema.Variant) string {
	return c.Options.TypePrefix + ToPascalCase(v.Name) + c.Options.TypeSuffix
}

func (c *tsContext) tsFieldName(f *schema.Field) string {
	return ToCamelCase(f.Name)
}

func (c *tsContext) tsEnumValueName(e *schema.Enum, v *schema.EnumValue) string {
	return c.tsEnumType(e) + ToPascalCase(v.Name)
}

// tsReadExpr returns the bit reader call that yields a single element of f.
func (c *tsContext) tsReadExpr(f *schema.Field) string {
	if f.Kind == schema.KindFloat {
		if f.BitCount == 32 {
			return fmt.Sprintf("r.readFloat(%d)", f.BitCount)
		}
		return fmt.Sprintf("r.readDouble(%d)", f.BitCount)
	}
	if f.Kind == schema.KindSigned {
		return fmt.Sprintf("r.readSigned(%d)", f.BitCount)
	}
	return fmt.Sprintf("r.readUnsigned(%d)", f.BitCount)
}

func (c *tsContext) tsComment(text string) string {
	if text == "" {
		return ""
	}
	return "/** " + text + " */"
}

func init() {
	Register(NewTypeScriptGenerator())
}

const tsTemplate = `// Code generated by protobit. DO NOT EDIT.
// Source: {{.Schema.Position.Filename}}

/**
 * BitWriter packs unsigned, signed and floating-point values of arbitrary
 * bit width (1-64) into a growable byte buffer, matching the bit-granular
 * layout rules of the protobit wire format.
 */
export class BitWriter {
  private bytes: number[] = [];
  private bitPos = 0;
  private littleEndian: boolean;

  constructor(littleEndian = false) {
    this.littleEndian = littleEndian;
  }

  private ensure(bit: number): void {
    const byteIdx = Math.floor(bit / 8);
    while (this.bytes.length <= byteIdx) {
      this.bytes.push(0);
    }
  }

  writeUnsigned(value: number | bigint, bits: number): void {
    let v = BigInt(value);
    const mask = (1n << BigInt(bits)) - 1n;
    v &= mask;
    for (let i = 0; i < bits; i++) {
      const srcBit = this.littleEndian ? i : bits - 1 - i;
      const bit = (v >> BigInt(srcBit)) & 1n;
      const pos = this.bitPos + i;
      this.ensure(pos);
      if (bit) {
        this.bytes[Math.floor(pos / 8)] |= 1 << (7 - (pos % 8));
      }
    }
    this.bitPos += bits;
  }

  writeSigned(value: number | bigint, bits: number): void {
    let v = BigInt(value);
    if (v < 0n) {
      v += 1n << BigInt(bits);
    }
    this.writeUnsigned(v, bits);
  }

  writeFloat(value: number, bits: number): void {
    const buf = new ArrayBuffer(4);
    new DataView(buf).setFloat32(0, value, this.littleEndian);
    const bits32 = new DataView(buf).getUint32(0, this.littleEndian);
    this.writeUnsigned(BigInt(bits32), bits);
  }

  writeDouble(value: number, bits: number): void {
    const buf = new ArrayBuffer(8);
    new DataView(buf).setFloat64(0, value, this.littleEndian);
    const bits64 = new DataView(buf).getBigUint64(0, this.littleEndian);
    this.writeUnsigned(bits64, bits);
  }

  finish(): Uint8Array {
    return new Uint8Array(this.bytes);
  }
}

/** BitReader reads values back out of a buffer written by BitWriter. */
export class BitReader {
  private bitPos = 0;
  private littleEndian: boolean;

  constructor(private data: Uint8Array, littleEndian = false) {
    this.littleEndian = littleEndian;
  }

  readUnsigned(bits: number): bigint {
    let v = 0n;
    for (let i = 0; i < bits; i++) {
      const pos = this.bitPos + i;
      const byte = this.data[Math.floor(pos / 8)] ?? 0;
      const bit = (byte >> (7 - (pos % 8))) & 1;
      const dstBit = this.littleEndian ? i : bits - 1 - i;
      v |= BigInt(bit) << BigInt(dstBit);
    }
    this.bitPos += bits;
    return v;
  }

  readSigned(bits: number): bigint {
    let v = this.readUnsigned(bits);
    const signBit = 1n << BigInt(bits - 1);
    if (v & signBit) {
      v -= 1n << BigInt(bits);
    }
    return v;
  }

  readFloat(bits: number): number {
    const raw = this.readUnsigned(bits);
    const buf = new ArrayBuffer(4);
    new DataView(buf).setUint32(0, Number(raw), this.littleEndian);
    return new DataView(buf).getFloat32(0, this.littleEndian);
  }

  readDouble(bits: number): number {
    const raw = this.readUnsigned(bits);
    const buf = new ArrayBuffer(8);
    new DataView(buf).setBigUint64(0, raw, this.littleEndian);
    return new DataView(buf).getFloat64(0, this.littleEndian);
  }
}
{{$ctx := .}}
{{range $enum := .Schema.Enums}}
{{if generateComments}}{{range $enum.Comments}}{{if .IsDoc}}{{comment .Text}}
{{end}}{{end}}{{end -}}
export enum {{tsEnumType $enum}} {
{{- range $enum.Values}}
  {{tsEnumValueName $enum .}} = {{.Number}},
{{- end}}
}

{{end}}
{{range $proto := .Schema.Protocols}}
{{if generateComments}}{{range $proto.Comments}}{{if .IsDoc}}{{comment .Text}}
{{end}}{{end}}{{end -}}
export interface {{tsProtocolType $proto}} {
{{- range $proto.Fields}}
  {{tsFieldName .}}: {{tsFieldType .}};
{{- end}}
}

/** Packs a {{tsProtocolType $proto}} into its wire representation. */
export function encode{{tsProtocolType $proto}}(msg: {{tsProtocolType $proto}}): Uint8Array {
  const w = new BitWriter({{$proto.LittleEndian}});
{{range $proto.Fields}}
{{- if isArray .}}
  for (const v of msg.{{tsFieldName .}}) {
{{- if isFloat .}}
    w.{{if eq .BitCount 32}}writeFloat{{else}}writeDouble{{end}}(v, {{.BitCount}});
{{- else if isSigned .}}
    w.writeSigned(v, {{.BitCount}});
{{- else}}
    w.writeUnsigned(v, {{.BitCount}});
{{- end}}
  }
{{- else if isFloat .}}
  w.{{if eq .BitCount 32}}writeFloat{{else}}writeDouble{{end}}(msg.{{tsFieldName .}}, {{.BitCount}});
{{- else if isSigned .}}
  w.writeSigned(msg.{{tsFieldName .}}, {{.BitCount}});
{{- else}}
  w.writeUnsigned(msg.{{tsFieldName .}}, {{.BitCount}});
{{- end}}
{{- end}}
  return w.finish();
}

/** Unpacks a {{tsProtocolType $proto}} from its wire representation. */
export function decode{{tsProtocolType $proto}}(data: Uint8Array): {{tsProtocolType $proto}} {
  const r = new BitReader(data, {{$proto.LittleEndian}});
  const msg = {} as {{tsProtocolType $proto}};
{{range $proto.Fields}}
{{- if isArray .}}
  msg.{{tsFieldName .}} = [];
  for (let i = 0; i < {{.ArrayLen}}; i++) {
    msg.{{tsFieldName .}}.push(Number({{tsReadExpr .}}));
  }
{{- else if isFloat .}}
  msg.{{tsFieldName .}} = {{tsReadExpr .}};
{{- else}}
  msg.{{tsFieldName .}} = Number({{tsReadExpr .}});
{{- end}}
{{- end}}
  return msg;
}
{{end}}
{{range $variant := .Schema.Variants}}
{{if generateComments}}{{range $variant.Comments}}{{if .IsDoc}}{{comment .Text}}
{{end}}{{end}}{{end -}}
export type {{tsVariantType $variant}} =
{{- range $i, $case := $variant.Cases}}{{if $i}} |{{end}} {{toPascal $case.Protocol}}{{end}};

/** Discriminator values for {{tsVariantType $variant}}, keyed by case name. */
export const {{tsVariantType $variant}}Tags = {
{{- range $variant.Cases}}
  {{toPascal .Protocol}}: {{.ID}},
{{- end}}
} as const;
{{end}}
`
