package schema

import (
	"fmt"
	"sort"
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Position Position
	Message  string
	Severity Severity
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s",
		e.Position.Filename, e.Position.Line, e.Position.Column,
		e.Severity, e.Message)
}

// Severity indicates the severity of a validation error.
type Severity int

const (
	// SeverityError is a fatal error that prevents code generation.
	SeverityError Severity = iota
	// SeverityWarning is a non-fatal issue.
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Validator validates schema definitions.
type Validator struct {
	schema  *Schema
	errors  []ValidationError
	types   map[string]TypeDef // All defined protocols/enums/variants
	imports map[string]*Schema // Imported schemas by alias/path
}

// TypeDef represents a top-level definition (protocol, enum, or variant).
type TypeDef struct {
	Name     string
	Kind     TypeDefKind
	Position Position
}

// TypeDefKind indicates the kind of top-level definition.
type TypeDefKind int

const (
	TypeDefProtocol TypeDefKind = iota
	TypeDefEnum
	TypeDefVariant
)

func (k TypeDefKind) String() string {
	switch k {
	case TypeDefProtocol:
		return "protocol"
	case TypeDefEnum:
		return "enum"
	case TypeDefVariant:
		return "variant"
	default:
		return "unknown"
	}
}

// NewValidator creates a new validator for the given schema.
func NewValidator(schema *Schema) *Validator {
	return &Validator{
		schema:  schema,
		types:   make(map[string]TypeDef),
		imports: make(map[string]*Schema),
	}
}

// AddImport registers an imported schema.
func (v *Validator) AddImport(path string, alias string, schema *Schema) {
	key := alias
	if key == "" {
		key = path
	}
	v.imports[key] = schema
}

// Validate performs validation and returns any errors.
func (v *Validator) Validate() []ValidationError {
	v.errors = nil

	// First pass: collect all top-level definitions
	v.collectTypes()

	for _, proto := range v.schema.Protocols {
		v.validateProtocol(proto)
	}
	for _, enum := range v.schema.Enums {
		v.validateEnum(enum)
	}
	for _, variant := range v.schema.Variants {
		v.validateVariant(variant)
	}

	sort.Slice(v.errors, func(i, j int) bool {
		if v.errors[i].Position.Line != v.errors[j].Position.Line {
			return v.errors[i].Position.Line < v.errors[j].Position.Line
		}
		return v.errors[i].Position.Column < v.errors[j].Position.Column
	})

	return v.errors
}

// collectTypes collects all top-level definitions for reference checking.
func (v *Validator) collectTypes() {
	for _, proto := range v.schema.Protocols {
		if existing, ok := v.types[proto.Name]; ok {
			v.addError(proto.Position, "duplicate type name %q (previously defined at %d:%d)",
				proto.Name, existing.Position.Line, existing.Position.Column)
		} else {
			v.types[proto.Name] = TypeDef{Name: proto.Name, Kind: TypeDefProtocol, Position: proto.Position}
		}
	}

	for _, enum := range v.schema.Enums {
		if existing, ok := v.types[enum.Name]; ok {
			v.addError(enum.Position, "duplicate type name %q (previously defined at %d:%d)",
				enum.Name, existing.Position.Line, existing.Position.Column)
		} else {
			v.types[enum.Name] = TypeDef{Name: enum.Name, Kind: TypeDefEnum, Position: enum.Position}
		}
	}

	for _, variant := range v.schema.Variants {
		if existing, ok := v.types[variant.Name]; ok {
			v.addError(variant.Position, "duplicate type name %q (previously defined at %d:%d)",
				variant.Name, existing.Position.Line, existing.Position.Column)
		} else {
			v.types[variant.Name] = TypeDef{Name: variant.Name, Kind: TypeDefVariant, Position: variant.Position}
		}
	}
}

// validateProtocol validates a protocol definition.
func (v *Validator) validateProtocol(proto *Protocol) {
	fieldNames := make(map[string]bool)

	if len(proto.Fields) == 0 {
		v.addWarning(proto.Position, "protocol %q declares no fields", proto.Name)
	}

	var totalBits int64
	for _, field := range proto.Fields {
		if fieldNames[field.Name] {
			v.addError(field.Position, "duplicate field name %q", field.Name)
		} else {
			fieldNames[field.Name] = true
		}

		if field.BitCount <= 0 {
			v.addError(field.Position, "bit count must be positive, got %d", field.BitCount)
		}
		if field.BitCount > 64 {
			v.addError(field.Position, "bit count %d exceeds maximum of 64 per element", field.BitCount)
		}
		if field.Kind == KindFloat && field.BitCount != 32 && field.BitCount != 64 {
			v.addError(field.Position, "floating-point field %q must be 32 or 64 bits, got %d",
				field.Name, field.BitCount)
		}
		if field.ArrayLen < 0 {
			v.addError(field.Position, "array length must be non-negative")
		}

		effectiveLittleEndian := proto.LittleEndian
		if field.LittleEndianSet {
			effectiveLittleEndian = field.LittleEndian
		}
		if effectiveLittleEndian && field.BitCount > 8 && field.BitCount%8 != 0 {
			v.addError(field.Position,
				"field %q cannot use little_endian: bit count %d is >8 and not a multiple of 8",
				field.Name, field.BitCount)
		}

		totalBits += int64(field.TotalBits())
	}

	if totalBits > (1<<32 - 1) {
		v.addError(proto.Position, "protocol %q exceeds the maximum representable bit offset", proto.Name)
	}
}

// validateEnum validates an enum definition.
func (v *Validator) validateEnum(enum *Enum) {
	valueNumbers := make(map[int]string)
	valueNames := make(map[string]bool)

	hasZero := false
	for _, val := range enum.Values {
		if val.Number == 0 {
			hasZero = true
			break
		}
	}
	if !hasZero && len(enum.Values) > 0 {
		v.addWarning(enum.Position, "enum %q should have a zero value (conventionally for unknown/default)", enum.Name)
	}

	for _, val := range enum.Values {
		if existing, ok := valueNumbers[val.Number]; ok {
			v.addError(val.Position, "duplicate enum value number %d (also used by %q)",
				val.Number, existing)
		} else {
			valueNumbers[val.Number] = val.Name
		}

		if valueNames[val.Name] {
			v.addError(val.Position, "duplicate enum value name %q", val.Name)
		} else {
			valueNames[val.Name] = true
		}
	}
}

// validateVariant validates a variant definition.
func (v *Validator) validateVariant(variant *Variant) {
	if variant.DiscriminatorBits <= 0 || variant.DiscriminatorBits > 64 {
		v.addError(variant.Position, "variant %q must declare 'option bits = N' with 1 <= N <= 64", variant.Name)
	}

	ids := make(map[int]string)
	for _, c := range variant.Cases {
		if existing, ok := ids[c.ID]; ok {
			v.addError(c.Position, "duplicate discriminator value %d (also used by %q)", c.ID, existing)
		} else {
			ids[c.ID] = c.Protocol
		}

		if typeDef, ok := v.types[c.Protocol]; !ok {
			v.addError(c.Position, "undefined protocol %q referenced by variant %q", c.Protocol, variant.Name)
		} else if typeDef.Kind != TypeDefProtocol {
			v.addError(c.Position, "variant case must reference a protocol, not %s %q", typeDef.Kind, c.Protocol)
		}
	}
}

func (v *Validator) addError(pos Position, format string, args ...any) {
	v.errors = append(v.errors, ValidationError{
		Position: pos,
		Message:  fmt.Sprintf(format, args...),
		Severity: SeverityError,
	})
}

func (v *Validator) addWarning(pos Position, format string, args ...any) {
	v.errors = append(v.errors, ValidationError{
		Position: pos,
		Message:  fmt.Sprintf(format, args...),
		Severity: SeverityWarning,
	})
}

// HasErrors returns true if there are any errors (not warnings).
func (v *Validator) HasErrors() bool {
	for _, err := range v.errors {
		if err.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns only the error-severity issues.
func (v *Validator) Errors() []ValidationError {
	var errors []ValidationError
	for _, err := range v.errors {
		if err.Severity == SeverityError {
			errors = append(errors, err)
		}
	}
	return errors
}

// Warnings returns only the warning-severity issues.
func (v *Validator) Warnings() []ValidationError {
	var warnings []ValidationError
	for _, err := range v.errors {
		if err.Severity == SeverityWarning {
			warnings = append(warnings, err)
		}
	}
	return warnings
}

// Validate is a convenience function that validates a schema.
func Validate(schema *Schema) []ValidationError {
	validator := NewValidator(schema)
	return validator.Validate()
}

// ValidateWithImports validates a schema with imported schemas.
func ValidateWithImports(schema *Schema, imports map[string]*Schema) []ValidationError {
	validator := NewValidator(schema)
	for path, s := range imports {
		validator.AddImport(path, "", s)
	}
	return validator.Validate()
}
