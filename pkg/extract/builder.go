package extract

import (
	"fmt"
	"sort"

	"github.com/blockberries/protobit/pkg/schema"
)

// SchemaBuilder converts collected type information into a bitproto schema.
type SchemaBuilder struct {
	types      map[string]*TypeInfo
	interfaces map[string]*InterfaceInfo
	enums      map[string]*EnumInfo
	schema     *schema.Schema
	warnings   []string
}

// NewSchemaBuilder creates a new schema builder.
func NewSchemaBuilder(types map[string]*TypeInfo, interfaces map[string]*InterfaceInfo, enums map[string]*EnumInfo) *SchemaBuilder {
	return &SchemaBuilder{
		types:      types,
		interfaces: interfaces,
		enums:      enums,
		warnings:   nil,
	}
}

// Warnings returns any warnings generated during schema building.
func (b *SchemaBuilder) Warnings() []string {
	return b.warnings
}

// addWarning records a warning message.
func (b *SchemaBuilder) addWarning(msg string) {
	b.warnings = append(b.warnings, msg)
}

// Build constructs a schema from the collected types.
func (b *SchemaBuilder) Build(packageName string) (*schema.Schema, error) {
	b.schema = &schema.Schema{
		Package: &schema.Package{
			Name: packageName,
		},
	}

	// Build enums first (they may be referenced by variant cases indirectly)
	b.buildEnums()

	// Build protocols from struct types
	b.buildProtocols()

	// Build variants from marker interfaces
	b.buildVariants()

	return b.schema, nil
}

func (b *SchemaBuilder) buildEnums() {
	// Sort enums by name for deterministic output
	var names []string
	for name := range b.enums {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		enum := b.enums[name]
		schemaEnum := &schema.Enum{
			Name: enum.Name,
		}

		// Add doc comment if present
		if enum.Doc != "" {
			schemaEnum.Comments = []*schema.Comment{
				{Text: enum.Doc, IsDoc: true},
			}
		}

		// Sort values by number
		values := make([]*EnumValueInfo, len(enum.Values))
		copy(values, enum.Values)
		sort.Slice(values, func(i, j int) bool {
			return values[i].Number < values[j].Number
		})

		for _, val := range values {
			enumVal := &schema.EnumValue{
				Name:   val.Name,
				Number: int(val.Number),
			}
			if val.Doc != "" {
				enumVal.Comments = []*schema.Comment{
					{Text: val.Doc, IsDoc: true},
				}
			}
			schemaEnum.Values = append(schemaEnum.Values, enumVal)
		}

		b.schema.Enums = append(b.schema.Enums, schemaEnum)
	}
}

func (b *SchemaBuilder) buildProtocols() {
	// Sort types by name for deterministic output
	var names []string
	for name := range b.types {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		typ := b.types[name]
		proto := &schema.Protocol{
			Name:         typ.Name,
			LittleEndian: typ.LittleEndian,
		}

		// Add doc comment if present
		if typ.Doc != "" {
			proto.Comments = []*schema.Comment{
				{Text: typ.Doc, IsDoc: true},
			}
		}

		// Check for field name collisions
		seen := make(map[string]bool)
		for _, field := range typ.Fields {
			if seen[field.Name] {
				b.addWarning("duplicate field name in type '" + typ.Name +
					"': '" + field.Name + "'")
			}
			seen[field.Name] = true

			kind, ok := fieldKindFromTag(field.Kind)
			if !ok {
				b.addWarning(fmt.Sprintf(
					"field '%s' in type '%s' has unrecognized bitproto kind %q, skipping",
					field.Name, typ.Name, field.Kind))
				continue
			}

			schemaField := &schema.Field{
				Name:     field.Name,
				Kind:     kind,
				BitCount: field.BitCount,
				ArrayLen: field.ArrayLen,
			}

			if field.Tag != nil && field.Tag.LittleEndian {
				schemaField.LittleEndian = true
				schemaField.LittleEndianSet = true
			}
			if field.Tag != nil && field.Tag.Deprecated {
				schemaField.Deprecated = true
			}

			// Add doc comment if present
			if field.Doc != "" {
				schemaField.Comments = []*schema.Comment{
					{Text: field.Doc, IsDoc: true},
				}
			}

			proto.Fields = append(proto.Fields, schemaField)
		}

		b.schema.Protocols = append(b.schema.Protocols, proto)
	}
}

func fieldKindFromTag(kind string) (schema.FieldKind, bool) {
	switch kind {
	case "ubits":
		return schema.KindUnsigned, true
	case "sbits":
		return schema.KindSigned, true
	case "fbits":
		return schema.KindFloat, true
	default:
		return 0, false
	}
}

func (b *SchemaBuilder) buildVariants() {
	// Sort interfaces by name for deterministic output
	var names []string
	for name := range b.interfaces {
		names = append(names, name)
	}
	sort.Strings(names)

	// Track used case IDs globally across all variants to detect collisions
	usedCaseIDs := make(map[int]string) // caseID -> type name that uses it

	for _, name := range names {
		iface := b.interfaces[name]
		variant := &schema.Variant{
			Name:              iface.Name,
			DiscriminatorBits: iface.DiscriminatorBits,
		}

		// Add doc comment if present
		if iface.Doc != "" {
			variant.Comments = []*schema.Comment{
				{Text: iface.Doc, IsDoc: true},
			}
		}

		// Sort implementations by name for deterministic output
		impls := make([]*TypeInfo, len(iface.Implementations))
		copy(impls, iface.Implementations)
		sort.Slice(impls, func(i, j int) bool {
			return impls[i].Name < impls[j].Name
		})

		// First pass: collect explicitly assigned case IDs
		for _, impl := range impls {
			if impl.CaseID > 0 {
				if existingType, exists := usedCaseIDs[impl.CaseID]; exists {
					b.addWarning(fmt.Sprintf(
						"case ID collision: %s and %s both use case ID %d",
						existingType, impl.Name, impl.CaseID,
					))
				}
				usedCaseIDs[impl.CaseID] = impl.Name
			}
		}

		// Second pass: assign case IDs to implementations
		nextAutoID := 1
		for _, impl := range impls {
			var caseID int

			if impl.CaseID > 0 {
				caseID = impl.CaseID
			} else {
				for usedCaseIDs[nextAutoID] != "" {
					nextAutoID++
				}
				caseID = nextAutoID
				usedCaseIDs[caseID] = impl.Name
				nextAutoID++
			}

			variant.Cases = append(variant.Cases, &schema.VariantCase{
				ID:       caseID,
				Protocol: impl.Name,
			})
		}

		b.schema.Variants = append(b.schema.Variants, variant)
	}
}
