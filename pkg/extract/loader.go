// Package extract provides tools for extracting protobit schemas from Go source code.
package extract

import (
	"fmt"
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/packages"
)

// PackageLoader loads Go packages for analysis.
type PackageLoader struct {
	config *packages.Config
}

// NewPackageLoader creates a new package loader.
func NewPackageLoader() *PackageLoader {
	return &PackageLoader{
		config: &packages.Config{
			Mode: packages.NeedName |
				packages.NeedTypes |
				packages.NeedTypesInfo |
				packages.NeedSyntax |
				packages.NeedImports |
				packages.NeedDeps,
		},
	}
}

// Load loads packages matching the given patterns.
func (l *PackageLoader) Load(patterns []string) ([]*packages.Package, error) {
	pkgs, err := packages.Load(l.config, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}

	// Check for errors in loaded packages
	var errs []error
	packages.Visit(pkgs, nil, func(pkg *packages.Package) {
		for _, err := range pkg.Errors {
			errs = append(errs, err)
		}
	})

	if len(errs) > 0 {
		return nil, fmt.Errorf("package errors: %v", errs[0])
	}

	return pkgs, nil
}

// TypeInfo contains information about an extracted struct type, destined to
// become one protocol in the generated schema.
type TypeInfo struct {
	Name         string
	Package      string
	PkgPath      string
	Doc          string
	Fields       []*FieldInfo
	LittleEndian bool
	CaseID       int // variant case discriminator value, from @variant:id=N
	GoType       types.Type
	Implements   []string
	IsExported   bool
}

// FieldInfo contains information about a single bit-tagged struct field.
type FieldInfo struct {
	Name     string
	Kind     string // "ubits", "sbits", or "fbits"
	BitCount int
	ArrayLen int // 0 for a scalar field
	GoType   types.Type
	TypeName string
	Tag      *StructTag
	Doc      string
}

// InterfaceInfo contains information about a marker interface that groups
// implementing types into a variant.
type InterfaceInfo struct {
	Name              string
	Package           string
	PkgPath           string
	Doc               string
	DiscriminatorBits int
	Methods           []string
	Implementations   []*TypeInfo
}

// EnumInfo contains information about an enum type.
type EnumInfo struct {
	Name    string
	Package string
	PkgPath string
	Doc     string
	Values  []*EnumValueInfo
	GoType  types.Type
}

// EnumValueInfo contains information about an enum value.
type EnumValueInfo struct {
	Name   string
	Number int64
	Doc    string
}

// StructTag represents a parsed bitproto struct tag, e.g.
// `bitproto:"sbits,12,repeated=8,little_endian"`.
type StructTag struct {
	Kind         string
	BitCount     int
	ArrayLen     int
	LittleEndian bool
	Deprecated   bool
	Skip         bool
}

// extractDoc extracts documentation from an AST node.
func extractDoc(cg *ast.CommentGroup) string {
	if cg == nil {
		return ""
	}
	return cg.Text()
}
