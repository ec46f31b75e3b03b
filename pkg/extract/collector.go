package extract

import (
	"go/ast"
	"go/types"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/tools/go/packages"
)

// Config configures the type collector.
type Config struct {
	IncludePrivate         bool     // Include unexported types
	IncludePatterns        []string // Type name patterns to include (glob)
	ExcludePatterns        []string // Type name patterns to exclude (glob)
	DetectInterfaces       bool     // Auto-detect interface implementations
	IncludeEmptyInterfaces bool     // Include empty interfaces (marker interfaces for variant grouping)
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		IncludePrivate:   false,
		DetectInterfaces: true,
	}
}

// TypeCollector collects type information from Go packages.
type TypeCollector struct {
	packages   []*packages.Package
	config     *Config
	types      map[string]*TypeInfo
	interfaces map[string]*InterfaceInfo
	enums      map[string]*EnumInfo
}

// NewTypeCollector creates a new type collector.
func NewTypeCollector(pkgs []*packages.Package, cfg *Config) *TypeCollector {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &TypeCollector{
		packages:   pkgs,
		config:     cfg,
		types:      make(map[string]*TypeInfo),
		interfaces: make(map[string]*InterfaceInfo),
		enums:      make(map[string]*EnumInfo),
	}
}

// Collect analyzes all packages and collects type information.
func (c *TypeCollector) Collect() error {
	for _, pkg := range c.packages {
		if err := c.collectPackage(pkg); err != nil {
			return err
		}
	}

	// Detect interface implementations if enabled
	if c.config.DetectInterfaces {
		c.detectImplementations()
	}

	return nil
}

// Types returns collected struct types.
func (c *TypeCollector) Types() map[string]*TypeInfo {
	return c.types
}

// Interfaces returns collected marker interfaces.
func (c *TypeCollector) Interfaces() map[string]*InterfaceInfo {
	return c.interfaces
}

// Enums returns collected enum types.
func (c *TypeCollector) Enums() map[string]*EnumInfo {
	return c.enums
}

func (c *TypeCollector) collectPackage(pkg *packages.Package) error {
	// Collect from syntax (for comments)
	typeComments := make(map[string]string)
	for _, file := range pkg.Syntax {
		for _, decl := range file.Decls {
			if genDecl, ok := decl.(*ast.GenDecl); ok {
				for _, spec := range genDecl.Specs {
					if typeSpec, ok := spec.(*ast.TypeSpec); ok {
						doc := extractDoc(genDecl.Doc)
						if doc == "" {
							doc = extractDoc(typeSpec.Doc)
						}
						typeComments[typeSpec.Name.Name] = strings.TrimSpace(doc)
					}
				}
			}
		}
	}

	// Collect from types
	scope := pkg.Types.Scope()
	for _, name := range scope.Names() {
		obj := scope.Lookup(name)
		if obj == nil {
			continue
		}

		// Filter by export status
		if !c.config.IncludePrivate && !obj.Exported() {
			continue
		}

		// Filter by patterns
		if !c.matchesPatterns(name) {
			continue
		}

		if typeName, ok := obj.(*types.TypeName); ok {
			c.collectType(typeName, pkg.PkgPath, typeComments[name])
		}
	}

	// Collect enum values
	c.collectEnumValues(pkg)

	return nil
}

func (c *TypeCollector) collectType(typeName *types.TypeName, pkgPath string, doc string) {
	underlying := typeName.Type().Underlying()
	qualifiedName := pkgPath + "." + typeName.Name()

	switch t := underlying.(type) {
	case *types.Struct:
		info := &TypeInfo{
			Name:       typeName.Name(),
			Package:    typeName.Pkg().Name(),
			PkgPath:    pkgPath,
			Doc:        doc,
			GoType:     typeName.Type(),
			IsExported: typeName.Exported(),
		}

		info.LittleEndian = strings.Contains(doc, "@protocol:little_endian")

		// Parse @variant:id annotation from doc comment
		if caseID, hasID := parseIntDoc(doc, `@variant:id=(\d+)`); hasID {
			info.CaseID = caseID
		}

		// Collect bit-tagged fields
		for i := 0; i < t.NumFields(); i++ {
			field := t.Field(i)
			if !c.config.IncludePrivate && !field.Exported() {
				continue
			}

			tag := t.Tag(i)
			structTag := c.parseTag(tag)
			if structTag == nil || structTag.Skip {
				continue
			}

			fieldInfo := &FieldInfo{
				Name:     toSnakeCase(field.Name()),
				Kind:     structTag.Kind,
				BitCount: structTag.BitCount,
				ArrayLen: structTag.ArrayLen,
				GoType:   field.Type(),
				TypeName: c.typeToString(field.Type()),
				Tag:      structTag,
			}
			info.Fields = append(info.Fields, fieldInfo)
		}

		c.types[qualifiedName] = info

	case *types.Interface:
		// Include interfaces with methods, or empty interfaces if configured
		if t.NumMethods() > 0 || c.config.IncludeEmptyInterfaces {
			info := &InterfaceInfo{
				Name:    typeName.Name(),
				Package: typeName.Pkg().Name(),
				PkgPath: pkgPath,
				Doc:     doc,
			}

			if bits, hasBits := parseIntDoc(doc, `@variant:bits=(\d+)`); hasBits {
				info.DiscriminatorBits = bits
			}

			for i := 0; i < t.NumMethods(); i++ {
				info.Methods = append(info.Methods, t.Method(i).Name())
			}

			c.interfaces[qualifiedName] = info
		}

	case *types.Basic:
		// Check if it's an enum (int type with constants)
		if t.Info()&types.IsInteger != 0 {
			info := &EnumInfo{
				Name:    typeName.Name(),
				Package: typeName.Pkg().Name(),
				PkgPath: pkgPath,
				Doc:     doc,
				GoType:  typeName.Type(),
			}
			c.enums[qualifiedName] = info
		}
	}
}

func (c *TypeCollector) collectEnumValues(pkg *packages.Package) {
	scope := pkg.Types.Scope()
	for _, name := range scope.Names() {
		obj := scope.Lookup(name)
		if obj == nil {
			continue
		}

		if cnst, ok := obj.(*types.Const); ok {
			// Get the type of this constant
			if named, ok := cnst.Type().(*types.Named); ok {
				// Skip types without a package (builtins)
				if named.Obj().Pkg() == nil {
					continue
				}
				qualifiedName := named.Obj().Pkg().Path() + "." + named.Obj().Name()
				if enumInfo, exists := c.enums[qualifiedName]; exists {
					// Get the constant value
					if val, ok := constantToInt64(cnst); ok {
						enumInfo.Values = append(enumInfo.Values, &EnumValueInfo{
							Name:   cnst.Name(),
							Number: val,
						})
					}
				}
			}
		}
	}
}

func constantToInt64(cnst *types.Const) (int64, bool) {
	if cnst.Val() == nil {
		return 0, false
	}
	val := cnst.Val().String()
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (c *TypeCollector) detectImplementations() {
	for _, iface := range c.interfaces {
		// Get the interface type
		ifaceType := c.findInterfaceType(iface.PkgPath, iface.Name)
		if ifaceType == nil {
			continue
		}

		// Check each collected type for implementation
		for _, typ := range c.types {
			if c.implements(typ.GoType, ifaceType) {
				iface.Implementations = append(iface.Implementations, typ)
				typ.Implements = append(typ.Implements, iface.PkgPath+"."+iface.Name)
			}
		}
	}
}

func (c *TypeCollector) findInterfaceType(pkgPath, name string) *types.Interface {
	for _, pkg := range c.packages {
		if pkg.PkgPath == pkgPath {
			obj := pkg.Types.Scope().Lookup(name)
			if obj != nil {
				if named, ok := obj.Type().(*types.Named); ok {
					if iface, ok := named.Underlying().(*types.Interface); ok {
						return iface
					}
				}
			}
		}
	}
	return nil
}

func (c *TypeCollector) implements(typ types.Type, iface *types.Interface) bool {
	// Check if typ implements iface
	// Need to check both *T and T
	if types.Implements(typ, iface) {
		return true
	}
	if ptr, ok := typ.(*types.Pointer); ok {
		return types.Implements(ptr.Elem(), iface)
	}
	return types.Implements(types.NewPointer(typ), iface)
}

// parseTag parses a `bitproto:"..."` struct tag of the form
// "<kind>,<bits>[,repeated=N][,little_endian][,deprecated]" where kind is
// one of "ubits", "sbits", "fbits". Returns nil if the tag is absent, and
// a StructTag with Skip set if the tag is "-".
func (c *TypeCollector) parseTag(tag string) *StructTag {
	structTag := reflect.StructTag(tag)
	bpTag := structTag.Get("bitproto")

	if bpTag == "" {
		return nil
	}
	if bpTag == "-" {
		return &StructTag{Skip: true}
	}

	st := &StructTag{}
	parts := strings.Split(bpTag, ",")
	for i, part := range parts {
		part = strings.TrimSpace(part)
		switch {
		case i == 0:
			st.Kind = part
		case i == 1:
			if n, err := strconv.Atoi(part); err == nil {
				st.BitCount = n
			}
		case part == "little_endian":
			st.LittleEndian = true
		case part == "deprecated":
			st.Deprecated = true
		case strings.HasPrefix(part, "repeated="):
			if n, err := strconv.Atoi(strings.TrimPrefix(part, "repeated=")); err == nil {
				st.ArrayLen = n
			}
		}
	}

	return st
}

func (c *TypeCollector) matchesPatterns(name string) bool {
	// If no include patterns, include all
	if len(c.config.IncludePatterns) == 0 {
		// Check excludes
		for _, pattern := range c.config.ExcludePatterns {
			if matchGlob(pattern, name) {
				return false
			}
		}
		return true
	}

	// Check includes
	matched := false
	for _, pattern := range c.config.IncludePatterns {
		if matchGlob(pattern, name) {
			matched = true
			break
		}
	}

	if !matched {
		return false
	}

	// Check excludes
	for _, pattern := range c.config.ExcludePatterns {
		if matchGlob(pattern, name) {
			return false
		}
	}

	return true
}

func matchGlob(pattern, name string) bool {
	// Simple glob matching: * matches any sequence
	regexPattern := "^" + strings.ReplaceAll(regexp.QuoteMeta(pattern), `\*`, `.*`) + "$"
	matched, _ := regexp.MatchString(regexPattern, name)
	return matched
}

// parseIntDoc extracts the first capture group of pattern from doc as an int.
func parseIntDoc(doc, pattern string) (int, bool) {
	re := regexp.MustCompile(pattern)
	if matches := re.FindStringSubmatch(doc); len(matches) > 1 {
		if num, err := strconv.Atoi(matches[1]); err == nil {
			return num, true
		}
	}
	return 0, false
}

func (c *TypeCollector) typeToString(t types.Type) string {
	return types.TypeString(t, func(pkg *types.Package) string {
		return pkg.Name()
	})
}

// toSnakeCase converts CamelCase to snake_case.
// It properly handles runs of uppercase letters (e.g., "HTTPServer" -> "http_server").
func toSnakeCase(s string) string {
	if s == "" {
		return ""
	}

	var result strings.Builder
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		// Check if it's uppercase
		if r >= 'A' && r <= 'Z' {
			// Add underscore before uppercase if:
			// - Not at the beginning
			// - Previous char was lowercase, OR
			// - Next char exists and is lowercase (end of acronym)
			if i > 0 {
				prev := runes[i-1]
				isLowerPrev := prev >= 'a' && prev <= 'z'
				isUpperNext := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
				if isLowerPrev || isUpperNext {
					result.WriteByte('_')
				}
			}
			// Convert to lowercase
			result.WriteRune(r + 32)
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}
