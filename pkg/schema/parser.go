package schema

import (
	"fmt"
	"strconv"
)

// Parser parses schema source code into an AST.
type Parser struct {
	lexer    *Lexer
	current  Token
	previous Token
	errors   []ParseError
	comments []*Comment // Collected comments
}

// ParseError represents a parsing error.
type ParseError struct {
	Position Position
	Message  string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Position.Filename, e.Position.Line, e.Position.Column, e.Message)
}

// NewParser creates a new parser for the given input.
func NewParser(filename, input string) *Parser {
	p := &Parser{
		lexer: NewLexer(filename, input),
	}
	p.advance() // Load first token
	return p
}

// Parse parses the entire schema file.
func (p *Parser) Parse() (*Schema, []ParseError) {
	schema := &Schema{
		Position: p.current.Position,
	}

	// Collect leading comments
	p.collectComments()

	// Parse package declaration (optional)
	if p.check(TokenPackage) {
		pkg, err := p.parsePackage()
		if err != nil {
			p.errors = append(p.errors, *err)
		} else {
			schema.Package = pkg
		}
	}

	// Parse imports
	for p.check(TokenImport) {
		imp, err := p.parseImport()
		if err != nil {
			p.errors = append(p.errors, *err)
			p.synchronize()
		} else {
			schema.Imports = append(schema.Imports, imp)
		}
	}

	// Parse top-level options
	for p.check(TokenOption) {
		opt, err := p.parseOption()
		if err != nil {
			p.errors = append(p.errors, *err)
			p.synchronize()
		} else {
			schema.Options = append(schema.Options, opt)
		}
	}

	// Parse protocols, enums, and variants
	for !p.check(TokenEOF) {
		p.collectComments()

		switch {
		case p.check(TokenProtocol):
			proto, err := p.parseProtocol()
			if err != nil {
				p.errors = append(p.errors, *err)
				p.synchronize()
			} else {
				schema.Protocols = append(schema.Protocols, proto)
			}
		case p.check(TokenEnum):
			enum, err := p.parseEnum()
			if err != nil {
				p.errors = append(p.errors, *err)
				p.synchronize()
			} else {
				schema.Enums = append(schema.Enums, enum)
			}
		case p.check(TokenVariant):
			variant, err := p.parseVariant()
			if err != nil {
				p.errors = append(p.errors, *err)
				p.synchronize()
			} else {
				schema.Variants = append(schema.Variants, variant)
			}
		case p.check(TokenComment), p.check(TokenDocComment):
			p.advance()
		case p.check(TokenEOF):
			break
		default:
			p.errors = append(p.errors, ParseError{
				Position: p.current.Position,
				Message:  fmt.Sprintf("unexpected token: %s", p.current.Type),
			})
			p.advance()
		}
	}

	schema.Comments = p.comments
	return schema, p.errors
}

// parsePackage parses: 'package' identifier ';'
func (p *Parser) parsePackage() (*Package, *ParseError) {
	startPos := p.current.Position
	p.advance() // consume 'package'

	if !p.check(TokenIdent) {
		return nil, p.error("expected package name")
	}
	name := p.current.Value
	p.advance()

	endPos := p.current.Position
	if !p.consume(TokenSemicolon, "expected ';' after package name") {
		return nil, p.error("expected ';' after package name")
	}

	return &Package{
		Position: startPos,
		EndPos:   endPos,
		Name:     name,
	}, nil
}

// parseImport parses: 'import' string ('as' identifier)? ';'
func (p *Parser) parseImport() (*Import, *ParseError) {
	startPos := p.current.Position
	p.advance() // consume 'import'

	if !p.check(TokenString) {
		return nil, p.error("expected import path string")
	}
	path := p.current.Value
	p.advance()

	var alias string
	if p.check(TokenAs) {
		p.advance()
		if !p.check(TokenIdent) {
			return nil, p.error("expected alias name after 'as'")
		}
		alias = p.current.Value
		p.advance()
	}

	endPos := p.current.Position
	if !p.consume(TokenSemicolon, "expected ';' after import") {
		return nil, p.error("expected ';' after import")
	}

	return &Import{
		Position: startPos,
		EndPos:   endPos,
		Path:     path,
		Alias:    alias,
	}, nil
}

// parseOption parses: 'option' identifier '=' value ';'
func (p *Parser) parseOption() (*Option, *ParseError) {
	startPos := p.current.Position
	p.advance() // consume 'option'

	if !p.check(TokenIdent) {
		return nil, p.error("expected option name")
	}
	name := p.current.Value
	p.advance()

	if !p.consume(TokenEquals, "expected '=' after option name") {
		return nil, p.error("expected '=' after option name")
	}

	value, err := p.parseValue()
	if err != nil {
		return nil, err
	}

	endPos := p.current.Position
	if !p.consume(TokenSemicolon, "expected ';' after option value") {
		return nil, p.error("expected ';' after option value")
	}

	return &Option{
		Position: startPos,
		EndPos:   endPos,
		Name:     name,
		Value:    value,
	}, nil
}

// parseValue parses a value (string, number, bool, or list).
func (p *Parser) parseValue() (Value, *ParseError) {
	startPos := p.current.Position

	switch p.current.Type {
	case TokenString:
		value := p.current.Value
		endPos := p.current.Position
		endPos.Column += len(p.current.Value) + 2 // Account for quotes
		p.advance()
		return &StringValue{
			Position: startPos,
			EndPos:   endPos,
			Value:    value,
		}, nil

	case TokenInt, TokenFloat:
		value := p.current.Value
		isFloat := p.current.Type == TokenFloat
		endPos := p.current.Position
		endPos.Column += len(value)
		p.advance()
		return &NumberValue{
			Position: startPos,
			EndPos:   endPos,
			Value:    value,
			IsFloat:  isFloat,
		}, nil

	case TokenTrue:
		endPos := p.current.Position
		endPos.Column += 4
		p.advance()
		return &BoolValue{
			Position: startPos,
			EndPos:   endPos,
			Value:    true,
		}, nil

	case TokenFalse:
		endPos := p.current.Position
		endPos.Column += 5
		p.advance()
		return &BoolValue{
			Position: startPos,
			EndPos:   endPos,
			Value:    false,
		}, nil

	case TokenLBracket:
		return p.parseListValue()

	default:
		return nil, p.error("expected value")
	}
}

// parseListValue parses: '[' value (',' value)* ']'
func (p *Parser) parseListValue() (*ListValue, *ParseError) {
	startPos := p.current.Position
	p.advance() // consume '['

	var values []Value
	for !p.check(TokenRBracket) && !p.check(TokenEOF) {
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		values = append(values, val)

		if !p.check(TokenRBracket) {
			if !p.consume(TokenComma, "expected ',' or ']'") {
				return nil, p.error("expected ',' or ']'")
			}
		}
	}

	endPos := p.current.Position
	if !p.consume(TokenRBracket, "expected ']'") {
		return nil, p.error("expected ']'")
	}

	return &ListValue{
		Position: startPos,
		EndPos:   endPos,
		Values:   values,
	}, nil
}

// parseProtocol parses:
//
//	'protocol' identifier ('[' 'little_endian' ']')? '{' (option|field)* '}'
func (p *Parser) parseProtocol() (*Protocol, *ParseError) {
	docComments := p.getDocComments()
	startPos := p.current.Position
	p.advance() // consume 'protocol'

	if !p.check(TokenIdent) {
		return nil, p.error("expected protocol name")
	}
	name := p.current.Value
	p.advance()

	littleEndian := false
	if p.check(TokenLBracket) {
		p.advance()
		if !p.check(TokenLittleEndian) {
			return nil, p.error("expected 'little_endian' in protocol attribute")
		}
		p.advance()
		littleEndian = true
		if !p.consume(TokenRBracket, "expected ']'") {
			return nil, p.error("expected ']'")
		}
	}

	if !p.consume(TokenLBrace, "expected '{' after protocol name") {
		return nil, p.error("expected '{' after protocol name")
	}

	var fields []*Field
	var options []*Option
	for !p.check(TokenRBrace) && !p.check(TokenEOF) {
		p.collectComments()

		if p.check(TokenOption) {
			opt, err := p.parseOption()
			if err != nil {
				return nil, err
			}
			options = append(options, opt)
		} else if p.check(TokenRBrace) {
			break
		} else {
			field, err := p.parseField()
			if err != nil {
				return nil, err
			}
			fields = append(fields, field)
		}
	}

	endPos := p.current.Position
	if !p.consume(TokenRBrace, "expected '}'") {
		return nil, p.error("expected '}'")
	}

	return &Protocol{
		Position:     startPos,
		EndPos:       endPos,
		Name:         name,
		Fields:       fields,
		Options:      options,
		Comments:     docComments,
		LittleEndian: littleEndian,
	}, nil
}

// parseField parses:
//
//	'deprecated'? ('repeated' '(' int ')')? identifier ':' kind '(' int ')' fieldOptions? ';'
func (p *Parser) parseField() (*Field, *ParseError) {
	docComments := p.getDocComments()
	startPos := p.current.Position

	var deprecated bool
	if p.check(TokenDeprecated) {
		deprecated = true
		p.advance()
	}

	arrayLen := 0
	if p.check(TokenRepeated) {
		p.advance()
		if !p.consume(TokenLParen, "expected '(' after 'repeated'") {
			return nil, p.error("expected '(' after 'repeated'")
		}
		if !p.check(TokenInt) {
			return nil, p.error("expected array length")
		}
		n, err := strconv.Atoi(p.current.Value)
		if err != nil || n <= 0 {
			return nil, p.error("invalid array length")
		}
		arrayLen = n
		p.advance()
		if !p.consume(TokenRParen, "expected ')'") {
			return nil, p.error("expected ')'")
		}
	}

	if !p.check(TokenIdent) {
		return nil, p.error("expected field name")
	}
	name := p.current.Value
	p.advance()

	if !p.consume(TokenColon, "expected ':' after field name") {
		return nil, p.error("expected ':' after field name")
	}

	kind, err := p.parseFieldKind()
	if err != nil {
		return nil, err
	}

	if !p.consume(TokenLParen, "expected '(' after field kind") {
		return nil, p.error("expected '(' after field kind")
	}
	if !p.check(TokenInt) {
		return nil, p.error("expected bit count")
	}
	bits, convErr := strconv.Atoi(p.current.Value)
	if convErr != nil || bits <= 0 {
		return nil, p.error("invalid bit count")
	}
	p.advance()
	if !p.consume(TokenRParen, "expected ')' after bit count") {
		return nil, p.error("expected ')' after bit count")
	}

	var options []*Option
	littleEndian := false
	littleEndianSet := false
	if p.check(TokenLBracket) {
		opts, err := p.parseFieldOptions()
		if err != nil {
			return nil, err
		}
		options = opts
		for _, o := range options {
			if o.Name == "little_endian" {
				if bv, ok := o.Value.(*BoolValue); ok {
					littleEndian = bv.Value
					littleEndianSet = true
				}
			}
		}
	}

	endPos := p.current.Position
	if !p.consume(TokenSemicolon, "expected ';' after field") {
		return nil, p.error("expected ';' after field")
	}

	return &Field{
		Position:        startPos,
		EndPos:          endPos,
		Name:            name,
		Kind:            kind,
		BitCount:        bits,
		ArrayLen:        arrayLen,
		LittleEndian:    littleEndian,
		LittleEndianSet: littleEndianSet,
		Options:         options,
		Comments:        docComments,
		Deprecated:      deprecated,
	}, nil
}

// parseFieldKind parses one of 'ubits', 'sbits', 'fbits'.
func (p *Parser) parseFieldKind() (FieldKind, *ParseError) {
	switch p.current.Type {
	case TokenUBits:
		p.advance()
		return KindUnsigned, nil
	case TokenSBits:
		p.advance()
		return KindSigned, nil
	case TokenFBits:
		p.advance()
		return KindFloat, nil
	default:
		return 0, p.error("expected one of 'ubits', 'sbits', 'fbits'")
	}
}

// parseFieldOptions parses: '[' (identifier '=' value)* ']'
func (p *Parser) parseFieldOptions() ([]*Option, *ParseError) {
	p.advance() // consume '['

	var options []*Option
	for !p.check(TokenRBracket) && !p.check(TokenEOF) {
		startPos := p.current.Position

		if !p.check(TokenIdent) && !p.check(TokenLittleEndian) {
			return nil, p.error("expected option name")
		}
		name := p.current.Value
		if p.check(TokenLittleEndian) {
			name = "little_endian"
		}
		p.advance()

		if !p.consume(TokenEquals, "expected '=' after option name") {
			return nil, p.error("expected '=' after option name")
		}

		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}

		options = append(options, &Option{
			Position: startPos,
			EndPos:   p.previous.Position,
			Name:     name,
			Value:    value,
		})

		if !p.check(TokenRBracket) && !p.check(TokenComma) {
			break
		}
		if p.check(TokenComma) {
			p.advance()
		}
	}

	if !p.consume(TokenRBracket, "expected ']'") {
		return nil, p.error("expected ']'")
	}

	return options, nil
}

// parseEnum parses: 'enum' identifier '{' enumValue* '}'
func (p *Parser) parseEnum() (*Enum, *ParseError) {
	docComments := p.getDocComments()
	startPos := p.current.Position
	p.advance() // consume 'enum'

	if !p.check(TokenIdent) {
		return nil, p.error("expected enum name")
	}
	name := p.current.Value
	p.advance()

	if !p.consume(TokenLBrace, "expected '{' after enum name") {
		return nil, p.error("expected '{' after enum name")
	}

	var values []*EnumValue
	var options []*Option
	for !p.check(TokenRBrace) && !p.check(TokenEOF) {
		p.collectComments()

		if p.check(TokenOption) {
			opt, err := p.parseOption()
			if err != nil {
				return nil, err
			}
			options = append(options, opt)
		} else if p.check(TokenRBrace) {
			break
		} else {
			val, err := p.parseEnumValue()
			if err != nil {
				return nil, err
			}
			values = append(values, val)
		}
	}

	endPos := p.current.Position
	if !p.consume(TokenRBrace, "expected '}'") {
		return nil, p.error("expected '}'")
	}

	return &Enum{
		Position: startPos,
		EndPos:   endPos,
		Name:     name,
		Values:   values,
		Options:  options,
		Comments: docComments,
	}, nil
}

// parseEnumValue parses: identifier '=' number ';'
func (p *Parser) parseEnumValue() (*EnumValue, *ParseError) {
	docComments := p.getDocComments()
	startPos := p.current.Position

	if !p.check(TokenIdent) {
		return nil, p.error("expected enum value name")
	}
	name := p.current.Value
	p.advance()

	if !p.consume(TokenEquals, "expected '=' after enum value name") {
		return nil, p.error("expected '=' after enum value name")
	}

	if !p.check(TokenInt) {
		return nil, p.error("expected enum value number")
	}
	num, err := strconv.Atoi(p.current.Value)
	if err != nil {
		return nil, p.error("invalid enum value number")
	}
	p.advance()

	endPos := p.current.Position
	if !p.consume(TokenSemicolon, "expected ';' after enum value") {
		return nil, p.error("expected ';' after enum value")
	}

	return &EnumValue{
		Position: startPos,
		EndPos:   endPos,
		Name:     name,
		Number:   num,
		Comments: docComments,
	}, nil
}

// parseVariant parses:
//
//	'variant' identifier '{' ('option' 'bits' '=' int ';' | int '=' identifier ';')* '}'
func (p *Parser) parseVariant() (*Variant, *ParseError) {
	docComments := p.getDocComments()
	startPos := p.current.Position
	p.advance() // consume 'variant'

	if !p.check(TokenIdent) {
		return nil, p.error("expected variant name")
	}
	name := p.current.Value
	p.advance()

	if !p.consume(TokenLBrace, "expected '{' after variant name") {
		return nil, p.error("expected '{' after variant name")
	}

	var cases []*VariantCase
	var options []*Option
	discBits := 0
	for !p.check(TokenRBrace) && !p.check(TokenEOF) {
		p.collectComments()

		if p.check(TokenOption) {
			opt, err := p.parseOption()
			if err != nil {
				return nil, err
			}
			options = append(options, opt)
			if opt.Name == "bits" {
				if nv, ok := opt.Value.(*NumberValue); ok {
					if n, convErr := strconv.Atoi(nv.Value); convErr == nil {
						discBits = n
					}
				}
			}
		} else if p.check(TokenRBrace) {
			break
		} else {
			c, err := p.parseVariantCase()
			if err != nil {
				return nil, err
			}
			cases = append(cases, c)
		}
	}

	endPos := p.current.Position
	if !p.consume(TokenRBrace, "expected '}'") {
		return nil, p.error("expected '}'")
	}

	return &Variant{
		Position:          startPos,
		EndPos:            endPos,
		Name:              name,
		DiscriminatorBits: discBits,
		Cases:             cases,
		Options:           options,
		Comments:          docComments,
	}, nil
}

// parseVariantCase parses: number '=' identifier ';'
func (p *Parser) parseVariantCase() (*VariantCase, *ParseError) {
	docComments := p.getDocComments()
	startPos := p.current.Position

	if !p.check(TokenInt) {
		return nil, p.error("expected discriminator value")
	}
	id, err := strconv.Atoi(p.current.Value)
	if err != nil {
		return nil, p.error("invalid discriminator value")
	}
	p.advance()

	if !p.consume(TokenEquals, "expected '=' after discriminator value") {
		return nil, p.error("expected '=' after discriminator value")
	}

	if !p.check(TokenIdent) {
		return nil, p.error("expected protocol name")
	}
	protoName := p.current.Value
	p.advance()

	endPos := p.current.Position
	if !p.consume(TokenSemicolon, "expected ';' after variant case") {
		return nil, p.error("expected ';' after variant case")
	}

	return &VariantCase{
		Position: startPos,
		EndPos:   endPos,
		ID:       id,
		Protocol: protoName,
		Comments: docComments,
	}, nil
}

// Helper methods

func (p *Parser) advance() {
	p.previous = p.current
	p.current = p.lexer.Next()

	// Skip regular comments, but remember doc comments
	for p.current.Type == TokenComment {
		p.current = p.lexer.Next()
	}
}

func (p *Parser) check(typ TokenType) bool {
	return p.current.Type == typ
}

func (p *Parser) consume(typ TokenType, msg string) bool {
	if p.check(typ) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) error(msg string) *ParseError {
	return &ParseError{
		Position: p.current.Position,
		Message:  msg,
	}
}

// synchronize skips tokens until we find a likely sync point.
func (p *Parser) synchronize() {
	for !p.check(TokenEOF) {
		if p.previous.Type == TokenSemicolon || p.previous.Type == TokenRBrace {
			return
		}
		switch p.current.Type {
		case TokenPackage, TokenImport, TokenProtocol, TokenEnum, TokenVariant:
			return
		}
		p.advance()
	}
}

// collectComments collects doc comments preceding the current position.
func (p *Parser) collectComments() {
	for p.current.Type == TokenDocComment || p.current.Type == TokenComment {
		if p.current.Type == TokenDocComment {
			p.comments = append(p.comments, &Comment{
				Position: p.current.Position,
				EndPos:   p.current.Position,
				Text:     p.current.Value,
				IsDoc:    true,
			})
		}
		p.current = p.lexer.Next()
	}
}

// getDocComments returns recent doc comments that apply to the next declaration.
func (p *Parser) getDocComments() []*Comment {
	result := make([]*Comment, len(p.comments))
	copy(result, p.comments)
	p.comments = nil
	return result
}

// ParseFile is a convenience function that parses a schema file.
func ParseFile(filename, input string) (*Schema, []ParseError) {
	parser := NewParser(filename, input)
	return parser.Parse()
}
