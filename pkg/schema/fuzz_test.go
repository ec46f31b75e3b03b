//go:build go1.18

package schema

import (
	"testing"
)

// FuzzSchemaParser tests that the schema parser never panics on arbitrary input.
func FuzzSchemaParser(f *testing.F) {
	// Seed corpus with valid schema snippets
	f.Add(`protocol Foo { bar: ubits(8); }`)
	f.Add(`protocol Empty {}`)
	f.Add(`enum Status { UNKNOWN = 0; ACTIVE = 1; }`)
	f.Add(`variant Animal { option bits = 4; 1 = Dog; }`)
	f.Add(`package example;`)
	f.Add(`
package example;

protocol User {
    id: ubits(32) [required];
    flag: ubits(1);
    repeated(8) samples: sbits(12);
    scale: sbits(16) [little_endian = true];
}
`)
	f.Add(`
protocol Dog { tag: ubits(8); }
protocol Cat { tag: ubits(8); }

variant Animal {
    option bits = 4;
    1 = Dog;
    2 = Cat;
}
`)
	f.Add(`protocol Frame [little_endian] { word: ubits(16); }`)

	// Add edge cases
	f.Add(``)
	f.Add(`{`)
	f.Add(`}`)
	f.Add(`protocol`)
	f.Add(`protocol {`)
	f.Add(`protocol Foo`)
	f.Add(`protocol Foo {`)
	f.Add(`protocol Foo { bar }`)
	f.Add(`protocol Foo { bar: }`)
	f.Add(`protocol Foo { bar: ubits }`)
	f.Add(`protocol Foo { bar: ubits( }`)
	f.Add(`protocol Foo { bar: ubits() }`)
	f.Add(`protocol Foo { bar: ubits(abc); }`)
	f.Add(`variant Foo { option bits = ; }`)
	f.Add(`variant Foo { = Bar; }`)

	f.Fuzz(func(t *testing.T, input string) {
		// Parser should never panic on any input
		p := NewParser("fuzz.bitproto", input)
		_, _ = p.Parse()
	})
}

// FuzzLexer tests that the lexer never panics on arbitrary input.
func FuzzLexer(f *testing.F) {
	f.Add(`protocol Foo { bar: ubits(8); }`)
	f.Add(`"hello world"`)
	f.Add(`123`)
	f.Add(`0x1234`)
	f.Add(`identifier`)
	f.Add(`// comment`)
	f.Add(`/* multi-line comment */`)
	f.Add(`[little_endian = true]`)

	f.Fuzz(func(t *testing.T, input string) {
		l := NewLexer("fuzz.bitproto", input)
		// Consume all tokens - should never panic
		for {
			tok := l.Next()
			if tok.Type == TokenEOF || tok.Type == TokenError {
				break
			}
		}
	})
}
