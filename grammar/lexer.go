package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

var WeftLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		// Comments
		{"Comment", `//[^\n]*`, nil},

		// String literals, unquoted by the parser
		{"String", `"(\\.|[^"\\])*"`, nil},

		// Keywords and Identifiers
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},

		// Integer literals
		{"Integer", `[0-9]+`, nil},

		// Operators, longest first
		{"Operator", `(\+\+|!!|\|\||&&|==|!=|<=|>=|=>|->|[-+*/%<>=!])`, nil},

		// Punctuation
		{"Punctuation", `[{}():,;$]`, nil},

		// Whitespace
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})

// Tokens lexes source without parsing it. Whitespace is dropped. When
// lexing fails the tokens read before the failure are returned with the
// error.
func Tokens(filename, source string) ([]lexer.Token, error) {
	lex, err := WeftLexer.LexString(filename, source)
	if err != nil {
		return nil, err
	}
	whitespace := WeftLexer.Symbols()["Whitespace"]
	var tokens []lexer.Token
	for {
		t, err := lex.Next()
		if err != nil {
			return tokens, err
		}
		if t.EOF() {
			return tokens, nil
		}
		if t.Type != whitespace {
			tokens = append(tokens, t)
		}
	}
}
