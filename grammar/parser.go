package grammar

import (
	"fmt"
	"os"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"weft/internal/ast"
)

var parser = participle.MustBuild[Program](
	participle.Lexer(WeftLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
	participle.UseLookahead(3),
)

func ParseFile(path string) (*Program, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return ParseString(path, string(source))
}

// ParseString parses a weft source file held in memory.
func ParseString(filename, source string) (*Program, error) {
	return parser.ParseString(filename, source)
}

// Position converts a lexer position to the position used by the rest of
// the compiler.
func Position(pos lexer.Position) ast.Position {
	return ast.Position{
		Filename: pos.Filename,
		Offset:   pos.Offset,
		Line:     pos.Line,
		Column:   pos.Column,
	}
}

// ErrorPosition extracts the location and bare message of a parse error.
// ok is false for errors that carry no position, such as I/O failures.
func ErrorPosition(err error) (pos ast.Position, message string, ok bool) {
	pe, ok := err.(participle.Error)
	if !ok {
		return ast.Position{}, err.Error(), false
	}
	return Position(pe.Position()), pe.Message(), true
}
