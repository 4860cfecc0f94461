package lsp

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"weft/grammar"
)

// SemanticTokenTypes is the token type legend advertised to clients.
var SemanticTokenTypes = []string{
	"type",
	"function",
	"variable",
	"parameter",
	"keyword",
	"number",
	"string",
	"comment",
	"operator",
}

// SemanticTokenModifiers is the modifier legend advertised to clients.
var SemanticTokenModifiers = []string{
	"declaration",
	"readonly",
	"static",
}

var keywordList = []string{
	"fn", "global", "let", "var", "while", "unless", "print", "assert",
	"return", "fail", "tail", "if", "then", "else", "match", "some", "none",
	"true", "false",
}

var keywords = toSet(keywordList)

var typeNames = toSet([]string{"bool", "int", "string", "unit", "maybe"})

var symbols = grammar.WeftLexer.Symbols()

// SemanticToken represents a single LSP semantic token entry
// Line and StartChar are 0-based positions
// TokenType is an index into SemanticTokenTypes
// TokenModifiers is a bitmask based on SemanticTokenModifiers
type SemanticToken struct {
	Line           uint32
	StartChar      uint32
	Length         uint32
	TokenType      int
	TokenModifiers int
}

// collectSemanticTokens classifies the lexer tokens of source. It works
// from the token stream alone so that files that do not parse still get
// highlighted up to the first lexing error.
func collectSemanticTokens(filename, source string) []SemanticToken {
	toks, err := grammar.Tokens(filename, source)
	if err != nil {
		log.Debugf("lexing %s stopped early: %s", filename, err)
	}

	c := &classifier{toks: toks, params: make(map[string]bool)}
	var tokens []SemanticToken
	for i := range toks {
		tokens = append(tokens, c.classify(i)...)
	}
	return tokens
}

type classifier struct {
	toks []lexer.Token

	// inParams is set between the parentheses of a parameter list
	inParams bool
	// params holds the parameter names of the enclosing function and of
	// its function literals
	params map[string]bool
}

func (c *classifier) value(i int) string {
	if i < 0 || i >= len(c.toks) {
		return ""
	}
	return c.toks[i].Value
}

func (c *classifier) is(i int, name string) bool {
	return i >= 0 && i < len(c.toks) && c.toks[i].Type == symbols[name]
}

func (c *classifier) classify(i int) []SemanticToken {
	tok := c.toks[i]
	switch {
	case c.is(i, "Comment"):
		return makeToken(tok, "comment")
	case c.is(i, "String"):
		return makeToken(tok, "string")
	case c.is(i, "Integer"):
		return makeToken(tok, "number")
	case c.is(i, "Operator"):
		return makeToken(tok, "operator")
	case c.is(i, "Punctuation"):
		switch tok.Value {
		case "(":
			prev := c.value(i - 1)
			if prev == "fn" || c.value(i-2) == "fn" {
				c.inParams = true
			}
		case ")":
			c.inParams = false
		}
		return nil
	case !c.is(i, "Ident"):
		return nil
	}

	name := tok.Value
	prev, next := c.value(i-1), c.value(i+1)
	switch {
	case keywords[name]:
		return makeToken(tok, "keyword")
	case typeNames[name]:
		return makeToken(tok, "type")
	case prev == "fn":
		c.params = make(map[string]bool)
		return makeToken(tok, "function", "declaration")
	case c.inParams && next == ":":
		c.params[name] = true
		return makeToken(tok, "parameter", "declaration", "readonly")
	case prev == "let":
		return makeToken(tok, "variable", "declaration", "readonly")
	case prev == "var":
		return makeToken(tok, "variable", "declaration")
	case prev == "global":
		return makeToken(tok, "variable", "declaration", "static")
	case prev == "$":
		return makeToken(tok, "variable", "static")
	case prev == "some" && next == "=>":
		return makeToken(tok, "variable", "declaration", "readonly")
	case next == "(" || prev == "tail":
		return makeToken(tok, "function")
	case c.params[name]:
		return makeToken(tok, "parameter")
	}
	return makeToken(tok, "variable")
}

func makeToken(tok lexer.Token, tokenType string, modifiers ...string) []SemanticToken {
	if tok.Pos.Line < 1 || tok.Pos.Column < 1 || strings.Contains(tok.Value, "\n") {
		return nil
	}
	typeIndex := indexOf(tokenType, SemanticTokenTypes)
	if typeIndex < 0 {
		return nil
	}

	mask := 0
	for _, m := range modifiers {
		if idx := indexOf(m, SemanticTokenModifiers); idx >= 0 {
			mask |= 1 << idx
		}
	}

	return []SemanticToken{{
		Line:           uint32(tok.Pos.Line - 1),
		StartChar:      uint32(tok.Pos.Column - 1),
		Length:         uint32(len(tok.Value)),
		TokenType:      typeIndex,
		TokenModifiers: mask,
	}}
}

func indexOf(target string, list []string) int {
	for i, s := range list {
		if s == target {
			return i
		}
	}
	return -1
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
