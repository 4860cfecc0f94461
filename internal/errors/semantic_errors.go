package errors

import (
	"fmt"
	"strings"

	"weft/internal/ast"
)

// SemanticErrorBuilder provides a fluent interface for creating semantic errors with suggestions
type SemanticErrorBuilder struct {
	err CompilerError
}

// NewSemanticError creates a new semantic error builder
func NewSemanticError(code, message string, pos ast.Position) *SemanticErrorBuilder {
	return &SemanticErrorBuilder{
		err: CompilerError{
			Level:    Error,
			Code:     code,
			Message:  message,
			Position: pos,
			Length:   1,
		},
	}
}

// NewSemanticWarning creates a new semantic warning builder
func NewSemanticWarning(code, message string, pos ast.Position) *SemanticErrorBuilder {
	return &SemanticErrorBuilder{
		err: CompilerError{
			Level:    Warning,
			Code:     code,
			Message:  message,
			Position: pos,
			Length:   1,
		},
	}
}

// WithLength sets the length of the error span
func (b *SemanticErrorBuilder) WithLength(length int) *SemanticErrorBuilder {
	b.err.Length = length
	return b
}

// WithSuggestion adds a suggestion to the error
func (b *SemanticErrorBuilder) WithSuggestion(message string) *SemanticErrorBuilder {
	b.err.Suggestions = append(b.err.Suggestions, Suggestion{Message: message})
	return b
}

// WithReplacement adds a suggestion with replacement text
func (b *SemanticErrorBuilder) WithReplacement(message, replacement string, pos ast.Position, length int) *SemanticErrorBuilder {
	b.err.Suggestions = append(b.err.Suggestions, Suggestion{
		Message:     message,
		Replacement: replacement,
		Position:    pos,
		Length:      length,
	})
	return b
}

// WithNote adds a note to the error
func (b *SemanticErrorBuilder) WithNote(note string) *SemanticErrorBuilder {
	b.err.Notes = append(b.err.Notes, note)
	return b
}

// WithHelp adds help text to the error
func (b *SemanticErrorBuilder) WithHelp(help string) *SemanticErrorBuilder {
	b.err.HelpText = help
	return b
}

// Build returns the completed compiler error
func (b *SemanticErrorBuilder) Build() CompilerError {
	return b.err
}

// Common lowering error constructors with suggestions

// UndefinedVariable creates an error for undefined variables with suggestions
func UndefinedVariable(name string, pos ast.Position, similarNames []string) CompilerError {
	builder := NewSemanticError(ErrorUndefinedVariable, fmt.Sprintf("undefined variable '%s'", name), pos).
		WithLength(len(name))

	if len(similarNames) > 0 {
		builder = withDidYouMean(builder, similarNames)
	} else {
		builder = builder.WithSuggestion("make sure the variable is declared before use").
			WithNote("variables are declared with 'let' or 'var', or are function parameters")
	}

	return builder.Build()
}

// UndefinedFunction creates an error for undefined functions with suggestions
func UndefinedFunction(name string, pos ast.Position, similarNames []string) CompilerError {
	builder := NewSemanticError(ErrorUndefinedFunction, fmt.Sprintf("function '%s' is not declared", name), pos).
		WithLength(len(name))

	if len(similarNames) > 0 {
		builder = withDidYouMean(builder, similarNames)
	}

	return builder.WithHelp("functions must be defined in the file or declared as an extern in weft.hcl").Build()
}

// UndefinedGlobal creates an error for a '$name' reference with no declaration
func UndefinedGlobal(name string, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorUndefinedGlobal, fmt.Sprintf("undefined global '$%s'", name), pos).
		WithLength(len(name) + 1).
		WithSuggestion(fmt.Sprintf("declare it at top level: global %s: <type>;", name)).
		Build()
}

// TypeMismatch creates an error for type mismatches
func TypeMismatch(expected, actual string, pos ast.Position) CompilerError {
	builder := NewSemanticError(ErrorTypeMismatch, fmt.Sprintf("type mismatch: expected %s, found %s", expected, actual), pos)

	switch {
	case expected == "Bool" && actual != "Bool":
		builder = builder.WithSuggestion("use a comparison operator to create a boolean value")
	case strings.HasPrefix(actual, "Maybe<") && !strings.HasPrefix(expected, "Maybe<"):
		builder = builder.WithSuggestion("unwrap the optional value with 'e! \"message\"' or a 'match'")
	case strings.HasPrefix(expected, "Maybe<") && !strings.HasPrefix(actual, "Maybe<"):
		builder = builder.WithSuggestion("wrap the value with 'some'")
	}

	return builder.Build()
}

// InvalidReturn creates an error for a return value of the wrong type
func InvalidReturn(functionName, expected, actual string, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorInvalidReturnType,
		fmt.Sprintf("function '%s' returns %s, found %s", functionName, expected, actual), pos).
		WithNote("the last expression of a function body is its return value").
		Build()
}

// InvalidArguments creates an error for function call argument mismatches
func InvalidArguments(functionName string, expected, actual int, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorInvalidArguments,
		fmt.Sprintf("function '%s' expects %d arguments, got %d", functionName, expected, actual), pos).
		WithSuggestion(fmt.Sprintf("provide exactly %d argument(s)", expected)).
		WithHelp("check the function signature for the correct number of parameters").
		Build()
}

// InvalidAssignment creates an error for assignments to immutable bindings
func InvalidAssignment(name string, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorInvalidAssignment, fmt.Sprintf("cannot assign to '%s'", name), pos).
		WithLength(len(name)).
		WithSuggestion(fmt.Sprintf("declare it with 'var %s: <type> = ...' to make it mutable", name)).
		WithNote("'let' bindings and parameters are immutable").
		Build()
}

// DuplicateDeclaration creates an error for duplicate declarations
func DuplicateDeclaration(name string, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorDuplicateDeclaration, fmt.Sprintf("duplicate declaration: %s", name), pos).
		WithSuggestion(fmt.Sprintf("rename the duplicate '%s' to a unique name", name)).
		WithNote("identifiers must be unique within their scope").
		Build()
}

// InvalidOperation creates an error for operators applied to the wrong types
func InvalidOperation(op, leftType, rightType string, pos ast.Position) CompilerError {
	msg := fmt.Sprintf("invalid operation: %s %s %s", leftType, op, rightType)
	if leftType == "" {
		msg = fmt.Sprintf("invalid operation: %s%s", op, rightType)
	}
	builder := NewSemanticError(ErrorInvalidOperation, msg, pos)

	switch op {
	case "+", "-", "*", "/", "%":
		builder = builder.WithSuggestion("arithmetic operations require Int operands")
	case "&&", "||", "!":
		builder = builder.WithSuggestion("logical operations require Bool operands")
	case "==", "!=", "<", "<=", ">", ">=":
		builder = builder.WithSuggestion("comparison operands must have the same type")
	}

	return builder.Build()
}

// NotOptional creates an error for a match or unwrap of a non-optional value
func NotOptional(actual string, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorNotOptional, fmt.Sprintf("expected an optional value, found %s", actual), pos).
		WithNote("only 'maybe' values can be matched with some/none or unwrapped with '!'").
		Build()
}

// UnknownType creates an error for a type name the lowering does not know
func UnknownType(name string, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorUnknownType, fmt.Sprintf("unknown type '%s'", name), pos).
		WithLength(len(name)).
		WithHelp("types are bool, int, string, unit and 'maybe <type>'").
		Build()
}

// FunctionValue creates an error for a function used where a value is
// expected
func FunctionValue(what string, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorFunctionValue, fmt.Sprintf("%s cannot be used as a value", what), pos).
		WithHelp("bind function literals with 'let name = fn (...) -> type { ... };' and call them by name").
		Build()
}

// NotCallable creates an error for a call of a non-function value
func NotCallable(name, actual string, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorNotCallable, fmt.Sprintf("'%s' has type %s and cannot be called", name, actual), pos).
		WithLength(len(name)).
		Build()
}

// ExtensionTailCall creates an error for 'tail' applied to an extension
func ExtensionTailCall(name string, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorExtensionTailCall, fmt.Sprintf("extension '%s' cannot be tail called", name), pos).
		WithSuggestion(fmt.Sprintf("call it and return the result: return %s(...);", name)).
		Build()
}

// UnreachableCode creates a warning for statements after a return or fail
func UnreachableCode(pos ast.Position) CompilerError {
	return NewSemanticWarning(WarningUnreachableCode, "unreachable code", pos).
		WithSuggestion("remove this code").
		WithNote("code after 'return', 'fail' or 'tail' is never executed").
		Build()
}

// UnusedVariable creates a warning for let bindings that are never read
func UnusedVariable(name string, pos ast.Position) CompilerError {
	return NewSemanticWarning(WarningUnusedVariable, fmt.Sprintf("variable '%s' is declared but never used", name), pos).
		WithLength(len(name)).
		WithSuggestion(fmt.Sprintf("prefix with underscore to silence: '_%s'", name)).
		Build()
}

// SyntaxError wraps a parser failure
func SyntaxError(message string, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorSyntax, message, pos).Build()
}

// ConfigError wraps a configuration failure
func ConfigError(message string, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorConfig, message, pos).Build()
}

// UnknownTypeKeyword wraps a type keyword in the configuration file that
// does not name a weft type
func UnknownTypeKeyword(keyword string, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorUnknownTypeKeyword, fmt.Sprintf("unknown type keyword '%s'", keyword), pos).
		WithLength(len(keyword)).
		WithHelp("type keywords are bool, int, string, unit and maybe_<keyword>").
		Build()
}

// Helper functions

func withDidYouMean(builder *SemanticErrorBuilder, similar []string) *SemanticErrorBuilder {
	if len(similar) == 1 {
		return builder.WithSuggestion(fmt.Sprintf("did you mean '%s'?", similar[0]))
	}
	suggestions := strings.Join(similar, "', '")
	return builder.WithSuggestion(fmt.Sprintf("did you mean one of: '%s'?", suggestions))
}

// FindSimilarNames returns the candidates within edit distance 2 of target.
func FindSimilarNames(target string, candidates []string) []string {
	var similar []string

	for _, candidate := range candidates {
		if candidate != target && levenshteinDistance(target, candidate) <= 2 && len(candidate) > 2 {
			similar = append(similar, candidate)
		}
	}

	return similar
}

// Simple Levenshtein distance implementation for finding similar names
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
	}

	for i := 0; i <= len(a); i++ {
		matrix[i][0] = i
	}
	for j := 0; j <= len(b); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}

			matrix[i][j] = min3(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(a)][len(b)]
}

func min3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}
