package lsp

import (
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"weft/grammar"
	"weft/internal/ast"
	"weft/internal/errors"
)

// ConvertParseError transforms a parser failure into an LSP diagnostic.
// Failures without a position, such as I/O errors, are reported on the
// first line.
func ConvertParseError(err error) []protocol.Diagnostic {
	pos, msg, ok := grammar.ErrorPosition(err)
	if !ok {
		pos = ast.Position{Line: 1, Column: 1}
	}
	return convertAll([]errors.CompilerError{errors.SyntaxError(msg, pos)}, "weft-parser")
}

// ConvertProblems transforms lowering errors and warnings into LSP
// diagnostics.
func ConvertProblems(problems []errors.CompilerError) []protocol.Diagnostic {
	return convertAll(problems, "weft")
}

func convertAll(problems []errors.CompilerError, source string) []protocol.Diagnostic {
	diagnostics := []protocol.Diagnostic{}
	for _, p := range problems {
		diagnostics = append(diagnostics, convertProblem(p, source))
	}
	return diagnostics
}

func convertProblem(p errors.CompilerError, source string) protocol.Diagnostic {
	line := max(p.Position.Line-1, 0)
	start := max(p.Position.Column-1, 0)
	severity := protocol.DiagnosticSeverityError
	if p.IsWarning() {
		severity = protocol.DiagnosticSeverityWarning
	}

	var message strings.Builder
	message.WriteString(p.Message)
	for _, s := range p.Suggestions {
		message.WriteString("\nhelp: " + s.Message)
	}
	if p.HelpText != "" {
		message.WriteString("\nhelp: " + p.HelpText)
	}

	diagnostic := protocol.Diagnostic{
		Range: protocol.Range{
			Start: protocol.Position{Line: uint32(line), Character: uint32(start)},
			End:   protocol.Position{Line: uint32(line), Character: uint32(start + max(p.Length, 1))},
		},
		Severity: &severity,
		Source:   ptrString(source),
		Message:  message.String(),
	}
	if p.Code != "" {
		diagnostic.Code = &protocol.IntegerOrString{Value: p.Code}
	}
	return diagnostic
}
