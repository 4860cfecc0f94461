package directory

import (
	goerrors "errors"

	"github.com/hashicorp/hcl/v2"

	"weft/internal/ast"
	"weft/internal/errors"
)

// Problems converts an error returned by LoadFile or Parse into compiler
// errors so that configuration problems are reported like source ones.
func Problems(err error) []errors.CompilerError {
	if err == nil {
		return nil
	}

	var ce *errors.CompilerError
	if goerrors.As(err, &ce) {
		return []errors.CompilerError{*ce}
	}

	var diags hcl.Diagnostics
	if !goerrors.As(err, &diags) {
		return []errors.CompilerError{errors.ConfigError(err.Error(), ast.Position{})}
	}

	var problems []errors.CompilerError
	for _, d := range diags {
		if d.Severity != hcl.DiagError {
			continue
		}
		var pos ast.Position
		if d.Subject != nil {
			pos = rangePosition(*d.Subject)
		}
		if kw, ok := d.Extra.(unknownKeyword); ok {
			problems = append(problems, errors.UnknownTypeKeyword(string(kw), pos))
			continue
		}
		msg := d.Summary
		if d.Detail != "" {
			msg += ": " + d.Detail
		}
		problems = append(problems, errors.ConfigError(msg, pos))
	}
	return problems
}
