package errors

// Error codes for the weft toolchain
// These codes are used in error messages and in the language server
// so that every layer reports problems the same way.
//
// Error code ranges:
// E0001-E0099: Lowering (name and type resolution) errors
// E0100-E0199: Parser errors
// E0300-E0399: Configuration errors
// E0700-E0799: CFG builder contract violations
// E0800-E0899: Warning codes

const (
	// E0001: Variable resolution errors
	ErrorUndefinedVariable = "E0001"

	// E0002: Function resolution errors
	ErrorUndefinedFunction = "E0002"

	// E0003: Type compatibility errors
	ErrorTypeMismatch = "E0003"

	// E0004: Function return type errors
	ErrorInvalidReturnType = "E0004"

	// E0005: Function call argument errors
	ErrorInvalidArguments = "E0005"

	// E0006: Assignment to something that is not a var
	ErrorInvalidAssignment = "E0006"

	// E0007: Duplicate declaration errors
	ErrorDuplicateDeclaration = "E0007"

	// E0008: Global resolution errors
	ErrorUndefinedGlobal = "E0008"

	// E0009: Unary/Binary operation errors
	ErrorInvalidOperation = "E0009"

	// E0010: Match or unwrap of a non-optional value
	ErrorNotOptional = "E0010"

	// E0011: Unknown type names
	ErrorUnknownType = "E0011"

	// E0012: Function literal or local function used as a value
	ErrorFunctionValue = "E0012"

	// E0013: Call of something that is not a function
	ErrorNotCallable = "E0013"

	// E0014: Tail call of an extension
	ErrorExtensionTailCall = "E0014"

	// Parser errors (reserved range: E0100-E0199)

	// E0100: Syntax error reported by the grammar
	ErrorSyntax = "E0100"

	// Configuration errors (reserved range: E0300-E0399)

	// E0300: Malformed configuration file
	ErrorConfig = "E0300"

	// E0301: Unknown type keyword in an extern declaration
	ErrorUnknownTypeKeyword = "E0301"

	// Builder contract violations (reserved range: E0700-E0799)

	// E0700: Statement or terminator emitted with no open block
	ErrorNoOpenBlock = "E0700"

	// E0701: Block body returned without terminating its block
	ErrorUnterminatedBlock = "E0701"

	// E0702: Atom that was not produced by the current build
	ErrorForeignAtom = "E0702"

	// E0703: Value type does not match the expected type
	ErrorBuilderTypeMismatch = "E0703"

	// E0704: Jump does not match the lambda-ness of its target
	ErrorLambdaMismatch = "E0704"

	// E0705: Result of a terminating call used as a value
	ErrorDivergedOperand = "E0705"

	// E0706: Variant dispatch with the wrong number of cases
	ErrorVariantArity = "E0706"

	// E0707: Call with the wrong number of arguments
	ErrorArgumentCount = "E0707"

	// E0708: Label defined twice
	ErrorLabelReuse = "E0708"

	// E0709: Internal invariant of the builder broken
	ErrorBuilderState = "E0709"

	// E0710: Atom used in a block its definition does not dominate
	ErrorOutOfScopeAtom = "E0710"

	// E0711: Jump or branch to a label whose block was never defined
	ErrorUndefinedLabel = "E0711"

	// Warning codes (reserved range: E0800-E0899)

	// W0001: Unused variable warning
	WarningUnusedVariable = "W0001"

	// W0002: Unreachable code warning
	WarningUnreachableCode = "W0002"
)

// GetErrorDescription returns a human-readable description of the error code
func GetErrorDescription(code string) string {
	switch code {
	case ErrorUndefinedVariable:
		return "Variable is used but not defined in the current scope"
	case ErrorUndefinedFunction:
		return "Function is called but not declared in the file or the configuration"
	case ErrorTypeMismatch:
		return "Expression type does not match expected type"
	case ErrorInvalidReturnType:
		return "Function return value type does not match declared return type"
	case ErrorInvalidArguments:
		return "Function call has invalid arguments"
	case ErrorInvalidAssignment:
		return "Invalid assignment operation"
	case ErrorDuplicateDeclaration:
		return "Duplicate declaration found"
	case ErrorUndefinedGlobal:
		return "Global is used but not declared"
	case ErrorInvalidOperation:
		return "Invalid unary or binary operation"
	case ErrorNotOptional:
		return "Value is not optional"
	case ErrorUnknownType:
		return "Unknown type name"
	case ErrorFunctionValue:
		return "Function used as a value"
	case ErrorNotCallable:
		return "Value called as a function"
	case ErrorExtensionTailCall:
		return "Extension used in a tail call"
	case ErrorSyntax:
		return "Syntax error"
	case ErrorConfig:
		return "Invalid configuration file"
	case ErrorUnknownTypeKeyword:
		return "Unknown type keyword in configuration"
	case ErrorNoOpenBlock:
		return "Statement emitted while no block is open"
	case ErrorUnterminatedBlock:
		return "Block body finished without a terminator"
	case ErrorForeignAtom:
		return "Atom does not belong to the current build"
	case ErrorBuilderTypeMismatch:
		return "Value type does not match the type the builder expects"
	case ErrorLambdaMismatch:
		return "Jump does not match the input arity of its target"
	case ErrorDivergedOperand:
		return "Result of a terminating call used as a value"
	case ErrorVariantArity:
		return "Variant dispatch has the wrong number of cases"
	case ErrorArgumentCount:
		return "Call has the wrong number of arguments"
	case ErrorLabelReuse:
		return "Label defined more than once"
	case ErrorBuilderState:
		return "Builder invariant broken"
	case ErrorOutOfScopeAtom:
		return "Atom used where its definition is not in scope"
	case ErrorUndefinedLabel:
		return "Control transferred to a block that was never defined"
	case WarningUnusedVariable:
		return "Variable is declared but never used"
	case WarningUnreachableCode:
		return "Code is unreachable"
	default:
		return "Unknown error code"
	}
}

// IsWarning returns true if the error code represents a warning rather than an error
func IsWarning(code string) bool {
	return code >= "E0800" && code < "E0900" || len(code) > 0 && code[0] == 'W'
}

// IsContractViolation reports whether the code belongs to the builder range.
func IsContractViolation(code string) bool {
	return code >= "E0700" && code < "E0800"
}

// GetErrorCategory returns the category of the error based on its code
func GetErrorCategory(code string) string {
	switch {
	case code >= "E0001" && code < "E0100":
		return "Lowering"
	case code >= "E0100" && code < "E0200":
		return "Parser"
	case code >= "E0300" && code < "E0400":
		return "Configuration"
	case code >= "E0700" && code < "E0800":
		return "CFG Builder"
	case code >= "E0800" && code < "E0900":
		return "Warning"
	case len(code) > 0 && code[0] == 'W':
		return "Warning"
	default:
		return "Unknown"
	}
}
