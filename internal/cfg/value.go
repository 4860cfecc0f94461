package cfg

import (
	"fmt"

	"weft/internal/ast"
)

// ValueID numbers atoms and registers. It is shared by both so a value id
// is unique within one function build.
type ValueID int

// BlockID numbers labels and lambda labels. Block 0 is the entry block.
type BlockID int

// Expr is the capability the builder needs from the expression algebra:
// the result type and, for applications, the ordered operands.
type Expr interface {
	ResultType() Type
	Operands() []Expr
}

// Negation is implemented by expressions that are syntactically a logical
// negation. Branch uses it to swap targets instead of computing the value.
type Negation interface {
	Expr
	Negated() Expr
}

// Named expressions provide an operator name for printing.
type Named interface {
	OpName() string
}

// ExtensionOp is an opaque syntax-specific operation run by an Extension
// statement.
type ExtensionOp interface {
	Expr
	ExtensionName() string
}

// SourceKind tells where an atom came from.
type SourceKind int

const (
	FromStatement SourceKind = iota
	BlockInput
	LambdaInput
)

// AtomSource is the provenance of an atom. Block is set for LambdaInput.
type AtomSource struct {
	Kind  SourceKind
	Block BlockID
}

func (s AtomSource) String() string {
	switch s.Kind {
	case BlockInput:
		return "input"
	case LambdaInput:
		return fmt.Sprintf("lambda(%d)", s.Block)
	default:
		return "stmt"
	}
}

// Atom is an immutable, uniquely identified value.
type Atom struct {
	ID     ValueID
	Pos    ast.Position
	Type   Type
	Source AtomSource
}

func (a *Atom) ResultType() Type { return a.Type }
func (a *Atom) Operands() []Expr { return nil }

// Register is a typed mutable slot, kept apart from atoms so that SSA
// conversion has a clear boundary to work on.
type Register struct {
	ID   ValueID
	Pos  ast.Position
	Type Type
}

// GlobalVar is a named global storage location.
type GlobalVar struct {
	Name string
	Type Type
}

// Literal is a constant. Flattening it produces an Assign with no
// arguments.
type Literal struct {
	Value interface{}
	Type  Type
}

func (l *Literal) ResultType() Type { return l.Type }
func (l *Literal) Operands() []Expr { return nil }
func (l *Literal) OpName() string   { return "CONST" }

// StringLit returns a String literal.
func StringLit(s string) *Literal {
	return &Literal{Value: s, Type: String}
}

// AssumeJust unwraps an optional value without a runtime check. Only use
// it where presence is already established.
type AssumeJust struct {
	Arg     Expr
	Message string
}

func (a *AssumeJust) ResultType() Type {
	if m, ok := a.Arg.ResultType().(*MaybeType); ok {
		return m.Elem
	}
	return Never
}
func (a *AssumeJust) Operands() []Expr { return []Expr{a.Arg} }
func (a *AssumeJust) OpName() string   { return "FROM_JUST" }

type diverged struct{}

func (diverged) ResultType() Type { return Never }
func (diverged) Operands() []Expr { return nil }

// Diverged is returned by every terminating call. Control never comes back
// along that path, so it type-checks against any expected result.
var Diverged Expr = diverged{}

// IsDiverged reports whether e is the result of a terminating call.
func IsDiverged(e Expr) bool {
	_, ok := e.(diverged)
	return ok
}
