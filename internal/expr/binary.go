package expr

import "weft/internal/cfg"

// Op is a binary operator.
type Op string

const (
	Add    Op = "+"
	Sub    Op = "-"
	Mul    Op = "*"
	Div    Op = "/"
	Mod    Op = "%"
	Eq     Op = "=="
	Ne     Op = "!="
	Lt     Op = "<"
	Le     Op = "<="
	Gt     Op = ">"
	Ge     Op = ">="
	And    Op = "&&"
	Or     Op = "||"
	Concat Op = "++"
)

var opNames = map[Op]string{
	Add: "ADD", Sub: "SUB", Mul: "MUL", Div: "DIV", Mod: "MOD",
	Eq: "EQ", Ne: "NE", Lt: "LT", Le: "LE", Gt: "GT", Ge: "GE",
	And: "AND", Or: "OR", Concat: "CONCAT",
}

// Precedence returns the binding strength of op; higher binds tighter.
func (op Op) Precedence() int {
	switch op {
	case Or:
		return 1
	case And:
		return 2
	case Eq, Ne:
		return 3
	case Lt, Le, Gt, Ge:
		return 4
	case Add, Sub, Concat:
		return 5
	case Mul, Div, Mod:
		return 6
	}
	return 0
}

// ResultFor returns the result type of op applied to operands of types l
// and r, or false if op does not accept them.
func (op Op) ResultFor(l, r cfg.Type) (cfg.Type, bool) {
	switch op {
	case Add:
		if isInt(l) && isInt(r) {
			return cfg.Int, true
		}
		if isString(l) && isString(r) {
			return cfg.String, true
		}
	case Sub, Mul, Div, Mod:
		if isInt(l) && isInt(r) {
			return cfg.Int, true
		}
	case Lt, Le, Gt, Ge:
		if isInt(l) && isInt(r) {
			return cfg.Bool, true
		}
	case Eq, Ne:
		if cfg.TypesEqual(l, r) {
			if _, fn := l.(*cfg.FuncType); !fn {
				return cfg.Bool, true
			}
		}
	case And, Or:
		if isBool(l) && isBool(r) {
			return cfg.Bool, true
		}
	case Concat:
		if isString(l) && isString(r) {
			return cfg.String, true
		}
	}
	return nil, false
}

// Binary applies a binary operator. Build it with NewBinary so that the
// result type is known.
type Binary struct {
	Op    Op
	Left  cfg.Expr
	Right cfg.Expr
	typ   cfg.Type
}

// NewBinary returns l op r, or false when the operand types do not fit op.
// String addition is normalized to Concat.
func NewBinary(op Op, l, r cfg.Expr) (*Binary, bool) {
	typ, ok := op.ResultFor(l.ResultType(), r.ResultType())
	if !ok {
		return nil, false
	}
	if op == Add && isString(typ) {
		op = Concat
	}
	return &Binary{Op: op, Left: l, Right: r, typ: typ}, true
}

func (b *Binary) ResultType() cfg.Type { return b.typ }
func (b *Binary) Operands() []cfg.Expr { return []cfg.Expr{b.Left, b.Right} }
func (b *Binary) OpName() string       { return opNames[b.Op] }

func isInt(t cfg.Type) bool {
	_, ok := t.(*cfg.IntType)
	return ok
}

func isBool(t cfg.Type) bool {
	_, ok := t.(*cfg.BoolType)
	return ok
}

func isString(t cfg.Type) bool {
	_, ok := t.(*cfg.StringType)
	return ok
}
