package lower

import (
	"strconv"

	"weft/grammar"
	"weft/internal/ast"
	"weft/internal/cfg"
	"weft/internal/errors"
	"weft/internal/expr"
)

// node is an operand of the precedence climber: either a unary expression
// from the source or a binary operation over two nodes.
type node interface {
	position() ast.Position
}

type leaf struct {
	u *grammar.Unary
}

func (l *leaf) position() ast.Position { return grammar.Position(l.u.Pos) }

type binary struct {
	op          expr.Op
	pos         ast.Position
	left, right node
}

func (b *binary) position() ast.Position { return b.pos }

// tree resolves the precedence of the flat operator chain of e.
func tree(e *grammar.Expr) node {
	p := &climber{ops: e.Ops}
	return p.climb(&leaf{u: e.Left}, 1)
}

type climber struct {
	ops []*grammar.BinOp
	i   int
}

func (p *climber) peek() (expr.Op, bool) {
	if p.i >= len(p.ops) {
		return "", false
	}
	return expr.Op(p.ops[p.i].Operator), true
}

func (p *climber) climb(left node, min int) node {
	for {
		op, ok := p.peek()
		if !ok || op.Precedence() < min {
			return left
		}
		bop := p.ops[p.i]
		p.i++
		var right node = &leaf{u: bop.Right}
		for {
			next, ok := p.peek()
			if !ok || next.Precedence() <= op.Precedence() {
				break
			}
			right = p.climb(right, op.Precedence()+1)
		}
		left = &binary{op: op, pos: grammar.Position(bop.Pos), left: left, right: right}
	}
}

// value lowers e. Statements needed to compute it are emitted right away;
// the returned expression is flattened by whichever builder call consumes
// it. cfg.Diverged is returned when e left the current block.
func (c *function) value(b *cfg.Builder, e *grammar.Expr) cfg.Expr {
	return c.node(b, tree(e))
}

func (c *function) node(b *cfg.Builder, n node) cfg.Expr {
	switch n := n.(type) {
	case *leaf:
		return c.unary(b, n.u)
	case *binary:
		l := c.node(b, n.left)
		if cfg.IsDiverged(l) {
			return l
		}
		r := c.node(b, n.right)
		if cfg.IsDiverged(r) {
			return r
		}
		bin, ok := expr.NewBinary(n.op, l, r)
		if !ok {
			panic(abort(errors.InvalidOperation(string(n.op), l.ResultType().String(), r.ResultType().String(), n.pos)))
		}
		return bin
	}
	return nil
}

func (c *function) unary(b *cfg.Builder, u *grammar.Unary) cfg.Expr {
	v := c.postfix(b, u.Value)
	if u.Operator == "" || cfg.IsDiverged(v) {
		return v
	}
	t := v.ResultType()
	if u.Operator == "!" {
		if !cfg.TypesEqual(cfg.Bool, t) {
			panic(abort(errors.InvalidOperation("!", "", t.String(), grammar.Position(u.Pos))))
		}
		return &expr.Not{Arg: v}
	}
	if !cfg.TypesEqual(cfg.Int, t) {
		panic(abort(errors.InvalidOperation("-", "", t.String(), grammar.Position(u.Pos))))
	}
	if lit, ok := v.(*cfg.Literal); ok {
		return expr.Int(-lit.Value.(int64))
	}
	return &expr.Neg{Arg: v}
}

func (c *function) postfix(b *cfg.Builder, p *grammar.Postfix) cfg.Expr {
	suffixes := p.Suffix
	var v cfg.Expr
	if p.Primary.Ident != nil && len(suffixes) > 0 && suffixes[0].Call != nil {
		v = c.call(b, *p.Primary.Ident, suffixes[0].Call.Args, grammar.Position(p.Pos))
		suffixes = suffixes[1:]
	} else {
		v = c.primary(b, p.Primary)
	}

	for _, s := range suffixes {
		if cfg.IsDiverged(v) {
			return v
		}
		pos := grammar.Position(s.Pos)
		switch {
		case s.Call != nil:
			panic(abort(errors.NotCallable(p.Primary.StringWithIndent(0), v.ResultType().String(), pos)))
		case s.Unwrap != nil:
			optionalElem(v.ResultType(), pos)
			operand, msg := v, *s.Unwrap
			b.WithPosition(pos, func() { v = b.FromJustExpr(operand, msg) })
		case s.Assume != nil:
			optionalElem(v.ResultType(), pos)
			v = b.AssertedJustExpr(v, *s.Assume)
		}
	}
	return v
}

func (c *function) primary(b *cfg.Builder, p *grammar.Primary) cfg.Expr {
	pos := grammar.Position(p.Pos)
	switch {
	case p.If != nil:
		return c.ifValue(b, p.If)
	case p.Match != nil:
		return c.matchValue(b, p.Match)
	case p.Lambda != nil:
		panic(abort(errors.FunctionValue("function literal", pos)))
	case p.Some != nil:
		v := c.unary(b, p.Some)
		if cfg.IsDiverged(v) {
			return v
		}
		return &expr.Just{Arg: v}
	case p.None != nil:
		return &expr.Nothing{Elem: c.resolve(p.None)}
	case p.Bool != nil:
		return expr.Bool(*p.Bool == "true")
	case p.Number != nil:
		n, err := strconv.ParseInt(*p.Number, 10, 64)
		if err != nil {
			panic(abort(errors.SyntaxError("integer literal out of range: "+*p.Number, pos)))
		}
		return expr.Int(n)
	case p.String != nil:
		return expr.Str(*p.String)
	case p.Unit:
		return expr.Unit()
	case p.Global != nil:
		return b.ReadGlobal(c.global(*p.Global, pos))
	case p.Ident != nil:
		return c.load(b, *p.Ident, pos)
	case p.Parens != nil:
		return c.value(b, p.Parens)
	}
	return expr.Unit()
}

// load reads a local. Registers are read into a fresh atom at this point.
func (c *function) load(b *cfg.Builder, name string, pos ast.Position) cfg.Expr {
	bnd := c.scope.lookup(name)
	switch {
	case bnd == nil:
		panic(c.undefined(name, pos))
	case bnd.closure != nil:
		panic(abort(errors.FunctionValue("function '"+name+"'", pos)))
	case bnd.reg != nil:
		return b.ReadRegister(bnd.reg)
	}
	return bnd.atom
}

// condition lowers e and requires a Bool.
func (c *function) condition(b *cfg.Builder, e *grammar.Expr) cfg.Expr {
	v := c.value(b, e)
	if cfg.IsDiverged(v) {
		return v
	}
	if t := v.ResultType(); !cfg.TypesEqual(cfg.Bool, t) {
		panic(abort(errors.TypeMismatch(cfg.Bool.String(), t.String(), grammar.Position(e.Pos))))
	}
	return v
}

// message lowers e and requires a String.
func (c *function) message(b *cfg.Builder, e *grammar.Expr) cfg.Expr {
	v := c.value(b, e)
	if cfg.IsDiverged(v) {
		return v
	}
	if t := v.ResultType(); !cfg.TypesEqual(cfg.String, t) {
		panic(abort(errors.TypeMismatch(cfg.String.String(), t.String(), grammar.Position(e.Pos))))
	}
	return v
}

// ifValue lowers an if used for its value. Without an else arm the value
// is unit.
func (c *function) ifValue(b *cfg.Builder, i *grammar.If) cfg.Expr {
	if arms := i.Arms.Block; arms != nil && arms.Else == nil {
		c.ifStmt(b, i)
		if !b.IsOpen() {
			return cfg.Diverged
		}
		return expr.Unit()
	}

	typ := c.typeOfIf(i)
	cond := c.condition(b, i.Cond)
	if cfg.IsDiverged(cond) {
		return cond
	}

	if v := i.Arms.Value; v != nil {
		return b.Ifte(cond, typ,
			func(b *cfg.Builder) cfg.Expr { return c.value(b, v.Then) },
			func(b *cfg.Builder) cfg.Expr { return c.value(b, v.Else) })
	}
	arms := i.Arms.Block
	then := func(b *cfg.Builder) cfg.Expr { return c.block(b, arms.Then) }
	if arms.Else.If != nil {
		return b.Ifte(cond, typ, then, func(b *cfg.Builder) cfg.Expr { return c.ifValue(b, arms.Else.If) })
	}
	return b.Ifte(cond, typ, then, func(b *cfg.Builder) cfg.Expr { return c.block(b, arms.Else.Block) })
}

// ifStmt lowers an if whose value is not used.
func (c *function) ifStmt(b *cfg.Builder, i *grammar.If) {
	cond := c.condition(b, i.Cond)
	if cfg.IsDiverged(cond) {
		return
	}

	if v := i.Arms.Value; v != nil {
		b.IfteStmt(cond,
			func(b *cfg.Builder) { c.discard(b, c.value(b, v.Then)) },
			func(b *cfg.Builder) { c.discard(b, c.value(b, v.Else)) })
		return
	}
	arms := i.Arms.Block
	then := func(b *cfg.Builder) { c.discard(b, c.block(b, arms.Then)) }
	switch {
	case arms.Else == nil:
		b.WhenCond(cond, then)
	case arms.Else.If != nil:
		b.IfteStmt(cond, then, func(b *cfg.Builder) { c.ifStmt(b, arms.Else.If) })
	default:
		b.IfteStmt(cond, then, func(b *cfg.Builder) { c.discard(b, c.block(b, arms.Else.Block)) })
	}
}

func (c *function) matchValue(b *cfg.Builder, m *grammar.Match) cfg.Expr {
	typ := c.typeOfMatch(m)
	v := c.value(b, m.Value)
	if cfg.IsDiverged(v) {
		return v
	}
	pos := grammar.Position(m.Pos)
	optionalElem(v.ResultType(), pos)

	return b.CaseMaybe(v, typ,
		func(b *cfg.Builder, payload *cfg.Atom) cfg.Expr {
			c.push()
			c.declare(&binding{name: m.Binding, pos: pos, typ: payload.Type, atom: payload})
			r := c.arm(b, m.Some)
			c.pop()
			return r
		},
		func(b *cfg.Builder) cfg.Expr { return c.arm(b, m.None) })
}

func (c *function) matchStmt(b *cfg.Builder, m *grammar.Match) {
	v := c.value(b, m.Value)
	if cfg.IsDiverged(v) {
		return
	}
	pos := grammar.Position(m.Pos)
	optionalElem(v.ResultType(), pos)

	b.CaseMaybeStmt(v,
		func(b *cfg.Builder, payload *cfg.Atom) {
			c.push()
			c.declare(&binding{name: m.Binding, pos: pos, typ: payload.Type, atom: payload})
			c.discard(b, c.arm(b, m.Some))
			c.pop()
		},
		func(b *cfg.Builder) { c.discard(b, c.arm(b, m.None)) })
}

func (c *function) arm(b *cfg.Builder, a *grammar.Arm) cfg.Expr {
	if a.Block != nil {
		return c.block(b, a.Block)
	}
	return c.value(b, a.Expr)
}

// discard evaluates a value nobody reads. Atoms and constants need no
// statement.
func (c *function) discard(b *cfg.Builder, v cfg.Expr) {
	switch v.(type) {
	case *cfg.Atom, *cfg.Literal:
		return
	}
	if cfg.IsDiverged(v) || !b.IsOpen() {
		return
	}
	b.ForceEvaluation(v)
}
