package lower

import (
	"weft/grammar"
	"weft/internal/ast"
	"weft/internal/cfg"
	"weft/internal/errors"
)

// The functions in this file compute the type of a source expression
// without emitting anything. Ifte and CaseMaybe need the type of their
// merge value before the branches are lowered. Names bound inside the
// expression go into typing scopes, which are discarded afterwards.

func (c *function) typeOf(e *grammar.Expr) cfg.Type {
	return c.typeOfNode(tree(e))
}

func (c *function) typeOfNode(n node) cfg.Type {
	switch n := n.(type) {
	case *leaf:
		return c.typeOfUnary(n.u)
	case *binary:
		l := c.typeOfNode(n.left)
		if isNever(l) {
			return cfg.Never
		}
		r := c.typeOfNode(n.right)
		if isNever(r) {
			return cfg.Never
		}
		t, ok := n.op.ResultFor(l, r)
		if !ok {
			panic(abort(errors.InvalidOperation(string(n.op), l.String(), r.String(), n.pos)))
		}
		return t
	}
	return nil
}

func (c *function) typeOfUnary(u *grammar.Unary) cfg.Type {
	t := c.typeOfPostfix(u.Value)
	if u.Operator == "" || isNever(t) {
		return t
	}
	want := cfg.Int
	if u.Operator == "!" {
		want = cfg.Bool
	}
	if !cfg.TypesEqual(want, t) {
		panic(abort(errors.InvalidOperation(u.Operator, "", t.String(), grammar.Position(u.Pos))))
	}
	return want
}

func (c *function) typeOfPostfix(p *grammar.Postfix) cfg.Type {
	suffixes := p.Suffix
	var t cfg.Type
	if p.Primary.Ident != nil && len(suffixes) > 0 && suffixes[0].Call != nil {
		t = c.callee(*p.Primary.Ident, grammar.Position(p.Pos)).fn.Ret
		suffixes = suffixes[1:]
	} else {
		t = c.typeOfPrimary(p.Primary)
	}
	for _, s := range suffixes {
		if isNever(t) {
			return t
		}
		pos := grammar.Position(s.Pos)
		if s.Call != nil {
			panic(abort(errors.NotCallable(p.Primary.StringWithIndent(0), t.String(), pos)))
		}
		t = optionalElem(t, pos)
	}
	return t
}

func (c *function) typeOfPrimary(p *grammar.Primary) cfg.Type {
	pos := grammar.Position(p.Pos)
	switch {
	case p.If != nil:
		return c.typeOfIf(p.If)
	case p.Match != nil:
		return c.typeOfMatch(p.Match)
	case p.Lambda != nil:
		panic(abort(errors.FunctionValue("function literal", pos)))
	case p.Some != nil:
		t := c.typeOfUnary(p.Some)
		if isNever(t) {
			return t
		}
		return &cfg.MaybeType{Elem: t}
	case p.None != nil:
		return &cfg.MaybeType{Elem: c.resolve(p.None)}
	case p.Bool != nil:
		return cfg.Bool
	case p.Number != nil:
		return cfg.Int
	case p.String != nil:
		return cfg.String
	case p.Unit:
		return cfg.Unit
	case p.Global != nil:
		return c.global(*p.Global, pos).Type
	case p.Ident != nil:
		bnd := c.scope.lookup(*p.Ident)
		if bnd == nil {
			panic(c.undefined(*p.Ident, pos))
		}
		if bnd.closure != nil {
			panic(abort(errors.FunctionValue("function '"+bnd.name+"'", pos)))
		}
		return bnd.typ
	case p.Parens != nil:
		return c.typeOf(p.Parens)
	}
	return cfg.Unit
}

func (c *function) typeOfIf(i *grammar.If) cfg.Type {
	pos := grammar.Position(i.Pos)
	if v := i.Arms.Value; v != nil {
		return join(c.typeOf(v.Then), c.typeOf(v.Else), pos)
	}
	arms := i.Arms.Block
	if arms.Else == nil {
		return cfg.Unit
	}
	then := c.typeOfBlock(arms.Then)
	if arms.Else.If != nil {
		return join(then, c.typeOfIf(arms.Else.If), pos)
	}
	return join(then, c.typeOfBlock(arms.Else.Block), pos)
}

func (c *function) typeOfMatch(m *grammar.Match) cfg.Type {
	pos := grammar.Position(m.Pos)
	elem := optionalElem(c.typeOf(m.Value), pos)
	if isNever(elem) {
		return elem
	}
	c.pushTyping()
	c.scope.bind(&binding{name: m.Binding, pos: pos, typ: elem})
	some := c.typeOfArm(m.Some)
	c.pop()
	return join(some, c.typeOfArm(m.None), pos)
}

func (c *function) typeOfArm(a *grammar.Arm) cfg.Type {
	if a.Block != nil {
		return c.typeOfBlock(a.Block)
	}
	return c.typeOf(a.Expr)
}

// typeOfBlock is the type of the value of blk, Never if blk always leaves
// through a return, fail or tail statement.
func (c *function) typeOfBlock(blk *grammar.Block) cfg.Type {
	c.pushTyping()
	defer c.pop()

	stmts, tail := split(blk)
	for _, s := range stmts {
		pos := grammar.Position(s.Pos)
		switch {
		case s.Let != nil:
			c.scope.bind(c.typeOfLet(s.Let))
		case s.Var != nil:
			c.scope.bind(&binding{name: s.Var.Name, pos: pos, typ: c.resolve(s.Var.Type)})
		case s.Return != nil, s.Fail != nil, s.Tail != nil:
			return cfg.Never
		case s.Expr != nil:
			if isNever(c.typeOf(s.Expr.Expr)) {
				return cfg.Never
			}
		}
	}
	if tail == nil {
		return cfg.Unit
	}
	return c.typeOf(tail.Expr)
}

func (c *function) typeOfLet(let *grammar.LetStmt) *binding {
	pos := grammar.Position(let.Pos)
	if lambda := lambdaOf(let.Value); lambda != nil {
		fn := &cfg.FuncType{Ret: c.resolve(lambda.Return)}
		for _, p := range lambda.Params {
			fn.Args = append(fn.Args, c.resolve(p.Type))
		}
		return &binding{name: let.Name, pos: pos, typ: fn, closure: &closure{fn: fn}}
	}
	if let.Type != nil {
		return &binding{name: let.Name, pos: pos, typ: c.resolve(let.Type)}
	}
	return &binding{name: let.Name, pos: pos, typ: c.typeOf(let.Value)}
}

func (c *function) global(name string, pos ast.Position) *cfg.GlobalVar {
	g, ok := c.globals[name]
	if !ok {
		panic(abort(errors.UndefinedGlobal(name, pos)))
	}
	return g
}

func optionalElem(t cfg.Type, pos ast.Position) cfg.Type {
	if isNever(t) {
		return t
	}
	m, ok := t.(*cfg.MaybeType)
	if !ok {
		panic(abort(errors.NotOptional(t.String(), pos)))
	}
	return m.Elem
}

// join is the type of a value coming from either of two branches.
func join(a, b cfg.Type, pos ast.Position) cfg.Type {
	switch {
	case isNever(a):
		return b
	case isNever(b):
		return a
	case cfg.TypesEqual(a, b):
		return a
	}
	panic(abort(errors.TypeMismatch(a.String(), b.String(), pos)))
}

func isNever(t cfg.Type) bool {
	_, ok := t.(*cfg.NeverType)
	return ok
}

// bare returns the primary e consists of, or nil if e applies any
// operator or suffix to it.
func bare(e *grammar.Expr) *grammar.Primary {
	if len(e.Ops) > 0 || e.Left.Operator != "" || len(e.Left.Value.Suffix) > 0 {
		return nil
	}
	return e.Left.Value.Primary
}

// lambdaOf returns the function literal e consists of, if any.
func lambdaOf(e *grammar.Expr) *grammar.Lambda {
	if p := bare(e); p != nil {
		return p.Lambda
	}
	return nil
}
