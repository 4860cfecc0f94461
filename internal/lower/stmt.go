package lower

import (
	"weft/grammar"
	"weft/internal/cfg"
	"weft/internal/errors"
	"weft/internal/expr"
)

// split drops comments and separates the value expression of blk, a last
// expression statement without semicolon, from the statements before it.
func split(blk *grammar.Block) ([]*grammar.Statement, *grammar.ExprStmt) {
	var stmts []*grammar.Statement
	for _, s := range blk.Statements {
		if s.Comment == nil {
			stmts = append(stmts, s)
		}
	}
	if n := len(stmts); n > 0 {
		if last := stmts[n-1].Expr; last != nil && !last.Semi {
			return stmts[:n-1], last
		}
	}
	return stmts, nil
}

// block lowers blk in a scope of its own and returns its value: the value
// expression, unit without one, or cfg.Diverged when control left the
// block. Statements after a terminating one are skipped with a warning.
func (c *function) block(b *cfg.Builder, blk *grammar.Block) cfg.Expr {
	c.push()
	v := c.statements(b, blk)
	c.pop()
	return v
}

func (c *function) statements(b *cfg.Builder, blk *grammar.Block) cfg.Expr {
	stmts, tail := split(blk)
	for _, s := range stmts {
		pos := grammar.Position(s.Pos)
		if !b.IsOpen() {
			c.report(errors.UnreachableCode(pos))
			return cfg.Diverged
		}
		b.SetPosition(pos)
		c.statement(b, s)
	}
	if !b.IsOpen() {
		if tail != nil {
			c.report(errors.UnreachableCode(grammar.Position(tail.Pos)))
		}
		return cfg.Diverged
	}
	if tail == nil {
		return expr.Unit()
	}
	b.SetPosition(grammar.Position(tail.Pos))
	v := c.value(b, tail.Expr)
	if !b.IsOpen() {
		return cfg.Diverged
	}
	return v
}

func (c *function) statement(b *cfg.Builder, s *grammar.Statement) {
	switch {
	case s.Let != nil:
		c.let(b, s.Let)
	case s.Var != nil:
		c.varDecl(b, s.Var)
	case s.While != nil:
		c.while(b, s.While)
	case s.Unless != nil:
		cond := c.condition(b, s.Unless.Cond)
		if cfg.IsDiverged(cond) {
			return
		}
		b.UnlessCond(cond, func(b *cfg.Builder) { c.discard(b, c.block(b, s.Unless.Body)) })
	case s.Print != nil:
		v := c.value(b, s.Print.Value)
		if cfg.IsDiverged(v) {
			return
		}
		if !cfg.TypesEqual(cfg.String, v.ResultType()) {
			v = &expr.Show{Arg: v}
		}
		b.Print(v)
	case s.Assert != nil:
		cond := c.condition(b, s.Assert.Cond)
		if cfg.IsDiverged(cond) {
			return
		}
		msg := c.message(b, s.Assert.Message)
		if cfg.IsDiverged(msg) {
			return
		}
		b.Assert(cond, msg)
	case s.Return != nil:
		c.returnStmt(b, s.Return)
	case s.Fail != nil:
		msg := c.message(b, s.Fail.Message)
		if cfg.IsDiverged(msg) {
			return
		}
		b.ReportError(msg)
	case s.Tail != nil:
		c.tailCall(b, s.Tail)
	case s.GlobalAssign != nil:
		c.writeGlobal(b, s.GlobalAssign)
	case s.Assign != nil:
		c.assign(b, s.Assign)
	case s.Expr != nil:
		c.exprStmt(b, s.Expr)
	}
}

func (c *function) let(b *cfg.Builder, let *grammar.LetStmt) {
	pos := grammar.Position(let.Pos)
	if lambda := lambdaOf(let.Value); lambda != nil {
		if let.Type != nil {
			panic(abort(errors.TypeMismatch(c.resolve(let.Type).String(), "a function", grammar.Position(let.Value.Pos))))
		}
		cl := c.closure(b, let.Name, lambda)
		c.declare(&binding{name: let.Name, pos: pos, typ: cl.fn, closure: cl})
		return
	}

	v := c.value(b, let.Value)
	if cfg.IsDiverged(v) {
		return
	}
	t := v.ResultType()
	if let.Type != nil {
		want := c.resolve(let.Type)
		if !cfg.Assignable(want, t) {
			panic(abort(errors.TypeMismatch(want.String(), t.String(), grammar.Position(let.Value.Pos))))
		}
	}
	c.declare(&binding{name: let.Name, pos: pos, typ: t, atom: b.ForceEvaluation(v)})
}

func (c *function) varDecl(b *cfg.Builder, decl *grammar.VarStmt) {
	typ := c.resolve(decl.Type)
	v := c.value(b, decl.Value)
	if cfg.IsDiverged(v) {
		return
	}
	if t := v.ResultType(); !cfg.Assignable(typ, t) {
		panic(abort(errors.TypeMismatch(typ.String(), t.String(), grammar.Position(decl.Value.Pos))))
	}
	reg := b.NewRegister(typ)
	b.SetRegister(reg, v)
	c.declare(&binding{name: decl.Name, pos: grammar.Position(decl.Pos), typ: typ, reg: reg})
}

func (c *function) assign(b *cfg.Builder, a *grammar.AssignStmt) {
	pos := grammar.Position(a.Pos)
	bnd := c.scope.lookup(a.Name)
	if bnd == nil {
		panic(c.undefined(a.Name, pos))
	}
	if bnd.reg == nil {
		panic(abort(errors.InvalidAssignment(a.Name, pos)))
	}
	v := c.value(b, a.Value)
	if cfg.IsDiverged(v) {
		return
	}
	if t := v.ResultType(); !cfg.Assignable(bnd.typ, t) {
		panic(abort(errors.TypeMismatch(bnd.typ.String(), t.String(), grammar.Position(a.Value.Pos))))
	}
	b.SetRegister(bnd.reg, v)
}

func (c *function) writeGlobal(b *cfg.Builder, a *grammar.GlobalAssignStmt) {
	g := c.global(a.Name, grammar.Position(a.Pos))
	v := c.value(b, a.Value)
	if cfg.IsDiverged(v) {
		return
	}
	if t := v.ResultType(); !cfg.Assignable(g.Type, t) {
		panic(abort(errors.TypeMismatch(g.Type.String(), t.String(), grammar.Position(a.Value.Pos))))
	}
	b.WriteGlobal(g, v)
}

func (c *function) while(b *cfg.Builder, w *grammar.WhileStmt) {
	b.While(
		func(b *cfg.Builder) cfg.Expr { return c.condition(b, w.Cond) },
		func(b *cfg.Builder) { c.discard(b, c.block(b, w.Body)) })
}

func (c *function) returnStmt(b *cfg.Builder, r *grammar.ReturnStmt) {
	pos := grammar.Position(r.Pos)
	if r.Value == nil {
		if !cfg.TypesEqual(c.ret, cfg.Unit) {
			panic(abort(errors.InvalidReturn(c.name, c.ret.String(), cfg.Unit.String(), pos)))
		}
		b.Return(expr.Unit())
		return
	}
	v := c.value(b, r.Value)
	if cfg.IsDiverged(v) {
		return
	}
	if t := v.ResultType(); !cfg.Assignable(c.ret, t) {
		panic(abort(errors.InvalidReturn(c.name, c.ret.String(), t.String(), grammar.Position(r.Value.Pos))))
	}
	b.Return(v)
}

func (c *function) tailCall(b *cfg.Builder, t *grammar.TailStmt) {
	pos := grammar.Position(t.Pos)
	target := c.callee(t.Callee, pos)
	if target.extension {
		panic(abort(errors.ExtensionTailCall(t.Callee, pos)))
	}
	if !cfg.TypesEqual(c.ret, target.fn.Ret) {
		panic(abort(errors.InvalidReturn(c.name, c.ret.String(), target.fn.Ret.String(), pos)))
	}
	args, ok := c.arguments(b, target, t.Args, pos)
	if !ok {
		return
	}
	b.TailCall(expr.Ref(target.handle), args...)
}

// exprStmt lowers an expression evaluated for its effects. A bare if or
// match is lowered without a merge value.
func (c *function) exprStmt(b *cfg.Builder, s *grammar.ExprStmt) {
	if p := bare(s.Expr); p != nil {
		switch {
		case p.If != nil:
			c.ifStmt(b, p.If)
			return
		case p.Match != nil:
			c.matchStmt(b, p.Match)
			return
		}
	}
	c.discard(b, c.value(b, s.Expr))
}
