package cfg

import "weft/internal/errors"

// fallInto ends a branch body that returned v: if the body left its block
// open the value is routed to merge, otherwise the body already diverged.
func (b *Builder) fallInto(merge LambdaLabel, v Expr, reached *bool) Expr {
	if !b.IsOpen() {
		return Diverged
	}
	*reached = true
	return b.JumpToLambda(merge, v)
}

func (b *Builder) fallThrough(merge Label, reached *bool) Expr {
	if !b.IsOpen() {
		return Diverged
	}
	*reached = true
	return b.Jump(merge)
}

// Ifte evaluates then or els depending on cond and continues in a merge
// block whose input is the value of the branch taken. typ is the type of
// that value. If both branches diverge no merge block is opened and Ifte
// itself returns Diverged.
func (b *Builder) Ifte(cond Expr, typ Type, then, els func(b *Builder) Expr) Expr {
	merge := b.NewLambdaLabel(typ)
	tl, fl := b.NewLabel(), b.NewLabel()
	reached := false

	b.DefineBlock(tl, func(b *Builder) Expr { return b.fallInto(merge, then(b), &reached) })
	b.DefineBlock(fl, func(b *Builder) Expr { return b.fallInto(merge, els(b), &reached) })

	if !reached {
		return b.Branch(cond, tl, fl)
	}
	return b.ContinueLambda(merge, func(b *Builder) Expr { return b.Branch(cond, tl, fl) })
}

// IfteStmt is Ifte for branches that produce no value. Afterwards the
// builder is positioned in the merge block, or has no open block if both
// branches diverged.
func (b *Builder) IfteStmt(cond Expr, then, els func(b *Builder)) {
	merge := b.NewLabel()
	tl, fl := b.NewLabel(), b.NewLabel()
	reached := false

	b.DefineBlock(tl, func(b *Builder) Expr {
		then(b)
		return b.fallThrough(merge, &reached)
	})
	b.DefineBlock(fl, func(b *Builder) Expr {
		els(b)
		return b.fallThrough(merge, &reached)
	})

	if !reached {
		b.Branch(cond, tl, fl)
		return
	}
	b.Continue(merge, func(b *Builder) Expr { return b.Branch(cond, tl, fl) })
}

// WhenCond runs body only when cond holds. The skip edge targets the merge
// block directly.
func (b *Builder) WhenCond(cond Expr, body func(b *Builder)) {
	b.oneSided(cond, body, false)
}

// UnlessCond runs body only when cond does not hold.
func (b *Builder) UnlessCond(cond Expr, body func(b *Builder)) {
	b.oneSided(cond, body, true)
}

func (b *Builder) oneSided(cond Expr, body func(b *Builder), negate bool) {
	merge := b.NewLabel()
	bl := b.NewLabel()
	reached := false

	b.DefineBlock(bl, func(b *Builder) Expr {
		body(b)
		return b.fallThrough(merge, &reached)
	})

	b.Continue(merge, func(b *Builder) Expr {
		if negate {
			return b.Branch(cond, merge, bl)
		}
		return b.Branch(cond, bl, merge)
	})
}

func (b *Builder) maybeAtom(value Expr, context string) (*Atom, *MaybeType) {
	v := b.flatten(value)
	mt, ok := v.Type.(*MaybeType)
	if !ok {
		b.violate(errors.BuilderTypeMismatch(context, "Maybe<_>", typeName(v.Type), b.pos))
	}
	return v, mt
}

// CaseMaybe dispatches on an optional value. onJust receives the payload;
// both handlers produce a value of type typ which becomes the input of the
// shared merge block.
func (b *Builder) CaseMaybe(value Expr, typ Type, onJust func(b *Builder, payload *Atom) Expr, onNothing func(b *Builder) Expr) Expr {
	v, mt := b.maybeAtom(value, "case on optional")
	merge := b.NewLambdaLabel(typ)
	jl := b.NewLambdaLabel(mt.Elem)
	nl := b.NewLabel()
	reached := false

	b.DefineLambdaBlock(jl, func(b *Builder, payload *Atom) Expr {
		return b.fallInto(merge, onJust(b, payload), &reached)
	})
	b.DefineBlock(nl, func(b *Builder) Expr { return b.fallInto(merge, onNothing(b), &reached) })

	if !reached {
		return b.BranchMaybe(v, jl, nl)
	}
	return b.ContinueLambda(merge, func(b *Builder) Expr { return b.BranchMaybe(v, jl, nl) })
}

// CaseMaybeStmt is CaseMaybe for handlers that produce no value.
func (b *Builder) CaseMaybeStmt(value Expr, onJust func(b *Builder, payload *Atom), onNothing func(b *Builder)) {
	v, mt := b.maybeAtom(value, "case on optional")
	merge := b.NewLabel()
	jl := b.NewLambdaLabel(mt.Elem)
	nl := b.NewLabel()
	reached := false

	b.DefineLambdaBlock(jl, func(b *Builder, payload *Atom) Expr {
		onJust(b, payload)
		return b.fallThrough(merge, &reached)
	})
	b.DefineBlock(nl, func(b *Builder) Expr {
		onNothing(b)
		return b.fallThrough(merge, &reached)
	})

	if !reached {
		b.BranchMaybe(v, jl, nl)
		return
	}
	b.Continue(merge, func(b *Builder) Expr { return b.BranchMaybe(v, jl, nl) })
}

// CaseVariant dispatches on a variant with one handler per case. Handlers
// produce a value of type typ which becomes the input of the merge block.
func (b *Builder) CaseVariant(value Expr, typ Type, handlers []func(b *Builder, payload *Atom) Expr) Expr {
	v := b.flatten(value)
	vt, ok := v.Type.(*VariantType)
	if !ok {
		b.violate(errors.BuilderTypeMismatch("case on variant", "Variant<_>", typeName(v.Type), b.pos))
	}
	if len(handlers) != len(vt.Cases) {
		b.violate(errors.VariantArity(len(vt.Cases), len(handlers), b.pos))
	}
	merge := b.NewLambdaLabel(typ)
	labels := make([]LambdaLabel, len(handlers))
	for i := range handlers {
		labels[i] = b.NewLambdaLabel(vt.Cases[i])
	}
	reached := false
	for i, h := range handlers {
		h := h
		b.DefineLambdaBlock(labels[i], func(b *Builder, payload *Atom) Expr {
			return b.fallInto(merge, h(b, payload), &reached)
		})
	}

	if !reached {
		return b.BranchVariant(v, labels)
	}
	return b.ContinueLambda(merge, func(b *Builder) Expr { return b.BranchVariant(v, labels) })
}

// FromJustExpr unwraps an optional value, failing the translated program
// with msg when it is absent. Execution continues in the block receiving
// the payload.
func (b *Builder) FromJustExpr(value Expr, msg string) *Atom {
	v, mt := b.maybeAtom(value, "unwrap")
	jl := b.NewLambdaLabel(mt.Elem)
	nl := b.NewLabel()

	b.DefineBlock(nl, func(b *Builder) Expr { return b.ReportError(StringLit(msg)) })

	return b.ContinueLambda(jl, func(b *Builder) Expr { return b.BranchMaybe(v, jl, nl) })
}

// AssertedJustExpr unwraps an optional value that is known to be present.
// No check is emitted; the caller must have established presence.
func (b *Builder) AssertedJustExpr(value Expr, msg string) Expr {
	if value == nil {
		b.violate(errors.BuilderState("nil expression", b.pos))
	}
	if IsDiverged(value) {
		b.violate(errors.DivergedOperand(b.pos))
	}
	if _, ok := value.ResultType().(*MaybeType); !ok {
		b.violate(errors.BuilderTypeMismatch("asserted unwrap", "Maybe<_>", typeName(value.ResultType()), b.pos))
	}
	return &AssumeJust{Arg: value, Message: msg}
}

// While loops over body as long as cond holds. It creates three blocks:
// the condition block, the body block jumping back to the condition, and
// the exit block which is left open.
func (b *Builder) While(cond func(b *Builder) Expr, body func(b *Builder)) {
	cl, bl, xl := b.NewLabel(), b.NewLabel(), b.NewLabel()

	b.Continue(cl, func(b *Builder) Expr { return b.Jump(cl) })
	c := cond(b)
	if !b.IsOpen() {
		b.violate(errors.BuilderState("loop condition terminated its block", b.pos))
	}
	b.DefineBlock(bl, func(b *Builder) Expr {
		body(b)
		if !b.IsOpen() {
			return Diverged
		}
		return b.Jump(cl)
	})
	b.Continue(xl, func(b *Builder) Expr { return b.Branch(c, bl, xl) })
}
