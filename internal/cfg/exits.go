package cfg

import "weft/internal/errors"

// Every call in this file ends the open block and returns Diverged. Nothing
// may be emitted on that path afterwards, so a body typically ends with
// `return b.Jump(l)`.

// Jump transfers control to a block without inputs.
func (b *Builder) Jump(l Label) Expr {
	b.requireOpen("Jump")
	b.terminate(&JumpTerminator{Pos: b.pos, Target: l.ID})
	return Diverged
}

// JumpToLambda transfers control to a lambda block passing v as its input.
func (b *Builder) JumpToLambda(l LambdaLabel, v Expr) Expr {
	arg := b.flatten(v)
	b.expectType("jump to lambda block", l.Type(), arg.Type)
	b.requireOpen("Jump")
	b.terminate(&JumpTerminator{Pos: b.pos, Target: l.ID, Arg: arg})
	return Diverged
}

// Branch transfers control to t when cond holds and to f otherwise. A
// syntactic negation is not evaluated; the targets are swapped instead.
func (b *Builder) Branch(cond Expr, t, f Label) Expr {
	for {
		n, ok := cond.(Negation)
		if !ok {
			break
		}
		cond = n.Negated()
		t, f = f, t
	}
	c := b.flatten(cond)
	b.expectType("branch condition", Bool, c.Type)
	b.requireOpen("Branch")
	b.terminate(&BranchTerminator{Pos: b.pos, Cond: c, True: t.ID, False: f.ID})
	return Diverged
}

// Return ends the function with v.
func (b *Builder) Return(v Expr) Expr {
	value := b.flatten(v)
	b.expectType("return of "+b.handle.Name, b.handle.Ret, value.Type)
	b.requireOpen("Return")
	b.terminate(&ReturnTerminator{Pos: b.pos, Value: value})
	return Diverged
}

// ReportError ends this path of the translated program with a failure
// carrying msg.
func (b *Builder) ReportError(msg Expr) Expr {
	m := b.flatten(msg)
	b.expectType("error message", String, m.Type)
	b.requireOpen("ReportError")
	b.terminate(&ReportErrorTerminator{Pos: b.pos, Msg: m})
	return Diverged
}

// BranchMaybe dispatches on an optional value: the payload goes to just,
// absence to nothing.
func (b *Builder) BranchMaybe(v Expr, just LambdaLabel, nothing Label) Expr {
	value := b.flatten(v)
	mt, ok := value.Type.(*MaybeType)
	if !ok {
		b.violate(errors.BuilderTypeMismatch("optional branch", "Maybe<_>", typeName(value.Type), b.pos))
	}
	b.expectType("optional payload", just.Type(), mt.Elem)
	b.requireOpen("BranchMaybe")
	b.terminate(&MaybeBranchTerminator{Pos: b.pos, Value: value, Just: just.ID, Nothing: nothing.ID})
	return Diverged
}

// BranchVariant dispatches on a variant; cases[i] receives the payload of
// case i.
func (b *Builder) BranchVariant(v Expr, cases []LambdaLabel) Expr {
	value := b.flatten(v)
	vt, ok := value.Type.(*VariantType)
	if !ok {
		b.violate(errors.BuilderTypeMismatch("variant branch", "Variant<_>", typeName(value.Type), b.pos))
	}
	if len(cases) != len(vt.Cases) {
		b.violate(errors.VariantArity(len(vt.Cases), len(cases), b.pos))
	}
	ids := make([]BlockID, len(cases))
	for i, c := range cases {
		b.expectType("variant payload", vt.Cases[i], c.Type())
		ids[i] = c.ID
	}
	b.requireOpen("BranchVariant")
	b.terminate(&VariantBranchTerminator{Pos: b.pos, Value: value, Cases: ids})
	return Diverged
}

// TailCall ends the function by calling fn; its result is the result of
// the function being built.
func (b *Builder) TailCall(fn Expr, args ...Expr) Expr {
	f, ft, atoms := b.callee(fn, args)
	b.expectType("tail call of "+b.handle.Name, b.handle.Ret, ft.Ret)
	b.requireOpen("TailCall")
	b.terminate(&TailCallTerminator{Pos: b.pos, Func: f, Args: atoms})
	return Diverged
}
