package cfg_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weft/internal/ast"
	"weft/internal/cfg"
	"weft/internal/expr"
)

var pos = ast.Position{Filename: "control.wf", Line: 1, Column: 1}

func define(t *testing.T, h *cfg.Handle, body func(b *cfg.Builder, args []*cfg.Atom) cfg.Expr) *cfg.Result {
	t.Helper()
	res, err := cfg.DefineFunction(pos, h, func(args []*cfg.Atom) (any, func(b *cfg.Builder) cfg.Expr) {
		return nil, func(b *cfg.Builder) cfg.Expr { return body(b, args) }
	})
	require.NoError(t, err)
	require.NoError(t, cfg.Validate(res.CFG))
	return res
}

func binary(t *testing.T, op expr.Op, l, r cfg.Expr) cfg.Expr {
	t.Helper()
	e, ok := expr.NewBinary(op, l, r)
	require.True(t, ok)
	return e
}

func TestIfThenElseScenario(t *testing.T) {
	h := &cfg.Handle{Name: "f", Args: []cfg.Type{cfg.Bool}, Ret: cfg.Int}
	res := define(t, h, func(b *cfg.Builder, args []*cfg.Atom) cfg.Expr {
		return b.Ifte(args[0], cfg.Int,
			func(b *cfg.Builder) cfg.Expr { return expr.Int(1) },
			func(b *cfg.Builder) cfg.Expr { return expr.Int(2) })
	})
	g := res.CFG
	require.Len(t, g.Blocks, 4)

	entry := g.Entry()
	br, ok := entry.Term.(*cfg.BranchTerminator)
	require.True(t, ok, "entry should end with a conditional branch")
	assert.Same(t, entry.Inputs[0], br.Cond)
	assert.Empty(t, entry.Stmts)

	var merge cfg.BlockID = -1
	for i, id := range []cfg.BlockID{br.True, br.False} {
		blk := g.Block(id)
		require.NotNil(t, blk)
		require.Len(t, blk.Stmts, 1)
		assign, ok := blk.Stmts[0].(*cfg.AssignStmt)
		require.True(t, ok)
		lit, ok := assign.Op.(*cfg.Literal)
		require.True(t, ok)
		assert.Equal(t, int64(i+1), lit.Value)

		jump, ok := blk.Term.(*cfg.JumpTerminator)
		require.True(t, ok)
		assert.Same(t, assign.Result, jump.Arg)
		if merge == -1 {
			merge = jump.Target
		}
		assert.Equal(t, merge, jump.Target, "both branches should converge")
	}

	m := g.Block(merge)
	require.NotNil(t, m)
	assert.True(t, m.IsLambda)
	ret, ok := m.Term.(*cfg.ReturnTerminator)
	require.True(t, ok)
	assert.Same(t, m.Inputs[0], ret.Value)
	assert.Equal(t, cfg.LambdaInput, ret.Value.Source.Kind)
}

func TestBranchOnNegationSwapsTargets(t *testing.T) {
	h := &cfg.Handle{Name: "g", Args: []cfg.Type{cfg.Bool}, Ret: cfg.Int}
	build := func(negate bool) *cfg.BranchTerminator {
		res := define(t, h, func(b *cfg.Builder, args []*cfg.Atom) cfg.Expr {
			a, c := b.NewLabel(), b.NewLabel()
			b.DefineBlock(a, func(b *cfg.Builder) cfg.Expr { return b.Return(expr.Int(1)) })
			b.DefineBlock(c, func(b *cfg.Builder) cfg.Expr { return b.Return(expr.Int(2)) })
			if negate {
				return b.Branch(&expr.Not{Arg: args[0]}, a, c)
			}
			return b.Branch(args[0], c, a)
		})
		entry := res.CFG.Entry()
		assert.Empty(t, entry.Stmts, "the negation must not be materialized")
		return entry.Term.(*cfg.BranchTerminator)
	}

	negated, swapped := build(true), build(false)
	assert.Equal(t, swapped.True, negated.True)
	assert.Equal(t, swapped.False, negated.False)
	assert.Equal(t, swapped.Cond.ID, negated.Cond.ID)
}

func TestWhileWiring(t *testing.T) {
	h := &cfg.Handle{Name: "count", Args: []cfg.Type{cfg.Int}, Ret: cfg.Int}
	res := define(t, h, func(b *cfg.Builder, args []*cfg.Atom) cfg.Expr {
		r := b.NewRegister(cfg.Int)
		b.SetRegister(r, expr.Int(0))
		b.While(func(b *cfg.Builder) cfg.Expr {
			return binary(t, expr.Lt, b.ReadRegister(r), args[0])
		}, func(b *cfg.Builder) {
			b.SetRegister(r, binary(t, expr.Add, b.ReadRegister(r), expr.Int(1)))
		})
		return b.ReadRegister(r)
	})
	g := res.CFG
	require.Len(t, g.Blocks, 4, "entry plus cond, body and exit")

	entry := g.Entry()
	toCond, ok := entry.Term.(*cfg.JumpTerminator)
	require.True(t, ok)

	cond := g.Block(toCond.Target)
	require.NotNil(t, cond)
	br, ok := cond.Term.(*cfg.BranchTerminator)
	require.True(t, ok)

	body := g.Block(br.True)
	require.NotNil(t, body)
	back, ok := body.Term.(*cfg.JumpTerminator)
	require.True(t, ok)
	assert.Equal(t, cond.ID, back.Target, "body should jump back to the condition")

	exit := g.Block(br.False)
	require.NotNil(t, exit)
	_, ok = exit.Term.(*cfg.ReturnTerminator)
	assert.True(t, ok)

	s := cfg.Summarize(g)
	assert.ElementsMatch(t, []cfg.BlockID{entry.ID, body.ID}, s.Predecessors[cond.ID])
	assert.Empty(t, s.Unreachable)
}

func TestCaseMaybeStmtConverges(t *testing.T) {
	h := &cfg.Handle{Name: "h", Args: []cfg.Type{&cfg.MaybeType{Elem: cfg.Int}}, Ret: cfg.Int}
	var payload *cfg.Atom
	res := define(t, h, func(b *cfg.Builder, args []*cfg.Atom) cfg.Expr {
		r := b.NewRegister(cfg.Int)
		b.CaseMaybeStmt(args[0], func(b *cfg.Builder, p *cfg.Atom) {
			payload = p
			b.SetRegister(r, p)
		}, func(b *cfg.Builder) {
			b.SetRegister(r, expr.Int(0))
		})
		return b.ReadRegister(r)
	})
	g := res.CFG

	mb, ok := g.Entry().Term.(*cfg.MaybeBranchTerminator)
	require.True(t, ok)

	just := g.Block(mb.Just)
	require.NotNil(t, just)
	assert.True(t, just.IsLambda)
	assert.Same(t, payload, just.Inputs[0])
	assert.Equal(t, "Int", payload.Type.String())
	set, ok := just.Stmts[0].(*cfg.SetRegisterStmt)
	require.True(t, ok)
	assert.Same(t, payload, set.Value)

	nothing := g.Block(mb.Nothing)
	require.NotNil(t, nothing)
	assert.False(t, nothing.IsLambda)

	j1 := just.Term.(*cfg.JumpTerminator)
	j2 := nothing.Term.(*cfg.JumpTerminator)
	assert.Equal(t, j1.Target, j2.Target, "both handlers should reach one continuation")
	_, ok = g.Block(j1.Target).Term.(*cfg.ReturnTerminator)
	assert.True(t, ok)
}

func TestCaseMaybeValue(t *testing.T) {
	h := &cfg.Handle{Name: "h", Args: []cfg.Type{&cfg.MaybeType{Elem: cfg.Int}}, Ret: cfg.Int}
	res := define(t, h, func(b *cfg.Builder, args []*cfg.Atom) cfg.Expr {
		return b.CaseMaybe(args[0], cfg.Int,
			func(b *cfg.Builder, p *cfg.Atom) cfg.Expr { return binary(t, expr.Add, p, expr.Int(1)) },
			func(b *cfg.Builder) cfg.Expr { return expr.Int(0) })
	})
	s := cfg.Summarize(res.CFG)
	assert.Len(t, s.SuccessExits, 1)
	assert.Empty(t, s.FailureExits)
}

func TestBothBranchesDiverge(t *testing.T) {
	h := &cfg.Handle{Name: "f", Args: []cfg.Type{cfg.Bool}, Ret: cfg.Int}
	res := define(t, h, func(b *cfg.Builder, args []*cfg.Atom) cfg.Expr {
		v := b.Ifte(args[0], cfg.Int,
			func(b *cfg.Builder) cfg.Expr { return b.ReportError(expr.Str("left")) },
			func(b *cfg.Builder) cfg.Expr { return b.Return(expr.Int(7)) })
		assert.True(t, cfg.IsDiverged(v))
		assert.False(t, b.IsOpen())
		return v
	})

	assert.Len(t, res.CFG.Blocks, 3, "no merge block when nothing reaches it")
	s := cfg.Summarize(res.CFG)
	assert.Len(t, s.FailureExits, 1)
	assert.Len(t, s.SuccessExits, 1)
}

func TestWhenAndUnless(t *testing.T) {
	h := &cfg.Handle{Name: "f", Args: []cfg.Type{cfg.Bool}, Ret: cfg.Unit}
	res := define(t, h, func(b *cfg.Builder, args []*cfg.Atom) cfg.Expr {
		b.WhenCond(args[0], func(b *cfg.Builder) { b.Print(expr.Str("yes")) })
		b.UnlessCond(args[0], func(b *cfg.Builder) { b.Print(expr.Str("no")) })
		return expr.Unit()
	})
	g := res.CFG
	require.Len(t, g.Blocks, 5)

	when := g.Entry().Term.(*cfg.BranchTerminator)
	yes := g.Block(when.True)
	require.Len(t, yes.Stmts, 2)
	assert.Equal(t, when.False, yes.Term.(*cfg.JumpTerminator).Target, "skip edge targets the merge block")

	unless := g.Block(when.False).Term.(*cfg.BranchTerminator)
	no := g.Block(unless.False)
	require.NotNil(t, no)
	assert.Equal(t, unless.True, no.Term.(*cfg.JumpTerminator).Target)
}

func TestFromJustExprIsChecked(t *testing.T) {
	h := &cfg.Handle{Name: "first", Args: []cfg.Type{&cfg.MaybeType{Elem: cfg.Int}}, Ret: cfg.Int}
	res := define(t, h, func(b *cfg.Builder, args []*cfg.Atom) cfg.Expr {
		return b.FromJustExpr(args[0], "empty")
	})
	g := res.CFG
	require.Len(t, g.Blocks, 3)

	mb := g.Entry().Term.(*cfg.MaybeBranchTerminator)
	failing := g.Block(mb.Nothing)
	_, ok := failing.Term.(*cfg.ReportErrorTerminator)
	assert.True(t, ok)

	passing := g.Block(mb.Just)
	ret := passing.Term.(*cfg.ReturnTerminator)
	assert.Same(t, passing.Inputs[0], ret.Value)

	s := cfg.Summarize(g)
	assert.Equal(t, []cfg.BlockID{mb.Nothing}, s.FailureExits)
}

func TestAssertedJustExprHasNoBranch(t *testing.T) {
	h := &cfg.Handle{Name: "trusted", Args: []cfg.Type{&cfg.MaybeType{Elem: cfg.Int}}, Ret: cfg.Int}
	res := define(t, h, func(b *cfg.Builder, args []*cfg.Atom) cfg.Expr {
		e := b.AssertedJustExpr(args[0], "proven")
		assert.Equal(t, cfg.Int, e.ResultType())
		return e
	})
	g := res.CFG
	require.Len(t, g.Blocks, 1)
	require.Len(t, g.Entry().Stmts, 1)
	assign := g.Entry().Stmts[0].(*cfg.AssignStmt)
	aj, ok := assign.Op.(*cfg.AssumeJust)
	require.True(t, ok)
	assert.Equal(t, "proven", aj.Message)
}

func TestCaseVariant(t *testing.T) {
	vt := &cfg.VariantType{Cases: []cfg.Type{cfg.Int, cfg.String}}
	h := &cfg.Handle{Name: "v", Args: []cfg.Type{vt}, Ret: cfg.Int}
	res := define(t, h, func(b *cfg.Builder, args []*cfg.Atom) cfg.Expr {
		return b.CaseVariant(args[0], cfg.Int, []func(b *cfg.Builder, p *cfg.Atom) cfg.Expr{
			func(b *cfg.Builder, p *cfg.Atom) cfg.Expr { return p },
			func(b *cfg.Builder, p *cfg.Atom) cfg.Expr { return expr.Int(0) },
		})
	})
	vb, ok := res.CFG.Entry().Term.(*cfg.VariantBranchTerminator)
	require.True(t, ok)
	require.Len(t, vb.Cases, 2)
	assert.Equal(t, "String", res.CFG.Block(vb.Cases[1]).Inputs[0].Type.String())
}

func TestTailCall(t *testing.T) {
	callee := &cfg.Handle{Name: "loop", Args: []cfg.Type{cfg.Int}, Ret: cfg.Int}
	h := &cfg.Handle{Name: "f", Args: []cfg.Type{cfg.Int}, Ret: cfg.Int}
	res := define(t, h, func(b *cfg.Builder, args []*cfg.Atom) cfg.Expr {
		return b.TailCall(expr.Ref(callee), args[0])
	})
	tc, ok := res.CFG.Entry().Term.(*cfg.TailCallTerminator)
	require.True(t, ok)
	assert.Len(t, tc.Args, 1)
	assert.Equal(t, []cfg.BlockID{0}, cfg.Summarize(res.CFG).SuccessExits)
}

func TestSealedBlocksHaveOneTerminator(t *testing.T) {
	h := &cfg.Handle{Name: "f", Args: []cfg.Type{cfg.Bool, cfg.Int}, Ret: cfg.Int}
	res := define(t, h, func(b *cfg.Builder, args []*cfg.Atom) cfg.Expr {
		r := b.NewRegister(cfg.Int)
		b.SetRegister(r, args[1])
		b.IfteStmt(args[0], func(b *cfg.Builder) {
			b.While(func(b *cfg.Builder) cfg.Expr {
				return binary(t, expr.Gt, b.ReadRegister(r), expr.Int(0))
			}, func(b *cfg.Builder) {
				b.SetRegister(r, binary(t, expr.Sub, b.ReadRegister(r), expr.Int(1)))
			})
		}, func(b *cfg.Builder) {
			b.Assert(binary(t, expr.Ge, args[1], expr.Int(0)), expr.Str("negative"))
		})
		return b.ReadRegister(r)
	})

	seen := map[cfg.BlockID]bool{}
	for _, blk := range res.CFG.Blocks {
		assert.NotNil(t, blk.Term, "block %d", blk.ID)
		assert.False(t, seen[blk.ID], "block %d sealed twice", blk.ID)
		seen[blk.ID] = true
	}
}
