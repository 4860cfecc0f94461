package cfg

import (
	"strings"
	"testing"

	"weft/internal/ast"
	"weft/internal/errors"
)

// testOp is a minimal operator application used to exercise flattening.
type testOp struct {
	name string
	typ  Type
	args []Expr
}

func (o *testOp) ResultType() Type { return o.typ }
func (o *testOp) Operands() []Expr { return o.args }
func (o *testOp) OpName() string   { return o.name }

func intLit(n int64) *Literal { return &Literal{Value: n, Type: Int} }

var testPos = ast.Position{Filename: "test.wf", Line: 1, Column: 1}

func build(t *testing.T, h *Handle, body func(b *Builder, args []*Atom) Expr) *Result {
	t.Helper()
	res, err := DefineFunction(testPos, h, func(args []*Atom) (any, func(b *Builder) Expr) {
		return nil, func(b *Builder) Expr { return body(b, args) }
	})
	if err != nil {
		t.Fatalf("DefineFunction failed: %v", err)
	}
	return res
}

func buildErr(t *testing.T, h *Handle, body func(b *Builder, args []*Atom) Expr) *errors.CompilerError {
	t.Helper()
	res, err := DefineFunction(testPos, h, func(args []*Atom) (any, func(b *Builder) Expr) {
		return nil, func(b *Builder) Expr { return body(b, args) }
	})
	if err == nil {
		t.Fatalf("expected a contract violation, got graph with %d blocks", len(res.CFG.Blocks))
	}
	ce, ok := err.(*errors.CompilerError)
	if !ok {
		t.Fatalf("expected *errors.CompilerError, got %T", err)
	}
	return ce
}

// ============================================================================
// Allocation
// ============================================================================

func TestCountersSeededPastArguments(t *testing.T) {
	h := &Handle{Name: "f", Args: []Type{Int, Bool}, Ret: Int}
	b := newBuilder(testPos, h)

	if b.nextValue != 2 {
		t.Errorf("value counter should start at 2, got %d", b.nextValue)
	}
	if b.nextLabel != 1 {
		t.Errorf("label counter should start at 1, got %d", b.nextLabel)
	}

	l1 := b.NewLabel()
	l2 := b.NewLambdaLabel(Int)
	if l1.ID != 1 || l2.ID != 2 {
		t.Errorf("labels should be 1 and 2, got %d and %d", l1.ID, l2.ID)
	}
	if l2.Input.ID != 2 {
		t.Errorf("lambda input should get value id 2, got %d", l2.Input.ID)
	}
	if l2.Input.Source.Kind != LambdaInput || l2.Input.Source.Block != l2.ID {
		t.Errorf("lambda input has wrong provenance %s", l2.Input.Source)
	}

	r := b.NewRegister(Int)
	if r.ID != 3 {
		t.Errorf("registers share the value counter, got id %d", r.ID)
	}
}

func TestWithPositionRestores(t *testing.T) {
	b := newBuilder(testPos, &Handle{Name: "f", Ret: Unit})
	inner := ast.Position{Line: 9, Column: 2}

	b.WithPosition(inner, func() {
		if b.Position() != inner {
			t.Errorf("position should be %s inside WithPosition, got %s", inner, b.Position())
		}
	})

	if b.Position() != testPos {
		t.Errorf("position should be restored to %s, got %s", testPos, b.Position())
	}
}

// ============================================================================
// Function assembly
// ============================================================================

func TestIdentityFunction(t *testing.T) {
	h := &Handle{Name: "id", Args: []Type{Int}, Ret: Int}
	var arg *Atom
	res := build(t, h, func(b *Builder, args []*Atom) Expr {
		arg = args[0]
		return args[0]
	})

	g := res.CFG
	if len(g.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(g.Blocks))
	}
	entry := g.Entry()
	if entry == nil || entry.ID != 0 {
		t.Fatal("entry block should have id 0")
	}
	if len(entry.Stmts) != 0 {
		t.Errorf("expected no statements, got %d", len(entry.Stmts))
	}
	ret, ok := entry.Term.(*ReturnTerminator)
	if !ok {
		t.Fatalf("expected ReturnTerminator, got %T", entry.Term)
	}
	if ret.Value != arg {
		t.Errorf("return should reference the argument atom")
	}
	if arg.Source.Kind != BlockInput {
		t.Errorf("argument should be a block input, got %s", arg.Source)
	}
	if len(entry.Inputs) != 1 || entry.Inputs[0] != arg {
		t.Errorf("entry block inputs should be the arguments")
	}
	if len(res.Aux) != 0 {
		t.Errorf("expected no auxiliary graphs, got %d", len(res.Aux))
	}
}

func TestFlattenOperandsFirst(t *testing.T) {
	h := &Handle{Name: "f", Args: []Type{Int}, Ret: Int}
	res := build(t, h, func(b *Builder, args []*Atom) Expr {
		inner := &testOp{name: "ADD", typ: Int, args: []Expr{args[0], intLit(1)}}
		return &testOp{name: "MUL", typ: Int, args: []Expr{inner, args[0]}}
	})

	stmts := res.CFG.Entry().Stmts
	if len(stmts) != 3 {
		t.Fatalf("expected 3 statements (const, add, mul), got %d", len(stmts))
	}
	names := []string{"CONST", "ADD", "MUL"}
	for i, s := range stmts {
		a, ok := s.(*AssignStmt)
		if !ok {
			t.Fatalf("statement %d should be an Assign, got %T", i, s)
		}
		if got := opName(a.Op); got != names[i] {
			t.Errorf("statement %d: expected %s, got %s", i, names[i], got)
		}
	}
	mul := stmts[2].(*AssignStmt)
	if mul.Args[0] != stmts[1].GetResult() {
		t.Error("MUL should consume the result of ADD")
	}
}

func TestFlattenIsNotMemoized(t *testing.T) {
	h := &Handle{Name: "f", Args: []Type{Int}, Ret: Int}
	res := build(t, h, func(b *Builder, args []*Atom) Expr {
		e := &testOp{name: "NEG", typ: Int, args: []Expr{args[0]}}
		b.ForceEvaluation(e)
		b.ForceEvaluation(e)
		once := b.ForceEvaluation(e)
		if b.ForceEvaluation(once) != once {
			t.Error("forcing an atom should return it unchanged")
		}
		return once
	})

	if n := len(res.CFG.Entry().Stmts); n != 3 {
		t.Errorf("each evaluation of a recomputed tree should emit a statement, got %d", n)
	}
}

func TestAssignCopiesAtoms(t *testing.T) {
	h := &Handle{Name: "f", Args: []Type{Int}, Ret: Int}
	res := build(t, h, func(b *Builder, args []*Atom) Expr {
		c := b.Assign(args[0])
		if c == args[0] {
			t.Error("Assign should produce a fresh atom")
		}
		return c
	})

	stmts := res.CFG.Entry().Stmts
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(stmts))
	}
	if got := stmts[0].String(); got != "%1: Int = %0" {
		t.Errorf("unexpected copy rendering %q", got)
	}
}

func TestStatementKinds(t *testing.T) {
	g := &GlobalVar{Name: "total", Type: Int}
	h := &Handle{Name: "f", Args: []Type{Int}, Ret: Int}
	res := build(t, h, func(b *Builder, args []*Atom) Expr {
		r := b.NewRegister(Int)
		b.SetRegister(r, args[0])
		v := b.ReadRegister(r)
		b.WriteGlobal(g, v)
		cur := b.ReadGlobal(g)
		ref := b.NewRef(cur)
		b.WriteRef(ref, intLit(2))
		out := b.ReadRef(ref)
		b.DropRef(ref)
		b.Print(StringLit("done"))
		b.Assert(&testOp{name: "LT", typ: Bool, args: []Expr{out, intLit(10)}}, StringLit("too big"))
		return out
	})

	var kinds []string
	for _, s := range res.CFG.Entry().Stmts {
		switch s.(type) {
		case *SetRegisterStmt:
			kinds = append(kinds, "set")
		case *ReadRegisterStmt:
			kinds = append(kinds, "read")
		case *WriteGlobalStmt:
			kinds = append(kinds, "wglobal")
		case *ReadGlobalStmt:
			kinds = append(kinds, "rglobal")
		case *NewRefStmt:
			kinds = append(kinds, "newref")
		case *WriteRefStmt:
			kinds = append(kinds, "wref")
		case *ReadRefStmt:
			kinds = append(kinds, "rref")
		case *DropRefStmt:
			kinds = append(kinds, "drop")
		case *PrintStmt:
			kinds = append(kinds, "print")
		case *AssertStmt:
			kinds = append(kinds, "assert")
		case *AssignStmt:
			kinds = append(kinds, "assign")
		}
	}
	want := []string{"set", "read", "wglobal", "rglobal", "newref", "assign", "wref", "rref", "drop",
		"assign", "print", "assign", "assign", "assign", "assert"}
	if len(kinds) != len(want) {
		t.Fatalf("expected %v, got %v", want, kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("statement %d: expected %s, got %s", i, want[i], kinds[i])
		}
	}
}

func TestCallAndExtension(t *testing.T) {
	callee := &testOp{name: "FUNC max", typ: &FuncType{Args: []Type{Int, Int}, Ret: Int}}
	h := &Handle{Name: "f", Args: []Type{Int}, Ret: Int}
	res := build(t, h, func(b *Builder, args []*Atom) Expr {
		m := b.Call(callee, args[0], intLit(3))
		return b.Extension(&testExt{args: []Expr{m}})
	})

	stmts := res.CFG.Entry().Stmts
	call, ok := stmts[2].(*CallStmt)
	if !ok {
		t.Fatalf("expected CallStmt, got %T", stmts[2])
	}
	if len(call.Args) != 2 || call.Args[0].ID != 0 {
		t.Error("call arguments should be flattened in order")
	}
	ext, ok := stmts[3].(*ExtensionStmt)
	if !ok {
		t.Fatalf("expected ExtensionStmt, got %T", stmts[3])
	}
	if ext.Args[0] != call.Result {
		t.Error("extension should consume the call result")
	}
}

type testExt struct {
	args []Expr
}

func (e *testExt) ResultType() Type      { return Int }
func (e *testExt) Operands() []Expr      { return e.args }
func (e *testExt) ExtensionName() string { return "twice" }

func TestRecordedGraphOrder(t *testing.T) {
	unit := func(name string) *Handle { return &Handle{Name: name, Ret: Int} }
	leaf := func([]*Atom) (any, func(b *Builder) Expr) {
		return nil, func(b *Builder) Expr { return intLit(1) }
	}

	res := build(t, unit("outer"), func(b *Builder, args []*Atom) Expr {
		b.DefineNested(testPos, unit("a"), leaf)
		b.DefineNested(testPos, unit("b"), func([]*Atom) (any, func(b *Builder) Expr) {
			return nil, func(b *Builder) Expr {
				b.DefineNested(testPos, unit("c"), leaf)
				return intLit(2)
			}
		})
		return intLit(0)
	})

	var names []string
	for _, g := range res.Aux {
		names = append(names, g.Handle.Name)
	}
	want := []string{"b", "c", "a"}
	if len(names) != len(want) {
		t.Fatalf("expected graphs %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("aux %d: expected %s, got %s", i, want[i], names[i])
		}
	}
}

func TestPerBlockStateResets(t *testing.T) {
	h := &Handle{Name: "f", Ret: Int}
	res, err := DefineFunction(testPos, h, func([]*Atom) (any, func(b *Builder) Expr) {
		return "initial", func(b *Builder) Expr {
			b.SetState("entry")
			l := b.NewLabel()
			b.DefineBlock(l, func(b *Builder) Expr {
				if b.State() != "initial" {
					t.Errorf("new block should start with the initial state, got %v", b.State())
				}
				b.SetState("inner")
				return b.Return(intLit(1))
			})
			if b.State() != "entry" {
				t.Errorf("state should be restored after DefineBlock, got %v", b.State())
			}
			next := b.NewLabel()
			b.Continue(next, func(b *Builder) Expr { return b.Jump(next) })
			if b.State() != "initial" {
				t.Errorf("Continue starts a new block with the initial state, got %v", b.State())
			}
			return intLit(2)
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.CFG.Blocks) != 3 {
		t.Errorf("expected 3 blocks, got %d", len(res.CFG.Blocks))
	}
}

// ============================================================================
// Contract violations
// ============================================================================

func TestStatementAfterTerminator(t *testing.T) {
	h := &Handle{Name: "f", Args: []Type{Int}, Ret: Int}
	err := buildErr(t, h, func(b *Builder, args []*Atom) Expr {
		b.Return(args[0])
		b.Print(StringLit("late"))
		return Diverged
	})

	if err.Code != errors.ErrorNoOpenBlock {
		t.Errorf("expected %s, got %s", errors.ErrorNoOpenBlock, err.Code)
	}
	if err.Position != testPos {
		t.Errorf("violation should carry the builder position, got %s", err.Position)
	}
}

func TestUnterminatedBlock(t *testing.T) {
	h := &Handle{Name: "f", Ret: Int}
	err := buildErr(t, h, func(b *Builder, args []*Atom) Expr {
		b.DefineBlock(b.NewLabel(), func(b *Builder) Expr { return nil })
		return intLit(1)
	})
	if err.Code != errors.ErrorUnterminatedBlock {
		t.Errorf("expected %s, got %s", errors.ErrorUnterminatedBlock, err.Code)
	}
}

func TestForeignAtom(t *testing.T) {
	h := &Handle{Name: "f", Args: []Type{Int}, Ret: Int}
	var leaked *Atom
	build(t, h, func(b *Builder, args []*Atom) Expr {
		leaked = args[0]
		return args[0]
	})

	err := buildErr(t, &Handle{Name: "g", Ret: Int}, func(b *Builder, args []*Atom) Expr {
		return leaked
	})
	if err.Code != errors.ErrorForeignAtom {
		t.Errorf("expected %s, got %s", errors.ErrorForeignAtom, err.Code)
	}
}

func TestReturnTypeChecked(t *testing.T) {
	h := &Handle{Name: "f", Ret: Int}
	err := buildErr(t, h, func(b *Builder, args []*Atom) Expr {
		return &Literal{Value: true, Type: Bool}
	})
	if err.Code != errors.ErrorBuilderTypeMismatch {
		t.Errorf("expected %s, got %s", errors.ErrorBuilderTypeMismatch, err.Code)
	}
}

func TestDivergedUsedAsValue(t *testing.T) {
	h := &Handle{Name: "f", Ret: Int}
	err := buildErr(t, h, func(b *Builder, args []*Atom) Expr {
		l := b.NewLabel()
		b.DefineBlock(l, func(b *Builder) Expr {
			b.SetRegister(b.NewRegister(Int), b.ReportError(StringLit("boom")))
			return Diverged
		})
		return intLit(0)
	})
	if err.Code != errors.ErrorDivergedOperand {
		t.Errorf("expected %s, got %s", errors.ErrorDivergedOperand, err.Code)
	}
}

func TestLabelDefinedTwice(t *testing.T) {
	h := &Handle{Name: "f", Ret: Int}
	err := buildErr(t, h, func(b *Builder, args []*Atom) Expr {
		l := b.NewLabel()
		b.DefineBlock(l, func(b *Builder) Expr { return b.Return(intLit(1)) })
		b.DefineBlock(l, func(b *Builder) Expr { return b.Return(intLit(2)) })
		return intLit(0)
	})
	if err.Code != errors.ErrorLabelReuse {
		t.Errorf("expected %s, got %s", errors.ErrorLabelReuse, err.Code)
	}
}

func TestJumpToLambdaChecksType(t *testing.T) {
	h := &Handle{Name: "f", Ret: Int}
	err := buildErr(t, h, func(b *Builder, args []*Atom) Expr {
		l := b.NewLambdaLabel(Int)
		return b.JumpToLambda(l, StringLit("no"))
	})
	if err.Code != errors.ErrorBuilderTypeMismatch {
		t.Errorf("expected %s, got %s", errors.ErrorBuilderTypeMismatch, err.Code)
	}
}

func TestCallArity(t *testing.T) {
	callee := &testOp{name: "FUNC g", typ: &FuncType{Args: []Type{Int}, Ret: Int}}
	err := buildErr(t, &Handle{Name: "f", Ret: Int}, func(b *Builder, args []*Atom) Expr {
		return b.Call(callee)
	})
	if err.Code != errors.ErrorArgumentCount {
		t.Errorf("expected %s, got %s", errors.ErrorArgumentCount, err.Code)
	}
}

func TestNestedViolationAbortsOuterBuild(t *testing.T) {
	err := buildErr(t, &Handle{Name: "outer", Ret: Int}, func(b *Builder, args []*Atom) Expr {
		b.DefineNested(testPos, &Handle{Name: "inner", Ret: Int}, func([]*Atom) (any, func(b *Builder) Expr) {
			return nil, func(b *Builder) Expr { return StringLit("wrong") }
		})
		return intLit(0)
	})
	if err.Code != errors.ErrorBuilderTypeMismatch {
		t.Errorf("expected %s, got %s", errors.ErrorBuilderTypeMismatch, err.Code)
	}
}

func TestIdsStrictlyIncrease(t *testing.T) {
	h := &Handle{Name: "f", Args: []Type{Int, Int}, Ret: Int}
	res := build(t, h, func(b *Builder, args []*Atom) Expr {
		s := &testOp{name: "ADD", typ: Int, args: []Expr{args[0], args[1]}}
		x := b.ForceEvaluation(s)
		y := b.ForceEvaluation(&testOp{name: "MUL", typ: Int, args: []Expr{x, intLit(2)}})
		return y
	})

	last := ValueID(-1)
	for _, in := range res.CFG.Entry().Inputs {
		if in.ID <= last {
			t.Errorf("input id %d does not increase past %d", in.ID, last)
		}
		last = in.ID
	}
	for _, s := range res.CFG.Entry().Stmts {
		if r := s.GetResult(); r != nil {
			if r.ID <= last {
				t.Errorf("result id %d does not increase past %d", r.ID, last)
			}
			last = r.ID
		}
	}
}

func TestAtomFromOneBranchUsedAfterMerge(t *testing.T) {
	h := &Handle{Name: "f", Args: []Type{Bool}, Ret: Int}
	var inThen *Atom
	err := buildErr(t, h, func(b *Builder, args []*Atom) Expr {
		b.IfteStmt(args[0], func(b *Builder) {
			inThen = b.ForceEvaluation(&testOp{name: "ONE", typ: Int})
		}, func(b *Builder) {})
		return inThen
	})

	if err.Code != errors.ErrorOutOfScopeAtom {
		t.Fatalf("expected %s, got %s", errors.ErrorOutOfScopeAtom, err.Code)
	}
	want := inThen.String() + " is not in scope in block 1"
	if !strings.Contains(err.Message, want) {
		t.Errorf("message should contain %q, got %q", want, err.Message)
	}
	if err.Position != testPos {
		t.Errorf("violation should carry the position of the use, got %s", err.Position)
	}
}

func TestLambdaInputUsedOutsideItsBlock(t *testing.T) {
	h := &Handle{Name: "f", Ret: Int}
	err := buildErr(t, h, func(b *Builder, args []*Atom) Expr {
		l := b.NewLambdaLabel(Int)
		b.DefineLambdaBlock(l, func(b *Builder, in *Atom) Expr { return b.Return(in) })
		return b.JumpToLambda(l, l.Input)
	})

	if err.Code != errors.ErrorOutOfScopeAtom {
		t.Fatalf("expected %s, got %s", errors.ErrorOutOfScopeAtom, err.Code)
	}
	if !strings.Contains(err.Message, "in block 0") {
		t.Errorf("the entry block should be blamed, got %q", err.Message)
	}
}

func TestLambdaInputUsedBeforeItsBlock(t *testing.T) {
	h := &Handle{Name: "f", Ret: Int}
	printed := false
	err := buildErr(t, h, func(b *Builder, args []*Atom) Expr {
		l := b.NewLambdaLabel(Int)
		b.Print(&testOp{name: "SHOW", typ: String, args: []Expr{l.Input}})
		printed = true
		return intLit(0)
	})

	if err.Code != errors.ErrorOutOfScopeAtom {
		t.Fatalf("expected %s, got %s", errors.ErrorOutOfScopeAtom, err.Code)
	}
	if printed {
		t.Errorf("the build should abort at the use, not when the graph is finished")
	}
}

func TestBranchLocalAtomsStayUsable(t *testing.T) {
	h := &Handle{Name: "f", Args: []Type{Bool, Int}, Ret: Int}
	res := build(t, h, func(b *Builder, args []*Atom) Expr {
		x := b.ForceEvaluation(&testOp{name: "NEG", typ: Int, args: []Expr{args[1]}})
		return b.Ifte(args[0], Int,
			func(b *Builder) Expr {
				y := b.ForceEvaluation(&testOp{name: "ADD", typ: Int, args: []Expr{x, args[1]}})
				return &testOp{name: "MUL", typ: Int, args: []Expr{y, y}}
			},
			func(b *Builder) Expr { return x })
	})

	if err := Validate(res.CFG); err != nil {
		t.Errorf("dominating definitions should be accepted: %v", err)
	}
}

func TestJumpToUndefinedLabel(t *testing.T) {
	err := buildErr(t, &Handle{Name: "f", Ret: Int}, func(b *Builder, args []*Atom) Expr {
		return b.Jump(b.NewLabel())
	})

	if err.Code != errors.ErrorUndefinedLabel {
		t.Fatalf("expected %s, got %s", errors.ErrorUndefinedLabel, err.Code)
	}
	if !strings.Contains(err.Message, "block 1") {
		t.Errorf("message should name the missing block, got %q", err.Message)
	}
}

func TestAssertedJustExprRejectsNil(t *testing.T) {
	err := buildErr(t, &Handle{Name: "f", Ret: Int}, func(b *Builder, args []*Atom) Expr {
		return b.AssertedJustExpr(nil, "proven")
	})
	if err.Code != errors.ErrorBuilderState {
		t.Errorf("expected %s, got %s", errors.ErrorBuilderState, err.Code)
	}
}
