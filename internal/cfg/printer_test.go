package cfg

import (
	"strings"
	"testing"
)

func TestPrintIdentity(t *testing.T) {
	h := &Handle{Name: "id", Args: []Type{Int}, Ret: Int}
	res := build(t, h, func(b *Builder, args []*Atom) Expr { return args[0] })

	want := "fn id(%0: Int) -> Int {\nblock0:\n  RETURN %0\n}\n"
	if got := Print(res); got != want {
		t.Errorf("unexpected output:\n%s\nwant:\n%s", got, want)
	}
}

func TestPrintBranchesAndLambdaBlocks(t *testing.T) {
	h := &Handle{Name: "pick", Args: []Type{Bool}, Ret: Int}
	res := build(t, h, func(b *Builder, args []*Atom) Expr {
		return b.Ifte(args[0], Int,
			func(b *Builder) Expr { return intLit(1) },
			func(b *Builder) Expr { return intLit(2) })
	})

	output := PrintCFG(res.CFG)
	expected := []string{
		"fn pick(%0: Bool) -> Int {",
		"block2:",
		"  %2: Int = CONST 1",
		"  JUMP block1(%2)",
		"  BRANCH %0 ? block2 : block3",
		"block1(%1: Int):",
		"  RETURN %1",
	}
	for _, line := range expected {
		if !strings.Contains(output, line) {
			t.Errorf("output should contain %q:\n%s", line, output)
		}
	}
}

func TestPrintEffects(t *testing.T) {
	g := &GlobalVar{Name: "hits", Type: Int}
	h := &Handle{Name: "bump", Ret: Unit}
	res := build(t, h, func(b *Builder, args []*Atom) Expr {
		v := b.ReadGlobal(g)
		b.WriteGlobal(g, &testOp{name: "ADD", typ: Int, args: []Expr{v, intLit(1)}})
		b.Print(StringLit("bumped"))
		return &Literal{Type: Unit}
	})

	p := NewPrinter(PrinterOptions{Effects: true})
	p.PrintResult(res)
	output := p.String()

	for _, line := range []string{
		"%0: Int = READ_GLOBAL $hits  ; global:read $hits",
		"WRITE_GLOBAL $hits, %2  ; global:write $hits",
		"PRINT %3  ; io",
		"%4: Unit = CONST ()",
	} {
		if !strings.Contains(output, line) {
			t.Errorf("output should contain %q:\n%s", line, output)
		}
	}
	if strings.Contains(output, "ADD %0, %1  ;") {
		t.Error("pure statements should not be annotated")
	}
}

func TestPrintAuxiliaryGraphs(t *testing.T) {
	h := &Handle{Name: "outer", Ret: Int}
	res := build(t, h, func(b *Builder, args []*Atom) Expr {
		b.DefineNested(testPos, &Handle{Name: "inner", Ret: Int}, func([]*Atom) (any, func(b *Builder) Expr) {
			return nil, func(b *Builder) Expr { return intLit(5) }
		})
		return intLit(6)
	})

	output := Print(res)
	outer := strings.Index(output, "fn outer()")
	inner := strings.Index(output, "fn inner()")
	if outer < 0 || inner < 0 || inner < outer {
		t.Errorf("auxiliary graphs should follow the function graph:\n%s", output)
	}
}

func TestPrintErrorAndMaybe(t *testing.T) {
	h := &Handle{Name: "first", Args: []Type{&MaybeType{Elem: Int}}, Ret: Int}
	res := build(t, h, func(b *Builder, args []*Atom) Expr {
		return b.FromJustExpr(args[0], "empty")
	})

	output := PrintCFG(res.CFG)
	if !strings.Contains(output, "fn first(%0: Maybe<Int>) -> Int {") {
		t.Errorf("header should show the optional argument:\n%s", output)
	}
	if !strings.Contains(output, "CASE_MAYBE %0 just block1 nothing block2") {
		t.Errorf("missing optional dispatch:\n%s", output)
	}
	if !strings.Contains(output, "ERROR %2") {
		t.Errorf("missing error terminator:\n%s", output)
	}
}
