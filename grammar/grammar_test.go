package grammar_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weft/grammar"
)

func TestShowcase(t *testing.T) {
	program, err := grammar.ParseFile(`../examples/showcase.wf`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	assert.NotNil(t, program)
	assert.Equal(t, 10, len(program.Items))

	comment := program.Items[0]
	assert.NotNil(t, comment.Comment)
	assert.Equal(t, "// Every construct of the weft front-end in one file.", comment.Comment.Text)

	global := program.Items[1].Global
	require.NotNil(t, global)
	assert.Equal(t, "hits", global.Name)
	assert.Equal(t, "int", global.Type.Name)

	var functions []*grammar.Function
	for _, item := range program.Items {
		if item.Function != nil {
			functions = append(functions, item.Function)
		}
	}
	require.Equal(t, 8, len(functions))

	checkFunction(t, functions[0], "pick", "int", []string{"x: bool"})
	checkFunction(t, functions[1], "count", "int", []string{"n: int"})
	checkFunction(t, functions[2], "safe", "int", []string{"m: maybe int"})
	checkFunction(t, functions[3], "first", "int", []string{"m: maybe int"})
	checkFunction(t, functions[4], "trusted", "int", []string{"m: maybe int"})
	checkFunction(t, functions[5], "adder", "int", []string{"k: int"})
	checkFunction(t, functions[6], "bump", "", nil)
	checkFunction(t, functions[7], "loop", "int", []string{"n: int"})

	checkFunction_Pick(t, functions[0])
	checkFunction_Count(t, functions[1])
	checkFunction_Safe(t, functions[2])
	checkFunction_Adder(t, functions[5])
	checkFunction_Bump(t, functions[6])
	checkFunction_Loop(t, functions[7])
}

func checkFunction(t *testing.T, f *grammar.Function, name string, returnType string, params []string) {
	assert.Equal(t, name, f.Name)

	if returnType != "" {
		require.NotNil(t, f.Return)
		assert.Equal(t, returnType, f.Return.String())
	} else {
		assert.Nil(t, f.Return)
	}

	require.Equal(t, len(params), len(f.Params))
	for i, p := range f.Params {
		assert.Equal(t, params[i], p.String(), "param %d mismatch", i)
	}
}

func checkFunction_Pick(t *testing.T, f *grammar.Function) {
	require.Equal(t, 1, len(f.Body.Statements))
	tail := f.Body.Statements[0].Expr
	require.NotNil(t, tail)
	assert.False(t, tail.Semi)

	cond := tail.Expr.Left.Value.Primary.If
	require.NotNil(t, cond)
	require.NotNil(t, cond.Arms.Value)
	assert.Equal(t, "x", cond.Cond.String())
	assert.Equal(t, "1", cond.Arms.Value.Then.String())
	assert.Equal(t, "2", cond.Arms.Value.Else.String())
}

func checkFunction_Count(t *testing.T, f *grammar.Function) {
	stmts := f.Body.Statements
	require.Equal(t, 4, len(stmts))

	require.NotNil(t, stmts[0].Var)
	assert.Equal(t, "i", stmts[0].Var.Name)
	assert.Equal(t, "int", stmts[0].Var.Type.Name)

	require.NotNil(t, stmts[1].While)
	assert.Equal(t, "i < n", stmts[1].While.Cond.String())
	require.Equal(t, 1, len(stmts[1].While.Body.Statements))
	assign := stmts[1].While.Body.Statements[0].Assign
	require.NotNil(t, assign)
	assert.Equal(t, "i", assign.Name)
	assert.Equal(t, "i + 1", assign.Value.String())

	require.NotNil(t, stmts[2].Print)
	assert.Equal(t, "done", *stmts[2].Print.Value.Left.Value.Primary.String)

	require.NotNil(t, stmts[3].Expr)
	assert.False(t, stmts[3].Expr.Semi)
}

func checkFunction_Safe(t *testing.T, f *grammar.Function) {
	m := f.Body.Statements[0].Expr.Expr.Left.Value.Primary.Match
	require.NotNil(t, m)
	assert.Equal(t, "m", m.Value.String())
	assert.Equal(t, "v", m.Binding)
	assert.Equal(t, "v + 1", m.Some.Expr.String())
	assert.Equal(t, "0", m.None.Expr.String())
}

func checkFunction_Adder(t *testing.T, f *grammar.Function) {
	let := f.Body.Statements[0].Let
	require.NotNil(t, let)
	assert.Equal(t, "add", let.Name)

	lambda := let.Value.Left.Value.Primary.Lambda
	require.NotNil(t, lambda)
	assert.Equal(t, "y", lambda.Params[0].Name)
	assert.Equal(t, "int", lambda.Return.Name)

	call := f.Body.Statements[1].Expr.Expr.Left.Value
	assert.Equal(t, "add", *call.Primary.Ident)
	require.Equal(t, 1, len(call.Suffix))
	require.NotNil(t, call.Suffix[0].Call)
	assert.Equal(t, 1, len(call.Suffix[0].Call.Args))
}

func checkFunction_Bump(t *testing.T, f *grammar.Function) {
	stmts := f.Body.Statements
	require.Equal(t, 3, len(stmts))

	require.NotNil(t, stmts[0].GlobalAssign)
	assert.Equal(t, "hits", stmts[0].GlobalAssign.Name)
	assert.Equal(t, "$hits + 1", stmts[0].GlobalAssign.Value.String())

	require.NotNil(t, stmts[1].Unless)
	require.NotNil(t, stmts[1].Unless.Body.Statements[0].Fail)

	require.NotNil(t, stmts[2].Assert)
	assert.Equal(t, "$hits > 0", stmts[2].Assert.Cond.String())
}

func checkFunction_Loop(t *testing.T, f *grammar.Function) {
	stmts := f.Body.Statements
	require.Equal(t, 2, len(stmts))

	cond := stmts[0].Expr.Expr.Left.Value.Primary.If
	require.NotNil(t, cond)
	require.NotNil(t, cond.Arms.Block)
	assert.Nil(t, cond.Arms.Block.Else)
	require.NotNil(t, cond.Arms.Block.Then.Statements[0].Return)

	require.NotNil(t, stmts[1].Tail)
	assert.Equal(t, "loop", stmts[1].Tail.Callee)
	assert.Equal(t, "n - 1", stmts[1].Tail.Args[0].String())
}

func TestUnwrapSuffixes(t *testing.T) {
	program, err := grammar.ParseString("test.wf", `fn f(m: maybe int) -> int { m!! "proven" }`)
	require.NoError(t, err)

	suffix := program.Items[0].Function.Body.Statements[0].Expr.Expr.Left.Value.Suffix
	require.Equal(t, 1, len(suffix))
	require.NotNil(t, suffix[0].Assume)
	assert.Equal(t, "proven", *suffix[0].Assume)
	assert.Nil(t, suffix[0].Unwrap)
}

func TestElseIfChain(t *testing.T) {
	src := `fn sign(n: int) -> int {
    if n < 0 { -1 } else if n == 0 { 0 } else { 1 }
}`
	program, err := grammar.ParseString("test.wf", src)
	require.NoError(t, err)

	cond := program.Items[0].Function.Body.Statements[0].Expr.Expr.Left.Value.Primary.If
	require.NotNil(t, cond)
	require.NotNil(t, cond.Arms.Block.Else)
	nested := cond.Arms.Block.Else.If
	require.NotNil(t, nested)
	assert.Equal(t, "n == 0", nested.Cond.String())
	require.NotNil(t, nested.Arms.Block.Else.Block)
}

func TestSyntaxErrorPosition(t *testing.T) {
	_, err := grammar.ParseString("broken.wf", "fn f() -> int {\n    let x = ;\n}")
	require.Error(t, err)

	pos, msg, ok := grammar.ErrorPosition(err)
	assert.True(t, ok)
	assert.Equal(t, "broken.wf", pos.Filename)
	assert.Equal(t, 2, pos.Line)
	assert.NotEmpty(t, msg)
}

func TestPrinterRoundTrip(t *testing.T) {
	program, err := grammar.ParseFile(`../examples/showcase.wf`)
	require.NoError(t, err)

	formatted := program.String()
	again, err := grammar.ParseString("formatted.wf", formatted)
	require.NoError(t, err, "formatted source should parse:\n%s", formatted)
	assert.Equal(t, formatted, again.String())

	assert.Contains(t, formatted, "fn pick(x: bool) -> int {\n    if x then 1 else 2\n}")
	assert.Contains(t, formatted, `m! "empty"`)
	assert.Contains(t, formatted, "let add = fn (y: int) -> int {\n        y + k\n    };")
}

func TestTokens(t *testing.T) {
	tokens, err := grammar.Tokens("t.wf", "let x = \"a b\"; // done\n")
	require.NoError(t, err)

	var values []string
	for _, tok := range tokens {
		values = append(values, tok.Value)
	}
	assert.Equal(t, []string{"let", "x", "=", `"a b"`, ";", "// done"}, values)
	assert.Equal(t, 5, tokens[1].Pos.Column)

	tokens, err = grammar.Tokens("t.wf", "x # y")
	assert.Error(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "x", tokens[0].Value)
}
