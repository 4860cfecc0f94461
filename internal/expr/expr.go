// Package expr is the expression algebra of the weft front-end. Every
// expression implements cfg.Expr so the builder can flatten it.
package expr

import (
	"fmt"

	"weft/internal/cfg"
)

// Int returns an Int constant.
func Int(n int64) *cfg.Literal { return &cfg.Literal{Value: n, Type: cfg.Int} }

// Bool returns a Bool constant.
func Bool(v bool) *cfg.Literal { return &cfg.Literal{Value: v, Type: cfg.Bool} }

// Str returns a String constant.
func Str(s string) *cfg.Literal { return cfg.StringLit(s) }

// Unit returns the unit constant.
func Unit() *cfg.Literal { return &cfg.Literal{Type: cfg.Unit} }

// Not is logical negation. The builder recognizes it when branching and
// swaps targets instead of evaluating it.
type Not struct {
	Arg cfg.Expr
}

func (n *Not) ResultType() cfg.Type { return cfg.Bool }
func (n *Not) Operands() []cfg.Expr { return []cfg.Expr{n.Arg} }
func (n *Not) Negated() cfg.Expr    { return n.Arg }
func (n *Not) OpName() string       { return "NOT" }

// Neg is integer negation.
type Neg struct {
	Arg cfg.Expr
}

func (n *Neg) ResultType() cfg.Type { return cfg.Int }
func (n *Neg) Operands() []cfg.Expr { return []cfg.Expr{n.Arg} }
func (n *Neg) OpName() string       { return "NEG" }

// Show renders a value as a String.
type Show struct {
	Arg cfg.Expr
}

func (s *Show) ResultType() cfg.Type { return cfg.String }
func (s *Show) Operands() []cfg.Expr { return []cfg.Expr{s.Arg} }
func (s *Show) OpName() string       { return "SHOW" }

// Just wraps a value into a present optional.
type Just struct {
	Arg cfg.Expr
}

func (j *Just) ResultType() cfg.Type { return &cfg.MaybeType{Elem: j.Arg.ResultType()} }
func (j *Just) Operands() []cfg.Expr { return []cfg.Expr{j.Arg} }
func (j *Just) OpName() string       { return "JUST" }

// Nothing is the absent optional of element type Elem.
type Nothing struct {
	Elem cfg.Type
}

func (n *Nothing) ResultType() cfg.Type { return &cfg.MaybeType{Elem: n.Elem} }
func (n *Nothing) Operands() []cfg.Expr { return nil }
func (n *Nothing) OpName() string       { return "NOTHING" }

// Inject builds case Case of a variant.
type Inject struct {
	Variant *cfg.VariantType
	Case    int
	Arg     cfg.Expr
}

func (i *Inject) ResultType() cfg.Type { return i.Variant }
func (i *Inject) Operands() []cfg.Expr { return []cfg.Expr{i.Arg} }
func (i *Inject) OpName() string       { return fmt.Sprintf("INJECT.%d", i.Case) }

// FuncRef is a reference to a function by name, usable as a callee.
type FuncRef struct {
	Name string
	Type *cfg.FuncType
}

func (f *FuncRef) ResultType() cfg.Type { return f.Type }
func (f *FuncRef) Operands() []cfg.Expr { return nil }
func (f *FuncRef) OpName() string       { return "FUNC " + f.Name }

// Ref returns a reference to the function described by h.
func Ref(h *cfg.Handle) *FuncRef {
	return &FuncRef{Name: h.Name, Type: h.Type()}
}

// Extension is an opaque operation implemented outside the core, declared
// in the configuration file.
type Extension struct {
	Name string
	Args []cfg.Expr
	Ret  cfg.Type
}

func (e *Extension) ResultType() cfg.Type  { return e.Ret }
func (e *Extension) Operands() []cfg.Expr  { return e.Args }
func (e *Extension) ExtensionName() string { return e.Name }
