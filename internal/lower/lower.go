// Package lower translates a parsed weft program into control-flow graphs.
// It is the front-end client of cfg.Builder: every function declared in
// the source becomes one DefineFunction call, nested function literals
// become auxiliary graphs of the function that contains them.
package lower

import (
	"fmt"

	"github.com/tliron/commonlog"

	"weft/grammar"
	"weft/internal/ast"
	"weft/internal/cfg"
	"weft/internal/directory"
	"weft/internal/errors"
)

var log = commonlog.GetLogger("weft.lower")

// Function is one lowered source function.
type Function struct {
	Name   string
	Source *grammar.Function
	Result *cfg.Result
}

// Output is everything produced for one program. Functions whose lowering
// failed are missing from Functions and have an entry in Problems.
type Output struct {
	Functions []*Function
	Problems  []errors.CompilerError
}

// Errors returns the problems that are not warnings.
func (o *Output) Errors() []errors.CompilerError {
	var errs []errors.CompilerError
	for _, p := range o.Problems {
		if !p.IsWarning() {
			errs = append(errs, p)
		}
	}
	return errs
}

func (o *Output) HasErrors() bool {
	return len(o.Errors()) > 0
}

// Lookup returns the lowered function called name.
func (o *Output) Lookup(name string) *Function {
	for _, fn := range o.Functions {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

// Validate runs cfg.Validate over every graph and reports the graphs
// that are not well formed.
func (o *Output) Validate() []errors.CompilerError {
	var problems []errors.CompilerError
	for _, fn := range o.Functions {
		graphs := append([]*cfg.CFG{fn.Result.CFG}, fn.Result.Aux...)
		for _, g := range graphs {
			if err := cfg.Validate(g); err != nil {
				problems = append(problems, *errors.BuilderState(err.Error(), grammar.Position(fn.Source.Pos)))
			}
		}
	}
	return problems
}

type lowerer struct {
	dir      *directory.Directory
	globals  map[string]*cfg.GlobalVar
	problems []errors.CompilerError

	// nested counts the nested functions named after each enclosing
	// function and binding, so that shadowed bindings get distinct names
	nested map[string]int
}

// Lower translates program. dir provides the externs; it is not modified.
func Lower(program *grammar.Program, dir *directory.Directory) *Output {
	if dir == nil {
		dir = directory.New()
	}
	l := &lowerer{
		dir:     dir.Clone(),
		globals: make(map[string]*cfg.GlobalVar),
		nested:  make(map[string]int),
	}

	var functions []*grammar.Function
	for _, item := range program.Items {
		switch {
		case item.Global != nil:
			l.declareGlobal(item.Global)
		case item.Function != nil:
			if l.declareFunction(item.Function) {
				functions = append(functions, item.Function)
			}
		}
	}

	out := &Output{}
	for _, fn := range functions {
		res, err := l.function(fn)
		if err != nil {
			l.problems = append(l.problems, *err)
			continue
		}
		out.Functions = append(out.Functions, &Function{Name: fn.Name, Source: fn, Result: res})
	}
	out.Problems = l.problems
	return out
}

func (l *lowerer) report(err errors.CompilerError) {
	l.problems = append(l.problems, err)
}

func (l *lowerer) declareGlobal(g *grammar.Global) {
	pos := grammar.Position(g.Pos)
	if _, exists := l.globals[g.Name]; exists {
		l.report(errors.DuplicateDeclaration("$"+g.Name, pos))
		return
	}
	typ, err := resolveType(g.Type)
	if err != nil {
		l.report(*err)
		return
	}
	l.globals[g.Name] = &cfg.GlobalVar{Name: g.Name, Type: typ}
}

func (l *lowerer) declareFunction(fn *grammar.Function) bool {
	pos := grammar.Position(fn.Pos)
	handle := &cfg.Handle{Name: fn.Name, Ret: cfg.Unit}
	for _, p := range fn.Params {
		typ, err := resolveType(p.Type)
		if err != nil {
			l.report(*err)
			return false
		}
		handle.Args = append(handle.Args, typ)
	}
	if fn.Return != nil {
		typ, err := resolveType(fn.Return)
		if err != nil {
			l.report(*err)
			return false
		}
		handle.Ret = typ
	}

	if err := l.dir.Declare(&directory.Entry{Handle: handle, Pos: pos}); err != nil {
		l.report(*err.(*errors.CompilerError))
		return false
	}
	return true
}

// function lowers one top-level function.
func (l *lowerer) function(fn *grammar.Function) (*cfg.Result, *errors.CompilerError) {
	entry, _ := l.dir.Lookup(fn.Name)
	c := &function{lowerer: l, name: fn.Name, ret: entry.Handle.Ret}

	res, err := cfg.DefineFunction(grammar.Position(fn.Pos), entry.Handle, func(args []*cfg.Atom) (any, func(b *cfg.Builder) cfg.Expr) {
		c.scope = newScope(nil, false)
		for i, p := range fn.Params {
			c.bindParam(p.Name, args[i], grammar.Position(p.Pos))
		}
		return nil, func(b *cfg.Builder) cfg.Expr { return c.body(b, fn.Body) }
	})
	if err != nil {
		ce, ok := err.(*errors.CompilerError)
		if !ok {
			ce = errors.BuilderState(fmt.Sprintf("lowering %s: %v", fn.Name, err), grammar.Position(fn.Pos))
		}
		log.Debugf("lowering %s failed: %s", fn.Name, ce.Error())
		return nil, ce
	}
	log.Debugf("lowered %s: %d blocks, %d nested", fn.Name, len(res.CFG.Blocks), len(res.Aux))
	return res, nil
}

// resolveType maps a source type to a cfg type.
func resolveType(t *grammar.Type) (cfg.Type, *errors.CompilerError) {
	if t.Maybe != nil {
		elem, err := resolveType(t.Maybe)
		if err != nil {
			return nil, err
		}
		return &cfg.MaybeType{Elem: elem}, nil
	}
	if typ, ok := directory.ParseKeyword(t.Name); ok {
		return typ, nil
	}
	err := errors.UnknownType(t.Name, grammar.Position(t.Pos))
	return nil, &err
}

// abort wraps err so that it can be raised inside a build. DefineFunction
// recovers it and returns it as the build error.
func abort(err errors.CompilerError) *errors.CompilerError {
	return &err
}

// function holds the state of one function being lowered. Nested function
// literals get their own function sharing the lowerer.
type function struct {
	*lowerer
	name  string
	ret   cfg.Type
	scope *scope
}

func (c *function) resolve(t *grammar.Type) cfg.Type {
	typ, err := resolveType(t)
	if err != nil {
		panic(err)
	}
	return typ
}

func (c *function) bindParam(name string, atom *cfg.Atom, pos ast.Position) {
	if _, exists := c.scope.names[name]; exists {
		panic(abort(errors.DuplicateDeclaration(name, pos)))
	}
	c.scope.bind(&binding{name: name, pos: pos, typ: atom.Type, atom: atom, param: true})
}

// body lowers a function body and checks its value against the declared
// result type.
func (c *function) body(b *cfg.Builder, body *grammar.Block) cfg.Expr {
	v := c.block(b, body)
	if cfg.IsDiverged(v) {
		return v
	}
	if !cfg.Assignable(c.ret, v.ResultType()) {
		pos := grammar.Position(body.EndPos)
		if _, tail := split(body); tail != nil {
			pos = grammar.Position(tail.Pos)
		}
		panic(abort(errors.InvalidReturn(c.name, c.ret.String(), v.ResultType().String(), pos)))
	}
	return v
}
