package cfg

import (
	"weft/internal/ast"
	"weft/internal/errors"
)

// FunctionDef receives the argument atoms of the function being defined
// and returns the initial per-block state plus the action building the
// body. The value the action returns is the function's result.
type FunctionDef func(args []*Atom) (state any, body func(b *Builder) Expr)

// DefineFunction builds the graph of the function described by handle.
// The entry block has id 0 and one input atom per argument. If the body
// leaves its block open, its result is returned with a Return terminator.
//
// A contract violation by def aborts the build and is returned as a
// *errors.CompilerError. So does a finished graph that jumps to a block
// never defined or uses an atom on a path where it was not assigned.
func DefineFunction(pos ast.Position, handle *Handle, def FunctionDef) (res *Result, err error) {
	b := newBuilder(pos, handle)
	defer func() {
		if r := recover(); r != nil {
			ce, ok := r.(*errors.CompilerError)
			if !ok {
				panic(r)
			}
			log.Debugf("build of %s aborted: %s", handle.Name, ce.Error())
			res, err = nil, ce
		}
	}()
	return b.build(pos, def), nil
}

func (b *Builder) build(pos ast.Position, def FunctionDef) *Result {
	args := make([]*Atom, len(b.handle.Args))
	for i, t := range b.handle.Args {
		args[i] = &Atom{ID: ValueID(i), Pos: b.pos, Type: t, Source: AtomSource{Kind: BlockInput}}
		b.atoms[args[i]] = true
	}

	state, body := def(args)
	b.initialState = state
	b.startBlock(0, args, false)

	result := body(b)
	if b.IsOpen() {
		b.Return(result)
	} else if result != nil && !IsDiverged(result) {
		b.violate(errors.BuilderState("function body returned a value after its block was sealed", b.pos))
	}
	b.checkTargets()
	b.checkScopes()

	g := &CFG{Handle: b.handle, Pos: pos, Blocks: b.blocks}
	log.Debugf("built %s: %d blocks, %d auxiliary graphs", b.handle.Name, len(g.Blocks), len(b.aux))
	return &Result{CFG: g, Aux: b.aux}
}

// RecordCFG records an auxiliary graph, typically the graph of a nested
// definition met while translating the current function. Recorded graphs
// are returned most recently recorded first.
func (b *Builder) RecordCFG(g *CFG) {
	b.aux = append([]*CFG{g}, b.aux...)
}

// DefineNested builds a nested function and records its graph together
// with the graphs it recorded itself. A contract violation inside the
// nested build aborts the enclosing build too.
func (b *Builder) DefineNested(pos ast.Position, handle *Handle, def FunctionDef) *CFG {
	res, err := DefineFunction(pos, handle, def)
	if err != nil {
		b.violate(err.(*errors.CompilerError))
	}
	for i := len(res.Aux) - 1; i >= 0; i-- {
		b.RecordCFG(res.Aux[i])
	}
	b.RecordCFG(res.CFG)
	return res.CFG
}
