package lower

import (
	"fmt"
	"sort"

	"weft/grammar"
	"weft/internal/ast"
	"weft/internal/cfg"
	"weft/internal/errors"
	"weft/internal/expr"
)

var (
	identToken = grammar.WeftLexer.Symbols()["Ident"]
	punctToken = grammar.WeftLexer.Symbols()["Punctuation"]
)

// target is a resolved callee.
type target struct {
	name      string
	fn        *cfg.FuncType
	handle    *cfg.Handle
	captured  []*cfg.Atom
	extension bool
}

// callee resolves a call by name: a local function first, then the
// directory.
func (c *function) callee(name string, pos ast.Position) *target {
	if bnd := c.scope.lookup(name); bnd != nil {
		if bnd.closure == nil {
			panic(abort(errors.NotCallable(name, bnd.typ.String(), pos)))
		}
		cl := bnd.closure
		return &target{name: name, fn: cl.fn, handle: cl.handle, captured: cl.captured}
	}
	entry, ok := c.dir.Lookup(name)
	if !ok {
		panic(abort(errors.UndefinedFunction(name, pos, errors.FindSimilarNames(name, c.dir.Names()))))
	}
	return &target{name: name, fn: entry.Handle.Type(), handle: entry.Handle, extension: entry.Extension}
}

// arguments lowers the arguments of a call to t, captured values first.
// ok is false if an argument left the current block.
func (c *function) arguments(b *cfg.Builder, t *target, args []*grammar.Expr, pos ast.Position) (values []cfg.Expr, ok bool) {
	if len(args) != len(t.fn.Args) {
		panic(abort(errors.InvalidArguments(t.name, len(t.fn.Args), len(args), pos)))
	}
	values = make([]cfg.Expr, 0, len(t.captured)+len(args))
	for _, a := range t.captured {
		values = append(values, a)
	}
	for i, arg := range args {
		v := c.value(b, arg)
		if cfg.IsDiverged(v) {
			return nil, false
		}
		if got := v.ResultType(); !cfg.Assignable(t.fn.Args[i], got) {
			panic(abort(errors.TypeMismatch(t.fn.Args[i].String(), got.String(), grammar.Position(arg.Pos))))
		}
		values = append(values, v)
	}
	return values, true
}

func (c *function) call(b *cfg.Builder, name string, args []*grammar.Expr, pos ast.Position) cfg.Expr {
	t := c.callee(name, pos)
	values, ok := c.arguments(b, t, args, pos)
	if !ok {
		return cfg.Diverged
	}
	if t.extension {
		return b.Extension(&expr.Extension{Name: name, Args: values, Ret: t.fn.Ret})
	}
	return b.Call(expr.Ref(t.handle), values...)
}

// closure lowers a function literal bound to name. The literal becomes a
// nested function whose leading arguments are the values it captures;
// they are copied when the literal is evaluated.
func (c *function) closure(b *cfg.Builder, name string, lambda *grammar.Lambda) *closure {
	fn := &cfg.FuncType{Ret: c.resolve(lambda.Return)}
	for _, p := range lambda.Params {
		fn.Args = append(fn.Args, c.resolve(p.Type))
	}

	captures := c.captures(lambda)
	cl := &closure{fn: fn}
	for _, bnd := range captures {
		switch {
		case bnd.closure != nil:
			cl.captured = append(cl.captured, bnd.closure.captured...)
		case bnd.reg != nil:
			cl.captured = append(cl.captured, b.ReadRegister(bnd.reg))
		default:
			cl.captured = append(cl.captured, bnd.atom)
		}
	}

	handle := &cfg.Handle{Name: c.nestedName(name), Ret: fn.Ret}
	for _, a := range cl.captured {
		handle.Args = append(handle.Args, a.Type)
	}
	handle.Args = append(handle.Args, fn.Args...)
	cl.handle = handle

	inner := &function{lowerer: c.lowerer, name: handle.Name, ret: fn.Ret}
	b.DefineNested(grammar.Position(lambda.Pos), handle, func(args []*cfg.Atom) (any, func(b *cfg.Builder) cfg.Expr) {
		inner.scope = newScope(nil, false)
		i := 0
		for _, bnd := range captures {
			if bnd.closure != nil {
				n := len(bnd.closure.captured)
				rebound := &closure{handle: bnd.closure.handle, fn: bnd.closure.fn, captured: args[i : i+n]}
				inner.scope.bind(&binding{name: bnd.name, pos: bnd.pos, typ: bnd.typ, closure: rebound, param: true})
				i += n
				continue
			}
			inner.scope.bind(&binding{name: bnd.name, pos: bnd.pos, typ: args[i].Type, atom: args[i], param: true})
			i++
		}
		for j, p := range lambda.Params {
			inner.bindParam(p.Name, args[i+j], grammar.Position(p.Pos))
		}
		return nil, func(b *cfg.Builder) cfg.Expr { return inner.body(b, lambda.Body) }
	})
	log.Debugf("closure %s captures %d values", handle.Name, len(cl.captured))
	return cl
}

// captures lists the locals a function literal refers to, sorted by name.
// Any identifier of the literal resolving in the enclosing scope counts,
// except the literal's own parameters and global names.
func (c *function) captures(lambda *grammar.Lambda) []*binding {
	skip := make(map[string]bool)
	for _, p := range lambda.Params {
		skip[p.Name] = true
	}
	var found []*binding
	global := false
	for _, tok := range lambda.Tokens {
		if tok.Type == punctToken && tok.Value == "$" {
			global = true
			continue
		}
		if tok.Type != identToken {
			continue
		}
		if global {
			global = false
			continue
		}
		if skip[tok.Value] {
			continue
		}
		skip[tok.Value] = true
		if bnd := c.scope.lookup(tok.Value); bnd != nil {
			found = append(found, bnd)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].name < found[j].name })
	return found
}

// nestedName names the nested function bound to name in the current
// function. Rebinding the same name gets a numbered suffix.
func (c *function) nestedName(name string) string {
	base := c.name + "." + name
	n := c.nested[base]
	c.nested[base]++
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s#%d", base, n)
}
