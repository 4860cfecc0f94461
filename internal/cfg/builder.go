package cfg

import (
	"github.com/tliron/commonlog"

	"weft/internal/ast"
	"weft/internal/errors"
)

var log = commonlog.GetLogger("weft.cfg")

// Builder assembles the blocks of one function. A fresh Builder is created
// by every DefineFunction call; it is not safe for concurrent use.
type Builder struct {
	handle *Handle
	pos    ast.Position

	blocks  []*Block
	defined map[BlockID]bool

	nextLabel BlockID
	nextValue ValueID

	// current is the open block, nil between sealing and the next start
	current *openBlock

	state        any
	initialState any

	aux []*CFG

	atoms     map[*Atom]bool
	registers map[*Register]bool

	// homes maps every placed atom to its defining block. Lambda inputs are
	// placed when their block starts.
	homes map[*Atom]BlockID
}

type openBlock struct {
	id     BlockID
	pos    ast.Position
	inputs []*Atom
	stmts  []Stmt
	lambda bool
}

func newBuilder(pos ast.Position, handle *Handle) *Builder {
	return &Builder{
		handle:    handle,
		pos:       pos,
		defined:   make(map[BlockID]bool),
		nextLabel: 1,
		nextValue: ValueID(len(handle.Args)),
		atoms:     make(map[*Atom]bool),
		registers: make(map[*Register]bool),
		homes:     make(map[*Atom]BlockID),
	}
}

// Handle returns the handle of the function being built.
func (b *Builder) Handle() *Handle { return b.handle }

// Position returns the position attached to everything emitted next.
func (b *Builder) Position() ast.Position { return b.pos }

// SetPosition changes the current position.
func (b *Builder) SetPosition(pos ast.Position) { b.pos = pos }

// WithPosition runs fn with the current position set to pos and restores
// the previous position afterwards.
func (b *Builder) WithPosition(pos ast.Position, fn func()) {
	saved := b.pos
	b.pos = pos
	defer func() { b.pos = saved }()
	fn()
}

// State returns the per-block auxiliary state. It is reset to the initial
// state returned by the function definition whenever a new block starts.
func (b *Builder) State() any { return b.state }

// SetState replaces the per-block auxiliary state.
func (b *Builder) SetState(s any) { b.state = s }

// IsOpen reports whether a block is currently open for writing. It is
// false right after a terminating call.
func (b *Builder) IsOpen() bool { return b.current != nil }

// CurrentBlock returns the id of the open block.
func (b *Builder) CurrentBlock() (BlockID, bool) {
	if b.current == nil {
		return 0, false
	}
	return b.current.id, true
}

func (b *Builder) nextLabelID() BlockID {
	id := b.nextLabel
	b.nextLabel++
	return id
}

func (b *Builder) nextValueID() ValueID {
	id := b.nextValue
	b.nextValue++
	return id
}

// NewLabel allocates a label for a block without inputs.
func (b *Builder) NewLabel() Label {
	return Label{ID: b.nextLabelID()}
}

// NewLambdaLabel allocates a label for a block receiving one value of type
// typ. The input atom is allocated together with the label.
func (b *Builder) NewLambdaLabel(typ Type) LambdaLabel {
	if typ == nil {
		b.violate(errors.BuilderState("lambda label without a type", b.pos))
	}
	id := b.nextLabelID()
	return LambdaLabel{ID: id, Input: b.newAtom(typ, AtomSource{Kind: LambdaInput, Block: id})}
}

func (b *Builder) newAtom(typ Type, src AtomSource) *Atom {
	a := &Atom{ID: b.nextValueID(), Pos: b.pos, Type: typ, Source: src}
	b.atoms[a] = true
	if src.Kind == FromStatement {
		b.homes[a] = b.current.id
	}
	return a
}

// violate aborts the build. DefineFunction recovers the error.
func (b *Builder) violate(err *errors.CompilerError) {
	panic(err)
}

// checkAtom rejects atoms of another build and atoms whose block has not
// been started yet. Uses in blocks the definition does not dominate can
// only be found once the graph is complete; see checkScopes.
func (b *Builder) checkAtom(a *Atom) {
	if !b.atoms[a] {
		b.violate(errors.ForeignAtom(int(a.ID), b.pos))
	}
	if _, placed := b.homes[a]; !placed && b.current != nil {
		b.violate(errors.OutOfScopeAtom(int(a.ID), int(b.current.id), b.pos))
	}
}

// checkTargets rejects a finished graph with a terminator whose target
// block was never defined.
func (b *Builder) checkTargets() {
	for _, blk := range b.blocks {
		for _, id := range blk.Term.GetSuccessors() {
			if !b.defined[id] {
				b.violate(errors.UndefinedLabel(int(id), blk.Term.GetPos()))
			}
		}
	}
}

// checkScopes rejects a finished graph using an atom on a path where it
// was never assigned.
func (b *Builder) checkScopes() {
	if found := scopeViolations(b.blocks); len(found) > 0 {
		v := found[0]
		b.violate(errors.OutOfScopeAtom(int(v.atom.ID), int(v.block), v.pos))
	}
}

func (b *Builder) checkRegister(r *Register) {
	if !b.registers[r] {
		b.violate(errors.BuilderState("register does not belong to this function", b.pos))
	}
}

func (b *Builder) expectType(context string, want, got Type) {
	if !TypesEqual(want, got) {
		b.violate(errors.BuilderTypeMismatch(context, typeName(want), typeName(got), b.pos))
	}
}

func typeName(t Type) string {
	if t == nil {
		return "<none>"
	}
	return t.String()
}

// flatten reduces e to an atom. Atoms are returned unchanged; applications
// are flattened operands first and then evaluated by one Assign statement.
// Nothing is memoized: flattening the same tree twice emits it twice.
func (b *Builder) flatten(e Expr) *Atom {
	if e == nil {
		b.violate(errors.BuilderState("nil expression", b.pos))
	}
	if IsDiverged(e) {
		b.violate(errors.DivergedOperand(b.pos))
	}
	if a, ok := e.(*Atom); ok {
		b.checkAtom(a)
		return a
	}
	ops := e.Operands()
	args := make([]*Atom, len(ops))
	for i, op := range ops {
		args[i] = b.flatten(op)
	}
	b.requireOpen("Assign")
	result := b.newAtom(e.ResultType(), AtomSource{Kind: FromStatement})
	b.emit(&AssignStmt{Pos: b.pos, Result: result, Op: e, Args: args}, "Assign")
	return result
}

// ForceEvaluation materializes e once so the resulting atom can be reused
// without recomputing e.
func (b *Builder) ForceEvaluation(e Expr) *Atom {
	return b.flatten(e)
}

func (b *Builder) requireOpen(op string) {
	if b.current == nil {
		b.violate(errors.NoOpenBlock(op, b.pos))
	}
}

func (b *Builder) emit(s Stmt, op string) {
	b.requireOpen(op)
	b.current.stmts = append(b.current.stmts, s)
}

// startBlock opens block id. The previous block must have been sealed.
func (b *Builder) startBlock(id BlockID, inputs []*Atom, lambda bool) {
	if b.current != nil {
		b.violate(errors.UnterminatedBlock(int(b.current.id), b.pos))
	}
	if b.defined[id] {
		b.violate(errors.LabelReuse(int(id), b.pos))
	}
	if id >= b.nextLabel {
		b.violate(errors.BuilderState("label was not allocated by this builder", b.pos))
	}
	b.defined[id] = true
	for _, in := range inputs {
		b.homes[in] = id
	}
	b.current = &openBlock{id: id, pos: b.pos, inputs: inputs, lambda: lambda}
	b.state = b.initialState
}

// terminate seals the open block with term.
func (b *Builder) terminate(term Terminator) {
	blk := &Block{
		ID:       b.current.id,
		Pos:      b.current.pos,
		Inputs:   b.current.inputs,
		Stmts:    b.current.stmts,
		Term:     term,
		IsLambda: b.current.lambda,
	}
	b.blocks = append(b.blocks, blk)
	b.current = nil
	log.Debugf("sealed block %d of %s (%d statements)", blk.ID, b.handle.Name, len(blk.Stmts))
}

// Assign evaluates e and binds the value to a fresh atom. Unlike
// ForceEvaluation it always emits a statement, copying e when it already
// is an atom.
func (b *Builder) Assign(e Expr) *Atom {
	if a, ok := e.(*Atom); ok {
		b.checkAtom(a)
		b.requireOpen("Assign")
		result := b.newAtom(a.Type, AtomSource{Kind: FromStatement})
		b.emit(&AssignStmt{Pos: b.pos, Result: result, Op: a, Args: []*Atom{a}}, "Assign")
		return result
	}
	return b.flatten(e)
}

// ReadGlobal reads the current value of g.
func (b *Builder) ReadGlobal(g *GlobalVar) *Atom {
	b.requireOpen("ReadGlobal")
	result := b.newAtom(g.Type, AtomSource{Kind: FromStatement})
	b.emit(&ReadGlobalStmt{Pos: b.pos, Result: result, Global: g}, "ReadGlobal")
	return result
}

// WriteGlobal stores v into g.
func (b *Builder) WriteGlobal(g *GlobalVar, v Expr) {
	value := b.flatten(v)
	b.expectType("write to global "+g.Name, g.Type, value.Type)
	b.emit(&WriteGlobalStmt{Pos: b.pos, Global: g, Value: value}, "WriteGlobal")
}

// NewRef allocates a reference cell holding v.
func (b *Builder) NewRef(v Expr) *Atom {
	value := b.flatten(v)
	b.requireOpen("NewRef")
	result := b.newAtom(&RefType{Elem: value.Type}, AtomSource{Kind: FromStatement})
	b.emit(&NewRefStmt{Pos: b.pos, Result: result, Value: value}, "NewRef")
	return result
}

func (b *Builder) refAtom(e Expr) (*Atom, *RefType) {
	ref := b.flatten(e)
	rt, ok := ref.Type.(*RefType)
	if !ok {
		b.violate(errors.BuilderTypeMismatch("reference operand", "Ref<_>", typeName(ref.Type), b.pos))
	}
	return ref, rt
}

// ReadRef reads the value held by a reference cell.
func (b *Builder) ReadRef(ref Expr) *Atom {
	r, rt := b.refAtom(ref)
	b.requireOpen("ReadRef")
	result := b.newAtom(rt.Elem, AtomSource{Kind: FromStatement})
	b.emit(&ReadRefStmt{Pos: b.pos, Result: result, Ref: r}, "ReadRef")
	return result
}

// WriteRef stores v into a reference cell.
func (b *Builder) WriteRef(ref, v Expr) {
	r, rt := b.refAtom(ref)
	value := b.flatten(v)
	b.expectType("write to reference", rt.Elem, value.Type)
	b.emit(&WriteRefStmt{Pos: b.pos, Ref: r, Value: value}, "WriteRef")
}

// DropRef deallocates a reference cell.
func (b *Builder) DropRef(ref Expr) {
	r, _ := b.refAtom(ref)
	b.emit(&DropRefStmt{Pos: b.pos, Ref: r}, "DropRef")
}

// NewRegister allocates a register. It emits nothing; reading it before
// the first write is a runtime error of the translated program.
func (b *Builder) NewRegister(typ Type) *Register {
	if typ == nil {
		b.violate(errors.BuilderState("register without a type", b.pos))
	}
	r := &Register{ID: b.nextValueID(), Pos: b.pos, Type: typ}
	b.registers[r] = true
	return r
}

// ReadRegister reads r into a fresh atom.
func (b *Builder) ReadRegister(r *Register) *Atom {
	b.checkRegister(r)
	b.requireOpen("ReadRegister")
	result := b.newAtom(r.Type, AtomSource{Kind: FromStatement})
	b.emit(&ReadRegisterStmt{Pos: b.pos, Result: result, Reg: r}, "ReadRegister")
	return result
}

// SetRegister writes v into r.
func (b *Builder) SetRegister(r *Register, v Expr) {
	b.checkRegister(r)
	value := b.flatten(v)
	b.expectType("register write", r.Type, value.Type)
	b.emit(&SetRegisterStmt{Pos: b.pos, Reg: r, Value: value}, "SetRegister")
}

// Print emits a diagnostic print of a String value.
func (b *Builder) Print(msg Expr) {
	m := b.flatten(msg)
	b.expectType("print", String, m.Type)
	b.emit(&PrintStmt{Pos: b.pos, Msg: m}, "Print")
}

// Assert fails the translated program with msg when cond is false.
func (b *Builder) Assert(cond, msg Expr) {
	c := b.flatten(cond)
	b.expectType("assert condition", Bool, c.Type)
	m := b.flatten(msg)
	b.expectType("assert message", String, m.Type)
	b.emit(&AssertStmt{Pos: b.pos, Cond: c, Msg: m}, "Assert")
}

func (b *Builder) callee(fn Expr, args []Expr) (*Atom, *FuncType, []*Atom) {
	f := b.flatten(fn)
	ft, ok := f.Type.(*FuncType)
	if !ok {
		b.violate(errors.BuilderTypeMismatch("callee", "fn(...)", typeName(f.Type), b.pos))
	}
	if len(args) != len(ft.Args) {
		b.violate(errors.ArgumentCount(len(ft.Args), len(args), b.pos))
	}
	atoms := make([]*Atom, len(args))
	for i, arg := range args {
		atoms[i] = b.flatten(arg)
		b.expectType("call argument", ft.Args[i], atoms[i].Type)
	}
	return f, ft, atoms
}

// Call invokes fn with args and returns its result.
func (b *Builder) Call(fn Expr, args ...Expr) *Atom {
	f, ft, atoms := b.callee(fn, args)
	b.requireOpen("Call")
	result := b.newAtom(ft.Ret, AtomSource{Kind: FromStatement})
	b.emit(&CallStmt{Pos: b.pos, Result: result, Func: f, Args: atoms}, "Call")
	return result
}

// Extension runs an opaque operation over its flattened operands.
func (b *Builder) Extension(op ExtensionOp) *Atom {
	ops := op.Operands()
	args := make([]*Atom, len(ops))
	for i, o := range ops {
		args[i] = b.flatten(o)
	}
	b.requireOpen("Extension")
	result := b.newAtom(op.ResultType(), AtomSource{Kind: FromStatement})
	b.emit(&ExtensionStmt{Pos: b.pos, Result: result, Op: op, Args: args}, "Extension")
	return result
}
