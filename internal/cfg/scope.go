package cfg

import (
	"weft/internal/ast"
	"weft/internal/errors"
)

type suspended struct {
	block *openBlock
	pos   ast.Position
	state any
}

func (b *Builder) suspend() suspended {
	s := suspended{block: b.current, pos: b.pos, state: b.state}
	b.current = nil
	return s
}

func (b *Builder) resume(s suspended) {
	b.current = s.block
	b.pos = s.pos
	b.state = s.state
}

// sealedBy runs body in the open block and checks that it terminated it.
func (b *Builder) sealedBy(body func(b *Builder) Expr) {
	body(b)
	if b.current != nil {
		b.violate(errors.UnterminatedBlock(int(b.current.id), b.pos))
	}
}

// DefineBlock builds the block named l with body, which must end with a
// terminating call. The block that was open before, the position and the
// per-block state are restored afterwards.
func (b *Builder) DefineBlock(l Label, body func(b *Builder) Expr) {
	saved := b.suspend()
	b.startBlock(l.ID, nil, false)
	b.sealedBy(body)
	b.resume(saved)
}

// DefineLambdaBlock is DefineBlock for a lambda label; body receives the
// block's input atom.
func (b *Builder) DefineLambdaBlock(l LambdaLabel, body func(b *Builder, input *Atom) Expr) {
	saved := b.suspend()
	b.startBlock(l.ID, []*Atom{l.Input}, true)
	b.sealedBy(func(b *Builder) Expr { return body(b, l.Input) })
	b.resume(saved)
}

// Continue seals the open block with end and makes l the open block, so
// that whatever is emitted next lands in l.
func (b *Builder) Continue(l Label, end func(b *Builder) Expr) {
	b.sealedBy(end)
	b.startBlock(l.ID, nil, false)
}

// ContinueLambda is Continue for a lambda label and returns its input.
func (b *Builder) ContinueLambda(l LambdaLabel, end func(b *Builder) Expr) *Atom {
	b.sealedBy(end)
	b.startBlock(l.ID, []*Atom{l.Input}, true)
	return l.Input
}
