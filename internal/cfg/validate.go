package cfg

import (
	"fmt"
	"strings"
)

// ValidationError lists every structural problem found in a graph.
type ValidationError struct {
	Func     string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid graph for %s: %s", e.Func, strings.Join(e.Problems, "; "))
}

// Validate checks that g is structurally well formed: block ids are
// unique, the entry block exists and takes the arguments, every block is
// terminated, every target exists, jumps agree with the lambda-ness and
// input type of their target, and every atom used is defined in a block
// dominating the use. It does not check the translated program itself.
func Validate(g *CFG) error {
	v := &validator{
		g:       g,
		blocks:  make(map[BlockID]*Block),
		defined: make(map[*Atom]bool),
	}
	v.run()
	if len(v.problems) == 0 {
		return nil
	}
	name := "<nil>"
	if g.Handle != nil {
		name = g.Handle.Name
	}
	return &ValidationError{Func: name, Problems: v.problems}
}

type validator struct {
	g        *CFG
	blocks   map[BlockID]*Block
	defined  map[*Atom]bool
	problems []string
}

func (v *validator) fail(format string, args ...interface{}) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) run() {
	if v.g.Handle == nil {
		v.fail("graph has no handle")
		return
	}

	for _, blk := range v.g.Blocks {
		if _, dup := v.blocks[blk.ID]; dup {
			v.fail("%s defined twice", blockName(blk.ID))
		}
		v.blocks[blk.ID] = blk
		for _, in := range blk.Inputs {
			v.define(in)
		}
		for _, s := range blk.Stmts {
			if r := s.GetResult(); r != nil {
				v.define(r)
			}
		}
	}

	entry, ok := v.blocks[0]
	if !ok {
		v.fail("entry block missing")
	} else {
		v.checkEntry(entry)
	}

	for _, blk := range v.g.Blocks {
		v.checkBlock(blk)
	}

	for _, sv := range scopeViolations(v.g.Blocks) {
		switch {
		case !v.defined[sv.atom]:
			// reported as undefined
		case sv.home == sv.block:
			v.fail("%s uses atom %s before its definition", blockName(sv.block), sv.atom)
		default:
			v.fail("%s uses atom %s from %s, which does not dominate it", blockName(sv.block), sv.atom, blockName(sv.home))
		}
	}
}

func (v *validator) define(a *Atom) {
	if v.defined[a] {
		v.fail("atom %s defined twice", a)
	}
	v.defined[a] = true
}

func (v *validator) checkEntry(entry *Block) {
	h := v.g.Handle
	if entry.IsLambda {
		v.fail("entry block is a lambda block")
	}
	if len(entry.Inputs) != len(h.Args) {
		v.fail("entry block has %d inputs, %s takes %d arguments", len(entry.Inputs), h.Name, len(h.Args))
		return
	}
	for i, in := range entry.Inputs {
		if !TypesEqual(in.Type, h.Args[i]) {
			v.fail("argument %d has type %s, expected %s", i, in.Type, h.Args[i])
		}
	}
}

func (v *validator) checkBlock(blk *Block) {
	if blk.IsLambda && len(blk.Inputs) != 1 {
		v.fail("lambda %s has %d inputs", blockName(blk.ID), len(blk.Inputs))
	}
	for _, s := range blk.Stmts {
		v.checkUses(blk, s.GetOperands())
	}
	if blk.Term == nil {
		v.fail("%s has no terminator", blockName(blk.ID))
		return
	}
	v.checkUses(blk, blk.Term.GetOperands())

	switch t := blk.Term.(type) {
	case *JumpTerminator:
		target := v.target(blk, t.Target)
		if target == nil {
			return
		}
		switch {
		case target.IsLambda && t.Arg == nil:
			v.fail("%s jumps to lambda %s without a value", blockName(blk.ID), blockName(t.Target))
		case !target.IsLambda && t.Arg != nil:
			v.fail("%s passes a value to plain %s", blockName(blk.ID), blockName(t.Target))
		case target.IsLambda && len(target.Inputs) == 1 && !TypesEqual(target.Inputs[0].Type, t.Arg.Type):
			v.fail("%s passes %s to %s expecting %s", blockName(blk.ID), t.Arg.Type, blockName(t.Target), target.Inputs[0].Type)
		}
	case *BranchTerminator:
		v.plain(blk, t.True)
		v.plain(blk, t.False)
	case *MaybeBranchTerminator:
		v.lambda(blk, t.Just)
		v.plain(blk, t.Nothing)
	case *VariantBranchTerminator:
		for _, c := range t.Cases {
			v.lambda(blk, c)
		}
	}
}

func (v *validator) checkUses(blk *Block, atoms []*Atom) {
	for _, a := range atoms {
		if a == nil {
			v.fail("%s uses a nil atom", blockName(blk.ID))
		} else if !v.defined[a] {
			v.fail("%s uses undefined atom %s", blockName(blk.ID), a)
		}
	}
}

func (v *validator) target(from *Block, id BlockID) *Block {
	t, ok := v.blocks[id]
	if !ok {
		v.fail("%s targets missing %s", blockName(from.ID), blockName(id))
	}
	return t
}

func (v *validator) plain(from *Block, id BlockID) {
	if t := v.target(from, id); t != nil && t.IsLambda {
		v.fail("%s branches to lambda %s", blockName(from.ID), blockName(id))
	}
}

func (v *validator) lambda(from *Block, id BlockID) {
	if t := v.target(from, id); t != nil && !t.IsLambda {
		v.fail("%s dispatches a payload to plain %s", blockName(from.ID), blockName(id))
	}
}
