package cfg

import "weft/internal/ast"

// dominance holds the immediate dominator of every block reachable from
// the entry block. Missing targets are ignored.
type dominance struct {
	idom  map[BlockID]BlockID
	order map[BlockID]int // reverse postorder
}

func newDominance(blocks []*Block) *dominance {
	d := &dominance{idom: make(map[BlockID]BlockID), order: make(map[BlockID]int)}

	byID := make(map[BlockID]*Block, len(blocks))
	for _, blk := range blocks {
		byID[blk.ID] = blk
	}
	if _, ok := byID[0]; !ok {
		return d
	}

	succs := func(id BlockID) []BlockID {
		blk := byID[id]
		if blk.Term == nil {
			return nil
		}
		var out []BlockID
		for _, s := range blk.Term.GetSuccessors() {
			if _, ok := byID[s]; ok {
				out = append(out, s)
			}
		}
		return out
	}

	var post []BlockID
	seen := make(map[BlockID]bool)
	var visit func(id BlockID)
	visit = func(id BlockID) {
		seen[id] = true
		for _, s := range succs(id) {
			if !seen[s] {
				visit(s)
			}
		}
		post = append(post, id)
	}
	visit(0)

	rpo := make([]BlockID, len(post))
	for i, id := range post {
		rpo[len(post)-1-i] = id
	}
	preds := make(map[BlockID][]BlockID)
	for i, id := range rpo {
		d.order[id] = i
		for _, s := range succs(id) {
			preds[s] = append(preds[s], id)
		}
	}

	// Cooper, Harvey and Kennedy, "A Simple, Fast Dominance Algorithm"
	d.idom[0] = 0
	for changed := true; changed; {
		changed = false
		for _, id := range rpo[1:] {
			var idom BlockID
			found := false
			for _, p := range preds[id] {
				if _, done := d.idom[p]; !done {
					continue
				}
				if !found {
					idom, found = p, true
				} else {
					idom = d.intersect(p, idom)
				}
			}
			if cur, ok := d.idom[id]; found && (!ok || cur != idom) {
				d.idom[id] = idom
				changed = true
			}
		}
	}
	return d
}

func (d *dominance) intersect(a, b BlockID) BlockID {
	for a != b {
		for d.order[a] > d.order[b] {
			a = d.idom[a]
		}
		for d.order[b] > d.order[a] {
			b = d.idom[b]
		}
	}
	return a
}

func (d *dominance) reachable(id BlockID) bool {
	_, ok := d.order[id]
	return ok
}

// dominates reports whether every path from the entry block to b passes
// through a. Every block dominates an unreachable one.
func (d *dominance) dominates(a, b BlockID) bool {
	if !d.reachable(b) {
		return true
	}
	if !d.reachable(a) {
		return false
	}
	for {
		if a == b {
			return true
		}
		if b == 0 {
			return false
		}
		b = d.idom[b]
	}
}

// scopeViolation is a use of an atom on a path where it is not assigned.
type scopeViolation struct {
	atom  *Atom
	block BlockID
	pos   ast.Position
	// home is the defining block; placed is false when no block of the
	// graph defines the atom
	home   BlockID
	placed bool
}

// scopeViolations finds every atom used outside the blocks its definition
// dominates, or before its definition within its own block.
func scopeViolations(blocks []*Block) []scopeViolation {
	dom := newDominance(blocks)
	home := make(map[*Atom]BlockID)
	for _, blk := range blocks {
		for _, in := range blk.Inputs {
			home[in] = blk.ID
		}
		for _, s := range blk.Stmts {
			if r := s.GetResult(); r != nil {
				home[r] = blk.ID
			}
		}
	}

	var out []scopeViolation
	for _, blk := range blocks {
		local := make(map[*Atom]bool)
		for _, in := range blk.Inputs {
			local[in] = true
		}
		use := func(atoms []*Atom, pos ast.Position) {
			for _, a := range atoms {
				if a == nil || local[a] {
					continue
				}
				h, placed := home[a]
				if !placed || h == blk.ID || !dom.dominates(h, blk.ID) {
					out = append(out, scopeViolation{atom: a, block: blk.ID, pos: pos, home: h, placed: placed})
				}
			}
		}
		for _, s := range blk.Stmts {
			use(s.GetOperands(), s.GetPos())
			if r := s.GetResult(); r != nil {
				local[r] = true
			}
		}
		if blk.Term != nil {
			use(blk.Term.GetOperands(), blk.Term.GetPos())
		}
	}
	return out
}
