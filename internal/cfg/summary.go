package cfg

import "sort"

// Summary categorizes the blocks of a graph by how control leaves them.
type Summary struct {
	Name         string
	Entry        BlockID
	SuccessExits []BlockID // Return and TailCall
	FailureExits []BlockID // ReportError
	Successors   map[BlockID][]BlockID
	Predecessors map[BlockID][]BlockID
	Unreachable  []BlockID
}

// Summarize builds the summary of g.
func Summarize(g *CFG) *Summary {
	s := &Summary{
		Name:         g.Handle.Name,
		Entry:        0,
		SuccessExits: []BlockID{},
		FailureExits: []BlockID{},
		Successors:   make(map[BlockID][]BlockID),
		Predecessors: make(map[BlockID][]BlockID),
	}

	for _, blk := range g.Blocks {
		if blk.Term == nil {
			continue
		}
		// Categorize exit blocks by terminator type
		switch blk.Term.(type) {
		case *ReturnTerminator, *TailCallTerminator:
			s.SuccessExits = append(s.SuccessExits, blk.ID)
		case *ReportErrorTerminator:
			s.FailureExits = append(s.FailureExits, blk.ID)
		}
		succ := blk.Term.GetSuccessors()
		s.Successors[blk.ID] = succ
		for _, to := range succ {
			s.Predecessors[to] = append(s.Predecessors[to], blk.ID)
		}
	}

	reached := map[BlockID]bool{0: true}
	work := []BlockID{0}
	for len(work) > 0 {
		id := work[len(work)-1]
		work = work[:len(work)-1]
		for _, to := range s.Successors[id] {
			if !reached[to] {
				reached[to] = true
				work = append(work, to)
			}
		}
	}
	for _, blk := range g.Blocks {
		if !reached[blk.ID] {
			s.Unreachable = append(s.Unreachable, blk.ID)
		}
	}
	sort.Slice(s.Unreachable, func(i, j int) bool { return s.Unreachable[i] < s.Unreachable[j] })

	return s
}
