package cfg

import "weft/internal/ast"

// Label names a block that receives no implicit value.
type Label struct {
	ID BlockID
}

// LambdaLabel names a block that receives exactly one implicit input of a
// type fixed when the label is created. It is the merge point for values
// coming from several predecessors.
type LambdaLabel struct {
	ID    BlockID
	Input *Atom
}

// Type returns the type carried by the label.
func (l LambdaLabel) Type() Type { return l.Input.Type }

// Block is a sealed basic block.
type Block struct {
	ID       BlockID
	Pos      ast.Position
	Inputs   []*Atom
	Stmts    []Stmt
	Term     Terminator
	IsLambda bool
}

// Handle identifies a function and its signature.
type Handle struct {
	Name string
	Args []Type
	Ret  Type
}

// Type returns the function type of the handle.
func (h *Handle) Type() *FuncType {
	return &FuncType{Args: h.Args, Ret: h.Ret}
}

// CFG is a finished function graph. Blocks are in sealing order; the entry
// block has id 0.
type CFG struct {
	Handle *Handle
	Pos    ast.Position
	Blocks []*Block
}

// Entry returns the entry block, or nil if the graph is empty.
func (g *CFG) Entry() *Block {
	return g.Block(0)
}

// Block looks a block up by id.
func (g *CFG) Block(id BlockID) *Block {
	for _, b := range g.Blocks {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// Result is what DefineFunction produces: the function graph plus the
// auxiliary graphs recorded while building it (nested definitions).
type Result struct {
	CFG *CFG
	Aux []*CFG
}
