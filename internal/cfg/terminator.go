package cfg

import "weft/internal/ast"

// Terminator ends a block. Every sealed block has exactly one.
type Terminator interface {
	GetPos() ast.Position
	GetOperands() []*Atom
	GetSuccessors() []BlockID
	String() string
}

// JumpTerminator transfers control to Target. Arg is set exactly when the
// target is a lambda block and carries the value for its input.
type JumpTerminator struct {
	Pos    ast.Position
	Target BlockID
	Arg    *Atom
}

type BranchTerminator struct {
	Pos   ast.Position
	Cond  *Atom
	True  BlockID
	False BlockID
}

type ReturnTerminator struct {
	Pos   ast.Position
	Value *Atom
}

// ReportErrorTerminator marks a path of the translated program as failing
// with Msg. It is not a builder error.
type ReportErrorTerminator struct {
	Pos ast.Position
	Msg *Atom
}

// MaybeBranchTerminator dispatches on an optional value. Just is a lambda
// block receiving the payload, Nothing a plain block.
type MaybeBranchTerminator struct {
	Pos     ast.Position
	Value   *Atom
	Just    BlockID
	Nothing BlockID
}

// VariantBranchTerminator dispatches on a variant; Cases[i] is a lambda
// block receiving the payload of case i.
type VariantBranchTerminator struct {
	Pos   ast.Position
	Value *Atom
	Cases []BlockID
}

// TailCallTerminator calls Func and returns its result as the result of
// the enclosing function.
type TailCallTerminator struct {
	Pos  ast.Position
	Func *Atom
	Args []*Atom
}

func (t *JumpTerminator) GetPos() ast.Position { return t.Pos }
func (t *JumpTerminator) GetOperands() []*Atom {
	if t.Arg != nil {
		return []*Atom{t.Arg}
	}
	return nil
}
func (t *JumpTerminator) GetSuccessors() []BlockID { return []BlockID{t.Target} }

func (t *BranchTerminator) GetPos() ast.Position     { return t.Pos }
func (t *BranchTerminator) GetOperands() []*Atom     { return []*Atom{t.Cond} }
func (t *BranchTerminator) GetSuccessors() []BlockID { return []BlockID{t.True, t.False} }

func (t *ReturnTerminator) GetPos() ast.Position     { return t.Pos }
func (t *ReturnTerminator) GetOperands() []*Atom     { return []*Atom{t.Value} }
func (t *ReturnTerminator) GetSuccessors() []BlockID { return nil }

func (t *ReportErrorTerminator) GetPos() ast.Position     { return t.Pos }
func (t *ReportErrorTerminator) GetOperands() []*Atom     { return []*Atom{t.Msg} }
func (t *ReportErrorTerminator) GetSuccessors() []BlockID { return nil }

func (t *MaybeBranchTerminator) GetPos() ast.Position { return t.Pos }
func (t *MaybeBranchTerminator) GetOperands() []*Atom { return []*Atom{t.Value} }
func (t *MaybeBranchTerminator) GetSuccessors() []BlockID {
	return []BlockID{t.Just, t.Nothing}
}

func (t *VariantBranchTerminator) GetPos() ast.Position { return t.Pos }
func (t *VariantBranchTerminator) GetOperands() []*Atom { return []*Atom{t.Value} }
func (t *VariantBranchTerminator) GetSuccessors() []BlockID {
	return append([]BlockID(nil), t.Cases...)
}

func (t *TailCallTerminator) GetPos() ast.Position { return t.Pos }
func (t *TailCallTerminator) GetOperands() []*Atom {
	return append([]*Atom{t.Func}, t.Args...)
}
func (t *TailCallTerminator) GetSuccessors() []BlockID { return nil }
