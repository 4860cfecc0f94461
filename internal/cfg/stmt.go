package cfg

import "weft/internal/ast"

// Stmt is a non-terminating statement of a block.
type Stmt interface {
	GetPos() ast.Position
	GetResult() *Atom
	GetOperands() []*Atom
	GetEffects() []Effect
	String() string
}

// AssignStmt binds Result to Op evaluated over Args. Args are the
// flattened operands of Op, in order.
type AssignStmt struct {
	Pos    ast.Position
	Result *Atom
	Op     Expr
	Args   []*Atom
}

type ReadGlobalStmt struct {
	Pos    ast.Position
	Result *Atom
	Global *GlobalVar
}

type WriteGlobalStmt struct {
	Pos    ast.Position
	Global *GlobalVar
	Value  *Atom
}

type NewRefStmt struct {
	Pos    ast.Position
	Result *Atom
	Value  *Atom
}

type ReadRefStmt struct {
	Pos    ast.Position
	Result *Atom
	Ref    *Atom
}

type WriteRefStmt struct {
	Pos   ast.Position
	Ref   *Atom
	Value *Atom
}

type DropRefStmt struct {
	Pos ast.Position
	Ref *Atom
}

type ReadRegisterStmt struct {
	Pos    ast.Position
	Result *Atom
	Reg    *Register
}

type SetRegisterStmt struct {
	Pos   ast.Position
	Reg   *Register
	Value *Atom
}

type PrintStmt struct {
	Pos ast.Position
	Msg *Atom
}

type AssertStmt struct {
	Pos  ast.Position
	Cond *Atom
	Msg  *Atom
}

type CallStmt struct {
	Pos    ast.Position
	Result *Atom
	Func   *Atom
	Args   []*Atom
}

type ExtensionStmt struct {
	Pos    ast.Position
	Result *Atom
	Op     ExtensionOp
	Args   []*Atom
}

func (s *AssignStmt) GetPos() ast.Position { return s.Pos }
func (s *AssignStmt) GetResult() *Atom     { return s.Result }
func (s *AssignStmt) GetOperands() []*Atom { return s.Args }

func (s *ReadGlobalStmt) GetPos() ast.Position { return s.Pos }
func (s *ReadGlobalStmt) GetResult() *Atom     { return s.Result }
func (s *ReadGlobalStmt) GetOperands() []*Atom { return nil }

func (s *WriteGlobalStmt) GetPos() ast.Position { return s.Pos }
func (s *WriteGlobalStmt) GetResult() *Atom     { return nil }
func (s *WriteGlobalStmt) GetOperands() []*Atom { return []*Atom{s.Value} }

func (s *NewRefStmt) GetPos() ast.Position { return s.Pos }
func (s *NewRefStmt) GetResult() *Atom     { return s.Result }
func (s *NewRefStmt) GetOperands() []*Atom { return []*Atom{s.Value} }

func (s *ReadRefStmt) GetPos() ast.Position { return s.Pos }
func (s *ReadRefStmt) GetResult() *Atom     { return s.Result }
func (s *ReadRefStmt) GetOperands() []*Atom { return []*Atom{s.Ref} }

func (s *WriteRefStmt) GetPos() ast.Position { return s.Pos }
func (s *WriteRefStmt) GetResult() *Atom     { return nil }
func (s *WriteRefStmt) GetOperands() []*Atom { return []*Atom{s.Ref, s.Value} }

func (s *DropRefStmt) GetPos() ast.Position { return s.Pos }
func (s *DropRefStmt) GetResult() *Atom     { return nil }
func (s *DropRefStmt) GetOperands() []*Atom { return []*Atom{s.Ref} }

func (s *ReadRegisterStmt) GetPos() ast.Position { return s.Pos }
func (s *ReadRegisterStmt) GetResult() *Atom     { return s.Result }
func (s *ReadRegisterStmt) GetOperands() []*Atom { return nil }

func (s *SetRegisterStmt) GetPos() ast.Position { return s.Pos }
func (s *SetRegisterStmt) GetResult() *Atom     { return nil }
func (s *SetRegisterStmt) GetOperands() []*Atom { return []*Atom{s.Value} }

func (s *PrintStmt) GetPos() ast.Position { return s.Pos }
func (s *PrintStmt) GetResult() *Atom     { return nil }
func (s *PrintStmt) GetOperands() []*Atom { return []*Atom{s.Msg} }

func (s *AssertStmt) GetPos() ast.Position { return s.Pos }
func (s *AssertStmt) GetResult() *Atom     { return nil }
func (s *AssertStmt) GetOperands() []*Atom { return []*Atom{s.Cond, s.Msg} }

func (s *CallStmt) GetPos() ast.Position { return s.Pos }
func (s *CallStmt) GetResult() *Atom     { return s.Result }
func (s *CallStmt) GetOperands() []*Atom {
	return append([]*Atom{s.Func}, s.Args...)
}

func (s *ExtensionStmt) GetPos() ast.Position { return s.Pos }
func (s *ExtensionStmt) GetResult() *Atom     { return s.Result }
func (s *ExtensionStmt) GetOperands() []*Atom { return s.Args }
