package cfg

// Effects describe what a statement does besides producing its result.
// Downstream passes use them to decide what may be reordered or dropped.

// Effect represents one side effect of a statement
type Effect interface {
	EffectKind() string
}

// AccessType distinguishes reads from writes on a location.
type AccessType string

const (
	AccessRead     AccessType = "read"
	AccessWrite    AccessType = "write"
	AccessAllocate AccessType = "allocate"
	AccessFree     AccessType = "free"
)

// PureEffect indicates no side effects
type PureEffect struct{}

func (p *PureEffect) EffectKind() string { return "pure" }

// RegisterEffect is an access to a register slot.
type RegisterEffect struct {
	Type AccessType
	Reg  ValueID
}

func (r *RegisterEffect) EffectKind() string { return "register" }

// GlobalEffect is an access to named global storage.
type GlobalEffect struct {
	Type AccessType
	Name string
}

func (g *GlobalEffect) EffectKind() string { return "global" }

// RefEffect is an access to a heap reference.
type RefEffect struct {
	Type AccessType
}

func (r *RefEffect) EffectKind() string { return "ref" }

// IOEffect marks observable output.
type IOEffect struct{}

func (i *IOEffect) EffectKind() string { return "io" }

// AssertEffect marks a statement that may fail the program at runtime.
type AssertEffect struct{}

func (a *AssertEffect) EffectKind() string { return "assert" }

// CallEffect is an opaque call; the callee may do anything.
type CallEffect struct{}

func (c *CallEffect) EffectKind() string { return "call" }

// ExtensionEffect is whatever the named extension does.
type ExtensionEffect struct {
	Name string
}

func (e *ExtensionEffect) EffectKind() string { return "extension" }

func (s *AssignStmt) GetEffects() []Effect {
	return []Effect{&PureEffect{}}
}

func (s *ReadGlobalStmt) GetEffects() []Effect {
	return []Effect{&GlobalEffect{Type: AccessRead, Name: s.Global.Name}}
}

func (s *WriteGlobalStmt) GetEffects() []Effect {
	return []Effect{&GlobalEffect{Type: AccessWrite, Name: s.Global.Name}}
}

func (s *NewRefStmt) GetEffects() []Effect {
	return []Effect{&RefEffect{Type: AccessAllocate}, &RefEffect{Type: AccessWrite}}
}

func (s *ReadRefStmt) GetEffects() []Effect {
	return []Effect{&RefEffect{Type: AccessRead}}
}

func (s *WriteRefStmt) GetEffects() []Effect {
	return []Effect{&RefEffect{Type: AccessWrite}}
}

func (s *DropRefStmt) GetEffects() []Effect {
	return []Effect{&RefEffect{Type: AccessFree}}
}

func (s *ReadRegisterStmt) GetEffects() []Effect {
	return []Effect{&RegisterEffect{Type: AccessRead, Reg: s.Reg.ID}}
}

func (s *SetRegisterStmt) GetEffects() []Effect {
	return []Effect{&RegisterEffect{Type: AccessWrite, Reg: s.Reg.ID}}
}

func (s *PrintStmt) GetEffects() []Effect {
	return []Effect{&IOEffect{}}
}

// Assert can fail but doesn't touch any location
func (s *AssertStmt) GetEffects() []Effect {
	return []Effect{&AssertEffect{}}
}

// For now, assume function calls can have any effect
func (s *CallStmt) GetEffects() []Effect {
	return []Effect{&CallEffect{}}
}

func (s *ExtensionStmt) GetEffects() []Effect {
	return []Effect{&ExtensionEffect{Name: s.Op.ExtensionName()}}
}

// IsPure reports whether every effect of s is pure.
func IsPure(s Stmt) bool {
	for _, e := range s.GetEffects() {
		if _, ok := e.(*PureEffect); !ok {
			return false
		}
	}
	return true
}
