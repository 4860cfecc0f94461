package cfg

import (
	"fmt"
	"strings"
)

// Type is the runtime type tag carried by every atom, register, lambda
// label and expression.
type Type interface {
	String() string
}

type BoolType struct{}

type IntType struct{}

type StringType struct{}

type UnitType struct{}

// NeverType is the type of a terminating call. It stands in for any
// expected type since no value is ever produced.
type NeverType struct{}

type MaybeType struct {
	Elem Type
}

type VariantType struct {
	Cases []Type
}

type RefType struct {
	Elem Type
}

type FuncType struct {
	Args []Type
	Ret  Type
}

func (*BoolType) String() string   { return "Bool" }
func (*IntType) String() string    { return "Int" }
func (*StringType) String() string { return "String" }
func (*UnitType) String() string   { return "Unit" }
func (*NeverType) String() string  { return "Never" }
func (m *MaybeType) String() string {
	return fmt.Sprintf("Maybe<%s>", m.Elem)
}
func (r *RefType) String() string { return fmt.Sprintf("Ref<%s>", r.Elem) }
func (v *VariantType) String() string {
	parts := make([]string, len(v.Cases))
	for i, c := range v.Cases {
		parts[i] = c.String()
	}
	return "Variant<" + strings.Join(parts, " | ") + ">"
}
func (f *FuncType) String() string {
	parts := make([]string, len(f.Args))
	for i, a := range f.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("fn(%s) -> %s", strings.Join(parts, ", "), f.Ret)
}

// Shared instances for the nullary types.
var (
	Bool   Type = &BoolType{}
	Int    Type = &IntType{}
	String Type = &StringType{}
	Unit   Type = &UnitType{}
	Never  Type = &NeverType{}
)

// TypesEqual compares two types structurally. NeverType is not equal to
// anything but itself; use Assignable for the early-termination rule.
func TypesEqual(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case *BoolType:
		_, ok := b.(*BoolType)
		return ok
	case *IntType:
		_, ok := b.(*IntType)
		return ok
	case *StringType:
		_, ok := b.(*StringType)
		return ok
	case *UnitType:
		_, ok := b.(*UnitType)
		return ok
	case *NeverType:
		_, ok := b.(*NeverType)
		return ok
	case *MaybeType:
		y, ok := b.(*MaybeType)
		return ok && TypesEqual(x.Elem, y.Elem)
	case *RefType:
		y, ok := b.(*RefType)
		return ok && TypesEqual(x.Elem, y.Elem)
	case *VariantType:
		y, ok := b.(*VariantType)
		if !ok || len(x.Cases) != len(y.Cases) {
			return false
		}
		for i := range x.Cases {
			if !TypesEqual(x.Cases[i], y.Cases[i]) {
				return false
			}
		}
		return true
	case *FuncType:
		y, ok := b.(*FuncType)
		if !ok || len(x.Args) != len(y.Args) || !TypesEqual(x.Ret, y.Ret) {
			return false
		}
		for i := range x.Args {
			if !TypesEqual(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Assignable reports whether a value of type got may flow where want is
// expected.
func Assignable(want, got Type) bool {
	if _, never := got.(*NeverType); never {
		return true
	}
	return TypesEqual(want, got)
}
