// Package types implements the resolved-type algebra, the fresh-variable
// supply, and (in sibling files) the unifier, environment, registries and
// constraint-generating type checker described in spec §3-§4.
package types

import (
	"fmt"
	"strings"
)

// Type is a ResolvedType value. Every checked expression node carries
// exactly one Type in the annotation table. CheckModule does not verify
// that an accepted module's Types are free of inference variables:
// unsuffixed literals are defaulted, but any other variable that nothing
// constrained stays in the annotation.
type Type interface {
	String() string
	Equals(Type) bool
	isType()
}

// IntWidth enumerates the signed/unsigned integer widths spec §3 allows.
type IntWidth int

const (
	W8   IntWidth = 8
	W16  IntWidth = 16
	W32  IntWidth = 32
	W64  IntWidth = 64
	W128 IntWidth = 128
)

// FloatWidth enumerates the float widths spec §3 allows.
type FloatWidth int

const (
	F32 FloatWidth = 32
	F64 FloatWidth = 64
)

// Int is a signed or unsigned integer of fixed width.
type Int struct {
	Width    IntWidth
	Unsigned bool
}

func (t *Int) isType() {}
func (t *Int) String() string {
	if t.Unsigned {
		return fmt.Sprintf("u%d", t.Width)
	}
	return fmt.Sprintf("i%d", t.Width)
}
func (t *Int) Equals(o Type) bool {
	oi, ok := o.(*Int)
	return ok && oi.Width == t.Width && oi.Unsigned == t.Unsigned
}

// Float is a floating-point number of fixed width.
type Float struct{ Width FloatWidth }

func (t *Float) isType() {}
func (t *Float) String() string {
	if t.Width == F32 {
		return "f32"
	}
	return "f64"
}
func (t *Float) Equals(o Type) bool {
	of, ok := o.(*Float)
	return ok && of.Width == t.Width
}

// Bool, Char, Str, Unit are the remaining primitives.
type Bool struct{}

func (t *Bool) isType()      {}
func (t *Bool) String() string { return "bool" }
func (t *Bool) Equals(o Type) bool {
	_, ok := o.(*Bool)
	return ok
}

type Char struct{}

func (t *Char) isType()        {}
func (t *Char) String() string { return "char" }
func (t *Char) Equals(o Type) bool {
	_, ok := o.(*Char)
	return ok
}

type Str struct{}

func (t *Str) isType()        {}
func (t *Str) String() string { return "string" }
func (t *Str) Equals(o Type) bool {
	_, ok := o.(*Str)
	return ok
}

type Unit struct{}

func (t *Unit) isType()        {}
func (t *Unit) String() string { return "()" }
func (t *Unit) Equals(o Type) bool {
	_, ok := o.(*Unit)
	return ok
}

// Tuple is an ordered, possibly-empty sequence of element types. Per
// spec §8, an empty Tuple and Unit are treated identically.
type Tuple struct{ Elements []Type }

func (t *Tuple) isType() {}
func (t *Tuple) String() string {
	parts := make([]string, len(t.Elements))
	for i, e := range t.Elements {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ",") + ")"
}
func (t *Tuple) Equals(o Type) bool {
	ot, ok := o.(*Tuple)
	if !ok || len(ot.Elements) != len(t.Elements) {
		return false
	}
	for i := range t.Elements {
		if !t.Elements[i].Equals(ot.Elements[i]) {
			return false
		}
	}
	return true
}

// IsUnitLike reports whether t is Unit or the empty tuple (spec §8
// boundary behavior: "Empty tuple vs unit are treated identically").
func IsUnitLike(t Type) bool {
	if _, ok := t.(*Unit); ok {
		return true
	}
	if tup, ok := t.(*Tuple); ok {
		return len(tup.Elements) == 0
	}
	return false
}

// Array is a fixed-length array: element type plus a compile-time length.
type Array struct {
	Element Type
	Length  int
}

func (t *Array) isType()        {}
func (t *Array) String() string { return fmt.Sprintf("[%s;%d]", t.Element.String(), t.Length) }
func (t *Array) Equals(o Type) bool {
	oa, ok := o.(*Array)
	return ok && oa.Length == t.Length && t.Element.Equals(oa.Element)
}

// Pointer is a pointer to a referent type.
type Pointer struct{ Referent Type }

func (t *Pointer) isType()        {}
func (t *Pointer) String() string { return "*" + t.Referent.String() }
func (t *Pointer) Equals(o Type) bool {
	op, ok := o.(*Pointer)
	return ok && t.Referent.Equals(op.Referent)
}

// Named is a struct or enum name with an ordered concrete type-argument
// list. Two Named values are equal iff their name and ordered argument
// list are equal (spec §3 invariant ii: no nominal-vs-structural
// ambiguity).
type Named struct {
	Name string
	Args []Type
}

func (t *Named) isType() {}
func (t *Named) String() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = a.String()
	}
	return t.Name + "<" + strings.Join(parts, ",") + ">"
}
func (t *Named) Equals(o Type) bool {
	on, ok := o.(*Named)
	if !ok || on.Name != t.Name || len(on.Args) != len(t.Args) {
		return false
	}
	for i := range t.Args {
		if !t.Args[i].Equals(on.Args[i]) {
			return false
		}
	}
	return true
}

// TraitRef names a trait used as a bound or a dynamic placeholder.
type TraitRef struct{ Name string }

func (t *TraitRef) isType()        {}
func (t *TraitRef) String() string { return t.Name }
func (t *TraitRef) Equals(o Type) bool {
	ot, ok := o.(*TraitRef)
	return ok && ot.Name == t.Name
}

// Func is a function type: parameter sequence, return type, async flag.
type Func struct {
	Params []Type
	Return Type
	Async  bool
}

func (t *Func) isType() {}
func (t *Func) String() string {
	parts := make([]string, len(t.Params))
	for i, p := range t.Params {
		parts[i] = p.String()
	}
	prefix := ""
	if t.Async {
		prefix = "async "
	}
	return fmt.Sprintf("%sfn(%s)->%s", prefix, strings.Join(parts, ","), t.Return.String())
}
func (t *Func) Equals(o Type) bool {
	of, ok := o.(*Func)
	if !ok || of.Async != t.Async || len(of.Params) != len(t.Params) {
		return false
	}
	for i := range t.Params {
		if !t.Params[i].Equals(of.Params[i]) {
			return false
		}
	}
	return t.Return.Equals(of.Return)
}

// Generic is a symbolic generic-parameter leaf, e.g. "T".
type Generic struct{ Name string }

func (t *Generic) isType()        {}
func (t *Generic) String() string { return t.Name }
func (t *Generic) Equals(o Type) bool {
	og, ok := o.(*Generic)
	return ok && og.Name == t.Name
}

// Var is an inference variable: a numeric id assigned by the fresh-
// variable counter.
type Var struct{ ID int }

func (t *Var) isType()        {}
func (t *Var) String() string { return fmt.Sprintf("?%d", t.ID) }
func (t *Var) Equals(o Type) bool {
	ov, ok := o.(*Var)
	return ok && ov.ID == t.ID
}

// Unknown is the "not-yet-inferred" sentinel used to poison a node after
// a locally recovered type error (spec glossary: "Poisoned type").
type Unknown struct{}

func (t *Unknown) isType()        {}
func (t *Unknown) String() string { return "<unknown>" }
func (t *Unknown) Equals(Type) bool {
	// A poisoned type never unifies with, nor structurally equals,
	// anything -- including another Unknown -- so it cannot silently
	// satisfy a later constraint.
	return false
}

// HasVarOrUnknown reports whether t contains an inference-variable or
// Unknown leaf anywhere in its structure (used to tell whether an
// instantiation's type arguments have fully resolved).
func HasVarOrUnknown(t Type) bool {
	switch x := t.(type) {
	case *Var, *Unknown:
		return true
	case *Tuple:
		for _, e := range x.Elements {
			if HasVarOrUnknown(e) {
				return true
			}
		}
		return false
	case *Array:
		return HasVarOrUnknown(x.Element)
	case *Pointer:
		return HasVarOrUnknown(x.Referent)
	case *Named:
		for _, a := range x.Args {
			if HasVarOrUnknown(a) {
				return true
			}
		}
		return false
	case *Func:
		if HasVarOrUnknown(x.Return) {
			return true
		}
		for _, p := range x.Params {
			if HasVarOrUnknown(p) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// FreshSupply is the per-compilation fresh-variable counter. Each
// TypeChecker owns its own so concurrent compilations never share one
// (spec §5, §9 "Mutable globals").
type FreshSupply struct{ next int }

func NewFreshSupply() *FreshSupply { return &FreshSupply{} }

// Fresh returns a distinct inference variable.
func (f *FreshSupply) Fresh() *Var {
	f.next++
	return &Var{ID: f.next}
}
