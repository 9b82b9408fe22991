package types

// Unifier performs Robinson-style unification with an occurs check over
// the ResolvedType algebra (spec §4.1).
type Unifier struct {
	sub Substitution
}

// NewUnifier creates a unifier with an empty substitution.
func NewUnifier() *Unifier {
	return &Unifier{sub: make(Substitution)}
}

// Substitution exposes the unifier's accumulated substitution map.
func (u *Unifier) Substitution() Substitution { return u.sub }

// Apply walks t to a fixed point under the unifier's current
// substitution.
func (u *Unifier) Apply(t Type) Type { return Apply(u.sub, t) }

// Fresh allocates a fresh inference variable from supply and returns it
// as a Type (convenience used throughout the checker).
func Fresh(supply *FreshSupply) Type { return supply.Fresh() }

// Unify attempts to unify t1 and t2, recording any new substitutions.
// It returns MismatchError or InfiniteTypeError on failure; both are
// recoverable by the caller (the type checker poisons the offending
// node and continues, per spec §4.2 "Failure semantics").
func (u *Unifier) Unify(t1, t2 Type) error {
	t1 = u.Apply(t1)
	t2 = u.Apply(t2)

	if t1.Equals(t2) {
		return nil
	}
	if IsUnitLike(t1) && IsUnitLike(t2) {
		return nil
	}

	if v1, ok := t1.(*Var); ok {
		return u.bind(v1, t2)
	}
	if v2, ok := t2.(*Var); ok {
		return u.bind(v2, t1)
	}

	switch a := t1.(type) {
	case *Int:
		if b, ok := t2.(*Int); ok && b.Width == a.Width && b.Unsigned == a.Unsigned {
			return nil
		}
		return &MismatchError{Expected: t1, Found: t2}

	case *Float:
		if b, ok := t2.(*Float); ok && b.Width == a.Width {
			return nil
		}
		return &MismatchError{Expected: t1, Found: t2}

	case *Bool, *Char, *Str, *Unit:
		return &MismatchError{Expected: t1, Found: t2}

	case *Tuple:
		b, ok := t2.(*Tuple)
		if !ok || len(b.Elements) != len(a.Elements) {
			return &MismatchError{Expected: t1, Found: t2}
		}
		for i := range a.Elements {
			if err := u.Unify(a.Elements[i], b.Elements[i]); err != nil {
				return err
			}
		}
		return nil

	case *Array:
		b, ok := t2.(*Array)
		if !ok || b.Length != a.Length {
			return &MismatchError{Expected: t1, Found: t2}
		}
		return u.Unify(a.Element, b.Element)

	case *Pointer:
		b, ok := t2.(*Pointer)
		if !ok {
			return &MismatchError{Expected: t1, Found: t2}
		}
		return u.Unify(a.Referent, b.Referent)

	case *Named:
		b, ok := t2.(*Named)
		if !ok || b.Name != a.Name || len(b.Args) != len(a.Args) {
			return &MismatchError{Expected: t1, Found: t2}
		}
		for i := range a.Args {
			if err := u.Unify(a.Args[i], b.Args[i]); err != nil {
				return err
			}
		}
		return nil

	case *Func:
		b, ok := t2.(*Func)
		if !ok || b.Async != a.Async || len(b.Params) != len(a.Params) {
			return &MismatchError{Expected: t1, Found: t2}
		}
		for i := range a.Params {
			if err := u.Unify(a.Params[i], b.Params[i]); err != nil {
				return err
			}
		}
		return u.Unify(a.Return, b.Return)

	case *Generic:
		if b, ok := t2.(*Generic); ok && b.Name == a.Name {
			return nil
		}
		return &MismatchError{Expected: t1, Found: t2}

	case *TraitRef:
		if b, ok := t2.(*TraitRef); ok && b.Name == a.Name {
			return nil
		}
		return &MismatchError{Expected: t1, Found: t2}

	case *Unknown:
		// Unknown never unifies with anything -- it already satisfied
		// the requirement that a poisoned type not silently pass
		// downstream constraints.
		return &MismatchError{Expected: t1, Found: t2}

	default:
		return &MismatchError{Expected: t1, Found: t2}
	}
}

func (u *Unifier) bind(v *Var, t Type) error {
	if other, ok := t.(*Var); ok && other.ID == v.ID {
		return nil
	}
	if Occurs(u.sub, v.ID, t) {
		return &InfiniteTypeError{VarID: v.ID, In: t}
	}
	u.sub[v.ID] = t
	return nil
}
