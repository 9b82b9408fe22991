package types

// Substitution maps inference-variable ids to resolved types. It is
// mutated only by the Unifier and is never cyclic: the occurs check
// enforces that (spec §3).
type Substitution map[int]Type

// Apply walks t, replacing every inference variable by its current
// substitution, transitively, until a fixed point (spec §4.1 "apply").
// Apply is idempotent: Apply(sub, Apply(sub, t)) == Apply(sub, t).
func Apply(sub Substitution, t Type) Type {
	switch x := t.(type) {
	case *Var:
		if bound, ok := sub[x.ID]; ok {
			return Apply(sub, bound)
		}
		return x
	case *Tuple:
		elems := make([]Type, len(x.Elements))
		for i, e := range x.Elements {
			elems[i] = Apply(sub, e)
		}
		return &Tuple{Elements: elems}
	case *Array:
		return &Array{Element: Apply(sub, x.Element), Length: x.Length}
	case *Pointer:
		return &Pointer{Referent: Apply(sub, x.Referent)}
	case *Named:
		args := make([]Type, len(x.Args))
		for i, a := range x.Args {
			args[i] = Apply(sub, a)
		}
		return &Named{Name: x.Name, Args: args}
	case *Func:
		params := make([]Type, len(x.Params))
		for i, p := range x.Params {
			params[i] = Apply(sub, p)
		}
		return &Func{Params: params, Return: Apply(sub, x.Return), Async: x.Async}
	default:
		// Primitives, Generic, TraitRef, Unknown carry no substitutable
		// substructure.
		return t
	}
}

// Occurs reports whether inference variable id occurs anywhere inside
// t after applying sub (spec §4.1: "Occurs check dereferences through
// substitutions; it must visit every leaf").
func Occurs(sub Substitution, id int, t Type) bool {
	t = Apply(sub, t)
	switch x := t.(type) {
	case *Var:
		return x.ID == id
	case *Tuple:
		for _, e := range x.Elements {
			if Occurs(sub, id, e) {
				return true
			}
		}
		return false
	case *Array:
		return Occurs(sub, id, x.Element)
	case *Pointer:
		return Occurs(sub, id, x.Referent)
	case *Named:
		for _, a := range x.Args {
			if Occurs(sub, id, a) {
				return true
			}
		}
		return false
	case *Func:
		if Occurs(sub, id, x.Return) {
			return true
		}
		for _, p := range x.Params {
			if Occurs(sub, id, p) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
