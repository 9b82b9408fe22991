package types

import "fmt"

// TraitResolver matches impl records against required bounds and selects
// method dispatch targets (spec §4.3). All dispatch is static: the
// resolver returns the single impl record satisfying a bound, never a
// vtable (spec §9 "Polymorphism without vtables").
type TraitResolver struct {
	reg *Registries
}

// NewTraitResolver creates a resolver over the given registries.
func NewTraitResolver(reg *Registries) *TraitResolver {
	return &TraitResolver{reg: reg}
}

// NoImplError is returned when no impl satisfies the bound.
type NoImplError struct {
	Trait string
	For   Type
}

func (e *NoImplError) Error() string {
	return fmt.Sprintf("no impl of %s for %s", e.Trait, e.For.String())
}

// AmbiguousImplError is returned when more than one impl satisfies the
// bound.
type AmbiguousImplError struct {
	Trait string
	For   Type
}

func (e *AmbiguousImplError) Error() string {
	return fmt.Sprintf("ambiguous impl of %s for %s", e.Trait, e.For.String())
}

// Resolve finds the impl record satisfying trait bound traitName for
// type t. Selection rule (spec §4.3): unify t against every impl's
// implementing-type pattern; exactly one match selects, zero fails
// NoImpl, more than one fails Ambiguous. Super-trait obligations are
// resolved recursively.
func (r *TraitResolver) Resolve(traitName string, t Type) (*ImplInfo, error) {
	var matches []*ImplInfo
	for _, impl := range r.reg.Impls {
		if impl.Trait != traitName {
			continue
		}
		u := NewUnifier()
		// Matching must not mutate the caller's substitution: try on a
		// fresh, empty unifier that is discarded afterwards.
		if err := u.Unify(impl.ForType, t); err == nil {
			matches = append(matches, impl)
		}
	}

	switch len(matches) {
	case 0:
		return nil, &NoImplError{Trait: traitName, For: t}
	case 1:
		if err := r.resolveSuperTraits(traitName, t); err != nil {
			return nil, err
		}
		return matches[0], nil
	default:
		return nil, &AmbiguousImplError{Trait: traitName, For: t}
	}
}

// resolveSuperTraits walks traitName's declared super-trait bounds and
// requires each to resolve for t as well.
func (r *TraitResolver) resolveSuperTraits(traitName string, t Type) error {
	info, ok := r.reg.Traits[traitName]
	if !ok {
		return nil
	}
	for _, super := range info.SuperTraits {
		if _, err := r.Resolve(super, t); err != nil {
			return err
		}
	}
	return nil
}

// ResolveMethod finds the concrete method implementation for
// trait-method dispatch `receiver.method(...)` where receiver has type
// t and must implement traitName. Associated types are substituted
// from the selected impl's bindings into the returned signature.
func (r *TraitResolver) ResolveMethod(traitName, method string, t Type) (*FuncInfo, error) {
	impl, err := r.Resolve(traitName, t)
	if err != nil {
		return nil, err
	}
	fn, ok := impl.Methods[method]
	if !ok {
		return nil, fmt.Errorf("impl of %s for %s has no method %q", traitName, t.String(), method)
	}
	if len(impl.AssocBind) == 0 {
		return fn, nil
	}
	return substituteAssocTypes(fn, impl.AssocBind), nil
}

// substituteAssocTypes replaces Generic(assocName) leaves in fn's
// signature with their concrete binding from the selected impl.
func substituteAssocTypes(fn *FuncInfo, bind map[string]Type) *FuncInfo {
	replaceGeneric := func(t Type) Type { return replaceGenericNames(t, bind) }

	out := &FuncInfo{Name: fn.Name, Generics: fn.Generics, Async: fn.Async, Body: fn.Body}
	out.Return = replaceGeneric(fn.Return)
	out.Params = make([]ParamInfo, len(fn.Params))
	for i, p := range fn.Params {
		out.Params[i] = ParamInfo{Name: p.Name, Mutable: p.Mutable, Type: replaceGeneric(p.Type)}
	}
	return out
}

func replaceGenericNames(t Type, bind map[string]Type) Type {
	switch x := t.(type) {
	case *Generic:
		if c, ok := bind[x.Name]; ok {
			return c
		}
		return t
	case *Tuple:
		elems := make([]Type, len(x.Elements))
		for i, e := range x.Elements {
			elems[i] = replaceGenericNames(e, bind)
		}
		return &Tuple{Elements: elems}
	case *Array:
		return &Array{Element: replaceGenericNames(x.Element, bind), Length: x.Length}
	case *Pointer:
		return &Pointer{Referent: replaceGenericNames(x.Referent, bind)}
	case *Named:
		args := make([]Type, len(x.Args))
		for i, a := range x.Args {
			args[i] = replaceGenericNames(a, bind)
		}
		return &Named{Name: x.Name, Args: args}
	case *Func:
		params := make([]Type, len(x.Params))
		for i, p := range x.Params {
			params[i] = replaceGenericNames(p, bind)
		}
		return &Func{Params: params, Return: replaceGenericNames(x.Return, bind), Async: x.Async}
	default:
		return t
	}
}
