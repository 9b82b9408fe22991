package types

import "github.com/vais-lang/vais/internal/ast"

// defaultUnconstrained resolves spec §9 Open Question #1: an integer
// literal with no explicit suffix defaults to i64, and a float literal
// with no explicit suffix defaults to f64, if nothing else in the
// function constrained it to a narrower width by the time the function
// body finishes checking. This runs once per function, after its body
// and return type have already unified, so any inference variable
// still free at this point is genuinely unconstrained rather than
// merely not yet visited.
func (tc *TypeChecker) defaultUnconstrained(d *ast.FuncDecl, info *FuncInfo) {
	for expr, t := range tc.Annotations {
		applied := tc.Uni.Apply(t)
		v, ok := applied.(*Var)
		if !ok {
			continue
		}
		switch expr.(type) {
		case *ast.IntLit:
			tc.Uni.Unify(v, &Int{Width: W64})
		case *ast.FloatLit:
			tc.Uni.Unify(v, &Float{Width: F64})
		}
	}

	// Re-annotate now that defaulting may have resolved previously-free
	// variables.
	for expr, t := range tc.Annotations {
		tc.Annotations[expr] = tc.Uni.Apply(t)
	}
	tc.flushDeferredInstantiations()
}

// flushDeferredInstantiations retries every instantiation whose type
// arguments were still free when its call site was checked, now that
// defaulting has settled any literal-driven inference variable (spec
// §4.2, §6 "GenericInstantiation discovery").
func (tc *TypeChecker) flushDeferredInstantiations() {
	if tc.Mono == nil || len(tc.deferred) == 0 {
		return
	}
	pending := tc.deferred
	tc.deferred = nil
	for _, d := range pending {
		resolved := make([]Type, len(d.typeArgs))
		for i, t := range d.typeArgs {
			resolved[i] = tc.Uni.Apply(t)
		}
		tc.Mono.Record(d.name, d.kind, resolved)
	}
}
