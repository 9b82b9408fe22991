package types

import (
	"fmt"

	"github.com/vais-lang/vais/internal/ast"
)

// TypeChecker implements spec §4.2: a two-sweep (prescan, then body
// check) constraint-generating checker. One TypeChecker is scoped to
// exactly one compilation (spec §9 "Mutable globals" / §5 concurrency:
// each worker would own an independent instance).
type TypeChecker struct {
	Reg    *Registries
	Fresh  *FreshSupply
	Uni    *Unifier
	Traits *TraitResolver
	Mono   InstantiationSink

	scopes      *ScopeStack
	diagnostics []*Diagnostic

	// funcStack is the stack of enclosing function signatures, used to
	// resolve the self-recursion operator (spec §9) and to know the
	// current function's mangled/plain name while lowering is out of
	// scope here but the name is still needed for call-site diagnostics.
	funcStack []*FuncInfo

	// loopDepth tracks whether `break`/`continue` are currently valid.
	loopDepth int

	// loopBreakTypes is a stack of the fresh result variable each
	// enclosing loop's `break` values must unify against.
	loopBreakTypes []Type

	// Annotations records every checked expression's resolved type,
	// keyed by the expression's pointer identity. The emitter consults
	// this via the AnnotatedModule produced by CheckModule.
	Annotations map[ast.Expr]Type

	// declInfo links a function/method declaration back to the FuncInfo
	// the prescan sweep registered for it, so body checking unifies
	// against the exact same fresh variables the signature was given.
	declInfo map[*ast.FuncDecl]*FuncInfo

	// deferred holds instantiations whose type arguments were still
	// free when the call site was checked; defaultUnconstrained retries
	// them once every literal default has settled.
	deferred []deferredInstantiation
}

type deferredInstantiation struct {
	name     string
	kind     InstantiationKind
	typeArgs []Type
}

// NewTypeChecker constructs an empty checker. Call CheckModule to run
// the prescan and body-check sweeps.
func NewTypeChecker(mono InstantiationSink) *TypeChecker {
	reg := NewRegistries()
	return &TypeChecker{
		Reg:         reg,
		Fresh:       NewFreshSupply(),
		Uni:         NewUnifier(),
		Traits:      NewTraitResolver(reg),
		Mono:        mono,
		scopes:      NewScopeStack(),
		Annotations: make(map[ast.Expr]Type),
		declInfo:    make(map[*ast.FuncDecl]*FuncInfo),
	}
}

// AnnotatedModule is the type checker's successful output: the original
// module plus a side table of resolved types for every expression node
// (spec §2 "Annotated Module").
type AnnotatedModule struct {
	Module *ast.Module
	Types  map[ast.Expr]Type
	Reg    *Registries
}

// CheckModule runs the prescan sweep followed by the body-check sweep
// (spec §4.2). It returns the annotated module on success, or the
// accumulated diagnostics if any irrecoverable errors were found (a
// module with any diagnostic is rejected in full; the emitter must
// never be invoked, per spec §4.2 "Failure semantics").
func (tc *TypeChecker) CheckModule(m *ast.Module) (*AnnotatedModule, []*Diagnostic) {
	tc.prescan(m)
	for _, item := range m.Items {
		if fn, ok := item.(*ast.FuncDecl); ok && fn.Receiver == nil {
			tc.checkFunctionBody(fn)
		}
	}
	for _, item := range m.Items {
		if impl, ok := item.(*ast.ImplDecl); ok {
			for _, method := range impl.Methods {
				tc.checkFunctionBody(method)
			}
		}
	}

	if len(tc.diagnostics) > 0 {
		return nil, tc.diagnostics
	}
	return &AnnotatedModule{Module: m, Types: tc.Annotations, Reg: tc.Reg}, nil
}

// prescan registers every top-level declaration before any body is
// checked, so declarations may refer to one another in any textual
// order (spec §3, §4.2 step 1).
func (tc *TypeChecker) prescan(m *ast.Module) {
	for _, item := range m.Items {
		switch d := item.(type) {
		case *ast.StructDecl:
			tc.registerStruct(d)
		case *ast.EnumDecl:
			tc.registerEnum(d)
		case *ast.TraitDecl:
			tc.registerTrait(d)
		}
	}
	// Functions/impls are registered in a second pass so struct/enum/
	// trait names referenced in signatures are already known.
	for _, item := range m.Items {
		switch d := item.(type) {
		case *ast.FuncDecl:
			if d.Receiver == nil {
				tc.registerFunction(d)
			}
		case *ast.ImplDecl:
			tc.registerImpl(d)
		}
	}
}

func (tc *TypeChecker) registerStruct(d *ast.StructDecl) {
	if _, exists := tc.Reg.Structs[d.Name]; exists {
		tc.report(KindDuplicateDefinition, d.NodeSpan, fmt.Sprintf("struct %q already declared", d.Name))
		return
	}
	info := &StructInfo{Name: d.Name, Generics: d.Generics, Methods: make(map[string]*FuncInfo)}
	for _, f := range d.Fields {
		info.Fields = append(info.Fields, FieldInfo{Name: f.Name, Type: tc.resolveTypeExprDecl(f.Type, d.Generics)})
	}
	tc.Reg.Structs[d.Name] = info
}

func (tc *TypeChecker) registerEnum(d *ast.EnumDecl) {
	if _, exists := tc.Reg.Enums[d.Name]; exists {
		tc.report(KindDuplicateDefinition, d.NodeSpan, fmt.Sprintf("enum %q already declared", d.Name))
		return
	}
	info := &EnumInfo{Name: d.Name, Generics: d.Generics}
	for _, v := range d.Variants {
		var payload []Type
		for _, p := range v.Payload {
			payload = append(payload, tc.resolveTypeExprDecl(p, d.Generics))
		}
		info.Variants = append(info.Variants, VariantInfo{Name: v.Name, Payload: payload})
	}
	tc.Reg.Enums[d.Name] = info
}

func (tc *TypeChecker) registerTrait(d *ast.TraitDecl) {
	if _, exists := tc.Reg.Traits[d.Name]; exists {
		tc.report(KindDuplicateDefinition, d.NodeSpan, fmt.Sprintf("trait %q already declared", d.Name))
		return
	}
	info := &TraitInfo{Name: d.Name, AssociatedTypes: d.AssociatedTypes, SuperTraits: d.SuperTraits, Methods: make(map[string]*FuncInfo)}
	for _, m := range d.Methods {
		info.Methods[m.Name] = tc.resolveSignature(m.Name, nil, m.Params, m.ReturnType, nil, m.Async)
	}
	tc.Reg.Traits[d.Name] = info
}

func (tc *TypeChecker) registerFunction(d *ast.FuncDecl) {
	if _, exists := tc.Reg.Functions[d.Name]; exists {
		tc.report(KindDuplicateDefinition, d.NodeSpan, fmt.Sprintf("function %q already declared", d.Name))
		return
	}
	info := tc.resolveSignature(d.Name, d.Generics, d.Params, d.ReturnType, d.Body, d.Async)
	tc.Reg.Functions[d.Name] = info
	tc.declInfo[d] = info
}

func (tc *TypeChecker) registerImpl(d *ast.ImplDecl) {
	forType := tc.resolveTypeExprDecl(d.ForType, d.Generics)
	assoc := make(map[string]Type)
	for name, te := range d.AssocBind {
		assoc[name] = tc.resolveTypeExprDecl(te, d.Generics)
	}
	impl := &ImplInfo{ForType: forType, Trait: d.Trait, AssocBind: assoc, Generics: d.Generics, Methods: make(map[string]*FuncInfo)}
	for _, m := range d.Methods {
		generics := append(append([]string{}, d.Generics...), m.Generics...)
		fn := tc.resolveSignature(m.Name, generics, m.Params, m.ReturnType, m.Body, m.Async)
		fn.SelfType = forType
		impl.Methods[m.Name] = fn
		tc.declInfo[m] = fn
	}
	tc.Reg.Impls = append(tc.Reg.Impls, impl)
	if st, ok := tc.Reg.Structs[typeHeadName(forType)]; ok {
		for name, fn := range impl.Methods {
			st.Methods[name] = fn
		}
	}
}

// resolveSignature converts a FuncDecl/TraitMethodSig's syntactic
// parameter/return annotations into ResolvedType: concrete annotations
// become ResolvedType nodes, generic parameters become Generic(name)
// leaves, un-annotated positions become fresh inference variables
// (spec §4.2 step 1).
func (tc *TypeChecker) resolveSignature(name string, generics []string, params []ast.Param, ret ast.TypeExpr, body *ast.Block, async bool) *FuncInfo {
	info := &FuncInfo{Name: name, Generics: generics, Async: async, Body: body}
	for _, p := range params {
		var t Type
		if p.Type != nil {
			t = tc.resolveTypeExprDecl(p.Type, generics)
		} else {
			t = tc.Fresh.Fresh()
		}
		info.Params = append(info.Params, ParamInfo{Name: p.Name, Type: t, Mutable: p.Mutable})
	}
	if ret != nil {
		info.Return = tc.resolveTypeExprDecl(ret, generics)
	} else {
		info.Return = &Unit{}
	}
	return info
}

// resolveTypeExprDecl converts a syntactic TypeExpr into a ResolvedType,
// treating any name in generics as a Generic leaf.
func (tc *TypeChecker) resolveTypeExprDecl(te ast.TypeExpr, generics []string) Type {
	if te == nil {
		return tc.Fresh.Fresh()
	}
	isGeneric := func(name string) bool {
		for _, g := range generics {
			if g == name {
				return true
			}
		}
		return false
	}
	switch x := te.(type) {
	case *ast.NamedTypeExpr:
		if len(x.Args) == 0 && isGeneric(x.Name) {
			return &Generic{Name: x.Name}
		}
		if prim := primitiveByName(x.Name); prim != nil {
			return prim
		}
		args := make([]Type, len(x.Args))
		for i, a := range x.Args {
			args[i] = tc.resolveTypeExprDecl(a, generics)
		}
		if _, ok := tc.Reg.Traits[x.Name]; ok {
			return &TraitRef{Name: x.Name}
		}
		return &Named{Name: x.Name, Args: args}
	case *ast.PointerTypeExpr:
		return &Pointer{Referent: tc.resolveTypeExprDecl(x.Referent, generics)}
	case *ast.TupleTypeExpr:
		elems := make([]Type, len(x.Elements))
		for i, e := range x.Elements {
			elems[i] = tc.resolveTypeExprDecl(e, generics)
		}
		return &Tuple{Elements: elems}
	case *ast.ArrayTypeExpr:
		return &Array{Element: tc.resolveTypeExprDecl(x.Element, generics), Length: x.Length}
	case *ast.FuncTypeExpr:
		params := make([]Type, len(x.Params))
		for i, p := range x.Params {
			params[i] = tc.resolveTypeExprDecl(p, generics)
		}
		var ret Type = &Unit{}
		if x.Return != nil {
			ret = tc.resolveTypeExprDecl(x.Return, generics)
		}
		return &Func{Params: params, Return: ret, Async: x.Async}
	default:
		return &Unknown{}
	}
}

// primitiveByName maps a primitive keyword to its ResolvedType, or nil
// if name does not name a primitive.
func primitiveByName(name string) Type {
	switch name {
	case "i8":
		return &Int{Width: W8}
	case "i16":
		return &Int{Width: W16}
	case "i32":
		return &Int{Width: W32}
	case "i64":
		return &Int{Width: W64}
	case "i128":
		return &Int{Width: W128}
	case "u8":
		return &Int{Width: W8, Unsigned: true}
	case "u16":
		return &Int{Width: W16, Unsigned: true}
	case "u32":
		return &Int{Width: W32, Unsigned: true}
	case "u64":
		return &Int{Width: W64, Unsigned: true}
	case "u128":
		return &Int{Width: W128, Unsigned: true}
	case "f32":
		return &Float{Width: F32}
	case "f64":
		return &Float{Width: F64}
	case "bool":
		return &Bool{}
	case "char":
		return &Char{}
	case "string":
		return &Str{}
	case "()", "unit":
		return &Unit{}
	default:
		return nil
	}
}

func typeHeadName(t Type) string {
	if n, ok := t.(*Named); ok {
		return n.Name
	}
	return ""
}

func (tc *TypeChecker) report(kind DiagnosticKind, span ast.Span, msg string, secondary ...SecondaryNote) {
	tc.diagnostics = append(tc.diagnostics, &Diagnostic{Kind: kind, Span: span, Message: msg, Secondary: secondary})
}

// poison assigns Unknown to expr's annotation and returns it, so
// downstream checking of sibling expressions can continue (spec §4.2
// "Failure semantics").
func (tc *TypeChecker) poison(expr ast.Expr) Type {
	t := &Unknown{}
	tc.Annotations[expr] = t
	return t
}

func (tc *TypeChecker) annotate(expr ast.Expr, t Type) Type {
	tc.Annotations[expr] = t
	return t
}
