package types

import (
	"fmt"

	"github.com/vais-lang/vais/internal/ast"
)

// checkFunctionBody type-checks one function or method body against the
// signature the prescan sweep already registered (spec §4.2 step 2).
func (tc *TypeChecker) checkFunctionBody(d *ast.FuncDecl) {
	if d.Body == nil {
		return // trait method with no default body
	}
	info, ok := tc.declInfo[d]
	if !ok {
		return
	}

	tc.scopes.Push()
	defer tc.scopes.Pop()

	if d.Receiver != nil {
		selfType := info.SelfType
		if d.Receiver.IsSelfPtr {
			selfType = &Pointer{Referent: selfType}
		}
		tc.scopes.Define(d.Receiver.Name, &VarInfo{Type: selfType, Mutable: d.Receiver.Mutable})
	}
	for _, p := range info.Params {
		tc.scopes.Define(p.Name, &VarInfo{Type: p.Type, Mutable: p.Mutable})
	}

	tc.funcStack = append(tc.funcStack, info)
	defer func() { tc.funcStack = tc.funcStack[:len(tc.funcStack)-1] }()

	bodyType := tc.checkBlock(d.Body)
	if err := tc.Uni.Unify(info.Return, bodyType); err != nil {
		tc.report(KindTypeMismatch, d.Body.Span(),
			fmt.Sprintf("function %q returns %s but body has type %s", d.Name, tc.Uni.Apply(info.Return).String(), tc.Uni.Apply(bodyType).String()))
	}

	tc.defaultUnconstrained(d, info)
}

// checkBlock checks every statement in order, then the trailing
// expression (spec §4.2 "Block"). A block with no trailing expression
// has type Unit.
func (tc *TypeChecker) checkBlock(b *ast.Block) Type {
	tc.scopes.Push()
	defer tc.scopes.Pop()

	for _, stmt := range b.Stmts {
		tc.checkStmt(stmt)
	}
	if b.Trailing == nil {
		return &Unit{}
	}
	return tc.checkExpr(b.Trailing)
}

func (tc *TypeChecker) checkStmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.LetStmt:
		valType := tc.checkExpr(st.Value)
		declared := valType
		if st.Type != nil {
			declared = tc.resolveTypeExprDecl(st.Type, tc.currentGenerics())
			if err := tc.Uni.Unify(declared, valType); err != nil {
				tc.report(KindTypeMismatch, st.Span(),
					fmt.Sprintf("let %q: expected %s, found %s", st.Name, tc.Uni.Apply(declared).String(), tc.Uni.Apply(valType).String()))
			}
		}
		tc.scopes.Define(st.Name, &VarInfo{Type: declared, Mutable: st.Mutable})
	case *ast.ExprStmt:
		tc.checkExpr(st.X)
	}
}

func (tc *TypeChecker) currentGenerics() []string {
	if len(tc.funcStack) == 0 {
		return nil
	}
	return tc.funcStack[len(tc.funcStack)-1].Generics
}

// checkExpr implements spec §4.2's per-form typing rules. Every branch
// annotates the node (or poisons it) before returning.
func (tc *TypeChecker) checkExpr(e ast.Expr) Type {
	switch x := e.(type) {
	case *ast.IntLit:
		return tc.annotate(x, tc.intLitType(x.Suffix))
	case *ast.FloatLit:
		return tc.annotate(x, tc.floatLitType(x.Suffix))
	case *ast.BoolLit:
		return tc.annotate(x, &Bool{})
	case *ast.StringLit:
		return tc.annotate(x, &Str{})
	case *ast.CharLit:
		return tc.annotate(x, &Char{})
	case *ast.UnitLit:
		return tc.annotate(x, &Unit{})
	case *ast.Ident:
		return tc.checkIdent(x)
	case *ast.BinaryExpr:
		return tc.checkBinary(x)
	case *ast.UnaryExpr:
		return tc.checkUnary(x)
	case *ast.IfExpr:
		return tc.checkIf(x)
	case *ast.MatchExpr:
		return tc.checkMatch(x)
	case *ast.LoopExpr:
		return tc.checkLoop(x)
	case *ast.BreakExpr:
		return tc.checkBreak(x)
	case *ast.ContinueExpr:
		if tc.loopDepth == 0 {
			tc.report(KindInternalError, x.Span(), "continue outside of a loop")
		}
		return tc.annotate(x, &Unit{})
	case *ast.Block:
		return tc.checkBlock(x)
	case *ast.AssignExpr:
		return tc.checkAssign(x)
	case *ast.CallExpr:
		return tc.checkCall(x)
	case *ast.FieldExpr:
		return tc.checkField(x)
	case *ast.StructLitExpr:
		return tc.checkStructLit(x)
	case *ast.IndexExpr:
		return tc.checkIndex(x)
	case *ast.DerefExpr:
		return tc.checkDeref(x)
	case *ast.CastExpr:
		return tc.checkCast(x)
	case *ast.ClosureExpr:
		return tc.checkClosure(x)
	case *ast.AwaitExpr:
		return tc.checkAwait(x)
	case *ast.SelfCallExpr:
		return tc.checkSelfCall(x)
	case *ast.MethodCallExpr:
		return tc.checkMethodCall(x)
	case *ast.TupleExpr:
		elems := make([]Type, len(x.Elements))
		for i, el := range x.Elements {
			elems[i] = tc.checkExpr(el)
		}
		return tc.annotate(x, &Tuple{Elements: elems})
	default:
		tc.report(KindInternalError, e.Span(), "unhandled expression form")
		return tc.poison(e)
	}
}

// intLitType resolves an integer literal's suffix, defaulting to a
// fresh inference variable when unconstrained (spec §4.2, Open
// Question #1: unconstrained integer literals default to i64 once the
// enclosing function is fully checked; see defaultUnconstrained).
func (tc *TypeChecker) intLitType(suffix string) Type {
	if suffix == "" {
		return tc.Fresh.Fresh()
	}
	if t := primitiveByName(suffix); t != nil {
		return t
	}
	return tc.Fresh.Fresh()
}

func (tc *TypeChecker) floatLitType(suffix string) Type {
	if suffix == "" {
		return tc.Fresh.Fresh()
	}
	if t := primitiveByName(suffix); t != nil {
		return t
	}
	return tc.Fresh.Fresh()
}

func (tc *TypeChecker) checkIdent(x *ast.Ident) Type {
	if info, ok := tc.scopes.Lookup(x.Name); ok {
		return tc.annotate(x, info.Type)
	}
	if fn, ok := tc.Reg.Functions[x.Name]; ok {
		return tc.annotate(x, fn.funcType())
	}
	tc.report(KindUndefinedName, x.Span(), fmt.Sprintf("undefined name %q", x.Name))
	return tc.poison(x)
}

func (fn *FuncInfo) funcType() Type {
	params := make([]Type, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = p.Type
	}
	return &Func{Params: params, Return: fn.Return, Async: fn.Async}
}

var arithOps = map[string]bool{"+": true, "-": true, "*": true, "/": true, "%": true}
var cmpOps = map[string]bool{"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true}
var logicOps = map[string]bool{"&&": true, "||": true}

func (tc *TypeChecker) checkBinary(x *ast.BinaryExpr) Type {
	lt := tc.checkExpr(x.Left)
	rt := tc.checkExpr(x.Right)

	switch {
	case arithOps[x.Op]:
		if err := tc.Uni.Unify(lt, rt); err != nil {
			tc.report(KindTypeMismatch, x.Span(), fmt.Sprintf("operator %s: %s", x.Op, err))
			return tc.poison(x)
		}
		return tc.annotate(x, tc.Uni.Apply(lt))
	case cmpOps[x.Op]:
		if err := tc.Uni.Unify(lt, rt); err != nil {
			tc.report(KindTypeMismatch, x.Span(), fmt.Sprintf("operator %s: %s", x.Op, err))
		}
		return tc.annotate(x, &Bool{})
	case logicOps[x.Op]:
		if err := tc.Uni.Unify(lt, &Bool{}); err != nil {
			tc.report(KindTypeMismatch, x.Left.Span(), "left operand of logical operator must be bool")
		}
		if err := tc.Uni.Unify(rt, &Bool{}); err != nil {
			tc.report(KindTypeMismatch, x.Right.Span(), "right operand of logical operator must be bool")
		}
		return tc.annotate(x, &Bool{})
	default:
		tc.report(KindInternalError, x.Span(), fmt.Sprintf("unknown binary operator %q", x.Op))
		return tc.poison(x)
	}
}

func (tc *TypeChecker) checkUnary(x *ast.UnaryExpr) Type {
	operandType := tc.checkExpr(x.Operand)
	switch x.Op {
	case "!":
		if err := tc.Uni.Unify(operandType, &Bool{}); err != nil {
			tc.report(KindTypeMismatch, x.Span(), "operand of ! must be bool")
		}
		return tc.annotate(x, &Bool{})
	case "-":
		return tc.annotate(x, tc.Uni.Apply(operandType))
	case "&":
		return tc.annotate(x, &Pointer{Referent: tc.Uni.Apply(operandType)})
	case "*":
		return tc.checkDerefType(x, operandType)
	default:
		tc.report(KindInternalError, x.Span(), fmt.Sprintf("unknown unary operator %q", x.Op))
		return tc.poison(x)
	}
}

func (tc *TypeChecker) checkDerefType(x ast.Expr, operandType Type) Type {
	applied := tc.Uni.Apply(operandType)
	if p, ok := applied.(*Pointer); ok {
		return tc.annotate(x, p.Referent)
	}
	tc.report(KindTypeMismatch, x.Span(), fmt.Sprintf("cannot dereference non-pointer type %s", applied.String()))
	return tc.poison(x)
}

func (tc *TypeChecker) checkIf(x *ast.IfExpr) Type {
	condType := tc.checkExpr(x.Cond)
	if err := tc.Uni.Unify(condType, &Bool{}); err != nil {
		tc.report(KindTypeMismatch, x.Cond.Span(), "if condition must be bool")
	}
	thenType := tc.checkBlock(x.Then)
	if x.Else == nil {
		if err := tc.Uni.Unify(thenType, &Unit{}); err != nil {
			tc.report(KindTypeMismatch, x.Span(), "if without else must have unit-typed branch")
		}
		return tc.annotate(x, &Unit{})
	}
	elseType := tc.checkExpr(x.Else)
	if err := tc.Uni.Unify(thenType, elseType); err != nil {
		tc.report(KindTypeMismatch, x.Span(), fmt.Sprintf("if/else branches disagree: %s vs %s", tc.Uni.Apply(thenType).String(), tc.Uni.Apply(elseType).String()))
		return tc.poison(x)
	}
	return tc.annotate(x, tc.Uni.Apply(thenType))
}

func (tc *TypeChecker) checkLoop(x *ast.LoopExpr) Type {
	tc.loopDepth++
	resultVar := tc.Fresh.Fresh()
	tc.loopBreakTypes = append(tc.loopBreakTypes, resultVar)
	tc.checkBlock(x.Body)
	tc.loopBreakTypes = tc.loopBreakTypes[:len(tc.loopBreakTypes)-1]
	tc.loopDepth--
	return tc.annotate(x, tc.Uni.Apply(resultVar))
}

func (tc *TypeChecker) checkBreak(x *ast.BreakExpr) Type {
	if tc.loopDepth == 0 {
		tc.report(KindInternalError, x.Span(), "break outside of a loop")
		return tc.poison(x)
	}
	valType := Type(&Unit{})
	if x.Value != nil {
		valType = tc.checkExpr(x.Value)
	}
	target := tc.loopBreakTypes[len(tc.loopBreakTypes)-1]
	if err := tc.Uni.Unify(target, valType); err != nil {
		tc.report(KindTypeMismatch, x.Span(), fmt.Sprintf("break value disagrees with earlier break in same loop: %s", err))
	}
	return tc.annotate(x, &Unit{})
}

func (tc *TypeChecker) checkAssign(x *ast.AssignExpr) Type {
	targetType := tc.checkExpr(x.Target)
	if id, ok := x.Target.(*ast.Ident); ok {
		if info, ok := tc.scopes.Lookup(id.Name); ok && !info.Mutable {
			tc.report(KindInternalError, x.Span(), fmt.Sprintf("cannot assign to immutable binding %q", id.Name))
		}
	}
	valType := tc.checkExpr(x.Value)
	if err := tc.Uni.Unify(targetType, valType); err != nil {
		tc.report(KindTypeMismatch, x.Span(), fmt.Sprintf("assignment: %s", err))
	}
	return tc.annotate(x, &Unit{})
}

// checkCall implements spec §4.2's call-expression rule: ordinary calls
// to a named function instantiate its generics fresh per call site and
// record the resulting concrete argument list with the monomorphization
// sink once every type argument is fully resolved.
func (tc *TypeChecker) checkCall(x *ast.CallExpr) Type {
	callee, isName := calleeName(x.Callee)
	if !isName {
		return tc.checkIndirectCall(x)
	}
	fn, ok := tc.Reg.Functions[callee]
	if !ok {
		tc.report(KindUndefinedName, x.Span(), fmt.Sprintf("undefined function %q", callee))
		for _, a := range x.Args {
			tc.checkExpr(a)
		}
		return tc.poison(x)
	}

	inst := tc.instantiateFunc(fn)
	if len(inst.Params) != len(x.Args) {
		tc.report(KindArityMismatch, x.Span(), fmt.Sprintf("%q expects %d arguments, got %d", callee, len(inst.Params), len(x.Args)))
	}
	for i, a := range x.Args {
		argType := tc.checkExpr(a)
		if i < len(inst.Params) {
			if err := tc.Uni.Unify(inst.Params[i], argType); err != nil {
				tc.report(KindTypeMismatch, a.Span(), fmt.Sprintf("argument %d of %q: %s", i+1, callee, err))
			}
		}
	}

	tc.recordInstantiation(callee, KindFunction, fn.Generics, inst.typeArgs)
	return tc.annotate(x, tc.Uni.Apply(inst.Return))
}

func (tc *TypeChecker) checkIndirectCall(x *ast.CallExpr) Type {
	calleeType := tc.Uni.Apply(tc.checkExpr(x.Callee))
	fnType, ok := calleeType.(*Func)
	if !ok {
		tc.report(KindTypeMismatch, x.Callee.Span(), fmt.Sprintf("cannot call non-function type %s", calleeType.String()))
		for _, a := range x.Args {
			tc.checkExpr(a)
		}
		return tc.poison(x)
	}
	for i, a := range x.Args {
		argType := tc.checkExpr(a)
		if i < len(fnType.Params) {
			if err := tc.Uni.Unify(fnType.Params[i], argType); err != nil {
				tc.report(KindTypeMismatch, a.Span(), fmt.Sprintf("argument %d: %s", i+1, err))
			}
		}
	}
	return tc.annotate(x, tc.Uni.Apply(fnType.Return))
}

func calleeName(e ast.Expr) (string, bool) {
	if id, ok := e.(*ast.Ident); ok {
		return id.Name, true
	}
	return "", false
}

// instantiatedSig is a function signature with its generics replaced by
// fresh inference variables for one call site.
type instantiatedSig struct {
	Params   []Type
	Return   Type
	typeArgs []Type // parallel to fn.Generics
}

func (tc *TypeChecker) instantiateFunc(fn *FuncInfo) *instantiatedSig {
	if len(fn.Generics) == 0 {
		params := make([]Type, len(fn.Params))
		for i, p := range fn.Params {
			params[i] = p.Type
		}
		return &instantiatedSig{Params: params, Return: fn.Return}
	}
	bind := make(map[string]Type, len(fn.Generics))
	typeArgs := make([]Type, len(fn.Generics))
	for i, g := range fn.Generics {
		fresh := tc.Fresh.Fresh()
		bind[g] = fresh
		typeArgs[i] = fresh
	}
	params := make([]Type, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = replaceGenericNames(p.Type, bind)
	}
	return &instantiatedSig{Params: params, Return: replaceGenericNames(fn.Return, bind), typeArgs: typeArgs}
}

// recordInstantiation forwards a fully-resolved instantiation to the
// monomorphization sink once every type argument's substitution has
// settled (spec §4.2, §6 "GenericInstantiation discovery").
func (tc *TypeChecker) recordInstantiation(name string, kind InstantiationKind, generics []string, typeArgs []Type) {
	if tc.Mono == nil || len(generics) == 0 {
		return
	}
	resolved := make([]Type, len(typeArgs))
	for i, t := range typeArgs {
		resolved[i] = tc.Uni.Apply(t)
		if HasVarOrUnknown(resolved[i]) {
			// Left unconstrained by the call site; defaulting fills this
			// in at function-exit time, so recording is deferred there.
			tc.deferred = append(tc.deferred, deferredInstantiation{name: name, kind: kind, typeArgs: typeArgs})
			return
		}
	}
	tc.Mono.Record(name, kind, resolved)
}

func (tc *TypeChecker) checkField(x *ast.FieldExpr) Type {
	recvType := tc.Uni.Apply(tc.checkExpr(x.Receiver))
	named, ok := recvType.(*Named)
	if !ok {
		tc.report(KindTypeMismatch, x.Span(), fmt.Sprintf("cannot access field %q on non-struct type %s", x.Field, recvType.String()))
		return tc.poison(x)
	}
	st, ok := tc.Reg.Structs[named.Name]
	if !ok {
		tc.report(KindUnknownField, x.Span(), fmt.Sprintf("%q is not a struct", named.Name))
		return tc.poison(x)
	}
	bind := genericBinding(st.Generics, named.Args)
	for _, f := range st.Fields {
		if f.Name == x.Field {
			return tc.annotate(x, replaceGenericNames(f.Type, bind))
		}
	}
	tc.report(KindUnknownField, x.Span(), fmt.Sprintf("struct %q has no field %q", named.Name, x.Field))
	return tc.poison(x)
}

func genericBinding(names []string, args []Type) map[string]Type {
	bind := make(map[string]Type, len(names))
	for i, n := range names {
		if i < len(args) {
			bind[n] = args[i]
		}
	}
	return bind
}

func (tc *TypeChecker) checkStructLit(x *ast.StructLitExpr) Type {
	st, ok := tc.Reg.Structs[x.TypeName]
	if !ok {
		tc.report(KindUndefinedName, x.Span(), fmt.Sprintf("undefined struct %q", x.TypeName))
		for _, f := range x.Fields {
			tc.checkExpr(f)
		}
		return tc.poison(x)
	}

	var typeArgs []Type
	bind := make(map[string]Type, len(st.Generics))
	for _, g := range st.Generics {
		fresh := tc.Fresh.Fresh()
		bind[g] = fresh
		typeArgs = append(typeArgs, fresh)
	}
	if len(x.TypeArgs) > 0 {
		typeArgs = typeArgs[:0]
		for i, te := range x.TypeArgs {
			t := tc.resolveTypeExprDecl(te, tc.currentGenerics())
			if i < len(st.Generics) {
				bind[st.Generics[i]] = t
			}
			typeArgs = append(typeArgs, t)
		}
	}

	for _, field := range st.Fields {
		valExpr, present := x.Fields[field.Name]
		if !present {
			tc.report(KindUnknownField, x.Span(), fmt.Sprintf("missing field %q in struct literal %q", field.Name, x.TypeName))
			continue
		}
		valType := tc.checkExpr(valExpr)
		expected := replaceGenericNames(field.Type, bind)
		if err := tc.Uni.Unify(expected, valType); err != nil {
			tc.report(KindTypeMismatch, valExpr.Span(), fmt.Sprintf("field %q: %s", field.Name, err))
		}
	}
	for name, valExpr := range x.Fields {
		if !structHasField(st, name) {
			tc.report(KindUnknownField, valExpr.Span(), fmt.Sprintf("struct %q has no field %q", x.TypeName, name))
		}
	}

	resolved := make([]Type, len(typeArgs))
	allResolved := true
	for i, t := range typeArgs {
		resolved[i] = tc.Uni.Apply(t)
		if HasVarOrUnknown(resolved[i]) {
			allResolved = false
		}
	}
	if allResolved && len(st.Generics) > 0 && tc.Mono != nil {
		tc.Mono.Record(x.TypeName, KindStruct, resolved)
	}
	return tc.annotate(x, &Named{Name: x.TypeName, Args: typeArgs})
}

func structHasField(st *StructInfo, name string) bool {
	for _, f := range st.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

func (tc *TypeChecker) checkIndex(x *ast.IndexExpr) Type {
	recvType := tc.Uni.Apply(tc.checkExpr(x.Receiver))
	idxType := tc.checkExpr(x.Index)
	if err := tc.Uni.Unify(idxType, &Int{Width: W64}); err != nil {
		tc.report(KindTypeMismatch, x.Index.Span(), "index must be an integer")
	}
	if arr, ok := recvType.(*Array); ok {
		return tc.annotate(x, arr.Element)
	}
	tc.report(KindTypeMismatch, x.Span(), fmt.Sprintf("cannot index non-array type %s", recvType.String()))
	return tc.poison(x)
}

func (tc *TypeChecker) checkDeref(x *ast.DerefExpr) Type {
	operandType := tc.checkExpr(x.Operand)
	return tc.checkDerefType(x, operandType)
}

func (tc *TypeChecker) checkCast(x *ast.CastExpr) Type {
	tc.checkExpr(x.Operand)
	target := tc.resolveTypeExprDecl(x.Target, tc.currentGenerics())
	return tc.annotate(x, target)
}

func (tc *TypeChecker) checkClosure(x *ast.ClosureExpr) Type {
	tc.scopes.Push()
	defer tc.scopes.Pop()

	params := make([]Type, len(x.Params))
	for i, p := range x.Params {
		var t Type
		if p.Type != nil {
			t = tc.resolveTypeExprDecl(p.Type, tc.currentGenerics())
		} else {
			t = tc.Fresh.Fresh()
		}
		params[i] = t
		tc.scopes.Define(p.Name, &VarInfo{Type: t, Mutable: p.Mutable})
	}
	bodyType := tc.checkExpr(x.Body)
	return tc.annotate(x, &Func{Params: params, Return: bodyType})
}

func (tc *TypeChecker) checkAwait(x *ast.AwaitExpr) Type {
	operandType := tc.Uni.Apply(tc.checkExpr(x.Operand))
	if fn, ok := operandType.(*Func); ok && fn.Async {
		return tc.annotate(x, fn.Return)
	}
	tc.report(KindTypeMismatch, x.Span(), "await requires an async function value")
	return tc.poison(x)
}

// checkSelfCall resolves the self-recursion operator against the
// innermost enclosing function (spec §9): it never performs name
// lookup, so it is immune to shadowing of the function's own name.
func (tc *TypeChecker) checkSelfCall(x *ast.SelfCallExpr) Type {
	if len(tc.funcStack) == 0 {
		tc.report(KindInternalError, x.Span(), "self-recursion operator used outside of a function")
		return tc.poison(x)
	}
	enclosing := tc.funcStack[len(tc.funcStack)-1]
	if len(enclosing.Params) != len(x.Args) {
		tc.report(KindArityMismatch, x.Span(), fmt.Sprintf("self-call expects %d arguments, got %d", len(enclosing.Params), len(x.Args)))
	}
	for i, a := range x.Args {
		argType := tc.checkExpr(a)
		if i < len(enclosing.Params) {
			if err := tc.Uni.Unify(enclosing.Params[i].Type, argType); err != nil {
				tc.report(KindTypeMismatch, a.Span(), fmt.Sprintf("self-call argument %d: %s", i+1, err))
			}
		}
	}
	return tc.annotate(x, tc.Uni.Apply(enclosing.Return))
}

// checkMethodCall implements trait-method dispatch (spec §4.3): the
// receiver's resolved type selects the single matching impl record at
// check time, never at runtime.
func (tc *TypeChecker) checkMethodCall(x *ast.MethodCallExpr) Type {
	recvType := tc.Uni.Apply(tc.checkExpr(x.Receiver))

	if named, ok := recvType.(*Named); ok {
		if st, ok := tc.Reg.Structs[named.Name]; ok {
			if fn, ok := st.Methods[x.Method]; ok {
				return tc.dispatchCall(x, fn)
			}
		}
	}

	traitName, fn, err := tc.findTraitMethod(x.Method, recvType)
	if err != nil {
		tc.report(KindUnresolvedTrait, x.Span(), err.Error())
		for _, a := range x.Args {
			tc.checkExpr(a)
		}
		return tc.poison(x)
	}
	_ = traitName
	return tc.dispatchCall(x, fn)
}

func (tc *TypeChecker) findTraitMethod(method string, recvType Type) (string, *FuncInfo, error) {
	for name, trait := range tc.Reg.Traits {
		if _, declares := trait.Methods[method]; !declares {
			continue
		}
		fn, err := tc.Traits.ResolveMethod(name, method, recvType)
		if err == nil {
			return name, fn, nil
		}
		return name, nil, err
	}
	return "", nil, fmt.Errorf("no trait declares method %q", method)
}

func (tc *TypeChecker) dispatchCall(x *ast.MethodCallExpr, fn *FuncInfo) Type {
	inst := tc.instantiateFunc(fn)
	if len(inst.Params) != len(x.Args) {
		tc.report(KindArityMismatch, x.Span(), fmt.Sprintf("%q expects %d arguments, got %d", x.Method, len(inst.Params), len(x.Args)))
	}
	for i, a := range x.Args {
		argType := tc.checkExpr(a)
		if i < len(inst.Params) {
			if err := tc.Uni.Unify(inst.Params[i], argType); err != nil {
				tc.report(KindTypeMismatch, a.Span(), fmt.Sprintf("argument %d of %q: %s", i+1, x.Method, err))
			}
		}
	}
	tc.recordInstantiation(x.Method, KindMethod, fn.Generics, inst.typeArgs)
	return tc.annotate(x, tc.Uni.Apply(inst.Return))
}

// checkMatch implements the match expression's typing rule: every arm's
// pattern binds against the scrutinee's type, every arm body must unify
// to a common result type, and exhaustiveness is checked separately by
// internal/elaborate once lowering to Core begins (spec §4.4, §4.5).
func (tc *TypeChecker) checkMatch(x *ast.MatchExpr) Type {
	scrutType := tc.checkExpr(x.Scrutinee)
	result := tc.Fresh.Fresh()

	for _, arm := range x.Arms {
		tc.scopes.Push()
		tc.checkPattern(arm.Pattern, scrutType)
		if arm.Guard != nil {
			guardType := tc.checkExpr(arm.Guard)
			if err := tc.Uni.Unify(guardType, &Bool{}); err != nil {
				tc.report(KindTypeMismatch, arm.Guard.Span(), "match guard must be bool")
			}
		}
		bodyType := tc.checkExpr(arm.Body)
		if err := tc.Uni.Unify(result, bodyType); err != nil {
			tc.report(KindTypeMismatch, arm.Body.Span(), fmt.Sprintf("match arm: %s", err))
		}
		tc.scopes.Pop()
	}
	return tc.annotate(x, tc.Uni.Apply(result))
}

// checkPattern unifies a pattern's implied shape against scrutType and
// binds any variables the pattern introduces (spec §4.4).
func (tc *TypeChecker) checkPattern(p ast.Pattern, scrutType Type) {
	switch pat := p.(type) {
	case *ast.WildcardPat:
		// matches anything, binds nothing
	case *ast.VarPat:
		tc.scopes.Define(pat.Name, &VarInfo{Type: scrutType})
	case *ast.LitPat:
		litType := literalPatternType(pat.Value)
		if litType != nil {
			if err := tc.Uni.Unify(scrutType, litType); err != nil {
				tc.report(KindTypeMismatch, pat.Span(), fmt.Sprintf("pattern literal: %s", err))
			}
		}
	case *ast.TuplePat:
		applied := tc.Uni.Apply(scrutType)
		tup, ok := applied.(*Tuple)
		if !ok || len(tup.Elements) != len(pat.Elements) {
			tc.report(KindTypeMismatch, pat.Span(), fmt.Sprintf("cannot match tuple pattern of arity %d against %s", len(pat.Elements), applied.String()))
			for _, sub := range pat.Elements {
				tc.checkPattern(sub, &Unknown{})
			}
			return
		}
		for i, sub := range pat.Elements {
			tc.checkPattern(sub, tup.Elements[i])
		}
	case *ast.ConstructorPat:
		tc.checkConstructorPattern(pat, scrutType)
	case *ast.StructPat:
		applied := tc.Uni.Apply(scrutType)
		named, ok := applied.(*Named)
		if !ok {
			tc.report(KindTypeMismatch, pat.Span(), fmt.Sprintf("cannot match struct pattern %q against %s", pat.TypeName, applied.String()))
			return
		}
		st, ok := tc.Reg.Structs[named.Name]
		if !ok {
			tc.report(KindUnknownField, pat.Span(), fmt.Sprintf("%q is not a struct", named.Name))
			return
		}
		bind := genericBinding(st.Generics, named.Args)
		for name, sub := range pat.Fields {
			fieldType := Type(&Unknown{})
			for _, f := range st.Fields {
				if f.Name == name {
					fieldType = replaceGenericNames(f.Type, bind)
				}
			}
			tc.checkPattern(sub, fieldType)
		}
	default:
		tc.report(KindInternalError, p.Span(), "unhandled pattern form")
	}
}

func (tc *TypeChecker) checkConstructorPattern(pat *ast.ConstructorPat, scrutType Type) {
	applied := tc.Uni.Apply(scrutType)
	named, ok := applied.(*Named)
	if !ok {
		if v, isVar := applied.(*Var); isVar {
			// Scrutinee type still unconstrained: resolve from the
			// named enum directly and unify back.
			if en, ok := tc.Reg.Enums[pat.Enum]; ok {
				args := make([]Type, len(en.Generics))
				for i := range args {
					args[i] = tc.Fresh.Fresh()
				}
				named = &Named{Name: pat.Enum, Args: args}
				tc.Uni.Unify(v, named)
				applied = named
				ok = true
			}
		}
	}
	if !ok {
		tc.report(KindTypeMismatch, pat.Span(), fmt.Sprintf("cannot match enum pattern %q::%q against %s", pat.Enum, pat.Variant, applied.String()))
		return
	}
	en, ok := tc.Reg.Enums[named.Name]
	if !ok {
		tc.report(KindUndefinedName, pat.Span(), fmt.Sprintf("%q is not an enum", named.Name))
		return
	}
	bind := genericBinding(en.Generics, named.Args)
	for _, v := range en.Variants {
		if v.Name != pat.Variant {
			continue
		}
		if len(v.Payload) != len(pat.Args) {
			tc.report(KindArityMismatch, pat.Span(), fmt.Sprintf("variant %q expects %d payload fields, got %d", pat.Variant, len(v.Payload), len(pat.Args)))
			return
		}
		for i, sub := range pat.Args {
			tc.checkPattern(sub, replaceGenericNames(v.Payload[i], bind))
		}
		return
	}
	tc.report(KindUndefinedName, pat.Span(), fmt.Sprintf("enum %q has no variant %q", named.Name, pat.Variant))
}

func literalPatternType(v interface{}) Type {
	switch v.(type) {
	case int64:
		return nil // integer pattern literals unify loosely with any int width
	case float64:
		return nil
	case bool:
		return &Bool{}
	case string:
		return &Str{}
	case rune:
		return &Char{}
	default:
		return nil
	}
}
