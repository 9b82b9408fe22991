package llvm

import (
	"fmt"
	"sort"

	"github.com/vais-lang/vais/internal/core"
)

// lowerStructLit heap-allocates a new instance of x's struct type, sized
// by the null-getelementptr-then-ptrtoint idiom (the standard LLVM way
// to compute a type's byte size without a target data-layout query),
// then stores each field through @malloc's returned pointer (spec §4.7
// "core data-model forms"; spec §6 declares @malloc for exactly this).
func (e *Emitter) lowerStructLit(x *core.StructLit) (value, bool, error) {
	sname := sanitizeName(x.TypeName)
	structTy := "%struct." + sname

	sizePtr := e.nextReg()
	e.emitf("  %s = getelementptr %s, %s* null, i32 1", sizePtr, structTy, structTy)
	sizeInt := e.nextReg()
	e.emitf("  %s = ptrtoint %s* %s to i64", sizeInt, structTy, sizePtr)
	raw := e.nextReg()
	e.emitf("  %s = call i8* @malloc(i64 %s)", raw, sizeInt)
	ptr := e.nextReg()
	e.emitf("  %s = bitcast i8* %s to %s*", ptr, raw, structTy)

	info, ok := e.reg.Structs[x.TypeName]
	if !ok {
		return value{}, false, fmt.Errorf("struct literal for unknown struct %q", x.TypeName)
	}
	for i, f := range info.Fields {
		fieldExpr, ok := x.Fields[f.Name]
		if !ok {
			continue
		}
		v, term, err := e.lowerExpr(fieldExpr)
		if err != nil || term {
			return value{}, term, err
		}
		fieldPtr := e.nextReg()
		e.emitf("  %s = getelementptr inbounds %s, %s* %s, i32 0, i32 %d", fieldPtr, structTy, structTy, ptr, i)
		e.emitf("  store %s %s, %s* %s", v.typ, v.operand(), v.typ, fieldPtr)
	}

	return value{typ: structTy + "*", text: ptr}, false, nil
}

// lowerIndex reads one element off a fixed-array receiver. Arrays carry
// value (not pointer) representation, so indexing needs the receiver's
// address rather than its loaded value; addressable resolves that for
// any atomic receiver form ANF allows here.
func (e *Emitter) lowerIndex(x *core.Index) (value, bool, error) {
	arrTy, err := e.mapType(x.Receiver.ResolvedType())
	if err != nil {
		return value{}, false, err
	}
	recvPtr, term, err := e.addressable(x.Receiver, arrTy)
	if err != nil || term {
		return value{}, term, err
	}
	idx, term, err := e.lowerExpr(x.Idx)
	if err != nil || term {
		return value{}, term, err
	}
	elemTy, err := e.mapType(x.Type)
	if err != nil {
		return value{}, false, err
	}
	elemPtr := e.nextReg()
	e.emitf("  %s = getelementptr inbounds %s, %s* %s, i64 0, %s %s", elemPtr, arrTy, arrTy, recvPtr, idx.typ, idx.operand())
	reg := e.nextReg()
	e.emitf("  %s = load %s, %s* %s", reg, elemTy, elemTy, elemPtr)
	return value{typ: elemTy, text: reg}, false, nil
}

// addressable returns a pointer-to-typ operand for an atomic expression
// that isn't naturally a pointer value itself (spec's Index needs the
// array's address, not its loaded aggregate value). A bound local's own
// alloca slot is used directly; anything else is spilled to a fresh
// alloca first.
func (e *Emitter) addressable(expr core.Expr, typ string) (string, bool, error) {
	if v, ok := expr.(*core.Var); ok {
		if slot, ok := e.locals[v.Name]; ok {
			return slot, false, nil
		}
	}
	val, term, err := e.lowerExpr(expr)
	if err != nil || term {
		return "", term, err
	}
	slot := e.nextReg()
	e.emitf("  %s = alloca %s", slot, typ)
	e.emitf("  store %s %s, %s* %s", typ, val.operand(), typ, slot)
	return slot, false, nil
}

// lowerDeref reads through an atomic pointer value.
func (e *Emitter) lowerDeref(x *core.Deref) (value, bool, error) {
	ptr, term, err := e.lowerExpr(x.Operand)
	if err != nil || term {
		return value{}, term, err
	}
	elemTy, err := e.mapType(x.Type)
	if err != nil {
		return value{}, false, err
	}
	reg := e.nextReg()
	e.emitf("  %s = load %s, %s* %s", reg, elemTy, elemTy, ptr.operand())
	return value{typ: elemTy, text: reg}, false, nil
}

// lowerAddrOf takes the address of a bound local, which is already a
// pointer (the local's alloca slot) in this emitter's SSA discipline.
func (e *Emitter) lowerAddrOf(x *core.AddrOf) (value, bool, error) {
	v, ok := x.Operand.(*core.Var)
	if !ok {
		return value{}, false, fmt.Errorf("unsupported address-of operand in IR emission: %T", x.Operand)
	}
	slot, ok := e.locals[v.Name]
	if !ok {
		return value{}, false, fmt.Errorf("address-of unbound local %q", v.Name)
	}
	elemTy := e.localTypes[v.Name]
	if elemTy == "" {
		var err error
		elemTy, err = e.mapType(v.ResolvedType())
		if err != nil {
			return value{}, false, err
		}
	}
	return value{typ: elemTy + "*", text: slot}, false, nil
}

// lowerAwait lowers `.await`. This emitter never models a suspending
// runtime (spec's async flag only ever changes a function type's
// signature, never its calling convention here), so an async call has
// already run to completion by the time its result reaches an atomic
// operand position; await is therefore a value-identity passthrough.
func (e *Emitter) lowerAwait(x *core.Await) (value, bool, error) {
	return e.lowerExpr(x.Operand)
}

// liftedClosure is a lambda body lambda-lifted to its own top-level
// function, queued on the emitter while the enclosing function is still
// being lowered and drained immediately after it (spec §4.7: closures
// are a core data-model form, lowered the same pass as everything
// else).
type liftedClosure struct {
	emittedName string
	captures    []string
	captureTys  []string
	params      []string
	paramTys    []string
	retTy       string
	body        core.Expr
}

// lowerLambda lambda-lifts x to a fresh top-level function taking an
// i8* environment as its first parameter (bitcast to i8** inside the
// lifted body), then returns a heap-
// allocated two-word closure record {i8* fn, i8* env} as x's value —
// the same fat-pointer shape malphas's vtables.go builds for existential
// trait objects (`call i8* @runtime_alloc(i64 16)`), adapted here from a
// vtable dispatch record to a plain function-pointer-plus-environment
// closure (spec's "no vtable dynamic dispatch" rules out trait-object
// dispatch tables, not this: a closure call is a direct call through a
// statically-known function pointer, never a lookup).
func (e *Emitter) lowerLambda(x *core.Lambda) (value, bool, error) {
	bound := make(map[string]bool, len(x.Params))
	for _, p := range x.Params {
		bound[p] = true
	}
	captures := freeVars(x.Body, bound)

	e.closureCounter++
	lc := &liftedClosure{
		emittedName: fmt.Sprintf("$closure.%d", e.closureCounter),
		captures:    captures,
		params:      x.Params,
	}
	for _, name := range captures {
		lc.captureTys = append(lc.captureTys, e.localTypes[name])
	}
	for _, p := range x.Params {
		t := findVarType(x.Body, p)
		pt := "i8*"
		if t != nil {
			var err error
			pt, err = e.mapType(t)
			if err != nil {
				return value{}, false, err
			}
		}
		lc.paramTys = append(lc.paramTys, pt)
	}
	retTy, err := e.mapType(x.Body.ResolvedType())
	if err != nil {
		return value{}, false, err
	}
	lc.retTy = retTy
	lc.body = x.Body
	e.pendingClosures = append(e.pendingClosures, lc)

	envRaw := "null"
	if len(captures) > 0 {
		envSize := len(captures) * 8
		raw := e.nextReg()
		e.emitf("  %s = call i8* @malloc(i64 %d)", raw, envSize)
		arr := e.nextReg()
		e.emitf("  %s = bitcast i8* %s to i8**", arr, raw)
		for i, name := range captures {
			slotPtr := e.nextReg()
			e.emitf("  %s = getelementptr inbounds i8*, i8** %s, i64 %d", slotPtr, arr, i)
			boxed := e.nextReg()
			e.emitf("  %s = bitcast %s* %s to i8*", boxed, lc.captureTys[i], e.locals[name])
			e.emitf("  store i8* %s, i8** %s", boxed, slotPtr)
		}
		envRaw = raw
	}

	closureRaw := e.nextReg()
	e.emitf("  %s = call i8* @malloc(i64 16)", closureRaw)
	closurePtr := e.nextReg()
	e.emitf("  %s = bitcast i8* %s to %s", closurePtr, closureRaw, closureType)
	fnSlot := e.nextReg()
	e.emitf("  %s = getelementptr inbounds %s, %s %s, i32 0, i32 0", fnSlot, closureStructTy, closureType, closurePtr)
	fnBoxed := e.nextReg()
	e.emitf("  %s = bitcast %s to i8*", fnBoxed, lc.signature()+"* @"+sanitizeName(lc.emittedName))
	e.emitf("  store i8* %s, i8** %s", fnBoxed, fnSlot)
	envSlot := e.nextReg()
	e.emitf("  %s = getelementptr inbounds %s, %s %s, i32 0, i32 1", envSlot, closureStructTy, closureType, closurePtr)
	e.emitf("  store i8* %s, i8** %s", envRaw, envSlot)

	return value{typ: closureType, text: closurePtr}, false, nil
}

// signature renders the lifted function's type, matching the parameter
// list emitLiftedClosure will declare it with (env pointer first).
func (lc *liftedClosure) signature() string {
	params := "i8*"
	for _, pt := range lc.paramTys {
		params += ", " + pt
	}
	return lc.retTy + " (" + params + ")"
}

// emitLiftedClosure emits one lambda-lifted closure body as its own
// top-level function, rebinding each capture by recovering its boxed
// address out of the environment array rather than copying its value,
// so writes to a captured mutable binding are visible to the capturing
// scope (spec's closures capture variables, not snapshots).
func (e *Emitter) emitLiftedClosure(lc *liftedClosure) error {
	savedFunc, savedName := e.curFunc, e.curEmittedName
	savedLocals, savedTypes := e.locals, e.localTypes
	savedBreaks, savedConts, savedPhis := e.breakTargets, e.continueTargets, e.breakPhis
	defer func() {
		e.curFunc, e.curEmittedName = savedFunc, savedName
		e.locals, e.localTypes = savedLocals, savedTypes
		e.breakTargets, e.continueTargets, e.breakPhis = savedBreaks, savedConts, savedPhis
	}()

	e.curFunc = nil
	e.curEmittedName = lc.emittedName
	e.locals = make(map[string]string)
	e.localTypes = make(map[string]string)
	e.breakTargets = nil
	e.continueTargets = nil
	e.breakPhis = nil

	params := []string{"i8* %arg.$env"}
	for i, p := range lc.params {
		params = append(params, fmt.Sprintf("%s %%arg.%s", lc.paramTys[i], p))
	}
	e.emitf("define %s @%s(%s) {", lc.retTy, sanitizeName(lc.emittedName), joinParams(params))
	e.emitLabel("entry")

	for i, p := range lc.params {
		pt := lc.paramTys[i]
		slot := e.nextReg()
		e.emitf("  %s = alloca %s", slot, pt)
		e.emitf("  store %s %%arg.%s, %s* %s", pt, p, pt, slot)
		e.locals[p] = slot
		e.localTypes[p] = pt
	}

	if len(lc.captures) > 0 {
		arr := e.nextReg()
		e.emitf("  %s = bitcast i8* %%arg.$env to i8**", arr)
		for i, name := range lc.captures {
			slotPtr := e.nextReg()
			e.emitf("  %s = getelementptr inbounds i8*, i8** %s, i64 %d", slotPtr, arr, i)
			boxed := e.nextReg()
			e.emitf("  %s = load i8*, i8** %s", boxed, slotPtr)
			typed := e.nextReg()
			e.emitf("  %s = bitcast i8* %s to %s*", typed, boxed, lc.captureTys[i])
			e.locals[name] = typed
			e.localTypes[name] = lc.captureTys[i]
		}
	}

	result, terminated, err := e.lowerExpr(lc.body)
	if err != nil {
		return err
	}
	if !terminated {
		if lc.retTy == "void" {
			e.emit("  ret void")
		} else {
			e.emitf("  ret %s %s", lc.retTy, result.operand())
		}
	}
	e.emit("}")
	e.emit("")
	return nil
}

// drainPendingClosures emits every lambda-lifted closure queued while
// lowering a top-level function, including any further closures nested
// inside those bodies.
func (e *Emitter) drainPendingClosures() error {
	for len(e.pendingClosures) > 0 {
		lc := e.pendingClosures[0]
		e.pendingClosures = e.pendingClosures[1:]
		if err := e.emitLiftedClosure(lc); err != nil {
			return err
		}
	}
	return nil
}

// freeVars collects, in deterministic (sorted) order, every Var name
// expr references that isn't in bound — the set a lambda lifted out of
// expr must capture.
func freeVars(expr core.Expr, bound map[string]bool) []string {
	seen := map[string]bool{}
	var walk func(core.Expr, map[string]bool)
	walk = func(e core.Expr, bound map[string]bool) {
		switch x := e.(type) {
		case *core.Var:
			if !bound[x.Name] {
				seen[x.Name] = true
			}
		case *core.Lit:
		case *core.Lambda:
			inner := extend(bound, x.Params...)
			walk(x.Body, inner)
		case *core.Let:
			walk(x.Value, bound)
			walk(x.Body, extend(bound, x.Name))
		case *core.LetRec:
			names := make([]string, len(x.Bindings))
			for i, b := range x.Bindings {
				names[i] = b.Name
			}
			inner := extend(bound, names...)
			for _, b := range x.Bindings {
				walk(b.Value, inner)
			}
			walk(x.Body, inner)
		case *core.App:
			if x.Func != nil {
				walk(x.Func, bound)
			}
			for _, a := range x.Args {
				walk(a, bound)
			}
		case *core.If:
			walk(x.Cond, bound)
			walk(x.Then, bound)
			walk(x.Else, bound)
		case *core.Match:
			walk(x.Scrutinee, bound)
			for _, arm := range x.Arms {
				inner := extend(bound, patternBoundNames(arm.Pattern)...)
				if arm.Guard != nil {
					walk(arm.Guard, inner)
				}
				walk(arm.Body, inner)
			}
		case *core.Loop:
			walk(x.Body, bound)
		case *core.Break:
			if x.Value != nil {
				walk(x.Value, bound)
			}
		case *core.Continue:
		case *core.Assign:
			walk(x.Target, bound)
			walk(x.Value, bound)
		case *core.BinOp:
			walk(x.Left, bound)
			walk(x.Right, bound)
		case *core.UnOp:
			walk(x.Operand, bound)
		case *core.StructLit:
			for _, f := range x.Fields {
				walk(f, bound)
			}
		case *core.FieldAccess:
			walk(x.Receiver, bound)
		case *core.Index:
			walk(x.Receiver, bound)
			walk(x.Idx, bound)
		case *core.Deref:
			walk(x.Operand, bound)
		case *core.AddrOf:
			walk(x.Operand, bound)
		case *core.Cast:
			walk(x.Operand, bound)
		case *core.Tuple:
			for _, el := range x.Elements {
				walk(el, bound)
			}
		case *core.Await:
			walk(x.Operand, bound)
		case *core.MethodCall:
			walk(x.Receiver, bound)
			for _, a := range x.Args {
				walk(a, bound)
			}
		}
	}
	walk(expr, bound)
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func extend(bound map[string]bool, names ...string) map[string]bool {
	out := make(map[string]bool, len(bound)+len(names))
	for k, v := range bound {
		out[k] = v
	}
	for _, n := range names {
		out[n] = true
	}
	return out
}

func patternBoundNames(pat core.Pattern) []string {
	switch p := pat.(type) {
	case *core.VarPattern:
		return []string{p.Name}
	case *core.TuplePattern:
		var out []string
		for _, el := range p.Elements {
			out = append(out, patternBoundNames(el)...)
		}
		return out
	case *core.StructPattern:
		var out []string
		for _, sub := range p.Fields {
			out = append(out, patternBoundNames(sub)...)
		}
		return out
	case *core.ConstructorPattern:
		var out []string
		for _, sub := range p.Args {
			out = append(out, patternBoundNames(sub)...)
		}
		return out
	default:
		return nil
	}
}
