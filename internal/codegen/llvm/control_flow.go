package llvm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vais-lang/vais/internal/core"
	"github.com/vais-lang/vais/internal/types"
)

// selfCallSentinel mirrors internal/elaborate's constant of the same
// name: the mangled name the elaborator writes onto an App node lowered
// from the self-recursion operator (spec §9), resolved here to whatever
// specialization is currently being emitted.
const selfCallSentinel = "$self"

// phiIncoming is one [value, label] pair of a phi node's incoming-value
// list (spec §4.7: if/loop/match join points merge through phi nodes,
// not a shared alloca).
type phiIncoming struct {
	text  string
	label string
}

// label allocates a fresh, readable basic-block label.
func (e *Emitter) label(prefix string) string {
	e.regCounter++
	return fmt.Sprintf("%s.%d", prefix, e.regCounter)
}

// emitLabel opens a new basic block and records it as the block current
// lowering is writing into. A branch's arm may itself contain nested
// control flow that opens further blocks, so the label open when an
// arm's lowering returns is not necessarily the label that arm started
// in; e.curLabel always reflects the true current block, which is what
// a phi node at the next join point must cite as the incoming edge.
func (e *Emitter) emitLabel(lbl string) {
	e.emitf("%s:", lbl)
	e.curLabel = lbl
}

// lowerIf lowers a conditional, joining the two arms at if.merge through
// a phi node (spec §4.7) rather than a shared alloca.
func (e *Emitter) lowerIf(x *core.If) (value, bool, error) {
	resType, err := e.mapType(x.Type)
	if err != nil {
		return value{}, false, err
	}

	cond, term, err := e.lowerExpr(x.Cond)
	if err != nil || term {
		return value{}, term, err
	}

	thenLabel := e.label("if.then")
	elseLabel := e.label("if.else")
	mergeLabel := e.label("if.merge")
	e.emitf("  br i1 %s, label %%%s, label %%%s", cond.operand(), thenLabel, elseLabel)

	e.emitLabel(thenLabel)
	thenVal, thenTerm, err := e.lowerExpr(x.Then)
	if err != nil {
		return value{}, false, err
	}
	thenExit := e.curLabel
	if !thenTerm {
		e.emitf("  br label %%%s", mergeLabel)
	}

	e.emitLabel(elseLabel)
	elseVal, elseTerm, err := e.lowerExpr(x.Else)
	if err != nil {
		return value{}, false, err
	}
	elseExit := e.curLabel
	if !elseTerm {
		e.emitf("  br label %%%s", mergeLabel)
	}

	if thenTerm && elseTerm {
		e.emitLabel(mergeLabel)
		e.emit("  unreachable")
		return value{}, true, nil
	}

	e.emitLabel(mergeLabel)
	if resType == "void" {
		return value{typ: "void"}, false, nil
	}
	var incoming []phiIncoming
	if !thenTerm {
		incoming = append(incoming, phiIncoming{text: thenVal.operand(), label: thenExit})
	}
	if !elseTerm {
		incoming = append(incoming, phiIncoming{text: elseVal.operand(), label: elseExit})
	}
	reg := e.nextReg()
	e.emitf("  %s = phi %s %s", reg, resType, joinIncoming(incoming))
	return value{typ: resType, text: reg}, false, nil
}

// lowerLoop lowers `loop { ... }`. Every `break v` records v against the
// block it branches from; loop.exit's predecessors are exactly those
// break sites, so its result (when the loop's type is non-unit) is a
// phi over the collected (value, label) pairs (spec §4.7, and spec's S5
// testable property: `phi i64 [7, %brk1], [9, %brk2]`).
func (e *Emitter) lowerLoop(x *core.Loop) (value, bool, error) {
	resType, err := e.mapType(x.Type)
	if err != nil {
		return value{}, false, err
	}

	bodyLabel := e.label("loop.body")
	exitLabel := e.label("loop.exit")

	e.continueTargets = append(e.continueTargets, bodyLabel)
	e.breakTargets = append(e.breakTargets, exitLabel)
	e.breakPhis = append(e.breakPhis, nil)
	defer func() {
		e.continueTargets = e.continueTargets[:len(e.continueTargets)-1]
		e.breakTargets = e.breakTargets[:len(e.breakTargets)-1]
		e.breakPhis = e.breakPhis[:len(e.breakPhis)-1]
	}()

	e.emitf("  br label %%%s", bodyLabel)
	e.emitLabel(bodyLabel)
	_, term, err := e.lowerExpr(x.Body)
	if err != nil {
		return value{}, false, err
	}
	if !term {
		e.emitf("  br label %%%s", bodyLabel)
	}

	incoming := e.breakPhis[len(e.breakPhis)-1]
	e.emitLabel(exitLabel)
	if resType == "void" {
		return value{typ: "void"}, false, nil
	}
	if len(incoming) == 0 {
		e.emit("  unreachable")
		return value{}, true, nil
	}
	reg := e.nextReg()
	e.emitf("  %s = phi %s %s", reg, resType, joinIncoming(incoming))
	return value{typ: resType, text: reg}, false, nil
}

func (e *Emitter) lowerBreak(x *core.Break) (value, bool, error) {
	if len(e.breakTargets) == 0 {
		return value{}, false, fmt.Errorf("break used outside any loop")
	}
	if x.Value != nil {
		val, term, err := e.lowerExpr(x.Value)
		if err != nil || term {
			return value{}, term, err
		}
		top := len(e.breakPhis) - 1
		e.breakPhis[top] = append(e.breakPhis[top], phiIncoming{text: val.operand(), label: e.curLabel})
	}
	e.emitf("  br label %%%s", e.breakTargets[len(e.breakTargets)-1])
	return value{}, true, nil
}

func joinIncoming(incoming []phiIncoming) string {
	parts := make([]string, len(incoming))
	for i, p := range incoming {
		parts[i] = fmt.Sprintf("[%s, %%%s]", p.text, p.label)
	}
	return strings.Join(parts, ", ")
}

// lowerApp lowers a direct or indirect call. $self (spec §9's
// self-recursion operator) resolves to whichever specialization is
// currently being emitted, so a generic function's recursive call
// reaches its own mangled name rather than the unspecialized original.
func (e *Emitter) lowerApp(x *core.App) (value, bool, error) {
	args := make([]value, len(x.Args))
	for i, a := range x.Args {
		v, term, err := e.lowerExpr(a)
		if err != nil || term {
			return value{}, term, err
		}
		args[i] = v
	}

	if x.MangledName != "" {
		name := x.MangledName
		if name == selfCallSentinel {
			if e.curEmittedName == "" {
				return value{}, false, fmt.Errorf("self-recursion operator used outside a function body")
			}
			name = e.curEmittedName
		}
		return e.emitCall("@"+sanitizeName(name), args, x.Type)
	}

	fnVal, term, err := e.lowerExpr(x.Func)
	if err != nil || term {
		return value{}, term, err
	}
	if fnVal.typ == closureType {
		return e.emitClosureCall(fnVal, args, x.Type)
	}
	return e.emitCall(fnVal.operand(), args, x.Type)
}

// closureType is the value type a lowered *core.Lambda produces: a
// heap pointer to a two-word {fn, env} record (spec §4.7's closure
// lowering; see lowerLambda in lower_extra.go).
const closureType = "{ i8*, i8* }*"
const closureStructTy = "{ i8*, i8* }"

// emitClosureCall calls through a {fn, env} closure value (spec §4.7:
// a closure is a core data-model form, called directly through its
// function pointer, never a vtable lookup). The function pointer field
// is stored type-erased as i8* and is bitcast to the callee's real
// signature (env pointer first) before the call.
func (e *Emitter) emitClosureCall(closure value, args []value, resultType types.Type) (value, bool, error) {
	retType, err := e.mapType(resultType)
	if err != nil {
		return value{}, false, err
	}

	fnSlot := e.nextReg()
	e.emitf("  %s = getelementptr inbounds %s, %s %s, i32 0, i32 0", fnSlot, closureStructTy, closure.typ, closure.operand())
	fnBoxed := e.nextReg()
	e.emitf("  %s = load i8*, i8** %s", fnBoxed, fnSlot)
	envSlot := e.nextReg()
	e.emitf("  %s = getelementptr inbounds %s, %s %s, i32 0, i32 1", envSlot, closureStructTy, closure.typ, closure.operand())
	env := e.nextReg()
	e.emitf("  %s = load i8*, i8** %s", env, envSlot)

	sigParts := make([]string, 0, len(args)+1)
	sigParts = append(sigParts, "i8*")
	callParts := make([]string, 0, len(args)+1)
	callParts = append(callParts, "i8* "+env)
	for _, a := range args {
		sigParts = append(sigParts, a.typ)
		callParts = append(callParts, fmt.Sprintf("%s %s", a.typ, a.operand()))
	}
	fnTy := fmt.Sprintf("%s (%s)", retType, strings.Join(sigParts, ", "))
	fn := e.nextReg()
	e.emitf("  %s = bitcast i8* %s to %s*", fn, fnBoxed, fnTy)

	if retType == "void" {
		e.emitf("  call void %s(%s)", fn, strings.Join(callParts, ", "))
		return value{typ: "void"}, false, nil
	}
	reg := e.nextReg()
	e.emitf("  %s = call %s %s(%s)", reg, retType, fn, strings.Join(callParts, ", "))
	return value{typ: retType, text: reg}, false, nil
}

// lowerMethodCall lowers trait-method dispatch already resolved to a
// concrete specialization's mangled name, prepending the receiver as
// the first argument the way internal/elaborate prepends it to
// core.FuncDef.Params for impl methods.
func (e *Emitter) lowerMethodCall(x *core.MethodCall) (value, bool, error) {
	recv, term, err := e.lowerExpr(x.Receiver)
	if err != nil || term {
		return value{}, term, err
	}
	args := make([]value, 0, len(x.Args)+1)
	args = append(args, recv)
	for _, a := range x.Args {
		v, term, err := e.lowerExpr(a)
		if err != nil || term {
			return value{}, term, err
		}
		args = append(args, v)
	}
	return e.emitCall("@"+sanitizeName(x.MangledName), args, x.Type)
}

func (e *Emitter) emitCall(callee string, args []value, resultType types.Type) (value, bool, error) {
	retType, err := e.mapType(resultType)
	if err != nil {
		return value{}, false, err
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprintf("%s %s", a.typ, a.operand())
	}
	if retType == "void" {
		e.emitf("  call void %s(%s)", callee, strings.Join(parts, ", "))
		return value{typ: "void"}, false, nil
	}
	reg := e.nextReg()
	e.emitf("  %s = call %s %s(%s)", reg, retType, callee, strings.Join(parts, ", "))
	return value{typ: retType, text: reg}, false, nil
}

// lowerMatch lowers a Match whose exhaustiveness was already proven by
// internal/elaborate's exhaustiveness checker: arms are tested in
// source order as a chain of comparisons rather than through
// internal/dtree's grouped decision tree a second time, since the tree
// was already compiled once to check exhaustiveness and re-running it
// here would only save branches, not correctness.
func (e *Emitter) lowerMatch(x *core.Match) (value, bool, error) {
	scrutType := x.Scrutinee.ResolvedType()
	scrut, term, err := e.lowerExpr(x.Scrutinee)
	if err != nil || term {
		return value{}, term, err
	}

	resType, err := e.mapType(x.Type)
	if err != nil {
		return value{}, false, err
	}
	mergeLabel := e.label("match.merge")
	anyFallthrough := false
	var incoming []phiIncoming

	for i, arm := range x.Arms {
		armLabel := e.label(fmt.Sprintf("match.arm%d", i))
		nextLabel := e.label(fmt.Sprintf("match.test%d", i))

		cond, err := e.testPattern(arm.Pattern, scrut, scrutType)
		if err != nil {
			return value{}, false, err
		}
		e.emitf("  br i1 %s, label %%%s, label %%%s", cond, armLabel, nextLabel)

		e.emitLabel(armLabel)
		if err := e.bindPattern(arm.Pattern, scrut, scrutType); err != nil {
			return value{}, false, err
		}
		armVal, armTerm, err := e.lowerExpr(arm.Body)
		if err != nil {
			return value{}, false, err
		}
		armExit := e.curLabel
		if !armTerm {
			if resType != "void" {
				incoming = append(incoming, phiIncoming{text: armVal.operand(), label: armExit})
			}
			e.emitf("  br label %%%s", mergeLabel)
			anyFallthrough = true
		}

		e.emitLabel(nextLabel)
	}
	// Every scrutinee value satisfies some arm (checked at elaboration
	// time), so falling through every test is unreachable.
	e.emit("  unreachable")

	e.emitLabel(mergeLabel)
	if !anyFallthrough {
		e.emit("  unreachable")
		return value{}, true, nil
	}
	if resType == "void" {
		return value{typ: "void"}, false, nil
	}
	reg := e.nextReg()
	e.emitf("  %s = phi %s %s", reg, resType, joinIncoming(incoming))
	return value{typ: resType, text: reg}, false, nil
}

func (e *Emitter) testPattern(pat core.Pattern, scrut value, scrutType types.Type) (string, error) {
	switch p := pat.(type) {
	case *core.WildcardPattern, *core.VarPattern, *core.TuplePattern, *core.StructPattern:
		return "true", nil
	case *core.LitPattern:
		lit, err := litOperand(p.Value, scrut.typ)
		if err != nil {
			return "", err
		}
		reg := e.nextReg()
		op := pick(isFloatType(scrut.typ), "fcmp oeq", "icmp eq")
		e.emitf("  %s = %s %s %s, %s", reg, op, scrut.typ, scrut.operand(), lit)
		return reg, nil
	case *core.ConstructorPattern:
		named, ok := scrutType.(*types.Named)
		if !ok {
			return "", fmt.Errorf("constructor pattern against non-enum type %s", scrutType.String())
		}
		tags, ok := e.enumTags[named.Name]
		if !ok {
			return "", fmt.Errorf("unknown enum %s in pattern match", named.Name)
		}
		tag, ok := tags[p.Variant]
		if !ok {
			return "", fmt.Errorf("unknown variant %s::%s in pattern match", named.Name, p.Variant)
		}
		tagPtr := e.nextReg()
		sname := sanitizeName(named.Name)
		e.emitf("  %s = getelementptr inbounds %%enum.%s, %%enum.%s* %s, i32 0, i32 0", tagPtr, sname, sname, scrut.operand())
		tagVal := e.nextReg()
		e.emitf("  %s = load i32, i32* %s", tagVal, tagPtr)
		reg := e.nextReg()
		e.emitf("  %s = icmp eq i32 %s, %d", reg, tagVal, tag)
		return reg, nil
	default:
		return "", fmt.Errorf("unsupported pattern in IR emission: %T", pat)
	}
}

// bindPattern allocates and populates e.locals for every name a pattern
// binds. Constructor payload fields are reached by bitcasting the
// enum's flat payload byte array to each field's type in turn; each
// field is loaded and bound recursively, so a bound name gets its own
// alloca holding a copy of the field's value.
func (e *Emitter) bindPattern(pat core.Pattern, scrut value, scrutType types.Type) error {
	switch p := pat.(type) {
	case *core.WildcardPattern, *core.LitPattern:
		return nil
	case *core.VarPattern:
		slot := e.nextReg()
		e.emitf("  %s = alloca %s", slot, scrut.typ)
		e.emitf("  store %s %s, %s* %s", scrut.typ, scrut.operand(), scrut.typ, slot)
		e.locals[p.Name] = slot
		e.localTypes[p.Name] = scrut.typ
		return nil
	case *core.TuplePattern:
		tup, ok := scrutType.(*types.Tuple)
		if !ok {
			return nil
		}
		for i, el := range p.Elements {
			if i >= len(tup.Elements) {
				break
			}
			elType, err := e.mapType(tup.Elements[i])
			if err != nil {
				return err
			}
			reg := e.nextReg()
			e.emitf("  %s = extractvalue %s %s, %d", reg, scrut.typ, scrut.operand(), i)
			if err := e.bindPattern(el, value{typ: elType, text: reg}, tup.Elements[i]); err != nil {
				return err
			}
		}
		return nil
	case *core.StructPattern:
		named, ok := scrutType.(*types.Named)
		if !ok {
			return nil
		}
		info, ok := e.reg.Structs[named.Name]
		if !ok {
			return nil
		}
		sname := sanitizeName(named.Name)
		for i, f := range info.Fields {
			sub, ok := p.Fields[f.Name]
			if !ok {
				continue
			}
			fieldType, err := e.mapType(f.Type)
			if err != nil {
				return err
			}
			ptr := e.nextReg()
			e.emitf("  %s = getelementptr inbounds %%struct.%s, %%struct.%s* %s, i32 0, i32 %d", ptr, sname, sname, scrut.operand(), i)
			reg := e.nextReg()
			e.emitf("  %s = load %s, %s* %s", reg, fieldType, fieldType, ptr)
			if err := e.bindPattern(sub, value{typ: fieldType, text: reg}, f.Type); err != nil {
				return err
			}
		}
		return nil
	case *core.ConstructorPattern:
		named, ok := scrutType.(*types.Named)
		if !ok || len(p.Args) == 0 {
			return nil
		}
		info, ok := e.reg.Enums[named.Name]
		if !ok {
			return nil
		}
		var variant *types.VariantInfo
		for i := range info.Variants {
			if info.Variants[i].Name == p.Variant {
				variant = &info.Variants[i]
				break
			}
		}
		if variant == nil {
			return nil
		}
		sname := sanitizeName(named.Name)
		payloadPtr := e.nextReg()
		e.emitf("  %s = getelementptr inbounds %%enum.%s, %%enum.%s* %s, i32 0, i32 1", payloadPtr, sname, sname, scrut.operand())
		bytesPtr := e.nextReg()
		e.emitf("  %s = bitcast [%d x i8]* %s to i8*", bytesPtr, e.enumPayloadSize[named.Name], payloadPtr)
		offset := 0
		for i, sub := range p.Args {
			if i >= len(variant.Payload) {
				break
			}
			fieldType, err := e.mapType(variant.Payload[i])
			if err != nil {
				return err
			}
			offPtr := e.nextReg()
			e.emitf("  %s = getelementptr inbounds i8, i8* %s, i64 %d", offPtr, bytesPtr, offset)
			fieldPtr := e.nextReg()
			e.emitf("  %s = bitcast i8* %s to %s*", fieldPtr, offPtr, fieldType)
			reg := e.nextReg()
			e.emitf("  %s = load %s, %s* %s", reg, fieldType, fieldType, fieldPtr)
			if err := e.bindPattern(sub, value{typ: fieldType, text: reg}, variant.Payload[i]); err != nil {
				return err
			}
			offset += 8
		}
		return nil
	default:
		return fmt.Errorf("unsupported pattern in IR emission: %T", pat)
	}
}

func litOperand(v interface{}, typ string) (string, error) {
	switch val := v.(type) {
	case int64:
		return fmt.Sprintf("%d", val), nil
	case bool:
		if val {
			return "1", nil
		}
		return "0", nil
	case rune:
		return fmt.Sprintf("%d", val), nil
	case float64:
		return strconv.FormatFloat(val, 'e', -1, 64), nil
	default:
		return "", fmt.Errorf("unsupported literal pattern value %T", v)
	}
}
