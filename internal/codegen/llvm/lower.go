package llvm

import (
	"fmt"
	"strconv"

	"github.com/vais-lang/vais/internal/core"
	"github.com/vais-lang/vais/internal/types"
)

// value is an already-lowered operand: an LLVM IR type plus either a
// literal text or a register name holding it.
type value struct {
	typ  string
	text string
}

func (v value) operand() string { return v.text }

// emitFunction lowers one Core function to an LLVM `define`, using the
// SSA discipline malphas's expr_match.go follows: every bound name gets
// an alloca in the entry block, loaded on each read and stored on
// write, rather than tracking live SSA registers directly — this keeps
// lowering a straightforward one-pass walk instead of a dominance-aware
// register allocator.
func (e *Emitter) emitFunction(emittedName string, fn *core.FuncDef) error {
	e.curFunc = fn
	e.curEmittedName = emittedName
	e.locals = make(map[string]string)
	e.localTypes = make(map[string]string)
	e.breakTargets = nil
	e.continueTargets = nil
	e.breakPhis = nil
	defer func() { e.curFunc = nil; e.curEmittedName = "" }()

	retType, err := e.returnType(fn)
	if err != nil {
		return err
	}

	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		pt, err := e.paramType(fn, i)
		if err != nil {
			return err
		}
		params[i] = fmt.Sprintf("%s %%arg.%s", pt, p)
	}

	e.emitf("define %s @%s(%s) {", retType, sanitizeName(emittedName), joinParams(params))
	e.emitLabel("entry")
	for i, p := range fn.Params {
		pt, err := e.paramType(fn, i)
		if err != nil {
			return err
		}
		slot := e.nextReg()
		e.emitf("  %s = alloca %s", slot, pt)
		e.emitf("  store %s %%arg.%s, %s* %s", pt, p, pt, slot)
		e.locals[p] = slot
		e.localTypes[p] = pt
	}

	result, terminated, err := e.lowerExpr(fn.Body)
	if err != nil {
		return err
	}
	if !terminated {
		if retType == "void" {
			e.emit("  ret void")
		} else {
			e.emitf("  ret %s %s", retType, result.operand())
		}
	}
	e.emit("}")
	e.emit("")
	if err := e.drainPendingClosures(); err != nil {
		return err
	}
	return nil
}

func (e *Emitter) returnType(fn *core.FuncDef) (string, error) {
	t := fn.Body.ResolvedType()
	if t == nil {
		return "void", nil
	}
	return e.mapType(t)
}

func (e *Emitter) paramType(fn *core.FuncDef, i int) (string, error) {
	// The surface parameter's type was resolved onto every Var reference
	// to it; the first reference found in the body carries it. Lacking a
	// dedicated signature table on core.FuncDef, the emitter falls back
	// to a conservative default when a parameter is never read.
	t := findVarType(fn.Body, fn.Params[i])
	if t == nil {
		return "i8*", nil
	}
	return e.mapType(t)
}

func findVarType(expr core.Expr, name string) types.Type {
	switch v := expr.(type) {
	case *core.Var:
		if v.Name == name {
			return v.ResolvedType()
		}
		return nil
	case *core.Let:
		if t := findVarType(v.Value, name); t != nil {
			return t
		}
		return findVarType(v.Body, name)
	case *core.If:
		if t := findVarType(v.Cond, name); t != nil {
			return t
		}
		if t := findVarType(v.Then, name); t != nil {
			return t
		}
		return findVarType(v.Else, name)
	case *core.BinOp:
		if t := findVarType(v.Left, name); t != nil {
			return t
		}
		return findVarType(v.Right, name)
	case *core.UnOp:
		return findVarType(v.Operand, name)
	case *core.App:
		for _, a := range v.Args {
			if t := findVarType(a, name); t != nil {
				return t
			}
		}
		return nil
	case *core.Match:
		if t := findVarType(v.Scrutinee, name); t != nil {
			return t
		}
		for _, arm := range v.Arms {
			if t := findVarType(arm.Body, name); t != nil {
				return t
			}
		}
		return nil
	case *core.Loop:
		return findVarType(v.Body, name)
	case *core.Assign:
		if t := findVarType(v.Target, name); t != nil {
			return t
		}
		return findVarType(v.Value, name)
	case *core.FieldAccess:
		return findVarType(v.Receiver, name)
	case *core.Cast:
		return findVarType(v.Operand, name)
	case *core.Tuple:
		for _, el := range v.Elements {
			if t := findVarType(el, name); t != nil {
				return t
			}
		}
		return nil
	case *core.StructLit:
		for _, f := range v.Fields {
			if t := findVarType(f, name); t != nil {
				return t
			}
		}
		return nil
	case *core.Index:
		if t := findVarType(v.Receiver, name); t != nil {
			return t
		}
		return findVarType(v.Idx, name)
	case *core.Deref:
		return findVarType(v.Operand, name)
	case *core.AddrOf:
		return findVarType(v.Operand, name)
	case *core.Await:
		return findVarType(v.Operand, name)
	case *core.Lambda:
		return findVarType(v.Body, name)
	case *core.MethodCall:
		if t := findVarType(v.Receiver, name); t != nil {
			return t
		}
		for _, a := range v.Args {
			if t := findVarType(a, name); t != nil {
				return t
			}
		}
		return nil
	default:
		return nil
	}
}

func joinParams(params []string) string {
	out := ""
	for i, p := range params {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

// lowerExpr emits expr's code and returns its value plus whether the
// current block was already terminated (by a break/continue/return
// path), in which case the caller must not emit a terminator itself.
func (e *Emitter) lowerExpr(expr core.Expr) (value, bool, error) {
	switch x := expr.(type) {
	case *core.Lit:
		return e.lowerLit(x)
	case *core.Var:
		return e.lowerVar(x)
	case *core.Let:
		val, term, err := e.lowerExpr(x.Value)
		if err != nil || term {
			return value{}, term, err
		}
		slot := e.nextReg()
		e.emitf("  %s = alloca %s", slot, val.typ)
		e.emitf("  store %s %s, %s* %s", val.typ, val.operand(), val.typ, slot)
		e.locals[x.Name] = slot
		e.localTypes[x.Name] = val.typ
		return e.lowerExpr(x.Body)
	case *core.BinOp:
		return e.lowerBinOp(x)
	case *core.UnOp:
		return e.lowerUnOp(x)
	case *core.If:
		return e.lowerIf(x)
	case *core.Loop:
		return e.lowerLoop(x)
	case *core.Break:
		return e.lowerBreak(x)
	case *core.Continue:
		e.emitf("  br label %%%s", e.continueTargets[len(e.continueTargets)-1])
		return value{}, true, nil
	case *core.Assign:
		return e.lowerAssign(x)
	case *core.App:
		return e.lowerApp(x)
	case *core.Match:
		return e.lowerMatch(x)
	case *core.Cast:
		return e.lowerCast(x)
	case *core.FieldAccess:
		return e.lowerFieldAccess(x)
	case *core.Tuple:
		return e.lowerTuple(x)
	case *core.MethodCall:
		return e.lowerMethodCall(x)
	case *core.StructLit:
		return e.lowerStructLit(x)
	case *core.Index:
		return e.lowerIndex(x)
	case *core.Deref:
		return e.lowerDeref(x)
	case *core.AddrOf:
		return e.lowerAddrOf(x)
	case *core.Lambda:
		return e.lowerLambda(x)
	case *core.Await:
		return e.lowerAwait(x)
	default:
		return value{}, false, fmt.Errorf("unsupported core node in IR emission: %T", expr)
	}
}

func (e *Emitter) lowerLit(x *core.Lit) (value, bool, error) {
	typ, err := e.mapType(x.Type)
	if err != nil {
		return value{}, false, err
	}
	switch x.Kind {
	case core.IntLit:
		return value{typ: typ, text: fmt.Sprintf("%d", x.Value)}, false, nil
	case core.FloatLit:
		f, _ := x.Value.(float64)
		return value{typ: typ, text: strconv.FormatFloat(f, 'e', -1, 64)}, false, nil
	case core.BoolLit:
		if b, _ := x.Value.(bool); b {
			return value{typ: typ, text: "1"}, false, nil
		}
		return value{typ: typ, text: "0"}, false, nil
	case core.CharLit:
		r, _ := x.Value.(rune)
		return value{typ: typ, text: fmt.Sprintf("%d", r)}, false, nil
	case core.StringLit:
		s, _ := x.Value.(string)
		name := e.stringConstName(s)
		n := len(s) + 1 // the backing global carries a trailing NUL (spec §6)
		return value{typ: "i8*", text: fmt.Sprintf("getelementptr inbounds ([%d x i8], [%d x i8]* %s, i64 0, i64 0)", n, n, name)}, false, nil
	default: // UnitLit
		return value{typ: "void", text: ""}, false, nil
	}
}

func (e *Emitter) lowerVar(x *core.Var) (value, bool, error) {
	slot, ok := e.locals[x.Name]
	if !ok {
		return value{}, false, fmt.Errorf("unbound local %q reached the IR emitter", x.Name)
	}
	typ, err := e.mapType(x.Type)
	if err != nil {
		return value{}, false, err
	}
	// A slot bound to a lowered lambda holds its closure record, not a
	// bare function pointer.
	if e.localTypes[x.Name] == closureType {
		typ = closureType
	}
	reg := e.nextReg()
	e.emitf("  %s = load %s, %s* %s", reg, typ, typ, slot)
	return value{typ: typ, text: reg}, false, nil
}

func isFloatType(t string) bool { return t == "float" || t == "double" }

func (e *Emitter) lowerBinOp(x *core.BinOp) (value, bool, error) {
	l, term, err := e.lowerExpr(x.Left)
	if err != nil || term {
		return value{}, term, err
	}
	r, term, err := e.lowerExpr(x.Right)
	if err != nil || term {
		return value{}, term, err
	}
	resTyp, err := e.mapType(x.Type)
	if err != nil {
		return value{}, false, err
	}
	reg := e.nextReg()
	flt := isFloatType(l.typ)
	op := ""
	switch x.Op {
	case "+":
		op = pick(flt, "fadd", "add")
	case "-":
		op = pick(flt, "fsub", "sub")
	case "*":
		op = pick(flt, "fmul", "mul")
	case "/":
		op = pick(flt, "fdiv", "sdiv")
	case "%":
		op = pick(flt, "frem", "srem")
	case "==":
		e.emitf("  %s = %s %s %s %s, %s", reg, pick(flt, "fcmp oeq", "icmp eq"), l.typ, "", l.operand(), r.operand())
		return value{typ: resTyp, text: reg}, false, nil
	case "!=":
		e.emitf("  %s = %s %s %s, %s", reg, pick(flt, "fcmp one", "icmp ne"), l.typ, l.operand(), r.operand())
		return value{typ: resTyp, text: reg}, false, nil
	case "<":
		e.emitf("  %s = %s %s %s, %s", reg, pick(flt, "fcmp olt", "icmp slt"), l.typ, l.operand(), r.operand())
		return value{typ: resTyp, text: reg}, false, nil
	case "<=":
		e.emitf("  %s = %s %s %s, %s", reg, pick(flt, "fcmp ole", "icmp sle"), l.typ, l.operand(), r.operand())
		return value{typ: resTyp, text: reg}, false, nil
	case ">":
		e.emitf("  %s = %s %s %s, %s", reg, pick(flt, "fcmp ogt", "icmp sgt"), l.typ, l.operand(), r.operand())
		return value{typ: resTyp, text: reg}, false, nil
	case ">=":
		e.emitf("  %s = %s %s %s, %s", reg, pick(flt, "fcmp oge", "icmp sge"), l.typ, l.operand(), r.operand())
		return value{typ: resTyp, text: reg}, false, nil
	case "&&":
		e.emitf("  %s = and %s %s, %s", reg, l.typ, l.operand(), r.operand())
		return value{typ: resTyp, text: reg}, false, nil
	case "||":
		e.emitf("  %s = or %s %s, %s", reg, l.typ, l.operand(), r.operand())
		return value{typ: resTyp, text: reg}, false, nil
	default:
		return value{}, false, fmt.Errorf("unsupported binary operator %q in IR emission", x.Op)
	}
	e.emitf("  %s = %s %s %s, %s", reg, op, l.typ, l.operand(), r.operand())
	return value{typ: resTyp, text: reg}, false, nil
}

func pick(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}

func (e *Emitter) lowerUnOp(x *core.UnOp) (value, bool, error) {
	operand, term, err := e.lowerExpr(x.Operand)
	if err != nil || term {
		return value{}, term, err
	}
	typ, err := e.mapType(x.Type)
	if err != nil {
		return value{}, false, err
	}
	reg := e.nextReg()
	switch x.Op {
	case "-":
		if isFloatType(operand.typ) {
			e.emitf("  %s = fneg %s %s", reg, operand.typ, operand.operand())
		} else {
			e.emitf("  %s = sub %s 0, %s", reg, operand.typ, operand.operand())
		}
	case "!":
		e.emitf("  %s = xor %s %s, 1", reg, operand.typ, operand.operand())
	default:
		return value{}, false, fmt.Errorf("unsupported unary operator %q in IR emission", x.Op)
	}
	return value{typ: typ, text: reg}, false, nil
}

func (e *Emitter) lowerCast(x *core.Cast) (value, bool, error) {
	operand, term, err := e.lowerExpr(x.Operand)
	if err != nil || term {
		return value{}, term, err
	}
	target, err := e.mapType(x.Type)
	if err != nil {
		return value{}, false, err
	}
	if operand.typ == target {
		return value{typ: target, text: operand.operand()}, false, nil
	}
	reg := e.nextReg()
	op := castOp(operand.typ, target)
	e.emitf("  %s = %s %s %s to %s", reg, op, operand.typ, operand.operand(), target)
	return value{typ: target, text: reg}, false, nil
}

func castOp(from, to string) string {
	fromFloat, toFloat := isFloatType(from), isFloatType(to)
	switch {
	case fromFloat && !toFloat:
		return "fptosi"
	case !fromFloat && toFloat:
		return "sitofp"
	case fromFloat && toFloat:
		if to == "double" {
			return "fpext"
		}
		return "fptrunc"
	default:
		return "sext"
	}
}

func (e *Emitter) lowerAssign(x *core.Assign) (value, bool, error) {
	target, ok := x.Target.(*core.Var)
	if !ok {
		return value{}, false, fmt.Errorf("unsupported assignment target in IR emission: %T", x.Target)
	}
	slot, ok := e.locals[target.Name]
	if !ok {
		return value{}, false, fmt.Errorf("assignment to unbound local %q", target.Name)
	}
	val, term, err := e.lowerExpr(x.Value)
	if err != nil || term {
		return value{}, term, err
	}
	e.emitf("  store %s %s, %s* %s", val.typ, val.operand(), val.typ, slot)
	return value{typ: "void"}, false, nil
}

func (e *Emitter) lowerTuple(x *core.Tuple) (value, bool, error) {
	typ, err := e.mapType(x.Type)
	if err != nil {
		return value{}, false, err
	}
	agg := "undef"
	cur := agg
	for i, el := range x.Elements {
		v, term, err := e.lowerExpr(el)
		if err != nil || term {
			return value{}, term, err
		}
		reg := e.nextReg()
		e.emitf("  %s = insertvalue %s %s, %s %s, %d", reg, typ, cur, v.typ, v.operand(), i)
		cur = reg
	}
	return value{typ: typ, text: cur}, false, nil
}

func (e *Emitter) lowerFieldAccess(x *core.FieldAccess) (value, bool, error) {
	recv, term, err := e.lowerExpr(x.Receiver)
	if err != nil || term {
		return value{}, term, err
	}
	typ, err := e.mapType(x.Type)
	if err != nil {
		return value{}, false, err
	}
	structName, idx := e.fieldIndex(x.Receiver.ResolvedType(), x.Field)
	ptr := e.nextReg()
	e.emitf("  %s = getelementptr inbounds %%struct.%s, %%struct.%s* %s, i32 0, i32 %d", ptr, structName, structName, recv.operand(), idx)
	reg := e.nextReg()
	e.emitf("  %s = load %s, %s* %s", reg, typ, typ, ptr)
	return value{typ: typ, text: reg}, false, nil
}

func (e *Emitter) fieldIndex(t types.Type, field string) (string, int) {
	named, ok := t.(*types.Named)
	if !ok {
		return "", 0
	}
	info, ok := e.reg.Structs[named.Name]
	if !ok {
		return sanitizeName(named.Name), 0
	}
	for i, f := range info.Fields {
		if f.Name == field {
			return sanitizeName(named.Name), i
		}
	}
	return sanitizeName(named.Name), 0
}
