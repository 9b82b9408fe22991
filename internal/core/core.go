// Package core defines the Core IR: an A-Normal-Form lowering of the
// surface AST in which every complex sub-expression has been let-bound,
// so every operand position holds only an atomic expression (Var, Lit,
// or Lambda). internal/elaborate produces Core from an
// types.AnnotatedModule; internal/codegen/llvm consumes it.
//
// Grounded on the teacher's internal/core/core.go node shapes (Var,
// Lit, Lambda, Let, LetRec, App, If, Match, BinOp, UnOp), generalized
// to carry a resolved types.Type on every node (this core has no
// further type inference to do) and to drop the teacher's
// dictionary-passing nodes (DictAbs/DictApp/DictRef) in favor of
// direct calls to the mangled name the monomorphization tracker already
// assigned — see DESIGN.md's "trait dispatch representation" decision.
package core

import (
	"fmt"
	"strings"

	"github.com/vais-lang/vais/internal/ast"
	"github.com/vais-lang/vais/internal/types"
)

// Node is embedded in every Expr to carry identity, source position,
// and the resolved type the checker assigned to the expression this
// node was lowered from.
type Node struct {
	NodeID   uint64
	OrigSpan ast.Span
	Type     types.Type
}

func (n Node) ID() uint64      { return n.NodeID }
func (n Node) Span() ast.Span  { return n.OrigSpan }
func (n Node) ResolvedType() types.Type { return n.Type }

// Expr is any Core expression.
type Expr interface {
	ID() uint64
	Span() ast.Span
	ResolvedType() types.Type
	String() string
	coreExpr()
}

// Var is an atomic variable reference.
type Var struct {
	Node
	Name string
}

func (v *Var) coreExpr()      {}
func (v *Var) String() string { return v.Name }

// LitKind tags the shape of a Lit's Value.
type LitKind int

const (
	IntLit LitKind = iota
	FloatLit
	BoolLit
	StringLit
	CharLit
	UnitLit
)

// Lit is an atomic literal.
type Lit struct {
	Node
	Kind  LitKind
	Value interface{}
}

func (l *Lit) coreExpr()      {}
func (l *Lit) String() string { return fmt.Sprintf("%v", l.Value) }

// Lambda is an atomic function value: a closure if it captures
// anything from its environment (decided during lowering).
type Lambda struct {
	Node
	Params []string
	Body   Expr
}

func (l *Lambda) coreExpr() {}
func (l *Lambda) String() string {
	return fmt.Sprintf("\\%v. %s", l.Params, l.Body)
}

// Let is a non-recursive binding; Value need not be atomic.
type Let struct {
	Node
	Name  string
	Value Expr
	Body  Expr
}

func (l *Let) coreExpr() {}
func (l *Let) String() string {
	return fmt.Sprintf("let %s = %s in %s", l.Name, l.Value, l.Body)
}

// LetRec binds one self- or mutually-recursive function.
type LetRec struct {
	Node
	Bindings []RecBinding
	Body     Expr
}

// RecBinding is one name bound within a LetRec.
type RecBinding struct {
	Name  string
	Value Expr // always a *Lambda
}

func (l *LetRec) coreExpr() {}
func (l *LetRec) String() string {
	names := make([]string, len(l.Bindings))
	for i, b := range l.Bindings {
		names[i] = b.Name
	}
	return fmt.Sprintf("let rec %s in %s", strings.Join(names, ", "), l.Body)
}

// App is a direct call to MangledName (already resolved by the
// monomorphization tracker for any generic callee) or, when
// MangledName is empty, an indirect call through Func.
type App struct {
	Node
	Func        Expr // atomic; nil for a direct call
	MangledName string
	Args        []Expr // atomic in ANF
}

func (a *App) coreExpr() {}
func (a *App) String() string {
	if a.MangledName != "" {
		return fmt.Sprintf("%s(%v)", a.MangledName, a.Args)
	}
	return fmt.Sprintf("%s(%v)", a.Func, a.Args)
}

// If is a conditional; Cond is atomic in ANF.
type If struct {
	Node
	Cond Expr
	Then Expr
	Else Expr
}

func (i *If) coreExpr() {}
func (i *If) String() string {
	return fmt.Sprintf("if %s then %s else %s", i.Cond, i.Then, i.Else)
}

// Match is a pattern match whose exhaustiveness internal/elaborate
// checks while building this node.
type Match struct {
	Node
	Scrutinee Expr
	Arms      []MatchArm
}

// MatchArm is one lowered arm. The emitter tests arms in source order,
// and Pattern drives both that test and the arm's binding extraction.
type MatchArm struct {
	Pattern Pattern
	Guard   Expr
	Body    Expr
}

func (m *Match) coreExpr() {}
func (m *Match) String() string {
	return fmt.Sprintf("match %s { %d arms }", m.Scrutinee, len(m.Arms))
}

// Loop is a `loop { ... }` with break/continue lowered to explicit
// control targets during IR emission (spec §4.2).
type Loop struct {
	Node
	Body Expr
}

func (l *Loop) coreExpr()      {}
func (l *Loop) String() string { return fmt.Sprintf("loop { %s }", l.Body) }

// Break carries an optional atomic value out of the nearest Loop.
type Break struct {
	Node
	Value Expr
}

func (b *Break) coreExpr()      {}
func (b *Break) String() string { return "break" }

// Continue restarts the nearest Loop.
type Continue struct{ Node }

func (c *Continue) coreExpr()      {}
func (c *Continue) String() string { return "continue" }

// Assign stores Value (atomic) into Target, which must lower to an
// addressable SSA name or a pointer dereference.
type Assign struct {
	Node
	Target Expr
	Value  Expr
}

func (a *Assign) coreExpr()      {}
func (a *Assign) String() string { return fmt.Sprintf("%s = %s", a.Target, a.Value) }

// BinOp is a binary primitive operation over atomic operands.
type BinOp struct {
	Node
	Op    string
	Left  Expr
	Right Expr
}

func (b *BinOp) coreExpr() {}
func (b *BinOp) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

// UnOp is a unary primitive operation over an atomic operand.
type UnOp struct {
	Node
	Op      string
	Operand Expr
}

func (u *UnOp) coreExpr()      {}
func (u *UnOp) String() string { return fmt.Sprintf("%s%s", u.Op, u.Operand) }

// StructLit constructs a named aggregate; field values are atomic.
type StructLit struct {
	Node
	TypeName string
	Fields   map[string]Expr
	Order    []string
}

func (s *StructLit) coreExpr()      {}
func (s *StructLit) String() string { return fmt.Sprintf("%s{%v}", s.TypeName, s.Order) }

// FieldAccess reads one field off an atomic struct value.
type FieldAccess struct {
	Node
	Receiver Expr
	Field    string
}

func (f *FieldAccess) coreExpr()      {}
func (f *FieldAccess) String() string { return fmt.Sprintf("%s.%s", f.Receiver, f.Field) }

// Index reads one element off an atomic fixed-array value.
type Index struct {
	Node
	Receiver Expr
	Idx      Expr
}

func (i *Index) coreExpr()      {}
func (i *Index) String() string { return fmt.Sprintf("%s[%s]", i.Receiver, i.Idx) }

// Deref reads through an atomic pointer value.
type Deref struct {
	Node
	Operand Expr
}

func (d *Deref) coreExpr()      {}
func (d *Deref) String() string { return "*" + d.Operand.String() }

// AddrOf takes the address of an addressable operand.
type AddrOf struct {
	Node
	Operand Expr
}

func (a *AddrOf) coreExpr()      {}
func (a *AddrOf) String() string { return "&" + a.Operand.String() }

// Cast reinterprets an atomic value's primitive representation.
type Cast struct {
	Node
	Operand Expr
}

func (c *Cast) coreExpr()      {}
func (c *Cast) String() string { return fmt.Sprintf("(%s as %s)", c.Operand, c.Type.String()) }

// Tuple constructs an ordered aggregate of atomic elements.
type Tuple struct {
	Node
	Elements []Expr
}

func (t *Tuple) coreExpr()      {}
func (t *Tuple) String() string { return fmt.Sprintf("(%v)", t.Elements) }

// Await suspends until an atomic async call's result is ready.
type Await struct {
	Node
	Operand Expr
}

func (a *Await) coreExpr()      {}
func (a *Await) String() string { return "await " + a.Operand.String() }

// MethodCall is trait-method dispatch already resolved to a concrete
// impl by internal/types.TraitResolver; MangledName names the selected
// method's specialization.
type MethodCall struct {
	Node
	Receiver    Expr
	MangledName string
	Args        []Expr
}

func (m *MethodCall) coreExpr() {}
func (m *MethodCall) String() string {
	return fmt.Sprintf("%s.%s(%v)", m.Receiver, m.MangledName, m.Args)
}

// Pattern is a Core-level pattern, structurally identical to the
// surface ast.Pattern forms but retained here so lowering doesn't need
// to reach back into the ast package once a Match node exists.
type Pattern interface {
	patternNode()
	String() string
}

type WildcardPattern struct{}

func (w *WildcardPattern) patternNode()  {}
func (w *WildcardPattern) String() string { return "_" }

type VarPattern struct{ Name string }

func (v *VarPattern) patternNode()  {}
func (v *VarPattern) String() string { return v.Name }

type LitPattern struct{ Value interface{} }

func (l *LitPattern) patternNode()  {}
func (l *LitPattern) String() string { return fmt.Sprintf("%v", l.Value) }

type ConstructorPattern struct {
	Enum    string
	Variant string
	Args    []Pattern
}

func (c *ConstructorPattern) patternNode() {}
func (c *ConstructorPattern) String() string {
	return fmt.Sprintf("%s::%s(%v)", c.Enum, c.Variant, c.Args)
}

type TuplePattern struct{ Elements []Pattern }

func (t *TuplePattern) patternNode()  {}
func (t *TuplePattern) String() string { return fmt.Sprintf("(%v)", t.Elements) }

type StructPattern struct {
	TypeName string
	Fields   map[string]Pattern
}

func (s *StructPattern) patternNode()  {}
func (s *StructPattern) String() string { return fmt.Sprintf("%s{%v}", s.TypeName, s.Fields) }

// FuncDef is one top-level lowered function (or method).
type FuncDef struct {
	Name     string
	Params   []string
	Generics []string
	Async    bool
	Body     Expr
}

// Program is a fully lowered module: every function the emitter must
// visit, in source declaration order (alphabetizing specializations is
// the emitter's job, not the lowering pass's, per spec §4.6).
type Program struct {
	Funcs []*FuncDef
}

// IsAtomic reports whether expr may appear directly in an operand
// position without first being let-bound (spec §4.2's ANF discipline).
func IsAtomic(expr Expr) bool {
	switch expr.(type) {
	case *Var, *Lit, *Lambda:
		return true
	default:
		return false
	}
}
