// Package ast defines the Module-rooted AST the parser hands to the
// type checker. The lexer and parser are external collaborators (see
// spec §1); this package only fixes the shape of their output so the
// core can consume it.
package ast

import "fmt"

// Pos is a single point in a source file.
type Pos struct {
	File   string
	Line   int
	Column int
	Offset int
}

func (p Pos) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Span is a byte-offset range within a single source file.
type Span struct {
	Start Pos
	End   Pos
}

func (s Span) String() string { return s.Start.String() }

// Module is the parser's top-level deliverable: an ordered list of
// top-level items, each carrying a source span.
type Module struct {
	Name  string
	Items []Item
}

// Item is any top-level declaration.
type Item interface {
	itemNode()
	Span() Span
}

// Attribute annotates an item (e.g. `#[inline]`). The core treats
// attributes opaquely unless a specific attribute name is documented.
type Attribute struct {
	Name string
	Args []string
}

// FuncDecl is a function (or method, when Receiver != nil) declaration.
type FuncDecl struct {
	NodeSpan   Span
	Name       string
	Generics   []string
	Receiver   *Param // non-nil for trait-impl methods: `self`
	Params     []Param
	ReturnType TypeExpr // nil means unit
	Async      bool
	Body       *Block
	Attrs      []Attribute
}

func (f *FuncDecl) itemNode()  {}
func (f *FuncDecl) Span() Span { return f.NodeSpan }

// Param is one function parameter.
type Param struct {
	Name      string
	Type      TypeExpr // nil in an un-annotated position: becomes an inference variable
	Mutable   bool
	IsSelfPtr bool // true for `self:*Self`-shaped receivers
}

// StructDecl declares a struct with an ordered field list.
type StructDecl struct {
	NodeSpan Span
	Name     string
	Generics []string
	Fields   []FieldDecl
	Attrs    []Attribute
}

func (s *StructDecl) itemNode()  {}
func (s *StructDecl) Span() Span { return s.NodeSpan }

// FieldDecl is one struct field.
type FieldDecl struct {
	Name string
	Type TypeExpr
}

// EnumDecl declares an enum with ordered variants.
type EnumDecl struct {
	NodeSpan Span
	Name     string
	Generics []string
	Variants []VariantDecl
	Attrs    []Attribute
}

func (e *EnumDecl) itemNode()  {}
func (e *EnumDecl) Span() Span { return e.NodeSpan }

// VariantDecl is one enum variant with an ordered payload tuple
// (empty Payload means a unit-like variant).
type VariantDecl struct {
	Name    string
	Payload []TypeExpr
}

// TraitDecl declares a trait: required methods, associated types, and
// super-trait bounds.
type TraitDecl struct {
	NodeSpan        Span
	Name            string
	SuperTraits     []string
	AssociatedTypes []string
	Methods         []TraitMethodSig
	Attrs           []Attribute
}

func (t *TraitDecl) itemNode()  {}
func (t *TraitDecl) Span() Span { return t.NodeSpan }

// TraitMethodSig is a required method's signature within a trait.
type TraitMethodSig struct {
	Name       string
	Params     []Param
	ReturnType TypeExpr
	Async      bool
}

// ImplDecl implements a trait for a concrete (possibly generic) type,
// or (Trait == "") is an inherent impl block.
type ImplDecl struct {
	NodeSpan  Span
	Trait     string
	ForType   TypeExpr
	Generics  []string
	AssocBind map[string]TypeExpr // associated-type bindings
	Methods   []*FuncDecl
	Attrs     []Attribute
}

func (i *ImplDecl) itemNode()  {}
func (i *ImplDecl) Span() Span { return i.NodeSpan }

// TypeAliasDecl introduces a name for an existing type expression.
type TypeAliasDecl struct {
	NodeSpan Span
	Name     string
	Generics []string
	Aliased  TypeExpr
}

func (t *TypeAliasDecl) itemNode()  {}
func (t *TypeAliasDecl) Span() Span { return t.NodeSpan }

// ImportDecl is an already-resolved import; the core treats Path as an
// opaque fully-qualified identifier (the import resolver is external).
type ImportDecl struct {
	NodeSpan Span
	Path     string
	Alias    string
}

func (i *ImportDecl) itemNode()  {}
func (i *ImportDecl) Span() Span { return i.NodeSpan }

// TypeExpr is the syntactic (pre-resolution) type annotation grammar
// the parser emits. It is distinct from types.ResolvedType: a TypeExpr
// may name a generic parameter or be entirely absent (nil).
type TypeExpr interface {
	typeExprNode()
	String() string
}

// NamedTypeExpr names a primitive keyword, a struct/enum, or a trait,
// optionally applied to concrete or generic type arguments.
type NamedTypeExpr struct {
	Name string
	Args []TypeExpr
}

func (n *NamedTypeExpr) typeExprNode() {}
func (n *NamedTypeExpr) String() string {
	if len(n.Args) == 0 {
		return n.Name
	}
	s := n.Name + "<"
	for i, a := range n.Args {
		if i > 0 {
			s += ","
		}
		s += a.String()
	}
	return s + ">"
}

type PointerTypeExpr struct{ Referent TypeExpr }

func (p *PointerTypeExpr) typeExprNode()  {}
func (p *PointerTypeExpr) String() string { return "*" + p.Referent.String() }

type TupleTypeExpr struct{ Elements []TypeExpr }

func (t *TupleTypeExpr) typeExprNode() {}
func (t *TupleTypeExpr) String() string {
	s := "("
	for i, e := range t.Elements {
		if i > 0 {
			s += ","
		}
		s += e.String()
	}
	return s + ")"
}

type ArrayTypeExpr struct {
	Element TypeExpr
	Length  int
}

func (a *ArrayTypeExpr) typeExprNode() {}
func (a *ArrayTypeExpr) String() string {
	return fmt.Sprintf("[%s;%d]", a.Element.String(), a.Length)
}

type FuncTypeExpr struct {
	Params []TypeExpr
	Return TypeExpr
	Async  bool
}

func (f *FuncTypeExpr) typeExprNode()  {}
func (f *FuncTypeExpr) String() string { return "fn(...)" }

// Block is a sequence of statements followed by an optional trailing
// expression (§4.2 "Block").
type Block struct {
	NodeSpan Span
	Stmts    []Stmt
	Trailing Expr // nil means the block's type is unit
}

func (b *Block) exprNode()  {}
func (b *Block) Span() Span { return b.NodeSpan }

// Stmt is a block-level statement.
type Stmt interface {
	stmtNode()
	Span() Span
}

type LetStmt struct {
	NodeSpan Span
	Name     string
	Mutable  bool
	Type     TypeExpr // nil: inferred
	Value    Expr
}

func (l *LetStmt) stmtNode()  {}
func (l *LetStmt) Span() Span { return l.NodeSpan }

type ExprStmt struct {
	NodeSpan Span
	X        Expr
}

func (e *ExprStmt) stmtNode()  {}
func (e *ExprStmt) Span() Span { return e.NodeSpan }

// Expr is any expression form the parser emits. The checker must
// handle every variant listed in spec §4.2.
type Expr interface {
	exprNode()
	Span() Span
}

type IntLit struct {
	NodeSpan Span
	Value    int64
	Suffix   string // explicit width annotation, e.g. "i32"; "" means unconstrained
}

func (i *IntLit) exprNode()  {}
func (i *IntLit) Span() Span { return i.NodeSpan }

type FloatLit struct {
	NodeSpan Span
	Value    float64
	Suffix   string
}

func (f *FloatLit) exprNode()  {}
func (f *FloatLit) Span() Span { return f.NodeSpan }

type BoolLit struct {
	NodeSpan Span
	Value    bool
}

func (b *BoolLit) exprNode()  {}
func (b *BoolLit) Span() Span { return b.NodeSpan }

type StringLit struct {
	NodeSpan Span
	Value    string
}

func (s *StringLit) exprNode()  {}
func (s *StringLit) Span() Span { return s.NodeSpan }

type CharLit struct {
	NodeSpan Span
	Value    rune
}

func (c *CharLit) exprNode()  {}
func (c *CharLit) Span() Span { return c.NodeSpan }

type UnitLit struct{ NodeSpan Span }

func (u *UnitLit) exprNode()  {}
func (u *UnitLit) Span() Span { return u.NodeSpan }

type Ident struct {
	NodeSpan Span
	Name     string
}

func (i *Ident) exprNode()  {}
func (i *Ident) Span() Span { return i.NodeSpan }

type BinaryExpr struct {
	NodeSpan Span
	Op       string // +, -, *, /, %, ==, !=, <, <=, >, >=, &&, ||
	Left     Expr
	Right    Expr
}

func (b *BinaryExpr) exprNode()  {}
func (b *BinaryExpr) Span() Span { return b.NodeSpan }

type UnaryExpr struct {
	NodeSpan Span
	Op       string // !, -, *, &
	Operand  Expr
}

func (u *UnaryExpr) exprNode()  {}
func (u *UnaryExpr) Span() Span { return u.NodeSpan }

type IfExpr struct {
	NodeSpan Span
	Cond     Expr
	Then     *Block
	Else     Expr // *Block or *IfExpr (else-if chain) or nil
}

func (i *IfExpr) exprNode()  {}
func (i *IfExpr) Span() Span { return i.NodeSpan }

type MatchExpr struct {
	NodeSpan  Span
	Scrutinee Expr
	Arms      []MatchArm
}

func (m *MatchExpr) exprNode()  {}
func (m *MatchExpr) Span() Span { return m.NodeSpan }

type MatchArm struct {
	Pattern Pattern
	Guard   Expr // optional
	Body    Expr
}

type LoopExpr struct {
	NodeSpan Span
	Body     *Block
}

func (l *LoopExpr) exprNode()  {}
func (l *LoopExpr) Span() Span { return l.NodeSpan }

type BreakExpr struct {
	NodeSpan Span
	Value    Expr // nil for bare `break`
}

func (b *BreakExpr) exprNode()  {}
func (b *BreakExpr) Span() Span { return b.NodeSpan }

type ContinueExpr struct{ NodeSpan Span }

func (c *ContinueExpr) exprNode()  {}
func (c *ContinueExpr) Span() Span { return c.NodeSpan }

type AssignExpr struct {
	NodeSpan Span
	Target   Expr
	Value    Expr
}

func (a *AssignExpr) exprNode()  {}
func (a *AssignExpr) Span() Span { return a.NodeSpan }

type CallExpr struct {
	NodeSpan Span
	Callee   Expr
	TypeArgs []TypeExpr // explicit turbofish-style type arguments, if any
	Args     []Expr
}

func (c *CallExpr) exprNode()  {}
func (c *CallExpr) Span() Span { return c.NodeSpan }

type FieldExpr struct {
	NodeSpan Span
	Receiver Expr
	Field    string
}

func (f *FieldExpr) exprNode()  {}
func (f *FieldExpr) Span() Span { return f.NodeSpan }

type StructLitExpr struct {
	NodeSpan Span
	TypeName string
	TypeArgs []TypeExpr
	Fields   map[string]Expr
	Order    []string // source order of field names, for deterministic lowering
}

func (s *StructLitExpr) exprNode()  {}
func (s *StructLitExpr) Span() Span { return s.NodeSpan }

type IndexExpr struct {
	NodeSpan Span
	Receiver Expr
	Index    Expr
}

func (i *IndexExpr) exprNode()  {}
func (i *IndexExpr) Span() Span { return i.NodeSpan }

type DerefExpr struct {
	NodeSpan Span
	Operand  Expr
}

func (d *DerefExpr) exprNode()  {}
func (d *DerefExpr) Span() Span { return d.NodeSpan }

type CastExpr struct {
	NodeSpan Span
	Operand  Expr
	Target   TypeExpr
}

func (c *CastExpr) exprNode()  {}
func (c *CastExpr) Span() Span { return c.NodeSpan }

type ClosureExpr struct {
	NodeSpan Span
	Params   []Param
	Body     Expr
}

func (c *ClosureExpr) exprNode()  {}
func (c *ClosureExpr) Span() Span { return c.NodeSpan }

type AwaitExpr struct {
	NodeSpan Span
	Operand  Expr
}

func (a *AwaitExpr) exprNode()  {}
func (a *AwaitExpr) Span() Span { return a.NodeSpan }

// SelfCallExpr is the self-recursion operator: it syntactically
// references the enclosing function without naming it (§9).
type SelfCallExpr struct {
	NodeSpan Span
	Args     []Expr
}

func (s *SelfCallExpr) exprNode()  {}
func (s *SelfCallExpr) Span() Span { return s.NodeSpan }

type MethodCallExpr struct {
	NodeSpan Span
	Receiver Expr
	Method   string
	TypeArgs []TypeExpr
	Args     []Expr
}

func (m *MethodCallExpr) exprNode()  {}
func (m *MethodCallExpr) Span() Span { return m.NodeSpan }

type TupleExpr struct {
	NodeSpan Span
	Elements []Expr
}

func (t *TupleExpr) exprNode()  {}
func (t *TupleExpr) Span() Span { return t.NodeSpan }

// Pattern is any pattern form appearing in a match arm or let binding.
type Pattern interface {
	patternNode()
	Span() Span
}

type WildcardPat struct{ NodeSpan Span }

func (w *WildcardPat) patternNode() {}
func (w *WildcardPat) Span() Span   { return w.NodeSpan }

type VarPat struct {
	NodeSpan Span
	Name     string
}

func (v *VarPat) patternNode() {}
func (v *VarPat) Span() Span   { return v.NodeSpan }

type LitPat struct {
	NodeSpan Span
	Value    interface{} // int64, float64, bool, string, rune
}

func (l *LitPat) patternNode() {}
func (l *LitPat) Span() Span   { return l.NodeSpan }

// ConstructorPat matches an enum variant by name, binding its payload.
type ConstructorPat struct {
	NodeSpan Span
	Enum     string // resolved enum name, filled in once the checker knows it
	Variant  string
	Args     []Pattern
}

func (c *ConstructorPat) patternNode() {}
func (c *ConstructorPat) Span() Span   { return c.NodeSpan }

type TuplePat struct {
	NodeSpan Span
	Elements []Pattern
}

func (t *TuplePat) patternNode() {}
func (t *TuplePat) Span() Span   { return t.NodeSpan }

type StructPat struct {
	NodeSpan Span
	TypeName string
	Fields   map[string]Pattern
}

func (s *StructPat) patternNode() {}
func (s *StructPat) Span() Span   { return s.NodeSpan }
