package types

import "github.com/vais-lang/vais/internal/ast"

// VarInfo is what the scope stack remembers about one bound identifier
// (spec §3 "Scope stack").
type VarInfo struct {
	Type     Type
	Mutable  bool
	SSAName  string // optional: filled in during IR emission
}

// Scope is one layer of the scope stack: a flat mapping of identifier
// to VarInfo.
type Scope map[string]*VarInfo

// ScopeStack is the ordered sequence of scopes; name lookup searches
// top-to-bottom (spec §3).
type ScopeStack struct {
	frames []Scope
}

// NewScopeStack creates a stack with one (module-level) frame.
func NewScopeStack() *ScopeStack {
	return &ScopeStack{frames: []Scope{make(Scope)}}
}

// Push opens a new scope on entering a block.
func (s *ScopeStack) Push() { s.frames = append(s.frames, make(Scope)) }

// Pop closes the innermost scope on exiting a block.
func (s *ScopeStack) Pop() {
	if len(s.frames) > 0 {
		s.frames = s.frames[:len(s.frames)-1]
	}
}

// Define binds name in the innermost scope, permitting shadowing of any
// binding in an outer scope.
func (s *ScopeStack) Define(name string, info *VarInfo) {
	s.frames[len(s.frames)-1][name] = info
}

// Lookup searches top-to-bottom for name.
func (s *ScopeStack) Lookup(name string) (*VarInfo, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if info, ok := s.frames[i][name]; ok {
			return info, true
		}
	}
	return nil, false
}

// StructInfo is a registered struct declaration (spec §3).
type StructInfo struct {
	Name     string
	Fields   []FieldInfo
	Generics []string
	Methods  map[string]*FuncInfo
}

// FieldInfo is one struct field, in declaration order.
type FieldInfo struct {
	Name string
	Type Type
}

// EnumInfo is a registered enum declaration.
type EnumInfo struct {
	Name     string
	Variants []VariantInfo
	Generics []string
}

// VariantInfo is one enum variant, in declaration order (tag = index).
type VariantInfo struct {
	Name    string
	Payload []Type
}

// TraitInfo is a registered trait declaration.
type TraitInfo struct {
	Name            string
	Methods         map[string]*FuncInfo
	AssociatedTypes []string
	SuperTraits     []string
}

// ImplInfo is one trait-impl (or inherent-impl, when Trait == "") record.
type ImplInfo struct {
	ForType   Type // may contain Generic leaves for a generic impl
	Trait     string
	AssocBind map[string]Type
	Generics  []string
	Methods   map[string]*FuncInfo
}

// FuncInfo is a registered function (or method) signature plus body.
type FuncInfo struct {
	Name       string
	Params     []ParamInfo
	Return     Type
	Generics   []string
	Async      bool
	Body       *ast.Block // nil for trait method signatures with no default body
	SelfType   Type        // non-nil for methods: the (possibly generic) receiver type
}

// ParamInfo is one resolved function parameter.
type ParamInfo struct {
	Name    string
	Type    Type
	Mutable bool
}

// Registries holds the module-global declaration tables filled during
// the prescan sweep (spec §3, §4.2). One Registries value has the
// lifetime of exactly one compilation.
type Registries struct {
	Structs   map[string]*StructInfo
	Enums     map[string]*EnumInfo
	Traits    map[string]*TraitInfo
	Impls     []*ImplInfo
	Functions map[string]*FuncInfo
}

// NewRegistries creates empty registries.
func NewRegistries() *Registries {
	return &Registries{
		Structs:   make(map[string]*StructInfo),
		Enums:     make(map[string]*EnumInfo),
		Traits:    make(map[string]*TraitInfo),
		Functions: make(map[string]*FuncInfo),
	}
}

// LookupAggregate returns the struct or enum with the given name and a
// tag telling which registry it came from ("struct" or "enum").
func (r *Registries) LookupAggregate(name string) (kind string, ok bool) {
	if _, ok := r.Structs[name]; ok {
		return "struct", true
	}
	if _, ok := r.Enums[name]; ok {
		return "enum", true
	}
	return "", false
}
