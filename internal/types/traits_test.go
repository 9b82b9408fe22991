package types

import "testing"

func TestResolve_SingleMatchingImplSelects(t *testing.T) {
	reg := NewRegistries()
	reg.Impls = []*ImplInfo{
		{ForType: &Int{Width: 64}, Trait: "Show", Methods: map[string]*FuncInfo{}},
	}
	r := NewTraitResolver(reg)
	impl, err := r.Resolve("Show", &Int{Width: 64})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if impl.Trait != "Show" {
		t.Errorf("resolved impl has trait %q, want Show", impl.Trait)
	}
}

func TestResolve_NoMatchReturnsNoImplError(t *testing.T) {
	reg := NewRegistries()
	r := NewTraitResolver(reg)
	_, err := r.Resolve("Show", &Int{Width: 64})
	if err == nil {
		t.Fatal("expected a NoImplError, got nil")
	}
	if _, ok := err.(*NoImplError); !ok {
		t.Errorf("expected *NoImplError, got %T", err)
	}
}

func TestResolve_MultipleMatchesReturnAmbiguousImplError(t *testing.T) {
	reg := NewRegistries()
	reg.Impls = []*ImplInfo{
		{ForType: &Int{Width: 64}, Trait: "Show"},
		{ForType: &Int{Width: 64}, Trait: "Show"},
	}
	r := NewTraitResolver(reg)
	_, err := r.Resolve("Show", &Int{Width: 64})
	if err == nil {
		t.Fatal("expected an AmbiguousImplError, got nil")
	}
	if _, ok := err.(*AmbiguousImplError); !ok {
		t.Errorf("expected *AmbiguousImplError, got %T", err)
	}
}

func TestResolve_DistinguishesByForType(t *testing.T) {
	reg := NewRegistries()
	reg.Impls = []*ImplInfo{
		{ForType: &Int{Width: 64}, Trait: "Show"},
		{ForType: &Bool{}, Trait: "Show"},
	}
	r := NewTraitResolver(reg)
	impl, err := r.Resolve("Show", &Bool{})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !impl.ForType.Equals(&Bool{}) {
		t.Errorf("resolved impl for bool has ForType %v", impl.ForType)
	}
}

func TestResolve_SuperTraitMustAlsoResolve(t *testing.T) {
	reg := NewRegistries()
	reg.Traits["Eq"] = &TraitInfo{Name: "Eq"}
	reg.Traits["Ord"] = &TraitInfo{Name: "Ord", SuperTraits: []string{"Eq"}}
	reg.Impls = []*ImplInfo{
		{ForType: &Int{Width: 64}, Trait: "Ord"},
		// no Eq impl for i64: resolving Ord must fail since its super-trait
		// obligation is unmet.
	}
	r := NewTraitResolver(reg)
	if _, err := r.Resolve("Ord", &Int{Width: 64}); err == nil {
		t.Error("expected Resolve(Ord) to fail when the Eq super-trait has no impl")
	}
}

func TestResolveMethod_ReturnsImplsMethod(t *testing.T) {
	reg := NewRegistries()
	showFn := &FuncInfo{Name: "show", Return: &Str{}}
	reg.Impls = []*ImplInfo{
		{ForType: &Int{Width: 64}, Trait: "Show", Methods: map[string]*FuncInfo{"show": showFn}},
	}
	r := NewTraitResolver(reg)
	fn, err := r.ResolveMethod("Show", "show", &Int{Width: 64})
	if err != nil {
		t.Fatalf("ResolveMethod failed: %v", err)
	}
	if fn != showFn {
		t.Errorf("ResolveMethod returned a different FuncInfo than the impl's")
	}
}

func TestResolveMethod_SubstitutesAssociatedTypes(t *testing.T) {
	reg := NewRegistries()
	iterFn := &FuncInfo{Name: "next", Return: &Generic{Name: "Item"}}
	reg.Impls = []*ImplInfo{
		{
			ForType:   &Named{Name: "Range"},
			Trait:     "Iterator",
			Methods:   map[string]*FuncInfo{"next": iterFn},
			AssocBind: map[string]Type{"Item": &Int{Width: 64}},
		},
	}
	r := NewTraitResolver(reg)
	fn, err := r.ResolveMethod("Iterator", "next", &Named{Name: "Range"})
	if err != nil {
		t.Fatalf("ResolveMethod failed: %v", err)
	}
	if !fn.Return.Equals(&Int{Width: 64}) {
		t.Errorf("expected the associated type Item to substitute to i64, got %v", fn.Return)
	}
}
