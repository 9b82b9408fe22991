package mono

import (
	"testing"

	"github.com/vais-lang/vais/internal/types"
)

func TestRecord_DeduplicatesSameBaseKindAndArgs(t *testing.T) {
	tr := NewTracker()
	args := []types.Type{&types.Int{Width: 64}}
	m1 := tr.Record("identity", types.KindFunction, args)
	m2 := tr.Record("identity", types.KindFunction, args)
	if m1 != m2 {
		t.Errorf("expected the same mangled name for repeated recordings, got %q and %q", m1, m2)
	}
	if got := len(tr.All()); got != 1 {
		t.Errorf("expected exactly one recorded instantiation, got %d", got)
	}
}

func TestRecord_DistinctKindsAreNotDeduplicated(t *testing.T) {
	tr := NewTracker()
	args := []types.Type{&types.Int{Width: 64}}
	tr.Record("Box", types.KindStruct, args)
	tr.Record("Box", types.KindMethod, args)
	if got := len(tr.All()); got != 2 {
		t.Errorf("expected a struct instantiation and a method instantiation to be recorded separately, got %d", got)
	}
}

func TestRecord_DistinctArgsAreNotDeduplicated(t *testing.T) {
	tr := NewTracker()
	tr.Record("identity", types.KindFunction, []types.Type{&types.Int{Width: 64}})
	tr.Record("identity", types.KindFunction, []types.Type{&types.Bool{}})
	if got := len(tr.All()); got != 2 {
		t.Errorf("expected two distinct specializations, got %d", got)
	}
}

func TestAll_PreservesDiscoveryOrder(t *testing.T) {
	tr := NewTracker()
	tr.Record("z", types.KindFunction, []types.Type{&types.Int{Width: 64}})
	tr.Record("a", types.KindFunction, []types.Type{&types.Bool{}})
	all := tr.All()
	if len(all) != 2 || all[0].BaseName != "z" || all[1].BaseName != "a" {
		t.Errorf("expected discovery order [z a], got %+v", all)
	}
}

func TestByKind_FiltersToOneKind(t *testing.T) {
	tr := NewTracker()
	tr.Record("f", types.KindFunction, []types.Type{&types.Int{Width: 64}})
	tr.Record("Box", types.KindStruct, []types.Type{&types.Int{Width: 64}})
	tr.Record("g", types.KindFunction, []types.Type{&types.Bool{}})

	funcs := tr.ByKind(types.KindFunction)
	if len(funcs) != 2 {
		t.Fatalf("expected 2 function instantiations, got %d", len(funcs))
	}
	for _, inst := range funcs {
		if inst.Kind != types.KindFunction {
			t.Errorf("ByKind leaked a non-function instantiation: %+v", inst)
		}
	}
}

func TestSortedByMangledName_OrdersAlphabetically(t *testing.T) {
	tr := NewTracker()
	tr.Record("zeta", types.KindFunction, []types.Type{&types.Int{Width: 64}})
	tr.Record("alpha", types.KindFunction, []types.Type{&types.Int{Width: 64}})
	sorted := SortedByMangledName(tr.All())
	if len(sorted) != 2 || sorted[0].MangledName > sorted[1].MangledName {
		t.Errorf("expected alphabetical order, got %+v", sorted)
	}
}

func TestSortedByMangledName_DoesNotMutateInput(t *testing.T) {
	tr := NewTracker()
	tr.Record("zeta", types.KindFunction, []types.Type{&types.Int{Width: 64}})
	tr.Record("alpha", types.KindFunction, []types.Type{&types.Int{Width: 64}})
	all := tr.All()
	originalFirst := all[0].BaseName
	SortedByMangledName(all)
	if all[0].BaseName != originalFirst {
		t.Errorf("SortedByMangledName mutated its input slice")
	}
}
