// Package mono implements the lazy monomorphization tracker (spec §4.5,
// §6): the compile-time record of every concrete generic instantiation
// discovered while type-checking, each deduplicated structurally and
// named through internal/mangle.
//
// Grounded on the fixed-point discovery loop in
// other_examples' malphas-lang internal/mir/monomorphize.go, adapted
// from a post-hoc MIR rewrite pass into a sink the type checker pushes
// instantiations into as they're discovered. The IR emitter only reads
// the tracker and records nothing itself, so a specialization that is
// first reached during emission is not emitted.
package mono

import (
	"sort"

	"github.com/vais-lang/vais/internal/mangle"
	"github.com/vais-lang/vais/internal/types"
)

// Instantiation is one recorded (base name, concrete type arguments,
// kind) triple (spec §3 "GenericInstantiation").
type Instantiation struct {
	BaseName     string
	Kind         types.InstantiationKind
	Args         []types.Type
	MangledName  string
}

// Tracker implements types.InstantiationSink. One Tracker has the
// lifetime of exactly one compilation.
type Tracker struct {
	byKey map[string]*Instantiation
	order []string // insertion order, for deterministic IR emission
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{byKey: make(map[string]*Instantiation)}
}

// Record implements types.InstantiationSink. Instantiations are
// deduplicated structurally: recording the same (baseName, kind, args)
// triple twice returns the same mangled name both times without
// creating a second entry (spec §4.5 "deduplicated structurally").
func (t *Tracker) Record(baseName string, kind types.InstantiationKind, args []types.Type) string {
	mangled := mangle.Encode(baseName, args)
	key := string(kind) + "#" + mangled
	if existing, ok := t.byKey[key]; ok {
		return existing.MangledName
	}
	inst := &Instantiation{BaseName: baseName, Kind: kind, Args: args, MangledName: mangled}
	t.byKey[key] = inst
	t.order = append(t.order, key)
	return mangled
}

// All returns every recorded instantiation in discovery order. Record
// itself accepts an empty Args list; the type checker only records
// declarations that have generic parameters.
func (t *Tracker) All() []*Instantiation {
	out := make([]*Instantiation, len(t.order))
	for i, k := range t.order {
		out[i] = t.byKey[k]
	}
	return out
}

// ByKind filters All to one InstantiationKind, in discovery order.
func (t *Tracker) ByKind(kind types.InstantiationKind) []*Instantiation {
	var out []*Instantiation
	for _, k := range t.order {
		if inst := t.byKey[k]; inst.Kind == kind {
			out = append(out, inst)
		}
	}
	return out
}

// SortedByMangledName returns a copy of insts sorted alphabetically by
// mangled name. The IR emitter orders specialized declarations this way
// after the non-generic group, which it sorts by plain name (spec §4.6 "ordered
// emission": "non-generic then specialized, alphabetized").
func SortedByMangledName(insts []*Instantiation) []*Instantiation {
	out := make([]*Instantiation, len(insts))
	copy(out, insts)
	sort.Slice(out, func(i, j int) bool { return out[i].MangledName < out[j].MangledName })
	return out
}
