// Exhaustiveness checking: spec §4.4. Grounded on the teacher's
// internal/elaborate/exhaustiveness.go constructor-set coverage idiom
// (buildUniverse / subtract over a PatternSet), generalized from the
// teacher's TCon/TList/TTuple algebra to this spec's ResolvedType
// algebra and driven off the compiled internal/dtree.DecisionTree
// rather than a standalone pattern-set walk, since dtree already knows
// which constructors a match actually tests.
package elaborate

import (
	"fmt"
	"sort"

	"github.com/vais-lang/vais/internal/ast"
	"github.com/vais-lang/vais/internal/dtree"
	"github.com/vais-lang/vais/internal/types"
)

// ExhaustivenessChecker walks a compiled decision tree looking for a
// reachable FailNode (non-exhaustive) and for leaves no input can ever
// reach (a useless arm, spec §4.4 "useless match arm").
type ExhaustivenessChecker struct {
	reg *types.Registries
}

// NewExhaustivenessChecker creates a checker over reg (used to resolve
// an enum's full variant set).
func NewExhaustivenessChecker(reg *types.Registries) *ExhaustivenessChecker {
	return &ExhaustivenessChecker{reg: reg}
}

// Result is the outcome of checking one match expression.
type Result struct {
	Exhaustive   bool
	MissingCases []string // human-readable, e.g. "Option::None"
	UselessArms  []int    // arm indices the compiled tree never selects
}

// Check compiles m's arms and determines exhaustiveness and
// usefulness against scrutType (spec §4.4).
func (ec *ExhaustivenessChecker) Check(m *ast.MatchExpr, scrutType types.Type) Result {
	tree := dtree.NewCompiler(m).Compile()

	reached := make(map[int]bool)
	failReachable := collectLeavesAndFail(tree, reached)

	var missing []string
	if failReachable {
		missing = ec.describeMissing(m, scrutType)
		// A FailNode can also be a compiler artifact of a conservative
		// wildcard universe (e.g. unbounded int/string domains); only
		// report it as non-exhaustive when the universe is actually
		// finite and something from it is uncovered.
		if len(missing) == 0 {
			failReachable = false
		}
	}

	var useless []int
	for i := range m.Arms {
		if !reached[i] {
			useless = append(useless, i)
		}
	}

	return Result{Exhaustive: !failReachable, MissingCases: missing, UselessArms: useless}
}

// collectLeavesAndFail marks every arm index a LeafNode in tree selects
// and reports whether any FailNode is reachable.
func collectLeavesAndFail(tree dtree.DecisionTree, reached map[int]bool) bool {
	switch t := tree.(type) {
	case *dtree.LeafNode:
		reached[t.ArmIndex] = true
		return false
	case *dtree.FailNode:
		return true
	case *dtree.SwitchNode:
		anyFail := false
		for _, sub := range t.Cases {
			if collectLeavesAndFail(sub, reached) {
				anyFail = true
			}
		}
		if t.Default != nil && collectLeavesAndFail(t.Default, reached) {
			anyFail = true
		}
		return anyFail
	default:
		return false
	}
}

// describeMissing reports the concrete constructor set a match over
// scrutType must cover but does not, using the arms' top-level patterns
// directly (spec §4.4 "constructor-set coverage analysis").
func (ec *ExhaustivenessChecker) describeMissing(m *ast.MatchExpr, scrutType types.Type) []string {
	covered := make(map[string]bool)
	hasIrrefutable := false
	for _, arm := range m.Arms {
		if arm.Guard != nil {
			continue // a guarded arm cannot be assumed to cover its pattern
		}
		switch p := arm.Pattern.(type) {
		case *ast.WildcardPat, *ast.VarPat:
			hasIrrefutable = true
		case *ast.LitPat:
			if b, ok := p.Value.(bool); ok {
				covered[fmt.Sprintf("%v", b)] = true
			}
		case *ast.ConstructorPat:
			covered[p.Variant] = true
		}
	}
	if hasIrrefutable {
		return nil
	}

	switch t := scrutType.(type) {
	case *types.Bool:
		var missing []string
		for _, b := range []string{"true", "false"} {
			if !covered[b] {
				missing = append(missing, b)
			}
		}
		return missing
	case *types.Named:
		en, ok := ec.reg.Enums[t.Name]
		if !ok {
			return nil // struct scrutinee: a single StructPat arm is always total
		}
		var missing []string
		for _, v := range en.Variants {
			if !covered[v.Name] {
				missing = append(missing, t.Name+"::"+v.Name)
			}
		}
		sort.Strings(missing)
		return missing
	default:
		// Unbounded domain (ints, floats, strings, tuples of these):
		// only a wildcard/var arm can make the match total, and its
		// absence was already detected above.
		return nil
	}
}
