// Package dtree compiles a list of match arms into a decision tree,
// used by internal/elaborate's exhaustiveness check. internal/codegen/llvm
// does not use it: it lowers a match as a chain of per-arm tests in
// source order. Grounded on the teacher's
// internal/dtree/decision_tree.go matrix-compilation algorithm,
// generalized from the teacher's Core-ANF patterns to the surface
// internal/ast.Pattern forms this spec's checker produces.
package dtree

import (
	"fmt"

	"github.com/vais-lang/vais/internal/ast"
)

// DecisionTree is a compiled match: a sequence of discriminator tests
// that avoids re-testing a scrutinee sub-value more than once (spec
// §4.4 "decision-tree compilation").
type DecisionTree interface {
	isDecisionTree()
	String() string
}

// LeafNode is a successful match: arm ArmIndex's body runs, after its
// optional Guard passes.
type LeafNode struct {
	ArmIndex int
	Guard    ast.Expr
	Body     ast.Expr
}

func (l *LeafNode) isDecisionTree() {}
func (l *LeafNode) String() string  { return fmt.Sprintf("Leaf(arm=%d)", l.ArmIndex) }

// FailNode is reached when no arm's pattern matches: spec §4.4's
// exhaustiveness checker proves this node is unreachable before
// lowering proceeds, for any input the surface grammar can construct.
type FailNode struct{}

func (f *FailNode) isDecisionTree() {}
func (f *FailNode) String() string  { return "Fail" }

// SwitchNode dispatches on the constructor/literal found at Path (a
// sequence of field-index steps from the match scrutinee).
type SwitchNode struct {
	Path    []int
	Cases   map[interface{}]DecisionTree
	Default DecisionTree
}

func (s *SwitchNode) isDecisionTree() {}
func (s *SwitchNode) String() string {
	return fmt.Sprintf("Switch(path=%v, cases=%d, hasDefault=%v)", s.Path, len(s.Cases), s.Default != nil)
}

// Compiler compiles a MatchExpr's arms into a DecisionTree.
type Compiler struct {
	arms []ast.MatchArm
}

// NewCompiler creates a compiler over m's arms.
func NewCompiler(m *ast.MatchExpr) *Compiler {
	return &Compiler{arms: m.Arms}
}

// Compile builds the tree from the top.
func (c *Compiler) Compile() DecisionTree {
	var matrix []matchRow
	for i, arm := range c.arms {
		matrix = append(matrix, matchRow{patterns: []ast.Pattern{arm.Pattern}, armIndex: i, guard: arm.Guard, body: arm.Body})
	}
	return c.compileMatrix(matrix, nil)
}

type matchRow struct {
	patterns []ast.Pattern
	armIndex int
	guard    ast.Expr
	body     ast.Expr
}

func (c *Compiler) compileMatrix(matrix []matchRow, path []int) DecisionTree {
	if len(matrix) == 0 {
		return &FailNode{}
	}
	if isDefaultRow(matrix[0]) || len(matrix[0].patterns) == 0 {
		return &LeafNode{ArmIndex: matrix[0].armIndex, Guard: matrix[0].guard, Body: matrix[0].body}
	}
	return c.buildSwitch(matrix, path, 0)
}

// isDefaultRow reports whether every column of row is an irrefutable
// pattern (wildcard or variable binding).
func isDefaultRow(row matchRow) bool {
	for _, p := range row.patterns {
		switch p.(type) {
		case *ast.WildcardPat, *ast.VarPat:
			continue
		default:
			return false
		}
	}
	return true
}

func (c *Compiler) buildSwitch(matrix []matchRow, path []int, col int) DecisionTree {
	cases := make(map[interface{}][]matchRow)
	var order []interface{}
	var defaultRows []matchRow

	for _, row := range matrix {
		if col >= len(row.patterns) {
			defaultRows = append(defaultRows, row)
			continue
		}
		switch p := row.patterns[col].(type) {
		case *ast.LitPat:
			key := p.Value
			if _, seen := cases[key]; !seen {
				order = append(order, key)
			}
			cases[key] = append(cases[key], row)
		case *ast.ConstructorPat:
			key := p.Variant
			if _, seen := cases[key]; !seen {
				order = append(order, key)
			}
			cases[key] = append(cases[key], row)
		case *ast.TuplePat, *ast.StructPat:
			key := "#"
			if _, seen := cases[key]; !seen {
				order = append(order, key)
			}
			cases[key] = append(cases[key], row)
		default:
			defaultRows = append(defaultRows, row)
		}
	}

	if len(cases) == 0 && len(defaultRows) > 0 {
		return &LeafNode{ArmIndex: defaultRows[0].armIndex, Guard: defaultRows[0].guard, Body: defaultRows[0].body}
	}

	sw := &SwitchNode{Path: appendPath(path, col), Cases: make(map[interface{}]DecisionTree)}
	for _, key := range order {
		specialized := specializeRows(cases[key], col)
		sw.Cases[key] = c.compileMatrix(specialized, appendPath(path, col))
	}
	if len(defaultRows) > 0 {
		specialized := specializeRows(defaultRows, col)
		sw.Default = c.compileMatrix(specialized, appendPath(path, col))
	} else {
		sw.Default = &FailNode{}
	}
	return sw
}

func appendPath(path []int, col int) []int {
	out := make([]int, len(path)+1)
	copy(out, path)
	out[len(path)] = col
	return out
}

// specializeRows removes column col, expanding a constructor/tuple
// pattern's sub-patterns in its place (pattern-matrix specialization).
func specializeRows(rows []matchRow, col int) []matchRow {
	var out []matchRow
	for _, row := range rows {
		var newPatterns []ast.Pattern
		for i, p := range row.patterns {
			if i != col {
				newPatterns = append(newPatterns, p)
				continue
			}
			switch x := p.(type) {
			case *ast.ConstructorPat:
				newPatterns = append(newPatterns, x.Args...)
			case *ast.TuplePat:
				newPatterns = append(newPatterns, x.Elements...)
			case *ast.StructPat:
				for _, sub := range x.Fields {
					newPatterns = append(newPatterns, sub)
				}
			}
			// LitPat/WildcardPat/VarPat contribute no sub-columns.
		}
		out = append(out, matchRow{patterns: newPatterns, armIndex: row.armIndex, guard: row.guard, body: row.body})
	}
	return out
}

// CanCompileToTree reports whether arms contains enough testable
// (literal/constructor) patterns for tree compilation to pay for
// itself, matching the teacher's heuristic.
func CanCompileToTree(arms []ast.MatchArm) bool {
	count := 0
	for _, arm := range arms {
		switch arm.Pattern.(type) {
		case *ast.LitPat, *ast.ConstructorPat:
			count++
		}
	}
	return count >= 2
}
