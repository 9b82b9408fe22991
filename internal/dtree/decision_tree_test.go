package dtree

import (
	"testing"

	"github.com/vais-lang/vais/internal/ast"
)

func boolMatch() *ast.MatchExpr {
	return &ast.MatchExpr{
		Scrutinee: &ast.Ident{Name: "x"},
		Arms: []ast.MatchArm{
			{Pattern: &ast.LitPat{Value: true}, Body: &ast.IntLit{Value: 1}},
			{Pattern: &ast.LitPat{Value: false}, Body: &ast.IntLit{Value: 0}},
		},
	}
}

func TestCompile_SimpleBoolMatch(t *testing.T) {
	tree := NewCompiler(boolMatch()).Compile()

	sw, ok := tree.(*SwitchNode)
	if !ok {
		t.Fatalf("expected SwitchNode, got %T", tree)
	}
	if len(sw.Cases) != 2 {
		t.Errorf("expected 2 cases, got %d", len(sw.Cases))
	}
	if _, ok := sw.Cases[true]; !ok {
		t.Error("missing case for true")
	}
	if _, ok := sw.Cases[false]; !ok {
		t.Error("missing case for false")
	}
}

func TestCompile_WildcardCollapsesToLeaf(t *testing.T) {
	m := &ast.MatchExpr{
		Scrutinee: &ast.Ident{Name: "x"},
		Arms: []ast.MatchArm{
			{Pattern: &ast.WildcardPat{}, Body: &ast.IntLit{Value: 42}},
		},
	}
	tree := NewCompiler(m).Compile()
	leaf, ok := tree.(*LeafNode)
	if !ok {
		t.Fatalf("expected LeafNode, got %T", tree)
	}
	if leaf.ArmIndex != 0 {
		t.Errorf("expected arm 0, got %d", leaf.ArmIndex)
	}
}

func TestCompile_ConstructorPatternsGroupByVariant(t *testing.T) {
	m := &ast.MatchExpr{
		Scrutinee: &ast.Ident{Name: "opt"},
		Arms: []ast.MatchArm{
			{Pattern: &ast.ConstructorPat{Enum: "Option", Variant: "Some", Args: []ast.Pattern{&ast.VarPat{Name: "v"}}}, Body: &ast.Ident{Name: "v"}},
			{Pattern: &ast.ConstructorPat{Enum: "Option", Variant: "None"}, Body: &ast.IntLit{Value: 0}},
		},
	}
	tree := NewCompiler(m).Compile()
	sw, ok := tree.(*SwitchNode)
	if !ok {
		t.Fatalf("expected SwitchNode, got %T", tree)
	}
	if _, ok := sw.Cases["Some"]; !ok {
		t.Error("missing case for Some")
	}
	if _, ok := sw.Cases["None"]; !ok {
		t.Error("missing case for None")
	}
}

func TestCanCompileToTree(t *testing.T) {
	m := boolMatch()
	if !CanCompileToTree(m.Arms) {
		t.Error("expected two literal arms to be worth compiling")
	}
	single := []ast.MatchArm{{Pattern: &ast.WildcardPat{}, Body: &ast.IntLit{Value: 1}}}
	if CanCompileToTree(single) {
		t.Error("expected a single wildcard arm not to be worth compiling")
	}
}
