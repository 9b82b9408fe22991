package elaborate

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/vais-lang/vais/internal/ast"
	"github.com/vais-lang/vais/internal/core"
	"github.com/vais-lang/vais/internal/types"
)

// ignoreNodeMeta drops the per-node bookkeeping (id, source span,
// resolved type) that a structural comparison of lowered Core shape
// shouldn't care about.
var ignoreNodeMeta = cmpopts.IgnoreFields(core.Node{}, "NodeID", "OrigSpan", "Type")

func annotated(m *ast.Module) *types.AnnotatedModule {
	tc := types.NewTypeChecker(nil)
	annotated, diags := tc.CheckModule(m)
	if len(diags) != 0 {
		panic(diags[0].Error())
	}
	return annotated
}

func TestElaborate_SimpleFunctionLowersToANF(t *testing.T) {
	// fn add(a: i64, b: i64) -> i64 { a + b }
	fn := &ast.FuncDecl{
		Name:       "add",
		Params:     []ast.Param{{Name: "a", Type: &ast.NamedTypeExpr{Name: "i64"}}, {Name: "b", Type: &ast.NamedTypeExpr{Name: "i64"}}},
		ReturnType: &ast.NamedTypeExpr{Name: "i64"},
		Body: &ast.Block{
			Trailing: &ast.BinaryExpr{Op: "+", Left: &ast.Ident{Name: "a"}, Right: &ast.Ident{Name: "b"}},
		},
	}
	mod := &ast.Module{Name: "m", Items: []ast.Item{fn}}
	am := annotated(mod)

	e := NewElaborator(am, nil)
	prog := e.Elaborate()
	if len(prog.Funcs) != 1 {
		t.Fatalf("expected 1 lowered func, got %d", len(prog.Funcs))
	}
	got := prog.Funcs[0]
	if got.Name != "add" || len(got.Params) != 2 {
		t.Fatalf("unexpected lowered signature: %+v", got)
	}
	bin, ok := got.Body.(*core.BinOp)
	if !ok {
		t.Fatalf("expected a BinOp body, got %T", got.Body)
	}
	if bin.Op != "+" {
		t.Errorf("expected + operator, got %q", bin.Op)
	}
}

func TestElaborate_SimpleFunctionParamsAndOperandsMatchShape(t *testing.T) {
	fn := &ast.FuncDecl{
		Name:       "add",
		Params:     []ast.Param{{Name: "a", Type: &ast.NamedTypeExpr{Name: "i64"}}, {Name: "b", Type: &ast.NamedTypeExpr{Name: "i64"}}},
		ReturnType: &ast.NamedTypeExpr{Name: "i64"},
		Body: &ast.Block{
			Trailing: &ast.BinaryExpr{Op: "+", Left: &ast.Ident{Name: "a"}, Right: &ast.Ident{Name: "b"}},
		},
	}
	mod := &ast.Module{Name: "m", Items: []ast.Item{fn}}
	prog := NewElaborator(annotated(mod), nil).Elaborate()
	got := prog.Funcs[0]

	if diff := cmp.Diff([]string{"a", "b"}, got.Params); diff != "" {
		t.Errorf("lowered params mismatch (-want +got):\n%s", diff)
	}

	bin := got.Body.(*core.BinOp)
	wantBin := &core.BinOp{Op: "+", Left: &core.Var{Name: "a"}, Right: &core.Var{Name: "b"}}
	if diff := cmp.Diff(wantBin, bin, ignoreNodeMeta); diff != "" {
		t.Errorf("lowered BinOp shape mismatch (-want +got):\n%s", diff)
	}
}

func TestElaborate_LetStmtLowersToCoreLet(t *testing.T) {
	// fn f() -> i64 { let x = 1; x }
	fn := &ast.FuncDecl{
		Name:       "f",
		ReturnType: &ast.NamedTypeExpr{Name: "i64"},
		Body: &ast.Block{
			Stmts:    []ast.Stmt{&ast.LetStmt{Name: "x", Value: &ast.IntLit{Value: 1}}},
			Trailing: &ast.Ident{Name: "x"},
		},
	}
	mod := &ast.Module{Name: "m", Items: []ast.Item{fn}}
	am := annotated(mod)

	prog := NewElaborator(am, nil).Elaborate()
	let, ok := prog.Funcs[0].Body.(*core.Let)
	if !ok {
		t.Fatalf("expected a Let body, got %T", prog.Funcs[0].Body)
	}
	if let.Name != "x" {
		t.Errorf("expected let-bound name x, got %q", let.Name)
	}
	if _, ok := let.Body.(*core.Var); !ok {
		t.Errorf("expected trailing Var, got %T", let.Body)
	}
}

func TestElaborate_NonExhaustiveMatchIsReported(t *testing.T) {
	// fn f(b: bool) -> i64 { match b { true => 1 } }
	fn := &ast.FuncDecl{
		Name:       "f",
		Params:     []ast.Param{{Name: "b", Type: &ast.NamedTypeExpr{Name: "bool"}}},
		ReturnType: &ast.NamedTypeExpr{Name: "i64"},
		Body: &ast.Block{
			Trailing: &ast.MatchExpr{
				Scrutinee: &ast.Ident{Name: "b"},
				Arms: []ast.MatchArm{
					{Pattern: &ast.LitPat{Value: true}, Body: &ast.IntLit{Value: 1}},
				},
			},
		},
	}
	mod := &ast.Module{Name: "m", Items: []ast.Item{fn}}
	am := annotated(mod)

	e := NewElaborator(am, nil)
	e.Elaborate()
	found := false
	for _, d := range e.Diagnostics {
		if d.Kind == types.KindNonExhaustiveMatch {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a non-exhaustive match diagnostic, got %v", e.Diagnostics)
	}
}
