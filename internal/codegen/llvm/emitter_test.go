package llvm

import (
	"strings"
	"testing"

	"github.com/vais-lang/vais/internal/core"
	"github.com/vais-lang/vais/internal/mono"
	"github.com/vais-lang/vais/internal/types"
)

func node(t types.Type) core.Node { return core.Node{Type: t} }

func i64() types.Type { return &types.Int{Width: 64} }

// add(a, b) { a + b } should emit a single define with an add
// instruction and no control-flow blocks.
func TestEmitFunction_SimpleArithmetic(t *testing.T) {
	body := &core.BinOp{
		Node:  node(i64()),
		Op:    "+",
		Left:  &core.Var{Node: node(i64()), Name: "a"},
		Right: &core.Var{Node: node(i64()), Name: "b"},
	}
	fn := &core.FuncDef{Name: "add", Params: []string{"a", "b"}, Body: body}
	prog := &core.Program{Funcs: []*core.FuncDef{fn}}

	e := NewEmitter(types.NewRegistries(), mono.NewTracker())
	out, err := e.Emit(prog)
	if err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	if !strings.Contains(out, "define i64 @add(i64 %arg.a, i64 %arg.b) {") {
		t.Errorf("missing function signature, got:\n%s", out)
	}
	if !strings.Contains(out, "= add i64") {
		t.Errorf("missing add instruction, got:\n%s", out)
	}
	if !strings.Contains(out, "ret i64") {
		t.Errorf("missing ret, got:\n%s", out)
	}
}

// A loop with a single conditional break should emit loop.body/loop.exit
// labels and join the break value at loop.exit through a phi node
// (spec's S5 testable property: `phi i64 [7, %brk1], [9, %brk2]`), not
// a shared result-slot alloca.
func TestEmitFunction_LoopWithBreak(t *testing.T) {
	loopBody := &core.If{
		Node: node(&types.Unit{}),
		Cond: &core.Var{Node: node(&types.Bool{}), Name: "done"},
		Then: &core.Break{Node: node(i64()), Value: &core.Lit{Node: node(i64()), Kind: core.IntLit, Value: int64(1)}},
		Else: &core.Lit{Node: node(&types.Unit{}), Kind: core.UnitLit},
	}
	loop := &core.Loop{Node: node(i64()), Body: loopBody}
	fn := &core.FuncDef{Name: "firstDone", Params: []string{"done"}, Body: loop}
	prog := &core.Program{Funcs: []*core.FuncDef{fn}}

	e := NewEmitter(types.NewRegistries(), mono.NewTracker())
	out, err := e.Emit(prog)
	if err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	for _, want := range []string{"loop.body", "loop.exit", "br label", "= phi i64 ["} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "alloca i64") {
		t.Errorf("loop join should not spill the break value through an alloca result slot, got:\n%s", out)
	}
}

// Two break sites should both appear as incoming edges on the same
// loop-exit phi.
func TestEmitFunction_LoopWithTwoBreaks(t *testing.T) {
	loopBody := &core.If{
		Node: node(i64()),
		Cond: &core.Var{Node: node(&types.Bool{}), Name: "done"},
		Then: &core.Break{Node: node(i64()), Value: &core.Lit{Node: node(i64()), Kind: core.IntLit, Value: int64(7)}},
		Else: &core.If{
			Node: node(i64()),
			Cond: &core.Var{Node: node(&types.Bool{}), Name: "done2"},
			Then: &core.Break{Node: node(i64()), Value: &core.Lit{Node: node(i64()), Kind: core.IntLit, Value: int64(9)}},
			Else: &core.Lit{Node: node(i64()), Kind: core.IntLit, Value: int64(0)},
		},
	}
	loop := &core.Loop{Node: node(i64()), Body: loopBody}
	fn := &core.FuncDef{Name: "firstOf", Params: []string{"done", "done2"}, Body: loop}
	prog := &core.Program{Funcs: []*core.FuncDef{fn}}

	e := NewEmitter(types.NewRegistries(), mono.NewTracker())
	out, err := e.Emit(prog)
	if err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	phiLine := ""
	inExit := false
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "loop.exit") {
			inExit = true
			continue
		}
		if inExit && strings.Contains(line, "= phi i64 [") {
			phiLine = line
			break
		}
	}
	if phiLine == "" {
		t.Fatalf("expected a loop-exit phi instruction, got:\n%s", out)
	}
	if !strings.Contains(phiLine, "[7, %") || !strings.Contains(phiLine, "[9, %") {
		t.Errorf("expected both break values 7 and 9 as phi incoming, got: %s", phiLine)
	}
}

// Specializations recorded in the monomorphization tracker must be
// emitted after all non-generic functions, alphabetized by mangled
// name (spec's emission-ordering requirement).
func TestEmit_OrdersSpecializationsAfterNonGeneric(t *testing.T) {
	identity := &core.FuncDef{
		Name:     "identity",
		Params:   []string{"x"},
		Generics: []string{"T"},
		Body:     &core.Var{Node: node(i64()), Name: "x"},
	}
	plain := &core.FuncDef{
		Name:   "zero",
		Params: nil,
		Body:   &core.Lit{Node: node(i64()), Kind: core.IntLit, Value: int64(0)},
	}
	prog := &core.Program{Funcs: []*core.FuncDef{identity, plain}}

	tracker := mono.NewTracker()
	mangled := tracker.Record("identity", types.KindFunction, []types.Type{i64()})

	e := NewEmitter(types.NewRegistries(), tracker)
	out, err := e.Emit(prog)
	if err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	zeroIdx := strings.Index(out, "@zero(")
	specIdx := strings.Index(out, "@"+sanitizeName(mangled)+"(")
	if zeroIdx == -1 || specIdx == -1 {
		t.Fatalf("expected both @zero and mangled specialization in output:\n%s", out)
	}
	if specIdx < zeroIdx {
		t.Errorf("expected non-generic @zero before specialization %s, got:\n%s", mangled, out)
	}
}

// StructLit should heap-allocate via malloc sized by the null-GEP
// idiom, then GEP+store each field in declaration order.
func TestLowerStructLit(t *testing.T) {
	reg := types.NewRegistries()
	reg.Structs["Point"] = &types.StructInfo{
		Name: "Point",
		Fields: []types.FieldInfo{
			{Name: "x", Type: i64()},
			{Name: "y", Type: i64()},
		},
	}
	pointType := &types.Named{Name: "Point"}
	body := &core.StructLit{
		Node:     node(pointType),
		TypeName: "Point",
		Fields: map[string]core.Expr{
			"x": &core.Lit{Node: node(i64()), Kind: core.IntLit, Value: int64(1)},
			"y": &core.Lit{Node: node(i64()), Kind: core.IntLit, Value: int64(2)},
		},
		Order: []string{"x", "y"},
	}
	fn := &core.FuncDef{Name: "mkPoint", Body: body}
	prog := &core.Program{Funcs: []*core.FuncDef{fn}}

	e := NewEmitter(reg, mono.NewTracker())
	out, err := e.Emit(prog)
	if err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	for _, want := range []string{"call i8* @malloc(i64", "bitcast i8* ", "%struct.Point*", "getelementptr inbounds %struct.Point"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
}

// Index on an array-typed local should GEP off the local's own alloca
// slot (arrays are value types, not pointers, in mapType).
func TestLowerIndex(t *testing.T) {
	arrType := &types.Array{Element: i64(), Length: 4}
	body := &core.Let{
		Node:  node(i64()),
		Name:  "arr",
		Value: &core.Var{Node: node(arrType), Name: "arr0"},
		Body: &core.Index{
			Node:     node(i64()),
			Receiver: &core.Var{Node: node(arrType), Name: "arr"},
			Idx:      &core.Lit{Node: node(i64()), Kind: core.IntLit, Value: int64(0)},
		},
	}
	fn := &core.FuncDef{Name: "first", Params: []string{"arr0"}, Body: body}
	prog := &core.Program{Funcs: []*core.FuncDef{fn}}

	e := NewEmitter(types.NewRegistries(), mono.NewTracker())
	out, err := e.Emit(prog)
	if err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	if !strings.Contains(out, "getelementptr inbounds [4 x i64], [4 x i64]*") {
		t.Errorf("missing array GEP in output:\n%s", out)
	}
}

// Deref loads through a pointer-typed operand; AddrOf returns a bound
// local's existing alloca slot directly.
func TestLowerDerefAndAddrOf(t *testing.T) {
	ptrType := &types.Pointer{Referent: i64()}
	body := &core.Let{
		Node:  node(ptrType),
		Name:  "p",
		Value: &core.AddrOf{Node: node(ptrType), Operand: &core.Var{Node: node(i64()), Name: "x"}},
		Body:  &core.Deref{Node: node(i64()), Operand: &core.Var{Node: node(ptrType), Name: "p"}},
	}
	fn := &core.FuncDef{Name: "roundtrip", Params: []string{"x"}, Body: body}
	prog := &core.Program{Funcs: []*core.FuncDef{fn}}

	e := NewEmitter(types.NewRegistries(), mono.NewTracker())
	out, err := e.Emit(prog)
	if err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	for _, want := range []string{"= load i64, i64*"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
}

// A lambda should lambda-lift to its own top-level function and
// produce a heap {fn, env} closure record at its use site; calling it
// should dispatch through the closure's function-pointer field.
func TestLowerLambdaAndClosureCall(t *testing.T) {
	lambdaBody := &core.BinOp{
		Node:  node(i64()),
		Op:    "+",
		Left:  &core.Var{Node: node(i64()), Name: "y"},
		Right: &core.Var{Node: node(i64()), Name: "n"},
	}
	lambda := &core.Lambda{Node: node(&types.Func{Params: []types.Type{i64()}, Return: i64()}), Params: []string{"y"}, Body: lambdaBody}
	body := &core.Let{
		Node:  node(&types.Func{Params: []types.Type{i64()}, Return: i64()}),
		Name:  "adder",
		Value: lambda,
		Body: &core.App{
			Node: node(i64()),
			Func: &core.Var{Node: node(&types.Func{Params: []types.Type{i64()}, Return: i64()}), Name: "adder"},
			Args: []core.Expr{&core.Lit{Node: node(i64()), Kind: core.IntLit, Value: int64(5)}},
		},
	}
	fn := &core.FuncDef{Name: "makeAdder", Params: []string{"n"}, Body: body}
	prog := &core.Program{Funcs: []*core.FuncDef{fn}}

	e := NewEmitter(types.NewRegistries(), mono.NewTracker())
	out, err := e.Emit(prog)
	if err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	for _, want := range []string{"define i64 @", "call i8* @malloc(i64 16)", "getelementptr inbounds { i8*, i8* }"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
	if strings.Count(out, "define ") < 2 {
		t.Errorf("expected the lifted closure body to be emitted as its own top-level define, got:\n%s", out)
	}
}

// Await has no suspending runtime to model here; it should simply pass
// its operand's value through unchanged.
func TestLowerAwait(t *testing.T) {
	body := &core.Await{Node: node(i64()), Operand: &core.Var{Node: node(i64()), Name: "x"}}
	fn := &core.FuncDef{Name: "force", Params: []string{"x"}, Body: body}
	prog := &core.Program{Funcs: []*core.FuncDef{fn}}

	e := NewEmitter(types.NewRegistries(), mono.NewTracker())
	out, err := e.Emit(prog)
	if err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	if !strings.Contains(out, "ret i64") {
		t.Errorf("expected await to forward its operand to the return, got:\n%s", out)
	}
}

func TestMapType_PrimitivesAndAggregates(t *testing.T) {
	e := NewEmitter(types.NewRegistries(), mono.NewTracker())
	cases := []struct {
		in   types.Type
		want string
	}{
		{&types.Int{Width: 32}, "i32"},
		{&types.Float{Width: types.F64}, "double"},
		{&types.Bool{}, "i1"},
		{&types.Str{}, "i8*"},
		{&types.Unit{}, "void"},
		{&types.Tuple{Elements: []types.Type{&types.Int{Width: 64}, &types.Bool{}}}, "{ i64, i1 }"},
		{&types.Array{Element: &types.Int{Width: 8}, Length: 4}, "[4 x i8]"},
	}
	for _, c := range cases {
		got, err := e.mapType(c.in)
		if err != nil {
			t.Errorf("mapType(%v) failed: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("mapType(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestMapType_UnresolvedGenericIsAnError(t *testing.T) {
	e := NewEmitter(types.NewRegistries(), mono.NewTracker())
	if _, err := e.mapType(&types.Generic{Name: "T"}); err == nil {
		t.Error("expected an error for an unresolved generic reaching the emitter")
	}
}

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"foo":       "foo",
		"Option::T": "Option__T",
		"9bad":      "_9bad",
		"":          "_",
	}
	for in, want := range cases {
		if got := sanitizeName(in); got != want {
			t.Errorf("sanitizeName(%q) = %q, want %q", in, got, want)
		}
	}
}
