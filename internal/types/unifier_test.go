package types

import "testing"

func TestUnify_IdenticalPrimitivesSucceed(t *testing.T) {
	cases := []struct {
		name string
		t1   Type
		t2   Type
	}{
		{"int", &Int{Width: 64}, &Int{Width: 64}},
		{"float", &Float{Width: F64}, &Float{Width: F64}},
		{"bool", &Bool{}, &Bool{}},
		{"str", &Str{}, &Str{}},
		{"unit", &Unit{}, &Unit{}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			u := NewUnifier()
			if err := u.Unify(c.t1, c.t2); err != nil {
				t.Errorf("Unify(%v, %v) = %v, want nil", c.t1, c.t2, err)
			}
		})
	}
}

func TestUnify_MismatchedPrimitivesFail(t *testing.T) {
	cases := []struct {
		name string
		t1   Type
		t2   Type
	}{
		{"different int widths", &Int{Width: 64}, &Int{Width: 32}},
		{"signed vs unsigned", &Int{Width: 64}, &Int{Width: 64, Unsigned: true}},
		{"int vs bool", &Int{Width: 64}, &Bool{}},
		{"bool vs str", &Bool{}, &Str{}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			u := NewUnifier()
			if err := u.Unify(c.t1, c.t2); err == nil {
				t.Errorf("Unify(%v, %v) = nil, want a MismatchError", c.t1, c.t2)
			}
		})
	}
}

func TestUnify_VariableBindsToConcreteType(t *testing.T) {
	supply := NewFreshSupply()
	v := Fresh(supply)
	u := NewUnifier()
	if err := u.Unify(v, &Int{Width: 64}); err != nil {
		t.Fatalf("Unify failed: %v", err)
	}
	if got := u.Apply(v); !got.Equals(&Int{Width: 64}) {
		t.Errorf("Apply(v) = %v, want i64", got)
	}
}

func TestUnify_TwoVariablesBindTransitively(t *testing.T) {
	supply := NewFreshSupply()
	v1 := Fresh(supply)
	v2 := Fresh(supply)
	u := NewUnifier()
	if err := u.Unify(v1, v2); err != nil {
		t.Fatalf("Unify(v1, v2) failed: %v", err)
	}
	if err := u.Unify(v2, &Bool{}); err != nil {
		t.Fatalf("Unify(v2, bool) failed: %v", err)
	}
	if got := u.Apply(v1); !got.Equals(&Bool{}) {
		t.Errorf("Apply(v1) = %v, want bool (transitively through v2)", got)
	}
}

func TestUnify_OccursCheckRejectsInfiniteType(t *testing.T) {
	supply := NewFreshSupply()
	v := Fresh(supply)
	u := NewUnifier()
	self := &Tuple{Elements: []Type{v}}
	err := u.Unify(v, self)
	if err == nil {
		t.Fatal("expected an InfiniteTypeError, got nil")
	}
	if _, ok := err.(*InfiniteTypeError); !ok {
		t.Errorf("expected *InfiniteTypeError, got %T", err)
	}
}

func TestUnify_CompositeTypesUnifyElementwise(t *testing.T) {
	supply := NewFreshSupply()
	v := Fresh(supply)
	u := NewUnifier()
	t1 := &Tuple{Elements: []Type{&Int{Width: 64}, v}}
	t2 := &Tuple{Elements: []Type{&Int{Width: 64}, &Bool{}}}
	if err := u.Unify(t1, t2); err != nil {
		t.Fatalf("Unify failed: %v", err)
	}
	if got := u.Apply(v); !got.Equals(&Bool{}) {
		t.Errorf("Apply(v) = %v, want bool", got)
	}
}

func TestUnify_TupleLengthMismatchFails(t *testing.T) {
	u := NewUnifier()
	t1 := &Tuple{Elements: []Type{&Int{Width: 64}}}
	t2 := &Tuple{Elements: []Type{&Int{Width: 64}, &Bool{}}}
	if err := u.Unify(t1, t2); err == nil {
		t.Error("expected a length mismatch to fail unification")
	}
}

func TestUnify_NamedTypesRequireSameNameAndArgs(t *testing.T) {
	u := NewUnifier()
	a := &Named{Name: "Option", Args: []Type{&Int{Width: 64}}}
	b := &Named{Name: "Result", Args: []Type{&Int{Width: 64}}}
	if err := u.Unify(a, b); err == nil {
		t.Error("expected distinct Named types to fail unification")
	}
}

func TestUnify_FuncTypesUnifyParamsAndReturn(t *testing.T) {
	supply := NewFreshSupply()
	v := Fresh(supply)
	u := NewUnifier()
	f1 := &Func{Params: []Type{&Int{Width: 64}}, Return: v}
	f2 := &Func{Params: []Type{&Int{Width: 64}}, Return: &Bool{}}
	if err := u.Unify(f1, f2); err != nil {
		t.Fatalf("Unify failed: %v", err)
	}
	if got := u.Apply(v); !got.Equals(&Bool{}) {
		t.Errorf("Apply(v) = %v, want bool", got)
	}
}

func TestUnify_AsyncMismatchFails(t *testing.T) {
	u := NewUnifier()
	f1 := &Func{Params: nil, Return: &Unit{}, Async: true}
	f2 := &Func{Params: nil, Return: &Unit{}, Async: false}
	if err := u.Unify(f1, f2); err == nil {
		t.Error("expected an async/non-async Func mismatch to fail unification")
	}
}
