package mangle

import (
	"testing"

	"github.com/vais-lang/vais/internal/types"
)

func TestEncode(t *testing.T) {
	cases := []struct {
		name     string
		baseName string
		args     []types.Type
		want     string
	}{
		{"no args returns base unchanged", "identity", nil, "identity"},
		{"single int arg", "identity", []types.Type{&types.Int{Width: 64}}, "identity$i64"},
		{"unsigned int", "identity", []types.Type{&types.Int{Width: 32, Unsigned: true}}, "identity$u32"},
		{"two args", "pair", []types.Type{&types.Int{Width: 64}, &types.Bool{}}, "pair$i64$bool"},
		{"tuple arg", "wrap", []types.Type{&types.Tuple{Elements: []types.Type{&types.Int{Width: 64}, &types.Bool{}}}}, "wrap$t_2_i64$bool"},
		{"named generic arg", "box", []types.Type{&types.Named{Name: "Option", Args: []types.Type{&types.Int{Width: 64}}}}, "box$Option$i64"},
		{"pointer arg", "deref", []types.Type{&types.Pointer{Referent: &types.Int{Width: 64}}}, "deref$p_i64"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Encode(c.baseName, c.args); got != c.want {
				t.Errorf("Encode(%q, ...) = %q, want %q", c.baseName, got, c.want)
			}
		})
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	args := []types.Type{&types.Int{Width: 64}, &types.Str{}}
	a := Encode("f", args)
	b := Encode("f", args)
	if a != b {
		t.Errorf("Encode is not deterministic: %q != %q", a, b)
	}
}

func TestIdentifier_NormalizesToNFC(t *testing.T) {
	// "e" (U+0065) followed by a combining acute accent (U+0301) is a
	// distinct byte sequence from its precomposed form (U+00E9), but
	// both denote the same visible identifier and must mangle
	// identically.
	decomposed := "caf" + "é"
	precomposed := "café"
	if decomposed == precomposed {
		t.Fatal("test fixture error: decomposed and precomposed forms must differ before normalization")
	}
	if Identifier(decomposed) != Identifier(precomposed) {
		t.Errorf("Identifier did not normalize decomposed and precomposed forms to the same value: %q vs %q",
			Identifier(decomposed), Identifier(precomposed))
	}
	if got := Identifier(decomposed); got != precomposed {
		t.Errorf("Identifier(%q) = %q, want %q", decomposed, got, precomposed)
	}
}

func TestEncode_MatchesSpecWorkedExamples(t *testing.T) {
	cases := []struct {
		name     string
		baseName string
		args     []types.Type
		want     string
	}{
		{"S1 identity<i64>", "identity", []types.Type{&types.Int{Width: 64}}, "identity$i64"},
		{"S2 Option<i64>", "Option", []types.Type{&types.Int{Width: 64}}, "Option$i64"},
		{"unwrap_or<i64>", "unwrap_or", []types.Type{&types.Int{Width: 64}}, "unwrap_or$i64"},
		{"S6 Vec<i64>", "Vec", []types.Type{&types.Int{Width: 64}}, "Vec$i64"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Encode(c.baseName, c.args); got != c.want {
				t.Errorf("Encode(%q, ...) = %q, want %q", c.baseName, got, c.want)
			}
		})
	}
}

func TestEncode_DistinctGenericArgsProduceDistinctNames(t *testing.T) {
	i64 := Encode("identity", []types.Type{&types.Int{Width: 64}})
	f64 := Encode("identity", []types.Type{&types.Float{Width: types.F64}})
	if i64 == f64 {
		t.Errorf("expected distinct mangled names for distinct type arguments, got %q for both", i64)
	}
}
