package errors

import (
	"encoding/json"
	"testing"

	"github.com/vais-lang/vais/internal/ast"
	"github.com/vais-lang/vais/internal/schema"
)

func TestNewDerivesPhaseFromCode(t *testing.T) {
	r := New(TC001, "int does not unify with bool", nil)
	if r.Phase != "typecheck" {
		t.Errorf("expected phase typecheck, got %s", r.Phase)
	}
	if r.Schema != schema.ErrorV1 {
		t.Errorf("expected schema %s, got %s", schema.ErrorV1, r.Schema)
	}
}

func TestWithFixAndData(t *testing.T) {
	r := New(EXH001, "missing Option::None", nil).
		WithFix("add a None arm", 0.9).
		WithData(map[string]any{"missing": []string{"Option::None"}})
	if r.Fix == nil || r.Fix.Suggestion != "add a None arm" {
		t.Fatalf("expected fix to be set, got %+v", r.Fix)
	}
	if r.Data["missing"] == nil {
		t.Error("expected data to be set")
	}
}

func TestNewPopulatesSidFromSpan(t *testing.T) {
	span := &ast.Span{Start: ast.Pos{File: "main.vais", Offset: 10}, End: ast.Pos{File: "main.vais", Offset: 20}}
	r1 := New(TC001, "int does not unify with bool", span)
	if r1.Sid == "" {
		t.Fatal("expected a non-empty sid when a span is given")
	}
	r2 := New(TC001, "int does not unify with bool", span)
	if r1.Sid != r2.Sid {
		t.Errorf("expected the same span to produce a stable sid, got %q and %q", r1.Sid, r2.Sid)
	}
	if New(TC001, "unrelated", nil).Sid != "" {
		t.Error("expected no sid when no span is given")
	}
}

func TestReportErrorRoundTrip(t *testing.T) {
	r := New(TRT001, "no impl of Show for Point", nil)
	err := WrapReport(r)
	got, ok := AsReport(err)
	if !ok || got != r {
		t.Fatalf("expected AsReport to recover the original report")
	}
}

func TestToJSONIsDeterministic(t *testing.T) {
	r := New(MONO001, "unresolved type argument", nil).WithData(map[string]any{"b": 1, "a": 2})
	data, err := r.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}
	var parsed map[string]interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	if parsed["code"] != MONO001 {
		t.Errorf("expected code %s, got %v", MONO001, parsed["code"])
	}
}
