package config

import "testing"

func TestDefault(t *testing.T) {
	ctx := Default()
	if ctx.TargetTriple != "x86_64-unknown-linux-gnu" {
		t.Errorf("unexpected default triple %q", ctx.TargetTriple)
	}
	if ctx.DefaultIntWidth != 64 || ctx.PointerWidth != 64 || ctx.EnumTagWidth != 32 {
		t.Errorf("unexpected default widths: %+v", ctx)
	}
}

func TestParse_OverlaysProvidedFieldsOnly(t *testing.T) {
	ctx, err := Parse([]byte("target_triple: aarch64-unknown-linux-gnu\ndefault_int_width: 32\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if ctx.TargetTriple != "aarch64-unknown-linux-gnu" {
		t.Errorf("expected overridden triple, got %q", ctx.TargetTriple)
	}
	if ctx.DefaultIntWidth != 32 {
		t.Errorf("expected overridden int width 32, got %d", ctx.DefaultIntWidth)
	}
	if ctx.PointerWidth != 64 {
		t.Errorf("expected default pointer width preserved, got %d", ctx.PointerWidth)
	}
}

func TestParse_InvalidYAMLFails(t *testing.T) {
	if _, err := Parse([]byte("target_triple: [unterminated")); err == nil {
		t.Error("expected an error for malformed YAML")
	}
}

func TestLoad_MissingFileFails(t *testing.T) {
	if _, err := Load("/nonexistent/target.yaml"); err == nil {
		t.Error("expected an error for a missing file")
	}
}
