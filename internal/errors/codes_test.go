package errors

import "testing"

func TestErrorCodeTaxonomy(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		phase    string
		category string
	}{
		{"TC001", TC001, "typecheck", "type"},
		{"TC007", TC007, "typecheck", "mutability"},
		{"UNI002", UNI002, "unify", "occurs"},
		{"TRT001", TRT001, "traits", "resolution"},
		{"EXH001", EXH001, "exhaustiveness", "coverage"},
		{"MONO001", MONO001, "monomorphize", "instantiation"},
		{"IR002", IR002, "codegen", "call"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, exists := GetErrorInfo(tt.code)
			if !exists {
				t.Fatalf("error code %s not found in registry", tt.code)
			}
			if info.Code != tt.code {
				t.Errorf("code mismatch: got %s, want %s", info.Code, tt.code)
			}
			if info.Phase != tt.phase {
				t.Errorf("phase mismatch for %s: got %s, want %s", tt.code, info.Phase, tt.phase)
			}
			if info.Category != tt.category {
				t.Errorf("category mismatch for %s: got %s, want %s", tt.code, info.Category, tt.category)
			}
		})
	}
}

func TestErrorTypeCheckers(t *testing.T) {
	if !IsTypeError(TC001) {
		t.Error("expected TC001 to be a type error")
	}
	if IsTypeError(IR001) {
		t.Error("expected IR001 not to be a type error")
	}
	if !IsEmitterError(IR002) {
		t.Error("expected IR002 to be an emitter error")
	}
	if IsEmitterError(TC001) {
		t.Error("expected TC001 not to be an emitter error")
	}
}

func TestErrorInfoConsistency(t *testing.T) {
	validPhases := map[string]bool{
		"typecheck": true, "unify": true, "traits": true,
		"exhaustiveness": true, "monomorphize": true, "codegen": true,
	}
	for code, info := range ErrorRegistry {
		if info.Code != code {
			t.Errorf("code mismatch in registry: key=%s, info.Code=%s", code, info.Code)
		}
		if len(code) < 5 || len(code) > 7 {
			t.Errorf("invalid code format: %s", code)
		}
		if !validPhases[info.Phase] {
			t.Errorf("invalid phase for %s: %s", code, info.Phase)
		}
		if info.Description == "" {
			t.Errorf("empty description for %s", code)
		}
	}
}
