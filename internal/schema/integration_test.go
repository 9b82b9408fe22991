package schema_test

import (
	"encoding/json"
	"testing"

	"github.com/vais-lang/vais/internal/ast"
	"github.com/vais-lang/vais/internal/errors"
	"github.com/vais-lang/vais/internal/schema"
)

// TestErrorSchemaIntegration verifies error JSON schemas work end-to-end
func TestErrorSchemaIntegration(t *testing.T) {
	// Create an error through the errors package
	span := &ast.Span{Start: ast.Pos{File: "main.vais", Offset: 0}, End: ast.Pos{File: "main.vais", Offset: 5}}
	report := errors.New(errors.TC001, "type mismatch", span).
		WithFix("check the operand types", 0.5)

	// Convert to JSON
	jsonData, jsonErr := report.ToJSON()
	if jsonErr != nil {
		t.Fatalf("Failed to convert error to JSON: %v", jsonErr)
	}

	// Parse the JSON
	var parsed map[string]interface{}
	if err := json.Unmarshal(jsonData, &parsed); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}

	// Verify schema field exists and is correct
	schemaField, ok := parsed["schema"].(string)
	if !ok {
		t.Fatal("Missing or invalid schema field")
	}

	if !schema.Accepts(schemaField, schema.ErrorV1) {
		t.Errorf("Schema %q not accepted by %q", schemaField, schema.ErrorV1)
	}

	// Verify all required fields are present
	requiredFields := []string{"schema", "sid", "phase", "code", "message", "fix"}
	for _, field := range requiredFields {
		if _, ok := parsed[field]; !ok {
			t.Errorf("Missing required field: %s", field)
		}
	}
}

// TestCompactModeIntegration verifies compact mode works with real data,
// using an error report (the schema package's other ToJSON producer)
// now that the ad hoc test-report harness is gone.
func TestCompactModeIntegration(t *testing.T) {
	span := &ast.Span{Start: ast.Pos{File: "main.vais", Offset: 0}, End: ast.Pos{File: "main.vais", Offset: 5}}
	report := errors.New(errors.TC001, "type mismatch", span).WithFix("check the operand types", 0.5)

	schema.SetCompactMode(false)
	prettyJSON, err := report.ToJSON()
	if err != nil {
		t.Fatalf("Failed to generate pretty JSON: %v", err)
	}

	schema.SetCompactMode(true)
	compactJSON, err := report.ToJSON()
	if err != nil {
		t.Fatalf("Failed to generate compact JSON: %v", err)
	}

	prettyStr := string(prettyJSON)
	compactStr := string(compactJSON)
	if len(prettyStr) <= len(compactStr) {
		t.Error("Pretty JSON should be longer than compact JSON")
	}

	var prettyParsed, compactParsed interface{}
	if err := json.Unmarshal(prettyJSON, &prettyParsed); err != nil {
		t.Fatalf("Failed to parse pretty JSON: %v", err)
	}
	if err := json.Unmarshal(compactJSON, &compactParsed); err != nil {
		t.Fatalf("Failed to parse compact JSON: %v", err)
	}

	schema.SetCompactMode(false)
}

// TestDeterministicOutput verifies JSON output is deterministic across
// repeated marshals of the same error report.
func TestDeterministicOutput(t *testing.T) {
	span := &ast.Span{Start: ast.Pos{File: "main.vais", Offset: 0}, End: ast.Pos{File: "main.vais", Offset: 5}}
	outputs := make([]string, 3)
	for i := range outputs {
		report := errors.New(errors.TC001, "type mismatch", span).WithFix("check the operand types", 0.5)
		jsonData, err := report.ToJSON()
		if err != nil {
			t.Fatalf("Failed to generate JSON (iteration %d): %v", i, err)
		}
		outputs[i] = string(jsonData)
	}
	for i := 1; i < len(outputs); i++ {
		if outputs[i] != outputs[0] {
			t.Errorf("Output %d differs from output 0:\nOutput 0:\n%s\nOutput %d:\n%s",
				i, outputs[0], i, outputs[i])
		}
	}
}