// Package config loads the optional target-description file a
// CompilationContext can be constructed from (spec §9 "Mutable
// globals": the registries and target parameters are scoped to one
// compilation invocation rather than held as package globals).
//
// Grounded on funvibe-funxy's internal/ext/config.go LoadConfig/
// ParseConfig shape (read file, yaml.Unmarshal into a plain struct,
// apply defaults for anything left zero), adapted from Funxy's
// Go-dependency manifest to this compiler's target description.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CompilationContext owns every value a compilation invocation needs
// that would otherwise be a package-global: the target triple, the
// default width an un-suffixed integer literal resolves to, the
// pointer width, and the width reserved for an enum's tag field.
// Constructing one fresh per invocation is what keeps the core usable
// as a library (spec §9).
type CompilationContext struct {
	TargetTriple    string
	DefaultIntWidth int
	PointerWidth    int
	EnumTagWidth    int
}

// Default returns the context the emitter assumes when no target file
// is supplied: 64-bit little-endian Linux, matching
// internal/codegen/llvm's hardcoded module header.
func Default() *CompilationContext {
	return &CompilationContext{
		TargetTriple:    "x86_64-unknown-linux-gnu",
		DefaultIntWidth: 64,
		PointerWidth:    64,
		EnumTagWidth:    32,
	}
}

// fileConfig is the on-disk shape; every field is optional, and a zero
// value leaves the corresponding Default() field untouched.
type fileConfig struct {
	TargetTriple    string `yaml:"target_triple"`
	DefaultIntWidth int    `yaml:"default_int_width"`
	PointerWidth    int    `yaml:"pointer_width"`
	EnumTagWidth    int    `yaml:"enum_tag_width"`
}

// Load reads and parses a target-description YAML file, overlaying its
// fields onto Default().
func Load(path string) (*CompilationContext, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading target description %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes target-description YAML content from bytes.
func Parse(data []byte) (*CompilationContext, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parsing target description: %w", err)
	}
	ctx := Default()
	if fc.TargetTriple != "" {
		ctx.TargetTriple = fc.TargetTriple
	}
	if fc.DefaultIntWidth != 0 {
		ctx.DefaultIntWidth = fc.DefaultIntWidth
	}
	if fc.PointerWidth != 0 {
		ctx.PointerWidth = fc.PointerWidth
	}
	if fc.EnumTagWidth != 0 {
		ctx.EnumTagWidth = fc.EnumTagWidth
	}
	return ctx, nil
}
