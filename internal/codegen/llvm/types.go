// Package llvm lowers a core.Program into textual LLVM IR. It is the
// compiler core's third stage (spec §1 Stage C): the Monomorphization
// Tracker's recorded function and method instantiations are the only
// specialized functions this package emits, alongside whatever was never
// generic to begin with. It emits no type definitions for specialized
// generic structs or enums.
//
// Grounded on the retrieval pack's malphas-lang LLVM backend, since the
// teacher (sunholo-data-ailang) targets a tree-walking evaluator and a
// WASM demo, not LLVM: malphas's internal/codegen/llvm/types.go (type
// mapping switch, sanitizeName, mapPrimitiveType) and
// internal/codegen/mir2llvm/generator.go (module header, runtime
// declarations, ordered struct/enum/function emission) are this
// package's direct model, adapted from malphas's own type algebra to
// this spec's types.Type and from malphas's GC/closure/channel runtime
// (outside this spec's scope) to the plain emitted functions §4
// describes.
package llvm

import (
	"fmt"
	"strings"

	"github.com/vais-lang/vais/internal/types"
)

// mapType converts a resolved type to its LLVM IR type text (spec §5
// "IR Emitter Core").
func (e *Emitter) mapType(t types.Type) (string, error) {
	switch v := t.(type) {
	case *types.Int:
		return fmt.Sprintf("i%d", v.Width), nil
	case *types.Float:
		if v.Width == types.F32 {
			return "float", nil
		}
		return "double", nil
	case *types.Bool:
		return "i1", nil
	case *types.Char:
		return "i32", nil
	case *types.Str:
		return "i8*", nil
	case *types.Unit:
		return "void", nil
	case *types.Tuple:
		if len(v.Elements) == 0 {
			return "void", nil
		}
		parts := make([]string, len(v.Elements))
		for i, el := range v.Elements {
			pt, err := e.mapType(el)
			if err != nil {
				return "", err
			}
			parts[i] = pt
		}
		return "{ " + strings.Join(parts, ", ") + " }", nil
	case *types.Array:
		elemType, err := e.mapType(v.Element)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("[%d x %s]", v.Length, elemType), nil
	case *types.Pointer:
		ref, err := e.mapType(v.Referent)
		if err != nil {
			return "", err
		}
		if ref == "void" {
			return "i8*", nil
		}
		return ref + "*", nil
	case *types.Named:
		name := sanitizeName(v.Name)
		if _, isEnum := e.enumTags[v.Name]; isEnum {
			return "%enum." + name + "*", nil
		}
		return "%struct." + name + "*", nil
	case *types.Func:
		params := make([]string, len(v.Params))
		for i, p := range v.Params {
			pt, err := e.mapType(p)
			if err != nil {
				return "", err
			}
			params[i] = pt
		}
		ret, err := e.mapType(v.Return)
		if err != nil {
			return "", err
		}
		return ret + " (" + strings.Join(params, ", ") + ")*", nil
	case *types.Generic, *types.TraitRef:
		// Every surviving generic parameter was resolved to a concrete
		// type before Core lowering (spec's lazy monomorphization); one
		// reaching the emitter means a specialization was looked up
		// under the wrong mangled name.
		return "", fmt.Errorf("unresolved type %s reached the IR emitter", t.String())
	default:
		return "", fmt.Errorf("unsupported type in IR emission: %T", t)
	}
}

// sanitizeName makes name safe to use as an LLVM identifier, matching
// malphas's llvm/types.go sanitizeName convention (alphanumerics and
// underscore/dot survive, everything else becomes an underscore, and a
// leading digit is prefixed).
func sanitizeName(name string) string {
	result := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.':
			result = append(result, r)
		default:
			result = append(result, '_')
		}
	}
	if len(result) == 0 {
		return "_"
	}
	if result[0] >= '0' && result[0] <= '9' {
		return "_" + string(result)
	}
	return string(result)
}
