// Package mangle turns a base name plus a concrete type-argument list
// into the flat identifier grammar the monomorphization tracker and the
// IR emitter both key specializations by (spec §6):
//
//	mangled        := ident ( "$" type_encoding )*
//	type_encoding  := primitive_keyword | name ( "$" type_encoding )*
//
// Primitives encode as their surface-syntax keyword (i64, f64, bool,
// ...); pointers take a p_ prefix, tuples a t_<arity>_ prefix, and
// function types an fn_ prefix. A named aggregate's own type arguments
// recurse through the same "$"-joined grammar, so e.g. Option<i64>
// mangles to Option$i64 and Vec<i64> to Vec$i64 (spec §6 worked
// examples).
//
// Every encoded name is NFC-normalized first (mirroring the teacher's
// lexer-boundary normalization) so that two source identifiers that are
// only Unicode-representation variants of each other mangle identically.
package mangle

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/vais-lang/vais/internal/types"
)

// Identifier normalizes a single source identifier to NFC, matching the
// teacher's lexer-boundary normalization so mangled names are stable
// across encoding variants of the same source text.
func Identifier(name string) string {
	b := []byte(name)
	if !norm.NFC.IsNormal(b) {
		b = norm.NFC.Bytes(b)
	}
	return string(b)
}

// Encode produces the mangled name for baseName specialized at args. An
// empty args list returns baseName unchanged (a non-generic
// declaration never needs a mangled alias).
func Encode(baseName string, args []types.Type) string {
	base := Identifier(baseName)
	if len(args) == 0 {
		return base
	}
	var b strings.Builder
	b.WriteString(base)
	for _, a := range args {
		b.WriteByte('$')
		b.WriteString(encodeType(a))
	}
	return b.String()
}

// encodeType renders one type argument into the mangling grammar's
// type_encoding (spec §6): a primitive's textual keyword, or a name
// followed by its own "$"-joined type arguments, recursively. Pointer,
// tuple, and function types carry the p_, t_<arity>_, and fn_ prefixes
// the grammar reserves for them.
func encodeType(t types.Type) string {
	switch x := t.(type) {
	case *types.Int:
		if x.Unsigned {
			return "u" + strconv.Itoa(x.Width)
		}
		return "i" + strconv.Itoa(x.Width)
	case *types.Float:
		return "f" + strconv.Itoa(x.Width)
	case *types.Bool:
		return "bool"
	case *types.Char:
		return "char"
	case *types.Str:
		return "str"
	case *types.Unit:
		return "unit"
	case *types.Tuple:
		parts := make([]string, len(x.Elements))
		for i, e := range x.Elements {
			parts[i] = encodeType(e)
		}
		return fmt.Sprintf("t_%d_%s", len(x.Elements), strings.Join(parts, "$"))
	case *types.Array:
		return fmt.Sprintf("arr_%d_%s", x.Length, encodeType(x.Element))
	case *types.Pointer:
		return "p_" + encodeType(x.Referent)
	case *types.Named:
		name := Identifier(x.Name)
		if len(x.Args) == 0 {
			return name
		}
		var b strings.Builder
		b.WriteString(name)
		for _, a := range x.Args {
			b.WriteByte('$')
			b.WriteString(encodeType(a))
		}
		return b.String()
	case *types.Func:
		parts := make([]string, len(x.Params))
		for i, p := range x.Params {
			parts[i] = encodeType(p)
		}
		prefix := "fn_"
		if x.Async {
			prefix = "asyncfn_"
		}
		return prefix + strings.Join(parts, "$") + "_ret_" + encodeType(x.Return)
	case *types.TraitRef:
		return "tr_" + Identifier(x.Name)
	case *types.Generic:
		return "g_" + Identifier(x.Name)
	default:
		return "unk"
	}
}
