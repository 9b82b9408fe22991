package types

import (
	"fmt"

	"github.com/vais-lang/vais/internal/ast"
)

// DiagnosticKind is the error taxonomy from spec §6/§7.
type DiagnosticKind string

const (
	KindTypeMismatch        DiagnosticKind = "TypeMismatch"
	KindUndefinedName       DiagnosticKind = "UndefinedName"
	KindDuplicateDefinition DiagnosticKind = "DuplicateDefinition"
	KindNonExhaustiveMatch  DiagnosticKind = "NonExhaustiveMatch"
	KindUselessMatchArm     DiagnosticKind = "UselessMatchArm"
	KindAmbiguousType       DiagnosticKind = "AmbiguousType"
	KindUnresolvedTrait     DiagnosticKind = "UnresolvedTraitBound"
	KindCyclicType          DiagnosticKind = "CyclicType"
	KindUnknownField        DiagnosticKind = "UnknownField"
	KindArityMismatch       DiagnosticKind = "ArityMismatch"
	KindInternalError       DiagnosticKind = "InternalError"
)

// SecondaryNote attaches an additional span and note to a Diagnostic,
// e.g. "expected here" vs "obtained here" (spec §7).
type SecondaryNote struct {
	Span ast.Span
	Note string
}

// Diagnostic is one structured, recoverable type error (spec §6).
type Diagnostic struct {
	Kind      DiagnosticKind
	Span      ast.Span
	Message   string
	Secondary []SecondaryNote
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s: %s", d.Span.String(), d.Kind, d.Message)
}

// MismatchError is returned by Unify when two constructors disagree.
type MismatchError struct {
	Expected, Found Type
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("cannot unify %s with %s", e.Expected.String(), e.Found.String())
}

// InfiniteTypeError is returned by Unify when the occurs check rejects
// a binding (spec §4.1, §8: "var = List<var>").
type InfiniteTypeError struct {
	VarID int
	In    Type
}

func (e *InfiniteTypeError) Error() string {
	return fmt.Sprintf("infinite type: ?%d occurs in %s", e.VarID, e.In.String())
}
