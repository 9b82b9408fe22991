// Package diagutil renders a Report as colorized, human-readable text
// for test output and embedding tools. It is never on the core's own
// execution path (spec §10): nothing in internal/types, internal/elaborate,
// or internal/codegen/llvm imports it.
//
// Grounded on the teacher's internal/repl/repl.go color-variable
// convention (package-level color.New(...).SprintFunc() values named
// after the color they apply), adapted from the REPL's interactive
// banner/error lines to one-shot diagnostic rendering.
package diagutil

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/vais-lang/vais/internal/errors"
)

var (
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
)

// Severity classifies a Report for rendering purposes. The core itself
// has no notion of severity beyond "reported" — every internal/types
// Diagnostic this package renders is treated as an error unless its
// code is EXH002 (the useless-arm code), which renders as a warning.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityNote
)

func severityOf(code string) Severity {
	if code == errors.EXH002 {
		return SeverityWarning
	}
	return SeverityError
}

// Render writes a colorized rendering of r to w: one line with severity
// label, code, span if present, and message, followed by an indented
// "fix:" line when r carries a fix suggestion.
func Render(w io.Writer, r *errors.Report) {
	label := red("error")
	switch severityOf(r.Code) {
	case SeverityWarning:
		label = yellow("warning")
	case SeverityNote:
		label = cyan("note")
	}

	where := ""
	if r.Span != nil {
		where = dim(fmt.Sprintf(" at %s", r.Span.Start.String()))
	}

	fmt.Fprintf(w, "%s[%s]%s: %s\n", label, bold(r.Code), where, r.Message)
	if r.Fix != nil {
		fmt.Fprintf(w, "  %s %s\n", dim("fix:"), r.Fix.Suggestion)
	}
}

// RenderAll renders every report in order, separated by newlines.
func RenderAll(w io.Writer, reports []*errors.Report) {
	for _, r := range reports {
		Render(w, r)
	}
}
