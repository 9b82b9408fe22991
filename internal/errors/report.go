// Package errors provides the Report/ReportError structured error type
// the rest of the core returns instead of panicking (spec §6 "no core
// component panics on well-formed-but-invalid input").
package errors

import (
	"github.com/vais-lang/vais/internal/ast"
	"github.com/vais-lang/vais/internal/schema"
	"github.com/vais-lang/vais/internal/sid"
)

// Fix is a suggested remediation with a confidence score, carried
// alongside a Report so an embedding tool can offer it without the
// core itself ever acting on it.
type Fix struct {
	Suggestion string  `json:"suggestion"`
	Confidence float64 `json:"confidence"`
}

// Report is the canonical structured error value for the compiler
// core. Every builder in internal/types, internal/elaborate, and
// internal/codegen/llvm that needs to surface a diagnostic beyond its
// own package's Diagnostic type returns one of these.
type Report struct {
	Schema  string         `json:"schema"`
	Sid     string         `json:"sid,omitempty"`
	Code    string         `json:"code"`
	Phase   string         `json:"phase"`
	Message string         `json:"message"`
	Span    *ast.Span      `json:"span,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Fix     *Fix           `json:"fix,omitempty"`
}

// ReportError wraps a Report as an error so it survives errors.As
// unwrapping through ordinary Go error-handling paths.
type ReportError struct {
	Rep *Report
}

func (e *ReportError) Error() string {
	if e.Rep == nil {
		return "unknown error"
	}
	return e.Rep.Code + ": " + e.Rep.Message
}

// AsReport extracts a Report from an error chain.
func AsReport(err error) (*Report, bool) {
	var re *ReportError
	if ok := asReportError(err, &re); ok {
		return re.Rep, true
	}
	return nil, false
}

func asReportError(err error, target **ReportError) bool {
	for err != nil {
		if re, ok := err.(*ReportError); ok {
			*target = re
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// WrapReport wraps r as an error.
func WrapReport(r *Report) error {
	if r == nil {
		return nil
	}
	return &ReportError{Rep: r}
}

// New builds a Report for the given phase/code, deriving Phase from
// the code's registry entry when it is known.
func New(code, message string, span *ast.Span) *Report {
	phase := ""
	if info, ok := GetErrorInfo(code); ok {
		phase = info.Phase
	}
	report := &Report{
		Schema:  schema.ErrorV1,
		Code:    code,
		Phase:   phase,
		Message: message,
		Span:    span,
	}
	if span != nil {
		report.Sid = string(sid.NewSID(span.Start.File, span.Start.Offset, span.End.Offset, code, nil))
	}
	return report
}

// WithFix attaches a suggested fix and returns r for chaining.
func (r *Report) WithFix(suggestion string, confidence float64) *Report {
	r.Fix = &Fix{Suggestion: suggestion, Confidence: confidence}
	return r
}

// WithData attaches structured context and returns r for chaining.
func (r *Report) WithData(data map[string]any) *Report {
	r.Data = data
	return r
}

// ToJSON renders r as deterministic JSON with sorted map keys,
// matching the teacher's schema.MarshalDeterministic convention.
func (r *Report) ToJSON() ([]byte, error) {
	data, err := schema.MarshalDeterministic(r)
	if err != nil {
		return nil, err
	}
	return schema.FormatJSON(data)
}
