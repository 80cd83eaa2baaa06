// Package diag implements the span-tracked diagnostics described by the
// device compiler's error handling design: every pass collects into a
// shared sink and continues where possible, rather than aborting on the
// first problem.
package diag

import (
	"fmt"
	"sort"
	"strings"
)

// Severity distinguishes diagnostics that block IR production from those
// that merely inform.
type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

// Kind is a stable code identifying a diagnostic's root cause. Callers
// that need to react programmatically (editors, tests) should match on
// Kind rather than parsing Message.
type Kind string

const (
	KindSyntax                Kind = "syntax"
	KindSchemaMissingKey      Kind = "schema-missing-key"
	KindSchemaUnknownKey      Kind = "schema-unknown-key"
	KindSchemaWrongKind       Kind = "schema-wrong-kind"
	KindSchemaBadAddressType  Kind = "schema-bad-address-type"
	KindFieldRange            Kind = "field-range"
	KindFieldOverlap          Kind = "field-overlap"
	KindAddressFit            Kind = "address-fit"
	KindAddressOverlap        Kind = "address-overlap"
	KindResetValueSize        Kind = "reset-value-size"
	KindByteOrderRequired     Kind = "byte-order-required"
	KindEnumDuplicateValue    Kind = "enum-duplicate-value"
	KindEnumMultipleDefault   Kind = "enum-multiple-default"
	KindEnumMultipleCatchAll  Kind = "enum-multiple-catch-all"
	KindConversionConflict    Kind = "conversion-conflict"
	KindDuplicateName         Kind = "duplicate-name"
	KindRefTargetMissing      Kind = "ref-target-missing"
	KindRefTargetIsRef        Kind = "ref-target-is-ref"
	KindRefKindMismatch       Kind = "ref-kind-mismatch"
	KindRefOverrideForbidden  Kind = "ref-override-forbidden"
	KindRepeatStrideZero      Kind = "repeat-stride-zero"
	KindMissingDoc            Kind = "missing-doc"
	KindBoolFieldWidth        Kind = "bool-field-width"
	KindAddressTypeMissing    Kind = "address-type-missing"
)

// Span is a byte-offset range into one source text. Length 0 spans are
// valid and point at a single insertion point (e.g. a missing key).
type Span struct {
	File   string
	Offset int
	Length int
}

// Label attaches a short message to a secondary span.
type Label struct {
	Span    Span
	Message string
}

// Diagnostic is one compiler-produced error or warning.
type Diagnostic struct {
	Severity  Severity
	Kind      Kind
	Primary   Span
	Secondary []Label
	Message   string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d: %s: %s [%s]", d.Primary.File, d.Primary.Offset, d.Severity, d.Message, d.Kind)
}

// Sink accumulates diagnostics across passes. A pass succeeds iff it adds
// no Error-severity diagnostic.
type Sink struct {
	diags []Diagnostic
}

func NewSink() *Sink { return &Sink{} }

func (s *Sink) Add(d Diagnostic) { s.diags = append(s.diags, d) }

func (s *Sink) Errorf(primary Span, kind Kind, format string, args ...any) {
	s.Add(Diagnostic{Severity: Error, Kind: kind, Primary: primary, Message: fmt.Sprintf(format, args...)})
}

func (s *Sink) Warnf(primary Span, kind Kind, format string, args ...any) {
	s.Add(Diagnostic{Severity: Warning, Kind: kind, Primary: primary, Message: fmt.Sprintf(format, args...)})
}

// HasErrors reports whether any accumulated diagnostic is an Error. A
// pass (and ultimately the compiler) succeeds iff this returns false.
func (s *Sink) HasErrors() bool {
	for _, d := range s.diags {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// All returns all collected diagnostics in source order (by primary
// span offset, file then offset), matching the "multiple diagnostics are
// emitted in source order" user-visible guarantee from spec.md §7.
func (s *Sink) All() []Diagnostic {
	out := make([]Diagnostic, len(s.diags))
	copy(out, s.diags)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Primary.File != out[j].Primary.File {
			return out[i].Primary.File < out[j].Primary.File
		}
		return out[i].Primary.Offset < out[j].Primary.Offset
	})
	return out
}

// Diagnostics is an aggregate of Diagnostic values that implements error,
// letting callers that only want a go/no-go signal treat a failed
// compilation like any other error return.
type Diagnostics []Diagnostic

func (d Diagnostics) Error() string {
	var b strings.Builder
	for i, diag := range d {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(diag.String())
	}
	return b.String()
}

// Render writes the line-and-column form of one diagnostic against the
// given source text, suitable for mechanical parsing by editors.
func Render(d Diagnostic, source string) string {
	line, col := lineCol(source, d.Primary.Offset)
	return fmt.Sprintf("%s:%d:%d: %s: %s [%s]", d.Primary.File, line, col, d.Severity, d.Message, d.Kind)
}

// RenderSnippet writes the human-readable underlined-snippet form.
func RenderSnippet(d Diagnostic, source string) string {
	line, col := lineCol(source, d.Primary.Offset)
	lineText := lineAt(source, line)

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s [%s]\n", d.Severity, d.Message, d.Kind)
	fmt.Fprintf(&b, "  --> %s:%d:%d\n", d.Primary.File, line, col)
	fmt.Fprintf(&b, "   | %s\n", lineText)
	underline := strings.Repeat(" ", col-1) + strings.Repeat("^", max(1, d.Primary.Length))
	fmt.Fprintf(&b, "   | %s\n", underline)
	for _, label := range d.Secondary {
		sline, scol := lineCol(source, label.Span.Offset)
		fmt.Fprintf(&b, "   note: %s (%d:%d)\n", label.Message, sline, scol)
	}
	return b.String()
}

func lineCol(source string, offset int) (line, col int) {
	line = 1
	col = 1
	for i := 0; i < offset && i < len(source); i++ {
		if source[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return
}

func lineAt(source string, line int) string {
	cur := 1
	start := 0
	for i := 0; i < len(source); i++ {
		if cur == line && start == 0 && (i == 0 || source[i-1] == '\n') {
			start = i
		}
		if source[i] == '\n' {
			if cur == line {
				return source[start:i]
			}
			cur++
		}
	}
	if start <= len(source) {
		return source[start:]
	}
	return ""
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
