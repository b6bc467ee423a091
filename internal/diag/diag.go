// Package diag implements the diagnostic contract of spec.md §7: diagnostics
// are values appended to a context, never panics, carrying enough structure
// for both a human-readable and a machine-readable (JSON) rendering.
//
// The shape here is reconstructed from how the teacher's own diagnostics
// package is consumed at every pipeline stage (parser, analyzer, cmd) even
// though that package's source was not part of the retrieved pack: category-
// prefixed error codes, a *DiagnosticError built via NewError(code, span,
// msg), appended to a running []*DiagnosticError rather than returned eagerly.
package diag

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Category classifies a diagnostic per spec.md §7.
type Category string

const (
	Syntax  Category = "SYNTAX"
	Type    Category = "TYPE"
	Scope   Category = "SCOPE"
	Pattern Category = "PATTERN"
	Module  Category = "MODULE"
	Effect  Category = "EFFECT"
	Runtime Category = "RUNTIME"
)

// Severity distinguishes blocking errors from advisory warnings (spec.md
// §4.3's non-exhaustive-match warning, §8 property 9).
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Span identifies a source range for error reporting.
type Span struct {
	File      string `json:"file,omitempty"`
	StartLine int    `json:"startLine"`
	StartCol  int    `json:"startCol"`
	EndLine   int    `json:"endLine"`
	EndCol    int    `json:"endCol"`
}

func (s Span) String() string {
	if s.File == "" {
		return fmt.Sprintf("%d:%d", s.StartLine, s.StartCol)
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.StartLine, s.StartCol)
}

// Confidence tiers a suggested fix (spec.md §7).
type Confidence string

const (
	High   Confidence = "high"
	Medium Confidence = "medium"
	Low    Confidence = "low"
)

// Suggestion is a candidate fix attached to a diagnostic.
type Suggestion struct {
	Description string     `json:"description"`
	Replacement string     `json:"replacement,omitempty"`
	Confidence  Confidence `json:"confidence"`
}

// Related points at another span relevant to understanding the diagnostic
// (e.g. where a shadowed binding was first introduced).
type Related struct {
	Span    Span   `json:"span"`
	Message string `json:"message"`
}

// Error is a single structured diagnostic.
type Error struct {
	Category    Category     `json:"category"`
	Severity    Severity     `json:"severity"`
	Span        Span         `json:"span"`
	Message     string       `json:"message"`
	Suggestions []Suggestion `json:"suggestions,omitempty"`
	Related     []Related    `json:"related,omitempty"`
}

func (e *Error) Error() string { return e.Message }

// New builds an error-severity diagnostic.
func New(cat Category, span Span, msg string, args ...any) *Error {
	return &Error{Category: cat, Severity: SeverityError, Span: span, Message: fmt.Sprintf(msg, args...)}
}

// NewWarning builds a warning-severity diagnostic.
func NewWarning(cat Category, span Span, msg string, args ...any) *Error {
	return &Error{Category: cat, Severity: SeverityWarning, Span: span, Message: fmt.Sprintf(msg, args...)}
}

// WithSuggestion appends a suggestion and returns the same diagnostic, so
// call sites can chain construction: diag.New(...).WithSuggestion(...).
func (e *Error) WithSuggestion(desc, replacement string, conf Confidence) *Error {
	e.Suggestions = append(e.Suggestions, Suggestion{Description: desc, Replacement: replacement, Confidence: conf})
	return e
}

// WithRelated attaches a related span.
func (e *Error) WithRelated(span Span, msg string) *Error {
	e.Related = append(e.Related, Related{Span: span, Message: msg})
	return e
}

// HasErrors reports whether any diagnostic in the list is severity >= error.
func HasErrors(errs []*Error) bool {
	for _, e := range errs {
		if e.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Render formats a diagnostic the human-readable way: ERROR[CATEGORY]: msg,
// a caret under the span, then numbered suggestions.
func Render(e *Error, source string) string {
	var b strings.Builder
	tag := "ERROR"
	if e.Severity == SeverityWarning {
		tag = "WARNING"
	}
	fmt.Fprintf(&b, "%s[%s]: %s\n", tag, e.Category, e.Message)
	fmt.Fprintf(&b, "  --> %s\n", e.Span)

	if line := sourceLine(source, e.Span.StartLine); line != "" {
		fmt.Fprintf(&b, "  %s\n", line)
		fmt.Fprintf(&b, "  %s^\n", strings.Repeat(" ", max(0, e.Span.StartCol-1)))
	}

	for i, s := range e.Suggestions {
		fmt.Fprintf(&b, "  %d. %s", i+1, s.Description)
		if s.Replacement != "" {
			fmt.Fprintf(&b, ": %q", s.Replacement)
		}
		fmt.Fprintf(&b, " (%s confidence)\n", s.Confidence)
	}
	for _, r := range e.Related {
		fmt.Fprintf(&b, "  note: %s: %s\n", r.Span, r.Message)
	}
	return b.String()
}

// RenderJSON renders the machine-readable mirror of Render.
func RenderJSON(errs []*Error) string {
	data, _ := json.MarshalIndent(errs, "", "  ")
	return string(data)
}

func sourceLine(source string, line int) string {
	if line <= 0 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return ""
	}
	return lines[line-1]
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Levenshtein computes edit distance, used for identifier suggestions
// (spec.md §4.3: candidates within edit distance <= 2).
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}
	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[lb]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// SuggestNames returns names from candidates within edit distance <= maxDist
// of target, sorted by distance then name.
func SuggestNames(target string, candidates []string, maxDist int) []string {
	type scored struct {
		name string
		dist int
	}
	var matches []scored
	for _, c := range candidates {
		if c == target {
			continue
		}
		d := Levenshtein(target, c)
		if d <= maxDist {
			matches = append(matches, scored{c, d})
		}
	}
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && (matches[j].dist < matches[j-1].dist ||
			(matches[j].dist == matches[j-1].dist && matches[j].name < matches[j-1].name)); j-- {
			matches[j], matches[j-1] = matches[j-1], matches[j]
		}
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.name
	}
	return out
}
