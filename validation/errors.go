package validation

import (
	"fmt"
	"strings"
)

// Error codes, one per verdict category.
const (
	CodeStructuralMismatch   = "structural_mismatch"
	CodeRangeViolation       = "range_violation"
	CodeCardinalityViolation = "cardinality_violation"
	CodeMandatoryViolation   = "mandatory_violation"
	CodePatternViolation     = "pattern_violation"
	CodeUnknownField         = "unknown_field"
	CodeMissingField         = "missing_field"
)

// Error is a single field-addressed validation failure. Path addresses the
// offending node: configuration errors use key paths like "fields[2].fields[0]",
// submission errors use the positional keys of the compiled schema ("1", "1.2").
type Error struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e Error) Error() string {
	return fmt.Sprintf("%s at %q: %s", e.Code, e.Path, e.Message)
}

// Errors is the full verdict of one validation pass. A nil or empty value
// means the document was accepted.
type Errors []Error

// Error summarizes the first few entries.
func (errs Errors) Error() string {
	if len(errs) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	shown := len(errs)
	if shown > maxShown {
		shown = maxShown
	}
	for i := 0; i < shown; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(b, "%s at %q", errs[i].Code, errs[i].Path)
	}
	if len(errs) > shown {
		fmt.Fprintf(b, "; ... (total %d)", len(errs))
	}
	return b.String()
}

func (errs *Errors) add(path, code, format string, args ...any) {
	*errs = append(*errs, Error{
		Path:    path,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	})
}
