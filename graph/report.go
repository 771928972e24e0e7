package graph

import (
	"github.com/kbukum/rendergraph/errors"
)

// Severity separates blocking diagnostics from informational ones.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is one finding of the validator.
type Diagnostic struct {
	Severity Severity
	Err      *errors.AppError
}

// Code returns the error code of the diagnostic.
func (d Diagnostic) Code() errors.ErrorCode { return d.Err.Code }

// String renders the diagnostic as "severity: CODE: message".
func (d Diagnostic) String() string {
	return string(d.Severity) + ": " + d.Err.Error()
}

// Report holds the outcome of validating one graph. The graph is executable
// iff Errors is empty.
type Report struct {
	Graph    string
	Errors   []Diagnostic
	Warnings []Diagnostic
}

// OK reports whether the graph is executable.
func (r Report) OK() bool { return len(r.Errors) == 0 }

// Err returns a NOT_EXECUTABLE error joining every error diagnostic, or nil
// when the report has no errors.
func (r Report) Err() error {
	if r.OK() {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, d := range r.Errors {
		errs[i] = d.Err
	}
	return errors.NotExecutable(r.Graph, errs)
}

// All returns errors followed by warnings.
func (r Report) All() []Diagnostic {
	out := make([]Diagnostic, 0, len(r.Errors)+len(r.Warnings))
	out = append(out, r.Errors...)
	return append(out, r.Warnings...)
}

// Has reports whether any diagnostic carries code.
func (r Report) Has(code errors.ErrorCode) bool {
	return r.Count(code) > 0
}

// Count returns how many diagnostics carry code.
func (r Report) Count(code errors.ErrorCode) int {
	n := 0
	for _, d := range r.All() {
		if d.Err.Code == code {
			n++
		}
	}
	return n
}

func (r *Report) addError(err *errors.AppError) {
	r.Errors = append(r.Errors, Diagnostic{Severity: SeverityError, Err: err})
}

func (r *Report) addWarning(err *errors.AppError) {
	r.Warnings = append(r.Warnings, Diagnostic{Severity: SeverityWarning, Err: err})
}
