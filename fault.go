package tally

import (
	"errors"
	"fmt"
)

// ErrNotAvailable indicates the Tally instance could not be reached.
// Reports recover from it by falling back to a cached raw response when one
// exists; otherwise it surfaces to the caller.
var ErrNotAvailable = errors.New("tally is not available")

// FaultKind classifies an extraction or protocol failure.
type FaultKind string

const (
	// FaultMissing indicates a declared source node or attribute was not
	// found in the document.
	FaultMissing FaultKind = "missing"
	// FaultAmbiguous indicates more than one node matched a rule that
	// expects a single candidate. This is a specification/document
	// mismatch and is always fatal, independent of the optional flag.
	FaultAmbiguous FaultKind = "ambiguous"
	// FaultParse indicates source text could not be coerced to the
	// declared type (bad integer, unparseable decimal, and the like).
	FaultParse FaultKind = "parse"
	// FaultValue indicates the source text parsed but failed value
	// validation (e.g. a yes/no field holding neither). Never swallowed.
	FaultValue FaultKind = "value"
	// FaultUnsupported indicates a programming error: a base report asked
	// to build a request body, or an undeclared collection requested.
	FaultUnsupported FaultKind = "unsupported"
)

// Fault is a single extraction or protocol failure with enough context to
// identify the offending field and candidates.
type Fault struct {
	// Kind classifies the failure.
	Kind FaultKind

	// Field is the output field being populated, if any.
	Field string

	// Source is the source node or attribute name the rule targeted.
	Source string

	// Candidates is the number of matching nodes found, where relevant.
	Candidates int

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (f *Fault) Error() string {
	msg := fmt.Sprintf("%s fault", f.Kind)
	if f.Field != "" {
		msg += fmt.Sprintf(" on field %q", f.Field)
	}
	if f.Source != "" && f.Source != f.Field {
		msg += fmt.Sprintf(" (source %q)", f.Source)
	}
	if f.Kind == FaultAmbiguous {
		msg += fmt.Sprintf(": %d candidates", f.Candidates)
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (f *Fault) Unwrap() error {
	return f.Err
}

// Swallowable reports whether this fault may be resolved to the zero value
// on an optional field. Ambiguous matches and value-validation failures are
// never swallowed: the former indicates a spec/document conflict, the
// latter data that is present but semantically invalid.
func (f *Fault) Swallowable() bool {
	switch f.Kind {
	case FaultMissing, FaultParse:
		return true
	default:
		return false
	}
}

// NewFault constructs a Fault for the given field and source.
func NewFault(kind FaultKind, field, source string) *Fault {
	return &Fault{Kind: kind, Field: field, Source: source}
}

// AsFault extracts a *Fault from an error chain, if present.
func AsFault(err error) (*Fault, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
