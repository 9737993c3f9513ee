package tally

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestFault_Swallowable(t *testing.T) {
	tests := []struct {
		kind FaultKind
		want bool
	}{
		{FaultMissing, true},
		{FaultParse, true},
		{FaultAmbiguous, false},
		{FaultValue, false},
		{FaultUnsupported, false},
	}

	for _, tt := range tests {
		f := NewFault(tt.kind, "name", "name")
		if got := f.Swallowable(); got != tt.want {
			t.Errorf("Swallowable(%s) = %v; want %v", tt.kind, got, tt.want)
		}
	}
}

func TestFault_Error(t *testing.T) {
	f := &Fault{Kind: FaultAmbiguous, Field: "decimalplaces", Source: "decimalplaces", Candidates: 2}
	msg := f.Error()
	if !strings.Contains(msg, "ambiguous") {
		t.Errorf("Error() = %q; want mention of kind", msg)
	}
	if !strings.Contains(msg, "decimalplaces") {
		t.Errorf("Error() = %q; want mention of field", msg)
	}
	if !strings.Contains(msg, "2 candidates") {
		t.Errorf("Error() = %q; want candidate count", msg)
	}
}

func TestFault_Unwrap(t *testing.T) {
	cause := errors.New("strconv failed")
	f := &Fault{Kind: FaultParse, Field: "conversion", Err: cause}

	if !errors.Is(f, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}

	wrapped := fmt.Errorf("extracting unit: %w", f)
	got, ok := AsFault(wrapped)
	if !ok {
		t.Fatal("AsFault should find the fault in a wrapped chain")
	}
	if got.Kind != FaultParse {
		t.Errorf("Kind = %s; want %s", got.Kind, FaultParse)
	}
}

func TestErrNotAvailable_Wrapping(t *testing.T) {
	err := fmt.Errorf("posting request: %w", ErrNotAvailable)
	if !errors.Is(err, ErrNotAvailable) {
		t.Error("errors.Is should match ErrNotAvailable through wrapping")
	}
}
