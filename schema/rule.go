package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	tally "github.com/amanabt/tendril-connector-tally"
)

// Context carries the owning report through element construction so that
// nested elements can perform cross-field lookups (company scoping, master
// resolution).
type Context interface {
	CompanyName() string
}

// ruleKind tags the extraction rule variant.
type ruleKind int

const (
	kindText ruleKind = iota
	kindScalar
	kindNested
	kindList
	kindMultiline
)

// Rule describes how one output field derives from a source node or
// attribute. Rules are built with the typed constructors below, which bind
// a destination pointer; the extraction engine never sees the destination
// type, only the closures.
type Rule struct {
	// Source is the node or attribute name the rule targets. List and
	// multiline rules match containers named Source+".LIST".
	Source string

	// Required controls the optional/required policy for swallowable
	// faults. Ambiguous matches and value-validation failures ignore it.
	Required bool

	kind    ruleKind
	setText func(s string)                             // kindText, kindMultiline
	convert func(text string) *tally.Fault             // kindScalar
	nested  func(el *etree.Element, ctx Context) error // kindNested
	setList func(els []*etree.Element, ctx Context) error
	clear   func()
}

// Text declares a string field joined from the text of every matching
// candidate with ":". Zero candidates yield the empty string, so text rules
// never fault on absence.
func Text(dst *string, source string) Rule {
	return Rule{
		Source:  source,
		kind:    kindText,
		setText: func(s string) { *dst = s },
		clear:   func() { *dst = "" },
	}
}

// Str declares a required single-candidate string field. Unlike Text it
// expects exactly one source and is the variant to use for attributes.
func Str(dst *string, source string) Rule {
	return Rule{
		Source:   source,
		Required: true,
		kind:     kindScalar,
		convert: func(text string) *tally.Fault {
			*dst = text
			return nil
		},
		clear: func() { *dst = "" },
	}
}

// StrOpt declares an optional single-candidate string field.
func StrOpt(dst **string, source string) Rule {
	r := Rule{Source: source, kind: kindScalar}
	r.convert = func(text string) *tally.Fault {
		v := text
		*dst = &v
		return nil
	}
	r.clear = func() { *dst = nil }
	return r
}

// Int declares a required integer field.
func Int(dst *int, source string) Rule {
	return Rule{
		Source:   source,
		Required: true,
		kind:     kindScalar,
		convert: func(text string) *tally.Fault {
			v, err := strconv.Atoi(strings.TrimSpace(text))
			if err != nil {
				return &tally.Fault{Kind: tally.FaultParse, Source: source, Err: err}
			}
			*dst = v
			return nil
		},
	}
}

// IntOpt declares an optional integer field. Absence or a parse failure
// resolves to nil.
func IntOpt(dst **int, source string) Rule {
	r := Rule{Source: source, kind: kindScalar}
	r.convert = func(text string) *tally.Fault {
		v, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil {
			return &tally.Fault{Kind: tally.FaultParse, Source: source, Err: err}
		}
		*dst = &v
		return nil
	}
	r.clear = func() { *dst = nil }
	return r
}

// Float declares a required float field.
func Float(dst *float64, source string) Rule {
	return Rule{
		Source:   source,
		Required: true,
		kind:     kindScalar,
		convert: func(text string) *tally.Fault {
			v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
			if err != nil {
				return &tally.Fault{Kind: tally.FaultParse, Source: source, Err: err}
			}
			*dst = v
			return nil
		},
	}
}

// FloatOpt declares an optional float field.
func FloatOpt(dst **float64, source string) Rule {
	r := Rule{Source: source, kind: kindScalar}
	r.convert = func(text string) *tally.Fault {
		v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return &tally.Fault{Kind: tally.FaultParse, Source: source, Err: err}
		}
		*dst = &v
		return nil
	}
	r.clear = func() { *dst = nil }
	return r
}

// Dec declares a required decimal field. Tally emits empty text for zero
// amounts, so blank or whitespace-only text resolves to decimal zero rather
// than a parse fault.
func Dec(dst *decimal.Decimal, source string) Rule {
	return Rule{
		Source:   source,
		Required: true,
		kind:     kindScalar,
		convert:  decConvert(func(d decimal.Decimal) { *dst = d }, source),
	}
}

// DecOpt declares an optional decimal field.
func DecOpt(dst **decimal.Decimal, source string) Rule {
	r := Rule{Source: source, kind: kindScalar}
	r.convert = decConvert(func(d decimal.Decimal) { *dst = &d }, source)
	r.clear = func() { *dst = nil }
	return r
}

func decConvert(assign func(decimal.Decimal), source string) func(string) *tally.Fault {
	return func(text string) *tally.Fault {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			assign(decimal.Zero)
			return nil
		}
		v, err := decimal.NewFromString(trimmed)
		if err != nil {
			return &tally.Fault{Kind: tally.FaultParse, Source: source, Err: err}
		}
		assign(v)
		return nil
	}
}

// YesNo declares a required boolean field holding Tally's Yes/No markers.
func YesNo(dst *bool, source string) Rule {
	return Rule{
		Source:   source,
		Required: true,
		kind:     kindScalar,
		convert: func(text string) *tally.Fault {
			v, err := YesOrNo(text)
			if err != nil {
				return &tally.Fault{Kind: tally.FaultValue, Source: source, Err: err}
			}
			*dst = v
			return nil
		},
	}
}

// YesNoOpt declares an optional Yes/No boolean field. Absence resolves to
// nil, but text that is present and neither yes nor no is a
// value-validation failure and propagates regardless.
func YesNoOpt(dst **bool, source string) Rule {
	r := Rule{Source: source, kind: kindScalar}
	r.convert = func(text string) *tally.Fault {
		v, err := YesOrNo(text)
		if err != nil {
			return &tally.Fault{Kind: tally.FaultValue, Source: source, Err: err}
		}
		*dst = &v
		return nil
	}
	r.clear = func() { *dst = nil }
	return r
}

// Nested declares a field constructed from the single matching node by a
// spec-bearing element type.
func Nested[T any](dst **T, source string, required bool, build func(el *etree.Element, ctx Context) (*T, error)) Rule {
	return Rule{
		Source:   source,
		Required: required,
		kind:     kindNested,
		nested: func(el *etree.Element, ctx Context) error {
			v, err := build(el, ctx)
			if err != nil {
				return err
			}
			*dst = v
			return nil
		},
		clear: func() { *dst = nil },
	}
}

// List declares a sequence field: every container named source+".LIST"
// below the node becomes one element, in document order.
func List[T any](dst *[]T, source string, build func(el *etree.Element, ctx Context) (T, error)) Rule {
	return Rule{
		Source: source,
		kind:   kindList,
		setList: func(els []*etree.Element, ctx Context) error {
			out := make([]T, 0, len(els))
			for _, el := range els {
				v, err := build(el, ctx)
				if err != nil {
					return err
				}
				out = append(out, v)
			}
			*dst = out
			return nil
		},
		clear: func() { *dst = nil },
	}
}

// Multiline declares a string field gathered from repeated lines inside a
// single source+".LIST" container. Zero lines yield the empty string, one
// line is returned as-is, several are newline-joined. More than one
// container is an ambiguous-match fault.
func Multiline(dst *string, source string) Rule {
	return Rule{
		Source:  source,
		kind:    kindMultiline,
		setText: func(s string) { *dst = s },
		clear:   func() { *dst = "" },
	}
}

// YesOrNo coerces Tally's boolean markers to a bool. The comparison is
// case-insensitive; anything other than a yes/no marker is a
// value-validation failure.
func YesOrNo(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("expected yes or no, got %q", s)
	}
}
