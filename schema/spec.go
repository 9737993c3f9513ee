// Package schema implements the declarative field-extraction engine.
//
// Each typed element declares a Spec: five independent rule tables keyed by
// output field name, describing how to derive that field from a parsed
// document node. Apply consumes the Spec in a single generic routine,
// locating candidates, coercing text, and enforcing the per-field
// optional/required policy.
package schema

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	tally "github.com/amanabt/tendril-connector-tally"
	"github.com/amanabt/tendril-connector-tally/xmldoc"
)

// Spec is the per-type extraction table. The five maps are independent;
// keys are output field names and exist only for diagnostics, since rules
// bind their destinations directly.
type Spec struct {
	// Attrs extract from the node's own attribute mapping.
	Attrs map[string]Rule

	// Elements extract from direct children only.
	Elements map[string]Rule

	// Lists extract ordered sequences from <source>.LIST containers.
	Lists map[string]Rule

	// Multilines join repeated lines inside one <source>.LIST container.
	Multilines map[string]Rule

	// Descendants extract from all descendants rather than direct
	// children.
	Descendants map[string]Rule
}

// Apply populates every destination declared by spec from el.
//
// The five passes run in a fixed order (attrs, elements, lists,
// multilines, descendants) because later passes may assume
// earlier-derived fields exist. Within a pass, fields are independent: a
// swallowed optional miss does not stop sibling fields, while a required
// miss, an ambiguous match, or a value-validation failure aborts the whole
// extraction.
func Apply(spec Spec, el *etree.Element, ctx Context) error {
	if el == nil {
		return &tally.Fault{Kind: tally.FaultMissing, Err: fmt.Errorf("schema: nil source node")}
	}
	if err := applyAttrs(spec.Attrs, el); err != nil {
		return err
	}
	if err := applyElements(spec.Elements, el, ctx, xmldoc.ChildrenNamed); err != nil {
		return err
	}
	if err := applyLists(spec.Lists, el, ctx); err != nil {
		return err
	}
	if err := applyMultilines(spec.Multilines, el); err != nil {
		return err
	}
	return applyElements(spec.Descendants, el, ctx, xmldoc.DescendantsNamed)
}

// resolve routes a fault through the optional/required policy. Swallowable
// faults on optional fields clear the destination and extraction
// continues; everything else propagates.
func resolve(field string, r Rule, f *tally.Fault) error {
	f.Field = field
	if !f.Swallowable() || r.Required {
		return f
	}
	if r.clear != nil {
		r.clear()
	}
	return nil
}

func applyAttrs(rules map[string]Rule, el *etree.Element) error {
	for field, r := range rules {
		if r.kind != kindScalar {
			return &tally.Fault{Kind: tally.FaultUnsupported, Field: field, Source: r.Source,
				Err: fmt.Errorf("attribute rules must be scalar")}
		}
		val, ok := xmldoc.Attr(el, r.Source)
		if !ok {
			if err := resolve(field, r, &tally.Fault{Kind: tally.FaultMissing, Source: r.Source}); err != nil {
				return err
			}
			continue
		}
		if f := r.convert(val); f != nil {
			if err := resolve(field, r, f); err != nil {
				return err
			}
		}
	}
	return nil
}

// applyElements handles both the direct-children and all-descendants
// passes; find selects the search scope.
func applyElements(rules map[string]Rule, el *etree.Element, ctx Context, find func(*etree.Element, string) []*etree.Element) error {
	for field, r := range rules {
		candidates := find(el, r.Source)

		switch r.kind {
		case kindText:
			// Repeated same-named text fields fold into one string;
			// zero candidates yield "".
			parts := make([]string, len(candidates))
			for i, c := range candidates {
				parts[i] = xmldoc.Text(c)
			}
			r.setText(strings.Join(parts, ":"))

		case kindScalar, kindNested:
			if err := applySingular(field, r, candidates, ctx); err != nil {
				return err
			}

		default:
			return &tally.Fault{Kind: tally.FaultUnsupported, Field: field, Source: r.Source,
				Err: fmt.Errorf("element rules must be text, scalar or nested")}
		}
	}
	return nil
}

// applySingular enforces the exactly-one-candidate contract shared by
// scalar and nested rules.
func applySingular(field string, r Rule, candidates []*etree.Element, ctx Context) error {
	switch {
	case len(candidates) == 0:
		return resolve(field, r, &tally.Fault{Kind: tally.FaultMissing, Source: r.Source})

	case len(candidates) > 1:
		// A spec/document conflict, fatal regardless of the optional
		// flag.
		return resolve(field, r, &tally.Fault{
			Kind:       tally.FaultAmbiguous,
			Source:     r.Source,
			Candidates: len(candidates),
		})
	}

	if r.kind == kindNested {
		err := r.nested(candidates[0], ctx)
		if err == nil {
			return nil
		}
		if f, ok := tally.AsFault(err); ok {
			return resolve(field, r, f)
		}
		return err
	}

	if f := r.convert(xmldoc.Text(candidates[0])); f != nil {
		return resolve(field, r, f)
	}
	return nil
}

func applyLists(rules map[string]Rule, el *etree.Element, ctx Context) error {
	for field, r := range rules {
		if r.kind != kindList {
			return &tally.Fault{Kind: tally.FaultUnsupported, Field: field, Source: r.Source,
				Err: fmt.Errorf("list rules must be built with List")}
		}
		containers := xmldoc.ListContainers(el, r.Source)
		if err := r.setList(containers, ctx); err != nil {
			if f, ok := tally.AsFault(err); ok {
				f.Field = field
			}
			return err
		}
	}
	return nil
}

func applyMultilines(rules map[string]Rule, el *etree.Element) error {
	for field, r := range rules {
		if r.kind != kindMultiline {
			return &tally.Fault{Kind: tally.FaultUnsupported, Field: field, Source: r.Source,
				Err: fmt.Errorf("multiline rules must be built with Multiline")}
		}
		containers := xmldoc.ListContainers(el, r.Source)
		switch {
		case len(containers) == 0:
			r.setText("")

		case len(containers) > 1:
			return resolve(field, r, &tally.Fault{
				Kind:       tally.FaultAmbiguous,
				Source:     r.Source + xmldoc.ListSuffix,
				Candidates: len(containers),
			})

		default:
			lines := xmldoc.DescendantsNamed(containers[0], r.Source)
			parts := make([]string, 0, len(lines))
			for _, l := range lines {
				parts = append(parts, xmldoc.Text(l))
			}
			// One line stays as-is, several are newline-joined, none
			// collapse to "".
			r.setText(strings.Join(parts, "\n"))
		}
	}
	return nil
}
