// Package xmldoc provides case-insensitive search helpers over etree
// element trees.
//
// Tally emits loosely-structured XML: element names may arrive in any case,
// and repeated values are wrapped in containers named "<field>.LIST". The
// helpers here encode those protocol conventions so the rest of the
// connector can match nodes by name without caring about case or container
// suffixes.
package xmldoc

import (
	"errors"
	"strings"

	"github.com/beevik/etree"
)

// ListSuffix is appended to a field name to form its list container name.
const ListSuffix = ".list"

// Parse reads a raw Tally response into a document tree. Tally responses
// are not always well-formed by strict XML rules, so unknown entities are
// passed through and charset quirks tolerated.
func Parse(data []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.Permissive = true
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, err
	}
	if doc.Root() == nil {
		return nil, errors.New("xmldoc: document has no root element")
	}
	return doc, nil
}

// Text returns the trimmed character data directly inside el.
func Text(el *etree.Element) string {
	if el == nil {
		return ""
	}
	return strings.TrimSpace(el.Text())
}

// Attr returns the value of the named attribute, matched case-insensitively.
// The second return reports whether the attribute exists.
func Attr(el *etree.Element, name string) (string, bool) {
	for _, a := range el.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Value, true
		}
	}
	return "", false
}

// ChildrenNamed returns the direct child elements of el whose tag equals
// name, ignoring case, in document order.
func ChildrenNamed(el *etree.Element, name string) []*etree.Element {
	var out []*etree.Element
	for _, c := range el.ChildElements() {
		if strings.EqualFold(c.Tag, name) {
			out = append(out, c)
		}
	}
	return out
}

// DescendantsNamed returns every element below el whose tag equals name,
// ignoring case, in document order. el itself is not considered.
func DescendantsNamed(el *etree.Element, name string) []*etree.Element {
	var out []*etree.Element
	for _, c := range el.ChildElements() {
		if strings.EqualFold(c.Tag, name) {
			out = append(out, c)
		}
		out = append(out, DescendantsNamed(c, name)...)
	}
	return out
}

// FirstNamed returns the first element named name at or below el, ignoring
// case, or nil when none exists.
func FirstNamed(el *etree.Element, name string) *etree.Element {
	if el == nil {
		return nil
	}
	if strings.EqualFold(el.Tag, name) {
		return el
	}
	for _, c := range el.ChildElements() {
		if found := FirstNamed(c, name); found != nil {
			return found
		}
	}
	return nil
}

// FindNamed returns the first element named name anywhere in the document,
// ignoring case, or nil when none exists.
func FindNamed(doc *etree.Document, name string) *etree.Element {
	if doc == nil {
		return nil
	}
	root := doc.Root()
	if root == nil {
		return nil
	}
	return FirstNamed(root, name)
}

// ListContainers returns the descendants of el named name+".LIST",
// ignoring case, in document order.
func ListContainers(el *etree.Element, name string) []*etree.Element {
	return DescendantsNamed(el, name+ListSuffix)
}
