package report

import "strings"

// Mapping is an ordered, case-insensitive map from an element's natural
// name to the element. Insertion order matches document order; lookups
// fold case the way Tally matches names.
type Mapping struct {
	keys []string
	vals map[string]Named
}

// NewMapping creates an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{vals: make(map[string]Named)}
}

// Set stores v under key, replacing any existing entry with the same
// folded key while keeping its original position.
func (m *Mapping) Set(key string, v Named) {
	folded := strings.ToLower(key)
	if _, exists := m.vals[folded]; !exists {
		m.keys = append(m.keys, key)
	}
	m.vals[folded] = v
}

// Get returns the element stored under key, ignoring case.
func (m *Mapping) Get(key string) (Named, bool) {
	v, ok := m.vals[strings.ToLower(key)]
	return v, ok
}

// Keys returns the stored keys in insertion order, with original casing.
func (m *Mapping) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// At returns the element at position i in insertion order.
func (m *Mapping) At(i int) Named {
	return m.vals[strings.ToLower(m.keys[i])]
}

// Len returns the number of stored elements.
func (m *Mapping) Len() int {
	return len(m.keys)
}
