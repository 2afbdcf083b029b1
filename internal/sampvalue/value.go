// Package sampvalue implements the SAMP value tree: the recursive
// string/list/mapping type that carries every argument, result, and
// message payload in the Simple Application Messaging Protocol.
//
// A SAMP value is one of three variants: a string restricted to the
// code points SAMP allows, an ordered list of values, or an ordered
// string-keyed mapping of values. There is no separate numeric or
// boolean type — by convention integers are decimal strings, floats
// exclude ±Inf/NaN, and booleans are "0"/"1". Validate enforces this
// discipline; ToJSON/FromJSON give a lossless wire encoding restricted
// to the same discipline (quoted strings only, no bare numbers,
// booleans, or null).
package sampvalue

import (
	"fmt"
)

// Value is a SAMP value: a String, a List, or a Map.
type Value interface {
	isValue()
}

// String is the SAMP string variant.
type String string

func (String) isValue() {}

// List is the SAMP list variant, an ordered sequence of values.
type List []Value

func (List) isValue() {}

// Map is the SAMP mapping variant: string keys, insertion order
// preserved, constant-time lookup.
type Map struct {
	keys   []string
	values map[string]Value
}

func (*Map) isValue() {}

// NewMap returns an empty, ready-to-use Map.
func NewMap() *Map {
	return &Map{values: make(map[string]Value)}
}

// Set inserts or replaces the value for key, preserving the original
// insertion position on replace.
func (m *Map) Set(key string, v Value) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Get returns the value for key and whether it was present.
func (m *Map) Get(key string) (Value, bool) {
	v, ok := m.values[key]
	return v, ok
}

// GetString is a convenience accessor for the common case of a
// string-valued key.
func (m *Map) GetString(key string) (string, bool) {
	v, ok := m.values[key]
	if !ok {
		return "", false
	}
	s, ok := v.(String)
	return string(s), ok
}

// Delete removes key, if present.
func (m *Map) Delete(key string) {
	if _, exists := m.values[key]; !exists {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the mapping's keys in insertion order.
func (m *Map) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of entries in the mapping.
func (m *Map) Len() int {
	return len(m.keys)
}

// Clone returns a deep copy of v.
func Clone(v Value) Value {
	switch t := v.(type) {
	case String:
		return t
	case List:
		out := make(List, len(t))
		for i, e := range t {
			out[i] = Clone(e)
		}
		return out
	case *Map:
		out := NewMap()
		for _, k := range t.keys {
			out.Set(k, Clone(t.values[k]))
		}
		return out
	default:
		return nil
	}
}

// MalformedValue describes why validation rejected a value, carrying
// the dotted path to the offending node for diagnostics.
type MalformedValue struct {
	Path   string
	Reason string
}

func (e *MalformedValue) Error() string {
	if e.Path == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// isSampChar reports whether r is one of the code points a SAMP string
// may contain: tab, LF, CR, and the printable ASCII range 0x20..0x7F.
func isSampChar(r rune) bool {
	switch r {
	case 0x09, 0x0A, 0x0D:
		return true
	}
	return r >= 0x20 && r <= 0x7F
}

// Validate walks v depth-first and fails with *MalformedValue on the
// first non-string/non-list/non-mapping leaf, out-of-range string
// character, or non-string mapping key. nil is always rejected: SAMP
// has no null variant.
func Validate(v Value) error {
	return validateAt(v, "$")
}

func validateAt(v Value, path string) error {
	if v == nil {
		return &MalformedValue{Path: path, Reason: "null is not a valid SAMP value"}
	}
	switch t := v.(type) {
	case String:
		for _, r := range string(t) {
			if !isSampChar(r) {
				return &MalformedValue{Path: path, Reason: fmt.Sprintf("character %q out of SAMP string range", r)}
			}
		}
		return nil
	case List:
		for i, e := range t {
			if err := validateAt(e, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil
	case *Map:
		for _, k := range t.keys {
			for _, r := range k {
				if !isSampChar(r) {
					return &MalformedValue{Path: path, Reason: fmt.Sprintf("mapping key %q out of SAMP string range", k)}
				}
			}
			val, _ := t.values[k]
			if err := validateAt(val, fmt.Sprintf("%s.%s", path, k)); err != nil {
				return err
			}
		}
		return nil
	default:
		return &MalformedValue{Path: path, Reason: fmt.Sprintf("unsupported value type %T", v)}
	}
}
