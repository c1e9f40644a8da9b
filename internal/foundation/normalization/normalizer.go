// Package normalization maps loosely typed user input onto closed value sets
// and cleans free-form text fields.
package normalization

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
)

// Enum maps case-insensitive, trimmed keys to values of T.
type Enum[T comparable] struct {
	name     string
	values   map[string]T
	fallback T
	keys     []string
}

// NewEnum builds an Enum. name is used in error messages.
func NewEnum[T comparable](name string, values map[string]T, fallback T) *Enum[T] {
	e := &Enum[T]{name: name, values: make(map[string]T, len(values)), fallback: fallback}
	for k, v := range values {
		key := Key(k)
		e.values[key] = v
		e.keys = append(e.keys, key)
	}
	slices.Sort(e.keys)
	return e
}

// Normalize returns the matching value or the fallback.
func (e *Enum[T]) Normalize(raw string) T {
	if v, ok := e.values[Key(raw)]; ok {
		return v
	}
	return e.fallback
}

// Parse returns the matching value or an error listing the valid keys.
func (e *Enum[T]) Parse(raw string) (T, error) {
	if v, ok := e.values[Key(raw)]; ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q, valid options: %v", e.name, raw, e.keys)
}

// Keys returns the accepted keys in sorted order.
func (e *Enum[T]) Keys() []string {
	return slices.Clone(e.keys)
}

// Key lowercases and trims s.
func Key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Text trims s and collapses inner whitespace runs into one space.
func Text(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// OptionalText is Text that maps an empty result to nil.
func OptionalText(s string) *string {
	t := Text(s)
	if t == "" {
		return nil
	}
	return &t
}
