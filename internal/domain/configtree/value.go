package configtree

import "fmt"

// Value wraps a leaf's typed payload. The datastore library (out of scope
// for this module, see spec §1) hands the core already-typed leaves; Value
// simply carries that payload alongside convenience accessors so translators
// do not sprinkle type assertions across their code.
type Value struct {
	raw interface{}
}

// NewValue wraps an arbitrary leaf payload.
func NewValue(raw interface{}) Value {
	return Value{raw: raw}
}

// IsZero reports whether the value was never set.
func (v Value) IsZero() bool {
	return v.raw == nil
}

// Raw returns the underlying payload unmodified.
func (v Value) Raw() interface{} {
	return v.raw
}

// String returns the value formatted as a string, or "" if unset.
func (v Value) String() string {
	if v.raw == nil {
		return ""
	}
	if s, ok := v.raw.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v.raw)
}

// Bool returns the value as a bool; non-bool payloads return false.
func (v Value) Bool() bool {
	b, _ := v.raw.(bool)
	return b
}

// Int returns the value as an int; float64 payloads (the common case when a
// value arrives decoded from JSON) are truncated.
func (v Value) Int() int {
	switch n := v.raw.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

// StringSlice returns the value as a []string, accepting both native
// []string and []interface{} of strings (the shape produced by JSON
// decoding of a leaf-list).
func (v Value) StringSlice() []string {
	switch s := v.raw.(type) {
	case []string:
		return s
	case []interface{}:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}
