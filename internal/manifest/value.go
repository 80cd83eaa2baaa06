// Package manifest implements the format-agnostic Manifest Tree value
// abstraction (spec.md §4.A) over JSON, YAML and TOML, so that
// internal/deserialize is written once regardless of source format.
package manifest

import (
	"fmt"

	"omibyte.io/devicedriver/internal/diag"
)

// Kind discriminates a Value's variant.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInteger
	KindFloat
	KindString
	KindArray
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is one node of a format-agnostic manifest tree. Only one of the
// typed fields is meaningful per Kind. Maps preserve key insertion order,
// which downstream semantics (object enumeration order, enum
// auto-numbering) depend on.
type Value struct {
	Kind Kind
	Span diag.Span

	BoolV    bool
	IntV     int64 // widened further with big integers is not needed by this spec's inputs
	FloatV   float64
	StringV  string
	ArrayV   []Value
	MapKeys  []string
	MapV     map[string]Value
}

// KindError is returned by the typed accessors when a Value is not of
// the requested kind.
type KindError struct {
	Span     diag.Span
	Expected Kind
	Actual   Kind
}

func (e *KindError) Error() string {
	return fmt.Sprintf("expected %s, got %s", e.Expected, e.Actual)
}

func (v Value) AsMap() (keys []string, m map[string]Value, err error) {
	if v.Kind != KindMap {
		return nil, nil, &KindError{Span: v.Span, Expected: KindMap, Actual: v.Kind}
	}
	return v.MapKeys, v.MapV, nil
}

func (v Value) AsArray() ([]Value, error) {
	if v.Kind != KindArray {
		return nil, &KindError{Span: v.Span, Expected: KindArray, Actual: v.Kind}
	}
	return v.ArrayV, nil
}

func (v Value) AsInteger() (int64, error) {
	if v.Kind != KindInteger {
		return 0, &KindError{Span: v.Span, Expected: KindInteger, Actual: v.Kind}
	}
	return v.IntV, nil
}

func (v Value) AsString() (string, error) {
	if v.Kind != KindString {
		return "", &KindError{Span: v.Span, Expected: KindString, Actual: v.Kind}
	}
	return v.StringV, nil
}

func (v Value) AsBool() (bool, error) {
	if v.Kind != KindBool {
		return false, &KindError{Span: v.Span, Expected: KindBool, Actual: v.Kind}
	}
	return v.BoolV, nil
}

func (v Value) AsFloat() (float64, error) {
	switch v.Kind {
	case KindFloat:
		return v.FloatV, nil
	case KindInteger:
		return float64(v.IntV), nil
	default:
		return 0, &KindError{Span: v.Span, Expected: KindFloat, Actual: v.Kind}
	}
}

// Get looks up a key in a map Value. It returns ok=false both when v is
// not a map and when the key is absent; callers that need to
// distinguish those cases should call AsMap directly.
func (v Value) Get(key string) (Value, bool) {
	if v.Kind != KindMap {
		return Value{}, false
	}
	val, ok := v.MapV[key]
	return val, ok
}

// NewMap builds a Value of kind KindMap preserving the given key order.
func NewMap(span diag.Span, keys []string, m map[string]Value) Value {
	return Value{Kind: KindMap, Span: span, MapKeys: keys, MapV: m}
}
