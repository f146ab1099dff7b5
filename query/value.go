package query

import (
	"fmt"
	"time"
)

// Value is a sealed interface representing a typed filter value.
// Only String, Int, Float, Bool, and Time implement it.
//
// Parameter parsing coerces raw strings into one of these types using the
// field's declared kind; by the time a Value reaches a backend compiler it
// is already the right semantic type.
type Value interface {
	value() // Sealed - only types in this package implement it
}

// String is a text value.
type String string

func (String) value() {}

// Int is an integer value, always int64.
type Int int64

func (Int) value() {}

// Float is a floating-point value.
type Float float64

func (Float) value() {}

// Bool is a boolean value.
type Bool bool

func (Bool) value() {}

// Time is an instant value.
type Time time.Time

func (Time) value() {}

// Kind identifies the declared semantic type of a field.
type Kind string

const (
	KindString Kind = "string"
	KindInt    Kind = "int"
	KindFloat  Kind = "float"
	KindBool   Kind = "bool"
	KindTime   Kind = "time"
)

// ValidKind reports whether k is one of the declared kinds.
func ValidKind(k Kind) bool {
	switch k {
	case KindString, KindInt, KindFloat, KindBool, KindTime:
		return true
	}
	return false
}

// Native converts a Value to the Go type expected by database/sql drivers.
func Native(v Value) (any, error) {
	switch val := v.(type) {
	case String:
		return string(val), nil
	case Int:
		return int64(val), nil
	case Float:
		return float64(val), nil
	case Bool:
		return bool(val), nil
	case Time:
		return time.Time(val), nil
	default:
		return nil, fmt.Errorf("unsupported value type: %T", v)
	}
}
