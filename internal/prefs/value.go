package prefs

import (
	"fmt"
	"strconv"
)

// Key identifies a single preference.
type Key string

// Kind is the declared type of a preference value.
type Kind int

const (
	// KindString is a free-form text value
	KindString Kind = iota
	// KindInt is a base-10 integer value
	KindInt
	// KindBool is a two-state flag
	KindBool
)

// String returns the name used for the kind in storage and diagnostics
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "string":
		return KindString, nil
	case "int":
		return KindInt, nil
	case "bool":
		return KindBool, nil
	default:
		return 0, fmt.Errorf("unknown value kind %q", s)
	}
}

// Value is a tagged union of string, int and bool.
// The zero Value is the empty string.
type Value struct {
	kind Kind
	str  string
	num  int
	flag bool
}

// StringValue returns a string-kinded value.
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// IntValue returns an int-kinded value.
func IntValue(n int) Value { return Value{kind: KindInt, num: n} }

// BoolValue returns a bool-kinded value.
func BoolValue(b bool) Value { return Value{kind: KindBool, flag: b} }

// Kind reports which member of the union is set.
func (v Value) Kind() Kind { return v.kind }

// Str returns the string member, or "" if v is not a string.
func (v Value) Str() string {
	if v.kind != KindString {
		return ""
	}
	return v.str
}

// Int returns the int member, or 0 if v is not an int.
func (v Value) Int() int {
	if v.kind != KindInt {
		return 0
	}
	return v.num
}

// Bool returns the bool member, or false if v is not a bool.
func (v Value) Bool() bool {
	if v.kind != KindBool {
		return false
	}
	return v.flag
}

// Equal reports whether two values have the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInt:
		return v.num == o.num
	case KindBool:
		return v.flag == o.flag
	default:
		return v.str == o.str
	}
}

// String renders the value for display
func (v Value) String() string {
	return v.Encode()
}

// Encode renders the value as text without its kind. DecodeValue reverses it.
func (v Value) Encode() string {
	switch v.kind {
	case KindInt:
		return strconv.Itoa(v.num)
	case KindBool:
		return strconv.FormatBool(v.flag)
	default:
		return v.str
	}
}

// DecodeValue parses text produced by Encode back into a value of the given kind.
func DecodeValue(kind Kind, raw string) (Value, error) {
	switch kind {
	case KindString:
		return StringValue(raw), nil
	case KindInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Value{}, fmt.Errorf("decode int value %q: %w", raw, err)
		}
		return IntValue(n), nil
	case KindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return Value{}, fmt.Errorf("decode bool value %q: %w", raw, err)
		}
		return BoolValue(b), nil
	default:
		return Value{}, fmt.Errorf("decode value: unknown kind %s", kind)
	}
}

// native returns the Go value used when the preference is serialized to YAML
func (v Value) native() any {
	switch v.kind {
	case KindInt:
		return v.num
	case KindBool:
		return v.flag
	default:
		return v.str
	}
}

// fromNative converts a decoded YAML scalar into a Value.
// Reports false for anything that is not a string, int or bool.
func fromNative(raw any) (Value, bool) {
	switch x := raw.(type) {
	case string:
		return StringValue(x), true
	case int:
		return IntValue(x), true
	case int64:
		return IntValue(int(x)), true
	case uint64:
		return IntValue(int(x)), true
	case bool:
		return BoolValue(x), true
	default:
		return Value{}, false
	}
}

// Entry is one key/value pair of a commit batch
type Entry struct {
	Key   Key
	Value Value
}
