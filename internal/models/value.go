package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ValueKind discriminates the payload carried by a Value.
type ValueKind uint8

const (
	ValueNull ValueKind = iota
	ValueString
	ValueBool
)

func (k ValueKind) String() string {
	switch k {
	case ValueString:
		return "string"
	case ValueBool:
		return "bool"
	default:
		return "null"
	}
}

// Value is a field value as exchanged with the review backend: null, a string or a bool.
type Value struct {
	kind ValueKind
	str  string
	flag bool
}

// Null returns the absent value.
func Null() Value { return Value{} }

// String wraps a string value.
func String(s string) Value { return Value{kind: ValueString, str: s} }

// Bool wraps a boolean value.
func Bool(b bool) Value { return Value{kind: ValueBool, flag: b} }

// Kind reports which variant the value holds.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether the value is absent.
func (v Value) IsNull() bool { return v.kind == ValueNull }

// Str returns the string payload and whether the value is a string.
func (v Value) Str() (string, bool) { return v.str, v.kind == ValueString }

// Flag returns the boolean payload and whether the value is a bool.
func (v Value) Flag() (bool, bool) { return v.flag, v.kind == ValueBool }

// Equal compares kind and payload.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case ValueString:
		return v.str == other.str
	case ValueBool:
		return v.flag == other.flag
	default:
		return true
	}
}

// Text renders the value for tabular output.
func (v Value) Text() string {
	switch v.kind {
	case ValueString:
		return v.str
	case ValueBool:
		return strconv.FormatBool(v.flag)
	default:
		return ""
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ValueString:
		return json.Marshal(v.str)
	case ValueBool:
		return json.Marshal(v.flag)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts null, strings, booleans and numbers (kept as their literal text).
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Null()
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bool(b)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("unsupported field value %s", data)
		}
		*v = String(n.String())
	}
	return nil
}
