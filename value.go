package ffopts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind tags the representation held by a Value.
type Kind uint8

const (
	KindString Kind = iota + 1
	KindInt
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int64"
	default:
		return "invalid"
	}
}

// Value is a type-tagged option value. Only the field matching Kind is
// meaningful.
type Value struct {
	Kind Kind
	Str  string
	Int  int64
}

// StringValue wraps s as a string-typed Value.
func StringValue(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// IntValue wraps n as an integer-typed Value.
func IntValue(n int64) Value {
	return Value{Kind: KindInt, Int: n}
}

// Valid reports whether the value carries a known kind.
func (v Value) Valid() bool {
	return v.Kind == KindString || v.Kind == KindInt
}

// Any returns the underlying Go value (string or int64).
func (v Value) Any() any {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindInt:
		return v.Int
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	default:
		return "<invalid>"
	}
}

// MarshalJSON encodes the value as a bare JSON string or integer.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(v.Str)
	case KindInt:
		return []byte(strconv.FormatInt(v.Int, 10)), nil
	default:
		return nil, fmt.Errorf("%w: kind %d", ErrUnsupportedValue, v.Kind)
	}
}

// UnmarshalJSON accepts a JSON string, an integral number or a boolean
// (stored as 0 or 1).
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("%w: empty payload", ErrUnsupportedValue)
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StringValue(s)
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = boolValue(b)
		return nil
	}
	parsed, err := ValueOf(json.Number(data))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ValueOf converts a loosely typed Go value into a Value. Strings map to string
// values; signed and unsigned integers, integral floats, json.Number and
// booleans map to integer values. Everything else is rejected with
// ErrUnsupportedValue.
func ValueOf(raw any) (Value, error) {
	switch typed := raw.(type) {
	case Value:
		if !typed.Valid() {
			return Value{}, fmt.Errorf("%w: kind %d", ErrUnsupportedValue, typed.Kind)
		}
		return typed, nil
	case string:
		return StringValue(typed), nil
	case bool:
		return boolValue(typed), nil
	case int:
		return IntValue(int64(typed)), nil
	case int8:
		return IntValue(int64(typed)), nil
	case int16:
		return IntValue(int64(typed)), nil
	case int32:
		return IntValue(int64(typed)), nil
	case int64:
		return IntValue(typed), nil
	case uint:
		return uintValue(uint64(typed))
	case uint8:
		return IntValue(int64(typed)), nil
	case uint16:
		return IntValue(int64(typed)), nil
	case uint32:
		return IntValue(int64(typed)), nil
	case uint64:
		return uintValue(typed)
	case float32:
		return floatValue(float64(typed))
	case float64:
		return floatValue(typed)
	case json.Number:
		n, err := typed.Int64()
		if err != nil {
			return Value{}, fmt.Errorf("%w: %s is not an int64", ErrUnsupportedValue, typed.String())
		}
		return IntValue(n), nil
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedValue, raw)
	}
}

func boolValue(b bool) Value {
	if b {
		return IntValue(1)
	}
	return IntValue(0)
}

func uintValue(n uint64) (Value, error) {
	if n > math.MaxInt64 {
		return Value{}, fmt.Errorf("%w: %d overflows int64", ErrUnsupportedValue, n)
	}
	return IntValue(int64(n)), nil
}

func floatValue(f float64) (Value, error) {
	if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return Value{}, fmt.Errorf("%w: %v is not integral", ErrUnsupportedValue, f)
	}
	return IntValue(int64(f)), nil
}
