package apptree

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ValueKind discriminates the scalar kinds a property value can hold.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindBool
	KindStringList
)

// Value is a property-bag value: string, number, bool, null, or a list of
// strings. Source documents are dynamically shaped, so the union keeps wire
// encoding exact instead of passing `any` around.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	b    bool
	list []string
}

func Null() Value                 { return Value{kind: KindNull} }
func String(s string) Value       { return Value{kind: KindString, str: s} }
func Number(f float64) Value      { return Value{kind: KindNumber, num: f} }
func Bool(b bool) Value           { return Value{kind: KindBool, b: b} }
func StringList(l []string) Value { return Value{kind: KindStringList, list: l} }

// Kind returns the discriminant.
func (v Value) Kind() ValueKind { return v.kind }

// AsString returns the string payload and whether the value is a string.
func (v Value) AsString() (string, bool) {
	return v.str, v.kind == KindString
}

// AsNumber returns the numeric payload and whether the value is a number.
func (v Value) AsNumber() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// AsBool returns the bool payload and whether the value is a bool.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsStringList returns the list payload and whether the value is a list.
func (v Value) AsStringList() ([]string, bool) {
	return v.list, v.kind == KindStringList
}

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Text renders the value as display text. Numbers use the shortest
// round-trippable form; lists join with commas.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindStringList:
		out := ""
		for i, s := range v.list {
			if i > 0 {
				out += ", "
			}
			out += s
		}
		return out
	default:
		return ""
	}
}

// FromAny converts a decoded JSON scalar into a Value. Unsupported shapes
// (objects, mixed arrays) return false.
func FromAny(raw any) (Value, bool) {
	switch t := raw.(type) {
	case nil:
		return Null(), true
	case string:
		return String(t), true
	case float64:
		return Number(t), true
	case bool:
		return Bool(t), true
	case []any:
		list := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return Value{}, false
			}
			list = append(list, s)
		}
		return StringList(list), true
	default:
		return Value{}, false
	}
}

// MarshalJSON encodes the value as its bare JSON scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindStringList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	default:
		return nil, fmt.Errorf("unknown value kind %d", v.kind)
	}
}

// UnmarshalJSON decodes a bare JSON scalar into the union.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	val, ok := FromAny(raw)
	if !ok {
		return fmt.Errorf("unsupported property value: %s", string(data))
	}
	*v = val
	return nil
}
