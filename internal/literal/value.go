package literal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	}

	return "unknown"
}

// Number keeps the integer/fractional distinction from the source text.
// 1 and 1.0 are different numbers for type-mismatch purposes.
type Number struct {
	IsInt bool
	Int   int64
	Float float64
}

func (n Number) String() string {
	if n.IsInt {
		return strconv.FormatInt(n.Int, 10)
	}

	return strconv.FormatFloat(n.Float, 'g', -1, 64)
}

// Field is one object member. Insertion order is preserved by Value.Fields.
type Field struct {
	Key   string
	Value *Value
}

// Value is the closed value tree produced by the parser. Exactly one of the
// payload fields is meaningful, selected by Kind. Values are not mutated
// after parsing.
type Value struct {
	Kind   Kind
	Bool   bool
	Number Number
	Str    string
	Items  []*Value
	Fields []Field
}

func Null() *Value { return &Value{Kind: KindNull} }

func BoolValue(b bool) *Value { return &Value{Kind: KindBool, Bool: b} }

func IntValue(i int64) *Value {
	return &Value{Kind: KindNumber, Number: Number{IsInt: true, Int: i}}
}

func FloatValue(f float64) *Value {
	return &Value{Kind: KindNumber, Number: Number{Float: f}}
}

func StringValue(s string) *Value { return &Value{Kind: KindString, Str: s} }

func ArrayValue(items ...*Value) *Value {
	return &Value{Kind: KindArray, Items: items}
}

func ObjectValue(fields ...Field) *Value {
	return &Value{Kind: KindObject, Fields: fields}
}

// Lookup returns the value of the named object field.
func (v *Value) Lookup(key string) (*Value, bool) {
	if v == nil || v.Kind != KindObject {
		return nil, false
	}

	for _, f := range v.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}

	return nil, false
}

// Text renders a scalar as a plain string, containers as compact JSON.
// Header values and query parameters go through this when they arrive as
// non-string literals.
func (v *Value) Text() string {
	if v == nil {
		return ""
	}

	switch v.Kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindNumber:
		return v.Number.String()
	case KindString:
		return v.Str
	}

	data, err := v.MarshalJSON()
	if err != nil {
		return ""
	}

	return string(data)
}

// Equal reports deep equality. Numbers only compare equal within the same
// integer/fractional class.
func Equal(a, b *Value) bool {
	if a == nil || b == nil {
		return a == b
	}

	if a.Kind != b.Kind {
		return false
	}

	switch a.Kind {
	case KindNull:
		return true
	case KindBool:
		return a.Bool == b.Bool
	case KindNumber:
		if a.Number.IsInt != b.Number.IsInt {
			return false
		}
		if a.Number.IsInt {
			return a.Number.Int == b.Number.Int
		}
		return a.Number.Float == b.Number.Float
	case KindString:
		return a.Str == b.Str
	case KindArray:
		if len(a.Items) != len(b.Items) {
			return false
		}
		for i := range a.Items {
			if !Equal(a.Items[i], b.Items[i]) {
				return false
			}
		}
		return true
	case KindObject:
		// Key order is presentation, not content.
		if len(a.Fields) != len(b.Fields) {
			return false
		}
		for i := range a.Fields {
			other, ok := b.Lookup(a.Fields[i].Key)
			if !ok || !Equal(a.Fields[i].Value, other) {
				return false
			}
		}
		return true
	}

	return false
}

// UnmarshalJSON decodes through the literal parser, so values survive a
// round trip through a result document. JSON is a subset of the accepted
// grammar.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}

	*v = *parsed

	return nil
}

// MarshalJSON writes object fields in insertion order, unlike a map round
// trip through encoding/json.
func (v *Value) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}

	switch v.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return []byte(strconv.FormatBool(v.Bool)), nil
	case KindNumber:
		return []byte(v.Number.String()), nil
	case KindString:
		return json.Marshal(v.Str)
	case KindArray:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range v.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			data, err := item.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(data)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case KindObject:
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, f := range v.Fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(f.Key)
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			data, err := f.Value.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(data)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	}

	return nil, fmt.Errorf("unknown value kind %d", v.Kind)
}
