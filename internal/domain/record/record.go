// Package record models the loosely typed rows returned by upstream services.
//
// A Record is a map of field name to Value. Values are a closed variant
// (null, string, number, bool, map, list) and every accessor returns an
// ok flag instead of panicking on a type mismatch.
package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind enumerates the variants a Value can hold.
type Kind uint8

const (
	Null Kind = iota
	String
	Number
	Bool
	Map
	List
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Number:
		return "number"
	case Bool:
		return "bool"
	case Map:
		return "map"
	case List:
		return "list"
	default:
		return "null"
	}
}

// Value is a single field value.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	m    Record
	l    []Value
}

// Record is one upstream row.
type Record map[string]Value

// Constructors.
func NullValue() Value            { return Value{} }
func StringValue(s string) Value  { return Value{kind: String, str: s} }
func NumberValue(f float64) Value { return Value{kind: Number, num: f} }
func BoolValue(b bool) Value      { return Value{kind: Bool, b: b} }
func MapValue(r Record) Value     { return Value{kind: Map, m: r} }
func ListValue(l []Value) Value   { return Value{kind: List, l: l} }

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v holds no value.
func (v Value) IsNull() bool { return v.kind == Null }

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) {
	if v.kind != String {
		return "", false
	}
	return v.str, true
}

// AsNumber returns the number held by v. Numeric strings are accepted since
// upstream services are inconsistent about quoting ids and risk scores.
func (v Value) AsNumber() (float64, bool) {
	switch v.kind {
	case Number:
		return v.num, true
	case String:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// AsBool returns the bool held by v.
func (v Value) AsBool() (bool, bool) {
	if v.kind != Bool {
		return false, false
	}
	return v.b, true
}

// AsMap returns the nested record held by v.
func (v Value) AsMap() (Record, bool) {
	if v.kind != Map {
		return nil, false
	}
	return v.m, true
}

// AsList returns the list held by v.
func (v Value) AsList() ([]Value, bool) {
	if v.kind != List {
		return nil, false
	}
	return v.l, true
}

// Text renders scalars as text, used where a label is expected (ids, names).
func (v Value) Text() (string, bool) {
	switch v.kind {
	case String:
		return v.str, true
	case Number:
		return strconv.FormatFloat(v.num, 'f', -1, 64), true
	case Bool:
		return strconv.FormatBool(v.b), true
	default:
		return "", false
	}
}

// Equal reports deep equality.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case Null:
		return true
	case String:
		return v.str == o.str
	case Number:
		return v.num == o.num
	case Bool:
		return v.b == o.b
	case Map:
		if len(v.m) != len(o.m) {
			return false
		}
		for k, x := range v.m {
			y, ok := o.m[k]
			if !ok || !x.Equal(y) {
				return false
			}
		}
		return true
	case List:
		if len(v.l) != len(o.l) {
			return false
		}
		for i := range v.l {
			if !v.l[i].Equal(o.l[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Interface converts v back to plain Go values.
func (v Value) Interface() any {
	switch v.kind {
	case String:
		return v.str
	case Number:
		return v.num
	case Bool:
		return v.b
	case Map:
		out := make(map[string]any, len(v.m))
		for k, x := range v.m {
			out[k] = x.Interface()
		}
		return out
	case List:
		out := make([]any, len(v.l))
		for i, x := range v.l {
			out[i] = x.Interface()
		}
		return out
	default:
		return nil
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*v = FromAny(raw)
	return nil
}

// Get returns the field value and whether it is present and non-null.
func (r Record) Get(field string) (Value, bool) {
	v, ok := r[field]
	if !ok || v.IsNull() {
		return Value{}, false
	}
	return v, true
}

// Has reports whether field is present and non-null.
func (r Record) Has(field string) bool {
	_, ok := r.Get(field)
	return ok
}

// String returns a string field.
func (r Record) String(field string) (string, bool) {
	v, ok := r.Get(field)
	if !ok {
		return "", false
	}
	return v.AsString()
}

// Text returns a scalar field rendered as text.
func (r Record) Text(field string) (string, bool) {
	v, ok := r.Get(field)
	if !ok {
		return "", false
	}
	return v.Text()
}

// Number returns a numeric field.
func (r Record) Number(field string) (float64, bool) {
	v, ok := r.Get(field)
	if !ok {
		return 0, false
	}
	return v.AsNumber()
}

// Int returns a numeric field truncated toward zero.
func (r Record) Int(field string) (int, bool) {
	f, ok := r.Number(field)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// Bool returns a boolean field.
func (r Record) Bool(field string) (bool, bool) {
	v, ok := r.Get(field)
	if !ok {
		return false, false
	}
	return v.AsBool()
}

// Map returns a nested record field.
func (r Record) Map(field string) (Record, bool) {
	v, ok := r.Get(field)
	if !ok {
		return nil, false
	}
	return v.AsMap()
}

// Keys returns the record's field names sorted.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON implements json.Marshaler.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(MapValue(r).Interface())
}

// FromAny converts a decoded JSON value into a Value.
func FromAny(x any) Value {
	switch t := x.(type) {
	case nil:
		return NullValue()
	case string:
		return StringValue(t)
	case bool:
		return BoolValue(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return StringValue(t.String())
		}
		return NumberValue(f)
	case float64:
		return NumberValue(t)
	case float32:
		return NumberValue(float64(t))
	case int:
		return NumberValue(float64(t))
	case int64:
		return NumberValue(float64(t))
	case map[string]any:
		return MapValue(FromMap(t))
	case []any:
		out := make([]Value, len(t))
		for i, e := range t {
			out[i] = FromAny(e)
		}
		return ListValue(out)
	case Value:
		return t
	case Record:
		return MapValue(t)
	default:
		return StringValue(fmt.Sprint(t))
	}
}

// FromMap converts a decoded JSON object into a Record and normalizes field
// names through the alias table.
func FromMap(m map[string]any) Record {
	r := make(Record, len(m))
	for k, x := range m {
		r[k] = FromAny(x)
	}
	return Normalize(r)
}
