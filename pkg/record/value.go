// Package record provides the structured record produced by document
// extraction: a tagged-variant JSON tree with ordered object keys, plus a
// deterministic deep merge for combining partial records.
//
// Values are immutable. Every operation that changes a tree returns a new
// Value and leaves its inputs untouched.
package record

import (
	"maps"
	"slices"
)

// Kind identifies the variant held by a Value.
type Kind uint8

// Value variants.
const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindObject
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindObject:
		return "object"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is a node in a structured record. The zero Value is null.
type Value struct {
	kind   Kind
	str    string
	num    float64
	flag   bool
	keys   []string
	fields map[string]Value
	items  []Value
}

// Field is a key/value pair used to build objects.
type Field struct {
	Key   string
	Value Value
}

// KV builds a Field.
func KV(key string, v Value) Field {
	return Field{Key: key, Value: v}
}

// Null returns the null value.
func Null() Value { return Value{} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, flag: b} }

// Object returns an object holding fields in the given order. A repeated key
// keeps its first position and its last value.
func Object(fields ...Field) Value {
	v := Value{kind: KindObject, fields: make(map[string]Value, len(fields))}
	for _, f := range fields {
		if _, ok := v.fields[f.Key]; !ok {
			v.keys = append(v.keys, f.Key)
		}
		v.fields[f.Key] = f.Value
	}
	return v
}

// List returns a list value.
func List(items ...Value) Value {
	return Value{kind: KindList, items: slices.Clone(items)}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsBlank reports whether v is null or the empty string. Blank values never
// overwrite anything during a merge.
func (v Value) IsBlank() bool {
	return v.kind == KindNull || (v.kind == KindString && v.str == "")
}

// IsEmpty reports whether v carries no data: null, "", {} or [].
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == ""
	case KindObject:
		return len(v.keys) == 0
	case KindList:
		return len(v.items) == 0
	default:
		return false
	}
}

// Str returns the string held by v.
func (v Value) Str() (string, bool) {
	return v.str, v.kind == KindString
}

// Num returns the number held by v.
func (v Value) Num() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// Boolean returns the boolean held by v.
func (v Value) Boolean() (bool, bool) {
	return v.flag, v.kind == KindBool
}

// Keys returns the object keys of v in order, or nil if v is not an object.
func (v Value) Keys() []string {
	return slices.Clone(v.keys)
}

// Get returns the value stored under key when v is an object.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	f, ok := v.fields[key]
	return f, ok
}

// Lookup follows a path of object keys from v.
func (v Value) Lookup(path ...string) (Value, bool) {
	cur := v
	for _, key := range path {
		next, ok := cur.Get(key)
		if !ok {
			return Value{}, false
		}
		cur = next
	}
	return cur, true
}

// Items returns the elements of v when v is a list.
func (v Value) Items() []Value {
	return slices.Clone(v.items)
}

// Strings returns the items of list v as text. String items are returned as
// is and other items as their JSON encoding. It returns nil for non-lists.
func (v Value) Strings() []string {
	if v.kind != KindList {
		return nil
	}
	out := make([]string, 0, len(v.items))
	for _, item := range v.items {
		if item.kind == KindString {
			out = append(out, item.str)
			continue
		}
		b, _ := item.MarshalJSON()
		out = append(out, string(b))
	}
	return out
}

// Len returns the number of object keys or list items in v.
func (v Value) Len() int {
	switch v.kind {
	case KindObject:
		return len(v.keys)
	case KindList:
		return len(v.items)
	default:
		return 0
	}
}

// With returns a copy of object v with key set to f. Setting a key on a
// non-object value starts a new object.
func (v Value) With(key string, f Value) Value {
	out := Value{kind: KindObject}
	if v.kind == KindObject {
		out.keys = slices.Clone(v.keys)
		out.fields = maps.Clone(v.fields)
	} else {
		out.fields = make(map[string]Value, 1)
	}
	if _, ok := out.fields[key]; !ok {
		out.keys = append(out.keys, key)
	}
	out.fields[key] = f
	return out
}

// Equal reports deep equality. Object key order is not significant.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.flag == o.flag
	case KindObject:
		if len(v.keys) != len(o.keys) {
			return false
		}
		for _, k := range v.keys {
			of, ok := o.fields[k]
			if !ok || !v.fields[k].Equal(of) {
				return false
			}
		}
		return true
	case KindList:
		return slices.EqualFunc(v.items, o.items, Value.Equal)
	default:
		return false
	}
}
