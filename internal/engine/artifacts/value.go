package artifacts

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/segmentio/encoding/json"
)

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	ValueNull ValueKind = iota
	ValueString
	ValueNumber
	ValueList
)

// Value is an untyped node of a positional RPC payload: a string, a number,
// a list of values, or null. Objects and booleans collapse to null because
// no layout depends on them.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	list []Value
}

// Null is the zero Value.
var Null = Value{}

func String(s string) Value     { return Value{kind: ValueString, str: s} }
func Number(n float64) Value    { return Value{kind: ValueNumber, num: n} }
func List(items ...Value) Value { return Value{kind: ValueList, list: items} }
func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsNull() bool    { return v.kind == ValueNull }

// ParseValue decodes JSON into a Value.
func ParseValue(data []byte) (Value, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Null, nil
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Null, fmt.Errorf("parse value: %w", err)
	}
	return FromAny(raw), nil
}

// FromAny converts the output of a generic JSON decode into a Value.
func FromAny(x any) Value {
	switch t := x.(type) {
	case string:
		return String(t)
	case float64:
		return Number(t)
	case int:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case []any:
		items := make([]Value, len(t))
		for i, e := range t {
			items[i] = FromAny(e)
		}
		return List(items...)
	case []Value:
		return List(t...)
	case Value:
		return t
	default:
		return Null
	}
}

// Str returns the string held by v.
func (v Value) Str() (string, bool) {
	if v.kind != ValueString {
		return "", false
	}
	return v.str, true
}

// Number returns the number held by v.
func (v Value) Number() (float64, bool) {
	if v.kind != ValueNumber {
		return 0, false
	}
	return v.num, true
}

// Items returns the elements of a list value.
func (v Value) Items() ([]Value, bool) {
	if v.kind != ValueList {
		return nil, false
	}
	return v.list, true
}

// Len is the number of elements of a list, 0 for anything else.
func (v Value) Len() int {
	if v.kind != ValueList {
		return 0
	}
	return len(v.list)
}

// Index returns element i of a list value.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != ValueList || i < 0 || i >= len(v.list) {
		return Null, false
	}
	return v.list[i], true
}

// At is Index without the ok flag.
func (v Value) At(i int) Value {
	e, _ := v.Index(i)
	return e
}

// Path walks nested list indices and yields Null at the first mismatch.
func (v Value) Path(idx ...int) Value {
	cur := v
	for _, i := range idx {
		next, ok := cur.Index(i)
		if !ok {
			return Null
		}
		cur = next
	}
	return cur
}

// StrAt returns the string at the given path.
func (v Value) StrAt(idx ...int) (string, bool) {
	return v.Path(idx...).Str()
}

// IsHTTP reports whether v is a string starting with http:// or https://.
func (v Value) IsHTTP() bool {
	s, ok := v.Str()
	return ok && (strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://"))
}
