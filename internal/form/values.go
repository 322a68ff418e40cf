package form

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Value is a resolved field value: either a string or a bool.
type Value struct {
	str    string
	b      bool
	isBool bool
}

// StringValue returns a string Value.
func StringValue(s string) Value { return Value{str: s} }

// BoolValue returns a bool Value.
func BoolValue(b bool) Value { return Value{b: b, isBool: true} }

// ValueOf converts a decoded scalar into a Value. Numbers become their
// shortest decimal form and nil becomes the empty string.
func ValueOf(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return StringValue(""), nil
	case Value:
		return t, nil
	case string:
		return StringValue(t), nil
	case bool:
		return BoolValue(t), nil
	case json.Number:
		return StringValue(t.String()), nil
	case float64:
		return StringValue(strconv.FormatFloat(t, 'f', -1, 64)), nil
	case float32:
		return StringValue(strconv.FormatFloat(float64(t), 'f', -1, 32)), nil
	case int:
		return StringValue(strconv.Itoa(t)), nil
	case int64:
		return StringValue(strconv.FormatInt(t, 10)), nil
	case uint64:
		return StringValue(strconv.FormatUint(t, 10)), nil
	case []byte:
		return StringValue(string(t)), nil
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", v)
	}
}

// IsBool reports whether v holds a bool.
func (v Value) IsBool() bool { return v.isBool }

// True reports whether v is the boolean true.
func (v Value) True() bool { return v.isBool && v.b }

// Empty reports whether v counts as absent: the empty string or false.
func (v Value) Empty() bool {
	if v.isBool {
		return !v.b
	}
	return v.str == ""
}

// String returns the text form of v. Bools render as "true" or "false".
func (v Value) String() string {
	if v.isBool {
		return strconv.FormatBool(v.b)
	}
	return v.str
}

// MarshalJSON encodes v as a JSON string or bool.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.isBool {
		return json.Marshal(v.b)
	}
	return json.Marshal(v.str)
}

// UnmarshalJSON accepts a JSON string, bool, number or null.
func (v *Value) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	out, err := ValueOf(raw)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

// ValueMap is a flat key to Value mapping that remembers first-insertion
// order. Matching breaks ties by this order.
type ValueMap struct {
	keys []string
	vals map[string]Value
}

// NewValueMap returns an empty ValueMap.
func NewValueMap() *ValueMap {
	return &ValueMap{vals: make(map[string]Value)}
}

// ValueMapOf builds a ValueMap from alternating key/value pairs.
func ValueMapOf(pairs ...any) *ValueMap {
	m := NewValueMap()
	for i := 0; i+1 < len(pairs); i += 2 {
		k, _ := pairs[i].(string)
		v, err := ValueOf(pairs[i+1])
		if err != nil {
			continue
		}
		m.Set(k, v)
	}
	return m
}

// Set stores v under k. An existing key keeps its position.
func (m *ValueMap) Set(k string, v Value) {
	if m.vals == nil {
		m.vals = make(map[string]Value)
	}
	if _, ok := m.vals[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.vals[k] = v
}

// Get returns the value stored under k.
func (m *ValueMap) Get(k string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	v, ok := m.vals[k]
	return v, ok
}

// Delete removes k.
func (m *ValueMap) Delete(k string) {
	if m == nil {
		return
	}
	if _, ok := m.vals[k]; !ok {
		return
	}
	delete(m.vals, k)
	for i, key := range m.keys {
		if key == k {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// LookupFold returns the first entry, in order, whose key equals k ignoring case.
func (m *ValueMap) LookupFold(k string) (string, Value, bool) {
	if m == nil {
		return "", Value{}, false
	}
	for _, key := range m.keys {
		if EqualFold(key, k) {
			return key, m.vals[key], true
		}
	}
	return "", Value{}, false
}

// Keys returns the keys in order.
func (m *ValueMap) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

// Len returns the number of entries.
func (m *ValueMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Each calls fn for every entry in order.
func (m *ValueMap) Each(fn func(k string, v Value)) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		fn(k, m.vals[k])
	}
}

// Clone returns an independent copy of m.
func (m *ValueMap) Clone() *ValueMap {
	out := NewValueMap()
	m.Each(out.Set)
	return out
}

// MarshalJSON encodes m as a JSON object in key order.
func (m *ValueMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := m.vals[k].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a flat JSON object, keeping the document's key order.
// Nested objects and arrays are rejected.
func (m *ValueMap) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("value map: expected object, got %v", tok)
	}

	out := NewValueMap()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("value map: expected key, got %v", tok)
		}

		tok, err = dec.Token()
		if err != nil {
			return err
		}
		if _, ok := tok.(json.Delim); ok {
			return fmt.Errorf("value map: key %q: nested values are not supported", key)
		}
		v, err := ValueOf(tok)
		if err != nil {
			return fmt.Errorf("value map: key %q: %w", key, err)
		}
		out.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*m = *out
	return nil
}
