package form

import (
	"encoding/json"
	"reflect"
	"testing"
)

// TestValueMap_JSONKeepsOrder verifies decoding keeps document key order,
// which matching relies on for tie breaking.
func TestValueMap_JSONKeepsOrder(t *testing.T) {
	t.Parallel()

	var m ValueMap
	src := `{"zeta":"z","alpha":true,"age":42,"ratio":0.5,"none":null}`
	if err := json.Unmarshal([]byte(src), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := []string{"zeta", "alpha", "age", "ratio", "none"}
	if !reflect.DeepEqual(m.Keys(), want) {
		t.Fatalf("keys: want %v got %v", want, m.Keys())
	}
	if v, _ := m.Get("alpha"); !v.True() {
		t.Fatalf("alpha should be bool true, got %#v", v)
	}
	if v, _ := m.Get("age"); v.String() != "42" || v.IsBool() {
		t.Fatalf("age: got %#v", v)
	}
	if v, _ := m.Get("none"); !v.Empty() {
		t.Fatalf("null should decode to an empty value")
	}

	out, err := json.Marshal(&m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"zeta":"z","alpha":true,"age":"42","ratio":"0.5","none":""}` {
		t.Fatalf("marshal: got %s", out)
	}
}

// TestValueMap_RejectsNested verifies nested structures are refused.
func TestValueMap_RejectsNested(t *testing.T) {
	t.Parallel()

	var m ValueMap
	if err := json.Unmarshal([]byte(`{"a":{"b":1}}`), &m); err == nil {
		t.Fatalf("expected error for nested object")
	}
	if err := json.Unmarshal([]byte(`["a"]`), &m); err == nil {
		t.Fatalf("expected error for array root")
	}
}

// TestValueMap_SetKeepsPosition verifies overwriting a key keeps its slot.
func TestValueMap_SetKeepsPosition(t *testing.T) {
	t.Parallel()

	m := ValueMapOf("a", "1", "b", "2")
	m.Set("a", StringValue("3"))
	if !reflect.DeepEqual(m.Keys(), []string{"a", "b"}) {
		t.Fatalf("keys: got %v", m.Keys())
	}
	if v, _ := m.Get("a"); v.String() != "3" {
		t.Fatalf("a: got %q", v.String())
	}

	m.Delete("a")
	if m.Len() != 1 || m.Keys()[0] != "b" {
		t.Fatalf("after delete: %v", m.Keys())
	}
}

// TestValueMap_LookupFold verifies the case-insensitive lookup returns the
// first matching key in order.
func TestValueMap_LookupFold(t *testing.T) {
	t.Parallel()

	m := ValueMapOf("email", "a@b.c", "PassWord", "s3cret", "password", "other")
	k, v, ok := m.LookupFold("password")
	if !ok || k != "PassWord" || v.String() != "s3cret" {
		t.Fatalf("LookupFold: got %q %q %v", k, v.String(), ok)
	}

	var nilMap *ValueMap
	if _, _, ok := nilMap.LookupFold("password"); ok {
		t.Fatalf("nil map should not match")
	}
}

// TestValue_Empty verifies which values count as absent.
func TestValue_Empty(t *testing.T) {
	t.Parallel()

	if !StringValue("").Empty() || !BoolValue(false).Empty() {
		t.Fatalf("empty string and false must be empty")
	}
	if StringValue("no").Empty() || BoolValue(true).Empty() {
		t.Fatalf("non-empty values reported empty")
	}
	if BoolValue(true).String() != "true" {
		t.Fatalf("bool text form")
	}
}
