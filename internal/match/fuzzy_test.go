package match

import (
	"math"
	"testing"

	"autofill/internal/form"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

// TestScore_Rules exercises every scoring rule and their order.
func TestScore_Rules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		term, key string
		want      float64
	}{
		{name: "exact", term: "first name", key: "first name", want: 1.0},
		{name: "term_contains_key", term: "your email address", key: "email", want: 0.9},
		{name: "key_contains_term", term: "phone", key: "phone number", want: 0.9},
		{name: "shared_tokens", term: "work phone", key: "phone number", want: 0.7 * 1 / 2},
		{name: "shared_tokens_uses_larger_set", term: "home city", key: "city of birth", want: 0.7 * 1 / 3},
		{name: "char_overlap", term: "abc", key: "bcd", want: 0.5 * 2 / 3},
		{name: "char_overlap_distinct", term: "aaa", key: "ab", want: 0.5 * 1 / 3},
		{name: "no_overlap", term: "xyz", key: "abc", want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Score(tc.term, tc.key); !almostEqual(got, tc.want) {
				t.Fatalf("Score(%q,%q): want %v got %v", tc.term, tc.key, tc.want, got)
			}
		})
	}
}

// TestMatch_ExactLabel covers the canonical example: label "First Name"
// against key first_name resolves to the key's value.
func TestMatch_ExactLabel(t *testing.T) {
	t.Parallel()

	fields := []form.FieldDescriptor{{ID: "fname", Name: "fname", Label: "First Name"}}
	known := form.ValueMapOf("first_name", "Jane")

	res := New(DefaultThreshold).Explain(fields, known)
	if len(res) != 1 {
		t.Fatalf("want 1 result, got %d", len(res))
	}
	if res[0].Key != "first_name" || res[0].Score != 1.0 || res[0].Value.String() != "Jane" {
		t.Fatalf("unexpected result: %#v", res[0])
	}

	got := Match(fields, known)
	if v, ok := got.Get("fname"); !ok || v.String() != "Jane" {
		t.Fatalf("Match: got %#v %v", v, ok)
	}
}

// TestMatch_ExactBeatsOtherTerms verifies an exact term wins even when
// another term of the same field partially matches an earlier key.
func TestMatch_ExactBeatsOtherTerms(t *testing.T) {
	t.Parallel()

	fields := []form.FieldDescriptor{{ID: "x", Label: "Email", Name: "contact_email_address"}}
	known := form.ValueMapOf("contact", "wrong", "email", "jane@example.com")

	got := Match(fields, known)
	if v, _ := got.Get("x"); v.String() != "jane@example.com" {
		t.Fatalf("want exact email match, got %q", v.String())
	}
}

// TestMatch_ThresholdIsExclusive verifies a score of exactly the threshold is
// rejected.
func TestMatch_ThresholdIsExclusive(t *testing.T) {
	t.Parallel()

	// "a b" vs "b c": one shared token out of two, 0.35.
	fields := []form.FieldDescriptor{{ID: "f", Label: "a b"}}
	known := form.ValueMapOf("b_c", "v")

	if got := New(0.35).Match(fields, known); got.Len() != 0 {
		t.Fatalf("score equal to threshold must be rejected, got %v", got.Keys())
	}
	if got := New(0.3).Match(fields, known); got.Len() != 1 {
		t.Fatalf("score above threshold must be accepted")
	}
}

// TestMatch_TiesUseKeyOrder verifies the first-seen key wins a tie.
func TestMatch_TiesUseKeyOrder(t *testing.T) {
	t.Parallel()

	fields := []form.FieldDescriptor{{ID: "f", Label: "mobile phone number"}}
	known := form.ValueMapOf("phone", "first", "mobile", "second")

	got := Match(fields, known)
	if v, _ := got.Get("f"); v.String() != "first" {
		t.Fatalf("tie should go to the first key, got %q", v.String())
	}
}

// TestMatch_NoQualifyingMatch verifies unmatched fields are simply absent.
func TestMatch_NoQualifyingMatch(t *testing.T) {
	t.Parallel()

	fields := []form.FieldDescriptor{
		{ID: "CustomXYZ123", Name: "CustomXYZ123"},
		{ID: "email", Name: "email"},
	}
	known := form.ValueMapOf("first_name", "Jane", "email", "jane@example.com", "", "ignored")

	got := Match(fields, known)
	if _, ok := got.Get("CustomXYZ123"); ok {
		t.Fatalf("CustomXYZ123 should not match")
	}
	if got.Len() != 1 {
		t.Fatalf("want only email matched, got %v", got.Keys())
	}
}

// TestMatch_BoolValuesPassThrough verifies values keep their type.
func TestMatch_BoolValuesPassThrough(t *testing.T) {
	t.Parallel()

	fields := []form.FieldDescriptor{{ID: "relocate", Kind: form.KindCheckbox, Label: "Willing to relocate?"}}
	known := form.ValueMapOf("willing_to_relocate", true)

	got := Match(fields, known)
	if v, _ := got.Get("relocate"); !v.True() {
		t.Fatalf("want bool true, got %#v", v)
	}
}
