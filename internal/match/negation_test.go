package match

import (
	"testing"

	"autofill/internal/form"
)

func TestNegated(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"I do not require sponsorship":      true,
		"I don't need a visa":               true,
		"I don’t need a visa":               true,
		"Cannot work weekends":              true,
		"Are you NOT a robot?":              true,
		"Do you require sponsorship?":       false,
		"Notice period":                     false,
		"Favourite pastry (cannoli, donut)": false,
		"":                                  false,
	}
	for label, want := range cases {
		if got := Negated(label); got != want {
			t.Fatalf("Negated(%q): want %v got %v", label, want, got)
		}
	}
}

func TestInvert(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   form.Value
		want form.Value
		ok   bool
	}{
		{form.StringValue("Yes"), form.StringValue("no"), true},
		{form.StringValue(" y "), form.StringValue("no"), true},
		{form.StringValue("1"), form.StringValue("no"), true},
		{form.StringValue("FALSE"), form.StringValue("yes"), true},
		{form.StringValue("n"), form.StringValue("yes"), true},
		{form.BoolValue(true), form.StringValue("no"), true},
		{form.BoolValue(false), form.StringValue("yes"), true},
		{form.StringValue("Jane"), form.StringValue("Jane"), false},
	}
	for _, tc := range cases {
		got, ok := Invert(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("Invert(%#v): want (%#v, %v) got (%#v, %v)", tc.in, tc.want, tc.ok, got, ok)
		}
	}
}
