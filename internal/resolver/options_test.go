package resolver

import (
	"testing"

	"autofill/internal/form"
)

func TestOptionValue(t *testing.T) {
	t.Parallel()

	gender := form.FieldDescriptor{ID: "gender", Kind: form.KindRadio, Options: []form.Option{
		{Value: "m", Text: "Male"},
		{Value: "f", Text: "Female"},
		{Value: "x", Text: ""},
	}}

	cases := []struct {
		name   string
		f      form.FieldDescriptor
		answer form.Value
		want   form.Value
	}{
		{"exact text", gender, form.StringValue("female"), form.StringValue("f")},
		{"exact value", gender, form.StringValue("M"), form.StringValue("m")},
		{"whole word in sentence", gender, form.StringValue("I am female."), form.StringValue("f")},
		{"single letter needs a word", gender, form.StringValue("prefer not to say"), form.StringValue("prefer not to say")},
		{"longest hit wins", form.FieldDescriptor{ID: "lvl", Options: []form.Option{
			{Value: "1", Text: "Senior"},
			{Value: "2", Text: "Senior Staff"},
		}}, form.StringValue("senior staff engineer"), form.StringValue("2")},
		{"bool passes", gender, form.BoolValue(true), form.BoolValue(true)},
		{"blank passes", gender, form.StringValue("  "), form.StringValue("  ")},
		{"no options", form.FieldDescriptor{ID: "why"}, form.StringValue("Male"), form.StringValue("Male")},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := OptionValue(tc.f, tc.answer); got != tc.want {
				t.Fatalf("want %#v got %#v", tc.want, got)
			}
		})
	}
}
