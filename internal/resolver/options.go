package resolver

import (
	"strings"
	"unicode"

	"autofill/internal/form"
)

// OptionValue maps a free-text answer for a select or radio field to the
// value of the option it names. Exact matches on option text, then option
// value, win; otherwise the longest option text or value found in the
// answer as whole words is used. Bool answers, answers for fields without
// options and answers naming no option are returned unchanged. Case is
// ignored.
func OptionValue(f form.FieldDescriptor, answer form.Value) form.Value {
	if answer.IsBool() || len(f.Options) == 0 {
		return answer
	}
	a := form.Lower(strings.TrimSpace(answer.String()))
	if a == "" {
		return answer
	}

	for _, o := range f.Options {
		if form.Lower(strings.TrimSpace(o.Text)) == a {
			return form.StringValue(o.Value)
		}
	}
	for _, o := range f.Options {
		if form.Lower(o.Value) == a {
			return form.StringValue(o.Value)
		}
	}

	words := wordString(a)
	best, bestLen := -1, 0
	for i, o := range f.Options {
		for _, s := range []string{o.Text, o.Value} {
			w := wordString(form.Lower(s))
			if w != "" && len(w) > bestLen && strings.Contains(words, w) {
				best, bestLen = i, len(w)
			}
		}
	}
	if best < 0 {
		return answer
	}
	return form.StringValue(f.Options[best].Value)
}

// wordString joins the letter and digit runs of s with single spaces and
// pads both ends, so a Contains check matches whole words only.
func wordString(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return ""
	}
	return " " + strings.Join(words, " ") + " "
}
