package match

import (
	"strings"
	"unicode"

	"autofill/internal/form"
)

// Negated reports whether label is phrased negatively, as in "I do not
// require sponsorship" or "I don't need a visa". Words are compared whole,
// so "notice" or "cannoli" do not count.
func Negated(label string) bool {
	label = strings.ReplaceAll(form.Lower(label), "’", "'")
	words := strings.FieldsFunc(label, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	for _, w := range words {
		switch {
		case w == "not", w == "cannot", w == "never":
			return true
		case strings.HasSuffix(w, "n't"):
			return true
		}
	}
	return false
}

var (
	yesWords = map[string]bool{"yes": true, "y": true, "true": true, "1": true}
	noWords  = map[string]bool{"no": true, "n": true, "false": true, "0": true}
)

// Invert flips a yes/no style value to "no" or "yes". Bools become the
// strings too, so an inverted true still reaches the fill step as "no"
// rather than being skipped as empty. ok is false when v is not yes/no.
func Invert(v form.Value) (form.Value, bool) {
	if v.IsBool() {
		if v.True() {
			return form.StringValue("no"), true
		}
		return form.StringValue("yes"), true
	}
	s := form.Lower(strings.TrimSpace(v.String()))
	switch {
	case yesWords[s]:
		return form.StringValue("no"), true
	case noWords[s]:
		return form.StringValue("yes"), true
	}
	return v, false
}
