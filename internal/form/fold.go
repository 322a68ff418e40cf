package form

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Casers carry state and must not be shared between goroutines, so each
// helper builds its own.

// Lower returns s in lower case using language-neutral rules.
func Lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// Fold returns the case-folded form of s for caseless comparison.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// EqualFold reports whether a and b are equal under case folding.
func EqualFold(a, b string) bool {
	return Fold(a) == Fold(b)
}

// ContainsFold reports whether sub is within s under case folding.
func ContainsFold(s, sub string) bool {
	return strings.Contains(Fold(s), Fold(sub))
}
