// Package match pairs field descriptors with known facts by fuzzy comparison
// of the field's label, name, placeholder and id against the fact keys.
package match

import (
	"strings"
	"unicode/utf8"

	"autofill/internal/form"
)

// DefaultThreshold is the score a match must strictly exceed.
const DefaultThreshold = 0.5

// Score weights, one per rule, applied in order of specificity.
const (
	scoreExact     = 1.0
	scoreSubstring = 0.9
	scoreTokens    = 0.7
	scoreChars     = 0.5
)

// Matcher selects, for each field, the known key whose normalized form best
// resembles one of the field's terms.
type Matcher struct {
	Threshold float64
}

// New returns a Matcher. A non-positive threshold selects DefaultThreshold.
func New(threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Matcher{Threshold: threshold}
}

// Result describes the winning pair for one field. Inverted is set by
// callers that flipped Value for a negated label.
type Result struct {
	FieldID  string     `json:"field_id"`
	Term     string     `json:"term"`
	Key      string     `json:"key"`
	Score    float64    `json:"score"`
	Value    form.Value `json:"value"`
	Inverted bool       `json:"inverted,omitempty"`
}

// Match returns field id -> known value for every field with a qualifying
// match, in field order. Fields without one are absent.
func (m *Matcher) Match(fields []form.FieldDescriptor, known *form.ValueMap) *form.ValueMap {
	out := form.NewValueMap()
	for _, r := range m.Explain(fields, known) {
		out.Set(r.FieldID, r.Value)
	}
	return out
}

// Explain is Match with the winning term, key and score kept.
func (m *Matcher) Explain(fields []form.FieldDescriptor, known *form.ValueMap) []Result {
	keys := known.Keys()
	normalized := make([]string, len(keys))
	for i, k := range keys {
		normalized[i] = NormalizeKey(k)
	}

	var out []Result
	for _, f := range fields {
		terms := f.Terms()
		for i := range terms {
			terms[i] = form.Lower(terms[i])
		}

		var best Result
		found := false
		for i, key := range keys {
			nk := normalized[i]
			if nk == "" {
				continue
			}
			for _, term := range terms {
				s := Score(term, nk)
				if s > m.Threshold && (!found || s > best.Score) {
					v, _ := known.Get(key)
					best = Result{FieldID: f.ID, Term: term, Key: key, Score: s, Value: v}
					found = true
				}
			}
		}
		if found {
			out = append(out, best)
		}
	}
	return out
}

// Match runs a Matcher with DefaultThreshold.
func Match(fields []form.FieldDescriptor, known *form.ValueMap) *form.ValueMap {
	return New(DefaultThreshold).Match(fields, known)
}

// NormalizeKey lower-cases k and turns underscores into spaces.
func NormalizeKey(k string) string {
	return strings.ReplaceAll(form.Lower(k), "_", " ")
}

// Score rates the similarity of a lower-cased term and a normalized key,
// using the first rule that applies:
//
//  1. equal: 1.0
//  2. either contains the other: 0.9
//  3. shared whitespace tokens: 0.7 * shared / max(token counts)
//  4. otherwise: 0.5 * distinct term characters found in key / max(lengths)
func Score(term, key string) float64 {
	if term == key {
		return scoreExact
	}
	if strings.Contains(term, key) || strings.Contains(key, term) {
		return scoreSubstring
	}

	termTokens := tokenSet(term)
	keyTokens := tokenSet(key)
	shared := 0
	for tok := range termTokens {
		if keyTokens[tok] {
			shared++
		}
	}
	if shared > 0 {
		return scoreTokens * float64(shared) / float64(max(len(termTokens), len(keyTokens)))
	}

	longest := max(utf8.RuneCountInString(term), utf8.RuneCountInString(key))
	if longest == 0 {
		return 0
	}
	seen := make(map[rune]bool)
	common := 0
	for _, r := range term {
		if seen[r] {
			continue
		}
		seen[r] = true
		if strings.ContainsRune(key, r) {
			common++
		}
	}
	return scoreChars * float64(common) / float64(longest)
}

func tokenSet(s string) map[string]bool {
	out := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		out[tok] = true
	}
	return out
}
