package facts

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"autofill/internal/form"
)

var (
	stripPolicyOnce sync.Once
	stripPolicy     *bluemonday.Policy
)

func stripper() *bluemonday.Policy {
	stripPolicyOnce.Do(func() {
		stripPolicy = bluemonday.StrictPolicy()
	})
	return stripPolicy
}

// StripText removes every tag from s and decodes entities, leaving plain
// text suitable for a form control.
func StripText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	return strings.TrimSpace(html.UnescapeString(stripper().Sanitize(s)))
}

// StripMarkup returns a copy of m with markup removed from string values.
// Used on values that come from remote resolvers.
func StripMarkup(m *form.ValueMap) *form.ValueMap {
	out := form.NewValueMap()
	m.Each(func(k string, v form.Value) {
		if v.IsBool() {
			out.Set(k, v)
			return
		}
		out.Set(k, form.StringValue(StripText(v.String())))
	})
	return out
}
