package form

import "strings"

// ResolveLabel derives a human-readable label for c. The first rule that
// yields a non-empty string wins:
//
//  1. a label bound to the control's id, trimmed
//  2. the wrapping label, minus the control's own value, trimmed
//  3. the previous sibling element's text, trimmed
//  4. the aria-label attribute
//  5. the placeholder, else the name, else ""
func ResolveLabel(c Control) string {
	if id := attr(c, AttrID); id != "" {
		if text, ok := c.ExplicitLabel(); ok {
			if s := strings.TrimSpace(text); s != "" {
				return s
			}
		}
	}

	if text, ok := c.WrappingLabel(); ok {
		if v := c.Value(); v != "" {
			text = strings.Replace(text, v, "", 1)
		}
		if s := strings.TrimSpace(text); s != "" {
			return s
		}
	}

	if text, ok := c.PreviousSiblingText(); ok {
		if s := strings.TrimSpace(text); s != "" {
			return s
		}
	}

	if aria := attr(c, AttrAriaLabel); strings.TrimSpace(aria) != "" {
		return aria
	}

	if p := attr(c, AttrPlaceholder); p != "" {
		return p
	}
	return attr(c, AttrName)
}
