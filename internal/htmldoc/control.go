package htmldoc

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"autofill/internal/form"
)

// Control wraps one input, textarea or select node of a Document.
type Control struct {
	doc *Document
	sel *goquery.Selection
}

var _ form.Control = (*Control)(nil)

func (c *Control) Tag() string { return strings.ToLower(goquery.NodeName(c.sel)) }

func (c *Control) Attr(name string) (string, bool) { return c.sel.Attr(name) }

func (c *Control) inputType() string {
	t, _ := c.sel.Attr(form.AttrType)
	return strings.ToLower(strings.TrimSpace(t))
}

// Value follows the DOM: the value attribute for inputs ("on" for
// checkboxes and radios without one), the text of a textarea and the value
// of the selected option of a select.
func (c *Control) Value() string {
	switch c.Tag() {
	case "textarea":
		return c.sel.Text()
	case "select":
		return c.selectValue()
	}
	if v, ok := c.sel.Attr("value"); ok {
		return v
	}
	switch c.inputType() {
	case "checkbox", "radio":
		return "on"
	}
	return ""
}

func (c *Control) selectValue() string {
	opts := c.sel.Find("option")
	selected := opts.FilterFunction(func(_ int, o *goquery.Selection) bool {
		_, ok := o.Attr("selected")
		return ok
	})
	if selected.Length() > 0 {
		return optionValue(selected.First())
	}
	if _, multiple := c.sel.Attr("multiple"); multiple || opts.Length() == 0 {
		return ""
	}
	return optionValue(opts.First())
}

func optionValue(o *goquery.Selection) string {
	if v, ok := o.Attr("value"); ok {
		return v
	}
	return collapseSpace(o.Text())
}

func (c *Control) Options() []form.Option {
	if c.Tag() != "select" {
		return nil
	}
	var out []form.Option
	c.sel.Find("option").Each(func(_ int, o *goquery.Selection) {
		out = append(out, form.Option{Value: optionValue(o), Text: collapseSpace(o.Text())})
	})
	return out
}

func (c *Control) Checked() bool {
	_, ok := c.sel.Attr("checked")
	return ok
}

// ExplicitLabel finds the first label whose for attribute names the
// control's id.
func (c *Control) ExplicitLabel() (string, bool) {
	id, ok := c.sel.Attr(form.AttrID)
	if !ok || id == "" {
		return "", false
	}
	lbl := c.doc.doc.Find("label").FilterFunction(func(_ int, s *goquery.Selection) bool {
		f, ok := s.Attr("for")
		return ok && f == id
	}).First()
	if lbl.Length() == 0 {
		return "", false
	}
	return lbl.Text(), true
}

func (c *Control) WrappingLabel() (string, bool) {
	lbl := c.sel.Closest("label")
	if lbl.Length() == 0 {
		return "", false
	}
	return lbl.Text(), true
}

// PreviousSiblingText reads the preceding element sibling; text nodes in
// between are ignored.
func (c *Control) PreviousSiblingText() (string, bool) {
	prev := c.sel.Prev()
	if prev.Length() == 0 {
		return "", false
	}
	return prev.Text(), true
}

func (c *Control) SetValue(v string) {
	switch c.Tag() {
	case "textarea":
		c.sel.SetText(v)
	case "select":
		c.selectOption(v)
	default:
		c.sel.SetAttr("value", v)
	}
}

// selectOption marks the first option with value v as the only selected one.
// Without such an option the current selection is left alone.
func (c *Control) selectOption(v string) {
	opts := c.sel.Find("option")
	match := opts.FilterFunction(func(_ int, o *goquery.Selection) bool {
		return optionValue(o) == v
	}).First()
	if match.Length() == 0 {
		return
	}
	opts.RemoveAttr("selected")
	match.SetAttr("selected", "selected")
}

// SetChecked toggles the checked attribute. Checking a radio unchecks the
// other radios sharing its name in the same form.
func (c *Control) SetChecked(checked bool) {
	if !checked {
		c.sel.RemoveAttr("checked")
		return
	}
	if c.inputType() == "radio" {
		c.groupPeers().RemoveAttr("checked")
	}
	c.sel.SetAttr("checked", "checked")
}

func (c *Control) groupPeers() *goquery.Selection {
	name, ok := c.sel.Attr(form.AttrName)
	if !ok || name == "" {
		return c.sel.FilterFunction(func(int, *goquery.Selection) bool { return false })
	}
	owner := c.sel.Closest("form")
	root := c.doc.doc.Selection
	if owner.Length() > 0 {
		root = owner
	}
	self := c.sel.Get(0)
	return root.Find("input").FilterFunction(func(_ int, s *goquery.Selection) bool {
		if s.Get(0) == self {
			return false
		}
		t, _ := s.Attr(form.AttrType)
		n, _ := s.Attr(form.AttrName)
		return strings.EqualFold(strings.TrimSpace(t), "radio") && n == name
	})
}

func (c *Control) Dispatch(e form.Event) { c.doc.dispatch(c, e) }

// Selector is a short human-readable locator for logs and event records.
func (c *Control) Selector() string {
	tag := c.Tag()
	if id, ok := c.sel.Attr(form.AttrID); ok && id != "" {
		return tag + "#" + id
	}
	if name, ok := c.sel.Attr(form.AttrName); ok && name != "" {
		sel := tag + `[name="` + name + `"]`
		if v, ok := c.sel.Attr("value"); ok && (c.inputType() == "radio" || c.inputType() == "checkbox") {
			sel += `[value="` + v + `"]`
		}
		return sel
	}
	return tag
}
