package form

// fakeControl is an in-memory Control used to test the core without a
// rendered document.
type fakeControl struct {
	tag     string
	attrs   map[string]string
	value   string
	options []Option
	checked bool

	explicit string
	wrapping *string
	prev     *string

	events []Event
}

func input(typ string, attrs ...string) *fakeControl {
	c := &fakeControl{tag: "input", attrs: map[string]string{}}
	if typ != "" {
		c.attrs[AttrType] = typ
	}
	for i := 0; i+1 < len(attrs); i += 2 {
		c.attrs[attrs[i]] = attrs[i+1]
	}
	return c
}

func strPtr(s string) *string { return &s }

func (c *fakeControl) Tag() string { return c.tag }

func (c *fakeControl) Attr(name string) (string, bool) {
	v, ok := c.attrs[name]
	return v, ok
}

func (c *fakeControl) Value() string     { return c.value }
func (c *fakeControl) Options() []Option { return c.options }
func (c *fakeControl) Checked() bool     { return c.checked }

func (c *fakeControl) ExplicitLabel() (string, bool) {
	return c.explicit, c.explicit != ""
}

func (c *fakeControl) WrappingLabel() (string, bool) {
	if c.wrapping == nil {
		return "", false
	}
	return *c.wrapping, true
}

func (c *fakeControl) PreviousSiblingText() (string, bool) {
	if c.prev == nil {
		return "", false
	}
	return *c.prev, true
}

func (c *fakeControl) SetValue(v string)       { c.value = v }
func (c *fakeControl) SetChecked(checked bool) { c.checked = checked }
func (c *fakeControl) Dispatch(e Event)        { c.events = append(c.events, e) }

type fakeSurface []Control

func (s fakeSurface) Controls() []Control { return s }

func surfaceOf(cs ...*fakeControl) fakeSurface {
	out := make(fakeSurface, len(cs))
	for i, c := range cs {
		out[i] = c
	}
	return out
}
