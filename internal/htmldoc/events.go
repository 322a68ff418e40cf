package htmldoc

import (
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"autofill/internal/form"
)

// Dispatched is one notification raised on a control.
type Dispatched struct {
	Target string         `json:"target"`
	Type   form.EventType `json:"type"`
	Bubble bool           `json:"bubbles"`
	Source *Control       `json:"-"`
}

// Listener observes notifications reaching the element it is attached to.
type Listener func(target *Control, e form.Event)

type listener struct {
	node *html.Node // nil means the document
	fn   Listener
}

// Listen attaches fn to the document. It sees only bubbling notifications.
func (d *Document) Listen(fn Listener) {
	d.listeners = append(d.listeners, listener{fn: fn})
}

// ListenOn attaches fn to every element matching selector. A listener sees
// notifications raised on its element, and bubbling ones raised on
// descendants.
func (d *Document) ListenOn(selector string, fn Listener) {
	d.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		d.listeners = append(d.listeners, listener{node: s.Get(0), fn: fn})
	})
}

// Events returns every notification dispatched so far, in order.
func (d *Document) Events() []Dispatched {
	out := make([]Dispatched, len(d.events))
	copy(out, d.events)
	return out
}

// dispatch records e and delivers it from the target outwards.
func (d *Document) dispatch(c *Control, e form.Event) {
	d.events = append(d.events, Dispatched{Target: c.Selector(), Type: e.Type, Bubble: e.Bubbles, Source: c})

	target := c.sel.Get(0)
	for n := target; n != nil; n = n.Parent {
		if n != target && !e.Bubbles {
			return
		}
		for _, l := range d.listeners {
			if l.node == n {
				l.fn(c, e)
			}
		}
	}
	if !e.Bubbles {
		return
	}
	for _, l := range d.listeners {
		if l.node == nil {
			l.fn(c, e)
		}
	}
}
