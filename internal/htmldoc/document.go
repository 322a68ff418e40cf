// Package htmldoc is a goquery-backed scan surface: it parses an HTML
// document, exposes its form controls to the extractor, applies writes back
// into the DOM and records the notifications those writes dispatch.
package htmldoc

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"autofill/internal/form"
)

// DefaultScope selects the containers whose controls are scanned.
const DefaultScope = "form"

const controlSelector = "input, textarea, select"

// Document is a parsed HTML page acting as a form.Surface.
//
// A Document is not safe for concurrent use; one extraction and fill cycle
// at a time.
type Document struct {
	doc   *goquery.Document
	scope string

	controls  map[*html.Node]*Control
	listeners []listener
	events    []Dispatched
}

var _ form.Surface = (*Document)(nil)

// Option configures a Document.
type Option func(*Document)

// WithScope sets the CSS selector of the containers to scan. An empty
// selector keeps DefaultScope.
func WithScope(selector string) Option {
	return func(d *Document) {
		if strings.TrimSpace(selector) != "" {
			d.scope = selector
		}
	}
}

// Parse reads an HTML document from r.
func Parse(r io.Reader, opts ...Option) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	d := &Document{
		doc:      doc,
		scope:    DefaultScope,
		controls: make(map[*html.Node]*Control),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// ParseString parses an HTML string.
func ParseString(s string, opts ...Option) (*Document, error) {
	return Parse(strings.NewReader(s), opts...)
}

// Scope returns the container selector in use.
func (d *Document) Scope() string { return d.scope }

// Controls returns every input, textarea and select inside the scope
// containers, in document order.
func (d *Document) Controls() []form.Control {
	var out []form.Control
	d.doc.Find(d.scope).Find(controlSelector).Each(func(_ int, s *goquery.Selection) {
		out = append(out, d.control(s))
	})
	return out
}

// control returns the stable handle for the node of s.
func (d *Document) control(s *goquery.Selection) *Control {
	n := s.Get(0)
	if c, ok := d.controls[n]; ok {
		return c
	}
	c := &Control{doc: d, sel: s.First()}
	d.controls[n] = c
	return c
}

// Find returns the control handles matching selector anywhere in the document.
func (d *Document) Find(selector string) []*Control {
	var out []*Control
	d.doc.Find(selector).FilterFunction(func(_ int, s *goquery.Selection) bool {
		switch goquery.NodeName(s) {
		case "input", "textarea", "select":
			return true
		}
		return false
	}).Each(func(_ int, s *goquery.Selection) {
		out = append(out, d.control(s))
	})
	return out
}

// HTML renders the current state of the document.
func (d *Document) HTML() (string, error) {
	out, err := d.doc.Html()
	if err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return out, nil
}

// WriteTo renders the document to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	s, err := d.HTML()
	if err != nil {
		return 0, err
	}
	n, err := io.WriteString(w, s)
	return int64(n), err
}

// collapseSpace trims s and folds internal whitespace runs into one space,
// the way option text is presented.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
