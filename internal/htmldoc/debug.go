package htmldoc

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DebugPrintSelector writes every match of selector in the document, one
// block per match followed by a blank line: trimmed text when textOnly is
// set, outer HTML otherwise. Used to find the right scope selector for a page.
func (d *Document) DebugPrintSelector(w io.Writer, selector string, textOnly bool) int {
	n := 0
	d.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		n++
		if textOnly {
			fmt.Fprintf(w, "%s\n\n", strings.TrimSpace(s.Text()))
			return
		}
		out, err := goquery.OuterHtml(s)
		if err != nil {
			out, _ = s.Html()
		}
		fmt.Fprintf(w, "%s\n\n", out)
	})
	return n
}
