package whoscored

import (
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"
)

var wsRe = regexp.MustCompile(`\s+`)

// block-level tags that break a line in rendered text; inline tags do not.
var blockTags = map[string]struct{}{
	"br": {}, "div": {}, "p": {}, "li": {}, "ul": {}, "ol": {},
	"table": {}, "tr": {}, "td": {}, "th": {}, "h1": {}, "h2": {}, "h3": {},
}

// ExtractTable parses rendered HTML and reads the element at selector into a
// RawTable. It returns ErrTableNotFound when the selector matches nothing.
func ExtractTable(r io.Reader, selector string) (RawTable, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return RawTable{}, errors.Wrap(err, "parse html")
	}
	return ExtractFromDocument(doc, selector)
}

func ExtractFromDocument(doc *goquery.Document, selector string) (RawTable, error) {
	if selector == "" {
		selector = DefaultTableSelector
	}
	root := doc.Find(selector).First()
	if root.Length() == 0 {
		return RawTable{}, errors.Wrapf(ErrTableNotFound, "selector %q", selector)
	}

	var t RawTable
	root.Find("th").Each(func(_ int, th *goquery.Selection) {
		t.Headers = append(t.Headers, cellText(th))
	})
	root.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		tds := tr.ChildrenFiltered("td")
		if tds.Length() == 0 {
			return
		}
		row := make([]string, 0, tds.Length())
		tds.Each(func(_ int, td *goquery.Selection) {
			row = append(row, cellText(td))
		})
		t.Rows = append(t.Rows, row)
	})
	return t, nil
}

// cellText approximates the browser's rendered text: text nodes are kept as
// written, block elements add a separator, whitespace collapses to one space.
func cellText(s *goquery.Selection) string {
	var b strings.Builder
	var walk func(*goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, c *goquery.Selection) {
			name := goquery.NodeName(c)
			switch name {
			case "#text":
				b.WriteString(c.Text())
			case "script", "style", "#comment":
			default:
				_, block := blockTags[name]
				if block {
					b.WriteByte(' ')
				}
				walk(c)
				if block {
					b.WriteByte(' ')
				}
			}
		})
	}
	walk(s)
	return strings.TrimSpace(wsRe.ReplaceAllString(b.String(), " "))
}
