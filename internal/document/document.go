// Package document wraps a parsed HTML tree with the helpers extractors query against.
package document

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document is a parsed, navigable HTML tree whose base URI is the fetch URL.
type Document struct {
	doc     *goquery.Document
	baseURL *url.URL
	html    string
}

// Parse builds a Document from HTML text, setting baseURL for relative link resolution.
func Parse(html string, baseURL string) (*Document, error) {
	return ParseReader(strings.NewReader(html), baseURL, html)
}

// ParseReader builds a Document from a reader. raw, when non-empty, is retained as the
// document's source HTML; otherwise the rendered tree is serialized on demand.
func ParseReader(r io.Reader, baseURL string, raw string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	var base *url.URL
	if baseURL != "" {
		base, err = url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("parse base url %q: %w", baseURL, err)
		}
	}
	doc.Url = base
	return &Document{doc: doc, baseURL: base, html: raw}, nil
}

// URL returns the base URI, or nil when none was set.
func (d *Document) URL() *url.URL {
	return d.baseURL
}

// Location returns the base URI as a string.
func (d *Document) Location() string {
	if d.baseURL == nil {
		return ""
	}
	return d.baseURL.String()
}

// Title returns the trimmed <title> text.
func (d *Document) Title() string {
	return strings.TrimSpace(d.doc.Find("title").First().Text())
}

// Text returns the full text of the body, or the whole document when there is no body.
func (d *Document) Text() string {
	body := d.doc.Find("body")
	if body.Length() == 0 {
		return d.doc.Text()
	}
	return body.Text()
}

// Find runs a CSS selector against the document.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// Selection exposes the root selection.
func (d *Document) Selection() *goquery.Selection {
	return d.doc.Selection
}

// ElementCount is the number of element nodes, used as the document quality score.
func (d *Document) ElementCount() int {
	return d.doc.Find("*").Length()
}

// HTML returns the source HTML.
func (d *Document) HTML() string {
	if d.html != "" {
		return d.html
	}
	out, err := d.doc.Html()
	if err != nil {
		return ""
	}
	return out
}

// Resolve turns a possibly relative reference into an absolute URL against the base URI.
func (d *Document) Resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	if d.baseURL == nil || ref == "" {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return d.baseURL.ResolveReference(u).String()
}

// Meta returns the content of a <meta> tag matched by property or name.
func (d *Document) Meta(key string) string {
	sel := fmt.Sprintf(`meta[property=%q], meta[name=%q]`, key, key)
	v, _ := d.doc.Find(sel).First().Attr("content")
	return strings.TrimSpace(v)
}
