// Package goquery provides a DOM-based implementation of
// websearch.LinkExtractor built on PuerkitoBio/goquery.
package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	websearch "github.com/Mati018/website-search"
)

// boilerplateSelector matches elements stripped before text extraction.
// Removal is best-effort; remaining boilerplate ends up as low-scoring
// chunks rather than breaking the crawl.
const boilerplateSelector = "script, style, noscript, template, iframe, svg, nav, header, footer, aside"

// blockSelector matches the visible block-level elements whose text is
// extracted in document order. Nested matches are collapsed into their
// outermost matching ancestor.
const blockSelector = "p, h1, h2, h3, h4, h5, h6, li, pre, blockquote, td, th, dt, dd, figcaption, article"

// Ensure Extractor implements websearch.LinkExtractor at compile time.
var _ websearch.LinkExtractor = (*Extractor)(nil)

// Extractor parses HTML into in-document links and visible text blocks,
// each block tagged with the raw HTML fragment it came from.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract resolves every anchor against baseURL and collects visible
// block-level text spans in document order. Fragment-only and
// non-http(s) links are discarded and duplicates are removed keeping
// first-occurrence order. Scope filtering is the crawler's job; links to
// other hosts are returned as-is.
func (e *Extractor) Extract(html string, baseURL string) (*websearch.ExtractResult, error) {
	base, err := websearch.NormalizeURL(baseURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, websearch.Errorf(websearch.EINVALID, "failed to parse HTML: %v", err)
	}

	links := extractLinks(doc, base)

	doc.Find(boilerplateSelector).Remove()

	var blocks []websearch.Block
	doc.Find(blockSelector).Each(func(_ int, sel *goquery.Selection) {
		// Keep only outermost matches so nested blocks (a <p> inside an
		// <article>) are not emitted twice.
		if sel.ParentsFiltered(blockSelector).Length() > 0 {
			return
		}
		text := strings.Join(strings.Fields(sel.Text()), " ")
		if text == "" {
			return
		}
		fragment, err := goquery.OuterHtml(sel)
		if err != nil {
			fragment = ""
		}
		blocks = append(blocks, websearch.Block{
			Text: text,
			HTML: strings.TrimSpace(fragment),
		})
	})

	texts := make([]string, len(blocks))
	for i, b := range blocks {
		texts[i] = b.Text
	}

	return &websearch.ExtractResult{
		Links:  links,
		Text:   strings.Join(texts, "\n\n"),
		Blocks: blocks,
	}, nil
}

// extractLinks collects normalized absolute http(s) URLs from anchors in
// first-occurrence order.
func extractLinks(doc *goquery.Document, baseURL string) []string {
	seen := make(map[string]bool)
	var links []string

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, exists := sel.Attr("href")
		if !exists || href == "" {
			return
		}
		if isNonHTTPLink(href) {
			return
		}

		resolved := resolveURL(baseURL, href)
		if resolved == "" {
			return
		}

		normalized, err := websearch.NormalizeURL(resolved)
		if err != nil {
			return
		}
		if seen[normalized] {
			return
		}
		seen[normalized] = true
		links = append(links, normalized)
	})

	return links
}

// isNonHTTPLink reports whether href uses a scheme that can never be
// crawled (javascript:, mailto:, tel:, data:) or is fragment-only.
func isNonHTTPLink(href string) bool {
	if strings.HasPrefix(href, "#") {
		return true
	}
	lower := strings.ToLower(href)
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:", "ftp:"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// resolveURL resolves href against base, returning "" when either side
// fails to parse.
func resolveURL(base, href string) string {
	baseParsed, err := url.Parse(base)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return baseParsed.ResolveReference(ref).String()
}
