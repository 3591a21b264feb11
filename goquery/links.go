// Package goquery extracts outbound links from HTML documents.
package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jsliwa/docatlas"
)

var _ docatlas.LinkExtractor = (*LinkExtractor)(nil)

// LinkExtractor finds anchor links in HTML and resolves them against the
// page URL.
type LinkExtractor struct{}

// NewLinkExtractor creates a new LinkExtractor.
func NewLinkExtractor() *LinkExtractor {
	return &LinkExtractor{}
}

// nonPageSchemes are href prefixes that never point at a crawlable page.
var nonPageSchemes = []string{"javascript:", "mailto:", "tel:", "data:"}

// ExtractLinks returns the unique anchor links in html, resolved against
// baseURL, in document order. Fragment-only and non-navigational hrefs
// are skipped.
func (e *LinkExtractor) ExtractLinks(html, baseURL string) ([]docatlas.Link, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, docatlas.Errorf(docatlas.EINVALID, "parsing HTML: %v", err)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, docatlas.Errorf(docatlas.EINVALID, "invalid base URL %q: %v", baseURL, err)
	}

	var links []docatlas.Link
	seen := make(map[string]bool)

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		lower := strings.ToLower(href)
		for _, scheme := range nonPageSchemes {
			if strings.HasPrefix(lower, scheme) {
				return
			}
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		target := base.ResolveReference(ref).String()
		if seen[target] {
			return
		}
		seen[target] = true

		links = append(links, docatlas.Link{
			Target: target,
			Text:   strings.TrimSpace(s.Text()),
		})
	})

	return links, nil
}
