// Package trafilatura strips navigation, headers, and footers from
// fetched pages so the analyzer sees only the documentation body.
package trafilatura

import (
	"bytes"
	"strings"

	"github.com/jsliwa/docatlas"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

var _ docatlas.ContentExtractor = (*Extractor)(nil)

// Extractor wraps go-trafilatura main-content extraction.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the main content of rawHTML as an HTML fragment plus
// the page title.
func (e *Extractor) Extract(rawHTML string) (*docatlas.ExtractResult, error) {
	if rawHTML == "" {
		return nil, docatlas.Errorf(docatlas.EINVALID, "empty HTML input")
	}

	opts := trafilatura.Options{
		EnableFallback: true,
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), opts)
	if err != nil {
		return nil, err
	}

	var contentHTML string
	if result.ContentNode != nil {
		contentHTML, err = renderNode(result.ContentNode)
		if err != nil {
			return nil, err
		}
	}

	return &docatlas.ExtractResult{
		Title:       result.Metadata.Title,
		ContentHTML: contentHTML,
	}, nil
}

func renderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}
