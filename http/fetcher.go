// Package http provides HTTP-backed implementations of the fetch and
// sitemap collaborators for static documentation sites.
package http

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/jsliwa/docatlas"
)

// DefaultTimeout is the default per-request timeout.
const DefaultTimeout = 10 * time.Second

const userAgent = "docatlas/1.0"

// maxBodyBytes caps how much of a response is read. Documentation pages
// larger than this are truncated rather than rejected.
const maxBodyBytes = 10 << 20

var _ docatlas.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves pages over plain HTTP. It does not execute
// JavaScript, so it is suitable for static documentation sites only.
type Fetcher struct {
	client *http.Client
	links  docatlas.LinkExtractor
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-request timeout. Defaults to DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.client.Timeout = d
	}
}

// WithClient replaces the underlying HTTP client entirely.
func WithClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// NewFetcher creates a Fetcher. The link extractor parses outbound links
// from each fetched page; a nil extractor yields pages without links.
func NewFetcher(links docatlas.LinkExtractor, opts ...Option) *Fetcher {
	f := &Fetcher{
		client: &http.Client{Timeout: DefaultTimeout},
		links:  links,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves the page at url and extracts its outbound links.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*docatlas.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, docatlas.Errorf(docatlas.EINVALID, "invalid fetch URL %q: %v", url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, docatlas.Errorf(docatlas.EUNAVAILABLE, "fetching %s: %v", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, docatlas.Errorf(docatlas.ENOTFOUND, "HTTP 404 for %s", url)
	case resp.StatusCode != http.StatusOK:
		return nil, docatlas.Errorf(docatlas.EUNAVAILABLE, "HTTP %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, docatlas.Errorf(docatlas.EUNAVAILABLE, "reading %s: %v", url, err)
	}

	res := &docatlas.FetchResult{Content: string(body)}
	if f.links != nil {
		links, err := f.links.ExtractLinks(res.Content, url)
		if err == nil {
			res.Links = links
		}
	}
	return res, nil
}

// Close releases resources. A no-op for the HTTP client.
func (f *Fetcher) Close() error {
	return nil
}
