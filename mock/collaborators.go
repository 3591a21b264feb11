package mock

import (
	"context"

	"github.com/jsliwa/docatlas"
)

var (
	_ docatlas.DomainLimiter    = (*DomainLimiter)(nil)
	_ docatlas.RobotsPolicy     = (*RobotsPolicy)(nil)
	_ docatlas.LinkExtractor    = (*LinkExtractor)(nil)
	_ docatlas.ContentExtractor = (*ContentExtractor)(nil)
	_ docatlas.Converter        = (*Converter)(nil)
	_ docatlas.TokenCounter     = (*TokenCounter)(nil)
	_ docatlas.SitemapService   = (*SitemapService)(nil)
)

// DomainLimiter is a mock implementation of docatlas.DomainLimiter.
// The zero value allows every request immediately.
type DomainLimiter struct {
	AcquireFn func(ctx context.Context, domain string) (func(), error)
}

func (d *DomainLimiter) Acquire(ctx context.Context, domain string) (func(), error) {
	if d.AcquireFn == nil {
		return func() {}, nil
	}
	return d.AcquireFn(ctx, domain)
}

// RobotsPolicy is a mock implementation of docatlas.RobotsPolicy.
type RobotsPolicy struct {
	AllowedFn func(ctx context.Context, rawURL string) bool
}

func (r *RobotsPolicy) Allowed(ctx context.Context, rawURL string) bool {
	return r.AllowedFn(ctx, rawURL)
}

// LinkExtractor is a mock implementation of docatlas.LinkExtractor.
type LinkExtractor struct {
	ExtractLinksFn func(html, baseURL string) ([]docatlas.Link, error)
}

func (e *LinkExtractor) ExtractLinks(html, baseURL string) ([]docatlas.Link, error) {
	return e.ExtractLinksFn(html, baseURL)
}

// ContentExtractor is a mock implementation of docatlas.ContentExtractor.
type ContentExtractor struct {
	ExtractFn func(html string) (*docatlas.ExtractResult, error)
}

func (e *ContentExtractor) Extract(html string) (*docatlas.ExtractResult, error) {
	return e.ExtractFn(html)
}

// Converter is a mock implementation of docatlas.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}

// TokenCounter is a mock implementation of docatlas.TokenCounter.
type TokenCounter struct {
	CountTokensFn func(ctx context.Context, text string) (int, error)
}

func (t *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	return t.CountTokensFn(ctx, text)
}

// SitemapService is a mock implementation of docatlas.SitemapService.
type SitemapService struct {
	DiscoverURLsFn func(ctx context.Context, baseURL string) ([]string, error)
}

func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string) ([]string, error) {
	return s.DiscoverURLsFn(ctx, baseURL)
}
