// Package crawl implements bounded breadth-first traversal of a
// documentation site over an injected fetch collaborator. The traversal
// is level-synchronous: all pages at depth d are fetched before any link
// discovered on them is fetched at depth d+1.
package crawl

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/jsliwa/docatlas"
	"golang.org/x/sync/errgroup"
)

// Frontier sizing for the session-scoped seen-set.
const (
	frontierExpectedURLs      = 10000
	frontierFalsePositiveRate = 0.01
)

// Crawler performs depth-bounded BFS from a seed URL, yielding visited
// pages in discovery order. A Crawler is restarted by starting a new
// session; a traversal is not resumable midway.
type Crawler struct {
	Fetcher docatlas.Fetcher
	Limiter docatlas.DomainLimiter
	Robots  docatlas.RobotsPolicy // optional
	Logger  *slog.Logger          // optional
	Config  docatlas.CrawlConfig
}

// VisitFunc receives pages in BFS discovery order, one call per page.
// Pages within a level are emitted in the order their URLs were enqueued
// regardless of fetch completion order.
type VisitFunc func(page *docatlas.Page)

// FailFunc receives per-page fetch failures. Failed URLs stay in the
// visited set and are never retried within the session.
type FailFunc func(url string, err error)

// Result summarizes a finished traversal.
type Result struct {
	PagesFetched  int
	MaxDepth      int
	FetchFailures int
}

// Crawl walks the site breadth-first from seedURL up to Config.MaxDepth.
// Extra seeds (e.g. sitemap-discovered URLs) join at depth 1 through the
// normal admission gate. Individual fetch failures are non-fatal; only an
// invalid seed aborts before any fetch. Cancellation stops scheduling new
// fetches while in-flight ones finish.
func (c *Crawler) Crawl(ctx context.Context, seedURL string, extraSeeds []string, visit VisitFunc, fail FailFunc) (*Result, error) {
	seed, err := docatlas.NormalizeURL(seedURL)
	if err != nil {
		return nil, err
	}
	seedHost := docatlas.Domain(seed)

	policy := &LinkPolicy{Config: c.Config, SeedHost: seedHost, Robots: c.Robots}
	counters := make(map[string]int)
	frontier := NewFrontier(frontierExpectedURLs, frontierFalsePositiveRate)

	// The seed is always fetched, regardless of domain or page limits,
	// and does not occupy a budget slot.
	frontier.Push(docatlas.CrawlNode{URL: seed, Depth: 0, Domain: seedHost})

	for _, raw := range extraSeeds {
		norm, err := docatlas.NormalizeURL(raw)
		if err != nil {
			continue
		}
		if frontier.Seen(norm) || !policy.Allow(ctx, norm, counters) {
			continue
		}
		host := docatlas.Domain(norm)
		if frontier.Push(docatlas.CrawlNode{URL: norm, Depth: 1, Domain: host}) {
			counters[host]++
		}
	}

	result := &Result{}
	for depth := 0; depth <= c.Config.MaxDepth; depth++ {
		level := frontier.PopLevel(depth)
		if len(level) == 0 {
			if frontier.Len() == 0 {
				break
			}
			continue
		}
		if ctx.Err() != nil {
			break
		}

		pages := c.fetchLevel(ctx, level, result, fail)

		for _, page := range pages {
			if page == nil {
				continue
			}
			result.PagesFetched++
			if page.Depth > result.MaxDepth {
				result.MaxDepth = page.Depth
			}
			if visit != nil {
				visit(page)
			}
			if page.Depth >= c.Config.MaxDepth {
				continue
			}
			for _, link := range page.Links {
				target := resolveLink(page.URL, link.Target)
				if target == "" {
					continue
				}
				norm, err := docatlas.NormalizeURL(target)
				if err != nil {
					// Malformed links are dropped silently.
					continue
				}
				if frontier.Seen(norm) || !policy.Allow(ctx, norm, counters) {
					continue
				}
				host := docatlas.Domain(norm)
				if frontier.Push(docatlas.CrawlNode{URL: norm, Depth: page.Depth + 1, Domain: host}) {
					counters[host]++
				}
			}
		}
	}

	if result.PagesFetched == 0 && result.FetchFailures > 0 {
		c.logger().Warn("all fetches failed", "seed", seed, "failures", result.FetchFailures)
	}

	return result, nil
}

// fetchLevel fetches all nodes of one BFS level through a bounded worker
// pool. Results are collected by position so callers see deterministic
// order. Failed slots stay nil.
func (c *Crawler) fetchLevel(ctx context.Context, level []docatlas.CrawlNode, result *Result, fail FailFunc) []*docatlas.Page {
	workers := c.Config.Concurrency
	if workers <= 0 {
		workers = docatlas.DefaultConcurrency
	}

	pages := make([]*docatlas.Page, len(level))
	errs := make([]error, len(level))

	g := new(errgroup.Group)
	g.SetLimit(workers)
	for i, node := range level {
		i, node := i, node
		g.Go(func() error {
			// Canceled sessions schedule no new fetches.
			if ctx.Err() != nil {
				return nil
			}
			page, err := c.fetchOne(ctx, node)
			pages[i], errs[i] = page, err
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range errs {
		if err == nil {
			continue
		}
		result.FetchFailures++
		c.logger().Warn("fetch failed", "url", level[i].URL, "depth", level[i].Depth, "error", err)
		if fail != nil {
			fail(level[i].URL, err)
		}
	}
	return pages
}

// fetchOne fetches a single node, honoring the per-domain limiter and the
// configured per-fetch timeout.
func (c *Crawler) fetchOne(ctx context.Context, node docatlas.CrawlNode) (*docatlas.Page, error) {
	if c.Limiter != nil {
		release, err := c.Limiter.Acquire(ctx, node.Domain)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	fctx := ctx
	if c.Config.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, c.Config.FetchTimeout)
		defer cancel()
	}

	res, err := c.Fetcher.Fetch(fctx, node.URL)
	if err != nil {
		return nil, err
	}

	return &docatlas.Page{
		URL:       node.URL,
		Domain:    node.Domain,
		Depth:     node.Depth,
		Content:   res.Content,
		Links:     res.Links,
		FetchedAt: time.Now().UTC(),
	}, nil
}

func (c *Crawler) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// resolveLink resolves a possibly relative link target against the page
// it was found on. Returns "" for unresolvable targets.
func resolveLink(pageURL, target string) string {
	if target == "" {
		return ""
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(target)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
