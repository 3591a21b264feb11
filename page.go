package docatlas

import (
	"context"
	"time"
)

// Page is a single document retrieved during a crawl session. Pages are
// created and consumed within one session; only their extraction records
// outlive it.
type Page struct {
	// URL is the normalized URL the page was fetched from.
	URL string

	// Domain is the lowercase host portion of URL.
	Domain string

	// Depth is the BFS level the page was discovered at. It is fixed when
	// the node is enqueued and never mutated.
	Depth int

	// Content is the raw fetched content, typically HTML.
	Content string

	// Links are the outbound links the fetch collaborator reported.
	Links []Link

	FetchedAt time.Time
}

// CrawlNode is a URL queued for fetching at a fixed BFS level.
type CrawlNode struct {
	URL    string
	Depth  int
	Domain string
}

// FetchResult is what a fetch collaborator returns for one URL.
type FetchResult struct {
	Content string `json:"content"`
	Links   []Link `json:"links"`
}

// Fetcher retrieves a URL's content and outbound links. The context
// controls timeout and cancellation of each call.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)

	// Close releases fetcher resources.
	Close() error
}

// LinkExtractor pulls outbound links from fetched HTML, resolved against
// the page's URL and in document order.
type LinkExtractor interface {
	ExtractLinks(html string, baseURL string) ([]Link, error)
}

// URLFrontier manages a crawl queue with deduplication. URLs that were
// ever pushed stay in the seen-set for the life of the frontier, so a
// session never re-visits a page.
type URLFrontier interface {
	// Push adds a node to the frontier.
	// Returns false if the URL has already been seen.
	Push(node CrawlNode) bool

	// PopLevel removes and returns all queued nodes at the given depth,
	// in the order they were pushed.
	PopLevel(depth int) []CrawlNode

	// Len returns the number of queued nodes.
	Len() int

	// Seen returns true if the URL has been queued at any point.
	Seen(url string) bool
}

// DomainLimiter serializes fetches per domain and enforces the politeness
// delay between consecutive requests to the same domain. Different
// domains proceed independently.
type DomainLimiter interface {
	// Acquire blocks until the domain allows a request. The returned
	// release function must be called when the request completes.
	Acquire(ctx context.Context, domain string) (release func(), err error)
}

// RobotsPolicy decides whether a URL may be fetched under the target
// site's robots.txt rules.
type RobotsPolicy interface {
	Allowed(ctx context.Context, rawURL string) bool
}

// SitemapService discovers page URLs from a site's sitemaps. Used to seed
// a crawl with URLs the BFS might otherwise take several levels to reach.
type SitemapService interface {
	// DiscoverURLs finds URLs from the site's sitemap, checking
	// robots.txt sitemap directives first and falling back to
	// /sitemap.xml. Sitemap indexes are resolved recursively. When
	// baseURL has a non-root path, only URLs under that path are
	// returned.
	DiscoverURLs(ctx context.Context, baseURL string) ([]string, error)
}
