package docatlas

import "time"

// Depth bounds and defaults for crawl sessions.
const (
	MinDepthFloor   = 1
	MaxDepthCeiling = 5

	DefaultMaxDepth          = 2
	DefaultMaxPagesPerDomain = 50
	DefaultRequestDelay      = 1 * time.Second
	DefaultConcurrency       = 4
	DefaultFetchTimeout      = 10 * time.Second
	DefaultAnalyzeTimeout    = 30 * time.Second
)

// CrawlConfig bounds a single crawl session. It is constructed and
// validated once per session and treated as immutable thereafter.
type CrawlConfig struct {
	// MaxDepth is the deepest BFS level fetched; the seed is depth 0.
	MaxDepth int

	// FollowExternalLinks allows enqueueing links whose host differs from
	// the seed's host. Hosts must match exactly; sharing a suffix is not
	// enough.
	FollowExternalLinks bool

	// MaxPagesPerDomain caps how many pages may be enqueued per host.
	MaxPagesPerDomain int

	// RequestDelay is the politeness delay between consecutive requests
	// to the same domain.
	RequestDelay time.Duration

	// RespectRobots consults robots.txt before enqueueing links.
	RespectRobots bool

	// Concurrency bounds the fetch worker pool within a BFS level.
	Concurrency int

	// FetchTimeout bounds each fetch collaborator call.
	FetchTimeout time.Duration

	// AnalyzeTimeout bounds each content analyzer call.
	AnalyzeTimeout time.Duration
}

// DefaultCrawlConfig returns a config with conservative defaults.
func DefaultCrawlConfig() CrawlConfig {
	return CrawlConfig{
		MaxDepth:          DefaultMaxDepth,
		MaxPagesPerDomain: DefaultMaxPagesPerDomain,
		RequestDelay:      DefaultRequestDelay,
		RespectRobots:     true,
		Concurrency:       DefaultConcurrency,
		FetchTimeout:      DefaultFetchTimeout,
		AnalyzeTimeout:    DefaultAnalyzeTimeout,
	}
}

// Validate rejects out-of-range values at construction time rather than
// at use time.
func (c *CrawlConfig) Validate() error {
	if c.MaxDepth < MinDepthFloor || c.MaxDepth > MaxDepthCeiling {
		return Errorf(EINVALID, "max depth %d out of range [%d, %d]", c.MaxDepth, MinDepthFloor, MaxDepthCeiling)
	}
	if c.MaxPagesPerDomain < 1 {
		return Errorf(EINVALID, "max pages per domain must be positive, got %d", c.MaxPagesPerDomain)
	}
	if c.RequestDelay < 0 {
		return Errorf(EINVALID, "request delay must not be negative, got %s", c.RequestDelay)
	}
	if c.Concurrency < 1 {
		return Errorf(EINVALID, "concurrency must be positive, got %d", c.Concurrency)
	}
	if c.FetchTimeout < 0 {
		return Errorf(EINVALID, "fetch timeout must not be negative, got %s", c.FetchTimeout)
	}
	if c.AnalyzeTimeout < 0 {
		return Errorf(EINVALID, "analyze timeout must not be negative, got %s", c.AnalyzeTimeout)
	}
	return nil
}
