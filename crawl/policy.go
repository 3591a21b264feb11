package crawl

import (
	"context"
	"net/url"

	"github.com/jsliwa/docatlas"
)

// LinkPolicy decides whether a normalized link candidate may be enqueued.
// It is pure over the inputs it is given: the session config, the seed
// host, the per-domain counters passed to Allow, and an optional robots
// policy.
type LinkPolicy struct {
	Config   docatlas.CrawlConfig
	SeedHost string
	Robots   docatlas.RobotsPolicy // optional; consulted only when RespectRobots is set
}

// Allow evaluates admission rules in order, short-circuiting on the first
// failure: scheme must be http/https; host must equal the seed host
// unless external links are allowed; the domain's page budget must have
// room; the path must not point at a binary asset; robots.txt must not
// disallow the URL. Counters hold pages already enqueued per domain.
func (p *LinkPolicy) Allow(ctx context.Context, normalized string, counters map[string]int) bool {
	u, err := url.Parse(normalized)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if !p.Config.FollowExternalLinks && u.Host != p.SeedHost {
		return false
	}
	if counters[u.Host] >= p.Config.MaxPagesPerDomain {
		return false
	}
	if docatlas.BlockedAsset(normalized) {
		return false
	}
	if p.Config.RespectRobots && p.Robots != nil && !p.Robots.Allowed(ctx, normalized) {
		return false
	}
	return true
}
