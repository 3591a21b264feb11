// Package robots evaluates robots.txt rules for crawl candidates, with
// per-host caching.
package robots

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/jsliwa/docatlas"
	"github.com/temoto/robotstxt"
)

// DefaultCacheTTL bounds how long fetched robots.txt rules are reused.
const DefaultCacheTTL = 30 * time.Minute

// DefaultUserAgent identifies the crawler to robots.txt group matching.
const DefaultUserAgent = "docatlas"

var _ docatlas.RobotsPolicy = (*Agent)(nil)

// Agent fetches and caches robots.txt rules per host. An unreachable or
// unparseable robots.txt allows everything; only an explicit disallow
// blocks a URL.
type Agent struct {
	client    *http.Client
	userAgent string
	ttl       time.Duration

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	fetched time.Time
	rules   *robotstxt.RobotsData
}

// Option configures an Agent.
type Option func(*Agent)

// WithUserAgent sets the user agent matched against robots.txt groups.
func WithUserAgent(ua string) Option {
	return func(a *Agent) { a.userAgent = ua }
}

// WithCacheTTL sets how long per-host rules are cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(a *Agent) { a.ttl = ttl }
}

// NewAgent creates an Agent using the given HTTP client. If client is
// nil, a client with a 10 second timeout is used.
func NewAgent(client *http.Client, opts ...Option) *Agent {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	a := &Agent{
		client:    client,
		userAgent: DefaultUserAgent,
		ttl:       DefaultCacheTTL,
		cache:     make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Allowed reports whether the URL may be fetched under its host's
// robots.txt rules.
func (a *Agent) Allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	rules := a.rules(ctx, u)
	if rules == nil {
		return true
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return rules.TestAgent(path, a.userAgent)
}

// rules returns the cached rules for the URL's host, fetching robots.txt
// when the cache is cold or expired. Returns nil if no rules could be
// obtained.
func (a *Agent) rules(ctx context.Context, u *url.URL) *robotstxt.RobotsData {
	key := u.Scheme + "://" + u.Host

	a.mu.RLock()
	entry, ok := a.cache[key]
	a.mu.RUnlock()
	if ok && time.Since(entry.fetched) < a.ttl {
		return entry.rules
	}

	rules := a.fetch(ctx, key+"/robots.txt")

	a.mu.Lock()
	a.cache[key] = cacheEntry{fetched: time.Now(), rules: rules}
	a.mu.Unlock()

	return rules
}

// fetch retrieves and parses one robots.txt. Any failure yields nil,
// which callers treat as allow-all.
func (a *Agent) fetch(ctx context.Context, robotsURL string) *robotstxt.RobotsData {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil
	}

	rules, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil
	}
	return rules
}
