package crawl

import (
	"context"
	"sync"
	"time"

	"github.com/jsliwa/docatlas"
	"golang.org/x/time/rate"
)

var _ docatlas.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter enforces per-domain politeness: consecutive requests to
// the same domain are spaced by the configured delay and only one request
// per domain is in flight at a time. Requests to different domains
// proceed independently, so many domains can be fetched concurrently.
type DomainLimiter struct {
	delay time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	inflight map[string]*sync.Mutex
}

// NewDomainLimiter creates a DomainLimiter with the given delay between
// consecutive requests to one domain. A zero delay still serializes
// in-flight requests per domain.
func NewDomainLimiter(delay time.Duration) *DomainLimiter {
	return &DomainLimiter{
		delay:    delay,
		limiters: make(map[string]*rate.Limiter),
		inflight: make(map[string]*sync.Mutex),
	}
}

// Acquire blocks until the domain's politeness delay allows a request and
// no other request to the domain is in flight. The returned release
// function must be called when the request completes. Returns an error if
// the context is canceled while waiting on the delay.
func (d *DomainLimiter) Acquire(ctx context.Context, domain string) (func(), error) {
	d.mu.Lock()
	lim, ok := d.limiters[domain]
	if !ok {
		if d.delay > 0 {
			lim = rate.NewLimiter(rate.Every(d.delay), 1)
		} else {
			lim = rate.NewLimiter(rate.Inf, 1)
		}
		d.limiters[domain] = lim
	}
	fl, ok := d.inflight[domain]
	if !ok {
		fl = &sync.Mutex{}
		d.inflight[domain] = fl
	}
	d.mu.Unlock()

	fl.Lock()
	if err := lim.Wait(ctx); err != nil {
		fl.Unlock()
		return nil, err
	}
	return fl.Unlock, nil
}
