// Package session runs the crawl-and-extract pipeline end to end and
// produces the summary report.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jsliwa/docatlas"
	"github.com/jsliwa/docatlas/crawl"
	"github.com/jsliwa/docatlas/extract"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the extraction fan-out when Workers is unset.
const DefaultWorkers = 5

// Session couples a crawler to an extractor. Crawling and extraction are
// pipelined: pages flow into a bounded extraction pool while the crawl
// continues, so a slow analyzer never stalls fetching.
type Session struct {
	Crawler   *crawl.Crawler
	Extractor *extract.Extractor
	Sitemap   docatlas.SitemapService // optional seed discovery
	Workers   int
	Logger    *slog.Logger
}

// Run crawls from seedURL and extracts every visited page. Per-page
// failures at either stage are recorded in the report and never abort
// the session; only an invalid seed or configuration returns an error.
func (s *Session) Run(ctx context.Context, seedURL, query string) (*docatlas.SessionReport, error) {
	if err := s.Crawler.Config.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	report := &docatlas.SessionReport{
		SeedURL:           seedURL,
		Query:             query,
		EndpointsByMethod: make(map[string]int),
	}

	var extraSeeds []string
	if s.Sitemap != nil {
		urls, err := s.Sitemap.DiscoverURLs(ctx, seedURL)
		if err != nil {
			s.logger().Warn("sitemap discovery failed", "seed", seedURL, "error", err)
		} else {
			extraSeeds = urls
			s.logger().Info("seeded from sitemap", "urls", len(urls))
		}
	}

	workers := s.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(workers)

	visit := func(page *docatlas.Page) {
		g.Go(func() error {
			rec, err := s.Extractor.Extract(ctx, page, query)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failures = append(report.Failures, docatlas.Failure{
					URL:     page.URL,
					Stage:   docatlas.StageExtract,
					Code:    docatlas.ErrorCode(err),
					Message: err.Error(),
				})
				return nil
			}
			report.TotalEndpoints += len(rec.Endpoints)
			for _, ep := range rec.Endpoints {
				report.EndpointsByMethod[ep.Method]++
			}
			return nil
		})
	}

	fail := func(url string, err error) {
		mu.Lock()
		defer mu.Unlock()
		report.Failures = append(report.Failures, docatlas.Failure{
			URL:     url,
			Stage:   docatlas.StageFetch,
			Code:    docatlas.ErrorCode(err),
			Message: err.Error(),
		})
	}

	res, err := s.Crawler.Crawl(ctx, seedURL, extraSeeds, visit, fail)
	if err != nil {
		return nil, err
	}
	_ = g.Wait()

	report.PagesCrawled = res.PagesFetched
	report.MaxDepthReached = res.MaxDepth
	report.Duration = time.Since(start)

	s.logger().Info("session finished",
		"seed", seedURL,
		"pages", report.PagesCrawled,
		"endpoints", report.TotalEndpoints,
		"failures", len(report.Failures),
		"duration", report.Duration)

	return report, nil
}

func (s *Session) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
