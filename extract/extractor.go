// Package extract turns crawled pages into persisted API-fact records.
// It de-duplicates work across sessions through a record store, prepares
// page content for analysis, and enforces the no-fallback policy around
// the analyzer.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/jsliwa/docatlas"
	"golang.org/x/sync/singleflight"
)

// DefaultMaxContentTokens bounds content sent to the analyzer when a
// token counter is configured.
const DefaultMaxContentTokens = 100000

// Extractor orchestrates per-page analysis. All collaborator fields
// except Analyzer are optional.
type Extractor struct {
	Analyzer docatlas.Analyzer
	Store    docatlas.RecordStore

	// Content preparation, applied in order before analysis.
	Content   docatlas.ContentExtractor
	Converter docatlas.Converter
	Tokens    docatlas.TokenCounter

	// MaxContentTokens caps analyzer input when Tokens is set.
	// Zero means DefaultMaxContentTokens.
	MaxContentTokens int

	// MaxRecordAge marks stored records older than this as stale.
	// Zero means stored records never expire by age.
	MaxRecordAge time.Duration

	// Timeout bounds each analyzer call. Zero means no extra deadline.
	Timeout time.Duration

	Logger *slog.Logger

	group singleflight.Group
}

// Extract returns the stored record for the page's URL when a fresh one
// exists, otherwise analyzes the page and persists the outcome.
// Concurrent calls for the same URL collapse into a single analysis, so
// extraction is at-most-once per URL per session.
//
// There is no heuristic fallback: when the analyzer cannot be reached or
// returns nothing parseable, Extract returns EUNAVAILABLE and no record.
func (e *Extractor) Extract(ctx context.Context, page *docatlas.Page, query string) (*docatlas.ExtractionRecord, error) {
	v, err, _ := e.group.Do(page.URL, func() (any, error) {
		return e.extract(ctx, page, query)
	})
	if err != nil {
		return nil, err
	}
	rec, _ := v.(*docatlas.ExtractionRecord)
	return rec, nil
}

func (e *Extractor) extract(ctx context.Context, page *docatlas.Page, query string) (*docatlas.ExtractionRecord, error) {
	hash := hashContent(page.Content)

	if e.Store != nil {
		rec, err := e.Store.FindRecordByURL(ctx, page.URL)
		switch {
		case err == nil && !e.stale(rec, hash):
			e.logger().Debug("extraction cache hit", "url", page.URL)
			return rec, nil
		case err != nil && docatlas.ErrorCode(err) != docatlas.ENOTFOUND:
			return nil, err
		}
	}

	content := e.prepare(ctx, page.Content)

	actx := ctx
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	analysis, err := e.Analyzer.Analyze(actx, content, query)
	if err != nil {
		// An unreachable analyzer fails this page's extraction outright
		// rather than degrading to a local heuristic.
		if docatlas.ErrorCode(err) == docatlas.EUNAVAILABLE {
			return nil, err
		}
		return nil, docatlas.Errorf(docatlas.EUNAVAILABLE, "analyzer unavailable for %s: %v", page.URL, err)
	}

	rec := &docatlas.ExtractionRecord{
		SourceURL:   page.URL,
		Endpoints:   CleanEndpoints(analysis.Endpoints),
		Parameters:  analysis.Parameters,
		Method:      docatlas.ExtractionMethodAnalysis,
		ContentHash: hash,
		ExtractedAt: time.Now().UTC(),
	}

	if e.Store != nil {
		if err := e.Store.SaveRecord(ctx, rec); err != nil {
			return nil, err
		}
	}

	return rec, nil
}

// stale reports whether a stored record should be re-analyzed: either it
// outlived MaxRecordAge or the page content changed since it was written.
func (e *Extractor) stale(rec *docatlas.ExtractionRecord, contentHash string) bool {
	if e.MaxRecordAge > 0 && time.Since(rec.ExtractedAt) > e.MaxRecordAge {
		return true
	}
	if rec.ContentHash != "" && rec.ContentHash != contentHash {
		return true
	}
	return false
}

// prepare runs the content pipeline: boilerplate removal, markdown
// conversion, token-budget truncation. Preparation failures fall back to
// the raw content; preparation is formatting, not analysis, so the
// no-fallback policy does not apply here.
func (e *Extractor) prepare(ctx context.Context, raw string) string {
	content := raw

	if e.Content != nil {
		if res, err := e.Content.Extract(raw); err == nil && res.ContentHTML != "" {
			content = res.ContentHTML
			if e.Converter != nil {
				if md, err := e.Converter.Convert(content); err == nil && md != "" {
					content = md
				}
			}
		}
	}

	if e.Tokens != nil {
		content = e.truncate(ctx, content)
	}

	return content
}

// truncate cuts content proportionally on a rune boundary when it exceeds
// the token budget. Pages are truncated, never dropped.
func (e *Extractor) truncate(ctx context.Context, content string) string {
	budget := e.MaxContentTokens
	if budget <= 0 {
		budget = DefaultMaxContentTokens
	}

	n, err := e.Tokens.CountTokens(ctx, content)
	if err != nil || n <= budget {
		return content
	}

	runes := []rune(content)
	keep := len(runes) * budget / n
	if keep < 1 {
		keep = 1
	}
	e.logger().Debug("truncating oversized content", "tokens", n, "budget", budget)
	return string(runes[:keep])
}

func (e *Extractor) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// hashContent computes an xxHash digest of page content as a hex string.
func hashContent(content string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(content))
}
