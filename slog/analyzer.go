package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/jsliwa/docatlas"
)

// Ensure LoggingAnalyzer implements docatlas.Analyzer.
var _ docatlas.Analyzer = (*LoggingAnalyzer)(nil)

// LoggingAnalyzer wraps an Analyzer with per-call logging.
type LoggingAnalyzer struct {
	next   docatlas.Analyzer
	logger *slog.Logger
}

// NewLoggingAnalyzer creates a new LoggingAnalyzer.
func NewLoggingAnalyzer(next docatlas.Analyzer, logger *slog.Logger) *LoggingAnalyzer {
	return &LoggingAnalyzer{next: next, logger: logger}
}

// Analyze delegates to the wrapped analyzer and logs the operation.
func (a *LoggingAnalyzer) Analyze(ctx context.Context, content, query string) (analysis *docatlas.Analysis, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"contentBytes", len(content),
			"duration", time.Since(begin),
			"err", err,
		}
		if analysis != nil {
			attrs = append(attrs, "endpoints", len(analysis.Endpoints), "parameters", len(analysis.Parameters))
		}
		a.logger.Info("analysis", attrs...)
	}(time.Now())
	return a.next.Analyze(ctx, content, query)
}
