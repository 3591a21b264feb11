package mock

import (
	"context"

	"github.com/jsliwa/docatlas"
)

var _ docatlas.Analyzer = (*Analyzer)(nil)

// Analyzer is a mock implementation of docatlas.Analyzer.
type Analyzer struct {
	AnalyzeFn func(ctx context.Context, content, query string) (*docatlas.Analysis, error)
}

func (a *Analyzer) Analyze(ctx context.Context, content, query string) (*docatlas.Analysis, error) {
	return a.AnalyzeFn(ctx, content, query)
}
