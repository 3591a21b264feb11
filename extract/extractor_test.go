package extract_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jsliwa/docatlas"
	"github.com/jsliwa/docatlas/extract"
	"github.com/jsliwa/docatlas/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPage(url, content string) *docatlas.Page {
	return &docatlas.Page{
		URL:     url,
		Domain:  "docs.example.com",
		Content: content,
	}
}

func TestExtractor_Extract(t *testing.T) {
	t.Run("AnalyzesAndSavesRecord", func(t *testing.T) {
		var saved *docatlas.ExtractionRecord
		e := &extract.Extractor{
			Analyzer: &mock.Analyzer{
				AnalyzeFn: func(ctx context.Context, content, query string) (*docatlas.Analysis, error) {
					return &docatlas.Analysis{
						Endpoints: []docatlas.Endpoint{
							{Method: "GET", Path: "/api/users", Confidence: 0.9},
						},
						Parameters: []docatlas.Parameter{
							{Name: "limit", In: "query", Type: "integer"},
						},
					}, nil
				},
			},
			Store: &mock.RecordStore{
				FindRecordByURLFn: func(ctx context.Context, url string) (*docatlas.ExtractionRecord, error) {
					return nil, docatlas.Errorf(docatlas.ENOTFOUND, "record not found")
				},
				SaveRecordFn: func(ctx context.Context, rec *docatlas.ExtractionRecord) error {
					saved = rec
					return nil
				},
			},
		}

		rec, err := e.Extract(context.Background(), testPage("https://docs.example.com/api", "GET /api/users"), "users")
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Same(t, rec, saved)
		require.Len(t, rec.Endpoints, 1)
		assert.Equal(t, "GET", rec.Endpoints[0].Method)
		assert.Len(t, rec.Parameters, 1)
		assert.Equal(t, docatlas.ExtractionMethodAnalysis, rec.Method)
		assert.NotEmpty(t, rec.ContentHash)
		assert.False(t, rec.ExtractedAt.IsZero())
	})

	t.Run("CachedRecordSkipsAnalyzer", func(t *testing.T) {
		page := testPage("https://docs.example.com/api", "GET /api/users")
		cached := &docatlas.ExtractionRecord{
			ID:          "r1",
			SourceURL:   page.URL,
			Method:      docatlas.ExtractionMethodAnalysis,
			ExtractedAt: time.Now().Add(-time.Hour),
		}

		var analyzed atomic.Int32
		e := &extract.Extractor{
			Analyzer: &mock.Analyzer{
				AnalyzeFn: func(ctx context.Context, content, query string) (*docatlas.Analysis, error) {
					analyzed.Add(1)
					return &docatlas.Analysis{}, nil
				},
			},
			Store: &mock.RecordStore{
				FindRecordByURLFn: func(ctx context.Context, url string) (*docatlas.ExtractionRecord, error) {
					return cached, nil
				},
			},
		}

		rec, err := e.Extract(context.Background(), page, "users")
		require.NoError(t, err)
		assert.Same(t, cached, rec)
		assert.Zero(t, analyzed.Load())
	})

	t.Run("StaleByAgeReanalyzes", func(t *testing.T) {
		page := testPage("https://docs.example.com/api", "content")
		var analyzed, saved atomic.Int32
		e := &extract.Extractor{
			MaxRecordAge: time.Hour,
			Analyzer: &mock.Analyzer{
				AnalyzeFn: func(ctx context.Context, content, query string) (*docatlas.Analysis, error) {
					analyzed.Add(1)
					return &docatlas.Analysis{}, nil
				},
			},
			Store: &mock.RecordStore{
				FindRecordByURLFn: func(ctx context.Context, url string) (*docatlas.ExtractionRecord, error) {
					return &docatlas.ExtractionRecord{
						SourceURL:   url,
						ExtractedAt: time.Now().Add(-2 * time.Hour),
					}, nil
				},
				SaveRecordFn: func(ctx context.Context, rec *docatlas.ExtractionRecord) error {
					saved.Add(1)
					return nil
				},
			},
		}

		_, err := e.Extract(context.Background(), page, "")
		require.NoError(t, err)
		assert.Equal(t, int32(1), analyzed.Load())
		assert.Equal(t, int32(1), saved.Load())
	})

	t.Run("StaleByContentHashReanalyzes", func(t *testing.T) {
		page := testPage("https://docs.example.com/api", "new content")
		var analyzed atomic.Int32
		e := &extract.Extractor{
			Analyzer: &mock.Analyzer{
				AnalyzeFn: func(ctx context.Context, content, query string) (*docatlas.Analysis, error) {
					analyzed.Add(1)
					return &docatlas.Analysis{}, nil
				},
			},
			Store: &mock.RecordStore{
				FindRecordByURLFn: func(ctx context.Context, url string) (*docatlas.ExtractionRecord, error) {
					return &docatlas.ExtractionRecord{
						SourceURL:   url,
						ContentHash: "0000000000000000",
						ExtractedAt: time.Now(),
					}, nil
				},
				SaveRecordFn: func(ctx context.Context, rec *docatlas.ExtractionRecord) error {
					return nil
				},
			},
		}

		_, err := e.Extract(context.Background(), page, "")
		require.NoError(t, err)
		assert.Equal(t, int32(1), analyzed.Load())
	})

	t.Run("AnalyzerFailureIsUnavailableWithNoFallback", func(t *testing.T) {
		var saved atomic.Int32
		e := &extract.Extractor{
			Analyzer: &mock.Analyzer{
				AnalyzeFn: func(ctx context.Context, content, query string) (*docatlas.Analysis, error) {
					return nil, docatlas.Errorf(docatlas.EUNAVAILABLE, "analysis service unreachable")
				},
			},
			Store: &mock.RecordStore{
				FindRecordByURLFn: func(ctx context.Context, url string) (*docatlas.ExtractionRecord, error) {
					return nil, docatlas.Errorf(docatlas.ENOTFOUND, "record not found")
				},
				SaveRecordFn: func(ctx context.Context, rec *docatlas.ExtractionRecord) error {
					saved.Add(1)
					return nil
				},
			},
		}

		rec, err := e.Extract(context.Background(), testPage("https://docs.example.com/api", "content"), "")
		require.Error(t, err)
		assert.Nil(t, rec)
		assert.Equal(t, docatlas.EUNAVAILABLE, docatlas.ErrorCode(err))
		assert.Zero(t, saved.Load())
	})

	t.Run("AnalyzerTimeoutIsUnavailable", func(t *testing.T) {
		e := &extract.Extractor{
			Timeout: 10 * time.Millisecond,
			Analyzer: &mock.Analyzer{
				AnalyzeFn: func(ctx context.Context, content, query string) (*docatlas.Analysis, error) {
					<-ctx.Done()
					return nil, ctx.Err()
				},
			},
		}

		_, err := e.Extract(context.Background(), testPage("https://docs.example.com/slow", "content"), "")
		require.Error(t, err)
		assert.Equal(t, docatlas.EUNAVAILABLE, docatlas.ErrorCode(err))
	})

	t.Run("ConcurrentSameURLAnalyzesOnce", func(t *testing.T) {
		var analyzed atomic.Int32
		started := make(chan struct{})
		release := make(chan struct{})
		e := &extract.Extractor{
			Analyzer: &mock.Analyzer{
				AnalyzeFn: func(ctx context.Context, content, query string) (*docatlas.Analysis, error) {
					if analyzed.Add(1) == 1 {
						close(started)
					}
					<-release
					return &docatlas.Analysis{}, nil
				},
			},
		}

		page := testPage("https://docs.example.com/api", "content")
		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				rec, err := e.Extract(context.Background(), page, "")
				assert.NoError(t, err)
				assert.NotNil(t, rec)
			}()
		}

		<-started
		// Give the remaining callers time to join the in-flight call.
		time.Sleep(20 * time.Millisecond)
		close(release)
		wg.Wait()

		assert.Equal(t, int32(1), analyzed.Load())
	})

	t.Run("WorksWithoutStore", func(t *testing.T) {
		e := &extract.Extractor{
			Analyzer: &mock.Analyzer{
				AnalyzeFn: func(ctx context.Context, content, query string) (*docatlas.Analysis, error) {
					return &docatlas.Analysis{}, nil
				},
			},
		}
		rec, err := e.Extract(context.Background(), testPage("https://docs.example.com", "content"), "")
		require.NoError(t, err)
		assert.NotNil(t, rec)
	})

	t.Run("PreparesContentBeforeAnalysis", func(t *testing.T) {
		var analyzedContent string
		e := &extract.Extractor{
			Content: &mock.ContentExtractor{
				ExtractFn: func(html string) (*docatlas.ExtractResult, error) {
					return &docatlas.ExtractResult{Title: "API", ContentHTML: "<p>clean</p>"}, nil
				},
			},
			Converter: &mock.Converter{
				ConvertFn: func(html string) (string, error) {
					return "clean", nil
				},
			},
			Analyzer: &mock.Analyzer{
				AnalyzeFn: func(ctx context.Context, content, query string) (*docatlas.Analysis, error) {
					analyzedContent = content
					return &docatlas.Analysis{}, nil
				},
			},
		}

		_, err := e.Extract(context.Background(), testPage("https://docs.example.com", "<html>raw</html>"), "")
		require.NoError(t, err)
		assert.Equal(t, "clean", analyzedContent)
	})

	t.Run("TruncatesOversizedContent", func(t *testing.T) {
		var analyzedContent string
		e := &extract.Extractor{
			MaxContentTokens: 10,
			Tokens: &mock.TokenCounter{
				CountTokensFn: func(ctx context.Context, text string) (int, error) {
					return len(text), nil
				},
			},
			Analyzer: &mock.Analyzer{
				AnalyzeFn: func(ctx context.Context, content, query string) (*docatlas.Analysis, error) {
					analyzedContent = content
					return &docatlas.Analysis{}, nil
				},
			},
		}

		long := make([]byte, 100)
		for i := range long {
			long[i] = 'a'
		}
		_, err := e.Extract(context.Background(), testPage("https://docs.example.com", string(long)), "")
		require.NoError(t, err)
		assert.Len(t, analyzedContent, 10)
	})
}
