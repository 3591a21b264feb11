package slog_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/jsliwa/docatlas"
	"github.com/jsliwa/docatlas/mock"
	docslog "github.com/jsliwa/docatlas/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingAnalyzer_Analyze(t *testing.T) {
	t.Parallel()

	t.Run("LogsEndpointCount", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Analyzer{
			AnalyzeFn: func(ctx context.Context, content, query string) (*docatlas.Analysis, error) {
				return &docatlas.Analysis{
					Endpoints: []docatlas.Endpoint{{Method: "GET", Path: "/api/users"}},
				}, nil
			},
		}

		a := docslog.NewLoggingAnalyzer(inner, logger)
		analysis, err := a.Analyze(context.Background(), "content", "users")

		require.NoError(t, err)
		assert.NotNil(t, analysis)
		output := buf.String()
		assert.Contains(t, output, "analysis")
		assert.Contains(t, output, "endpoints=1")
		assert.Contains(t, output, "duration=")
	})

	t.Run("LogsError", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Analyzer{
			AnalyzeFn: func(ctx context.Context, content, query string) (*docatlas.Analysis, error) {
				return nil, docatlas.Errorf(docatlas.EUNAVAILABLE, "analysis service unreachable")
			},
		}

		a := docslog.NewLoggingAnalyzer(inner, logger)
		_, err := a.Analyze(context.Background(), "content", "")

		require.Error(t, err)
		assert.Contains(t, buf.String(), "unreachable")
	})
}
