package docatlas

import (
	"context"
	"strings"
	"time"
)

// ExtractionMethodAnalysis marks records produced by the LLM analyzer.
// It is the only extraction method: there is deliberately no heuristic
// fallback, so the field exists to keep old records distinguishable if a
// second method is ever added.
const ExtractionMethodAnalysis = "ai-analysis"

// Endpoint is one API route extracted from a documentation page.
type Endpoint struct {
	Method      string  `json:"method"`
	Path        string  `json:"path"`
	Description string  `json:"description,omitempty"`
	Confidence  float64 `json:"confidence"`
}

// Parameter is a request parameter extracted from a documentation page.
type Parameter struct {
	Name        string `json:"name"`
	In          string `json:"in,omitempty"` // "query", "path", "header" or "body"
	Type        string `json:"type,omitempty"`
	Required    bool   `json:"required,omitempty"`
	Description string `json:"description,omitempty"`
}

// Analysis is the analyzer's structured reading of one page. Endpoint
// candidates are raw: paths may carry markup artifacts and methods may be
// miscased until the extractor cleans them.
type Analysis struct {
	Endpoints  []Endpoint  `json:"endpoints"`
	Parameters []Parameter `json:"parameters"`
}

// Analyzer turns page content into structured API facts.
//
// Analyzer is a single-implementation capability: when it cannot be
// reached or returns no parseable result, implementations return
// EUNAVAILABLE and callers surface the failure rather than degrading to a
// lower-quality heuristic. Silent fallback produced inconsistent data
// that was indistinguishable from high-confidence output.
type Analyzer interface {
	// Analyze extracts API facts from page content. The query is a
	// free-text hint narrowing what the caller is looking for; it may be
	// empty.
	Analyze(ctx context.Context, content, query string) (*Analysis, error)
}

// ExtractionRecord is the persisted outcome of analyzing one page.
// Records are keyed by normalized source URL: re-extracting the same URL
// yields either the stored record or a deterministic overwrite, never
// duplicate accumulation.
type ExtractionRecord struct {
	ID          string      `json:"id"`
	SourceURL   string      `json:"sourceUrl"`
	Endpoints   []Endpoint  `json:"endpoints"`
	Parameters  []Parameter `json:"parameters"`
	Method      string      `json:"method"`
	ContentHash string      `json:"contentHash,omitempty"`
	ExtractedAt time.Time   `json:"extractedAt"`
}

// Validate returns an error if the record contains invalid fields.
func (r *ExtractionRecord) Validate() error {
	if r.SourceURL == "" {
		return Errorf(EINVALID, "extraction record source URL required")
	}
	if r.Method == "" {
		return Errorf(EINVALID, "extraction record method required")
	}
	return nil
}

// RecordFilter represents a filter for FindRecords.
type RecordFilter struct {
	SourceURL *string `json:"sourceUrl"`
	URLPrefix *string `json:"urlPrefix"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// RecordStore persists extraction records across sessions, keyed by
// normalized source URL.
type RecordStore interface {
	// FindRecordByURL retrieves the record for a normalized URL.
	// Returns ENOTFOUND on a miss.
	FindRecordByURL(ctx context.Context, url string) (*ExtractionRecord, error)

	// FindRecords retrieves records matching the filter, most recently
	// extracted first.
	FindRecords(ctx context.Context, filter RecordFilter) ([]*ExtractionRecord, error)

	// SaveRecord inserts the record or deterministically overwrites the
	// existing record for the same source URL.
	SaveRecord(ctx context.Context, rec *ExtractionRecord) error
}

// httpMethods is the set of standard verbs accepted in extracted endpoints.
var httpMethods = map[string]struct{}{
	"GET":     {},
	"POST":    {},
	"PUT":     {},
	"PATCH":   {},
	"DELETE":  {},
	"HEAD":    {},
	"OPTIONS": {},
	"TRACE":   {},
	"CONNECT": {},
}

// ValidHTTPMethod reports whether m is a standard HTTP verb. The check is
// case-insensitive.
func ValidHTTPMethod(m string) bool {
	_, ok := httpMethods[strings.ToUpper(m)]
	return ok
}
