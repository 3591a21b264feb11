package docatlas

import (
	"encoding/json"
	"time"
)

// Failure stages for SessionReport entries.
const (
	StageFetch   = "fetch"
	StageExtract = "extract"
)

// Failure records one non-fatal per-page error in a session.
type Failure struct {
	URL     string `json:"url"`
	Stage   string `json:"stage"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SessionReport aggregates the outcome of one crawl-and-extract session.
// It is computed at the end of the session and not persisted.
type SessionReport struct {
	SeedURL           string
	Query             string
	PagesCrawled      int
	MaxDepthReached   int
	TotalEndpoints    int
	EndpointsByMethod map[string]int
	Failures          []Failure
	Duration          time.Duration
}

// MarshalJSON serializes the report with the duration in milliseconds,
// which is what downstream consumers expect.
func (r *SessionReport) MarshalJSON() ([]byte, error) {
	type alias struct {
		SeedURL           string         `json:"seedUrl"`
		Query             string         `json:"query,omitempty"`
		PagesCrawled      int            `json:"pagesCrawled"`
		MaxDepthReached   int            `json:"maxDepthReached"`
		TotalEndpoints    int            `json:"totalEndpoints"`
		EndpointsByMethod map[string]int `json:"endpointsByMethod"`
		Failures          []Failure      `json:"failures"`
		DurationMS        int64          `json:"durationMs"`
	}
	failures := r.Failures
	if failures == nil {
		failures = []Failure{}
	}
	return json.Marshal(alias{
		SeedURL:           r.SeedURL,
		Query:             r.Query,
		PagesCrawled:      r.PagesCrawled,
		MaxDepthReached:   r.MaxDepthReached,
		TotalEndpoints:    r.TotalEndpoints,
		EndpointsByMethod: r.EndpointsByMethod,
		Failures:          failures,
		DurationMS:        r.Duration.Milliseconds(),
	})
}
