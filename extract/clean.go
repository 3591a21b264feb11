package extract

import (
	"strings"

	"github.com/jsliwa/docatlas"
)

// CleanEndpoints normalizes analyzer endpoint candidates: markup
// artifacts are stripped from methods and paths, candidates without a
// recognized verb or a leading slash are discarded, full URLs that leaked
// into the path field are dropped, confidence is clamped to [0, 1], and
// (method, path) pairs are de-duplicated preserving first-seen order.
func CleanEndpoints(in []docatlas.Endpoint) []docatlas.Endpoint {
	seen := make(map[string]struct{}, len(in))
	out := make([]docatlas.Endpoint, 0, len(in))

	for _, ep := range in {
		method := strings.ToUpper(stripMarkup(ep.Method))
		if !docatlas.ValidHTTPMethod(method) {
			continue
		}

		path := stripMarkup(ep.Path)
		if strings.Contains(path, "://") {
			continue
		}
		if !strings.HasPrefix(path, "/") {
			continue
		}

		key := method + " " + path
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		out = append(out, docatlas.Endpoint{
			Method:      method,
			Path:        path,
			Description: strings.TrimSpace(ep.Description),
			Confidence:  clamp01(ep.Confidence),
		})
	}
	return out
}

// stripMarkup removes markdown emphasis and code markers plus stray
// punctuation that prose-adjacent extraction tends to leave behind.
func stripMarkup(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "`*_")
	s = strings.TrimSpace(s)
	return strings.TrimRight(s, ".,;:")
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
