// Package gemini implements API-fact analysis with Google Gemini using
// structured JSON output.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jsliwa/docatlas"
	"google.golang.org/genai"
)

// Model is the Gemini model used for analysis and token counting.
const Model = "gemini-2.5-flash"

var _ docatlas.Analyzer = (*Analyzer)(nil)

// Analyzer extracts API endpoints and parameters from documentation
// content. Analysis failures surface as EUNAVAILABLE; there is no local
// fallback.
type Analyzer struct {
	client *genai.Client
}

// NewAnalyzer creates a new Analyzer.
func NewAnalyzer(client *genai.Client) *Analyzer {
	return &Analyzer{client: client}
}

// Analyze sends the page content to Gemini and decodes the structured
// response into an Analysis.
func (a *Analyzer) Analyze(ctx context.Context, content, query string) (*docatlas.Analysis, error) {
	if content == "" {
		return nil, docatlas.Errorf(docatlas.EINVALID, "content required")
	}

	result, err := a.client.Models.GenerateContent(ctx, Model,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: BuildUserPrompt(content, query)}},
		}},
		BuildConfig(),
	)
	if err != nil {
		return nil, docatlas.Errorf(docatlas.EUNAVAILABLE, "gemini request failed: %v", err)
	}
	if result == nil {
		return nil, docatlas.Errorf(docatlas.EUNAVAILABLE, "gemini returned nil result")
	}

	var analysis docatlas.Analysis
	if err := json.Unmarshal([]byte(result.Text()), &analysis); err != nil {
		return nil, docatlas.Errorf(docatlas.EUNAVAILABLE, "unparseable gemini response: %v", err)
	}

	return &analysis, nil
}

// BuildConfig returns the GenerateContentConfig for analysis calls. The
// response schema constrains the model to the endpoint/parameter shape
// so the output is always valid JSON.
func BuildConfig() *genai.GenerateContentConfig {
	temp := float32(0.1)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{
				Text: "You extract REST API facts from documentation pages. " +
					"Report only endpoints and parameters the page actually documents. " +
					"Paths must start with / and methods must be standard HTTP methods. " +
					"Set confidence between 0 and 1 based on how explicitly the page states each fact.",
			}},
		},
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(),
	}
}

func responseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"endpoints": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"method":      {Type: genai.TypeString},
						"path":        {Type: genai.TypeString},
						"description": {Type: genai.TypeString},
						"confidence":  {Type: genai.TypeNumber},
					},
					Required: []string{"method", "path"},
				},
			},
			"parameters": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"name":        {Type: genai.TypeString},
						"in":          {Type: genai.TypeString},
						"type":        {Type: genai.TypeString},
						"required":    {Type: genai.TypeBoolean},
						"description": {Type: genai.TypeString},
					},
					Required: []string{"name"},
				},
			},
		},
		Required: []string{"endpoints", "parameters"},
	}
}

// BuildUserPrompt wraps page content for analysis. The optional query
// focuses extraction on a particular part of the API surface.
func BuildUserPrompt(content, query string) string {
	var sb strings.Builder
	sb.WriteString("<page>\n")
	sb.WriteString(content)
	sb.WriteString("\n</page>\n\n")
	if query != "" {
		fmt.Fprintf(&sb, "Focus on facts relevant to: %s\n", query)
	}
	sb.WriteString("Extract the API endpoints and parameters documented on this page.")
	return sb.String()
}
