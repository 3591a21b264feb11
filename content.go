package docatlas

import "context"

// ExtractResult holds the main content pulled from an HTML page.
type ExtractResult struct {
	// Title is the page title extracted from metadata.
	Title string

	// ContentHTML is the main content as clean HTML with boilerplate
	// (nav, footer, sidebar, ads) removed.
	ContentHTML string
}

// ContentExtractor extracts main content from HTML pages, removing
// boilerplate before the content is handed to the analyzer.
type ContentExtractor interface {
	Extract(html string) (*ExtractResult, error)
}

// Converter converts HTML to Markdown. The input should be clean HTML
// (e.g., from a ContentExtractor); the Markdown form is cheaper to send
// to the analyzer than raw HTML.
type Converter interface {
	Convert(html string) (string, error)
}

// TokenCounter counts tokens in text for a specific model. Used to keep
// page content within the analyzer's input budget.
type TokenCounter interface {
	CountTokens(ctx context.Context, text string) (int, error)
}
