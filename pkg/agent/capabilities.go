package agent

import "context"

// TextGenerator is the text-generation capability every stage calls through.
// One instance is injected at workflow construction and shared by all stages.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// SearchResult is one ranked snippet from a web search.
type SearchResult struct {
	Title   string
	URL     string
	Snippet string
}

// SearchResponse is the outcome of one web-search call.
type SearchResponse struct {
	Results []SearchResult
	// Context is the raw context text assembled by the search provider.
	Context string
	// Queries are the provider's actual search queries, for auditing.
	Queries []string
}

// Empty reports whether the search produced nothing usable.
func (r SearchResponse) Empty() bool {
	return len(r.Results) == 0 && r.Context == ""
}

// WebSearcher is the web-search capability. Callers treat a returned error
// as a degraded (empty) result, not as a run failure.
type WebSearcher interface {
	Search(ctx context.Context, query string) (SearchResponse, error)
}
