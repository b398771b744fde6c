package websearch

import "context"

// SearchResult is one ranked passage returned to the caller. Derived
// fresh from a query against a ready collection; never persisted.
type SearchResult struct {
	Score       float64 `json:"score"`
	URL         string  `json:"url"`
	Content     string  `json:"content"`
	HTMLSnippet string  `json:"html_snippet"`
}

// SearchResponse is the full result of a search request.
type SearchResponse struct {
	Results []SearchResult `json:"results"`

	// Elapsed wall-clock seconds, including any crawl and index build.
	Time float64 `json:"time"`

	// Total chunk count of the site's collection.
	TotalChunks int `json:"total_chunks"`
}

// SearchService answers (website, query) requests, building the site's
// index on first use and reusing it afterwards.
type SearchService interface {
	// Search returns semantically ranked passages from the website.
	// Concurrent calls for a site that is still building share one
	// underlying crawl rather than triggering duplicates.
	Search(ctx context.Context, website, query string) (*SearchResponse, error)

	// ClearAll deletes every known collection and returns the number
	// deleted. Destructive and irreversible.
	ClearAll(ctx context.Context) (int, error)
}
