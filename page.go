package websearch

import "context"

// Page represents a fetched page of a site. Pages are transient: they
// exist only between fetch and chunk extraction and are never persisted.
type Page struct {
	// Final URL after redirects.
	URL string

	// Raw HTML as fetched.
	HTML string

	// Plain text of the visible block-level elements in document order.
	Text string

	// Per-block text spans paired with their originating HTML fragments.
	Blocks []Block
}

// Block is a visible block-level text span and the raw HTML fragment it
// was extracted from. The fragment is what search results display as a
// snippet.
type Block struct {
	Text string
	HTML string
}

// FetchResult holds the outcome of fetching a single URL.
type FetchResult struct {
	HTML string

	// FinalURL is the URL after following redirects. It may differ from
	// the requested URL and is what the page is keyed by.
	FinalURL string
}

// Fetcher retrieves a single URL over HTTP. Implementations enforce a
// per-request timeout and reject non-HTML content. Retry policy does not
// live here; the crawler decides whether a failed fetch is retried.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)

	// Close releases any underlying resources.
	Close() error
}

// ExtractResult holds links and text extracted from one HTML document.
type ExtractResult struct {
	// Absolute http(s) URLs resolved against the document's base URL,
	// fragment-free, in first-occurrence order.
	Links []string

	// Plain text of the visible blocks joined in document order.
	Text string

	// Visible blocks in document order.
	Blocks []Block
}

// LinkExtractor parses fetched HTML into links and visible text blocks.
type LinkExtractor interface {
	Extract(html string, baseURL string) (*ExtractResult, error)
}

// PageStream is a lazy, finite sequence of crawled pages. It is not
// restartable; a new crawl produces a new stream.
type PageStream interface {
	// Pages returns the channel the crawl emits pages on. The channel is
	// closed when the crawl terminates.
	Pages() <-chan *Page

	// Err returns the terminal crawl error, if any. Only valid after the
	// Pages channel has been closed.
	Err() error
}

// Crawler traverses a site breadth-first and streams fetched pages.
type Crawler interface {
	Crawl(ctx context.Context, site *Site) PageStream
}
