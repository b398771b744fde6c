// Package mock provides function-field mock implementations of the
// websearch interfaces for tests.
package mock

import (
	"context"

	websearch "github.com/Mati018/website-search"
)

var _ websearch.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of websearch.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (*websearch.FetchResult, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*websearch.FetchResult, error) {
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Close() error {
	if f.CloseFn == nil {
		return nil
	}
	return f.CloseFn()
}

var _ websearch.LinkExtractor = (*LinkExtractor)(nil)

// LinkExtractor is a mock implementation of websearch.LinkExtractor.
type LinkExtractor struct {
	ExtractFn func(html string, baseURL string) (*websearch.ExtractResult, error)
}

func (e *LinkExtractor) Extract(html string, baseURL string) (*websearch.ExtractResult, error) {
	return e.ExtractFn(html, baseURL)
}

var _ websearch.Embedder = (*Embedder)(nil)

// Embedder is a mock implementation of websearch.Embedder.
type Embedder struct {
	EmbedFn func(ctx context.Context, texts []string) ([][]float32, error)
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return e.EmbedFn(ctx, texts)
}

var _ websearch.Crawler = (*Crawler)(nil)

// Crawler is a mock implementation of websearch.Crawler.
type Crawler struct {
	CrawlFn func(ctx context.Context, site *websearch.Site) websearch.PageStream
}

func (c *Crawler) Crawl(ctx context.Context, site *websearch.Site) websearch.PageStream {
	return c.CrawlFn(ctx, site)
}

var _ websearch.PageStream = (*PageStream)(nil)

// PageStream is a pre-populated websearch.PageStream.
type PageStream struct {
	ch  chan *websearch.Page
	err error
}

// NewPageStream returns a stream that yields the given pages and then
// terminates with err.
func NewPageStream(pages []*websearch.Page, err error) *PageStream {
	ch := make(chan *websearch.Page, len(pages))
	for _, p := range pages {
		ch <- p
	}
	close(ch)
	return &PageStream{ch: ch, err: err}
}

func (s *PageStream) Pages() <-chan *websearch.Page { return s.ch }

func (s *PageStream) Err() error { return s.err }

var _ websearch.VectorStore = (*VectorStore)(nil)

// VectorStore is a mock implementation of websearch.VectorStore.
type VectorStore struct {
	CreateCollectionFn  func(ctx context.Context, name string) error
	UpsertChunksFn      func(ctx context.Context, name string, chunks []*websearch.Chunk) error
	PublishCollectionFn func(ctx context.Context, name string) error
	ReadyFn             func(ctx context.Context, name string) (bool, error)
	QueryFn             func(ctx context.Context, name string, vector []float32, topK int) ([]websearch.Match, error)
	CountChunksFn       func(ctx context.Context, name string) (int, error)
	DeleteCollectionFn  func(ctx context.Context, name string) error
	ListCollectionsFn   func(ctx context.Context) ([]string, error)
}

func (s *VectorStore) CreateCollection(ctx context.Context, name string) error {
	return s.CreateCollectionFn(ctx, name)
}

func (s *VectorStore) UpsertChunks(ctx context.Context, name string, chunks []*websearch.Chunk) error {
	return s.UpsertChunksFn(ctx, name, chunks)
}

func (s *VectorStore) PublishCollection(ctx context.Context, name string) error {
	return s.PublishCollectionFn(ctx, name)
}

func (s *VectorStore) Ready(ctx context.Context, name string) (bool, error) {
	return s.ReadyFn(ctx, name)
}

func (s *VectorStore) Query(ctx context.Context, name string, vector []float32, topK int) ([]websearch.Match, error) {
	return s.QueryFn(ctx, name, vector, topK)
}

func (s *VectorStore) CountChunks(ctx context.Context, name string) (int, error) {
	return s.CountChunksFn(ctx, name)
}

func (s *VectorStore) DeleteCollection(ctx context.Context, name string) error {
	return s.DeleteCollectionFn(ctx, name)
}

func (s *VectorStore) ListCollections(ctx context.Context) ([]string, error) {
	return s.ListCollectionsFn(ctx)
}

var _ websearch.SearchService = (*SearchService)(nil)

// SearchService is a mock implementation of websearch.SearchService.
type SearchService struct {
	SearchFn   func(ctx context.Context, website, query string) (*websearch.SearchResponse, error)
	ClearAllFn func(ctx context.Context) (int, error)
}

func (s *SearchService) Search(ctx context.Context, website, query string) (*websearch.SearchResponse, error) {
	return s.SearchFn(ctx, website, query)
}

func (s *SearchService) ClearAll(ctx context.Context) (int, error) {
	return s.ClearAllFn(ctx)
}
