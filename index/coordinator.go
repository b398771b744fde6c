// Package index coordinates the crawl-index-search pipeline. The
// Coordinator owns the per-site collection lifecycle: it decides whether
// a search request can reuse an existing collection or must build one,
// guarantees at most one build per site at a time, and never publishes a
// partially written collection.
package index

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	websearch "github.com/Mati018/website-search"
)

// Defaults for the query and build paths.
const (
	DefaultTopK           = 10
	DefaultEmbedBatchSize = 64
	DefaultBuildTimeout   = 5 * time.Minute
)

// Ensure Coordinator implements websearch.SearchService at compile time.
var _ websearch.SearchService = (*Coordinator)(nil)

// Coordinator is the top-level state machine. Each site is absent,
// building, or ready: absent sites are built on first search, building
// sites make concurrent callers wait for the one in-flight build, and
// ready sites are queried directly. A failed build rolls the site back
// to absent so a later request retries from scratch.
type Coordinator struct {
	Crawler  websearch.Crawler
	Embedder websearch.Embedder
	Store    websearch.VectorStore

	ChunkOptions websearch.ChunkOptions

	// TopK is the number of results returned per query.
	TopK int

	// EmbedBatchSize is the number of chunks embedded and upserted per
	// batch while building.
	EmbedBatchSize int

	// BuildTimeout bounds a whole build (crawl + embed + upsert).
	BuildTimeout time.Duration

	Logger *slog.Logger

	// group serializes builds per collection name: concurrent searches
	// for the same site share one crawl instead of duplicating it.
	group singleflight.Group
}

// Search answers a (website, query) request, building the site's index
// first if no ready collection exists.
func (c *Coordinator) Search(ctx context.Context, website, query string) (*websearch.SearchResponse, error) {
	if query == "" {
		return nil, websearch.Errorf(websearch.EINVALID, "query required")
	}
	site, err := websearch.NormalizeSite(website)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	name := site.CollectionName()

	ready, err := c.Store.Ready(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ready {
		// The build deliberately detaches from the caller's
		// cancellation: other callers joined via singleflight must not
		// lose the build because the first caller went away.
		if _, err, _ := c.group.Do(name, func() (any, error) {
			// Re-check under the flight: a build that completed between
			// the readiness probe and here must not be redone.
			bctx := context.WithoutCancel(ctx)
			if ready, err := c.Store.Ready(bctx, name); err != nil {
				return nil, err
			} else if ready {
				return nil, nil
			}
			return nil, c.build(bctx, site, name)
		}); err != nil {
			return nil, err
		}
	}

	vectors, err := c.Embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, websearch.Errorf(websearch.EINTERNAL, "embedder returned %d vectors for one query", len(vectors))
	}

	topK := c.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	matches, err := c.Store.Query(ctx, name, vectors[0], topK)
	if err != nil {
		return nil, err
	}
	total, err := c.Store.CountChunks(ctx, name)
	if err != nil {
		return nil, err
	}

	results := make([]websearch.SearchResult, len(matches))
	for i, m := range matches {
		results[i] = websearch.SearchResult{
			Score:       m.Score,
			URL:         m.Chunk.URL,
			Content:     m.Chunk.Content,
			HTMLSnippet: m.Chunk.HTMLSnippet,
		}
	}

	return &websearch.SearchResponse{
		Results:     results,
		Time:        time.Since(start).Seconds(),
		TotalChunks: total,
	}, nil
}

// build crawls the site and writes its collection, publishing only after
// every chunk is stored. On any failure the partial collection is
// deleted so readers either see the build's complete result or nothing.
func (c *Coordinator) build(ctx context.Context, site *websearch.Site, name string) error {
	timeout := c.BuildTimeout
	if timeout <= 0 {
		timeout = DefaultBuildTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger := c.logger().With("build", uuid.NewString()[:8], "site", site.URL, "collection", name)
	logger.Info("build started")
	start := time.Now()

	if err := c.Store.CreateCollection(ctx, name); err != nil {
		return err
	}

	total, err := c.indexPages(ctx, site, name)
	if err != nil {
		c.rollback(name, logger)
		logger.Warn("build failed", "error", err)
		return err
	}
	if total == 0 {
		c.rollback(name, logger)
		return websearch.Errorf(websearch.EABORTED, "site %s has no indexable content", site.URL)
	}

	if err := c.Store.PublishCollection(ctx, name); err != nil {
		c.rollback(name, logger)
		return err
	}

	logger.Info("build finished", "chunks", total, "elapsed", time.Since(start))
	return nil
}

// indexPages consumes the crawl stream, splitting pages into chunks and
// flushing embed+upsert batches. Chunk-to-vector correspondence is
// strictly positional through the whole pipeline.
func (c *Coordinator) indexPages(ctx context.Context, site *websearch.Site, name string) (int, error) {
	batchSize := c.EmbedBatchSize
	if batchSize <= 0 {
		batchSize = DefaultEmbedBatchSize
	}

	stream := c.Crawler.Crawl(ctx, site)

	var batch []*websearch.Chunk
	total := 0
	for page := range stream.Pages() {
		for _, chunk := range websearch.SplitPage(page, c.ChunkOptions) {
			chunk.Collection = name
			chunk.ID = websearch.ChunkID(name, chunk.URL, chunk.Position)
			batch = append(batch, chunk)
		}
		for len(batch) >= batchSize {
			if err := c.flush(ctx, name, batch[:batchSize]); err != nil {
				return 0, err
			}
			total += batchSize
			batch = batch[batchSize:]
		}
	}
	if err := stream.Err(); err != nil {
		return 0, err
	}

	if len(batch) > 0 {
		if err := c.flush(ctx, name, batch); err != nil {
			return 0, err
		}
		total += len(batch)
	}

	return total, nil
}

// flush embeds one batch of chunks and upserts them with their vectors.
func (c *Coordinator) flush(ctx context.Context, name string, chunks []*websearch.Chunk) error {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	vectors, err := c.Embedder.Embed(ctx, texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(chunks) {
		return websearch.Errorf(websearch.EINTERNAL,
			"embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}
	for i, chunk := range chunks {
		chunk.Embedding = vectors[i]
	}

	return c.Store.UpsertChunks(ctx, name, chunks)
}

// rollback deletes whatever the failed build wrote. Uses a fresh context
// so cleanup still runs when the build died of a deadline.
func (c *Coordinator) rollback(name string, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.Store.DeleteCollection(ctx, name); err != nil && websearch.ErrorCode(err) != websearch.ENOTFOUND {
		logger.Error("rollback failed, collection may be orphaned", "error", err)
	}
}

// ClearAll deletes every known collection, returning the number deleted.
func (c *Coordinator) ClearAll(ctx context.Context) (int, error) {
	names, err := c.Store.ListCollections(ctx)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, name := range names {
		if err := c.Store.DeleteCollection(ctx, name); err != nil {
			// A concurrent delete already removed it; anything else is fatal.
			if websearch.ErrorCode(err) == websearch.ENOTFOUND {
				continue
			}
			return deleted, err
		}
		deleted++
	}

	c.logger().Info("collections cleared", "deleted", deleted)
	return deleted, nil
}

func (c *Coordinator) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
