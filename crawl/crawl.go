package crawl

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	websearch "github.com/Mati018/website-search"
)

// Frontier sizing for Bloom filter deduplication.
const (
	frontierExpectedURLs      = 10000
	frontierFalsePositiveRate = 0.01
)

// Default traversal bounds.
const (
	DefaultMaxPages    = 200
	DefaultMaxDepth    = 5
	DefaultConcurrency = 10
)

// Limits bounds a single crawl.
type Limits struct {
	// MaxPages caps how many pages are fetched. Once reached, no new
	// URLs are admitted but in-flight fetches drain normally.
	MaxPages int

	// MaxDepth caps BFS depth; the root is depth 0.
	MaxDepth int

	// Concurrency is the number of fetches in flight at once.
	Concurrency int

	// Deadline is the overall crawl budget. Exceeding it aborts the
	// crawl. Zero means the caller's context is the only bound.
	Deadline time.Duration
}

func (l Limits) withDefaults() Limits {
	if l.MaxPages <= 0 {
		l.MaxPages = DefaultMaxPages
	}
	if l.MaxDepth <= 0 {
		l.MaxDepth = DefaultMaxDepth
	}
	if l.Concurrency <= 0 {
		l.Concurrency = DefaultConcurrency
	}
	return l
}

// URLSource discovers seed URLs for a site, typically from sitemaps.
type URLSource interface {
	DiscoverURLs(ctx context.Context, baseURL string) ([]string, error)
}

// Ensure Crawler implements websearch.Crawler at compile time.
var _ websearch.Crawler = (*Crawler)(nil)

// Crawler traverses a site breadth-first using a bounded worker pool.
// Page-level fetch failures are skipped; the crawl as a whole fails only
// when nothing could be fetched or its deadline expired.
type Crawler struct {
	Fetcher   websearch.Fetcher
	Extractor websearch.LinkExtractor

	// Sitemaps, when set, seeds the frontier from the site's sitemap at
	// depth 1 in addition to normal link discovery.
	Sitemaps URLSource

	// RateLimiter, when set, throttles fetches per domain.
	RateLimiter *DomainLimiter

	// RetryDelays enables per-page fetch retries. Default is none.
	RetryDelays []time.Duration

	// SameHostOnly restricts the crawl to the site's exact host instead
	// of its registrable domain.
	SameHostOnly bool

	Limits Limits
	Logger *slog.Logger
}

// Stream is a channel-backed websearch.PageStream produced by one crawl
// invocation. Not restartable.
type Stream struct {
	pages chan *websearch.Page
	err   error
}

// Pages returns the page channel. Closed when the crawl terminates.
func (s *Stream) Pages() <-chan *websearch.Page { return s.pages }

// Err returns the terminal crawl error. Valid after Pages is closed.
func (s *Stream) Err() error { return s.err }

// outcome is the result of processing one frontier link.
type outcome struct {
	link  Link
	page  *websearch.Page
	links []string
	err   error
}

// Crawl starts a breadth-first traversal of the site and returns a lazy
// page stream. The stream's channel is unbuffered, so traversal advances
// only as fast as the consumer reads.
func (c *Crawler) Crawl(ctx context.Context, site *websearch.Site) websearch.PageStream {
	s := &Stream{pages: make(chan *websearch.Page)}
	go c.run(ctx, site, s)
	return s
}

func (c *Crawler) run(ctx context.Context, site *websearch.Site, s *Stream) {
	defer close(s.pages)

	limits := c.Limits.withDefaults()
	if limits.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, limits.Deadline)
		defer cancel()
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("crawl", uuid.NewString()[:8], "site", site.URL)

	root, err := websearch.NormalizeURL(site.URL)
	if err != nil {
		s.err = err
		return
	}

	frontier := NewFrontier(frontierExpectedURLs, frontierFalsePositiveRate)
	frontier.Push(Link{URL: root, Depth: 0})
	c.seedFromSitemap(ctx, site, frontier, logger)

	workCh := make(chan Link)
	resultCh := make(chan outcome)

	var wg sync.WaitGroup
	for i := 0; i < limits.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for link := range workCh {
				out := c.process(ctx, link)
				select {
				case resultCh <- out:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(resultCh)
	}()

	st := &crawlState{
		site:     site,
		frontier: frontier,
		stream:   s,
		logger:   logger,
		limits:   limits,
		sameHost: c.SameHostOnly,
	}

	var next *Link
	if l, ok := frontier.Pop(); ok {
		next = &l
	}

	dispatched := 0
	pending := 0

coordinatorLoop:
	for {
		if next == nil && pending == 0 {
			break
		}
		if ctx.Err() != nil {
			break
		}

		if next != nil && dispatched < limits.MaxPages {
			select {
			case <-ctx.Done():
				break coordinatorLoop
			case workCh <- *next:
				dispatched++
				pending++
				next = nil
			case out, ok := <-resultCh:
				if !ok {
					break coordinatorLoop
				}
				pending--
				st.handle(ctx, out)
			}
		} else if pending > 0 {
			select {
			case <-ctx.Done():
				break coordinatorLoop
			case out, ok := <-resultCh:
				if !ok {
					break coordinatorLoop
				}
				pending--
				st.handle(ctx, out)
			}
		} else {
			// Page cap reached with nothing in flight.
			break
		}

		if next == nil && dispatched < limits.MaxPages {
			if l, ok := frontier.Pop(); ok {
				next = &l
			}
		}
	}

	// Stop the workers and drain in-flight fetches. Pages completed
	// before the cap was hit are still emitted.
	close(workCh)
	for out := range resultCh {
		st.handle(ctx, out)
	}

	switch {
	case ctx.Err() != nil:
		s.err = websearch.Errorf(websearch.EABORTED, "crawl of %s aborted: %v", site.URL, ctx.Err())
	case st.fetched == 0:
		s.err = websearch.Errorf(websearch.EABORTED, "crawl of %s aborted: no pages fetched: %v", site.URL, st.lastErr)
	}

	logger.Info("crawl finished", "fetched", st.fetched, "failed", st.failed, "dispatched", dispatched)
}

// crawlState accumulates coordinator-side traversal state. handle is
// only ever called from the coordinator goroutine.
type crawlState struct {
	site     *websearch.Site
	frontier *Frontier
	stream   *Stream
	logger   *slog.Logger
	limits   Limits
	sameHost bool

	fetched int
	failed  int
	lastErr error
}

// handle processes one completed fetch: records failures, enqueues
// discovered in-scope links at depth+1, and emits the page downstream.
func (st *crawlState) handle(ctx context.Context, out outcome) {
	if out.err != nil {
		st.failed++
		st.lastErr = out.err
		st.logger.Warn("page skipped", "url", out.link.URL, "error", out.err)
		return
	}

	// A redirect may land on a page that was already fetched under its
	// canonical URL. Drop it instead of indexing it twice.
	if out.page.URL != out.link.URL {
		if st.frontier.Seen(out.page.URL) {
			return
		}
		st.frontier.MarkSeen(out.page.URL)
	}

	if out.link.Depth+1 <= st.limits.MaxDepth {
		for _, link := range out.links {
			if !st.site.InScope(link, st.sameHost) {
				continue
			}
			st.frontier.Push(Link{URL: link, Depth: out.link.Depth + 1})
		}
	}

	st.fetched++
	select {
	case st.stream.pages <- out.page:
	case <-ctx.Done():
	}
}

// process fetches and extracts a single URL on a worker goroutine.
func (c *Crawler) process(ctx context.Context, link Link) outcome {
	out := outcome{link: link}

	if c.RateLimiter != nil {
		u, err := url.Parse(link.URL)
		if err != nil {
			out.err = err
			return out
		}
		if err := c.RateLimiter.Wait(ctx, u.Host); err != nil {
			out.err = err
			return out
		}
	}

	res, err := fetchWithDelays(ctx, c.Fetcher, link.URL, c.RetryDelays)
	if err != nil {
		out.err = err
		return out
	}

	finalURL, err := websearch.NormalizeURL(res.FinalURL)
	if err != nil {
		finalURL = link.URL
	}

	extracted, err := c.Extractor.Extract(res.HTML, finalURL)
	if err != nil {
		out.err = err
		return out
	}

	out.page = &websearch.Page{
		URL:    finalURL,
		HTML:   res.HTML,
		Text:   extracted.Text,
		Blocks: extracted.Blocks,
	}
	out.links = extracted.Links
	return out
}

// seedFromSitemap pushes sitemap URLs into the frontier at depth 1.
// Sitemap failures are logged and ignored; link discovery covers sites
// without one.
func (c *Crawler) seedFromSitemap(ctx context.Context, site *websearch.Site, frontier *Frontier, logger *slog.Logger) {
	if c.Sitemaps == nil {
		return
	}
	urls, err := c.Sitemaps.DiscoverURLs(ctx, site.URL)
	if err != nil {
		logger.Warn("sitemap discovery failed", "error", err)
		return
	}
	seeded := 0
	for _, raw := range urls {
		normalized, err := websearch.NormalizeURL(raw)
		if err != nil {
			continue
		}
		if !site.InScope(normalized, c.SameHostOnly) {
			continue
		}
		if frontier.Push(Link{URL: normalized, Depth: 1}) {
			seeded++
		}
	}
	if seeded > 0 {
		logger.Info("frontier seeded from sitemap", "urls", seeded)
	}
}
