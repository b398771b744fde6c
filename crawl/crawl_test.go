package crawl_test

import (
	"context"
	"testing"
	"time"

	websearch "github.com/Mati018/website-search"
	"github.com/Mati018/website-search/crawl"
	"github.com/Mati018/website-search/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// siteGraph builds a Fetcher and LinkExtractor backed by a static map of
// page URL to outgoing links. Unknown URLs fail with EUNAVAILABLE.
func siteGraph(pages map[string][]string) (*mock.Fetcher, *mock.LinkExtractor) {
	fetcher := &mock.Fetcher{
		FetchFn: func(ctx context.Context, url string) (*websearch.FetchResult, error) {
			if _, ok := pages[url]; !ok {
				return nil, websearch.Errorf(websearch.EUNAVAILABLE, "fetch %s: HTTP 404", url)
			}
			return &websearch.FetchResult{
				HTML:     "<html>" + url + "</html>",
				FinalURL: url,
			}, nil
		},
	}
	extractor := &mock.LinkExtractor{
		ExtractFn: func(html string, baseURL string) (*websearch.ExtractResult, error) {
			return &websearch.ExtractResult{
				Links: pages[baseURL],
				Text:  "content of " + baseURL,
			}, nil
		},
	}
	return fetcher, extractor
}

func collectPages(t *testing.T, stream websearch.PageStream) []string {
	t.Helper()
	var urls []string
	for page := range stream.Pages() {
		urls = append(urls, page.URL)
	}
	return urls
}

func mustSite(t *testing.T, raw string) *websearch.Site {
	t.Helper()
	site, err := websearch.NormalizeSite(raw)
	require.NoError(t, err)
	return site
}

func TestCrawler_Crawl(t *testing.T) {
	t.Parallel()

	t.Run("visits each page exactly once in BFS order", func(t *testing.T) {
		t.Parallel()

		// page2 links back to the root and to page3, which the root also
		// links to; neither may be fetched twice.
		fetcher, extractor := siteGraph(map[string][]string{
			"https://example.com": {
				"https://example.com/page2",
				"https://example.com/page3",
			},
			"https://example.com/page2": {
				"https://example.com",
				"https://example.com/page3",
			},
			"https://example.com/page3": {},
		})

		c := &crawl.Crawler{
			Fetcher:   fetcher,
			Extractor: extractor,
			Limits:    crawl.Limits{Concurrency: 1},
		}

		stream := c.Crawl(context.Background(), mustSite(t, "https://example.com"))
		urls := collectPages(t, stream)

		require.NoError(t, stream.Err())
		assert.Equal(t, []string{
			"https://example.com",
			"https://example.com/page2",
			"https://example.com/page3",
		}, urls)
	})

	t.Run("skips links outside the site's domain", func(t *testing.T) {
		t.Parallel()

		fetcher, extractor := siteGraph(map[string][]string{
			"https://example.com": {
				"https://other.com/page",
				"https://blog.example.com/post",
			},
			"https://blog.example.com/post": {},
		})

		c := &crawl.Crawler{
			Fetcher:   fetcher,
			Extractor: extractor,
			Limits:    crawl.Limits{Concurrency: 1},
		}

		stream := c.Crawl(context.Background(), mustSite(t, "https://example.com"))
		urls := collectPages(t, stream)

		require.NoError(t, stream.Err())
		assert.ElementsMatch(t, []string{
			"https://example.com",
			"https://blog.example.com/post",
		}, urls)
	})

	t.Run("same-host mode excludes sibling subdomains", func(t *testing.T) {
		t.Parallel()

		fetcher, extractor := siteGraph(map[string][]string{
			"https://example.com": {
				"https://blog.example.com/post",
				"https://example.com/local",
			},
			"https://example.com/local": {},
		})

		c := &crawl.Crawler{
			Fetcher:      fetcher,
			Extractor:    extractor,
			SameHostOnly: true,
			Limits:       crawl.Limits{Concurrency: 1},
		}

		stream := c.Crawl(context.Background(), mustSite(t, "https://example.com"))
		urls := collectPages(t, stream)

		require.NoError(t, stream.Err())
		assert.ElementsMatch(t, []string{
			"https://example.com",
			"https://example.com/local",
		}, urls)
	})

	t.Run("stops admitting pages at the page cap", func(t *testing.T) {
		t.Parallel()

		fetcher, extractor := siteGraph(map[string][]string{
			"https://example.com":    {"https://example.com/p1"},
			"https://example.com/p1": {"https://example.com/p2"},
			"https://example.com/p2": {"https://example.com/p3"},
			"https://example.com/p3": {"https://example.com/p4"},
			"https://example.com/p4": {},
		})

		c := &crawl.Crawler{
			Fetcher:   fetcher,
			Extractor: extractor,
			Limits:    crawl.Limits{MaxPages: 2, Concurrency: 1},
		}

		stream := c.Crawl(context.Background(), mustSite(t, "https://example.com"))
		urls := collectPages(t, stream)

		require.NoError(t, stream.Err())
		assert.Len(t, urls, 2)
	})

	t.Run("respects the depth limit", func(t *testing.T) {
		t.Parallel()

		fetcher, extractor := siteGraph(map[string][]string{
			"https://example.com":       {"https://example.com/d1"},
			"https://example.com/d1":    {"https://example.com/d1/d2"},
			"https://example.com/d1/d2": {"https://example.com/deep"},
			"https://example.com/deep":  {},
		})

		c := &crawl.Crawler{
			Fetcher:   fetcher,
			Extractor: extractor,
			Limits:    crawl.Limits{MaxDepth: 1, Concurrency: 1},
		}

		stream := c.Crawl(context.Background(), mustSite(t, "https://example.com"))
		urls := collectPages(t, stream)

		require.NoError(t, stream.Err())
		assert.Equal(t, []string{
			"https://example.com",
			"https://example.com/d1",
		}, urls)
	})

	t.Run("skips failing pages and continues", func(t *testing.T) {
		t.Parallel()

		// /missing is linked but not fetchable.
		fetcher, extractor := siteGraph(map[string][]string{
			"https://example.com": {
				"https://example.com/missing",
				"https://example.com/ok",
			},
			"https://example.com/ok": {},
		})

		c := &crawl.Crawler{
			Fetcher:   fetcher,
			Extractor: extractor,
			Limits:    crawl.Limits{Concurrency: 1},
		}

		stream := c.Crawl(context.Background(), mustSite(t, "https://example.com"))
		urls := collectPages(t, stream)

		require.NoError(t, stream.Err())
		assert.ElementsMatch(t, []string{
			"https://example.com",
			"https://example.com/ok",
		}, urls)
	})

	t.Run("aborts when no pages could be fetched", func(t *testing.T) {
		t.Parallel()

		fetcher := &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string) (*websearch.FetchResult, error) {
				return nil, websearch.Errorf(websearch.EUNAVAILABLE, "fetch %s: connection refused", url)
			},
		}
		extractor := &mock.LinkExtractor{
			ExtractFn: func(html string, baseURL string) (*websearch.ExtractResult, error) {
				return &websearch.ExtractResult{}, nil
			},
		}

		c := &crawl.Crawler{
			Fetcher:   fetcher,
			Extractor: extractor,
			Limits:    crawl.Limits{Concurrency: 1},
		}

		stream := c.Crawl(context.Background(), mustSite(t, "https://example.com"))
		urls := collectPages(t, stream)

		assert.Empty(t, urls)
		require.Error(t, stream.Err())
		assert.Equal(t, websearch.EABORTED, websearch.ErrorCode(stream.Err()))
	})

	t.Run("aborts when the deadline expires", func(t *testing.T) {
		t.Parallel()

		fetcher := &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string) (*websearch.FetchResult, error) {
				<-ctx.Done()
				return nil, websearch.Errorf(websearch.ETIMEOUT, "fetch %s timed out", url)
			},
		}
		extractor := &mock.LinkExtractor{
			ExtractFn: func(html string, baseURL string) (*websearch.ExtractResult, error) {
				return &websearch.ExtractResult{}, nil
			},
		}

		c := &crawl.Crawler{
			Fetcher:   fetcher,
			Extractor: extractor,
			Limits:    crawl.Limits{Concurrency: 1, Deadline: 20 * time.Millisecond},
		}

		stream := c.Crawl(context.Background(), mustSite(t, "https://example.com"))
		urls := collectPages(t, stream)

		assert.Empty(t, urls)
		require.Error(t, stream.Err())
		assert.Equal(t, websearch.EABORTED, websearch.ErrorCode(stream.Err()))
	})

	t.Run("drops pages reached twice through redirects", func(t *testing.T) {
		t.Parallel()

		// /alias redirects to the root, which was already fetched.
		fetcher := &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string) (*websearch.FetchResult, error) {
				final := url
				if url == "https://example.com/alias" {
					final = "https://example.com"
				}
				return &websearch.FetchResult{HTML: "<html></html>", FinalURL: final}, nil
			},
		}
		extractor := &mock.LinkExtractor{
			ExtractFn: func(html string, baseURL string) (*websearch.ExtractResult, error) {
				if baseURL == "https://example.com" {
					return &websearch.ExtractResult{Links: []string{"https://example.com/alias"}}, nil
				}
				return &websearch.ExtractResult{}, nil
			},
		}

		c := &crawl.Crawler{
			Fetcher:   fetcher,
			Extractor: extractor,
			Limits:    crawl.Limits{Concurrency: 1},
		}

		stream := c.Crawl(context.Background(), mustSite(t, "https://example.com"))
		urls := collectPages(t, stream)

		require.NoError(t, stream.Err())
		assert.Equal(t, []string{"https://example.com"}, urls)
	})

	t.Run("seeds the frontier from the sitemap", func(t *testing.T) {
		t.Parallel()

		// /orphan is in the sitemap but not linked from any page.
		fetcher, extractor := siteGraph(map[string][]string{
			"https://example.com":        {},
			"https://example.com/orphan": {},
		})

		c := &crawl.Crawler{
			Fetcher:   fetcher,
			Extractor: extractor,
			Sitemaps: urlSourceFunc(func(ctx context.Context, baseURL string) ([]string, error) {
				return []string{"https://example.com/orphan", "https://other.com/out-of-scope"}, nil
			}),
			Limits: crawl.Limits{Concurrency: 1},
		}

		stream := c.Crawl(context.Background(), mustSite(t, "https://example.com"))
		urls := collectPages(t, stream)

		require.NoError(t, stream.Err())
		assert.ElementsMatch(t, []string{
			"https://example.com",
			"https://example.com/orphan",
		}, urls)
	})

	t.Run("ignores sitemap discovery failures", func(t *testing.T) {
		t.Parallel()

		fetcher, extractor := siteGraph(map[string][]string{
			"https://example.com": {},
		})

		c := &crawl.Crawler{
			Fetcher:   fetcher,
			Extractor: extractor,
			Sitemaps: urlSourceFunc(func(ctx context.Context, baseURL string) ([]string, error) {
				return nil, websearch.Errorf(websearch.EUNAVAILABLE, "robots.txt unreachable")
			}),
			Limits: crawl.Limits{Concurrency: 1},
		}

		stream := c.Crawl(context.Background(), mustSite(t, "https://example.com"))
		urls := collectPages(t, stream)

		require.NoError(t, stream.Err())
		assert.Equal(t, []string{"https://example.com"}, urls)
	})
}

// urlSourceFunc adapts a function to the URLSource interface.
type urlSourceFunc func(ctx context.Context, baseURL string) ([]string, error)

func (f urlSourceFunc) DiscoverURLs(ctx context.Context, baseURL string) ([]string, error) {
	return f(ctx, baseURL)
}
