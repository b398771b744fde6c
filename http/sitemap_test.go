package http_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	wshttp "github.com/Mati018/website-search/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSitemapService_DiscoverURLs(t *testing.T) {
	t.Parallel()

	t.Run("discovers sitemap from robots.txt", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		server := httptest.NewServer(mux)
		defer server.Close()

		mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, "User-agent: *\nSitemap: %s/custom-sitemap.xml\n", server.URL)
		})
		mux.HandleFunc("/custom-sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://example.com/page1</loc></url>
  <url><loc>https://example.com/page2</loc></url>
</urlset>`)
		})

		svc := wshttp.NewSitemapService(nil)
		urls, err := svc.DiscoverURLs(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/page1", "https://example.com/page2"}, urls)
	})

	t.Run("falls back to /sitemap.xml", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		server := httptest.NewServer(mux)
		defer server.Close()

		mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		})
		mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<?xml version="1.0"?>
<urlset><url><loc>https://example.com/only</loc></url></urlset>`)
		})

		svc := wshttp.NewSitemapService(nil)
		urls, err := svc.DiscoverURLs(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/only"}, urls)
	})

	t.Run("resolves sitemap indexes recursively", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		server := httptest.NewServer(mux)
		defer server.Close()

		mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, "Sitemap: %s/sitemap-index.xml\n", server.URL)
		})
		mux.HandleFunc("/sitemap-index.xml", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, `<?xml version="1.0"?>
<sitemapindex>
  <sitemap><loc>%s/sitemap-a.xml</loc></sitemap>
  <sitemap><loc>%s/sitemap-b.xml</loc></sitemap>
</sitemapindex>`, server.URL, server.URL)
		})
		mux.HandleFunc("/sitemap-a.xml", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<urlset><url><loc>https://example.com/a</loc></url></urlset>`)
		})
		mux.HandleFunc("/sitemap-b.xml", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<urlset><url><loc>https://example.com/b</loc></url></urlset>`)
		})

		svc := wshttp.NewSitemapService(nil)
		urls, err := svc.DiscoverURLs(context.Background(), server.URL)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"https://example.com/a", "https://example.com/b"}, urls)
	})

	t.Run("returns empty slice when no sitemap exists", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
		defer server.Close()

		svc := wshttp.NewSitemapService(nil)
		urls, err := svc.DiscoverURLs(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Empty(t, urls)
	})

	t.Run("deduplicates URLs across sitemaps", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		server := httptest.NewServer(mux)
		defer server.Close()

		mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, "Sitemap: %s/a.xml\nSitemap: %s/b.xml\n", server.URL, server.URL)
		})
		shared := `<urlset><url><loc>https://example.com/dup</loc></url></urlset>`
		mux.HandleFunc("/a.xml", func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, shared) })
		mux.HandleFunc("/b.xml", func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, shared) })

		svc := wshttp.NewSitemapService(nil)
		urls, err := svc.DiscoverURLs(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/dup"}, urls)
	})
}
