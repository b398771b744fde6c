// Package http provides HTTP implementations of the websearch fetching
// and sitemap discovery interfaces.
package http

import (
	"context"
	"errors"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	websearch "github.com/Mati018/website-search"
)

// DefaultFetchTimeout is the default per-request timeout.
const DefaultFetchTimeout = 10 * time.Second

// maxRedirects caps redirect chains per fetch.
const maxRedirects = 5

// maxBodyBytes caps how much of a response body is read. Pages larger
// than this are truncated rather than rejected.
const maxBodyBytes = 10 << 20

// Ensure Fetcher implements websearch.Fetcher at compile time.
var _ websearch.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves HTML content from URLs over plain HTTP. It enforces
// a per-request timeout, follows redirects up to a small fixed limit,
// and rejects non-HTML responses from the Content-Type header without
// reading the body. It performs no retries; retry policy belongs to the
// crawler.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-request timeout.
// Defaults to DefaultFetchTimeout if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets the User-Agent header sent with each request.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:   DefaultFetchTimeout,
		userAgent: "websearch/1.0",
	}
	for _, opt := range opts {
		opt(f)
	}

	f.client = &http.Client{
		Timeout: f.timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	return f
}

// Fetch retrieves the HTML content of url, returning the body and the
// final URL after redirects.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*websearch.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, websearch.Errorf(websearch.EINVALID, "invalid URL %q: %v", url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, websearch.Errorf(websearch.ETIMEOUT, "fetch %s timed out", url)
		}
		return nil, websearch.Errorf(websearch.EUNAVAILABLE, "fetch %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, websearch.Errorf(websearch.EUNAVAILABLE, "fetch %s: HTTP %d", url, resp.StatusCode)
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" && !isHTML(ct) {
		return nil, websearch.Errorf(websearch.EUNSUPPORTED, "fetch %s: unsupported content type %q", url, ct)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if isTimeout(err) {
			return nil, websearch.Errorf(websearch.ETIMEOUT, "fetch %s timed out reading body", url)
		}
		return nil, websearch.Errorf(websearch.EUNAVAILABLE, "fetch %s: read body: %v", url, err)
	}

	return &websearch.FetchResult{
		HTML:     string(body),
		FinalURL: resp.Request.URL.String(),
	}, nil
}

// Close releases resources. No-op for the HTTP fetcher since http.Client
// requires no explicit cleanup.
func (f *Fetcher) Close() error {
	return nil
}

// isHTML reports whether a Content-Type header denotes an HTML document.
func isHTML(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	}
	switch mediaType {
	case "text/html", "application/xhtml+xml":
		return true
	}
	return false
}

// isTimeout reports whether err represents a deadline or network timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
