package websearch

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/net/publicsuffix"
)

// Site is the logical target of a crawl, identified by a normalized root
// URL. Each site owns at most one collection in the vector store.
type Site struct {
	// Normalized root URL (scheme + lowercased host + optional path prefix).
	URL string

	// Host portion of the root URL.
	Host string

	// Registrable domain of the host (eTLD+1), used for crawl scoping.
	// Equals Host when the public suffix list cannot resolve it
	// (e.g., "localhost" or IP addresses).
	Domain string
}

// NormalizeSite parses a raw website string into a Site. A missing scheme
// defaults to https. The fragment and query are discarded and a trailing
// slash on the path is removed so that equivalent spellings of the same
// root map to the same site.
func NormalizeSite(raw string) (*Site, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, Errorf(EINVALID, "website URL required")
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, Errorf(EINVALID, "invalid website URL %q: %v", raw, err)
	}
	if u.Host == "" {
		return nil, Errorf(EINVALID, "website URL %q has no host", raw)
	}

	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawQuery = ""
	u.Path = strings.TrimSuffix(u.Path, "/")

	host := u.Hostname()
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		domain = host
	}

	return &Site{
		URL:    u.String(),
		Host:   u.Host,
		Domain: domain,
	}, nil
}

// CollectionName derives the deterministic vector store collection name
// for the site. The readable host prefix aids debugging; the hash of the
// full normalized URL makes names collision-resistant across sites that
// share a host but differ in path prefix.
func (s *Site) CollectionName() string {
	var b strings.Builder
	b.WriteString("website_")
	for _, r := range s.Host {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	fmt.Fprintf(&b, "_%016x", xxhash.Sum64String(s.URL))
	return b.String()
}

// trackingParams are query parameters that never change page content and
// are dropped during URL normalization.
var trackingParams = map[string]bool{
	"fbclid":  true,
	"gclid":   true,
	"msclkid": true,
}

// NormalizeURL canonicalizes a page URL for deduplication: lowercases
// the host, drops the fragment and known tracking parameters, and
// removes a trailing slash. Returns an error for non-http(s) URLs.
func NormalizeURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", Errorf(EINVALID, "invalid URL %q: %v", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", Errorf(EINVALID, "unsupported URL scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", Errorf(EINVALID, "URL %q has no host", raw)
	}

	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")

	if u.RawQuery != "" {
		q := u.Query()
		for key := range q {
			if trackingParams[key] || strings.HasPrefix(key, "utm_") {
				q.Del(key)
			}
		}
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}

// InScope reports whether a fetched or discovered URL belongs to the
// site's crawl scope. With sameHostOnly the host must match exactly;
// otherwise any host under the site's registrable domain qualifies.
func (s *Site) InScope(rawURL string, sameHostOnly bool) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if sameHostOnly {
		return u.Host == s.Host || host == s.Host
	}
	if host == s.Domain {
		return true
	}
	return strings.HasSuffix(host, "."+s.Domain)
}
