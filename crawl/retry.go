package crawl

import (
	"context"
	"time"

	websearch "github.com/Mati018/website-search"
)

// fetchWithDelays fetches a URL, retrying after each configured delay.
// An empty delays slice means a single attempt with no retries, which is
// the default: page-level failures are cheap to skip and the whole build
// restarts from scratch on failure anyway.
func fetchWithDelays(ctx context.Context, fetcher websearch.Fetcher, url string, delays []time.Duration) (*websearch.FetchResult, error) {
	maxAttempts := len(delays) + 1

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		res, err := fetcher.Fetch(ctx, url)
		if err == nil {
			return res, nil
		}
		lastErr = err

		// Unsupported content never becomes fetchable on retry.
		if websearch.ErrorCode(err) == websearch.EUNSUPPORTED {
			break
		}
		if attempt >= maxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delays[attempt]):
		}
	}

	return nil, lastErr
}
