package crawl

import (
	"context"
	"testing"
	"time"

	websearch "github.com/Mati018/website-search"
	"github.com/Mati018/website-search/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchWithDelays(t *testing.T) {
	t.Parallel()

	t.Run("single attempt by default", func(t *testing.T) {
		t.Parallel()

		attempts := 0
		fetcher := &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string) (*websearch.FetchResult, error) {
				attempts++
				return nil, websearch.Errorf(websearch.EUNAVAILABLE, "down")
			},
		}

		_, err := fetchWithDelays(context.Background(), fetcher, "https://example.com", nil)
		require.Error(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("retries once per configured delay", func(t *testing.T) {
		t.Parallel()

		attempts := 0
		fetcher := &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string) (*websearch.FetchResult, error) {
				attempts++
				if attempts < 3 {
					return nil, websearch.Errorf(websearch.EUNAVAILABLE, "down")
				}
				return &websearch.FetchResult{HTML: "<html></html>", FinalURL: url}, nil
			},
		}

		res, err := fetchWithDelays(context.Background(), fetcher, "https://example.com",
			[]time.Duration{time.Millisecond, time.Millisecond})
		require.NoError(t, err)
		assert.Equal(t, 3, attempts)
		assert.Equal(t, "<html></html>", res.HTML)
	})

	t.Run("does not retry unsupported content", func(t *testing.T) {
		t.Parallel()

		attempts := 0
		fetcher := &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string) (*websearch.FetchResult, error) {
				attempts++
				return nil, websearch.Errorf(websearch.EUNSUPPORTED, "application/pdf")
			},
		}

		_, err := fetchWithDelays(context.Background(), fetcher, "https://example.com",
			[]time.Duration{time.Millisecond, time.Millisecond})
		require.Error(t, err)
		assert.Equal(t, websearch.EUNSUPPORTED, websearch.ErrorCode(err))
		assert.Equal(t, 1, attempts)
	})

	t.Run("stops when the context is canceled between attempts", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		fetcher := &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string) (*websearch.FetchResult, error) {
				cancel()
				return nil, websearch.Errorf(websearch.EUNAVAILABLE, "down")
			},
		}

		_, err := fetchWithDelays(ctx, fetcher, "https://example.com",
			[]time.Duration{time.Minute})
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
