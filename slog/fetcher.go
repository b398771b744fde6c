// Package slog provides logging decorators for websearch interfaces.
package slog

import (
	"context"
	"log/slog"
	"time"

	websearch "github.com/Mati018/website-search"
)

// Ensure LoggingFetcher implements websearch.Fetcher.
var _ websearch.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with debug logging of every request.
type LoggingFetcher struct {
	next   websearch.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next websearch.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch delegates to the wrapped fetcher, logging URL, duration, and
// outcome.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (*websearch.FetchResult, error) {
	begin := time.Now()
	res, err := f.next.Fetch(ctx, url)
	if err != nil {
		f.logger.Debug("fetch failed",
			"url", url,
			"duration", time.Since(begin),
			"code", websearch.ErrorCode(err),
		)
		return nil, err
	}
	f.logger.Debug("fetch",
		"url", url,
		"duration", time.Since(begin),
		"bytes", len(res.HTML),
	)
	return res, nil
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}
