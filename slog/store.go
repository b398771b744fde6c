package slog

import (
	"context"
	"log/slog"
	"time"

	websearch "github.com/Mati018/website-search"
)

// Ensure LoggingVectorStore implements websearch.VectorStore.
var _ websearch.VectorStore = (*LoggingVectorStore)(nil)

// LoggingVectorStore wraps a VectorStore with timing logs on the write
// and query paths.
type LoggingVectorStore struct {
	next   websearch.VectorStore
	logger *slog.Logger
}

// NewLoggingVectorStore creates a new LoggingVectorStore.
func NewLoggingVectorStore(next websearch.VectorStore, logger *slog.Logger) *LoggingVectorStore {
	return &LoggingVectorStore{next: next, logger: logger}
}

// CreateCollection delegates to the wrapped store.
func (s *LoggingVectorStore) CreateCollection(ctx context.Context, name string) error {
	err := s.next.CreateCollection(ctx, name)
	s.logger.Debug("collection created", "collection", name, "error", err)
	return err
}

// UpsertChunks delegates to the wrapped store, logging batch size and
// duration.
func (s *LoggingVectorStore) UpsertChunks(ctx context.Context, name string, chunks []*websearch.Chunk) error {
	begin := time.Now()
	err := s.next.UpsertChunks(ctx, name, chunks)
	s.logger.Debug("chunks upserted",
		"collection", name,
		"chunks", len(chunks),
		"duration", time.Since(begin),
		"error", err,
	)
	return err
}

// PublishCollection delegates to the wrapped store.
func (s *LoggingVectorStore) PublishCollection(ctx context.Context, name string) error {
	err := s.next.PublishCollection(ctx, name)
	s.logger.Info("collection published", "collection", name, "error", err)
	return err
}

// Ready delegates to the wrapped store.
func (s *LoggingVectorStore) Ready(ctx context.Context, name string) (bool, error) {
	return s.next.Ready(ctx, name)
}

// Query delegates to the wrapped store, logging result count and
// duration.
func (s *LoggingVectorStore) Query(ctx context.Context, name string, vector []float32, topK int) ([]websearch.Match, error) {
	begin := time.Now()
	matches, err := s.next.Query(ctx, name, vector, topK)
	s.logger.Debug("collection queried",
		"collection", name,
		"topK", topK,
		"matches", len(matches),
		"duration", time.Since(begin),
	)
	return matches, err
}

// CountChunks delegates to the wrapped store.
func (s *LoggingVectorStore) CountChunks(ctx context.Context, name string) (int, error) {
	return s.next.CountChunks(ctx, name)
}

// DeleteCollection delegates to the wrapped store.
func (s *LoggingVectorStore) DeleteCollection(ctx context.Context, name string) error {
	err := s.next.DeleteCollection(ctx, name)
	s.logger.Info("collection deleted", "collection", name, "error", err)
	return err
}

// ListCollections delegates to the wrapped store.
func (s *LoggingVectorStore) ListCollections(ctx context.Context) ([]string, error) {
	return s.next.ListCollections(ctx)
}
