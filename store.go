package websearch

import "context"

// Match is a scored chunk returned by a nearest-neighbor query.
type Match struct {
	Chunk *Chunk

	// Cosine similarity normalized to [0,1]; 1.0 is an exact match.
	Score float64
}

// VectorStore owns the physical storage of chunks and their embeddings,
// one named collection per indexed site. It is the only component with
// persistent state.
//
// A collection is created in the building state and is not queryable
// until published. The coordinator publishes only after every chunk of a
// crawl has been written, so readers never observe a partial collection.
type VectorStore interface {
	// CreateCollection creates an empty collection in the building state.
	// Any existing collection of the same name, published or not, is
	// replaced.
	CreateCollection(ctx context.Context, name string) error

	// UpsertChunks writes chunks with their embeddings. Idempotent per
	// chunk ID: re-upserting overwrites, never duplicates.
	UpsertChunks(ctx context.Context, name string, chunks []*Chunk) error

	// PublishCollection transitions a building collection to ready,
	// making it queryable. Returns ENOTFOUND for unknown collections.
	PublishCollection(ctx context.Context, name string) error

	// Ready reports whether a published collection exists under name.
	Ready(ctx context.Context, name string) (bool, error)

	// Query returns the topK chunks nearest to the vector, ordered by
	// descending similarity with ties broken by insertion order. Returns
	// ENOTFOUND if the collection does not exist or is not published.
	Query(ctx context.Context, name string, vector []float32, topK int) ([]Match, error)

	// CountChunks returns the number of chunks stored in a collection.
	CountChunks(ctx context.Context, name string) (int, error)

	// DeleteCollection removes a collection and all of its chunks.
	// Returns ENOTFOUND if the collection does not exist.
	DeleteCollection(ctx context.Context, name string) error

	// ListCollections returns the names of all collections, including
	// unpublished ones.
	ListCollections(ctx context.Context) ([]string, error)
}
