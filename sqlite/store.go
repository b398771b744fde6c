package sqlite

import (
	"context"
	"database/sql"
	"sort"
	"time"

	websearch "github.com/Mati018/website-search"
)

// Compile-time interface verification.
var _ websearch.VectorStore = (*VectorStore)(nil)

// VectorStore implements websearch.VectorStore on SQLite. Collections
// are rows in the collections table; a collection becomes queryable only
// once its ready flag is set, so a build in progress is never visible to
// readers.
type VectorStore struct {
	db *DB
}

// NewVectorStore creates a new VectorStore.
func NewVectorStore(db *DB) *VectorStore {
	return &VectorStore{db: db}
}

// CreateCollection creates an empty building-state collection, replacing
// any existing collection of the same name together with its chunks.
func (s *VectorStore) CreateCollection(ctx context.Context, name string) error {
	if name == "" {
		return websearch.Errorf(websearch.EINVALID, "collection name required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, name); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO collections (name, ready, created_at) VALUES (?, 0, ?)
	`, name, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}

	return tx.Commit()
}

// UpsertChunks writes chunks with their embeddings in one transaction.
// Idempotent per chunk ID: a conflicting insert overwrites the row while
// keeping its original rowid, preserving insertion order.
func (s *VectorStore) UpsertChunks(ctx context.Context, name string, chunks []*websearch.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, collection, url, content, html_snippet, position, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			url = excluded.url,
			content = excluded.content,
			html_snippet = excluded.html_snippet,
			position = excluded.position,
			embedding = excluded.embedding
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		if err := chunk.Validate(); err != nil {
			return err
		}
		if chunk.Collection != name {
			return websearch.Errorf(websearch.EINVALID, "chunk %s belongs to collection %q, not %q", chunk.ID, chunk.Collection, name)
		}
		if len(chunk.Embedding) == 0 {
			return websearch.Errorf(websearch.EINVALID, "chunk %s has no embedding", chunk.ID)
		}
		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.Collection, chunk.URL,
			chunk.Content, chunk.HTMLSnippet, chunk.Position, encodeEmbedding(chunk.Embedding)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// PublishCollection transitions a building collection to ready.
func (s *VectorStore) PublishCollection(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE collections SET ready = 1 WHERE name = ?`, name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return websearch.Errorf(websearch.ENOTFOUND, "collection %q not found", name)
	}
	return nil
}

// Ready reports whether a published collection exists under name.
func (s *VectorStore) Ready(ctx context.Context, name string) (bool, error) {
	var ready int
	err := s.db.QueryRowContext(ctx, `SELECT ready FROM collections WHERE name = ?`, name).Scan(&ready)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return ready == 1, nil
}

// Query returns the topK chunks nearest to the vector by cosine
// similarity, scores normalized to [0,1], ties broken by insertion
// order. Unpublished or missing collections return ENOTFOUND.
func (s *VectorStore) Query(ctx context.Context, name string, vector []float32, topK int) ([]websearch.Match, error) {
	ready, err := s.Ready(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ready {
		return nil, websearch.Errorf(websearch.ENOTFOUND, "collection %q not found", name)
	}
	if topK <= 0 {
		return nil, websearch.Errorf(websearch.EINVALID, "topK must be positive")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, url, content, html_snippet, position, embedding
		FROM chunks
		WHERE collection = ?
		ORDER BY rowid ASC
	`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []websearch.Match
	for rows.Next() {
		chunk := websearch.Chunk{Collection: name}
		var blob []byte
		if err := rows.Scan(&chunk.ID, &chunk.URL, &chunk.Content, &chunk.HTMLSnippet, &chunk.Position, &blob); err != nil {
			return nil, err
		}
		embedding, err := decodeEmbedding(blob)
		if err != nil {
			return nil, err
		}
		chunk.Embedding = embedding

		sim, err := cosineSimilarity(vector, embedding)
		if err != nil {
			return nil, websearch.Errorf(websearch.EINVALID, "query %s: %v", name, err)
		}
		matches = append(matches, websearch.Match{
			Chunk: &chunk,
			Score: normalizeScore(sim),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Stable sort preserves rowid order among equal scores.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// CountChunks returns the number of chunks stored in a collection.
func (s *VectorStore) CountChunks(ctx context.Context, name string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks WHERE collection = ?`, name).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// DeleteCollection removes a collection and, via cascade, its chunks.
func (s *VectorStore) DeleteCollection(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return websearch.Errorf(websearch.ENOTFOUND, "collection %q not found", name)
	}
	return nil
}

// ListCollections returns the names of all collections, published or not.
func (s *VectorStore) ListCollections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM collections ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
