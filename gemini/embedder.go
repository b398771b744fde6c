// Package gemini implements websearch.Embedder using the Gemini
// embedding API.
package gemini

import (
	"context"

	"google.golang.org/genai"

	websearch "github.com/Mati018/website-search"
)

// Model is the embedding model used. Fixed per deployment so identical
// text always embeds to the same vector.
const Model = "gemini-embedding-001"

// maxBatchSize is the largest number of texts sent in one API call.
// Batching amortizes the fixed per-call cost while keeping request
// memory bounded.
const maxBatchSize = 100

// Ensure Embedder implements websearch.Embedder at compile time.
var _ websearch.Embedder = (*Embedder)(nil)

// Embedder converts texts into vectors via the Gemini embedding API.
type Embedder struct {
	client *genai.Client
}

// NewEmbedder creates a new Embedder.
func NewEmbedder(client *genai.Client) *Embedder {
	return &Embedder{client: client}
}

// Embed returns one vector per input text, in input order. API failures
// surface as EUNAVAILABLE, which is fatal to the enclosing index build.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		contents := make([]*genai.Content, 0, end-start)
		for _, text := range texts[start:end] {
			contents = append(contents, &genai.Content{
				Parts: []*genai.Part{{Text: text}},
			})
		}

		result, err := e.client.Models.EmbedContent(ctx, Model, contents, nil)
		if err != nil {
			return nil, websearch.Errorf(websearch.EUNAVAILABLE, "gemini embedding: %v", err)
		}
		if result == nil || len(result.Embeddings) != end-start {
			return nil, websearch.Errorf(websearch.EUNAVAILABLE,
				"gemini embedding: got %d vectors for %d texts", embeddingCount(result), end-start)
		}

		for _, emb := range result.Embeddings {
			if emb == nil || len(emb.Values) == 0 {
				return nil, websearch.Errorf(websearch.EUNAVAILABLE, "gemini embedding: empty vector in response")
			}
			vectors = append(vectors, emb.Values)
		}
	}

	return vectors, nil
}

func embeddingCount(r *genai.EmbedContentResponse) int {
	if r == nil {
		return 0
	}
	return len(r.Embeddings)
}
