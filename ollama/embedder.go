// Package ollama implements websearch.Embedder against a local Ollama
// server, for deployments that keep embeddings off the network.
package ollama

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"

	websearch "github.com/Mati018/website-search"
)

// DefaultModel is the default embedding model.
const DefaultModel = "nomic-embed-text"

// maxBatchSize caps how many texts are sent per Embed call.
const maxBatchSize = 32

// Ensure Embedder implements websearch.Embedder at compile time.
var _ websearch.Embedder = (*Embedder)(nil)

// Embedder converts texts into vectors using an Ollama server.
type Embedder struct {
	client *api.Client
	model  string
}

// NewEmbedder creates an Embedder talking to the Ollama server at host
// (e.g., "http://localhost:11434"). An empty model selects DefaultModel.
func NewEmbedder(host, model string) (*Embedder, error) {
	u, err := url.Parse(host)
	if err != nil {
		return nil, websearch.Errorf(websearch.EINVALID, "invalid ollama host %q: %v", host, err)
	}
	if model == "" {
		model = DefaultModel
	}
	return &Embedder{
		client: api.NewClient(u, http.DefaultClient),
		model:  model,
	}, nil
}

// Embed returns one vector per input text, in input order. An
// unreachable server surfaces as EUNAVAILABLE.
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

		resp, err := e.client.Embed(ctx, &api.EmbedRequest{
			Model: e.model,
			Input: texts[start:end],
		})
		if err != nil {
			return nil, websearch.Errorf(websearch.EUNAVAILABLE, "ollama embedding: %v", err)
		}
		if len(resp.Embeddings) != end-start {
			return nil, websearch.Errorf(websearch.EUNAVAILABLE,
				"ollama embedding: got %d vectors for %d texts", len(resp.Embeddings), end-start)
		}
		vectors = append(vectors, resp.Embeddings...)
	}

	return vectors, nil
}
