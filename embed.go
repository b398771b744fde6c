package websearch

import "context"

// Embedder converts texts into fixed-dimension vectors. Output is length-
// and order-preserving: vector i corresponds to input text i. Identical
// input with the same model configuration yields the same vector, which
// makes ranking reproducible.
//
// Implementations batch internally to amortize per-call cost. An
// unreachable model surfaces as EUNAVAILABLE, which is fatal to the
// enclosing index build.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
