package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	websearch "github.com/Mati018/website-search"
	"github.com/Mati018/website-search/ollama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// embedServer fakes the Ollama /api/embed endpoint, returning one unit
// vector per input and recording the requested model and batch sizes.
func embedServer(t *testing.T, gotModels *[]string, gotBatches *[]int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		*gotModels = append(*gotModels, req.Model)
		*gotBatches = append(*gotBatches, len(req.Input))

		embeddings := make([][]float32, len(req.Input))
		for i := range embeddings {
			embeddings[i] = []float32{float32(i), 1}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":      req.Model,
			"embeddings": embeddings,
		})
	}))
}

func TestEmbedder_Embed(t *testing.T) {
	t.Parallel()

	t.Run("returns one vector per text in order", func(t *testing.T) {
		t.Parallel()

		var models []string
		var batches []int
		server := embedServer(t, &models, &batches)
		defer server.Close()

		e, err := ollama.NewEmbedder(server.URL, "")
		require.NoError(t, err)

		vectors, err := e.Embed(context.Background(), []string{"first", "second", "third"})
		require.NoError(t, err)
		require.Len(t, vectors, 3)
		assert.Equal(t, []float32{0, 1}, vectors[0])
		assert.Equal(t, []float32{2, 1}, vectors[2])
		assert.Equal(t, []string{ollama.DefaultModel}, models)
		assert.Equal(t, []int{3}, batches)
	})

	t.Run("splits large inputs into batches", func(t *testing.T) {
		t.Parallel()

		var models []string
		var batches []int
		server := embedServer(t, &models, &batches)
		defer server.Close()

		e, err := ollama.NewEmbedder(server.URL, "custom-model")
		require.NoError(t, err)

		texts := make([]string, 70)
		for i := range texts {
			texts[i] = "text"
		}
		vectors, err := e.Embed(context.Background(), texts)
		require.NoError(t, err)
		assert.Len(t, vectors, 70)
		assert.Equal(t, []int{32, 32, 6}, batches)
		assert.Equal(t, []string{"custom-model", "custom-model", "custom-model"}, models)
	})

	t.Run("empty input is a no-op", func(t *testing.T) {
		t.Parallel()

		e, err := ollama.NewEmbedder("http://localhost:11434", "")
		require.NoError(t, err)

		vectors, err := e.Embed(context.Background(), nil)
		require.NoError(t, err)
		assert.Nil(t, vectors)
	})

	t.Run("unreachable server surfaces as EUNAVAILABLE", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.NotFoundHandler())
		server.Close() // unreachable

		e, err := ollama.NewEmbedder(server.URL, "")
		require.NoError(t, err)

		_, err = e.Embed(context.Background(), []string{"text"})
		require.Error(t, err)
		assert.Equal(t, websearch.EUNAVAILABLE, websearch.ErrorCode(err))
	})

	t.Run("vector count mismatch surfaces as EUNAVAILABLE", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"embeddings": [][]float32{{1, 0}},
			})
		}))
		defer server.Close()

		e, err := ollama.NewEmbedder(server.URL, "")
		require.NoError(t, err)

		_, err = e.Embed(context.Background(), []string{"a", "b"})
		require.Error(t, err)
		assert.Equal(t, websearch.EUNAVAILABLE, websearch.ErrorCode(err))
	})
}
