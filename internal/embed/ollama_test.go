package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newOllamaStub serves /api/tags and /api/embed the way Ollama does.
// vectorFor decides the raw (pre-normalization) vector per input text.
func newOllamaStub(models []string, vectorFor func(string) []float64) (*httptest.Server, *atomic.Int32) {
	var embedCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, _ *http.Request) {
		type modelInfo struct {
			Name string `json:"name"`
		}
		resp := struct {
			Models []modelInfo `json:"models"`
		}{}
		for _, m := range models {
			resp.Models = append(resp.Models, modelInfo{Name: m})
		}
		json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/api/embed", func(w http.ResponseWriter, r *http.Request) {
		embedCalls.Add(1)
		var req struct {
			Model string `json:"model"`
			Input any    `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		var inputs []string
		switch v := req.Input.(type) {
		case string:
			inputs = []string{v}
		case []any:
			for _, item := range v {
				inputs = append(inputs, item.(string))
			}
		}

		embeddings := make([][]float64, len(inputs))
		for i, text := range inputs {
			embeddings[i] = vectorFor(text)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"model":      req.Model,
			"embeddings": embeddings,
		})
	})

	return httptest.NewServer(mux), &embedCalls
}

func lengthVector(text string) []float64 {
	return []float64{float64(len(text)), 1}
}

func TestNewOllamaEmbedderResolvesModelAndDimensions(t *testing.T) {
	server, embedCalls := newOllamaStub([]string{"nomic-embed-text:latest", "llama3:8b"}, lengthVector)
	defer server.Close()

	cfg := DefaultOllamaConfig()
	cfg.Host = server.URL
	e, err := NewOllamaEmbedder(context.Background(), cfg)
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, "nomic-embed-text", e.ModelName())
	assert.Equal(t, 2, e.Dimensions())
	assert.Equal(t, int32(1), embedCalls.Load(), "dimension probe is the only request")
}

func TestNewOllamaEmbedderFallsBackToInstalledModel(t *testing.T) {
	server, _ := newOllamaStub([]string{"mxbai-embed-large:latest"}, lengthVector)
	defer server.Close()

	cfg := DefaultOllamaConfig()
	cfg.Host = server.URL
	e, err := NewOllamaEmbedder(context.Background(), cfg)
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, "mxbai-embed-large", e.ModelName())
}

func TestNewOllamaEmbedderNoEmbeddingModel(t *testing.T) {
	server, _ := newOllamaStub([]string{"llama3:8b"}, lengthVector)
	defer server.Close()

	cfg := DefaultOllamaConfig()
	cfg.Host = server.URL
	_, err := NewOllamaEmbedder(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no embedding model")
}

func TestNewOllamaEmbedderServerUnreachable(t *testing.T) {
	cfg := DefaultOllamaConfig()
	cfg.Host = "http://127.0.0.1:1"
	cfg.ConnectTimeout = 2 * time.Second

	_, err := NewOllamaEmbedder(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not reachable")
}

func TestOllamaEmbedNormalizes(t *testing.T) {
	server, _ := newOllamaStub(nil, func(string) []float64 { return []float64{3, 4} })
	defer server.Close()

	cfg := DefaultOllamaConfig()
	cfg.Host = server.URL
	cfg.SkipHealthCheck = true
	cfg.Dimensions = 2
	e, err := NewOllamaEmbedder(context.Background(), cfg)
	require.NoError(t, err)
	defer e.Close()

	vec, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	require.Len(t, vec, 2)
	assert.InDelta(t, 0.6, vec[0], 1e-6)
	assert.InDelta(t, 0.8, vec[1], 1e-6)
}

func TestOllamaEmbedEmptyTextSkipsServer(t *testing.T) {
	server, embedCalls := newOllamaStub(nil, lengthVector)
	defer server.Close()

	cfg := DefaultOllamaConfig()
	cfg.Host = server.URL
	cfg.SkipHealthCheck = true
	cfg.Dimensions = 5
	e, err := NewOllamaEmbedder(context.Background(), cfg)
	require.NoError(t, err)
	defer e.Close()

	vec, err := e.Embed(context.Background(), "   \n ")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 5), vec)
	assert.Equal(t, int32(0), embedCalls.Load())
}

func TestOllamaEmbedBatchOrderingAndBatching(t *testing.T) {
	server, embedCalls := newOllamaStub(nil, lengthVector)
	defer server.Close()

	cfg := DefaultOllamaConfig()
	cfg.Host = server.URL
	cfg.SkipHealthCheck = true
	cfg.Dimensions = 2
	cfg.BatchSize = 2
	e, err := NewOllamaEmbedder(context.Background(), cfg)
	require.NoError(t, err)
	defer e.Close()

	texts := []string{"aa", "", "bbb", "c", "dddd"}
	results, err := e.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, results, len(texts))

	// Four non-empty texts at batch size two means two requests.
	assert.Equal(t, int32(2), embedCalls.Load())

	// The empty slot is a zero vector; the rest come back in order.
	assert.Equal(t, make([]float32, 2), results[1])
	for _, i := range []int{0, 2, 3, 4} {
		expected := normalizeVector([]float32{float32(len(texts[i])), 1})
		assert.InDelta(t, expected[0], results[i][0], 1e-6, "text %d", i)
		assert.InDelta(t, expected[1], results[i][1], 1e-6, "text %d", i)
	}
}

func TestOllamaEmbedServerErrorSurfaces(t *testing.T) {
	var embedCalls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		embedCalls.Add(1)
		http.Error(w, "model crashed", http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := DefaultOllamaConfig()
	cfg.Host = server.URL
	cfg.SkipHealthCheck = true
	cfg.Dimensions = 2
	cfg.MaxRetries = 1
	e, err := NewOllamaEmbedder(context.Background(), cfg)
	require.NoError(t, err)
	defer e.Close()

	_, err = e.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama returned 500")
	assert.Equal(t, int32(2), embedCalls.Load(), "initial attempt plus one retry")
}

func TestOllamaEmbedDimensionMismatch(t *testing.T) {
	server, _ := newOllamaStub(nil, func(string) []float64 { return []float64{1, 2} })
	defer server.Close()

	cfg := DefaultOllamaConfig()
	cfg.Host = server.URL
	cfg.SkipHealthCheck = true
	cfg.Dimensions = 3
	cfg.MaxRetries = 1
	e, err := NewOllamaEmbedder(context.Background(), cfg)
	require.NoError(t, err)
	defer e.Close()

	_, err = e.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 3")
}

func TestOllamaCircuitSuspendsRequests(t *testing.T) {
	server, embedCalls := newOllamaStub(nil, lengthVector)
	defer server.Close()

	cfg := DefaultOllamaConfig()
	cfg.Host = server.URL
	cfg.SkipHealthCheck = true
	cfg.Dimensions = 2
	e, err := NewOllamaEmbedder(context.Background(), cfg)
	require.NoError(t, err)
	defer e.Close()

	for i := 0; i < 5; i++ {
		e.breaker.RecordFailure()
	}

	_, err = e.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "suspended")
	assert.Equal(t, int32(0), embedCalls.Load())
}

func TestOllamaEmbedderClose(t *testing.T) {
	server, _ := newOllamaStub([]string{"nomic-embed-text"}, lengthVector)
	defer server.Close()

	cfg := DefaultOllamaConfig()
	cfg.Host = server.URL
	e, err := NewOllamaEmbedder(context.Background(), cfg)
	require.NoError(t, err)

	assert.True(t, e.Available(context.Background()))
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())

	_, err = e.Embed(context.Background(), "hello")
	assert.Error(t, err)
	assert.False(t, e.Available(context.Background()))
}

func TestOllamaAvailableFollowsServer(t *testing.T) {
	server, _ := newOllamaStub([]string{"nomic-embed-text:latest"}, lengthVector)

	cfg := DefaultOllamaConfig()
	cfg.Host = server.URL
	e, err := NewOllamaEmbedder(context.Background(), cfg)
	require.NoError(t, err)
	defer e.Close()

	assert.True(t, e.Available(context.Background()))

	server.Close()
	assert.False(t, e.Available(context.Background()))
}
