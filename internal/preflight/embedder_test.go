package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/IgorArodrigues/Gladys-IA/internal/config"
)

func tagsServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func embedderConfig(host string) *config.Config {
	cfg := config.NewConfig()
	cfg.Embedder.OllamaHost = host
	return cfg
}

func TestCheckEmbedder_ModelInstalled(t *testing.T) {
	srv := tagsServer(t, `{"models":[{"name":"nomic-embed-text:latest"}]}`)

	result := New().CheckEmbedder(context.Background(), embedderConfig(srv.URL))
	assert.Equal(t, StatusPass, result.Status)
	assert.Contains(t, result.Message, "nomic-embed-text")
	assert.False(t, result.Required)
}

func TestCheckEmbedder_FallbackModel(t *testing.T) {
	srv := tagsServer(t, `{"models":[{"name":"all-minilm:latest"}]}`)

	result := New().CheckEmbedder(context.Background(), embedderConfig(srv.URL))
	assert.Equal(t, StatusPass, result.Status)
	assert.Contains(t, result.Message, "all-minilm")
}

func TestCheckEmbedder_NoModels(t *testing.T) {
	srv := tagsServer(t, `{"models":[]}`)

	result := New().CheckEmbedder(context.Background(), embedderConfig(srv.URL))
	assert.Equal(t, StatusWarn, result.Status)
	assert.Contains(t, result.Details, "ollama pull")
}

func TestCheckEmbedder_Unreachable(t *testing.T) {
	result := New().CheckEmbedder(context.Background(),
		embedderConfig("http://127.0.0.1:1"))

	assert.Equal(t, StatusWarn, result.Status)
	assert.Contains(t, result.Message, "unreachable")
	assert.False(t, result.IsCritical())
}

func TestContainsModel(t *testing.T) {
	models := []string{"nomic-embed-text:latest", "llama3:8b"}

	assert.True(t, containsModel(models, "nomic-embed-text"))
	assert.True(t, containsModel(models, "nomic-embed-text:v1.5"))
	assert.True(t, containsModel(models, "llama3"))
	assert.False(t, containsModel(models, "mxbai-embed-large"))
}
