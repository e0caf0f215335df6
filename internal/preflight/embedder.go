package preflight

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/IgorArodrigues/Gladys-IA/internal/config"
	"github.com/IgorArodrigues/Gladys-IA/internal/embed"
)

// embedderProbeTimeout bounds the reachability probe.
const embedderProbeTimeout = 5 * time.Second

// tagsResponse is the Ollama /api/tags response shape.
type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// CheckEmbedder checks the embedding provider is reachable and has the
// configured model installed. Non-critical: the static embedder serves
// as fallback, at lower semantic quality.
func (c *Checker) CheckEmbedder(ctx context.Context, cfg *config.Config) CheckResult {
	result := CheckResult{
		Name:     "embedder",
		Required: false,
	}

	host := cfg.Embedder.OllamaHost
	if host == "" {
		host = embed.DefaultOllamaHost
	}
	model := cfg.Embedder.Model
	if model == "" {
		model = embed.DefaultOllamaModel
	}

	models, err := listModels(ctx, host)
	if err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("Ollama unreachable at %s", host)
		result.Details = "Indexing will fall back to the static embedder (lower semantic quality)"
		return result
	}

	if containsModel(models, model) {
		result.Status = StatusPass
		result.Message = fmt.Sprintf("Ollama reachable, model %s installed", model)
		return result
	}
	for _, fb := range embed.FallbackOllamaModels {
		if containsModel(models, fb) {
			result.Status = StatusPass
			result.Message = fmt.Sprintf("model %s not installed, will use %s", model, fb)
			return result
		}
	}

	result.Status = StatusWarn
	result.Message = fmt.Sprintf("no embedding model installed (wanted %s)", model)
	result.Details = fmt.Sprintf("Run 'ollama pull %s' to enable semantic search", model)
	return result
}

// listModels queries the provider's model list.
func listModels(ctx context.Context, host string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, embedderProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, host+"/api/tags", nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// containsModel matches model names ignoring the tag suffix, so
// "nomic-embed-text" matches "nomic-embed-text:latest".
func containsModel(models []string, want string) bool {
	base := func(name string) string {
		if i := strings.IndexByte(name, ':'); i >= 0 {
			return name[:i]
		}
		return name
	}
	for _, m := range models {
		if base(m) == base(want) {
			return true
		}
	}
	return false
}
