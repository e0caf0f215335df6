package embed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/IgorArodrigues/Gladys-IA/internal/config"
	glerrors "github.com/IgorArodrigues/Gladys-IA/internal/errors"
)

// Provider identifies an embedding backend.
type Provider string

const (
	// ProviderAuto picks Ollama when reachable, static otherwise.
	ProviderAuto Provider = ""

	// ProviderOllama requires a reachable Ollama server.
	ProviderOllama Provider = "ollama"

	// ProviderStatic uses deterministic hash vectors.
	ProviderStatic Provider = "static"
)

// New creates the embedder selected by cfg.Embedder.Provider, wrapped
// in a query cache.
//
// An explicitly configured provider fails hard when unavailable, so a
// misconfiguration surfaces instead of silently degrading search
// quality. Auto-detection prefers Ollama and falls back to static
// vectors with a logged warning.
func New(ctx context.Context, cfg *config.Config) (Embedder, error) {
	base, err := newProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	cached, err := NewCachedEmbedder(base, DefaultEmbedCacheSize)
	if err != nil {
		base.Close()
		return nil, err
	}
	return cached, nil
}

func newProvider(ctx context.Context, cfg *config.Config) (Embedder, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Embedder.Provider)) {
	case string(ProviderOllama):
		return NewOllamaEmbedder(ctx, ollamaConfigFrom(cfg))

	case string(ProviderStatic):
		return NewStaticEmbedder(), nil

	case string(ProviderAuto), "auto":
		e, err := NewOllamaEmbedder(ctx, ollamaConfigFrom(cfg))
		if err == nil {
			return e, nil
		}
		slog.Warn("ollama unavailable, falling back to static embeddings",
			slog.String("error", err.Error()))
		return NewStaticEmbedder(), nil

	default:
		return nil, glerrors.ConfigError(
			fmt.Sprintf("unknown embedder provider %q", cfg.Embedder.Provider), nil).
			WithSuggestion(`set embedder.provider to "ollama", "static", or leave it empty`)
	}
}

// ollamaConfigFrom maps the application config onto OllamaConfig.
// Zero values are filled with defaults by NewOllamaEmbedder.
func ollamaConfigFrom(cfg *config.Config) OllamaConfig {
	return OllamaConfig{
		Host:       cfg.Embedder.OllamaHost,
		Model:      cfg.Embedder.Model,
		Dimensions: cfg.Embedder.Dimensions,
		BatchSize:  cfg.Embedder.BatchSize,
		Timeout:    cfg.EmbedTimeout(),
		MaxRetries: cfg.Embedder.MaxRetries,
	}
}

// Info describes a constructed embedder for status output.
type Info struct {
	Provider   Provider
	Model      string
	Dimensions int
	Available  bool
}

// GetInfo inspects an embedder, unwrapping the query cache if present.
func GetInfo(ctx context.Context, e Embedder) Info {
	info := Info{
		Model:      e.ModelName(),
		Dimensions: e.Dimensions(),
		Available:  e.Available(ctx),
	}

	inner := e
	if cached, ok := e.(*CachedEmbedder); ok {
		inner = cached.Inner()
	}
	switch inner.(type) {
	case *OllamaEmbedder:
		info.Provider = ProviderOllama
	case *StaticEmbedder:
		info.Provider = ProviderStatic
	}
	return info
}
