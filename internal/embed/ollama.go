package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	glerrors "github.com/IgorArodrigues/Gladys-IA/internal/errors"
)

const (
	// DefaultOllamaHost is the standard local Ollama endpoint.
	DefaultOllamaHost = "http://localhost:11434"

	// DefaultOllamaModel is a general-purpose text embedding model that
	// handles Portuguese and English prose well.
	DefaultOllamaModel = "nomic-embed-text"

	// DefaultTimeout bounds a single embed request.
	DefaultTimeout = 30 * time.Second

	// ollamaConnectTimeout bounds the initial health check.
	ollamaConnectTimeout = 5 * time.Second

	ollamaPoolSize = 4
)

// FallbackOllamaModels are tried in order when the configured model is
// not installed on the server.
var FallbackOllamaModels = []string{
	"nomic-embed-text",
	"mxbai-embed-large",
	"all-minilm",
}

// OllamaConfig configures the Ollama embedder.
type OllamaConfig struct {
	// Host is the Ollama endpoint. Default http://localhost:11434.
	Host string

	// Model is the embedding model. Default nomic-embed-text.
	Model string

	// FallbackModels are tried when Model is not installed.
	FallbackModels []string

	// Dimensions overrides auto-detection when non-zero.
	Dimensions int

	// BatchSize is the number of texts per batch request.
	BatchSize int

	// Timeout bounds a single embed request.
	Timeout time.Duration

	// ConnectTimeout bounds the initial health check.
	ConnectTimeout time.Duration

	// MaxRetries for transient request failures.
	MaxRetries int

	// SkipHealthCheck skips the startup availability probe. Used by
	// tests that point Host at a stub server.
	SkipHealthCheck bool
}

// DefaultOllamaConfig returns the stock configuration.
func DefaultOllamaConfig() OllamaConfig {
	return OllamaConfig{
		Host:           DefaultOllamaHost,
		Model:          DefaultOllamaModel,
		FallbackModels: FallbackOllamaModels,
		BatchSize:      DefaultBatchSize,
		Timeout:        DefaultTimeout,
		ConnectTimeout: ollamaConnectTimeout,
		MaxRetries:     DefaultMaxRetries,
	}
}

// Ollama /api/embed request and response shapes.
type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"` // string or []string
}

type ollamaEmbedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float64 `json:"embeddings"`
}

// Ollama /api/tags response shape.
type ollamaTagsResponse struct {
	Models []ollamaModelInfo `json:"models"`
}

type ollamaModelInfo struct {
	Name string `json:"name"`
}

// OllamaEmbedder produces embeddings through a local Ollama server.
//
// Construction verifies the server is reachable, resolves the model
// (falling back to an installed alternative when the configured one is
// missing) and detects the vector width with a probe request. Request
// failures are retried with backoff; repeated failures open a circuit
// breaker so a dead server does not stall every indexing pass.
type OllamaEmbedder struct {
	client    *http.Client
	transport *http.Transport
	config    OllamaConfig
	breaker   *glerrors.CircuitBreaker
	modelName string
	dims      int

	mu     sync.Mutex
	closed bool
}

var _ Embedder = (*OllamaEmbedder)(nil)

// NewOllamaEmbedder creates an embedder against cfg.Host.
func NewOllamaEmbedder(ctx context.Context, cfg OllamaConfig) (*OllamaEmbedder, error) {
	if cfg.Host == "" {
		cfg.Host = DefaultOllamaHost
	}
	cfg.Host = strings.TrimRight(cfg.Host, "/")
	if cfg.Model == "" {
		cfg.Model = DefaultOllamaModel
	}
	if cfg.FallbackModels == nil {
		cfg.FallbackModels = FallbackOllamaModels
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = ollamaConnectTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}

	transport := &http.Transport{
		MaxIdleConns:        ollamaPoolSize,
		MaxIdleConnsPerHost: ollamaPoolSize,
		IdleConnTimeout:     90 * time.Second,
	}

	e := &OllamaEmbedder{
		client:    &http.Client{Transport: transport},
		transport: transport,
		config:    cfg,
		modelName: cfg.Model,
		dims:      cfg.Dimensions,
		breaker: glerrors.NewCircuitBreaker("ollama",
			glerrors.WithMaxFailures(5),
			glerrors.WithResetTimeout(30*time.Second)),
	}

	if !cfg.SkipHealthCheck {
		checkCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
		model, err := e.findAvailableModel(checkCtx)
		cancel()
		if err != nil {
			return nil, err
		}
		if model != cfg.Model {
			slog.Warn("embedding model not installed, using fallback",
				slog.String("requested", cfg.Model),
				slog.String("using", model))
		}
		e.modelName = model
	}

	if e.dims == 0 {
		if cfg.SkipHealthCheck {
			e.dims = DefaultDimensions
		} else {
			if err := e.detectDimensions(ctx); err != nil {
				return nil, err
			}
		}
	}

	return e, nil
}

// findAvailableModel resolves the configured model against the models
// installed on the server. Names match exactly or by base name, so
// "nomic-embed-text" finds "nomic-embed-text:latest".
func (e *OllamaEmbedder) findAvailableModel(ctx context.Context) (string, error) {
	installed, err := e.listModels(ctx)
	if err != nil {
		return "", glerrors.NetworkError("ollama is not reachable at "+e.config.Host, err).
			WithSuggestion("start it with `ollama serve`, or set embedder.provider to \"static\"")
	}

	candidates := append([]string{e.config.Model}, e.config.FallbackModels...)
	for _, candidate := range candidates {
		for _, name := range installed {
			if modelNamesMatch(name, candidate) {
				return candidate, nil
			}
		}
	}

	return "", glerrors.EmbeddingError("no embedding model installed in ollama", nil).
		WithSuggestion(fmt.Sprintf("run `ollama pull %s`", e.config.Model))
}

// detectDimensions probes the server with a tiny request and records
// the width of the vector that comes back.
func (e *OllamaEmbedder) detectDimensions(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	vecs, err := e.requestEmbeddings(probeCtx, "dimension probe", 1)
	if err != nil {
		return glerrors.EmbeddingError("could not detect embedding dimensions", err)
	}
	e.dims = len(vecs[0])
	slog.Debug("detected embedding dimensions",
		slog.String("model", e.modelName),
		slog.Int("dimensions", e.dims))
	return nil
}

// listModels fetches the names of models installed on the server.
func (e *OllamaEmbedder) listModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.config.Host+"/api/tags", nil)
	if err != nil {
		return nil, err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama /api/tags returned %d", resp.StatusCode)
	}

	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// Embed returns the vector for a single text.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.isClosed() {
		return nil, glerrors.EmbeddingError("embedder is closed", nil)
	}
	if strings.TrimSpace(text) == "" {
		return make([]float32, e.dims), nil
	}

	vecs, err := e.embedWithRetry(ctx, Truncate(text), 1)
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch returns one vector per text, in input order. Empty texts
// become zero vectors without touching the server; the rest are sent
// in batches of BatchSize.
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if e.isClosed() {
		return nil, glerrors.EmbeddingError("embedder is closed", nil)
	}
	if len(texts) == 0 {
		return nil, nil
	}

	results := make([][]float32, len(texts))

	type indexedText struct {
		idx  int
		text string
	}
	pending := make([]indexedText, 0, len(texts))
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			results[i] = make([]float32, e.dims)
			continue
		}
		pending = append(pending, indexedText{idx: i, text: Truncate(t)})
	}

	for start := 0; start < len(pending); start += e.config.BatchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+e.config.BatchSize, len(pending))
		batch := pending[start:end]

		inputs := make([]string, len(batch))
		for j, item := range batch {
			inputs[j] = item.text
		}

		vecs, err := e.embedWithRetry(ctx, inputs, len(inputs))
		if err != nil {
			return nil, err
		}
		for j, vec := range vecs {
			results[batch[j].idx] = vec
		}
	}

	return results, nil
}

// embedWithRetry sends one embed request through the circuit breaker,
// retrying transient failures with backoff.
func (e *OllamaEmbedder) embedWithRetry(ctx context.Context, input any, count int) ([][]float32, error) {
	if !e.breaker.Allow() {
		return nil, glerrors.EmbeddingError("embedding suspended after repeated ollama failures", glerrors.ErrCircuitOpen).
			WithSuggestion("check that ollama is still running")
	}

	retryCfg := glerrors.DefaultRetryConfig()
	retryCfg.MaxRetries = e.config.MaxRetries
	retryCfg.InitialDelay = 500 * time.Millisecond
	retryCfg.MaxDelay = 8 * time.Second
	retryCfg.Jitter = true

	vecs, err := glerrors.RetryWithResult(ctx, retryCfg, func() ([][]float32, error) {
		reqCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
		return e.requestEmbeddings(reqCtx, input, count)
	})
	if err != nil {
		e.breaker.RecordFailure()
		return nil, err
	}
	e.breaker.RecordSuccess()
	return vecs, nil
}

// requestEmbeddings performs one POST /api/embed call and converts the
// response into normalized float32 vectors.
func (e *OllamaEmbedder) requestEmbeddings(ctx context.Context, input any, count int) ([][]float32, error) {
	body, err := json.Marshal(ollamaEmbedRequest{Model: e.modelName, Input: input})
	if err != nil {
		return nil, glerrors.EmbeddingError("encode embed request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.config.Host+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, glerrors.EmbeddingError("build embed request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, glerrors.NetworkError("ollama embed request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, glerrors.EmbeddingError(
			fmt.Sprintf("ollama returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))), nil)
	}

	var out ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, glerrors.EmbeddingError("decode embed response", err)
	}
	if len(out.Embeddings) != count {
		return nil, glerrors.EmbeddingError(
			fmt.Sprintf("ollama returned %d embeddings for %d inputs", len(out.Embeddings), count), nil)
	}

	vectors := make([][]float32, len(out.Embeddings))
	for i, emb := range out.Embeddings {
		if e.dims > 0 && len(emb) != e.dims {
			return nil, glerrors.EmbeddingError(
				fmt.Sprintf("model %q returned %d-dimensional vector, expected %d", e.modelName, len(emb), e.dims), nil)
		}
		vec := make([]float32, len(emb))
		for j, v := range emb {
			vec[j] = float32(v)
		}
		vectors[i] = normalizeVector(vec)
	}
	return vectors, nil
}

// Dimensions returns the detected or configured vector width.
func (e *OllamaEmbedder) Dimensions() int {
	return e.dims
}

// ModelName returns the resolved model name.
func (e *OllamaEmbedder) ModelName() string {
	return e.modelName
}

// Available reports whether the server is reachable and still has the
// resolved model installed.
func (e *OllamaEmbedder) Available(ctx context.Context) bool {
	if e.isClosed() {
		return false
	}
	checkCtx, cancel := context.WithTimeout(ctx, e.config.ConnectTimeout)
	defer cancel()

	installed, err := e.listModels(checkCtx)
	if err != nil {
		return false
	}
	for _, name := range installed {
		if modelNamesMatch(name, e.modelName) {
			return true
		}
	}
	return false
}

// Close marks the embedder closed and drops idle connections.
func (e *OllamaEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.transport.CloseIdleConnections()
	return nil
}

func (e *OllamaEmbedder) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// modelNamesMatch compares model names ignoring the ":tag" suffix, so
// a configured "nomic-embed-text" matches "nomic-embed-text:latest".
func modelNamesMatch(a, b string) bool {
	return a == b || modelBase(a) == modelBase(b)
}

func modelBase(name string) string {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[:i]
	}
	return name
}
