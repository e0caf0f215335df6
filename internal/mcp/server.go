package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/IgorArodrigues/Gladys-IA/internal/config"
	"github.com/IgorArodrigues/Gladys-IA/internal/index"
	"github.com/IgorArodrigues/Gladys-IA/internal/search"
	"github.com/IgorArodrigues/Gladys-IA/pkg/version"
)

// maxK caps how many results a single tool call may request.
const maxK = 50

// Engine is the index surface the server needs. *index.Engine
// satisfies it.
type Engine interface {
	Search(ctx context.Context, query string, opts search.Options) ([]*search.Result, error)
	UpdateIndex(ctx context.Context) error
	Stats(ctx context.Context) (*index.Stats, error)
	AddExcludedPath(ctx context.Context, segment string) error
	RemoveExcludedPath(ctx context.Context, segment string) (bool, error)
	ExcludedPaths(ctx context.Context) ([]string, error)
	State() index.State
	Size() int
	LastUpdate() time.Time
}

// Server bridges MCP clients with the vault index engine.
type Server struct {
	mcp    *mcp.Server
	engine Engine
	config *config.Config
	logger *slog.Logger
}

// SearchInput defines the input schema for the vault_search tool.
type SearchInput struct {
	Query         string `json:"query" jsonschema:"the search query to execute"`
	K             int    `json:"k,omitempty" jsonschema:"maximum number of results, default 3"`
	Mode          string `json:"mode,omitempty" jsonschema:"retrieval mode: vector, keyword, hybrid"`
	WithSummaries bool   `json:"with_summaries,omitempty" jsonschema:"replace oversized result text with extractive summaries"`
}

// SearchOutput defines the output schema for the vault_search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results" jsonschema:"list of search results"`
}

// SearchResultOutput is a single retrieved chunk.
type SearchResultOutput struct {
	FilePath     string   `json:"file_path" jsonschema:"path relative to the vault root"`
	Text         string   `json:"text" jsonschema:"chunk text, or its summary when summarized"`
	ChunkIndex   int      `json:"chunk_index" jsonschema:"zero-based chunk position within the file"`
	TotalChunks  int      `json:"total_chunks" jsonschema:"number of chunks in the file"`
	Score        float64  `json:"score" jsonschema:"relevance score, higher is better"`
	Summarized   bool     `json:"summarized,omitempty" jsonschema:"true when text is an extractive summary"`
	MatchedTerms []string `json:"matched_terms,omitempty" jsonschema:"query terms that matched this result"`
}

// UpdateInput defines the (empty) input schema for vault_update.
type UpdateInput struct{}

// UpdateOutput defines the output schema for vault_update.
type UpdateOutput struct {
	State     string `json:"state" jsonschema:"engine state after the cycle"`
	IndexSize int    `json:"index_size" jsonschema:"vectors in the served index"`
	Duration  string `json:"duration" jsonschema:"wall time of the cycle"`
}

// StatsInput defines the (empty) input schema for vault_stats.
type StatsInput struct{}

// ExcludeInput defines the input schema for vault_exclude.
type ExcludeInput struct {
	Action  string `json:"action" jsonschema:"one of: add, remove, list"`
	Segment string `json:"segment,omitempty" jsonschema:"path segment to add or remove, e.g. Private"`
}

// ExcludeOutput defines the output schema for vault_exclude.
type ExcludeOutput struct {
	Excluded []string `json:"excluded" jsonschema:"current exclusion list"`
	Removed  bool     `json:"removed,omitempty" jsonschema:"true if a remove action matched"`
}

// NewServer creates the MCP server and registers the vault tools.
func NewServer(engine Engine, cfg *config.Config) (*Server, error) {
	if engine == nil {
		return nil, errors.New("index engine is required")
	}
	if cfg == nil {
		cfg = config.NewConfig()
	}

	s := &Server{
		engine: engine,
		config: cfg,
		logger: slog.Default().With("component", "mcp"),
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "Gladys",
			Version: version.Version,
		},
		nil, // capabilities are inferred from registered tools
	)
	s.registerTools()

	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return "Gladys", version.Version
}

// registerTools registers the vault tools with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "vault_search",
		Description: "Search the vault index. Finds notes by meaning as well as by keywords; use mode=hybrid when exact terms matter, the default vector mode for conceptual queries.",
	}, s.handleVaultSearch)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "vault_update",
		Description: "Run one index update cycle now: detect changed files, re-embed them, and rebuild the vector index. Returns when the cycle finishes.",
	}, s.handleVaultUpdate)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "vault_stats",
		Description: "Report index statistics: file and chunk counts, index size, embedding model, exclusions, and the vault's folder breakdown.",
	}, s.handleVaultStats)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "vault_exclude",
		Description: "Manage excluded path segments. Files under an excluded segment are removed from the index on the next update cycle.",
	}, s.handleVaultExclude)

	s.logger.Debug("tools registered", "count", 4)
}

// handleVaultSearch is the MCP SDK handler for the vault_search tool.
func (s *Server) handleVaultSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (
	*mcp.CallToolResult,
	SearchOutput,
	error,
) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, SearchOutput{}, NewInvalidParamsError("query is required and must not be blank")
	}
	if input.K < 0 || input.K > maxK {
		return nil, SearchOutput{}, NewInvalidParamsError(fmt.Sprintf("k must be between 1 and %d", maxK))
	}

	start := time.Now()
	requestID := generateRequestID()
	s.logger.Info("search started",
		"request_id", requestID,
		"query", input.Query,
		"k", input.K,
		"mode", input.Mode)

	opts := search.Options{
		K:               input.K,
		Mode:            search.ParseMode(input.Mode),
		WithSummaries:   input.WithSummaries,
		MaxChunkChars:   s.config.Search.MaxChunkChars,
		SummaryMaxChars: s.config.Search.SummaryMaxChars,
	}
	if opts.K == 0 && s.config.Search.MaxResults > 0 {
		opts.K = s.config.Search.MaxResults
	}

	results, err := s.engine.Search(ctx, input.Query, opts)
	if err != nil {
		s.logger.Error("search failed",
			"request_id", requestID,
			"duration", time.Since(start),
			"error", err)
		return nil, SearchOutput{}, MapError(err)
	}

	s.logger.Info("search completed",
		"request_id", requestID,
		"duration", time.Since(start),
		"result_count", len(results))

	output := SearchOutput{Results: make([]SearchResultOutput, 0, len(results))}
	for _, r := range results {
		output.Results = append(output.Results, toResultOutput(r))
	}
	return textResult(FormatSearchResults(input.Query, results)), output, nil
}

// handleVaultUpdate is the MCP SDK handler for the vault_update tool.
func (s *Server) handleVaultUpdate(ctx context.Context, _ *mcp.CallToolRequest, _ UpdateInput) (
	*mcp.CallToolResult,
	UpdateOutput,
	error,
) {
	start := time.Now()
	requestID := generateRequestID()
	s.logger.Info("update started", "request_id", requestID)

	if err := s.engine.UpdateIndex(ctx); err != nil {
		s.logger.Error("update failed",
			"request_id", requestID,
			"duration", time.Since(start),
			"error", err)
		return nil, UpdateOutput{}, MapError(err)
	}

	output := UpdateOutput{
		State:     string(s.engine.State()),
		IndexSize: s.engine.Size(),
		Duration:  time.Since(start).Round(time.Millisecond).String(),
	}
	s.logger.Info("update completed",
		"request_id", requestID,
		"duration", time.Since(start),
		"index_size", output.IndexSize)

	return textResult(fmt.Sprintf("Index updated: %d vectors in %s.", output.IndexSize, output.Duration)), output, nil
}

// handleVaultStats is the MCP SDK handler for the vault_stats tool.
func (s *Server) handleVaultStats(ctx context.Context, _ *mcp.CallToolRequest, _ StatsInput) (
	*mcp.CallToolResult,
	*index.Stats,
	error,
) {
	stats, err := s.engine.Stats(ctx)
	if err != nil {
		s.logger.Error("stats failed", "error", err)
		return nil, nil, MapError(err)
	}
	return textResult(FormatStats(stats)), stats, nil
}

// handleVaultExclude is the MCP SDK handler for the vault_exclude tool.
func (s *Server) handleVaultExclude(ctx context.Context, _ *mcp.CallToolRequest, input ExcludeInput) (
	*mcp.CallToolResult,
	ExcludeOutput,
	error,
) {
	var removed bool
	switch input.Action {
	case "add":
		if strings.TrimSpace(input.Segment) == "" {
			return nil, ExcludeOutput{}, NewInvalidParamsError("segment is required for add")
		}
		if err := s.engine.AddExcludedPath(ctx, input.Segment); err != nil {
			return nil, ExcludeOutput{}, MapError(err)
		}
		s.logger.Info("exclusion added", "segment", input.Segment)
	case "remove":
		if strings.TrimSpace(input.Segment) == "" {
			return nil, ExcludeOutput{}, NewInvalidParamsError("segment is required for remove")
		}
		var err error
		removed, err = s.engine.RemoveExcludedPath(ctx, input.Segment)
		if err != nil {
			return nil, ExcludeOutput{}, MapError(err)
		}
		s.logger.Info("exclusion removed", "segment", input.Segment, "matched", removed)
	case "list":
		// Fall through to the shared listing below.
	default:
		return nil, ExcludeOutput{}, NewInvalidParamsError("action must be one of: add, remove, list")
	}

	excluded, err := s.engine.ExcludedPaths(ctx)
	if err != nil {
		return nil, ExcludeOutput{}, MapError(err)
	}
	output := ExcludeOutput{Excluded: excluded, Removed: removed}
	return textResult(FormatExclusions(excluded)), output, nil
}

// Serve runs the server over stdio until the context is canceled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting MCP server", "transport", "stdio")

	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("MCP server stopped with error", "error", err)
		return err
	}
	s.logger.Info("MCP server stopped")
	return nil
}

// toResultOutput converts an engine result to the tool output shape.
// Summarized results carry the summary as their text.
func toResultOutput(r *search.Result) SearchResultOutput {
	text := r.Text
	if r.Summarized {
		text = r.Summary
	}
	return SearchResultOutput{
		FilePath:     r.FilePath,
		Text:         text,
		ChunkIndex:   r.ChunkIndex,
		TotalChunks:  r.TotalChunks,
		Score:        r.Score,
		Summarized:   r.Summarized,
		MatchedTerms: r.MatchedTerms,
	}
}

// textResult wraps markdown into a tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// generateRequestID creates a short unique request ID for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
