package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/IgorArodrigues/Gladys-IA/internal/config"
	"github.com/IgorArodrigues/Gladys-IA/internal/output"
	"github.com/IgorArodrigues/Gladys-IA/internal/search"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	vault     string
	limit     int
	mode      string // "vector", "keyword", "hybrid"
	format    string // "text", "json"
	summaries bool
	offline   bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the indexed vault",
		Long: `Search the vault's vector index.

The default mode is pure vector similarity; keyword mode uses the BM25
sidecar, and hybrid fuses both with Reciprocal Rank Fusion.

Examples:
  gladys search "airship maintenance schedule"
  gladys search "quarterly review" --mode hybrid --limit 5
  gladys search "CNPJ 12.345.678/0001-90" --mode keyword
  gladys search "meeting notes" --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, query, opts)
		},
	}

	cmd.Flags().StringVar(&opts.vault, "vault", "", "Vault root (default: walk up from the working directory)")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (default from config)")
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "vector", "Search mode: vector, keyword, hybrid")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().BoolVar(&opts.summaries, "summaries", false, "Summarize oversized results")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "Use the static embedder")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	root, cfg, err := resolveVault(opts.vault)
	if err != nil {
		return err
	}
	if opts.offline {
		cfg.Embedder.Provider = "static"
	}

	cleanup := setupCLILogging(root, cfg)
	defer cleanup()

	if !fileExists(config.DBPath(root)) {
		return fmt.Errorf("no index found in %s\nRun 'gladys index' to create one", root)
	}

	slog.Info("search started", "query", query, "mode", opts.mode, "limit", opts.limit)

	h, err := openEngine(ctx, root, cfg)
	if err != nil {
		return err
	}
	defer h.Close()

	k := opts.limit
	if k <= 0 {
		k = cfg.Search.MaxResults
	}
	results, err := h.Engine.Search(ctx, query, search.Options{
		K:               k,
		Mode:            search.ParseMode(opts.mode),
		WithSummaries:   opts.summaries,
		MaxChunkChars:   cfg.Search.MaxChunkChars,
		SummaryMaxChars: cfg.Search.SummaryMaxChars,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	slog.Info("search complete", "results", len(results))

	if opts.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	return formatSearchText(output.New(cmd.OutOrStdout()), query, results)
}

// formatSearchText prints results in human-readable form.
func formatSearchText(out *output.Writer, query string, results []*search.Result) error {
	if len(results) == 0 {
		out.Status("", fmt.Sprintf("No results found for %q", query))
		return nil
	}

	out.Statusf("", "Found %d result(s) for %q:", len(results), query)
	out.Newline()

	for i, r := range results {
		out.Statusf("", "%d. %s (chunk %d/%d, score: %.2f)",
			i+1, r.FilePath, r.ChunkIndex+1, r.TotalChunks, r.Score)
		if len(r.MatchedTerms) > 0 {
			out.Statusf("", "   matched: %s", strings.Join(r.MatchedTerms, ", "))
		}

		text := r.Text
		if r.Summarized {
			text = r.Summary
			out.Status("", "   (summarized)")
		}
		for _, line := range snippetLines(text, 3) {
			out.Status("", "   "+line)
		}
		out.Newline()
	}
	return nil
}

// snippetLines returns the first n non-empty-trimmed lines of text.
func snippetLines(text string, n int) []string {
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
