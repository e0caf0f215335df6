package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/IgorArodrigues/Gladys-IA/internal/config"
	"github.com/IgorArodrigues/Gladys-IA/internal/index"
)

func newStatsCmd() *cobra.Command {
	var vault string
	var jsonOutput bool
	var folders bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics",
		Long: `Display the state of the vault index: chunk and file counts, the
embedding model, exclusions, cache behavior, and embedding usage.

Use --folders for the per-folder file breakdown.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(cmd.Context(), cmd, vault, jsonOutput, folders)
		},
	}

	cmd.Flags().StringVar(&vault, "vault", "", "Vault root (default: walk up from the working directory)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&folders, "folders", false, "Include the per-folder breakdown")

	return cmd
}

func runStats(ctx context.Context, cmd *cobra.Command, vault string, jsonOutput, folders bool) error {
	root, cfg, err := resolveVault(vault)
	if err != nil {
		return err
	}
	// Stats never needs embeddings; the static provider avoids a probe.
	cfg.Embedder.Provider = "static"

	cleanup := setupCLILogging(root, cfg)
	defer cleanup()

	if !fileExists(config.DBPath(root)) {
		return fmt.Errorf("no index found in %s\nRun 'gladys index' to create one", root)
	}

	h, err := openEngine(ctx, root, cfg)
	if err != nil {
		return err
	}
	defer h.Close()

	stats, err := h.Engine.Stats(ctx)
	if err != nil {
		return fmt.Errorf("collect stats: %w", err)
	}

	if jsonOutput {
		if !folders {
			stats.FolderStructure = nil
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	printStats(cmd, stats, folders)
	return nil
}

func printStats(cmd *cobra.Command, s *index.Stats, folders bool) {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w, "Index Statistics")
	fmt.Fprintln(w, "================")
	fmt.Fprintln(w)

	fmt.Fprintf(w, "State:        %s\n", s.State)
	fmt.Fprintf(w, "Vault:        %s\n", s.VaultPath)
	fmt.Fprintf(w, "Files:        %d\n", s.UniqueFiles)
	fmt.Fprintf(w, "Chunks:       %d (%d in vector index, %d in keyword index)\n",
		s.TotalChunks, s.IndexSize, s.KeywordChunks)
	fmt.Fprintf(w, "Model:        %s (%d dims, %s)\n", s.EmbeddingModel, s.Dimensions, s.Metric)
	fmt.Fprintf(w, "Chunking:     max %d, overlap %d, min %d\n",
		s.Chunking.MaxSize, s.Chunking.Overlap, s.Chunking.MinSize)
	if !s.LastUpdate.IsZero() {
		fmt.Fprintf(w, "Last update:  %s\n", s.LastUpdate.Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Cache:        %d/%d entries (%.0f%% full), %d hits, %d misses, %d evictions\n",
		s.Cache.Size, s.Cache.Capacity, s.Cache.Utilization,
		s.Cache.Hits, s.Cache.Misses, s.Cache.Evictions)

	if s.Usage != nil {
		fmt.Fprintf(w, "Embedding:    %d tokens total, %d in the last 30 days\n",
			s.Usage.TotalTokens, s.Usage.RecentTokens)
		for _, op := range s.Usage.Operations {
			fmt.Fprintf(w, "  %-10s %d calls, %d tokens\n", op.Operation, op.Count, op.TotalTokens)
		}
	}

	if len(s.ExcludedPaths) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Excluded paths:")
		for _, p := range s.ExcludedPaths {
			fmt.Fprintf(w, "  - %s\n", p)
		}
	}

	if folders && s.FolderStructure != nil {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Folders (%d, %d files):\n",
			s.FolderStructure.TotalFolders, s.FolderStructure.TotalFiles)
		for _, f := range s.FolderStructure.Folders {
			fmt.Fprintf(w, "  %-40s %d files\n", f.Path, f.FileCount)
		}
	}
}
