package mcp

import (
	"fmt"
	"strings"

	"github.com/IgorArodrigues/Gladys-IA/internal/index"
	"github.com/IgorArodrigues/Gladys-IA/internal/search"
)

// FormatSearchResults formats search results as markdown.
func FormatSearchResults(query string, results []*search.Result) string {
	if len(results) == 0 {
		return fmt.Sprintf("No results found for \"%s\"", query)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Search Results for \"%s\"\n\n", query))
	sb.WriteString(fmt.Sprintf("Found %d result", len(results)))
	if len(results) != 1 {
		sb.WriteString("s")
	}
	sb.WriteString("\n\n")

	for i, r := range results {
		formatResult(&sb, i+1, r)
	}

	return sb.String()
}

// formatResult formats a single result.
func formatResult(sb *strings.Builder, num int, r *search.Result) {
	fmt.Fprintf(sb, "### %d. %s (chunk %d/%d, score: %.2f)\n",
		num,
		r.FilePath,
		r.ChunkIndex+1,
		r.TotalChunks,
		r.Score,
	)

	if len(r.MatchedTerms) > 0 {
		terms := make([]string, len(r.MatchedTerms))
		for j, t := range r.MatchedTerms {
			terms[j] = fmt.Sprintf("`%s`", t)
		}
		fmt.Fprintf(sb, "Matched: %s\n", strings.Join(terms, ", "))
	}

	text := r.Text
	if r.Summarized {
		text = r.Summary
		sb.WriteString("*Summarized*\n")
	}
	sb.WriteString("\n")
	sb.WriteString(strings.TrimRight(text, "\n"))
	sb.WriteString("\n\n")
}

// FormatStats formats index statistics as markdown.
func FormatStats(s *index.Stats) string {
	var sb strings.Builder
	sb.WriteString("## Index Statistics\n\n")
	fmt.Fprintf(&sb, "- **State:** %s\n", s.State)
	fmt.Fprintf(&sb, "- **Vault:** %s\n", s.VaultPath)
	fmt.Fprintf(&sb, "- **Files:** %d\n", s.UniqueFiles)
	fmt.Fprintf(&sb, "- **Chunks:** %d\n", s.TotalChunks)
	fmt.Fprintf(&sb, "- **Index size:** %d vectors\n", s.IndexSize)
	fmt.Fprintf(&sb, "- **Model:** %s (%d dims, %s)\n", s.EmbeddingModel, s.Dimensions, s.Metric)
	if !s.LastUpdate.IsZero() {
		fmt.Fprintf(&sb, "- **Last update:** %s\n", s.LastUpdate.Format("2006-01-02 15:04:05 MST"))
	}
	if len(s.ExcludedPaths) > 0 {
		fmt.Fprintf(&sb, "- **Excluded:** %s\n", strings.Join(s.ExcludedPaths, ", "))
	}

	if fs := s.FolderStructure; fs != nil && fs.TotalFolders > 0 {
		sb.WriteString("\n### Folders\n\n")
		for _, f := range fs.Folders {
			fmt.Fprintf(&sb, "- %s: %d file", f.Path, f.FileCount)
			if f.FileCount != 1 {
				sb.WriteString("s")
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// FormatExclusions formats the exclusion list as markdown.
func FormatExclusions(excluded []string) string {
	if len(excluded) == 0 {
		return "No excluded paths."
	}

	var sb strings.Builder
	sb.WriteString("## Excluded Paths\n\n")
	for _, seg := range excluded {
		fmt.Fprintf(&sb, "- %s\n", seg)
	}
	return sb.String()
}
