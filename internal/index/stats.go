package index

import (
	"context"
	"path"
	"sort"
	"time"

	"github.com/IgorArodrigues/Gladys-IA/internal/cache"
	"github.com/IgorArodrigues/Gladys-IA/internal/chunk"
	glerrors "github.com/IgorArodrigues/Gladys-IA/internal/errors"
	"github.com/IgorArodrigues/Gladys-IA/internal/scanner"
	"github.com/IgorArodrigues/Gladys-IA/internal/telemetry"
)

// FolderStats tallies one folder's indexable files.
type FolderStats struct {
	Path      string         `json:"path"` // vault-relative, "." for the root
	FileCount int            `json:"file_count"`
	ByType    map[string]int `json:"by_type"` // extension without dot
}

// FolderStructure is the vault's folder breakdown, respecting the same
// exclusions as indexing.
type FolderStructure struct {
	TotalFiles   int            `json:"total_files"`
	TotalFolders int            `json:"total_folders"`
	ByType       map[string]int `json:"by_type"`
	Folders      []*FolderStats `json:"folders"` // sorted by relative path
}

// ChunkingInfo reports the active chunking parameters.
type ChunkingInfo struct {
	MaxSize int `json:"max_chunk_size"`
	Overlap int `json:"chunk_overlap"`
	MinSize int `json:"min_chunk_size"`
}

// Stats is the engine's statistics surface.
type Stats struct {
	State          string    `json:"state"`
	VaultPath      string    `json:"vault_path"`
	TotalChunks    int       `json:"total_chunks"`
	UniqueFiles    int       `json:"unique_files"`
	IndexSize      int       `json:"index_size"`
	LastUpdate     time.Time `json:"last_update"`
	EmbeddingModel string    `json:"embedding_model"`
	Dimensions     int       `json:"dimensions"`
	Metric         string    `json:"metric"`

	ExcludedPaths   []string              `json:"excluded_paths"`
	FolderStructure *FolderStructure      `json:"folder_structure,omitempty"`
	Usage           *telemetry.UsageStats `json:"embedding_usage,omitempty"`
	Chunking        ChunkingInfo          `json:"chunking"`
	Cache           cache.Stats           `json:"cache"`
	KeywordChunks   int                   `json:"keyword_chunks"`
}

// Stats assembles the statistics surface. It reads concurrently with
// updates; counts may lag a running cycle.
func (e *Engine) Stats(ctx context.Context) (*Stats, error) {
	if e.State() == StateInconsistent {
		return nil, glerrors.RebuildError("index is inconsistent; restart to recover", nil)
	}

	docs, err := e.store.ListDocuments(ctx)
	if err != nil {
		return nil, glerrors.StoreError("list documents for stats", err)
	}
	totalChunks := 0
	for _, d := range docs {
		totalChunks += d.ChunkCount
	}

	excluded, err := e.store.ListExcludedPaths(ctx)
	if err != nil {
		return nil, glerrors.StoreError("list excluded paths", err)
	}

	folders, err := e.folderStructure(ctx, excluded)
	if err != nil {
		// Folder stats are decoration; a failing walk should not sink
		// the whole surface.
		e.logger.Warn("folder structure walk failed", "error", err)
		folders = nil
	}

	usage, err := e.usage.Stats(ctx)
	if err != nil {
		e.logger.Warn("usage stats failed", "error", err)
		usage = nil
	}

	e.dataMu.RLock()
	indexSize := e.index.Size()
	lastUpdate := e.lastUpdate
	e.dataMu.RUnlock()

	s := &Stats{
		State:          string(e.State()),
		VaultPath:      e.cfg.Vault.Path,
		TotalChunks:    totalChunks,
		UniqueFiles:    len(docs),
		IndexSize:      indexSize,
		LastUpdate:     lastUpdate,
		EmbeddingModel: e.embedder.ModelName(),
		Dimensions:     e.embedder.Dimensions(),
		Metric:         e.metric,

		ExcludedPaths:   excluded,
		FolderStructure: folders,
		Usage:           usage,
		Chunking: ChunkingInfo{
			MaxSize: e.chunkOpts.MaxSize,
			Overlap: e.chunkOpts.Overlap,
			MinSize: e.chunkOpts.MinSize,
		},
		Cache: e.cache.Stats(),
	}
	if s.Chunking.MaxSize == 0 {
		s.Chunking = ChunkingInfo{
			MaxSize: chunk.DefaultMaxSize,
			Overlap: chunk.DefaultOverlap,
			MinSize: chunk.DefaultMinSize,
		}
	}
	if e.keyword != nil {
		s.KeywordChunks = e.keyword.Stats(ctx).DocumentCount
	}
	return s, nil
}

// folderStructure walks the vault with the same filters as indexing
// and tallies files per folder and per extension.
func (e *Engine) folderStructure(ctx context.Context, excluded []string) (*FolderStructure, error) {
	results, err := e.scanner.Scan(ctx, &scanner.ScanOptions{
		Root:             e.cfg.Vault.Path,
		IncludePatterns:  e.cfg.Vault.Include,
		ExcludePatterns:  e.cfg.Vault.Exclude,
		ExcludedSegments: excluded,
		MaxFileSize:      e.cfg.MaxFileSize(),
		RespectGitignore: e.cfg.Vault.RespectGitignore,
	})
	if err != nil {
		return nil, err
	}

	fs := &FolderStructure{ByType: make(map[string]int)}
	folders := make(map[string]*FolderStats)

	for res := range results {
		if res.Err != nil || res.File == nil {
			continue
		}

		dir := path.Dir(res.File.Path)
		folder, ok := folders[dir]
		if !ok {
			folder = &FolderStats{Path: dir, ByType: make(map[string]int)}
			folders[dir] = folder
		}

		ext := path.Ext(res.File.Path)
		if len(ext) > 1 {
			ext = ext[1:]
		}
		folder.FileCount++
		folder.ByType[ext]++
		fs.TotalFiles++
		fs.ByType[ext]++
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fs.TotalFolders = len(folders)
	fs.Folders = make([]*FolderStats, 0, len(folders))
	for _, f := range folders {
		fs.Folders = append(fs.Folders, f)
	}
	sort.Slice(fs.Folders, func(i, j int) bool {
		return fs.Folders[i].Path < fs.Folders[j].Path
	})
	return fs, nil
}
