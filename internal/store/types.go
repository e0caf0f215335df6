// Package store is the persistence layer: chunk and document records in
// SQLite, a keyword index over FTS5, and the in-memory flat vector index
// the engine searches.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound reports a lookup that matched no row. Callers distinguish
// it from I/O failures with errors.Is.
var ErrNotFound = errors.New("not found")

// Distance metrics for the flat index.
const (
	MetricCosine = "cos"
	MetricL2     = "l2"
)

// ParseMetric maps a configuration metric name to a metric constant.
// Empty input defaults to cosine.
func ParseMetric(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "cosine", MetricCosine:
		return MetricCosine, nil
	case MetricL2:
		return MetricL2, nil
	default:
		return "", fmt.Errorf("unknown metric %q", name)
	}
}

// ChunkRecord is one stored chunk. ID is the SQLite rowid and the
// stable handle the vector index refers back to; Hash is the SHA-256 of
// Text and is unique across the whole store, so identical content is
// held once no matter how many files produce it.
type ChunkRecord struct {
	ID          int64
	Hash        string
	Text        string
	FilePath    string // vault-relative, slash-separated
	ChunkIndex  int    // ordinal within the file, gaps allowed
	TotalChunks int
	StartChar   int // rune offset into the extracted text
	EndChar     int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DocumentRecord is the per-file metadata the change detector compares
// against. ModTime and Size form the cheap no-read comparison;
// ContentHash confirms real changes when they differ.
type DocumentRecord struct {
	FilePath    string // vault-relative, slash-separated
	ContentHash string // SHA-256 of the extracted text
	ModTime     time.Time
	Size        int64
	ChunkCount  int
	IndexedAt   time.Time
}

// ChunkRecordStore persists chunks keyed by content hash.
type ChunkRecordStore interface {
	// UpsertByHash inserts rec or, when a row with the same Hash
	// already exists, returns that row's id without writing. Repeated
	// upserts of the same content are idempotent, and a later file can
	// never rewrite a row an earlier file still owns.
	UpsertByHash(ctx context.Context, rec *ChunkRecord) (int64, error)

	// GetChunk returns the chunk with the given id, or ErrNotFound.
	GetChunk(ctx context.Context, id int64) (*ChunkRecord, error)

	// ListChunksByFile returns a file's chunks ordered by ChunkIndex.
	ListChunksByFile(ctx context.Context, filePath string) ([]*ChunkRecord, error)

	// ListAllChunks returns every chunk in insertion (rowid) order.
	ListAllChunks(ctx context.Context) ([]*ChunkRecord, error)

	// DeleteChunksByFile removes a file's chunks, reporting how many.
	DeleteChunksByFile(ctx context.Context, filePath string) (int, error)

	// DeleteChunkByID removes a single chunk. Missing ids are not an
	// error.
	DeleteChunkByID(ctx context.Context, id int64) error

	// FileExists reports whether any chunk references filePath.
	FileExists(ctx context.Context, filePath string) (bool, error)

	// ListDistinctFiles returns every file path with at least one
	// chunk, sorted.
	ListDistinctFiles(ctx context.Context) ([]string, error)
}

// DocumentStore persists per-file metadata.
type DocumentStore interface {
	UpsertDocument(ctx context.Context, doc *DocumentRecord) error

	// GetDocument returns the metadata for filePath, or ErrNotFound.
	GetDocument(ctx context.Context, filePath string) (*DocumentRecord, error)

	ListDocuments(ctx context.Context) ([]*DocumentRecord, error)

	DeleteDocument(ctx context.Context, filePath string) error

	// DeleteDocumentsExcept removes metadata rows whose path is not in
	// keep, reporting how many were removed. Used after a scan to drop
	// rows for files that no longer exist.
	DeleteDocumentsExcept(ctx context.Context, keep []string) (int, error)
}

// ExclusionStore persists user-excluded path segments.
type ExclusionStore interface {
	AddExcludedPath(ctx context.Context, path string) error

	// RemoveExcludedPath reports whether the path was present.
	RemoveExcludedPath(ctx context.Context, path string) (bool, error)

	ListExcludedPaths(ctx context.Context) ([]string, error)
}

// KeywordResult is a single BM25 match.
type KeywordResult struct {
	ChunkID      int64
	Score        float64
	MatchedTerms []string
}

// KeywordStats describes the keyword index.
type KeywordStats struct {
	DocumentCount int
}

// KeywordConfig configures keyword indexing.
type KeywordConfig struct {
	// StopWords are filtered out during tokenization.
	StopWords []string

	// MinTokenLength is the minimum token length to index (default 2).
	MinTokenLength int
}

// DefaultKeywordConfig returns the stock keyword configuration.
func DefaultKeywordConfig() KeywordConfig {
	return KeywordConfig{
		StopWords:      DefaultTextStopWords,
		MinTokenLength: 2,
	}
}

// DefaultTextStopWords are high-frequency words filtered from the
// keyword index. Portuguese and English, since vaults mix both.
var DefaultTextStopWords = []string{
	// English
	"the", "and", "for", "are", "but", "not", "you", "all", "was",
	"this", "that", "with", "from", "they", "been", "have", "has",
	// Portuguese
	"de", "da", "do", "das", "dos", "em", "no", "na", "nos", "nas",
	"um", "uma", "os", "as", "ao", "aos", "que", "com", "por", "para",
	"mais", "como", "mas", "foi", "ser", "tem", "era", "seu", "sua",
	"ou", "quando", "muito", "está", "são", "não", "também",
}

// FlatIndexConfig configures the flat vector index.
type FlatIndexConfig struct {
	// Dimensions is the vector width. Required.
	Dimensions int

	// Metric is MetricCosine or MetricL2 (default MetricCosine).
	Metric string
}

// DefaultFlatIndexConfig returns the stock flat index configuration.
func DefaultFlatIndexConfig(dimensions int) FlatIndexConfig {
	return FlatIndexConfig{
		Dimensions: dimensions,
		Metric:     MetricCosine,
	}
}

// FlatResult is a single vector match. Position is the slot in the
// index, which callers map back to a chunk id through their parallel
// id list.
type FlatResult struct {
	Position int
	Distance float32
	Score    float32
}

// ErrDimensionMismatch indicates a vector of the wrong width.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}
