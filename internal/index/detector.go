// Package index is the maintenance engine for a vault's vector index:
// change detection, the update orchestrator and its state machine,
// snapshot persistence, and the consistency guard that keeps the
// parallel chunk-id list honest against the live index.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	glerrors "github.com/IgorArodrigues/Gladys-IA/internal/errors"
	"github.com/IgorArodrigues/Gladys-IA/internal/scanner"
	"github.com/IgorArodrigues/Gladys-IA/internal/store"
)

// ChangeSet is the outcome of one detection pass: four disjoint path
// sets plus the bookkeeping needed to apply them without re-stating
// files.
type ChangeSet struct {
	Added     []string
	Modified  []string
	Removed   []string
	Unchanged []string

	// Files holds the scanned metadata for every walked path, keyed by
	// vault-relative path.
	Files map[string]*scanner.FileInfo

	// Hashes carries content hashes already computed during detection
	// (modified files), so apply does not hash twice.
	Hashes map[string]string

	// Refresh lists metadata rows to re-stamp: the file's mtime or size
	// moved but its content hash did not.
	Refresh []*store.DocumentRecord
}

// HasStructural reports whether files were added or removed.
func (cs *ChangeSet) HasStructural() bool {
	return len(cs.Added) > 0 || len(cs.Removed) > 0
}

// IsEmpty reports whether nothing needs re-indexing.
func (cs *ChangeSet) IsEmpty() bool {
	return len(cs.Added) == 0 && len(cs.Modified) == 0 && len(cs.Removed) == 0
}

// Touched returns added ∪ modified, the paths whose chunks must be
// regenerated.
func (cs *ChangeSet) Touched() []string {
	out := make([]string, 0, len(cs.Added)+len(cs.Modified))
	out = append(out, cs.Added...)
	out = append(out, cs.Modified...)
	return out
}

// extractFunc reads a file and returns its cleaned text. Empty text
// counts as unreadable.
type extractFunc func(absPath string) (string, error)

// Detector classifies vault files against the recorded per-file
// metadata. The fast path compares mtime and size without touching
// content; only a mismatch pays for extraction and hashing.
type Detector struct {
	docs    store.DocumentStore
	scanner *scanner.Scanner
	extract extractFunc
	hash    func(text string) string
	logger  *slog.Logger
}

// NewDetector creates a Detector. extract must apply the same cleaning
// the indexing path applies, or hashes will never match.
func NewDetector(docs store.DocumentStore, sc *scanner.Scanner, extract extractFunc, hash func(string) string, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		docs:    docs,
		scanner: sc,
		extract: extract,
		hash:    hash,
		logger:  logger.With("component", "detector"),
	}
}

// Detect walks the vault and classifies every file as added, modified,
// removed, or unchanged. Unreadable files are skipped with a warning
// and land in no set; they will be retried next cycle.
func (d *Detector) Detect(ctx context.Context, opts *scanner.ScanOptions) (*ChangeSet, error) {
	results, err := d.scanner.Scan(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("scan vault: %w", err)
	}

	cs := &ChangeSet{
		Files:  make(map[string]*scanner.FileInfo),
		Hashes: make(map[string]string),
	}

	for res := range results {
		if res.Err != nil {
			d.logger.Warn("scan error, skipping entry", "error", res.Err)
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		file := res.File
		cs.Files[file.Path] = file

		doc, err := d.docs.GetDocument(ctx, file.Path)
		switch {
		case errors.Is(err, store.ErrNotFound):
			cs.Added = append(cs.Added, file.Path)
		case err != nil:
			return nil, glerrors.StoreError("load document metadata", err).
				WithDetail("path", file.Path)
		default:
			d.classifyKnown(cs, file, doc)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Anything recorded but not walked is gone (deleted, or newly
	// hidden by an exclusion).
	docs, err := d.docs.ListDocuments(ctx)
	if err != nil {
		return nil, glerrors.StoreError("list document metadata", err)
	}
	for _, doc := range docs {
		if _, ok := cs.Files[doc.FilePath]; !ok {
			cs.Removed = append(cs.Removed, doc.FilePath)
		}
	}

	return cs, nil
}

// classifyKnown decides between unchanged and modified for a file that
// already has a metadata row.
func (d *Detector) classifyKnown(cs *ChangeSet, file *scanner.FileInfo, doc *store.DocumentRecord) {
	if doc.ModTime.Equal(file.ModTime) && doc.Size == file.Size {
		cs.Unchanged = append(cs.Unchanged, file.Path)
		return
	}

	// Cheap check disagreed. Only the content hash can tell a real
	// change from a touch.
	text, err := d.extract(file.AbsPath)
	if err != nil || text == "" {
		// The path stays in cs.Files so the end-of-walk sweep does not
		// mistake it for a deleted file. It lands in no set.
		d.logger.Warn("unreadable file, skipping this cycle",
			"path", file.Path, "error", err)
		return
	}

	hash := d.hash(text)
	if doc.ContentHash == "" || hash == doc.ContentHash {
		// Same content under a new stamp, or a legacy row without a
		// hash: refresh the metadata, skip re-indexing.
		cs.Unchanged = append(cs.Unchanged, file.Path)
		cs.Refresh = append(cs.Refresh, &store.DocumentRecord{
			FilePath:    file.Path,
			ContentHash: hash,
			ModTime:     file.ModTime,
			Size:        file.Size,
			ChunkCount:  doc.ChunkCount,
			IndexedAt:   doc.IndexedAt,
		})
		return
	}

	cs.Modified = append(cs.Modified, file.Path)
	cs.Hashes[file.Path] = hash
}
