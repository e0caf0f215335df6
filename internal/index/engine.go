package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/IgorArodrigues/Gladys-IA/internal/cache"
	"github.com/IgorArodrigues/Gladys-IA/internal/chunk"
	"github.com/IgorArodrigues/Gladys-IA/internal/config"
	"github.com/IgorArodrigues/Gladys-IA/internal/embed"
	glerrors "github.com/IgorArodrigues/Gladys-IA/internal/errors"
	"github.com/IgorArodrigues/Gladys-IA/internal/extract"
	"github.com/IgorArodrigues/Gladys-IA/internal/scanner"
	"github.com/IgorArodrigues/Gladys-IA/internal/store"
	"github.com/IgorArodrigues/Gladys-IA/internal/telemetry"
)

// State is the orchestrator's lifecycle phase. Transitions are guarded
// by a mutex; Inconsistent is terminal until restart.
type State string

const (
	StateIdle         State = "idle"
	StateScanning     State = "scanning"
	StateUpdating     State = "updating"
	StateRebuilding   State = "rebuilding"
	StateInconsistent State = "inconsistent"
)

// ErrUpdateInProgress reports a trigger that arrived while a cycle was
// already running. Triggers are single-flight, never queued.
var ErrUpdateInProgress = errors.New("index update already in progress")

// Store is the persistence surface the engine needs: chunk rows,
// document metadata, and the excluded-path set.
type Store interface {
	store.ChunkRecordStore
	store.DocumentStore
	store.ExclusionStore
}

// Config wires the engine's dependencies. Vault, Store, and Embedder
// are required; the rest default sensibly.
type Config struct {
	Vault    *config.Config
	Store    Store
	Embedder embed.Embedder

	// Keyword enables the BM25 leg and hybrid search when set.
	Keyword *store.KeywordIndex

	Extractor *extract.Extractor
	Splitter  *chunk.Splitter
	Scanner   *scanner.Scanner
	Cache     *cache.ChunkCache
	Usage     *telemetry.UsageRecorder
	Logger    *slog.Logger

	// SnapshotPath is where the index snapshot lives. Empty disables
	// snapshot persistence (tests).
	SnapshotPath string

	// Metric is store.MetricCosine (default) or store.MetricL2.
	Metric string
}

// Option adjusts an Engine after construction.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Progress is one observed step of an update cycle.
type Progress struct {
	Phase   State
	Current int
	Total   int
	Path    string
}

// WithProgress registers an observer called synchronously on the cycle
// goroutine. Observers must return quickly.
func WithProgress(fn func(Progress)) Option {
	return func(e *Engine) { e.progress = fn }
}

// Engine maintains a vault's vector index: it detects changes, applies
// them to the record store, rebuilds the index, and serves reads. All
// update triggers funnel through one single-flight entry point; reads
// run concurrently against an atomically swapped (index, chunkIDs)
// pair.
type Engine struct {
	cfg       *config.Config
	store     Store
	embedder  embed.Embedder
	keyword   *store.KeywordIndex
	extractor *extract.Extractor
	splitter  *chunk.Splitter
	chunkOpts chunk.Options
	scanner   *scanner.Scanner
	cache     *cache.ChunkCache
	usage     *telemetry.UsageRecorder
	detector  *Detector
	logger    *slog.Logger
	now       func() time.Time
	progress  func(Progress)

	snapshotPath string
	metric       string

	stateMu sync.Mutex
	state   State

	// dataMu guards the served pair. Rebuilds prepare a full
	// replacement and swap both fields in one critical section, so
	// readers see either the old pair or the new pair, never a mix.
	dataMu     sync.RWMutex
	index      *store.FlatIndex
	chunkIDs   []int64
	lastUpdate time.Time
}

// New builds an Engine and, when a snapshot path is configured, loads
// the last persisted index state. A snapshot whose model or dimensions
// disagree with the embedder is discarded; the next update cycle
// rebuilds from the record store.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if cfg.Vault == nil {
		return nil, fmt.Errorf("vault configuration is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "index")

	metric := cfg.Metric
	if metric == "" {
		metric = store.MetricCosine
	}

	chunkOpts := chunk.Options{
		MaxSize: cfg.Vault.Index.ChunkSize,
		Overlap: cfg.Vault.Index.ChunkOverlap,
		MinSize: cfg.Vault.Index.MinChunkSize,
	}
	splitter := cfg.Splitter
	if splitter == nil {
		splitter = chunk.NewSplitterWithOptions(chunkOpts)
	}

	extractor := cfg.Extractor
	if extractor == nil {
		extractor = extract.New()
	}

	sc := cfg.Scanner
	if sc == nil {
		var err error
		sc, err = scanner.New()
		if err != nil {
			return nil, fmt.Errorf("create scanner: %w", err)
		}
	}

	chunkCache := cfg.Cache
	if chunkCache == nil {
		chunkCache = cache.New(cfg.Vault.Index.CacheSize)
	}

	flat, err := store.NewFlatIndex(store.FlatIndexConfig{
		Dimensions: cfg.Embedder.Dimensions(),
		Metric:     metric,
	})
	if err != nil {
		return nil, fmt.Errorf("create vector index: %w", err)
	}

	e := &Engine{
		cfg:          cfg.Vault,
		store:        cfg.Store,
		embedder:     cfg.Embedder,
		keyword:      cfg.Keyword,
		extractor:    extractor,
		splitter:     splitter,
		chunkOpts:    chunkOpts,
		scanner:      sc,
		cache:        chunkCache,
		usage:        cfg.Usage,
		logger:       logger,
		now:          time.Now,
		snapshotPath: cfg.SnapshotPath,
		metric:       metric,
		state:        StateIdle,
		index:        flat,
	}
	e.detector = NewDetector(cfg.Store, sc, e.extractText, chunk.HashText, logger)

	for _, opt := range opts {
		opt(e)
	}

	if e.snapshotPath != "" {
		e.loadSnapshot()
	}

	return e, nil
}

// State returns the orchestrator's current phase.
func (e *Engine) State() State {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.state
}

// LastUpdate returns the completion time of the last successful cycle.
func (e *Engine) LastUpdate() time.Time {
	e.dataMu.RLock()
	defer e.dataMu.RUnlock()
	return e.lastUpdate
}

// beginCycle is the single-flight gate every trigger passes through.
func (e *Engine) beginCycle() error {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	switch e.state {
	case StateIdle:
		e.state = StateScanning
		return nil
	case StateInconsistent:
		return glerrors.RebuildError("index is inconsistent; restart to recover", nil)
	default:
		return ErrUpdateInProgress
	}
}

// setState advances the phase. Inconsistent is sticky; only a restart
// leaves it.
func (e *Engine) setState(s State) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	if e.state == StateInconsistent {
		return
	}
	e.state = s
}

// UpdateIndex runs one full update cycle: detect, apply, rebuild,
// snapshot. It is safe to call from the refresher, the watcher, and
// the CLI concurrently; overlapping calls get ErrUpdateInProgress.
func (e *Engine) UpdateIndex(ctx context.Context) error {
	if err := e.beginCycle(); err != nil {
		return err
	}
	err := e.runCycle(ctx)
	e.setState(StateIdle)
	return err
}

func (e *Engine) reportProgress(p Progress) {
	if e.progress != nil {
		e.progress(p)
	}
}

func (e *Engine) runCycle(ctx context.Context) error {
	started := e.now()

	e.reportProgress(Progress{Phase: StateScanning})
	cs, err := e.detectChanges(ctx)
	if err != nil {
		return err
	}

	// Metadata refreshes apply even when nothing needs re-indexing.
	for _, doc := range cs.Refresh {
		if err := e.store.UpsertDocument(ctx, doc); err != nil {
			return glerrors.StoreError("refresh document metadata", err).
				WithDetail("path", doc.FilePath)
		}
	}

	if cs.IsEmpty() {
		e.logger.Debug("no changes detected",
			"unchanged", len(cs.Unchanged),
			"elapsed", time.Since(started))
		return nil
	}

	e.logger.Info("applying vault changes",
		"added", len(cs.Added),
		"modified", len(cs.Modified),
		"removed", len(cs.Removed),
		"unchanged", len(cs.Unchanged))

	e.setState(StateUpdating)
	if err := e.applyChanges(ctx, cs); err != nil {
		return err
	}

	e.setState(StateRebuilding)
	if err := e.rebuild(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return e.recover(ctx, err)
	}

	e.saveSnapshot()
	e.logger.Info("update cycle complete",
		"index_size", e.Size(),
		"elapsed", time.Since(started))
	return nil
}

// detectChanges assembles scan options from configuration plus the
// database-backed exclusion set and runs the detector.
func (e *Engine) detectChanges(ctx context.Context) (*ChangeSet, error) {
	segments, err := e.store.ListExcludedPaths(ctx)
	if err != nil {
		return nil, glerrors.StoreError("list excluded paths", err)
	}

	return e.detector.Detect(ctx, &scanner.ScanOptions{
		Root:             e.cfg.Vault.Path,
		IncludePatterns:  e.cfg.Vault.Include,
		ExcludePatterns:  e.cfg.Vault.Exclude,
		ExcludedSegments: segments,
		MaxFileSize:      e.cfg.MaxFileSize(),
		RespectGitignore: e.cfg.Vault.RespectGitignore,
	})
}

// applyChanges deletes rows for removed and modified files and chunks,
// embeds, and upserts the touched ones. Chunk rows whose embedding
// call fails are rolled back and dropped for this cycle.
func (e *Engine) applyChanges(ctx context.Context, cs *ChangeSet) error {
	// Delete-then-insert on both the structural and the content-only
	// path: stale rows must never survive into a rebuild.
	for _, path := range cs.Removed {
		if err := e.deleteFileRows(ctx, path, true); err != nil {
			return err
		}
	}
	for _, path := range cs.Modified {
		if err := e.deleteFileRows(ctx, path, false); err != nil {
			return err
		}
	}

	touched := cs.Touched()
	for i, path := range touched {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.reportProgress(Progress{
			Phase:   StateUpdating,
			Current: i + 1,
			Total:   len(touched),
			Path:    path,
		})
		file := cs.Files[path]

		text, err := e.extractText(file.AbsPath)
		if err != nil {
			e.logger.Warn("extraction failed, skipping file",
				"path", path, "error", err)
			continue
		}

		hash, ok := cs.Hashes[path]
		if !ok {
			hash = chunk.HashText(text)
		}

		kept, err := e.indexFile(ctx, path, text)
		if err != nil {
			return err
		}

		doc := &store.DocumentRecord{
			FilePath:    path,
			ContentHash: hash,
			ModTime:     file.ModTime,
			Size:        file.Size,
			ChunkCount:  kept,
			IndexedAt:   e.now(),
		}
		if err := e.store.UpsertDocument(ctx, doc); err != nil {
			return glerrors.StoreError("save document metadata", err).
				WithDetail("path", path)
		}
	}

	return nil
}

// deleteFileRows removes a file's chunk rows, its keyword entries, and
// its cache slots; withDocument also drops the metadata row.
func (e *Engine) deleteFileRows(ctx context.Context, path string, withDocument bool) error {
	chunks, err := e.store.ListChunksByFile(ctx, path)
	if err != nil {
		return glerrors.StoreError("list chunks for deletion", err).
			WithDetail("path", path)
	}

	ids := make([]int64, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
		e.cache.Invalidate(c.ID)
	}

	if _, err := e.store.DeleteChunksByFile(ctx, path); err != nil {
		return glerrors.StoreError("delete chunks", err).WithDetail("path", path)
	}
	if e.keyword != nil && len(ids) > 0 {
		if err := e.keyword.Delete(ctx, ids); err != nil {
			e.logger.Warn("keyword delete failed", "path", path, "error", err)
		}
	}

	if withDocument {
		if err := e.store.DeleteDocument(ctx, path); err != nil {
			return glerrors.StoreError("delete document metadata", err).
				WithDetail("path", path)
		}
	}
	return nil
}

// indexFile chunks one file's text and upserts each chunk, reporting
// how many chunks survived embedding.
func (e *Engine) indexFile(ctx context.Context, path, text string) (int, error) {
	chunks := e.splitter.Split(text, path)
	kept := 0

	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return kept, err
		}

		rec := &store.ChunkRecord{
			Hash:        c.Hash(),
			Text:        c.Text,
			FilePath:    path,
			ChunkIndex:  c.Index,
			TotalChunks: c.Total,
			StartChar:   c.StartChar,
			EndChar:     c.EndChar,
		}
		id, err := e.store.UpsertByHash(ctx, rec)
		if err != nil {
			return kept, glerrors.StoreError("upsert chunk", err).
				WithDetail("path", path)
		}

		// Embed now so a failing chunk is dropped before it can poison
		// the rebuild. The provider cache makes the rebuild's repeat
		// call cheap.
		if _, err := e.embedder.Embed(ctx, c.Text); err != nil {
			e.logger.Warn("embedding failed, dropping chunk",
				"path", path, "chunk", c.Index, "error", err)
			if delErr := e.store.DeleteChunkByID(ctx, id); delErr != nil {
				e.logger.Warn("rollback of dropped chunk failed",
					"chunk_id", id, "error", delErr)
			}
			continue
		}
		e.recordUsage(ctx, path, c.Text, telemetry.OpCreate)

		if e.keyword != nil {
			if err := e.keyword.Index(ctx, []int64{id}, []string{c.Text}); err != nil {
				e.logger.Warn("keyword indexing failed", "chunk_id", id, "error", err)
			}
		}
		kept++
	}

	return kept, nil
}

// rebuild re-reads every live chunk row in store order, re-embeds each,
// and swaps in a freshly built (index, chunkIDs) pair. A chunk whose
// re-embedding fails is skipped: it occupies no position and no id
// slot, so the parallel invariant holds.
func (e *Engine) rebuild(ctx context.Context) error {
	records, err := e.store.ListAllChunks(ctx)
	if err != nil {
		return glerrors.StoreError("list chunks for rebuild", err)
	}

	dims := e.embedder.Dimensions()
	vectors := make([][]float32, 0, len(records))
	ids := make([]int64, 0, len(records))

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.reportProgress(Progress{
			Phase:   StateRebuilding,
			Current: i + 1,
			Total:   len(records),
			Path:    rec.FilePath,
		})

		vec, err := e.embedder.Embed(ctx, rec.Text)
		if err != nil {
			e.logger.Warn("re-embedding failed, skipping chunk",
				"chunk_id", rec.ID, "path", rec.FilePath, "error", err)
			continue
		}
		if len(vec) != dims {
			e.logger.Warn("unexpected vector width, skipping chunk",
				"chunk_id", rec.ID, "got", len(vec), "want", dims)
			continue
		}
		e.recordUsage(ctx, rec.FilePath, rec.Text, telemetry.OpRebuild)

		vectors = append(vectors, vec)
		ids = append(ids, rec.ID)
	}

	next, err := store.NewFlatIndexFromVectors(store.FlatIndexConfig{
		Dimensions: dims,
		Metric:     e.metric,
	}, vectors)
	if err != nil {
		return glerrors.RebuildError("build replacement index", err)
	}

	e.dataMu.Lock()
	e.index = next
	e.chunkIDs = ids
	e.lastUpdate = e.now()
	e.dataMu.Unlock()

	e.logger.Info("index rebuilt",
		"chunks", len(records), "indexed", len(ids), "skipped", len(records)-len(ids))
	return nil
}

// recover runs the cascade after a failed rebuild: (a) clear in-memory
// state and rebuild from scratch; (b) fall back to the last persisted
// snapshot; (c) enter terminal inconsistent.
func (e *Engine) recover(ctx context.Context, cause error) error {
	e.logger.Error("rebuild failed, attempting recovery", "error", cause)

	e.dataMu.Lock()
	e.index.Reset()
	e.chunkIDs = nil
	e.dataMu.Unlock()
	e.cache.Clear()

	rebuildErr := e.rebuild(ctx)
	if rebuildErr == nil {
		e.saveSnapshot()
		e.logger.Info("recovered with a from-scratch rebuild")
		return nil
	}
	e.logger.Error("from-scratch rebuild failed", "error", rebuildErr)

	if e.snapshotPath != "" && e.loadSnapshot() {
		e.logger.Warn("serving last persisted snapshot; index may be stale")
		return glerrors.RebuildError("rebuild failed; reverted to last snapshot", cause)
	}

	e.setState(StateInconsistent)
	return glerrors.RebuildError("rebuild failed and recovery exhausted; index is inconsistent", cause).
		WithSuggestion("restart the process to rebuild the index from scratch")
}

// loadSnapshot restores the served pair from disk. Returns false when
// no usable snapshot exists.
func (e *Engine) loadSnapshot() bool {
	snap, err := LoadSnapshot(e.snapshotPath)
	if err != nil {
		e.logger.Warn("snapshot unreadable, ignoring", "path", e.snapshotPath, "error", err)
		return false
	}
	if snap == nil {
		return false
	}
	if !snap.Valid(e.embedder.ModelName(), e.embedder.Dimensions()) {
		e.logger.Warn("snapshot does not match embedder, discarding",
			"snapshot_model", snap.Model, "model", e.embedder.ModelName(),
			"snapshot_dims", snap.Dimensions, "dims", e.embedder.Dimensions())
		return false
	}

	next, err := store.NewFlatIndexFromVectors(store.FlatIndexConfig{
		Dimensions: e.embedder.Dimensions(),
		Metric:     e.metric,
	}, snap.Vectors)
	if err != nil {
		e.logger.Warn("snapshot rejected by index", "error", err)
		return false
	}

	e.dataMu.Lock()
	e.index = next
	e.chunkIDs = snap.ChunkIDs
	e.lastUpdate = snap.LastUpdate
	e.dataMu.Unlock()

	e.logger.Info("snapshot loaded", "vectors", len(snap.Vectors), "last_update", snap.LastUpdate)
	return true
}

// saveSnapshot persists the served pair. Failures are logged, never
// fatal: the index stays correct in memory and the next cycle retries.
func (e *Engine) saveSnapshot() {
	if e.snapshotPath == "" {
		return
	}

	e.dataMu.RLock()
	snap := &Snapshot{
		Vectors:    e.index.Vectors(),
		ChunkIDs:   append([]int64(nil), e.chunkIDs...),
		LastUpdate: e.lastUpdate,
		Model:      e.embedder.ModelName(),
		Dimensions: e.embedder.Dimensions(),
		Metric:     e.metric,
	}
	e.dataMu.RUnlock()

	if err := SaveSnapshot(e.snapshotPath, snap); err != nil {
		e.logger.Warn("snapshot persist failed", "path", e.snapshotPath, "error", err)
	}
}

// Size returns the number of vectors currently served.
func (e *Engine) Size() int {
	e.dataMu.RLock()
	defer e.dataMu.RUnlock()
	return e.index.Size()
}

// AddExcludedPath hides every path containing the segment from future
// scans. Already-indexed content under it is removed on the next cycle.
func (e *Engine) AddExcludedPath(ctx context.Context, segment string) error {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return glerrors.ValidationError("excluded path segment is empty", nil)
	}
	if err := e.store.AddExcludedPath(ctx, segment); err != nil {
		return glerrors.StoreError("add excluded path", err).WithDetail("segment", segment)
	}
	return nil
}

// RemoveExcludedPath reports whether the segment was present.
func (e *Engine) RemoveExcludedPath(ctx context.Context, segment string) (bool, error) {
	removed, err := e.store.RemoveExcludedPath(ctx, strings.TrimSpace(segment))
	if err != nil {
		return false, glerrors.StoreError("remove excluded path", err).WithDetail("segment", segment)
	}
	return removed, nil
}

// ExcludedPaths returns the persisted exclusion segments.
func (e *Engine) ExcludedPaths(ctx context.Context) ([]string, error) {
	paths, err := e.store.ListExcludedPaths(ctx)
	if err != nil {
		return nil, glerrors.StoreError("list excluded paths", err)
	}
	return paths, nil
}

// extractText reads and cleans a file's text. Empty output counts as
// unreadable so downstream never indexes blank documents.
func (e *Engine) extractText(absPath string) (string, error) {
	res, err := e.extractor.ExtractFile(absPath)
	if err != nil {
		return "", err
	}
	text := extract.CleanText(res.Text)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty extraction")
	}
	return text, nil
}

// recordUsage appends an embedding usage row. Best effort: accounting
// never blocks indexing.
func (e *Engine) recordUsage(ctx context.Context, path, text string, op string) {
	if err := e.usage.Record(ctx, path, len(text), embed.EstimateTokens(text), op); err != nil {
		e.logger.Warn("usage accounting failed", "error", err)
	}
}
