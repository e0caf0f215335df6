package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

// StoreConfig configures the SQLite store.
type StoreConfig struct {
	// CacheSizeMB is the SQLite page cache size (default 64).
	CacheSizeMB int
}

// DefaultStoreConfig returns the stock store configuration.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{CacheSizeMB: 64}
}

// SQLiteStore persists chunk records, document metadata and excluded
// paths in one database file. WAL mode plus a single-connection pool
// keeps writers serialized while readers in other processes stay
// unblocked.
type SQLiteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
}

// Compile-time interface checks.
var (
	_ ChunkRecordStore = (*SQLiteStore)(nil)
	_ DocumentStore    = (*SQLiteStore)(nil)
	_ ExclusionStore   = (*SQLiteStore)(nil)
)

// validateIntegrity checks an existing database before opening it.
// Returns nil when the file is absent or healthy.
func validateIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("cannot open for validation: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}
	return nil
}

// NewSQLiteStore opens (or creates) the database at path with default
// configuration. An empty path creates an in-memory store for tests.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(path, DefaultStoreConfig())
}

// NewSQLiteStoreWithConfig opens the database at path. A corrupted
// database file is cleared and recreated with a warning rather than
// blocking startup; the engine rebuilds its contents from the vault.
func NewSQLiteStoreWithConfig(path string, cfg StoreConfig) (*SQLiteStore, error) {
	if cfg.CacheSizeMB <= 0 {
		cfg.CacheSizeMB = DefaultStoreConfig().CacheSizeMB
	}

	var dsn string
	if path == "" {
		dsn = ":memory:"
	} else {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}

		if validErr := validateIntegrity(path); validErr != nil {
			slog.Warn("chunk database corrupted, clearing",
				slog.String("path", path),
				slog.String("error", validErr.Error()))
			if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
				return nil, fmt.Errorf("database corrupted at %s and cannot remove: %w (original error: %v)", path, removeErr, validErr)
			}
			_ = os.Remove(path + "-wal")
			_ = os.Remove(path + "-shm")
		}

		dsn = path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer prevents lock contention between components that
	// share this handle.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// DSN params may be ignored by modernc.org/sqlite, so pragmas are
	// set explicitly as well.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		fmt.Sprintf("PRAGMA cache_size = -%d", cfg.CacheSizeMB*1024),
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// initSchema creates the tables. Timestamps are stored as Unix
// nanoseconds to avoid driver-dependent time parsing.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS chunks (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		hash         TEXT NOT NULL UNIQUE,
		text         TEXT NOT NULL,
		file_path    TEXT NOT NULL,
		chunk_index  INTEGER NOT NULL DEFAULT 0,
		total_chunks INTEGER NOT NULL DEFAULT 1,
		start_char   INTEGER NOT NULL DEFAULT 0,
		end_char     INTEGER NOT NULL DEFAULT 0,
		created_ns   INTEGER NOT NULL,
		updated_ns   INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_file_path ON chunks(file_path);

	CREATE TABLE IF NOT EXISTS documents (
		file_path    TEXT PRIMARY KEY,
		content_hash TEXT NOT NULL,
		mtime_ns     INTEGER NOT NULL,
		size         INTEGER NOT NULL,
		chunk_count  INTEGER NOT NULL DEFAULT 0,
		indexed_ns   INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS excluded_paths (
		path       TEXT PRIMARY KEY,
		created_ns INTEGER NOT NULL
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`
	_, err := s.db.Exec(schema)
	return err
}

// DB exposes the underlying handle so the keyword index and the usage
// recorder can share the same database file. The store owns the
// connection; sharers must not close it.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// UpsertByHash inserts rec, or returns the id of the existing row with
// the same hash without writing anything. Rows are content-addressed:
// rewriting the placement would let a later file steal a row that the
// first file's chunk-id list still points at, and deleting that later
// file would then drop the row out from under the first.
func (s *SQLiteStore) UpsertByHash(ctx context.Context, rec *ChunkRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, fmt.Errorf("store is closed")
	}

	now := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM chunks WHERE hash = ?`, rec.Hash).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		res, insErr := tx.ExecContext(ctx, `
			INSERT INTO chunks (hash, text, file_path, chunk_index, total_chunks, start_char, end_char, created_ns, updated_ns)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.Hash, rec.Text, rec.FilePath, rec.ChunkIndex, rec.TotalChunks,
			rec.StartChar, rec.EndChar, now.UnixNano(), now.UnixNano())
		if insErr != nil {
			return 0, fmt.Errorf("failed to insert chunk: %w", insErr)
		}
		id, insErr = res.LastInsertId()
		if insErr != nil {
			return 0, fmt.Errorf("failed to read inserted id: %w", insErr)
		}

	case err != nil:
		return 0, fmt.Errorf("failed to look up chunk hash: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	rec.ID = id
	return id, nil
}

const chunkColumns = `id, hash, text, file_path, chunk_index, total_chunks, start_char, end_char, created_ns, updated_ns`

func scanChunk(row interface{ Scan(...any) error }) (*ChunkRecord, error) {
	var rec ChunkRecord
	var createdNS, updatedNS int64
	err := row.Scan(&rec.ID, &rec.Hash, &rec.Text, &rec.FilePath,
		&rec.ChunkIndex, &rec.TotalChunks, &rec.StartChar, &rec.EndChar,
		&createdNS, &updatedNS)
	if err != nil {
		return nil, err
	}
	rec.CreatedAt = time.Unix(0, createdNS)
	rec.UpdatedAt = time.Unix(0, updatedNS)
	return &rec, nil
}

// GetChunk returns the chunk with the given id.
func (s *SQLiteStore) GetChunk(ctx context.Context, id int64) (*ChunkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+chunkColumns+` FROM chunks WHERE id = ?`, id)
	rec, err := scanChunk(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("chunk %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chunk %d: %w", id, err)
	}
	return rec, nil
}

// ListChunksByFile returns a file's chunks ordered by chunk index.
func (s *SQLiteStore) ListChunksByFile(ctx context.Context, filePath string) ([]*ChunkRecord, error) {
	return s.listChunks(ctx,
		`SELECT `+chunkColumns+` FROM chunks WHERE file_path = ? ORDER BY chunk_index, id`, filePath)
}

// ListAllChunks returns every chunk in insertion order.
func (s *SQLiteStore) ListAllChunks(ctx context.Context) ([]*ChunkRecord, error) {
	return s.listChunks(ctx,
		`SELECT `+chunkColumns+` FROM chunks ORDER BY id`)
}

func (s *SQLiteStore) listChunks(ctx context.Context, query string, args ...any) ([]*ChunkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var records []*ChunkRecord
	for rows.Next() {
		rec, err := scanChunk(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DeleteChunksByFile removes every chunk referencing filePath.
func (s *SQLiteStore) DeleteChunksByFile(ctx context.Context, filePath string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, fmt.Errorf("store is closed")
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE file_path = ?`, filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to delete chunks for %s: %w", filePath, err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// DeleteChunkByID removes a single chunk if present.
func (s *SQLiteStore) DeleteChunkByID(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("store is closed")
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete chunk %d: %w", id, err)
	}
	return nil
}

// FileExists reports whether any chunk references filePath.
func (s *SQLiteStore) FileExists(ctx context.Context, filePath string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false, fmt.Errorf("store is closed")
	}

	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM chunks WHERE file_path = ? LIMIT 1`, filePath).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check file %s: %w", filePath, err)
	}
	return true, nil
}

// ListDistinctFiles returns every file path with at least one chunk.
func (s *SQLiteStore) ListDistinctFiles(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT file_path FROM chunks ORDER BY file_path`)
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan file path: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// UpsertDocument writes the metadata row for doc.FilePath.
func (s *SQLiteStore) UpsertDocument(ctx context.Context, doc *DocumentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("store is closed")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (file_path, content_hash, mtime_ns, size, chunk_count, indexed_ns)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_path) DO UPDATE SET
			content_hash = excluded.content_hash,
			mtime_ns     = excluded.mtime_ns,
			size         = excluded.size,
			chunk_count  = excluded.chunk_count,
			indexed_ns   = excluded.indexed_ns`,
		doc.FilePath, doc.ContentHash, doc.ModTime.UnixNano(), doc.Size,
		doc.ChunkCount, doc.IndexedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to upsert document %s: %w", doc.FilePath, err)
	}
	return nil
}

func scanDocument(row interface{ Scan(...any) error }) (*DocumentRecord, error) {
	var doc DocumentRecord
	var mtimeNS, indexedNS int64
	err := row.Scan(&doc.FilePath, &doc.ContentHash, &mtimeNS, &doc.Size,
		&doc.ChunkCount, &indexedNS)
	if err != nil {
		return nil, err
	}
	doc.ModTime = time.Unix(0, mtimeNS)
	doc.IndexedAt = time.Unix(0, indexedNS)
	return &doc, nil
}

// GetDocument returns the metadata row for filePath.
func (s *SQLiteStore) GetDocument(ctx context.Context, filePath string) (*DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT file_path, content_hash, mtime_ns, size, chunk_count, indexed_ns
		FROM documents WHERE file_path = ?`, filePath)
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document %s: %w", filePath, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", filePath, err)
	}
	return doc, nil
}

// ListDocuments returns every metadata row ordered by path.
func (s *SQLiteStore) ListDocuments(ctx context.Context) ([]*DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT file_path, content_hash, mtime_ns, size, chunk_count, indexed_ns
		FROM documents ORDER BY file_path`)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []*DocumentRecord
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// DeleteDocument removes the metadata row for filePath if present.
func (s *SQLiteStore) DeleteDocument(ctx context.Context, filePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("store is closed")
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE file_path = ?`, filePath); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", filePath, err)
	}
	return nil
}

// DeleteDocumentsExcept removes metadata rows whose path is not in keep.
func (s *SQLiteStore) DeleteDocumentsExcept(ctx context.Context, keep []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, fmt.Errorf("store is closed")
	}

	if len(keep) == 0 {
		res, err := s.db.ExecContext(ctx, `DELETE FROM documents`)
		if err != nil {
			return 0, fmt.Errorf("failed to clear documents: %w", err)
		}
		n, _ := res.RowsAffected()
		return int(n), nil
	}

	placeholders := make([]string, len(keep))
	args := make([]any, len(keep))
	for i, p := range keep {
		placeholders[i] = "?"
		args[i] = p
	}
	query := fmt.Sprintf(`DELETE FROM documents WHERE file_path NOT IN (%s)`,
		strings.Join(placeholders, ","))

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to prune documents: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// AddExcludedPath records a path segment to hide from scans.
func (s *SQLiteStore) AddExcludedPath(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("store is closed")
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO excluded_paths (path, created_ns) VALUES (?, ?)`,
		path, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to add excluded path %s: %w", path, err)
	}
	return nil
}

// RemoveExcludedPath deletes an exclusion, reporting whether it existed.
func (s *SQLiteStore) RemoveExcludedPath(ctx context.Context, path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, fmt.Errorf("store is closed")
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM excluded_paths WHERE path = ?`, path)
	if err != nil {
		return false, fmt.Errorf("failed to remove excluded path %s: %w", path, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ListExcludedPaths returns all exclusions sorted.
func (s *SQLiteStore) ListExcludedPaths(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	rows, err := s.db.QueryContext(ctx, `SELECT path FROM excluded_paths ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("failed to query excluded paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan excluded path: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// Close checkpoints the WAL and closes the database. Idempotent.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.db != nil {
		_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
		return s.db.Close()
	}
	return nil
}
