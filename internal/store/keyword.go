package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// KeywordIndex provides BM25 keyword search over chunk text using
// SQLite FTS5. It shares the SQLiteStore's database handle, so the
// keyword rows live in the same file as the chunk rows; the store owns
// the connection and closes it.
//
// Rows are keyed by chunk id. The index is maintained alongside chunk
// writes rather than inside them; a divergence (for instance after a
// crash between the two writes) only costs keyword recall for the
// affected chunks and is repaired by the next rebuild.
type KeywordIndex struct {
	mu        sync.RWMutex
	db        *sql.DB
	config    KeywordConfig
	stopWords map[string]struct{}
	closed    bool
}

// NewKeywordIndex creates the FTS5 tables on db if needed.
func NewKeywordIndex(db *sql.DB, cfg KeywordConfig) (*KeywordIndex, error) {
	if cfg.MinTokenLength <= 0 {
		cfg.MinTokenLength = DefaultKeywordConfig().MinTokenLength
	}
	if cfg.StopWords == nil {
		cfg.StopWords = DefaultTextStopWords
	}

	k := &KeywordIndex{
		db:        db,
		config:    cfg,
		stopWords: BuildStopWordMap(cfg.StopWords),
	}
	if err := k.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize keyword schema: %w", err)
	}
	return k, nil
}

// initSchema creates the FTS5 virtual table and the id tracking table.
func (k *KeywordIndex) initSchema() error {
	schema := `
	-- chunk_id is stored but not searchable; content holds the
	-- pre-tokenized text.
	CREATE VIRTUAL TABLE IF NOT EXISTS fts_chunks USING fts5(
		chunk_id UNINDEXED,
		content,
		tokenize='unicode61'
	);

	-- FTS5 does not expose its rowids reliably, so ids are tracked in a
	-- plain table for counting and consistency checks.
	CREATE TABLE IF NOT EXISTS fts_chunk_ids (
		chunk_id INTEGER PRIMARY KEY
	);
	`
	_, err := k.db.Exec(schema)
	return err
}

// prepareText tokenizes and filters chunk text the same way for
// indexing and querying.
func (k *KeywordIndex) prepareText(text string) []string {
	tokens := TokenizeText(text, k.config.MinTokenLength)
	return FilterStopWords(tokens, k.stopWords)
}

// Index adds or replaces keyword rows for the given chunks.
func (k *KeywordIndex) Index(ctx context.Context, ids []int64, texts []string) error {
	if len(ids) == 0 {
		return nil
	}
	if len(ids) != len(texts) {
		return fmt.Errorf("ids and texts length mismatch: %d vs %d", len(ids), len(texts))
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if k.closed {
		return fmt.Errorf("keyword index is closed")
	}

	tx, err := k.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// FTS5 virtual tables do not support REPLACE, so delete first.
	deleteStmt, err := tx.PrepareContext(ctx, `DELETE FROM fts_chunks WHERE chunk_id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}
	defer deleteStmt.Close()

	insertStmt, err := tx.PrepareContext(ctx, `INSERT INTO fts_chunks (chunk_id, content) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer insertStmt.Close()

	idStmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO fts_chunk_ids (chunk_id) VALUES (?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare id statement: %w", err)
	}
	defer idStmt.Close()

	for i, id := range ids {
		content := strings.Join(k.prepareText(texts[i]), " ")

		if _, err := deleteStmt.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("failed to delete keyword row %d: %w", id, err)
		}
		if _, err := insertStmt.ExecContext(ctx, id, content); err != nil {
			return fmt.Errorf("failed to index chunk %d: %w", id, err)
		}
		if _, err := idStmt.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("failed to track chunk id %d: %w", id, err)
		}
	}

	return tx.Commit()
}

// Search returns chunks matching the query terms, best first. An empty
// or all-stopword query matches nothing.
func (k *KeywordIndex) Search(ctx context.Context, query string, limit int) ([]*KeywordResult, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if k.closed {
		return nil, fmt.Errorf("keyword index is closed")
	}
	if strings.TrimSpace(query) == "" {
		return []*KeywordResult{}, nil
	}

	tokens := k.prepareText(query)
	if len(tokens) == 0 {
		return []*KeywordResult{}, nil
	}

	// Quote each term so FTS5 never interprets query syntax; OR keeps
	// partial matches rankable instead of requiring every term.
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = `"` + t + `"`
	}
	match := strings.Join(quoted, " OR ")

	// bm25() is negative, lower is better; ORDER BY score ascending
	// puts the best match first.
	rows, err := k.db.QueryContext(ctx, `
		SELECT chunk_id, bm25(fts_chunks) AS score
		FROM fts_chunks
		WHERE content MATCH ?
		ORDER BY score
		LIMIT ?`, match, limit)
	if err != nil {
		if strings.Contains(err.Error(), "fts5") || strings.Contains(err.Error(), "syntax error") {
			return []*KeywordResult{}, nil
		}
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}
	defer rows.Close()

	var results []*KeywordResult
	for rows.Next() {
		var idText string
		var score float64
		if err := rows.Scan(&idText, &score); err != nil {
			return nil, fmt.Errorf("failed to scan keyword result: %w", err)
		}
		id, err := strconv.ParseInt(idText, 10, 64)
		if err != nil {
			continue
		}
		results = append(results, &KeywordResult{
			ChunkID:      id,
			Score:        -score,
			MatchedTerms: tokens,
		})
	}
	return results, rows.Err()
}

// Delete removes keyword rows for the given chunk ids.
func (k *KeywordIndex) Delete(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if k.closed {
		return fmt.Errorf("keyword index is closed")
	}

	tx, err := k.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	in := strings.Join(placeholders, ",")

	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM fts_chunks WHERE chunk_id IN (%s)`, in), args...); err != nil {
		return fmt.Errorf("failed to delete keyword rows: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM fts_chunk_ids WHERE chunk_id IN (%s)`, in), args...); err != nil {
		return fmt.Errorf("failed to delete tracked ids: %w", err)
	}

	return tx.Commit()
}

// AllIDs returns every indexed chunk id, ascending.
func (k *KeywordIndex) AllIDs(ctx context.Context) ([]int64, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if k.closed {
		return nil, fmt.Errorf("keyword index is closed")
	}

	rows, err := k.db.QueryContext(ctx, `SELECT chunk_id FROM fts_chunk_ids ORDER BY chunk_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Stats returns keyword index statistics.
func (k *KeywordIndex) Stats(ctx context.Context) *KeywordStats {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if k.closed {
		return &KeywordStats{}
	}

	var count int
	if err := k.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fts_chunk_ids`).Scan(&count); err != nil {
		return &KeywordStats{}
	}
	return &KeywordStats{DocumentCount: count}
}

// Close marks the index closed. The shared database handle stays open;
// the SQLiteStore that owns it closes it.
func (k *KeywordIndex) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.closed = true
	return nil
}
