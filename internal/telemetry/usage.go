// Package telemetry accounts for embedding usage. Every billable
// provider call appends one row; Stats aggregates them for the stats
// surface. The recorder shares the SQLiteStore's database handle so
// usage rows live beside the chunks they paid for.
package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"
)

// Operations that consume embedding tokens.
const (
	OpCreate  = "create"
	OpRebuild = "rebuild"
	OpSearch  = "search"
	OpTest    = "test"
)

// recentWindow is the lookback for the "recent" aggregate.
const recentWindow = 30 * 24 * time.Hour

// UsageRecord is one embedding call.
type UsageRecord struct {
	ID         int64
	FilePath   string
	TextLength int
	TokensUsed int
	Operation  string
	CreatedAt  time.Time
}

// OperationStats aggregates usage for one operation kind.
type OperationStats struct {
	Operation   string `json:"operation"`
	Count       int64  `json:"count"`
	TotalTokens int64  `json:"total_tokens"`
}

// UsageStats is the aggregate view embedded in engine statistics.
type UsageStats struct {
	TotalTokens  int64            `json:"total_tokens_used"`
	RecentTokens int64            `json:"recent_tokens_used"`
	Operations   []OperationStats `json:"operations"`
}

// UsageRecorder appends and aggregates embedding usage rows. A nil
// *UsageRecorder is valid and records nothing, so callers do not need
// to branch on whether tracking is enabled.
type UsageRecorder struct {
	mu sync.Mutex
	db *sql.DB
}

// NewUsageRecorder creates a recorder on the shared database handle
// and ensures its table exists. The handle's owner closes it.
func NewUsageRecorder(db *sql.DB) (*UsageRecorder, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle is required")
	}
	r := &UsageRecorder{db: db}
	if err := r.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize usage schema: %w", err)
	}
	return r, nil
}

func (r *UsageRecorder) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS embedding_usage (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		file_path   TEXT NOT NULL DEFAULT '',
		text_length INTEGER NOT NULL DEFAULT 0,
		tokens_used INTEGER NOT NULL DEFAULT 0,
		operation   TEXT NOT NULL,
		created_ns  INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_embedding_usage_created ON embedding_usage(created_ns);
	`
	_, err := r.db.Exec(schema)
	return err
}

// Record appends one usage row. Recording is best effort from the
// engine's point of view; callers log failures and move on.
func (r *UsageRecorder) Record(ctx context.Context, filePath string, textLength, tokensUsed int, operation string) error {
	if r == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO embedding_usage (file_path, text_length, tokens_used, operation, created_ns)
		VALUES (?, ?, ?, ?, ?)`,
		filePath, textLength, tokensUsed, operation, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to record embedding usage: %w", err)
	}
	return nil
}

// Stats aggregates total tokens, tokens over the last 30 days, and
// per-operation counts. A nil recorder returns zeroes.
func (r *UsageRecorder) Stats(ctx context.Context) (*UsageStats, error) {
	if r == nil {
		return &UsageStats{Operations: []OperationStats{}}, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stats := &UsageStats{Operations: []OperationStats{}}

	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(tokens_used), 0) FROM embedding_usage`).Scan(&stats.TotalTokens)
	if err != nil {
		return nil, fmt.Errorf("failed to sum usage: %w", err)
	}

	cutoff := time.Now().Add(-recentWindow).UnixNano()
	err = r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(tokens_used), 0) FROM embedding_usage WHERE created_ns >= ?`,
		cutoff).Scan(&stats.RecentTokens)
	if err != nil {
		return nil, fmt.Errorf("failed to sum recent usage: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT operation, COUNT(*), COALESCE(SUM(tokens_used), 0)
		FROM embedding_usage
		GROUP BY operation
		ORDER BY operation`)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage by operation: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var op OperationStats
		if err := rows.Scan(&op.Operation, &op.Count, &op.TotalTokens); err != nil {
			return nil, fmt.Errorf("failed to scan usage row: %w", err)
		}
		stats.Operations = append(stats.Operations, op)
	}
	return stats, rows.Err()
}

// Prune removes rows older than the retention window, reporting how
// many were dropped. Long-lived daemons call this after each cycle.
func (r *UsageRecorder) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if r == nil {
		return 0, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-retention).UnixNano()
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM embedding_usage WHERE created_ns < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune usage rows: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
